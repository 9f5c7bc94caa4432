package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"feedback-triage/models"
	"feedback-triage/services"
)

const discordIngestTimeout = 10 * time.Second

// DiscordIngester は Discord のメッセージをフィードバックとして取り込む
type DiscordIngester struct {
	session  *discordgo.Session
	store    services.FeedbackStore
	channels map[string]bool
}

// NewDiscordIngester は Bot セッションを作成してハンドラーを登録する
// channelIDs が空の場合は Bot が読めるすべてのチャンネルを対象にする
func NewDiscordIngester(botToken string, store services.FeedbackStore, channelIDs []string) (*DiscordIngester, error) {
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	ingester := newDiscordIngester(session, store, channelIDs)
	session.AddHandler(ingester.handleMessageCreate)
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	return ingester, nil
}

func newDiscordIngester(session *discordgo.Session, store services.FeedbackStore, channelIDs []string) *DiscordIngester {
	channels := map[string]bool{}
	for _, id := range channelIDs {
		if id = strings.TrimSpace(id); id != "" {
			channels[id] = true
		}
	}
	return &DiscordIngester{session: session, store: store, channels: channels}
}

func (d *DiscordIngester) Start() error {
	if err := d.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	slog.Info("discord ingester is listening", slog.Int("channels", len(d.channels)))
	return nil
}

func (d *DiscordIngester) Stop() {
	if err := d.session.Close(); err != nil {
		slog.Warn("failed to close Discord session", slog.String("error", err.Error()))
	}
}

func (d *DiscordIngester) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	botUserID := ""
	if s.State != nil && s.State.User != nil {
		botUserID = s.State.User.ID
	}

	ctx, cancel := context.WithTimeout(context.Background(), discordIngestTimeout)
	defer cancel()

	if _, err := d.ingestMessage(ctx, m.Message, botUserID); err != nil {
		slog.Error("failed to ingest discord message",
			slog.String("message_id", m.ID),
			slog.String("channel_id", m.ChannelID),
			slog.String("error", err.Error()))
	}
}

// ingestMessage は対象外のメッセージなら false を返す
func (d *DiscordIngester) ingestMessage(ctx context.Context, m *discordgo.Message, botUserID string) (bool, error) {
	if m == nil || m.Author == nil {
		return false, nil
	}
	// Bot 自身や他の Bot の発言は取り込まない
	if m.Author.Bot || m.Author.ID == botUserID {
		return false, nil
	}
	if len(d.channels) > 0 && !d.channels[m.ChannelID] {
		return false, nil
	}
	if strings.TrimSpace(m.Content) == "" {
		return false, nil
	}

	externalID := "discord:" + m.ID
	user := m.Author.Username
	req := models.CreateFeedbackRequest{
		Source:     models.SourceDiscord,
		Text:       m.Content,
		User:       &user,
		ExternalID: &externalID,
	}

	_, created, err := services.IngestFeedback(ctx, d.store, req, services.IngestPathDiscord)
	if err != nil {
		return false, err
	}
	return created, nil
}
