package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/slack-go/slack"

	"feedback-triage/models"
)

const slackPreviewLength = 280

// SlackNotifier は高優先度のフィードバックを Slack チャンネルに通知する
type SlackNotifier struct {
	client  *slack.Client
	channel string
}

// NewSlackNotifier は Slack 通知クライアントを作成する
// apiURL が空の場合は slack.com を使う
func NewSlackNotifier(httpClient *http.Client, token, channel, apiURL string) *SlackNotifier {
	options := []slack.Option{slack.OptionHTTPClient(httpClient)}
	if apiURL != "" {
		options = append(options, slack.OptionAPIURL(apiURL))
	}
	return &SlackNotifier{
		client:  slack.New(token, options...),
		channel: channel,
	}
}

func (n *SlackNotifier) NotifyHighPriority(ctx context.Context, feedback models.Feedback, result models.AnalysisResult) error {
	blocks := BuildHighPriorityBlocks(feedback, result)
	fallback := fmt.Sprintf("High priority %s feedback (score %d)", feedback.Source, result.PriorityScore)

	channel, ts, err := n.client.PostMessageContext(ctx, n.channel,
		slack.MsgOptionText(fallback, false),
		slack.MsgOptionBlocks(blocks...),
	)
	if err != nil {
		return fmt.Errorf("failed to post slack message: %w", err)
	}

	slog.Info("high priority feedback notified",
		slog.Uint64("feedback_id", uint64(feedback.ID)),
		slog.String("channel", channel),
		slog.String("ts", ts))
	return nil
}

// CheckAlertChannel は通知先チャンネルが存在し、アーカイブされていないことを確認する
func (n *SlackNotifier) CheckAlertChannel(ctx context.Context) error {
	channel, err := n.client.GetConversationInfoContext(ctx, &slack.GetConversationInfoInput{ChannelID: n.channel})
	if err != nil {
		return fmt.Errorf("failed to get slack channel %s: %w", n.channel, err)
	}
	if channel.IsArchived {
		return fmt.Errorf("slack channel %s is archived", n.channel)
	}
	return nil
}

// BuildHighPriorityBlocks は通知メッセージの Block Kit を組み立てる
func BuildHighPriorityBlocks(feedback models.Feedback, result models.AnalysisResult) []slack.Block {
	header := fmt.Sprintf("*🚨 高優先度のフィードバックがあります！* (score %d/%d)", result.PriorityScore, MaxPriorityScore)

	user := "anonymous"
	if feedback.User != nil {
		user = *feedback.User
	}

	details := fmt.Sprintf("*Source*: %s\n*User*: %s\n*Sentiment*: %s\n*ID*: %d",
		feedback.Source, user, result.Sentiment, feedback.ID)

	return []slack.Block{
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, header, false, false), nil, nil),
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, quoteText(feedback.Text), false, false), nil, nil),
		slack.NewContextBlock("", slack.NewTextBlockObject(slack.MarkdownType, details, false, false)),
	}
}

// quoteText は本文を引用形式にする。長い本文は切り詰める
func quoteText(text string) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) > slackPreviewLength {
		text = string(runes[:slackPreviewLength]) + "…"
	} else {
		text = string(runes)
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = "> " + line
	}
	return strings.Join(lines, "\n")
}
