package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/go-github/v71/github"

	"feedback-triage/models"
	"feedback-triage/services"
)

// HandleGitHubWebhook は GitHub の issue / コメントをフィードバックとして取り込む
// secret が空の場合は署名を検証しない
func HandleGitHubWebhook(store services.FeedbackStore, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := github.ValidatePayload(c.Request, []byte(secret))
		if err != nil {
			slog.Warn("invalid github webhook payload", slog.String("error", err.Error()))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid payload"})
			return
		}

		event, err := github.ParseWebHook(github.WebHookType(c.Request), payload)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot parse webhook"})
			return
		}

		var req *models.CreateFeedbackRequest

		switch e := event.(type) {
		case *github.IssuesEvent:
			if e.GetAction() == "opened" && e.Issue != nil {
				r := services.FeedbackFromIssue(e.GetRepo().GetOwner().GetLogin(), e.GetRepo().GetName(), e.Issue)
				req = &r
			}
		case *github.IssueCommentEvent:
			// プルリクエストへのコメントはフィードバックとして扱わない
			if e.GetAction() == "created" && e.Comment != nil && !e.GetIssue().IsPullRequest() {
				r := services.FeedbackFromIssueComment(e.GetRepo().GetOwner().GetLogin(), e.GetRepo().GetName(), e.Comment)
				req = &r
			}
		case *github.PingEvent:
			c.JSON(http.StatusOK, gin.H{"message": "pong"})
			return
		}

		if req == nil {
			c.JSON(http.StatusOK, gin.H{"message": "ignored"})
			return
		}

		fb, created, err := services.IngestFeedback(c.Request.Context(), store, *req, services.IngestPathGitHubWebhook)
		if err != nil {
			respondError(c, err)
			return
		}
		if !created {
			c.JSON(http.StatusOK, gin.H{"message": "already ingested"})
			return
		}

		c.JSON(http.StatusCreated, fb)
	}
}
