package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/go-github/v71/github"

	"feedback-triage/services"
)

type GitHubHandler struct {
	Store  services.FeedbackStore
	Client *github.Client
}

func NewGitHubHandler(store services.FeedbackStore, client *github.Client) *GitHubHandler {
	return &GitHubHandler{
		Store:  store,
		Client: client,
	}
}

// HandleImport はリポジトリのオープンな issue をまとめて取り込む
// POST /api/import/github?repo=owner/name
func (h *GitHubHandler) HandleImport(c *gin.Context) {
	owner, repo, err := services.ParseRepoFullName(c.Query("repo"))
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := services.ImportGitHubIssues(c.Request.Context(), h.Client, h.Store, owner, repo)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
