package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/go-github/v71/github"
	"golang.org/x/oauth2"

	"feedback-triage/models"
)

const githubImportPageSize = 50

var repoFullNamePattern = regexp.MustCompile(`^([A-Za-z0-9_.-]+)/([A-Za-z0-9_.-]+)$`)

// GitHubクライアントを作成する関数
// token が空の場合は認証なし（レート制限が厳しい）
func NewGitHubClient(ctx context.Context, token string) *github.Client {
	if token == "" {
		slog.Warn("GITHUB_TOKEN is not set, using unauthenticated client")
		return github.NewClient(&http.Client{})
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	return github.NewClient(oauth2.NewClient(ctx, ts))
}

// ParseRepoFullName は "owner/name" を分割する
func ParseRepoFullName(fullName string) (owner string, repo string, err error) {
	matches := repoFullNamePattern.FindStringSubmatch(strings.TrimSpace(fullName))
	if len(matches) != 3 {
		return "", "", models.NewValidationError("repo must be in the form owner/name")
	}
	return matches[1], matches[2], nil
}

// GitHubIssueExternalID は issue の取り込み用の識別子
func GitHubIssueExternalID(owner, repo string, number int) string {
	return fmt.Sprintf("github:%s/%s#%d", owner, repo, number)
}

// GitHubCommentExternalID はコメントの取り込み用の識別子
func GitHubCommentExternalID(owner, repo string, commentID int64) string {
	return fmt.Sprintf("github:%s/%s/comment/%d", owner, repo, commentID)
}

// GitHubIssueText は issue のタイトルと本文を平文にまとめる
func GitHubIssueText(title, body string) string {
	title = strings.TrimSpace(title)
	body = MarkdownToPlainText(body)
	if body == "" {
		return title
	}
	if title == "" {
		return body
	}
	return title + "\n\n" + body
}

// FeedbackFromIssue は issue を github ソースのフィードバック入力に変換する
func FeedbackFromIssue(owner, repo string, issue *github.Issue) models.CreateFeedbackRequest {
	externalID := GitHubIssueExternalID(owner, repo, issue.GetNumber())
	req := models.CreateFeedbackRequest{
		Source:     models.SourceGitHub,
		Text:       GitHubIssueText(issue.GetTitle(), issue.GetBody()),
		ExternalID: &externalID,
	}
	if login := issue.GetUser().GetLogin(); login != "" {
		req.User = &login
	}
	return req
}

// FeedbackFromIssueComment はコメントを github ソースのフィードバック入力に変換する
func FeedbackFromIssueComment(owner, repo string, comment *github.IssueComment) models.CreateFeedbackRequest {
	externalID := GitHubCommentExternalID(owner, repo, comment.GetID())
	req := models.CreateFeedbackRequest{
		Source:     models.SourceGitHub,
		Text:       MarkdownToPlainText(comment.GetBody()),
		ExternalID: &externalID,
	}
	if login := comment.GetUser().GetLogin(); login != "" {
		req.User = &login
	}
	return req
}

// ImportResult は issue 取り込みの結果
type ImportResult struct {
	Repository string `json:"repository"`
	Fetched    int    `json:"fetched"`
	Imported   int    `json:"imported"`
	Skipped    int    `json:"skipped"`
}

// ImportGitHubIssues はリポジトリのオープンな issue をすべて取り込む
// プルリクエストと取り込み済みの issue はスキップする
func ImportGitHubIssues(ctx context.Context, client *github.Client, store FeedbackStore, owner, repo string) (*ImportResult, error) {
	result := &ImportResult{Repository: owner + "/" + repo}

	opts := &github.IssueListByRepoOptions{
		State:       "open",
		ListOptions: github.ListOptions{PerPage: githubImportPageSize},
	}

	for {
		issues, resp, err := client.Issues.ListByRepo(ctx, owner, repo, opts)
		if err != nil {
			return result, fmt.Errorf("failed to list issues for %s/%s: %w", owner, repo, err)
		}

		for _, issue := range issues {
			result.Fetched++
			if issue.IsPullRequest() {
				result.Skipped++
				continue
			}

			_, created, err := IngestFeedback(ctx, store, FeedbackFromIssue(owner, repo, issue), IngestPathGitHubImport)
			if err != nil {
				// タイトルも本文も空の issue は取り込めないのでスキップ
				if _, ok := err.(*models.ValidationError); ok {
					result.Skipped++
					continue
				}
				return result, fmt.Errorf("failed to import issue #%d: %w", issue.GetNumber(), err)
			}
			if created {
				result.Imported++
			} else {
				result.Skipped++
			}
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	slog.Info("github issues imported",
		slog.String("repository", result.Repository),
		slog.Int("fetched", result.Fetched),
		slog.Int("imported", result.Imported),
		slog.Int("skipped", result.Skipped))
	return result, nil
}
