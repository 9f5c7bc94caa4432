package services

import (
	"context"
	"testing"

	"feedback-triage/models"

	"github.com/google/go-github/v71/github"
	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepoFullName(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		owner     string
		repo      string
		expectErr bool
	}{
		{"valid", "acme/mobile-app", "acme", "mobile-app", false},
		{"dots and underscores", "acme.io/web_app", "acme.io", "web_app", false},
		{"surrounding spaces", " acme/api ", "acme", "api", false},
		{"missing repo", "acme", "", "", true},
		{"too many parts", "acme/api/issues", "", "", true},
		{"empty", "", "", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			owner, repo, err := ParseRepoFullName(tc.input)
			if tc.expectErr {
				assert.Error(t, err)
				var validationErr *models.ValidationError
				assert.ErrorAs(t, err, &validationErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.owner, owner)
			assert.Equal(t, tc.repo, repo)
		})
	}
}

func TestGitHubIssueText(t *testing.T) {
	assert.Equal(t, "Crash on start\n\nThe app crashes when I open it", GitHubIssueText("Crash on start", "The app **crashes** when I open it"))
	assert.Equal(t, "Only a title", GitHubIssueText("Only a title", ""))
	assert.Equal(t, "body only", GitHubIssueText("  ", "body only"))
}

func TestFeedbackFromIssue(t *testing.T) {
	issue := &github.Issue{
		Number: github.Ptr(12),
		Title:  github.Ptr("Please add dark mode"),
		Body:   github.Ptr("It would be great to have a dark theme"),
		User:   &github.User{Login: github.Ptr("octocat")},
	}

	req := FeedbackFromIssue("acme", "app", issue)

	assert.Equal(t, models.SourceGitHub, req.Source)
	assert.Equal(t, "Please add dark mode\n\nIt would be great to have a dark theme", req.Text)
	require.NotNil(t, req.User)
	assert.Equal(t, "octocat", *req.User)
	require.NotNil(t, req.ExternalID)
	assert.Equal(t, "github:acme/app#12", *req.ExternalID)
}

func TestFeedbackFromIssueComment(t *testing.T) {
	comment := &github.IssueComment{
		ID:   github.Ptr(int64(9001)),
		Body: github.Ptr("Same problem here, `export` is broken"),
	}

	req := FeedbackFromIssueComment("acme", "app", comment)

	assert.Equal(t, "Same problem here, export is broken", req.Text)
	assert.Nil(t, req.User)
	assert.Equal(t, "github:acme/app/comment/9001", *req.ExternalID)
}

func TestImportGitHubIssues(t *testing.T) {
	defer gock.Off() // テスト終了時にモックをクリア

	gock.New("https://api.github.com").
		Get("/repos/acme/app/issues").
		MatchParam("state", "open").
		MatchParam("per_page", "50").
		MatchHeader("Authorization", "Bearer gh-token").
		Reply(200).
		SetHeader("Link", `<https://api.github.com/repos/acme/app/issues?page=2&per_page=50&state=open>; rel="next"`).
		JSON([]map[string]interface{}{
			{"number": 1, "title": "App crashes on login", "body": "It is **broken**", "user": map[string]interface{}{"login": "alice"}},
			{"number": 2, "title": "Fix typo", "pull_request": map[string]interface{}{"url": "https://api.github.com/repos/acme/app/pulls/2"}},
		})

	gock.New("https://api.github.com").
		Get("/repos/acme/app/issues").
		MatchParam("page", "2").
		Reply(200).
		JSON([]map[string]interface{}{
			{"number": 3, "title": "Please add CSV export", "body": ""},
		})

	store, _ := setupTestStore(t)
	ctx := context.Background()
	client := NewGitHubClient(ctx, "gh-token")

	result, err := ImportGitHubIssues(ctx, client, store, "acme", "app")

	require.NoError(t, err)
	assert.Equal(t, "acme/app", result.Repository)
	assert.Equal(t, 3, result.Fetched)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 1, result.Skipped)
	assert.True(t, gock.IsDone(), "すべてのモックが使用されていません")

	items, err := store.List(ctx, models.FeedbackFilter{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, item := range items {
		assert.Equal(t, models.SourceGitHub, item.Source)
	}

	exists, err := store.ExistsByExternalID(ctx, "github:acme/app#1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestImportGitHubIssues_SkipsAlreadyImported(t *testing.T) {
	defer gock.Off()

	issues := []map[string]interface{}{
		{"number": 7, "title": "Search is slow", "body": "Takes ten seconds"},
	}
	gock.New("https://api.github.com").Get("/repos/acme/app/issues").Times(2).Reply(200).JSON(issues)

	store, _ := setupTestStore(t)
	ctx := context.Background()
	client := NewGitHubClient(ctx, "gh-token")

	first, err := ImportGitHubIssues(ctx, client, store, "acme", "app")
	require.NoError(t, err)
	second, err := ImportGitHubIssues(ctx, client, store, "acme", "app")
	require.NoError(t, err)

	assert.Equal(t, 1, first.Imported)
	assert.Equal(t, 0, second.Imported)
	assert.Equal(t, 1, second.Skipped)

	count, err := store.CountUnanalyzed(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestImportGitHubIssues_APIError(t *testing.T) {
	defer gock.Off()

	gock.New("https://api.github.com").
		Get("/repos/acme/missing/issues").
		Reply(404).
		JSON(map[string]interface{}{"message": "Not Found"})

	store, _ := setupTestStore(t)
	ctx := context.Background()

	_, err := ImportGitHubIssues(ctx, NewGitHubClient(ctx, "gh-token"), store, "acme", "missing")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list issues for acme/missing")
}
