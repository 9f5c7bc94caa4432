package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const (
	BackendWorkersAI = "workers-ai"

	DefaultWorkersAIBaseURL = "https://api.cloudflare.com/client/v4"
	DefaultWorkersAIModel   = "@cf/huggingface/distilbert-sst-2-int8"
)

// WorkersAIClient は Cloudflare Workers AI のテキスト分類モデルを REST API 経由で呼び出す
type WorkersAIClient struct {
	httpClient *http.Client
	baseURL    string
	accountID  string
	apiToken   string
	model      string
}

func NewWorkersAIClient(httpClient *http.Client, accountID, apiToken, model string) *WorkersAIClient {
	if model == "" {
		model = DefaultWorkersAIModel
	}
	return &WorkersAIClient{
		httpClient: httpClient,
		baseURL:    DefaultWorkersAIBaseURL,
		accountID:  accountID,
		apiToken:   apiToken,
		model:      model,
	}
}

type workersAIRequest struct {
	Text string `json:"text"`
}

type workersAIMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type workersAIResponse struct {
	Result  []Classification   `json:"result"`
	Success bool               `json:"success"`
	Errors  []workersAIMessage `json:"errors"`
}

func (c *WorkersAIClient) endpoint() string {
	return fmt.Sprintf("%s/accounts/%s/ai/run/%s", strings.TrimRight(c.baseURL, "/"), c.accountID, c.model)
}

func (c *WorkersAIClient) Infer(ctx context.Context, text string) ([]Classification, error) {
	var resp workersAIResponse
	if err := postClassifierJSON(ctx, c.httpClient, BackendWorkersAI, c.endpoint(), c.apiToken, workersAIRequest{Text: text}, &resp); err != nil {
		return nil, err
	}

	if !resp.Success {
		msg := "unknown error"
		if len(resp.Errors) > 0 {
			msg = resp.Errors[0].Message
		}
		return nil, fmt.Errorf("%w: workers ai error: %s", ErrClassifierUnavailable, msg)
	}

	if len(resp.Result) == 0 {
		return nil, fmt.Errorf("%w: workers ai returned no labels", ErrMalformedClassification)
	}

	return resp.Result, nil
}
