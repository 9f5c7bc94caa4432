package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const (
	BackendHuggingFace = "huggingface"

	DefaultHuggingFaceBaseURL = "https://api-inference.huggingface.co"
	DefaultHuggingFaceModel   = "distilbert/distilbert-base-uncased-finetuned-sst-2-english"
)

// HuggingFaceClient は Hugging Face Inference API のテキスト分類を呼び出す
type HuggingFaceClient struct {
	httpClient *http.Client
	baseURL    string
	apiToken   string
	model      string
}

func NewHuggingFaceClient(httpClient *http.Client, apiToken, model string) *HuggingFaceClient {
	if model == "" {
		model = DefaultHuggingFaceModel
	}
	return &HuggingFaceClient{
		httpClient: httpClient,
		baseURL:    DefaultHuggingFaceBaseURL,
		apiToken:   apiToken,
		model:      model,
	}
}

type huggingFaceRequest struct {
	Inputs string `json:"inputs"`
}

// 入力1件でも [[{label, score}, ...]] の二重配列で返るモデルと、
// [{label, score}, ...] で返るモデルがあるため両方受け付ける
func parseHuggingFaceResponse(raw json.RawMessage) ([]Classification, error) {
	var nested [][]Classification
	if err := json.Unmarshal(raw, &nested); err == nil {
		if len(nested) == 0 {
			return nil, nil
		}
		return nested[0], nil
	}

	var flat []Classification
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, err
	}
	return flat, nil
}

func (c *HuggingFaceClient) Infer(ctx context.Context, text string) ([]Classification, error) {
	endpoint := fmt.Sprintf("%s/models/%s", strings.TrimRight(c.baseURL, "/"), c.model)

	var raw json.RawMessage
	if err := postClassifierJSON(ctx, c.httpClient, BackendHuggingFace, endpoint, c.apiToken, huggingFaceRequest{Inputs: text}, &raw); err != nil {
		return nil, err
	}

	results, err := parseHuggingFaceResponse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedClassification, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: huggingface returned no labels", ErrMalformedClassification)
	}

	return results, nil
}
