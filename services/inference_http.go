package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"feedback-triage/metrics"
)

const userAgent = "feedback-triage/1.0"

// postClassifierJSON は分類APIへ JSON を POST して応答を output にデコードする
// 通信エラー・非2xx は ErrClassifierUnavailable、デコード失敗は ErrMalformedClassification
func postClassifierJSON(ctx context.Context, client *http.Client, backend, endpoint, token string, input any, output any) error {
	start := time.Now()
	defer func() {
		metrics.ClassifierRequestDuration.WithLabelValues(backend).Observe(time.Since(start).Seconds())
	}()

	body, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to marshal input: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		metrics.ClassifierErrorsTotal.WithLabelValues(backend).Inc()
		return fmt.Errorf("%w: %s request failed: %v", ErrClassifierUnavailable, backend, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ClassifierErrorsTotal.WithLabelValues(backend).Inc()
		return fmt.Errorf("%w: failed to read %s response: %v", ErrClassifierUnavailable, backend, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.ClassifierErrorsTotal.WithLabelValues(backend).Inc()
		slog.Error("classifier returned error status",
			slog.String("backend", backend),
			slog.Int("status", resp.StatusCode),
			getPreview(respBody))
		return fmt.Errorf("%w: %s returned status %d", ErrClassifierUnavailable, backend, resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, output); err != nil {
		metrics.ClassifierErrorsTotal.WithLabelValues(backend).Inc()
		slog.Error("failed to unmarshal classifier response",
			slog.String("backend", backend),
			slog.String("error", err.Error()),
			getPreview(respBody))
		return fmt.Errorf("%w: %v", ErrMalformedClassification, err)
	}

	return nil
}

func getPreview(respBody []byte) slog.Attr {
	raw := string(respBody)
	if len(raw) > 100 {
		raw = raw[:100]
	}
	return slog.String("raw_response", raw)
}
