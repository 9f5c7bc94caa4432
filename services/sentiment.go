package services

import (
	"context"
	"errors"
	"fmt"

	"feedback-triage/models"
)

// ConfidenceThreshold 未満の確信度は neutral とみなす
const ConfidenceThreshold = 0.6

const (
	LabelPositive = "POSITIVE"
	LabelNegative = "NEGATIVE"
)

var (
	// ErrClassifierUnavailable は分類器に到達できない・エラーを返した場合
	ErrClassifierUnavailable = errors.New("sentiment classifier unavailable")
	// ErrMalformedClassification は分類器の応答が解釈できない場合
	ErrMalformedClassification = errors.New("malformed classification response")
)

// Classification は分類器が返すラベルとスコアの組
type Classification struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// SentimentInferrer はテキスト分類の外部機能
// 返り値の順序は保証されない
type SentimentInferrer interface {
	Infer(ctx context.Context, text string) ([]Classification, error)
}

// topClassification は最大スコアの要素を返す（同点なら先に出現したもの）
func topClassification(results []Classification) (Classification, bool) {
	if len(results) == 0 {
		return Classification{}, false
	}
	top := results[0]
	for _, r := range results[1:] {
		if r.Score > top.Score {
			top = r
		}
	}
	return top, true
}

// SentimentFromClassifications は分類結果を3値の感情に変換する
func SentimentFromClassifications(results []Classification) (models.Sentiment, error) {
	top, ok := topClassification(results)
	if !ok {
		return "", fmt.Errorf("%w: empty result", ErrMalformedClassification)
	}

	// 確信度が低い場合はラベルに関係なく neutral
	if top.Score < ConfidenceThreshold {
		return models.SentimentNeutral, nil
	}

	switch top.Label {
	case LabelPositive:
		return models.SentimentPositive, nil
	case LabelNegative:
		return models.SentimentNegative, nil
	default:
		return models.SentimentNeutral, nil
	}
}

// AnalyzeSentiment はテキストの感情を分類する
// 分類器のエラーは既定値に置き換えずにそのまま返す
func AnalyzeSentiment(ctx context.Context, inferrer SentimentInferrer, text string) (models.Sentiment, error) {
	results, err := inferrer.Infer(ctx, text)
	if err != nil {
		return "", fmt.Errorf("failed to classify text: %w", err)
	}
	return SentimentFromClassifications(results)
}
