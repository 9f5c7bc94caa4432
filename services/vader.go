package services

import (
	"context"

	"github.com/jonreiter/govader"
)

const BackendVADER = "vader"

// VADERInferrer は外部APIを使わずに VADER で分類するバックエンド
//
// compound スコア c (-1〜1) を POSITIVE=(1+c)/2, NEGATIVE=(1-c)/2 に変換する。
// 確信度 0.6 の閾値は |c| >= 0.2 に相当する。
type VADERInferrer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVADERInferrer() *VADERInferrer {
	return &VADERInferrer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (v *VADERInferrer) Infer(ctx context.Context, text string) ([]Classification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scores := v.analyzer.PolarityScores(MarkdownToPlainText(text))
	compound := scores.Compound

	return []Classification{
		{Label: LabelPositive, Score: (1 + compound) / 2},
		{Label: LabelNegative, Score: (1 - compound) / 2},
	}, nil
}
