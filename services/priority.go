package services

import (
	"strings"
	"time"

	"feedback-triage/models"
)

const (
	MaxPriorityScore      = 10
	HighPriorityThreshold = 6
	RecencyWindow         = 24 * time.Hour
)

// 障害・緊急性を示すキーワード（先頭から順に判定する）
var CriticalKeywords = []string{
	"broken", "crash", "crashing", "can't", "cannot", "bug", "error",
	"down", "fail", "failing", "stuck", "not working", "blocked", "urgent",
	"critical", "500", "503", "locked out",
}

// 要望・問い合わせを示すキーワード
var RequestKeywords = []string{
	"please", "need", "want", "missing", "should", "would be nice",
	"wish", "add", "support", "help",
}

func sentimentBaseScore(sentiment models.Sentiment) int {
	switch sentiment {
	case models.SentimentNegative:
		return 5
	case models.SentimentNeutral:
		return 2
	default:
		return 0
	}
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

// keywordBonus は critical が見つかれば +2、なければ request で +1
// 両方に該当しても加点は1回だけ
func keywordBonus(text string) int {
	lowerText := strings.ToLower(text)
	if containsAny(lowerText, CriticalKeywords) {
		return 2
	}
	if containsAny(lowerText, RequestKeywords) {
		return 1
	}
	return 0
}

// recencyBonus は24時間以内なら +1
// 未来の時刻（差分が負）も24時間以内として扱う
func recencyBonus(timestamp, now time.Time) int {
	if now.Sub(timestamp) <= RecencyWindow {
		return 1
	}
	return 0
}

func clampScore(score int) int {
	if score > MaxPriorityScore {
		return MaxPriorityScore
	}
	if score < 0 {
		return 0
	}
	return score
}

// CalculatePriorityScore は感情・本文・投稿時刻から 0〜10 の優先度を計算する
// 同じ入力（now を含む）に対しては常に同じ値を返す
func CalculatePriorityScore(sentiment models.Sentiment, text string, timestamp time.Time, now time.Time) int {
	score := sentimentBaseScore(sentiment)
	score += keywordBonus(text)
	score += recencyBonus(timestamp, now)
	return clampScore(score)
}

// IsHighPriority は優先度が高いスコアかどうかを返す
func IsHighPriority(score int) bool {
	return score >= HighPriorityThreshold
}
