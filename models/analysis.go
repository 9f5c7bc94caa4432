package models

// AnalysisResult は1件分の分析結果
type AnalysisResult struct {
	ID            uint      `json:"id"`
	Sentiment     Sentiment `json:"sentiment"`
	PriorityScore int       `json:"priority_score"`
}

// BatchResult はバッチ分析1回分の集計
type BatchResult struct {
	Processed int              `json:"processed"`
	Remaining int64            `json:"remaining"`
	Items     []AnalysisResult `json:"items"`
}
