package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"feedback-triage/services"
)

// HandleAnalyze は未分析のフィードバックを1バッチ分析する
// POST /api/analyze?batch=10
func HandleAnalyze(analyzer *services.Analyzer, defaultBatchSize int) gin.HandlerFunc {
	return func(c *gin.Context) {
		batchSize := queryInt(c, "batch", defaultBatchSize)

		result, err := analyzer.RunBatch(c.Request.Context(), batchSize)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}
