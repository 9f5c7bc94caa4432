package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"feedback-triage/models"
	"feedback-triage/services"
)

// respondError はエラーの種類に応じてステータスを決めてレスポンスを返す
func respondError(c *gin.Context, err error) {
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
		return
	}

	slog.Error("request failed",
		slog.String("request_id", c.GetString(requestIDKey)),
		slog.String("path", c.Request.URL.Path),
		slog.String("error", err.Error()))

	if errors.Is(err, services.ErrClassifierUnavailable) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Classifier unavailable", "details": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "details": err.Error()})
}

// queryInt は数値のクエリパラメータを読む。未指定や不正な値なら def を返す
func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
