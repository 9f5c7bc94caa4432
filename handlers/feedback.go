package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"feedback-triage/models"
	"feedback-triage/services"
)

const (
	defaultListLimit     = 50
	defaultPriorityLimit = 5
)

// HandleListFeedback はフィードバックの一覧を返す
// GET /api/feedback?source=&sentiment=&limit=50&offset=0
func HandleListFeedback(store services.FeedbackStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := queryInt(c, "limit", defaultListLimit)
		if limit <= 0 {
			limit = defaultListLimit
		}
		offset := queryInt(c, "offset", 0)
		if offset < 0 {
			offset = 0
		}

		filter, err := models.ParseFeedbackFilter(c.Query("source"), c.Query("sentiment"), limit, offset)
		if err != nil {
			respondError(c, err)
			return
		}

		items, err := store.List(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, items)
	}
}

// HandleHighPriority は高優先度のフィードバックを返す
// GET /api/feedback/priority?limit=5
func HandleHighPriority(store services.FeedbackStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := queryInt(c, "limit", defaultPriorityLimit)
		if limit <= 0 {
			limit = defaultPriorityLimit
		}

		items, err := store.ListHighPriority(c.Request.Context(), limit)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, items)
	}
}

// HandleGetFeedback は1件のフィードバックを返す
func HandleGetFeedback(store services.FeedbackStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}

		found, err := store.GetByID(c.Request.Context(), uint(id))
		if err != nil {
			respondError(c, err)
			return
		}

		fb, ok := found.Get()
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		c.JSON(http.StatusOK, fb)
	}
}

// HandleCreateFeedback はフィードバックを登録する
// 分析は後からバッチで行うため、登録直後は sentiment / priority_score とも null
func HandleCreateFeedback(store services.FeedbackStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CreateFeedbackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "source and text are required"})
			return
		}
		// 外部IDは取り込み経路でのみ設定する
		req.ExternalID = nil

		fb, _, err := services.IngestFeedback(c.Request.Context(), store, req, services.IngestPathAPI)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, fb)
	}
}
