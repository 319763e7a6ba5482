package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/cartsync/internal/repository"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

// SessionEventResponse represents a journal entry
type SessionEventResponse struct {
	ID        string                 `json:"id"`
	Kind      string                 `json:"kind"`
	Subject   string                 `json:"subject"`
	Data      map[string]interface{} `json:"data,omitempty"`
	CreatedAt string                 `json:"created_at"`
}

// HandleListEvents handles GET /v1/admin/events
func HandleListEvents(events repository.SessionEventReader, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := defaultEventLimit
		if limitStr := c.Query("limit"); limitStr != "" {
			l, err := strconv.Atoi(limitStr)
			if err != nil || l <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
				return
			}
			limit = l
		}
		if limit > maxEventLimit {
			limit = maxEventLimit
		}

		list, err := events.ListRecent(c.Request.Context(), limit)
		if err != nil {
			logger.Error("Failed to list session events", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		resp := make([]SessionEventResponse, 0, len(list))
		for _, e := range list {
			resp = append(resp, SessionEventResponse{
				ID:        e.ID.String(),
				Kind:      e.Kind,
				Subject:   e.Subject,
				Data:      e.Data,
				CreatedAt: e.CreatedAt.Format(time.RFC3339),
			})
		}

		c.JSON(http.StatusOK, gin.H{
			"events": resp,
			"count":  len(resp),
			"limit":  limit,
		})
	}
}
