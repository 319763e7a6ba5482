package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/cartsync/internal/domain"
	"github.com/jafarshop/cartsync/internal/service"
)

// UpdateProfileRequest represents a single field edit
type UpdateProfileRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

// ProfileResponse represents the profile; CanOrder is false while a delivery field is blank
type ProfileResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
	CanOrder  bool   `json:"can_order"`
}

func toProfileResponse(p *domain.Profile) ProfileResponse {
	return ProfileResponse{
		ID:        p.ID,
		Username:  p.Username,
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Address:   p.Address,
		CanOrder:  p.DeliveryInfo().IsComplete(),
	}
}

// HandleGetProfile handles GET /v1/profile
func HandleGetProfile(profiles *service.ProfileService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, err := profiles.Me(c.Request.Context())
		if err != nil {
			writeError(c, logger, err, "could not load profile")
			return
		}
		c.JSON(http.StatusOK, toProfileResponse(profile))
	}
}

// HandleUpdateProfile handles PATCH /v1/profile
func HandleUpdateProfile(profiles *service.ProfileService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid request body",
				"details": err.Error(),
			})
			return
		}

		profile, err := profiles.UpdateField(c.Request.Context(), req.Field, req.Value)
		if err != nil {
			writeError(c, logger, err, "could not update profile")
			return
		}
		c.JSON(http.StatusOK, toProfileResponse(profile))
	}
}
