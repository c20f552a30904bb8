package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"chat-sync/internal/middleware"
	"chat-sync/internal/models"
	"chat-sync/internal/repositories"
	"chat-sync/internal/telemetry"
)

// RegisterDebugRoutes wires dev-only endpoints: room seeding, token minting
// for the auth collaborator stand-in, and a telemetry smoke check.
func RegisterDebugRoutes(router *gin.Engine, roomRepo repositories.RoomRepository, emitter *telemetry.Emitter, jwtSecret string, enabled bool) {
	if !enabled {
		return
	}

	router.POST("/debug/rooms", func(c *gin.Context) {
		var req struct {
			Label   string             `json:"label"`
			Mentor  models.Participant `json:"mentor" binding:"required"`
			Learner models.Participant `json:"learner" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		room, err := roomRepo.CreateRoom(c.Request.Context(), req.Label, req.Mentor, req.Learner)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create room"})
			return
		}
		c.JSON(http.StatusCreated, room)
	})

	router.POST("/debug/tokens", func(c *gin.Context) {
		var req struct {
			UserID string `json:"user_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		token, err := middleware.MintToken(jwtSecret, req.UserID, 24*time.Hour)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mint token"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	})

	router.GET("/debug/event-test", func(c *gin.Context) {
		if emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "emitter not configured"})
			return
		}
		emitter.Emit(c.Request.Context(), "event_test", "debug route", "", userIDFromContext(c))
		c.JSON(http.StatusOK, gin.H{"status": "ok", "request_id": requestIDFromContext(c)})
	})
}
