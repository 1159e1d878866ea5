package handler

import (
	"net/http"

	"glovy/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WhisperRequest is one participant's explicit ask for private coaching.
type WhisperRequest struct {
	MatchID string `json:"match_id" binding:"required"`
	Body    string `json:"body" binding:"required"`
}

// RequestWhisper runs the whisper pipeline for the authenticated
// participant and returns the persisted coach message, or 204 when no
// reply was produced.
func (h *Handler) RequestWhisper(c *gin.Context) {
	senderID, ok := h.participantFromAuth(c)
	if !ok {
		return
	}

	var req WhisperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg := models.Message{
		ID:       uuid.New().String(),
		MatchID:  req.MatchID,
		SenderID: &senderID,
		Body:     req.Body,
	}

	reply := h.Processor.ProcessWhisper(c.Request.Context(), msg)
	if reply == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, reply)
}
