package handler

import (
	"net/http"

	"glovy/backend/internal/coach"
	"glovy/backend/internal/realtime"

	"github.com/gin-gonic/gin"
)

// Handler містить залежності HTTP-шару.
type Handler struct {
	Processor  *coach.Processor
	Supervisor *realtime.Supervisor
	JWTSecret  []byte
}

func NewHandler(p *coach.Processor, s *realtime.Supervisor, jwtSecret string) *Handler {
	return &Handler{
		Processor:  p,
		Supervisor: s,
		JWTSecret:  []byte(jwtSecret),
	}
}

// Health reports process liveness and the realtime subscription state.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"realtime": h.Supervisor.State(),
	})
}
