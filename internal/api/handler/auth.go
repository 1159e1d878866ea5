package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	jwt "github.com/golang-jwt/jwt/v5"
)

// generateJWT генерує JWT з ID учасника
func (h *Handler) generateJWT(participantID string) (string, error) {
	claims := jwt.MapClaims{
		"participant_id": participantID,
		"exp":            time.Now().Add(time.Hour * 72).Unix(),
		"iss":            "glovy-service",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.JWTSecret)
}

// validateAndGetParticipantID перевіряє токен і повертає ID учасника.
func (h *Handler) validateAndGetParticipantID(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return h.JWTSecret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid claims")
	}
	id, _ := claims["participant_id"].(string)
	if id == "" {
		return "", fmt.Errorf("participant_id missing")
	}
	return id, nil
}

// GetToken створює ID учасника та повертає JWT
func (h *Handler) GetToken(c *gin.Context) {
	participantID := c.Query("participant_id")
	if participantID == "" {
		anonUUID, _ := uuid.NewRandom()
		participantID = anonUUID.String()
	}

	token, err := h.generateJWT(participantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "participant_id": participantID})
}

// participantFromAuth дістає ID учасника з заголовка Authorization.
func (h *Handler) participantFromAuth(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token missing"})
		return "", false
	}

	participantID, err := h.validateAndGetParticipantID(authHeader[7:])
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token or expired"})
		return "", false
	}
	return participantID, true
}
