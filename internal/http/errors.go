package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stay-on-one/internal/domain"
	"stay-on-one/internal/service"
)

// writeServiceError traduce errores del motor a respuestas HTTP.
func writeServiceError(c *gin.Context, logger *zap.Logger, op string, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error(), "field": ve.Field})
	case errors.Is(err, service.ErrGoalNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "goal not found"})
	case errors.Is(err, service.ErrCheckinAlreadyScored):
		c.JSON(http.StatusConflict, gin.H{"error": "already checked in today"})
	case errors.Is(err, service.ErrCheckinInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": "check-in already in progress"})
	case errors.Is(err, service.ErrStoreClosed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "shutting down"})
	case errors.Is(err, service.ErrLifeWheelTooFewGoals):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		logger.Error(op+" failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// categoryParam lee :categoryId; responde 400 si no es un id de categoria valido.
func categoryParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("categoryId"))
	if err != nil || !domain.IsValidCategory(id) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category id"})
		return 0, false
	}
	return id, true
}
