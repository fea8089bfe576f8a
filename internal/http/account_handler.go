package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stay-on-one/internal/domain"
	"stay-on-one/internal/service"
)

const defaultWheelRadius = 100.0

// AccountHandler expone metas, check-ins y vistas derivadas.
type AccountHandler struct {
	logger *zap.Logger
	store  *service.AccountStore
}

func NewAccountHandler(logger *zap.Logger, store *service.AccountStore) *AccountHandler {
	return &AccountHandler{logger: logger, store: store}
}

// ListCategories maneja GET /categories.
func (h *AccountHandler) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": domain.Categories()})
}

// GetAccount maneja GET /account.
func (h *AccountHandler) GetAccount(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"account": h.store.Snapshot(), "round": h.store.Round()})
}

// SetName maneja PUT /account/name.
func (h *AccountHandler) SetName(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid set name request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := h.store.SetName(req.Name); err != nil {
		writeServiceError(c, h.logger, "set name", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": h.store.Name()})
}

// SetGoal maneja PUT /goals/:categoryId.
func (h *AccountHandler) SetGoal(c *gin.Context) {
	id, ok := categoryParam(c)
	if !ok {
		return
	}
	var req struct {
		Text   string `json:"text"`
		Metric string `json:"metric"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid set goal request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	goal, err := h.store.SetGoal(id, req.Text, req.Metric)
	if err != nil {
		writeServiceError(c, h.logger, "set goal", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"goal": goal, "score": h.store.Score(id)})
}

// RemoveGoal maneja DELETE /goals/:categoryId. El historial se conserva.
func (h *AccountHandler) RemoveGoal(c *gin.Context) {
	id, ok := categoryParam(c)
	if !ok {
		return
	}
	if err := h.store.RemoveGoal(id); err != nil {
		writeServiceError(c, h.logger, "remove goal", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CheckinState maneja GET /goals/:categoryId/checkin.
func (h *AccountHandler) CheckinState(c *gin.Context) {
	id, ok := categoryParam(c)
	if !ok {
		return
	}
	if _, exists := h.store.Goal(id); !exists {
		writeServiceError(c, h.logger, "checkin state", service.ErrGoalNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category_id": id, "date": h.store.Today(), "state": h.store.CheckinState(id)})
}

// RecordCheckin maneja POST /goals/:categoryId/checkins.
func (h *AccountHandler) RecordCheckin(c *gin.Context) {
	id, ok := categoryParam(c)
	if !ok {
		return
	}
	var req struct {
		Note string `json:"note"`
		Mood int    `json:"mood"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid checkin request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	res, err := h.store.RecordCheckin(c.Request.Context(), id, req.Note, req.Mood)
	if err != nil {
		writeServiceError(c, h.logger, "record checkin", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"checkin": res, "round": h.store.Round()})
}

// History maneja GET /goals/:categoryId/history?window=.
// Funciona tambien para metas borradas mientras quede historial.
func (h *AccountHandler) History(c *gin.Context) {
	id, ok := categoryParam(c)
	if !ok {
		return
	}
	window := service.JourneyWindowGoal
	if raw := c.Query("window"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid window"})
			return
		}
		window = n
	}

	goal, active := h.store.Goal(id)
	logs := h.store.Logs(id)
	if !active && len(logs) == 0 {
		writeServiceError(c, h.logger, "history", service.ErrGoalNotFound)
		return
	}

	resp := gin.H{
		"category": domain.CategoryOrDefault(id),
		"active":   active,
		"score":    h.store.Score(id),
		"stats":    service.ComputeGoalStats(logs, h.store.Now()),
		"months":   service.MonthlyGroupsDesc(logs),
		"journey":  service.RunningJourney(logs, window),
	}
	if active {
		resp["goal"] = goal
	}
	c.JSON(http.StatusOK, resp)
}

// Round maneja GET /round.
func (h *AccountHandler) Round(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"date": h.store.Today(), "round": h.store.Round(), "pending": h.store.PendingGoals()})
}

// Dashboard maneja GET /dashboard.
func (h *AccountHandler) Dashboard(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"dashboard": service.BuildDashboard(h.store)})
}

// LifeWheel maneja GET /life-wheel?radius=.
func (h *AccountHandler) LifeWheel(c *gin.Context) {
	radius := defaultWheelRadius
	if raw := c.Query("radius"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil || r <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid radius"})
			return
		}
		radius = r
	}
	points, err := service.LifeWheel(h.store.GoalIDs(), h.store.Score, radius)
	if err != nil {
		writeServiceError(c, h.logger, "life wheel", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"radius": radius, "points": points})
}
