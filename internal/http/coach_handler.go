package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stay-on-one/internal/domain"
	"stay-on-one/internal/service"
)

// CoachHandler expone el chat por meta, el coach flotante y la vision.
type CoachHandler struct {
	logger *zap.Logger
	store  *service.AccountStore
	coach  *service.CoachService
	vision *service.VisionService
}

func NewCoachHandler(logger *zap.Logger, store *service.AccountStore, coach *service.CoachService, vision *service.VisionService) *CoachHandler {
	return &CoachHandler{logger: logger, store: store, coach: coach, vision: vision}
}

// GetGoalChat maneja GET /goals/:categoryId/chat.
func (h *CoachHandler) GetGoalChat(c *gin.Context) {
	id, ok := categoryParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"category_id": id, "messages": h.store.Chat(id)})
}

// PostGoalChat maneja POST /goals/:categoryId/chat.
func (h *CoachHandler) PostGoalChat(c *gin.Context) {
	id, ok := categoryParam(c)
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid goal chat request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	reply, err := h.coach.SendGoalChat(c.Request.Context(), id, req.Content)
	if err != nil {
		writeServiceError(c, h.logger, "goal chat", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user_message": reply.UserMessage, "coach_message": reply.CoachMessage})
}

// Greeting maneja GET /coach/greeting?page=.
func (h *CoachHandler) Greeting(c *gin.Context) {
	page := service.CoachPage(c.DefaultQuery("page", string(service.PageDashboard)))
	c.JSON(http.StatusOK, gin.H{
		"message":       domain.ChatMessage{Role: domain.ChatRoleCoach, Content: h.coach.Greeting(page)},
		"quick_prompts": service.QuickPrompts(page),
	})
}

// Ask maneja POST /coach. El cliente envia el historial completo.
func (h *CoachHandler) Ask(c *gin.Context) {
	var req struct {
		Page     string               `json:"page"`
		Messages []domain.ChatMessage `json:"messages"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid coach request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	msg, err := h.coach.Ask(c.Request.Context(), service.CoachPage(req.Page), req.Messages)
	if err != nil {
		writeServiceError(c, h.logger, "coach", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// GetVision maneja GET /vision.
func (h *CoachHandler) GetVision(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"vision": h.vision.Current()})
}

// PutVision maneja PUT /vision.
func (h *CoachHandler) PutVision(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid vision request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := h.vision.Replace(req.Text); err != nil {
		writeServiceError(c, h.logger, "replace vision", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vision": h.vision.Current()})
}

// RegenerateVision maneja POST /vision/regenerate. Una falla del coach responde 200 con
// regenerated=false y la vision anterior intacta.
func (h *CoachHandler) RegenerateVision(c *gin.Context) {
	out, err := h.vision.Synthesize(c.Request.Context())
	if err != nil {
		writeServiceError(c, h.logger, "vision", err)
		return
	}
	c.JSON(http.StatusOK, out)
}
