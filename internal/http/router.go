package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"stay-on-one/internal/service"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// NewRouter configura el router de Gin con middlewares y rutas.
// Con JWT deshabilitado (sin secreto) las rutas de la cuenta quedan abiertas.
func NewRouter(
	logger *zap.Logger,
	jwtSvc *service.JWTService,
	authH *AuthHandler,
	accountH *AccountHandler,
	coachH *CoachHandler,
) *gin.Engine {
	r := gin.New()

	r.Use(requestIDMiddleware(), zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := r.Group("/auth")
	auth.POST("/token", authH.Login)
	auth.POST("/refresh", authH.Refresh)
	auth.POST("/logout", authH.Logout)

	api := r.Group("")
	if jwtSvc.Enabled() {
		api.Use(JWTAuthMiddleware(jwtSvc))
	}

	api.GET("/categories", accountH.ListCategories)
	api.GET("/account", accountH.GetAccount)
	api.PUT("/account/name", accountH.SetName)
	api.GET("/dashboard", accountH.Dashboard)
	api.GET("/life-wheel", accountH.LifeWheel)
	api.GET("/round", accountH.Round)

	goals := api.Group("/goals")
	goals.PUT("/:categoryId", accountH.SetGoal)
	goals.DELETE("/:categoryId", accountH.RemoveGoal)
	goals.GET("/:categoryId/checkin", accountH.CheckinState)
	goals.POST("/:categoryId/checkins", accountH.RecordCheckin)
	goals.GET("/:categoryId/history", accountH.History)
	goals.GET("/:categoryId/chat", coachH.GetGoalChat)
	goals.POST("/:categoryId/chat", coachH.PostGoalChat)

	api.GET("/coach/greeting", coachH.Greeting)
	api.POST("/coach", coachH.Ask)

	api.GET("/vision", coachH.GetVision)
	api.PUT("/vision", coachH.PutVision)
	api.POST("/vision/regenerate", coachH.RegenerateVision)

	return r
}

// requestIDMiddleware reutiliza X-Request-ID si viene del cliente o genera uno nuevo.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString(requestIDKey)),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
