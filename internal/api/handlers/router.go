package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.Use(corsMiddleware())

	r.GET("/", h.Index)

	// 状态
	r.GET("/state", h.GetState)
	r.GET("/state/persisted", h.GetPersistedState)

	// 控制
	control := r.Group("/control")
	{
		control.POST("/motorSpeed", h.SetMotorSpeed)
		control.POST("/charging", h.SetCharging)
		control.POST("/engine", h.SetEngine)
		control.POST("/brakeHold", h.SetBrakeHold)
		control.POST("/temperature", h.ShowTemperature) // 仅展示用
	}

	// WebSocket
	r.GET("/ws", h.HandleWebSocket)

	// 健康检查
	r.GET("/health", h.HealthCheck)

	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics))
	}
}

// corsMiddleware CORS 中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
