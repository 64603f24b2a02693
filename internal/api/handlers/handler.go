package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/langchou/vehiclesim/internal/models"
	"github.com/langchou/vehiclesim/pkg/ws"
)

// Simulator 模拟引擎的命令/查询接口
type Simulator interface {
	VehicleID() string
	Mode() string
	GetState() models.VehicleState
	SetMotorSpeed(speed float64)
	SetCharging(charging bool)
	SetEngine(on bool)
	SetBrakeHold(active bool)
}

// StateReader 读取最近一次持久化的状态
type StateReader interface {
	GetByVehicleID(ctx context.Context, vehicleID string) (*models.VehicleStateRecord, error)
}

// Handler HTTP 处理器
type Handler struct {
	logger    *zap.Logger
	simulator Simulator
	stateRepo StateReader
	wsHub     *ws.Hub
	metrics   http.Handler
	upgrader  websocket.Upgrader
}

// NewHandler 创建处理器，metrics 为 nil 时不暴露 /metrics
func NewHandler(
	logger *zap.Logger,
	simulator Simulator,
	stateRepo StateReader,
	wsHub *ws.Hub,
	metrics http.Handler,
) *Handler {
	return &Handler{
		logger:    logger,
		simulator: simulator,
		stateRepo: stateRepo,
		wsHub:     wsHub,
		metrics:   metrics,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 开发环境允许所有来源
			},
		},
	}
}

// Index 服务信息
func (h *Handler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Vehicle Dashboard Backend",
		"endpoints": gin.H{
			"/":                    "This info",
			"/state":               "Current vehicle state",
			"/state/persisted":     "Last persisted vehicle state",
			"/control/motorSpeed":  "Set motor speed (POST)",
			"/control/charging":    "Set charging state (POST)",
			"/control/engine":      "Set engine state (POST)",
			"/control/brakeHold":   "Set brake hold state (POST)",
			"/control/temperature": "Show temperature details (POST)",
			"/ws":                  "State updates over WebSocket",
		},
	})
}

// HandleWebSocket WebSocket 处理
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	client.Register()

	// 启动读写协程
	go client.ReadPump()
	go client.WritePump()
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"vehicle_id": h.simulator.VehicleID(),
		"mode":       h.simulator.Mode(),
		"ws_clients": h.wsHub.ClientCount(),
	})
}
