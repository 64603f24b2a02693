package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/vehiclesim/internal/repository"
)

// 控制请求体，字段名与仪表盘前端一致
type motorSpeedRequest struct {
	Speed *float64 `json:"speed"`
}

type chargingRequest struct {
	IsCharging *bool `json:"isCharging"`
}

type engineRequest struct {
	IsOn *bool `json:"isOn"`
}

type brakeHoldRequest struct {
	IsActive *bool `json:"isActive"`
}

type temperatureRequest struct {
	ShowDetails bool `json:"showDetails"`
}

// GetState 获取当前状态
// GET /state
func (h *Handler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.simulator.GetState())
}

// GetPersistedState 获取最近一次持久化的状态
// GET /state/persisted
func (h *Handler) GetPersistedState(c *gin.Context) {
	rec, err := h.stateRepo.GetByVehicleID(c.Request.Context(), h.simulator.VehicleID())
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vehicle state not persisted yet"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to get persisted state", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get persisted state"})
		return
	}

	c.JSON(http.StatusOK, rec)
}

// SetMotorSpeed 设置电机档位
// POST /control/motorSpeed
// 超出范围的值由引擎截断，不可用状态下忽略
func (h *Handler) SetMotorSpeed(c *gin.Context) {
	var req motorSpeedRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Speed == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: speed is required"})
		return
	}

	h.simulator.SetMotorSpeed(*req.Speed)
	h.logger.Debug("Motor speed requested", zap.Float64("speed", *req.Speed))
	c.JSON(http.StatusOK, h.simulator.GetState())
}

// SetCharging 设置充电状态
// POST /control/charging
func (h *Handler) SetCharging(c *gin.Context) {
	var req chargingRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsCharging == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: isCharging is required"})
		return
	}

	h.simulator.SetCharging(*req.IsCharging)
	h.logger.Debug("Charging requested", zap.Bool("charging", *req.IsCharging))
	c.JSON(http.StatusOK, h.simulator.GetState())
}

// SetEngine 设置引擎开关
// POST /control/engine
func (h *Handler) SetEngine(c *gin.Context) {
	var req engineRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsOn == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: isOn is required"})
		return
	}

	h.simulator.SetEngine(*req.IsOn)
	h.logger.Debug("Engine requested", zap.Bool("on", *req.IsOn))
	c.JSON(http.StatusOK, h.simulator.GetState())
}

// SetBrakeHold 设置驻车制动
// POST /control/brakeHold
func (h *Handler) SetBrakeHold(c *gin.Context) {
	var req brakeHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: isActive is required"})
		return
	}

	h.simulator.SetBrakeHold(*req.IsActive)
	h.logger.Debug("Brake hold requested", zap.Bool("active", *req.IsActive))
	c.JSON(http.StatusOK, h.simulator.GetState())
}

// ShowTemperature 温度详情开关只影响前端展示，返回当前状态
// POST /control/temperature
func (h *Handler) ShowTemperature(c *gin.Context) {
	var req temperatureRequest
	_ = c.ShouldBindJSON(&req)
	c.JSON(http.StatusOK, h.simulator.GetState())
}
