package models

import (
	"math"
	"time"
)

// 事件类型
const (
	EventStateUpdate = "stateUpdate" // 状态更新
)

// 档位比显示值
const GearNeutral = "N/N"

// VehicleState 车辆实时状态快照
// JSON 字段名与仪表盘前端保持一致（驼峰）
type VehicleState struct {
	Power              float64 `json:"power"`              // kW (-1000 ~ 1000)
	RPM                float64 `json:"rpm"`                // 0 ~ 800
	BatteryPercentage  float64 `json:"batteryPercentage"`  // 0 ~ 100
	BatteryTemperature float64 `json:"batteryTemperature"` // °C (25 ~ 80)
	GearRatio          string  `json:"gearRatio"`          // "1.5/3.0" 或 "N/N"
	ParkingBrake       bool    `json:"parkingBrake"`
	CheckEngine        bool    `json:"checkEngine"`  // 电池温度 > 75
	MotorWarning       bool    `json:"motorWarning"` // RPM > 700
	BatteryLow         bool    `json:"batteryLow"`   // 电量 < 20
	IsCharging         bool    `json:"isCharging"`
	MotorSpeed         int     `json:"motorSpeed"` // 0 ~ 4
	EngineOn           bool    `json:"engineOn"`
	BrakeHold          bool    `json:"brakeHold"`
}

// DefaultVehicleState 返回初始状态：熄火、满电、25°C、空档
func DefaultVehicleState() VehicleState {
	return VehicleState{
		BatteryPercentage:  100,
		BatteryTemperature: 25,
		GearRatio:          GearNeutral,
	}
}

// Rounded 返回数值字段四舍五入后的副本
func (s VehicleState) Rounded() VehicleState {
	s.Power = roundHalfUp(s.Power)
	s.RPM = roundHalfUp(s.RPM)
	s.BatteryPercentage = roundHalfUp(s.BatteryPercentage)
	s.BatteryTemperature = roundHalfUp(s.BatteryTemperature)
	return s
}

// roundHalfUp .5 向正无穷方向取整
func roundHalfUp(v float64) float64 {
	r := math.Floor(v + 0.5)
	if r == 0 {
		return 0 // 去掉 -0
	}
	return r
}

// StateEvent 状态变化事件
type StateEvent struct {
	Type      string       `json:"type"`
	VehicleID string       `json:"vehicleId"`
	State     VehicleState `json:"state"`
	Timestamp time.Time    `json:"timestamp"`
}

// VehicleStateRecord 持久化的车辆状态
type VehicleStateRecord struct {
	VehicleID   string       `json:"vehicleId" db:"vehicle_id"`
	State       VehicleState `json:"state"`
	LastUpdated time.Time    `json:"lastUpdated" db:"last_updated"`
}
