package simulator

import (
	"fmt"
	"math"
	"time"

	"github.com/langchou/vehiclesim/internal/models"
	"github.com/langchou/vehiclesim/internal/state"
)

// 物理常量
const (
	MinMotorSpeed = 0
	MaxMotorSpeed = 4

	MaxRPM   = 800.0
	MaxPower = 1000.0

	ChargingPower       = -50.0 // kW
	ChargingRatePerSec  = 2.0   // %/s
	ChargingCoolPerTick = 0.1   // °C

	MinBattery     = 0.0
	MaxBattery     = 100.0
	MinTemperature = 25.0
	MaxTemperature = 80.0
	TemperatureRun = 55.0 // 满速时相对最低温度的升温

	MotorWarningRPM   = 700.0
	CheckEngineTemp   = 75.0
	BatteryLowPercent = 20.0
)

// step 推进一个 tick，按 熄火 > 充电 > 驻车制动 > 行驶 的优先级选择分支
func step(s *models.VehicleState, interval time.Duration) {
	seconds := interval.Seconds()

	switch {
	case !s.EngineOn:
		s.Power = 0
		s.RPM = 0
		s.MotorSpeed = 0
		s.GearRatio = models.GearNeutral

	case s.IsCharging:
		s.Power = ChargingPower
		s.RPM = 0
		s.GearRatio = models.GearNeutral
		s.BatteryPercentage = math.Min(MaxBattery, s.BatteryPercentage+ChargingRatePerSec*seconds)
		s.BatteryTemperature = math.Max(MinTemperature, s.BatteryTemperature-ChargingCoolPerTick)

	case s.BrakeHold:
		s.Power = 0
		s.RPM = 0
		s.GearRatio = models.GearNeutral

	default:
		speedFactor := float64(s.MotorSpeed) / MaxMotorSpeed
		s.RPM = speedFactor * MaxRPM
		s.Power = speedFactor * MaxPower
		s.GearRatio = gearRatio(s.MotorSpeed, s.EngineOn)
		s.BatteryPercentage = math.Max(MinBattery, s.BatteryPercentage-float64(s.MotorSpeed)*seconds)
		s.BatteryTemperature = math.Min(MaxTemperature, MinTemperature+speedFactor*TemperatureRun)
	}

	// 告警在所有分支后统一重算
	updateWarnings(s)
}

// updateWarnings 重算派生告警
func updateWarnings(s *models.VehicleState) {
	s.BatteryLow = s.BatteryPercentage < BatteryLowPercent
	s.MotorWarning = s.RPM > MotorWarningRPM
	s.CheckEngine = s.BatteryTemperature > CheckEngineTemp
}

// gearRatio 根据电机档位计算档位比显示值，例如 "1.5/3.0"
func gearRatio(speed int, engineOn bool) string {
	if speed == 0 || !engineOn {
		return models.GearNeutral
	}
	ratio := 1 + float64(speed-1)*0.5
	return fmt.Sprintf("%.1f/%.1f", ratio, ratio*2)
}

// clampSpeed 四舍五入并限制在 [0, 4]
func clampSpeed(speed float64) int {
	rounded := math.Floor(speed + 0.5)
	if rounded < MinMotorSpeed {
		return MinMotorSpeed
	}
	if rounded > MaxMotorSpeed {
		return MaxMotorSpeed
	}
	return int(rounded)
}

// deriveMode 由三个开关和档位推导运行模式
func deriveMode(s models.VehicleState) string {
	switch {
	case !s.EngineOn:
		return state.ModeOff
	case s.IsCharging:
		return state.ModeCharging
	case s.BrakeHold:
		return state.ModeBrakeHold
	case s.MotorSpeed > 0:
		return state.ModeDriving
	default:
		return state.ModeIdle
	}
}
