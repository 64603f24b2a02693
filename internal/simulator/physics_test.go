package simulator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/langchou/vehiclesim/internal/models"
	"github.com/langchou/vehiclesim/internal/state"
)

const tick = 100 * time.Millisecond

func TestGearRatio(t *testing.T) {
	tests := []struct {
		speed    int
		engineOn bool
		want     string
	}{
		{0, true, "N/N"},
		{1, true, "1.0/2.0"},
		{2, true, "1.5/3.0"},
		{3, true, "2.0/4.0"},
		{4, true, "2.5/5.0"},
		{3, false, "N/N"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, gearRatio(tt.speed, tt.engineOn), "speed=%d engineOn=%v", tt.speed, tt.engineOn)
	}
}

func TestClampSpeed(t *testing.T) {
	tests := map[float64]int{
		99:   4,
		-5:   0,
		2.4:  2,
		2.5:  3,
		3.49: 3,
		-0.4: 0,
		4:    4,
	}
	for in, want := range tests {
		assert.Equal(t, want, clampSpeed(in), "clampSpeed(%v)", in)
	}
}

// 各分支的判定优先级：熄火 > 充电 > 驻车制动 > 行驶
func TestStepBranchPrecedence(t *testing.T) {
	bools := []bool{false, true}
	for _, engineOn := range bools {
		for _, charging := range bools {
			for _, brake := range bools {
				for speed := 0; speed <= MaxMotorSpeed; speed++ {
					s := models.DefaultVehicleState()
					s.BatteryPercentage = 50
					s.BatteryTemperature = 40
					s.Power, s.RPM = 123, 456
					s.EngineOn, s.IsCharging, s.BrakeHold, s.MotorSpeed = engineOn, charging, brake, speed

					step(&s, tick)

					switch {
					case !engineOn:
						assert.Zero(t, s.Power)
						assert.Zero(t, s.RPM)
						assert.Zero(t, s.MotorSpeed)
						assert.Equal(t, "N/N", s.GearRatio)
						assert.Equal(t, 50.0, s.BatteryPercentage)
						assert.Equal(t, 40.0, s.BatteryTemperature)
					case charging:
						assert.Equal(t, -50.0, s.Power)
						assert.Zero(t, s.RPM)
						assert.Equal(t, "N/N", s.GearRatio)
						assert.InDelta(t, 50.2, s.BatteryPercentage, 1e-9)
						assert.InDelta(t, 39.9, s.BatteryTemperature, 1e-9)
					case brake:
						assert.Zero(t, s.Power)
						assert.Zero(t, s.RPM)
						assert.Equal(t, "N/N", s.GearRatio)
						assert.Equal(t, 50.0, s.BatteryPercentage)
						assert.Equal(t, 40.0, s.BatteryTemperature)
					default:
						sf := float64(speed) / 4
						assert.Equal(t, sf*800, s.RPM)
						assert.Equal(t, sf*1000, s.Power)
						assert.Equal(t, gearRatio(speed, true), s.GearRatio)
						assert.InDelta(t, 50-float64(speed)*0.1, s.BatteryPercentage, 1e-9)
						assert.InDelta(t, 25+sf*55, s.BatteryTemperature, 1e-9)
					}
				}
			}
		}
	}
}

func TestStepWarningsAlwaysDerived(t *testing.T) {
	bools := []bool{false, true}
	for _, engineOn := range bools {
		for _, charging := range bools {
			for _, brake := range bools {
				for speed := 0; speed <= MaxMotorSpeed; speed++ {
					for _, battery := range []float64{0, 10, 19.95, 20, 60, 100} {
						for _, temp := range []float64{25, 75, 75.05, 80} {
							s := models.DefaultVehicleState()
							s.BatteryPercentage, s.BatteryTemperature = battery, temp
							s.EngineOn, s.IsCharging, s.BrakeHold, s.MotorSpeed = engineOn, charging, brake, speed
							// 故意设置与数值不符的告警
							s.BatteryLow = !(battery < 20)
							s.CheckEngine = !(temp > 75)
							s.MotorWarning = true

							step(&s, tick)

							assert.Equal(t, s.BatteryPercentage < 20, s.BatteryLow)
							assert.Equal(t, s.RPM > 700, s.MotorWarning)
							assert.Equal(t, s.BatteryTemperature > 75, s.CheckEngine)
							assert.GreaterOrEqual(t, s.BatteryPercentage, 0.0)
							assert.LessOrEqual(t, s.BatteryPercentage, 100.0)
							assert.GreaterOrEqual(t, s.BatteryTemperature, 25.0)
							assert.LessOrEqual(t, s.BatteryTemperature, 80.0)
						}
					}
				}
			}
		}
	}
}

func TestStepBatteryClamps(t *testing.T) {
	s := models.DefaultVehicleState()
	s.EngineOn, s.MotorSpeed, s.BatteryPercentage = true, 4, 0.1
	step(&s, tick)
	assert.Equal(t, 0.0, s.BatteryPercentage)
	assert.True(t, s.BatteryLow)

	s = models.DefaultVehicleState()
	s.EngineOn, s.IsCharging, s.BatteryPercentage = true, true, 99.9
	step(&s, tick)
	assert.Equal(t, 100.0, s.BatteryPercentage)
	assert.Equal(t, 25.0, s.BatteryTemperature)
}

func TestDeriveMode(t *testing.T) {
	s := models.DefaultVehicleState()
	assert.Equal(t, state.ModeOff, deriveMode(s))

	s.EngineOn = true
	assert.Equal(t, state.ModeIdle, deriveMode(s))

	s.MotorSpeed = 2
	assert.Equal(t, state.ModeDriving, deriveMode(s))

	s.BrakeHold = true
	assert.Equal(t, state.ModeBrakeHold, deriveMode(s))

	s.IsCharging = true
	assert.Equal(t, state.ModeCharging, deriveMode(s))

	s.EngineOn = false
	assert.Equal(t, state.ModeOff, deriveMode(s))
}
