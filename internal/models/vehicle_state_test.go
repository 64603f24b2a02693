package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundHalfUp(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{0.4, 0},
		{0.5, 1},
		{99.6, 100},
		{-0.4, 0},
		{-0.5, 0},
		{-0.6, -1},
		{-49.5, -49},
		{-50, -50},
		{52.5, 53},
	}

	for _, tt := range tests {
		got := roundHalfUp(tt.in)
		assert.Equal(t, tt.want, got, "roundHalfUp(%v)", tt.in)
		assert.False(t, math.Signbit(got) && got == 0, "negative zero for %v", tt.in)
	}
}

func TestRoundedKeepsNonNumericFields(t *testing.T) {
	s := VehicleState{
		Power:              -49.6,
		RPM:                799.5,
		BatteryPercentage:  19.49,
		BatteryTemperature: 75.2,
		GearRatio:          "2.5/5.0",
		MotorWarning:       true,
		BatteryLow:         true,
		MotorSpeed:         4,
		EngineOn:           true,
	}

	r := s.Rounded()
	assert.Equal(t, -50.0, r.Power)
	assert.Equal(t, 800.0, r.RPM)
	assert.Equal(t, 19.0, r.BatteryPercentage)
	assert.Equal(t, 75.0, r.BatteryTemperature)
	assert.Equal(t, "2.5/5.0", r.GearRatio)
	assert.True(t, r.MotorWarning)
	assert.True(t, r.BatteryLow)
	assert.Equal(t, 4, r.MotorSpeed)
	assert.True(t, r.EngineOn)

	// 原值不变
	assert.Equal(t, 799.5, s.RPM)
}

func TestVehicleStateJSONFieldNames(t *testing.T) {
	data, err := json.Marshal(DefaultVehicleState())
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &fields))
	for _, key := range []string{
		"power", "rpm", "batteryPercentage", "batteryTemperature", "gearRatio",
		"parkingBrake", "checkEngine", "motorWarning", "batteryLow",
		"isCharging", "motorSpeed", "engineOn", "brakeHold",
	} {
		assert.Contains(t, fields, key)
	}
	assert.Len(t, fields, 13)
	assert.Equal(t, "N/N", fields["gearRatio"])
	assert.Equal(t, 100.0, fields["batteryPercentage"])
}
