package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/langchou/vehiclesim/internal/models"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("vehicle state not found")

// DefaultUpsertTimeout 单次写入超时
const DefaultUpsertTimeout = 5 * time.Second

// VehicleStateRepository 车辆状态数据仓库
type VehicleStateRepository struct {
	db      *DB
	timeout time.Duration
}

// NewVehicleStateRepository 创建车辆状态仓库
func NewVehicleStateRepository(db *DB) *VehicleStateRepository {
	return &VehicleStateRepository{db: db, timeout: DefaultUpsertTimeout}
}

// Upsert 按车辆 ID 插入或覆盖状态
// 时间戳早于已存记录的写入会被忽略，乱序完成的异步写入不会覆盖新数据
func (r *VehicleStateRepository) Upsert(ctx context.Context, vehicleID string, vs models.VehicleState, ts time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO vehicle_states (vehicle_id, power, rpm, battery_percentage, battery_temperature, gear_ratio, parking_brake, check_engine, motor_warning, battery_low, is_charging, motor_speed, engine_on, brake_hold, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (vehicle_id) DO UPDATE SET
			power = EXCLUDED.power,
			rpm = EXCLUDED.rpm,
			battery_percentage = EXCLUDED.battery_percentage,
			battery_temperature = EXCLUDED.battery_temperature,
			gear_ratio = EXCLUDED.gear_ratio,
			parking_brake = EXCLUDED.parking_brake,
			check_engine = EXCLUDED.check_engine,
			motor_warning = EXCLUDED.motor_warning,
			battery_low = EXCLUDED.battery_low,
			is_charging = EXCLUDED.is_charging,
			motor_speed = EXCLUDED.motor_speed,
			engine_on = EXCLUDED.engine_on,
			brake_hold = EXCLUDED.brake_hold,
			last_updated = EXCLUDED.last_updated
		WHERE vehicle_states.last_updated <= EXCLUDED.last_updated
	`
	_, err := r.db.Pool.Exec(ctx, query,
		vehicleID,
		vs.Power,
		vs.RPM,
		vs.BatteryPercentage,
		vs.BatteryTemperature,
		vs.GearRatio,
		vs.ParkingBrake,
		vs.CheckEngine,
		vs.MotorWarning,
		vs.BatteryLow,
		vs.IsCharging,
		vs.MotorSpeed,
		vs.EngineOn,
		vs.BrakeHold,
		ts,
	)
	if err != nil {
		return fmt.Errorf("upsert vehicle state: %w", err)
	}
	return nil
}

// GetByVehicleID 获取最近一次持久化的状态
func (r *VehicleStateRepository) GetByVehicleID(ctx context.Context, vehicleID string) (*models.VehicleStateRecord, error) {
	query := `
		SELECT vehicle_id, power, rpm, battery_percentage, battery_temperature, gear_ratio, parking_brake, check_engine, motor_warning, battery_low, is_charging, motor_speed, engine_on, brake_hold, last_updated
		FROM vehicle_states WHERE vehicle_id = $1
	`
	rec := &models.VehicleStateRecord{}
	vs := &rec.State
	err := r.db.Pool.QueryRow(ctx, query, vehicleID).Scan(
		&rec.VehicleID,
		&vs.Power,
		&vs.RPM,
		&vs.BatteryPercentage,
		&vs.BatteryTemperature,
		&vs.GearRatio,
		&vs.ParkingBrake,
		&vs.CheckEngine,
		&vs.MotorWarning,
		&vs.BatteryLow,
		&vs.IsCharging,
		&vs.MotorSpeed,
		&vs.EngineOn,
		&vs.BrakeHold,
		&rec.LastUpdated,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get vehicle state by vehicle_id: %w", err)
	}
	return rec, nil
}
