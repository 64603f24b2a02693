package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB 数据库连接池封装
type DB struct {
	Pool *pgxpool.Pool
}

// New 创建数据库连接
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	// 单车模拟，写入频率最高为每 tick 一次
	config.MaxConns = 4
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// 测试连接
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close 关闭连接池
func (db *DB) Close() {
	db.Pool.Close()
}

// Migrate 执行数据库迁移
func (db *DB) Migrate(ctx context.Context) error {
	migrations := []string{
		migrationCreateVehicleStates,
		migrationAddEngineColumns,
	}

	for _, m := range migrations {
		if _, err := db.Pool.Exec(ctx, m); err != nil {
			return fmt.Errorf("execute migration: %w", err)
		}
	}

	return nil
}

// 数据库迁移 SQL
const migrationCreateVehicleStates = `
CREATE TABLE IF NOT EXISTS vehicle_states (
    vehicle_id VARCHAR(64) PRIMARY KEY,
    power DOUBLE PRECISION NOT NULL,
    rpm DOUBLE PRECISION NOT NULL,
    battery_percentage DOUBLE PRECISION NOT NULL,
    battery_temperature DOUBLE PRECISION NOT NULL,
    gear_ratio VARCHAR(16) NOT NULL,
    parking_brake BOOLEAN NOT NULL DEFAULT false,
    check_engine BOOLEAN NOT NULL DEFAULT false,
    motor_warning BOOLEAN NOT NULL DEFAULT false,
    battery_low BOOLEAN NOT NULL DEFAULT false,
    is_charging BOOLEAN NOT NULL DEFAULT false,
    motor_speed INT NOT NULL DEFAULT 0,
    last_updated TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
`

// 引擎开关和驻车制动字段
const migrationAddEngineColumns = `
ALTER TABLE vehicle_states ADD COLUMN IF NOT EXISTS engine_on BOOLEAN NOT NULL DEFAULT false;
ALTER TABLE vehicle_states ADD COLUMN IF NOT EXISTS brake_hold BOOLEAN NOT NULL DEFAULT false;
`
