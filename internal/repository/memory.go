package repository

import (
	"context"
	"sync"
	"time"

	"github.com/langchou/vehiclesim/internal/models"
)

// MemoryStore 内存状态存储，数据库不可用时使用
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]models.VehicleStateRecord
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]models.VehicleStateRecord)}
}

// Upsert 与 VehicleStateRepository.Upsert 语义一致
func (m *MemoryStore) Upsert(ctx context.Context, vehicleID string, vs models.VehicleState, ts time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.records[vehicleID]; ok && prev.LastUpdated.After(ts) {
		return nil
	}
	m.records[vehicleID] = models.VehicleStateRecord{
		VehicleID:   vehicleID,
		State:       vs,
		LastUpdated: ts,
	}
	return nil
}

// GetByVehicleID 获取最近一次写入的状态
func (m *MemoryStore) GetByVehicleID(ctx context.Context, vehicleID string) (*models.VehicleStateRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[vehicleID]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}
