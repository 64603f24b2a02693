package simulator

import (
	"context"
	"encoding/json"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/vehiclesim/internal/models"
	"github.com/langchou/vehiclesim/internal/state"
)

// 默认配置
const (
	DefaultVehicleID    = "vehicle-1"
	DefaultTickInterval = 100 * time.Millisecond
)

// StateStore 车辆状态持久化
// 实现方自行负责超时和重试
type StateStore interface {
	Upsert(ctx context.Context, vehicleID string, vs models.VehicleState, ts time.Time) error
}

// Notifier 状态事件分发
type Notifier interface {
	Publish(e models.StateEvent)
}

// Metrics 引擎指标
type Metrics interface {
	ObserveTick(d time.Duration)
	IncStateUpdate()
	ObservePersist(d time.Duration, err error)
}

// Config 引擎配置
type Config struct {
	VehicleID    string
	TickInterval time.Duration
}

// Option 引擎可选项
type Option func(*Engine)

// WithMetrics 设置指标记录器
func WithMetrics(m Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithModeMachine 使用外部创建的运行模式状态机
func WithModeMachine(m *state.Machine) Option {
	return func(e *Engine) { e.modes = m }
}

// Engine 单车模拟引擎
type Engine struct {
	vehicleID string
	interval  time.Duration
	store     StateStore
	notifier  Notifier
	logger    *zap.Logger
	metrics   Metrics
	modes     *state.Machine
	now       func() time.Time

	mu            sync.Mutex
	state         models.VehicleState
	lastPublished string // 上次发布时未取整状态的序列化

	runMu   sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New 创建引擎，状态为初始默认值，调用 Start 后开始运行
func New(cfg Config, store StateStore, notifier Notifier, logger *zap.Logger, opts ...Option) *Engine {
	if cfg.VehicleID == "" {
		cfg.VehicleID = DefaultVehicleID
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{
		vehicleID: cfg.VehicleID,
		interval:  cfg.TickInterval,
		store:     store,
		notifier:  notifier,
		logger:    logger.With(zap.String("vehicle_id", cfg.VehicleID)),
		metrics:   nopMetrics{},
		now:       time.Now,
		state:     models.DefaultVehicleState(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.modes == nil {
		e.modes = state.NewMachine(e.vehicleID, state.ModeOff, e.onModeChange)
	}

	return e
}

// VehicleID 车辆标识
func (e *Engine) VehicleID() string {
	return e.vehicleID
}

// TickInterval tick 间隔
func (e *Engine) TickInterval() time.Duration {
	return e.interval
}

// Start 写入初始状态并启动 tick 循环
func (e *Engine) Start(ctx context.Context) {
	e.runMu.Lock()
	if e.running {
		e.runMu.Unlock()
		e.logger.Info("Simulation engine already running, skipping start")
		return
	}
	e.stopCh = make(chan struct{})
	e.running = true
	e.runMu.Unlock()

	e.persist(ctx, e.GetState(), "initialize")

	e.wg.Add(1)
	go e.loop(ctx, e.stopCh)

	e.logger.Info("Simulation engine started", zap.Duration("interval", e.interval))
}

// Stop 停止 tick 循环，不等待已发出的持久化请求
func (e *Engine) Stop() {
	e.runMu.Lock()
	if !e.running {
		e.runMu.Unlock()
		return
	}
	e.running = false
	close(e.stopCh)
	e.runMu.Unlock()

	e.wg.Wait()
	e.logger.Info("Simulation engine stopped")
}

// Running 是否正在运行
func (e *Engine) Running() bool {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	return e.running
}

// loop tick 循环
func (e *Engine) loop(ctx context.Context, stopCh <-chan struct{}) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			// stop 与 ticker 同时就绪时优先停止
			select {
			case <-stopCh:
				return
			default:
			}
			e.tick(ctx)
		}
	}
}

// tick 推进一次状态，状态有变化时发布并持久化
func (e *Engine) tick(ctx context.Context) {
	start := time.Now()

	e.mu.Lock()
	step(&e.state, e.interval)
	current := e.state
	serialized, err := json.Marshal(current)
	if err != nil {
		e.mu.Unlock()
		e.logger.Error("Failed to serialize vehicle state", zap.Error(err))
		return
	}
	changed := string(serialized) != e.lastPublished
	if changed {
		e.lastPublished = string(serialized)
	}
	e.mu.Unlock()

	e.metrics.ObserveTick(time.Since(start))
	e.syncMode(current)

	if !changed {
		return
	}

	rounded := current.Rounded()
	e.metrics.IncStateUpdate()

	if e.notifier != nil {
		e.notifier.Publish(models.StateEvent{
			Type:      models.EventStateUpdate,
			VehicleID: e.vehicleID,
			State:     rounded,
			Timestamp: e.now(),
		})
	}

	e.persist(ctx, rounded, "update")
}

// persist 异步写入存储，只记录结果不等待
func (e *Engine) persist(ctx context.Context, vs models.VehicleState, op string) {
	if e.store == nil {
		return
	}
	ts := e.now()
	// 已发出的写入不随引擎停止而取消
	ctx = context.WithoutCancel(ctx)

	go func() {
		start := time.Now()
		err := e.store.Upsert(ctx, e.vehicleID, vs, ts)
		e.metrics.ObservePersist(time.Since(start), err)
		if err != nil {
			e.logger.Error("Failed to persist vehicle state", zap.String("op", op), zap.Error(err))
			return
		}
		e.logger.Debug("Persisted vehicle state", zap.String("op", op))
	}()
}

// syncMode 同步运行模式状态机
func (e *Engine) syncMode(vs models.VehicleState) {
	if err := e.modes.Sync(deriveMode(vs)); err != nil {
		e.logger.Warn("Failed to sync operating mode", zap.Error(err))
	}
}

// onModeChange 模式变化回调
func (e *Engine) onModeChange(vehicleID, from, to string) {
	e.logger.Info("Vehicle mode changed", zap.String("from", from), zap.String("to", to))
}

// Mode 当前运行模式
func (e *Engine) Mode() string {
	return e.modes.Current()
}

// SetMotorSpeed 设置电机档位，充电、熄火或驻车制动时忽略
func (e *Engine) SetMotorSpeed(speed float64) {
	if math.IsNaN(speed) {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.IsCharging || !e.state.EngineOn || e.state.BrakeHold {
		return
	}
	e.state.MotorSpeed = clampSpeed(speed)
}

// SetCharging 设置充电状态，开始充电时档位归零
func (e *Engine) SetCharging(charging bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.IsCharging = charging
	if charging {
		e.state.MotorSpeed = 0
	}
}

// SetEngine 设置引擎开关，熄火时档位归零并停止充电
func (e *Engine) SetEngine(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.EngineOn = on
	if !on {
		e.state.MotorSpeed = 0
		e.state.IsCharging = false
	}
}

// SetBrakeHold 设置驻车制动，开启时档位归零
func (e *Engine) SetBrakeHold(active bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.BrakeHold = active
	if active {
		e.state.MotorSpeed = 0
	}
}

// GetState 返回数值取整后的状态副本
func (e *Engine) GetState() models.VehicleState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Rounded()
}

type nopMetrics struct{}

func (nopMetrics) ObserveTick(time.Duration)           {}
func (nopMetrics) IncStateUpdate()                     {}
func (nopMetrics) ObservePersist(time.Duration, error) {}
