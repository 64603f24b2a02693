package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"
)

// 运行模式常量
const (
	ModeOff       = "off"
	ModeIdle      = "idle"
	ModeDriving   = "driving"
	ModeCharging  = "charging"
	ModeBrakeHold = "brake_hold"
)

// 事件常量
const (
	EventPowerOff      = "power_off"
	EventSettle        = "settle"
	EventStartDriving  = "start_driving"
	EventStartCharging = "start_charging"
	EventHoldBrake     = "hold_brake"
)

var allModes = []string{ModeOff, ModeIdle, ModeDriving, ModeCharging, ModeBrakeHold}

// eventFor 目标模式对应的事件
var eventFor = map[string]string{
	ModeOff:       EventPowerOff,
	ModeIdle:      EventSettle,
	ModeDriving:   EventStartDriving,
	ModeCharging:  EventStartCharging,
	ModeBrakeHold: EventHoldBrake,
}

// Machine 车辆运行模式状态机
// 模式只用于展示和日志，不参与物理计算
type Machine struct {
	mu            sync.RWMutex
	vehicleID     string
	fsm           *fsm.FSM
	since         time.Time
	onStateChange func(vehicleID, from, to string)
}

// NewMachine 创建状态机
func NewMachine(vehicleID, initialMode string, onStateChange func(vehicleID, from, to string)) *Machine {
	if initialMode == "" {
		initialMode = ModeOff
	}

	m := &Machine{
		vehicleID:     vehicleID,
		onStateChange: onStateChange,
		since:         time.Now(),
	}

	events := make(fsm.Events, 0, len(eventFor))
	for _, dst := range allModes {
		src := make([]string, 0, len(allModes)-1)
		for _, mode := range allModes {
			if mode != dst {
				src = append(src, mode)
			}
		}
		events = append(events, fsm.EventDesc{Name: eventFor[dst], Src: src, Dst: dst})
	}

	m.fsm = fsm.NewFSM(
		initialMode,
		events,
		fsm.Callbacks{
			"after_event": func(ctx context.Context, e *fsm.Event) {
				if m.onStateChange != nil && e.Src != e.Dst {
					m.onStateChange(m.vehicleID, e.Src, e.Dst)
				}
			},
		},
	)

	return m
}

// Current 获取当前模式
func (m *Machine) Current() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fsm.Current()
}

// Since 当前模式的开始时间
func (m *Machine) Since() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.since
}

// Sync 切换到目标模式，已处于该模式时不做任何事
func (m *Machine) Sync(mode string) error {
	event, ok := eventFor[mode]
	if !ok {
		return fmt.Errorf("unknown mode %q", mode)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fsm.Current() == mode {
		return nil
	}
	if err := m.fsm.Event(context.Background(), event); err != nil {
		return fmt.Errorf("trigger event %s: %w", event, err)
	}
	m.since = time.Now()
	return nil
}

// CanTransition 检查是否可以转换
func (m *Machine) CanTransition(event string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fsm.Can(event)
}
