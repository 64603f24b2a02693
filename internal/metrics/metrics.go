package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder 模拟器 Prometheus 指标
type Recorder struct {
	ticks           prometheus.Counter
	tickDuration    prometheus.Histogram
	stateUpdates    prometheus.Counter
	persistFailures prometheus.Counter
	persistDuration prometheus.Histogram
}

// New 在指定 registerer 上注册指标，nil 时使用默认 registerer
func New(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	r := &Recorder{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vehiclesim_ticks_total",
			Help: "Total number of simulation ticks executed",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vehiclesim_tick_duration_seconds",
			Help:    "Time spent computing a single tick",
			Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		}),
		stateUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vehiclesim_state_updates_total",
			Help: "Number of ticks that produced a changed state",
		}),
		persistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vehiclesim_persist_failures_total",
			Help: "Number of failed state upserts",
		}),
		persistDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vehiclesim_persist_duration_seconds",
			Help:    "Latency of state upserts",
			Buckets: prometheus.DefBuckets,
		}),
	}

	var err error
	if r.ticks, err = registerCounter(reg, r.ticks); err != nil {
		return nil, err
	}
	if r.tickDuration, err = registerHistogram(reg, r.tickDuration); err != nil {
		return nil, err
	}
	if r.stateUpdates, err = registerCounter(reg, r.stateUpdates); err != nil {
		return nil, err
	}
	if r.persistFailures, err = registerCounter(reg, r.persistFailures); err != nil {
		return nil, err
	}
	if r.persistDuration, err = registerHistogram(reg, r.persistDuration); err != nil {
		return nil, err
	}

	return r, nil
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter) (prometheus.Counter, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(prometheus.Counter), nil
		}
		return nil, err
	}
	return c, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(prometheus.Histogram), nil
		}
		return nil, err
	}
	return h, nil
}

// ObserveTick 记录一次 tick
func (r *Recorder) ObserveTick(d time.Duration) {
	r.ticks.Inc()
	r.tickDuration.Observe(d.Seconds())
}

// IncStateUpdate 记录一次状态变化
func (r *Recorder) IncStateUpdate() {
	r.stateUpdates.Inc()
}

// ObservePersist 记录一次持久化结果
func (r *Recorder) ObservePersist(d time.Duration, err error) {
	r.persistDuration.Observe(d.Seconds())
	if err != nil {
		r.persistFailures.Inc()
	}
}
