package admission

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/llxisdsh/semx"
)

// Metrics is an Observer that exports unit events as prometheus metrics:
//   - semx_admission_events_total{event}: events by kind.
//   - semx_admission_wait_seconds: time spent acquiring a permit.
//   - semx_admission_in_flight: units between Acquired and Released.
type Metrics struct {
	events   *prometheus.CounterVec
	wait     prometheus.Summary
	inFlight prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		events: f.NewCounterVec(prometheus.CounterOpts{
			Name: "semx_admission_events_total",
			Help: "Unit status events by kind.",
		}, []string{"event"}),
		wait: f.NewSummary(prometheus.SummaryOpts{
			Name:       "semx_admission_wait_seconds",
			Help:       "Time units spent waiting for a permit.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}),
		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "semx_admission_in_flight",
			Help: "Units currently holding a permit.",
		}),
	}
}

func (m *Metrics) Observe(e Event) {
	m.events.WithLabelValues(e.Kind.String()).Inc()
	switch e.Kind {
	case EventAcquired:
		m.wait.Observe(e.WaitDuration.Seconds())
		m.inFlight.Inc()
	case EventReleased:
		m.inFlight.Dec()
	}
}

// RegisterStateGauges exports snapshots of st on reg: available permits,
// units inside acquire, the high-water mark and units in each state.
func RegisterStateGauges(reg prometheus.Registerer, st *semx.SharedState) error {
	gauge := func(name, help string, f func() float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, f)
	}
	var errs []error
	for _, c := range []prometheus.Collector{
		gauge("semx_permits_available", "Available permits.",
			func() float64 { return float64(st.AvailablePermits()) }),
		gauge("semx_waiting_units", "Units inside acquire.",
			func() float64 { return float64(st.WaitingCount()) }),
		gauge("semx_high_water_mark", "Most permits held at once.",
			func() float64 { return float64(st.HighWaterMark()) }),
		gauge("semx_working_units", "Units in the working state.",
			func() float64 { return float64(st.CountUnits(semx.Working)) }),
	} {
		if err := reg.Register(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
