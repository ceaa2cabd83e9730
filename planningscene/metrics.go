package planningscene

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Collision check kinds.
const (
	checkKindRobot = "robot"
	checkKindSelf  = "self"
)

// Metrics counts collision checks and scene mutations. A nil *Metrics records nothing.
type Metrics struct {
	collisionChecks *prometheus.CounterVec
	mutations       *prometheus.CounterVec
}

// NewMetrics builds the scene counters and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		collisionChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "planningscene",
			Name:      "collision_checks_total",
			Help:      "Number of collision environment queries, by kind.",
		}, []string{"kind"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "planningscene",
			Name:      "mutations_total",
			Help:      "Number of message driven scene mutations, by operation and result.",
		}, []string{"op", "result"}),
	}
	for _, c := range []prometheus.Collector{m.collisionChecks, m.mutations} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "registering planning scene metrics")
		}
	}
	return m, nil
}

func (m *Metrics) collisionCheck(kind string) {
	if m == nil {
		return
	}
	m.collisionChecks.WithLabelValues(kind).Inc()
}

// mutation records the outcome of op and returns err unchanged.
func (m *Metrics) mutation(op string, err error) error {
	if m == nil {
		return err
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.mutations.WithLabelValues(op, result).Inc()
	return err
}
