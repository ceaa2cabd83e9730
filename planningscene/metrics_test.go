package planningscene

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.viam.com/test"

	"go.viam.com/planningscene/collision"
	"go.viam.com/planningscene/msgs"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	test.That(t, err, test.ShouldBeNil)
	_, err = NewMetrics(reg)
	test.That(t, err, test.ShouldNotBeNil)

	s := newScene(t, WithMetrics(m))
	addBox(t, s, "table", r3.Vector{X: 2}, 0.5)
	test.That(t, s.ProcessCollisionObjectMsg(msgs.CollisionObject{ID: "ghost", Operation: msgs.OperationRemove}),
		test.ShouldNotBeNil)
	test.That(t, testutil.ToFloat64(m.mutations.WithLabelValues("add", "ok")), test.ShouldEqual, 1)
	test.That(t, testutil.ToFloat64(m.mutations.WithLabelValues("remove", "error")), test.ShouldEqual, 1)

	s.CheckCollision(collision.DefaultRequest(), collision.NewResult())
	s.CheckSelfCollision(collision.DefaultRequest(), collision.NewResult())
	test.That(t, testutil.ToFloat64(m.collisionChecks.WithLabelValues(checkKindRobot)), test.ShouldBeGreaterThanOrEqualTo, 1)
	test.That(t, testutil.ToFloat64(m.collisionChecks.WithLabelValues(checkKindSelf)), test.ShouldBeGreaterThanOrEqualTo, 1)

	// forks report to the same counters
	f := s.Fork()
	addBox(t, f, "cup", r3.Vector{Y: 2}, 0.1)
	test.That(t, testutil.ToFloat64(m.mutations.WithLabelValues("add", "ok")), test.ShouldEqual, 2)

	var none *Metrics
	none.collisionCheck(checkKindSelf)
	test.That(t, none.mutation("add", nil), test.ShouldBeNil)
}
