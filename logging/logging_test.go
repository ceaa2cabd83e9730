package logging

import (
	"testing"

	"go.viam.com/test"
)

func TestObservedTestLogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.Warnw("name collision", "id", "box")
	logger.Debugf("checked %d states", 3)

	test.That(t, logs.Len(), test.ShouldEqual, 2)
	test.That(t, logs.FilterMessage("name collision").Len(), test.ShouldEqual, 1)
	test.That(t, logs.All()[0].ContextMap()["id"], test.ShouldEqual, "box")
	test.That(t, logs.All()[1].Message, test.ShouldEqual, "checked 3 states")
}

func TestSublogger(t *testing.T) {
	logger := NewBlankLogger("planningscene")
	sub := logger.Sublogger("fork")
	test.That(t, sub.Name(), test.ShouldEqual, "planningscene.fork")
	test.That(t, sub.Sublogger("collision").Name(), test.ShouldEqual, "planningscene.fork.collision")

	unnamed, logs := NewObservedTestLogger(t)
	test.That(t, unnamed.Sublogger("scene").Name(), test.ShouldEqual, "scene")
	unnamed.Sublogger("scene").Info("hello")
	test.That(t, logs.All()[0].LoggerName, test.ShouldEqual, "scene")
}
