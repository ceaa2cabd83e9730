package planningscene

import (
	"go.viam.com/planningscene/collision"
	"go.viam.com/planningscene/logging"
)

// options configures a root Scene.
type options struct {
	name      string
	world     *collision.World
	logger    logging.Logger
	allocator collision.Allocator
	metrics   *Metrics
}

// Option configures how a root Scene is built.
type Option interface {
	apply(*options)
}

// funcOption wraps a function that modifies options into an implementation of the Option interface.
type funcOption struct {
	f func(*options)
}

func (fo *funcOption) apply(o *options) {
	fo.f(o)
}

func newFuncOption(f func(*options)) *funcOption {
	return &funcOption{f: f}
}

// WithName names the scene.
func WithName(name string) Option {
	return newFuncOption(func(o *options) {
		o.name = name
	})
}

// WithWorld starts the scene from an existing world instead of an empty one.
func WithWorld(world *collision.World) Option {
	return newFuncOption(func(o *options) {
		o.world = world
	})
}

// WithLogger sets the scene logger.
func WithLogger(logger logging.Logger) Option {
	return newFuncOption(func(o *options) {
		o.logger = logger
	})
}

// WithCollisionDetector builds the collision environments with alloc instead of the bounding volume back end.
func WithCollisionDetector(alloc collision.Allocator) Option {
	return newFuncOption(func(o *options) {
		o.allocator = alloc
	})
}

// WithMetrics records collision checks and mutations on m.
func WithMetrics(m *Metrics) Option {
	return newFuncOption(func(o *options) {
		o.metrics = m
	})
}
