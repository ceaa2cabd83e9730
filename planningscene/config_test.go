package planningscene

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/planningscene/collision"
	"go.viam.com/planningscene/logging"
)

func TestConfigValidate(t *testing.T) {
	for _, tc := range []struct {
		name string
		cfg  Config
		msg  string
	}{
		{"empty", Config{}, ""},
		{"bounding", Config{CollisionDetector: collision.BoundingAllocatorName, DefaultPadding: 0.01}, ""},
		{"unknown detector", Config{CollisionDetector: "fcl"}, "fcl"},
		{"negative default padding", Config{DefaultPadding: -1}, "default_padding"},
		{"negative link padding", Config{LinkPadding: map[string]float64{"arm": -0.1}}, "scene.link_padding.arm"},
		{"zero scale", Config{LinkScale: map[string]float64{"arm": 0}}, "scene.link_scale.arm"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate("scene")
			if tc.msg == "" {
				test.That(t, err, test.ShouldBeNil)
				return
			}
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.msg)
		})
	}
}

func TestNewFromConfig(t *testing.T) {
	logger := logging.NewTestLogger(t)
	var cfg Config
	test.That(t, json.Unmarshal([]byte(`{
		"name": "cell",
		"collision_detector": "bounding",
		"default_padding": 0.02,
		"link_padding": {"arm": 0.1},
		"link_scale": {"base": 1.5}
	}`), &cfg), test.ShouldBeNil)

	s, err := NewFromConfig(botModel(t), &cfg, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.Name(), test.ShouldEqual, "cell")
	test.That(t, s.ActiveCollisionDetectorName(), test.ShouldEqual, collision.BoundingAllocatorName)
	test.That(t, s.CollisionEnv().LinkPadding()["arm"], test.ShouldAlmostEqual, 0.1)
	test.That(t, s.CollisionEnv().LinkPadding()["base"], test.ShouldAlmostEqual, 0.02)
	test.That(t, s.CollisionEnv().LinkScale()["base"], test.ShouldAlmostEqual, 1.5)
	test.That(t, s.CollisionEnvUnpadded().LinkScale()["base"], test.ShouldAlmostEqual, 1.5)
	test.That(t, s.CollisionEnvUnpadded().LinkPadding()["arm"], test.ShouldAlmostEqual, 0)

	s, err = NewFromConfig(botModel(t), &Config{}, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.Name(), test.ShouldEqual, DefaultSceneName)

	_, err = NewFromConfig(botModel(t), &Config{LinkPadding: map[string]float64{"wrist": 0.1}}, logger)
	test.That(t, errors.Is(err, ErrUnknownLink), test.ShouldBeTrue)

	_, err = NewFromConfig(botModel(t), &Config{CollisionDetector: "fcl"}, logger)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = NewFromConfig(nil, &Config{}, logger)
	test.That(t, err, test.ShouldNotBeNil)
}
