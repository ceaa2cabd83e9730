package planningscene

import (
	"fmt"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/planningscene/collision"
	"go.viam.com/planningscene/logging"
	"go.viam.com/planningscene/referenceframe"
)

// Config describes how to build a scene.
type Config struct {
	Name              string             `json:"name"`
	CollisionDetector string             `json:"collision_detector,omitempty"`
	DefaultPadding    float64            `json:"default_padding,omitempty"`
	LinkPadding       map[string]float64 `json:"link_padding,omitempty"`
	LinkScale         map[string]float64 `json:"link_scale,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.CollisionDetector != "" {
		if _, err := collision.LookupAllocator(cfg.CollisionDetector); err != nil {
			return goutils.NewConfigValidationError(path, err)
		}
	}
	if cfg.DefaultPadding < 0 {
		return goutils.NewConfigValidationError(path, errors.New("default_padding cannot be negative"))
	}
	for link, p := range cfg.LinkPadding {
		if p < 0 {
			return goutils.NewConfigValidationError(fmt.Sprintf("%s.link_padding.%s", path, link),
				errors.New("padding cannot be negative"))
		}
	}
	for link, sc := range cfg.LinkScale {
		if sc <= 0 {
			return goutils.NewConfigValidationError(fmt.Sprintf("%s.link_scale.%s", path, link),
				errors.New("scale must be positive"))
		}
	}
	return nil
}

// NewFromConfig validates cfg and builds a scene for model from it. Padding and scale of links the model does not
// have are rejected.
func NewFromConfig(model *referenceframe.Model, cfg *Config, logger logging.Logger) (*Scene, error) {
	if err := cfg.Validate("scene"); err != nil {
		return nil, err
	}
	if model == nil {
		return nil, errors.New("a planning scene needs a robot model")
	}
	for link := range cfg.LinkPadding {
		if !model.HasLink(link) {
			return nil, errors.Wrapf(ErrUnknownLink, "link_padding names %q", link)
		}
	}
	for link := range cfg.LinkScale {
		if !model.HasLink(link) {
			return nil, errors.Wrapf(ErrUnknownLink, "link_scale names %q", link)
		}
	}
	var opts []Option
	if cfg.Name != "" {
		opts = append(opts, WithName(cfg.Name))
	}
	if logger != nil {
		opts = append(opts, WithLogger(logger))
	}
	if cfg.CollisionDetector != "" {
		alloc, err := collision.LookupAllocator(cfg.CollisionDetector)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithCollisionDetector(alloc))
	}
	s, err := New(model, opts...)
	if err != nil {
		return nil, err
	}
	if cfg.DefaultPadding > 0 {
		s.detector.padded.SetPadding(cfg.DefaultPadding)
	}
	s.detector.padded.SetLinkPadding(cfg.LinkPadding)
	s.detector.padded.SetLinkScale(cfg.LinkScale)
	s.detector.unpadded.SetLinkScale(cfg.LinkScale)
	return s, nil
}
