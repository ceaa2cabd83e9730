package cli

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// samePath returns true if abs(path1) and abs(path2) are the same.
func samePath(path1, path2 string) (bool, error) {
	abs1, err := filepath.Abs(path1)
	if err != nil {
		return false, err
	}
	abs2, err := filepath.Abs(path2)
	if err != nil {
		return false, err
	}
	return abs1 == abs2, nil
}

// parseJointPositions parses name=value pairs.
func parseJointPositions(pairs []string) (map[string]float64, error) {
	positions := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, errors.Errorf("joint position %q is not name=value", pair)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "joint %q", name)
		}
		positions[name] = v
	}
	return positions, nil
}
