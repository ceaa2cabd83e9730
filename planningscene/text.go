package planningscene

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/planningscene/msgs"
	"go.viam.com/planningscene/shapes"
	spatial "go.viam.com/planningscene/spatialmath"
)

const (
	textObjectMarker = "*"
	textEndMarker    = "."
)

// SaveGeometryToStream writes the scene name and every world object except the octomap in the text scene format.
func (s *Scene) SaveGeometryToStream(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s\n", s.name)
	for _, id := range s.CollisionObjectIDs() {
		obj, ok := s.world.Object(id)
		if !ok {
			continue
		}
		fmt.Fprintf(bw, "%s %s\n", textObjectMarker, id)
		writePoseText(bw, obj.Pose)
		fmt.Fprintf(bw, "%d\n", len(obj.Shapes))
		color, hasColor := s.ObjectColor(id)
		for i, sh := range obj.Shapes {
			if err := shapes.SaveAsText(sh, bw); err != nil {
				return errors.Wrapf(err, "object %q", id)
			}
			writePoseText(bw, obj.ShapePoses[i])
			if hasColor {
				fmt.Fprintf(bw, "%v %v %v %v\n", color.R, color.G, color.B, color.A)
			} else {
				fmt.Fprint(bw, "0 0 0 0\n")
			}
		}
		names := sortedKeys(obj.Subframes)
		fmt.Fprintf(bw, "%d\n", len(names))
		for _, name := range names {
			fmt.Fprintf(bw, "%s\n", name)
			writePoseText(bw, obj.Subframes[name])
		}
	}
	fmt.Fprintf(bw, "%s\n", textEndMarker)
	return bw.Flush()
}

func writePoseText(w io.Writer, p spatial.Pose) {
	pt := p.Point()
	q := p.Orientation().Quaternion()
	fmt.Fprintf(w, "%v %v %v\n%v %v %v %v\n", pt.X, pt.Y, pt.Z, q.Imag, q.Jmag, q.Kmag, q.Real)
}

// LoadGeometryFromStream reads objects in the text scene format into the world, placing each object pose after
// offset, and takes the scene name from the stream. Both the current format and the older one without object poses
// and subframes are accepted. Objects read before a parse error stay in the world.
func (s *Scene) LoadGeometryFromStream(r io.Reader, offset spatial.Pose) error {
	err := s.loadGeometry(r, offset)
	if err != nil {
		s.logger.Errorw("scene geometry not loaded", "error", err)
	}
	return s.metrics.mutation("load_geometry", err)
}

func (s *Scene) loadGeometry(r io.Reader, offset spatial.Pose) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "reading scene geometry")
	}
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	if len(data) == 0 {
		return errors.Wrap(ErrMalformed, "empty scene geometry")
	}
	s.name = lines[0]
	tr := &lineTokenReader{lines: lines[1:]}
	newFormat := hasPoseFirstRecords(tr.lines)

	for {
		marker, err := tr.Token()
		if err != nil {
			return errors.Wrap(ErrMalformed, "scene geometry ends without a marker")
		}
		switch marker {
		case textEndMarker:
			return nil
		case textObjectMarker:
			if err := s.loadObjectText(tr, offset, newFormat); err != nil {
				return err
			}
		default:
			return errors.Wrapf(ErrMalformed, "unknown marker %q in scene geometry", marker)
		}
	}
}

// hasPoseFirstRecords reports whether the line after the first object marker holds a pose rather than a shape count.
func hasPoseFirstRecords(lines []string) bool {
	for i, line := range lines {
		if !strings.HasPrefix(line, textObjectMarker) {
			continue
		}
		if i+1 < len(lines) {
			return strings.Contains(strings.TrimSpace(lines[i+1]), " ")
		}
		return false
	}
	return false
}

func (s *Scene) loadObjectText(tr *lineTokenReader, offset spatial.Pose, newFormat bool) error {
	id := tr.RestOfLine()
	if id == "" {
		return errors.Wrap(ErrMalformed, "object without an id in scene geometry")
	}
	pose := spatial.NewZeroPose()
	if newFormat {
		p, err := readPoseText(tr)
		if err != nil {
			return errors.Wrapf(ErrMalformed, "object %q pose: %v", id, err)
		}
		pose = p
	}
	pose = spatial.Compose(offset, pose)

	counts, err := shapes.ReadInts(tr, 1)
	if err != nil || counts[0] < 0 {
		return errors.Wrapf(ErrMalformed, "object %q shape count: %v", id, err)
	}
	objShapes := make([]shapes.Shape, 0, counts[0])
	shapePoses := make([]spatial.Pose, 0, counts[0])
	var color msgs.ColorRGBA
	for i := 0; i < counts[0]; i++ {
		sh, err := shapes.ConstructShapeFromText(tr)
		if err != nil {
			return errors.Wrapf(ErrMalformed, "object %q shape %d: %v", id, i, err)
		}
		p, err := readPoseText(tr)
		if err != nil {
			return errors.Wrapf(ErrMalformed, "object %q shape %d pose: %v", id, i, err)
		}
		rgba, err := shapes.ReadFloats(tr, 4)
		if err != nil {
			return errors.Wrapf(ErrMalformed, "object %q shape %d color: %v", id, i, err)
		}
		objShapes = append(objShapes, sh)
		shapePoses = append(shapePoses, p)
		if rgba[0] > 0 || rgba[1] > 0 || rgba[2] > 0 || rgba[3] > 0 {
			color = msgs.ColorRGBA{R: float32(rgba[0]), G: float32(rgba[1]), B: float32(rgba[2]), A: float32(rgba[3])}
		}
	}
	s.world.AddToObject(id, pose, objShapes, shapePoses)
	if color != (msgs.ColorRGBA{}) {
		//nolint:errcheck
		s.SetObjectColor(id, color)
	}

	if !newFormat {
		return nil
	}
	counts, err = shapes.ReadInts(tr, 1)
	if err != nil || counts[0] < 0 {
		return errors.Wrapf(ErrMalformed, "object %q subframe count: %v", id, err)
	}
	subframes := make(map[string]spatial.Pose, counts[0])
	for i := 0; i < counts[0]; i++ {
		name, err := tr.Token()
		if err != nil {
			return errors.Wrapf(ErrMalformed, "object %q subframe %d: %v", id, i, err)
		}
		p, err := readPoseText(tr)
		if err != nil {
			return errors.Wrapf(ErrMalformed, "object %q subframe %q pose: %v", id, name, err)
		}
		subframes[name] = p
	}
	s.world.SetSubframesOfObject(id, subframes)
	return nil
}

func readPoseText(tr shapes.TokenReader) (spatial.Pose, error) {
	v, err := shapes.ReadFloats(tr, 7)
	if err != nil {
		return nil, err
	}
	return spatial.NewPose(
		r3.Vector{X: v[0], Y: v[1], Z: v[2]},
		spatial.NewQuaternionFromXYZW(v[3], v[4], v[5], v[6]),
	), nil
}

// lineTokenReader yields whitespace separated tokens across lines and can hand out the rest of the current line.
type lineTokenReader struct {
	lines []string
	line  string
	next  int
}

func (tr *lineTokenReader) Token() (string, error) {
	for {
		tr.line = strings.TrimLeftFunc(tr.line, unicode.IsSpace)
		if tr.line != "" {
			break
		}
		if tr.next >= len(tr.lines) {
			return "", io.ErrUnexpectedEOF
		}
		tr.line = tr.lines[tr.next]
		tr.next++
	}
	end := strings.IndexFunc(tr.line, unicode.IsSpace)
	if end < 0 {
		end = len(tr.line)
	}
	tok := tr.line[:end]
	tr.line = tr.line[end:]
	return tok, nil
}

// RestOfLine consumes and returns the trimmed remainder of the current line.
func (tr *lineTokenReader) RestOfLine() string {
	rest := strings.TrimSpace(tr.line)
	tr.line = ""
	return rest
}
