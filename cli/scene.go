package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"google.golang.org/protobuf/encoding/protojson"

	"go.viam.com/planningscene/collision"
	"go.viam.com/planningscene/logging"
	"go.viam.com/planningscene/planningscene"
	"go.viam.com/planningscene/referenceframe"
	spatial "go.viam.com/planningscene/spatialmath"
)

// Version is set at build time.
var Version = ""

func newLogger(c *cli.Context) logging.Logger {
	if c.Bool(debugFlag) {
		return logging.NewDebugLogger("scenectl")
	}
	return logging.NewBlankLogger("scenectl")
}

// newScene builds an empty scene for the model and configuration named by the global flags.
func newScene(c *cli.Context) (*planningscene.Scene, error) {
	model, err := referenceframe.ParseModelJSONFile(c.String(modelFlag), "")
	if err != nil {
		return nil, errors.Wrap(err, "could not read robot model")
	}
	var cfg planningscene.Config
	if path := c.String(configFlag); path != "" {
		//nolint:gosec
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "could not read scene configuration")
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrapf(err, "could not parse scene configuration %q", path)
		}
	}
	return planningscene.NewFromConfig(model, &cfg, newLogger(c))
}

// loadScene builds a scene and loads the scene file named by the first argument into it, after offset.
func loadScene(c *cli.Context, offset spatial.Pose) (*planningscene.Scene, error) {
	path := c.Args().First()
	if path == "" {
		return nil, errors.New("a scene file is required")
	}
	scene, err := newScene(c)
	if err != nil {
		return nil, err
	}
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not open scene file")
	}
	//nolint:errcheck
	defer f.Close()
	if err := scene.LoadGeometryFromStream(f, offset); err != nil {
		return nil, errors.Wrapf(err, "could not load %q", path)
	}
	return scene, nil
}

// InspectAction is the corresponding Action for 'inspect'.
func InspectAction(c *cli.Context) error {
	scene, err := loadScene(c, spatial.NewZeroPose())
	if err != nil {
		return err
	}
	ids := scene.CollisionObjectIDs()
	printf(c.App.Writer, "Scene %q in frame %q with %d objects", scene.Name(), scene.PlanningFrame(), len(ids))
	for _, id := range ids {
		obj, _ := scene.World().Object(id)
		pt := obj.Pose.Point()
		line := fmt.Sprintf("\t%s: %d shapes at (%.3f, %.3f, %.3f)", id, len(obj.Shapes), pt.X, pt.Y, pt.Z)
		if len(obj.Subframes) > 0 {
			names := make([]string, 0, len(obj.Subframes))
			for name := range obj.Subframes {
				names = append(names, name)
			}
			sort.Strings(names)
			line += ", subframes " + strings.Join(names, ", ")
		}
		if color, ok := scene.ObjectColor(id); ok {
			line += ", color " + color.Hex()
		}
		printf(c.App.Writer, "%s", line)
	}
	return nil
}

// OffsetAction is the corresponding Action for 'offset'.
func OffsetAction(c *cli.Context) error {
	offset := spatial.NewPoseFromPoint(r3.Vector{
		X: c.Float64(offsetFlagX),
		Y: c.Float64(offsetFlagY),
		Z: c.Float64(offsetFlagZ),
	})
	scene, err := loadScene(c, offset)
	if err != nil {
		return err
	}
	out := c.String(offsetFlagOut)
	if out == "" {
		return scene.SaveGeometryToStream(c.App.Writer)
	}
	if same, err := samePath(out, c.Args().First()); err == nil && same {
		warningf(c.App.ErrWriter, "overwriting %q", out)
	}
	//nolint:gosec
	f, err := os.Create(out)
	if err != nil {
		return errors.Wrap(err, "could not create output file")
	}
	if err := scene.SaveGeometryToStream(f); err != nil {
		//nolint:errcheck
		f.Close()
		return errors.Wrapf(err, "could not write %q", out)
	}
	if err := f.Close(); err != nil {
		return err
	}
	infof(c.App.Writer, "wrote %d objects to %q", len(scene.CollisionObjectIDs()), out)
	return nil
}

// CheckAction is the corresponding Action for 'check'.
func CheckAction(c *cli.Context) error {
	scene, err := loadScene(c, spatial.NewZeroPose())
	if err != nil {
		return err
	}
	positions, err := parseJointPositions(c.StringSlice(checkFlagJoint))
	if err != nil {
		return err
	}
	state := scene.MutableCurrentState()
	if err := state.SetVariablePositions(positions); err != nil {
		return err
	}
	state.Update()

	req := collision.DefaultRequest()
	req.GroupName = c.String(checkFlagGroup)
	req.Contacts = true
	req.MaxContacts = 100
	req.MaxContactsPerPair = 1
	res := collision.NewResult()
	if c.Bool(checkFlagUnpadded) {
		scene.CheckCollisionUnpadded(req, res)
	} else {
		scene.CheckCollision(req, res)
	}
	if !res.Collision {
		infof(c.App.Writer, "no collisions")
		return nil
	}

	keys := make([]collision.ContactKey, 0, len(res.Contacts))
	for k := range res.Contacts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})
	printf(c.App.Writer, "%d colliding pairs:", len(keys))
	for _, k := range keys {
		depth := 0.
		if contacts := res.Contacts[k]; len(contacts) > 0 {
			depth = contacts[0].Depth
		}
		printf(c.App.Writer, "\t%s - %s (depth %.4f)", k[0], k[1], depth)
	}
	return nil
}

// ExportAction is the corresponding Action for 'export'.
func ExportAction(c *cli.Context) error {
	scene, err := loadScene(c, spatial.NewZeroPose())
	if err != nil {
		return err
	}
	var data []byte
	switch format := c.String(exportFlagFormat); format {
	case exportFormatJSON:
		data, err = json.MarshalIndent(scene.PlanningSceneMsg(), "", "  ")
	case exportFormatWorldState:
		data, err = protojson.MarshalOptions{Multiline: true}.Marshal(scene.WorldStateProto())
	default:
		return errors.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return errors.Wrap(err, "could not encode scene")
	}
	printf(c.App.Writer, "%s", data)
	return nil
}

// VersionAction is the corresponding Action for 'version'.
func VersionAction(c *cli.Context) error {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return errors.New("error reading build info")
	}
	if c.Bool(debugFlag) {
		printf(c.App.Writer, "%s", info.String())
	}
	settings := make(map[string]string, len(info.Settings))
	for _, setting := range info.Settings {
		settings[setting.Key] = setting.Value
	}
	revision := "?"
	if rev, ok := settings["vcs.revision"]; ok && len(rev) >= 8 {
		revision = rev[:8]
		if settings["vcs.modified"] == "true" {
			revision += "+"
		}
	}
	version := Version
	if version == "" {
		version = "(dev)"
	}
	printf(c.App.Writer, "Version %s Git=%s", version, revision)
	return nil
}
