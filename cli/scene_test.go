package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

const testModel = `{
	"name": "bot",
	"links": [
		{"id": "base", "geometry": [{"type": "box", "x": 0.2, "y": 0.2, "z": 0.2}]},
		{"id": "arm", "parent": "base",
		 "joint": {"id": "slide", "type": "prismatic", "axis": {"x": 1}, "min": -5, "max": 5},
		 "geometry": [{"type": "sphere", "r": 0.1}]}
	],
	"disabled_collisions": [["base", "arm"]]
}`

const testScene = `cell
* table
1 0 0
0 0 0 1
1
box
0.2 0.2 0.2
0 0 0
0 0 0 1
1 0 0 1
1
top
0 0 0.1
0 0 0 1
.
`

func writeFiles(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	model := filepath.Join(dir, "bot.json")
	scene := filepath.Join(dir, "cell.scene")
	test.That(t, os.WriteFile(model, []byte(testModel), 0o600), test.ShouldBeNil)
	test.That(t, os.WriteFile(scene, []byte(testScene), 0o600), test.ShouldBeNil)
	return model, scene
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := NewApp(&out, &errOut).Run(append([]string{"scenectl"}, args...))
	return out.String(), errOut.String(), err
}

func TestInspectAction(t *testing.T) {
	model, scene := writeFiles(t)
	out, _, err := run(t, "--model", model, "inspect", scene)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, `Scene "cell" in frame "base" with 1 objects`)
	test.That(t, out, test.ShouldContainSubstring, "table: 1 shapes at (1.000, 0.000, 0.000), subframes top, color #ff0000")

	_, _, err = run(t, "--model", model, "inspect")
	test.That(t, err, test.ShouldNotBeNil)
	_, _, err = run(t, "--model", filepath.Join(t.TempDir(), "missing.json"), "inspect", scene)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestOffsetAction(t *testing.T) {
	model, scene := writeFiles(t)
	out, _, err := run(t, "--model", model, "offset", "--z", "2", scene)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldStartWith, "cell\n* table\n1 0 2\n")

	dest := filepath.Join(t.TempDir(), "moved.scene")
	out, _, err = run(t, "--model", model, "offset", "--x", "-1", "--out", dest, scene)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "wrote 1 objects")
	data, err := os.ReadFile(dest)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldContainSubstring, "* table\n0 0 0\n")
}

func TestCheckAction(t *testing.T) {
	model, scene := writeFiles(t)
	out, _, err := run(t, "--model", model, "check", scene)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "no collisions")

	out, _, err = run(t, "--model", model, "check", "--joint", "slide=1", scene)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "1 colliding pairs:")
	test.That(t, out, test.ShouldContainSubstring, "arm - table")

	_, _, err = run(t, "--model", model, "check", "--joint", "elbow=1", scene)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestCheckActionWithConfig(t *testing.T) {
	model, scene := writeFiles(t)
	cfg := filepath.Join(t.TempDir(), "scene.json")
	test.That(t, os.WriteFile(cfg, []byte(`{"link_padding": {"arm": 0.2}}`), 0o600), test.ShouldBeNil)

	// the padded arm reaches the table from x=0.75 on
	out, _, err := run(t, "--model", model, "--config", cfg, "check", "--joint", "slide=0.75", scene)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "arm - table")

	out, _, err = run(t, "--model", model, "--config", cfg, "check", "--joint", "slide=0.75", "--unpadded", scene)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "no collisions")

	test.That(t, os.WriteFile(cfg, []byte(`{"link_scale": {"arm": 0}}`), 0o600), test.ShouldBeNil)
	_, _, err = run(t, "--model", model, "--config", cfg, "check", scene)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestExportAction(t *testing.T) {
	model, scene := writeFiles(t)
	out, _, err := run(t, "--model", model, "export", scene)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, `"name": "cell"`)
	test.That(t, out, test.ShouldContainSubstring, `"id": "table"`)

	out, _, err = run(t, "--model", model, "export", "--format", "worldstate", scene)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, `"label": "table"`)
	test.That(t, out, test.ShouldContainSubstring, "dimsMm")

	_, _, err = run(t, "--model", model, "export", "--format", "yaml", scene)
	test.That(t, err, test.ShouldNotBeNil)
}
