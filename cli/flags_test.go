package cli

import (
	"io"
	"testing"

	"github.com/urfave/cli/v2"
	"go.viam.com/test"
)

func TestAliasStringFlag(t *testing.T) {
	for _, tc := range []struct {
		aliases []string
		names   []string
	}{
		{nil, []string{"scene"}},
		{[]string{"s"}, []string{"s", "scene"}},
		{[]string{"s", "file"}, []string{"s", "file", "scene"}},
	} {
		f := AliasStringFlag{cli.StringFlag{Name: "scene", Aliases: tc.aliases}}
		test.That(t, f.Names(), test.ShouldResemble, tc.names)
		test.That(t, f.String(), test.ShouldEqual, f.StringFlag.String())
	}
}

func TestModelFlag(t *testing.T) {
	a := NewApp(io.Discard, io.Discard)
	var model cli.Flag
	for _, f := range a.Flags {
		if _, ok := f.(*AliasStringFlag); ok {
			model = f
		}
	}
	test.That(t, model, test.ShouldNotBeNil)
	test.That(t, model.Names(), test.ShouldResemble, []string{"m", modelFlag})

	modelPath, scene := writeFiles(t)
	out, _, err := run(t, "-m", modelPath, "inspect", scene)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, `Scene "cell"`)

	_, _, err = run(t, "inspect", scene)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, modelFlag)
}
