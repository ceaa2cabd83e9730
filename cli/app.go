// Package cli contains the scenectl command line, which inspects, moves, checks and exports planning scenes stored
// in the text scene format.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

const (
	debugFlag  = "debug"
	modelFlag  = "model"
	configFlag = "config"

	offsetFlagX   = "x"
	offsetFlagY   = "y"
	offsetFlagZ   = "z"
	offsetFlagOut = "out"

	checkFlagJoint    = "joint"
	checkFlagGroup    = "group"
	checkFlagUnpadded = "unpadded"

	exportFlagFormat = "format"

	exportFormatJSON       = "json"
	exportFormatWorldState = "worldstate"
)

// AliasStringFlag is a StringFlag whose help lists its aliases before its name.
type AliasStringFlag struct {
	cli.StringFlag
}

// Names returns the aliases of the flag followed by its name.
func (f *AliasStringFlag) Names() []string {
	names := f.StringFlag.Names()
	return append(names[1:], names[0])
}

// String renders the flag the way the wrapped StringFlag does.
func (f *AliasStringFlag) String() string {
	return f.StringFlag.String()
}

var app = &cli.App{
	Name:            "scenectl",
	Usage:           "work with planning scene files",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&AliasStringFlag{
			cli.StringFlag{
				Name:     modelFlag,
				Aliases:  []string{"m"},
				Usage:    "load the robot model from JSON `FILE`",
				Required: true,
			},
		},
		&cli.StringFlag{
			Name:    configFlag,
			Aliases: []string{"c"},
			Usage:   "load scene configuration from `FILE`",
		},
		&cli.BoolFlag{
			Name:    debugFlag,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
	},
	Commands: []*cli.Command{
		{
			Name:      "inspect",
			Usage:     "list the objects of a scene file",
			ArgsUsage: "<scene file>",
			Action:    InspectAction,
		},
		{
			Name:      "offset",
			Usage:     "rewrite a scene file with every object moved by an offset",
			ArgsUsage: "<scene file>",
			Flags: []cli.Flag{
				&cli.Float64Flag{Name: offsetFlagX, Usage: "offset along x in meters"},
				&cli.Float64Flag{Name: offsetFlagY, Usage: "offset along y in meters"},
				&cli.Float64Flag{Name: offsetFlagZ, Usage: "offset along z in meters"},
				&cli.StringFlag{
					Name:  offsetFlagOut,
					Usage: "write the result to `FILE` instead of stdout",
				},
			},
			Action: OffsetAction,
		},
		{
			Name:      "check",
			Usage:     "report the collisions of the robot with a scene file",
			ArgsUsage: "<scene file>",
			Flags: []cli.Flag{
				&cli.StringSliceFlag{
					Name:  checkFlagJoint,
					Usage: "joint position as name=value, repeatable",
				},
				&cli.StringFlag{
					Name:  checkFlagGroup,
					Usage: "only check the links of this joint group",
				},
				&cli.BoolFlag{
					Name:  checkFlagUnpadded,
					Usage: "ignore link padding",
				},
			},
			Action: CheckAction,
		},
		{
			Name:      "export",
			Usage:     "print a scene file as a planning scene message",
			ArgsUsage: "<scene file>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  exportFlagFormat,
					Value: exportFormatJSON,
					Usage: "output format, one of: " + exportFormatJSON + ", " + exportFormatWorldState,
				},
			},
			Action: ExportAction,
		},
		{
			Name:   "version",
			Usage:  "print version info for this program",
			Action: VersionAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
