// Package main is the scenectl command itself.
package main

import (
	"os"

	"go.viam.com/planningscene/cli"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		cli.Errorf(app.ErrWriter, "%s", err)
		os.Exit(1)
	}
}
