package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// printf prints a message with no decoration.
func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

// infof prints a message prefixed with a bold cyan "Info: ".
func infof(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck,gosec
	color.New(color.Bold, color.FgCyan).Fprint(w, "Info: ")
	printf(w, format, a...)
}

// warningf prints a message prefixed with a bold yellow "Warning: ".
func warningf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck,gosec
	color.New(color.Bold, color.FgYellow).Fprint(w, "Warning: ")
	printf(w, format, a...)
}

// Errorf prints a message prefixed with a bold red "Error: ". Used by main on a failed run.
func Errorf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck,gosec
	color.New(color.Bold, color.FgRed).Fprint(w, "Error: ")
	printf(w, format, a...)
}
