package commands

import (
	"io"

	"github.com/fatih/color"
)

var (
	good   = color.New(color.FgGreen)
	warn   = color.New(color.FgYellow)
	subtle = color.New(color.FgHiBlack)
)

// checkmark prints a success line
func checkmark(w io.Writer, format string, args ...interface{}) {
	good.Fprint(w, "✓ ")
	subtle.Fprintf(w, format+"\n", args...)
}
