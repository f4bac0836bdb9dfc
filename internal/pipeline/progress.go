package pipeline

import (
	"io"
	"log"
	"os"
)

// progress prints the emoji progress lines of report runs. Failures still
// go through the standard logger.
var progress = log.New(os.Stdout, "", 0)

// SetProgressOutput redirects progress lines, e.g. to stderr for CLI runs
// whose stdout carries the result, or to io.Discard.
func SetProgressOutput(w io.Writer) {
	progress.SetOutput(w)
}
