package testutil

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/charmbracelet/log"
)

// TestLogger returns a structured logger suitable for tests.
//
// By default it discards output unless `go test -v` is used.
func TestLogger(t *testing.T) *log.Logger {
	t.Helper()

	var out io.Writer = io.Discard
	if testing.Verbose() {
		out = os.Stderr
	}

	return log.NewWithOptions(out, log.Options{
		Level:  log.DebugLevel,
		Prefix: t.Name(),
	})
}

// CaptureLogger returns a debug-level logger writing plain logfmt into buf.
func CaptureLogger(t *testing.T) (*log.Logger, *bytes.Buffer) {
	t.Helper()

	buf := new(bytes.Buffer)
	logger := log.NewWithOptions(buf, log.Options{
		Level:     log.DebugLevel,
		Formatter: log.LogfmtFormatter,
	})
	return logger, buf
}
