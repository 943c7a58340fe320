// Command safehook is a PreToolUse safety hook and timestamp tool for coding agents.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/Dicklesworthstone/safehook/internal/cli"
)

func main() {
	err := cli.Execute()
	if err == nil {
		return
	}
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) || !exitErr.Silent() {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(cli.ExitCode(err))
}
