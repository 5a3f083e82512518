// Command brazekit is the scenario simulator and fixture tooling for
// the Braze destination: run and validate scenario files, resolve
// destination settings, and inspect logged dispatch traces.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/meterline/brazekit/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Commands render their own failure output; an ExitError only
		// carries the process exit code at this point. Anything else
		// (flag parse problems, bad --format) still needs printing.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
