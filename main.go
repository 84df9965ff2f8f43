// Command cirun runs AppVeyor-style build manifests as local sequential
// steps.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/datawire/dlib/dexec"
	"github.com/spf13/cobra"

	"github.com/datawire/cirun/pkg/cliutil"
)

var argparser = &cobra.Command{
	Use:   "cirun {[flags]|SUBCOMMAND...}",
	Short: "Run build manifests as local sequential steps",

	Args: cliutil.OnlySubcommands,
	RunE: cliutil.RunSubcommands,

	SilenceErrors: true, // main() will handle this after .ExecuteContext() returns
	SilenceUsage:  true, // our FlagErrorFunc will handle it
}

func init() {
	argparser.SetFlagErrorFunc(cliutil.FlagErrorFunc)
	argparser.SetHelpTemplate(cliutil.HelpTemplate)
}

func main() {
	ctx := context.Background()

	if err := argparser.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(argparser.ErrOrStderr(), "%s: error: %v\n", argparser.CommandPath(), err)

		// The run's exit status is the first failing step's exit status,
		// when the OS can express it.
		status := 1
		var exitErr *dexec.ExitError
		if errors.As(err, &exitErr) {
			if code := exitErr.ExitCode(); code > 0 {
				status = code
			}
		}
		os.Exit(status)
	}
}
