package main

import (
	"github.com/spf13/cobra"

	"github.com/datawire/cirun/pkg/cliutil"
)

func init() {
	cmd := &cobra.Command{
		Use:   "validate [flags] [MANIFEST]",
		Short: "Check that a build manifest parses",
		Long: "Strictly parse a build manifest, rejecting unknown keys and malformed " +
			"steps.  Prints nothing and exits 0 if the manifest is valid.",
		Args: cliutil.WrapPositionalArgs(cobra.MaximumNArgs(1)),
		RunE: func(flags *cobra.Command, args []string) error {
			_, err := openManifest(manifestFile(args))
			return err
		},
	}
	argparser.AddCommand(cmd)
}
