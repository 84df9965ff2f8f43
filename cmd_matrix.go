package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/datawire/cirun/pkg/cliutil"
	"github.com/datawire/cirun/pkg/matrix"
)

func init() {
	var argVars varsFlag
	cmd := &cobra.Command{
		Use:   "matrix [flags] [MANIFEST]",
		Short: "Show the expanded build-matrix entries",
		Long: "Print each build-matrix entry that `cirun run` would execute, as YAML: " +
			"the manifest's environment.global bindings overlaid with one " +
			"environment.matrix element per entry.",
		Args: cliutil.WrapPositionalArgs(cobra.MaximumNArgs(1)),
		RunE: func(flags *cobra.Command, args []string) error {
			m, err := openManifest(manifestFile(args))
			if err != nil {
				return err
			}
			entries := matrix.Entries(m)
			argVars.Apply(entries)

			type jobReport struct {
				Job  int               `yaml:"job"`
				Vars map[string]string `yaml:"vars"`
			}
			report := make([]jobReport, len(entries))
			for i, entry := range entries {
				report[i] = jobReport{Job: i, Vars: entry}
			}
			bs, err := yaml.Marshal(report)
			if err != nil {
				return err
			}
			_, err = flags.OutOrStdout().Write(bs)
			return err
		},
	}
	cmd.Flags().Var(&argVars, "var",
		"Override or add a matrix variable binding (may be repeated)")

	argparser.AddCommand(cmd)
}
