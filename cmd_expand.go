package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/datawire/cirun/pkg/cliutil"
	"github.com/datawire/cirun/pkg/manifest"
	"github.com/datawire/cirun/pkg/matrix"
)

func init() {
	var (
		argJob   int
		argVars  varsFlag
		argHooks bool
	)
	cmd := &cobra.Command{
		Use:   "expand [flags] [MANIFEST]",
		Short: "Show a manifest's steps after variable substitution",
		Long: "Dry-run a build manifest: print each phase's steps for one matrix entry " +
			"with %NAME% references substituted, without executing anything.  " +
			"Substitution is seeded the way `cirun run` seeds it (the ambient " +
			"process environment overlaid with the matrix entry), but mutations " +
			"steps would make at run time are naturally not reflected.",
		Args: cliutil.WrapPositionalArgs(cobra.MaximumNArgs(1)),
		RunE: func(flags *cobra.Command, args []string) error {
			m, err := openManifest(manifestFile(args))
			if err != nil {
				return err
			}
			entries := matrix.Entries(m)
			argVars.Apply(entries)
			if argJob < 0 || argJob >= len(entries) {
				return fmt.Errorf("--job index %d out of range: manifest has %d matrix entries",
					argJob, len(entries))
			}
			entry := entries[argJob]
			lookup := func(name string) (string, bool) {
				if val, ok := entry[name]; ok {
					return val, true
				}
				return os.LookupEnv(name)
			}

			phases := m.Phases()
			if argHooks {
				phases = append(phases, m.Hooks()...)
			}
			type phaseReport struct {
				Phase string   `yaml:"phase"`
				Steps []string `yaml:"steps"`
			}
			report := make([]phaseReport, 0, len(phases))
			for _, phase := range phases {
				if len(phase.Steps) == 0 {
					continue
				}
				steps := make([]string, len(phase.Steps))
				for i, step := range phase.Steps {
					command, err := matrix.Expand(step.Command, lookup)
					if err != nil {
						return fmt.Errorf("%s[%d]: %w", phase.Name, i, err)
					}
					if step.Kind != manifest.KindCmd {
						command = string(step.Kind) + ": " + command
					}
					steps[i] = command
				}
				report = append(report, phaseReport{Phase: phase.Name, Steps: steps})
			}
			bs, err := yaml.Marshal(report)
			if err != nil {
				return err
			}
			_, err = flags.OutOrStdout().Write(bs)
			return err
		},
	}
	cmd.Flags().IntVar(&argJob, "job", 0,
		"Expand for matrix entry number `N` (0-origin)")
	cmd.Flags().Var(&argVars, "var",
		"Override or add a matrix variable binding (may be repeated)")
	cmd.Flags().BoolVar(&argHooks, "hooks", false,
		"Include the on_success/on_failure/on_finish phases")

	argparser.AddCommand(cmd)
}
