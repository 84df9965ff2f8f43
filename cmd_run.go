package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/datawire/cirun/pkg/cliutil"
	"github.com/datawire/cirun/pkg/matrix"
	"github.com/datawire/cirun/pkg/sequencer"
)

// varsFlag accumulates repeated `--var NAME=VALUE` flags.
type varsFlag struct {
	vals map[string]string
}

var _ pflag.Value = (*varsFlag)(nil)

func (f *varsFlag) Type() string { return "NAME=VALUE" }

func (f *varsFlag) String() string {
	pairs := make([]string, 0, len(f.vals))
	for k, v := range f.vals {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}

func (f *varsFlag) Set(val string) error {
	eq := strings.IndexByte(val, '=')
	if eq < 1 {
		return fmt.Errorf("not a NAME=VALUE pair: %q", val)
	}
	if f.vals == nil {
		f.vals = make(map[string]string)
	}
	f.vals[val[:eq]] = val[eq+1:]
	return nil
}

// Apply overlays the flag's bindings on each matrix entry.
func (f *varsFlag) Apply(entries []matrix.Entry) {
	for _, entry := range entries {
		for k, v := range f.vals {
			entry[k] = v
		}
	}
}

func init() {
	var (
		argDir       string
		argJob       int
		argSkipHooks bool
		argVars      varsFlag
	)
	cmd := &cobra.Command{
		Use:   "run [flags] [MANIFEST]",
		Short: "Execute a build manifest",
		Long: "Execute each phase of a build manifest in its conventional order (init, " +
			"install, build_script, test_script, after_test), once per build-matrix " +
			"entry, halting the run at the first failing step.  If MANIFEST is not " +
			"given, it defaults to \"" + defaultManifestFile + "\".",
		Args: cliutil.WrapPositionalArgs(cobra.MaximumNArgs(1)),
		RunE: func(flags *cobra.Command, args []string) error {
			ctx := flags.Context()

			m, err := openManifest(manifestFile(args))
			if err != nil {
				return err
			}
			entries := matrix.Entries(m)
			argVars.Apply(entries)

			opts := sequencer.Options{
				Dir:       argDir,
				SkipHooks: argSkipHooks,
			}
			if flags.Flags().Changed("job") {
				if argJob < 0 || argJob >= len(entries) {
					return fmt.Errorf("--job index %d out of range: manifest has %d matrix entries",
						argJob, len(entries))
				}
				_, err := sequencer.Run(ctx, m, entries[argJob], opts)
				return err
			}
			_, err = sequencer.RunMatrix(ctx, m, entries, opts)
			return err
		},
	}
	cmd.Flags().StringVarP(&argDir, "directory", "C", "",
		"Run the manifest in `DIR` instead of the manifest's clone_folder")
	cmd.Flags().IntVar(&argJob, "job", 0,
		"Run only matrix entry number `N` (0-origin)")
	cmd.Flags().BoolVar(&argSkipHooks, "skip-hooks", false,
		"Do not run the on_success/on_failure/on_finish phases")
	cmd.Flags().Var(&argVars, "var",
		"Override or add a matrix variable binding (may be repeated)")

	argparser.AddCommand(cmd)
}
