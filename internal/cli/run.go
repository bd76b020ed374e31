package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/openomni/tck/harness"
	"github.com/openomni/tck/tck"
)

// NewRunCommand creates the run command.
func NewRunCommand(opts *RootOptions) *cobra.Command {
	var (
		configPath  string
		parallelism int
	)

	cmd := &cobra.Command{
		Use:   "run [certification...]",
		Short: "Run certifications and report per-clause verdicts",
		Long: `Runs the named certifications (or all built-ins) and prints a verdict
per clause. The process exits non-zero when any clause fails or errors.

Timing knobs come from TCK_TIMING_SLACK, TCK_POLL_INTERVAL and
TCK_WAIT_BOUND, optionally overridden by --config.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			envCfg, err := harness.FromEnv()
			if err != nil {
				return err
			}

			var fileCfg *RunConfig
			if configPath != "" {
				fileCfg, err = LoadRunConfig(configPath)
				if err != nil {
					return err
				}
			}
			h := harness.New(fileCfg.harnessConfig(envCfg))
			if parallelism <= 0 {
				parallelism = 1
				if fileCfg != nil && fileCfg.Parallelism > 0 {
					parallelism = fileCfg.Parallelism
				}
			}

			certs, err := selectCertifications(args, fileCfg)
			if err != nil {
				return err
			}

			logger := opts.logger(cmd)
			total := &tck.Report{}
			for _, cert := range certs {
				composed, fixture, err := cert.Build()
				if err != nil {
					return fmt.Errorf("build %s: %w", cert.Name, err)
				}
				suite, err := tck.NewSuite(composed, fixture,
					tck.WithHarness(h),
					tck.WithParallelism(parallelism),
					tck.WithLogger(logger.With("certification", cert.Name)),
				)
				if err != nil {
					return fmt.Errorf("bind %s: %w", cert.Name, err)
				}
				logger.Info("running certification", "name", cert.Name, "clauses", suite.Len())
				report := suite.Run(cmd.Context())
				total.Results = append(total.Results, report.Results...)
			}

			if opts.Format == "json" {
				if err := total.WriteJSON(cmd.OutOrStdout()); err != nil {
					return err
				}
			} else {
				total.WriteTable(cmd.OutOrStdout())
			}

			if !total.Ok() {
				_, failed, errored := total.Counts()
				return &ExitError{
					Code:    ExitFailure,
					Message: fmt.Sprintf("%d clause(s) failed, %d errored", failed, errored),
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "YAML run configuration")
	cmd.Flags().IntVar(&parallelism, "parallel", 0, "clauses to run concurrently per suite")
	return cmd
}

// selectCertifications resolves the run set: explicit args win, then the
// config's include list, then every built-in.
func selectCertifications(args []string, cfg *RunConfig) ([]Certification, error) {
	names := args
	if len(names) == 0 && cfg != nil {
		names = cfg.Include
	}
	if len(names) == 0 {
		return BuiltinCertifications(), nil
	}

	var out []Certification
	for _, name := range names {
		cert, ok := FindCertification(name)
		if !ok {
			known := BuiltinCertifications()
			candidates := make([]string, len(known))
			for i, c := range known {
				candidates[i] = c.Name
			}
			slices.Sort(candidates)
			return nil, &ExitError{
				Code:    ExitCommandError,
				Message: fmt.Sprintf("unknown certification %q (known: %v)", name, candidates),
			}
		}
		out = append(out, cert)
	}
	return out, nil
}
