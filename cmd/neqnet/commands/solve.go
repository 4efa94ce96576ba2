package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/equinor/neqnet/gathering"
)

var (
	solveMode     string
	solveMarkdown bool
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve the gathering section of a network file",
	Long: `solve finds the manifold pressure, well rates and wellhead pressures of
the wells in the gathering section. --mode overrides the file's mode.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := loadFile()
		if err != nil {
			return err
		}
		if f.Gathering == nil {
			return errors.New("file has no gathering section")
		}
		if solveMode != "" {
			f.Gathering.Mode = solveMode
		}
		s, err := f.Gathering.Build(gathering.WithLogger(logger))
		if err != nil {
			return err
		}
		res, err := s.Solve(context.Background())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		pm, _ := res.ManifoldPressure("bara")
		total, _ := res.TotalRate("MSm3/day")
		headColor.Fprintf(out, "%s (%s)\n", res.Name(), res.Mode())
		fmt.Fprintf(out, "manifold %.2f bara, total %.3f MSm3/day, %d producing, %s after %d iterations (residual %.2e)\n",
			pm, total, res.ProducingWellCount(), status(res.Converged()), res.Iterations(), res.Residual())
		if solveMarkdown {
			fmt.Fprintln(out)
			fmt.Fprint(out, res.MarkdownTable())
			return nil
		}
		rates, whp := res.WellRates(), res.WellheadPressures()
		for _, name := range res.WellNames() {
			fmt.Fprintf(out, "  %-12s %9.4f MSm3/day  WHP %7.2f bara\n", name, rates[name]/1e6, whp[name])
		}

		return nil
	},
}

func init() {
	solveCmd.Flags().StringVar(&solveMode, "mode", "", "fixed_manifold_pressure, fixed_total_rate or optimize_allocation")
	solveCmd.Flags().BoolVar(&solveMarkdown, "markdown", false, "print the per-well table as markdown")
	AddCommand(solveCmd)
}
