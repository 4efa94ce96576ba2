package commands

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var loopMaxVelocity float64

var loopCmd = &cobra.Command{
	Use:   "loop",
	Short: "Balance the looped section of a network file",
	Long: `loop detects the independent loops of the looped section, balances them
with Hardy-Cross (or the sequential solver) and prints pipe flows and node
pressures. With --max-velocity it also reports the network throughput.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := loadFile()
		if err != nil {
			return err
		}
		if f.Looped == nil {
			return errors.New("file has no looped section")
		}
		n, err := f.Looped.Build(logger)
		if err != nil {
			return err
		}
		if err := n.Run(uuid.New()); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		sum := n.Summary()
		headColor.Fprintf(out, "%s (%s)\n", sum.Name, sum.Solver)
		fmt.Fprintf(out, "%d nodes, %d pipes, %d loops: %s after %d iterations (max residual %.1f Pa)\n",
			sum.Nodes, sum.Pipes, sum.Loops, status(sum.Converged), sum.Iterations, sum.MaxResidual)
		loops, err := n.Loops()
		if err != nil {
			return err
		}
		for _, l := range loops {
			fmt.Fprintf(out, "  loop %s\n", l)
		}
		for _, p := range f.Looped.Pipes {
			q, err := n.PipeFlowRate(p.Name, "kg/hr")
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "  pipe %-10s %10.1f kg/hr\n", p.Name, q)
		}
		for _, nd := range f.Looped.Nodes {
			pr, err := n.NodePressure(nd.Name, "bara")
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "  node %-10s %8.3f bara\n", nd.Name, pr)
		}

		if loopMaxVelocity > 0 {
			res, err := n.Throughput(loopMaxVelocity)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "throughput at %.1f m/s: %.3f kg/s, limited by %v\n",
				loopMaxVelocity, res.MaxFlow, res.Saturated)
			for _, id := range slices.Sorted(maps.Keys(res.EdgeFlows)) {
				logger.Debug("throughput edge", "pipe", id, "kg_per_s", res.EdgeFlows[id])
			}
		}

		return nil
	},
}

func init() {
	loopCmd.Flags().Float64Var(&loopMaxVelocity, "max-velocity", 0, "report throughput with this velocity limit (m/s)")
	AddCommand(loopCmd)
}
