package commands

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/equinor/neqnet/network"
)

var orderRun bool

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Print the manifold execution order of the pipeflow section",
	Long: `order prints the manifolds of the pipeflow section in the order they are
executed: upstream before downstream, ties in creation order. With --run it
also runs the network and prints each manifold's pressure and flow.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := loadFile()
		if err != nil {
			return err
		}
		if f.PipeFlow == nil {
			return errors.New("file has no pipeflow section")
		}
		n, err := f.PipeFlow.Build(network.WithLogger(logger))
		if err != nil {
			return err
		}
		order, err := n.ExecutionOrder()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		headColor.Fprintln(out, n.Name())
		if !orderRun {
			for i, name := range order {
				fmt.Fprintf(out, "%2d. %s\n", i+1, name)
			}
			return nil
		}
		if err := n.Run(uuid.New()); err != nil {
			return err
		}
		for i, name := range order {
			m, _ := n.Manifold(name)
			fmt.Fprintf(out, "%2d. %-12s %8.3f bara %8.3f kg/s\n", i+1, name, m.Pressure(), m.OutletStream().MassFlow())
		}
		drop, err := n.TotalPressureDrop("bar")
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "total pressure drop %.3f bar\n", drop)

		return nil
	},
}

func init() {
	orderCmd.Flags().BoolVar(&orderRun, "run", false, "run the network and print manifold states")
	AddCommand(orderCmd)
}
