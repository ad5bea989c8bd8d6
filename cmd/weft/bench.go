package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/weft-ml/weft/nn"
	"github.com/weft-ml/weft/tensor"
)

func newBenchCmd() *cobra.Command {
	var (
		batch  int
		in     int
		hidden []int
		out    int
		iters  int
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Compare eager and hybridized forward times on a demo MLP",
		RunE: func(*cobra.Command, []string) error {
			net := buildMLP(hidden, out, 0)
			x := tensor.RandomUniform(tensor.Shape{batch, in}, tensor.Float32, -1, 1, nil)

			// Warm up eagerly: materializes parameters.
			if _, err := net.Forward(nil, x); err != nil {
				return err
			}
			eager, err := timeForward(net, x, iters)
			if err != nil {
				return err
			}
			slog.Debug("eager pass done", "iters", iters, "total", eager)

			// Same network, same weights, captured execution.
			net.Hybridize(true)
			if _, err := net.Forward(nil, x); err != nil {
				return err
			}
			hybrid, err := timeForward(net, x, iters)
			if err != nil {
				return err
			}
			slog.Debug("hybrid pass done", "iters", iters, "total", hybrid, "traces", net.TraceCount())

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"MODE", "ITERS", "TOTAL", "PER CALL"})
			table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			table.SetHeaderLine(false)
			table.SetBorder(false)
			table.SetNoWhiteSpace(true)
			table.SetTablePadding("    ")
			table.AppendBulk([][]string{
				{"eager", fmt.Sprint(iters), eager.String(), (eager / time.Duration(iters)).String()},
				{"hybrid", fmt.Sprint(iters), hybrid.String(), (hybrid / time.Duration(iters)).String()},
			})
			table.Render()

			fmt.Printf("\nPrograms traced: %d\n", net.TraceCount())
			return nil
		},
	}

	cmd.Flags().IntVar(&batch, "batch", 32, "Batch size")
	cmd.Flags().IntVar(&in, "in", 256, "Input feature width")
	cmd.Flags().IntSliceVar(&hidden, "hidden", []int{512, 256}, "Hidden layer widths")
	cmd.Flags().IntVar(&out, "out", 10, "Output width")
	cmd.Flags().IntVar(&iters, "iters", 100, "Forward calls per mode")
	return cmd
}

func timeForward(net *nn.HybridSequential, x *tensor.Array, iters int) (time.Duration, error) {
	start := time.Now()
	for i := 0; i < iters; i++ {
		if _, err := net.Forward(nil, x); err != nil {
			return 0, err
		}
	}
	return time.Since(start), nil
}
