package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/weft-ml/weft/nn"
	"github.com/weft-ml/weft/ops"
	"github.com/weft-ml/weft/tensor"
)

// buildMLP assembles the demo network used by the summary and bench
// commands. Input width is left unspecified, so the first forward call
// infers it from the batch.
func buildMLP(hidden []int, out int, dropout float64) *nn.HybridSequential {
	net := nn.NewHybridSequential(nn.SequentialOpts{Name: "mlp"})
	for _, h := range hidden {
		net.Add(nn.NewDense(h, nn.DenseOpts{Activation: ops.ReLU}))
		if dropout > 0 {
			net.Add(nn.NewDropout(dropout))
		}
	}
	net.Add(nn.NewDense(out))
	return net
}

func newSummaryCmd() *cobra.Command {
	var (
		in     int
		hidden []int
		out    int
		batch  int
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the layer tree and parameter table of a demo MLP",
		RunE: func(*cobra.Command, []string) error {
			net := buildMLP(hidden, out, 0)

			// One forward pass resolves the deferred parameter shapes.
			x := tensor.RandomUniform(tensor.Shape{batch, in}, tensor.Float32, -1, 1, nil)
			if _, err := net.Forward(nil, x); err != nil {
				return err
			}

			fmt.Println(net)
			fmt.Println()

			params, err := net.CollectParams()
			if err != nil {
				return err
			}

			var data [][]string
			total := 0
			for name, p := range params.All() {
				elems := "-"
				if s, err := p.Shape().Concrete(); err == nil {
					elems = strconv.Itoa(s.NumElements())
					total += s.NumElements()
				}
				data = append(data, []string{
					name,
					p.Shape().String(),
					p.DType().String(),
					elems,
					p.Grad().String(),
				})
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"PARAMETER", "SHAPE", "DTYPE", "ELEMENTS", "GRAD"})
			table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			table.SetHeaderLine(false)
			table.SetBorder(false)
			table.SetNoWhiteSpace(true)
			table.SetTablePadding("    ")
			table.AppendBulk(data)
			table.Render()

			fmt.Printf("\nTotal parameters: %d\n", total)
			return nil
		},
	}

	cmd.Flags().IntVar(&in, "in", 64, "Input feature width")
	cmd.Flags().IntSliceVar(&hidden, "hidden", []int{128, 64}, "Hidden layer widths")
	cmd.Flags().IntVar(&out, "out", 10, "Output width")
	cmd.Flags().IntVar(&batch, "batch", 2, "Batch size used to infer shapes")
	return cmd
}
