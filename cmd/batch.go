package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentic-research/fileman/internal/browser"
	"github.com/agentic-research/fileman/internal/config"
)

var (
	batchAll    bool
	batchNodes  []string
	batchParms  []string
	batchDest   string
	batchAction string
	batchWrite  bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Copy, move or repath the files of matched parameters",
	Long: `Process the files referenced by the chosen parameters. copy and move place
the files in the destination directory, repath only rewrites the values.
A parameter is pointed at the destination only when all of its files got
there. Use --write to save the scene snapshot afterwards.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !batchAll && len(batchParms) == 0 {
			return fmt.Errorf("choose parameters with --parm or pass --all")
		}
		ctx := cmd.Context()
		p, store, err := openPanel(cmd)
		if err != nil {
			return err
		}
		defer p.Close()

		if _, err := selectNodes(ctx, p, batchNodes); err != nil {
			return err
		}

		req := browser.BatchRequest{
			Action:  batchAction,
			DestDir: batchDest,
			Target:  config.TargetSelected,
		}
		if batchAll {
			req.Target = config.TargetAll
		} else {
			rows := make([]int, 0, len(batchParms))
			for _, pp := range batchParms {
				row, ok := parmRow(p, pp)
				if !ok {
					return fmt.Errorf("%s is not a matching %s parameter", pp, p.Config().FileCategory)
				}
				rows = append(rows, row)
			}
			p.SelectParms(rows...)
		}

		report, err := p.RunBatch(ctx, req)
		if err != nil {
			return err
		}
		printReport(cmd.OutOrStdout(), report)

		if batchWrite && report.Updated() > 0 {
			return saveScene(cmd, store)
		}
		return nil
	},
}

func init() {
	f := batchCmd.Flags()
	f.BoolVar(&batchAll, "all", false, "Process every listed parameter")
	f.StringSliceVar(&batchNodes, "node", nil, "Matched nodes whose parameters are listed (default all)")
	f.StringSliceVar(&batchParms, "parm", nil, "Parameter paths to process")
	f.StringVar(&batchDest, "dest", "", "Destination directory, may use variables (default from config)")
	f.StringVar(&batchAction, "action", "", "copy, move or repath (default from config)")
	f.BoolVarP(&batchWrite, "write", "w", false, "Save the scene snapshot when values changed")
	rootCmd.AddCommand(batchCmd)
}

func printReport(w io.Writer, r browser.BatchReport) {
	_, _ = fmt.Fprintf(w, "%s to %s (%s)\n", r.Action, r.DestDir, r.ExpandedDestDir)
	for _, res := range r.Results {
		o := res.Outcome
		switch {
		case res.Updated:
			_, _ = fmt.Fprintf(w, "  ok      %s -> %s (%d files)\n", res.Parm, res.NewValue, len(o.Processed))
		case !o.OK:
			_, _ = fmt.Fprintf(w, "  skipped %s: no files resolved\n", res.Parm)
		default:
			_, _ = fmt.Fprintf(w, "  partial %s: %d done, %d missing, %d existing, %d failed\n",
				res.Parm, len(o.Processed), len(o.Missing), len(o.Existing), len(o.Failed))
		}
	}
	_, _ = fmt.Fprintf(w, "%d of %d parameters updated\n", r.Updated(), len(r.Results))
}
