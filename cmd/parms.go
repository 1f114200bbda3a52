package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/agentic-research/fileman/internal/browser"
	"github.com/agentic-research/fileman/internal/scenemodel"
)

var parmsCmd = &cobra.Command{
	Use:   "parms [node-path...]",
	Short: "List the file parameters of matched nodes",
	Long: `List the matching file parameters of the given matched nodes, or of every
matched node when none are given. Rows are numbered the way batch and set
address them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, _, err := openPanel(cmd)
		if err != nil {
			return err
		}
		defer p.Close()

		if _, err := selectNodes(cmd.Context(), p, args); err != nil {
			return err
		}
		return printParms(cmd.OutOrStdout(), p)
	},
}

func init() {
	rootCmd.AddCommand(parmsCmd)
}

// selectNodes selects the given matched nodes, or all of them when paths is
// empty. Paths that are not matched nodes are an error.
func selectNodes(ctx context.Context, p *browser.Panel, paths []string) (int, error) {
	if len(paths) == 0 {
		return p.SelectAllNodes(ctx)
	}
	n, err := p.SelectNodePaths(ctx, paths...)
	if err != nil {
		return n, err
	}
	if n != len(paths) {
		matched := map[string]bool{}
		for _, sel := range p.SelectedNodes() {
			matched[sel] = true
		}
		for _, np := range paths {
			if !matched[np] {
				return n, fmt.Errorf("node %s is not a match under %s", np, p.Root())
			}
		}
	}
	return n, nil
}

// parmRow returns the row of the parameter at parmPath in the parameter view.
func parmRow(p *browser.Panel, parmPath string) (int, bool) {
	for row, ref := range p.ParmModel().Rows() {
		if ref.Path == parmPath {
			return row, true
		}
	}
	return -1, false
}

func printParms(w io.Writer, p *browser.Panel) error {
	m := p.ParmModel()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	name, _ := m.HeaderData(scenemodel.ParmNameColumn)
	raw, _ := m.HeaderData(scenemodel.ParmValueColumn)
	_, _ = fmt.Fprintf(tw, "ROW\t%s\t%s\tEXPANDED\n", name, raw)
	for row, ref := range m.Rows() {
		if ref.Parm == nil {
			continue
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", row, ref.Path, ref.Parm.RawValue(), ref.Parm.Eval())
	}
	return tw.Flush()
}
