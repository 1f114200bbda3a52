package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentic-research/fileman/internal/browser"
	"github.com/agentic-research/fileman/internal/scene"
	"github.com/agentic-research/fileman/internal/treemodel"
)

var showSummary bool

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the nodes that reference files of the chosen category",
	Long: `Print the matched nodes below the search root as a tree. Matched nodes
are marked with '*'; unmarked rows are their ancestors.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, _, err := openPanel(cmd)
		if err != nil {
			return err
		}
		defer p.Close()

		out := cmd.OutOrStdout()
		printTree(out, p)
		if showSummary {
			printSummary(out, p.Summary())
		}
		return nil
	},
}

func init() {
	treeCmd.Flags().BoolVar(&showSummary, "summary", false, "Also print per-category node counts")
	rootCmd.AddCommand(treeCmd)
}

func printTree(w io.Writer, p *browser.Panel) {
	m := p.NodeModel()
	header, _ := m.HeaderData(0)
	_, _ = fmt.Fprintf(w, "%s (%s, %s)\n", header, p.Root(), p.Config().FileCategory)
	treemodel.Walk(m, func(idx treemodel.Index, depth int) bool {
		name, _ := m.Data(idx, treemodel.RoleDisplay)
		mark := " "
		if _, ok := m.Data(idx, treemodel.RoleBackground); ok {
			mark = "*"
		}
		_, _ = fmt.Fprintf(w, "%s %s%v\n", mark, strings.Repeat("  ", depth), name)
		return true
	})
}

func printSummary(w io.Writer, s browser.Summary) {
	_, _ = fmt.Fprintf(w, "matched %d nodes under %s\n", s.MatchedNodes, s.Root)
	cats := make([]string, 0, len(s.NodesByFileType))
	for ft := range s.NodesByFileType {
		cats = append(cats, string(ft))
	}
	sort.Strings(cats)
	for _, c := range cats {
		_, _ = fmt.Fprintf(w, "  %-10s %d\n", c, s.NodesByFileType[scene.FileType(c)])
	}
}
