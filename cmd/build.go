package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentic-research/fileman/internal/scene"
)

var nodesSelector string

var buildCmd = &cobra.Command{
	Use:   "build [scene.json] [output.db]",
	Short: "Build a SQLite scene snapshot from a JSON scene",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := args[0]
		output := args[1]
		out := cmd.OutOrStdout()

		if filepath.Ext(source) != ".json" {
			return fmt.Errorf("source %s: want a .json scene", source)
		}
		data, err := os.ReadFile(source)
		if err != nil {
			return fmt.Errorf("read scene: %w", err)
		}
		sc, err := scene.ParseJSON(data, nodesSelector)
		if err != nil {
			return fmt.Errorf("%s: %w", source, err)
		}
		store, err := scene.NewMemoryStoreFromScene(sc)
		if err != nil {
			return err
		}

		start := time.Now()
		_, _ = fmt.Fprintf(out, "Building %s from %s...\n", output, source)
		_ = os.Remove(output) // Overwrite
		if err := scene.SaveSQLite(output, store); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "Wrote %d nodes in %v.\n", len(store.Paths()), time.Since(start))
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVar(&nodesSelector, "nodes", scene.NodesSelector, "JSONPath selecting the node objects")
	rootCmd.AddCommand(buildCmd)
}
