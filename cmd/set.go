package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentic-research/fileman/internal/ctxlog"
	"github.com/agentic-research/fileman/internal/scene"
)

var writeScene bool

var setCmd = &cobra.Command{
	Use:   "set [parm-path] [value]",
	Short: "Point a file parameter at another file",
	Long: `Set the raw value of a matched file parameter, as choosing a file in the
parameter view would. The value is stored unexpanded. Use --write to save
the scene snapshot afterwards.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		parmPath, value := args[0], args[1]
		p, store, err := openPanel(cmd)
		if err != nil {
			return err
		}
		defer p.Close()

		nodePath, _ := scene.SplitParmPath(parmPath)
		if _, err := selectNodes(cmd.Context(), p, []string{nodePath}); err != nil {
			return err
		}
		row, ok := parmRow(p, parmPath)
		if !ok {
			return fmt.Errorf("%s is not a matching %s parameter", parmPath, p.Config().FileCategory)
		}
		if !p.ChooseFile(row, value) {
			return fmt.Errorf("could not set %s", parmPath)
		}
		ctxlog.FromContext(cmd.Context()).Info("parameter set", "parm", parmPath, "value", value)
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", parmPath, value)

		if writeScene {
			return saveScene(cmd, store)
		}
		return nil
	},
}

func init() {
	setCmd.Flags().BoolVarP(&writeScene, "write", "w", false, "Save the scene snapshot after the change")
	rootCmd.AddCommand(setCmd)
}

func saveScene(cmd *cobra.Command, store *scene.MemoryStore) error {
	if err := scene.Save(scenePath, store); err != nil {
		return fmt.Errorf("save scene: %w", err)
	}
	ctxlog.FromContext(cmd.Context()).Debug("scene saved", "path", scenePath)
	return nil
}
