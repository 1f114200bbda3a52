package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentic-research/fileman/internal/browser"
	"github.com/agentic-research/fileman/internal/config"
	"github.com/agentic-research/fileman/internal/ctxlog"
	"github.com/agentic-research/fileman/internal/scene"
)

var (
	configPath string
	scenePath  string
	logLevel   string
	logFormat  string

	searchRoot     string
	fileCategory   string
	parmPattern    string
	ignoreCase     bool
	includeLocked  bool
	matchInvisible bool
	frame          int

	// cfg is the effective configuration, set by the root pre-run.
	cfg *config.Config
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "Path to the settings file (default ./"+config.DefaultFile+" if present)")
	pf.StringVarP(&scenePath, "scene", "s", "", "Scene snapshot (.json or .db)")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.StringVar(&logFormat, "log-format", "", "Log format: text or json")
	pf.StringVarP(&searchRoot, "root", "r", "", "Node path to search under")
	pf.StringVar(&fileCategory, "category", "", "File category to look for (image, geometry, ...)")
	pf.StringVar(&parmPattern, "parm-pattern", "", "Parameter name or label pattern")
	pf.BoolVarP(&ignoreCase, "ignore-case", "i", false, "Match patterns case-insensitively")
	pf.BoolVar(&includeLocked, "include-locked", false, "Search inside locked nodes")
	pf.BoolVar(&matchInvisible, "match-invisible", false, "Include hidden parameters")
	pf.IntVar(&frame, "frame", 0, "Frame used to expand time-dependent values")
}

var rootCmd = &cobra.Command{
	Use:   "fileman",
	Short: "Find, inspect and relocate the files referenced by a scene",
	Long: `fileman finds the scene nodes whose parameters reference files of one
category, lists those references and copies, moves or repaths the files
while pointing the parameters at their new location.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load(cmd.Context(), configPath)
		if err != nil {
			return err
		}
		applyFlags(cmd, loaded)
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded

		logger := ctxlog.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
		cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))
		return nil
	},
}

// applyFlags lets explicitly set flags win over the settings file.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	set("log-level", func() { c.LogLevel = logLevel })
	set("log-format", func() { c.LogFormat = logFormat })
	set("root", func() { c.SearchRoot = searchRoot })
	set("category", func() { c.FileCategory = fileCategory })
	set("parm-pattern", func() { c.ParmPattern = parmPattern })
	set("ignore-case", func() { c.IgnoreCase = ignoreCase })
	set("include-locked", func() { c.IncludeLocked = includeLocked })
	set("match-invisible", func() { c.MatchInvisible = matchInvisible })
	set("frame", func() { c.Frame = frame })
}

// openScene loads the --scene snapshot and applies the configured variables
// and frame on top of the scene's own.
func openScene(cmd *cobra.Command) (*scene.MemoryStore, error) {
	if scenePath == "" {
		return nil, fmt.Errorf("--scene is required")
	}
	store, err := scene.Load(scenePath)
	if err != nil {
		return nil, fmt.Errorf("load scene: %w", err)
	}
	exp := store.Expander()
	for k, v := range cfg.Variables {
		exp.Set(k, v)
	}
	if cmd.Flags().Changed("frame") || cfg.Frame != config.Default().Frame {
		exp.SetFrame(cfg.Frame)
	}
	ctxlog.FromContext(cmd.Context()).Debug("scene loaded", "path", scenePath, "frame", exp.Frame())
	return store, nil
}

// openPanel loads the scene and runs the initial search.
func openPanel(cmd *cobra.Command, opts ...browser.Option) (*browser.Panel, *scene.MemoryStore, error) {
	store, err := openScene(cmd)
	if err != nil {
		return nil, nil, err
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get working dir: %w", err)
	}
	p, err := browser.New(store, cfg, append([]browser.Option{browser.WithWorkDir(wd)}, opts...)...)
	if err != nil {
		return nil, nil, err
	}
	if err := p.Refresh(cmd.Context()); err != nil {
		p.Close()
		return nil, nil, err
	}
	return p, store, nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
