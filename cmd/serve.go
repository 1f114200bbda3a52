package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/agentic-research/fileman/internal/browser"
	"github.com/agentic-research/fileman/internal/config"
	"github.com/agentic-research/fileman/internal/ctxlog"
	"github.com/agentic-research/fileman/internal/scene"
)

var serveWrite bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the file browser as MCP tools over stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, store, err := openPanel(cmd)
		if err != nil {
			return err
		}
		defer p.Close()

		logger := ctxlog.FromContext(cmd.Context())
		tools := &sceneTools{panel: p, store: store, write: serveWrite, logger: logger}
		s := tools.server()

		logger.Info("serving MCP over stdio", "scene", scenePath, "root", p.Root())
		return server.ServeStdio(s, server.WithErrorLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError)))
	},
}

func init() {
	serveCmd.Flags().BoolVarP(&serveWrite, "write", "w", false, "Save the scene snapshot after each batch that changed values")
	rootCmd.AddCommand(serveCmd)
}

// sceneTools exposes one panel to MCP clients. Calls are serialized.
type sceneTools struct {
	mu     sync.Mutex
	panel  *browser.Panel
	store  *scene.MemoryStore
	write  bool
	logger *slog.Logger
}

func (t *sceneTools) server() *server.MCPServer {
	s := server.NewMCPServer("fileman", "0.1.0", server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool("find_nodes",
		mcp.WithDescription("Search the scene for nodes with file parameters of a category. Returns the matched node paths."),
		mcp.WithString("root", mcp.Description("Node path to search under (default from config)")),
		mcp.WithString("category", mcp.Description("File category such as image or geometry (default from config)")),
	), t.findNodes)

	s.AddTool(mcp.NewTool("list_file_parms",
		mcp.WithDescription("List the matching file parameters of matched nodes with their raw and expanded values."),
		mcp.WithArray("nodes", mcp.Description("Matched node paths (default all)"), mcp.WithStringItems()),
	), t.listFileParms)

	s.AddTool(mcp.NewTool("batch_files",
		mcp.WithDescription("Copy, move or repath the files of listed parameters and point the parameters at the destination."),
		mcp.WithArray("parms", mcp.Description("Parameter paths to process"), mcp.WithStringItems()),
		mcp.WithBoolean("all", mcp.Description("Process every listed parameter")),
		mcp.WithString("action", mcp.Description("copy, move or repath (default from config)")),
		mcp.WithString("dest", mcp.Description("Destination directory, may use variables (default from config)")),
	), t.batchFiles)

	return s
}

func (t *sceneTools) context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, t.logger)
}

func (t *sceneTools) findNodes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ctx = t.context(ctx)

	prevRoot, prevCategory := t.panel.Root(), t.panel.Config().FileCategory
	restore := func() {
		t.panel.SetRoot(prevRoot)
		_ = t.panel.SetCategory(prevCategory) // was valid before
	}
	if root := req.GetString("root", ""); root != "" {
		t.panel.SetRoot(root)
	}
	if cat := req.GetString("category", ""); cat != "" {
		if err := t.panel.SetCategory(cat); err != nil {
			restore()
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	if err := t.panel.Refresh(ctx); err != nil {
		restore()
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"root":     t.panel.Root(),
		"category": t.panel.Config().FileCategory,
		"nodes":    t.panel.NodeModel().MatchedPaths(),
	})
}

type parmInfo struct {
	Row      int    `json:"row"`
	Path     string `json:"path"`
	Raw      string `json:"raw"`
	Expanded string `json:"expanded"`
	Sequence bool   `json:"sequence,omitempty"`
}

func (t *sceneTools) listFileParms(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ctx = t.context(ctx)

	if _, err := selectNodes(ctx, t.panel, req.GetStringSlice("nodes", nil)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out := []parmInfo{}
	for row, ref := range t.panel.ParmModel().Rows() {
		if ref.Parm == nil {
			continue
		}
		out = append(out, parmInfo{
			Row:      row,
			Path:     ref.Path,
			Raw:      ref.Parm.RawValue(),
			Expanded: ref.Parm.Eval(),
			Sequence: ref.Parm.IsTimeDependent(),
		})
	}
	return jsonResult(out)
}

type batchInfo struct {
	Parm     string   `json:"parm"`
	Updated  bool     `json:"updated"`
	NewValue string   `json:"new_value,omitempty"`
	Files    []string `json:"files,omitempty"`
	Missing  []string `json:"missing,omitempty"`
	Existing []string `json:"existing,omitempty"`
	Failed   []string `json:"failed,omitempty"`
}

func (t *sceneTools) batchFiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ctx = t.context(ctx)

	all := req.GetBool("all", false)
	parms := req.GetStringSlice("parms", nil)
	if !all && len(parms) == 0 {
		return mcp.NewToolResultError("pass parms or set all"), nil
	}

	// List every matched node so any matching parameter can be addressed.
	if _, err := t.panel.SelectAllNodes(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target := config.TargetAll
	if !all {
		target = config.TargetSelected
		rows := make([]int, 0, len(parms))
		for _, pp := range parms {
			row, ok := parmRow(t.panel, pp)
			if !ok {
				return mcp.NewToolResultError(fmt.Sprintf("%s is not a matching file parameter", pp)), nil
			}
			rows = append(rows, row)
		}
		t.panel.SelectParms(rows...)
	}

	report, err := t.panel.RunBatch(ctx, browser.BatchRequest{
		Action:  req.GetString("action", ""),
		DestDir: req.GetString("dest", ""),
		Target:  target,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results := make([]batchInfo, 0, len(report.Results))
	for _, res := range report.Results {
		results = append(results, batchInfo{
			Parm:     res.Parm,
			Updated:  res.Updated,
			NewValue: res.NewValue,
			Files:    res.Outcome.Processed,
			Missing:  res.Outcome.Missing,
			Existing: res.Outcome.Existing,
			Failed:   res.Outcome.Failed,
		})
	}
	if t.write && report.Updated() > 0 {
		if err := scene.Save(scenePath, t.store); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("save scene: %v", err)), nil
		}
	}
	return jsonResult(map[string]any{
		"action":  string(report.Action),
		"dest":    report.DestDir,
		"updated": report.Updated(),
		"results": results,
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}
