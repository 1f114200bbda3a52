// Package config loads the fileman settings file.
//
// The file is HCL; every attribute is optional and falls back to Default.
// Expressions may read the process environment through the env object:
//
//	search_root   = "/obj"
//	file_category = "image"
//	dest_dir      = "${env.HIP}/tex/"
//	variables = {
//	  JOB = "/mnt/projects/show"
//	}
package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/agentic-research/fileman/internal/ctxlog"
	"github.com/agentic-research/fileman/internal/fileop"
	"github.com/agentic-research/fileman/internal/scene"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "fileman.hcl"

// Batch targets.
const (
	TargetSelected = "selected"
	TargetAll      = "all"
)

type Config struct {
	SearchRoot     string            `hcl:"search_root,optional"`
	FileCategory   string            `hcl:"file_category,optional"`
	ParmPattern    string            `hcl:"parm_pattern,optional"`
	MatchInvisible bool              `hcl:"match_invisible,optional"`
	IgnoreCase     bool              `hcl:"ignore_case,optional"`
	IncludeLocked  bool              `hcl:"include_locked,optional"`
	DestDir        string            `hcl:"dest_dir,optional"`
	Action         string            `hcl:"action,optional"`
	Target         string            `hcl:"target,optional"`
	Previewer      string            `hcl:"previewer,optional"`
	Frame          int               `hcl:"frame,optional"`
	Variables      map[string]string `hcl:"variables,optional"`
	LogLevel       string            `hcl:"log_level,optional"`
	LogFormat      string            `hcl:"log_format,optional"`
}

func Default() *Config {
	return &Config{
		SearchRoot:   "/obj",
		FileCategory: string(scene.FileImage),
		ParmPattern:  "*",
		DestDir:      "$HIP/tex/",
		Action:       string(fileop.Copy),
		Target:       TargetSelected,
		Previewer:    "mplay",
		Frame:        1,
		Variables:    map[string]string{},
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

// Load decodes path over Default. A missing DefaultFile is not an error; any
// other missing path is.
func Load(ctx context.Context, path string) (*Config, error) {
	logger := ctxlog.FromContext(ctx)
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultFile); err != nil {
			logger.Debug("no config file, using defaults")
			return cfg, nil
		}
		path = DefaultFile
	}

	logger.Debug("decoding config file", "path", path)
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, diags)
	}
	if diags := gohcl.DecodeBody(file.Body, evalContext(), cfg); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, diags)
	}
	if cfg.Variables == nil {
		cfg.Variables = map[string]string{}
	}
	return cfg, nil
}

// Parse decodes src (named filename in diagnostics) over Default.
func Parse(src []byte, filename string) (*Config, error) {
	cfg := Default()
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config %s: %w", filename, diags)
	}
	if diags := gohcl.DecodeBody(file.Body, evalContext(), cfg); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config %s: %w", filename, diags)
	}
	if cfg.Variables == nil {
		cfg.Variables = map[string]string{}
	}
	return cfg, nil
}

func evalContext() *hcl.EvalContext {
	env := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": cty.ObjectVal(env)},
	}
}

// Validate rejects settings the batch operation cannot run with.
func (c *Config) Validate() error {
	if _, err := fileop.ParseAction(c.Action); err != nil {
		return fmt.Errorf("config action: %w", err)
	}
	if _, err := scene.ParseFileType(c.FileCategory); err != nil {
		return fmt.Errorf("config file_category: %w", err)
	}
	switch c.Target {
	case TargetSelected, TargetAll:
	default:
		return fmt.Errorf("config target: %q is not %q or %q", c.Target, TargetSelected, TargetAll)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("config log_format: %q is not text or json", c.LogFormat)
	}
	return nil
}
