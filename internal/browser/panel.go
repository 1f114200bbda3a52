// Package browser is the session behind the file-path manager front-ends.
//
// A Panel finds the nodes under a search root that reference files of one
// category, shows them as a node tree, lists the file parameters of the
// selected nodes and runs batch copy, move or repath over them.
package browser

import (
	"context"
	"fmt"
	"os/exec"
	"path"

	"github.com/RoaringBitmap/roaring"
	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"golang.org/x/sys/unix"

	"github.com/agentic-research/fileman/internal/config"
	"github.com/agentic-research/fileman/internal/ctxlog"
	"github.com/agentic-research/fileman/internal/fileop"
	"github.com/agentic-research/fileman/internal/matchers"
	"github.com/agentic-research/fileman/internal/scene"
	"github.com/agentic-research/fileman/internal/scenemodel"
	"github.com/agentic-research/fileman/internal/search"
	"github.com/agentic-research/fileman/internal/treemodel"
)

// Launcher starts an external program without waiting for it.
type Launcher func(ctx context.Context, name string, args ...string) error

// Option configures a Panel.
type Option func(*Panel)

// WithFilesystem sets the filesystem files are resolved and moved on.
func WithFilesystem(fs billy.Filesystem) Option {
	return func(p *Panel) { p.fs = fs }
}

// WithWorkDir anchors relative file references.
func WithWorkDir(dir string) Option {
	return func(p *Panel) { p.workDir = dir }
}

// WithLauncher replaces the previewer launcher.
func WithLauncher(l Launcher) Option {
	return func(p *Panel) { p.launch = l }
}

// WithWritableCheck replaces the destination permission check. A nil check
// accepts every directory.
func WithWritableCheck(fn func(dir string) error) Option {
	return func(p *Panel) { p.writable = fn }
}

// Panel holds one browsing session. It is not safe for concurrent use.
type Panel struct {
	store    *scene.HotSwapStore
	cfg      config.Config
	fs       billy.Filesystem
	workDir  string
	launch   Launcher
	writable func(dir string) error

	root          string
	nodes         *scenemodel.NodeTreeModel
	parms         *scenemodel.ParmTreeModel
	selectedNodes []string
	selectedParms *roaring.Bitmap
	cancelParms   func()
}

// New validates cfg and returns a panel searching cfg.SearchRoot. The models
// are empty until Refresh.
func New(store scene.Store, cfg *config.Config, opts ...Option) (*Panel, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Panel{
		store:         scene.NewHotSwapStore(store),
		cfg:           *cfg,
		fs:            osfs.New("/"),
		workDir:       "/",
		launch:        startProcess,
		writable:      accessWritable,
		root:          cfg.SearchRoot,
		selectedParms: roaring.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.nodes = scenemodel.NewNodeTreeModel(p.store, nil)
	p.setParmModel(scenemodel.NewParmTreeModel(p.store, nil))
	return p, nil
}

func startProcess(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}
	go func() { _ = cmd.Wait() }() // reap; exit status is not reported
	return nil
}

func accessWritable(dir string) error {
	if err := unix.Access(dir, unix.W_OK); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDestinationNotWritable, dir, err)
	}
	return nil
}

func (p *Panel) Config() config.Config                { return p.cfg }
func (p *Panel) Root() string                         { return p.root }
func (p *Panel) NodeModel() *scenemodel.NodeTreeModel { return p.nodes }
func (p *Panel) ParmModel() *scenemodel.ParmTreeModel { return p.parms }
func (p *Panel) Store() scene.Store                   { return p.store }
func (p *Panel) SelectedNodes() []string              { return append([]string(nil), p.selectedNodes...) }

// SetRoot changes the search root used by the next Refresh.
func (p *Panel) SetRoot(root string) { p.root = root }

// SetCategory changes the file category, rejecting unknown ones.
func (p *Panel) SetCategory(category string) error {
	ft, err := scene.ParseFileType(category)
	if err != nil {
		return err
	}
	p.cfg.FileCategory = string(ft)
	return nil
}

func (p *Panel) matcher() (*matchers.ParmNameAndFileType, error) {
	m, err := matchers.NewParmNameAndFileType(p.cfg.ParmPattern, p.cfg.FileCategory)
	if err != nil {
		return nil, err
	}
	m.MatchInvisible = p.cfg.MatchInvisible
	return m, nil
}

// Refresh searches the root again and rebuilds both models. The node
// selection is dropped.
func (p *Panel) Refresh(ctx context.Context) error {
	log := ctxlog.FromContext(ctx)
	m, err := p.matcher()
	if err != nil {
		return err
	}
	if _, err := p.store.Node(p.root); err != nil {
		return fmt.Errorf("search root %s: %w", p.root, err)
	}

	seq := search.Nodes(p.store, p.root, m, search.TraverseOptions{
		IgnoreCase:    p.cfg.IgnoreCase,
		Recursive:     true,
		IncludeLocked: p.cfg.IncludeLocked,
	})
	paths := search.Paths(seq)
	log.Debug("search finished", "root", p.root, "matcher", m.String(), "matches", len(paths))

	p.nodes.Close()
	p.nodes = scenemodel.NewNodeTreeModel(p.store, paths)
	p.selectedNodes = nil
	return p.RefreshParms(ctx)
}

// SelectNodes replaces the node selection with the selectable rows among
// idxs and rebuilds the parameter view. It returns how many rows were taken.
func (p *Panel) SelectNodes(ctx context.Context, idxs ...treemodel.Index) (int, error) {
	p.selectedNodes = p.selectedNodes[:0]
	seen := map[string]bool{}
	for _, idx := range idxs {
		if !p.nodes.Flags(idx).Has(treemodel.FlagSelectable) {
			continue
		}
		ref := p.nodes.Ref(idx)
		if ref == nil || seen[ref.Path] {
			continue
		}
		seen[ref.Path] = true
		p.selectedNodes = append(p.selectedNodes, ref.Path)
	}
	return len(p.selectedNodes), p.RefreshParms(ctx)
}

// SelectNodePaths is SelectNodes by node path. Unknown paths are ignored.
func (p *Panel) SelectNodePaths(ctx context.Context, paths ...string) (int, error) {
	idxs := make([]treemodel.Index, 0, len(paths))
	for _, np := range paths {
		idxs = append(idxs, p.nodes.IndexOf(np))
	}
	return p.SelectNodes(ctx, idxs...)
}

// SelectAllNodes selects every matched node.
func (p *Panel) SelectAllNodes(ctx context.Context) (int, error) {
	return p.SelectNodes(ctx, p.nodes.Selectable()...)
}

// RefreshParms lists the matching file parameters of the selected nodes.
// Nodes removed since they were selected are skipped.
func (p *Panel) RefreshParms(ctx context.Context) error {
	m, err := p.matcher()
	if err != nil {
		return err
	}
	opts := search.MatchOptions{IgnoreCase: p.cfg.IgnoreCase}

	var parmPaths []string
	for _, np := range p.selectedNodes {
		n := p.nodes.Node(p.nodes.IndexOf(np))
		if n == nil {
			continue
		}
		for _, parm := range m.Parms(n, opts) {
			parmPaths = append(parmPaths, parm.Path())
		}
	}
	ctxlog.FromContext(ctx).Debug("parameter view rebuilt", "nodes", len(p.selectedNodes), "parms", len(parmPaths))

	p.parms.Close()
	p.setParmModel(scenemodel.NewParmTreeModel(p.store, parmPaths))
	return nil
}

// setParmModel installs m and keeps the row selection aligned with removals.
func (p *Panel) setParmModel(m *scenemodel.ParmTreeModel) {
	if p.cancelParms != nil {
		p.cancelParms()
	}
	p.parms = m
	p.selectedParms.Clear()
	p.cancelParms = m.Subscribe(func(ev treemodel.Event) {
		if ev.Kind != treemodel.EventRowsRemoved || ev.Parent.IsValid() {
			return
		}
		p.selectedParms = shiftRows(p.selectedParms, ev.First, ev.Last)
	})
}

// shiftRows drops rows first..last from bm and moves later rows up.
func shiftRows(bm *roaring.Bitmap, first, last int) *roaring.Bitmap {
	out := roaring.New()
	n := uint32(last - first + 1)
	it := bm.Iterator()
	for it.HasNext() {
		r := it.Next()
		switch {
		case r < uint32(first):
			out.Add(r)
		case r > uint32(last):
			out.Add(r - n)
		}
	}
	return out
}

// SetCurrent makes the node at idx current in the store, clearing the
// previous selection.
func (p *Panel) SetCurrent(idx treemodel.Index) error {
	n := p.nodes.Node(idx)
	if n == nil {
		return fmt.Errorf("set current: %w", scene.ErrNotFound)
	}
	n.SetCurrent(true, true)
	return nil
}

// SelectParms replaces the parameter selection. Out of range rows are
// ignored.
func (p *Panel) SelectParms(rows ...int) {
	p.selectedParms.Clear()
	count := p.parms.RowCount(treemodel.Index{})
	for _, r := range rows {
		if r >= 0 && r < count {
			p.selectedParms.Add(uint32(r))
		}
	}
}

// SelectedParms returns the selected parameter rows in ascending order.
func (p *Panel) SelectedParms() []int {
	out := make([]int, 0, p.selectedParms.GetCardinality())
	it := p.selectedParms.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

// ChooseFile stores a chosen path as the raw value of row.
func (p *Panel) ChooseFile(row int, chosen string) bool {
	if chosen == "" {
		return false
	}
	return p.parms.SetRawValue(row, chosen)
}

func (p *Panel) parmAt(row int) (*scene.Parm, error) {
	parm := p.parms.Parm(p.parms.Index(row, scenemodel.ParmValueColumn, treemodel.Index{}))
	if parm == nil {
		return nil, fmt.Errorf("%w %d", ErrNoParm, row)
	}
	return parm, nil
}

func (p *Panel) operator() *fileop.Operator {
	return &fileop.Operator{FS: p.fs, WorkDir: p.workDir, Expand: p.store.Expander().Expand}
}

// Preview opens the file of row in the configured previewer. Sequences and
// UDIM sets open their first file.
func (p *Panel) Preview(ctx context.Context, row int) error {
	parm, err := p.parmAt(row)
	if err != nil {
		return err
	}
	files, err := p.operator().Resolve(parm)
	if err != nil {
		return fmt.Errorf("preview %s: %w", parm.Path(), err)
	}
	if len(files) == 0 {
		return nil
	}
	target := files[0]
	if fi, err := p.fs.Stat(target); err != nil || fi.IsDir() {
		return fmt.Errorf("preview %s (raw value %s): %w", target, parm.RawValue(), ErrFileMissing)
	}
	ctxlog.FromContext(ctx).Info("opening previewer", "previewer", p.cfg.Previewer, "file", target)
	return p.launch(ctx, p.cfg.Previewer, target)
}

// BatchRequest overrides the configured batch settings. Empty fields keep
// the configuration.
type BatchRequest struct {
	Action  string
	DestDir string
	Target  string
}

// BatchResult is the outcome for one parameter row.
type BatchResult struct {
	Row      int
	Parm     string
	Outcome  fileop.Outcome
	NewValue string
	Updated  bool
}

type BatchReport struct {
	Action          fileop.Action
	DestDir         string
	ExpandedDestDir string
	Results         []BatchResult
}

// Updated counts the rows whose value was re-pointed.
func (r BatchReport) Updated() int {
	n := 0
	for _, res := range r.Results {
		if res.Updated {
			n++
		}
	}
	return n
}

// RunBatch processes the selected (or all) parameter rows. Invalid settings
// fail before anything is touched. A row whose files all reached the
// destination gets the unexpanded destination joined with its raw basename
// as new value and is highlighted.
func (p *Panel) RunBatch(ctx context.Context, req BatchRequest) (BatchReport, error) {
	log := ctxlog.FromContext(ctx)
	if req.Action == "" {
		req.Action = p.cfg.Action
	}
	if req.DestDir == "" {
		req.DestDir = p.cfg.DestDir
	}
	if req.Target == "" {
		req.Target = p.cfg.Target
	}

	action, err := fileop.ParseAction(req.Action)
	if err != nil {
		return BatchReport{}, err
	}

	var rows []int
	switch req.Target {
	case config.TargetSelected:
		rows = p.SelectedParms()
	case config.TargetAll:
		for r := 0; r < p.parms.RowCount(treemodel.Index{}); r++ {
			rows = append(rows, r)
		}
	default:
		return BatchReport{}, fmt.Errorf("batch target %q: want %q or %q", req.Target, config.TargetSelected, config.TargetAll)
	}

	report := BatchReport{Action: action, DestDir: req.DestDir}
	report.ExpandedDestDir = p.store.Expander().Expand(req.DestDir)
	if err := p.checkDestination(req.DestDir, report.ExpandedDestDir, action); err != nil {
		return report, err
	}
	if len(rows) == 0 {
		log.Info("no parameters to process", "target", req.Target)
		return report, nil
	}

	op := p.operator()
	for _, row := range rows {
		parm, err := p.parmAt(row)
		if err != nil {
			log.Warn("skipping row", "row", row, "error", err)
			continue
		}
		res := BatchResult{Row: row, Parm: parm.Path()}
		res.Outcome, err = op.Process(ctx, parm, action, report.ExpandedDestDir)
		if err != nil {
			report.Results = append(report.Results, res)
			return report, err
		}
		if res.Outcome.Complete() {
			res.NewValue = fileop.NewValue(req.DestDir, parm)
			res.Updated = p.parms.SetRawValue(row, res.NewValue)
			if res.Updated {
				hl := treemodel.HighlightGreen
				p.parms.MarkRow(row, &hl)
			}
		}
		report.Results = append(report.Results, res)
	}
	log.Info("batch finished", "action", action, "rows", len(rows), "updated", report.Updated())
	return report, nil
}

func (p *Panel) checkDestination(raw, expanded string, action fileop.Action) error {
	dir := path.Clean(expanded)
	if !path.IsAbs(dir) {
		dir = path.Join(p.workDir, dir)
	}
	fi, err := p.fs.Stat(dir)
	if err != nil || !fi.IsDir() {
		return fmt.Errorf("%w: %s (expanded %s)", ErrDestinationMissing, raw, expanded)
	}
	if action == fileop.Repath || p.writable == nil {
		return nil
	}
	return p.writable(dir)
}

// Summary describes the session state.
type Summary struct {
	Root          string
	Category      string
	MatchedNodes  int
	SelectedNodes int
	ParmRows      int
	SelectedParms int
	// NodesByFileType counts the store's nodes per referenced file category.
	NodesByFileType map[scene.FileType]int
}

func (p *Panel) Summary() Summary {
	s := Summary{
		Root:            p.root,
		Category:        p.cfg.FileCategory,
		MatchedNodes:    len(p.nodes.MatchedPaths()),
		SelectedNodes:   len(p.selectedNodes),
		ParmRows:        p.parms.RowCount(treemodel.Index{}),
		SelectedParms:   int(p.selectedParms.GetCardinality()),
		NodesByFileType: map[scene.FileType]int{},
	}
	for _, ft := range scene.KnownFileTypes {
		if n := len(p.store.NodesWithFileType(ft)); n > 0 {
			s.NodesByFileType[ft] = n
		}
	}
	return s
}

// Reload swaps in a new store, searches again and restores the node
// selection for paths that still match.
func (p *Panel) Reload(ctx context.Context, next scene.Store) error {
	selected := p.SelectedNodes()
	p.store.Swap(next)
	if err := p.Refresh(ctx); err != nil {
		return err
	}
	if len(selected) == 0 {
		return nil
	}
	_, err := p.SelectNodePaths(ctx, selected...)
	return err
}

// Close releases the models' subscriptions.
func (p *Panel) Close() {
	if p.cancelParms != nil {
		p.cancelParms()
		p.cancelParms = nil
	}
	p.nodes.Close()
	p.parms.Close()
}
