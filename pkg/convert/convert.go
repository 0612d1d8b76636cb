// Package convert turns the utility classes of a feature's markup into a
// scoped SCSS module, and optionally rewrites the markup to use it.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/gnana997/classmod/pkg/classes"
	"github.com/gnana997/classmod/pkg/discover"
	"github.com/gnana997/classmod/pkg/duplicates"
	"github.com/gnana997/classmod/pkg/jsx"
	"github.com/gnana997/classmod/pkg/parser"
	"github.com/gnana997/classmod/pkg/report"
	"github.com/gnana997/classmod/pkg/rewrite"
	"github.com/gnana997/classmod/pkg/selector"
	"github.com/gnana997/classmod/pkg/stylesheet"
	"github.com/gnana997/classmod/pkg/tracker"
	"github.com/gnana997/classmod/pkg/utility"
)

var (
	// ErrFolderNotFound is returned when a target folder does not exist.
	ErrFolderNotFound = discover.ErrFolderNotFound
	// ErrNoFeatures is returned when "all" finds no feature folder.
	ErrNoFeatures = discover.ErrNoFeatures
)

// LogFile is the per-feature unknown class log.
const LogFile = "conversion.log"

// RunContext carries the state of one run. It is passed explicitly and
// discarded when the run ends.
type RunContext struct {
	Options Options
	// Target is the command-line target the run was started with.
	Target string

	Tracker    *tracker.Tracker
	Summaries  []FeatureSummary
	Features   []*FeatureResult
	Duplicates []duplicates.Group

	Now func() time.Time
}

// NewRunContext returns an empty run context for opts.
func NewRunContext(opts Options) *RunContext {
	return &RunContext{
		Options: opts,
		Tracker: tracker.New(),
		Now:     time.Now,
	}
}

// Err combines the per-file failures of every feature.
func (rc *RunContext) Err() error {
	var err error
	for _, f := range rc.Features {
		err = multierr.Append(err, f.Err)
	}
	return err
}

func (rc *RunContext) relPath(path string) string {
	return displayPath(rc.Options.Root, path)
}

// displayPath returns path relative to root with forward slashes, or path
// itself when it is not below root.
func displayPath(root, path string) string {
	if root == "" {
		return filepath.ToSlash(path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// Converter converts markup files. ConvertSource is safe for concurrent use;
// ConvertFeature and Run write files and are meant to run one at a time.
type Converter struct {
	opts    Options
	parser  *parser.ParserManager
	table   *utility.Table
	mapper  *utility.Mapper
	builder *stylesheet.Builder
	cache   *Cache
	logger  *slog.Logger
}

// New creates a Converter for opts. The utility table of opts.Framework is
// loaded and extended with opts.ExtensionTable when set.
func New(opts Options, logger *slog.Logger) (*Converter, error) {
	if logger == nil {
		logger = slog.Default()
	}

	table, err := utility.Load(opts.Framework)
	if err != nil {
		return nil, err
	}
	if opts.ExtensionTable != "" {
		if table, err = table.Extend(opts.ExtensionTable); err != nil {
			return nil, err
		}
		logger.Info("extension table loaded", "path", opts.ExtensionTable, "utilities", table.Len())
	}

	builder := stylesheet.NewBuilder()
	if len(opts.Breakpoints) > 0 {
		builder.Breakpoints = opts.Breakpoints
	}
	if len(opts.Pseudo) > 0 {
		builder.Pseudo = opts.Pseudo
	}
	if len(opts.Modifiers.Responsive) == 0 && len(opts.Modifiers.Pseudo) == 0 {
		opts.Modifiers = classes.DefaultModifiers()
	}
	if len(opts.ClassAttributes) == 0 {
		opts.ClassAttributes = jsx.DefaultClassAttributes
	}

	return &Converter{
		opts:    opts,
		parser:  parser.NewParserManager(logger),
		table:   table,
		mapper:  utility.NewMapper(table, logger),
		builder: builder,
		logger:  logger,
	}, nil
}

// SetCache makes the converter reuse results of unchanged files.
func (c *Converter) SetCache(cache *Cache) {
	c.cache = cache
}

// Forget drops the cached result of the markup file at path inside the
// feature folder dir. It does nothing when no cache is set.
func (c *Converter) Forget(dir, path string) {
	if c.cache == nil {
		return
	}
	c.cache.Remove(filepath.Base(filepath.Clean(dir)), displayPath(c.opts.Root, path))
}

// Table returns the active utility table.
func (c *Converter) Table() *utility.Table {
	return c.table
}

// Mapper returns the mixin mapper over the active table.
func (c *Converter) Mapper() *utility.Mapper {
	return c.mapper
}

// Builder returns the stylesheet builder.
func (c *Converter) Builder() *stylesheet.Builder {
	return c.builder
}

// Options returns the options the converter was created with.
func (c *Converter) Options() Options {
	return c.opts
}

// Close releases the parser pools.
func (c *Converter) Close() error {
	return c.parser.Close()
}

// ConvertClasses converts one class attribute value for the given selector
// without touching the run state.
func (c *Converter) ConvertClasses(value string, sel selector.ElementSelector) (ElementResult, []stylesheet.GlobalRule) {
	el, globals, _ := c.convertElement("", "", jsx.ClassAttribute{Value: value}, sel)
	return el, globals
}

func (c *Converter) convertElement(feature, file string, attr jsx.ClassAttribute, sel selector.ElementSelector) (ElementResult, []stylesheet.GlobalRule, []tracker.Entry) {
	el := ElementResult{
		Selector: sel,
		Tag:      sel.Tag,
		Line:     attr.Line,
		Block:    stylesheet.NewBlock(),
	}

	var (
		globals []stylesheet.GlobalRule
		unknown []tracker.Entry
	)

	for _, tok := range classes.ParseAll(attr.Value, c.opts.Modifiers, c.opts.Policy) {
		el.Original = append(el.Original, tok.Raw)

		var (
			lines []string
			ok    bool
		)
		if !tok.Malformed && c.builder.Supports(tok.Responsive, tok.Pseudo) {
			lines, ok = c.mapper.Resolve(tok.Base)
		}

		if ok {
			el.Known = append(el.Known, tok.Raw)
		} else {
			el.Unknown = append(el.Unknown, tok.Original)
			unknown = append(unknown, tracker.Entry{
				Feature:   feature,
				File:      file,
				Line:      attr.Line,
				Element:   sel.Tag,
				Class:     tok.Original,
				Framework: string(c.opts.Framework),
			})
		}

		if tok.Global {
			globals = append(globals, stylesheet.GlobalRule{
				Class:      tok.Original,
				Responsive: tok.Responsive,
				Pseudo:     tok.Pseudo,
				Lines:      lines,
				Resolved:   ok,
			})
		}

		el.Block.Add(tok.Responsive, tok.Pseudo, lines...)
	}

	el.Rule = c.builder.Render(sel.Selector, el.Block)
	return el, globals, unknown
}

// ConvertSource converts the markup in src. file is used to pick the
// grammar and is reported as the location of unknown classes. Nothing is
// written; the rewritten source is returned in FileResult.Source.
//
// Files with syntax errors fail with parser.ErrSyntax.
func (c *Converter) ConvertSource(ctx context.Context, feature, file string, src []byte) (*FileResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if c.cache != nil {
		if res, ok := c.cache.Get(feature, file, src); ok {
			c.logger.Debug("using cached conversion", "file", file)
			return res, nil
		}
	}

	tree, err := c.parser.ParseFile(src, file)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	ext := jsx.Extract(tree, src, c.opts.ClassAttributes)

	res := &FileResult{Path: file, Name: filepath.Base(file)}
	assigner := selector.NewAssigner(c.opts.SemanticElements, c.opts.CommonElements)
	rw := rewrite.New(src)
	if ext.StaticCount() > 0 {
		rw.EnsureImport(ext.Imports, ext.ImportOffset, rewrite.ModulePath(feature), c.opts.binding())
	}

	seen := make(map[string]struct{})
	for _, attr := range ext.Attributes {
		if !attr.Static {
			res.Dynamic++
			c.logger.Debug("skipping dynamic class attribute", "file", file, "line", attr.Line, "tag", attr.Tag)
			continue
		}

		sel := assigner.Assign(attr.ResolvedTag())
		el, globals, unknown := c.convertElement(feature, file, attr, sel)
		res.Elements = append(res.Elements, el)
		res.Unknown = append(res.Unknown, unknown...)
		for _, g := range globals {
			if _, dup := seen[g.Class]; !dup {
				seen[g.Class] = struct{}{}
				res.Globals = append(res.Globals, g)
			}
		}

		rw.ReplaceClassName(attr, sel.Key(), el.Unknown)
		c.logger.Debug("converted element", "file", file, "line", attr.Line,
			"selector", sel.Selector, "known", len(el.Known), "unknown", len(el.Unknown))
	}

	if rw.Changed() {
		out, err := rw.Apply()
		if err != nil {
			return nil, fmt.Errorf("failed to rewrite %s: %w", file, err)
		}
		res.Source = out
	}

	if c.cache != nil {
		c.cache.Add(feature, file, src, res)
	}
	return res, nil
}

// ConvertFeature converts every markup file under dir and writes the
// feature outputs next to them. Per-file read and parse failures are logged,
// counted and collected in FeatureResult.Err; the remaining files are still
// converted.
func (c *Converter) ConvertFeature(ctx context.Context, rc *RunContext, dir string) (*FeatureResult, error) {
	start := time.Now()
	name := filepath.Base(filepath.Clean(dir))

	paths, err := discover.Files(dir, c.opts.Discover)
	if err != nil {
		return nil, fmt.Errorf("failed to list files of %s: %w", name, err)
	}

	c.logger.Info("converting feature", "feature", name, "dir", dir,
		"framework", string(c.opts.Framework), "files", len(paths))

	fr := &FeatureResult{
		Name:    name,
		Dir:     dir,
		Summary: FeatureSummary{Feature: name},
	}

	var sections []stylesheet.Section
	var globals []stylesheet.GlobalRule
	seen := make(map[string]struct{})
	written := 0

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		display := rc.relPath(path)
		src, err := os.ReadFile(path)
		if err != nil {
			c.fileFailed(fr, display, fmt.Errorf("failed to read %s: %w", display, err))
			continue
		}

		res, err := c.ConvertSource(ctx, name, display, src)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			c.fileFailed(fr, display, err)
			continue
		}

		fr.Files = append(fr.Files, res)
		fr.Summary.FilesProcessed++
		fr.Summary.ClassesConverted += res.KnownCount()
		fr.Summary.UnknownClasses += len(res.Unknown)
		for _, e := range res.Unknown {
			rc.Tracker.Record(e)
		}

		sections = append(sections, stylesheet.Section{
			File:  strings.TrimSuffix(res.Name, filepath.Ext(res.Name)),
			Rules: res.Rules(),
		})
		for _, g := range res.Globals {
			if _, dup := seen[g.Class]; !dup {
				seen[g.Class] = struct{}{}
				globals = append(globals, g)
			}
		}

		if c.opts.Replace && res.Source != nil {
			if err := writeSource(path, res.Source); err != nil {
				c.fileFailed(fr, display, err)
				continue
			}
			written++
		}
	}

	fr.Module = stylesheet.RenderFeature(c.opts.Framework.MixinsFile(), sections, len(paths) > 1)
	if len(globals) > 0 {
		fr.Global = c.builder.RenderGlobals(globals)
	}

	if err := c.writeFeature(rc, fr); err != nil {
		return nil, err
	}
	fr.Summary.SCSSGenerated = true
	fr.Summary.SourcesUpdated = written > 0

	rc.Features = append(rc.Features, fr)
	rc.Summaries = append(rc.Summaries, fr.Summary)

	c.logger.Info("feature converted", "feature", name,
		"files", fr.Summary.FilesProcessed,
		"failed", fr.Summary.FilesFailed,
		"converted", fr.Summary.ClassesConverted,
		"unknown", fr.Summary.UnknownClasses,
		"updated", written,
		"ms", time.Since(start).Milliseconds())

	return fr, nil
}

func (c *Converter) fileFailed(fr *FeatureResult, file string, err error) {
	c.logger.Warn("skipping file", "feature", fr.Name, "file", file, "error", err)
	fr.Summary.FilesFailed++
	fr.Err = multierr.Append(fr.Err, err)
}

func writeSource(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to update %s: %w", path, err)
	}
	return nil
}

func (c *Converter) writeOutput(fr *FeatureResult, name, content string) error {
	path := filepath.Join(fr.Dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fr.Outputs = append(fr.Outputs, path)
	return nil
}

// removeStale deletes a generated file left over from an earlier run.
func removeStale(dir, name string) error {
	err := os.Remove(filepath.Join(dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (c *Converter) writeFeature(rc *RunContext, fr *FeatureResult) error {
	if err := c.writeOutput(fr, stylesheet.VariablesFile, stylesheet.RenderVariables(c.table)); err != nil {
		return err
	}
	if err := c.writeOutput(fr, c.opts.Framework.MixinsFile(), stylesheet.RenderMixins()); err != nil {
		return err
	}
	if err := c.writeOutput(fr, fr.Name+".module.scss", fr.Module); err != nil {
		return err
	}

	globalFile := fr.Name + ".global.scss"
	if fr.Global != "" {
		if err := c.writeOutput(fr, globalFile, fr.Global); err != nil {
			return err
		}
	} else if err := removeStale(fr.Dir, globalFile); err != nil {
		return err
	}

	guide, err := report.Guide(c.guideData(rc, fr))
	if err != nil {
		return err
	}
	guideFile := c.opts.GuideFile
	if guideFile == "" {
		guideFile = "CONVERSION_GUIDE.md"
	}
	if err := c.writeOutput(fr, guideFile, guide); err != nil {
		return err
	}

	entries := rc.Tracker.ForFeature(fr.Name)
	if len(entries) > 0 {
		return c.writeOutput(fr, LogFile, tracker.Log(entries))
	}
	return removeStale(fr.Dir, LogFile)
}

func (c *Converter) guideData(rc *RunContext, fr *FeatureResult) report.GuideData {
	d := report.GuideData{
		Feature:   fr.Name,
		Framework: string(c.opts.Framework),
		Binding:   c.opts.binding(),
		Generated: rc.Now(),
	}
	for _, f := range fr.Files {
		d.Files = append(d.Files, report.GuideFile{
			Name:     f.Name,
			Unknown:  rc.Tracker.Unique(f.Path),
			Mappings: f.Mappings(),
		})
	}
	return d
}

// Run converts every target folder in order, then writes the run report
// and, when more than one feature was converted, the duplicate analysis.
func (c *Converter) Run(ctx context.Context, rc *RunContext, targets []string) error {
	start := time.Now()
	c.logger.Info("starting conversion", "features", len(targets),
		"framework", string(c.opts.Framework), "replace", c.opts.Replace)

	for _, dir := range targets {
		if _, err := c.ConvertFeature(ctx, rc, dir); err != nil {
			return err
		}
	}

	if c.opts.ReportDir != "" {
		if err := os.MkdirAll(c.opts.ReportDir, 0o755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := c.writeSummary(rc); err != nil {
		return err
	}

	if len(targets) > 1 {
		if err := c.writeDuplicates(rc); err != nil {
			return err
		}
	}

	c.logger.Info("conversion complete", "features", len(rc.Features),
		"unknown", rc.Tracker.Len(), "ms", time.Since(start).Milliseconds())
	return nil
}

func (c *Converter) reportPath(name string) string {
	return filepath.Join(c.opts.ReportDir, name)
}

func (c *Converter) writeSummary(rc *RunContext) error {
	out, err := report.Summary(report.SummaryData{
		Generated:      rc.Now(),
		Framework:      string(c.opts.Framework),
		Replace:        c.opts.Replace,
		Target:         rc.Target,
		DuplicatesFile: c.opts.DuplicatesFile,
		Features:       rc.Summaries,
		Unknown:        rc.Tracker,
	})
	if err != nil {
		return err
	}

	path := c.reportPath(c.opts.SummaryFile)
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("failed to write conversion report: %w", err)
	}
	c.logger.Info("conversion report written", "path", path)
	return nil
}

func (c *Converter) writeDuplicates(rc *RunContext) error {
	names := make([]string, 0, len(rc.Features))
	files := make(map[string]string, len(rc.Features))
	for _, f := range rc.Features {
		names = append(names, f.Name)
		files[f.Name] = filepath.Join(f.Dir, f.Name+".module.scss")
	}

	groups, err := duplicates.AnalyzeFiles(names, files, c.opts.DuplicateThreshold)
	if err != nil {
		return err
	}
	rc.Duplicates = groups
	if len(groups) == 0 {
		c.logger.Info("no duplicate properties found", "threshold", c.opts.DuplicateThreshold)
		return nil
	}

	data := report.DuplicatesData{
		Generated: rc.Now(),
		Features:  len(rc.Features),
		Threshold: c.opts.DuplicateThreshold,
		Groups:    groups,
	}

	globals, err := report.GlobalProperties(data)
	if err != nil {
		return err
	}
	globalsPath := filepath.Join(c.opts.FeaturesDir, c.opts.GlobalPropertiesFile)
	if err := os.WriteFile(globalsPath, []byte(globals), 0o644); err != nil {
		return fmt.Errorf("failed to write property analysis: %w", err)
	}

	dups, err := report.Duplicates(data)
	if err != nil {
		return err
	}
	dupsPath := c.reportPath(c.opts.DuplicatesFile)
	if err := os.WriteFile(dupsPath, []byte(dups), 0o644); err != nil {
		return fmt.Errorf("failed to write duplicates report: %w", err)
	}

	c.logger.Info("duplicate properties found", "count", len(groups),
		"analysis", globalsPath, "report", dupsPath)
	return nil
}

// Run resolves target against opts.FeaturesDir and converts the matching
// features. A missing folder or an unusable framework fails before any file
// is touched.
func Run(ctx context.Context, opts Options, target string, logger *slog.Logger) (*RunContext, error) {
	if logger == nil {
		logger = slog.Default()
	}

	targets, err := discover.ResolveTarget(target, opts.FeaturesDir, opts.Discover)
	if err != nil {
		return nil, err
	}

	conv, err := New(opts, logger)
	if err != nil {
		return nil, err
	}
	defer conv.Close()

	rc := NewRunContext(opts)
	rc.Target = target
	if err := conv.Run(ctx, rc, targets); err != nil {
		return rc, err
	}
	return rc, nil
}
