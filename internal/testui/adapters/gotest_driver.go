package adapters

import (
	"context"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/DylanSharp/gotui/internal/config"
	"github.com/DylanSharp/gotui/internal/logging"
	"github.com/DylanSharp/gotui/internal/testui/domain"
	"github.com/DylanSharp/gotui/internal/testui/ports"
)

// IDSeparator joins a package import path and a test name into a test id
const IDSeparator = "::"

// GoTestDriverOptions configures a GoTestDriver
type GoTestDriverOptions struct {
	Binary  string
	Flags   []string
	Timeout time.Duration
	// Dir is where go test runs; empty means the current directory
	Dir      string
	XFail    []config.XFailRule
	CacheDir string
	Runner   CommandRunner
}

// GoTestDriver implements ports.TestDriver on top of go test -json
type GoTestDriver struct {
	binary  string
	flags   []string
	timeout time.Duration
	dir     string
	runner  CommandRunner
	xfail   *XFailMatcher
	cache   *LastFailedCache
	log     zerolog.Logger
}

var _ ports.TestDriver = (*GoTestDriver)(nil)

// NewGoTestDriver creates a driver
func NewGoTestDriver(opts GoTestDriverOptions) (*GoTestDriver, error) {
	xfail, err := NewXFailMatcher(opts.XFail)
	if err != nil {
		return nil, domain.ErrConfig("xfail rules", err)
	}

	workDir := opts.Dir
	if workDir == "" {
		workDir = "."
	}
	cache, err := NewLastFailedCache(opts.CacheDir, workDir)
	if err != nil {
		return nil, err
	}

	d := &GoTestDriver{
		binary:  lo.Ternary(opts.Binary == "", "go", opts.Binary),
		flags:   opts.Flags,
		timeout: opts.Timeout,
		dir:     opts.Dir,
		runner:  opts.Runner,
		xfail:   xfail,
		cache:   cache,
		log:     logging.Get("runner", "driver"),
	}
	if d.runner == nil {
		d.runner = ExecRunner{}
	}
	return d, nil
}

// TestID implements ports.TestDriver
func (d *GoTestDriver) TestID(item ports.TestItem) string {
	return item.Package + IDSeparator + item.Name
}

// InitTests implements ports.TestDriver
func (d *GoTestDriver) InitTests(ctx context.Context, path string, plugin ports.Plugin) (domain.ExitCode, string) {
	d.log.Debug().Str("path", path).Msg("collecting tests")

	_, code, description := d.collect(ctx, path, func(item ports.TestItem) error {
		return plugin.ItemCollected(ctx, item)
	})
	return code, description
}

// RunTests implements ports.TestDriver
func (d *GoTestDriver) RunTests(ctx context.Context, path string, opts ports.RunOptions, plugin ports.Plugin) (domain.ExitCode, string) {
	items, code, description := d.collect(ctx, path, func(item ports.TestItem) error {
		return plugin.ItemCollected(ctx, item)
	})
	if code != domain.ExitAllCollected {
		return code, description
	}

	if opts.FailedOnly {
		items = d.lastFailed(items)
	}

	selected := plugin.CollectionModifyItems(items)
	if len(selected) == 0 {
		d.log.Info().Int("collected", len(items)).Msg("no tests selected")
		return domain.ExitNoTestsCollected, ""
	}

	args := []string{"test", "-json"}
	if d.timeout > 0 {
		args = append(args, "-timeout", d.timeout.String())
	}
	args = append(args, d.flags...)
	if len(selected) < len(items) || opts.FailedOnly {
		args = append(args, "-run", runPattern(selected))
		args = append(args, lo.Uniq(lo.Map(selected, func(it ports.TestItem, _ int) string { return it.Package }))...)
	} else {
		args = append(args, targets(path)...)
	}

	d.log.Info().Int("selected", len(selected)).Strs("args", args).Msg("running tests")

	session := newRunSession(d, plugin, selected)
	stderr, exit, err := d.runner.Stream(ctx, d.dir, d.binary, args, func(line []byte) error {
		return session.handle(ctx, line)
	})

	if cerr := d.cache.Update(session.results); cerr != nil {
		d.log.Warn().Err(cerr).Str("cache", d.cache.Path()).Msg("could not update last-failed cache")
	}

	if err != nil {
		return d.startFailure(ctx, err)
	}

	switch exit {
	case 0:
		return domain.ExitAllCollected, ""
	case 1:
		if session.buildFailed() {
			return domain.ExitInternalError, joinNonEmpty(session.buildOutput.String(), stderr)
		}
		return domain.ExitSomeFailed, ""
	case 2:
		return domain.ExitUsageError, stderr
	}
	return domain.ExitCrashed, joinNonEmpty(session.buildOutput.String(), stderr)
}

// collect lists the tests under path with go test -list, calling found for
// each as it appears.
func (d *GoTestDriver) collect(ctx context.Context, path string, found func(ports.TestItem) error) ([]ports.TestItem, domain.ExitCode, string) {
	args := append([]string{"test", "-list", ".", "-json"}, d.flags...)
	args = append(args, targets(path)...)

	var (
		items      []ports.TestItem
		buildOut   strings.Builder
		pkgOut     = map[string]*strings.Builder{}
		failedPkgs []string
	)

	stderr, exit, err := d.runner.Stream(ctx, d.dir, d.binary, args, func(line []byte) error {
		ev, ok := ParseEvent(line)
		if !ok {
			buildOut.Write(line)
			buildOut.WriteByte('\n')
			return nil
		}

		switch ev.Action {
		case ActionBuildOutput:
			buildOut.WriteString(ev.Output)
		case ActionOutput:
			if ev.Test != "" {
				return nil
			}
			if name, ok := ListedTest(ev.Output); ok {
				item := ports.TestItem{Package: ev.Package, Name: name}
				items = append(items, item)
				return found(item)
			}
			if pkgOut[ev.Package] == nil {
				pkgOut[ev.Package] = &strings.Builder{}
			}
			pkgOut[ev.Package].WriteString(ev.Output)
		case ActionFail:
			if ev.Test == "" {
				failedPkgs = append(failedPkgs, ev.Package)
			}
		}
		return nil
	})
	if err != nil {
		code, description := d.startFailure(ctx, err)
		return items, code, description
	}

	d.log.Debug().Int("collected", len(items)).Int("exit", exit).Msg("collection finished")

	switch {
	case exit == 0 && len(items) == 0:
		return items, domain.ExitNoTestsCollected, ""
	case exit == 0:
		return items, domain.ExitAllCollected, ""
	case exit == 2:
		return items, domain.ExitUsageError, stderr
	}

	for _, pkg := range failedPkgs {
		if out, ok := pkgOut[pkg]; ok {
			buildOut.WriteString(out.String())
		}
	}
	return items, domain.ExitInternalError, joinNonEmpty(buildOut.String(), stderr)
}

// lastFailed narrows items to the ones that failed last time. With no
// recorded failures among them every item is kept.
func (d *GoTestDriver) lastFailed(items []ports.TestItem) []ports.TestItem {
	failed, err := d.cache.Load()
	if err != nil {
		d.log.Warn().Err(err).Msg("could not read last-failed cache, running all")
		return items
	}

	previous := lo.Filter(items, func(it ports.TestItem, _ int) bool {
		return failed[d.TestID(it)]
	})
	if len(previous) == 0 {
		d.log.Info().Msg("no previously failed tests, running all")
		return items
	}
	return previous
}

func (d *GoTestDriver) startFailure(ctx context.Context, err error) (domain.ExitCode, string) {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return domain.ExitInterrupted, ""
	}
	if errors.Is(err, exec.ErrNotFound) {
		return domain.ExitCrashed, domain.ErrGoNotFound(d.binary).Error()
	}
	d.log.Error().Err(err).Msg("go test failed")
	return domain.ExitCrashed, domain.ErrDriverCrashed(err).Error()
}

// runSession turns one go test -json stream into plugin callbacks
type runSession struct {
	driver   *GoTestDriver
	plugin   ports.Plugin
	selected map[string]ports.TestItem

	outputs     map[string]*strings.Builder
	ranPkgs     map[string]bool
	pkgOut      map[string]*strings.Builder
	buildOutput strings.Builder
	failedPkgs  int

	// results maps test ids to whether they count as failed
	results map[string]bool
}

func newRunSession(d *GoTestDriver, plugin ports.Plugin, selected []ports.TestItem) *runSession {
	return &runSession{
		driver:   d,
		plugin:   plugin,
		selected: lo.KeyBy(selected, d.TestID),
		outputs:  map[string]*strings.Builder{},
		ranPkgs:  map[string]bool{},
		pkgOut:   map[string]*strings.Builder{},
		results:  map[string]bool{},
	}
}

func (s *runSession) handle(ctx context.Context, line []byte) error {
	ev, ok := ParseEvent(line)
	if !ok {
		s.buildOutput.Write(line)
		s.buildOutput.WriteByte('\n')
		return nil
	}

	if ev.Action == ActionBuildOutput {
		s.buildOutput.WriteString(ev.Output)
		return nil
	}
	if ev.Test == "" {
		s.handlePackage(ev)
		return nil
	}

	id := ev.Package + IDSeparator + ev.TopLevel()
	item, ok := s.selected[id]
	if !ok {
		// Same name in a package we only ran for other tests
		return nil
	}
	s.ranPkgs[ev.Package] = true

	switch ev.Action {
	case ActionRun:
		if !ev.IsTopLevel() {
			return nil
		}
		s.outputs[id] = &strings.Builder{}
		return s.start(ctx, item, id)
	case ActionOutput:
		if ev.IsTopLevel() && isFraming(ev.Output) {
			return nil
		}
		if strings.HasPrefix(ev.Output, "=== ") {
			return nil
		}
		if out, ok := s.outputs[id]; ok {
			out.WriteString(ev.Output)
		}
	case ActionPass, ActionFail, ActionSkip:
		if !ev.IsTopLevel() {
			return nil
		}
		return s.finish(ctx, item, id, ev.Action)
	}
	return nil
}

func (s *runSession) handlePackage(ev TestEvent) {
	switch ev.Action {
	case ActionOutput:
		if s.pkgOut[ev.Package] == nil {
			s.pkgOut[ev.Package] = &strings.Builder{}
		}
		s.pkgOut[ev.Package].WriteString(ev.Output)
	case ActionFail:
		if !s.ranPkgs[ev.Package] {
			s.failedPkgs++
			if out, ok := s.pkgOut[ev.Package]; ok {
				s.buildOutput.WriteString(out.String())
			}
		}
	}
}

func (s *runSession) buildFailed() bool {
	return s.failedPkgs > 0 || s.buildOutput.Len() > 0
}

func (s *runSession) start(ctx context.Context, item ports.TestItem, id string) error {
	if err := s.plugin.RuntestSetup(ctx, item); err != nil {
		return err
	}
	report := ports.Report{TestID: id, When: domain.PhaseSetup, Outcome: domain.OutcomePassed}
	if err := s.plugin.RuntestLogreport(ctx, report); err != nil {
		return err
	}
	return s.plugin.RuntestCall(ctx, item)
}

func (s *runSession) finish(ctx context.Context, item ports.TestItem, id, action string) error {
	output := ""
	if out, ok := s.outputs[id]; ok {
		output = out.String()
	}
	xfail := s.driver.xfail.Match(id)

	var (
		exc     *ports.ExceptionInfo
		outcome string
	)
	switch action {
	case ActionPass:
		outcome = domain.OutcomePassed
		// A strict expected failure that passed does not count as a failure
		// for the next failed-only run
		s.results[id] = false
	case ActionFail:
		outcome = domain.OutcomeFailed
		exc = ParseFailure(output, item.Name)
		if xfail != nil {
			outcome = domain.OutcomeSkipped
		}
		s.results[id] = xfail == nil
	case ActionSkip:
		outcome = domain.OutcomeSkipped
		exc = ParseSkip(output)
		xfail = nil
		s.results[id] = false
	}

	if exc != nil || xfail != nil {
		if err := s.plugin.ExceptionInteract(ctx, item, exc, domain.PhaseCall, xfail); err != nil {
			return err
		}
	}

	report := ports.Report{TestID: id, When: domain.PhaseCall, Outcome: outcome, Output: output}
	if err := s.plugin.RuntestLogreport(ctx, report); err != nil {
		return err
	}

	if err := s.plugin.RuntestTeardown(ctx, item); err != nil {
		return err
	}
	report = ports.Report{TestID: id, When: domain.PhaseTeardown, Outcome: domain.OutcomePassed}
	return s.plugin.RuntestLogreport(ctx, report)
}

// runPattern is an anchored -run expression selecting exactly these tests
func runPattern(items []ports.TestItem) string {
	names := lo.Uniq(lo.Map(items, func(it ports.TestItem, _ int) string {
		return regexp.QuoteMeta(it.Name)
	}))
	return "^(" + strings.Join(names, "|") + ")$"
}

func targets(path string) []string {
	fields := strings.Fields(path)
	if len(fields) == 0 {
		return []string{"./..."}
	}
	return fields
}

func joinNonEmpty(parts ...string) string {
	parts = lo.Filter(parts, func(p string, _ int) bool { return strings.TrimSpace(p) != "" })
	return strings.Join(parts, "\n")
}
