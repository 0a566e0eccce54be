package service

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/DylanSharp/gotui/internal/logging"
	"github.com/DylanSharp/gotui/internal/testui/domain"
	"github.com/DylanSharp/gotui/internal/testui/ports"
)

// EventWriter sends events to the UI process
type EventWriter interface {
	Send(ctx context.Context, method domain.Method, params any) error
}

// DrivingPlugin turns test driver callbacks into events on an EventWriter
type DrivingPlugin struct {
	w      EventWriter
	driver ports.TestDriver
	filter *Filter
	log    zerolog.Logger
}

var _ ports.Plugin = (*DrivingPlugin)(nil)

// NewDrivingPlugin creates a plugin writing to w. A non-empty filterValue
// limits the run to matching tests.
func NewDrivingPlugin(w EventWriter, driver ports.TestDriver, filterValue string) (*DrivingPlugin, error) {
	filter, err := CompileFilter(filterValue)
	if err != nil {
		return nil, err
	}
	p := &DrivingPlugin{
		w:      w,
		driver: driver,
		filter: filter,
		log:    logging.Get("runner", "plugin"),
	}
	p.log.Debug().Str("filter", filterValue).Msg("plugin init")
	return p, nil
}

// ItemCollected implements ports.Plugin
func (p *DrivingPlugin) ItemCollected(ctx context.Context, item ports.TestItem) error {
	return p.w.Send(ctx, domain.MethodItemCollected, domain.ItemCollectedParams{
		ItemID: p.driver.TestID(item),
	})
}

// CollectionModifyItems implements ports.Plugin. Items not matching the
// filter are dropped before the run starts.
func (p *DrivingPlugin) CollectionModifyItems(items []ports.TestItem) []ports.TestItem {
	if p.filter == nil {
		return items
	}
	kept := lo.Filter(items, func(item ports.TestItem, _ int) bool {
		return p.filter.IsMatch(p.driver.TestID(item))
	})
	p.log.Debug().Int("collected", len(items)).Int("kept", len(kept)).Msg("collection filtered")
	return kept
}

// RuntestSetup implements ports.Plugin
func (p *DrivingPlugin) RuntestSetup(ctx context.Context, item ports.TestItem) error {
	return p.setState(ctx, item, domain.RunStateSetup)
}

// RuntestCall implements ports.Plugin
func (p *DrivingPlugin) RuntestCall(ctx context.Context, item ports.TestItem) error {
	return p.setState(ctx, item, domain.RunStateCall)
}

// RuntestTeardown implements ports.Plugin
func (p *DrivingPlugin) RuntestTeardown(ctx context.Context, item ports.TestItem) error {
	return p.setState(ctx, item, domain.RunStateTeardown)
}

func (p *DrivingPlugin) setState(ctx context.Context, item ports.TestItem, state domain.RunState) error {
	return p.w.Send(ctx, domain.MethodSetTestState, domain.SetTestStateParams{
		TestID: p.driver.TestID(item),
		State:  state,
	})
}

// RuntestLogreport implements ports.Plugin
func (p *DrivingPlugin) RuntestLogreport(ctx context.Context, report ports.Report) error {
	state, ok := domain.ResultStateFor(report.Outcome)
	if !ok {
		p.log.Warn().Str("test_id", report.TestID).Str("outcome", report.Outcome).Msg("unknown outcome")
	}
	return p.w.Send(ctx, domain.MethodSetTestResult, domain.SetTestResultParams{
		TestID:      report.TestID,
		Output:      report.Output,
		ResultState: state,
		When:        report.When,
		Outcome:     report.Outcome,
	})
}

// ExceptionInteract implements ports.Plugin.
//
// Without an exception only an expected failure that passed is reported: as
// xpass, or as a failure exempt from the next failed-only run when the
// expectation is strict.
func (p *DrivingPlugin) ExceptionInteract(ctx context.Context, item ports.TestItem, exc *ports.ExceptionInfo, when string, xfail *ports.XFail) error {
	id := p.driver.TestID(item)

	if exc == nil {
		if xfail == nil || when != domain.PhaseCall {
			return nil
		}
		state := lo.Ternary(xfail.Strict, domain.ResultFailed, domain.ResultXPass)
		if xfail.Strict {
			p.log.Debug().Str("test_id", id).Msg("strict xfail passed, exempt from last failed")
		}
		return p.w.Send(ctx, domain.MethodSetTestResult, domain.SetTestResultParams{
			TestID:           id,
			ResultState:      state,
			When:             when,
			Outcome:          domain.OutcomePassed,
			LastFailedExempt: lo.ToPtr(xfail.Strict),
		})
	}

	var (
		state = domain.ResultFailed
		tb    = domain.NewTraceback(exc.Frames)
	)
	switch {
	case xfail != nil:
		state = domain.ResultXFail
	case exc.IsSkip():
		state = domain.ResultSkipped
		tb = nil
	}

	p.log.Debug().Str("test_id", id).Str("exc_type", exc.Type).Str("result", string(state)).Msg("exception info")
	return p.w.Send(ctx, domain.MethodSetExceptionInfo, domain.SetExceptionInfoParams{
		TestID:             id,
		ExcType:            exc.Type,
		ExcValue:           exc.Value,
		ExtractedTraceback: tb,
		ResultState:        state,
		When:               when,
	})
}
