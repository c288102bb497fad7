package pipeline

import (
	"context"
	"time"

	"github.com/kbukum/mediagraph/bus"
	"github.com/kbukum/mediagraph/clock"
	"github.com/kbukum/mediagraph/element"
	"github.com/kbukum/mediagraph/errors"
	"github.com/kbukum/mediagraph/logger"
	"github.com/kbukum/mediagraph/observability"
)

// RequestState moves the pipeline towards target one adjacent step at a
// time, changing children sinks first.
//
// It returns Failure with a STATE_CHANGE_FAILED error when a child rejects
// a step, Async when sinks are still waiting for preroll, NoPreroll when a
// live source is present and Success otherwise. Requesting NULL always
// succeeds: it tears the pipeline down from any state and waits for every
// element goroutine to return.
func (p *Pipeline) RequestState(ctx context.Context, target element.State) (element.ChangeReturn, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanRequestState)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrPipeline, p.name)
	observability.SetSpanAttribute(ctx, observability.AttrTargetState, target.String())
	start := time.Now()

	var (
		ret element.ChangeReturn
		err error
	)
	switch {
	case target == element.Null:
		p.teardown(ctx)
		ret = element.Success
	case target < element.Null || target > element.Playing:
		ret, err = element.Failure, errors.InvalidInput("state", "not a target state").WithDetail("state", target.String())
	default:
		p.mu.Lock()
		ret, err = p.changeLocked(ctx, target)
		p.mu.Unlock()
	}

	observability.SetSpanAttribute(ctx, observability.AttrResult, ret.String())
	if err != nil {
		observability.SetSpanError(ctx, err)
	}
	p.metrics.RecordStateChange(ctx, target.String(), ret.String(), time.Since(start))
	return ret, err
}

func (p *Pipeline) changeLocked(ctx context.Context, target element.State) (element.ChangeReturn, error) {
	if p.pending != element.VoidPending {
		if target >= p.pending {
			p.target = target
			return element.Async, nil
		}
		p.log.Debug("aborting pending state change", logger.Fields(
			logger.FieldState, p.asyncStep.String(),
			"target", target.String(),
		))
		p.abortPendingLocked(ctx)
	}
	p.target = target
	return p.advanceLocked(ctx)
}

// advanceLocked applies steps until the target is reached, a step fails or
// a step goes async.
func (p *Pipeline) advanceLocked(ctx context.Context) (element.ChangeReturn, error) {
	result := element.Success
	for _, step := range element.Steps(p.state, p.target) {
		ret, err := p.applyStepLocked(ctx, step)
		switch ret {
		case element.Failure:
			p.target = p.state
			return element.Failure, err
		case element.Async:
			return element.Async, nil
		case element.NoPreroll:
			result = element.NoPreroll
		}
	}
	return result, nil
}

func (p *Pipeline) applyStepLocked(ctx context.Context, step element.StateChange) (element.ChangeReturn, error) {
	var (
		changed   []*element.Element
		noPreroll bool
		waiting   int
	)
	for _, el := range p.stepOrderLocked() {
		if cur, _ := el.State(); cur == step.To {
			continue
		}
		ret, err := el.ChangeState(ctx, p, step)
		switch ret {
		case element.Failure:
			p.revertLocked(ctx, changed, step)
			return element.Failure, p.stepFailedLocked(el, step, err)
		case element.Async:
			waiting++
		case element.NoPreroll:
			noPreroll = true
		}
		changed = append(changed, el)
	}

	for _, el := range changed {
		if _, pending := el.State(); pending == element.VoidPending {
			p.bus.Post(bus.NewStateChanged(sourceOf(el), step.From, step.To, element.VoidPending))
		}
	}

	if waiting > 0 {
		if noPreroll || p.hasLiveSourceLocked() {
			for _, el := range changed {
				p.completeAsyncLocked(el)
			}
			noPreroll = true
		} else {
			p.asyncStep = step
			p.pending = step.To
			if !p.settlePrerollLocked() {
				p.log.Debug("waiting for preroll", logger.Fields(logger.FieldState, step.String()))
				return element.Async, nil
			}
			p.asyncStep = element.StateChange{}
			p.pending = element.VoidPending
		}
	}

	p.commitLocked(step)
	if noPreroll {
		return element.NoPreroll, nil
	}
	return element.Success, nil
}

func (p *Pipeline) stepFailedLocked(el *element.Element, step element.StateChange, cause error) error {
	failure := errors.StateChangeFailed(el.Name(), step.From.String(), step.To.String())
	if cause == nil {
		cause = failure
	} else {
		failure = failure.WithCause(cause)
	}
	reported := elementError(el.Name(), cause, "")
	p.bus.Post(bus.NewError(sourceOf(el), reported, debugOf(reported)))
	p.elementLogger(el).Error("state change failed", logger.Fields(
		logger.FieldState, step.String(),
		logger.FieldError, cause.Error(),
	))
	return failure
}

// revertLocked returns els to step.From after a failed or aborted step.
func (p *Pipeline) revertLocked(ctx context.Context, els []*element.Element, step element.StateChange) {
	for _, el := range els {
		cur, pending := el.State()
		if pending != element.VoidPending {
			el.AbortAsync()
		}
		if cur == step.To && step.Upward() {
			if _, err := el.ChangeState(ctx, p, step.Reverse()); err != nil {
				p.elementLogger(el).Debug("revert step failed", logger.ErrorFields(step.Reverse().String(), err))
			}
		}
		el.ForceState(step.From)
		if step.From < element.Paused {
			p.cancelTasksLocked(el.ID())
		}
	}
}

// abortPendingLocked drops an in-flight async step and falls back to the
// last confirmed state.
func (p *Pipeline) abortPendingLocked(ctx context.Context) {
	step := p.asyncStep
	var moved []*element.Element
	for _, el := range p.orderedLocked() {
		cur, pending := el.State()
		if cur == step.To || pending == step.To {
			moved = append(moved, el)
		}
	}
	p.revertLocked(ctx, moved, step)
	for _, el := range moved {
		p.bus.Post(bus.NewStateChanged(sourceOf(el), step.To, step.From, element.VoidPending))
	}
	if step.From < element.Paused {
		for _, el := range p.orderedLocked() {
			p.dropSometimesPadsLocked(el)
		}
	}
	p.pending = element.VoidPending
	p.asyncStep = element.StateChange{}
	p.target = p.state
}

// settlePrerollLocked completes every waiting sink whose preroll is
// satisfied and reports whether none are left waiting.
func (p *Pipeline) settlePrerollLocked() bool {
	discovering := p.discoveringLocked()
	edges := p.edgesLocked()
	left := 0
	for _, el := range p.orderedLocked() {
		if _, pending := el.State(); pending == element.VoidPending {
			continue
		}
		switch {
		case p.fedBySourceLocked(edges, el):
			p.completeAsyncLocked(el)
		case !discovering:
			p.elementLogger(el).Warn("sink is not linked to any source, completing preroll anyway")
			p.completeAsyncLocked(el)
		default:
			left++
		}
	}
	return left == 0
}

// evaluatePrerollLocked finishes a pending async step once every sink is
// prerolled and continues towards the target.
func (p *Pipeline) evaluatePrerollLocked() {
	if p.pending == element.VoidPending || !p.settlePrerollLocked() {
		return
	}
	step := p.asyncStep
	p.asyncStep = element.StateChange{}
	p.pending = element.VoidPending
	p.commitLocked(step)
	if p.state == p.target {
		return
	}
	if _, err := p.advanceLocked(p.runContextLocked()); err != nil {
		p.log.Warn("continuing state change failed", logger.ErrorFields("request_state", err))
	}
}

func (p *Pipeline) completeAsyncLocked(el *element.Element) {
	if change, ok := el.CompleteAsync(); ok {
		p.bus.Post(bus.NewStateChanged(sourceOf(el), change.From, change.To, element.VoidPending))
	}
}

// commitLocked confirms step for the pipeline as a whole.
func (p *Pipeline) commitLocked(step element.StateChange) {
	old := p.state
	p.state = step.To
	now := p.clock.Now()

	switch step {
	case element.StateChange{From: element.Ready, To: element.Paused}:
		p.segmentStart, p.accrued, p.runningSince = 0, 0, clock.None
		p.eosPosted = false
	case element.StateChange{From: element.Paused, To: element.Playing}:
		p.runningSince = now
		p.startEOSWatchLocked()
	case element.StateChange{From: element.Playing, To: element.Paused}:
		if p.runningSince.IsValid() {
			p.accrued += now - p.runningSince
		}
		p.runningSince = clock.None
		p.watchEpoch++
		p.cancelTasksLocked(p.id)
	case element.StateChange{From: element.Paused, To: element.Ready}:
		for _, el := range p.orderedLocked() {
			p.cancelTasksLocked(el.ID())
			p.dropSometimesPadsLocked(el)
		}
	}

	pending := element.VoidPending
	if p.state != p.target {
		pending = p.target
	}
	p.bus.Post(bus.NewStateChanged(p.source(), old, p.state, pending))
	p.log.Info("state changed", logger.Fields(
		"from", old.String(),
		logger.FieldState, p.state.String(),
		"pending", pending.String(),
	))
}

// teardown brings every child to NULL. Element goroutines are cancelled
// under the lock and waited for after it is released.
func (p *Pipeline) teardown(ctx context.Context) {
	p.mu.Lock()
	old := p.state
	if p.cancel != nil {
		p.cancel()
	}
	p.runCtx, p.cancel = nil, nil
	p.cancelTasksLocked(p.id)

	for _, el := range p.stepOrderLocked() {
		p.shutdownElementLocked(ctx, el)
	}
	p.segmentStart, p.accrued, p.runningSince = 0, 0, clock.None
	p.eosPosted = false
	p.watchEpoch++
	p.pending = element.VoidPending
	p.asyncStep = element.StateChange{}
	p.target = element.Null

	for _, step := range element.Steps(old, element.Null) {
		pending := element.Null
		if step.To == element.Null {
			pending = element.VoidPending
		}
		p.state = step.To
		p.bus.Post(bus.NewStateChanged(p.source(), step.From, step.To, pending))
	}
	p.state = element.Null
	if old != element.Null {
		p.log.Info("pipeline stopped", logger.Fields("from", old.String()))
	}
	p.mu.Unlock()

	p.wg.Wait()
}

// shutdownElementLocked walks el down to NULL. Steps that fail are forced.
func (p *Pipeline) shutdownElementLocked(ctx context.Context, el *element.Element) {
	cur, pending := el.State()
	if pending != element.VoidPending {
		el.AbortAsync()
	}
	for _, step := range element.Steps(cur, element.Null) {
		if ret, err := el.ChangeState(ctx, p, step); ret == element.Failure {
			p.elementLogger(el).Debug("forcing state", logger.ErrorFields(step.String(), err))
			el.ForceState(step.To)
		}
		p.bus.Post(bus.NewStateChanged(sourceOf(el), step.From, step.To, element.VoidPending))
	}
	el.ForceState(element.Null)
	p.cancelTasksLocked(el.ID())
	p.dropSometimesPadsLocked(el)
}

// stepOrderLocked returns the children sinks first. Elements of one level
// keep insertion order.
func (p *Pipeline) stepOrderLocked() []*element.Element {
	levels, err := buildLevels(p.order, p.edgesLocked())
	if err != nil {
		p.log.Error("link graph is not acyclic, using reverse insertion order", logger.ErrorFields("order", err))
		out := p.orderedLocked()
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
		return out
	}
	ids := sinksFirst(levels)
	out := make([]*element.Element, 0, len(ids))
	for _, id := range ids {
		out = append(out, p.elements[id])
	}
	return out
}

func (p *Pipeline) orderedLocked() []*element.Element {
	out := make([]*element.Element, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.elements[id])
	}
	return out
}

func (p *Pipeline) hasLiveSourceLocked() bool {
	for _, el := range p.orderedLocked() {
		if lr, ok := el.Behavior().(element.LiveReporter); ok && lr.Live() {
			return true
		}
	}
	return false
}

func (p *Pipeline) discoveringLocked() bool {
	for _, el := range p.orderedLocked() {
		if d, ok := el.Behavior().(element.Discoverer); ok && d.Discovering() {
			return true
		}
	}
	return false
}

// fedBySourceLocked reports whether data from a source element can reach el.
func (p *Pipeline) fedBySourceLocked(edges []edge, el *element.Element) bool {
	for _, src := range p.orderedLocked() {
		if src.Class() != element.ClassSource && src.Class() != element.ClassDecoder {
			continue
		}
		if src.ID() != el.ID() && reaches(edges, src.ID(), el.ID()) {
			return true
		}
	}
	return false
}

// elementError converts err into the ELEMENT_ERROR posted on the bus.
func elementError(name string, err error, debug string) *errors.AppError {
	if appErr, ok := errors.AsAppError(err); ok && appErr.Code == errors.ErrCodeElementError {
		return appErr
	}
	return errors.ElementError(name, err.Error(), debug).WithCause(err)
}

func debugOf(err *errors.AppError) string {
	if d, ok := err.Details["debug"].(string); ok {
		return d
	}
	return "none"
}
