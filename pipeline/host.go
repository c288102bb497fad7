package pipeline

import (
	"context"
	"strconv"
	"time"

	"github.com/kbukum/mediagraph/bus"
	"github.com/kbukum/mediagraph/caps"
	"github.com/kbukum/mediagraph/element"
	"github.com/kbukum/mediagraph/errors"
	"github.com/kbukum/mediagraph/logger"
)

var _ element.Host = (*Pipeline)(nil)

// AddPad implements element.Host. Pads can only appear on running elements.
func (p *Pipeline) AddPad(id element.ID, tmpl element.PadTemplate, c caps.Capability) (element.PadRef, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, err := p.runningElementLocked(id)
	if err != nil {
		return element.PadRef{}, err
	}
	idx := el.AddPad(tmpl, c)
	pad, _ := el.Pad(idx)
	ref := element.PadRef{Element: id, Index: idx}
	p.bus.Post(bus.NewDynamicPadAdded(sourceOf(el), ref, pad.Name(), c))
	p.elementLogger(el).Debug("pad added", logger.Fields(
		logger.FieldPad, pad.Name(),
		logger.FieldCaps, c.String(),
	))
	return ref, nil
}

// NoMorePads implements element.Host.
func (p *Pipeline) NoMorePads(id element.ID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, err := p.runningElementLocked(id)
	if err != nil {
		return
	}
	p.elementLogger(el).Debug("no more pads")
	p.evaluatePrerollLocked()
}

// PostError implements element.Host. An error while a state change is
// pending aborts it.
func (p *Pipeline) PostError(id element.ID, err error, debug string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, rerr := p.runningElementLocked(id)
	if rerr != nil {
		p.log.Debug("dropping error from stopped element", logger.Fields(logger.FieldError, err.Error()))
		return
	}
	reported := elementError(el.Name(), err, debug)
	p.bus.Post(bus.NewError(sourceOf(el), reported, debugOf(reported)))
	p.elementLogger(el).Error("element error", logger.Fields(
		logger.FieldError, err.Error(),
		"debug", debugOf(reported),
	))
	if p.pending != element.VoidPending {
		p.log.Warn("pending state change failed, returning to last confirmed state", logger.Fields(
			logger.FieldState, p.state.String(),
		))
		p.abortPendingLocked(p.runContextLocked())
	}
}

// PostDurationChanged implements element.Host.
func (p *Pipeline) PostDurationChanged(id element.ID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, err := p.runningElementLocked(id)
	if err != nil {
		return
	}
	p.bus.Post(bus.NewDurationChanged(sourceOf(el)))
}

// Go implements element.Host. It is called with the pipeline locked, from
// a behavior's ChangeState.
func (p *Pipeline) Go(id element.ID, fn func(ctx context.Context)) {
	ctx, cancel := context.WithCancel(p.runContextLocked())
	p.tasks[id] = append(p.tasks[id], cancel)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer cancel()
		fn(ctx)
	}()
}

func (p *Pipeline) runningElementLocked(id element.ID) (*element.Element, error) {
	if p.runCtx == nil || p.runCtx.Err() != nil {
		return nil, errors.ServiceUnavailable("pipeline " + p.name)
	}
	el, ok := p.elements[id]
	if !ok {
		return nil, errors.NotFound("element", strconv.FormatUint(uint64(id), 10))
	}
	if cur, _ := el.State(); cur < element.Paused {
		return nil, errors.InvalidInput("element", "not running").WithDetail(logger.FieldElement, el.Name())
	}
	return el, nil
}

func (p *Pipeline) runContextLocked() context.Context {
	if p.runCtx == nil {
		p.runCtx, p.cancel = context.WithCancel(context.Background())
	}
	return p.runCtx
}

func (p *Pipeline) cancelTasksLocked(id element.ID) {
	for _, cancel := range p.tasks[id] {
		cancel()
	}
	delete(p.tasks, id)
}

// startEOSWatchLocked checks periodically for the end of the stream while
// the pipeline plays. A newer watch or leaving PLAYING ends the old one.
func (p *Pipeline) startEOSWatchLocked() {
	p.watchEpoch++
	epoch := p.watchEpoch
	interval := p.eosInterval
	p.cancelTasksLocked(p.id)
	p.Go(p.id, func(ctx context.Context) {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
			p.mu.Lock()
			if p.watchEpoch != epoch || p.state != element.Playing {
				p.mu.Unlock()
				return
			}
			p.checkEOSLocked()
			done := p.eosPosted
			p.mu.Unlock()
			if done {
				return
			}
		}
	})
}
