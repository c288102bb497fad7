package pipeline

import (
	"github.com/kbukum/mediagraph/bus"
	"github.com/kbukum/mediagraph/clock"
	"github.com/kbukum/mediagraph/element"
	"github.com/kbukum/mediagraph/logger"
)

// SeekingInfo answers a seeking query. End is None when the duration is
// unknown.
type SeekingInfo struct {
	Seekable bool
	Start    clock.ClockTime
	End      clock.ClockTime
}

// QueryPosition returns the current stream position. Only TIME is
// supported, and only from PAUSED up.
func (p *Pipeline) QueryPosition(format clock.Format) (clock.ClockTime, bool) {
	if format != clock.FormatTime {
		return clock.None, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state < element.Paused {
		return clock.None, false
	}
	pos := p.positionLocked()
	p.checkEOSLocked()
	return pos, true
}

// QueryDuration returns the stream length: the longest duration any child
// reports.
func (p *Pipeline) QueryDuration(format clock.Format) (clock.ClockTime, bool) {
	if format != clock.FormatTime {
		return clock.None, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state < element.Paused {
		return clock.None, false
	}
	return p.durationLocked()
}

// QuerySeeking reports whether the stream can be seeked and over which range.
func (p *Pipeline) QuerySeeking(format clock.Format) (SeekingInfo, bool) {
	if format != clock.FormatTime {
		return SeekingInfo{}, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state < element.Paused {
		return SeekingInfo{}, false
	}
	return p.seekingLocked(), true
}

// Seek moves the position to target. A key-unit seek that is not also
// accurate lands on the key frame at or before target. Targets past the
// duration are clamped to it.
func (p *Pipeline) Seek(format clock.Format, flags clock.SeekFlags, target clock.ClockTime) bool {
	if format != clock.FormatTime || !target.IsValid() {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state < element.Paused || !p.seekingLocked().Seekable {
		return false
	}
	if dur, ok := p.durationLocked(); ok && target > dur {
		target = dur
	}
	if flags.Has(clock.SeekFlagKeyUnit) && !flags.Has(clock.SeekFlagAccurate) {
		if kf := p.keyframeIntervalLocked(); kf > 0 {
			target = target / kf * kf
		}
	}

	p.segmentStart = target
	p.accrued = 0
	p.eosPosted = false
	if p.state == element.Playing {
		p.runningSince = p.clock.Now()
		p.startEOSWatchLocked()
	}
	p.log.Info("seek", logger.Fields(
		logger.FieldPosition, target.String(),
		"flags", flags.String(),
	))
	return true
}

func (p *Pipeline) positionLocked() clock.ClockTime {
	pos := p.segmentStart + p.accrued
	if p.state == element.Playing && p.runningSince.IsValid() {
		pos += p.clock.Now() - p.runningSince
	}
	if dur, ok := p.durationLocked(); ok && pos > dur {
		pos = dur
	}
	return pos
}

func (p *Pipeline) durationLocked() (clock.ClockTime, bool) {
	longest, found := clock.None, false
	for _, el := range p.orderedLocked() {
		dr, ok := el.Behavior().(element.DurationReporter)
		if !ok {
			continue
		}
		if d, ok := dr.Duration(); ok && d > longest {
			longest, found = d, true
		}
	}
	return longest, found
}

func (p *Pipeline) seekingLocked() SeekingInfo {
	info := SeekingInfo{Start: 0, End: clock.None}
	reporters := 0
	seekable := true
	for _, el := range p.orderedLocked() {
		sr, ok := el.Behavior().(element.SeekReporter)
		if !ok {
			continue
		}
		reporters++
		if s, _ := sr.Seeking(); !s {
			seekable = false
		}
	}
	info.Seekable = reporters > 0 && seekable
	if dur, ok := p.durationLocked(); ok {
		info.End = dur
	}
	return info
}

func (p *Pipeline) keyframeIntervalLocked() clock.ClockTime {
	for _, el := range p.orderedLocked() {
		if sr, ok := el.Behavior().(element.SeekReporter); ok {
			if _, kf := sr.Seeking(); kf > 0 {
				return kf
			}
		}
	}
	return 0
}

// checkEOSLocked posts EOS once when a playing pipeline reaches the end.
func (p *Pipeline) checkEOSLocked() {
	if p.state != element.Playing || p.eosPosted {
		return
	}
	dur, ok := p.durationLocked()
	if !ok || p.positionLocked() < dur {
		return
	}
	p.eosPosted = true
	p.bus.Post(bus.NewEOS(p.source()))
	p.log.Info("end of stream", logger.Fields(logger.FieldPosition, dur.String()))
}
