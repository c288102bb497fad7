package controller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/mediagraph/bus"
	"github.com/kbukum/mediagraph/caps"
	"github.com/kbukum/mediagraph/clock"
	"github.com/kbukum/mediagraph/element"
	"github.com/kbukum/mediagraph/errors"
	"github.com/kbukum/mediagraph/logger"
	"github.com/kbukum/mediagraph/pipeline"
)

type seekCall struct {
	flags  clock.SeekFlags
	target clock.ClockTime
}

// fakePlayer advances its position by step on every position query and
// lets tests hook into queries to post messages.
type fakePlayer struct {
	mu sync.Mutex

	id  element.ID
	bus *bus.Bus

	playReturn element.ChangeReturn
	playErr    error
	// announce controls whether PLAYING posts the pipeline StateChanged.
	announce bool

	position    clock.ClockTime
	step        clock.ClockTime
	duration    clock.ClockTime
	seeking     pipeline.SeekingInfo
	seekingOK   bool
	positionErr bool
	seekResult  bool

	onPosition func(n int)

	requests        []element.State
	positionQueries int
	durationQueries int
	seekingQueries  int
	seeks           []seekCall
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{
		id:         element.NewID(),
		bus:        bus.New(),
		playReturn: element.Success,
		announce:   true,
		step:       clock.Second,
		duration:   60 * clock.Second,
		seeking:    pipeline.SeekingInfo{Seekable: true, Start: 0, End: 60 * clock.Second},
		seekingOK:  true,
		seekResult: true,
	}
}

func (f *fakePlayer) ID() element.ID  { return f.id }
func (f *fakePlayer) Name() string    { return "fake" }
func (f *fakePlayer) Bus() *bus.Bus   { return f.bus }
func (f *fakePlayer) src() bus.Source { return bus.Source{ID: f.id, Name: "fake"} }

func (f *fakePlayer) RequestState(_ context.Context, target element.State) (element.ChangeReturn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, target)
	if target == element.Playing {
		if f.playReturn == element.Failure {
			return f.playReturn, f.playErr
		}
		if f.announce {
			f.bus.Post(bus.NewStateChanged(f.src(), element.Paused, element.Playing, element.VoidPending))
		}
		return f.playReturn, nil
	}
	return element.Success, nil
}

func (f *fakePlayer) QueryPosition(clock.Format) (clock.ClockTime, bool) {
	f.mu.Lock()
	f.positionQueries++
	n := f.positionQueries
	f.position += f.step
	pos, failed, hook := f.position, f.positionErr, f.onPosition
	f.mu.Unlock()
	if hook != nil {
		hook(n)
	}
	if failed {
		return clock.None, false
	}
	return pos, true
}

func (f *fakePlayer) QueryDuration(clock.Format) (clock.ClockTime, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.durationQueries++
	return f.duration, true
}

func (f *fakePlayer) QuerySeeking(clock.Format) (pipeline.SeekingInfo, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seekingQueries++
	return f.seeking, f.seekingOK
}

func (f *fakePlayer) Seek(_ clock.Format, flags clock.SeekFlags, target clock.ClockTime) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seeks = append(f.seeks, seekCall{flags: flags, target: target})
	if f.seekResult {
		f.position = target
	}
	return f.seekResult
}

func (f *fakePlayer) lastRequest() element.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return element.VoidPending
	}
	return f.requests[len(f.requests)-1]
}

// eosAt posts EOS on the n-th position query.
func (f *fakePlayer) eosAt(n int) {
	f.onPosition = func(i int) {
		if i == n {
			f.bus.Post(bus.NewEOS(f.src()))
		}
	}
}

func testOptions() Options {
	o := DefaultOptions()
	o.PollInterval = time.Millisecond
	o.Logger = logger.NewNop()
	return o
}

func runWithTimeout(t *testing.T, c *Controller) (Report, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	report, err := c.Run(ctx)
	if report.Reason == ReasonCancelled && ctx.Err() != nil {
		t.Fatal("session did not end before the test deadline")
	}
	return report, err
}

func TestRun_EOS(t *testing.T) {
	f := newFakePlayer()
	f.eosAt(3)
	c := New(f, testOptions())

	report, err := runWithTimeout(t, c)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Reason != ReasonEOS || report.Err != nil {
		t.Errorf("report = %+v", report)
	}
	if f.lastRequest() != element.Null {
		t.Errorf("last requested state = %s, want NULL", f.lastRequest())
	}
	if report.Position != 3*clock.Second {
		t.Errorf("position = %s", report.Position)
	}
	if report.SessionID == "" {
		t.Error("missing session id")
	}
}

func TestRun_ElementError(t *testing.T) {
	f := newFakePlayer()
	f.onPosition = func(n int) {
		if n == 2 {
			f.bus.Post(bus.NewError(bus.Source{ID: element.NewID(), Name: "decoder"},
				errors.ElementError("decoder", "stream broke", ""), ""))
		}
	}
	c := New(f, testOptions())

	report, err := runWithTimeout(t, c)
	if err != nil {
		t.Fatalf("async errors must not fail Run: %v", err)
	}
	if report.Reason != ReasonError || !errors.IsCode(report.Err, errors.ErrCodeElementError) {
		t.Errorf("report = %+v", report)
	}
	if f.lastRequest() != element.Null {
		t.Errorf("last requested state = %s, want NULL", f.lastRequest())
	}
	if f.positionQueries != 2 {
		t.Errorf("loop kept polling after the error: %d queries", f.positionQueries)
	}
	snap, _ := c.Snapshot()
	if snap.LastError == "" || !snap.Terminated || snap.State != element.Null.String() {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestRun_PlayingRefused(t *testing.T) {
	f := newFakePlayer()
	f.playReturn = element.Failure
	f.playErr = errors.StateChangeFailed("fake", "NULL", "READY")
	c := New(f, testOptions())

	report, err := runWithTimeout(t, c)
	if !errors.IsCode(err, errors.ErrCodeStateChangeFailed) {
		t.Fatalf("expected STATE_CHANGE_FAILED, got %v", err)
	}
	if report.Reason != ReasonError {
		t.Errorf("reason = %s", report.Reason)
	}
	if f.lastRequest() != element.Null {
		t.Errorf("last requested state = %s, want NULL", f.lastRequest())
	}
}

func TestRun_ChildStateChangeIgnored(t *testing.T) {
	f := newFakePlayer()
	f.announce = false
	f.bus.Post(bus.NewStateChanged(bus.Source{ID: element.NewID(), Name: "sink"},
		element.Paused, element.Playing, element.VoidPending))
	c := New(f, testOptions())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	report, err := c.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if report.Reason != ReasonCancelled {
		t.Errorf("reason = %s", report.Reason)
	}
	if f.positionQueries != 0 || f.seekingQueries != 0 {
		t.Errorf("child StateChanged flipped playing: %d position, %d seeking queries",
			f.positionQueries, f.seekingQueries)
	}
	if report.Messages != 1 {
		t.Errorf("messages = %d", report.Messages)
	}
}

func TestRun_SeekOnce(t *testing.T) {
	f := newFakePlayer()
	f.step = 4 * clock.Second
	f.eosAt(8)
	c := New(f, testOptions())

	report, err := runWithTimeout(t, c)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.seeks) != 1 {
		t.Fatalf("expected one seek, got %d", len(f.seeks))
	}
	s := f.seeks[0]
	if s.target != 30*clock.Second {
		t.Errorf("seek target = %s", s.target)
	}
	if !s.flags.Has(clock.SeekFlagFlush) || !s.flags.Has(clock.SeekFlagKeyUnit) || s.flags.Has(clock.SeekFlagAccurate) {
		t.Errorf("seek flags = %s", s.flags)
	}
	if !report.SeekIssued || !report.SeekSucceeded {
		t.Errorf("report = %+v", report)
	}
	if f.seekingQueries != 1 {
		t.Errorf("seeking queried %d times", f.seekingQueries)
	}
}

func TestRun_FailedSeekNotRetried(t *testing.T) {
	f := newFakePlayer()
	f.seekResult = false
	f.step = 5 * clock.Second
	f.eosAt(6)
	c := New(f, testOptions())

	report, err := runWithTimeout(t, c)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.seeks) != 1 {
		t.Errorf("expected one seek attempt, got %d", len(f.seeks))
	}
	if !report.SeekIssued || report.SeekSucceeded {
		t.Errorf("report = %+v", report)
	}
}

func TestRun_SeekGates(t *testing.T) {
	cases := []struct {
		name  string
		setup func(*fakePlayer, *Options)
	}{
		{"not seekable", func(f *fakePlayer, _ *Options) { f.seeking.Seekable = false }},
		{"seeking query fails", func(f *fakePlayer, _ *Options) { f.seekingOK = false }},
		{"disabled", func(_ *fakePlayer, o *Options) { o.SeekEnabled = false }},
		{"position query fails", func(f *fakePlayer, _ *Options) { f.positionErr = true }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFakePlayer()
			f.step = 5 * clock.Second
			f.eosAt(6)
			opts := testOptions()
			tc.setup(f, &opts)

			if _, err := runWithTimeout(t, New(f, opts)); err != nil {
				t.Fatal(err)
			}
			if len(f.seeks) != 0 {
				t.Errorf("unexpected seek: %+v", f.seeks)
			}
		})
	}
}

func TestRun_DurationCache(t *testing.T) {
	f := newFakePlayer()
	f.onPosition = func(n int) {
		switch n {
		case 3:
			f.bus.Post(bus.NewDurationChanged(f.src()))
		case 6:
			f.bus.Post(bus.NewEOS(f.src()))
		}
	}
	c := New(f, testOptions())

	report, err := runWithTimeout(t, c)
	if err != nil {
		t.Fatal(err)
	}
	if f.durationQueries != 2 {
		t.Errorf("expected duration to be queried twice, got %d", f.durationQueries)
	}
	if report.Duration != 60*clock.Second {
		t.Errorf("duration = %s", report.Duration)
	}
}

func TestRun_UnboundedWait(t *testing.T) {
	f := newFakePlayer()
	opts := testOptions()
	opts.PollInterval = 0
	c := New(f, opts)

	go func() {
		time.Sleep(10 * time.Millisecond)
		f.bus.Post(bus.NewEOS(f.src()))
	}()
	report, err := runWithTimeout(t, c)
	if err != nil {
		t.Fatal(err)
	}
	if report.Reason != ReasonEOS {
		t.Errorf("reason = %s", report.Reason)
	}
	if f.positionQueries != 0 {
		t.Errorf("unbounded wait must not poll, got %d position queries", f.positionQueries)
	}
}

func TestRun_Cancelled(t *testing.T) {
	f := newFakePlayer()
	opts := testOptions()
	opts.PollInterval = 0
	c := New(f, opts)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	report, err := c.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if report.Reason != ReasonCancelled {
		t.Errorf("reason = %s", report.Reason)
	}
	if f.lastRequest() != element.Null {
		t.Errorf("last requested state = %s, want NULL", f.lastRequest())
	}
}

func TestRun_PadHandler(t *testing.T) {
	f := newFakePlayer()
	f.eosAt(2)
	pad := element.PadRef{Element: element.NewID(), Index: 0}
	f.bus.Post(bus.NewDynamicPadAdded(bus.Source{ID: pad.Element, Name: "decoder"}, pad, "src_0", caps.New("audio/x-raw")))

	var got []element.PadRef
	opts := testOptions()
	opts.PadHandler = func(_ context.Context, m *bus.Message) {
		ref, _, _ := m.ParseDynamicPadAdded()
		got = append(got, ref)
	}
	if _, err := runWithTimeout(t, New(f, opts)); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != pad {
		t.Errorf("handler got %+v", got)
	}
}

func TestRun_PadsLeftQueuedWithoutHandler(t *testing.T) {
	f := newFakePlayer()
	f.eosAt(1)
	pad := element.PadRef{Element: element.NewID(), Index: 0}
	f.bus.Post(bus.NewDynamicPadAdded(bus.Source{ID: pad.Element, Name: "decoder"}, pad, "src_0", caps.New("audio/x-raw")))

	if _, err := runWithTimeout(t, New(f, testOptions())); err != nil {
		t.Fatal(err)
	}
	if m := f.bus.Pop(); m == nil || m.Type != bus.MessageDynamicPadAdded {
		t.Errorf("expected the pad message to stay queued, got %v", m)
	}
}

func TestDispatch_UnexpectedMessage(t *testing.T) {
	f := newFakePlayer()
	c := New(f, testOptions())
	c.reset()

	c.dispatch(context.Background(), c.log, &bus.Message{Type: bus.MessageType(1 << 20)})
	if !c.terminate || c.reason != ReasonUnexpected {
		t.Errorf("terminate = %v, reason = %s", c.terminate, c.reason)
	}
	if !errors.IsCode(c.lastErr, errors.ErrCodeUnexpectedMessage) {
		t.Errorf("lastErr = %v", c.lastErr)
	}
}

func TestSnapshot(t *testing.T) {
	f := newFakePlayer()
	c := New(f, testOptions())
	if _, ok := c.Snapshot(); ok {
		t.Error("snapshot before Run")
	}

	f.onPosition = func(n int) {
		if n == 2 {
			snap, ok := c.Snapshot()
			if !ok || !snap.Playing || snap.Terminated || snap.Pipeline != "fake" {
				t.Errorf("snapshot while playing = %+v", snap)
			}
			f.bus.Post(bus.NewEOS(f.src()))
		}
	}
	report, err := runWithTimeout(t, c)
	if err != nil {
		t.Fatal(err)
	}
	snap, ok := c.Snapshot()
	if !ok || !snap.Terminated || snap.Playing || snap.SessionID != report.SessionID {
		t.Errorf("final snapshot = %+v", snap)
	}
	if !snap.Seekable || !snap.SeekEnabled {
		t.Errorf("seek flags = %+v", snap)
	}
}

func TestRun_OnSnapshot(t *testing.T) {
	f := newFakePlayer()
	f.eosAt(3)
	var seen []Snapshot
	opts := testOptions()
	opts.OnSnapshot = func(s Snapshot) { seen = append(seen, s) }
	c := New(f, opts)

	if _, err := runWithTimeout(t, c); err != nil {
		t.Fatal(err)
	}
	if len(seen) < 3 {
		t.Fatalf("expected several snapshots, got %d", len(seen))
	}
	for i := 1; i < len(seen); i++ {
		if seen[i].sameAs(&seen[i-1]) {
			t.Errorf("snapshot %d repeats its predecessor: %+v", i, seen[i])
		}
	}
	last := seen[len(seen)-1]
	if !last.Terminated || last.State != element.Null.String() {
		t.Errorf("last snapshot = %+v", last)
	}
}
