// Package controller drives a playback session: it sets a pipeline to
// PLAYING, waits on its bus and reacts to what the elements report.
//
// The loop is single-threaded. Each iteration takes at most one message:
//
//   - Error ends the session, keeping the error in the Report
//   - EOS ends the session
//   - StateChanged from the top-level pipeline updates the playing flag;
//     the first PLAYING also asks whether the stream can be seeked
//   - DurationChanged drops the cached duration
//   - DynamicPadAdded goes to the configured PadHandler
//
// With a PollInterval, a wait that times out while playing polls the
// position, fills the duration cache when empty and seeks once to
// SeekTarget after SeekThreshold has been passed. The seek is never
// retried, whatever its result.
//
// Usage:
//
//	linker := pipeline.NewAutoLinker(p)
//	opts := controller.DefaultOptions()
//	opts.PadHandler = func(ctx context.Context, m *bus.Message) { linker.HandleDynamicPad(ctx, m) }
//	report, err := controller.New(p, opts).Run(ctx)
package controller
