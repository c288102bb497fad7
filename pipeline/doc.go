// Package pipeline holds elements and the links between them, and drives
// them through their states as one unit.
//
// A Pipeline owns its elements, addressed by element.ID, and a bus that
// carries everything they report. State changes move one adjacent step at
// a time with sinks changed before the elements feeding them. Sinks wait
// for preroll on READY to PAUSED, so a request can return ASYNC and finish
// later; the bus then carries the pipeline's StateChanged message.
//
// Decoders create pads while they run. The pipeline announces them on the
// bus and an AutoLinker, called from whoever reads the bus, links each one
// to the entry pad of its stream family:
//
//	p := pipeline.New("player")
//	_ = p.Add(dec, aconv, asink)
//	_ = p.LinkMany(aconv, asink)
//	linker := pipeline.NewAutoLinker(p)
//	p.RequestState(ctx, element.Playing)
//	for {
//		m := p.Bus().TimedPopFiltered(ctx, bus.Forever, bus.MessageDynamicPadAdded)
//		if m == nil {
//			break
//		}
//		linker.HandleDynamicPad(ctx, m)
//	}
//
// Position, duration and seeking queries are answered in TIME format from
// the pipeline clock and the durations children report.
package pipeline
