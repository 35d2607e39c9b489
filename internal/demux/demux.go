// Package demux implements the single-consumer overlap-slicing fan-out that
// routes decoded frame data to per-controller output channels: each
// incoming (offset, data) message is cut along controller channel-range
// boundaries and forwarded to the controller(s) it overlaps.
package demux

import "log"

// FrameSlice is the message shape passed between the demuxer and each
// per-controller sender: Offset is relative to whichever channel range it
// addresses (global for input, controller-local for output).
type FrameSlice struct {
	Offset int
	Data   []byte
}

// Range is one controller's channel span, [Start, Start+Len).
type Range struct {
	Start int
	Len   int
}

// Demux reads FrameSlices from in until it is closed, routing each to the
// output channel(s) whose Range it overlaps. ranges and outs must be the
// same length and ranges must already be sorted ascending by Start with no
// overlaps (ddp.NewControllerSet guarantees this for real controller data).
func Demux(in <-chan FrameSlice, outs []chan<- FrameSlice, ranges []Range) {
	log.Printf("demux: started for %d controllers", len(ranges))

	for msg := range in {
		route(msg, outs, ranges)
	}

	log.Printf("demux: stopped for %d controllers", len(ranges))
}

func route(msg FrameSlice, outs []chan<- FrameSlice, ranges []Range) {
	dStart := msg.Offset
	data := msg.Data

	for i, r := range ranges {
		if len(data) == 0 {
			return
		}
		sStart, sEnd := r.Start, r.Start+r.Len-1
		dEnd := dStart + len(data) - 1

		if dEnd < sStart {
			// Input ends before this controller starts; ranges are
			// sorted ascending, so no later controller overlaps either.
			return
		}
		if dStart > sEnd {
			// Input starts after this controller's range; it never
			// reaches controllers before it either.
			continue
		}

		// Overlap. Slice out the portion covering this controller.
		sliceEnd := sEnd - dStart + 1
		if sliceEnd > len(data) {
			sliceEnd = len(data)
		}
		chunk := data[:sliceEnd]
		outs[i] <- FrameSlice{Offset: dStart - sStart, Data: chunk}

		if sliceEnd >= len(data) {
			return
		}
		data = data[sliceEnd:]
		dStart = sEnd + 1
	}
}
