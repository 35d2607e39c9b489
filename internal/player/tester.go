package player

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/plextuner/ledshowd/internal/demux"
	"github.com/plextuner/ledshowd/internal/pattern"
)

// resolvedModel is one Test command model after spec.md §4.4's resolution:
// (start_channel_index, led_count) = ((start_channel-1)/3, channel_count/3).
type resolvedModel struct {
	startIndex int
	ledCount   int
	seq        pattern.Sequence
}

// runTest implements the test-pattern engine: at each step_ms tick, render
// every resolved model's sequence, rotating moving ones by
// (loop_counter mod led_count)*3 bytes, and coalesce adjacent runs into a
// single demuxer message, flushing on any gap.
func (p *Player) runTest(ctx context.Context, req TestRequest) {
	p.setStatus(StatusTesting, FPPStatus{StatusName: StatusTesting.String()})
	log.Printf("player: test engine started")

	models := make([]resolvedModel, 0, len(req.Models))
	for name, m := range req.Models {
		seq, ok := req.Spec.Tests[name]
		if !ok {
			continue
		}
		if m.ChannelCount%3 != 0 {
			log.Printf("player: test model %s: channel_count %d not a multiple of 3, rejecting", name, m.ChannelCount)
			continue
		}
		models = append(models, resolvedModel{
			startIndex: (m.StartChannel - 1) / 3,
			ledCount:   m.ChannelCount / 3,
			seq:        seq,
		})
	}
	if len(models) == 0 {
		log.Printf("player: test engine: no valid models, nothing to render")
		return
	}
	sort.Slice(models, func(i, j int) bool { return models[i].startIndex < models[j].startIndex })

	pipe, err := startPipeline(p.cfg.Controllers)
	if err != nil {
		log.Printf("player: test engine: %v", err)
		return
	}
	defer pipe.stop()

	stepMS := req.Spec.StepMS
	if stepMS == 0 {
		stepMS = 50
	}
	ticker := time.NewTicker(time.Duration(stepMS) * time.Millisecond)
	defer ticker.Stop()

	loopCounter := 0
	for {
		select {
		case <-ctx.Done():
			log.Printf("player: test engine stopped (%v)", ctx.Err())
			return
		case cmd := <-p.cmdCh:
			if _, ok := cmd.(CmdStop); ok {
				log.Printf("player: test engine stopped")
				return
			}
			log.Printf("player: test engine ignoring command %T while active", cmd)
		case <-ticker.C:
			msgs := renderTestTick(models, loopCounter)
			for _, msg := range msgs {
				select {
				case pipe.in <- msg:
				case <-ctx.Done():
					return
				}
			}
			loopCounter++
		}
	}
}

// renderTestTick walks models in start-index order, rendering and
// rotating each, and coalesces adjacent (no-gap) runs into a single
// FrameSlice per spec.md §4.4 item 3.
func renderTestTick(models []resolvedModel, loopCounter int) []demux.FrameSlice {
	var out []demux.FrameSlice
	var accStart int
	var acc []byte

	flush := func() {
		if len(acc) > 0 {
			out = append(out, demux.FrameSlice{Offset: accStart * 3, Data: acc})
		}
		acc = nil
	}

	for _, m := range models {
		data := m.seq.AsVec(m.ledCount)
		if m.seq.Moves() {
			data = pattern.RotateRight(data, (loopCounter%m.ledCount)*3)
		}

		if len(acc) == 0 {
			accStart = m.startIndex
			acc = data
			continue
		}

		prevEnd := accStart + len(acc)/3
		if prevEnd == m.startIndex {
			acc = append(acc, data...)
			continue
		}

		flush()
		accStart = m.startIndex
		acc = data
	}
	flush()

	return out
}
