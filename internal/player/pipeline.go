package player

import (
	"fmt"
	"log"
	"sync"

	"github.com/plextuner/ledshowd/internal/ddp"
	"github.com/plextuner/ledshowd/internal/demux"
)

// pipeline is one running instance of the output fan-out: a single input
// channel feeding the demuxer, which splits frames across one sender
// goroutine per controller.
type pipeline struct {
	in   chan demux.FrameSlice
	wg   sync.WaitGroup
	done chan struct{}
}

// startPipeline wires a fresh demuxer + one Sender per controller, grounded
// on the original's scheduler() building one (chan, controller) pair per
// controller plus a single demuxer task ahead of them.
func startPipeline(controllers []ddp.Controller) (*pipeline, error) {
	senders := make([]*ddp.Sender, 0, len(controllers))
	outs := make([]chan demux.FrameSlice, len(controllers))
	outsSend := make([]chan<- demux.FrameSlice, len(controllers))
	ranges := make([]demux.Range, len(controllers))

	for i, c := range controllers {
		s, err := ddp.NewSender(c, i)
		if err != nil {
			for _, s := range senders {
				s.Close()
			}
			return nil, fmt.Errorf("player: start sender for %s: %w", c.IP, err)
		}
		senders = append(senders, s)
		outs[i] = make(chan demux.FrameSlice, 1)
		outsSend[i] = outs[i]
		ranges[i] = demux.Range{Start: c.StartChannel, Len: c.ChannelCount}
	}

	p := &pipeline{
		in:   make(chan demux.FrameSlice, 1),
		done: make(chan struct{}),
	}

	p.wg.Add(len(senders))
	for i, s := range senders {
		go func(i int, s *ddp.Sender) {
			defer p.wg.Done()
			s.Run(outs[i])
			s.Close()
		}(i, s)
	}

	demuxDone := make(chan struct{})
	go func() {
		demux.Demux(p.in, outsSend, ranges)
		for _, o := range outs {
			close(o)
		}
		close(demuxDone)
	}()

	go func() {
		<-demuxDone
		p.wg.Wait()
		close(p.done)
	}()

	log.Printf("player: pipeline started for %d controllers", len(controllers))
	return p, nil
}

// stop closes the input channel, which drains through the demuxer and
// senders, and blocks until every goroutine has exited.
func (p *pipeline) stop() {
	close(p.in)
	<-p.done
}
