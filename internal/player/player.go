package player

import (
	"context"
	"log"
	"sync"

	"github.com/plextuner/ledshowd/internal/ddp"
	"github.com/plextuner/ledshowd/internal/store"
)

// Config holds what the player needs beyond a Store: the controller map
// (already validated/sorted by ddp.NewControllerSet) and whether to
// auto-start the scheduler on boot.
type Config struct {
	Controllers []ddp.Controller
	AutoStart   bool
}

// Player is the top-level state machine: Idle/Scheduler/Playlist/Sequence/
// Test/Stop, realized as a single goroutine selecting on a command channel,
// grounded on internal/supervisor's root-context + child-cancel-scope loop
// shape and the original's start_scheduler/scheduler Stop-drains-first
// transition rule.
type Player struct {
	cfg   Config
	store store.Store

	cmdCh chan Command

	mu     sync.Mutex
	status Status
	detail FPPStatus
}

// New builds a Player. Call Run to start its state machine.
func New(cfg Config, st store.Store) *Player {
	return &Player{
		cfg:    cfg,
		store:  st,
		cmdCh:  make(chan Command, 4),
		status: StatusStopped,
	}
}

// Enqueue submits a command. Any command other than Stop first enqueues a
// synthetic Stop so the currently-running sub-state drains before the new
// one starts — the one place commands are not delivered straight FIFO, per
// the original's "Stop always wins" rule.
func (p *Player) Enqueue(cmd Command) {
	if _, ok := cmd.(CmdStop); !ok {
		select {
		case p.cmdCh <- CmdStop{}:
		default:
		}
	}
	p.cmdCh <- cmd
}

// Status reports the player's current high-level state and FPP-style
// status projection.
func (p *Player) Status() (Status, FPPStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status, p.detail
}

func (p *Player) setStatus(s Status, detail FPPStatus) {
	p.mu.Lock()
	p.status = s
	p.detail = detail
	p.mu.Unlock()
}

// Run drives the state machine until ctx is canceled. It auto-starts the
// scheduler if Config.AutoStart is set.
func (p *Player) Run(ctx context.Context) error {
	log.Printf("player: started")
	if p.cfg.AutoStart {
		p.cmdCh <- CmdSchedule{}
	}

	for {
		select {
		case <-ctx.Done():
			log.Printf("player: stopped (%v)", ctx.Err())
			return ctx.Err()
		case cmd := <-p.cmdCh:
			p.dispatch(ctx, cmd)
		}
	}
}

func (p *Player) dispatch(ctx context.Context, cmd Command) {
	switch c := cmd.(type) {
	case CmdStop:
		// Nothing was running; a bare Stop while idle is a no-op.
		p.setStatus(StatusStopped, FPPStatus{StatusName: StatusStopped.String()})
	case CmdSchedule:
		p.runScheduler(ctx)
		p.setStatus(StatusStopped, FPPStatus{StatusName: StatusStopped.String()})
	case CmdPlaylist:
		p.runNamedPlaylist(ctx, c.Name)
		p.setStatus(StatusStopped, FPPStatus{StatusName: StatusStopped.String()})
	case CmdSequence:
		p.runNamedSequence(ctx, c.Name)
		p.setStatus(StatusStopped, FPPStatus{StatusName: StatusStopped.String()})
	case CmdTest:
		p.runTest(ctx, c.Request)
		p.setStatus(StatusStopped, FPPStatus{StatusName: StatusStopped.String()})
	default:
		log.Printf("player: unknown command %T", cmd)
	}
}
