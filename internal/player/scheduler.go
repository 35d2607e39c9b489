package player

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/plextuner/ledshowd/internal/demux"
	"github.com/plextuner/ledshowd/internal/fseq"
	"github.com/plextuner/ledshowd/internal/store"
)

// runScheduler implements spec.md's Scheduler sub-state: poll the store
// every 10 s for an active schedule and play it when found. Grounded on the
// original's scheduler()/check_for_schedules pair; time.Ticker's buffer-1
// channel already drops missed ticks under load, matching the original's
// explicit MissedTickBehavior::Skip.
func (p *Player) runScheduler(ctx context.Context) {
	p.setStatus(StatusScheduler, FPPStatus{StatusName: StatusScheduler.String()})
	log.Printf("player: scheduler started")

	p.checkForSchedule(ctx)

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("player: scheduler stopped (%v)", ctx.Err())
			return
		case cmd := <-p.cmdCh:
			if _, ok := cmd.(CmdStop); ok {
				log.Printf("player: scheduler stopped")
				return
			}
			log.Printf("player: scheduler ignoring command %T while active", cmd)
		case <-ticker.C:
			p.checkForSchedule(ctx)
		}
	}
}

func (p *Player) checkForSchedule(ctx context.Context) {
	sched, playlist, seqs, err := p.store.CurrentSchedule(time.Now())
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("player: error checking schedule: %v", err)
		}
		return
	}
	log.Printf("player: schedule found: %s", sched.Name)
	p.playSchedule(ctx, sched, playlist, seqs)
}

// playSchedule iterates playlist entries cyclically until the schedule's
// end time, a Stop command, or ctx cancellation, per spec.md §4.4's
// play_schedule semantics (including the play_once=false "loop on itself
// forever" behavior, preserved verbatim per DESIGN.md's Open Question
// decision).
func (p *Player) playSchedule(ctx context.Context, sched *store.Schedule, playlist *store.Playlist, seqs []store.PlaylistSequence) {
	if len(seqs) == 0 {
		log.Printf("player: schedule %s: playlist %s has no enabled entries", sched.Name, playlist.Name)
		return
	}

	pipe, err := startPipeline(p.cfg.Controllers)
	if err != nil {
		log.Printf("player: playlist %s: %v", playlist.Name, err)
		return
	}
	defer pipe.stop()

	now := time.Now()
	endAt := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
		Add(time.Duration(sched.EndTime) * time.Second)
	endTimer := time.NewTimer(time.Until(endAt))
	defer endTimer.Stop()

	log.Printf("player: starting playlist %s, ending at %s", playlist.Name, endAt)

	p.runPlaylistLoop(ctx, playlist, seqs, endTimer.C, pipe.in)
}

// runPlaylistLoop is playSchedule's per-entry tick loop, split out as its
// own seam so the play-once/loop-count bookkeeping can be exercised against
// a plain channel in tests without opening real controller sockets.
func (p *Player) runPlaylistLoop(ctx context.Context, playlist *store.Playlist, seqs []store.PlaylistSequence, end <-chan time.Time, sink chan<- demux.FrameSlice) {
	var loopCount int32
	seqIdx := 0
	var reader *fseq.Sequence
	defer func() {
		if reader != nil {
			reader.Close()
		}
	}()

	for playlist.Repeat || loopCount < playlist.LoopCount {
		entry := seqs[seqIdx]
		if reader == nil {
			r, err := fseq.Open(entry.Meta.Path)
			if err != nil {
				log.Printf("player: open sequence %s: %v", entry.Meta.Name, err)
				return
			}
			reader = r
			log.Printf("player: loaded sequence %s (%d frames @ %dms)", entry.Meta.Name, reader.FrameCount, reader.StepTimeMS)
		}

		frame := uint32(0)
		stepTicker := time.NewTicker(time.Duration(reader.StepTimeMS) * time.Millisecond)

		for frame < reader.FrameCount {
			select {
			case <-ctx.Done():
				stepTicker.Stop()
				return
			case <-end:
				stepTicker.Stop()
				return
			case cmd := <-p.cmdCh:
				if _, ok := cmd.(CmdStop); ok {
					stepTicker.Stop()
					return
				}
			case <-stepTicker.C:
				data, err := reader.Frame(frame)
				if err != nil {
					if errors.Is(err, fseq.ErrFrameNotFound) {
						frame = reader.FrameCount
						break
					}
					log.Printf("player: read frame %d of %s: %v", frame, entry.Meta.Name, err)
					frame = reader.FrameCount
					break
				}
				select {
				case sink <- demux.FrameSlice{Offset: 0, Data: data}:
				case <-ctx.Done():
					stepTicker.Stop()
					return
				}
				frame++
			}
		}
		stepTicker.Stop()

		if entry.PlayOnce {
			reader.Close()
			reader = nil
			seqIdx++
			if seqIdx >= len(seqs) {
				loopCount++
				seqIdx = 0
			}
		}
	}
}

// runNamedPlaylist plays one playlist directly, bypassing schedule
// gating, for a manual Playlist(name) command.
func (p *Player) runNamedPlaylist(ctx context.Context, name string) {
	p.setStatus(StatusPlaylist, FPPStatus{StatusName: StatusPlaylist.String(), CurrentPlaylist: name})
	lookup, ok := p.store.(namedLookup)
	if !ok {
		log.Printf("player: store does not support direct playlist lookup, ignoring Playlist(%s)", name)
		return
	}
	playlist, seqs, err := lookup.Playlist(name)
	if err != nil {
		log.Printf("player: playlist %s: %v", name, err)
		return
	}
	p.playSchedule(ctx, &store.Schedule{Name: name, EndTime: 86399}, playlist, seqs)
}

// runNamedSequence plays one sequence on a loop for a manual Sequence(name)
// command.
func (p *Player) runNamedSequence(ctx context.Context, name string) {
	p.setStatus(StatusSequence, FPPStatus{StatusName: StatusSequence.String(), Sequence: name})
	lookup, ok := p.store.(namedLookup)
	if !ok {
		log.Printf("player: store does not support direct sequence lookup, ignoring Sequence(%s)", name)
		return
	}
	meta, err := lookup.SequenceMeta(name)
	if err != nil {
		log.Printf("player: sequence %s: %v", name, err)
		return
	}
	playlist := &store.Playlist{
		Name:   name,
		Repeat: true,
		Entries: []store.PlaylistEntry{
			{SequenceName: name, Enabled: true, PlayOnce: false, SortBy: 0},
		},
	}
	seqs := []store.PlaylistSequence{{PlayOnce: false, Meta: *meta}}
	p.playSchedule(ctx, &store.Schedule{Name: name, EndTime: 86399}, playlist, seqs)
}

// namedLookup is the optional capability a Store implementation may offer
// for direct by-name playlist/sequence access, beyond the four-method core
// Store interface (spec.md §6 names only CurrentSchedule/Button/
// UpdateButton/UpsertSequenceMeta).
type namedLookup interface {
	Playlist(name string) (*store.Playlist, []store.PlaylistSequence, error)
	SequenceMeta(name string) (*store.SequenceMeta, error)
}
