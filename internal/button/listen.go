package button

import (
	"bufio"
	"encoding/json"
	"io"
	"log"

	"github.com/plextuner/ledshowd/internal/player"
	"github.com/plextuner/ledshowd/internal/store"
)

// Enqueuer is the subset of *player.Player a button listener needs, kept as
// an interface so Listen can be driven by a fake in tests.
type Enqueuer interface {
	Enqueue(cmd player.Command)
}

// Persister is the subset of store.Store a button listener needs.
type Persister interface {
	UpdateButton(st store.ButtonState) error
}

// Listen reads newline-framed JSON State lines off rw until it returns an
// error (including io.EOF on close), dispatching cfg.Action to p on every
// input=true edge and persisting every observed state to st. Opening the
// actual serial device (baud rate, device path) is left to the caller;
// rw may be a live UART or, in tests, an in-memory pipe.
//
// Grounded on the teacher's bufio.Scanner line-reading idiom
// (internal/supervisor.copyPrefixed) generalized from "log every line" to
// "decode and dispatch every line".
func Listen(rw io.ReadWriteCloser, cfg Config, p Enqueuer, st Persister) error {
	sc := bufio.NewScanner(rw)
	wasInput := false

	for sc.Scan() {
		line := sc.Text()
		var s State
		if err := json.Unmarshal([]byte(line), &s); err != nil {
			log.Printf("button %s: bad line %q: %v", cfg.ID, line, err)
			continue
		}

		if s.Input && !wasInput {
			log.Printf("button %s: pressed, firing %s", cfg.ID, ActionString(cfg.Action))
			if cmd := toCommand(cfg.Action); cmd != nil {
				p.Enqueue(cmd)
			}
		}
		wasInput = s.Input

		now := s.Last
		if s.Now != nil {
			now = *s.Now
		}
		bst := store.ButtonState{
			ID:      cfg.ID,
			Status:  s.Status,
			Error:   s.Error,
			Battery: s.Battery,
			Input:   s.Input,
			Last:    s.Last,
			Now:     now,
		}
		if err := st.UpdateButton(bst); err != nil {
			log.Printf("button %s: update store: %v", cfg.ID, err)
		}
	}
	return sc.Err()
}

func toCommand(a Action) player.Command {
	switch v := a.(type) {
	case ActionSchedule:
		return player.CmdSchedule{}
	case ActionPlaylist:
		return player.CmdPlaylist{Name: v.Target}
	case ActionSequence:
		return player.CmdSequence{Name: v.Target}
	case ActionStop:
		return player.CmdStop{}
	default:
		return nil
	}
}
