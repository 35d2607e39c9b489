// Package button implements the physical push-button protocol: a
// newline-framed JSON line per button state read off a serial line (or any
// io.ReadWriteCloser standing in for one), dispatching a player command on
// an input=true edge and persisting the observed state to the store.
package button

import "fmt"

// State mirrors the button JSON schema read off the wire and persisted to
// the store: status/error/battery are free-form telemetry the button
// firmware reports alongside the two fields that matter to playback,
// Input (the momentary press bit) and Last/Now (press timestamps).
type State struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Battery float64 `json:"battery"`
	Input   bool   `json:"input"`
	Last    int64  `json:"last"`
	Now     *int64 `json:"now,omitempty"`
}

// Action is the closed set of commands a button can be configured to
// trigger on a press, mirroring spec.md's Schedule|Playlist(target)|
// Sequence(target)|Stop.
type Action interface {
	isAction()
}

type ActionSchedule struct{}

func (ActionSchedule) isAction() {}

type ActionPlaylist struct {
	Target string
}

func (ActionPlaylist) isAction() {}

type ActionSequence struct {
	Target string
}

func (ActionSequence) isAction() {}

type ActionStop struct{}

func (ActionStop) isAction() {}

// ActionString renders an Action for logging.
func ActionString(a Action) string {
	switch v := a.(type) {
	case ActionSchedule:
		return "schedule"
	case ActionPlaylist:
		return fmt.Sprintf("playlist(%s)", v.Target)
	case ActionSequence:
		return fmt.Sprintf("sequence(%s)", v.Target)
	case ActionStop:
		return "stop"
	default:
		return "unknown"
	}
}

// Config is one configured button: its serial device, baud rate, and the
// Action to fire on a press.
type Config struct {
	ID       string
	Device   string
	Baudrate int
	Action   Action
}

// Baud returns Baudrate, defaulting to 9600 per spec.md §6.
func (c Config) Baud() int {
	if c.Baudrate == 0 {
		return 9600
	}
	return c.Baudrate
}
