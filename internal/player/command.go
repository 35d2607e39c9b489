// Package player implements the top-level show player: a single state
// machine that owns the controller output pipeline and switches between
// idling, running the schedule, playing a specific playlist or sequence on
// demand, and rendering test patterns.
package player

import "github.com/plextuner/ledshowd/internal/pattern"

// Command is the closed set of instructions the player accepts, mirroring
// the original's PlayerState command variant: Schedule, Playlist(name),
// Sequence(name), Test(spec), Stop.
type Command interface {
	isCommand()
}

// CmdSchedule starts the 10 s schedule poller.
type CmdSchedule struct{}

func (CmdSchedule) isCommand() {}

// CmdPlaylist plays one named playlist directly, bypassing the schedule.
type CmdPlaylist struct {
	Name string
}

func (CmdPlaylist) isCommand() {}

// CmdSequence plays a single named sequence on a loop, bypassing the
// schedule and playlist machinery.
type CmdSequence struct {
	Name string
}

func (CmdSequence) isCommand() {}

// CmdTest renders a test pattern spec against a set of models.
type CmdTest struct {
	Request TestRequest
}

func (CmdTest) isCommand() {}

// CmdStop tears down whichever sub-state is currently running.
type CmdStop struct{}

func (CmdStop) isCommand() {}

// Model is a named LED string: its starting DMX/pixel channel (1-based, as
// read from models.json) and total channel count (must be a multiple of 3).
type Model struct {
	Name         string
	StartChannel int
	ChannelCount int
}

// TestRequest pairs a pattern.TestSpec with the model definitions its
// Tests map's keys refer to, since resolving a model name to
// (start_channel_index, led_count) requires the model table.
type TestRequest struct {
	Spec   pattern.TestSpec
	Models map[string]Model
}

// Status is the player's observable state, distinct from the Command that
// drives it.
type Status int

const (
	StatusStopped Status = iota
	StatusScheduler
	StatusPlaylist
	StatusSequence
	StatusTesting
)

func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusScheduler:
		return "scheduler"
	case StatusPlaylist:
		return "playlist"
	case StatusSequence:
		return "sequence"
	case StatusTesting:
		return "testing"
	default:
		return "unknown"
	}
}

// FPPStatus is a read-model snapshot of Status plus the subset of fields an
// FPP-remote-control compatibility surface would report (status name, the
// currently-playing sequence/playlist, and elapsed/remaining seconds), served
// as-is by webapi's /api/scheduler handler.
type FPPStatus struct {
	StatusName       string  `json:"status_name"`
	Sequence         string  `json:"sequence"`
	CurrentPlaylist  string  `json:"current_playlist"`
	SecondsPlayed    float64 `json:"seconds_played"`
	SecondsRemaining float64 `json:"seconds_remaining"`
}
