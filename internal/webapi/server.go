package webapi

import (
	"encoding/json"
	"net/http"

	"github.com/plextuner/ledshowd/internal/player"
)

// Enqueuer is the subset of *player.Player the HTTP surface needs to
// enqueue commands.
type Enqueuer interface {
	Enqueue(cmd player.Command)
	Status() (player.Status, player.FPPStatus)
}

// NewMux wires the handful of Routes() entries that need no request-body
// schema beyond what player.Command already defines (scheduler status and
// start/stop), plus a plain /healthz liveness probe that Routes() does not
// list. The rest of Routes() documents the full surface this repo leaves
// unimplemented.
func NewMux(p Enqueuer) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/scheduler", func(w http.ResponseWriter, r *http.Request) {
		status, detail := p.Status()
		detail.StatusName = status.String()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(detail)
	})

	mux.HandleFunc("/api/scheduler/start", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		p.Enqueue(player.CmdSchedule{})
		w.WriteHeader(http.StatusAccepted)
	})

	mux.HandleFunc("/api/scheduler/stop", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		p.Enqueue(player.CmdStop{})
		w.WriteHeader(http.StatusAccepted)
	})

	return mux
}
