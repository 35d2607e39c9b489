// Package webapi sketches the HTTP/REST surface the spec deliberately
// leaves out of core scope: Routes lists the full route table without
// handlers, and NewMux serves a small working subset of it.
package webapi

import "net/http"

// Route is one entry in the HTTP surface: method, path pattern (in Go 1.22+
// http.ServeMux syntax), and a one-line description of what it does.
type Route struct {
	Method      string
	Pattern     string
	Description string
}

// Routes returns the full sketched route table, mirroring the shape of
// spec.md §6's Store interface list (names and paths only, no handlers)
// and grounded on the teacher's http.NewServeMux registration style
// (cmd/plex-tuner/main.go).
func Routes() []Route {
	return []Route{
		{http.MethodPost, "/api/upload", "classify and store an uploaded sequence or media file"},
		{http.MethodGet, "/api/sequences", "list cached sequence metadata"},
		{http.MethodGet, "/api/sequence/{name}", "fetch one sequence's cached metadata"},
		{http.MethodDelete, "/api/sequence/{name}", "delete a sequence and its cached metadata"},
		{http.MethodGet, "/api/playlists", "list playlists"},
		{http.MethodPost, "/api/playlist", "create a playlist"},
		{http.MethodGet, "/api/playlist/{name}", "fetch one playlist and its entries"},
		{http.MethodPut, "/api/playlist/{name}", "replace a playlist's entries"},
		{http.MethodDelete, "/api/playlist/{name}", "delete a playlist"},
		{http.MethodGet, "/api/schedules", "list schedules"},
		{http.MethodPost, "/api/schedule", "create a schedule"},
		{http.MethodGet, "/api/schedule/{name}", "fetch one schedule"},
		{http.MethodPut, "/api/schedule/{name}", "update a schedule"},
		{http.MethodDelete, "/api/schedule/{name}", "delete a schedule"},
		{http.MethodGet, "/api/scheduler", "report the player's current status"},
		{http.MethodPost, "/api/scheduler/start", "enqueue player.CmdSchedule"},
		{http.MethodPost, "/api/scheduler/stop", "enqueue player.CmdStop"},
		{http.MethodPost, "/api/test/run", "enqueue player.CmdTest with the request body's spec"},
		{http.MethodGet, "/api/models", "fetch the configured model table"},
		{http.MethodPost, "/api/models", "replace the configured model table"},
		{http.MethodGet, "/api/buttons/{id}", "fetch one button's last observed state"},
		{http.MethodGet, "/fppxml.php", "FPP remote-control compatibility status endpoint"},
	}
}
