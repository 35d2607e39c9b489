package button

import (
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/plextuner/ledshowd/internal/player"
	"github.com/plextuner/ledshowd/internal/store"
)

// readOnlyRWC adapts an io.Reader into an io.ReadWriteCloser for tests that
// never write back to the "serial line".
type readOnlyRWC struct {
	io.Reader
}

func (readOnlyRWC) Write(p []byte) (int, error) { return len(p), nil }
func (readOnlyRWC) Close() error                { return nil }

type fakeEnqueuer struct {
	mu   sync.Mutex
	cmds []player.Command
}

func (f *fakeEnqueuer) Enqueue(cmd player.Command) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cmds = append(f.cmds, cmd)
}

type fakePersister struct {
	mu    sync.Mutex
	seen  []store.ButtonState
	failN int
}

func (f *fakePersister) UpdateButton(st store.ButtonState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, st)
	if f.failN > 0 {
		f.failN--
		return errors.New("boom")
	}
	return nil
}

func TestListen_DispatchesOnInputEdge(t *testing.T) {
	lines := `{"status":"ok","error":"","battery":3.7,"input":false,"last":1}
{"status":"ok","error":"","battery":3.7,"input":true,"last":2}
{"status":"ok","error":"","battery":3.7,"input":true,"last":3}
{"status":"ok","error":"","battery":3.7,"input":false,"last":4}
`
	rwc := readOnlyRWC{Reader: strings.NewReader(lines)}
	enq := &fakeEnqueuer{}
	per := &fakePersister{}

	cfg := Config{ID: "b1", Action: ActionPlaylist{Target: "evening"}}
	if err := Listen(rwc, cfg, enq, per); err != nil {
		t.Fatalf("Listen: %v", err)
	}

	if len(enq.cmds) != 1 {
		t.Fatalf("got %d commands, want 1 (only the rising edge fires)", len(enq.cmds))
	}
	cmd, ok := enq.cmds[0].(player.CmdPlaylist)
	if !ok || cmd.Name != "evening" {
		t.Errorf("command = %+v, want CmdPlaylist{Name: evening}", enq.cmds[0])
	}
	if len(per.seen) != 4 {
		t.Errorf("got %d persisted states, want 4 (every line persisted)", len(per.seen))
	}
}

func TestListen_IgnoresBadLines(t *testing.T) {
	lines := "not json\n{\"input\":true,\"last\":1}\n"
	rwc := readOnlyRWC{Reader: strings.NewReader(lines)}
	enq := &fakeEnqueuer{}
	per := &fakePersister{}

	cfg := Config{ID: "b1", Action: ActionStop{}}
	if err := Listen(rwc, cfg, enq, per); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	if len(enq.cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(enq.cmds))
	}
	if len(per.seen) != 1 {
		t.Fatalf("got %d persisted states, want 1", len(per.seen))
	}
}

func TestListen_NowFallsBackToLast(t *testing.T) {
	rwc := readOnlyRWC{Reader: strings.NewReader(`{"input":false,"last":42}` + "\n")}
	per := &fakePersister{}
	if err := Listen(rwc, Config{ID: "b1", Action: ActionSchedule{}}, &fakeEnqueuer{}, per); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	if per.seen[0].Now != 42 {
		t.Errorf("Now = %d, want 42 (falls back to Last when absent)", per.seen[0].Now)
	}
}

func TestListen_PersistErrorDoesNotStopLoop(t *testing.T) {
	rwc := readOnlyRWC{Reader: strings.NewReader("{\"input\":false,\"last\":1}\n{\"input\":false,\"last\":2}\n")}
	per := &fakePersister{failN: 1}
	if err := Listen(rwc, Config{ID: "b1", Action: ActionSchedule{}}, &fakeEnqueuer{}, per); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	if len(per.seen) != 2 {
		t.Errorf("got %d persisted attempts, want 2", len(per.seen))
	}
}
