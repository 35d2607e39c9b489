// Command ledshowd plays FSEQ sequences across DDP controllers on a
// schedule, answers PDDF/Ping discovery probes, and accepts remote-control
// commands over a small in-process command channel.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/plextuner/ledshowd/internal/bootstrap"
	"github.com/plextuner/ledshowd/internal/config"
	"github.com/plextuner/ledshowd/internal/ddp"
	"github.com/plextuner/ledshowd/internal/discovery"
	"github.com/plextuner/ledshowd/internal/player"
	"github.com/plextuner/ledshowd/internal/storage"
	"github.com/plextuner/ledshowd/internal/store"
	"github.com/plextuner/ledshowd/internal/supervisor"
	"github.com/plextuner/ledshowd/internal/webapi"
)

func main() {
	if supervisorConfig := os.Getenv("SUPERVISOR_CONFIG"); supervisorConfig != "" {
		// Runs this same binary as a supervisor managing several ledshowd (or
		// companion) processes instead of playing anything itself — for
		// installs that split one zone per instance but want one process
		// tree and one restart policy.
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			<-sig
			cancel()
		}()
		if err := supervisor.Run(ctx, supervisorConfig); err != nil && ctx.Err() == nil {
			log.Fatalf("supervisor: %v", err)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	for _, dir := range storage.Layout(cfg.Storage) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("storage: mkdir %s: %v", dir, err)
		}
	}

	st, err := store.Open(dbPath(cfg.DatabaseURL))
	if err != nil {
		log.Fatalf("store: %v", err)
	}

	controllers, err := loadControllers(cfg.Storage)
	if err != nil {
		log.Fatalf("controllers: %v", err)
	}
	controllers, err = ddp.NewControllerSet(controllers)
	if err != nil {
		log.Fatalf("controllers: %v", err)
	}

	p := player.New(player.Config{
		Controllers: controllers,
		AutoStart:   cfg.Scheduler.AutoStartOrDefault(),
	}, st)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resp := discovery.NewResponder(discovery.Identity{
		Hostname:     hostname(),
		Version:      "1.0",
		HardwareName: "ledshowd",
		HardwareType: discovery.HardwareFpp,
	})
	if cfg.MulticastOrDefault() {
		go resp.Listen(ctx, cancel)
	}

	buttons, err := cfg.ButtonConfigs()
	if err != nil {
		log.Fatalf("buttons: %v", err)
	}
	for _, b := range buttons {
		log.Printf("button %s configured on %s (serial I/O not wired; connect a device and call button.Listen)", b.ID, b.Device)
	}

	if cfg.Web != nil {
		addr := fmt.Sprintf("%s:%d", cfg.Web.Bind, cfg.Web.Port)
		mux := webapi.NewMux(p)
		go func() {
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Fatalf("http: %v", err)
			}
		}()
		go selfCheck(ctx, fmt.Sprintf("127.0.0.1:%d", cfg.Web.Port))
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Printf("shutting down")
		cancel()
	}()

	if err := p.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("player: %v", err)
	}
}

// dbPath strips an optional "sqlite://" scheme from a database_url config
// value, since store.Open takes a plain filesystem path.
func dbPath(databaseURL string) string {
	return strings.TrimPrefix(databaseURL, "sqlite://")
}

// loadControllers reads outputs.json from the storage root's "other" bucket,
// where an operator-managed fixture is expected to live alongside the
// sequence/media caches.
func loadControllers(storageRoot string) ([]ddp.Controller, error) {
	path := filepath.Join(storageRoot, storage.DirOther.String(), "outputs.json")
	controllers, err := bootstrap.LoadControllers(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return controllers, nil
}

// selfCheck pings the HTTP surface's own /healthz once shortly after
// startup and logs the result, exercising store.Ping's retry/backoff client
// against a live endpoint instead of leaving it a write-only helper.
func selfCheck(ctx context.Context, addr string) {
	time.Sleep(200 * time.Millisecond)
	if err := store.Ping(ctx, "http://"+addr); err != nil {
		log.Printf("selfcheck: %v", err)
		return
	}
	log.Printf("selfcheck: http surface up on %s", addr)
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "ledshowd"
	}
	return h
}
