package daemon

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/siphor/siphor/internal/api"
	"github.com/siphor/siphor/internal/app/backup"
	"github.com/siphor/siphor/internal/app/bank"
	"github.com/siphor/siphor/internal/app/bounty"
	"github.com/siphor/siphor/internal/app/goals"
	"github.com/siphor/siphor/internal/app/history"
	"github.com/siphor/siphor/internal/app/ledger"
	"github.com/siphor/siphor/internal/domain"
	"github.com/siphor/siphor/internal/infra/catalog"
	"github.com/siphor/siphor/internal/infra/sqlite"
)

// Daemon holds the wired application: the database, every service, and the
// HTTP server. Build one with New, run it with Run.
type Daemon struct {
	cfg Config
	db  *sqlite.DB

	Ledger  *ledger.Service
	Goals   *goals.Service
	History *history.Service
	Bank    *bank.Service
	Bounty  *bounty.Service
	Backup  *backup.Service
	Catalog *catalog.Catalog

	server *api.Server
}

// New opens storage and wires every service from the configuration.
func New(cfg Config) (*Daemon, error) {
	dir := cfg.DataDir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := sqlite.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	cat := catalog.Default()
	if cfg.Scoring.CatalogPath != "" {
		cat, err = catalog.Load(cfg.Scoring.CatalogPath)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("load catalog: %w", err)
		}
	}

	hist := history.New(db, cfg.Scoring.InitialTotal)
	bk := bank.New(db)
	gl := goals.New(db, cat)
	led := ledger.New(db, cat, gl, hist, bk)
	bo := bounty.New(db, hist)
	bkp := backup.New(db)

	srv := api.NewServer(led, gl, hist, bk, bo, bkp, cat)
	if cfg.API.Metrics {
		srv.EnableMetrics()
	}

	return &Daemon{
		cfg:     cfg,
		db:      db,
		Ledger:  led,
		Goals:   gl,
		History: hist,
		Bank:    bk,
		Bounty:  bo,
		Backup:  bkp,
		Catalog: cat,
		server:  srv,
	}, nil
}

// Close releases the database handle.
func (d *Daemon) Close() error {
	return d.db.Close()
}

// Run serves the API and keeps running timers persisted until ctx is
// cancelled, then shuts down gracefully.
func (d *Daemon) Run(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:              d.cfg.API.Addr(),
		Handler:           d.server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[daemon] listening on http://%s", d.cfg.API.Addr())
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	go d.tickLoop(ctx)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	log.Printf("[daemon] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// tickLoop materializes elapsed time for running timers so an unclean exit
// loses at most one interval. Yesterday is ticked too: after midnight that
// folds any timer left running on the board that just lost editability.
func (d *Daemon) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.TickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			today := domain.DateKey(time.Now())
			if _, err := d.Ledger.Tick(today); err != nil {
				log.Printf("[daemon] timer tick: %v", err)
			}
			if _, err := d.Ledger.Tick(domain.PrevDateKey(today)); err != nil {
				log.Printf("[daemon] timer tick: %v", err)
			}
		}
	}
}
