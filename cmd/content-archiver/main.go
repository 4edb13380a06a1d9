package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"reflect"
	"syscall"
	"time"

	"github.com/wrenware/content-archiver/internal/archive"
	"github.com/wrenware/content-archiver/internal/config"
	"github.com/wrenware/content-archiver/internal/content"
	"github.com/wrenware/content-archiver/internal/engine"
	"github.com/wrenware/content-archiver/internal/fs"
	"github.com/wrenware/content-archiver/internal/logging"
	"github.com/wrenware/content-archiver/internal/reload"
	"github.com/wrenware/content-archiver/internal/retention"
	"github.com/wrenware/content-archiver/internal/rules"
	"github.com/wrenware/content-archiver/internal/scheduler"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	consolidate := flag.String("consolidate", "", "merge current content into a copy of the named archive, print the result path and exit")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("shutting down...")
		cancel()
	}()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logg, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}

	fsys := fs.New()

	// Handlers, in registration order. The bundled content handler is the
	// only one the daemon ships; embedders register their own.
	var handlers []engine.Handler
	if cfg.Content.Path != "" {
		handlers = append(handlers, content.New(cfg.Content.Path, logg))
	} else {
		logg.Warn("no content path configured, backups will be empty")
	}

	// One-shot consolidation runs outside the scheduler entirely.
	if *consolidate != "" {
		c := engine.NewConsolidator(cfg.Backups.Directory, handlers, fsys, logg)
		result, err := c.Consolidate(ctx, *consolidate)
		if err != nil {
			log.Fatalf("consolidation failed: %v", err)
		}
		fmt.Println(result)
		return
	}

	scanner := archive.NewScanner(logg)
	store := rules.NewStore(cfg.Backups.Directory, cfg.Backups.Rules, scanner, logg)
	ret := retention.New(fsys, logg)
	exec := engine.NewExecutor(cfg.Backups.Directory, store, handlers, ret, logg)
	guard := engine.NewGuard(cfg.Backups.Directory, exec, fsys, logg)

	// Replay existing archives before any scheduling starts.
	engine.NewLoader(cfg.Backups.Directory, handlers, logg).Load()

	sched := scheduler.New(guard, cfg.Backups.CheckInterval, logg)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}

	// The rule list is fixed for the process lifetime; a reload can only
	// adjust the check interval.
	apply := func(newCfg *config.Config) {
		if !reflect.DeepEqual(newCfg.Backups.Rules, cfg.Backups.Rules) {
			logg.Warn("backup rules changed on disk, restart to apply")
		}
		sched.UpdateCheckInterval(newCfg.Backups.CheckInterval)
	}

	// Hot reload on SIGHUP
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGHUP)

		for range sigCh {
			newCfg, err := config.Load(*configPath)
			if err != nil {
				logg.Error("config reload failed", "error", err)
				continue
			}
			logg.Info("config reloaded")
			apply(newCfg)
		}
	}()

	if cfg.ConfigReload.Enabled {
		if err := reload.New(*configPath, logg, apply).Start(ctx); err != nil {
			logg.Error("config file watch unavailable", "error", err)
		}
	}

	<-ctx.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()
	sched.Stop(stopCtx)

	log.Println("exit complete")
}
