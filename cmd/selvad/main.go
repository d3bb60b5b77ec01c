// Copyright 2026 The Selva Authors
// This file is part of Selva.
//
// Selva is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Selva is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Selva. If not, see <http://www.gnu.org/licenses/>.

// Command selvad wires every store and collaborator in this module into one
// running process: it loads configuration, restores a hierarchy dump if one
// exists, starts the background timers spec.md §4.6 calls for (auto-index
// ICB/hierarchy ticks, the detached-subtree compression sweep), serves
// Prometheus metrics, and periodically (and on shutdown) writes a fresh
// dump. It never opens a command-wire listener: that framing is this
// module's explicit non-goal, so selvad's Registry is built and left for an
// embedding caller to drive directly.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/selvadb/selva/internal/autoindex"
	"github.com/selvadb/selva/internal/command"
	"github.com/selvadb/selva/internal/config"
	"github.com/selvadb/selva/internal/hierarchy"
	"github.com/selvadb/selva/internal/memguard"
	"github.com/selvadb/selva/internal/metrics"
	"github.com/selvadb/selva/internal/modify"
	"github.com/selvadb/selva/internal/persist"
	"github.com/selvadb/selva/internal/selvalog"
	"github.com/selvadb/selva/internal/subscription"
	"golang.org/x/sync/errgroup"
)

var log = selvalog.New("component", "selvad")

func main() {
	configPath := flag.String("config", "", "path to a TOML config file (optional; defaults and env vars apply regardless)")
	dumpPath := flag.String("dump", "selva.dump", "path to the on-disk hierarchy dump")
	dumpInterval := flag.Duration("dump-interval", 5*time.Minute, "how often to write a fresh dump while running")
	metricsAddr := flag.String("metrics-addr", ":9090", "address to serve /metrics on")
	replicationBuffer := flag.Int("replication-buffer", 4096, "capacity of the in-memory replication ring buffer")
	flag.Parse()

	if err := run(*configPath, *dumpPath, *dumpInterval, *metricsAddr, *replicationBuffer); err != nil {
		log.Crit("selvad exiting", "err", err)
		os.Exit(1)
	}
}

func run(configPath, dumpPath string, dumpInterval time.Duration, metricsAddr string, replicationBuffer int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	h, err := openHierarchy(dumpPath)
	if err != nil {
		return err
	}
	sub := subscription.NewManager(h)
	h.SetEventSink(sub)
	idx := autoindex.NewEngine(h, sub, cfg.Find.AutoindexConfig())
	replication := modify.NewRingBuffer(replicationBuffer)
	modOp := modify.Operation{Hierarchy: h, Subscription: sub, Replication: replication}

	core := command.NewCore(h, sub, idx, modOp)
	reg := command.NewRegistry(core)
	log.Info("command registry ready", "commands", len(reg.Names()))

	promReg := prometheus.NewRegistry()
	mc := metrics.New(promReg)
	core.SetMetrics(mc)

	detached := persist.NewDetachedStore(cfg.Hierarchy.CompressionLevel)
	core.SetDetachedStore(detached)

	mon, err := memguard.New(0)
	if err != nil {
		return err
	}
	log.Info("memory budget", "bytes", mon.Budget(), "system_total", mon.TotalSystemMemory())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return idx.Run(gctx, cfg.Find.ICBUpdateInterval(), cfg.Find.IndexingInterval()) })
	g.Go(func() error { return detached.Run(gctx, cfg.Hierarchy.AutoCompressPeriod(), cfg.Hierarchy.AutoCompressOldAgeLim()) })
	g.Go(func() error { return pollMetrics(gctx, mc, sub, replication, idx, mon) })
	g.Go(func() error { return serveMetrics(gctx, metricsAddr, promReg) })
	g.Go(func() error { return periodicDump(gctx, h, dumpPath, dumpInterval, cfg.Hierarchy.CompressionLevel) })

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("background task failed", "err", err)
	}

	log.Info("writing final dump before exit", "path", dumpPath)
	if dumpErr := persist.Dump(h, dumpPath, true, cfg.Hierarchy.CompressionLevel); dumpErr != nil {
		log.Error("final dump failed", "err", dumpErr)
		return dumpErr
	}
	return nil
}

// openHierarchy restores dumpPath if it exists, otherwise starts empty. A
// missing file is the expected first-run state, not a failure.
func openHierarchy(dumpPath string) (*hierarchy.Hierarchy, error) {
	if _, err := os.Stat(dumpPath); err != nil {
		if os.IsNotExist(err) {
			log.Info("no existing dump, starting empty", "path", dumpPath)
			return hierarchy.New(), nil
		}
		return nil, err
	}
	h, err := persist.Load(dumpPath)
	if err != nil {
		return nil, err
	}
	log.Info("restored hierarchy dump", "path", dumpPath)
	return h, nil
}

// pollMetrics periodically copies live collaborator state into the
// Prometheus collector: none of subscription.Manager, modify.RingBuffer or
// autoindex.Engine push metrics themselves, so something has to sample them
// on a cadence, the same role this loop's siblings play for their own
// background concern.
func pollMetrics(ctx context.Context, mc *metrics.Collector, sub *subscription.Manager, repl *modify.RingBuffer, idx *autoindex.Engine, mon *memguard.Monitor) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	var lastDropped uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			mc.SetDeferredQueueDepth(sub.DeferredQueueDepth())

			dropped := repl.Dropped()
			if dropped > lastDropped {
				mc.AddReplicationDropped(dropped - lastDropped)
				lastDropped = dropped
			}

			active := 0
			for _, icb := range idx.List() {
				if icb.Active() {
					active++
				}
			}
			mc.SetMaterializedIndices(active)

			if _, err := mon.Sample(); err != nil {
				log.Warn("rss sample failed", "err", err)
			}
		}
	}
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// periodicDump writes a fresh dump every interval, logging rather than
// aborting on failure: a transient write failure shouldn't take the process
// down when the in-memory hierarchy is still perfectly healthy.
func periodicDump(ctx context.Context, h *hierarchy.Hierarchy, path string, interval time.Duration, level int) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := persist.Dump(h, path, true, level); err != nil {
				log.Error("periodic dump failed", "err", err)
				continue
			}
			log.Debug("periodic dump complete", "path", path)
		}
	}
}
