package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/morozRed/notegraph/internal/notebook"
	"github.com/morozRed/notegraph/internal/server"
	"github.com/morozRed/notegraph/internal/watch"
)

func RunServe(cmd *cobra.Command, version string) error {
	addr, err := OptionalStringFlag(cmd, "addr")
	if err != nil {
		return err
	}
	watchFiles, err := OptionalBoolFlag(cmd, "watch", false)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, cfg, report, err := openNotebook(ctx, cmd, nil)
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}
	logger := slog.Default()
	logger.Info("notebook loaded",
		"root", cfg.Root,
		"nodes", report.Nodes,
		"regions", report.Regions,
		"edges", report.Edges,
		"collapsed", len(report.Collapsed))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.New(svc, server.Options{Version: version, Logger: logger}).Run(gctx, addr)
	})
	if watchFiles {
		w, err := watch.New(cfg.Root, rescanOnChange(svc, logger), watch.Options{
			Debounce: cfg.Watch.Debounce.Std(),
			Ignore:   svc.Ignore(),
			Logger:   logger,
		})
		if err != nil {
			return err
		}
		g.Go(func() error {
			return w.Run(gctx)
		})
	}
	return g.Wait()
}

// rescanOnChange rescans the notebook after each batch of file changes. A scan
// overtaken by a newer one is expected and not reported.
func rescanOnChange(svc *notebook.Service, logger *slog.Logger) watch.Handler {
	return func(ctx context.Context, changes []watch.Change) {
		if ctx.Err() != nil {
			return
		}
		logger.Debug("files changed", "count", len(changes))
		report, err := svc.Rescan(ctx)
		switch {
		case errors.Is(err, notebook.ErrScanSuperseded), errors.Is(err, context.Canceled):
		case err != nil:
			logger.Warn("rescan failed", "error", err)
		default:
			logger.Info("rescanned",
				"generation", report.Generation,
				"nodes", report.Nodes,
				"edges", report.Edges)
		}
	}
}
