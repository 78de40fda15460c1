package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/morozRed/notegraph/internal/config"
	"github.com/morozRed/notegraph/internal/notebook"
)

func resolveWorkingDirectory() (string, error) {
	rootPath, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to resolve working directory: %w", err)
	}
	return rootPath, nil
}

// loadConfig resolves settings from --root, --config, the config file and
// the environment.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	root, err := OptionalStringFlag(cmd, "root")
	if err != nil {
		return config.Config{}, err
	}
	path, err := OptionalStringFlag(cmd, "config")
	if err != nil {
		return config.Config{}, err
	}
	return config.Load(config.LoadOptions{Root: root, Path: path})
}

// openNotebook opens the configured notebook and runs the first scan.
func openNotebook(ctx context.Context, cmd *cobra.Command, progress func(source string, done, total int)) (*notebook.Service, config.Config, notebook.ScanReport, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, config.Config{}, notebook.ScanReport{}, err
	}
	svc, err := notebook.Open(cfg, slog.Default(), progress)
	if err != nil {
		return nil, config.Config{}, notebook.ScanReport{}, err
	}
	report, err := svc.Rescan(ctx)
	if err != nil {
		return nil, config.Config{}, notebook.ScanReport{}, fmt.Errorf("failed to scan %s: %w", cfg.Root, err)
	}
	return svc, cfg, report, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
