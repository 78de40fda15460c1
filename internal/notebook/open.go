package notebook

import (
	"fmt"
	"log/slog"

	"github.com/morozRed/notegraph/internal/config"
	"github.com/morozRed/notegraph/internal/edges"
	"github.com/morozRed/notegraph/internal/ignore"
	"github.com/morozRed/notegraph/internal/scan"
	"github.com/morozRed/notegraph/internal/state"
	"github.com/morozRed/notegraph/internal/workspace"
)

// Open builds a Service over the local directory cfg.Root. The previously
// saved collapsed set is applied by the first Rescan. progress may be nil.
func Open(cfg config.Config, logger *slog.Logger, progress func(source string, done, total int)) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fs, err := workspace.NewLocal(cfg.Root)
	if err != nil {
		return nil, err
	}

	rules, err := ignore.LoadRules(fs.Root())
	if err != nil {
		return nil, err
	}
	rules = append(rules, cfg.Ignore...)

	var collapsed []string
	st, err := state.Load(fs.Root())
	if err != nil {
		logger.Warn("ignoring unreadable state", "path", state.Path(fs.Root()), "error", err)
	} else {
		collapsed = st.Collapsed
	}

	svc, err := New(fs, Options{
		Scan: scan.Options{
			AllowedExtensions:     scan.ExtensionSet(cfg.AllowedExtensions),
			Ignore:                ignore.NewMatcher(rules),
			DefaultImageURL:       cfg.DefaultImageURL,
			DefaultRegionImageURL: cfg.DefaultRegionImageURL,
			RegionImageName:       cfg.RegionImageName,
			LinkPrefix:            cfg.LinkPrefix,
			Logger:                logger,
		},
		Synthesis: edges.Options{
			LinkPrefix:  cfg.LinkPrefix,
			Concurrency: cfg.Synthesis.Concurrency,
			ReadTimeout: cfg.Synthesis.ReadTimeout.Std(),
			Progress:    progress,
			Logger:      logger,
		},
		CacheSize: cfg.Cache.Size,
		ReadOnly:  cfg.ReadOnly,
		StateRoot: fs.Root(),
		Collapsed: collapsed,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Root, err)
	}
	return svc, nil
}
