package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/wdkclient/stepanalysis/internal/analysis"
	"github.com/wdkclient/stepanalysis/internal/config"
	"github.com/wdkclient/stepanalysis/internal/metrics"
	"github.com/wdkclient/stepanalysis/internal/plugin"
	"github.com/wdkclient/stepanalysis/internal/prefs"
	"github.com/wdkclient/stepanalysis/internal/state"
	"github.com/wdkclient/stepanalysis/internal/ui"
	"github.com/wdkclient/stepanalysis/internal/wdk"
)

// Options configure the step analysis application.
type Options struct {
	ConfigPath  string
	PrefsPath   string // empty uses default ~/.config/stepanalysis/prefs.toml
	StepID      int64
	MetricsAddr string // overrides metrics_addr from the config file
}

// Run boots the step analysis TUI until the user quits or the context is
// cancelled.
func Run(ctx context.Context, opts Options) error {
	if opts.StepID <= 0 {
		return errors.New("step id is required")
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	userPrefs := prefs.Load(opts.PrefsPath)

	registry := prometheus.NewRegistry()
	m, err := metrics.New(registry)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	client, err := newClient(cfg, m)
	if err != nil {
		return err
	}

	plugins := plugin.Default()
	prompter := ui.NewPrompter()
	machine := analysis.NewMachine(analysis.Deps{
		Service:       client,
		Prompter:      prompter,
		Plugins:       plugins,
		Countdown:     cfg.CountdownInterval,
		CollapseForms: !userPrefs.FormExpanded,
		Logger:        logger,
	})
	store := state.New(opts.StepID, machine, state.WithLogger(logger), state.WithObserver(m))

	logger.Info("starting step analysis client",
		"step", opts.StepID,
		"service", cfg.ServiceURL,
		"metrics", cfg.MetricsAddr,
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		store.Run(gctx)
		return nil
	})
	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			if err := metrics.Serve(gctx, cfg.MetricsAddr, registry); err != nil {
				logger.Error("metrics server failed", "addr", cfg.MetricsAddr, "error", err)
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		// Leaving the UI shuts everything else down.
		defer cancel()
		return ui.Run(gctx, ui.Options{
			Store:     store,
			Plugins:   plugins,
			Prompter:  prompter,
			Prefs:     userPrefs,
			PrefsPath: opts.PrefsPath,
		})
	})

	err = g.Wait()
	logger.Info("step analysis client stopped", "step", opts.StepID)
	return err
}

func loadConfig(opts Options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if addr := strings.TrimSpace(opts.MetricsAddr); addr != "" {
		cfg.MetricsAddr = addr
	}
	return cfg, nil
}

func newClient(cfg config.Config, observer wdk.RequestObserver) (*wdk.Client, error) {
	client, err := wdk.NewClient(wdk.Options{
		BaseURL:        cfg.ServiceURL,
		AuthToken:      cfg.AuthToken,
		Timeout:        cfg.RequestTimeout,
		ParamCacheSize: cfg.ParamSpecCacheSize,
		Observer:       observer,
	})
	if err != nil {
		return nil, fmt.Errorf("init wdk client: %w", err)
	}
	return client, nil
}
