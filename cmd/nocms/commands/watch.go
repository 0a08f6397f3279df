package commands

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/nocms/internal/config"
	"git.home.luguber.info/inful/nocms/internal/foundation/errors"
	"git.home.luguber.info/inful/nocms/internal/logfields"
	"git.home.luguber.info/inful/nocms/internal/metrics"
	"git.home.luguber.info/inful/nocms/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	MetricsAddr string `name:"metrics-addr" help:"Serve Prometheus metrics on this address (overrides monitoring.metrics_addr)"`
	Debounce    string `help:"Override watch.debounce (e.g. 250ms)"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	if w.MetricsAddr != "" {
		cfg.Monitoring.MetricsAddr = w.MetricsAddr
	}
	if w.Debounce != "" {
		cfg.Watch.Debounce = w.Debounce
		if err := config.ValidateConfig(cfg); err != nil {
			return errors.WrapError(err, errors.CategoryValidation, "invalid --debounce").Build()
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return RunWatch(ctx, g, cfg)
}

// RunWatch builds the site once and then re-renders on every change until
// ctx is cancelled.
func RunWatch(ctx context.Context, g *Global, cfg *config.Config) error {
	logger := g.Logger

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Monitoring.MetricsAddr != "" {
		reg := prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
		srv := metrics.NewServer(cfg.Monitoring.MetricsAddr, reg)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed", slog.String("addr", srv.Addr), logfields.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info("Metrics endpoint listening", slog.String("addr", srv.Addr), slog.String("path", "/metrics"))
	}

	s, err := newSession(cfg, logger, recorder)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := s.engine.Build(ctx)
	if report != nil {
		printReport(g.out(), report)
	}
	if err != nil {
		logger.Warn("Initial build failed; watching anyway", logfields.Error(err))
	}

	opts := watch.OptionsFromConfig(cfg)
	opts.Recorder = recorder
	opts.Logger = logger
	d, err := watch.NewDispatcher(s.engine, opts)
	if err != nil {
		return err
	}
	if err := d.Run(ctx); err != nil {
		return errors.WatchError("watch stopped").WithCause(err).Build()
	}
	return nil
}
