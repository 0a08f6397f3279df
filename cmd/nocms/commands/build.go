package commands

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"git.home.luguber.info/inful/nocms/internal/build"
	"git.home.luguber.info/inful/nocms/internal/config"
	"git.home.luguber.info/inful/nocms/internal/foundation/errors"
	"git.home.luguber.info/inful/nocms/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output string `short:"o" help:"Override paths.output"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	if b.Output != "" {
		cfg.Paths.Output = b.Output
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return RunBuild(ctx, g, cfg)
}

// RunBuild performs one incremental build and prints its summary.
func RunBuild(ctx context.Context, g *Global, cfg *config.Config) error {
	s, err := newSession(cfg, g.Logger, metrics.NoopRecorder{})
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := s.engine.Build(ctx)
	if report != nil {
		printReport(g.out(), report)
	}
	if err != nil {
		return err
	}
	if report.Failed > 0 {
		return errors.RenderError("some pages failed to render").
			WithContext("failed", report.Failed).
			WithContext("build_id", report.BuildID).
			Build()
	}
	return nil
}

func printReport(w io.Writer, r *build.Report) {
	switch r.Status {
	case build.StatusUnchanged:
		fmt.Fprintf(w, "Site up to date (%d pages checked) in %s\n", r.Skipped, r.Duration.Round(time.Millisecond))
	default:
		fmt.Fprintf(w, "Build %s: %d rendered, %d skipped, %d failed in %s\n",
			r.Status, r.Rendered, r.Skipped, r.Failed, r.Duration.Round(time.Millisecond))
	}
	files := make([]string, 0, len(r.PageErrors))
	for file := range r.PageErrors {
		files = append(files, file)
	}
	sort.Strings(files)
	for _, file := range files {
		fmt.Fprintf(w, "  %s: %v\n", file, r.PageErrors[file])
	}
	for _, sk := range r.LoadSkipped {
		fmt.Fprintf(w, "  skipped %s/%s: %v\n", sk.Root, sk.Path, sk.Err)
	}
	for _, err := range r.TagErrors {
		fmt.Fprintf(w, "  tag: %v\n", err)
	}
}
