package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/nocms/internal/foundation/errors"
	"git.home.luguber.info/inful/nocms/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" help:"Number of builds to show" default:"10"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return errors.ConfigError("build history is disabled").
			WithContext("hint", "set history.enabled: true").
			Build()
	}
	store, err := history.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return RunHistory(context.Background(), g, store, h.Limit)
}

// RunHistory prints the most recent builds, newest first.
func RunHistory(ctx context.Context, g *Global, store history.Store, limit int) error {
	builds, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	out := g.out()
	if len(builds) == 0 {
		fmt.Fprintln(out, "No builds recorded")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tKIND\tRENDERED\tSKIPPED\tFAILED\tDURATION\tREVISION\tERROR")
	for _, b := range builds {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\t%s\t%s\n",
			b.StartedAt.Local().Format(time.DateTime),
			b.Kind,
			b.Rendered,
			b.Skipped,
			b.Failed,
			b.Duration.Round(time.Millisecond),
			b.Revision,
			b.Error)
	}
	return tw.Flush()
}
