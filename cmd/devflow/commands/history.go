package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"git.home.luguber.info/inful/devflow/internal/eventstore"
	ferrors "git.home.luguber.info/inful/devflow/internal/foundation/errors"
)

// HistoryCmd lists recent cycles recorded in the history store.
type HistoryCmd struct {
	Limit    int  `short:"n" default:"20" help:"Number of cycles to show"`
	Failures bool `help:"List the failed documents of each cycle"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return ferrors.ConfigError("history is disabled (set history.path)").Build()
	}
	store, err := eventstore.NewSQLiteStore(cfg.Path(cfg.History.Path))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	cycles, err := eventstore.RecentCycles(context.Background(), store, h.Limit)
	if err != nil {
		return err
	}
	return PrintHistory(os.Stdout, cycles, h.Failures, time.Now())
}

// PrintHistory writes cycles as a table, newest first.
func PrintHistory(w io.Writer, cycles []eventstore.CycleSummary, failures bool, now time.Time) error {
	if len(cycles) == 0 {
		_, err := fmt.Fprintln(w, "No cycles recorded yet")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tTRIGGER\tOUTCOME\tCHANGED\tAFFECTED\tCOMPILED\tFAILED\tDURATION")
	for _, c := range cycles {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			humanize.RelTime(c.StartedAt, now, "ago", "from now"),
			c.Trigger, c.Outcome, c.Changed, c.Affected, c.Compiled, c.Failed,
			(time.Duration(c.DurationMS) * time.Millisecond).String())
		if failures && len(c.Failures) > 0 {
			fmt.Fprintf(tw, "\t  %s\n", strings.Join(c.Failures, ", "))
		}
	}
	return tw.Flush()
}
