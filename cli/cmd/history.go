package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/vgmlink/cli/render"
	"github.com/justapithecus/vgmlink/cli/tui"
	"github.com/justapithecus/vgmlink/lode"
	"github.com/justapithecus/vgmlink/types"
)

// historyWarningThreshold is the record count above which we suggest --limit.
const historyWarningThreshold = 100

// HistoryEntry is one row of history output.
type HistoryEntry struct {
	SessionID      string `json:"session_id" yaml:"session_id"`
	StartedAt      string `json:"started_at" yaml:"started_at"`
	Source         string `json:"source" yaml:"source"`
	Board          string `json:"board" yaml:"board"`
	Outcome        string `json:"outcome" yaml:"outcome"`
	Passes         int    `json:"passes" yaml:"passes"`
	BytesConfirmed int64  `json:"bytes_confirmed" yaml:"bytes_confirmed"`
	Retransmits    int64  `json:"retransmits" yaml:"retransmits"`
	DurationMs     int64  `json:"duration_ms" yaml:"duration_ms"`
}

// HistoryCommand returns the history command.
func HistoryCommand() *cli.Command {
	flags := append(ReadOnlyFlags(),
		&cli.StringFlag{
			Name:  "board",
			Usage: "Filter by board name",
		},
		&cli.StringFlag{
			Name:  "day",
			Usage: "Filter by start day (YYYY-MM-DD, UTC)",
		},
		&cli.StringFlag{
			Name:  "outcome",
			Usage: "Filter by outcome: done, failed, interrupted",
		},
		&cli.StringFlag{
			Name:  "source",
			Usage: "Filter by source file name substring",
		},
		&cli.IntFlag{
			Name:  "limit",
			Usage: "Maximum number of sessions to return (0 = no limit)",
		},
		&cli.BoolFlag{
			Name:  "summary",
			Usage: "Aggregate matching sessions instead of listing them",
		},
	)
	flags = append(flags, storageFlags()...)
	return &cli.Command{
		Name:   "history",
		Usage:  "Query archived streaming sessions",
		Flags:  flags,
		Action: historyAction,
	}
}

func historyAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	summary := c.Bool("summary")
	if c.Bool("tui") && !summary {
		return cli.Exit("--tui is only supported with history --summary", 1)
	}

	filter := lode.Filter{
		Board:   c.String("board"),
		Day:     c.String("day"),
		Outcome: c.String("outcome"),
		Source:  c.String("source"),
		Limit:   c.Int("limit"),
	}
	if filter.Outcome != "" {
		o, ok := types.ParseOutcome(filter.Outcome)
		if !ok {
			return cli.Exit(fmt.Sprintf("invalid --outcome %q\n  Valid options: done, failed, interrupted", filter.Outcome), 1)
		}
		filter.Outcome = string(o)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	ds, err := openHistory(c.Context, parseStorageChoice(c, cfg))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	records, err := lode.QuerySessions(c.Context, ds, filter)
	if err != nil {
		return cli.Exit(fmt.Sprintf("query sessions: %v", err), 1)
	}

	if summary {
		s := lode.Summarize(records)
		if c.Bool("tui") {
			return tui.Run(tui.ViewHistory, &s)
		}
		return r.Render(s)
	}

	if len(records) > historyWarningThreshold && filter.Limit == 0 && render.IsTTY(os.Stderr) {
		fmt.Fprintf(os.Stderr, "Warning: returning %d sessions. Consider using --limit to reduce output.\n\n", len(records))
	}

	entries := make([]HistoryEntry, len(records))
	for i, rec := range records {
		entries[i] = HistoryEntry{
			SessionID:      rec.SessionID,
			StartedAt:      rec.StartedAt.UTC().Format("2006-01-02T15:04:05Z"),
			Source:         rec.Source,
			Board:          rec.Board,
			Outcome:        rec.Outcome,
			Passes:         rec.Passes,
			BytesConfirmed: rec.BytesConfirmed,
			Retransmits:    rec.Retransmits,
			DurationMs:     rec.DurationMs,
		}
	}
	return r.Render(entries)
}
