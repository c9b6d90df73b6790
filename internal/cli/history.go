package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/converge/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// HistoryEntry is one run in the history listing.
type HistoryEntry struct {
	ID         string  `json:"id"`
	CreatedAt  string  `json:"created_at"`
	Function   string  `json:"function"`
	Root       float64 `json:"root"`
	Iterations int     `json:"iterations"`
	Converged  bool    `json:"converged"`
	Reason     string  `json:"reason"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long: `List runs recorded in the history database, newest first.

Examples:
  converge history --db ./runs.db
  converge history --db ./runs.db --limit 10
  converge history --db ./runs.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of runs to list (0 = all)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	runs, err := st.ListRuns(ctx, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	entries := make([]HistoryEntry, len(runs))
	for i, run := range runs {
		entries[i] = HistoryEntry{
			ID:         run.ID,
			CreatedAt:  run.CreatedAt.Format(time.RFC3339),
			Function:   run.Function,
			Root:       run.Result.Root,
			Iterations: run.Result.Iterations,
			Converged:  run.Result.Converged,
			Reason:     string(run.Result.Reason),
		}
	}

	if opts.Format == "json" {
		formatter := newFormatter(opts.RootOptions, cmd)
		return formatter.Success(entries)
	}

	w := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	for _, e := range entries {
		mark := "✗"
		if e.Converged {
			mark = "✓"
		}
		fmt.Fprintf(w, "%s %s  %s  f(x) = %-24s root=%-22.15g %s (%d iterations)\n",
			mark, e.ID, e.CreatedAt, e.Function, e.Root, e.Reason, e.Iterations)
	}
	return nil
}
