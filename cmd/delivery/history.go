package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"delivery/internal/encodingstate"
	"delivery/internal/history"
)

// showLookback bounds the id-prefix search of history show.
const showLookback = 500

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent job attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg.Paths.HistoryDB)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			records, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No jobs recorded")
				return nil
			}

			title := cases.Title(language.Und)
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				state := title.String(rec.State)
				if rec.FailureKind != "" {
					state = fmt.Sprintf("%s (%s)", state, rec.FailureKind)
				}
				rows = append(rows, []string{
					shortID(rec.ID),
					humanize.Time(rec.StartedAt),
					state,
					filepath.Base(rec.InputPath),
					rec.Resolution,
					strconv.Itoa(rec.StartFrame),
					strconv.Itoa(rec.LastFrame),
					humanize.IBytes(rec.RequiredBytes),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Started", "State", "Input", "Res", "From", "To", "Required"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of jobs to show")
	cmd.AddCommand(newHistoryShowCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one job attempt and the last status it reported",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg.Paths.HistoryDB)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			rec, err := findRecord(cmd, store, args[0])
			if err != nil {
				return err
			}
			snapshot, err := encodingstate.Unmarshal(rec.SnapshotJSON)
			if err != nil {
				return fmt.Errorf("decode job snapshot: %w", err)
			}

			finished := "-"
			if rec.FinishedAt != nil {
				finished = humanize.Time(*rec.FinishedAt)
			}
			rows := [][]string{
				{"ID", rec.ID},
				{"State", cases.Title(language.Und).String(rec.State)},
				{"Input", rec.InputPath},
				{"Overlay", rec.OverlayPath},
				{"Output", rec.OutputDir},
				{"Resolution", rec.Resolution},
				{"Frames", fmt.Sprintf("%d-%d", rec.StartFrame, rec.LastFrame)},
				{"Estimated storage", humanize.IBytes(rec.RequiredBytes)},
				{"Started", humanize.Time(rec.StartedAt)},
				{"Finished", finished},
			}
			if rec.FailureKind != "" {
				rows = append(rows, []string{"Failure", rec.FailureKind})
			}
			if rec.Message != "" {
				rows = append(rows, []string{"Message", rec.Message})
			}
			if !snapshot.IsZero() {
				rows = append(rows,
					[]string{"Progress", fmt.Sprintf("%.1f%%", snapshot.Percent)},
					[]string{"Last status", snapshot.Status},
				)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Field", "Value"},
				rows,
				[]columnAlignment{alignLeft, alignLeft},
			))
			return nil
		},
	}
}

// findRecord resolves a full id, or a unique prefix of a recent one.
func findRecord(cmd *cobra.Command, store *history.Store, id string) (*history.Record, error) {
	id = strings.TrimSpace(id)
	rec, err := store.Get(cmd.Context(), id)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, history.ErrNotFound) {
		return nil, err
	}
	recent, err := store.Recent(cmd.Context(), showLookback)
	if err != nil {
		return nil, err
	}
	var match *history.Record
	for i := range recent {
		if !strings.HasPrefix(recent[i].ID, id) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("job id %q is ambiguous", id)
		}
		match = &recent[i]
	}
	if match == nil || id == "" {
		return nil, fmt.Errorf("job %q: %w", id, history.ErrNotFound)
	}
	return match, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
