package main

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"delivery/internal/encoding"
	"delivery/internal/encodingstate"
	"delivery/internal/history"
	"delivery/internal/logging"
	"delivery/internal/orchestrator"
	"delivery/internal/tui"
)

const staleProgressAge = 24 * time.Hour

func newRunCommand(ctx *commandContext) *cobra.Command {
	var outputFlag string
	var resolutionFlag string
	var overlayFlag string
	var plain bool

	cmd := &cobra.Command{
		Use:   "run <input>",
		Short: "Extract overlaid frames, resuming any frames already in the output directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			policy, err := ctx.resolution(resolutionFlag)
			if err != nil {
				return err
			}
			outputDir, err := ctx.outputDir(outputFlag)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			interactive := !plain && isTerminal(out)
			var logger *slog.Logger
			if interactive {
				logger, err = logging.NewFileFromConfig(cfg)
			} else {
				logger, err = logging.NewFromConfig(cfg)
			}
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			store, err := history.Open(cfg.Paths.HistoryDB)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()
			if n, err := store.MarkInterrupted(cmd.Context()); err != nil {
				logger.Warn("failed to reconcile job history", logging.Error(err))
			} else if n > 0 {
				logger.Warn("previous jobs ended without an outcome", logging.Int64("count", n))
			}

			encoding.CleanStaleProgress("", staleProgressAge, logger)

			orch := orchestrator.New(cfg, logger, orchestrator.WithHistory(store))
			job, err := orch.Start(cmd.Context(), orchestrator.Request{
				Input:      args[0],
				OutputDir:  outputDir,
				Resolution: policy,
				Overlay:    strings.TrimSpace(overlayFlag),
			})
			if err != nil {
				return err
			}

			var snapshot encodingstate.Snapshot
			if interactive {
				title := fmt.Sprintf("delivery %s -> %s (%s)", filepath.Base(args[0]), outputDir, policy)
				snapshot, err = tui.Run(job, func() { orch.Cancel(job) }, title)
				if err != nil {
					orch.Cancel(job)
				}
				<-job.Done()
			} else {
				snapshot = streamPlain(out, job)
			}
			if err != nil {
				return fmt.Errorf("interactive display: %w", err)
			}
			return report(out, job.Result(), snapshot, outputDir)
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output directory for the frame sequence (default from config)")
	cmd.Flags().StringVarP(&resolutionFlag, "resolution", "r", "", "Resolution policy: native, 2048 or 4096 (default from config)")
	cmd.Flags().StringVar(&overlayFlag, "overlay", "", "Overlay image (default from config for the resolution)")
	cmd.Flags().BoolVar(&plain, "plain", false, "Print status lines instead of the interactive display")
	return cmd
}

// streamPlain prints a status line for every lifecycle event and for each
// whole percent of progress, until the job's channel closes.
func streamPlain(out io.Writer, job *orchestrator.Job) encodingstate.Snapshot {
	var snapshot encodingstate.Snapshot
	lastPercent := -1.0
	for ev := range job.Events() {
		snapshot.Apply(ev)
		if ev.Kind == encoding.EventProgress {
			bucket := math.Floor(snapshot.Percent)
			if bucket <= lastPercent {
				continue
			}
			lastPercent = bucket
		}
		if snapshot.Status != "" {
			fmt.Fprintln(out, snapshot.Status)
		}
	}
	return snapshot
}

func report(out io.Writer, result orchestrator.Result, snapshot encodingstate.Snapshot, outputDir string) error {
	switch result.State {
	case encoding.StateCompleted:
		fmt.Fprintf(out, "Completed: frames %d-%d written to %s\n", result.StartFrame, max(result.Frame-1, result.StartFrame), outputDir)
		return nil
	case encoding.StateCancelled:
		fmt.Fprintf(out, "Paused at frame %d (ETA was %s). Run the same command again to resume.\n", result.Frame, snapshot.ETA)
		return nil
	default:
		if result.Err != nil {
			return result.Err
		}
		return fmt.Errorf("job ended in state %s", result.State)
	}
}
