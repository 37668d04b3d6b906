package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"delivery/internal/deps"
	"delivery/internal/media/ffprobe"
	"delivery/internal/storage"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var resolutionFlag string

	cmd := &cobra.Command{
		Use:   "probe <input>",
		Short: "Show the probed source facts and the storage a run would need",
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
			tools := deps.Locate(cfg.FFmpegBinary(), cfg.FFprobeBinary())
			if err := deps.Require(tools); err != nil {
				return err
			}

			info, err := ffprobe.NewProber(tools.FFprobe).Probe(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			estimate := storage.NewEstimator(cfg.Encoding.BytesPerPixel, cfg.Encoding.SafetyMargin).Estimate(info, policy)

			rows := [][]string{
				{"Dimensions", fmt.Sprintf("%dx%d", info.Width, info.Height)},
				{"Duration", fmt.Sprintf("%.3fs", info.DurationSeconds)},
				{"Frame rate", strconv.FormatFloat(info.FrameRate, 'f', 3, 64)},
				{"Frames", humanize.Comma(int64(estimate.TotalFrames))},
				{"Output", fmt.Sprintf("%dx%d (%s)", estimate.Width, estimate.Height, policy)},
				{"Per frame", humanize.IBytes(estimate.BytesPerFrame)},
				{"Required", fmt.Sprintf("%s (%.2fGB)", humanize.IBytes(estimate.RequiredBytes), estimate.RequiredGB())},
			}
			if result, err := ffprobe.Inspect(cmd.Context(), tools.FFprobe, args[0]); err == nil {
				if stream, ok := result.VideoStream(); ok {
					rows = append(rows, []string{"Codec", fmt.Sprintf("%s (%s)", stream.CodecName, stream.PixFmt)})
				}
				if result.Format.FormatName != "" {
					rows = append(rows, []string{"Container", result.Format.FormatName})
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Property", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))
			return nil
		},
	}

	cmd.Flags().StringVarP(&resolutionFlag, "resolution", "r", "", "Resolution policy: native, 2048 or 4096 (default from config)")
	return cmd
}
