package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"delivery/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var outputFlag string
	var resolutionFlag string
	var overlayFlag string

	cmd := &cobra.Command{
		Use:   "check [input]",
		Short: "Run the pre-flight checks a job would run",
		Args:  cobra.MaximumNArgs(1),
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
			req := preflight.Request{
				OutputDir:  outputDir,
				Resolution: policy,
				Overlay:    strings.TrimSpace(overlayFlag),
			}
			if req.Overlay == "" {
				req.Overlay = cfg.OverlayFor(policy.Key())
			}
			if len(args) == 1 {
				req.Input = args[0]
			}

			results := preflight.RunAll(cmd.Context(), cfg, req)
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{r.Name, passFail(r.Passed), r.Detail})
			}
			out := cmd.OutOrStdout()
			if ctx.configPath != "" {
				fmt.Fprintf(out, "Config: %s\n", ctx.configPath)
			}
			fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, rows, nil))

			if failed := preflight.Failed(results); len(failed) > 0 {
				names := make([]string, 0, len(failed))
				for _, r := range failed {
					names = append(names, r.Name)
				}
				return fmt.Errorf("%d check(s) failed: %s", len(failed), strings.Join(names, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output directory (default from config)")
	cmd.Flags().StringVarP(&resolutionFlag, "resolution", "r", "", "Resolution policy: native, 2048 or 4096 (default from config)")
	cmd.Flags().StringVar(&overlayFlag, "overlay", "", "Overlay image (default from config for the resolution)")
	return cmd
}
