package preflight

import (
	"context"

	"delivery/internal/config"
	"delivery/internal/deps"
	"delivery/internal/media"
	"delivery/internal/media/ffprobe"
	"delivery/internal/storage"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Request names the job being checked.
type Request struct {
	Input      string
	Overlay    string
	OutputDir  string
	Resolution media.Resolution
}

// RunAll executes every check for req. Checks that depend on a failed
// earlier check (storage needs ffprobe and the input) are reported as failed
// with a skip detail instead of being omitted.
func RunAll(ctx context.Context, cfg *config.Config, req Request) []Result {
	if cfg == nil {
		return nil
	}

	tools := deps.Locate(cfg.FFmpegBinary(), cfg.FFprobeBinary())
	results := CheckTools(tools)
	probeReady := true
	for _, r := range results {
		if r.Name == "FFprobe" && !r.Passed {
			probeReady = false
		}
	}

	input := CheckFile("Input", req.Input)
	results = append(results, input, CheckFile("Overlay", req.Overlay))
	results = append(results, CheckOutputDirectory("Output directory", req.OutputDir))

	if probeReady && input.Passed {
		estimator := storage.NewEstimator(cfg.Encoding.BytesPerPixel, cfg.Encoding.SafetyMargin)
		results = append(results, CheckStorage(ctx, ffprobe.NewProber(tools.FFprobe), estimator, req))
	} else {
		results = append(results, Result{Name: "Storage", Detail: "skipped (input or ffprobe unavailable)"})
	}

	results = append(results, CheckResume(req.OutputDir, cfg.Encoding.FrameExtension))
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
