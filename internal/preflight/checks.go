package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"

	"delivery/internal/deps"
	"delivery/internal/media"
	"delivery/internal/resume"
	"delivery/internal/storage"
)

// Prober is the subset of ffprobe.Prober the storage check uses.
type Prober interface {
	Probe(ctx context.Context, path string) (media.Info, error)
}

// CheckTools reports ffmpeg and ffprobe availability.
func CheckTools(tools deps.Tools) []Result {
	statuses := deps.CheckBinaries(deps.Requirements(tools))
	results := make([]Result, 0, len(statuses))
	for _, status := range statuses {
		if status.Available {
			results = append(results, Result{Name: status.Name, Passed: true, Detail: status.Command})
			continue
		}
		results = append(results, Result{Name: status.Name, Detail: status.Detail})
	}
	return results
}

// CheckFile verifies that path names an existing regular file.
func CheckFile(name, path string) Result {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, storage.HumanBytes(uint64(info.Size())))}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := checkAccess(path); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckOutputDirectory accepts a directory that does not exist yet as long as
// its nearest existing parent is writable, since jobs create it on start.
func CheckOutputDirectory(name, path string) Result {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	if _, err := os.Stat(path); err == nil || !os.IsNotExist(err) {
		return CheckDirectoryAccess(name, path)
	}
	parent := storage.ExistingAncestor(path)
	result := CheckDirectoryAccess(name, parent)
	if result.Passed {
		result.Detail = fmt.Sprintf("%s (will be created under %s)", path, parent)
	}
	return result
}

// CheckStorage probes the input and compares the estimated frame sequence
// size with free space at the output directory.
func CheckStorage(ctx context.Context, prober Prober, estimator *storage.Estimator, req Request) Result {
	const name = "Storage"
	info, err := prober.Probe(ctx, req.Input)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("probe failed: %v", err)}
	}
	estimate, err := estimator.Check(info, req.Resolution, req.OutputDir)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{
		Name:   name,
		Passed: true,
		Detail: fmt.Sprintf("%.2fGB required for %d frames at %dx%d", estimate.RequiredGB(), estimate.TotalFrames, estimate.Width, estimate.Height),
	}
}

// CheckResume reports where a job in dir would start.
func CheckResume(dir, ext string) Result {
	const name = "Resume"
	summary, err := resume.Inspect(dir, ext)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if !summary.HasFrames() {
		return Result{Name: name, Passed: true, Detail: "fresh start"}
	}
	return Result{
		Name:   name,
		Passed: true,
		Detail: fmt.Sprintf("resumes at frame %d (%d frames present)", summary.LastIndex, summary.Frames),
	}
}
