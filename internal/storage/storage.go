// Package storage estimates the disk space a frame sequence needs and checks
// it against free space at the destination. The check is advisory: nothing is
// reserved, so a later write can still fail.
package storage

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/disk"

	"delivery/internal/media"
	"delivery/internal/services"
)

const bytesPerGB = 1024 * 1024 * 1024

// Estimate is the computed space requirement for one job.
type Estimate struct {
	Width         int
	Height        int
	BytesPerFrame uint64
	TotalFrames   uint64
	RequiredBytes uint64
}

// RequiredGB reports the requirement in GB (1024^3 bytes).
func (e Estimate) RequiredGB() float64 {
	return float64(e.RequiredBytes) / bytesPerGB
}

// InsufficientError reports a failed pre-flight storage check.
type InsufficientError struct {
	RequiredBytes  uint64
	AvailableBytes uint64
}

// RequiredGB reports the requirement in GB (1024^3 bytes).
func (e *InsufficientError) RequiredGB() float64 { return float64(e.RequiredBytes) / bytesPerGB }

// AvailableGB reports free space in GB (1024^3 bytes).
func (e *InsufficientError) AvailableGB() float64 { return float64(e.AvailableBytes) / bytesPerGB }

func (e *InsufficientError) Error() string {
	return fmt.Sprintf("insufficient storage: %.2fGB required, %.2fGB available", e.RequiredGB(), e.AvailableGB())
}

func (e *InsufficientError) Unwrap() error { return services.ErrInsufficientStorage }

// Estimator holds the sizing constants and the free-space query.
type Estimator struct {
	BytesPerPixel int
	SafetyMargin  float64
	freeSpace     func(path string) (uint64, error)
}

// NewEstimator returns an estimator that queries free space through gopsutil.
func NewEstimator(bytesPerPixel int, safetyMargin float64) *Estimator {
	if bytesPerPixel <= 0 {
		bytesPerPixel = 4
	}
	if safetyMargin < 1 {
		safetyMargin = 1.2
	}
	return &Estimator{BytesPerPixel: bytesPerPixel, SafetyMargin: safetyMargin, freeSpace: FreeSpace}
}

// Estimate computes the space requirement. It does no I/O.
func (e *Estimator) Estimate(info media.Info, policy media.Resolution) Estimate {
	width, height := policy.Target(info)
	perFrame := uint64(width) * uint64(height) * uint64(e.BytesPerPixel)
	frames := uint64(math.Ceil(info.DurationSeconds * info.FrameRate))
	raw := perFrame * frames
	return Estimate{
		Width:         width,
		Height:        height,
		BytesPerFrame: perFrame,
		TotalFrames:   frames,
		RequiredBytes: uint64(float64(raw) * e.SafetyMargin),
	}
}

// Check estimates and compares against free space at outputDir. A directory
// that does not exist yet is measured at its nearest existing ancestor. Only a
// shortfall is reported as ErrInsufficientStorage; a failed query is a
// configuration error.
func (e *Estimator) Check(info media.Info, policy media.Resolution, outputDir string) (Estimate, error) {
	estimate := e.Estimate(info, policy)
	free, err := e.freeSpace(ExistingAncestor(outputDir))
	if err != nil {
		return estimate, services.Wrap(services.ErrConfiguration, "storage", "free space", outputDir, err)
	}
	if free < estimate.RequiredBytes {
		return estimate, &InsufficientError{RequiredBytes: estimate.RequiredBytes, AvailableBytes: free}
	}
	return estimate, nil
}

// FreeSpace reports bytes available to unprivileged users at path.
func FreeSpace(path string) (uint64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, fmt.Errorf("disk usage %s: %w", path, err)
	}
	return usage.Free, nil
}

// HumanBytes formats a byte count for operator output.
func HumanBytes(n uint64) string {
	return humanize.IBytes(n)
}

// ExistingAncestor returns path or its nearest parent that exists.
func ExistingAncestor(path string) string {
	current := filepath.Clean(path)
	for {
		if _, err := os.Stat(current); err == nil || !errors.Is(err, os.ErrNotExist) {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return current
		}
		current = parent
	}
}
