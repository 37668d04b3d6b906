package storage

import (
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"delivery/internal/media"
	"delivery/internal/services"
)

func tenSecondsAt24() media.Info {
	return media.Info{Width: 1920, Height: 1080, DurationSeconds: 10, FrameRate: 24}
}

func TestEstimateFixedSquare(t *testing.T) {
	est := NewEstimator(4, 1.2).Estimate(tenSecondsAt24(), media.FixedSquare(2048))
	if est.BytesPerFrame != 16_777_216 {
		t.Fatalf("bytes per frame = %d", est.BytesPerFrame)
	}
	if est.TotalFrames != 240 {
		t.Fatalf("total frames = %d", est.TotalFrames)
	}
	if est.RequiredBytes != 4_831_838_208 {
		t.Fatalf("required = %d", est.RequiredBytes)
	}
	if math.Abs(est.RequiredGB()-4.5) > 1e-9 {
		t.Fatalf("required GB = %v", est.RequiredGB())
	}
}

func TestEstimateNativeRoundsFramesUp(t *testing.T) {
	info := media.Info{Width: 100, Height: 50, DurationSeconds: 1.01, FrameRate: 30000.0 / 1001.0}
	est := NewEstimator(4, 1.2).Estimate(info, media.Native())
	if est.Width != 100 || est.Height != 50 {
		t.Fatalf("unexpected geometry %dx%d", est.Width, est.Height)
	}
	if est.TotalFrames != 31 {
		t.Fatalf("total frames = %d", est.TotalFrames)
	}
}

func TestCheckRejectsWhenBelowRequirement(t *testing.T) {
	e := NewEstimator(4, 1.2)
	e.freeSpace = func(string) (uint64, error) { return 1 << 30, nil }

	_, err := e.Check(tenSecondsAt24(), media.FixedSquare(2048), t.TempDir())
	var insufficient *InsufficientError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientError, got %v", err)
	}
	if !errors.Is(err, services.ErrInsufficientStorage) {
		t.Fatalf("expected storage marker, got %v", err)
	}
	if insufficient.AvailableGB() != 1 || math.Abs(insufficient.RequiredGB()-4.5) > 1e-9 {
		t.Fatalf("unexpected figures %+v", insufficient)
	}
	if !strings.Contains(err.Error(), "4.50GB required, 1.00GB available") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestCheckAcceptsWhenAboveRequirement(t *testing.T) {
	e := NewEstimator(4, 1.2)
	e.freeSpace = func(string) (uint64, error) { return 10 << 30, nil }

	est, err := e.Check(tenSecondsAt24(), media.FixedSquare(2048), t.TempDir())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if est.RequiredBytes != 4_831_838_208 {
		t.Fatalf("required = %d", est.RequiredBytes)
	}
}

func TestCheckMeasuresExistingAncestor(t *testing.T) {
	root := t.TempDir()
	var measured string
	e := NewEstimator(4, 1.2)
	e.freeSpace = func(path string) (uint64, error) {
		measured = path
		return math.MaxUint64, nil
	}
	if _, err := e.Check(tenSecondsAt24(), media.Native(), filepath.Join(root, "a", "b")); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if measured != root {
		t.Fatalf("measured %q, want %q", measured, root)
	}
}

func TestCheckQueryFailureIsNotAShortfall(t *testing.T) {
	e := NewEstimator(4, 1.2)
	e.freeSpace = func(string) (uint64, error) { return 0, errors.New("statfs: input/output error") }
	est, err := e.Check(tenSecondsAt24(), media.Native(), t.TempDir())
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, services.ErrInsufficientStorage) {
		t.Fatalf("query failure tagged as insufficient storage: %v", err)
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if kind := services.FailureKind(err); kind != "config" {
		t.Fatalf("failure kind = %q", kind)
	}
	var insufficient *InsufficientError
	if errors.As(err, &insufficient) {
		t.Fatal("query failure must not carry InsufficientError")
	}
	if est.RequiredBytes == 0 {
		t.Fatal("estimate should still be returned")
	}
}

func TestFreeSpaceOnTempDir(t *testing.T) {
	free, err := FreeSpace(t.TempDir())
	if err != nil {
		t.Fatalf("FreeSpace: %v", err)
	}
	if free == 0 {
		t.Fatal("expected non-zero free space")
	}
}

func TestHumanBytes(t *testing.T) {
	if got := HumanBytes(4_831_838_208); got != "4.5 GiB" {
		t.Fatalf("HumanBytes = %q", got)
	}
}
