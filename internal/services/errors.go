package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrProbe               = errors.New("probe failed")
	ErrInsufficientStorage = errors.New("insufficient storage")
	ErrSpawn               = errors.New("spawn failed")
	ErrRuntime             = errors.New("external tool failed")
	ErrToolMissing         = errors.New("tool not found")
	ErrConfiguration       = errors.New("configuration error")
	ErrValidation          = errors.New("validation error")
	ErrOutputBusy          = errors.New("output directory busy")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrRuntime
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureKind maps an error to the short label recorded in job history and
// shown next to failed attempts.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrProbe):
		return "probe"
	case errors.Is(err, ErrInsufficientStorage):
		return "storage"
	case errors.Is(err, ErrSpawn):
		return "spawn"
	case errors.Is(err, ErrToolMissing):
		return "tools"
	case errors.Is(err, ErrOutputBusy):
		return "busy"
	case errors.Is(err, ErrConfiguration), errors.Is(err, ErrValidation):
		return "config"
	default:
		return "runtime"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
