// Package diskspace checks free space before the dev backend's local
// blob store writes an upload.
package diskspace

import (
	"errors"
	"fmt"
)

// DefaultSafetyMargin leaves 10% headroom over the requested size.
const DefaultSafetyMargin = 1.1

// InsufficientSpaceError is returned when a write would not fit.
type InsufficientSpaceError struct {
	Path           string
	RequiredBytes  int64
	AvailableBytes int64
}

func (e *InsufficientSpaceError) Error() string {
	requiredMB := float64(e.RequiredBytes) / (1024 * 1024)
	availableMB := float64(e.AvailableBytes) / (1024 * 1024)
	return fmt.Sprintf("insufficient disk space for %s: need %.2f MB, have %.2f MB available",
		e.Path, requiredMB, availableMB)
}

// CheckAvailableSpace fails with an InsufficientSpaceError when the
// filesystem holding dir has less than requiredBytes*safetyMargin free.
// When free space cannot be determined the check passes and the write is
// left to fail on its own.
func CheckAvailableSpace(dir string, requiredBytes int64, safetyMargin float64) error {
	available, ok := availableBytes(dir)
	if !ok {
		return nil
	}
	required := int64(float64(requiredBytes) * safetyMargin)
	if available < required {
		return &InsufficientSpaceError{Path: dir, RequiredBytes: required, AvailableBytes: available}
	}
	return nil
}

// GetAvailableSpace returns the free bytes for dir, or 0 if unknown.
func GetAvailableSpace(dir string) int64 {
	available, _ := availableBytes(dir)
	return available
}

// IsInsufficientSpaceError reports whether err wraps an InsufficientSpaceError.
func IsInsufficientSpaceError(err error) bool {
	var target *InsufficientSpaceError
	return errors.As(err, &target)
}
