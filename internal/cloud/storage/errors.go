package storage

import (
	"errors"
	"strings"

	"github.com/docassist/docassist/internal/diskspace"
)

// Common blob store errors
var (
	// ErrNotFound indicates the key does not exist in the store
	ErrNotFound = errors.New("blob not found")
	// ErrInvalidKey indicates an empty key or one escaping the store root
	ErrInvalidKey = errors.New("invalid blob key")
)

// IsDiskFullError checks if an error is likely caused by running out of disk space
//
// Checks for common error strings across different operating systems:
//   - Linux/Unix: "no space left on device", "enospc"
//   - Windows: "out of disk space", "insufficient disk space"
//   - Quota: "disk quota exceeded"
func IsDiskFullError(err error) bool {
	if err == nil {
		return false
	}
	if diskspace.IsInsufficientSpaceError(err) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, indicator := range []string{
		"no space left on device",
		"disk full",
		"out of disk space",
		"insufficient disk space",
		"not enough space",
		"enospc",
		"disk quota exceeded",
	} {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}
	return false
}

// ValidateKey rejects keys that are empty or contain path traversal.
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}
