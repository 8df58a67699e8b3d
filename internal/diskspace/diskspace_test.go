package diskspace

import (
	"fmt"
	"strings"
	"testing"
)

func TestCheckAvailableSpace(t *testing.T) {
	dir := t.TempDir()

	t.Run("SmallFile", func(t *testing.T) {
		if err := CheckAvailableSpace(dir, 1024, DefaultSafetyMargin); err != nil {
			t.Errorf("Expected no error for small file, got: %v", err)
		}
	})

	t.Run("VeryLargeFile", func(t *testing.T) {
		// 100 PB
		err := CheckAvailableSpace(dir, 100*1024*1024*1024*1024*1024, DefaultSafetyMargin)
		if err == nil {
			t.Skip("filesystem reports extraordinary free space")
		}
		if !IsInsufficientSpaceError(err) {
			t.Errorf("Expected InsufficientSpaceError, got: %T", err)
		}
	})

	t.Run("UnknownDirectoryPasses", func(t *testing.T) {
		if err := CheckAvailableSpace(dir+"/does/not/exist", 1<<40, DefaultSafetyMargin); err != nil {
			t.Errorf("Expected missing directory to pass, got: %v", err)
		}
	})
}

func TestGetAvailableSpace(t *testing.T) {
	if GetAvailableSpace(t.TempDir()) == 0 {
		t.Error("Expected non-zero available space for a temp dir")
	}
}

func TestIsInsufficientSpaceError(t *testing.T) {
	err := &InsufficientSpaceError{Path: "/blobs", RequiredBytes: 1000, AvailableBytes: 500}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"direct", err, true},
		{"wrapped", fmt.Errorf("put blob: %w", err), true},
		{"other", fmt.Errorf("some other error"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsInsufficientSpaceError(tt.err); got != tt.want {
				t.Errorf("IsInsufficientSpaceError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInsufficientSpaceErrorMessage(t *testing.T) {
	err := &InsufficientSpaceError{
		Path:           "/blobs",
		RequiredBytes:  1024 * 1024 * 100,
		AvailableBytes: 1024 * 1024 * 50,
	}
	msg := err.Error()
	for _, want := range []string{"/blobs", "100.00", "50.00"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q should contain %q", msg, want)
		}
	}
}
