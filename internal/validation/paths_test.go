package validation

import (
	"path/filepath"
	"testing"
)

func TestValidatePathInDirectory(t *testing.T) {
	base := t.TempDir()

	tests := []struct {
		name    string
		path    string
		base    string
		wantErr bool
	}{
		{"file in base", "report.pdf", base, false},
		{"nested file", filepath.Join("users", "7", "report.pdf"), base, false},
		{"base itself", ".", base, false},
		{"dotdot inside name", "q3..final.pdf", base, false},
		{"absolute inside base", filepath.Join(base, "a", "b.pdf"), base, false},
		{"parent", "..", base, true},
		{"escape via dotdot", filepath.Join("..", "etc", "passwd"), base, true},
		{"escape after descent", filepath.Join("a", "..", "..", "x"), base, true},
		{"absolute outside base", filepath.Join(filepath.Dir(base), "other.pdf"), base, true},
		{"sibling with shared prefix", base + "-evil", base, true},
		{"empty path", "", base, true},
		{"empty base", "report.pdf", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathInDirectory(tt.path, tt.base)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePathInDirectory(%q, %q) error = %v, wantErr %v", tt.path, tt.base, err, tt.wantErr)
			}
		})
	}
}
