package strings

import "testing"

func TestPluralize(t *testing.T) {
	if got := Pluralize("document", 1); got != "document" {
		t.Errorf("Pluralize(1) = %q", got)
	}
	if got := Pluralize("document", 0); got != "documents" {
		t.Errorf("Pluralize(0) = %q", got)
	}
	if got := CountNoun(3, "document"); got != "3 documents" {
		t.Errorf("CountNoun(3) = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"quarterly-report.pdf", 10, "quarter..."},
		{"abcdef", 3, "abc"},
		{"åäöåäö", 5, "åä..."},
		{"anything", 0, "anything"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
