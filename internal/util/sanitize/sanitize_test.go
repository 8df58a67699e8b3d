package sanitize

import (
	"testing"
)

func TestQuestion(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"only whitespace", "  \t\r\n ", ""},
		{"only invisible", "\u200B\uFEFF", ""},
		{"windows line endings", "line one\r\nline two", "line one\nline two"},
		{"mac line endings", "line one\rline two", "line one\nline two"},
		{"zero-width characters", "what\u200B is\u200C in\u200D q1?", "what is in q1?"},
		{"collapses spaces", "what   is\t\tthis", "what is this"},
		{"keeps a paragraph break", "first\n\n\n\nsecond", "first\n\nsecond"},
		{"trims", "  hello  ", "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Question(tt.input); got != tt.expected {
				t.Errorf("Question(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"report.pdf", "report.pdf"},
		{"Reports/Archive/q0.pdf", "q0.pdf"},
		{`C:\Users\ada\deck.pptx`, "deck.pptx"},
		{"../../etc/passwd", "passwd"},
		{"bad\x00name\x07.xls", "badname.xls"},
		{"\uFEFFbom.xlsx", "bom.xlsx"},
		{"..", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Filename(tt.input); got != tt.expected {
			t.Errorf("Filename(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestField(t *testing.T) {
	if got := Field("  ada\u200B  "); got != "ada" {
		t.Errorf("Field() = %q, want %q", got, "ada")
	}
}
