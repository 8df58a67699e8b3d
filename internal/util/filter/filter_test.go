package filter

import (
	"testing"

	"github.com/docassist/docassist/internal/models"
)

func TestMatchesFilter(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		config Config
		want   bool
	}{
		{"no filters", "a.pdf", Config{}, true},
		{"include match", "a.pdf", Config{Include: []string{"*.pdf"}}, true},
		{"include miss", "a.xlsx", Config{Include: []string{"*.pdf"}}, false},
		{"exclude wins", "draft-a.pdf", Config{Include: []string{"*.pdf"}, Exclude: []string{"draft*"}}, false},
		{"office lock file", "~$budget.xlsx", Config{Exclude: []string{"~$*"}}, false},
		{"search all terms", "Quarterly-Final.pdf", Config{Search: []string{"quarterly", "final"}}, true},
		{"search missing term", "Quarterly-Draft.pdf", Config{Search: []string{"quarterly", "final"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.config.Match(tt.file, ""); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.file, got, tt.want)
			}
		})
	}
}

func TestMatchesPathFilter(t *testing.T) {
	tests := []struct {
		path    string
		pattern string
		want    bool
	}{
		{"Reports/q1.pdf", "Reports/*.pdf", true},
		{"Reports/Archive/q0.pdf", "Reports/*.pdf", false},
		{"Reports/Archive/q0.pdf", "Reports/**", true},
		{"a/b/c/q1.pdf", "**/q1.pdf", true},
		{"q1.pdf", "**/q1.pdf", true},
		{"Decks/2024/x/kickoff.pptx", "Decks/**/kickoff.pptx", true},
		{"Other/q1.pdf", "Reports/**", false},
	}

	for _, tt := range tests {
		if got := matchesPathFilter(tt.path, []string{tt.pattern}); got != tt.want {
			t.Errorf("matchesPathFilter(%q, %q) = %v, want %v", tt.path, tt.pattern, got, tt.want)
		}
	}
}

func TestApplyToEntries(t *testing.T) {
	entries := []models.FileEntry{
		models.NewFileEntry(nil, "Reports/q1.pdf"),
		models.NewFileEntry(nil, "Reports/Archive/q0.pdf"),
		models.NewFileEntry(nil, "budget.xlsx"),
	}

	got := ApplyToEntries(entries, Config{PathInclude: []string{"Reports/**"}, Exclude: []string{"q0*"}})
	if len(got) != 1 || got[0].Filename != "q1.pdf" {
		t.Fatalf("ApplyToEntries() = %+v, want only q1.pdf", got)
	}

	if all := ApplyToEntries(entries, Config{}); len(all) != 3 {
		t.Errorf("empty config filtered entries: got %d", len(all))
	}
}

func TestApplyToDocuments(t *testing.T) {
	docs := []models.Document{{ID: "1", Name: "q1-report.pdf"}, {ID: "2", Name: "deck.pptx"}}
	got := ApplyToDocuments(docs, Config{Search: []string{"REPORT"}})
	if len(got) != 1 || got[0].ID != "1" {
		t.Errorf("ApplyToDocuments() = %+v", got)
	}
}

func TestParsePatternList(t *testing.T) {
	got := ParsePatternList(" *.pdf, ,*.xlsx ")
	if len(got) != 2 || got[0] != "*.pdf" || got[1] != "*.xlsx" {
		t.Errorf("ParsePatternList() = %q", got)
	}
	if ParsePatternList("") != nil {
		t.Error("ParsePatternList(\"\") should be nil")
	}
}
