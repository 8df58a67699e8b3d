package transfer

import (
	"fmt"
	"strings"

	"github.com/docassist/docassist/internal/constants"
	"github.com/docassist/docassist/internal/models"
)

// FailureLines lists the first MaxFailuresShown failures as
// "filename: reason" and folds the rest into "...and N more".
func FailureLines(failed []models.UploadOutcome) []string {
	shown := failed
	if len(shown) > constants.MaxFailuresShown {
		shown = shown[:constants.MaxFailuresShown]
	}
	lines := make([]string, 0, len(shown)+1)
	for _, f := range shown {
		lines = append(lines, fmt.Sprintf("%s: %s", f.Filename, f.ErrorMessage))
	}
	if rest := len(failed) - len(shown); rest > 0 {
		lines = append(lines, fmt.Sprintf("...and %d more", rest))
	}
	return lines
}

// Describe renders a one-paragraph summary of a finished batch.
func Describe(summary models.BatchSummary) string {
	if len(summary.Failed) == 0 {
		return fmt.Sprintf("Successfully uploaded %d file(s)", summary.UploadedCount)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Uploaded %d of %d file(s). %d failed:\n",
		summary.UploadedCount, summary.Total(), len(summary.Failed))
	for _, line := range FailureLines(summary.Failed) {
		b.WriteString("  ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
