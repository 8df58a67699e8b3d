package cli

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

// printValue writes v as JSON or YAML, or calls table for the default
// human-readable format.
func printValue(cmd *cobra.Command, format string, v interface{}, table func()) error {
	out := stdout(cmd)
	switch format {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(out, string(data))
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		fmt.Fprint(out, string(data))
	default:
		table()
	}
	return nil
}

func maxWidth(values []string) int {
	w := 0
	for _, v := range values {
		if len(v) > w {
			w = len(v)
		}
	}
	return w
}
