package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/edupredict-api/pkg/performance"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(18)
	goodStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	badStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// tierStyle colours a classification label by severity. Risk labels are
// lower case; success labels are capitalised, so "high" and "High" differ.
func tierStyle(label string) lipgloss.Style {
	switch label {
	case string(performance.RiskLow), string(performance.SuccessHigh):
		return goodStyle
	case string(performance.RiskMedium), string(performance.SuccessMedium), string(performance.SuccessAverage):
		return warnStyle
	default:
		return badStyle
	}
}

type row struct {
	label string
	value string
	style *lipgloss.Style
}

func printRows(w io.Writer, heading string, rows []row) {
	fmt.Fprintln(w, headingStyle.Render(heading))
	for _, r := range rows {
		value := r.value
		if r.style != nil {
			value = r.style.Render(value)
		}
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render(r.label), value)
	}
}

func printStructured(w io.Writer, format string, v interface{}) error {
	switch format {
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}
