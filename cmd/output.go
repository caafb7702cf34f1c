package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/frahmantamala/equipment-inventory/internal/core/common/validation"
	"github.com/frahmantamala/equipment-inventory/internal/pending"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)

	severityStyles = map[pending.Severity]lipgloss.Style{
		pending.SeverityNominal:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		pending.SeverityAttention: lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		pending.SeverityCritical:  lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}
)

// emitJSON writes v as indented JSON when --json is set. It returns true
// when the caller should skip text output.
func emitJSON(out io.Writer, v any) (bool, error) {
	if !jsonOutput {
		return false, nil
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Slice && rv.IsNil() {
		v = []any{}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return true, enc.Encode(v)
}

func newTable(out io.Writer, headers ...string) *tabwriter.Writer {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(headers, "\t")))
	return w
}

func row(w io.Writer, cells ...string) {
	fmt.Fprintln(w, strings.Join(cells, "\t"))
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format(validation.DateLayout)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(validation.DateLayout + " 15:04")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// parseOptionalDate turns an empty flag into nil.
func parseOptionalDate(value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := validation.ParseDate(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func done(out io.Writer, format string, args ...any) {
	fmt.Fprintln(out, okStyle.Render(fmt.Sprintf(format, args...)))
}
