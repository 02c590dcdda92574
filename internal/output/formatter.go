package output

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/muesli/termenv"
)

// Formatter is the interface for CLI output formatting.
type Formatter interface {
	// PrintKV prints labeled key/value pairs.
	PrintKV(pairs []KV) error
	// PrintList prints tabular rows under the given columns.
	PrintList(columns []Column, rows [][]string) error
	PrintError(err error)
	PrintHint(msg string)
}

// KV is one labeled output value.
type KV struct {
	Key   string
	Value string
}

// Column defines a column for table/list output.
type Column struct {
	Name  string
	Width int // truncation width in rich mode, 0 = unlimited
}

// New creates a formatter for the specified mode.
func New(mode string) Formatter {
	switch mode {
	case "json":
		return &jsonFormatter{}
	case "rich":
		return &richFormatter{profile: termenv.ColorProfile()}
	default:
		return &plainFormatter{}
	}
}

// jsonFormatter emits JSON to stdout.
type jsonFormatter struct{}

func (f *jsonFormatter) PrintKV(pairs []KV) error {
	obj := make(map[string]string, len(pairs))
	for _, p := range pairs {
		obj[p.Key] = p.Value
	}
	return encodeJSON(os.Stdout, obj)
}

func (f *jsonFormatter) PrintList(columns []Column, rows [][]string) error {
	items := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		item := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(row) {
				item[strings.ToLower(col.Name)] = row[i]
			}
		}
		items = append(items, item)
	}
	return encodeJSON(os.Stdout, map[string]any{"data": items, "count": len(items)})
}

func (f *jsonFormatter) PrintError(err error) {
	encodeJSON(os.Stderr, map[string]string{"error": err.Error()})
}

func (f *jsonFormatter) PrintHint(msg string) {
	// Hints are for humans; JSON consumers get the error object only.
}

func encodeJSON(w *os.File, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// plainFormatter emits tab-separated values for scripting.
type plainFormatter struct{}

func (f *plainFormatter) PrintKV(pairs []KV) error {
	for _, p := range pairs {
		fmt.Fprintf(os.Stdout, "%s\t%s\n", p.Key, p.Value)
	}
	return nil
}

func (f *plainFormatter) PrintList(columns []Column, rows [][]string) error {
	headers := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = col.Name
	}
	fmt.Fprintln(os.Stdout, strings.Join(headers, "\t"))

	for _, row := range rows {
		fmt.Fprintln(os.Stdout, strings.Join(row, "\t"))
	}
	return nil
}

func (f *plainFormatter) PrintError(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
}

func (f *plainFormatter) PrintHint(msg string) {
	fmt.Fprintf(os.Stderr, "hint: %v\n", msg)
}

// richFormatter emits styled output for interactive terminals.
type richFormatter struct {
	profile termenv.Profile
}

func (f *richFormatter) PrintKV(pairs []KV) error {
	keyStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))

	for _, p := range pairs {
		fmt.Fprintf(os.Stdout, "%s: %s\n", keyStyle.Render(p.Key), p.Value)
	}
	return nil
}

func (f *richFormatter) PrintList(columns []Column, rows [][]string) error {
	RenderTable(os.Stdout, columns, rows)
	return nil
}

func (f *richFormatter) PrintError(err error) {
	style := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	fmt.Fprintf(os.Stderr, "%s\n", style.Render("error: "+err.Error()))
}

func (f *richFormatter) PrintHint(msg string) {
	style := lipgloss.NewStyle().Faint(true).Foreground(lipgloss.Color("8"))
	fmt.Fprintf(os.Stderr, "%s\n", style.Render("hint: "+msg))
}
