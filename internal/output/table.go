package output

import (
	"io"

	"github.com/rodaine/table"
)

// RenderTable renders rows under columns for rich mode.
func RenderTable(w io.Writer, columns []Column, rows [][]string) {
	if len(rows) == 0 {
		return
	}

	headers := make([]interface{}, len(columns))
	for i, col := range columns {
		headers[i] = col.Name
	}

	tbl := table.New(headers...).WithWriter(w)
	for _, row := range rows {
		cells := make([]interface{}, len(columns))
		for i := range columns {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			if columns[i].Width > 0 {
				value = TruncateString(value, columns[i].Width)
			}
			cells[i] = value
		}
		tbl.AddRow(cells...)
	}
	tbl.Print()
}

// TruncateString truncates a string to maxLen and adds "..." if needed.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
