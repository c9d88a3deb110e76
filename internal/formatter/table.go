// Package formatter renders aligned text tables for terminal output.
package formatter

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const minColumnWidth = 3

// FormatTable renders headers and rows as a markdown-style table whose columns
// are padded to their display width, so wide runes stay aligned.
func FormatTable(headers []string, rows [][]string) []string {
	colCount := len(headers)
	for _, row := range rows {
		colCount = max(colCount, len(row))
	}

	if colCount == 0 {
		return nil
	}

	// Calculate max widths (using display width)
	colWidths := make([]int, colCount)
	for _, row := range append([][]string{headers}, rows...) {
		for i, cell := range row {
			colWidths[i] = max(colWidths[i], runewidth.StringWidth(strings.TrimSpace(cell)))
		}
	}

	for i := range colWidths {
		colWidths[i] = max(colWidths[i], minColumnWidth)
	}

	result := make([]string, 0, len(rows)+2)
	result = append(result, formatRow(headers, colWidths, false))
	result = append(result, formatRow(nil, colWidths, true))

	for _, row := range rows {
		result = append(result, formatRow(row, colWidths, false))
	}

	return result
}

func formatRow(cells []string, widths []int, separator bool) string {
	var sb strings.Builder

	sb.WriteString("|")

	for j, width := range widths {
		sb.WriteString(" ")

		if separator {
			sb.WriteString(strings.Repeat("-", width))
		} else {
			content := ""
			if j < len(cells) {
				content = strings.TrimSpace(cells[j])
			}

			sb.WriteString(content)

			if padding := width - runewidth.StringWidth(content); padding > 0 {
				sb.WriteString(strings.Repeat(" ", padding))
			}
		}

		sb.WriteString(" |")
	}

	return sb.String()
}

// Truncate shortens s to at most width display columns, marking the cut with "...".
func Truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "...")
}
