package madison

import (
	"strings"
	"unicode/utf8"
)

const columnSeparator = " | "

// RenderTable renders rows as a pipe separated table padded to the widest cell.
// Every line is right-trimmed and the result ends with a single newline.
func RenderTable(rows []OutputRecord) string {
	cells := make([][4]string, len(rows))
	var widths [4]int
	for i, r := range rows {
		cells[i] = [4]string{r.Package, r.Version, r.Key, r.Architectures}
		for col, c := range cells[i] {
			widths[col] = max(widths[col], utf8.RuneCountInString(c))
		}
	}

	lines := make([]string, 0, len(rows))
	var sb strings.Builder
	for _, row := range cells {
		sb.Reset()
		for col, c := range row {
			if col > 0 {
				sb.WriteString(columnSeparator)
			}
			sb.WriteString(c)
			sb.WriteString(strings.Repeat(" ", widths[col]-utf8.RuneCountInString(c)))
		}
		lines = append(lines, strings.TrimRight(sb.String(), " "))
	}
	return strings.Join(lines, "\n") + "\n"
}
