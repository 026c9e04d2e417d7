package main

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
)

type table struct {
	header []string
	rows   [][]string
}

// render writes the table with columns padded to their display width. The
// last column is never padded.
func (t *table) render(w io.Writer, color bool) error {
	widths := make([]int, len(t.header))
	for _, row := range append([][]string{t.header}, t.rows...) {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(cell))
			}
		}
	}

	line := func(cells []string, style func(string) string) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			if i < len(cells)-1 {
				cell = runewidth.FillRight(cell, widths[i])
			}
			parts[i] = style(cell)
		}
		return strings.Join(parts, "  ") + "\n"
	}
	plain := func(s string) string { return s }

	headerStyle := plain
	if color {
		headerStyle = bold
	}
	if _, err := io.WriteString(w, line(t.header, headerStyle)); err != nil {
		return err
	}
	for _, row := range t.rows {
		if _, err := io.WriteString(w, line(row, plain)); err != nil {
			return err
		}
	}
	return nil
}

func bold(s string) string {
	return "\x1b[1m" + s + "\x1b[0m"
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
