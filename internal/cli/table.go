package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
)

const tablePadding = 2

var headerStyle = lipgloss.NewStyle().Bold(true)

// writeTable aligns columns; a styled header is rendered after alignment so
// escape codes do not skew column widths.
func writeTable(out io.Writer, headers []string, rows [][]string, styled bool) error {
	var buf bytes.Buffer
	writer := tabwriter.NewWriter(&buf, 0, 0, tablePadding, ' ', 0)
	if len(headers) > 0 {
		fmt.Fprintln(writer, strings.Join(headers, "\t"))
	}
	for _, row := range rows {
		fmt.Fprintln(writer, strings.Join(row, "\t"))
	}
	if err := writer.Flush(); err != nil {
		return err
	}

	text := buf.String()
	if styled && len(headers) > 0 {
		header, rest, _ := strings.Cut(text, "\n")
		text = headerStyle.Render(strings.TrimRight(header, " ")) + "\n" + rest
	}
	_, err := io.WriteString(out, text)
	return err
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatYesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
