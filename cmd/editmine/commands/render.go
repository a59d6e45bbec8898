package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/editmine/pkg/classify"
	"github.com/Sumatoshi-tech/editmine/pkg/token"
)

const yamlIndent = 2

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	err := enc.Encode(v)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	return nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(yamlIndent)

	err := enc.Encode(v)
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	return enc.Close()
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false

	return tbl
}

// flagsTable renders the comparison flags as a two-column table.
func flagsTable(flags classify.Flags) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Flag", "Value"})
	tbl.AppendRows([]table.Row{
		{"mode", flags.Mode.String()},
		{"comparable", flags.Comparable},
		{"string change", flags.StringChange},
		{"name change", flags.NameChange},
		{"number change", flags.NumberChange},
		{"operator change", flags.OperatorChange},
		{"same layout", flags.SameLayout},
		{"layout change", flags.LayoutChange},
	})
	tbl.AppendFooter(table.Row{"not lcs / not dup / distance",
		fmt.Sprintf("%d / %d / %d", flags.NotLCS, flags.NotDup, flags.Distance)})

	return tbl.Render()
}

// tokensTable renders one row per token.
func tokensTable(seq token.Sequence) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"#", "Line", "Offset", "Class", "Content"})

	for i, tok := range seq {
		tbl.AppendRow(table.Row{i, tok.Line, tok.Offset, tok.Class.String(), fmt.Sprintf("%q", tok.Content)})
	}

	tbl.AppendFooter(table.Row{"", "", "", "Total", len(seq)})

	return tbl.Render()
}

// printRecords writes edit records, colored by their kind.
func printRecords(w io.Writer, records []string) {
	for _, rec := range records {
		recordColor(rec).Fprintln(w, rec)
	}
}

func recordColor(rec string) *color.Color {
	switch {
	case strings.HasPrefix(rec, "+ "):
		return color.New(color.FgGreen)
	case strings.HasPrefix(rec, "- "):
		return color.New(color.FgRed)
	case strings.HasPrefix(rec, "* "):
		return color.New(color.FgYellow)
	default:
		return color.New(color.Faint)
	}
}
