// Package render prints set statistics and verification reports.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/ordset/internal/script"
)

// Output formats.
const (
	FormatText  = "text"
	FormatTable = "table"
	FormatYAML  = "yaml"
	FormatJSON  = "json"
)

const yamlIndent = 2

// ErrUnknownFormat is returned for an output format outside the Format* constants.
var ErrUnknownFormat = errors.New("unknown output format")

// statsDocument is the YAML and JSON shape of a stats report.
type statsDocument struct {
	Sets []script.SetStats `json:"sets" yaml:"sets"`
}

// Stats writes stats in the given format.
func Stats(w io.Writer, format string, stats []script.SetStats) error {
	switch format {
	case FormatTable:
		return statsTable(w, stats)
	case FormatText:
		return statsText(w, stats)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(yamlIndent)

		if err := enc.Encode(statsDocument{Sets: stats}); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}

		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}

		return nil
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		if err := enc.Encode(statsDocument{Sets: nonNil(stats)}); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}

		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func nonNil(stats []script.SetStats) []script.SetStats {
	if stats == nil {
		return []script.SetStats{}
	}

	return stats
}

func statsTable(w io.Writer, stats []script.SetStats) error {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false

	tbl.AppendHeader(table.Row{"Set", "Size", "Height", "Black height", "Shard", "Arena used", "Arena size", "Arena memory"})
	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
	})

	total := 0

	for _, set := range stats {
		tbl.AppendRow(table.Row{
			set.Name,
			set.Size,
			set.Height,
			set.BlackHeight,
			set.Shard,
			set.ArenaUsed,
			set.ArenaSize,
			humanize.IBytes(set.ArenaBytes),
		})

		total += set.Size
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d sets", len(stats)), total})

	if _, err := fmt.Fprintln(w, tbl.Render()); err != nil {
		return fmt.Errorf("write table: %w", err)
	}

	return nil
}

func statsText(w io.Writer, stats []script.SetStats) error {
	for _, set := range stats {
		_, err := fmt.Fprintf(w, "%s size=%d height=%d black_height=%d shard=%d arena=%s/%s (%s)\n",
			set.Name, set.Size, set.Height, set.BlackHeight, set.Shard,
			strconv.Itoa(set.ArenaUsed), strconv.Itoa(set.ArenaSize), humanize.IBytes(set.ArenaBytes))
		if err != nil {
			return fmt.Errorf("write stats: %w", err)
		}
	}

	return nil
}
