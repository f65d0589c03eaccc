package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/ordset/internal/script"
)

// Verify writes the outcome of an invariant-checked run: a one-line verdict,
// then a table of violations if there are any.
func Verify(w io.Writer, result script.Result, useColor bool) error {
	okColor := color.New(color.FgGreen, color.Bold)
	failColor := color.New(color.FgRed, color.Bold)

	if useColor {
		okColor.EnableColor()
		failColor.EnableColor()
	} else {
		okColor.DisableColor()
		failColor.DisableColor()
	}

	if len(result.Violations) == 0 {
		_, err := okColor.Fprintf(w, "OK: %d commands, %d mutations, %d checks passed\n",
			result.Commands, result.Mutations, result.Checks)
		if err != nil {
			return fmt.Errorf("write verdict: %w", err)
		}

		return nil
	}

	_, err := failColor.Fprintf(w, "FAIL: %d of %d checks failed\n", len(result.Violations), result.Checks)
	if err != nil {
		return fmt.Errorf("write verdict: %w", err)
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.AppendHeader(table.Row{"Line", "Set", "Violation"})

	for _, violation := range result.Violations {
		tbl.AppendRow(table.Row{violation.Line, violation.Set, violation.Err.Error()})
	}

	if _, err = fmt.Fprintln(w, tbl.Render()); err != nil {
		return fmt.Errorf("write violations: %w", err)
	}

	return nil
}
