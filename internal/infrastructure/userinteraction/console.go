package userinteraction

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"mpc-refresher/internal/application/port/output"
	"mpc-refresher/internal/domain/entity"
)

var _ output.ProgressPort = (*ConsoleProgress)(nil)

// ConsoleProgress prints one plain line per step. Colors are dropped
// automatically when the output is not a terminal.
type ConsoleProgress struct {
	out io.Writer
}

func NewConsoleProgress() *ConsoleProgress {
	return &ConsoleProgress{out: color.Output}
}

func NewWriterProgress(w io.Writer) *ConsoleProgress {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleProgress{out: w}
}

func (c *ConsoleProgress) Status(msg string) {
	fmt.Fprintln(c.out, msg)
}

func (c *ConsoleProgress) Refreshing(current, total int, id entity.ProjectID) {
	cyan := color.New(color.FgCyan)
	cyan.Fprintf(c.out, "Refreshing %d/%d", current, total)

	dim := color.New(color.Faint)
	dim.Fprintf(c.out, " (%s)\n", id)
}

func (c *ConsoleProgress) Retrying(id entity.ProjectID, err error) {
	yellow := color.New(color.FgYellow)
	yellow.Fprintf(c.out, "Retrying %s\n", id)

	if err != nil {
		dim := color.New(color.Faint)
		dim.Fprintf(c.out, "   %s\n", truncate(err.Error(), 200))
	}
}

func (c *ConsoleProgress) Done(result *entity.RefreshResult) {
	if result == nil {
		return
	}
	green := color.New(color.FgGreen)
	green.Fprintf(c.out, "✓ Refreshed %d project(s)\n", len(result.Refreshed))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
