package status

import (
	"os"
	"strings"

	"catalog-sync/internal/util"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// Console prints lines through a SafePrinter, colouring the tag when the
// output is a terminal.
type Console struct {
	printer *util.SafePrinter
	color   bool
}

func NewConsole(printer *util.SafePrinter, color bool) *Console {
	if printer == nil {
		printer = util.Default
	}
	return &Console{printer: printer, color: color}
}

// StdoutIsTerminal reports whether colour output makes sense for stdout.
func StdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func (c *Console) Emit(line string) {
	if c.color {
		line = colorize(line)
	}
	c.printer.Line(line, c.color)
}

func colorize(line string) string {
	for _, t := range []struct {
		tag   string
		style lipgloss.Style
	}{
		{TagError, errorStyle},
		{TagWarn, warnStyle},
		{TagInfo, infoStyle},
	} {
		if strings.HasPrefix(line, t.tag) {
			return t.style.Render(t.tag) + line[len(t.tag):]
		}
	}
	return line
}
