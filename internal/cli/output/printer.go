package output

import (
	"fmt"
	"io"
)

// Status line colors. Reset ends every colored line so a crash mid-output
// never leaves the terminal tinted.
const (
	greenText  = "\033[32m"
	redText    = "\033[31m"
	yellowText = "\033[33m"
	resetText  = "\033[0m"
)

// Printer renders command results on one writer in one format. Commands
// build a Printer per invocation; it carries no state beyond the format and
// whether the writer tolerates ANSI color.
type Printer struct {
	out    io.Writer
	format Format
	color  bool
}

// NewPrinter creates a Printer for the given writer.
func NewPrinter(out io.Writer, format Format, color bool) *Printer {
	return &Printer{out: out, format: format, color: color}
}

// Format returns the printer's output format.
func (p *Printer) Format() Format {
	return p.format
}

// ColorEnabled reports whether status lines are colored.
func (p *Printer) ColorEnabled() bool {
	return p.color
}

// Print renders data in the configured format. Table format requires data
// to implement TableRenderer; anything else falls back to JSON rather than
// printing nothing.
func (p *Printer) Print(data any) error {
	switch p.format {
	case FormatTable:
		if renderer, ok := data.(TableRenderer); ok {
			return PrintTable(p.out, renderer)
		}
		return PrintJSON(p.out, data)
	case FormatJSON:
		return PrintJSON(p.out, data)
	case FormatYAML:
		return PrintYAML(p.out, data)
	default:
		return fmt.Errorf("unknown format: %s", p.format)
	}
}

// Println prints a plain line.
func (p *Printer) Println(args ...any) {
	_, _ = fmt.Fprintln(p.out, args...)
}

// Success prints a green status line.
func (p *Printer) Success(msg string) {
	p.statusLine(greenText, msg)
}

// Error prints a red status line.
func (p *Printer) Error(msg string) {
	p.statusLine(redText, msg)
}

// Warning prints a yellow status line.
func (p *Printer) Warning(msg string) {
	p.statusLine(yellowText, msg)
}

func (p *Printer) statusLine(color, msg string) {
	if !p.color {
		_, _ = fmt.Fprintln(p.out, msg)
		return
	}
	_, _ = fmt.Fprintf(p.out, "%s%s%s\n", color, msg, resetText)
}
