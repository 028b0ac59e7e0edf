package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Printer renders diagnostics for humans. Colors degrade to plain text
// automatically when standard output is not a terminal (the color
// package's global setting), whichever writer the Printer is given.
type Printer struct {
	out io.Writer

	codeColor *color.Color
	spanColor *color.Color
	errColor  *color.Color
}

// NewPrinter creates a printer writing to out.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{
		out:       out,
		codeColor: color.New(color.FgCyan, color.Bold),
		spanColor: color.New(color.Faint),
		errColor:  color.New(color.FgRed, color.Bold),
	}
}

// Report writes one diagnostic. The span is preformatted by the caller
// since the core treats positions as opaque.
func (p *Printer) Report(code Code, span string, message string) {
	p.errColor.Fprint(p.out, "error")
	fmt.Fprint(p.out, "[")
	p.codeColor.Fprint(p.out, string(code))
	fmt.Fprint(p.out, "]")
	if span != "" {
		fmt.Fprint(p.out, " ")
		p.spanColor.Fprint(p.out, span)
	}
	fmt.Fprint(p.out, ": ")

	lines := strings.Split(message, "\n")
	fmt.Fprintln(p.out, lines[0])
	for _, line := range lines[1:] {
		fmt.Fprintf(p.out, "    %s\n", line)
	}
}

// Success writes a success line (used by the demo binary).
func (p *Printer) Success(format string, args ...interface{}) {
	color.New(color.FgGreen).Fprint(p.out, "ok")
	fmt.Fprint(p.out, ": ")
	fmt.Fprintf(p.out, format+"\n", args...)
}
