package types

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Printer выводит результат команды текстом или в структурированном формате
type Printer struct {
	Format Format
	Out    io.Writer

	ok   *color.Color
	warn *color.Color
	bad  *color.Color
	dim  *color.Color
}

func NewPrinter(format Format, out io.Writer) *Printer {
	if out == nil {
		out = os.Stdout
	}
	if format == "" {
		format = FormatText
	}
	return &Printer{
		Format: format,
		Out:    out,
		ok:     color.New(color.FgGreen, color.Bold),
		warn:   color.New(color.FgYellow),
		bad:    color.New(color.FgRed),
		dim:    color.New(color.Faint),
	}
}

// Structured true для json и yaml
func (p *Printer) Structured() bool {
	return p.Format == FormatJSON || p.Format == FormatYAML
}

// Encode пишет v в выбранном формате. В текстовом режиме ничего не делает.
func (p *Printer) Encode(v any) error {
	switch p.Format {
	case FormatJSON:
		encoder := json.NewEncoder(p.Out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case FormatYAML:
		encoder := yaml.NewEncoder(p.Out)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return err
		}
		return encoder.Close()
	}
	return nil
}

func (p *Printer) Success(format string, args ...any) {
	if p.Structured() {
		return
	}
	p.ok.Fprintf(p.Out, "✓ "+format+"\n", args...)
}

func (p *Printer) Warn(format string, args ...any) {
	if p.Structured() {
		return
	}
	p.warn.Fprintf(p.Out, "⚠️  "+format+"\n", args...)
}

func (p *Printer) Fail(format string, args ...any) {
	if p.Structured() {
		return
	}
	p.bad.Fprintf(p.Out, "✗ "+format+"\n", args...)
}

func (p *Printer) Println(args ...any) {
	if p.Structured() {
		return
	}
	fmt.Fprintln(p.Out, args...)
}

func (p *Printer) Printf(format string, args ...any) {
	if p.Structured() {
		return
	}
	fmt.Fprintf(p.Out, format, args...)
}

// Hint приглушенная подсказка
func (p *Printer) Hint(format string, args ...any) {
	if p.Structured() {
		return
	}
	p.dim.Fprintf(p.Out, format+"\n", args...)
}

// Table печатает строки с выравниванием колонок
func (p *Printer) Table(header []string, rows [][]string) {
	if p.Structured() {
		return
	}
	w := tabwriter.NewWriter(p.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(header, "\t"))
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	fmt.Fprintln(w, strings.Join(sep, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
}
