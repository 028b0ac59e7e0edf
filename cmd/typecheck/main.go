// Command typecheck demonstrates the Fenn type inference core on
// programmatically constructed ASTs. Run without arguments to check every
// demo; pass -i for an interactive picker.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"github.com/fennlang/fenn/internal/check"
	"github.com/fennlang/fenn/internal/diag"
	"github.com/fennlang/fenn/internal/symbol"
	"github.com/fennlang/fenn/internal/types"
)

func main() {
	interactive := flag.Bool("i", false, "pick demos interactively")
	showMetadata := flag.Bool("metadata", false, "dump binding metadata as YAML")
	flag.Parse()

	if *interactive {
		runInteractive(*showMetadata)
		return
	}
	for _, d := range demos {
		runDemo(d, *showMetadata)
	}
}

func runDemo(d demo, showMetadata bool) {
	printer := diag.NewPrinter(os.Stdout)
	heading := color.New(color.Bold)
	heading.Printf("%s\n", d.name)
	fmt.Printf("    %s\n", d.source)

	interner := symbol.NewInterner()
	cache := types.NewTypeCache()
	env := types.NewMapEnv(cache)
	tc := check.New(interner, cache, env)

	expr := d.build(interner, cache)
	typ, errs := tc.TypecheckExpr(expr)
	if errs.HasErrors() {
		for _, e := range errs {
			printer.Report(e.Err.Code(), formatSpan(e.Span.Start, e.Span.End), e.Err.Error())
		}
	} else {
		printer.Success("%s", typ)
	}

	if showMetadata {
		md := check.ExtractMetadata(expr)
		if len(md) > 0 {
			out, err := check.EncodeMetadata(md)
			if err == nil {
				fmt.Print(string(out))
			}
		}
	}
	fmt.Println()
}

func formatSpan(start, end uint32) string {
	return fmt.Sprintf("%d..%d", start, end)
}

func runInteractive(showMetadata bool) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(func(prefix string) []string {
		var out []string
		for _, d := range demos {
			if strings.HasPrefix(d.name, prefix) {
				out = append(out, d.name)
			}
		}
		return out
	})

	fmt.Println("Fenn typecheck demo. Names:")
	for _, d := range demos {
		fmt.Printf("    %s\n", d.name)
	}
	fmt.Println("Empty line or :quit exits.")

	for {
		input, err := line.Prompt("demo> ")
		if err != nil || input == "" || input == ":quit" {
			fmt.Println()
			return
		}
		line.AppendHistory(input)
		found := false
		for _, d := range demos {
			if d.name == input {
				runDemo(d, showMetadata)
				found = true
				break
			}
		}
		if !found {
			fmt.Printf("unknown demo %q\n", input)
		}
	}
}
