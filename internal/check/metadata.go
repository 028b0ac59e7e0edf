package check

import (
	"gopkg.in/yaml.v3"

	"github.com/fennlang/fenn/internal/ast"
)

// Metadata is the doc-comment information attached to one typed binding.
// Tooling (completion, documentation generators) consumes the YAML form.
type Metadata struct {
	Comment string   `yaml:"comment,omitempty"`
	Args    []string `yaml:"args,omitempty,flow"`
	Type    string   `yaml:"type,omitempty"`
}

// ExtractMetadata walks a typed expression and collects the metadata of
// the let and type bindings it reaches, keyed by the bound name's spelling.
// The walk descends through applications, if branches, match arms, let
// bindings and bodies, lambda bodies, type-binding bodies and blocks; it
// does not descend into records, tuples, arrays, infix operands,
// projections, if conditions or match scrutinees, so bindings nested there
// are not collected. Run it after TypecheckExpr so the resolved types are
// available.
func ExtractMetadata(expr ast.Expr) map[string]Metadata {
	md := make(map[string]Metadata)
	collectMetadata(expr, md)
	return md
}

func collectMetadata(expr ast.Expr, md map[string]Metadata) {
	switch e := expr.(type) {
	case *ast.App:
		collectMetadata(e.Func, md)
		for _, a := range e.Args {
			collectMetadata(a, md)
		}
	case *ast.IfElse:
		collectMetadata(e.Then, md)
		collectMetadata(e.Else, md)
	case *ast.Match:
		for _, alt := range e.Alts {
			collectMetadata(alt.Expr, md)
		}
	case *ast.Let:
		for _, b := range e.Bindings {
			id, ok := b.Name.(*ast.PatIdent)
			if !ok {
				continue
			}
			entry := Metadata{Comment: b.Comment}
			for _, arg := range b.Args {
				entry.Args = append(entry.Args, arg.Name.Declared())
			}
			if b.Resolved != nil {
				entry.Type = b.Resolved.String()
			}
			if entry.Comment != "" || entry.Type != "" || len(entry.Args) > 0 {
				md[id.Name.Declared()] = entry
			}
			collectMetadata(b.Expr, md)
		}
		collectMetadata(e.Body, md)
	case *ast.Lambda:
		collectMetadata(e.Body, md)
	case *ast.TypeBindings:
		for _, b := range e.Bindings {
			if b.Comment != "" {
				md[b.Name.Declared()] = Metadata{Comment: b.Comment}
			}
		}
		collectMetadata(e.Body, md)
	case *ast.Block:
		for _, sub := range e.Exprs {
			collectMetadata(sub, md)
		}
	}
}

// EncodeMetadata renders the collected metadata as YAML.
func EncodeMetadata(md map[string]Metadata) ([]byte, error) {
	return yaml.Marshal(md)
}
