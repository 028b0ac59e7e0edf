package main

import (
	"github.com/fennlang/fenn/internal/ast"
	"github.com/fennlang/fenn/internal/symbol"
	"github.com/fennlang/fenn/internal/types"
)

// demo is one named example expression built programmatically, standing in
// for parser output.
type demo struct {
	name   string
	source string
	build  func(in *symbol.Interner, cache *types.TypeCache) ast.Expr
}

var demos = []demo{
	{
		name:   "identity",
		source: `\x -> x`,
		build: func(in *symbol.Interner, cache *types.TypeCache) ast.Expr {
			x := in.Intern("x")
			return &ast.Lambda{
				Args: []*ast.Ident{{Name: x}},
				Body: &ast.Ident{Name: x},
			}
		},
	},
	{
		name:   "let-polymorphism",
		source: `let id x = x in id 2`,
		build: func(in *symbol.Interner, cache *types.TypeCache) ast.Expr {
			id := in.Intern("id")
			x := in.Intern("x")
			return &ast.Let{
				Bindings: []*ast.ValueBinding{{
					Name: &ast.PatIdent{Name: id},
					Args: []*ast.Ident{{Name: x}},
					Expr: &ast.Ident{Name: x},
				}},
				Body: &ast.App{
					Func: &ast.Ident{Name: id},
					Args: []ast.Expr{&ast.Literal{Kind: ast.IntLit, Int: 2}},
				},
			}
		},
	},
	{
		name:   "record-alias",
		source: `type T = { y : Int } in let f : T -> Int = \x -> x.y in { y = f { y = 123 } }`,
		build: func(in *symbol.Interner, cache *types.TypeCache) ast.Expr {
			tName := in.Intern("T")
			f := in.Intern("f")
			x := in.Intern("x")
			y := in.Intern("y")
			recordT := &types.Record{Row: &types.ExtendRow{
				Fields: []types.Field{{Name: y, Typ: cache.Int}},
				Rest:   cache.EmptyRow(),
			}}
			return &ast.TypeBindings{
				Bindings: []*ast.TypeBinding{{Name: tName, Body: recordT}},
				Body: &ast.Let{
					Bindings: []*ast.ValueBinding{{
						Name:     &ast.PatIdent{Name: f},
						Declared: cache.Func(&types.Ident{Name: tName}, cache.Int),
						Expr: &ast.Lambda{
							Args: []*ast.Ident{{Name: x}},
							Body: &ast.Projection{Expr: &ast.Ident{Name: x}, Field: y},
						},
					}},
					Body: &ast.Record{
						Fields: []ast.RecordField{{Name: y, Value: &ast.App{
							Func: &ast.Ident{Name: f},
							Args: []ast.Expr{&ast.Record{Fields: []ast.RecordField{
								{Name: y, Value: &ast.Literal{Kind: ast.IntLit, Int: 123}},
							}}},
						}}},
					},
				},
			}
		},
	},
	{
		name:   "overloading",
		source: `let (+) x y = x #Int+ y in let (+) x y = x #Float+ y in { x = 1 + 2, y = 1.0 + 2.0 }`,
		build: func(in *symbol.Interner, cache *types.TypeCache) ast.Expr {
			plus := in.Intern("+")
			x := in.Intern("x")
			y := in.Intern("y")
			binding := func(prim string) *ast.ValueBinding {
				return &ast.ValueBinding{
					Name: &ast.PatIdent{Name: plus},
					Args: []*ast.Ident{{Name: x}, {Name: y}},
					Expr: &ast.Infix{
						Left:  &ast.Ident{Name: x},
						Op:    &ast.Ident{Name: in.Intern(prim)},
						Right: &ast.Ident{Name: y},
					},
				}
			}
			use := func(l, r ast.Expr) ast.Expr {
				return &ast.Infix{Left: l, Op: &ast.Ident{Name: plus}, Right: r}
			}
			return &ast.Let{
				Bindings: []*ast.ValueBinding{binding("#Int+")},
				Body: &ast.Let{
					Bindings: []*ast.ValueBinding{binding("#Float+")},
					Body: &ast.Record{Fields: []ast.RecordField{
						{Name: x, Value: use(
							&ast.Literal{Kind: ast.IntLit, Int: 1},
							&ast.Literal{Kind: ast.IntLit, Int: 2},
						)},
						{Name: y, Value: use(
							&ast.Literal{Kind: ast.FloatLit, Float: 1.0},
							&ast.Literal{Kind: ast.FloatLit, Float: 2.0},
						)},
					}},
				},
			}
		},
	},
	{
		name:   "match-tuple",
		source: `match (1, "a") with | (x, y) -> (y, x)`,
		build: func(in *symbol.Interner, cache *types.TypeCache) ast.Expr {
			x := in.Intern("x")
			y := in.Intern("y")
			return &ast.Match{
				Expr: &ast.Tuple{Elems: []ast.Expr{
					&ast.Literal{Kind: ast.IntLit, Int: 1},
					&ast.Literal{Kind: ast.StringLit, Str: "a"},
				}},
				Alts: []*ast.Alt{{
					Pattern: &ast.PatTuple{Elems: []ast.Pattern{
						&ast.PatIdent{Name: x},
						&ast.PatIdent{Name: y},
					}},
					Expr: &ast.Tuple{Elems: []ast.Expr{
						&ast.Ident{Name: y},
						&ast.Ident{Name: x},
					}},
				}},
			}
		},
	},
	{
		name:   "record-destructure",
		source: `let { y } = { x = 1, y = "" } in y`,
		build: func(in *symbol.Interner, cache *types.TypeCache) ast.Expr {
			x := in.Intern("x")
			y := in.Intern("y")
			return &ast.Let{
				Bindings: []*ast.ValueBinding{{
					Name: &ast.PatRecord{Fields: []ast.PatField{{Name: y}}},
					Expr: &ast.Record{Fields: []ast.RecordField{
						{Name: x, Value: &ast.Literal{Kind: ast.IntLit, Int: 1}},
						{Name: y, Value: &ast.Literal{Kind: ast.StringLit, Str: ""}},
					}},
				}},
				Body: &ast.Ident{Name: y},
			}
		},
	},
}
