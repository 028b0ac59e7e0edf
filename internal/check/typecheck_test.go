package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fennlang/fenn/internal/ast"
	"github.com/fennlang/fenn/internal/symbol"
	"github.com/fennlang/fenn/internal/types"
)

type fixture struct {
	in    *symbol.Interner
	cache *types.TypeCache
	env   *types.MapEnv
	tc    *Typecheck
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	in := symbol.NewInterner()
	cache := types.NewTypeCache()
	env := types.NewMapEnv(cache)
	return &fixture{in: in, cache: cache, env: env, tc: New(in, cache, env)}
}

func (f *fixture) sym(name string) symbol.Symbol { return f.in.Intern(name) }

func (f *fixture) ident(name string) *ast.Ident { return &ast.Ident{Name: f.sym(name)} }

func (f *fixture) intLit(v int64) ast.Expr { return &ast.Literal{Kind: ast.IntLit, Int: v} }

func (f *fixture) floatLit(v float64) ast.Expr { return &ast.Literal{Kind: ast.FloatLit, Float: v} }

func (f *fixture) strLit(s string) ast.Expr { return &ast.Literal{Kind: ast.StringLit, Str: s} }

func (f *fixture) lambda(body ast.Expr, args ...string) *ast.Lambda {
	idents := make([]*ast.Ident, len(args))
	for i, a := range args {
		idents[i] = f.ident(a)
	}
	return &ast.Lambda{Args: idents, Body: body}
}

func (f *fixture) letOne(b *ast.ValueBinding, body ast.Expr) *ast.Let {
	return &ast.Let{Bindings: []*ast.ValueBinding{b}, Body: body}
}

func (f *fixture) check(t *testing.T, expr ast.Expr) types.Type {
	t.Helper()
	typ, errs := f.tc.TypecheckExpr(expr)
	require.False(t, errs.HasErrors(), "unexpected type errors: %v", errs)
	require.NotNil(t, typ)
	return typ
}

// Scenario: \x -> x  :  forall a . a -> a
func TestInferIdentityLambda(t *testing.T) {
	f := newFixture(t)
	typ := f.check(t, f.lambda(f.ident("x"), "x"))
	assert.Equal(t, "forall a . a -> a", typ.String())
}

// Scenario: let id x = x in id 2  :  Int, with id stored polymorphic.
func TestLetPolymorphism(t *testing.T) {
	f := newFixture(t)
	binding := &ast.ValueBinding{
		Name: &ast.PatIdent{Name: f.sym("id")},
		Args: []*ast.Ident{f.ident("x")},
		Expr: f.ident("x"),
	}
	expr := f.letOne(binding, &ast.App{Func: f.ident("id"), Args: []ast.Expr{f.intLit(2)}})

	typ := f.check(t, expr)
	assert.True(t, types.Equal(typ, f.cache.Int), "got %s", typ)
	assert.Equal(t, "forall a . a -> a", binding.Resolved.String())
}

func TestLetPolymorphismTwoInstantiations(t *testing.T) {
	f := newFixture(t)
	binding := &ast.ValueBinding{
		Name: &ast.PatIdent{Name: f.sym("id")},
		Args: []*ast.Ident{f.ident("x")},
		Expr: f.ident("x"),
	}
	// (id 2, id "s") exercises two instantiations of one binding.
	expr := f.letOne(binding, &ast.Tuple{Elems: []ast.Expr{
		&ast.App{Func: f.ident("id"), Args: []ast.Expr{f.intLit(2)}},
		&ast.App{Func: f.ident("id"), Args: []ast.Expr{f.strLit("s")}},
	}})

	typ := f.check(t, expr)
	want := &types.Record{Row: &types.ExtendRow{
		Fields: []types.Field{
			{Name: f.sym("_0"), Typ: f.cache.Int},
			{Name: f.sym("_1"), Typ: f.cache.Str},
		},
		Rest: f.cache.EmptyRow(),
	}}
	assert.True(t, types.Equal(typ, want), "got %s", typ)
}

// Scenario: type T = { y : Int } in let f : T -> Int = \x -> x.y
// in { y = f { y = 123 } }  :  T
func TestRecordAliasRoundTrip(t *testing.T) {
	f := newFixture(t)
	y := f.sym("y")
	recordT := &types.Record{Row: &types.ExtendRow{
		Fields: []types.Field{{Name: y, Typ: f.cache.Int}},
		Rest:   f.cache.EmptyRow(),
	}}
	expr := &ast.TypeBindings{
		Bindings: []*ast.TypeBinding{{Name: f.sym("T"), Body: recordT}},
		Body: f.letOne(
			&ast.ValueBinding{
				Name:     &ast.PatIdent{Name: f.sym("f")},
				Declared: f.cache.Func(&types.Ident{Name: f.sym("T")}, f.cache.Int),
				Expr: f.lambda(
					&ast.Projection{Expr: f.ident("x"), Field: y}, "x"),
			},
			&ast.Record{Fields: []ast.RecordField{{
				Name: y,
				Value: &ast.App{Func: f.ident("f"), Args: []ast.Expr{
					&ast.Record{Fields: []ast.RecordField{{Name: y, Value: f.intLit(123)}}},
				}},
			}}},
		),
	}

	typ := f.check(t, expr)
	alias, ok := typ.(*types.Alias)
	require.True(t, ok, "the result refers to the alias by name, got %s", typ)
	assert.Equal(t, "T", alias.Ref.Name.Declared())
}

// Scenario: overloaded (+) picks the Int binding for ints and the Float
// binding for floats, and the renamer rewrites the uses accordingly.
func TestOverloadResolutionAndRenaming(t *testing.T) {
	f := newFixture(t)
	plus := f.sym("+")
	mkBinding := func(prim string) *ast.ValueBinding {
		return &ast.ValueBinding{
			Name: &ast.PatIdent{Name: plus},
			Args: []*ast.Ident{f.ident("x"), f.ident("y")},
			Expr: &ast.Infix{
				Left:  f.ident("x"),
				Op:    f.ident(prim),
				Right: f.ident("y"),
			},
		}
	}
	intUse := &ast.Infix{Left: f.intLit(1), Op: &ast.Ident{Name: plus}, Right: f.intLit(2)}
	floatUse := &ast.Infix{Left: f.floatLit(1.0), Op: &ast.Ident{Name: plus}, Right: f.floatLit(2.0)}

	expr := f.letOne(mkBinding("#Int+"),
		f.letOne(mkBinding("#Float+"),
			&ast.Record{Fields: []ast.RecordField{
				{Name: f.sym("x"), Value: intUse},
				{Name: f.sym("y"), Value: floatUse},
			}}))

	typ := f.check(t, expr)
	want := &types.Record{Row: &types.ExtendRow{
		Fields: []types.Field{
			{Name: f.sym("x"), Typ: f.cache.Int},
			{Name: f.sym("y"), Typ: f.cache.Float},
		},
		Rest: f.cache.EmptyRow(),
	}}
	assert.True(t, types.Equal(typ, want), "got %s", typ)

	// The renamer selected the original Int binding for the first use and
	// the renamed Float binding for the second.
	assert.True(t, plus == intUse.Op.Name, "first use keeps the original + symbol")
	assert.True(t, plus != floatUse.Op.Name, "second use is renamed to the Float binding's symbol")
	assert.Equal(t, "+", floatUse.Op.Name.Declared())
}

// Scenario: match (1, "a") with | (x, y) -> (y, x)  :  (String, Int)
func TestMatchTupleSwap(t *testing.T) {
	f := newFixture(t)
	expr := &ast.Match{
		Expr: &ast.Tuple{Elems: []ast.Expr{f.intLit(1), f.strLit("a")}},
		Alts: []*ast.Alt{{
			Pattern: &ast.PatTuple{Elems: []ast.Pattern{
				&ast.PatIdent{Name: f.sym("x")},
				&ast.PatIdent{Name: f.sym("y")},
			}},
			Expr: &ast.Tuple{Elems: []ast.Expr{f.ident("y"), f.ident("x")}},
		}},
	}

	typ := f.check(t, expr)
	want := &types.Record{Row: &types.ExtendRow{
		Fields: []types.Field{
			{Name: f.sym("_0"), Typ: f.cache.Str},
			{Name: f.sym("_1"), Typ: f.cache.Int},
		},
		Rest: f.cache.EmptyRow(),
	}}
	assert.True(t, types.Equal(typ, want), "got %s", typ)
}

// Scenario: let { y } = { x = 1, y = "" } in y  :  String
func TestRecordDestructuring(t *testing.T) {
	f := newFixture(t)
	expr := f.letOne(
		&ast.ValueBinding{
			Name: &ast.PatRecord{Fields: []ast.PatField{{Name: f.sym("y")}}},
			Expr: &ast.Record{Fields: []ast.RecordField{
				{Name: f.sym("x"), Value: f.intLit(1)},
				{Name: f.sym("y"), Value: f.strLit("")},
			}},
		},
		f.ident("y"),
	)

	typ := f.check(t, expr)
	assert.True(t, types.Equal(typ, f.cache.Str), "got %s", typ)
}

func TestIfElseUnifiesBranches(t *testing.T) {
	f := newFixture(t)
	f.env.AddType(f.sym("flag"), f.cache.Bool)
	expr := &ast.IfElse{
		Cond: f.ident("flag"),
		Then: f.intLit(1),
		Else: f.intLit(2),
	}
	typ := f.check(t, expr)
	assert.True(t, types.Equal(typ, f.cache.Int))
}

func TestArrayElementsUnify(t *testing.T) {
	f := newFixture(t)
	typ := f.check(t, &ast.Array{Elems: []ast.Expr{f.intLit(1), f.intLit(2)}})
	assert.True(t, types.Equal(typ, f.cache.ArrayOf(f.cache.Int)), "got %s", typ)
}

func TestVariantConstructorsAndMatch(t *testing.T) {
	f := newFixture(t)
	a := &types.Generic{Name: f.sym("a"), Kind: f.cache.Kinds.Typ}
	optIdent := &types.Ident{Name: f.sym("Opt")}
	variant := &types.Variant{Row: &types.ExtendRow{
		Fields: []types.Field{
			{Name: f.sym("Some"), Typ: f.cache.Func(a, &types.App{Head: optIdent, Args: []types.Type{a}})},
			{Name: f.sym("None"), Typ: &types.App{Head: optIdent, Args: []types.Type{a}}},
		},
		Rest: f.cache.EmptyRow(),
	}}

	expr := &ast.TypeBindings{
		Bindings: []*ast.TypeBinding{{
			Name:   f.sym("Opt"),
			Params: []*types.Generic{a},
			Body:   variant,
		}},
		Body: &ast.Match{
			Expr: &ast.App{Func: f.ident("Some"), Args: []ast.Expr{f.intLit(1)}},
			Alts: []*ast.Alt{
				{
					Pattern: &ast.PatConstructor{
						Name: f.ident("Some"),
						Args: []ast.Pattern{&ast.PatIdent{Name: f.sym("n")}},
					},
					Expr: f.ident("n"),
				},
				{
					Pattern: &ast.PatConstructor{Name: f.ident("None")},
					Expr:    f.intLit(0),
				},
			},
		},
	}

	typ := f.check(t, expr)
	assert.True(t, types.Equal(typ, f.cache.Int), "got %s", typ)
}

func TestDeclaredSignatureRestrictsInference(t *testing.T) {
	f := newFixture(t)
	binding := &ast.ValueBinding{
		Name:     &ast.PatIdent{Name: f.sym("inc")},
		Args:     []*ast.Ident{f.ident("x")},
		Declared: f.cache.Func(f.cache.Int, f.cache.Int),
		Expr:     f.ident("x"),
	}
	expr := f.letOne(binding, &ast.App{Func: f.ident("inc"), Args: []ast.Expr{f.intLit(1)}})

	typ := f.check(t, expr)
	assert.True(t, types.Equal(typ, f.cache.Int))
	assert.Equal(t, "Int -> Int", binding.Resolved.String())
}

func TestGeneralizationDoesNotEscapeScope(t *testing.T) {
	f := newFixture(t)
	// let f = (let id x = x in id) in f 1 : the inner binding generalizes
	// at its own scope; using the escaped value outside instantiates it
	// cleanly.
	inner := f.letOne(
		&ast.ValueBinding{
			Name: &ast.PatIdent{Name: f.sym("id")},
			Args: []*ast.Ident{f.ident("x")},
			Expr: f.ident("x"),
		},
		f.ident("id"),
	)
	expr := f.letOne(
		&ast.ValueBinding{Name: &ast.PatIdent{Name: f.sym("f")}, Expr: inner},
		&ast.App{Func: f.ident("f"), Args: []ast.Expr{f.intLit(1)}},
	)

	typ := f.check(t, expr)
	assert.True(t, types.Equal(typ, f.cache.Int), "got %s", typ)
}

func TestAlphaEquivalentReinference(t *testing.T) {
	f := newFixture(t)
	first := f.check(t, f.lambda(f.ident("v"), "v"))

	g := newFixture(t)
	second := g.check(t, g.lambda(g.ident("w"), "w"))

	assert.True(t, types.Equal(first, second),
		"re-inferring the same shape yields an alpha-equivalent type: %s vs %s", first, second)
}

func TestProjectionOnUnknownGuessesRecordAlias(t *testing.T) {
	f := newFixture(t)
	y := f.sym("y")
	// A known record alias with field y lets x.y type against it.
	ref := &types.AliasRef{
		Name: f.sym("Point"),
		Body: &types.Record{Row: &types.ExtendRow{
			Fields: []types.Field{{Name: y, Typ: f.cache.Int}},
			Rest:   f.cache.EmptyRow(),
		}},
	}
	f.env.AddAlias(ref)

	expr := f.lambda(&ast.Projection{Expr: f.ident("p"), Field: y}, "p")
	typ := f.check(t, expr)
	args, ret, ok := types.FlattenFunction(typ)
	require.True(t, ok, "got %s", typ)
	require.Len(t, args, 1)
	assert.True(t, types.Equal(ret, f.cache.Int), "got %s", typ)
}
