package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fennlang/fenn/internal/ast"
	"github.com/fennlang/fenn/internal/diag"
	"github.com/fennlang/fenn/internal/types"
)

// checkFails typechecks expr and requires at least one error; inference
// must still deliver a type.
func checkFails(t *testing.T, f *fixture, expr ast.Expr) (types.Type, Errors) {
	t.Helper()
	typ, errs := f.tc.TypecheckExpr(expr)
	require.True(t, errs.HasErrors(), "expected type errors")
	require.NotNil(t, typ, "error recovery still yields a type")
	return typ, errs
}

func TestUndefinedVariable(t *testing.T) {
	f := newFixture(t)
	_, errs := checkFails(t, f, f.ident("nope"))
	var undef *UndefinedVariable
	require.ErrorAs(t, errs[0].Err, &undef)
	assert.Equal(t, diag.TCUndefinedVariable, errs[0].Err.Code())
}

func TestNotAFunction(t *testing.T) {
	f := newFixture(t)
	_, errs := checkFails(t, f, &ast.App{
		Func: f.intLit(1),
		Args: []ast.Expr{f.intLit(2)},
	})
	var nf *NotAFunction
	require.ErrorAs(t, errs[0].Err, &nf)
	assert.True(t, types.Equal(nf.Typ, f.cache.Int))
}

func TestEmptyCase(t *testing.T) {
	f := newFixture(t)
	_, errs := checkFails(t, f, &ast.Match{Expr: f.intLit(1)})
	var empty *EmptyCase
	require.ErrorAs(t, errs[0].Err, &empty)
}

func TestErrorAstNodes(t *testing.T) {
	f := newFixture(t)
	_, errs := checkFails(t, f, &ast.Error{})
	var errAst *ErrorAst
	require.ErrorAs(t, errs[0].Err, &errAst)
}

func TestSelfApplicationOccursCheck(t *testing.T) {
	f := newFixture(t)
	expr := f.lambda(&ast.App{Func: f.ident("x"), Args: []ast.Expr{f.ident("x")}}, "x")
	_, errs := checkFails(t, f, expr)

	var unification *Unification
	require.ErrorAs(t, errs[0].Err, &unification)
	foundOccurs := false
	for _, sub := range unification.Errors {
		if se, ok := sub.(*types.SubstitutionError); ok {
			if _, isOccurs := se.Err.(*types.OccursError); isOccurs {
				foundOccurs = true
			}
		}
	}
	assert.True(t, foundOccurs, "self application fails the occurs check: %v", errs)
}

func TestBranchMismatchCollectsAndRecovers(t *testing.T) {
	f := newFixture(t)
	f.env.AddType(f.sym("flag"), f.cache.Bool)
	expr := &ast.IfElse{
		Cond: f.ident("flag"),
		Then: f.intLit(1),
		Else: f.strLit("a"),
	}
	_, errs := checkFails(t, f, expr)
	var unification *Unification
	require.ErrorAs(t, errs[0].Err, &unification)
}

func TestMultipleErrorsAreAllCollected(t *testing.T) {
	f := newFixture(t)
	expr := &ast.Tuple{Elems: []ast.Expr{
		f.ident("missing1"),
		f.ident("missing2"),
	}}
	_, errs := checkFails(t, f, expr)
	assert.Len(t, errs, 2, "inference continues past the first failure")
}

func TestInvalidProjection(t *testing.T) {
	f := newFixture(t)
	_, errs := checkFails(t, f, &ast.Projection{Expr: f.intLit(1), Field: f.sym("x")})
	var invalid *InvalidProjection
	require.ErrorAs(t, errs[0].Err, &invalid)
}

func TestUndefinedFieldOnClosedRecord(t *testing.T) {
	f := newFixture(t)
	expr := f.letOne(
		&ast.ValueBinding{
			Name: &ast.PatIdent{Name: f.sym("r")},
			Expr: &ast.Record{Fields: []ast.RecordField{{Name: f.sym("x"), Value: f.intLit(1)}}},
		},
		&ast.Projection{Expr: f.ident("r"), Field: f.sym("missing")},
	)
	_, errs := checkFails(t, f, expr)
	var undef *UndefinedField
	require.ErrorAs(t, errs[0].Err, &undef)
}

func TestDuplicateRecordField(t *testing.T) {
	f := newFixture(t)
	expr := &ast.Record{Fields: []ast.RecordField{
		{Name: f.sym("x"), Value: f.intLit(1)},
		{Name: f.sym("x"), Value: f.intLit(2)},
	}}
	_, errs := checkFails(t, f, expr)
	var dup *DuplicateField
	require.ErrorAs(t, errs[0].Err, &dup)
}

func TestPatternArityError(t *testing.T) {
	f := newFixture(t)
	some := f.sym("Some")
	opt := &types.Con{Name: "Opt", Kind: f.cache.Kinds.Typ}
	f.env.AddType(some, f.cache.Func(f.cache.Int, opt))

	expr := &ast.Match{
		Expr: &ast.App{Func: f.ident("Some"), Args: []ast.Expr{f.intLit(1)}},
		Alts: []*ast.Alt{{
			Pattern: &ast.PatConstructor{
				Name: f.ident("Some"),
				Args: []ast.Pattern{
					&ast.PatIdent{Name: f.sym("a")},
					&ast.PatIdent{Name: f.sym("b")},
				},
			},
			Expr: f.intLit(0),
		}},
	}
	_, errs := checkFails(t, f, expr)
	var arity *PatternError
	require.ErrorAs(t, errs[0].Err, &arity)
	assert.Equal(t, 2, arity.Args)
}

func TestUndefinedTypeInSignature(t *testing.T) {
	f := newFixture(t)
	binding := &ast.ValueBinding{
		Name:     &ast.PatIdent{Name: f.sym("x")},
		Declared: &types.Ident{Name: f.sym("Missing")},
		Expr:     f.intLit(1),
	}
	_, errs := checkFails(t, f, f.letOne(binding, f.ident("x")))
	var undef *UndefinedType
	require.ErrorAs(t, errs[0].Err, &undef)
}

func TestUndefinedRecordForPatternTypes(t *testing.T) {
	f := newFixture(t)
	// A record pattern naming an associated type needs a known record
	// alias; with none registered the field list cannot be resolved.
	expr := f.lambda(&ast.Match{
		Expr: f.ident("r"),
		Alts: []*ast.Alt{{
			Pattern: &ast.PatRecord{
				Types:  []ast.PatFieldType{{Name: f.sym("T")}},
				Fields: []ast.PatField{{Name: f.sym("x")}},
			},
			Expr: f.intLit(0),
		}},
	}, "r")
	_, errs := checkFails(t, f, expr)
	found := false
	for _, spanned := range errs {
		if _, ok := spanned.Err.(*UndefinedRecord); ok {
			found = true
		}
	}
	assert.True(t, found, "expected an UndefinedRecord error: %v", errs)
}

func TestErrorTypesAreGeneralized(t *testing.T) {
	f := newFixture(t)
	// The self application \x -> x x embeds types in a unification error;
	// after the pass the error's types contain no raw unification variables.
	expr := f.lambda(&ast.App{Func: f.ident("x"), Args: []ast.Expr{f.ident("x")}}, "x")
	_, errs := checkFails(t, f, expr)
	for _, spanned := range errs {
		if u, ok := spanned.Err.(*Unification); ok {
			assertNoVars(t, u.Expected)
			assertNoVars(t, u.Actual)
		}
	}
}

func assertNoVars(t *testing.T, typ types.Type) {
	t.Helper()
	if typ == nil {
		return
	}
	types.Walk(typ, func(sub types.Type) {
		if _, ok := sub.(*types.Var); ok {
			t.Errorf("error type %s still contains a unification variable", typ)
		}
	})
}

func TestRenameErrorWhenOverloadAmbiguous(t *testing.T) {
	f := newFixture(t)
	plus := f.sym("+")
	mkBinding := func(prim string) *ast.ValueBinding {
		return &ast.ValueBinding{
			Name: &ast.PatIdent{Name: plus},
			Args: []*ast.Ident{f.ident("x"), f.ident("y")},
			Expr: &ast.Infix{Left: f.ident("x"), Op: f.ident(prim), Right: f.ident("y")},
		}
	}
	// The overloaded name is only referenced, never applied: its type
	// stays unresolved so no candidate can be selected.
	expr := f.letOne(mkBinding("#Int+"),
		f.letOne(mkBinding("#Float+"), &ast.Ident{Name: plus}))

	_, errs := f.tc.TypecheckExpr(expr)
	require.True(t, errs.HasErrors())
	hasRename := false
	for _, spanned := range errs {
		if _, ok := spanned.Err.(*RenameError); ok {
			hasRename = true
		}
	}
	assert.True(t, hasRename, "ambiguous overload use reports a rename error: %v", errs)
}
