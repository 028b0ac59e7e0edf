package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fennlang/fenn/internal/symbol"
)

func newTestSubs(t *testing.T) (*Subs, *TypeCache) {
	t.Helper()
	cache := NewTypeCache()
	return NewSubs(cache), cache
}

func TestRealResolvesUnifiedVariable(t *testing.T) {
	subs, cache := newTestSubs(t)
	v := subs.NewVar(0, cache.Kinds.Typ)

	_, err := subs.Union(v, cache.Int)
	require.NoError(t, err)

	real := subs.Real(v)
	assert.True(t, Equal(real, cache.Int), "expected Int, got %s", real)

	// The reference stays stable across further operations.
	w := subs.NewVar(subs.VarID(), cache.Kinds.Typ)
	_, err = subs.Union(w, cache.Str)
	require.NoError(t, err)
	assert.True(t, Equal(subs.Real(v), cache.Int))
}

func TestRealReturnsRepresentativeOfUnionedVars(t *testing.T) {
	subs, cache := newTestSubs(t)
	a := subs.NewVar(0, cache.Kinds.Typ)
	b := subs.NewVar(subs.VarID(), cache.Kinds.Typ)

	_, err := subs.Union(b, a)
	require.NoError(t, err)

	real := subs.Real(b)
	rv, ok := real.(*Var)
	require.True(t, ok, "expected a variable, got %s", real)
	assert.NotEqual(t, b.ID, rv.ID, "a unified variable must not resolve to itself")
}

func TestUnionOccursCheck(t *testing.T) {
	subs, cache := newTestSubs(t)
	v := subs.NewVar(0, cache.Kinds.Typ)

	_, err := subs.Union(v, cache.ArrayOf(v))
	require.Error(t, err)
	var occurs *OccursError
	require.ErrorAs(t, err, &occurs)

	// The failed union must not leave the substitution looping.
	assert.True(t, Equal(subs.Real(v), v))
}

func TestUnionLowersLevelsOfContainedVars(t *testing.T) {
	subs, cache := newTestSubs(t)
	outer := subs.NewVar(0, cache.Kinds.Typ)
	inner := subs.NewVar(subs.VarID(), cache.Kinds.Typ)
	require.EqualValues(t, 1, subs.Level(inner.ID))

	_, err := subs.Union(outer, cache.ArrayOf(inner))
	require.NoError(t, err)

	assert.EqualValues(t, 0, subs.Level(inner.ID),
		"variables inside a unified type must not outlive the variable's scope")
}

func TestUnionVarVarKeepsLowerLevel(t *testing.T) {
	subs, cache := newTestSubs(t)
	low := subs.NewVar(0, cache.Kinds.Typ)
	high := subs.NewVar(subs.VarID(), cache.Kinds.Typ)

	_, err := subs.Union(high, low)
	require.NoError(t, err)

	assert.EqualValues(t, 0, subs.Level(high.ID))
	assert.EqualValues(t, 0, subs.Level(low.ID))
}

func TestSetTypeIdempotent(t *testing.T) {
	subs, cache := newTestSubs(t)
	v := subs.NewVar(0, cache.Kinds.Typ)
	w := subs.NewVar(subs.VarID(), cache.Kinds.Typ)
	_, err := subs.Union(v, cache.Int)
	require.NoError(t, err)
	_, err = subs.Union(w, cache.ArrayOf(v))
	require.NoError(t, err)

	typ := cache.Func(w, v)
	once := subs.SetType(typ)
	twice := subs.SetType(once)
	assert.True(t, Equal(once, twice), "SetType must be idempotent: %s vs %s", once, twice)
	assert.True(t, Equal(once, cache.Func(cache.ArrayOf(cache.Int), cache.Int)))
}

func TestSetTypeUnrollsNestedApps(t *testing.T) {
	subs, cache := newTestSubs(t)
	pair := &Con{Name: "Pair", Kind: FunctionKind([]Kind{cache.Kinds.Typ, cache.Kinds.Typ}, cache.Kinds.Typ)}
	nested := &App{
		Head: &App{Head: pair, Args: []Type{cache.Int}},
		Args: []Type{cache.Str},
	}
	flat := subs.SetType(nested)
	app, ok := flat.(*App)
	require.True(t, ok)
	assert.Len(t, app.Args, 2)
	assert.True(t, Equal(app.Head, pair))
}

func TestSetTypeUnrollsNestedRows(t *testing.T) {
	subs, cache := newTestSubs(t)
	in := symbol.NewInterner()
	x, y := in.Intern("x"), in.Intern("y")
	nested := &ExtendRow{
		Fields: []Field{{Name: x, Typ: cache.Int}},
		Rest: &ExtendRow{
			Fields: []Field{{Name: y, Typ: cache.Str}},
			Rest:   cache.EmptyRow(),
		},
	}
	flat := subs.SetType(nested)
	row, ok := flat.(*ExtendRow)
	require.True(t, ok)
	assert.Len(t, row.Fields, 2)
	_, isEmpty := row.Rest.(*EmptyRow)
	assert.True(t, isEmpty)
}

func TestConstrainedVarResolvesToCandidate(t *testing.T) {
	subs, cache := newTestSubs(t)
	in := symbol.NewInterner()
	plus := in.Intern("+")
	v := subs.NewConstrainedVar(plus, []Type{cache.Int, cache.Float}, cache.Kinds.Typ)

	_, err := subs.Union(v, cache.Int)
	require.NoError(t, err)
	assert.True(t, Equal(subs.Real(v), cache.Int))
}

func TestConstrainedVarRejectsNonCandidate(t *testing.T) {
	subs, cache := newTestSubs(t)
	in := symbol.NewInterner()
	plus := in.Intern("+")
	v := subs.NewConstrainedVar(plus, []Type{cache.Int, cache.Float}, cache.Kinds.Typ)

	_, err := subs.Union(v, cache.Str)
	require.Error(t, err)
	var constraint *ConstraintError
	require.ErrorAs(t, err, &constraint)
	assert.Len(t, constraint.Candidates, 2)
}

func TestUnionMergesConstraintMaps(t *testing.T) {
	subs, cache := newTestSubs(t)
	in := symbol.NewInterner()
	plus, minus := in.Intern("+"), in.Intern("-")
	a := subs.NewConstrainedVar(plus, []Type{cache.Int}, cache.Kinds.Typ)
	b := subs.NewConstrainedVar(minus, []Type{cache.Int}, cache.Kinds.Typ)

	_, err := subs.Union(a, b)
	require.NoError(t, err)

	merged := subs.Constraints(a.ID)
	require.NotNil(t, merged)
	assert.Contains(t, merged, plus)
	assert.Contains(t, merged, minus)
}

func TestClearResetsSubstitution(t *testing.T) {
	subs, cache := newTestSubs(t)
	v := subs.NewVar(0, cache.Kinds.Typ)
	_, err := subs.Union(v, cache.Int)
	require.NoError(t, err)

	subs.Clear()
	assert.EqualValues(t, 0, subs.VarID())
	w := subs.NewVar(0, cache.Kinds.Typ)
	assert.Nil(t, subs.FindTypeForVar(w.ID))
}
