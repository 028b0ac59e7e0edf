package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fennlang/fenn/internal/symbol"
)

func aliasFixture(t *testing.T) (*MapEnv, *TypeCache, *symbol.Interner) {
	t.Helper()
	cache := NewTypeCache()
	return NewMapEnv(cache), cache, symbol.NewInterner()
}

func TestPeekAliasThroughIdent(t *testing.T) {
	env, cache, in := aliasFixture(t)
	name := in.Intern("MyInt")
	ref := &AliasRef{Name: name, Body: cache.Int}
	env.AddAlias(ref)

	found, err := PeekAlias(env, &Ident{Name: name})
	require.NoError(t, err)
	assert.Same(t, ref, found)
}

func TestPeekAliasUndefinedIdent(t *testing.T) {
	env, _, in := aliasFixture(t)
	_, err := PeekAlias(env, &Ident{Name: in.Intern("Nope")})
	var undef *UndefinedTypeError
	require.ErrorAs(t, err, &undef)
}

func TestRemoveAliasOneStep(t *testing.T) {
	env, cache, in := aliasFixture(t)
	inner := &AliasRef{Name: in.Intern("Inner"), Body: cache.Int}
	outer := &AliasRef{Name: in.Intern("Outer"), Body: &Alias{Ref: inner}}
	env.AddAlias(inner)
	env.AddAlias(outer)

	step, err := RemoveAlias(env, &Alias{Ref: outer})
	require.NoError(t, err)
	stepAlias, ok := step.(*Alias)
	require.True(t, ok, "one step only unwraps one alias")
	assert.Same(t, inner, stepAlias.Ref)

	full := RemoveAliases(env, &Alias{Ref: outer})
	assert.True(t, Equal(full, cache.Int))
}

func TestRemoveAliasAppliesArgs(t *testing.T) {
	env, cache, in := aliasFixture(t)
	a := &Generic{Name: in.Intern("a"), Kind: cache.Kinds.Typ}
	pair := &AliasRef{
		Name:   in.Intern("Pair"),
		Params: []*Generic{a},
		Body:   cache.Func(a, a),
	}
	env.AddAlias(pair)

	expanded, err := RemoveAlias(env, &App{Head: &Alias{Ref: pair}, Args: []Type{cache.Int}})
	require.NoError(t, err)
	assert.True(t, Equal(expanded, cache.Func(cache.Int, cache.Int)))
}

func TestRemoveAliasOpaqueNeverUnfolds(t *testing.T) {
	env, cache, in := aliasFixture(t)
	abstract := &AliasRef{Name: in.Intern("Handle"), Body: cache.Opaque}
	env.AddAlias(abstract)

	expanded, err := RemoveAlias(env, &Alias{Ref: abstract})
	require.NoError(t, err)
	assert.Nil(t, expanded)
}

func TestRemoveAliasesBailsOutOnCycle(t *testing.T) {
	env, _, in := aliasFixture(t)
	loop := &AliasRef{Name: in.Intern("Loop")}
	loop.Body = &Alias{Ref: loop}
	env.AddAlias(loop)

	// Must terminate rather than expand forever.
	result := RemoveAliases(env, &Alias{Ref: loop})
	resAlias, ok := result.(*Alias)
	require.True(t, ok)
	assert.Same(t, loop, resAlias.Ref)
}

func TestCanonicalAliasStopsWhenPredHolds(t *testing.T) {
	env, cache, in := aliasFixture(t)
	inner := &AliasRef{Name: in.Intern("Inner"), Body: cache.Int}
	outer := &AliasRef{Name: in.Intern("Outer"), Body: &Alias{Ref: inner}}
	env.AddAlias(inner)
	env.AddAlias(outer)

	result := CanonicalAlias(env, &Alias{Ref: outer}, func(ref *AliasRef) bool {
		return ref == inner
	})
	resAlias, ok := result.(*Alias)
	require.True(t, ok)
	assert.Same(t, inner, resAlias.Ref)
}

func TestCanonicalAliasFixpoint(t *testing.T) {
	env, cache, in := aliasFixture(t)
	ref := &AliasRef{Name: in.Intern("T"), Body: cache.Int}
	env.AddAlias(ref)
	typ := &Alias{Ref: ref}

	always := func(*AliasRef) bool { return true }
	assert.Equal(t, typ, CanonicalAlias(env, typ, always),
		"canonical_alias is the identity when pred holds everywhere")
}

func TestUnifyPrefersAliasIdentity(t *testing.T) {
	env, cache, in := aliasFixture(t)
	ref := &AliasRef{Name: in.Intern("T"), Body: cache.Int}
	env.AddAlias(ref)
	subs := NewSubs(cache)

	result, errs := Unify(subs, env, &Alias{Ref: ref}, &Alias{Ref: ref})
	require.Empty(t, errs)
	resAlias, ok := result.(*Alias)
	require.True(t, ok, "matching aliases syntactically keeps the alias name")
	assert.Same(t, ref, resAlias.Ref)
}

func TestUnifyExpandsAliasOnMismatch(t *testing.T) {
	env, cache, in := aliasFixture(t)
	ref := &AliasRef{Name: in.Intern("MyInt"), Body: cache.Int}
	env.AddAlias(ref)
	subs := NewSubs(cache)

	_, errs := Unify(subs, env, &Alias{Ref: ref}, cache.Int)
	assert.Empty(t, errs, "an alias unifies with its expansion")

	_, errs = Unify(subs, env, &Alias{Ref: ref}, cache.Str)
	assert.NotEmpty(t, errs)
}

func TestUnifyRecursiveAliasTerminates(t *testing.T) {
	env, cache, in := aliasFixture(t)
	loop := &AliasRef{Name: in.Intern("Loop")}
	loop.Body = &Alias{Ref: loop}
	env.AddAlias(loop)
	subs := NewSubs(cache)

	_, errs := Unify(subs, env, &Alias{Ref: loop}, cache.Int)
	assert.NotEmpty(t, errs, "a self-recursive alias reports instead of looping")
}
