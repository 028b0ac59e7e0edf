package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fennlang/fenn/internal/symbol"
)

func TestKindCheckSimpleTypes(t *testing.T) {
	cache := NewTypeCache()
	env := NewMapEnv(cache)
	kc := NewKindCheck(env, cache.Kinds)

	require.NoError(t, kc.Check(cache.Int, cache.Kinds.Typ))
	require.NoError(t, kc.Check(cache.Func(cache.Int, cache.Bool), cache.Kinds.Typ))
}

func TestKindCheckApplication(t *testing.T) {
	cache := NewTypeCache()
	env := NewMapEnv(cache)
	kc := NewKindCheck(env, cache.Kinds)

	require.NoError(t, kc.Check(cache.ArrayOf(cache.Int), cache.Kinds.Typ))

	// Array applied twice is a kind error: Type has no further arguments.
	err := kc.Check(&App{Head: cache.ArrayOf(cache.Int), Args: []Type{cache.Int}}, cache.Kinds.Typ)
	require.Error(t, err)
	var mismatch *KindMismatch
	assert.ErrorAs(t, err, &mismatch)
}

func TestKindCheckUnderAppliedConstructor(t *testing.T) {
	cache := NewTypeCache()
	env := NewMapEnv(cache)
	kc := NewKindCheck(env, cache.Kinds)

	// A bare Array has kind Type -> Type, not Type.
	err := kc.Check(&Con{Name: "Array", Kind: &KindFun{Arg: cache.Kinds.Typ, Ret: cache.Kinds.Typ}}, cache.Kinds.Typ)
	require.Error(t, err)
}

func TestKindCheckInfersGenericKinds(t *testing.T) {
	cache := NewTypeCache()
	env := NewMapEnv(cache)
	in := symbol.NewInterner()
	kc := NewKindCheck(env, cache.Kinds)

	// f Int forces f's kind to Type -> Type.
	f := &Generic{Name: in.Intern("f")}
	typ := &App{Head: f, Args: []Type{cache.Int}}
	require.NoError(t, kc.Check(typ, cache.Kinds.Typ))

	resolved := kc.ResolvedKind(f.Name)
	fun, ok := resolved.(*KindFun)
	require.True(t, ok, "expected an arrow kind, got %s", resolved)
	assert.True(t, KindEqual(fun.Arg, cache.Kinds.Typ))
	assert.True(t, KindEqual(fun.Ret, cache.Kinds.Typ))
}

func TestKindCheckDefaultsUnresolvedToType(t *testing.T) {
	cache := NewTypeCache()
	env := NewMapEnv(cache)
	in := symbol.NewInterner()
	kc := NewKindCheck(env, cache.Kinds)

	// f a only ties a's kind to f's argument kind, so it stays unresolved.
	a := &Generic{Name: in.Intern("a")}
	f := &Generic{Name: in.Intern("f")}
	require.NoError(t, kc.Check(&App{Head: f, Args: []Type{a}}, cache.Kinds.Typ))
	assert.True(t, KindEqual(kc.ResolvedKind(a.Name), cache.Kinds.Typ))
}

func TestKindCheckRowsInRecords(t *testing.T) {
	cache := NewTypeCache()
	env := NewMapEnv(cache)
	in := symbol.NewInterner()
	kc := NewKindCheck(env, cache.Kinds)

	record := &Record{Row: &ExtendRow{
		Fields: []Field{{Name: in.Intern("x"), Typ: cache.Int}},
		Rest:   cache.EmptyRow(),
	}}
	require.NoError(t, kc.Check(record, cache.Kinds.Typ))
}

func TestKindCheckSharedAcrossGroup(t *testing.T) {
	cache := NewTypeCache()
	env := NewMapEnv(cache)
	in := symbol.NewInterner()
	kc := NewKindCheck(env, cache.Kinds)

	// The same generic used at two kinds in one group is a mismatch.
	f := &Generic{Name: in.Intern("f")}
	require.NoError(t, kc.Check(&App{Head: f, Args: []Type{cache.Int}}, cache.Kinds.Typ))
	err := kc.Check(f, cache.Kinds.Typ)
	require.Error(t, err)
}
