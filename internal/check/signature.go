package check

import (
	"github.com/fennlang/fenn/internal/ast"
	"github.com/fennlang/fenn/internal/symbol"
	"github.com/fennlang/fenn/internal/types"
)

// instantiateSignature prepares a declared type for inference: identifiers
// resolve to aliases, holes become fresh variables, free generics are
// closed over, the result is kind checked and its outer forall entered
// with fresh variables at the current level.
func (tc *Typecheck) instantiateSignature(span ast.Span, typ types.Type) types.Type {
	typ = tc.createUnifiableSignature(span, typ)

	kc := types.NewKindCheck(tc.env, tc.cache.Kinds)
	if err := kc.Check(typ, tc.cache.Kinds.Typ); err != nil {
		tc.errors = append(tc.errors, Spanned{Span: span, Err: &KindError{Err: err}})
	} else {
		typ = kc.Finish(typ)
	}

	forall, ok := typ.(*types.Forall)
	if !ok {
		return typ
	}
	instantiated := types.InstantiateForall(tc.subs, forall, tc.subs.VarID())
	inst := forall.Instantiation()
	for i, p := range forall.Params {
		if i < len(inst) {
			tc.typeVariables.insert(p.Name, inst[i])
		}
	}
	return instantiated
}

// createUnifiableSignature normalizes a signature: Ident references become
// aliases, holes become fresh variables, generics already bound by an
// enclosing signature are replaced by that signature's variables, and any
// remaining free generics are bound by a new outer forall.
func (tc *Typecheck) createUnifiableSignature(span ast.Span, typ types.Type) types.Type {
	bound := boundGenerics(typ)

	var free []*types.Generic
	freeSeen := make(map[symbol.Symbol]bool)

	normalized := types.WalkMove(typ, func(t types.Type) types.Type {
		switch t := t.(type) {
		case *types.Ident:
			ref := tc.env.FindTypeInfo(t.Name)
			if ref == nil {
				tc.errors = append(tc.errors, Spanned{Span: span, Err: &UndefinedType{Name: t.Name}})
				return tc.newVar()
			}
			return &types.Alias{Ref: ref}
		case *types.Hole:
			return tc.newVar()
		case *types.Generic:
			if v, ok := tc.typeVariables.get(t.Name); ok {
				return v
			}
			if !bound[t.Name] && !freeSeen[t.Name] {
				freeSeen[t.Name] = true
				free = append(free, t)
			}
			return nil
		}
		return nil
	})

	if len(free) == 0 {
		return normalized
	}
	params := make([]*types.Generic, len(free))
	for i, g := range free {
		kind := g.Kind
		if kind == nil {
			kind = tc.cache.Kinds.Typ
		}
		params[i] = &types.Generic{Name: g.Name, Kind: kind}
	}
	if f, ok := normalized.(*types.Forall); ok {
		merged := append(params, f.Params...)
		return &types.Forall{Params: merged, Body: f.Body}
	}
	return &types.Forall{Params: params, Body: normalized}
}

// boundGenerics collects every generic name bound by a forall somewhere in
// typ.
func boundGenerics(typ types.Type) map[symbol.Symbol]bool {
	bound := make(map[symbol.Symbol]bool)
	types.Walk(typ, func(t types.Type) {
		if f, ok := t.(*types.Forall); ok {
			for _, p := range f.Params {
				bound[p.Name] = true
			}
		}
	})
	return bound
}
