package check

import (
	"github.com/fennlang/fenn/internal/ast"
	"github.com/fennlang/fenn/internal/symbol"
	"github.com/fennlang/fenn/internal/types"
)

// typecheckTypeBindings installs a group of (possibly mutually recursive)
// type aliases. Each alias receives a fresh global symbol so that aliases
// declared in different expressions or modules never collide; the old
// name keeps resolving through the scoped type stack.
func (tc *Typecheck) typecheckTypeBindings(tb *ast.TypeBindings) {
	seen := make(map[symbol.Symbol]bool, len(tb.Bindings))
	for _, b := range tb.Bindings {
		if seen[b.Name] {
			tc.error(tb.Sp, &DuplicateTypeDefinition{Name: b.Name})
		}
		seen[b.Name] = true
	}

	// Refs exist before their bodies so the group can refer to itself.
	refs := make([]*types.AliasRef, len(tb.Bindings))
	for i, b := range tb.Bindings {
		unique := tc.interner.FreshGlobal(b.Name.Name())
		tc.originalSymbols.insert(b.Name, unique)
		refs[i] = &types.AliasRef{Name: unique, Params: b.Params}
	}

	// One kind checker covers the group so kinds unify across mutual
	// references. Every alias is a local with kind k1 -> ... -> Type.
	kc := types.NewKindCheck(tc.env, tc.cache.Kinds)
	paramKinds := make([][]types.Kind, len(tb.Bindings))
	for i, b := range tb.Bindings {
		pks := make([]types.Kind, len(b.Params))
		for j, p := range b.Params {
			if p.Kind == nil {
				pks[j] = kc.Fresh()
			} else if _, hole := p.Kind.(*types.KindHole); hole {
				pks[j] = kc.Fresh()
			} else {
				pks[j] = p.Kind
			}
		}
		paramKinds[i] = pks
		k := types.FunctionKind(pks, tc.cache.Kinds.Typ)
		kc.AddLocal(b.Name, k)
		kc.AddLocal(refs[i].Name, k)
	}

	for i, b := range tb.Bindings {
		body := tc.elaborateAliasBody(tb, refs, b)
		tc.checkAliasGenerics(tb.Sp, b, body)
		refs[i].Body = body
	}

	for i, b := range tb.Bindings {
		for j, p := range b.Params {
			kc.AddLocal(p.Name, paramKinds[i][j])
		}
		if err := kc.Check(refs[i].Body, tc.cache.Kinds.Typ); err != nil {
			tc.errors = append(tc.errors, Spanned{Span: tb.Sp, Err: &KindError{Err: err}})
		}
	}

	for i, b := range tb.Bindings {
		params := make([]*types.Generic, len(b.Params))
		for j, p := range b.Params {
			params[j] = &types.Generic{Name: p.Name, Kind: kc.ResolveKind(paramKinds[i][j])}
		}
		refs[i].Params = params
		refs[i].Body = kc.Finish(refs[i].Body)
		b.Alias = refs[i]
		tc.stackType(b.Name, refs[i])
		tc.installConstructors(refs[i])
	}
}

// elaborateAliasBody rewrites an alias body so it can be installed:
// identifiers resolve to the group's aliases or the environment's, holes
// become fresh variables.
func (tc *Typecheck) elaborateAliasBody(tb *ast.TypeBindings, refs []*types.AliasRef, b *ast.TypeBinding) types.Type {
	return types.WalkMove(b.Body, func(t types.Type) types.Type {
		switch t := t.(type) {
		case *types.Ident:
			for i, other := range tb.Bindings {
				if other.Name == t.Name {
					return &types.Alias{Ref: refs[i]}
				}
			}
			ref := tc.env.FindTypeInfo(t.Name)
			if ref == nil {
				tc.errors = append(tc.errors, Spanned{Span: tb.Sp, Err: &UndefinedType{Name: t.Name}})
				return tc.newVar()
			}
			return &types.Alias{Ref: ref}
		case *types.Hole:
			return tc.newVar()
		}
		return nil
	})
}

// checkAliasGenerics verifies that every generic on the right-hand side is
// declared as a parameter. Records are exempt: a free variable in a record
// body marks implicit row polymorphism.
func (tc *Typecheck) checkAliasGenerics(span ast.Span, b *ast.TypeBinding, body types.Type) {
	if _, isRecord := body.(*types.Record); isRecord {
		return
	}
	declared := make(map[symbol.Symbol]bool, len(b.Params))
	for _, p := range b.Params {
		declared[p.Name] = true
	}
	bound := boundGenerics(body)
	reported := make(map[symbol.Symbol]bool)
	types.Walk(body, func(t types.Type) {
		g, ok := t.(*types.Generic)
		if !ok || declared[g.Name] || bound[g.Name] || reported[g.Name] {
			return
		}
		if _, enclosing := tc.typeVariables.get(g.Name); enclosing {
			return
		}
		reported[g.Name] = true
		tc.errors = append(tc.errors, Spanned{Span: span, Err: &UndefinedType{Name: g.Name}})
	})
}

// installConstructors binds the constructors of a variant alias as terms.
// Each variant row field carries the constructor's full function type; the
// binding generalizes it over the alias parameters.
func (tc *Typecheck) installConstructors(ref *types.AliasRef) {
	variant, ok := ref.Body.(*types.Variant)
	if !ok {
		return
	}
	_, ctors, _ := types.FlattenRow(variant.Row)
	for _, ctor := range ctors {
		typ := ctor.Typ
		if len(ref.Params) > 0 {
			typ = &types.Forall{Params: ref.Params, Body: typ}
		}
		tc.stackVar(ctor.Name, typ)
	}
}
