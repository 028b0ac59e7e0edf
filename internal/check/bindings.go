package check

import (
	"sort"

	"github.com/fennlang/fenn/internal/ast"
	"github.com/fennlang/fenn/internal/symbol"
	"github.com/fennlang/fenn/internal/types"
)

// typecheckBindings checks one let group. The current substitution size
// becomes the level of the scope: every variable created from here on
// belongs to the group and is generalized when it ends.
func (tc *Typecheck) typecheckBindings(let *ast.Let) {
	level := tc.subs.VarID()

	// A group in which every binding has at least one argument is treated
	// as mutually recursive: the names enter scope before their bodies.
	recursive := len(let.Bindings) > 0
	for _, b := range let.Bindings {
		if len(b.Args) == 0 {
			recursive = false
			break
		}
	}

	if recursive {
		for _, b := range let.Bindings {
			var typ types.Type
			if b.Declared != nil {
				typ = tc.instantiateSignature(bindingSpan(b), b.Declared)
			} else {
				typ = tc.newVar()
			}
			b.Resolved = typ
			if id, ok := b.Name.(*ast.PatIdent); ok {
				id.Typ = typ
				tc.stackVar(id.Name, typ)
			}
		}
	}

	for _, b := range let.Bindings {
		var declared types.Type
		switch {
		case recursive:
			declared = b.Resolved
		case b.Declared != nil:
			declared = tc.instantiateSignature(bindingSpan(b), b.Declared)
		}

		inferred := tc.typecheckBindingBody(b, declared)

		typ := inferred
		if declared != nil {
			typ = tc.mergeSignature(bindingSpan(b), declared, inferred)
		}
		b.Resolved = typ

		if !recursive {
			tc.typecheckPattern(b.Name, typ)
		} else if id, ok := b.Name.(*ast.PatIdent); ok {
			tc.unifySpan(bindingSpan(b), id.Typ, typ)
		}
	}

	// Generalize the whole group at once so mutually recursive bindings
	// share their variables until this point.
	for _, b := range let.Bindings {
		gen := tc.generalizeType(level, b.Resolved)
		b.Resolved = gen
		tc.finishPattern(level, b.Name, gen)
	}
}

// typecheckBindingBody infers a binding's body, binding its arguments
// first when it is function-shaped.
func (tc *Typecheck) typecheckBindingBody(b *ast.ValueBinding, declared types.Type) types.Type {
	if len(b.Args) == 0 {
		return tc.typecheck(b.Expr, declared)
	}
	var remaining types.Type
	if declared != nil {
		remaining = tc.skolemize(tc.subs.Real(declared))
	}
	tc.enterScope()
	argTypes := make([]types.Type, len(b.Args))
	for i, arg := range b.Args {
		var argTyp types.Type
		if remaining != nil {
			if a, r, ok := tc.functionArg(arg.Sp, remaining); ok {
				argTyp, remaining = a, r
			} else {
				argTyp = tc.newVar()
				remaining = nil
			}
		} else {
			argTyp = tc.newVar()
		}
		arg.Typ = argTyp
		tc.stackVar(arg.Name, argTyp)
		argTypes[i] = argTyp
	}
	retTyp := tc.typecheck(b.Expr, remaining)
	tc.exitScope()
	return tc.cache.FuncN(argTypes, retTyp)
}

func bindingSpan(b *ast.ValueBinding) ast.Span {
	if b.Name != nil {
		return b.Name.Span()
	}
	return b.Expr.Span()
}

// intersectType implements overloading: when a name shadows an existing
// binding and the new type carries no unification variables, both types
// are kept and the visible entry becomes their intersection. Use sites
// then instantiate constrained variables which constraint resolution
// narrows to one candidate.
func (tc *Typecheck) intersectType(level uint32, p *ast.PatIdent, typ types.Type) {
	if hasTypeVariables(tc.subs, typ) {
		return
	}
	origName := p.Name
	prev, ok := tc.env.stack.getPrevious(origName)
	if !ok {
		return
	}
	if hasTypeVariables(tc.subs, prev.typ) {
		return
	}

	var candidates []overloadCandidate
	if prior := tc.overloads[origName]; len(prior) > 0 {
		candidates = append(candidates, prior...)
	} else {
		candidates = append(candidates, overloadCandidate{sym: origName, typ: prev.typ})
	}

	// The new definition gets a unique symbol so the renamer can address
	// it; the shared name keeps the intersected entry.
	newSym := tc.interner.Fresh(origName.Name())
	candidates = append(candidates, overloadCandidate{sym: newSym, typ: typ})
	tc.overloads[origName] = candidates
	tc.originalSymbols.insert(origName, newSym)
	p.Name = newSym

	joined, mapping := types.Intersection(tc.subs, tc.env, tc.interner, prev.typ, typ)
	params := make([]*types.Generic, 0, len(mapping))
	for name := range mapping {
		params = append(params, &types.Generic{Name: name, Kind: tc.cache.Kinds.Typ})
	}
	sort.Slice(params, func(i, j int) bool {
		return params[i].Name.Name() < params[j].Name.Name()
	})

	entry := stackBinding{typ: joined}
	if len(params) > 0 {
		entry.typ = &types.Forall{Params: params, Body: joined}
		entry.constraints = mapping
	}
	tc.env.stack.update(origName, entry)
}

// hasTypeVariables reports whether any unification variable remains in typ
// under the substitution.
func hasTypeVariables(subs *types.Subs, typ types.Type) bool {
	found := false
	types.Walk(subs.SetType(typ), func(t types.Type) {
		if _, ok := t.(*types.Var); ok {
			found = true
		}
	})
	return found
}

// overloadCandidates returns the original bindings an overloaded name
// stands for, in definition order.
func (tc *Typecheck) overloadCandidates(name symbol.Symbol) []overloadCandidate {
	return tc.overloads[name]
}
