// Package check implements the Fenn typechecker: it walks the AST produced
// by the parser, generates unification constraints against a substitution,
// generalizes let bindings and resolves overloaded names. Errors are
// accumulated, never thrown; inference always runs to completion.
package check

import (
	"github.com/fennlang/fenn/internal/ast"
	"github.com/fennlang/fenn/internal/symbol"
	"github.com/fennlang/fenn/internal/types"
)

// Typecheck owns the state of one typechecking session. The substitution
// is reset per top-level expression; the scoped stacks reset on each call
// to TypecheckExpr.
type Typecheck struct {
	interner *symbol.Interner
	cache    *types.TypeCache
	subs     *types.Subs
	env      *environment

	// typeVariables scopes the names bound by forall and the implicit
	// variables of a signature.
	typeVariables scopedMap[types.Type]
	// originalSymbols maps variant constructors and overloaded names to
	// the unique symbol assigned to them.
	originalSymbols scopedMap[symbol.Symbol]
	// overloads records, per overloaded name, the original bindings an
	// intersected entry stands for. The renamer consults it.
	overloads map[symbol.Symbol][]overloadCandidate

	errors Errors
}

type overloadCandidate struct {
	sym symbol.Symbol
	typ types.Type
}

// New creates a typechecker over the caller's type environment.
func New(interner *symbol.Interner, cache *types.TypeCache, env types.TypeEnv) *Typecheck {
	subs := types.NewSubs(cache)
	tc := &Typecheck{
		interner:  interner,
		cache:     cache,
		subs:      subs,
		env:       newEnvironment(env),
		overloads: make(map[symbol.Symbol][]overloadCandidate),
	}
	subs.SetEnv(tc.env)
	return tc
}

// Cache returns the primitive type cache the checker uses.
func (tc *Typecheck) Cache() *types.TypeCache { return tc.cache }

// Subs exposes the substitution; tests use it to inspect levels.
func (tc *Typecheck) Subs() *types.Subs { return tc.subs }

// reset prepares the checker for a fresh top-level expression.
func (tc *Typecheck) reset() {
	tc.subs.Clear()
	tc.env.stack.entries = tc.env.stack.entries[:0]
	tc.env.stackTypes.entries = tc.env.stackTypes.entries[:0]
	tc.typeVariables.entries = tc.typeVariables.entries[:0]
	tc.originalSymbols.entries = tc.originalSymbols.entries[:0]
	tc.overloads = make(map[symbol.Symbol][]overloadCandidate)
	tc.errors = nil
}

// error records a diagnostic and synthesizes a fresh variable so inference
// can continue past the failing subterm.
func (tc *Typecheck) error(span ast.Span, err TypeError) types.Type {
	tc.errors = append(tc.errors, Spanned{Span: span, Err: err})
	return tc.subs.NewVar(tc.subs.VarID(), tc.cache.Kinds.Typ)
}

func (tc *Typecheck) enterScope() {
	tc.env.enterScope()
	tc.typeVariables.enter()
	tc.originalSymbols.enter()
}

func (tc *Typecheck) exitScope() {
	tc.env.exitScope()
	tc.typeVariables.exit()
	tc.originalSymbols.exit()
}

// stackVar binds a term name in the current scope.
func (tc *Typecheck) stackVar(name symbol.Symbol, typ types.Type) {
	tc.env.stack.insert(name, stackBinding{typ: typ})
}

// stackType installs an alias in the current scope under both its declared
// and its unique name.
func (tc *Typecheck) stackType(name symbol.Symbol, ref *types.AliasRef) {
	tc.env.stackTypes.insert(name, ref)
	if ref.Name != name {
		tc.env.stackTypes.insert(ref.Name, ref)
	}
}

// find looks a name up and instantiates its forall with fresh variables at
// the current level. Overloaded entries instantiate their constrained
// parameters with constrained variables instead.
func (tc *Typecheck) find(span ast.Span, name symbol.Symbol) types.Type {
	binding, ok := tc.env.stack.get(name)
	if !ok {
		if typ := tc.env.outer.FindType(name); typ != nil {
			binding = stackBinding{typ: typ}
		} else {
			return tc.error(span, &UndefinedVariable{Name: name})
		}
	}
	if len(binding.constraints) > 0 {
		return tc.instantiateConstrained(name, binding)
	}
	return tc.instantiate(binding.typ)
}

// instantiate replaces the outermost forall of typ with fresh variables at
// the current level. Each use site instantiates freshly so one polymorphic
// binding can take several types inside the same expression.
func (tc *Typecheck) instantiate(typ types.Type) types.Type {
	if _, ok := typ.(*types.Forall); !ok {
		return typ
	}
	return types.Instantiate(tc.subs, typ)
}

// instantiateConstrained instantiates an overloaded binding: parameters
// with candidate sets become constrained variables so later unification
// resolves them to one of the original bindings.
func (tc *Typecheck) instantiateConstrained(name symbol.Symbol, binding stackBinding) types.Type {
	forall, ok := binding.typ.(*types.Forall)
	if !ok {
		return binding.typ
	}
	m := make(map[symbol.Symbol]types.Type, len(forall.Params))
	for _, p := range forall.Params {
		if candidates, constrained := binding.constraints[p.Name]; constrained {
			m[p.Name] = tc.subs.NewConstrainedVar(name, candidates, p.Kind)
		} else {
			m[p.Name] = tc.subs.NewVar(tc.subs.VarID(), p.Kind)
		}
	}
	return types.ReplaceGenerics(forall.Body, m)
}

// skolemize replaces the outermost forall of typ with rigid skolems; used
// when a forall appears in expected position so a lambda body cannot
// instantiate it.
func (tc *Typecheck) skolemize(typ types.Type) types.Type {
	forall, ok := typ.(*types.Forall)
	if !ok {
		return typ
	}
	return types.SkolemizeForall(tc.subs, forall)
}

// unifySpan unifies expected with actual, converting unification failures
// into a spanned diagnostic and recovering with a fresh variable.
func (tc *Typecheck) unifySpan(span ast.Span, expected, actual types.Type) types.Type {
	merged, errs := types.Unify(tc.subs, tc.env, expected, actual)
	if len(errs) > 0 {
		return tc.error(span, &Unification{Expected: expected, Actual: actual, Errors: errs})
	}
	return merged
}

// mergeSignature checks that the inferred type is no more general than the
// declared signature, keeping the declared shape on success.
func (tc *Typecheck) mergeSignature(span ast.Span, declared, inferred types.Type) types.Type {
	merged, errs := types.MergeSignature(tc.subs, tc.env, declared, inferred)
	if len(errs) > 0 {
		return tc.error(span, &Unification{Expected: declared, Actual: inferred, Errors: errs})
	}
	return merged
}

// newVar allocates a fresh variable of kind Type at the current level.
func (tc *Typecheck) newVar() types.Type {
	return tc.subs.NewVar(tc.subs.VarID(), tc.cache.Kinds.Typ)
}
