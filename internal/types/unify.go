package types

import (
	"fmt"

	"github.com/fennlang/fenn/internal/symbol"
)

// unifier is the strategy driven by a matcher. tryMatch attempts to match
// two types, possibly producing a replacement for the left side; errors go
// through reportError so each strategy decides whether they are fatal,
// collected, or silently flip a flag.
type unifier interface {
	tryMatch(m *matcher, l, r Type) Type
	reportError(err UnifyError)
	// mismatch is called by zipMatch when two concrete heads cannot match.
	// It may produce a replacement (the Intersection strategy does) or
	// report and return nil.
	mismatch(m *matcher, l, r Type) Type
	// allowExtraLeft reports whether row fields present only on the left
	// may be dropped when the right row is closed (MergeSignature).
	allowExtraLeft() bool
}

// matcher drives a unifier strategy over a pair of types.
type matcher struct {
	subs  *Subs
	env   TypeEnv
	cache *TypeCache
	strat unifier

	// aliasDepth bounds alias expansion so mutually recursive aliases
	// cannot send the unifier into a loop.
	aliasDepth int
}

const maxAliasExpansions = 100

func (m *matcher) match(l, r Type) Type {
	return m.strat.tryMatch(m, l, r)
}

// Unify makes expected and actual equal under the substitution, collecting
// every mismatch instead of stopping at the first. On success the returned
// type is the unified form of expected.
func Unify(subs *Subs, env TypeEnv, expected, actual Type) (Type, []UnifyError) {
	strat := &unifyStrategy{}
	m := &matcher{subs: subs, env: env, cache: subs.cache, strat: strat}
	replaced := m.match(expected, actual)
	if replaced == nil {
		replaced = expected
	}
	return replaced, strat.errors
}

// MergeSignature unifies like Unify but lets the expected (left) side be
// less polymorphic than the actual side: a Forall on the right is
// skolemized before matching, and row fields present only on the left are
// tolerated while fields present only on the right are errors when the
// left row is closed.
func MergeSignature(subs *Subs, env TypeEnv, expected, actual Type) (Type, []UnifyError) {
	strat := &unifyStrategy{merge: true}
	m := &matcher{subs: subs, env: env, cache: subs.cache, strat: strat}
	replaced := m.match(expected, actual)
	if replaced == nil {
		replaced = expected
	}
	return replaced, strat.errors
}

// unifyStrategy is full equality unification with error collection; with
// merge set it implements the MergeSignature asymmetries.
type unifyStrategy struct {
	errors []UnifyError
	merge  bool
}

func (u *unifyStrategy) reportError(err UnifyError) {
	u.errors = append(u.errors, err)
}

func (u *unifyStrategy) allowExtraLeft() bool { return u.merge }

func (u *unifyStrategy) mismatch(m *matcher, l, r Type) Type {
	u.reportError(&TypeMismatch{Left: l, Right: r})
	return nil
}

func (u *unifyStrategy) tryMatch(m *matcher, l, r Type) Type {
	l, r = m.subs.Real(l), m.subs.Real(r)

	if u.merge {
		// The actual side may be more polymorphic than expected: entering
		// its forall with rigid skolems checks that the expected side does
		// not demand anything more specific.
		if rf, ok := r.(*Forall); ok {
			r = SkolemizeForall(m.subs, rf)
		}
		if lf, ok := l.(*Forall); ok {
			if _, alsoForall := r.(*Forall); !alsoForall {
				l = InstantiateForall(m.subs, lf, m.subs.VarID())
			}
		}
	}

	lv, lok := l.(*Var)
	rv, rok := r.(*Var)
	switch {
	case lok && rok && lv.ID == rv.ID:
		return nil
	case lok:
		resolved, err := m.subs.Union(lv, r)
		if err != nil {
			u.reportError(&SubstitutionError{Err: err})
			return nil
		}
		if resolved != nil {
			return m.match(resolved, r)
		}
		return r
	case rok:
		resolved, err := m.subs.Union(rv, l)
		if err != nil {
			u.reportError(&SubstitutionError{Err: err})
			return nil
		}
		if resolved != nil {
			return m.match(l, resolved)
		}
		return nil
	default:
		return m.zipMatch(l, r)
	}
}

// Equivalent reports whether two types can be made equal without touching
// the real substitution. Bindings made while testing are kept in a local
// map; used to test overload candidates.
func Equivalent(subs *Subs, l, r Type) bool {
	return equivalent(subs, l, r)
}

func equivalent(subs *Subs, l, r Type) bool {
	strat := &equivalentStrategy{equiv: true, temp: make(map[uint32]Type)}
	m := &matcher{subs: subs, env: subs.env, cache: subs.cache, strat: strat}
	m.match(l, r)
	return strat.equiv
}

type equivalentStrategy struct {
	equiv bool
	temp  map[uint32]Type
}

func (e *equivalentStrategy) reportError(UnifyError) { e.equiv = false }

func (e *equivalentStrategy) allowExtraLeft() bool { return false }

func (e *equivalentStrategy) mismatch(m *matcher, l, r Type) Type {
	e.equiv = false
	return nil
}

func (e *equivalentStrategy) tryMatch(m *matcher, l, r Type) Type {
	l = m.subs.Real(l)
	if lv, ok := l.(*Var); ok {
		if t, bound := e.temp[lv.ID]; bound {
			l = t
		}
	}
	r = m.subs.Real(r)
	if rv, ok := r.(*Var); ok {
		if t, bound := e.temp[rv.ID]; bound {
			r = t
		}
	}

	lv, lok := l.(*Var)
	rv, rok := r.(*Var)
	switch {
	case lok && rok && lv.ID == rv.ID:
		return nil
	case rok:
		e.temp[rv.ID] = l
		return nil
	case lok:
		e.temp[lv.ID] = r
		return nil
	default:
		return m.zipMatch(l, r)
	}
}

// Intersection computes the most general type subsuming both inputs. Where
// the two sides disagree a fresh generic parameter stands for the pair; the
// returned map records, per parameter, the set of types it stands for.
// Overloaded bindings are typed by intersecting their declarations.
func Intersection(subs *Subs, env TypeEnv, interner *symbol.Interner, l, r Type) (Type, map[symbol.Symbol][]Type) {
	if lf, ok := l.(*Forall); ok {
		l = instantiateFresh(subs, lf)
	}
	if rf, ok := r.(*Forall); ok {
		r = instantiateFresh(subs, rf)
	}
	strat := &intersectStrategy{
		interner: interner,
		pairs:    make(map[string]*Generic),
		mapping:  make(map[symbol.Symbol][]Type),
	}
	m := &matcher{subs: subs, env: env, cache: subs.cache, strat: strat}
	result := m.match(l, r)
	if result == nil {
		result = l
	}
	return result, strat.mapping
}

type intersectStrategy struct {
	interner *symbol.Interner
	counter  int
	// pairs memoizes the generic assigned to each (left, right) pair so the
	// same disagreement always maps to the same parameter.
	pairs   map[string]*Generic
	mapping map[symbol.Symbol][]Type
}

func (i *intersectStrategy) reportError(UnifyError) {}

func (i *intersectStrategy) allowExtraLeft() bool { return false }

func (i *intersectStrategy) generalize(m *matcher, l, r Type) Type {
	key := l.String() + "\x00" + r.String()
	if g, ok := i.pairs[key]; ok {
		return g
	}
	name := i.interner.Fresh(intersectParamName(i.counter))
	i.counter++
	g := &Generic{Name: name, Kind: m.cache.Kinds.Typ}
	i.pairs[key] = g
	i.mapping[name] = []Type{l, r}
	return g
}

func (i *intersectStrategy) mismatch(m *matcher, l, r Type) Type {
	return i.generalize(m, l, r)
}

func (i *intersectStrategy) tryMatch(m *matcher, l, r Type) Type {
	l, r = m.subs.Real(l), m.subs.Real(r)
	if Equal(l, r) {
		return nil
	}
	lv, lok := l.(*Var)
	rv, rok := r.(*Var)
	if lok || rok {
		if lok && rok && lv.ID == rv.ID {
			return nil
		}
		return i.generalize(m, l, r)
	}
	return m.zipMatch(l, r)
}

// intersectParamName yields a, b, ..., z, a1, b1, ...
func intersectParamName(i int) string {
	letter := rune('a' + i%26)
	if i < 26 {
		return string(letter)
	}
	return fmt.Sprintf("%c%d", letter, i/26)
}

// SkolemizeForall enters a forall with rigid skolems, reusing the cached
// instantiation when the forall has already been entered.
func SkolemizeForall(subs *Subs, f *Forall) Type {
	inst := f.Instantiation()
	if inst == nil {
		inst = make([]Type, len(f.Params))
		for i, p := range f.Params {
			inst[i] = subs.NewSkolem(p.Name, p.Kind)
		}
		f.SetInstantiation(inst)
	}
	return applyInstantiation(f, inst)
}

// InstantiateForall enters a forall with flexible variables at the given
// level, reusing the cached instantiation when present.
func InstantiateForall(subs *Subs, f *Forall, level uint32) Type {
	inst := f.Instantiation()
	if inst == nil {
		inst = make([]Type, len(f.Params))
		for i, p := range f.Params {
			inst[i] = subs.NewVar(level, p.Kind)
		}
		f.SetInstantiation(inst)
	}
	return applyInstantiation(f, inst)
}

func applyInstantiation(f *Forall, inst []Type) Type {
	m := make(map[symbol.Symbol]Type, len(f.Params))
	for i, p := range f.Params {
		if i < len(inst) {
			m[p.Name] = inst[i]
		}
	}
	return ReplaceGenerics(f.Body, m)
}
