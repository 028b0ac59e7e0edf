package types

import (
	"math"

	"github.com/fennlang/fenn/internal/symbol"
)

// Subs is the substitution: a union-find over type variables extended with
// a per-variable level and constraint set. A Subs lives for one top-level
// typecheck invocation; variables allocated inside it are not valid across
// invocations.
//
// A single *Subs is enough to both read (Real) and unify (Union); the
// typechecker is single-threaded so no locking is performed.
type Subs struct {
	cache *TypeCache
	// env is consulted when constraint resolution needs to look through
	// aliases. It is set once by the typechecker that owns this Subs.
	env TypeEnv

	// nodes is indexed by variable id. Skolems draw ids from the same
	// counter and occupy slots here but never participate in a union.
	nodes []unionNode
	// vars holds the Var or Skolem created for each id so Real can always
	// hand back a stable reference.
	vars []Type
	// types maps a union-find representative to its resolved type. Entries
	// are never overwritten, which keeps references returned by Real valid
	// for the lifetime of the Subs.
	types map[uint32]Type
}

type unionNode struct {
	parent      uint32
	rank        uint32
	level       uint32
	constraints map[symbol.Symbol][]Type
}

// NewSubs creates an empty substitution.
func NewSubs(cache *TypeCache) *Subs {
	return &Subs{cache: cache, types: make(map[uint32]Type)}
}

// SetEnv attaches the type environment used when resolving constraints.
func (s *Subs) SetEnv(env TypeEnv) { s.env = env }

// VarID returns the id the next variable will receive. Let bindings record
// it as the level of the scope they open.
func (s *Subs) VarID() uint32 { return uint32(len(s.vars)) }

// Clear drops every variable and resolved type, resetting the substitution
// for the next top-level expression.
func (s *Subs) Clear() {
	s.nodes = s.nodes[:0]
	s.vars = s.vars[:0]
	s.types = make(map[uint32]Type)
}

// NewVar creates a fresh unification variable at the given level.
func (s *Subs) NewVar(level uint32, kind Kind) *Var {
	return s.newVar(level, kind, nil)
}

// NewConstrainedVar creates a fresh variable carrying candidate types for
// an overloaded name.
func (s *Subs) NewConstrainedVar(name symbol.Symbol, candidates []Type, kind Kind) *Var {
	return s.newVar(s.VarID(), kind, map[symbol.Symbol][]Type{name: candidates})
}

func (s *Subs) newVar(level uint32, kind Kind, constraints map[symbol.Symbol][]Type) *Var {
	id := uint32(len(s.vars))
	if level > id {
		level = math.MaxUint32
	}
	v := &Var{ID: id, Kind: kind}
	s.vars = append(s.vars, v)
	s.nodes = append(s.nodes, unionNode{parent: id, rank: 0, level: level, constraints: constraints})
	return v
}

// NewSkolem creates a rigid variable drawing its id from the same counter
// as unification variables.
func (s *Subs) NewSkolem(name symbol.Symbol, kind Kind) *Skolem {
	id := uint32(len(s.vars))
	sk := &Skolem{Name: name, ID: id, Kind: kind}
	s.vars = append(s.vars, sk)
	s.nodes = append(s.nodes, unionNode{parent: id, rank: 0, level: math.MaxUint32})
	return sk
}

func (s *Subs) find(id uint32) uint32 {
	for s.nodes[id].parent != id {
		// Path halving keeps the trees shallow without recursion.
		s.nodes[id].parent = s.nodes[s.nodes[id].parent].parent
		id = s.nodes[id].parent
	}
	return id
}

// Real walks typ one step through the substitution: a unified variable
// yields its resolved type or representative variable, anything else is
// returned as-is. The result may itself contain variables that need Real.
func (s *Subs) Real(typ Type) Type {
	v, ok := typ.(*Var)
	if !ok {
		return typ
	}
	if t := s.FindTypeForVar(v.ID); t != nil {
		return t
	}
	return typ
}

// FindTypeForVar returns the type the variable resolves to, or its
// representative variable when it was unioned with another variable, or nil
// when it is still unbound.
func (s *Subs) FindTypeForVar(id uint32) Type {
	if id >= uint32(len(s.nodes)) {
		return nil
	}
	root := s.find(id)
	if t, ok := s.types[root]; ok {
		return t
	}
	if root != id {
		return s.vars[root]
	}
	return nil
}

// RootID returns the union-find representative of the variable. Two
// variables share a representative exactly when they have been unioned.
func (s *Subs) RootID(id uint32) uint32 {
	if id >= uint32(len(s.nodes)) {
		return id
	}
	return s.find(id)
}

// Level returns the level of the variable, following the union-find to its
// representative. Unset levels default to the variable's own id.
func (s *Subs) Level(id uint32) uint32 {
	if t := s.FindTypeForVar(id); t != nil {
		if v, ok := t.(*Var); ok {
			id = v.ID
		}
	}
	root := s.find(id)
	node := &s.nodes[root]
	if node.level > id {
		node.level = id
	}
	return node.level
}

// UpdateLevel lowers other's level to the minimum of var's and other's
// levels so that generalization never lets a variable escape its scope.
func (s *Subs) UpdateLevel(id, other uint32) {
	level := s.Level(id)
	if l := s.Level(other); l < level {
		level = l
	}
	s.nodes[s.find(other)].level = level
}

// Constraints returns the candidate-type map attached to the variable, or
// nil when it carries none.
func (s *Subs) Constraints(id uint32) map[symbol.Symbol][]Type {
	if id >= uint32(len(s.nodes)) {
		return nil
	}
	c := s.nodes[s.find(id)].constraints
	if len(c) == 0 {
		return nil
	}
	return c
}

// insert records a resolved type for the variable. Inserting another
// variable is a bug: that must go through a union.
func (s *Subs) insert(id uint32, typ Type) {
	if _, ok := typ.(*Var); ok {
		panic("types: tried to insert a variable as a resolved type")
	}
	root := s.find(id)
	if _, dup := s.types[root]; dup {
		panic("types: variable already has a resolved type")
	}
	s.types[root] = typ
}

// occurs reports whether the variable occurs in typ under the current
// substitution. While walking it lowers the level of every variable it
// meets so a later generalization cannot let them escape.
func (s *Subs) occurs(typ Type, v *Var) bool {
	found := false
	var walk func(Type)
	walk = func(t Type) {
		if found {
			return
		}
		t = s.Real(t)
		if other, ok := t.(*Var); ok {
			if other.ID == v.ID {
				found = true
				return
			}
			s.UpdateLevel(v.ID, other.ID)
		}
		switch t := t.(type) {
		case *Forall:
			walk(t.Body)
		case *App:
			walk(t.Head)
			for _, a := range t.Args {
				walk(a)
			}
		case *Record:
			walk(t.Row)
		case *Variant:
			walk(t.Row)
		case *ExtendRow:
			for _, f := range t.Fields {
				walk(f.Typ)
			}
			walk(t.Rest)
		}
	}
	walk(typ)
	return found
}

// Union records that the variable v has the same type as typ. When v
// carries constraints and typ is concrete the constraints are resolved
// first; the chosen candidate (if any) is returned so the unifier can
// continue matching against it.
func (s *Subs) Union(v *Var, typ Type) (Type, error) {
	if other, ok := typ.(*Var); ok && other.ID == v.ID {
		return nil, nil
	}
	if s.occurs(typ, v) {
		return nil, &OccursError{Var: v, Typ: typ}
	}
	idType := s.FindTypeForVar(v.ID)
	real := s.Real(typ)
	if idType != nil && Equal(idType, real) {
		return nil, nil
	}
	if rv, ok := real.(*Var); ok && rv.ID == v.ID {
		return nil, nil
	}

	var resolved Type
	if _, isVar := typ.(*Var); !isVar {
		var err error
		resolved, err = s.resolveConstraints(v, typ)
		if err != nil {
			return nil, err
		}
	}

	target := typ
	if resolved != nil {
		target = resolved
	}
	if other, ok := target.(*Var); ok {
		s.unionVars(v.ID, other.ID)
		s.UpdateLevel(v.ID, other.ID)
		s.UpdateLevel(other.ID, v.ID)
	} else {
		s.insert(v.ID, target)
	}
	return resolved, nil
}

// unionVars merges two union-find nodes. The representative keeps the
// smaller level and the concatenation of both constraint maps; rank decides
// which root absorbs the other.
func (s *Subs) unionVars(a, b uint32) {
	ra, rb := s.find(a), s.find(b)
	if ra == rb {
		return
	}
	na, nb := &s.nodes[ra], &s.nodes[rb]

	level := na.level
	if nb.level < level {
		level = nb.level
	}
	constraints := na.constraints
	if constraints == nil {
		constraints = nb.constraints
	} else if nb.constraints != nil {
		merged := make(map[symbol.Symbol][]Type, len(constraints)+len(nb.constraints))
		for k, v := range constraints {
			merged[k] = v
		}
		for k, v := range nb.constraints {
			merged[k] = append(merged[k], v...)
		}
		constraints = merged
	}

	// The lower-level variable becomes the representative so higher-level
	// variables always point downwards; rank breaks ties to keep the
	// trees shallow.
	la, lb := na.level, nb.level
	if la > ra {
		la = ra
	}
	if lb > rb {
		lb = rb
	}
	root, child := ra, rb
	switch {
	case la < lb:
	case lb < la:
		root, child = rb, ra
	case na.rank < nb.rank:
		root, child = rb, ra
	}
	s.nodes[child].parent = root
	if s.nodes[root].rank == s.nodes[child].rank {
		s.nodes[root].rank++
	}
	s.nodes[root].level = level
	s.nodes[root].constraints = constraints
}

// resolveConstraints checks typ against every candidate set attached to the
// variable. Each candidate is instantiated and tested with the Equivalent
// strategy; a match replaces the constraint. Candidates that are themselves
// variables only win when they have a lower id than the current resolution,
// which keeps renamer output deterministic.
func (s *Subs) resolveConstraints(v *Var, typ Type) (Type, error) {
	constraints := s.Constraints(v.ID)
	if constraints == nil {
		return nil, nil
	}
	current := typ
	replaced := false
	for _, candidates := range constraints {
		var chosen Type
		for _, candidate := range candidates {
			instantiated := instantiateFresh(s, candidate)
			if equivalent(s, instantiated, current) {
				chosen = instantiated
				break
			}
		}
		if chosen == nil {
			return nil, &ConstraintError{Typ: current, Candidates: candidates}
		}
		cv, currentIsVar := s.Real(current).(*Var)
		rv, chosenIsVar := s.Real(chosen).(*Var)
		switch {
		case currentIsVar && chosenIsVar && cv.ID > rv.ID:
			current = chosen
			replaced = true
		case !chosenIsVar:
			current = chosen
			replaced = true
		}
	}
	if !replaced {
		return nil, nil
	}
	return current, nil
}

// Instantiate replaces the outermost forall of t with fresh variables,
// ignoring any cached instantiation. Every use site of a polymorphic
// binding instantiates freshly; the cache is only for foralls re-entered
// by the unifier.
func Instantiate(s *Subs, t Type) Type {
	return instantiateFresh(s, t)
}

// instantiateFresh replaces the outermost forall of t with fresh variables,
// ignoring any cached instantiation. Used when testing overload candidates.
func instantiateFresh(s *Subs, t Type) Type {
	forall, ok := t.(*Forall)
	if !ok {
		return t
	}
	m := make(map[symbol.Symbol]Type, len(forall.Params))
	for _, p := range forall.Params {
		m[p.Name] = s.NewVar(s.VarID(), p.Kind)
	}
	return ReplaceGenerics(forall.Body, m)
}

// SetType applies the substitution deeply, rewriting every resolved
// variable, and folds nested App and ExtendRow spines into canonical form.
// The result is independent of the Subs and SetType is idempotent.
func (s *Subs) SetType(t Type) Type {
	result := WalkMove(t, func(typ Type) Type {
		replacement := typ
		if v, ok := typ.(*Var); ok {
			if r := s.FindTypeForVar(v.ID); r != nil {
				replacement = r
			}
		}
		if unrolled := UnrollType(replacement); unrolled != nil {
			return unrolled
		}
		if replacement != typ {
			return replacement
		}
		return nil
	})
	return result
}

// UnrollType folds directly nested applications and rows one level:
//
//	App(App(f, xs), ys)            => App(f, xs ++ ys)
//	ExtendRow(a, ExtendRow(b, r))  => ExtendRow(a ++ b, r)
//
// Returns nil when t is already canonical.
func UnrollType(t Type) Type {
	switch t := t.(type) {
	case *App:
		inner, ok := t.Head.(*App)
		if !ok {
			return nil
		}
		args := make([]Type, 0, len(inner.Args)+len(t.Args))
		args = append(args, inner.Args...)
		args = append(args, t.Args...)
		head := inner.Head
		if unrolled := UnrollType(&App{Head: head, Args: args}); unrolled != nil {
			return unrolled
		}
		return &App{Head: head, Args: args}
	case *ExtendRow:
		inner, ok := t.Rest.(*ExtendRow)
		if !ok {
			return nil
		}
		assoc := make([]AssocType, 0, len(t.Types)+len(inner.Types))
		assoc = append(assoc, t.Types...)
		assoc = append(assoc, inner.Types...)
		fields := make([]Field, 0, len(t.Fields)+len(inner.Fields))
		fields = append(fields, t.Fields...)
		fields = append(fields, inner.Fields...)
		merged := &ExtendRow{Types: assoc, Fields: fields, Rest: inner.Rest}
		if unrolled := UnrollType(merged); unrolled != nil {
			return unrolled
		}
		return merged
	default:
		return nil
	}
}
