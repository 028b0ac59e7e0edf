package check

import (
	"github.com/fennlang/fenn/internal/symbol"
	"github.com/fennlang/fenn/internal/types"
)

// scopedMap is a name -> value stack with scope markers. Lookups walk from
// the innermost binding outwards; exiting a scope drops everything pushed
// since the matching enter.
type scopedMap[V any] struct {
	entries []scopedEntry[V]
}

type scopedEntry[V any] struct {
	name  symbol.Symbol
	value V
	mark  bool
}

func (m *scopedMap[V]) enter() {
	m.entries = append(m.entries, scopedEntry[V]{mark: true})
}

func (m *scopedMap[V]) exit() {
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].mark {
			m.entries = m.entries[:i]
			return
		}
	}
	m.entries = m.entries[:0]
}

func (m *scopedMap[V]) insert(name symbol.Symbol, value V) {
	m.entries = append(m.entries, scopedEntry[V]{name: name, value: value})
}

func (m *scopedMap[V]) get(name symbol.Symbol) (V, bool) {
	for i := len(m.entries) - 1; i >= 0; i-- {
		if !m.entries[i].mark && m.entries[i].name == name {
			return m.entries[i].value, true
		}
	}
	var zero V
	return zero, false
}

// getLocal looks name up only in the innermost scope.
func (m *scopedMap[V]) getLocal(name symbol.Symbol) (V, bool) {
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].mark {
			break
		}
		if m.entries[i].name == name {
			return m.entries[i].value, true
		}
	}
	var zero V
	return zero, false
}

// getPrevious returns the binding of name shadowed by the innermost one.
func (m *scopedMap[V]) getPrevious(name symbol.Symbol) (V, bool) {
	skipped := false
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].mark || m.entries[i].name != name {
			continue
		}
		if !skipped {
			skipped = true
			continue
		}
		return m.entries[i].value, true
	}
	var zero V
	return zero, false
}

// update replaces the innermost binding of name in place.
func (m *scopedMap[V]) update(name symbol.Symbol, value V) bool {
	for i := len(m.entries) - 1; i >= 0; i-- {
		if !m.entries[i].mark && m.entries[i].name == name {
			m.entries[i].value = value
			return true
		}
	}
	return false
}

// stackBinding is one term binding on the scoped stack. Constraints are
// present only for overloaded names: they map the overloaded symbol to its
// candidate types, keyed by the forall parameter that carries them.
type stackBinding struct {
	typ         types.Type
	constraints map[symbol.Symbol][]types.Type
}

// environment layers the scoped term and type stacks over the caller's
// top-level type environment.
type environment struct {
	outer      types.TypeEnv
	stack      scopedMap[stackBinding]
	stackTypes scopedMap[*types.AliasRef]
}

func newEnvironment(outer types.TypeEnv) *environment {
	return &environment{outer: outer}
}

func (e *environment) enterScope() {
	e.stack.enter()
	e.stackTypes.enter()
}

func (e *environment) exitScope() {
	e.stack.exit()
	e.stackTypes.exit()
}

// FindType implements types.TypeEnv for the unifier: the scoped stacks
// shadow the outer environment.
func (e *environment) FindType(sym symbol.Symbol) types.Type {
	if b, ok := e.stack.get(sym); ok {
		return b.typ
	}
	return e.outer.FindType(sym)
}

// FindTypeInfo implements types.TypeEnv.
func (e *environment) FindTypeInfo(sym symbol.Symbol) *types.AliasRef {
	if ref, ok := e.stackTypes.get(sym); ok {
		return ref
	}
	return e.outer.FindTypeInfo(sym)
}

// FindRecord implements types.TypeEnv. Locally declared record aliases are
// preferred over the outer environment's.
func (e *environment) FindRecord(fields []symbol.Symbol, selector types.RecordSelector) (types.Type, types.Type, bool) {
	for i := len(e.stackTypes.entries) - 1; i >= 0; i-- {
		entry := e.stackTypes.entries[i]
		if entry.mark || entry.value == nil {
			continue
		}
		body := entry.value.Body
		if f, ok := body.(*types.Forall); ok {
			body = f.Body
		}
		record, ok := body.(*types.Record)
		if !ok {
			continue
		}
		_, rowFields, _ := types.FlattenRow(record.Row)
		if !fieldsMatch(fields, rowFields, selector) {
			continue
		}
		return &types.Alias{Ref: entry.value}, record.Row, true
	}
	return e.outer.FindRecord(fields, selector)
}

func fieldsMatch(wanted []symbol.Symbol, have []types.Field, selector types.RecordSelector) bool {
	if selector == types.SelectExact && len(wanted) != len(have) {
		return false
	}
	names := make(map[symbol.Symbol]bool, len(have))
	for _, f := range have {
		names[f.Name] = true
	}
	for _, w := range wanted {
		if !names[w] {
			return false
		}
	}
	return true
}

// FindKind implements types.TypeEnv.
func (e *environment) FindKind(sym symbol.Symbol) types.Kind {
	if ref, ok := e.stackTypes.get(sym); ok {
		kinds := make([]types.Kind, len(ref.Params))
		for i, p := range ref.Params {
			kinds[i] = p.Kind
		}
		return types.FunctionKind(kinds, &types.KindType{})
	}
	return e.outer.FindKind(sym)
}

// GetBool implements types.TypeEnv.
func (e *environment) GetBool() types.Type {
	return e.outer.GetBool()
}
