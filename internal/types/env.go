package types

import (
	"github.com/fennlang/fenn/internal/symbol"
)

// RecordSelector controls how FindRecord matches a field list against the
// records known to the environment.
type RecordSelector int

const (
	// SelectExact requires the record to have exactly the given fields.
	SelectExact RecordSelector = iota
	// SelectSubset accepts records containing at least the given fields.
	SelectSubset
)

// TypeEnv is the top-level type environment the typechecker consumes. The
// embedding application (module machinery, stdlib loader) provides it; the
// core only reads from it.
type TypeEnv interface {
	// FindType returns the type of the symbol, or nil.
	FindType(sym symbol.Symbol) Type
	// FindTypeInfo returns the alias the symbol names, or nil.
	FindTypeInfo(sym symbol.Symbol) *AliasRef
	// FindRecord searches known record aliases for one matching the field
	// names. It returns the named type and its row.
	FindRecord(fields []symbol.Symbol, selector RecordSelector) (Type, Type, bool)
	// FindKind returns the kind of the type constructor, or nil.
	FindKind(sym symbol.Symbol) Kind
	// GetBool returns the Bool type used for conditions.
	GetBool() Type
}

// MapEnv is a TypeEnv backed by maps. Tests and the demo binary use it;
// real embedders typically wrap their module system instead.
type MapEnv struct {
	cache   *TypeCache
	types   map[symbol.Symbol]Type
	aliases map[symbol.Symbol]*AliasRef
	kinds   map[symbol.Symbol]Kind
}

// NewMapEnv creates an empty environment over the given cache.
func NewMapEnv(cache *TypeCache) *MapEnv {
	return &MapEnv{
		cache:   cache,
		types:   make(map[symbol.Symbol]Type),
		aliases: make(map[symbol.Symbol]*AliasRef),
		kinds:   make(map[symbol.Symbol]Kind),
	}
}

// AddType binds a term-level name.
func (e *MapEnv) AddType(sym symbol.Symbol, typ Type) {
	e.types[sym] = typ
}

// AddAlias registers a type alias and its kind.
func (e *MapEnv) AddAlias(ref *AliasRef) {
	e.aliases[ref.Name] = ref
	kinds := make([]Kind, len(ref.Params))
	for i, p := range ref.Params {
		kinds[i] = p.Kind
	}
	e.kinds[ref.Name] = FunctionKind(kinds, e.cache.Kinds.Typ)
}

// FindType implements TypeEnv.
func (e *MapEnv) FindType(sym symbol.Symbol) Type {
	return e.types[sym]
}

// FindTypeInfo implements TypeEnv.
func (e *MapEnv) FindTypeInfo(sym symbol.Symbol) *AliasRef {
	return e.aliases[sym]
}

// FindRecord implements TypeEnv. It scans registered aliases whose body is
// a record and matches field sets.
func (e *MapEnv) FindRecord(fields []symbol.Symbol, selector RecordSelector) (Type, Type, bool) {
	for _, ref := range e.aliases {
		body := ref.Body
		if f, ok := body.(*Forall); ok {
			body = f.Body
		}
		record, ok := body.(*Record)
		if !ok {
			continue
		}
		_, rowFields, _ := FlattenRow(record.Row)
		if !matchFieldNames(fields, rowFields, selector) {
			continue
		}
		return &Alias{Ref: ref}, record.Row, true
	}
	return nil, nil, false
}

func matchFieldNames(wanted []symbol.Symbol, have []Field, selector RecordSelector) bool {
	if selector == SelectExact && len(wanted) != len(have) {
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

// FindKind implements TypeEnv.
func (e *MapEnv) FindKind(sym symbol.Symbol) Kind {
	return e.kinds[sym]
}

// GetBool implements TypeEnv.
func (e *MapEnv) GetBool() Type {
	return e.cache.Bool
}
