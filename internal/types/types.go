// Package types implements the type representation, substitution, alias
// resolution, unification and kind checking for the Fenn language. The
// typechecker that drives these pieces over the AST lives in internal/check.
package types

import (
	"fmt"
	"strings"

	"github.com/fennlang/fenn/internal/symbol"
)

// Type is the representation of Fenn types. Values are compared by
// structure; physical sharing is an optimization only.
//
// Callers must not pattern-match a Type that may be a unified Variable
// without first walking it through the substitution with Subs.Real.
type Type interface {
	typeNode()
	String() string
}

// Hole is an unknown written by the user ("_"); signature normalization
// replaces it with a fresh variable.
type Hole struct{}

// Opaque is an abstract type. It is only valid as the immediate body of an
// alias and never unfolds.
type Opaque struct{}

// Var is a unification variable allocated by a Subs.
type Var struct {
	ID   uint32
	Kind Kind
}

// Skolem is a rigid variable standing for a forall-bound variable after its
// scope has been entered. A skolem unifies only with itself.
type Skolem struct {
	Name symbol.Symbol
	ID   uint32
	Kind Kind
}

// Generic is a bound variable inside a Forall.
type Generic struct {
	Name symbol.Symbol
	Kind Kind
}

// Forall is a polymorphic type. The instantiation slot caches the fresh
// variables or skolems generated when the forall was last entered, so that
// several entries during one inference reuse the same variables.
type Forall struct {
	Params []*Generic
	Body   Type

	inst []Type
}

// Instantiation returns the cached instantiation variables, or nil.
func (t *Forall) Instantiation() []Type { return t.inst }

// SetInstantiation caches the variables generated for this forall.
func (t *Forall) SetInstantiation(vars []Type) { t.inst = vars }

// Con is a builtin type constructor (Int, Float, Array, the function
// arrow, ...). User-defined constructors are aliases, not Cons.
type Con struct {
	Name string
	Kind Kind
}

// App applies a type constructor to arguments.
type App struct {
	Head Type
	Args []Type
}

// Record is a record type; its Row is a right-spine of ExtendRow.
type Record struct {
	Row Type
}

// Variant is a polymorphic variant (sum) type encoded via a row.
type Variant struct {
	Row Type
}

// Field is a named field of a row.
type Field struct {
	Name symbol.Symbol
	Typ  Type
}

// AssocType is a type declared inside a record row. Associated types match
// by name alone during unification.
type AssocType struct {
	Name  symbol.Symbol
	Alias *AliasRef
}

// ExtendRow extends the row Rest with fields and associated types. Rows
// compare up to permutation of Fields and Types.
type ExtendRow struct {
	Types  []AssocType
	Fields []Field
	Rest   Type
}

// EmptyRow terminates a closed row.
type EmptyRow struct{}

// Alias is a reference to a named type whose body may be expanded.
type Alias struct {
	Ref *AliasRef
}

// Ident is an unresolved type reference; signature normalization replaces
// it with an Alias.
type Ident struct {
	Name symbol.Symbol
}

func (*Hole) typeNode()      {}
func (*Opaque) typeNode()    {}
func (*Var) typeNode()       {}
func (*Skolem) typeNode()    {}
func (*Generic) typeNode()   {}
func (*Forall) typeNode()    {}
func (*Con) typeNode()       {}
func (*App) typeNode()       {}
func (*Record) typeNode()    {}
func (*Variant) typeNode()   {}
func (*ExtendRow) typeNode() {}
func (*EmptyRow) typeNode()  {}
func (*Alias) typeNode()     {}
func (*Ident) typeNode()     {}

// AliasRef names a type together with its parameters and body. Two aliases
// are the same type exactly when they share the same AliasRef.
type AliasRef struct {
	Name   symbol.Symbol
	Params []*Generic
	Body   Type
}

// Arity returns the number of type parameters the alias takes.
func (a *AliasRef) Arity() int { return len(a.Params) }

// IsOpaque reports whether the alias body is abstract and must never
// unfold.
func (a *AliasRef) IsOpaque() bool {
	body := a.Body
	if f, ok := body.(*Forall); ok {
		body = f.Body
	}
	_, ok := body.(*Opaque)
	return ok
}

// ApplyArgs instantiates the alias body with the given arguments. Returns
// nil when the body is opaque or the argument count does not match.
func (a *AliasRef) ApplyArgs(args []Type) Type {
	if a.IsOpaque() || len(args) != len(a.Params) {
		return nil
	}
	if len(args) == 0 {
		return a.Body
	}
	m := make(map[symbol.Symbol]Type, len(args))
	for i, p := range a.Params {
		m[p.Name] = args[i]
	}
	return ReplaceGenerics(a.Body, m)
}

// FunctionConName is the builtin function arrow constructor name.
const FunctionConName = "->"

// NewFunction builds the function type arg -> ret as sugar for
// App(->, [arg, ret]).
func NewFunction(cache *TypeCache, arg, ret Type) Type {
	return &App{Head: cache.Function, Args: []Type{arg, ret}}
}

// MatchFunction deconstructs t as a function type, returning its argument
// and result. It does not consult the substitution.
func MatchFunction(t Type) (arg, ret Type, ok bool) {
	app, isApp := t.(*App)
	if !isApp || len(app.Args) != 2 {
		return nil, nil, false
	}
	head, isCon := app.Head.(*Con)
	if !isCon || head.Name != FunctionConName {
		return nil, nil, false
	}
	return app.Args[0], app.Args[1], true
}

// Walk visits t and every type nested below it, pre-order. It does not
// consult any substitution; walking through unified variables is the
// responsibility of the caller-provided function.
func Walk(t Type, f func(Type)) {
	f(t)
	switch t := t.(type) {
	case *Forall:
		Walk(t.Body, f)
	case *App:
		Walk(t.Head, f)
		for _, a := range t.Args {
			Walk(a, f)
		}
	case *Record:
		Walk(t.Row, f)
	case *Variant:
		Walk(t.Row, f)
	case *ExtendRow:
		for _, field := range t.Fields {
			Walk(field.Typ, f)
		}
		Walk(t.Rest, f)
	}
}

// WalkMove rewrites t top-down. f returns a replacement or nil; after a
// replacement the walk continues into the replacement's subterms. The
// original type is never mutated.
func WalkMove(t Type, f func(Type) Type) Type {
	if r := f(t); r != nil {
		t = r
	}
	switch t := t.(type) {
	case *Forall:
		body := WalkMove(t.Body, f)
		if body == t.Body {
			return t
		}
		return &Forall{Params: t.Params, Body: body}
	case *App:
		head := WalkMove(t.Head, f)
		args, changed := walkMoveSlice(t.Args, f)
		if head == t.Head && !changed {
			return t
		}
		return &App{Head: head, Args: args}
	case *Record:
		row := WalkMove(t.Row, f)
		if row == t.Row {
			return t
		}
		return &Record{Row: row}
	case *Variant:
		row := WalkMove(t.Row, f)
		if row == t.Row {
			return t
		}
		return &Variant{Row: row}
	case *ExtendRow:
		changed := false
		fields := make([]Field, len(t.Fields))
		for i, field := range t.Fields {
			typ := WalkMove(field.Typ, f)
			if typ != field.Typ {
				changed = true
			}
			fields[i] = Field{Name: field.Name, Typ: typ}
		}
		rest := WalkMove(t.Rest, f)
		if !changed && rest == t.Rest {
			return t
		}
		return &ExtendRow{Types: t.Types, Fields: fields, Rest: rest}
	default:
		return t
	}
}

func walkMoveSlice(ts []Type, f func(Type) Type) ([]Type, bool) {
	changed := false
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = WalkMove(t, f)
		if out[i] != ts[i] {
			changed = true
		}
	}
	return out, changed
}

// ReplaceGenerics substitutes generics by name throughout t. Generics bound
// by a nested forall are shadowed.
func ReplaceGenerics(t Type, m map[symbol.Symbol]Type) Type {
	if len(m) == 0 {
		return t
	}
	switch t := t.(type) {
	case *Generic:
		if r, ok := m[t.Name]; ok {
			return r
		}
		return t
	case *Forall:
		inner := m
		for _, p := range t.Params {
			if _, shadowed := m[p.Name]; shadowed {
				inner = make(map[symbol.Symbol]Type, len(m))
				for k, v := range m {
					inner[k] = v
				}
				for _, q := range t.Params {
					delete(inner, q.Name)
				}
				break
			}
		}
		body := ReplaceGenerics(t.Body, inner)
		if body == t.Body {
			return t
		}
		return &Forall{Params: t.Params, Body: body}
	case *App:
		head := ReplaceGenerics(t.Head, m)
		args := make([]Type, len(t.Args))
		changed := head != t.Head
		for i, a := range t.Args {
			args[i] = ReplaceGenerics(a, m)
			if args[i] != t.Args[i] {
				changed = true
			}
		}
		if !changed {
			return t
		}
		return &App{Head: head, Args: args}
	case *Record:
		row := ReplaceGenerics(t.Row, m)
		if row == t.Row {
			return t
		}
		return &Record{Row: row}
	case *Variant:
		row := ReplaceGenerics(t.Row, m)
		if row == t.Row {
			return t
		}
		return &Variant{Row: row}
	case *ExtendRow:
		changed := false
		fields := make([]Field, len(t.Fields))
		for i, field := range t.Fields {
			typ := ReplaceGenerics(field.Typ, m)
			if typ != field.Typ {
				changed = true
			}
			fields[i] = Field{Name: field.Name, Typ: typ}
		}
		rest := ReplaceGenerics(t.Rest, m)
		if !changed && rest == t.Rest {
			return t
		}
		return &ExtendRow{Types: t.Types, Fields: fields, Rest: rest}
	default:
		return t
	}
}

// FlattenRow walks the right-spine of a row, collecting associated types
// and fields, and returns the terminal rest (EmptyRow, Var, Generic or
// Skolem). It does not consult the substitution.
func FlattenRow(row Type) (assoc []AssocType, fields []Field, rest Type) {
	rest = row
	for {
		ext, ok := rest.(*ExtendRow)
		if !ok {
			return assoc, fields, rest
		}
		assoc = append(assoc, ext.Types...)
		fields = append(fields, ext.Fields...)
		rest = ext.Rest
	}
}

// Equal compares two types structurally. Rows compare up to permutation of
// fields and associated types; forall parameters compare positionally by
// kind with bodies compared under the induced renaming.
func Equal(a, b Type) bool {
	return equal(a, b, nil)
}

func equal(a, b Type, generics map[symbol.Symbol]symbol.Symbol) bool {
	switch a := a.(type) {
	case *Hole:
		_, ok := b.(*Hole)
		return ok
	case *Opaque:
		_, ok := b.(*Opaque)
		return ok
	case *Var:
		bv, ok := b.(*Var)
		return ok && a.ID == bv.ID
	case *Skolem:
		bs, ok := b.(*Skolem)
		return ok && a.ID == bs.ID
	case *Generic:
		bg, ok := b.(*Generic)
		if !ok {
			return false
		}
		if renamed, bound := generics[a.Name]; bound {
			return renamed == bg.Name
		}
		return a.Name == bg.Name
	case *Forall:
		bf, ok := b.(*Forall)
		if !ok || len(a.Params) != len(bf.Params) {
			return false
		}
		inner := make(map[symbol.Symbol]symbol.Symbol, len(generics)+len(a.Params))
		for k, v := range generics {
			inner[k] = v
		}
		for i, p := range a.Params {
			if !KindEqual(p.Kind, bf.Params[i].Kind) {
				return false
			}
			inner[p.Name] = bf.Params[i].Name
		}
		return equal(a.Body, bf.Body, inner)
	case *Con:
		bc, ok := b.(*Con)
		return ok && a.Name == bc.Name
	case *App:
		ba, ok := b.(*App)
		if !ok || len(a.Args) != len(ba.Args) {
			return false
		}
		if !equal(a.Head, ba.Head, generics) {
			return false
		}
		for i := range a.Args {
			if !equal(a.Args[i], ba.Args[i], generics) {
				return false
			}
		}
		return true
	case *Record:
		br, ok := b.(*Record)
		return ok && rowEqual(a.Row, br.Row, generics)
	case *Variant:
		bv, ok := b.(*Variant)
		return ok && rowEqual(a.Row, bv.Row, generics)
	case *ExtendRow:
		if _, ok := b.(*ExtendRow); !ok {
			return false
		}
		return rowEqual(a, b, generics)
	case *EmptyRow:
		_, ok := b.(*EmptyRow)
		return ok
	case *Alias:
		bl, ok := b.(*Alias)
		return ok && a.Ref.Name == bl.Ref.Name
	case *Ident:
		bi, ok := b.(*Ident)
		return ok && a.Name == bi.Name
	default:
		return false
	}
}

func rowEqual(a, b Type, generics map[symbol.Symbol]symbol.Symbol) bool {
	assocA, fieldsA, restA := FlattenRow(a)
	assocB, fieldsB, restB := FlattenRow(b)
	if len(assocA) != len(assocB) || len(fieldsA) != len(fieldsB) {
		return false
	}
	byNameB := make(map[symbol.Symbol]Type, len(fieldsB))
	for _, f := range fieldsB {
		byNameB[f.Name] = f.Typ
	}
	for _, f := range fieldsA {
		other, ok := byNameB[f.Name]
		if !ok || !equal(f.Typ, other, generics) {
			return false
		}
	}
	assocNames := make(map[symbol.Symbol]bool, len(assocB))
	for _, at := range assocB {
		assocNames[at.Name] = true
	}
	for _, at := range assocA {
		if !assocNames[at.Name] {
			return false
		}
	}
	return equal(restA, restB, generics)
}

// String renders the type with surface syntax.
func (*Hole) String() string   { return "_" }
func (*Opaque) String() string { return "<opaque>" }

func (t *Var) String() string { return fmt.Sprintf("$%d", t.ID) }

func (t *Skolem) String() string { return t.Name.Declared() }

func (t *Generic) String() string { return t.Name.Declared() }

func (t *Forall) String() string {
	names := make([]string, len(t.Params))
	for i, p := range t.Params {
		names[i] = p.Name.Declared()
	}
	return fmt.Sprintf("forall %s . %s", strings.Join(names, " "), t.Body)
}

func (t *Con) String() string { return t.Name }

func (t *App) String() string {
	if arg, ret, ok := MatchFunction(t); ok {
		argStr := arg.String()
		if _, _, isFn := MatchFunction(arg); isFn {
			argStr = "(" + argStr + ")"
		} else if _, isForall := arg.(*Forall); isForall {
			argStr = "(" + argStr + ")"
		}
		return fmt.Sprintf("%s -> %s", argStr, ret)
	}
	parts := make([]string, 0, len(t.Args)+1)
	parts = append(parts, t.Head.String())
	for _, a := range t.Args {
		s := a.String()
		switch a.(type) {
		case *App, *Forall:
			s = "(" + s + ")"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

func (t *Record) String() string {
	assoc, fields, rest := FlattenRow(t.Row)
	parts := make([]string, 0, len(assoc)+len(fields)+1)
	for _, at := range assoc {
		parts = append(parts, fmt.Sprintf("type %s", at.Name.Declared()))
	}
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s : %s", f.Name.Declared(), f.Typ))
	}
	if _, closed := rest.(*EmptyRow); !closed {
		parts = append(parts, fmt.Sprintf(".. %s", rest))
	}
	if len(parts) == 0 {
		return "{}"
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

func (t *Variant) String() string {
	_, fields, rest := FlattenRow(t.Row)
	var sb strings.Builder
	for _, f := range fields {
		sb.WriteString("| ")
		sb.WriteString(f.Name.Declared())
		args, _, _ := FlattenFunction(f.Typ)
		for _, a := range args {
			sb.WriteByte(' ')
			s := a.String()
			switch a.(type) {
			case *App, *Forall:
				s = "(" + s + ")"
			}
			sb.WriteString(s)
		}
		sb.WriteByte(' ')
	}
	if _, closed := rest.(*EmptyRow); !closed {
		fmt.Fprintf(&sb, ".. %s", rest)
	}
	return strings.TrimSpace(sb.String())
}

func (t *ExtendRow) String() string {
	_, fields, rest := FlattenRow(t)
	parts := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s : %s", f.Name.Declared(), f.Typ))
	}
	if _, closed := rest.(*EmptyRow); !closed {
		parts = append(parts, fmt.Sprintf(".. %s", rest))
	}
	return strings.Join(parts, ", ")
}

func (*EmptyRow) String() string { return "<empty row>" }

func (t *Alias) String() string { return t.Ref.Name.Declared() }

func (t *Ident) String() string { return t.Name.Declared() }

// FlattenFunction splits arg1 -> arg2 -> ... -> ret into its argument list
// and final result. ok is false when t is not a function at all.
func FlattenFunction(t Type) (args []Type, ret Type, ok bool) {
	ret = t
	for {
		arg, next, isFn := MatchFunction(ret)
		if !isFn {
			return args, ret, len(args) > 0
		}
		args = append(args, arg)
		ret = next
	}
}
