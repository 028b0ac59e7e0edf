// Package ast defines the expression and pattern trees the typechecker
// consumes. The parser producing these trees lives outside the core; spans
// are opaque byte positions it assigns.
//
// Nodes carry a mutable Typ slot. After a successful typecheck every
// identifier, pattern, binding and record literal has its inferred type and
// resolved symbol filled in.
package ast

import (
	"github.com/fennlang/fenn/internal/symbol"
	"github.com/fennlang/fenn/internal/types"
)

// Span delimits a node in the source as byte positions. The core treats
// positions as opaque; only error reporting hands them back.
type Span struct {
	Start uint32
	End   uint32
}

// Expr is an expression node.
type Expr interface {
	Span() Span
	exprNode()
}

// LitKind discriminates literal payloads.
type LitKind int

const (
	IntLit LitKind = iota
	ByteLit
	FloatLit
	StringLit
	CharLit
)

// Ident is a variable reference.
type Ident struct {
	Sp   Span
	Name symbol.Symbol
	Typ  types.Type
}

// Literal is a constant.
type Literal struct {
	Sp    Span
	Kind  LitKind
	Int   int64
	Float float64
	Str   string
	Char  rune
	Byte  byte
	Typ   types.Type
}

// App applies a function to arguments.
type App struct {
	Sp   Span
	Func Expr
	Args []Expr
}

// IfElse is a conditional; both branches are required.
type IfElse struct {
	Sp   Span
	Cond Expr
	Then Expr
	Else Expr
}

// Infix applies a binary operator. Primitive operators (spelled #Int+,
// #Float*, ...) resolve to builtin types; everything else behaves as a
// function call on the operator identifier.
type Infix struct {
	Sp    Span
	Left  Expr
	Op    *Ident
	Right Expr
}

// Match scrutinizes an expression against alternatives.
type Match struct {
	Sp        Span
	Expr      Expr
	Alts      []*Alt
	ResultTyp types.Type
}

// Alt is one arm of a match.
type Alt struct {
	Pattern Pattern
	Expr    Expr
}

// Let binds a group of values in a body.
type Let struct {
	Sp       Span
	Bindings []*ValueBinding
	Body     Expr
}

// ValueBinding is one binding of a let group. Name is a pattern: plain
// identifiers bind functions or values, record or tuple patterns
// destructure. Comment carries the doc comment attached to the binding.
type ValueBinding struct {
	Comment  string
	Name     Pattern
	Args     []*Ident
	Declared types.Type
	Resolved types.Type
	Expr     Expr
}

// Lambda is an anonymous function.
type Lambda struct {
	Sp   Span
	ID   symbol.Symbol
	Args []*Ident
	Body Expr
	Typ  types.Type
}

// Projection accesses a record field.
type Projection struct {
	Sp    Span
	Expr  Expr
	Field symbol.Symbol
	Typ   types.Type
}

// RecordTypeField associates a type name inside a record literal.
type RecordTypeField struct {
	Name  symbol.Symbol
	Value types.Type
}

// RecordField is a field of a record literal. A nil Value puns on the
// field name.
type RecordField struct {
	Name  symbol.Symbol
	Value Expr
}

// Record is a record literal, optionally extending a base record.
type Record struct {
	Sp     Span
	Types  []RecordTypeField
	Fields []RecordField
	Base   Expr
	Typ    types.Type
}

// Tuple is sugar for a record with fields _0, _1, ...
type Tuple struct {
	Sp    Span
	Elems []Expr
	Typ   types.Type
}

// Array is a homogeneous array literal.
type Array struct {
	Sp    Span
	Elems []Expr
	Typ   types.Type
}

// TypeBindings introduces a group of type aliases scoped to a body.
type TypeBindings struct {
	Sp       Span
	Bindings []*TypeBinding
	Body     Expr
}

// TypeBinding declares one alias of a group.
type TypeBinding struct {
	Comment string
	Name    symbol.Symbol
	Params  []*types.Generic
	Body    types.Type
	// Alias is resolved by the typechecker: the unique alias installed
	// for this binding.
	Alias *types.AliasRef
}

// Block evaluates expressions in order, yielding the last.
type Block struct {
	Sp    Span
	Exprs []Expr
}

// Error marks a subtree the parser could not produce.
type Error struct {
	Sp Span
}

func (e *Ident) Span() Span        { return e.Sp }
func (e *Literal) Span() Span      { return e.Sp }
func (e *App) Span() Span          { return e.Sp }
func (e *IfElse) Span() Span       { return e.Sp }
func (e *Infix) Span() Span        { return e.Sp }
func (e *Match) Span() Span        { return e.Sp }
func (e *Let) Span() Span          { return e.Sp }
func (e *Lambda) Span() Span       { return e.Sp }
func (e *Projection) Span() Span   { return e.Sp }
func (e *Record) Span() Span       { return e.Sp }
func (e *Tuple) Span() Span        { return e.Sp }
func (e *Array) Span() Span        { return e.Sp }
func (e *TypeBindings) Span() Span { return e.Sp }
func (e *Block) Span() Span        { return e.Sp }
func (e *Error) Span() Span        { return e.Sp }

func (*Ident) exprNode()        {}
func (*Literal) exprNode()      {}
func (*App) exprNode()          {}
func (*IfElse) exprNode()       {}
func (*Infix) exprNode()        {}
func (*Match) exprNode()        {}
func (*Let) exprNode()          {}
func (*Lambda) exprNode()       {}
func (*Projection) exprNode()   {}
func (*Record) exprNode()       {}
func (*Tuple) exprNode()        {}
func (*Array) exprNode()        {}
func (*TypeBindings) exprNode() {}
func (*Block) exprNode()        {}
func (*Error) exprNode()        {}
