package ast

import (
	"github.com/fennlang/fenn/internal/symbol"
	"github.com/fennlang/fenn/internal/types"
)

// Pattern is a pattern node.
type Pattern interface {
	Span() Span
	patternNode()
}

// PatIdent binds the scrutinee to a name.
type PatIdent struct {
	Sp   Span
	Name symbol.Symbol
	Typ  types.Type
}

// PatConstructor destructures a variant constructor.
type PatConstructor struct {
	Sp   Span
	Name *Ident
	Args []Pattern
}

// PatFieldType names an associated type brought into scope by a record
// pattern.
type PatFieldType struct {
	Name symbol.Symbol
}

// PatField destructures one record field. A nil Value binds the field
// under its own name.
type PatField struct {
	Name  symbol.Symbol
	Value Pattern
}

// PatRecord destructures a record.
type PatRecord struct {
	Sp     Span
	Types  []PatFieldType
	Fields []PatField
	Typ    types.Type
}

// PatTuple destructures a tuple.
type PatTuple struct {
	Sp    Span
	Elems []Pattern
	Typ   types.Type
}

// PatError marks a pattern the parser could not produce.
type PatError struct {
	Sp Span
}

func (p *PatIdent) Span() Span       { return p.Sp }
func (p *PatConstructor) Span() Span { return p.Sp }
func (p *PatRecord) Span() Span      { return p.Sp }
func (p *PatTuple) Span() Span       { return p.Sp }
func (p *PatError) Span() Span       { return p.Sp }

func (*PatIdent) patternNode()       {}
func (*PatConstructor) patternNode() {}
func (*PatRecord) patternNode()      {}
func (*PatTuple) patternNode()       {}
func (*PatError) patternNode()       {}
