package check

import (
	"fmt"
	"strings"

	"github.com/fennlang/fenn/internal/ast"
	"github.com/fennlang/fenn/internal/diag"
	"github.com/fennlang/fenn/internal/symbol"
	"github.com/fennlang/fenn/internal/types"
)

// TypeError is one typechecking diagnostic. Every kind carries enough
// structure for tooling; Error renders the human message.
type TypeError interface {
	error
	Code() diag.Code
}

// Spanned attaches the source span to an error.
type Spanned struct {
	Span ast.Span
	Err  TypeError
}

func (s Spanned) Error() string {
	return s.Err.Error()
}

// Errors is the accumulator the typechecker fills during one pass. Error
// order reflects source order within a binding group and is left-to-right
// by position across independent branches.
type Errors []Spanned

// HasErrors reports whether any diagnostic was recorded.
func (e Errors) HasErrors() bool { return len(e) > 0 }

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, s := range e {
		msgs[i] = s.Error()
	}
	return strings.Join(msgs, "\n")
}

// UndefinedVariable reports a name missing from environment and stack.
type UndefinedVariable struct {
	Name symbol.Symbol
}

func (e *UndefinedVariable) Code() diag.Code { return diag.TCUndefinedVariable }
func (e *UndefinedVariable) Error() string {
	return fmt.Sprintf("Undefined variable `%s`.", e.Name.Declared())
}

// UndefinedType reports an unknown type constructor.
type UndefinedType struct {
	Name symbol.Symbol
}

func (e *UndefinedType) Code() diag.Code { return diag.TCUndefinedType }
func (e *UndefinedType) Error() string {
	return fmt.Sprintf("Type `%s` is not defined.", e.Name.Declared())
}

// UndefinedField reports a record access on a missing field.
type UndefinedField struct {
	Typ   types.Type
	Field symbol.Symbol
}

func (e *UndefinedField) Code() diag.Code { return diag.TCUndefinedField }
func (e *UndefinedField) Error() string {
	return fmt.Sprintf("Type `%s` does not have the field `%s`.", e.Typ, e.Field.Declared())
}

// UndefinedRecord reports that no known record has the given fields.
type UndefinedRecord struct {
	Fields []symbol.Symbol
}

func (e *UndefinedRecord) Code() diag.Code { return diag.TCUndefinedRecord }
func (e *UndefinedRecord) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Declared()
	}
	return fmt.Sprintf("No type found with the fields: %s.", strings.Join(names, ", "))
}

// NotAFunction reports a call whose head is not a function.
type NotAFunction struct {
	Typ types.Type
}

func (e *NotAFunction) Code() diag.Code { return diag.TCNotAFunction }
func (e *NotAFunction) Error() string {
	return fmt.Sprintf("`%s` is not a function.", e.Typ)
}

// PatternError reports a constructor pattern with the wrong arity.
type PatternError struct {
	Typ  types.Type
	Args int
}

func (e *PatternError) Code() diag.Code { return diag.TCPatternError }
func (e *PatternError) Error() string {
	return fmt.Sprintf("Type `%s` is not a type which can be destructured with %d arguments.", e.Typ, e.Args)
}

// DuplicateField reports a repeated field in a record literal or pattern.
type DuplicateField struct {
	Name symbol.Symbol
}

func (e *DuplicateField) Code() diag.Code { return diag.TCDuplicateField }
func (e *DuplicateField) Error() string {
	return fmt.Sprintf("The record has more than one field named `%s`.", e.Name.Declared())
}

// DuplicateTypeDefinition reports two types sharing a name in one scope.
type DuplicateTypeDefinition struct {
	Name symbol.Symbol
}

func (e *DuplicateTypeDefinition) Code() diag.Code { return diag.TCDuplicateTypeDefinition }
func (e *DuplicateTypeDefinition) Error() string {
	return fmt.Sprintf("Type `%s` is defined twice in the same binding group.", e.Name.Declared())
}

// InvalidProjection reports field access on a non-record type.
type InvalidProjection struct {
	Typ types.Type
}

func (e *InvalidProjection) Code() diag.Code { return diag.TCInvalidProjection }
func (e *InvalidProjection) Error() string {
	return fmt.Sprintf("The type `%s` is not a record which fields can be projected from.", e.Typ)
}

// EmptyCase reports a match with no alternatives.
type EmptyCase struct{}

func (e *EmptyCase) Code() diag.Code { return diag.TCEmptyCase }
func (e *EmptyCase) Error() string {
	return "A match expression must have at least one alternative."
}

// ErrorAst reports that the parser produced an error node.
type ErrorAst struct {
	Where string
}

func (e *ErrorAst) Code() diag.Code { return diag.TCErrorAst }
func (e *ErrorAst) Error() string {
	return fmt.Sprintf("The %s contained an error produced during parsing.", e.Where)
}

// KindError wraps a kind-check failure.
type KindError struct {
	Err error
}

func (e *KindError) Code() diag.Code { return diag.KNDMismatch }
func (e *KindError) Error() string   { return e.Err.Error() }
func (e *KindError) Unwrap() error   { return e.Err }

// RenameError reports that no overload candidate suits a use site.
type RenameError struct {
	Name       symbol.Symbol
	Typ        types.Type
	Candidates []types.Type
}

func (e *RenameError) Code() diag.Code { return diag.RESRename }
func (e *RenameError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Could not resolve the overloaded name `%s` at type `%s`.\nCandidates:\n", e.Name.Declared(), e.Typ)
	for _, c := range e.Candidates {
		fmt.Fprintf(&sb, "    %s\n", c)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Unification wraps the sub-errors produced while unifying two types.
type Unification struct {
	Expected types.Type
	Actual   types.Type
	Errors   []types.UnifyError
}

func (e *Unification) Code() diag.Code { return diag.TCUnification }
func (e *Unification) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Expected the following types to be equal\nExpected: %s\nFound: %s\n%d errors were found during unification:",
		e.Expected, e.Actual, len(e.Errors))
	for _, sub := range e.Errors {
		fmt.Fprintf(&sb, "\n%s", sub.Error())
	}
	return sb.String()
}
