package types

import (
	"fmt"
	"strings"

	"github.com/fennlang/fenn/internal/symbol"
)

// UnifyError is an error produced while unifying two types.
type UnifyError interface {
	error
	unifyError()
}

// TypeMismatch reports that two type heads could not be matched.
type TypeMismatch struct {
	Left  Type
	Right Type
}

func (*TypeMismatch) unifyError() {}
func (e *TypeMismatch) Error() string {
	return fmt.Sprintf("Types do not match:\n    Expected: %s\n    Found: %s", e.Left, e.Right)
}

// SubstitutionError wraps an error from the substitution (occurs check or
// constraint resolution failure).
type SubstitutionError struct {
	Err error
}

func (*SubstitutionError) unifyError() {}
func (e *SubstitutionError) Error() string { return e.Err.Error() }
func (e *SubstitutionError) Unwrap() error { return e.Err }

// OccursError reports a variable occurring in the type it is unified with.
type OccursError struct {
	Var Type
	Typ Type
}

func (e *OccursError) Error() string {
	return fmt.Sprintf("Variable `%s` occurs in `%s`.", e.Var, e.Typ)
}

// ConstraintError reports that a constrained variable was unified with a
// type matching none of its candidates.
type ConstraintError struct {
	Typ        Type
	Candidates []Type
}

func (e *ConstraintError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Type `%s` could not fulfill a constraint.\nPossible resolves:\n", e.Typ)
	for _, c := range e.Candidates {
		fmt.Fprintf(&sb, "%s\n", c)
	}
	return sb.String()
}

// MissingFieldsError reports row fields that a closed row cannot absorb.
type MissingFieldsError struct {
	Typ    Type
	Fields []symbol.Symbol
}

func (*MissingFieldsError) unifyError() {}
func (e *MissingFieldsError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Declared()
	}
	return fmt.Sprintf("The type `%s` lacks the following fields: %s", e.Typ, strings.Join(names, ", "))
}

// SelfRecursiveError reports an alias that expanded back into itself.
type SelfRecursiveError struct {
	Typ Type
}

func (*SelfRecursiveError) unifyError() {}
func (e *SelfRecursiveError) Error() string {
	return fmt.Sprintf("The type `%s` cannot be expanded without self-recursion.", e.Typ)
}

// UndefinedTypeError reports a type identifier with no alias in scope.
type UndefinedTypeError struct {
	Name symbol.Symbol
}

func (*UndefinedTypeError) unifyError() {}
func (e *UndefinedTypeError) Error() string {
	return fmt.Sprintf("Type `%s` does not exist.", e.Name.Declared())
}

// KindMismatch reports that two kinds could not be unified.
type KindMismatch struct {
	Left  Kind
	Right Kind
}

func (e *KindMismatch) Error() string {
	return fmt.Sprintf("Kind mismatch\nExpected: %s\nFound: %s", e.Left, e.Right)
}

// KindOccurs reports a kind variable occurring in the kind it is unified
// with.
type KindOccurs struct {
	Var  Kind
	Kind Kind
}

func (e *KindOccurs) Error() string {
	return fmt.Sprintf("Kind variable `%s` occurs in `%s`.", e.Var, e.Kind)
}
