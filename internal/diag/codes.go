// Package diag provides the stable diagnostic codes emitted by the
// typechecker and a color-aware printer for rendering them. Codes follow a
// consistent taxonomy so tooling can match on them without parsing
// messages.
package diag

// Code identifies one diagnostic condition.
type Code string

const (
	// ============================================================
	// Typechecker errors (TC###)
	// ============================================================

	// TCUndefinedVariable: a name was not found in the environment or any
	// enclosing scope.
	TCUndefinedVariable Code = "TC001"

	// TCUndefinedType: an unknown type constructor was referenced.
	TCUndefinedType Code = "TC002"

	// TCUndefinedField: a record lacks the accessed field.
	TCUndefinedField Code = "TC003"

	// TCUndefinedRecord: no known record alias matches a field list.
	TCUndefinedRecord Code = "TC004"

	// TCNotAFunction: a non-function was applied to arguments.
	TCNotAFunction Code = "TC005"

	// TCPatternError: a constructor pattern has the wrong arity.
	TCPatternError Code = "TC006"

	// TCDuplicateField: a record literal or pattern repeats a field.
	TCDuplicateField Code = "TC007"

	// TCDuplicateTypeDefinition: two types share a name in one scope.
	TCDuplicateTypeDefinition Code = "TC008"

	// TCInvalidProjection: a field was projected from a non-record.
	TCInvalidProjection Code = "TC009"

	// TCEmptyCase: a match expression has no alternatives.
	TCEmptyCase Code = "TC010"

	// TCErrorAst: the parser handed the typechecker an error node.
	TCErrorAst Code = "TC011"

	// TCUnification: two types could not be unified; carries sub-errors.
	TCUnification Code = "TC012"

	// ============================================================
	// Kind errors (KND###)
	// ============================================================

	// KNDMismatch: a kind-level unification failed.
	KNDMismatch Code = "KND001"

	// ============================================================
	// Resolution errors (RES###)
	// ============================================================

	// RESRename: no overload candidate suits a use site.
	RESRename Code = "RES001"
)
