package check

import (
	"fmt"

	"github.com/fennlang/fenn/internal/types"
)

// generalizeType closes over every unification variable created at or
// after level, turning each into a generic bound by a fresh forall. The
// input is fully substituted first, so the result is independent of the
// Subs.
func (tc *Typecheck) generalizeType(level uint32, typ types.Type) types.Type {
	if typ == nil {
		return nil
	}
	typ = tc.subs.SetType(typ)

	// Names already taken by generics in the type (nested foralls, alias
	// parameters) must not be reused for the fresh parameters.
	used := make(map[string]bool)
	types.Walk(typ, func(t types.Type) {
		if g, ok := t.(*types.Generic); ok {
			used[g.Name.Declared()] = true
		}
	})

	var params []*types.Generic
	replaced := make(map[uint32]*types.Generic)
	counter := 0
	result := types.WalkMove(typ, func(t types.Type) types.Type {
		v, ok := t.(*types.Var)
		if !ok {
			return nil
		}
		if tc.subs.Level(v.ID) < level {
			return nil
		}
		root := tc.subs.RootID(v.ID)
		if g, done := replaced[root]; done {
			return g
		}
		kind := v.Kind
		if kind == nil {
			kind = tc.cache.Kinds.Typ
		}
		g := &types.Generic{
			Name: tc.interner.Fresh(nextVarName(used, &counter)),
			Kind: kind,
		}
		replaced[root] = g
		params = append(params, g)
		return g
	})

	if len(params) == 0 {
		return result
	}
	if f, ok := result.(*types.Forall); ok {
		merged := make([]*types.Generic, 0, len(params)+len(f.Params))
		merged = append(merged, params...)
		merged = append(merged, f.Params...)
		return &types.Forall{Params: merged, Body: f.Body}
	}
	return &types.Forall{Params: params, Body: result}
}

// nextVarName picks the first unused name in a, b, ..., z, a1, b1, ...
func nextVarName(used map[string]bool, counter *int) string {
	for {
		i := *counter
		*counter++
		var name string
		if i < 26 {
			name = string(rune('a' + i))
		} else {
			name = fmt.Sprintf("%c%d", rune('a'+i%26), i/26)
		}
		if !used[name] {
			used[name] = true
			return name
		}
	}
}

// generalizeTypeErrors re-substitutes and generalizes every type embedded
// in the collected errors so diagnostics read `a -> a` rather than
// `$3 -> $3`.
func (tc *Typecheck) generalizeTypeErrors() {
	for _, spanned := range tc.errors {
		switch err := spanned.Err.(type) {
		case *UndefinedField:
			err.Typ = tc.generalizeType(0, err.Typ)
		case *NotAFunction:
			err.Typ = tc.generalizeType(0, err.Typ)
		case *PatternError:
			err.Typ = tc.generalizeType(0, err.Typ)
		case *InvalidProjection:
			err.Typ = tc.generalizeType(0, err.Typ)
		case *RenameError:
			err.Typ = tc.generalizeType(0, err.Typ)
		case *Unification:
			err.Expected = tc.generalizeType(0, err.Expected)
			err.Actual = tc.generalizeType(0, err.Actual)
			for i, sub := range err.Errors {
				err.Errors[i] = tc.generalizeUnifyError(sub)
			}
		}
	}
}

func (tc *Typecheck) generalizeUnifyError(err types.UnifyError) types.UnifyError {
	switch err := err.(type) {
	case *types.TypeMismatch:
		return &types.TypeMismatch{
			Left:  tc.generalizeType(0, err.Left),
			Right: tc.generalizeType(0, err.Right),
		}
	case *types.MissingFieldsError:
		return &types.MissingFieldsError{
			Typ:    tc.generalizeType(0, err.Typ),
			Fields: err.Fields,
		}
	case *types.SubstitutionError:
		switch sub := err.Err.(type) {
		case *types.OccursError:
			return &types.SubstitutionError{Err: &types.OccursError{
				Var: sub.Var,
				Typ: tc.generalizeType(0, sub.Typ),
			}}
		case *types.ConstraintError:
			generalized := make([]types.Type, len(sub.Candidates))
			for i, c := range sub.Candidates {
				generalized[i] = tc.generalizeType(0, c)
			}
			return &types.SubstitutionError{Err: &types.ConstraintError{
				Typ:        tc.generalizeType(0, sub.Typ),
				Candidates: generalized,
			}}
		}
	}
	return err
}
