package check

import (
	"github.com/fennlang/fenn/internal/ast"
	"github.com/fennlang/fenn/internal/symbol"
	"github.com/fennlang/fenn/internal/types"
)

// typecheckPattern matches a pattern against the type being destructured,
// binding the names it introduces in the current scope.
func (tc *Typecheck) typecheckPattern(pat ast.Pattern, expected types.Type) {
	switch p := pat.(type) {
	case *ast.PatIdent:
		p.Typ = expected
		tc.stackVar(p.Name, expected)

	case *ast.PatConstructor:
		tc.typecheckConstructorPattern(p, expected)

	case *ast.PatRecord:
		tc.typecheckRecordPattern(p, expected)

	case *ast.PatTuple:
		fields := make([]types.Field, len(p.Elems))
		elemTypes := make([]types.Type, len(p.Elems))
		for i := range p.Elems {
			elemTypes[i] = tc.newVar()
			fields[i] = types.Field{Name: tc.tupleField(i), Typ: elemTypes[i]}
		}
		record := &types.Record{Row: &types.ExtendRow{Fields: fields, Rest: tc.cache.EmptyRow()}}
		p.Typ = record
		tc.unifySpan(p.Sp, record, expected)
		for i, elem := range p.Elems {
			tc.typecheckPattern(elem, elemTypes[i])
		}

	case *ast.PatError:
		tc.error(p.Sp, &ErrorAst{Where: "pattern"})
	}
}

// typecheckConstructorPattern destructures a variant constructor: the
// constructor's function type supplies the argument types and its result
// unifies with the scrutinee.
func (tc *Typecheck) typecheckConstructorPattern(p *ast.PatConstructor, expected types.Type) {
	ctorTyp := tc.find(p.Name.Sp, p.Name.Name)
	p.Name.Typ = ctorTyp
	if renamed, ok := tc.originalSymbols.get(p.Name.Name); ok {
		p.Name.Name = renamed
	}

	instantiated := tc.instantiate(tc.subs.Real(ctorTyp))
	args, ret, _ := types.FlattenFunction(types.RemoveAliases(tc.env, instantiated))
	if len(args) != len(p.Args) {
		tc.error(p.Sp, &PatternError{Typ: tc.subs.SetType(ctorTyp), Args: len(p.Args)})
		for _, sub := range p.Args {
			tc.typecheckPattern(sub, tc.newVar())
		}
		return
	}
	tc.unifySpan(p.Sp, ret, expected)
	for i, sub := range p.Args {
		tc.typecheckPattern(sub, args[i])
	}
}

// typecheckRecordPattern unifies the scrutinee with an open record built
// from the pattern's fields, then binds each field. Associated types named
// in the pattern are brought into the type scope.
func (tc *Typecheck) typecheckRecordPattern(p *ast.PatRecord, expected types.Type) {
	seen := make(map[symbol.Symbol]bool, len(p.Fields))
	fields := make([]types.Field, 0, len(p.Fields))
	fieldTypes := make([]types.Type, len(p.Fields))
	for i, f := range p.Fields {
		if seen[f.Name] {
			tc.error(p.Sp, &DuplicateField{Name: f.Name})
			continue
		}
		seen[f.Name] = true
		fieldTypes[i] = tc.newVar()
		fields = append(fields, types.Field{Name: f.Name, Typ: fieldTypes[i]})
	}

	// An unknown scrutinee is guessed against the known record aliases so
	// the pattern can bring a named record (and its associated types) into
	// scope.
	if _, isVar := tc.subs.Real(expected).(*types.Var); isVar && len(fields) > 0 {
		names := make([]symbol.Symbol, len(fields))
		for i, f := range fields {
			names[i] = f.Name
		}
		if nameTyp, _, ok := tc.env.FindRecord(names, types.SelectSubset); ok {
			guess := tc.instantiateAliasType(nameTyp)
			tc.unifySpan(p.Sp, guess, expected)
		} else if len(p.Types) > 0 {
			tc.error(p.Sp, &UndefinedRecord{Fields: names})
		}
	}

	rho := tc.subs.NewVar(tc.subs.VarID(), tc.cache.Kinds.Row)
	record := &types.Record{Row: &types.ExtendRow{Fields: fields, Rest: rho}}
	p.Typ = record
	tc.unifySpan(p.Sp, record, expected)

	for i, f := range p.Fields {
		if fieldTypes[i] == nil {
			continue
		}
		if f.Value == nil {
			tc.stackVar(f.Name, fieldTypes[i])
		} else {
			tc.typecheckPattern(f.Value, fieldTypes[i])
		}
	}

	if len(p.Types) > 0 {
		assoc, _, _ := tc.flattenRealRow(rowOf(tc.subs.Real(types.RemoveAliases(tc.env, tc.subs.Real(expected)))))
		for _, ft := range p.Types {
			found := false
			for _, at := range assoc {
				if at.Name == ft.Name && at.Alias != nil {
					tc.stackType(ft.Name, at.Alias)
					found = true
					break
				}
			}
			if !found {
				tc.error(p.Sp, &UndefinedField{Typ: tc.subs.SetType(expected), Field: ft.Name})
			}
		}
	}
}

func rowOf(typ types.Type) types.Type {
	switch typ := typ.(type) {
	case *types.Record:
		return typ.Row
	case *types.Variant:
		return typ.Row
	default:
		return &types.EmptyRow{}
	}
}

// finishPattern rewrites the types a pattern bound once the binding group
// has been generalized, and runs overload intersection for names that
// shadow an existing binding with a concrete type.
func (tc *Typecheck) finishPattern(level uint32, pat ast.Pattern, typ types.Type) {
	switch p := pat.(type) {
	case *ast.PatIdent:
		p.Typ = typ
		tc.env.stack.update(p.Name, stackBinding{typ: typ})
		tc.intersectType(level, p, typ)

	case *ast.PatConstructor:
		for _, sub := range p.Args {
			tc.finishPatternStored(level, sub)
		}

	case *ast.PatRecord:
		p.Typ = tc.subs.SetType(p.Typ)
		for _, f := range p.Fields {
			if f.Value != nil {
				tc.finishPatternStored(level, f.Value)
				continue
			}
			if binding, ok := tc.env.stack.get(f.Name); ok {
				gen := tc.generalizeType(level, binding.typ)
				tc.env.stack.update(f.Name, stackBinding{typ: gen})
			}
		}

	case *ast.PatTuple:
		p.Typ = tc.subs.SetType(p.Typ)
		for _, sub := range p.Elems {
			tc.finishPatternStored(level, sub)
		}
	}
}

// finishPatternStored finishes a subpattern using the type recorded on it
// during checking.
func (tc *Typecheck) finishPatternStored(level uint32, pat ast.Pattern) {
	switch p := pat.(type) {
	case *ast.PatIdent:
		tc.finishPattern(level, p, tc.generalizeType(level, p.Typ))
	default:
		tc.finishPattern(level, pat, nil)
	}
}
