package check

import (
	"github.com/fennlang/fenn/internal/ast"
	"github.com/fennlang/fenn/internal/symbol"
	"github.com/fennlang/fenn/internal/types"
)

// typecheckRecord types a record literal: declared associated types are
// elaborated, field values inferred (or looked up when punned), a base
// record contributes the fields not explicitly overridden, and the result
// is matched against known record aliases so it can be named.
func (tc *Typecheck) typecheckRecord(e *ast.Record) types.Type {
	seen := make(map[symbol.Symbol]bool, len(e.Fields))
	for _, f := range e.Fields {
		if seen[f.Name] {
			tc.error(e.Sp, &DuplicateField{Name: f.Name})
		}
		seen[f.Name] = true
	}

	var assoc []types.AssocType
	assocSeen := make(map[symbol.Symbol]bool, len(e.Types))
	for _, t := range e.Types {
		if assocSeen[t.Name] {
			tc.error(e.Sp, &DuplicateField{Name: t.Name})
			continue
		}
		assocSeen[t.Name] = true
		ref := tc.env.FindTypeInfo(t.Name)
		if ref == nil {
			tc.error(e.Sp, &UndefinedType{Name: t.Name})
			continue
		}
		assoc = append(assoc, types.AssocType{Name: t.Name, Alias: ref})
	}

	fields := make([]types.Field, 0, len(e.Fields))
	for _, f := range e.Fields {
		var fieldTyp types.Type
		if f.Value != nil {
			fieldTyp = tc.typecheck(f.Value, nil)
		} else {
			// Field puning: { x } is { x = x }.
			fieldTyp = tc.find(e.Sp, f.Name)
		}
		fields = append(fields, types.Field{Name: f.Name, Typ: fieldTyp})
	}

	rest := tc.cache.EmptyRow()
	if e.Base != nil {
		rest = tc.inheritBase(e, seen, assocSeen, &assoc, &fields)
	}

	names := make([]symbol.Symbol, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	anon := &types.Record{Row: &types.ExtendRow{Types: assoc, Fields: fields, Rest: rest}}

	if len(fields) > 0 {
		if nameTyp, _, ok := tc.env.FindRecord(names, types.SelectExact); ok {
			aliasTyp := tc.instantiateAliasType(nameTyp)
			expanded := types.RemoveAliases(tc.env, aliasTyp)
			if _, errs := types.Unify(tc.subs, tc.env, expanded, anon); len(errs) == 0 {
				e.Typ = aliasTyp
				return aliasTyp
			}
		}
	}

	e.Typ = anon
	return anon
}

// inheritBase types the base expression of { ... | base } and folds its
// fields into the literal, skipping names the literal overrides. The
// returned rest keeps the base's row tail so openness is preserved.
func (tc *Typecheck) inheritBase(e *ast.Record, seen map[symbol.Symbol]bool, assocSeen map[symbol.Symbol]bool, assoc *[]types.AssocType, fields *[]types.Field) types.Type {
	baseTyp := tc.typecheck(e.Base, nil)

	resolved := types.RemoveAliases(tc.env, tc.subs.Real(baseTyp))
	resolved = tc.subs.Real(resolved)
	record, ok := resolved.(*types.Record)
	if !ok {
		// An unknown base is constrained to some record.
		rho := tc.subs.NewVar(tc.subs.VarID(), tc.cache.Kinds.Row)
		tc.unifySpan(e.Base.Span(), &types.Record{Row: rho}, baseTyp)
		return rho
	}

	baseAssoc, baseFields, baseRest := tc.flattenRealRow(record.Row)
	for _, at := range baseAssoc {
		if !assocSeen[at.Name] {
			assocSeen[at.Name] = true
			*assoc = append(*assoc, at)
		}
	}
	for _, f := range baseFields {
		if !seen[f.Name] {
			seen[f.Name] = true
			*fields = append(*fields, f)
		}
	}
	return baseRest
}
