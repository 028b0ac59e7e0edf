package types

import (
	"github.com/fennlang/fenn/internal/symbol"
)

// zipMatch matches two types whose heads are concrete (already walked
// through the substitution and not variables handled by the strategy). It
// recurses through m.match so the active strategy keeps control over
// variables and errors, and reconstructs the term when a subterm was
// replaced.
func (m *matcher) zipMatch(l, r Type) Type {
	// Holes stand for anything; signature normalization usually removes
	// them but partial signatures may leak through on error recovery.
	if _, ok := l.(*Hole); ok {
		return nil
	}
	if _, ok := r.(*Hole); ok {
		return nil
	}

	// A forall facing a monotype re-enters its scope; the cached
	// instantiation guarantees a forall skolemized earlier in this
	// inference meets the same skolems again.
	if lf, ok := l.(*Forall); ok {
		if _, rForall := r.(*Forall); !rForall {
			return m.match(SkolemizeForall(m.subs, lf), r)
		}
	}
	if rf, ok := r.(*Forall); ok {
		if _, lForall := l.(*Forall); !lForall {
			return m.match(l, SkolemizeForall(m.subs, rf))
		}
	}

	if li, ok := l.(*Ident); ok {
		if resolved := m.resolveIdent(li); resolved != nil {
			return m.match(resolved, r)
		}
		return nil
	}
	if ri, ok := r.(*Ident); ok {
		if resolved := m.resolveIdent(ri); resolved != nil {
			return m.match(l, resolved)
		}
		return nil
	}

	switch l := l.(type) {
	case *Skolem:
		if rs, ok := r.(*Skolem); ok && l.ID == rs.ID {
			return nil
		}
		return m.strat.mismatch(m, l, r)

	case *Generic:
		if rg, ok := r.(*Generic); ok && l.Name == rg.Name {
			return nil
		}
		return m.strat.mismatch(m, l, r)

	case *Opaque:
		if _, ok := r.(*Opaque); ok {
			return nil
		}
		return m.strat.mismatch(m, l, r)

	case *Con:
		if rc, ok := r.(*Con); ok {
			if l.Name == rc.Name {
				return nil
			}
			return m.strat.mismatch(m, l, r)
		}
		return m.expandOrMismatch(l, r)

	case *Forall:
		rf, ok := r.(*Forall)
		if !ok || len(l.Params) != len(rf.Params) {
			return m.strat.mismatch(m, l, r)
		}
		// Both sides enter the same fresh skolems so their bodies line up.
		ml := make(map[symbol.Symbol]Type, len(l.Params))
		mr := make(map[symbol.Symbol]Type, len(rf.Params))
		for i, p := range l.Params {
			sk := m.subs.NewSkolem(p.Name, p.Kind)
			ml[p.Name] = sk
			mr[rf.Params[i].Name] = sk
		}
		m.match(ReplaceGenerics(l.Body, ml), ReplaceGenerics(rf.Body, mr))
		return nil

	case *App:
		if ra, ok := r.(*App); ok {
			return m.matchApp(l, ra)
		}
		return m.expandOrMismatch(l, r)

	case *Record:
		if rr, ok := r.(*Record); ok {
			row := m.rowMatch(l.Row, rr.Row)
			if row == nil {
				return nil
			}
			return &Record{Row: row}
		}
		return m.expandOrMismatch(l, r)

	case *Variant:
		if rv, ok := r.(*Variant); ok {
			row := m.rowMatch(l.Row, rv.Row)
			if row == nil {
				return nil
			}
			return &Variant{Row: row}
		}
		return m.expandOrMismatch(l, r)

	case *ExtendRow:
		switch r.(type) {
		case *ExtendRow, *EmptyRow:
			return m.rowMatch(l, r)
		}
		return m.strat.mismatch(m, l, r)

	case *EmptyRow:
		switch r.(type) {
		case *EmptyRow:
			return nil
		case *ExtendRow:
			return m.rowMatch(l, r)
		}
		return m.strat.mismatch(m, l, r)

	case *Alias:
		return m.matchAlias(l, r)

	default:
		return m.expandOrMismatch(l, r)
	}
}

func (m *matcher) resolveIdent(id *Ident) Type {
	if m.env == nil {
		return nil
	}
	ref := m.env.FindTypeInfo(id.Name)
	if ref == nil {
		m.strat.reportError(&UndefinedTypeError{Name: id.Name})
		return nil
	}
	return &Alias{Ref: ref}
}

// matchApp unifies two applications. Unequal argument counts are
// left-aligned by packing the longer side's extra prefix into a nested App.
func (m *matcher) matchApp(l, r *App) Type {
	switch {
	case len(l.Args) > len(r.Args):
		extra := len(l.Args) - len(r.Args)
		packed := &App{
			Head: &App{Head: l.Head, Args: l.Args[:extra]},
			Args: l.Args[extra:],
		}
		return m.matchApp(packed, r)
	case len(l.Args) < len(r.Args):
		extra := len(r.Args) - len(l.Args)
		packed := &App{
			Head: &App{Head: r.Head, Args: r.Args[:extra]},
			Args: r.Args[extra:],
		}
		return m.matchApp(l, packed)
	}

	// Aliased heads unify by identity first; a name mismatch falls back to
	// expanding one side rather than failing, preserving alias names in
	// the common case.
	if lAlias, lok := l.Head.(*Alias); lok {
		if rAlias, rok := r.Head.(*Alias); rok && lAlias.Ref != rAlias.Ref {
			return m.expandOrMismatch(l, r)
		}
	}

	head := m.match(l.Head, r.Head)
	changed := head != nil
	args := make([]Type, len(l.Args))
	for i := range l.Args {
		args[i] = m.match(l.Args[i], r.Args[i])
		if args[i] != nil {
			changed = true
		} else {
			args[i] = l.Args[i]
		}
	}
	if !changed {
		return nil
	}
	if head == nil {
		head = l.Head
	}
	return &App{Head: head, Args: args}
}

// matchAlias unifies an alias with another type: identical aliases unify
// their argument lists, anything else falls back to expansion.
func (m *matcher) matchAlias(l *Alias, r Type) Type {
	if ra, ok := r.(*Alias); ok {
		if l.Ref == ra.Ref || (l.Ref.Name == ra.Ref.Name && l.Ref.Arity() == ra.Ref.Arity()) {
			return nil
		}
	}
	return m.expandOrMismatch(l, r)
}

// expandOrMismatch tries to expand an alias on either side and retry,
// preferring the side with more applied arguments. When neither side
// expands the strategy decides what a mismatch means.
func (m *matcher) expandOrMismatch(l, r Type) Type {
	if m.aliasDepth >= maxAliasExpansions {
		m.strat.reportError(&SelfRecursiveError{Typ: l})
		return nil
	}

	first, second := l, r
	if len(UnappliedArgs(r)) > len(UnappliedArgs(l)) {
		first, second = r, l
	}
	for _, side := range []Type{first, second} {
		if m.env == nil {
			break
		}
		expanded, err := RemoveAlias(m.env, side)
		if err != nil {
			m.strat.reportError(&UndefinedTypeError{Name: err.(*UndefinedTypeError).Name})
			return nil
		}
		if expanded == nil {
			continue
		}
		m.aliasDepth++
		var result Type
		if side == l {
			result = m.match(expanded, r)
		} else {
			result = m.match(l, expanded)
		}
		m.aliasDepth--
		return result
	}
	return m.strat.mismatch(m, l, r)
}

// flattenRealRow flattens a row spine, walking each rest through the
// substitution so fields hidden behind unified row variables surface.
func (m *matcher) flattenRealRow(row Type) (assoc []AssocType, fields []Field, rest Type) {
	rest = m.subs.Real(row)
	for {
		ext, ok := rest.(*ExtendRow)
		if !ok {
			return assoc, fields, rest
		}
		assoc = append(assoc, ext.Types...)
		fields = append(fields, ext.Fields...)
		rest = m.subs.Real(ext.Rest)
	}
}

// rowMatch unifies two rows up to field permutation. Fields common to both
// sides unify pointwise; fields on a single side flow into the other
// side's rest, which must be open to receive them. When both rests are
// open row variables a fresh residual row variable joins them.
func (m *matcher) rowMatch(lrow, rrow Type) Type {
	assocL, fieldsL, restL := m.flattenRealRow(lrow)
	assocR, fieldsR, restR := m.flattenRealRow(rrow)

	byNameR := make(map[symbol.Symbol]int, len(fieldsR))
	for i, f := range fieldsR {
		byNameR[f.Name] = i
	}

	var common []Field
	var onlyL []Field
	seenR := make(map[symbol.Symbol]bool, len(fieldsR))
	changed := false
	for _, f := range fieldsL {
		idx, shared := byNameR[f.Name]
		if !shared {
			onlyL = append(onlyL, f)
			continue
		}
		seenR[f.Name] = true
		replaced := m.match(f.Typ, fieldsR[idx].Typ)
		if replaced != nil {
			changed = true
			common = append(common, Field{Name: f.Name, Typ: replaced})
		} else {
			common = append(common, f)
		}
	}
	var onlyR []Field
	for _, f := range fieldsR {
		if !seenR[f.Name] {
			onlyR = append(onlyR, f)
		}
	}

	// Associated types match by name alone.
	assocNamesR := make(map[symbol.Symbol]bool, len(assocR))
	for _, at := range assocR {
		assocNamesR[at.Name] = true
	}
	var onlyAssocL, commonAssoc []AssocType
	for _, at := range assocL {
		if assocNamesR[at.Name] {
			commonAssoc = append(commonAssoc, at)
		} else {
			onlyAssocL = append(onlyAssocL, at)
		}
	}
	assocNamesL := make(map[symbol.Symbol]bool, len(assocL))
	for _, at := range assocL {
		assocNamesL[at.Name] = true
	}
	var onlyAssocR []AssocType
	for _, at := range assocR {
		if !assocNamesL[at.Name] {
			onlyAssocR = append(onlyAssocR, at)
		}
	}

	rest := m.joinRests(lrow, rrow, restL, restR, onlyAssocL, onlyL, onlyAssocR, onlyR)

	if !changed && len(onlyL) == 0 && len(onlyR) == 0 && len(onlyAssocL) == 0 && len(onlyAssocR) == 0 {
		return nil
	}
	fields := make([]Field, 0, len(common)+len(onlyL)+len(onlyR))
	fields = append(fields, common...)
	fields = append(fields, onlyL...)
	fields = append(fields, onlyR...)
	assoc := make([]AssocType, 0, len(commonAssoc)+len(onlyAssocL)+len(onlyAssocR))
	assoc = append(assoc, commonAssoc...)
	assoc = append(assoc, onlyAssocL...)
	assoc = append(assoc, onlyAssocR...)
	if len(fields) == 0 && len(assoc) == 0 {
		return rest
	}
	return &ExtendRow{Types: assoc, Fields: fields, Rest: rest}
}

// joinRests wires the one-sided fields into the opposite rests and returns
// the residual rest of the combined row.
func (m *matcher) joinRests(lrow, rrow, restL, restR Type, onlyAssocL []AssocType, onlyL []Field, onlyAssocR []AssocType, onlyR []Field) Type {
	_, lClosed := restL.(*EmptyRow)
	_, rClosed := restR.(*EmptyRow)

	// A closed row cannot absorb the other side's extra fields.
	if rClosed && len(onlyL)+len(onlyAssocL) > 0 && !m.strat.allowExtraLeft() {
		m.strat.reportError(&MissingFieldsError{Typ: rrow, Fields: fieldNames(onlyAssocL, onlyL)})
	}
	if lClosed && len(onlyR)+len(onlyAssocR) > 0 {
		m.strat.reportError(&MissingFieldsError{Typ: lrow, Fields: fieldNames(onlyAssocR, onlyR)})
	}

	switch {
	case lClosed && rClosed:
		return m.cache.EmptyRow()

	case rClosed:
		m.bindRest(restL, onlyAssocR, onlyR, m.cache.EmptyRow())
		return m.cache.EmptyRow()

	case lClosed:
		m.bindRest(restR, onlyAssocL, onlyL, m.cache.EmptyRow())
		return m.cache.EmptyRow()

	default:
		lv, lIsVar := restL.(*Var)
		rv, rIsVar := restR.(*Var)
		if lIsVar && rIsVar && lv.ID == rv.ID {
			if len(onlyL)+len(onlyR)+len(onlyAssocL)+len(onlyAssocR) > 0 {
				m.strat.reportError(&TypeMismatch{Left: lrow, Right: rrow})
			}
			return restL
		}
		if !lIsVar || !rIsVar {
			// Rigid rests (skolems or generics) only match themselves.
			if Equal(restL, restR) && len(onlyL)+len(onlyR)+len(onlyAssocL)+len(onlyAssocR) == 0 {
				return restL
			}
			m.strat.reportError(&TypeMismatch{Left: lrow, Right: rrow})
			return restL
		}
		rho := m.subs.NewVar(m.subs.VarID(), m.cache.Kinds.Row)
		m.bindRest(restL, onlyAssocR, onlyR, rho)
		m.bindRest(restR, onlyAssocL, onlyL, rho)
		return rho
	}
}

// bindRest unifies an open rest with the fields flowing into it.
func (m *matcher) bindRest(rest Type, assoc []AssocType, fields []Field, tail Type) {
	var target Type = tail
	if len(fields) > 0 || len(assoc) > 0 {
		target = &ExtendRow{Types: assoc, Fields: fields, Rest: tail}
	}
	rv, ok := rest.(*Var)
	if !ok {
		if !Equal(rest, target) {
			m.strat.reportError(&TypeMismatch{Left: rest, Right: target})
		}
		return
	}
	if _, err := m.subs.Union(rv, target); err != nil {
		m.strat.reportError(&SubstitutionError{Err: err})
	}
}

func fieldNames(assoc []AssocType, fields []Field) []symbol.Symbol {
	names := make([]symbol.Symbol, 0, len(assoc)+len(fields))
	for _, at := range assoc {
		names = append(names, at.Name)
	}
	for _, f := range fields {
		names = append(names, f.Name)
	}
	return names
}
