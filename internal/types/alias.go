package types

// UnappliedArgs returns the type arguments applied to the alias at the head
// of typ.
func UnappliedArgs(typ Type) []Type {
	if app, ok := typ.(*App); ok {
		return app.Args
	}
	return nil
}

func aliasIdent(typ Type) (ref *AliasRef, ident Type) {
	head := typ
	if app, ok := typ.(*App); ok {
		head = app.Head
	}
	switch head := head.(type) {
	case *Alias:
		return head.Ref, nil
	case *Ident:
		return nil, head
	default:
		return nil, nil
	}
}

// PeekAlias returns the alias at the head of typ without expanding it. The
// head may be Alias, App(Alias, args) with matching arity, or an Ident
// resolved through the environment. Unknown idents report UndefinedType.
func PeekAlias(env TypeEnv, typ Type) (*AliasRef, error) {
	ref, ident := aliasIdent(typ)
	if ref != nil {
		if ref.Arity() != len(UnappliedArgs(typ)) {
			return nil, nil
		}
		return ref, nil
	}
	if id, ok := ident.(*Ident); ok {
		found := env.FindTypeInfo(id.Name)
		if found == nil {
			return nil, &UndefinedTypeError{Name: id.Name}
		}
		return found, nil
	}
	return nil, nil
}

// RemoveAlias expands typ one level by applying the alias body to the type
// arguments. Returns nil when typ is not an expandable alias (including
// opaque bodies).
func RemoveAlias(env TypeEnv, typ Type) (Type, error) {
	ref, err := PeekAlias(env, typ)
	if err != nil || ref == nil {
		return nil, err
	}
	return ref.ApplyArgs(UnappliedArgs(typ)), nil
}

// RemoveAliases expands typ until it is no longer an alias. Recursive
// aliases are detected by tracking the refs already expanded; on a cycle
// the last expansion is returned rather than looping.
func RemoveAliases(env TypeEnv, typ Type) Type {
	seen := make(map[*AliasRef]bool)
	for {
		ref, err := PeekAlias(env, typ)
		if err != nil || ref == nil || seen[ref] {
			return typ
		}
		seen[ref] = true
		next := ref.ApplyArgs(UnappliedArgs(typ))
		if next == nil {
			return typ
		}
		typ = next
	}
}

// CanonicalAlias expands typ until pred holds for the alias at its head.
// Types whose head satisfies pred (or is no alias at all) are returned
// unchanged.
func CanonicalAlias(env TypeEnv, typ Type, pred func(*AliasRef) bool) Type {
	seen := make(map[*AliasRef]bool)
	for {
		ref, err := PeekAlias(env, typ)
		if err != nil || ref == nil || pred(ref) || seen[ref] {
			return typ
		}
		seen[ref] = true
		next := ref.ApplyArgs(UnappliedArgs(typ))
		if next == nil {
			return typ
		}
		typ = next
	}
}
