package types

import (
	"github.com/fennlang/fenn/internal/symbol"
)

// KindCheck infers and checks the kinds of types appearing in signatures
// and type binding groups. Each check shares one KindSubs so kinds unify
// across the whole group; unresolved kind variables default to Type when
// the group is finished.
type KindCheck struct {
	subs   *KindSubs
	env    TypeEnv
	cache  *KindCache
	locals []kindLocal
	// generics maps every generic seen to the kind variable assigned to
	// it, so all occurrences of a signature variable share one kind.
	generics map[symbol.Symbol]Kind
}

type kindLocal struct {
	name symbol.Symbol
	kind Kind
}

// NewKindCheck creates a kind checker over the environment.
func NewKindCheck(env TypeEnv, cache *KindCache) *KindCheck {
	return &KindCheck{
		subs:     NewKindSubs(cache),
		env:      env,
		cache:    cache,
		generics: make(map[symbol.Symbol]Kind),
	}
}

// AddLocal introduces a type name with a known kind for the duration of a
// binding group (the aliases of the group itself).
func (kc *KindCheck) AddLocal(name symbol.Symbol, kind Kind) {
	kc.locals = append(kc.locals, kindLocal{name: name, kind: kind})
}

// Fresh allocates a fresh kind variable.
func (kc *KindCheck) Fresh() Kind { return kc.subs.NewKindVar() }

func (kc *KindCheck) findLocal(name symbol.Symbol) (Kind, bool) {
	for i := len(kc.locals) - 1; i >= 0; i-- {
		if kc.locals[i].name == name {
			return kc.locals[i].kind, true
		}
	}
	return nil, false
}

// genericKind returns the shared kind for a signature variable, creating a
// fresh kind variable on first sight when its declared kind is a hole.
func (kc *KindCheck) genericKind(name symbol.Symbol, declared Kind) Kind {
	if k, ok := kc.generics[name]; ok {
		return k
	}
	k := declared
	if k == nil {
		k = kc.Fresh()
	} else if _, hole := k.(*KindHole); hole {
		k = kc.Fresh()
	}
	kc.generics[name] = k
	return k
}

// KindOf infers the kind of typ, unifying kinds along applications.
func (kc *KindCheck) KindOf(typ Type) (Kind, error) {
	switch typ := typ.(type) {
	case *Hole:
		return kc.Fresh(), nil
	case *Opaque:
		return kc.cache.Typ, nil
	case *Var:
		if typ.Kind == nil {
			return kc.Fresh(), nil
		}
		if _, hole := typ.Kind.(*KindHole); hole {
			return kc.Fresh(), nil
		}
		return typ.Kind, nil
	case *Skolem:
		return kc.genericKind(typ.Name, typ.Kind), nil
	case *Generic:
		if k, ok := kc.findLocal(typ.Name); ok {
			return k, nil
		}
		return kc.genericKind(typ.Name, typ.Kind), nil
	case *Con:
		return typ.Kind, nil
	case *Ident:
		if k, ok := kc.findLocal(typ.Name); ok {
			return k, nil
		}
		if k := kc.env.FindKind(typ.Name); k != nil {
			return k, nil
		}
		return nil, &UndefinedTypeError{Name: typ.Name}
	case *Alias:
		if k, ok := kc.findLocal(typ.Ref.Name); ok {
			return k, nil
		}
		if k := kc.env.FindKind(typ.Ref.Name); k != nil {
			return k, nil
		}
		kinds := make([]Kind, len(typ.Ref.Params))
		for i, p := range typ.Ref.Params {
			kinds[i] = p.Kind
			if kinds[i] == nil {
				kinds[i] = kc.cache.Typ
			}
		}
		return FunctionKind(kinds, kc.cache.Typ), nil
	case *Forall:
		for _, p := range typ.Params {
			kc.genericKind(p.Name, p.Kind)
		}
		return kc.KindOf(typ.Body)
	case *App:
		headKind, err := kc.KindOf(typ.Head)
		if err != nil {
			return nil, err
		}
		result := headKind
		for _, arg := range typ.Args {
			argKind, err := kc.KindOf(arg)
			if err != nil {
				return nil, err
			}
			ret := kc.Fresh()
			if err := kc.subs.Unify(result, &KindFun{Arg: argKind, Ret: ret}); err != nil {
				return nil, err
			}
			result = ret
		}
		return result, nil
	case *Record:
		if err := kc.Check(typ.Row, kc.cache.Row); err != nil {
			return nil, err
		}
		return kc.cache.Typ, nil
	case *Variant:
		if err := kc.Check(typ.Row, kc.cache.Row); err != nil {
			return nil, err
		}
		return kc.cache.Typ, nil
	case *ExtendRow:
		for _, f := range typ.Fields {
			if err := kc.Check(f.Typ, kc.cache.Typ); err != nil {
				return nil, err
			}
		}
		return kc.cache.Row, kc.Check(typ.Rest, kc.cache.Row)
	case *EmptyRow:
		return kc.cache.Row, nil
	default:
		return kc.cache.Typ, nil
	}
}

// Check infers typ's kind and unifies it with expected.
func (kc *KindCheck) Check(typ Type, expected Kind) error {
	k, err := kc.KindOf(typ)
	if err != nil {
		return err
	}
	return kc.subs.Unify(k, expected)
}

// Finish rewrites typ with every inferred kind applied and unresolved kind
// variables defaulted to Type.
func (kc *KindCheck) Finish(typ Type) Type {
	return WalkMove(typ, func(t Type) Type {
		switch t := t.(type) {
		case *Generic:
			if k, ok := kc.generics[t.Name]; ok {
				resolved := kc.subs.SetKind(k)
				if !KindEqual(resolved, t.Kind) {
					return &Generic{Name: t.Name, Kind: resolved}
				}
			} else if t.Kind == nil {
				return &Generic{Name: t.Name, Kind: kc.cache.Typ}
			}
		case *Skolem:
			if k, ok := kc.generics[t.Name]; ok {
				resolved := kc.subs.SetKind(k)
				if !KindEqual(resolved, t.Kind) {
					return &Skolem{Name: t.Name, ID: t.ID, Kind: resolved}
				}
			}
		}
		return nil
	})
}

// ResolveKind applies the kind substitution to k, defaulting unresolved
// kind variables to Type.
func (kc *KindCheck) ResolveKind(k Kind) Kind {
	return kc.subs.SetKind(k)
}

// ResolvedKind returns the defaulted kind inferred for a signature
// variable.
func (kc *KindCheck) ResolvedKind(name symbol.Symbol) Kind {
	if k, ok := kc.generics[name]; ok {
		return kc.subs.SetKind(k)
	}
	return kc.cache.Typ
}
