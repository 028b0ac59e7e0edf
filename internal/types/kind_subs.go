package types

// KindSubs is the union-find substitution over kind variables. It has the
// same shape as the type substitution but carries no levels or constraints;
// kinds are never generalized.
type KindSubs struct {
	cache   *KindCache
	parents []uint32
	ranks   []uint32
	kinds   map[uint32]Kind
}

// NewKindSubs creates an empty kind substitution.
func NewKindSubs(cache *KindCache) *KindSubs {
	return &KindSubs{cache: cache, kinds: make(map[uint32]Kind)}
}

// NewKindVar allocates a fresh kind variable.
func (s *KindSubs) NewKindVar() *KindVar {
	id := uint32(len(s.parents))
	s.parents = append(s.parents, id)
	s.ranks = append(s.ranks, 0)
	return &KindVar{ID: id}
}

func (s *KindSubs) find(id uint32) uint32 {
	for s.parents[id] != id {
		s.parents[id] = s.parents[s.parents[id]]
		id = s.parents[id]
	}
	return id
}

// Real resolves k one step through the substitution.
func (s *KindSubs) Real(k Kind) Kind {
	v, ok := k.(*KindVar)
	if !ok {
		return k
	}
	root := s.find(v.ID)
	if r, ok := s.kinds[root]; ok {
		return r
	}
	if root != v.ID {
		return &KindVar{ID: root}
	}
	return k
}

func (s *KindSubs) occurs(v *KindVar, k Kind) bool {
	switch k := s.Real(k).(type) {
	case *KindVar:
		return k.ID == v.ID
	case *KindFun:
		return s.occurs(v, k.Arg) || s.occurs(v, k.Ret)
	default:
		return false
	}
}

func (s *KindSubs) union(v *KindVar, k Kind) error {
	k = s.Real(k)
	if other, ok := k.(*KindVar); ok {
		if other.ID == v.ID {
			return nil
		}
		ra, rb := s.find(v.ID), s.find(other.ID)
		if ra == rb {
			return nil
		}
		if s.ranks[ra] < s.ranks[rb] {
			ra, rb = rb, ra
		}
		s.parents[rb] = ra
		if s.ranks[ra] == s.ranks[rb] {
			s.ranks[ra]++
		}
		return nil
	}
	if s.occurs(v, k) {
		return &KindOccurs{Var: v, Kind: k}
	}
	s.kinds[s.find(v.ID)] = k
	return nil
}

// Unify makes the two kinds equal or reports a KindMismatch.
func (s *KindSubs) Unify(l, r Kind) error {
	l, r = s.Real(l), s.Real(r)
	if lv, ok := l.(*KindVar); ok {
		return s.union(lv, r)
	}
	if rv, ok := r.(*KindVar); ok {
		return s.union(rv, l)
	}
	lf, lok := l.(*KindFun)
	rf, rok := r.(*KindFun)
	if lok && rok {
		if err := s.Unify(lf.Arg, rf.Arg); err != nil {
			return err
		}
		return s.Unify(lf.Ret, rf.Ret)
	}
	if KindEqual(l, r) {
		return nil
	}
	return &KindMismatch{Left: l, Right: r}
}

// SetKind applies the substitution deeply, defaulting every unresolved kind
// variable to Type.
func (s *KindSubs) SetKind(k Kind) Kind {
	switch k := s.Real(k).(type) {
	case *KindVar:
		return s.cache.Typ
	case *KindFun:
		return &KindFun{Arg: s.SetKind(k.Arg), Ret: s.SetKind(k.Ret)}
	case *KindHole:
		return s.cache.Typ
	default:
		return k
	}
}
