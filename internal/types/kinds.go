package types

import (
	"fmt"
)

// Kind classifies types. Ordinary types have kind Type, rows have kind Row,
// and type constructors have function kinds built from KindFun.
type Kind interface {
	kindNode()
	String() string
}

// KindType is the kind of inhabited types (* in the literature).
type KindType struct{}

func (*KindType) kindNode()      {}
func (*KindType) String() string { return "Type" }

// KindRow is the kind of record and variant rows.
type KindRow struct{}

func (*KindRow) kindNode()      {}
func (*KindRow) String() string { return "Row" }

// KindHole stands for a kind that has not been filled in yet. Signature
// normalization replaces holes with fresh kind variables.
type KindHole struct{}

func (*KindHole) kindNode()      {}
func (*KindHole) String() string { return "_" }

// KindVar is a kind unification variable.
type KindVar struct {
	ID uint32
}

func (*KindVar) kindNode()        {}
func (k *KindVar) String() string { return fmt.Sprintf("$k%d", k.ID) }

// KindFun is the kind of a type constructor taking an argument of kind Arg
// to a result of kind Ret.
type KindFun struct {
	Arg Kind
	Ret Kind
}

func (*KindFun) kindNode() {}
func (k *KindFun) String() string {
	if _, ok := k.Arg.(*KindFun); ok {
		return fmt.Sprintf("(%s) -> %s", k.Arg, k.Ret)
	}
	return fmt.Sprintf("%s -> %s", k.Arg, k.Ret)
}

// KindCache holds the shared singleton kinds.
type KindCache struct {
	Typ  Kind
	Row  Kind
	Hole Kind
}

// NewKindCache builds the cache of singleton kinds.
func NewKindCache() *KindCache {
	return &KindCache{
		Typ:  &KindType{},
		Row:  &KindRow{},
		Hole: &KindHole{},
	}
}

// FunctionKind builds the kind args[0] -> args[1] -> ... -> ret.
func FunctionKind(args []Kind, ret Kind) Kind {
	result := ret
	for i := len(args) - 1; i >= 0; i-- {
		result = &KindFun{Arg: args[i], Ret: result}
	}
	return result
}

// KindEqual compares kinds structurally.
func KindEqual(a, b Kind) bool {
	switch a := a.(type) {
	case *KindType:
		_, ok := b.(*KindType)
		return ok
	case *KindRow:
		_, ok := b.(*KindRow)
		return ok
	case *KindHole:
		_, ok := b.(*KindHole)
		return ok
	case *KindVar:
		bv, ok := b.(*KindVar)
		return ok && a.ID == bv.ID
	case *KindFun:
		bf, ok := b.(*KindFun)
		return ok && KindEqual(a.Arg, bf.Arg) && KindEqual(a.Ret, bf.Ret)
	default:
		return false
	}
}
