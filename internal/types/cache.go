package types

// TypeCache holds the prebuilt primitive types so that the typechecker and
// its callers share one instance of each builtin.
type TypeCache struct {
	Kinds *KindCache

	Int    Type
	Byte   Type
	Float  Type
	Str    Type
	Char   Type
	Unit   Type
	Bool   Type
	Hole   Type
	Opaque Type

	// Function is the arrow constructor; Array the builtin array
	// constructor. Both have kind Type -> Type (-> Type).
	Function *Con
	Array    *Con

	emptyRow Type
}

// NewTypeCache builds the cache of primitive types.
func NewTypeCache() *TypeCache {
	kinds := NewKindCache()
	typ := kinds.Typ
	return &TypeCache{
		Kinds:  kinds,
		Int:    &Con{Name: "Int", Kind: typ},
		Byte:   &Con{Name: "Byte", Kind: typ},
		Float:  &Con{Name: "Float", Kind: typ},
		Str:    &Con{Name: "String", Kind: typ},
		Char:   &Con{Name: "Char", Kind: typ},
		Unit:   &Con{Name: "()", Kind: typ},
		Bool:   &Con{Name: "Bool", Kind: typ},
		Hole:   &Hole{},
		Opaque: &Opaque{},
		Function: &Con{
			Name: FunctionConName,
			Kind: &KindFun{Arg: typ, Ret: &KindFun{Arg: typ, Ret: typ}},
		},
		Array: &Con{
			Name: "Array",
			Kind: &KindFun{Arg: typ, Ret: typ},
		},
		emptyRow: &EmptyRow{},
	}
}

// EmptyRow returns the shared empty row terminal.
func (c *TypeCache) EmptyRow() Type { return c.emptyRow }

// ArrayOf builds Array elem.
func (c *TypeCache) ArrayOf(elem Type) Type {
	return &App{Head: c.Array, Args: []Type{elem}}
}

// Func builds arg -> ret.
func (c *TypeCache) Func(arg, ret Type) Type {
	return NewFunction(c, arg, ret)
}

// FuncN builds args[0] -> args[1] -> ... -> ret.
func (c *TypeCache) FuncN(args []Type, ret Type) Type {
	result := ret
	for i := len(args) - 1; i >= 0; i-- {
		result = c.Func(args[i], result)
	}
	return result
}
