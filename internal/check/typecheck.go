package check

import (
	"fmt"
	"strings"

	"github.com/fennlang/fenn/internal/ast"
	"github.com/fennlang/fenn/internal/symbol"
	"github.com/fennlang/fenn/internal/types"
)

// TypecheckExpr infers the type of a top-level expression. The AST is
// mutated in place: every identifier, pattern, binding and record literal
// receives its inferred type and resolved symbol. On failure the returned
// Errors is non-empty; inference still produces a (partial) type.
func (tc *Typecheck) TypecheckExpr(expr ast.Expr) (types.Type, Errors) {
	return tc.TypecheckExprExpected(expr, nil)
}

// TypecheckExprExpected is TypecheckExpr with an expected type for the
// root.
func (tc *Typecheck) TypecheckExprExpected(expr ast.Expr, expected types.Type) (types.Type, Errors) {
	tc.reset()
	tc.enterScope()
	if expected != nil {
		expected = tc.instantiateSignature(expr.Span(), expected)
	}
	typ := tc.typecheckOpt(expr, expected)
	tc.rename(expr)
	tc.exitScope()

	typ = tc.subs.SetType(typ)
	typ = tc.generalizeType(0, typ)
	tc.finishExprTypes(expr)
	tc.generalizeTypeErrors()
	return typ, tc.errors
}

// typecheck checks one subexpression.
func (tc *Typecheck) typecheck(expr ast.Expr, expected types.Type) types.Type {
	return tc.typecheckOpt(expr, expected)
}

// typecheckOpt drives the tail-call loop: scope-extending nodes (let, type
// bindings, blocks) hand back their body instead of recursing so deeply
// nested chains do not grow the host stack. Scopes opened along the way
// are exited together once the tail bottoms out.
func (tc *Typecheck) typecheckOpt(expr ast.Expr, expected types.Type) types.Type {
	scopes := 0
	var typ types.Type
	for {
		t, tail, opened := tc.typecheckStep(expr, expected)
		scopes += opened
		if tail == nil {
			typ = t
			break
		}
		expr = tail
	}
	if expected != nil {
		typ = tc.unifySpan(expr.Span(), expected, typ)
	}
	for i := 0; i < scopes; i++ {
		tc.exitScope()
	}
	return typ
}

// typecheckStep checks one node. A non-nil tail means the caller should
// continue with that expression; opened counts scopes entered that the
// tail-call loop must exit.
func (tc *Typecheck) typecheckStep(expr ast.Expr, expected types.Type) (typ types.Type, tail ast.Expr, opened int) {
	switch e := expr.(type) {
	case *ast.Ident:
		t := tc.find(e.Sp, e.Name)
		e.Typ = t
		return t, nil, 0

	case *ast.Literal:
		t := tc.literalType(e)
		e.Typ = t
		return t, nil, 0

	case *ast.App:
		fTyp := tc.typecheck(e.Func, nil)
		return tc.typecheckApp(e.Sp, fTyp, e.Args), nil, 0

	case *ast.IfElse:
		tc.typecheck(e.Cond, tc.env.GetBool())
		thenTyp := tc.typecheck(e.Then, expected)
		elseTyp := tc.typecheck(e.Else, expected)
		return tc.unifySpan(e.Sp, thenTyp, elseTyp), nil, 0

	case *ast.Infix:
		return tc.typecheckInfix(e), nil, 0

	case *ast.Match:
		return tc.typecheckMatch(e, expected), nil, 0

	case *ast.Let:
		tc.enterScope()
		tc.typecheckBindings(e)
		return nil, e.Body, 1

	case *ast.Lambda:
		return tc.typecheckLambda(e, expected), nil, 0

	case *ast.Projection:
		return tc.typecheckProjection(e), nil, 0

	case *ast.Record:
		return tc.typecheckRecord(e), nil, 0

	case *ast.Tuple:
		return tc.typecheckTuple(e), nil, 0

	case *ast.Array:
		elemTyp := tc.newVar()
		for _, elem := range e.Elems {
			tc.typecheck(elem, elemTyp)
		}
		t := tc.cache.ArrayOf(elemTyp)
		e.Typ = t
		return t, nil, 0

	case *ast.TypeBindings:
		tc.enterScope()
		tc.typecheckTypeBindings(e)
		return nil, e.Body, 1

	case *ast.Block:
		if len(e.Exprs) == 0 {
			return tc.cache.Unit, nil, 0
		}
		for _, sub := range e.Exprs[:len(e.Exprs)-1] {
			tc.typecheck(sub, nil)
		}
		return nil, e.Exprs[len(e.Exprs)-1], 0

	case *ast.Error:
		return tc.error(e.Sp, &ErrorAst{Where: "expression"}), nil, 0

	default:
		return tc.error(expr.Span(), &ErrorAst{Where: "expression"}), nil, 0
	}
}

func (tc *Typecheck) literalType(e *ast.Literal) types.Type {
	switch e.Kind {
	case ast.IntLit:
		return tc.cache.Int
	case ast.ByteLit:
		return tc.cache.Byte
	case ast.FloatLit:
		return tc.cache.Float
	case ast.StringLit:
		return tc.cache.Str
	case ast.CharLit:
		return tc.cache.Char
	default:
		return tc.cache.Unit
	}
}

// functionArg splits typ into an argument and result type, unifying a
// variable head with a fresh function and walking through aliases as
// needed. ok is false when typ cannot be a function at all.
func (tc *Typecheck) functionArg(span ast.Span, typ types.Type) (argTyp, retTyp types.Type, ok bool) {
	typ = tc.instantiate(tc.subs.Real(typ))
	if v, isVar := typ.(*types.Var); isVar {
		argTyp = tc.newVar()
		retTyp = tc.newVar()
		fn := types.NewFunction(tc.cache, argTyp, retTyp)
		if _, err := tc.subs.Union(v, fn); err != nil {
			tc.errors = append(tc.errors, Spanned{Span: span, Err: &Unification{
				Expected: fn, Actual: typ,
				Errors: []types.UnifyError{&types.SubstitutionError{Err: err}},
			}})
			return tc.newVar(), tc.newVar(), true
		}
		return argTyp, retTyp, true
	}
	if arg, ret, isFn := types.MatchFunction(typ); isFn {
		return arg, ret, true
	}
	expanded := types.RemoveAliases(tc.env, typ)
	expanded = tc.instantiate(tc.subs.Real(expanded))
	if arg, ret, isFn := types.MatchFunction(expanded); isFn {
		return arg, ret, true
	}
	return nil, nil, false
}

// typecheckApp checks the arguments of a call one by one, threading the
// callee type through functionArg.
func (tc *Typecheck) typecheckApp(span ast.Span, fTyp types.Type, args []ast.Expr) types.Type {
	for _, arg := range args {
		argTyp, retTyp, ok := tc.functionArg(arg.Span(), fTyp)
		if !ok {
			tc.error(span, &NotAFunction{Typ: tc.subs.SetType(fTyp)})
			tc.typecheck(arg, nil)
			fTyp = tc.newVar()
			continue
		}
		tc.typecheck(arg, argTyp)
		fTyp = retTyp
	}
	return fTyp
}

// typecheckInfix types a binary operator. Primitive operators spelled
// #Int+, #Float==, ... have builtin types; anything else is a call on the
// operator identifier.
func (tc *Typecheck) typecheckInfix(e *ast.Infix) types.Type {
	name := e.Op.Name.Declared()
	var opTyp types.Type
	if strings.HasPrefix(name, "#") {
		opTyp = tc.primitiveOpType(name)
		if opTyp == nil {
			opTyp = tc.error(e.Op.Sp, &UndefinedVariable{Name: e.Op.Name})
		}
	} else {
		opTyp = tc.find(e.Op.Sp, e.Op.Name)
	}
	e.Op.Typ = opTyp
	return tc.typecheckApp(e.Sp, opTyp, []ast.Expr{e.Left, e.Right})
}

// primitiveOpType resolves #Int+, #Float<, ... to their builtin types.
// Arithmetic returns the operand type, comparisons return Bool.
func (tc *Typecheck) primitiveOpType(name string) types.Type {
	rest := name[1:]
	var operand types.Type
	switch {
	case strings.HasPrefix(rest, "Int"):
		operand, rest = tc.cache.Int, rest[len("Int"):]
	case strings.HasPrefix(rest, "Float"):
		operand, rest = tc.cache.Float, rest[len("Float"):]
	case strings.HasPrefix(rest, "Byte"):
		operand, rest = tc.cache.Byte, rest[len("Byte"):]
	default:
		return nil
	}
	switch rest {
	case "+", "-", "*", "/":
		return tc.cache.FuncN([]types.Type{operand, operand}, operand)
	case "<", ">", "<=", ">=", "==", "/=":
		return tc.cache.FuncN([]types.Type{operand, operand}, tc.cache.Bool)
	default:
		return nil
	}
}

func (tc *Typecheck) typecheckMatch(e *ast.Match, expected types.Type) types.Type {
	if len(e.Alts) == 0 {
		return tc.error(e.Sp, &EmptyCase{})
	}
	scrutTyp := tc.typecheck(e.Expr, nil)
	var result types.Type
	for _, alt := range e.Alts {
		tc.enterScope()
		tc.typecheckPattern(alt.Pattern, scrutTyp)
		armTyp := tc.typecheck(alt.Expr, expected)
		tc.exitScope()
		if result == nil {
			result = armTyp
		} else {
			result = tc.unifySpan(alt.Expr.Span(), result, armTyp)
		}
	}
	e.ResultTyp = result
	return result
}

// typecheckLambda binds the arguments against the (skolemized) expected
// type so a rank-N forall in expected position stays rigid inside the
// body.
func (tc *Typecheck) typecheckLambda(e *ast.Lambda, expected types.Type) types.Type {
	var remaining types.Type
	if expected != nil {
		remaining = tc.skolemize(tc.subs.Real(expected))
	}
	tc.enterScope()
	argTypes := make([]types.Type, len(e.Args))
	for i, arg := range e.Args {
		var argTyp types.Type
		if remaining != nil {
			if a, r, ok := tc.functionArg(arg.Sp, remaining); ok {
				argTyp, remaining = a, r
			} else {
				argTyp = tc.newVar()
				remaining = nil
			}
		} else {
			argTyp = tc.newVar()
		}
		arg.Typ = argTyp
		tc.stackVar(arg.Name, argTyp)
		argTypes[i] = argTyp
	}
	retTyp := tc.typecheck(e.Body, remaining)
	tc.exitScope()
	typ := tc.cache.FuncN(argTypes, retTyp)
	e.Typ = typ
	return typ
}

// typecheckProjection types e.Expr.Field. Unknown targets are guessed via
// the known record aliases first; failing that the target is unified with
// a fresh open record containing the field.
func (tc *Typecheck) typecheckProjection(e *ast.Projection) types.Type {
	targetTyp := tc.typecheck(e.Expr, nil)
	real := tc.subs.Real(targetTyp)

	if _, isVar := real.(*types.Var); isVar {
		if nameTyp, _, ok := tc.env.FindRecord([]symbol.Symbol{e.Field}, types.SelectSubset); ok {
			guess := tc.instantiateAliasType(nameTyp)
			tc.unifySpan(e.Sp, guess, targetTyp)
			real = tc.subs.Real(targetTyp)
		}
	}

	resolved := types.RemoveAliases(tc.env, tc.subs.Real(real))
	resolved = tc.subs.Real(resolved)
	switch resolved := resolved.(type) {
	case *types.Var:
		fieldTyp := tc.newVar()
		rho := tc.subs.NewVar(tc.subs.VarID(), tc.cache.Kinds.Row)
		record := &types.Record{Row: &types.ExtendRow{
			Fields: []types.Field{{Name: e.Field, Typ: fieldTyp}},
			Rest:   rho,
		}}
		tc.unifySpan(e.Sp, record, resolved)
		e.Typ = fieldTyp
		return fieldTyp
	case *types.Record:
		if fieldTyp := tc.rowField(resolved.Row, e.Field); fieldTyp != nil {
			e.Typ = fieldTyp
			return fieldTyp
		}
		_, _, rest := tc.flattenRealRow(resolved.Row)
		if rv, open := rest.(*types.Var); open {
			fieldTyp := tc.newVar()
			rho := tc.subs.NewVar(tc.subs.VarID(), tc.cache.Kinds.Row)
			ext := &types.ExtendRow{
				Fields: []types.Field{{Name: e.Field, Typ: fieldTyp}},
				Rest:   rho,
			}
			if _, err := tc.subs.Union(rv, ext); err == nil {
				e.Typ = fieldTyp
				return fieldTyp
			}
		}
		t := tc.error(e.Sp, &UndefinedField{Typ: tc.subs.SetType(targetTyp), Field: e.Field})
		e.Typ = t
		return t
	default:
		t := tc.error(e.Sp, &InvalidProjection{Typ: tc.subs.SetType(targetTyp)})
		e.Typ = t
		return t
	}
}

// instantiateAliasType applies fresh variables to a parameterized alias so
// it can be unified against.
func (tc *Typecheck) instantiateAliasType(aliasTyp types.Type) types.Type {
	alias, ok := aliasTyp.(*types.Alias)
	if !ok || alias.Ref.Arity() == 0 {
		return aliasTyp
	}
	args := make([]types.Type, alias.Ref.Arity())
	for i, p := range alias.Ref.Params {
		kind := p.Kind
		if kind == nil {
			kind = tc.cache.Kinds.Typ
		}
		args[i] = tc.subs.NewVar(tc.subs.VarID(), kind)
	}
	return &types.App{Head: alias, Args: args}
}

// rowField finds a field's type in a row, walking unified row variables.
func (tc *Typecheck) rowField(row types.Type, name symbol.Symbol) types.Type {
	_, fields, _ := tc.flattenRealRow(row)
	for _, f := range fields {
		if f.Name == name {
			return f.Typ
		}
	}
	return nil
}

// flattenRealRow flattens a row spine walking every rest through the
// substitution.
func (tc *Typecheck) flattenRealRow(row types.Type) (assoc []types.AssocType, fields []types.Field, rest types.Type) {
	rest = tc.subs.Real(row)
	for {
		ext, ok := rest.(*types.ExtendRow)
		if !ok {
			return assoc, fields, rest
		}
		assoc = append(assoc, ext.Types...)
		fields = append(fields, ext.Fields...)
		rest = tc.subs.Real(ext.Rest)
	}
}

// tupleField returns the implicit field name of a tuple element (_0, _1,
// ...).
func (tc *Typecheck) tupleField(i int) symbol.Symbol {
	return tc.interner.Intern(fmt.Sprintf("_%d", i))
}

// typecheckTuple desugars the tuple into a record with fields _0, _1, ...
func (tc *Typecheck) typecheckTuple(e *ast.Tuple) types.Type {
	fields := make([]types.Field, len(e.Elems))
	for i, elem := range e.Elems {
		fields[i] = types.Field{
			Name: tc.tupleField(i),
			Typ:  tc.typecheck(elem, nil),
		}
	}
	typ := &types.Record{Row: &types.ExtendRow{Fields: fields, Rest: tc.cache.EmptyRow()}}
	e.Typ = typ
	return typ
}
