package check

import (
	"github.com/fennlang/fenn/internal/ast"
	"github.com/fennlang/fenn/internal/types"
)

// rename rewrites every use of an overloaded name to the original binding
// selected by constraint resolution. Sites whose type resolves to none of
// the candidates produce a Rename error.
func (tc *Typecheck) rename(expr ast.Expr) {
	tc.walkExpr(expr, func(id *ast.Ident) {
		candidates := tc.overloadCandidates(id.Name)
		if len(candidates) == 0 || id.Typ == nil {
			return
		}
		final := tc.subs.SetType(id.Typ)
		// A site whose type still contains unification variables never
		// resolved against the candidate set: ambiguous, not assignable
		// to any one original binding.
		if !hasTypeVariables(tc.subs, final) {
			for _, c := range candidates {
				if types.Equivalent(tc.subs, c.typ, final) {
					id.Name = c.sym
					return
				}
			}
		}
		candidateTypes := make([]types.Type, len(candidates))
		for i, c := range candidates {
			candidateTypes[i] = c.typ
		}
		tc.errors = append(tc.errors, Spanned{Span: id.Sp, Err: &RenameError{
			Name:       id.Name,
			Typ:        final,
			Candidates: candidateTypes,
		}})
	})
}

// walkExpr visits every identifier use site in the expression tree.
// Binding occurrences (lambda parameters, binding patterns) are not use
// sites and are skipped.
func (tc *Typecheck) walkExpr(expr ast.Expr, f func(*ast.Ident)) {
	switch e := expr.(type) {
	case *ast.Ident:
		f(e)
	case *ast.App:
		tc.walkExpr(e.Func, f)
		for _, a := range e.Args {
			tc.walkExpr(a, f)
		}
	case *ast.IfElse:
		tc.walkExpr(e.Cond, f)
		tc.walkExpr(e.Then, f)
		tc.walkExpr(e.Else, f)
	case *ast.Infix:
		tc.walkExpr(e.Left, f)
		f(e.Op)
		tc.walkExpr(e.Right, f)
	case *ast.Match:
		tc.walkExpr(e.Expr, f)
		for _, alt := range e.Alts {
			tc.walkExpr(alt.Expr, f)
		}
	case *ast.Let:
		for _, b := range e.Bindings {
			tc.walkExpr(b.Expr, f)
		}
		tc.walkExpr(e.Body, f)
	case *ast.Lambda:
		tc.walkExpr(e.Body, f)
	case *ast.Projection:
		tc.walkExpr(e.Expr, f)
	case *ast.Record:
		for _, field := range e.Fields {
			if field.Value != nil {
				tc.walkExpr(field.Value, f)
			}
		}
		if e.Base != nil {
			tc.walkExpr(e.Base, f)
		}
	case *ast.Tuple:
		for _, elem := range e.Elems {
			tc.walkExpr(elem, f)
		}
	case *ast.Array:
		for _, elem := range e.Elems {
			tc.walkExpr(elem, f)
		}
	case *ast.TypeBindings:
		tc.walkExpr(e.Body, f)
	case *ast.Block:
		for _, sub := range e.Exprs {
			tc.walkExpr(sub, f)
		}
	}
}

// finishExprTypes applies the final substitution to every type stored in
// the AST so the output tree is independent of the Subs.
func (tc *Typecheck) finishExprTypes(expr ast.Expr) {
	set := func(t types.Type) types.Type {
		if t == nil {
			return nil
		}
		return tc.subs.SetType(t)
	}
	switch e := expr.(type) {
	case *ast.Ident:
		e.Typ = set(e.Typ)
	case *ast.Literal:
		e.Typ = set(e.Typ)
	case *ast.App:
		tc.finishExprTypes(e.Func)
		for _, a := range e.Args {
			tc.finishExprTypes(a)
		}
	case *ast.IfElse:
		tc.finishExprTypes(e.Cond)
		tc.finishExprTypes(e.Then)
		tc.finishExprTypes(e.Else)
	case *ast.Infix:
		tc.finishExprTypes(e.Left)
		e.Op.Typ = set(e.Op.Typ)
		tc.finishExprTypes(e.Right)
	case *ast.Match:
		e.ResultTyp = set(e.ResultTyp)
		tc.finishExprTypes(e.Expr)
		for _, alt := range e.Alts {
			tc.finishPatternTypes(alt.Pattern)
			tc.finishExprTypes(alt.Expr)
		}
	case *ast.Let:
		for _, b := range e.Bindings {
			b.Resolved = set(b.Resolved)
			tc.finishPatternTypes(b.Name)
			for _, arg := range b.Args {
				arg.Typ = set(arg.Typ)
			}
			tc.finishExprTypes(b.Expr)
		}
		tc.finishExprTypes(e.Body)
	case *ast.Lambda:
		e.Typ = set(e.Typ)
		for _, arg := range e.Args {
			arg.Typ = set(arg.Typ)
		}
		tc.finishExprTypes(e.Body)
	case *ast.Projection:
		e.Typ = set(e.Typ)
		tc.finishExprTypes(e.Expr)
	case *ast.Record:
		e.Typ = set(e.Typ)
		for _, field := range e.Fields {
			if field.Value != nil {
				tc.finishExprTypes(field.Value)
			}
		}
		if e.Base != nil {
			tc.finishExprTypes(e.Base)
		}
	case *ast.Tuple:
		e.Typ = set(e.Typ)
		for _, elem := range e.Elems {
			tc.finishExprTypes(elem)
		}
	case *ast.Array:
		e.Typ = set(e.Typ)
		for _, elem := range e.Elems {
			tc.finishExprTypes(elem)
		}
	case *ast.TypeBindings:
		tc.finishExprTypes(e.Body)
	case *ast.Block:
		for _, sub := range e.Exprs {
			tc.finishExprTypes(sub)
		}
	}
}

func (tc *Typecheck) finishPatternTypes(pat ast.Pattern) {
	set := func(t types.Type) types.Type {
		if t == nil {
			return nil
		}
		return tc.subs.SetType(t)
	}
	switch p := pat.(type) {
	case *ast.PatIdent:
		p.Typ = set(p.Typ)
	case *ast.PatConstructor:
		p.Name.Typ = set(p.Name.Typ)
		for _, sub := range p.Args {
			tc.finishPatternTypes(sub)
		}
	case *ast.PatRecord:
		p.Typ = set(p.Typ)
		for _, f := range p.Fields {
			if f.Value != nil {
				tc.finishPatternTypes(f.Value)
			}
		}
	case *ast.PatTuple:
		p.Typ = set(p.Typ)
		for _, sub := range p.Elems {
			tc.finishPatternTypes(sub)
		}
	}
}
