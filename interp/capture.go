package interp

import (
	"github.com/Brahmastra-Labs/logicaffeine-sub002/ast"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/intern"
)

// freeVariables collects the identifiers a closure body reads that neither
// its parameters nor any binding introduced inside the body itself supply.
// These are the names whose current runtime values the closure captures at
// construction time.
func freeVariables(body ast.Expr, block []ast.Stmt, params []intern.Symbol) []intern.Symbol {
	bound := map[intern.Symbol]bool{}
	for _, p := range params {
		bound[p] = true
	}
	free := map[intern.Symbol]bool{}
	var order []intern.Symbol
	mark := func(sym intern.Symbol) {
		if bound[sym] || free[sym] {
			return
		}
		free[sym] = true
		order = append(order, sym)
	}
	if body != nil {
		walkExprIdents(body, bound, mark)
	}
	walkStmtIdents(block, bound, mark)
	return order
}

// walkStmtIdents visits every identifier read in stmts, calling mark for
// each one not yet shadowed by a binding in bound. Bindings a statement
// introduces (lets, loop patterns, inspect arms, receive targets) extend
// bound for the statements that follow; the tracking is flow-insensitive
// within a block, which errs on the side of capturing a value the body
// would have shadowed anyway.
func walkStmtIdents(stmts []ast.Stmt, bound map[intern.Symbol]bool, mark func(intern.Symbol)) {
	for _, s := range stmts {
		switch v := s.(type) {
		case ast.LetStmt:
			walkExprIdents(v.Value, bound, mark)
			bound[v.Var] = true
		case ast.SetStmt:
			walkExprIdents(v.Value, bound, mark)
			if !bound[v.Var] {
				mark(v.Var)
			}
		case ast.SetFieldStmt:
			walkExprIdents(v.Object, bound, mark)
			walkExprIdents(v.Value, bound, mark)
		case ast.SetIndexStmt:
			walkExprIdents(v.Collection, bound, mark)
			walkExprIdents(v.Index, bound, mark)
			walkExprIdents(v.Value, bound, mark)
		case ast.CallStmt:
			for _, a := range v.Args {
				walkExprIdents(a, bound, mark)
			}
		case ast.IfStmt:
			walkExprIdents(v.Cond, bound, mark)
			walkStmtIdents(v.Then, bound, mark)
			walkStmtIdents(v.Else, bound, mark)
		case ast.WhileStmt:
			walkExprIdents(v.Cond, bound, mark)
			walkStmtIdents(v.Body, bound, mark)
		case ast.RepeatStmt:
			walkExprIdents(v.Iterable, bound, mark)
			if v.Pattern.Tuple != nil {
				for _, sym := range v.Pattern.Tuple {
					bound[sym] = true
				}
			} else {
				bound[v.Pattern.Single] = true
			}
			walkStmtIdents(v.Body, bound, mark)
		case ast.ReturnStmt:
			if v.Value != nil {
				walkExprIdents(v.Value, bound, mark)
			}
		case ast.RuntimeAssertStmt:
			walkExprIdents(v.Cond, bound, mark)
		case ast.SecurityCheckStmt:
			walkExprIdents(v.Subject, bound, mark)
			if v.Object != nil {
				walkExprIdents(v.Object, bound, mark)
			}
		case ast.InspectStmt:
			walkExprIdents(v.Subject, bound, mark)
			for _, arm := range v.Arms {
				for _, b := range arm.Bindings {
					bound[b] = true
				}
				walkStmtIdents(arm.Body, bound, mark)
			}
		case ast.CollectionMutateStmt:
			walkExprIdents(v.Collection, bound, mark)
			if v.Value != nil {
				walkExprIdents(v.Value, bound, mark)
			}
		case ast.ZoneStmt:
			walkStmtIdents(v.Body, bound, mark)
		case ast.ConcurrentStmt:
			for _, t := range v.Tasks {
				walkStmtIdents(t.Body, bound, mark)
			}
		case ast.ParallelStmt:
			for _, t := range v.Tasks {
				walkStmtIdents(t.Body, bound, mark)
			}
		case ast.ReadStmt:
			walkExprIdents(v.Path, bound, mark)
			bound[v.Target] = true
		case ast.WriteStmt:
			walkExprIdents(v.Path, bound, mark)
			walkExprIdents(v.Value, bound, mark)
		case ast.MountStmt:
			walkExprIdents(v.Value, bound, mark)
		case ast.SleepStmt:
			walkExprIdents(v.Duration, bound, mark)
		case ast.SyncStmt:
			walkStmtIdents(v.Body, bound, mark)
		case ast.SpawnStmt:
			walkStmtIdents(v.Body, bound, mark)
		case ast.SendStmt:
			walkExprIdents(v.Value, bound, mark)
		case ast.ReceiveStmt:
			bound[v.Target] = true
		case ast.SelectStmt:
			if v.TimeoutMs != nil {
				walkExprIdents(v.TimeoutMs, bound, mark)
			}
			for _, c := range v.Clauses {
				bound[c.Target] = true
				walkStmtIdents(c.Body, bound, mark)
			}
			walkStmtIdents(v.OnTimeout, bound, mark)
		case ast.GiveStmt:
			walkExprIdents(v.Object, bound, mark)
		case ast.ShowStmt:
			walkExprIdents(v.Object, bound, mark)
		case ast.FunctionDefStmt:
			for _, p := range v.Params {
				bound[p.Name] = true
			}
			walkStmtIdents(v.Body, bound, mark)
			bound[v.Name] = true
		}
	}
}

func walkExprIdents(e ast.Expr, bound map[intern.Symbol]bool, mark func(intern.Symbol)) {
	switch v := e.(type) {
	case ast.IdentExpr:
		mark(v.Name)
	case ast.BinaryExpr:
		walkExprIdents(v.Left, bound, mark)
		walkExprIdents(v.Right, bound, mark)
	case ast.CallExpr:
		mark(v.Function)
		for _, a := range v.Args {
			walkExprIdents(a, bound, mark)
		}
	case ast.CallIndirectExpr:
		walkExprIdents(v.Callee, bound, mark)
		for _, a := range v.Args {
			walkExprIdents(a, bound, mark)
		}
	case ast.FieldAccessExpr:
		walkExprIdents(v.Object, bound, mark)
	case ast.IndexExpr:
		walkExprIdents(v.Collection, bound, mark)
		walkExprIdents(v.Index, bound, mark)
	case ast.SliceExpr:
		walkExprIdents(v.Collection, bound, mark)
		if v.Start != nil {
			walkExprIdents(v.Start, bound, mark)
		}
		if v.End != nil {
			walkExprIdents(v.End, bound, mark)
		}
	case ast.ListExpr:
		for _, el := range v.Elements {
			walkExprIdents(el, bound, mark)
		}
	case ast.TupleExpr:
		for _, el := range v.Elements {
			walkExprIdents(el, bound, mark)
		}
	case ast.RangeExpr:
		walkExprIdents(v.Start, bound, mark)
		walkExprIdents(v.End, bound, mark)
	case ast.RecordExpr:
		for _, f := range v.Fields {
			walkExprIdents(f.Value, bound, mark)
		}
	case ast.VariantExpr:
		for _, f := range v.Fields {
			walkExprIdents(f.Value, bound, mark)
		}
	case ast.CopyExpr:
		walkExprIdents(v.Object, bound, mark)
	case ast.GiveExpr:
		walkExprIdents(v.Object, bound, mark)
	case ast.LengthExpr:
		walkExprIdents(v.Object, bound, mark)
	case ast.ContainsExpr:
		walkExprIdents(v.Collection, bound, mark)
		walkExprIdents(v.Needle, bound, mark)
	case ast.SetUnionExpr:
		walkExprIdents(v.Left, bound, mark)
		walkExprIdents(v.Right, bound, mark)
	case ast.SetIntersectExpr:
		walkExprIdents(v.Left, bound, mark)
		walkExprIdents(v.Right, bound, mark)
	case ast.OptionSomeExpr:
		walkExprIdents(v.Value, bound, mark)
	case ast.WithCapacityExpr:
		walkExprIdents(v.Capacity, bound, mark)
		walkExprIdents(v.Inner, bound, mark)
	case ast.InterpolatedStringExpr:
		for _, part := range v.Parts {
			if part.Value != nil {
				walkExprIdents(part.Value, bound, mark)
			}
		}
	case ast.ClosureExpr:
		inner := map[intern.Symbol]bool{}
		for sym := range bound {
			inner[sym] = true
		}
		for _, p := range v.Params {
			inner[p] = true
		}
		if v.Body != nil {
			walkExprIdents(v.Body, inner, mark)
		}
		walkStmtIdents(v.Block, inner, mark)
	}
}
