package interp

import "github.com/Brahmastra-Labs/logicaffeine-sub002/ast"

// NeedsAsync scans stmts for a suspension point (sleep, read, write,
// mount, receive, select), descending into nested blocks, including
// function-definition bodies, task bodies and inspect arms. Exec does not
// consult it: the interpreter has a single evaluator (see Interpreter).
func NeedsAsync(stmts []ast.Stmt) bool {
	for _, s := range stmts {
		if stmtNeedsAsync(s) {
			return true
		}
	}
	return false
}

func stmtNeedsAsync(s ast.Stmt) bool {
	switch v := s.(type) {
	case ast.SleepStmt, ast.ReadStmt, ast.WriteStmt, ast.MountStmt, ast.ReceiveStmt, ast.SelectStmt:
		return true
	case ast.IfStmt:
		return NeedsAsync(v.Then) || NeedsAsync(v.Else)
	case ast.WhileStmt:
		return NeedsAsync(v.Body)
	case ast.RepeatStmt:
		return NeedsAsync(v.Body)
	case ast.FunctionDefStmt:
		return NeedsAsync(v.Body)
	case ast.ZoneStmt:
		return NeedsAsync(v.Body)
	case ast.ConcurrentStmt:
		for _, t := range v.Tasks {
			if NeedsAsync(t.Body) {
				return true
			}
		}
		return false
	case ast.ParallelStmt:
		for _, t := range v.Tasks {
			if NeedsAsync(t.Body) {
				return true
			}
		}
		return false
	case ast.InspectStmt:
		for _, arm := range v.Arms {
			if NeedsAsync(arm.Body) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
