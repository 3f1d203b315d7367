package codegen

import "github.com/Brahmastra-Labs/logicaffeine-sub002/ast"

// LowerBlock lowers a statement block to target source. The statement
// lowering package installs it at init time; expression lowering calls it
// to render block-bodied closures without importing the statement package
// (the two would otherwise form an import cycle, since statements contain
// expressions and closure expressions contain statement blocks).
var LowerBlock func(*Context, []ast.Stmt) string
