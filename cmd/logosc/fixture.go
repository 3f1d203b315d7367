// This file decodes a program fixture: JSON standing in for an
// already-parsed ast.Program, since lexing and parsing source text are out
// of scope for this module. Node shape mirrors ast.go's sum types with one
// "kind" discriminator per node; names are plain strings, interned on
// decode so the resulting tree shares one *intern.Interner with the rest of
// the pipeline.
package main

import (
	"encoding/json"
	"fmt"

	"github.com/Brahmastra-Labs/logicaffeine-sub002/ast"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/intern"
)

// node is the generic JSON shape every fixture element decodes into before
// a per-kind decode function converts it to the matching ast type.
type node map[string]json.RawMessage

type decoder struct {
	in *intern.Interner
}

// DecodeProgram parses a fixture document of the form
// {"stmts": [...]} into an ast.Program.
func DecodeProgram(in *intern.Interner, data []byte) (*ast.Program, error) {
	var doc struct {
		Stmts []node `json:"stmts"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("fixture: decode program: %w", err)
	}
	d := &decoder{in: in}
	stmts, err := d.stmtList(doc.Stmts)
	if err != nil {
		return nil, err
	}
	return &ast.Program{Stmts: stmts}, nil
}

func (d *decoder) sym(s string) intern.Symbol { return d.in.Intern(s) }

func (d *decoder) str(n node, key string) string {
	var s string
	if raw, ok := n[key]; ok {
		_ = json.Unmarshal(raw, &s)
	}
	return s
}

func (d *decoder) boolean(n node, key string) bool {
	var b bool
	if raw, ok := n[key]; ok {
		_ = json.Unmarshal(raw, &b)
	}
	return b
}

func (d *decoder) number(n node, key string) float64 {
	var f float64
	if raw, ok := n[key]; ok {
		_ = json.Unmarshal(raw, &f)
	}
	return f
}

func (d *decoder) nodeSlice(n node, key string) ([]node, error) {
	raw, ok := n[key]
	if !ok {
		return nil, nil
	}
	var list []node
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("fixture: field %q: %w", key, err)
	}
	return list, nil
}

func (d *decoder) strSlice(n node, key string) []string {
	raw, ok := n[key]
	if !ok {
		return nil
	}
	var list []string
	_ = json.Unmarshal(raw, &list)
	return list
}

func (d *decoder) child(n node, key string) (node, bool) {
	raw, ok := n[key]
	if !ok {
		return nil, false
	}
	var c node
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, false
	}
	return c, true
}

// ---- statements -------------------------------------------------------------

func (d *decoder) stmtList(nodes []node) ([]ast.Stmt, error) {
	out := make([]ast.Stmt, 0, len(nodes))
	for _, n := range nodes {
		s, err := d.stmt(n)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (d *decoder) bodyOf(n node, key string) ([]ast.Stmt, error) {
	list, err := d.nodeSlice(n, key)
	if err != nil {
		return nil, err
	}
	return d.stmtList(list)
}

func (d *decoder) stmt(n node) (ast.Stmt, error) {
	kind := d.str(n, "kind")
	switch kind {
	case "Let":
		val, err := d.exprField(n, "value")
		if err != nil {
			return nil, err
		}
		return ast.LetStmt{Var: d.sym(d.str(n, "var")), Value: val, Mutable: d.boolean(n, "mutable")}, nil
	case "Set":
		val, err := d.exprField(n, "value")
		if err != nil {
			return nil, err
		}
		return ast.SetStmt{Var: d.sym(d.str(n, "var")), Value: val}, nil
	case "SetField":
		obj, err := d.exprField(n, "object")
		if err != nil {
			return nil, err
		}
		val, err := d.exprField(n, "value")
		if err != nil {
			return nil, err
		}
		return ast.SetFieldStmt{Object: obj, Field: d.sym(d.str(n, "field")), Value: val}, nil
	case "SetIndex":
		coll, err := d.exprField(n, "collection")
		if err != nil {
			return nil, err
		}
		idx, err := d.exprField(n, "index")
		if err != nil {
			return nil, err
		}
		val, err := d.exprField(n, "value")
		if err != nil {
			return nil, err
		}
		return ast.SetIndexStmt{Collection: coll, Index: idx, Value: val}, nil
	case "Call":
		args, err := d.exprSlice(n, "args")
		if err != nil {
			return nil, err
		}
		return ast.CallStmt{Function: d.sym(d.str(n, "function")), Args: args}, nil
	case "If":
		cond, err := d.exprField(n, "cond")
		if err != nil {
			return nil, err
		}
		then, err := d.bodyOf(n, "then")
		if err != nil {
			return nil, err
		}
		els, err := d.bodyOf(n, "else")
		if err != nil {
			return nil, err
		}
		return ast.IfStmt{Cond: cond, Then: then, Else: els}, nil
	case "While":
		cond, err := d.exprField(n, "cond")
		if err != nil {
			return nil, err
		}
		body, err := d.bodyOf(n, "body")
		if err != nil {
			return nil, err
		}
		return ast.WhileStmt{Cond: cond, Body: body}, nil
	case "Repeat":
		iterable, err := d.exprField(n, "iterable")
		if err != nil {
			return nil, err
		}
		body, err := d.bodyOf(n, "body")
		if err != nil {
			return nil, err
		}
		pattern := ast.RepeatPattern{}
		if tuple := d.strSlice(n, "tuple"); len(tuple) > 0 {
			syms := make([]intern.Symbol, len(tuple))
			for i, s := range tuple {
				syms[i] = d.sym(s)
			}
			pattern.Tuple = syms
		} else {
			pattern.Single = d.sym(d.str(n, "var"))
		}
		return ast.RepeatStmt{Pattern: pattern, Iterable: iterable, Body: body}, nil
	case "Return":
		if _, ok := n["value"]; !ok {
			return ast.ReturnStmt{}, nil
		}
		val, err := d.exprField(n, "value")
		if err != nil {
			return nil, err
		}
		return ast.ReturnStmt{Value: val}, nil
	case "RuntimeAssert":
		cond, err := d.exprField(n, "cond")
		if err != nil {
			return nil, err
		}
		return ast.RuntimeAssertStmt{Cond: cond, Message: d.str(n, "message")}, nil
	case "Assert":
		prop, err := d.logicField(n, "prop")
		if err != nil {
			return nil, err
		}
		return ast.AssertStmt{Prop: prop}, nil
	case "Trust":
		prop, err := d.logicField(n, "prop")
		if err != nil {
			return nil, err
		}
		return ast.TrustStmt{Prop: prop, Justification: d.str(n, "justification")}, nil
	case "Theorem":
		prop, err := d.logicField(n, "prop")
		if err != nil {
			return nil, err
		}
		return ast.TheoremStmt{Name: d.sym(d.str(n, "name")), Prop: prop}, nil
	case "FunctionDef":
		params, err := d.paramSlice(n, "params")
		if err != nil {
			return nil, err
		}
		body, err := d.bodyOf(n, "body")
		if err != nil {
			return nil, err
		}
		return ast.FunctionDefStmt{
			Name:     d.sym(d.str(n, "name")),
			Params:   params,
			Body:     body,
			Async:    d.boolean(n, "async"),
			Exported: d.boolean(n, "exported"),
		}, nil
	case "StructDef":
		fields, err := d.fieldDeclSlice(n, "fields")
		if err != nil {
			return nil, err
		}
		variants, err := d.variantDeclSlice(n, "variants")
		if err != nil {
			return nil, err
		}
		return ast.StructDefStmt{Name: d.sym(d.str(n, "name")), Fields: fields, Variants: variants}, nil
	case "PolicyDef":
		rules, err := d.policyRuleSlice(n, "rules")
		if err != nil {
			return nil, err
		}
		return ast.PolicyDefStmt{SubjectType: d.sym(d.str(n, "subjectType")), Rules: rules}, nil
	case "Zone":
		body, err := d.bodyOf(n, "body")
		if err != nil {
			return nil, err
		}
		return ast.ZoneStmt{Body: body}, nil
	case "Concurrent", "Parallel":
		tasks, err := d.taskSlice(n, "tasks")
		if err != nil {
			return nil, err
		}
		if kind == "Concurrent" {
			return ast.ConcurrentStmt{Tasks: tasks}, nil
		}
		return ast.ParallelStmt{Tasks: tasks}, nil
	case "Read":
		path, err := d.exprField(n, "path")
		if err != nil {
			return nil, err
		}
		return ast.ReadStmt{Path: path, Target: d.sym(d.str(n, "target"))}, nil
	case "Write":
		path, err := d.exprField(n, "path")
		if err != nil {
			return nil, err
		}
		val, err := d.exprField(n, "value")
		if err != nil {
			return nil, err
		}
		return ast.WriteStmt{Path: path, Value: val}, nil
	case "Mount":
		val, err := d.exprField(n, "value")
		if err != nil {
			return nil, err
		}
		return ast.MountStmt{Name: d.sym(d.str(n, "name")), Value: val}, nil
	case "Sleep":
		dur, err := d.exprField(n, "duration")
		if err != nil {
			return nil, err
		}
		return ast.SleepStmt{Duration: dur}, nil
	case "Sync":
		body, err := d.bodyOf(n, "body")
		if err != nil {
			return nil, err
		}
		return ast.SyncStmt{Body: body}, nil
	case "Spawn":
		body, err := d.bodyOf(n, "body")
		if err != nil {
			return nil, err
		}
		return ast.SpawnStmt{Body: body}, nil
	case "Send":
		val, err := d.exprField(n, "value")
		if err != nil {
			return nil, err
		}
		return ast.SendStmt{Pipe: d.sym(d.str(n, "pipe")), Value: val}, nil
	case "Receive":
		return ast.ReceiveStmt{Pipe: d.sym(d.str(n, "pipe")), Target: d.sym(d.str(n, "target"))}, nil
	case "Inspect":
		subj, err := d.exprField(n, "subject")
		if err != nil {
			return nil, err
		}
		arms, err := d.inspectArmSlice(n, "arms")
		if err != nil {
			return nil, err
		}
		return ast.InspectStmt{Subject: subj, Arms: arms}, nil
	case "Push", "Pop", "Add", "Remove":
		coll, err := d.exprField(n, "collection")
		if err != nil {
			return nil, err
		}
		var val ast.Expr
		if _, ok := n["value"]; ok {
			if val, err = d.exprField(n, "value"); err != nil {
				return nil, err
			}
		}
		ops := map[string]ast.CollectionOp{"Push": ast.CollPush, "Pop": ast.CollPop, "Add": ast.CollAdd, "Remove": ast.CollRemove}
		return ast.CollectionMutateStmt{Op: ops[kind], Collection: coll, Value: val}, nil
	case "Select":
		clauses, err := d.selectClauseSlice(n, "clauses")
		if err != nil {
			return nil, err
		}
		var timeout ast.Expr
		if _, ok := n["timeoutMs"]; ok {
			if timeout, err = d.exprField(n, "timeoutMs"); err != nil {
				return nil, err
			}
		}
		onTimeout, err := d.bodyOf(n, "onTimeout")
		if err != nil {
			return nil, err
		}
		return ast.SelectStmt{Clauses: clauses, TimeoutMs: timeout, OnTimeout: onTimeout}, nil
	case "Give":
		obj, err := d.exprField(n, "object")
		if err != nil {
			return nil, err
		}
		return ast.GiveStmt{Object: obj, To: d.sym(d.str(n, "to"))}, nil
	case "Show":
		obj, err := d.exprField(n, "object")
		if err != nil {
			return nil, err
		}
		return ast.ShowStmt{Object: obj, To: d.sym(d.str(n, "to"))}, nil
	case "Require":
		return ast.RequireStmt{Package: d.str(n, "package"), Version: d.str(n, "version")}, nil
	case "Escape":
		return ast.EscapeStmt{Code: d.str(n, "code")}, nil
	default:
		return nil, fmt.Errorf("fixture: unknown statement kind %q", kind)
	}
}

func (d *decoder) paramSlice(n node, key string) ([]ast.Param, error) {
	list, err := d.nodeSlice(n, key)
	if err != nil {
		return nil, err
	}
	out := make([]ast.Param, len(list))
	for i, p := range list {
		out[i] = ast.Param{Name: d.sym(d.str(p, "name"))}
	}
	return out, nil
}

func (d *decoder) fieldDeclSlice(n node, key string) ([]ast.FieldDecl, error) {
	list, err := d.nodeSlice(n, key)
	if err != nil {
		return nil, err
	}
	out := make([]ast.FieldDecl, len(list))
	for i, f := range list {
		out[i] = ast.FieldDecl{Name: d.sym(d.str(f, "name")), Synced: d.boolean(f, "synced")}
	}
	return out, nil
}

func (d *decoder) policyRuleSlice(n node, key string) ([]ast.PolicyRule, error) {
	list, err := d.nodeSlice(n, key)
	if err != nil {
		return nil, err
	}
	out := make([]ast.PolicyRule, len(list))
	for i, r := range list {
		cond, err := d.policyCondField(r, "condition")
		if err != nil {
			return nil, err
		}
		out[i] = ast.PolicyRule{
			Name:       d.sym(d.str(r, "name")),
			Capability: d.boolean(r, "capability"),
			Condition:  cond,
		}
	}
	return out, nil
}

func (d *decoder) policyCondField(n node, key string) (ast.PolicyCond, error) {
	c, ok := d.child(n, key)
	if !ok {
		return nil, fmt.Errorf("fixture: policy rule missing %q", key)
	}
	return d.policyCond(c)
}

func (d *decoder) policyCond(n node) (ast.PolicyCond, error) {
	switch kind := d.str(n, "kind"); kind {
	case "FieldEquals":
		return ast.PolicyFieldEquals{
			Field:           d.sym(d.str(n, "field")),
			Value:           d.str(n, "value"),
			IsStringLiteral: d.boolean(n, "isStringLiteral"),
		}, nil
	case "FieldBool":
		return ast.PolicyFieldBool{Field: d.sym(d.str(n, "field")), Value: d.boolean(n, "value")}, nil
	case "PredicateRef":
		return ast.PolicyPredicateRef{Name: d.sym(d.str(n, "name"))}, nil
	case "ObjectFieldEquals":
		return ast.PolicyObjectFieldEquals{
			SubjectField: d.sym(d.str(n, "subjectField")),
			ObjectField:  d.sym(d.str(n, "objectField")),
		}, nil
	case "Or", "And":
		left, err := d.policyCondField(n, "left")
		if err != nil {
			return nil, err
		}
		right, err := d.policyCondField(n, "right")
		if err != nil {
			return nil, err
		}
		if kind == "Or" {
			return ast.PolicyCondOr{Left: left, Right: right}, nil
		}
		return ast.PolicyCondAnd{Left: left, Right: right}, nil
	default:
		return nil, fmt.Errorf("fixture: unknown policy condition kind %q", kind)
	}
}

func (d *decoder) variantDeclSlice(n node, key string) ([]ast.VariantDecl, error) {
	list, err := d.nodeSlice(n, key)
	if err != nil {
		return nil, err
	}
	out := make([]ast.VariantDecl, len(list))
	for i, v := range list {
		fields, err := d.fieldDeclSlice(v, "fields")
		if err != nil {
			return nil, err
		}
		out[i] = ast.VariantDecl{Name: d.sym(d.str(v, "name")), Fields: fields}
	}
	return out, nil
}

func (d *decoder) inspectArmSlice(n node, key string) ([]ast.InspectArm, error) {
	list, err := d.nodeSlice(n, key)
	if err != nil {
		return nil, err
	}
	out := make([]ast.InspectArm, len(list))
	for i, a := range list {
		body, err := d.bodyOf(a, "body")
		if err != nil {
			return nil, err
		}
		bindingNames := d.strSlice(a, "bindings")
		bindings := make([]intern.Symbol, len(bindingNames))
		for j, b := range bindingNames {
			bindings[j] = d.sym(b)
		}
		arm := ast.InspectArm{Bindings: bindings, Body: body, Otherwise: d.boolean(a, "otherwise")}
		if !arm.Otherwise {
			arm.VariantName = d.sym(d.str(a, "variantName"))
		}
		out[i] = arm
	}
	return out, nil
}

func (d *decoder) selectClauseSlice(n node, key string) ([]ast.SelectClause, error) {
	list, err := d.nodeSlice(n, key)
	if err != nil {
		return nil, err
	}
	out := make([]ast.SelectClause, len(list))
	for i, c := range list {
		body, err := d.bodyOf(c, "body")
		if err != nil {
			return nil, err
		}
		out[i] = ast.SelectClause{Pipe: d.sym(d.str(c, "pipe")), Target: d.sym(d.str(c, "target")), Body: body}
	}
	return out, nil
}

func (d *decoder) taskSlice(n node, key string) ([]ast.TaskStmt, error) {
	list, err := d.nodeSlice(n, key)
	if err != nil {
		return nil, err
	}
	out := make([]ast.TaskStmt, len(list))
	for i, t := range list {
		body, err := d.bodyOf(t, "body")
		if err != nil {
			return nil, err
		}
		out[i] = ast.TaskStmt{Body: body}
	}
	return out, nil
}

// ---- expressions ------------------------------------------------------------

func (d *decoder) exprField(n node, key string) (ast.Expr, error) {
	c, ok := d.child(n, key)
	if !ok {
		return nil, fmt.Errorf("fixture: missing expression field %q", key)
	}
	return d.expr(c)
}

func (d *decoder) exprSlice(n node, key string) ([]ast.Expr, error) {
	list, err := d.nodeSlice(n, key)
	if err != nil {
		return nil, err
	}
	out := make([]ast.Expr, len(list))
	for i, e := range list {
		ex, err := d.expr(e)
		if err != nil {
			return nil, err
		}
		out[i] = ex
	}
	return out, nil
}

var binaryOps = map[string]ast.BinaryOp{
	"+": ast.Add, "-": ast.Sub, "*": ast.Mul, "/": ast.Div, "%": ast.Mod,
	"==": ast.Eq, "!=": ast.Neq, "<": ast.Lt, ">": ast.Gt, "<=": ast.Le, ">=": ast.Ge,
	"and": ast.And, "or": ast.Or, "++": ast.Concat,
	"xor": ast.BitXor, "shl": ast.Shl, "shr": ast.Shr,
}

func (d *decoder) expr(n node) (ast.Expr, error) {
	kind := d.str(n, "kind")
	switch kind {
	case "Int":
		return ast.LiteralExpr{Value: ast.IntLiteral{Value: int64(d.number(n, "value"))}}, nil
	case "Float":
		return ast.LiteralExpr{Value: ast.FloatLiteral{Value: d.number(n, "value")}}, nil
	case "Text":
		return ast.LiteralExpr{Value: ast.TextLiteral{Value: d.str(n, "value")}}, nil
	case "Bool":
		return ast.LiteralExpr{Value: ast.BoolLiteral{Value: d.boolean(n, "value")}}, nil
	case "Nothing":
		return ast.LiteralExpr{Value: ast.NothingLiteral{}}, nil
	case "Ident":
		return ast.IdentExpr{Name: d.sym(d.str(n, "name"))}, nil
	case "Binary":
		op, ok := binaryOps[d.str(n, "op")]
		if !ok {
			return nil, fmt.Errorf("fixture: unknown binary operator %q", d.str(n, "op"))
		}
		left, err := d.exprField(n, "left")
		if err != nil {
			return nil, err
		}
		right, err := d.exprField(n, "right")
		if err != nil {
			return nil, err
		}
		return ast.BinaryExpr{Op: op, Left: left, Right: right}, nil
	case "Call":
		args, err := d.exprSlice(n, "args")
		if err != nil {
			return nil, err
		}
		return ast.CallExpr{Function: d.sym(d.str(n, "function")), Args: args}, nil
	case "CallIndirect":
		callee, err := d.exprField(n, "callee")
		if err != nil {
			return nil, err
		}
		args, err := d.exprSlice(n, "args")
		if err != nil {
			return nil, err
		}
		return ast.CallIndirectExpr{Callee: callee, Args: args}, nil
	case "FieldAccess":
		obj, err := d.exprField(n, "object")
		if err != nil {
			return nil, err
		}
		return ast.FieldAccessExpr{Object: obj, Field: d.sym(d.str(n, "field"))}, nil
	case "Index":
		coll, err := d.exprField(n, "collection")
		if err != nil {
			return nil, err
		}
		idx, err := d.exprField(n, "index")
		if err != nil {
			return nil, err
		}
		return ast.IndexExpr{Collection: coll, Index: idx}, nil
	case "Slice":
		coll, err := d.exprField(n, "collection")
		if err != nil {
			return nil, err
		}
		var start, end ast.Expr
		if _, ok := n["start"]; ok {
			if start, err = d.exprField(n, "start"); err != nil {
				return nil, err
			}
		}
		if _, ok := n["end"]; ok {
			if end, err = d.exprField(n, "end"); err != nil {
				return nil, err
			}
		}
		return ast.SliceExpr{Collection: coll, Start: start, End: end}, nil
	case "List":
		items, err := d.exprSlice(n, "elements")
		if err != nil {
			return nil, err
		}
		return ast.ListExpr{Elements: items}, nil
	case "Tuple":
		items, err := d.exprSlice(n, "elements")
		if err != nil {
			return nil, err
		}
		return ast.TupleExpr{Elements: items}, nil
	case "Range":
		start, err := d.exprField(n, "start")
		if err != nil {
			return nil, err
		}
		end, err := d.exprField(n, "end")
		if err != nil {
			return nil, err
		}
		return ast.RangeExpr{Start: start, End: end}, nil
	case "Record":
		fields, err := d.fieldInitSlice(n, "fields")
		if err != nil {
			return nil, err
		}
		return ast.RecordExpr{TypeName: d.sym(d.str(n, "typeName")), Fields: fields}, nil
	case "Variant":
		fields, err := d.fieldInitSlice(n, "fields")
		if err != nil {
			return nil, err
		}
		return ast.VariantExpr{TypeName: d.sym(d.str(n, "typeName")), VariantName: d.sym(d.str(n, "variantName")), Fields: fields}, nil
	case "Copy":
		obj, err := d.exprField(n, "object")
		if err != nil {
			return nil, err
		}
		return ast.CopyExpr{Object: obj}, nil
	case "GiveExpr":
		obj, err := d.exprField(n, "object")
		if err != nil {
			return nil, err
		}
		return ast.GiveExpr{Object: obj}, nil
	case "Length":
		obj, err := d.exprField(n, "object")
		if err != nil {
			return nil, err
		}
		return ast.LengthExpr{Object: obj}, nil
	case "Contains":
		coll, err := d.exprField(n, "collection")
		if err != nil {
			return nil, err
		}
		needle, err := d.exprField(n, "needle")
		if err != nil {
			return nil, err
		}
		return ast.ContainsExpr{Collection: coll, Needle: needle}, nil
	case "SetUnion":
		left, err := d.exprField(n, "left")
		if err != nil {
			return nil, err
		}
		right, err := d.exprField(n, "right")
		if err != nil {
			return nil, err
		}
		return ast.SetUnionExpr{Left: left, Right: right}, nil
	case "SetIntersect":
		left, err := d.exprField(n, "left")
		if err != nil {
			return nil, err
		}
		right, err := d.exprField(n, "right")
		if err != nil {
			return nil, err
		}
		return ast.SetIntersectExpr{Left: left, Right: right}, nil
	case "Some":
		val, err := d.exprField(n, "value")
		if err != nil {
			return nil, err
		}
		return ast.OptionSomeExpr{Value: val}, nil
	case "None":
		return ast.OptionNoneExpr{}, nil
	case "Closure":
		params := d.strSlice(n, "params")
		syms := make([]intern.Symbol, len(params))
		for i, p := range params {
			syms[i] = d.sym(p)
		}
		if _, ok := n["body"]; ok {
			body, err := d.exprField(n, "body")
			if err != nil {
				return nil, err
			}
			return ast.ClosureExpr{Params: syms, Body: body}, nil
		}
		block, err := d.bodyOf(n, "block")
		if err != nil {
			return nil, err
		}
		return ast.ClosureExpr{Params: syms, Block: block}, nil
	case "Interpolated":
		list, err := d.nodeSlice(n, "parts")
		if err != nil {
			return nil, err
		}
		parts := make([]ast.StringPart, len(list))
		for i, p := range list {
			if _, hasValue := p["value"]; !hasValue {
				parts[i] = ast.StringPart{Literal: d.str(p, "literal")}
				continue
			}
			val, err := d.exprField(p, "value")
			if err != nil {
				return nil, err
			}
			parts[i] = ast.StringPart{Value: val, FormatSpec: d.str(p, "formatSpec"), Debug: d.boolean(p, "debug")}
		}
		return ast.InterpolatedStringExpr{Parts: parts}, nil
	case "WithCapacity":
		cap, err := d.exprField(n, "capacity")
		if err != nil {
			return nil, err
		}
		inner, err := d.exprField(n, "inner")
		if err != nil {
			return nil, err
		}
		return ast.WithCapacityExpr{Capacity: cap, Inner: inner}, nil
	case "Escape":
		return ast.EscapeExpr{Code: d.str(n, "code")}, nil
	default:
		return nil, fmt.Errorf("fixture: unknown expression kind %q", kind)
	}
}

func (d *decoder) fieldInitSlice(n node, key string) ([]ast.FieldInit, error) {
	list, err := d.nodeSlice(n, key)
	if err != nil {
		return nil, err
	}
	out := make([]ast.FieldInit, len(list))
	for i, f := range list {
		val, err := d.exprField(f, "value")
		if err != nil {
			return nil, err
		}
		out[i] = ast.FieldInit{Name: d.sym(d.str(f, "name")), Value: val}
	}
	return out, nil
}

// ---- logic formulas ----------------------------------------------------------

// logicField decodes an optional logic formula field, defaulting to a
// trivially-true predicate when absent; fixtures that don't care about
// theorem content can omit it entirely.
func (d *decoder) logicField(n node, key string) (ast.LogicExpr, error) {
	c, ok := d.child(n, key)
	if !ok {
		return ast.PredicateApp{Predicate: d.sym("true")}, nil
	}
	return d.logic(c)
}

var logicConnectives = map[string]ast.LogicConnective{
	"and": ast.LAnd, "or": ast.LOr, "implies": ast.LImplies, "iff": ast.LIff,
}

func (d *decoder) logic(n node) (ast.LogicExpr, error) {
	kind := d.str(n, "kind")
	switch kind {
	case "Predicate":
		args, err := d.exprSlice(n, "args")
		if err != nil {
			return nil, err
		}
		return ast.PredicateApp{Predicate: d.sym(d.str(n, "predicate")), Args: args}, nil
	case "Not":
		operand, err := d.logicField(n, "operand")
		if err != nil {
			return nil, err
		}
		return ast.LogicNot{Operand: operand}, nil
	case "Binary":
		conn, ok := logicConnectives[d.str(n, "op")]
		if !ok {
			return nil, fmt.Errorf("fixture: unknown logic connective %q", d.str(n, "op"))
		}
		left, err := d.logicField(n, "left")
		if err != nil {
			return nil, err
		}
		right, err := d.logicField(n, "right")
		if err != nil {
			return nil, err
		}
		return ast.LogicBinary{Op: conn, Left: left, Right: right}, nil
	case "Identity":
		left, err := d.exprField(n, "left")
		if err != nil {
			return nil, err
		}
		right, err := d.exprField(n, "right")
		if err != nil {
			return nil, err
		}
		return ast.Identity{Left: left, Right: right}, nil
	case "Comparative":
		op, ok := binaryOps[d.str(n, "op")]
		if !ok {
			return nil, fmt.Errorf("fixture: unknown comparative operator %q", d.str(n, "op"))
		}
		left, err := d.exprField(n, "left")
		if err != nil {
			return nil, err
		}
		right, err := d.exprField(n, "right")
		if err != nil {
			return nil, err
		}
		return ast.Comparative{Op: op, Left: left, Right: right}, nil
	default:
		return nil, fmt.Errorf("fixture: unknown logic kind %q", kind)
	}
}
