package interp

import "github.com/Brahmastra-Labs/logicaffeine-sub002/ast"

// BuildPolicies scans stmts for PolicyDefStmt declarations and populates a
// registry from them, the same collect-then-query shape typeregistry.Build
// applies to struct declarations. A program with no policy blocks yields
// an empty registry; callers that want the fail-closed nil-registry
// behavior for such programs should check Empty before attaching it.
func BuildPolicies(stmts []ast.Stmt) *PolicyRegistry {
	r := NewPolicyRegistry()
	r.collect(stmts)
	return r
}

func (r *PolicyRegistry) collect(stmts []ast.Stmt) {
	for _, s := range stmts {
		switch v := s.(type) {
		case ast.PolicyDefStmt:
			for _, rule := range v.Rules {
				if rule.Capability {
					r.AddCapability(v.SubjectType, Capability{Action: rule.Name, Condition: conditionFromAST(rule.Condition)})
				} else {
					r.AddPredicate(v.SubjectType, PredicateDef{Name: rule.Name, Condition: conditionFromAST(rule.Condition)})
				}
			}
		case ast.FunctionDefStmt:
			r.collect(v.Body)
		case ast.IfStmt:
			r.collect(v.Then)
			r.collect(v.Else)
		case ast.WhileStmt:
			r.collect(v.Body)
		case ast.RepeatStmt:
			r.collect(v.Body)
		case ast.ZoneStmt:
			r.collect(v.Body)
		}
	}
}

// Empty reports whether the registry holds no rules at all, so a driver can
// distinguish "the program declared no policies" (leave the interpreter's
// registry nil, failing every check) from an intentionally empty one.
func (r *PolicyRegistry) Empty() bool {
	return len(r.capabilities) == 0 && len(r.predicates) == 0
}

// conditionFromAST converts a declared guard expression into the runtime
// condition shape evaluatePolicyCondition walks.
func conditionFromAST(c ast.PolicyCond) PolicyCondition {
	switch v := c.(type) {
	case ast.PolicyFieldEquals:
		return FieldEquals{Field: v.Field, Value: v.Value, IsStringLiteral: v.IsStringLiteral}
	case ast.PolicyFieldBool:
		return FieldBool{Field: v.Field, Value: v.Value}
	case ast.PolicyPredicateRef:
		return Predicate{Name: v.Name}
	case ast.PolicyObjectFieldEquals:
		return ObjectFieldEquals{SubjectField: v.SubjectField, ObjectField: v.ObjectField}
	case ast.PolicyCondOr:
		return PolicyOr{Left: conditionFromAST(v.Left), Right: conditionFromAST(v.Right)}
	case ast.PolicyCondAnd:
		return PolicyAnd{Left: conditionFromAST(v.Left), Right: conditionFromAST(v.Right)}
	default:
		return nil
	}
}
