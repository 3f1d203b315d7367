package interp

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Brahmastra-Labs/logicaffeine-sub002/ast"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/intern"
)

// PolicyCondition is one leaf or combinator of a capability/predicate's
// guard expression (FieldEquals/FieldBool/Predicate/ObjectFieldEquals/
// Or/And).
type PolicyCondition interface {
	policyCondition()
}

type (
	// FieldEquals compares a struct field against a literal. IsStringLiteral
	// disambiguates a quoted numeric/bool literal ("3", "true") -- which
	// never matches an Int or Bool field -- from an unquoted one that does.
	FieldEquals struct {
		Field           intern.Symbol
		Value           string
		IsStringLiteral bool
	}

	// FieldBool compares a Bool struct field against a literal true/false.
	FieldBool struct {
		Field intern.Symbol
		Value bool
	}

	// Predicate defers to another predicate defined on the same subject
	// type, looked up by name in the same registry at evaluation time.
	Predicate struct {
		Name intern.Symbol
	}

	// ObjectFieldEquals compares a field of the subject against a field of
	// the check's object argument (e.g. "document.owner == user.id").
	ObjectFieldEquals struct {
		SubjectField intern.Symbol
		ObjectField  intern.Symbol
	}

	PolicyOr  struct{ Left, Right PolicyCondition }
	PolicyAnd struct{ Left, Right PolicyCondition }
)

func (FieldEquals) policyCondition()       {}
func (FieldBool) policyCondition()         {}
func (Predicate) policyCondition()         {}
func (ObjectFieldEquals) policyCondition() {}
func (PolicyOr) policyCondition()          {}
func (PolicyAnd) policyCondition()         {}

// Capability is one named, conditional action a subject type grants (a
// "can" rule): the Check statement's is_capability=true arm looks these up
// by action name.
type Capability struct {
	Action    intern.Symbol
	Condition PolicyCondition
}

// PredicateDef is one named boolean fact a subject type defines (an "is"
// rule): the Check statement's is_capability=false arm looks these up by
// predicate name.
type PredicateDef struct {
	Name      intern.Symbol
	Condition PolicyCondition
}

// PolicyRegistry catalogs the capabilities and predicates declared in a
// program's policy blocks, keyed by the subject type they guard.
// BuildPolicies assembles one from a program's PolicyDefStmt declarations.
// Interpreter.Exec consults it for every SecurityCheckStmt; a program with
// no policy block runs with a nil registry, which fails every check rather
// than passing it vacuously.
type PolicyRegistry struct {
	capabilities map[intern.Symbol][]Capability
	predicates   map[intern.Symbol][]PredicateDef
}

// NewPolicyRegistry returns an empty registry ready for AddCapability/
// AddPredicate.
func NewPolicyRegistry() *PolicyRegistry {
	return &PolicyRegistry{
		capabilities: map[intern.Symbol][]Capability{},
		predicates:   map[intern.Symbol][]PredicateDef{},
	}
}

// AddCapability registers a capability rule for subjectType.
func (r *PolicyRegistry) AddCapability(subjectType intern.Symbol, cap Capability) {
	r.capabilities[subjectType] = append(r.capabilities[subjectType], cap)
}

// AddPredicate registers a predicate rule for subjectType.
func (r *PolicyRegistry) AddPredicate(subjectType intern.Symbol, pred PredicateDef) {
	r.predicates[subjectType] = append(r.predicates[subjectType], pred)
}

func (r *PolicyRegistry) capability(subjectType, action intern.Symbol) (Capability, bool) {
	for _, c := range r.capabilities[subjectType] {
		if c.Action == action {
			return c, true
		}
	}
	return Capability{}, false
}

func (r *PolicyRegistry) predicate(subjectType, name intern.Symbol) (PredicateDef, bool) {
	for _, p := range r.predicates[subjectType] {
		if p.Name == name {
			return p, true
		}
	}
	return PredicateDef{}, false
}

// WithPolicies attaches registry so subsequent SecurityCheckStmt execution
// can evaluate against it.
func (it *Interpreter) WithPolicies(registry *PolicyRegistry) *Interpreter {
	it.Policies = registry
	return it
}

// execSecurityCheck runs a SecurityCheckStmt against it.Policies, mirroring
// Stmt::Check: a program with no policy block fails every check rather than
// passing it vacuously, since there is nothing to evaluate the check
// against. A Check with an Object is a capability check (a named action a
// subject may perform on something); one without is a predicate check (a
// named fact about the subject alone) -- the same distinction
// lowerSecurityCheck draws in codegen/stmt to decide whether to pass an
// object argument to LogosRequireCapability.
func (it *Interpreter) execSecurityCheck(ctx context.Context, s ast.SecurityCheckStmt) (signal, error) {
	if it.Policies == nil {
		return signal{}, fmt.Errorf("security check requires policies: use compiled mode or add a Policy block")
	}

	subjVal, err := it.Eval(ctx, s.Subject)
	if err != nil {
		return signal{}, err
	}
	subj, ok := subjVal.(*StructValue)
	if !ok {
		return signal{}, fmt.Errorf("security check subject must be a struct, got %s", subjVal.TypeName())
	}
	subjType := it.Interner.Intern(subj.Type)
	predicateName := it.Interner.MustResolve(s.Predicate)

	var passed bool
	if s.Object != nil {
		objVal, err := it.Eval(ctx, s.Object)
		if err != nil {
			return signal{}, err
		}
		cap, ok := it.Policies.capability(subjType, s.Predicate)
		if !ok {
			return signal{}, fmt.Errorf("no capability %q defined for type %q", predicateName, subj.Type)
		}
		passed = it.evaluatePolicyCondition(cap.Condition, subj, objVal)
	} else {
		pred, ok := it.Policies.predicate(subjType, s.Predicate)
		if !ok {
			return signal{}, fmt.Errorf("no predicate %q defined for type %q", predicateName, subj.Type)
		}
		passed = it.evaluatePolicyCondition(pred.Condition, subj, nil)
	}

	if !passed {
		return signal{}, fmt.Errorf("security check failed: %q at byte %d-%d", predicateName, s.Span.Start, s.Span.End)
	}
	return signal{kind: sigContinue}, nil
}

// evaluatePolicyCondition walks condition against subject (and, for
// ObjectFieldEquals, object). A condition that can't apply to the value
// it's given (a non-Struct subject, a missing field, an absent object)
// evaluates to false rather than erroring -- the fail-closed default.
func (it *Interpreter) evaluatePolicyCondition(condition PolicyCondition, subject, object Value) bool {
	switch c := condition.(type) {
	case FieldEquals:
		s, ok := subject.(*StructValue)
		if !ok {
			return false
		}
		fieldVal, ok := s.Fields[it.Interner.MustResolve(c.Field)]
		if !ok {
			return false
		}
		switch fv := fieldVal.(type) {
		case TextValue:
			return string(fv) == c.Value
		case IntValue:
			if c.IsStringLiteral {
				return false
			}
			n, err := strconv.ParseInt(c.Value, 10, 64)
			if err != nil {
				return false
			}
			return int64(fv) == n
		case BoolValue:
			if c.IsStringLiteral {
				return false
			}
			return (c.Value == "true" && bool(fv)) || (c.Value == "false" && !bool(fv))
		default:
			return false
		}

	case FieldBool:
		s, ok := subject.(*StructValue)
		if !ok {
			return false
		}
		b, ok := s.Fields[it.Interner.MustResolve(c.Field)].(BoolValue)
		if !ok {
			return false
		}
		return bool(b) == c.Value

	case Predicate:
		if it.Policies == nil {
			return false
		}
		s, ok := subject.(*StructValue)
		if !ok {
			return false
		}
		typeSym := it.Interner.Intern(s.Type)
		pred, ok := it.Policies.predicate(typeSym, c.Name)
		if !ok {
			return false
		}
		return it.evaluatePolicyCondition(pred.Condition, subject, object)

	case ObjectFieldEquals:
		if object == nil {
			return false
		}
		subjS, ok := subject.(*StructValue)
		if !ok {
			return false
		}
		objS, ok := object.(*StructValue)
		if !ok {
			return false
		}
		subjVal, ok := subjS.Fields[it.Interner.MustResolve(c.SubjectField)]
		if !ok {
			return false
		}
		objVal, ok := objS.Fields[it.Interner.MustResolve(c.ObjectField)]
		if !ok {
			return false
		}
		return valuesEqual(subjVal, objVal)

	case PolicyOr:
		return it.evaluatePolicyCondition(c.Left, subject, object) || it.evaluatePolicyCondition(c.Right, subject, object)

	case PolicyAnd:
		return it.evaluatePolicyCondition(c.Left, subject, object) && it.evaluatePolicyCondition(c.Right, subject, object)

	default:
		return false
	}
}
