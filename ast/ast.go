// Package ast defines the data model shared by the ownership analyzer, the
// codegen context, and the interpreter: statements, expressions, types, and
// logic formulas. Nodes are owned by whichever Program produced them; this
// package never mutates a node once constructed, and downstream phases only
// borrow the tree.
package ast

import "github.com/Brahmastra-Labs/logicaffeine-sub002/intern"

// Span is a half-open source byte range carried on diagnostics.
type Span struct {
	Start, End int
}

// Program is the root of a parsed translation unit: a flat list of top-level
// statements. The lexer/parser that produces a Program is out of scope for
// this module; Program is the contract they hand us.
type Program struct {
	Stmts []Stmt
}

// ---- Types ----------------------------------------------------------------

// TypeExpr is the sum type of L's type syntax.
type TypeExpr interface {
	typeExpr()
}

type (
	// PrimitiveType names a built-in scalar such as Int, Nat, Float, Bool,
	// Char, Byte, or Text.
	PrimitiveType struct {
		Name intern.Symbol
	}

	// NamedType references a user-defined record or tagged union by name.
	NamedType struct {
		Name intern.Symbol
	}

	// GenericType instantiates a parameterized container, e.g. Seq of Int.
	GenericType struct {
		Base   intern.Symbol
		Params []TypeExpr
	}

	// FunctionType is a first-class function signature.
	FunctionType struct {
		Inputs []TypeExpr
		Output TypeExpr
	}

	// RefinementType is a base type narrowed by a predicate over a bound
	// variable, e.g. "a Nat where it > 0".
	RefinementType struct {
		Base      TypeExpr
		Var       intern.Symbol
		Predicate LogicExpr
	}
)

func (PrimitiveType) typeExpr()  {}
func (NamedType) typeExpr()      {}
func (GenericType) typeExpr()    {}
func (FunctionType) typeExpr()   {}
func (RefinementType) typeExpr() {}

// ---- Literals ---------------------------------------------------------------

// Literal is the sum type of constant values appearing directly in source.
type Literal interface {
	literal()
}

type (
	IntLiteral      struct{ Value int64 }
	FloatLiteral    struct{ Value float64 }
	TextLiteral     struct{ Value string }
	BoolLiteral     struct{ Value bool }
	CharLiteral     struct{ Value rune }
	NothingLiteral  struct{}
	DurationLiteral struct{ Nanos int64 }
	DateLiteral     struct{ Days int32 }
	MomentLiteral   struct{ Nanos int64 }
	SpanLiteral     struct{ Months, Days int32 }
	TimeOfDayLiteral struct{ Nanos int64 }
)

func (IntLiteral) literal()       {}
func (FloatLiteral) literal()     {}
func (TextLiteral) literal()      {}
func (BoolLiteral) literal()      {}
func (CharLiteral) literal()      {}
func (NothingLiteral) literal()   {}
func (DurationLiteral) literal()  {}
func (DateLiteral) literal()      {}
func (MomentLiteral) literal()    {}
func (SpanLiteral) literal()      {}
func (TimeOfDayLiteral) literal() {}

// ---- Expressions ------------------------------------------------------------

// BinaryOp enumerates the binary operators of L.
type BinaryOp int

const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	Mod
	Eq
	Neq
	Lt
	Gt
	Le
	Ge
	And
	Or
	Concat
	BitXor
	Shl
	Shr
)

// Expr is the sum type of L's expression syntax.
type Expr interface {
	expr()
}

type (
	LiteralExpr struct {
		Value Literal
		Span  Span
	}

	IdentExpr struct {
		Name intern.Symbol
		Span Span
	}

	BinaryExpr struct {
		Op          BinaryOp
		Left, Right Expr
		Span        Span
	}

	// CallExpr invokes a statically named function.
	CallExpr struct {
		Function intern.Symbol
		Args     []Expr
		Span     Span
	}

	// CallIndirectExpr invokes a first-class callee expression.
	CallIndirectExpr struct {
		Callee Expr
		Args   []Expr
		Span   Span
	}

	FieldAccessExpr struct {
		Object Expr
		Field  intern.Symbol
		Span   Span
	}

	IndexExpr struct {
		Collection Expr
		Index      Expr
		Span       Span
	}

	SliceExpr struct {
		Collection Expr
		Start, End Expr // either may be nil for an open bound
		Span       Span
	}

	ListExpr struct {
		Elements []Expr
		Span     Span
	}

	TupleExpr struct {
		Elements []Expr
		Span     Span
	}

	RangeExpr struct {
		Start, End Expr
		Span       Span
	}

	// FieldInit binds a field name to a value inside a record or variant
	// construction.
	FieldInit struct {
		Name  intern.Symbol
		Value Expr
	}

	// RecordExpr constructs a record value, optionally generic.
	RecordExpr struct {
		TypeName intern.Symbol
		TypeArgs []TypeExpr
		Fields   []FieldInit
		Span     Span
	}

	// VariantExpr constructs a tagged-union value.
	VariantExpr struct {
		TypeName    intern.Symbol
		VariantName intern.Symbol
		Fields      []FieldInit
		Span        Span
	}

	// CopyExpr explicitly duplicates a value.
	CopyExpr struct {
		Object Expr
		Span   Span
	}

	// GiveExpr marks a move of Object's ownership.
	GiveExpr struct {
		Object Expr
		Span   Span
	}

	LengthExpr struct {
		Object Expr
		Span   Span
	}

	ContainsExpr struct {
		Collection, Needle Expr
		Span                Span
	}

	SetUnionExpr struct {
		Left, Right Expr
		Span        Span
	}

	SetIntersectExpr struct {
		Left, Right Expr
		Span        Span
	}

	OptionSomeExpr struct {
		Value Expr
		Span  Span
	}

	OptionNoneExpr struct {
		Span Span
	}

	// WithCapacityExpr hints a pre-allocation size for a subsequent
	// collection literal or call.
	WithCapacityExpr struct {
		Capacity Expr
		Inner    Expr
		Span     Span
	}

	// StringPart is one piece of an interpolated string literal.
	StringPart struct {
		// Literal is the raw text piece; Value is nil.
		Literal string
		// Value is a hole expression; Literal is "".
		Value Expr
		// FormatSpec is the optional format specifier for a hole
		// (e.g. "$" for currency, ".2" for precision).
		FormatSpec string
		// Debug prepends "<source>=" to the hole's rendered value.
		Debug bool
	}

	InterpolatedStringExpr struct {
		Parts []StringPart
		Span  Span
	}

	// ClosureExpr is a first-class function literal. Exactly one of Body
	// or Block is set.
	ClosureExpr struct {
		Params []intern.Symbol
		Body   Expr
		Block  []Stmt
		Span   Span
	}

	// EscapeExpr is opaque host-language code passed through verbatim.
	EscapeExpr struct {
		Code string
		Span Span
	}
)

func (LiteralExpr) expr()            {}
func (IdentExpr) expr()              {}
func (BinaryExpr) expr()             {}
func (CallExpr) expr()               {}
func (CallIndirectExpr) expr()       {}
func (FieldAccessExpr) expr()        {}
func (IndexExpr) expr()              {}
func (SliceExpr) expr()              {}
func (ListExpr) expr()               {}
func (TupleExpr) expr()              {}
func (RangeExpr) expr()              {}
func (RecordExpr) expr()             {}
func (VariantExpr) expr()            {}
func (CopyExpr) expr()               {}
func (GiveExpr) expr()               {}
func (LengthExpr) expr()             {}
func (ContainsExpr) expr()           {}
func (SetUnionExpr) expr()           {}
func (SetIntersectExpr) expr()       {}
func (OptionSomeExpr) expr()         {}
func (OptionNoneExpr) expr()         {}
func (WithCapacityExpr) expr()       {}
func (InterpolatedStringExpr) expr() {}
func (ClosureExpr) expr()            {}
func (EscapeExpr) expr()             {}

// SpanOf extracts the source span from any Expr that carries one; it returns
// the zero Span for variants that do not (FieldInit-less leaves).
func SpanOf(e Expr) Span {
	switch v := e.(type) {
	case LiteralExpr:
		return v.Span
	case IdentExpr:
		return v.Span
	case BinaryExpr:
		return v.Span
	case CallExpr:
		return v.Span
	case CallIndirectExpr:
		return v.Span
	case FieldAccessExpr:
		return v.Span
	case IndexExpr:
		return v.Span
	case SliceExpr:
		return v.Span
	case ListExpr:
		return v.Span
	case TupleExpr:
		return v.Span
	case RangeExpr:
		return v.Span
	case RecordExpr:
		return v.Span
	case VariantExpr:
		return v.Span
	case CopyExpr:
		return v.Span
	case GiveExpr:
		return v.Span
	case LengthExpr:
		return v.Span
	case ContainsExpr:
		return v.Span
	case SetUnionExpr:
		return v.Span
	case SetIntersectExpr:
		return v.Span
	case OptionSomeExpr:
		return v.Span
	case OptionNoneExpr:
		return v.Span
	case WithCapacityExpr:
		return v.Span
	case InterpolatedStringExpr:
		return v.Span
	case ClosureExpr:
		return v.Span
	case EscapeExpr:
		return v.Span
	default:
		return Span{}
	}
}

// ---- Statements -------------------------------------------------------------

// Stmt is the sum type of L's statement syntax.
type Stmt interface {
	stmt()
}

type (
	LetStmt struct {
		Var      intern.Symbol
		Type     TypeExpr // nil if not annotated
		Value    Expr
		Mutable  bool
		Span     Span
	}

	SetStmt struct {
		Var   intern.Symbol
		Value Expr
		Span  Span
	}

	SetFieldStmt struct {
		Object Expr
		Field  intern.Symbol
		Value  Expr
		Span   Span
	}

	SetIndexStmt struct {
		Collection Expr
		Index      Expr
		Value      Expr
		Span       Span
	}

	CallStmt struct {
		Function intern.Symbol
		Args     []Expr
		Span     Span
	}

	IfStmt struct {
		Cond       Expr
		Then, Else []Stmt // Else is nil when absent
		Span       Span
	}

	WhileStmt struct {
		Cond Expr
		Body []Stmt
		Span Span
	}

	// RepeatPattern is either a single bound identifier or a tuple
	// destructuring pattern.
	RepeatPattern struct {
		Single intern.Symbol   // used when Tuple is nil
		Tuple  []intern.Symbol // used for "for (k, v) in ..."
	}

	RepeatStmt struct {
		Pattern  RepeatPattern
		Iterable Expr
		Body     []Stmt
		Span     Span
	}

	ReturnStmt struct {
		Value Expr // nil for bare return
		Span  Span
	}

	AssertStmt struct {
		Prop LogicExpr
		Span Span
	}

	// TrustStmt is an assertion paired with a human justification; it is
	// still checked, but the justification is carried for diagnostics.
	TrustStmt struct {
		Prop          LogicExpr
		Justification string
		Span          Span
	}

	// RuntimeAssertStmt is a plain boolean runtime check (no logic kernel
	// involvement), e.g. division-by-zero or bounds guards inserted by
	// lowering.
	RuntimeAssertStmt struct {
		Cond    Expr
		Message string
		Span    Span
	}

	// SecurityCheckStmt guards a statement on a capability/predicate check
	// against a subject.
	SecurityCheckStmt struct {
		Subject   Expr
		Predicate intern.Symbol
		Object    Expr // nil when the predicate takes no object
		Span      Span
	}

	Param struct {
		Name intern.Symbol
		Type TypeExpr
	}

	FunctionDefStmt struct {
		Name     intern.Symbol
		Params   []Param
		Output   TypeExpr // nil for no declared return type
		Body     []Stmt
		Async    bool
		Exported bool
		Span     Span
	}

	FieldDecl struct {
		Name intern.Symbol
		Type TypeExpr
		// Synced marks the field as backed by a replicated store: reads
		// become remote fetches and writes go through a commit wrapper.
		Synced bool
	}

	VariantDecl struct {
		Name   intern.Symbol
		Fields []FieldDecl
	}

	StructDefStmt struct {
		Name     intern.Symbol
		TypeArgs []intern.Symbol
		Fields   []FieldDecl // set for a plain record
		Variants []VariantDecl // set for a tagged union
		Span     Span
	}

	// PolicyRule is one rule of a policy block: a capability ("can" rule,
	// looked up by action name when a security check carries an object) or
	// a predicate ("is" rule, looked up by name for an object-less check),
	// guarded by a condition over the subject.
	PolicyRule struct {
		Name       intern.Symbol
		Capability bool
		Condition  PolicyCond
	}

	// PolicyDefStmt declares the capability and predicate rules guarding
	// one subject type. Security checks against that type are evaluated
	// (interpreter) or lowered to guard methods (codegen) using these
	// rules.
	PolicyDefStmt struct {
		SubjectType intern.Symbol
		Rules       []PolicyRule
		Span        Span
	}

	// InspectArm is one arm of a pattern match; VariantName is empty for
	// the trailing "otherwise" arm.
	InspectArm struct {
		VariantName intern.Symbol
		Bindings    []intern.Symbol
		Body        []Stmt
		Otherwise   bool
	}

	InspectStmt struct {
		Subject Expr
		Arms    []InspectArm
		Span    Span
	}

	// CollectionOp enumerates the mutation verbs lowering distinguishes.
	CollectionOp int

	CollectionMutateStmt struct {
		Op         CollectionOp
		Collection Expr
		Value      Expr // nil for Pop/Remove-by-nothing
		Span       Span
	}

	ZoneStmt struct {
		Body []Stmt
		Span Span
	}

	// TaskStmt is one statement sequence of a Concurrent/Parallel block.
	TaskStmt struct {
		Body []Stmt
	}

	ConcurrentStmt struct {
		Tasks []TaskStmt
		Span  Span
	}

	ParallelStmt struct {
		Tasks []TaskStmt
		Span  Span
	}

	ReadStmt struct {
		Path   Expr
		Target intern.Symbol
		Span   Span
	}

	WriteStmt struct {
		Path  Expr
		Value Expr
		Span  Span
	}

	MountStmt struct {
		Name  intern.Symbol
		Value Expr
		Span  Span
	}

	SleepStmt struct {
		Duration Expr
		Span     Span
	}

	SyncStmt struct {
		Body []Stmt
		Span Span
	}

	SpawnStmt struct {
		Body []Stmt
		Span Span
	}

	SendStmt struct {
		Pipe  intern.Symbol
		Value Expr
		Span  Span
	}

	ReceiveStmt struct {
		Pipe   intern.Symbol
		Target intern.Symbol
		Span   Span
	}

	SelectClause struct {
		Pipe   intern.Symbol
		Target intern.Symbol
		Body   []Stmt
	}

	SelectStmt struct {
		Clauses   []SelectClause
		TimeoutMs Expr // nil when no timeout clause is present
		OnTimeout []Stmt
		Span      Span
	}

	GiveStmt struct {
		Object Expr
		To     intern.Symbol
		Span   Span
	}

	ShowStmt struct {
		Object Expr
		To     intern.Symbol
		Span   Span
	}

	RequireStmt struct {
		Package string
		Version string
		Span    Span
	}

	TheoremStmt struct {
		Name  intern.Symbol
		Prop  LogicExpr
		Span  Span
	}

	// EscapeStmt is opaque host-language code, pass-through for lowering
	// and invisible to the ownership analyzer.
	EscapeStmt struct {
		Code string
		Span Span
	}
)

const (
	CollPush CollectionOp = iota
	CollPop
	CollAdd
	CollRemove
)

// PolicyCond is the sum type of a policy rule's guard expression.
type PolicyCond interface {
	policyCond()
}

type (
	// PolicyFieldEquals compares a subject field against a literal.
	// IsStringLiteral distinguishes a quoted literal ("3", "true") from an
	// unquoted numeric/bool one; a quoted literal never matches an Int or
	// Bool field.
	PolicyFieldEquals struct {
		Field           intern.Symbol
		Value           string
		IsStringLiteral bool
	}

	// PolicyFieldBool compares a Bool subject field against true/false.
	PolicyFieldBool struct {
		Field intern.Symbol
		Value bool
	}

	// PolicyPredicateRef defers to another predicate rule defined on the
	// same subject type.
	PolicyPredicateRef struct {
		Name intern.Symbol
	}

	// PolicyObjectFieldEquals compares a subject field against a field of
	// the check's object argument.
	PolicyObjectFieldEquals struct {
		SubjectField intern.Symbol
		ObjectField  intern.Symbol
	}

	PolicyCondOr  struct{ Left, Right PolicyCond }
	PolicyCondAnd struct{ Left, Right PolicyCond }
)

func (PolicyFieldEquals) policyCond()       {}
func (PolicyFieldBool) policyCond()         {}
func (PolicyPredicateRef) policyCond()      {}
func (PolicyObjectFieldEquals) policyCond() {}
func (PolicyCondOr) policyCond()            {}
func (PolicyCondAnd) policyCond()           {}

func (LetStmt) stmt()              {}
func (SetStmt) stmt()              {}
func (SetFieldStmt) stmt()         {}
func (SetIndexStmt) stmt()         {}
func (CallStmt) stmt()             {}
func (IfStmt) stmt()               {}
func (WhileStmt) stmt()            {}
func (RepeatStmt) stmt()           {}
func (ReturnStmt) stmt()           {}
func (AssertStmt) stmt()           {}
func (TrustStmt) stmt()            {}
func (RuntimeAssertStmt) stmt()    {}
func (SecurityCheckStmt) stmt()    {}
func (FunctionDefStmt) stmt()      {}
func (StructDefStmt) stmt()        {}
func (PolicyDefStmt) stmt()        {}
func (InspectStmt) stmt()          {}
func (CollectionMutateStmt) stmt() {}
func (ZoneStmt) stmt()             {}
func (ConcurrentStmt) stmt()       {}
func (ParallelStmt) stmt()         {}
func (ReadStmt) stmt()             {}
func (WriteStmt) stmt()            {}
func (MountStmt) stmt()            {}
func (SleepStmt) stmt()            {}
func (SyncStmt) stmt()             {}
func (SpawnStmt) stmt()            {}
func (SendStmt) stmt()             {}
func (ReceiveStmt) stmt()          {}
func (SelectStmt) stmt()           {}
func (GiveStmt) stmt()             {}
func (ShowStmt) stmt()             {}
func (RequireStmt) stmt()          {}
func (TheoremStmt) stmt()          {}
func (EscapeStmt) stmt()           {}

// ---- Logic formulas ---------------------------------------------------------

// LogicExpr is the sum type consumed by the assertion emitter and, for
// theorems, by the (out-of-scope) logic kernel. This module treats kernel
// elaboration as an external contract; see package logic.
type LogicExpr interface {
	logicExpr()
}

// Quantifier enumerates the binder kinds over LogicExpr.
type Quantifier int

const (
	ForAll Quantifier = iota
	Exists
	NumericalBound
)

// LogicConnective enumerates binary logical connectives.
type LogicConnective int

const (
	LAnd LogicConnective = iota
	LOr
	LImplies
	LIff
)

type (
	PredicateApp struct {
		Predicate intern.Symbol
		Args      []Expr
	}

	Quantified struct {
		Kind Quantifier
		Var  intern.Symbol
		Over TypeExpr
		Body LogicExpr
	}

	LogicBinary struct {
		Op          LogicConnective
		Left, Right LogicExpr
	}

	LogicNot struct {
		Operand LogicExpr
	}

	Identity struct {
		Left, Right Expr
	}

	Comparative struct {
		Op          BinaryOp
		Left, Right Expr
	}

	// ModalTemporal covers modal/temporal/aspect operators (e.g. "always",
	// "eventually", "before"); Name identifies the operator.
	ModalTemporal struct {
		Name    intern.Symbol
		Operand LogicExpr
	}

	LogicLambda struct {
		Params []intern.Symbol
		Body   LogicExpr
	}

	LogicApplication struct {
		Callee LogicExpr
		Args   []Expr
	}
)

func (PredicateApp) logicExpr()     {}
func (Quantified) logicExpr()       {}
func (LogicBinary) logicExpr()      {}
func (LogicNot) logicExpr()         {}
func (Identity) logicExpr()         {}
func (Comparative) logicExpr()      {}
func (ModalTemporal) logicExpr()    {}
func (LogicLambda) logicExpr()      {}
func (LogicApplication) logicExpr() {}
