// Package compiler resolves a validated domain-model tree plus instance
// data into batched fluent shapes and compiled transition, reward and
// constraint expressions over a computation graph.
package compiler

import "fmt"

// ExprKind identifies an expression form.
type ExprKind int

const (
	ExprConst ExprKind = iota
	ExprRef            // named fluent reference
	ExprTime           // timestep input

	ExprNeg
	ExprAdd
	ExprSub
	ExprMul
	ExprDiv

	ExprNot
	ExprAnd
	ExprOr
	ExprImply
	ExprEquiv

	ExprEq
	ExprNeq
	ExprLess
	ExprLessEq
	ExprGreater
	ExprGreaterEq

	ExprIf  // cond, then, else
	ExprSum // aggregation over a fluent's object dimensions

	ExprKronDelta
	ExprDiracDelta
	ExprBernoulli
	ExprUniform
	ExprNormal
	ExprExponential
	ExprWeibull
	ExprGamma
	ExprPoisson

	// Reserved distribution names without a compiled lowering.
	ExprDiscrete
	ExprMultinomial
	ExprDirichlet
)

// Expr is one node of a transition, reward or constraint expression.
// Booleans are carried in the 0/1 numeric encoding.
type Expr struct {
	Kind  ExprKind
	Value float64 // ExprConst
	Name  string  // ExprRef
	Args  []*Expr
}

// arity returns the expected operand count, or -1 when the form takes none.
func (k ExprKind) arity() int {
	switch k {
	case ExprConst, ExprRef, ExprTime:
		return 0
	case ExprNeg, ExprNot, ExprSum, ExprKronDelta, ExprDiracDelta,
		ExprBernoulli, ExprExponential, ExprPoisson:
		return 1
	case ExprAdd, ExprSub, ExprMul, ExprDiv, ExprAnd, ExprOr, ExprImply,
		ExprEquiv, ExprEq, ExprNeq, ExprLess, ExprLessEq, ExprGreater,
		ExprGreaterEq, ExprUniform, ExprNormal, ExprWeibull, ExprGamma:
		return 2
	case ExprIf:
		return 3
	default:
		return -1
	}
}

func (k ExprKind) String() string {
	names := map[ExprKind]string{
		ExprConst: "constant", ExprRef: "reference", ExprTime: "time",
		ExprNeg: "-", ExprAdd: "+", ExprSub: "-", ExprMul: "*", ExprDiv: "/",
		ExprNot: "~", ExprAnd: "^", ExprOr: "|", ExprImply: "=>", ExprEquiv: "<=>",
		ExprEq: "==", ExprNeq: "~=", ExprLess: "<", ExprLessEq: "<=",
		ExprGreater: ">", ExprGreaterEq: ">=",
		ExprIf: "if", ExprSum: "sum",
		ExprKronDelta: "KronDelta", ExprDiracDelta: "DiracDelta",
		ExprBernoulli: "Bernoulli", ExprUniform: "Uniform", ExprNormal: "Normal",
		ExprExponential: "Exponential", ExprWeibull: "Weibull", ExprGamma: "Gamma",
		ExprPoisson: "Poisson", ExprDiscrete: "Discrete",
		ExprMultinomial: "Multinomial", ExprDirichlet: "Dirichlet",
	}
	if s, ok := names[k]; ok {
		return s
	}
	return fmt.Sprintf("expr(%d)", int(k))
}

// Num builds a numeric constant.
func Num(v float64) *Expr { return &Expr{Kind: ExprConst, Value: v} }

// Ref builds a fluent reference. The name resolves against state fluents,
// then action fluents, then non-fluents at compile time.
func Ref(name string) *Expr { return &Expr{Kind: ExprRef, Name: name} }

// Time builds a reference to the batched timestep input.
func Time() *Expr { return &Expr{Kind: ExprTime} }

func unary(k ExprKind, a *Expr) *Expr     { return &Expr{Kind: k, Args: []*Expr{a}} }
func binary(k ExprKind, a, b *Expr) *Expr { return &Expr{Kind: k, Args: []*Expr{a, b}} }

// Neg builds arithmetic negation.
func Neg(a *Expr) *Expr { return unary(ExprNeg, a) }

// Add builds a + b.
func Add(a, b *Expr) *Expr { return binary(ExprAdd, a, b) }

// Sub builds a - b.
func Sub(a, b *Expr) *Expr { return binary(ExprSub, a, b) }

// Mul builds a * b.
func Mul(a, b *Expr) *Expr { return binary(ExprMul, a, b) }

// Div builds a / b.
func Div(a, b *Expr) *Expr { return binary(ExprDiv, a, b) }

// Not builds logical negation.
func Not(a *Expr) *Expr { return unary(ExprNot, a) }

// And builds logical conjunction.
func And(a, b *Expr) *Expr { return binary(ExprAnd, a, b) }

// Or builds logical disjunction.
func Or(a, b *Expr) *Expr { return binary(ExprOr, a, b) }

// Imply builds logical implication.
func Imply(a, b *Expr) *Expr { return binary(ExprImply, a, b) }

// Equiv builds logical equivalence.
func Equiv(a, b *Expr) *Expr { return binary(ExprEquiv, a, b) }

// Eq builds a == b.
func Eq(a, b *Expr) *Expr { return binary(ExprEq, a, b) }

// Neq builds a ~= b.
func Neq(a, b *Expr) *Expr { return binary(ExprNeq, a, b) }

// Less builds a < b.
func Less(a, b *Expr) *Expr { return binary(ExprLess, a, b) }

// LessEq builds a <= b.
func LessEq(a, b *Expr) *Expr { return binary(ExprLessEq, a, b) }

// Greater builds a > b.
func Greater(a, b *Expr) *Expr { return binary(ExprGreater, a, b) }

// GreaterEq builds a >= b.
func GreaterEq(a, b *Expr) *Expr { return binary(ExprGreaterEq, a, b) }

// If builds elementwise if-then-else selection.
func If(cond, then, els *Expr) *Expr {
	return &Expr{Kind: ExprIf, Args: []*Expr{cond, then, els}}
}

// Sum builds a reduction over the operand's object dimensions, producing a
// batched scalar.
func Sum(a *Expr) *Expr { return unary(ExprSum, a) }

// KronDelta marks a deterministic discrete update.
func KronDelta(a *Expr) *Expr { return unary(ExprKronDelta, a) }

// DiracDelta marks a deterministic continuous update.
func DiracDelta(a *Expr) *Expr { return unary(ExprDiracDelta, a) }

// Bernoulli builds a Bernoulli draw with probability p.
func Bernoulli(p *Expr) *Expr { return unary(ExprBernoulli, p) }

// Uniform builds a uniform draw on [lo, hi).
func Uniform(lo, hi *Expr) *Expr { return binary(ExprUniform, lo, hi) }

// Normal builds a normal draw with the given mean and standard deviation.
func Normal(mean, stddev *Expr) *Expr { return binary(ExprNormal, mean, stddev) }

// Exponential builds an exponential draw with the given rate.
func Exponential(rate *Expr) *Expr { return unary(ExprExponential, rate) }

// Weibull builds a Weibull draw with the given shape and scale.
func Weibull(shape, scale *Expr) *Expr { return binary(ExprWeibull, shape, scale) }

// Gamma builds a gamma draw with the given shape and scale.
func Gamma(shape, scale *Expr) *Expr { return binary(ExprGamma, shape, scale) }

// Poisson builds a Poisson draw with the given rate.
func Poisson(rate *Expr) *Expr { return unary(ExprPoisson, rate) }
