package graph

import (
	"fmt"
	"math"
	"math/rand"
)

// OpKind identifies a node's operation.
type OpKind int

const (
	OpInvalid OpKind = iota
	OpConst
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpNeg
	OpNot
	OpAnd
	OpOr
	OpEq
	OpNeq
	OpLess
	OpLessEq
	OpGreater
	OpGreaterEq
	OpSelect
	OpSum
	OpStack
	OpIdentity
	OpBernoulli
	OpUniform
	OpNormal
	OpExponential
	OpWeibull
	OpGamma
	OpPoisson
)

// Node is a single operation in a computation graph.
type Node struct {
	g      *Graph
	op     OpKind
	inputs []*Node
	value  *Tensor // set for OpConst
	shape  Shape
}

// Shape returns the node's result shape.
func (n *Node) Shape() Shape {
	return n.shape
}

// Graph owns a set of nodes and the seed used for sampling operations.
// Construction errors (e.g. incompatible operand shapes) are recorded on
// the graph and surfaced by Err and Run, so expression builders can chain
// operations without per-call error checks.
type Graph struct {
	seed  int64
	nodes []*Node
	err   error
}

// NewGraph creates an empty graph with the given sampling seed.
func NewGraph(seed int64) *Graph {
	return &Graph{seed: seed}
}

// Err returns the first construction error, if any.
func (g *Graph) Err() error {
	return g.err
}

// Seed returns the graph's sampling seed.
func (g *Graph) Seed() int64 {
	return g.seed
}

func (g *Graph) fail(err error) *Node {
	if g.err == nil {
		g.err = err
	}
	n := &Node{g: g, op: OpInvalid}
	g.nodes = append(g.nodes, n)
	return n
}

func (g *Graph) add(op OpKind, shape Shape, inputs ...*Node) *Node {
	for _, in := range inputs {
		if in == nil || in.op == OpInvalid {
			return g.fail(fmt.Errorf("invalid input node"))
		}
		if in.g != g {
			return g.fail(fmt.Errorf("input node belongs to a different graph"))
		}
	}
	n := &Node{g: g, op: op, inputs: inputs, shape: shape}
	g.nodes = append(g.nodes, n)
	return n
}

// Constant adds a constant node holding the given tensor.
func (g *Graph) Constant(t *Tensor) *Node {
	if t == nil {
		return g.fail(fmt.Errorf("nil constant tensor"))
	}
	n := &Node{g: g, op: OpConst, value: t, shape: t.Shape.Clone()}
	g.nodes = append(g.nodes, n)
	return n
}

// Fill adds a constant node of the given shape filled with v.
func (g *Graph) Fill(shape Shape, v float64) *Node {
	return g.Constant(Fill(shape, v))
}

func (g *Graph) binary(op OpKind, a, b *Node) *Node {
	if a == nil || b == nil || a.op == OpInvalid || b.op == OpInvalid {
		return g.fail(fmt.Errorf("invalid operand node"))
	}
	shape, err := broadcastShapes(a.shape, b.shape)
	if err != nil {
		return g.fail(err)
	}
	return g.add(op, shape, a, b)
}

// Add adds elementwise a + b.
func (g *Graph) Add(a, b *Node) *Node { return g.binary(OpAdd, a, b) }

// Sub adds elementwise a - b.
func (g *Graph) Sub(a, b *Node) *Node { return g.binary(OpSub, a, b) }

// Mul adds elementwise a * b.
func (g *Graph) Mul(a, b *Node) *Node { return g.binary(OpMul, a, b) }

// Div adds elementwise a / b.
func (g *Graph) Div(a, b *Node) *Node { return g.binary(OpDiv, a, b) }

// Neg adds elementwise -a.
func (g *Graph) Neg(a *Node) *Node {
	if a == nil || a.op == OpInvalid {
		return g.fail(fmt.Errorf("invalid operand node"))
	}
	return g.add(OpNeg, a.shape.Clone(), a)
}

// Not adds elementwise logical negation (nonzero becomes 0, zero becomes 1).
func (g *Graph) Not(a *Node) *Node {
	if a == nil || a.op == OpInvalid {
		return g.fail(fmt.Errorf("invalid operand node"))
	}
	return g.add(OpNot, a.shape.Clone(), a)
}

// And adds elementwise logical conjunction.
func (g *Graph) And(a, b *Node) *Node { return g.binary(OpAnd, a, b) }

// Or adds elementwise logical disjunction.
func (g *Graph) Or(a, b *Node) *Node { return g.binary(OpOr, a, b) }

// Eq adds elementwise equality, producing 0/1.
func (g *Graph) Eq(a, b *Node) *Node { return g.binary(OpEq, a, b) }

// Neq adds elementwise inequality, producing 0/1.
func (g *Graph) Neq(a, b *Node) *Node { return g.binary(OpNeq, a, b) }

// Less adds elementwise a < b, producing 0/1.
func (g *Graph) Less(a, b *Node) *Node { return g.binary(OpLess, a, b) }

// LessEq adds elementwise a <= b, producing 0/1.
func (g *Graph) LessEq(a, b *Node) *Node { return g.binary(OpLessEq, a, b) }

// Greater adds elementwise a > b, producing 0/1.
func (g *Graph) Greater(a, b *Node) *Node { return g.binary(OpGreater, a, b) }

// GreaterEq adds elementwise a >= b, producing 0/1.
func (g *Graph) GreaterEq(a, b *Node) *Node { return g.binary(OpGreaterEq, a, b) }

// Select adds elementwise selection: where cond is nonzero take x, else y.
// Branching stays elementwise so batched evaluation is regular.
func (g *Graph) Select(cond, x, y *Node) *Node {
	if cond == nil || x == nil || y == nil ||
		cond.op == OpInvalid || x.op == OpInvalid || y.op == OpInvalid {
		return g.fail(fmt.Errorf("invalid operand node"))
	}
	shape, err := broadcastShapes(x.shape, y.shape)
	if err != nil {
		return g.fail(err)
	}
	shape, err = broadcastShapes(shape, cond.shape)
	if err != nil {
		return g.fail(err)
	}
	return g.add(OpSelect, shape, cond, x, y)
}

// Sum adds a reduction over every non-batch dimension, producing [batch, 1].
func (g *Graph) Sum(a *Node) *Node {
	if a == nil || a.op == OpInvalid {
		return g.fail(fmt.Errorf("invalid operand node"))
	}
	if len(a.shape) < 1 {
		return g.fail(fmt.Errorf("sum requires a batched operand"))
	}
	return g.add(OpSum, Shape{a.shape[0], 1}, a)
}

// Stack adds a node stacking equally shaped inputs along a new second
// dimension: H inputs of shape [batch]+s become [batch, H]+s. This is how
// per-step outputs are assembled into a trajectory.
func (g *Graph) Stack(nodes []*Node) *Node {
	if len(nodes) == 0 {
		return g.fail(fmt.Errorf("stack requires at least one input"))
	}
	first := nodes[0]
	if first == nil || first.op == OpInvalid {
		return g.fail(fmt.Errorf("invalid operand node"))
	}
	for _, n := range nodes[1:] {
		if n == nil || n.op == OpInvalid {
			return g.fail(fmt.Errorf("invalid operand node"))
		}
		if !n.shape.Equal(first.shape) {
			return g.fail(fmt.Errorf("stack inputs must share a shape: %v vs %v", first.shape, n.shape))
		}
	}
	shape := make(Shape, 0, len(first.shape)+1)
	shape = append(shape, first.shape[0], len(nodes))
	shape = append(shape, first.shape[1:]...)
	return g.add(OpStack, shape, nodes...)
}

// Identity adds a pass-through node. KronDelta and DiracDelta lower to it.
func (g *Graph) Identity(a *Node) *Node {
	if a == nil || a.op == OpInvalid {
		return g.fail(fmt.Errorf("invalid operand node"))
	}
	return g.add(OpIdentity, a.shape.Clone(), a)
}

// Bernoulli adds a sampling node producing 0/1 draws with probability p.
func (g *Graph) Bernoulli(p *Node) *Node {
	if p == nil || p.op == OpInvalid {
		return g.fail(fmt.Errorf("invalid operand node"))
	}
	return g.add(OpBernoulli, p.shape.Clone(), p)
}

// Uniform adds a sampling node with draws in [lo, hi).
func (g *Graph) Uniform(lo, hi *Node) *Node { return g.binary(OpUniform, lo, hi) }

// Normal adds a sampling node with the given mean and standard deviation.
func (g *Graph) Normal(mean, stddev *Node) *Node { return g.binary(OpNormal, mean, stddev) }

// Exponential adds a sampling node with the given rate.
func (g *Graph) Exponential(rate *Node) *Node {
	if rate == nil || rate.op == OpInvalid {
		return g.fail(fmt.Errorf("invalid operand node"))
	}
	return g.add(OpExponential, rate.shape.Clone(), rate)
}

// Weibull adds a sampling node with the given shape and scale parameters.
func (g *Graph) Weibull(shape, scale *Node) *Node { return g.binary(OpWeibull, shape, scale) }

// Gamma adds a sampling node with the given shape and scale parameters.
func (g *Graph) Gamma(shape, scale *Node) *Node { return g.binary(OpGamma, shape, scale) }

// Poisson adds a sampling node with the given rate.
func (g *Graph) Poisson(rate *Node) *Node {
	if rate == nil || rate.op == OpInvalid {
		return g.fail(fmt.Errorf("invalid operand node"))
	}
	return g.add(OpPoisson, rate.shape.Clone(), rate)
}

// Run evaluates the requested nodes and returns their concrete tensors in
// the same order. Sampling nodes draw from a generator seeded with the
// graph seed at the start of every Run, so repeated runs over the same
// nodes produce identical results.
func (g *Graph) Run(outputs ...*Node) ([]*Tensor, error) {
	if g.err != nil {
		return nil, g.err
	}
	ev := &evaluator{
		memo: make(map[*Node]*Tensor),
		rng:  rand.New(rand.NewSource(g.seed)),
	}
	results := make([]*Tensor, len(outputs))
	for i, n := range outputs {
		if n == nil {
			return nil, fmt.Errorf("nil output node")
		}
		if n.g != g {
			return nil, fmt.Errorf("output node belongs to a different graph")
		}
		t, err := ev.eval(n)
		if err != nil {
			return nil, err
		}
		results[i] = t
	}
	return results, nil
}

type evaluator struct {
	memo map[*Node]*Tensor
	rng  *rand.Rand
}

func (ev *evaluator) eval(n *Node) (*Tensor, error) {
	if t, ok := ev.memo[n]; ok {
		return t, nil
	}
	in := make([]*Tensor, len(n.inputs))
	for i, dep := range n.inputs {
		t, err := ev.eval(dep)
		if err != nil {
			return nil, err
		}
		in[i] = t
	}

	var out *Tensor
	switch n.op {
	case OpConst:
		out = n.value
	case OpIdentity:
		out = in[0]
	case OpNeg:
		out = mapUnary(in[0], func(v float64) float64 { return -v })
	case OpNot:
		out = mapUnary(in[0], func(v float64) float64 { return bool01(v == 0) })
	case OpAdd:
		out = mapBinary(n.shape, in[0], in[1], func(a, b float64) float64 { return a + b })
	case OpSub:
		out = mapBinary(n.shape, in[0], in[1], func(a, b float64) float64 { return a - b })
	case OpMul:
		out = mapBinary(n.shape, in[0], in[1], func(a, b float64) float64 { return a * b })
	case OpDiv:
		out = mapBinary(n.shape, in[0], in[1], func(a, b float64) float64 { return a / b })
	case OpAnd:
		out = mapBinary(n.shape, in[0], in[1], func(a, b float64) float64 { return bool01(a != 0 && b != 0) })
	case OpOr:
		out = mapBinary(n.shape, in[0], in[1], func(a, b float64) float64 { return bool01(a != 0 || b != 0) })
	case OpEq:
		out = mapBinary(n.shape, in[0], in[1], func(a, b float64) float64 { return bool01(a == b) })
	case OpNeq:
		out = mapBinary(n.shape, in[0], in[1], func(a, b float64) float64 { return bool01(a != b) })
	case OpLess:
		out = mapBinary(n.shape, in[0], in[1], func(a, b float64) float64 { return bool01(a < b) })
	case OpLessEq:
		out = mapBinary(n.shape, in[0], in[1], func(a, b float64) float64 { return bool01(a <= b) })
	case OpGreater:
		out = mapBinary(n.shape, in[0], in[1], func(a, b float64) float64 { return bool01(a > b) })
	case OpGreaterEq:
		out = mapBinary(n.shape, in[0], in[1], func(a, b float64) float64 { return bool01(a >= b) })
	case OpSelect:
		out = evalSelect(n.shape, in[0], in[1], in[2])
	case OpSum:
		out = evalSum(n.shape, in[0])
	case OpStack:
		out = evalStack(n.shape, in)
	case OpBernoulli:
		out = ev.sampleUnary(in[0], func(p float64) float64 { return bool01(ev.rng.Float64() < p) })
	case OpExponential:
		out = ev.sampleUnary(in[0], func(rate float64) float64 { return ev.exponential(rate) })
	case OpPoisson:
		out = ev.sampleUnary(in[0], func(rate float64) float64 { return ev.poisson(rate) })
	case OpUniform:
		out = ev.sampleBinary(n.shape, in[0], in[1], func(lo, hi float64) float64 {
			return lo + ev.rng.Float64()*(hi-lo)
		})
	case OpNormal:
		out = ev.sampleBinary(n.shape, in[0], in[1], func(mean, sd float64) float64 {
			return mean + sd*ev.rng.NormFloat64()
		})
	case OpWeibull:
		out = ev.sampleBinary(n.shape, in[0], in[1], func(k, scale float64) float64 {
			return ev.weibull(k, scale)
		})
	case OpGamma:
		out = ev.sampleBinary(n.shape, in[0], in[1], func(k, scale float64) float64 {
			return ev.gamma(k) * scale
		})
	default:
		return nil, fmt.Errorf("cannot evaluate op %d", n.op)
	}

	ev.memo[n] = out
	return out, nil
}

func bool01(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func mapUnary(a *Tensor, f func(float64) float64) *Tensor {
	out := &Tensor{Shape: a.Shape.Clone(), Data: make([]float64, len(a.Data))}
	for i, v := range a.Data {
		out.Data[i] = f(v)
	}
	return out
}

func mapBinary(shape Shape, a, b *Tensor, f func(a, b float64) float64) *Tensor {
	ia := broadcastIndex(shape, a.Shape)
	ib := broadcastIndex(shape, b.Shape)
	out := &Tensor{Shape: shape.Clone(), Data: make([]float64, shape.Size())}
	for i := range out.Data {
		out.Data[i] = f(a.Data[ia(i)], b.Data[ib(i)])
	}
	return out
}

func evalSelect(shape Shape, cond, x, y *Tensor) *Tensor {
	ic := broadcastIndex(shape, cond.Shape)
	ix := broadcastIndex(shape, x.Shape)
	iy := broadcastIndex(shape, y.Shape)
	out := &Tensor{Shape: shape.Clone(), Data: make([]float64, shape.Size())}
	for i := range out.Data {
		if cond.Data[ic(i)] != 0 {
			out.Data[i] = x.Data[ix(i)]
		} else {
			out.Data[i] = y.Data[iy(i)]
		}
	}
	return out
}

func evalSum(shape Shape, a *Tensor) *Tensor {
	batch := a.Shape[0]
	row := a.Shape.Size() / batch
	out := &Tensor{Shape: shape.Clone(), Data: make([]float64, batch)}
	for b := 0; b < batch; b++ {
		sum := 0.0
		for j := 0; j < row; j++ {
			sum += a.Data[b*row+j]
		}
		out.Data[b] = sum
	}
	return out
}

func evalStack(shape Shape, in []*Tensor) *Tensor {
	batch := shape[0]
	steps := shape[1]
	row := in[0].Shape.Size() / batch
	out := &Tensor{Shape: shape.Clone(), Data: make([]float64, shape.Size())}
	for b := 0; b < batch; b++ {
		for t := 0; t < steps; t++ {
			src := in[t].Data[b*row : (b+1)*row]
			dst := out.Data[(b*steps+t)*row : (b*steps+t+1)*row]
			copy(dst, src)
		}
	}
	return out
}

func (ev *evaluator) sampleUnary(a *Tensor, f func(float64) float64) *Tensor {
	out := &Tensor{Shape: a.Shape.Clone(), Data: make([]float64, len(a.Data))}
	for i, v := range a.Data {
		out.Data[i] = f(v)
	}
	return out
}

func (ev *evaluator) sampleBinary(shape Shape, a, b *Tensor, f func(a, b float64) float64) *Tensor {
	ia := broadcastIndex(shape, a.Shape)
	ib := broadcastIndex(shape, b.Shape)
	out := &Tensor{Shape: shape.Clone(), Data: make([]float64, shape.Size())}
	for i := range out.Data {
		out.Data[i] = f(a.Data[ia(i)], b.Data[ib(i)])
	}
	return out
}

func (ev *evaluator) exponential(rate float64) float64 {
	if rate <= 0 {
		return 0
	}
	return -math.Log(1-ev.rng.Float64()) / rate
}

func (ev *evaluator) weibull(k, scale float64) float64 {
	if k <= 0 || scale <= 0 {
		return 0
	}
	u := 1 - ev.rng.Float64()
	return scale * math.Pow(-math.Log(u), 1/k)
}

// poisson draws with Knuth's multiplication method. Adequate for the
// moderate rates seen in planning domains.
func (ev *evaluator) poisson(rate float64) float64 {
	if rate <= 0 {
		return 0
	}
	limit := math.Exp(-rate)
	k := 0
	p := 1.0
	for {
		p *= ev.rng.Float64()
		if p <= limit {
			return float64(k)
		}
		k++
	}
}

// gamma draws a unit-scale Gamma(k) variate with the Marsaglia-Tsang
// squeeze method.
func (ev *evaluator) gamma(k float64) float64 {
	if k <= 0 {
		return 0
	}
	if k < 1 {
		u := ev.rng.Float64()
		return ev.gamma(k+1) * math.Pow(u, 1/k)
	}
	d := k - 1.0/3.0
	c := 1 / math.Sqrt(9*d)
	for {
		x := ev.rng.NormFloat64()
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := ev.rng.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}
