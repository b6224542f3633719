package compiler

import (
	"fmt"
	"strings"

	"github.com/rddlsim/go-rddlsim/graph"
	"github.com/rddlsim/go-rddlsim/rddl"
)

// Fluent is one compiled fluent: its declaration name, its array shape
// resolved against the object population (scalar fluents have shape [1]),
// and its default value in numeric encoding.
type Fluent struct {
	Name    string
	Shape   graph.Shape
	Default float64
}

// Compiler turns a domain-model tree plus instance data into a
// CompiledModel. A compiler owns its graph; separate compilers share
// nothing.
type Compiler struct {
	model     *rddl.Model
	graph     *graph.Graph
	batchSize int
}

// New creates a compiler for the given model. The model is validated once
// here; compilation assumes it afterwards.
func New(model *rddl.Model, g *graph.Graph, batchSize int) (*Compiler, error) {
	if err := model.Validate(); err != nil {
		return nil, err
	}
	if g == nil {
		return nil, fmt.Errorf("compiler requires a graph")
	}
	if batchSize < 1 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	return &Compiler{model: model, graph: g, batchSize: batchSize}, nil
}

// Compile resolves fluent shapes against the instance data and binds the
// CPF, reward and constraint expressions. It returns no partial result:
// any unresolved type, shape mismatch or unsupported expression form is a
// fatal compilation error.
func (c *Compiler) Compile(data *InstanceData) (*CompiledModel, error) {
	if data == nil {
		return nil, fmt.Errorf("compile requires instance data")
	}
	if data.Horizon < 1 {
		return nil, fmt.Errorf("horizon must be positive, got %d", data.Horizon)
	}
	if data.Discount <= 0 || data.Discount > 1 {
		return nil, fmt.Errorf("discount must be in (0, 1], got %g", data.Discount)
	}

	m := &CompiledModel{
		BatchSize: c.batchSize,
		Horizon:   data.Horizon,
		Discount:  data.Discount,
		g:         c.graph,
	}

	var err error
	if m.States, err = c.resolveFluents(c.model.Domain.StateFluents(), data); err != nil {
		return nil, err
	}
	if m.Actions, err = c.resolveFluents(c.model.Domain.ActionFluents(), data); err != nil {
		return nil, err
	}
	if m.NonFluents, err = c.resolveFluents(c.model.Domain.NonFluents(), data); err != nil {
		return nil, err
	}
	m.index()

	if err := m.bindNonFluents(data.NonFluentValues); err != nil {
		return nil, err
	}
	if err := m.bindInitState(data.InitState); err != nil {
		return nil, err
	}
	if err := m.bindCPFs(data.CPFs); err != nil {
		return nil, err
	}

	if data.Reward == nil {
		return nil, fmt.Errorf("instance provides no reward expression")
	}
	if err := m.checkExpr(data.Reward); err != nil {
		return nil, fmt.Errorf("reward: %w", err)
	}
	m.reward = data.Reward

	for i, expr := range data.Constraints {
		if err := m.checkExpr(expr); err != nil {
			return nil, fmt.Errorf("constraint %d: %w", i, err)
		}
	}
	m.constraints = data.Constraints

	return m, nil
}

// resolveFluents maps declarations of one class to compiled fluents in
// declaration order.
func (c *Compiler) resolveFluents(decls []rddl.PVariable, data *InstanceData) ([]Fluent, error) {
	out := make([]Fluent, 0, len(decls))
	for _, p := range decls {
		shape, err := c.resolveShape(p, data)
		if err != nil {
			return nil, err
		}
		def, ok := p.Default.Float64()
		if !ok {
			return nil, fmt.Errorf("fluent %q: %s-valued fluents are not supported by the numeric engine",
				p.Name, p.Range)
		}
		out = append(out, Fluent{Name: p.Name, Shape: shape, Default: def})
	}
	return out, nil
}

// resolveShape computes a fluent's array shape from its parameter types:
// one dimension per parameter, sized by that type's population. Scalar
// fluents get shape [1].
func (c *Compiler) resolveShape(p rddl.PVariable, data *InstanceData) (graph.Shape, error) {
	if p.Arity() == 0 {
		return graph.Shape{1}, nil
	}
	shape := make(graph.Shape, 0, p.Arity())
	for _, pt := range p.ParamTypes {
		t, ok := c.model.Domain.FindType(pt)
		if !ok {
			return nil, fmt.Errorf("fluent %q: unknown parameter type %q", p.Name, pt)
		}
		if t.IsObject() {
			objs, ok := data.Objects[pt]
			if !ok || len(objs) == 0 {
				return nil, fmt.Errorf("fluent %q: no object population for type %q", p.Name, pt)
			}
			shape = append(shape, len(objs))
		} else {
			shape = append(shape, len(t.Enum))
		}
	}
	return shape, nil
}

// CompiledModel is the compilation result: ordered fluent metadata plus
// bound expressions, all tied to one graph. Ordering follows pvariable
// declaration order and is identical across shape tuples and value tuples.
type CompiledModel struct {
	BatchSize int
	Horizon   int
	Discount  float64

	States     []Fluent
	Actions    []Fluent
	NonFluents []Fluent

	stateIndex     map[string]int
	actionIndex    map[string]int
	nonFluentIndex map[string]int

	nonFluentNodes []*graph.Node
	initValues     map[string][]float64
	cpfs           []*Expr
	reward         *Expr
	constraints    []*Expr

	g *graph.Graph
}

func (m *CompiledModel) index() {
	m.stateIndex = make(map[string]int, len(m.States))
	for i, f := range m.States {
		m.stateIndex[f.Name] = i
	}
	m.actionIndex = make(map[string]int, len(m.Actions))
	for i, f := range m.Actions {
		m.actionIndex[f.Name] = i
	}
	m.nonFluentIndex = make(map[string]int, len(m.NonFluents))
	for i, f := range m.NonFluents {
		m.nonFluentIndex[f.Name] = i
	}
}

// bindNonFluents builds one constant node per non-fluent, shaped [1]+shape
// so it broadcasts across the batch. Assigned values must match the
// resolved shape exactly.
func (m *CompiledModel) bindNonFluents(values map[string][]float64) error {
	for name := range values {
		if _, ok := m.nonFluentIndex[name]; !ok {
			return fmt.Errorf("non-fluent value for undeclared fluent %q", name)
		}
	}
	m.nonFluentNodes = make([]*graph.Node, len(m.NonFluents))
	for i, f := range m.NonFluents {
		shape := append(graph.Shape{1}, f.Shape...)
		if vals, ok := values[f.Name]; ok {
			if len(vals) != f.Shape.Size() {
				return fmt.Errorf("non-fluent %q: got %d values, shape %v requires %d",
					f.Name, len(vals), f.Shape, f.Shape.Size())
			}
			data := make([]float64, len(vals))
			copy(data, vals)
			t, err := graph.NewTensor(shape, data)
			if err != nil {
				return fmt.Errorf("non-fluent %q: %w", f.Name, err)
			}
			m.nonFluentNodes[i] = m.g.Constant(t)
		} else {
			m.nonFluentNodes[i] = m.g.Fill(shape, f.Default)
		}
	}
	return nil
}

// bindInitState validates initial-state overrides against declared state
// fluents and shapes.
func (m *CompiledModel) bindInitState(init map[string][]float64) error {
	for name, vals := range init {
		i, ok := m.stateIndex[name]
		if !ok {
			return fmt.Errorf("init-state value for unknown state fluent %q", name)
		}
		if len(vals) != m.States[i].Shape.Size() {
			return fmt.Errorf("init-state %q: got %d values, shape %v requires %d",
				name, len(vals), m.States[i].Shape, m.States[i].Shape.Size())
		}
	}
	m.initValues = init
	return nil
}

// bindCPFs checks that exactly the declared state fluents have CPFs and
// that each expression is well formed. Keys may use the primed spelling.
func (m *CompiledModel) bindCPFs(cpfs map[string]*Expr) error {
	m.cpfs = make([]*Expr, len(m.States))
	for key, expr := range cpfs {
		name := strings.TrimSuffix(key, "'")
		i, ok := m.stateIndex[name]
		if !ok {
			return fmt.Errorf("cpf for unknown state fluent %q", key)
		}
		if m.cpfs[i] != nil {
			return fmt.Errorf("duplicate cpf for state fluent %q", name)
		}
		if err := m.checkExpr(expr); err != nil {
			return fmt.Errorf("cpf %q: %w", name, err)
		}
		m.cpfs[i] = expr
	}
	for i, f := range m.States {
		if m.cpfs[i] == nil {
			return fmt.Errorf("state fluent %q has no cpf", f.Name)
		}
	}
	return nil
}

// checkExpr validates references, arities and supported forms without
// touching the graph, so Compile can fail before any node is built.
func (m *CompiledModel) checkExpr(e *Expr) error {
	if e == nil {
		return fmt.Errorf("nil expression")
	}
	switch e.Kind {
	case ExprConst, ExprTime:
		return nil
	case ExprRef:
		if _, ok := m.stateIndex[e.Name]; ok {
			return nil
		}
		if _, ok := m.actionIndex[e.Name]; ok {
			return nil
		}
		if _, ok := m.nonFluentIndex[e.Name]; ok {
			return nil
		}
		return fmt.Errorf("unknown fluent reference %q", e.Name)
	case ExprDiscrete, ExprMultinomial, ExprDirichlet:
		return fmt.Errorf("unsupported expression form %s", e.Kind)
	}
	want := e.Kind.arity()
	if want < 0 {
		return fmt.Errorf("unsupported expression form %s", e.Kind)
	}
	if len(e.Args) != want {
		return fmt.Errorf("%s expects %d operands, got %d", e.Kind, want, len(e.Args))
	}
	for _, a := range e.Args {
		if err := m.checkExpr(a); err != nil {
			return err
		}
	}
	return nil
}

// Graph returns the graph all compiled nodes live in.
func (m *CompiledModel) Graph() *graph.Graph {
	return m.g
}

// StateSize returns the ordered state fluent shapes, batch excluded.
func (m *CompiledModel) StateSize() []graph.Shape {
	out := make([]graph.Shape, len(m.States))
	for i, f := range m.States {
		out[i] = f.Shape.Clone()
	}
	return out
}

// ActionSize returns the ordered action fluent shapes, batch excluded.
func (m *CompiledModel) ActionSize() []graph.Shape {
	out := make([]graph.Shape, len(m.Actions))
	for i, f := range m.Actions {
		out[i] = f.Shape.Clone()
	}
	return out
}

// RewardSize returns the reward width, always 1.
func (m *CompiledModel) RewardSize() int {
	return 1
}

// batched prepends the batch dimension to a fluent shape.
func (m *CompiledModel) batched(shape graph.Shape) graph.Shape {
	out := make(graph.Shape, 0, len(shape)+1)
	out = append(out, m.BatchSize)
	return append(out, shape...)
}

// InitialState builds the ordered tuple of initial state nodes: each
// fluent's default (or init-state override) broadcast to [batch]+shape.
func (m *CompiledModel) InitialState() []*graph.Node {
	out := make([]*graph.Node, len(m.States))
	for i, f := range m.States {
		shape := m.batched(f.Shape)
		if vals, ok := m.initValues[f.Name]; ok {
			data := make([]float64, shape.Size())
			row := f.Shape.Size()
			for b := 0; b < m.BatchSize; b++ {
				copy(data[b*row:(b+1)*row], vals)
			}
			t, _ := graph.NewTensor(shape, data)
			out[i] = m.g.Constant(t)
		} else {
			out[i] = m.g.Fill(shape, f.Default)
		}
	}
	return out
}

// DefaultActions builds the ordered tuple of default action nodes, each
// broadcast to [batch]+shape.
func (m *CompiledModel) DefaultActions() []*graph.Node {
	out := make([]*graph.Node, len(m.Actions))
	for i, f := range m.Actions {
		out[i] = m.g.Fill(m.batched(f.Shape), f.Default)
	}
	return out
}

// Scope names the inputs one transition step reads: the batched timestep
// and the ordered state and action tuples.
type Scope struct {
	Timestep *graph.Node
	State    []*graph.Node
	Action   []*graph.Node
}

// NextState builds the next-state node for every state fluent by
// evaluating its CPF in the given scope. Results keep declaration order.
func (m *CompiledModel) NextState(scope *Scope) ([]*graph.Node, error) {
	out := make([]*graph.Node, len(m.States))
	for i, f := range m.States {
		node, err := m.build(m.cpfs[i], scope)
		if err != nil {
			return nil, fmt.Errorf("cpf %q: %w", f.Name, err)
		}
		want := m.batched(f.Shape)
		if !node.Shape().Equal(want) {
			return nil, fmt.Errorf("cpf %q: produces shape %v, state fluent requires %v",
				f.Name, node.Shape(), want)
		}
		out[i] = node
	}
	return out, nil
}

// Reward builds the reward node, shaped [batch, 1].
func (m *CompiledModel) Reward(scope *Scope) (*graph.Node, error) {
	node, err := m.build(m.reward, scope)
	if err != nil {
		return nil, fmt.Errorf("reward: %w", err)
	}
	want := graph.Shape{m.BatchSize, 1}
	if !node.Shape().Equal(want) {
		return nil, fmt.Errorf("reward: produces shape %v, expected %v", node.Shape(), want)
	}
	return node, nil
}

// Constraints builds the compiled constraint nodes in declaration order.
func (m *CompiledModel) Constraints(scope *Scope) ([]*graph.Node, error) {
	out := make([]*graph.Node, len(m.constraints))
	for i, expr := range m.constraints {
		node, err := m.build(expr, scope)
		if err != nil {
			return nil, fmt.Errorf("constraint %d: %w", i, err)
		}
		out[i] = node
	}
	return out, nil
}

// build lowers an expression to graph nodes within a scope.
func (m *CompiledModel) build(e *Expr, scope *Scope) (*graph.Node, error) {
	g := m.g
	switch e.Kind {
	case ExprConst:
		return g.Fill(graph.Shape{1, 1}, e.Value), nil
	case ExprTime:
		if scope.Timestep == nil {
			return nil, fmt.Errorf("expression reads the timestep outside a step scope")
		}
		return scope.Timestep, nil
	case ExprRef:
		if i, ok := m.stateIndex[e.Name]; ok {
			return scope.State[i], nil
		}
		if i, ok := m.actionIndex[e.Name]; ok {
			return scope.Action[i], nil
		}
		if i, ok := m.nonFluentIndex[e.Name]; ok {
			return m.nonFluentNodes[i], nil
		}
		return nil, fmt.Errorf("unknown fluent reference %q", e.Name)
	}

	args := make([]*graph.Node, len(e.Args))
	for i, a := range e.Args {
		node, err := m.build(a, scope)
		if err != nil {
			return nil, err
		}
		args[i] = node
	}

	switch e.Kind {
	case ExprNeg:
		return g.Neg(args[0]), nil
	case ExprAdd:
		return g.Add(args[0], args[1]), nil
	case ExprSub:
		return g.Sub(args[0], args[1]), nil
	case ExprMul:
		return g.Mul(args[0], args[1]), nil
	case ExprDiv:
		return g.Div(args[0], args[1]), nil
	case ExprNot:
		return g.Not(args[0]), nil
	case ExprAnd:
		return g.And(args[0], args[1]), nil
	case ExprOr:
		return g.Or(args[0], args[1]), nil
	case ExprImply:
		return g.Or(g.Not(args[0]), args[1]), nil
	case ExprEquiv:
		return g.Eq(g.Not(g.Not(args[0])), g.Not(g.Not(args[1]))), nil
	case ExprEq:
		return g.Eq(args[0], args[1]), nil
	case ExprNeq:
		return g.Neq(args[0], args[1]), nil
	case ExprLess:
		return g.Less(args[0], args[1]), nil
	case ExprLessEq:
		return g.LessEq(args[0], args[1]), nil
	case ExprGreater:
		return g.Greater(args[0], args[1]), nil
	case ExprGreaterEq:
		return g.GreaterEq(args[0], args[1]), nil
	case ExprIf:
		return g.Select(args[0], args[1], args[2]), nil
	case ExprSum:
		return g.Sum(args[0]), nil
	case ExprKronDelta, ExprDiracDelta:
		return g.Identity(args[0]), nil
	case ExprBernoulli:
		return g.Bernoulli(args[0]), nil
	case ExprUniform:
		return g.Uniform(args[0], args[1]), nil
	case ExprNormal:
		return g.Normal(args[0], args[1]), nil
	case ExprExponential:
		return g.Exponential(args[0]), nil
	case ExprWeibull:
		return g.Weibull(args[0], args[1]), nil
	case ExprGamma:
		return g.Gamma(args[0], args[1]), nil
	case ExprPoisson:
		return g.Poisson(args[0]), nil
	}
	return nil, fmt.Errorf("unsupported expression form %s", e.Kind)
}
