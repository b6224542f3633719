// Package sim unrolls a compiled model into batched trajectories: a Cell
// wraps one transition step, a Simulator chains cells over a horizon and
// materializes the resulting tensors.
package sim

import (
	"fmt"

	"github.com/rddlsim/go-rddlsim/compiler"
	"github.com/rddlsim/go-rddlsim/graph"
)

// Policy chooses the batched action tuple for one step, given the batched
// timestep and the ordered current state tuple.
type Policy interface {
	Actions(timestep *graph.Node, state []*graph.Node) ([]*graph.Node, error)
}

// Cell is one transition step of a compiled model. It exposes the shape
// contract of the step and applies the transition given a policy.
type Cell struct {
	model *compiler.CompiledModel
}

// NewCell wraps a compiled model as a transition cell.
func NewCell(model *compiler.CompiledModel) *Cell {
	return &Cell{model: model}
}

// StateSize returns the ordered state fluent shapes, batch excluded.
func (c *Cell) StateSize() []graph.Shape {
	return c.model.StateSize()
}

// ActionSize returns the ordered action fluent shapes, batch excluded.
func (c *Cell) ActionSize() []graph.Shape {
	return c.model.ActionSize()
}

// OutputSize describes one step's outputs: the next-state shapes, the
// action shapes, and the reward width.
func (c *Cell) OutputSize() ([]graph.Shape, []graph.Shape, int) {
	return c.model.StateSize(), c.model.ActionSize(), c.model.RewardSize()
}

// InitialState returns the ordered initial state tuple, each fluent
// broadcast to [batch]+shape.
func (c *Cell) InitialState() []*graph.Node {
	return c.model.InitialState()
}

// StepOutput is the result of one transition step.
type StepOutput struct {
	NextState []*graph.Node
	Action    []*graph.Node
	Reward    *graph.Node
}

// Step applies one transition. The policy's action tuple is validated
// against the declared action fluents before any CPF is built; a policy
// that returns the wrong number of actions or a wrong shape is rejected.
func (c *Cell) Step(p Policy, timestep *graph.Node, state []*graph.Node) (*StepOutput, error) {
	if len(state) != len(c.model.States) {
		return nil, fmt.Errorf("step: got %d state components, model declares %d",
			len(state), len(c.model.States))
	}
	actions, err := p.Actions(timestep, state)
	if err != nil {
		return nil, fmt.Errorf("policy: %w", err)
	}
	if len(actions) != len(c.model.Actions) {
		return nil, fmt.Errorf("policy returned %d action components, model declares %d",
			len(actions), len(c.model.Actions))
	}
	for i, f := range c.model.Actions {
		want := append(graph.Shape{c.model.BatchSize}, f.Shape...)
		if actions[i] == nil {
			return nil, fmt.Errorf("policy returned a nil node for action %q", f.Name)
		}
		if !actions[i].Shape().Equal(want) {
			return nil, fmt.Errorf("action %q: policy produced shape %v, model requires %v",
				f.Name, actions[i].Shape(), want)
		}
	}

	scope := &compiler.Scope{Timestep: timestep, State: state, Action: actions}
	next, err := c.model.NextState(scope)
	if err != nil {
		return nil, err
	}
	reward, err := c.model.Reward(scope)
	if err != nil {
		return nil, err
	}
	return &StepOutput{NextState: next, Action: actions, Reward: reward}, nil
}
