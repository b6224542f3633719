// Package policy provides baseline action policies for simulation: the
// default-action policy and a uniform random policy.
package policy

import (
	"github.com/rddlsim/go-rddlsim/compiler"
	"github.com/rddlsim/go-rddlsim/graph"
)

// Default returns the declared default value of every action fluent at
// every step, broadcast across the batch. It is the no-op baseline for
// domains whose action defaults encode "do nothing".
type Default struct {
	model *compiler.CompiledModel
}

// NewDefault creates a default-action policy over the compiled model.
func NewDefault(model *compiler.CompiledModel) *Default {
	return &Default{model: model}
}

// Actions returns the default action tuple. The timestep and state inputs
// are ignored.
func (p *Default) Actions(_ *graph.Node, _ []*graph.Node) ([]*graph.Node, error) {
	return p.model.DefaultActions(), nil
}

// Random samples every action fluent uniformly from [Low, High) each step.
type Random struct {
	model *compiler.CompiledModel
	low   float64
	high  float64
}

// NewRandom creates a uniform random policy with per-element draws from
// [low, high).
func NewRandom(model *compiler.CompiledModel, low, high float64) *Random {
	return &Random{model: model, low: low, high: high}
}

// Actions returns one uniform draw per action element.
func (p *Random) Actions(_ *graph.Node, _ []*graph.Node) ([]*graph.Node, error) {
	g := p.model.Graph()
	out := make([]*graph.Node, len(p.model.Actions))
	for i, f := range p.model.Actions {
		shape := append(graph.Shape{p.model.BatchSize}, f.Shape...)
		lo := g.Fill(shape, p.low)
		hi := g.Fill(shape, p.high)
		out[i] = g.Uniform(lo, hi)
	}
	return out, nil
}
