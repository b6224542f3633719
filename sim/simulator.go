package sim

import (
	"fmt"

	"github.com/rddlsim/go-rddlsim/graph"
)

// Simulator unrolls a cell over a horizon. Per-step outputs are stacked
// along a new second dimension, so every trajectory tensor is shaped
// [batch, horizon]+fluent shape.
type Simulator struct {
	cell   *Cell
	policy Policy
}

// NewSimulator creates a simulator for the given cell and policy.
func NewSimulator(cell *Cell, p Policy) *Simulator {
	return &Simulator{cell: cell, policy: p}
}

// Timesteps returns the batched timestep inputs for a horizon: one
// [batch, 1] node per step, counting down from horizon-1 to 0, plus the
// stacked [batch, horizon, 1] view.
func (s *Simulator) Timesteps(horizon int) ([]*graph.Node, *graph.Node, error) {
	if horizon < 1 {
		return nil, nil, fmt.Errorf("horizon must be positive, got %d", horizon)
	}
	g := s.cell.model.Graph()
	batch := s.cell.model.BatchSize
	steps := make([]*graph.Node, horizon)
	for t := 0; t < horizon; t++ {
		steps[t] = g.Fill(graph.Shape{batch, 1}, float64(horizon-1-t))
	}
	return steps, g.Stack(steps), nil
}

// Trajectory is the symbolic unrolled run: the initial and final state
// tuples plus the per-horizon stacked states, actions and rewards.
type Trajectory struct {
	InitialState []*graph.Node
	FinalState   []*graph.Node // state tuple after the last step
	Timesteps    *graph.Node   // [batch, horizon, 1]
	States       []*graph.Node // each [batch, horizon]+shape
	Actions      []*graph.Node // each [batch, horizon]+shape
	Rewards      *graph.Node   // [batch, horizon, 1]
}

// Trajectory unrolls the cell sequentially over the horizon, threading the
// state tuple through each step and stacking the outputs per fluent.
func (s *Simulator) Trajectory(horizon int) (*Trajectory, error) {
	steps, stacked, err := s.Timesteps(horizon)
	if err != nil {
		return nil, err
	}
	g := s.cell.model.Graph()

	initial := s.cell.InitialState()
	state := initial
	perState := make([][]*graph.Node, len(s.cell.model.States))
	perAction := make([][]*graph.Node, len(s.cell.model.Actions))
	rewards := make([]*graph.Node, 0, horizon)

	for t := 0; t < horizon; t++ {
		out, err := s.cell.Step(s.policy, steps[t], state)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", t, err)
		}
		for i, n := range out.NextState {
			perState[i] = append(perState[i], n)
		}
		for i, n := range out.Action {
			perAction[i] = append(perAction[i], n)
		}
		rewards = append(rewards, out.Reward)
		state = out.NextState
	}

	traj := &Trajectory{
		InitialState: initial,
		FinalState:   state,
		Timesteps:    stacked,
		States:       make([]*graph.Node, len(perState)),
		Actions:      make([]*graph.Node, len(perAction)),
		Rewards:      g.Stack(rewards),
	}
	for i, nodes := range perState {
		traj.States[i] = g.Stack(nodes)
	}
	for i, nodes := range perAction {
		traj.Actions[i] = g.Stack(nodes)
	}
	if err := g.Err(); err != nil {
		return nil, err
	}
	return traj, nil
}

// RunResult holds the materialized tensors of one run.
type RunResult struct {
	InitialState []*graph.Tensor
	Timesteps    *graph.Tensor
	States       []*graph.Tensor
	Actions      []*graph.Tensor
	Rewards      *graph.Tensor
}

// Run unrolls the trajectory and evaluates it to concrete tensors. Runs
// over the same simulator are identical: sampling restarts from the graph
// seed on every evaluation.
func (s *Simulator) Run(horizon int) (*RunResult, error) {
	traj, err := s.Trajectory(horizon)
	if err != nil {
		return nil, err
	}

	outputs := make([]*graph.Node, 0,
		len(traj.InitialState)+len(traj.States)+len(traj.Actions)+2)
	outputs = append(outputs, traj.InitialState...)
	outputs = append(outputs, traj.States...)
	outputs = append(outputs, traj.Actions...)
	outputs = append(outputs, traj.Timesteps, traj.Rewards)

	tensors, err := s.cell.model.Graph().Run(outputs...)
	if err != nil {
		return nil, err
	}

	res := &RunResult{}
	res.InitialState, tensors = tensors[:len(traj.InitialState)], tensors[len(traj.InitialState):]
	res.States, tensors = tensors[:len(traj.States)], tensors[len(traj.States):]
	res.Actions, tensors = tensors[:len(traj.Actions)], tensors[len(traj.Actions):]
	res.Timesteps = tensors[0]
	res.Rewards = tensors[1]
	return res, nil
}

// TotalReward sums each batch member's rewards over the horizon.
func (r *RunResult) TotalReward() []float64 {
	batch := r.Rewards.Shape[0]
	steps := r.Rewards.Shape[1]
	out := make([]float64, batch)
	for b := 0; b < batch; b++ {
		for t := 0; t < steps; t++ {
			out[b] += r.Rewards.Data[b*steps+t]
		}
	}
	return out
}
