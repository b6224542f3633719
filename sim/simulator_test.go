package sim

import (
	"strings"
	"testing"

	"github.com/rddlsim/go-rddlsim/compiler"
	"github.com/rddlsim/go-rddlsim/graph"
	"github.com/rddlsim/go-rddlsim/lang"
	"github.com/rddlsim/go-rddlsim/policy"
)

const reservoirSource = `
domain reservoir {
	types {
		res: object;
	};
	pvariables {
		MAX_RES_CAP(res): { non-fluent, real, default = 100.0 };
		RAIN_RATE(res):   { non-fluent, real, default = 5.0 };
		rlevel(res):      { state-fluent, real, default = 75.0 };
		outflow(res):     { action-fluent, real, default = 0.0 };
	};
}
instance res8 { }
`

func reservoirData(stochastic bool) *compiler.InstanceData {
	inflow := compiler.Ref("RAIN_RATE")
	if stochastic {
		inflow = compiler.Poisson(compiler.Ref("RAIN_RATE"))
	}
	cpf := compiler.Sub(compiler.Add(compiler.Ref("rlevel"), inflow), compiler.Ref("outflow"))
	return &compiler.InstanceData{
		Objects:  map[string][]string{"res": {"t1", "t2", "t3", "t4", "t5", "t6", "t7", "t8"}},
		Horizon:  40,
		Discount: 1.0,
		CPFs:     map[string]*compiler.Expr{"rlevel'": cpf},
		Reward:   compiler.Neg(compiler.Sum(compiler.Sub(compiler.Ref("MAX_RES_CAP"), compiler.Ref("rlevel")))),
	}
}

func compileReservoir(t *testing.T, batch int, seed int64, stochastic bool) *compiler.CompiledModel {
	t.Helper()
	model, err := lang.Parse(reservoirSource)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	c, err := compiler.New(model, graph.NewGraph(seed), batch)
	if err != nil {
		t.Fatalf("new compiler: %v", err)
	}
	m, err := c.Compile(reservoirData(stochastic))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return m
}

func TestCell_OutputSize(t *testing.T) {
	m := compileReservoir(t, 10, 0, false)
	cell := NewCell(m)

	states, actions, reward := cell.OutputSize()
	if len(states) != 1 || !states[0].Equal(graph.Shape{8}) {
		t.Errorf("unexpected state sizes: %v", states)
	}
	if len(actions) != 1 || !actions[0].Equal(graph.Shape{8}) {
		t.Errorf("unexpected action sizes: %v", actions)
	}
	if reward != 1 {
		t.Errorf("reward width must be 1, got %d", reward)
	}
}

func TestSimulator_TimestepsDescend(t *testing.T) {
	m := compileReservoir(t, 3, 0, false)
	s := NewSimulator(NewCell(m), policy.NewDefault(m))

	steps, stacked, err := s.Timesteps(5)
	if err != nil {
		t.Fatalf("timesteps: %v", err)
	}
	if len(steps) != 5 {
		t.Fatalf("expected 5 step nodes, got %d", len(steps))
	}
	if !stacked.Shape().Equal(graph.Shape{3, 5, 1}) {
		t.Fatalf("expected stacked shape [3 5 1], got %v", stacked.Shape())
	}

	out, err := m.Graph().Run(stacked)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	// Every batch member counts down 4, 3, 2, 1, 0.
	for b := 0; b < 3; b++ {
		for i := 0; i < 5; i++ {
			if got := out[0].Data[b*5+i]; got != float64(4-i) {
				t.Fatalf("batch %d step %d: expected %d, got %g", b, i, 4-i, got)
			}
		}
	}
}

func TestSimulator_TrajectoryShapes(t *testing.T) {
	m := compileReservoir(t, 100, 0, false)
	s := NewSimulator(NewCell(m), policy.NewDefault(m))

	traj, err := s.Trajectory(40)
	if err != nil {
		t.Fatalf("trajectory: %v", err)
	}

	if !traj.States[0].Shape().Equal(graph.Shape{100, 40, 8}) {
		t.Errorf("expected states [100 40 8], got %v", traj.States[0].Shape())
	}
	if !traj.Actions[0].Shape().Equal(graph.Shape{100, 40, 8}) {
		t.Errorf("expected actions [100 40 8], got %v", traj.Actions[0].Shape())
	}
	if !traj.Rewards.Shape().Equal(graph.Shape{100, 40, 1}) {
		t.Errorf("expected rewards [100 40 1], got %v", traj.Rewards.Shape())
	}
	if !traj.Timesteps.Shape().Equal(graph.Shape{100, 40, 1}) {
		t.Errorf("expected timesteps [100 40 1], got %v", traj.Timesteps.Shape())
	}
	if !traj.InitialState[0].Shape().Equal(graph.Shape{100, 8}) {
		t.Errorf("expected initial state [100 8], got %v", traj.InitialState[0].Shape())
	}
	if len(traj.FinalState) != 1 || !traj.FinalState[0].Shape().Equal(graph.Shape{100, 8}) {
		t.Errorf("expected final state [100 8], got %v", traj.FinalState)
	}
}

func TestSimulator_RunDeterministicDomain(t *testing.T) {
	m := compileReservoir(t, 4, 0, false)
	s := NewSimulator(NewCell(m), policy.NewDefault(m))

	run, err := s.Run(3)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// rlevel starts at 75 and rises by RAIN_RATE each step with no outflow.
	want := []float64{80, 85, 90}
	for step, lvl := range want {
		if got := run.States[0].Data[step*8]; got != lvl {
			t.Errorf("step %d: expected rlevel %g, got %g", step, lvl, got)
		}
	}

	// Reward is evaluated on the pre-transition state, so step t sees the
	// level before that step's inflow: -sum(100 - rlevel_t) over 8 reservoirs.
	wantReward := []float64{-200, -160, -120}
	for step, r := range wantReward {
		if got := run.Rewards.Data[step]; got != r {
			t.Errorf("step %d: expected reward %g, got %g", step, r, got)
		}
	}

	totals := run.TotalReward()
	if len(totals) != 4 || totals[0] != -480 {
		t.Errorf("unexpected totals: %v", totals)
	}
}

func TestSimulator_RunIsRepeatable(t *testing.T) {
	m := compileReservoir(t, 5, 99, true)
	s := NewSimulator(NewCell(m), policy.NewDefault(m))

	first, err := s.Run(10)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := s.Run(10)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	for i := range first.Rewards.Data {
		if first.Rewards.Data[i] != second.Rewards.Data[i] {
			t.Fatalf("runs differ at reward %d: %g vs %g",
				i, first.Rewards.Data[i], second.Rewards.Data[i])
		}
	}
}

func TestSimulator_RandomPolicy(t *testing.T) {
	m := compileReservoir(t, 6, 7, false)
	s := NewSimulator(NewCell(m), policy.NewRandom(m, 0, 2))

	run, err := s.Run(5)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !run.Actions[0].Shape.Equal(graph.Shape{6, 5, 8}) {
		t.Fatalf("expected actions [6 5 8], got %v", run.Actions[0].Shape)
	}
	for _, v := range run.Actions[0].Data {
		if v < 0 || v >= 2 {
			t.Fatalf("action draw %g out of [0, 2)", v)
		}
	}
}

// badPolicy returns a tuple that violates the action contract.
type badPolicy struct {
	m     *compiler.CompiledModel
	extra bool
}

func (p *badPolicy) Actions(_ *graph.Node, _ []*graph.Node) ([]*graph.Node, error) {
	if p.extra {
		acts := p.m.DefaultActions()
		return append(acts, acts[0]), nil
	}
	return []*graph.Node{p.m.Graph().Fill(graph.Shape{p.m.BatchSize, 3}, 0)}, nil
}

func TestCell_RejectsBadPolicyOutput(t *testing.T) {
	m := compileReservoir(t, 4, 0, false)
	cell := NewCell(m)
	ts := m.Graph().Fill(graph.Shape{4, 1}, 0)

	_, err := cell.Step(&badPolicy{m: m, extra: true}, ts, m.InitialState())
	if err == nil || !strings.Contains(err.Error(), "action components") {
		t.Errorf("expected action count error, got %v", err)
	}

	_, err = cell.Step(&badPolicy{m: m}, ts, m.InitialState())
	if err == nil || !strings.Contains(err.Error(), "shape") {
		t.Errorf("expected action shape error, got %v", err)
	}
}
