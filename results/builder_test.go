package results

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rddlsim/go-rddlsim/compiler"
	"github.com/rddlsim/go-rddlsim/graph"
	"github.com/rddlsim/go-rddlsim/lang"
	"github.com/rddlsim/go-rddlsim/policy"
	"github.com/rddlsim/go-rddlsim/sim"
)

const reservoirSource = `
domain reservoir {
	types {
		res: object;
	};
	pvariables {
		RAIN_RATE(res): { non-fluent, real, default = 5.0 };
		rlevel(res):    { state-fluent, real, default = 75.0 };
		outflow(res):   { action-fluent, real, default = 0.0 };
	};
}
`

func runReservoir(t *testing.T) (*compiler.CompiledModel, *sim.RunResult) {
	t.Helper()
	model, err := lang.Parse(reservoirSource)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	c, err := compiler.New(model, graph.NewGraph(0), 2)
	if err != nil {
		t.Fatalf("new compiler: %v", err)
	}
	compiled, err := c.Compile(&compiler.InstanceData{
		Objects:  map[string][]string{"res": {"t1", "t2"}},
		Horizon:  3,
		Discount: 1.0,
		CPFs: map[string]*compiler.Expr{
			"rlevel'": compiler.Add(compiler.Ref("rlevel"), compiler.Ref("RAIN_RATE")),
		},
		Reward: compiler.Neg(compiler.Sum(compiler.Ref("rlevel"))),
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	run, err := sim.NewSimulator(sim.NewCell(compiled), policy.NewDefault(compiled)).Run(3)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return compiled, run
}

func TestBuilder_AssemblesResults(t *testing.T) {
	compiled, run := runReservoir(t)

	res := NewBuilder().
		WithModel(compiled, "reservoir", "res2").
		WithPolicy("default").
		WithRun(compiled, run, 5*time.Millisecond).
		Build()

	if res.Version != SchemaVersion {
		t.Errorf("expected schema version %q, got %q", SchemaVersion, res.Version)
	}
	if res.Metadata.RunID == "" {
		t.Error("expected a generated run ID")
	}
	if res.Metadata.Status != "success" {
		t.Errorf("expected success, got %q", res.Metadata.Status)
	}
	if res.Model.Domain != "reservoir" || len(res.Model.States) != 1 {
		t.Errorf("unexpected model info: %+v", res.Model)
	}
	if res.Simulation.BatchSize != 2 || res.Simulation.Horizon != 3 {
		t.Errorf("unexpected simulation info: %+v", res.Simulation)
	}

	// Deterministic domain: every batch member accrues the same total,
	// -(150 + 160 + 170) per the two reservoirs at 75, 80, 85.
	if len(res.Results.Rewards) != 2 || len(res.Results.Rewards[0]) != 3 {
		t.Fatalf("expected [2][3] rewards, got %v", res.Results.Rewards)
	}
	if res.Results.Summary.MeanTotalReward != -480 {
		t.Errorf("expected mean total -480, got %g", res.Results.Summary.MeanTotalReward)
	}
	if res.Results.Summary.MinTotalReward != res.Results.Summary.MaxTotalReward {
		t.Error("identical batch members should share min and max")
	}

	traj, ok := res.Results.Trajectories["rlevel"]
	if !ok {
		t.Fatal("expected an rlevel trajectory")
	}
	if len(traj.Mean) != 6 {
		t.Fatalf("expected 3 steps of 2 reservoirs, got %d values", len(traj.Mean))
	}
	if traj.Mean[0] != 80 {
		t.Errorf("expected first mean level 80, got %g", traj.Mean[0])
	}
}

func TestBuilder_Error(t *testing.T) {
	res := NewBuilder().WithError(os.ErrNotExist).Build()
	if res.Metadata.Status != "error" || res.Metadata.Error == "" {
		t.Errorf("unexpected error metadata: %+v", res.Metadata)
	}
}

func TestResultsRoundTrip(t *testing.T) {
	compiled, run := runReservoir(t)
	res := NewBuilder().
		WithModel(compiled, "reservoir", "res2").
		WithRun(compiled, run, time.Millisecond).
		Build()

	path := filepath.Join(t.TempDir(), "out.json")
	if err := WriteJSON(res, path); err != nil {
		t.Fatalf("write: %v", err)
	}
	back, err := ReadJSON(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if back.Metadata.RunID != res.Metadata.RunID {
		t.Errorf("run ID lost in round trip: %q vs %q", back.Metadata.RunID, res.Metadata.RunID)
	}
	if back.Results.Summary.MeanTotalReward != res.Results.Summary.MeanTotalReward {
		t.Errorf("summary lost in round trip")
	}
}
