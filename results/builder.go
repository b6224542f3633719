package results

import (
	"time"

	"github.com/google/uuid"

	"github.com/rddlsim/go-rddlsim/compiler"
	"github.com/rddlsim/go-rddlsim/sim"
)

// Builder helps construct Results from run output
type Builder struct {
	results Results
}

// NewBuilder creates a new results builder with a fresh run ID
func NewBuilder() *Builder {
	return &Builder{
		results: Results{
			Version: SchemaVersion,
			Metadata: Metadata{
				RunID:     uuid.NewString(),
				Timestamp: time.Now(),
			},
		},
	}
}

// WithModel sets model information from a compiled model
func (b *Builder) WithModel(m *compiler.CompiledModel, domain, instance string) *Builder {
	states := make([]Sized, len(m.States))
	for i, f := range m.States {
		states[i] = Sized{Name: f.Name, Shape: f.Shape.Clone()}
	}
	actions := make([]Sized, len(m.Actions))
	for i, f := range m.Actions {
		actions[i] = Sized{Name: f.Name, Shape: f.Shape.Clone()}
	}
	b.results.Model = Model{
		Domain:     domain,
		Instance:   instance,
		States:     states,
		Actions:    actions,
		NonFluents: len(m.NonFluents),
	}
	b.results.Simulation = Simulation{
		BatchSize: m.BatchSize,
		Horizon:   m.Horizon,
		Discount:  m.Discount,
		Seed:      m.Graph().Seed(),
	}
	return b
}

// WithPolicy records the policy name used for the run
func (b *Builder) WithPolicy(name string) *Builder {
	b.results.Metadata.Policy = name
	return b
}

// WithRun fills in trajectory data and the reward summary from a run
func (b *Builder) WithRun(m *compiler.CompiledModel, run *sim.RunResult, elapsed time.Duration) *Builder {
	b.results.Metadata.Status = "success"
	b.results.Metadata.ComputeTime = elapsed.Seconds()

	batch := run.Rewards.Shape[0]
	horizon := run.Rewards.Shape[1]

	rewards := make([][]float64, batch)
	totals := make([]float64, batch)
	for i := range rewards {
		row := make([]float64, horizon)
		copy(row, run.Rewards.Data[i*horizon:(i+1)*horizon])
		rewards[i] = row
		for _, v := range row {
			totals[i] += v
		}
	}
	b.results.Results.Rewards = rewards

	summary := Summary{TotalRewards: totals}
	if len(totals) > 0 {
		summary.MinTotalReward = totals[0]
		summary.MaxTotalReward = totals[0]
		sum := 0.0
		for _, v := range totals {
			sum += v
			if v < summary.MinTotalReward {
				summary.MinTotalReward = v
			}
			if v > summary.MaxTotalReward {
				summary.MaxTotalReward = v
			}
		}
		summary.MeanTotalReward = sum / float64(len(totals))
	}
	b.results.Results.Summary = summary

	vars := make(map[string]Variable, len(m.States))
	for i, f := range m.States {
		vars[f.Name] = batchMean(run.States[i].Data, batch, f.Shape.Clone())
	}
	b.results.Results.Trajectories = vars
	return b
}

// WithError marks the run as failed
func (b *Builder) WithError(err error) *Builder {
	b.results.Metadata.Status = "error"
	b.results.Metadata.Error = err.Error()
	return b
}

// Build returns the assembled results
func (b *Builder) Build() *Results {
	return &b.results
}

// batchMean averages a [batch, horizon]+shape tensor over its batch
// dimension.
func batchMean(data []float64, batch int, shape []int) Variable {
	row := len(data) / batch
	mean := make([]float64, row)
	for i := 0; i < batch; i++ {
		for j := 0; j < row; j++ {
			mean[j] += data[i*row+j]
		}
	}
	for j := range mean {
		mean[j] /= float64(batch)
	}
	return Variable{Shape: shape, Mean: mean}
}
