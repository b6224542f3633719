// Package results defines the structured output format for simulation runs
package results

import "time"

const SchemaVersion = "1.0.0"

// Results contains complete run output
type Results struct {
	Version    string     `json:"version"`
	Metadata   Metadata   `json:"metadata"`
	Model      Model      `json:"model"`
	Simulation Simulation `json:"simulation"`
	Results    Data       `json:"results"`
}

// Metadata contains run execution information
type Metadata struct {
	RunID       string    `json:"runId"`
	Timestamp   time.Time `json:"timestamp"`
	Policy      string    `json:"policy"`
	Status      string    `json:"status"` // success, error
	Error       string    `json:"error,omitempty"`
	ComputeTime float64   `json:"computeTime"` // seconds
}

// Model summarizes the compiled domain structure
type Model struct {
	Domain     string  `json:"domain,omitempty"`
	Instance   string  `json:"instance,omitempty"`
	States     []Sized `json:"states"`
	Actions    []Sized `json:"actions"`
	NonFluents int     `json:"nonFluents"`
}

// Sized names one fluent together with its resolved shape
type Sized struct {
	Name  string `json:"name"`
	Shape []int  `json:"shape"`
}

// Simulation contains parameters used
type Simulation struct {
	BatchSize int     `json:"batchSize"`
	Horizon   int     `json:"horizon"`
	Discount  float64 `json:"discount"`
	Seed      int64   `json:"seed"`
}

// Data contains the run results
type Data struct {
	Summary      Summary             `json:"summary"`
	Trajectories map[string]Variable `json:"trajectories,omitempty"`
	Rewards      [][]float64         `json:"rewards,omitempty"` // [batch][horizon]
}

// Summary provides a quick overview across the batch
type Summary struct {
	MeanTotalReward float64   `json:"meanTotalReward"`
	MinTotalReward  float64   `json:"minTotalReward"`
	MaxTotalReward  float64   `json:"maxTotalReward"`
	TotalRewards    []float64 `json:"totalRewards"` // one per batch member
}

// Variable holds one fluent's batch-mean trajectory
type Variable struct {
	Shape []int     `json:"shape"`
	Mean  []float64 `json:"mean"` // horizon * element count, averaged over the batch
}
