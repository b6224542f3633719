package compiler

// InstanceData carries everything a problem instance contributes to
// compilation: the object population per object type, horizon and discount,
// non-fluent value assignments, optional initial-state overrides, and the
// CPF, reward and constraint expressions.
type InstanceData struct {
	// Objects maps each object-sort type name to its instance names.
	// Population sizes determine fluent array shapes.
	Objects map[string][]string

	// Horizon is the number of timesteps per trajectory.
	Horizon int

	// Discount is the reward discount factor in (0, 1].
	Discount float64

	// NonFluentValues assigns flattened values per non-fluent name.
	// A fluent not listed here keeps its declared default everywhere.
	NonFluentValues map[string][]float64

	// InitState overrides the declared defaults of state fluents for the
	// initial state, flattened per fluent name.
	InitState map[string][]float64

	// CPFs holds one next-state expression per state fluent. Keys may
	// carry the trailing prime of the primed-variable convention.
	CPFs map[string]*Expr

	// Reward is the per-step reward expression over current state/action.
	Reward *Expr

	// Constraints holds state-action constraint expressions, compiled but
	// not enforced during stepping.
	Constraints []*Expr
}
