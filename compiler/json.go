package compiler

import (
	"encoding/json"
	"fmt"
	"io"
)

// instanceJSON is the wire form of InstanceData. Expressions use prefix
// notation: a bare number is a constant, a bare string names a fluent,
// and an array is an operator followed by its operands, for example
// ["+", "rlevel", ["Poisson", "RAIN_RATE"]].
type instanceJSON struct {
	Objects         map[string][]string          `json:"objects"`
	Horizon         int                          `json:"horizon"`
	Discount        float64                      `json:"discount"`
	NonFluentValues map[string][]float64         `json:"non_fluents"`
	InitState       map[string][]float64         `json:"init_state"`
	CPFs            map[string]json.RawMessage   `json:"cpfs"`
	Reward          json.RawMessage              `json:"reward"`
	Constraints     []json.RawMessage            `json:"constraints"`
}

// InstanceFromJSON decodes instance data from its JSON form.
func InstanceFromJSON(r io.Reader) (*InstanceData, error) {
	var raw instanceJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode instance: %w", err)
	}

	data := &InstanceData{
		Objects:         raw.Objects,
		Horizon:         raw.Horizon,
		Discount:        raw.Discount,
		NonFluentValues: raw.NonFluentValues,
		InitState:       raw.InitState,
		CPFs:            make(map[string]*Expr, len(raw.CPFs)),
	}

	for name, msg := range raw.CPFs {
		expr, err := exprFromJSON(msg)
		if err != nil {
			return nil, fmt.Errorf("cpf %q: %w", name, err)
		}
		data.CPFs[name] = expr
	}

	if raw.Reward != nil {
		expr, err := exprFromJSON(raw.Reward)
		if err != nil {
			return nil, fmt.Errorf("reward: %w", err)
		}
		data.Reward = expr
	}

	for i, msg := range raw.Constraints {
		expr, err := exprFromJSON(msg)
		if err != nil {
			return nil, fmt.Errorf("constraint %d: %w", i, err)
		}
		data.Constraints = append(data.Constraints, expr)
	}

	return data, nil
}

// exprOps maps prefix-notation operator names to expression kinds.
var exprOps = map[string]ExprKind{
	"neg": ExprNeg, "+": ExprAdd, "-": ExprSub, "*": ExprMul, "/": ExprDiv,
	"~": ExprNot, "^": ExprAnd, "|": ExprOr, "=>": ExprImply, "<=>": ExprEquiv,
	"==": ExprEq, "~=": ExprNeq, "<": ExprLess, "<=": ExprLessEq,
	">": ExprGreater, ">=": ExprGreaterEq,
	"if": ExprIf, "sum": ExprSum,
	"KronDelta": ExprKronDelta, "DiracDelta": ExprDiracDelta,
	"Bernoulli": ExprBernoulli, "Uniform": ExprUniform, "Normal": ExprNormal,
	"Exponential": ExprExponential, "Weibull": ExprWeibull, "Gamma": ExprGamma,
	"Poisson": ExprPoisson, "Discrete": ExprDiscrete,
	"Multinomial": ExprMultinomial, "Dirichlet": ExprDirichlet,
}

func exprFromJSON(msg json.RawMessage) (*Expr, error) {
	var v any
	if err := json.Unmarshal(msg, &v); err != nil {
		return nil, err
	}
	return exprFromValue(v)
}

func exprFromValue(v any) (*Expr, error) {
	switch t := v.(type) {
	case float64:
		return Num(t), nil
	case bool:
		if t {
			return Num(1), nil
		}
		return Num(0), nil
	case string:
		if t == "time" {
			return Time(), nil
		}
		return Ref(t), nil
	case []any:
		if len(t) == 0 {
			return nil, fmt.Errorf("empty expression list")
		}
		op, ok := t[0].(string)
		if !ok {
			return nil, fmt.Errorf("expression operator must be a string, got %T", t[0])
		}
		kind, ok := exprOps[op]
		if !ok {
			return nil, fmt.Errorf("unknown expression operator %q", op)
		}
		// A one-element list is how a bare "-" distinguishes negation.
		if kind == ExprSub && len(t) == 2 {
			kind = ExprNeg
		}
		args := make([]*Expr, 0, len(t)-1)
		for _, a := range t[1:] {
			arg, err := exprFromValue(a)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		return &Expr{Kind: kind, Args: args}, nil
	default:
		return nil, fmt.Errorf("unsupported expression literal %T", v)
	}
}
