// Package rddl implements the domain-model object tree for the RDDL-style
// modeling language: domains with type and pvariable sections, plus the
// instance and non-fluents blocks that name external data.
package rddl

import (
	"fmt"
	"math"
)

// FluentClass identifies the role of a parameterized variable.
type FluentClass int

const (
	NonFluentClass FluentClass = iota
	StateFluentClass
	ActionFluentClass
	IntermFluentClass
	DerivedFluentClass
	ObservFluentClass
)

// String returns the keyword spelling of the fluent class.
func (c FluentClass) String() string {
	switch c {
	case NonFluentClass:
		return "non-fluent"
	case StateFluentClass:
		return "state-fluent"
	case ActionFluentClass:
		return "action-fluent"
	case IntermFluentClass:
		return "interm-fluent"
	case DerivedFluentClass:
		return "derived-fluent"
	case ObservFluentClass:
		return "observ-fluent"
	default:
		return "unknown"
	}
}

// Primitive range type names.
const (
	BoolType = "bool"
	IntType  = "int"
	RealType = "real"
)

// TypeDef declares a named sort. Enum is nil for object sorts
// (instance-populated) and holds the closed list of @-values otherwise.
type TypeDef struct {
	Name string
	Enum []string
}

// IsObject reports whether the type is an uninterpreted object sort.
func (t TypeDef) IsObject() bool {
	return t.Enum == nil
}

// HasEnumValue reports whether v (with leading @) belongs to the sort.
func (t TypeDef) HasEnumValue(v string) bool {
	for _, e := range t.Enum {
		if e == v {
			return true
		}
	}
	return false
}

// ValueKind tags the literal kind of a default value.
type ValueKind int

const (
	BoolValue ValueKind = iota
	IntValue
	DoubleValue
	IdentValue // object or enum-typed default, named by identifier
)

// Value is a default-value literal. Exactly one payload field is meaningful,
// selected by Kind.
type Value struct {
	Kind  ValueKind
	Bool  bool
	Int   int64
	Float float64
	Ident string
}

// BoolVal constructs a boolean literal value.
func BoolVal(b bool) Value { return Value{Kind: BoolValue, Bool: b} }

// IntVal constructs an integer literal value.
func IntVal(n int64) Value { return Value{Kind: IntValue, Int: n} }

// DoubleVal constructs a double literal value. Use math.Inf for the
// pos-inf and neg-inf markers.
func DoubleVal(f float64) Value { return Value{Kind: DoubleValue, Float: f} }

// IdentVal constructs an identifier value for object/enum ranges.
func IdentVal(s string) Value { return Value{Kind: IdentValue, Ident: s} }

// Float64 converts the value to its numeric encoding (booleans become 0/1).
// Identifier values have no numeric encoding and return false.
func (v Value) Float64() (float64, bool) {
	switch v.Kind {
	case BoolValue:
		if v.Bool {
			return 1, true
		}
		return 0, true
	case IntValue:
		return float64(v.Int), true
	case DoubleValue:
		return v.Float, true
	default:
		return 0, false
	}
}

func (v Value) String() string {
	switch v.Kind {
	case BoolValue:
		if v.Bool {
			return "true"
		}
		return "false"
	case IntValue:
		return fmt.Sprintf("%d", v.Int)
	case DoubleValue:
		if math.IsInf(v.Float, 1) {
			return "pos-inf"
		}
		if math.IsInf(v.Float, -1) {
			return "neg-inf"
		}
		return fmt.Sprintf("%g", v.Float)
	default:
		return v.Ident
	}
}

// PVariable is a parameterized-variable declaration. All six fluent classes
// share this shape; Class is the discriminating tag.
type PVariable struct {
	Name       string
	Class      FluentClass
	ParamTypes []string // empty means scalar
	Range      string
	Default    Value
}

// Arity returns the number of object parameters.
func (p PVariable) Arity() int { return len(p.ParamTypes) }

// Domain holds one parsed domain block. Section order is preserved:
// Types and PVariables keep declaration order, which later fixes the
// canonical ordering of state and action tuples.
type Domain struct {
	Name         string
	Requirements []string
	Types        []TypeDef
	PVariables   []PVariable
}

// FindType returns the declared type with the given name.
func (d *Domain) FindType(name string) (TypeDef, bool) {
	for _, t := range d.Types {
		if t.Name == name {
			return t, true
		}
	}
	return TypeDef{}, false
}

// FluentsOf returns the pvariables of the given class in declaration order.
func (d *Domain) FluentsOf(class FluentClass) []PVariable {
	var out []PVariable
	for _, p := range d.PVariables {
		if p.Class == class {
			out = append(out, p)
		}
	}
	return out
}

// StateFluents returns the state fluents in declaration order.
func (d *Domain) StateFluents() []PVariable { return d.FluentsOf(StateFluentClass) }

// ActionFluents returns the action fluents in declaration order.
func (d *Domain) ActionFluents() []PVariable { return d.FluentsOf(ActionFluentClass) }

// NonFluents returns the non-fluents in declaration order.
func (d *Domain) NonFluents() []PVariable { return d.FluentsOf(NonFluentClass) }

// FindPVariable returns the declaration with the given name.
func (d *Domain) FindPVariable(name string) (PVariable, bool) {
	for _, p := range d.PVariables {
		if p.Name == name {
			return p, true
		}
	}
	return PVariable{}, false
}

// Instance names a problem instance. Its population, horizon and discount
// live outside the block grammar and are supplied as compilation input.
type Instance struct {
	Name string
}

// NonFluentsBlock names a non-fluent value assignment set; the assignments
// themselves are supplied as compilation input.
type NonFluentsBlock struct {
	Name string
}

// Model is the top-level object tree built from one source text.
// It is immutable after parsing.
type Model struct {
	Domain     *Domain
	Instance   *Instance
	NonFluents *NonFluentsBlock
}

// primitiveRange reports whether name is bool, int or real.
func primitiveRange(name string) bool {
	return name == BoolType || name == IntType || name == RealType
}

// Validate checks the semantic invariants of the tree: every referenced
// type resolves, default literal kinds match declared ranges, and enum
// defaults belong to their closed sort.
func (m *Model) Validate() error {
	if m.Domain == nil {
		return fmt.Errorf("model has no domain block")
	}
	d := m.Domain

	seen := make(map[string]bool, len(d.Types))
	for _, t := range d.Types {
		if primitiveRange(t.Name) {
			return fmt.Errorf("type %q: shadows a primitive type", t.Name)
		}
		if seen[t.Name] {
			return fmt.Errorf("type %q: declared twice", t.Name)
		}
		seen[t.Name] = true
	}

	names := make(map[string]bool, len(d.PVariables))
	for _, p := range d.PVariables {
		if names[p.Name] {
			return fmt.Errorf("pvariable %q: declared twice", p.Name)
		}
		names[p.Name] = true

		for _, pt := range p.ParamTypes {
			if _, ok := d.FindType(pt); !ok && !primitiveRange(pt) {
				return fmt.Errorf("pvariable %q: unknown parameter type %q", p.Name, pt)
			}
		}
		if err := m.checkDefault(p); err != nil {
			return err
		}
	}
	return nil
}

// checkDefault verifies the range type resolves and the default literal
// kind is compatible with it.
func (m *Model) checkDefault(p PVariable) error {
	switch p.Range {
	case BoolType:
		if p.Default.Kind != BoolValue {
			return fmt.Errorf("pvariable %q: bool range requires true/false default, got %s", p.Name, p.Default)
		}
	case IntType:
		if p.Default.Kind != IntValue {
			return fmt.Errorf("pvariable %q: int range requires integer default, got %s", p.Name, p.Default)
		}
	case RealType:
		if p.Default.Kind != DoubleValue {
			return fmt.Errorf("pvariable %q: real range requires double default, got %s", p.Name, p.Default)
		}
	default:
		t, ok := m.Domain.FindType(p.Range)
		if !ok {
			return fmt.Errorf("pvariable %q: unknown range type %q", p.Name, p.Range)
		}
		if p.Default.Kind != IdentValue {
			return fmt.Errorf("pvariable %q: %s range requires identifier default, got %s", p.Name, p.Range, p.Default)
		}
		if !t.IsObject() && !t.HasEnumValue("@"+p.Default.Ident) {
			return fmt.Errorf("pvariable %q: default %q is not a value of enum type %q", p.Name, p.Default.Ident, p.Range)
		}
	}
	return nil
}
