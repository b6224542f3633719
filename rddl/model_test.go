package rddl

import (
	"strings"
	"testing"
)

func validModel() *Model {
	return &Model{
		Domain: &Domain{
			Name: "nav",
			Types: []TypeDef{
				{Name: "robot"},
				{Name: "risk", Enum: []string{"@low", "@high"}},
			},
			PVariables: []PVariable{
				{Name: "SPEED", Class: NonFluentClass, ParamTypes: []string{"robot"}, Range: RealType, Default: DoubleVal(1.5)},
				{Name: "at", Class: StateFluentClass, ParamTypes: []string{"robot"}, Range: RealType, Default: DoubleVal(0)},
				{Name: "move", Class: ActionFluentClass, ParamTypes: []string{"robot"}, Range: BoolType, Default: BoolVal(false)},
				{Name: "alert", Class: StateFluentClass, Range: "risk", Default: IdentVal("low")},
			},
		},
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validModel().Validate(); err != nil {
		t.Fatalf("valid model rejected: %v", err)
	}
}

func TestValidate_NoDomain(t *testing.T) {
	m := &Model{}
	if err := m.Validate(); err == nil {
		t.Error("model without a domain should fail")
	}
}

func TestValidate_DuplicateType(t *testing.T) {
	m := validModel()
	m.Domain.Types = append(m.Domain.Types, TypeDef{Name: "robot"})
	if err := m.Validate(); err == nil || !strings.Contains(err.Error(), "declared twice") {
		t.Errorf("expected duplicate type error, got %v", err)
	}
}

func TestValidate_DuplicatePVariable(t *testing.T) {
	m := validModel()
	m.Domain.PVariables = append(m.Domain.PVariables, m.Domain.PVariables[1])
	if err := m.Validate(); err == nil || !strings.Contains(err.Error(), "declared twice") {
		t.Errorf("expected duplicate pvariable error, got %v", err)
	}
}

func TestValidate_UnknownParameterType(t *testing.T) {
	m := validModel()
	m.Domain.PVariables[1].ParamTypes = []string{"ghost"}
	if err := m.Validate(); err == nil || !strings.Contains(err.Error(), "ghost") {
		t.Errorf("expected unknown parameter type error, got %v", err)
	}
}

func TestValidate_DefaultKindMismatch(t *testing.T) {
	cases := []struct {
		name string
		rng  string
		def  Value
	}{
		{"bool-gets-int", BoolType, IntVal(1)},
		{"int-gets-double", IntType, DoubleVal(1.0)},
		{"real-gets-int", RealType, IntVal(1)},
		{"real-gets-bool", RealType, BoolVal(true)},
	}
	for _, tc := range cases {
		m := validModel()
		m.Domain.PVariables[1].Range = tc.rng
		m.Domain.PVariables[1].Default = tc.def
		if err := m.Validate(); err == nil {
			t.Errorf("%s: expected a default-kind error", tc.name)
		}
	}
}

func TestValidate_EnumDefaultMembership(t *testing.T) {
	m := validModel()
	m.Domain.PVariables[3].Default = IdentVal("extreme")
	if err := m.Validate(); err == nil || !strings.Contains(err.Error(), "extreme") {
		t.Errorf("expected enum membership error, got %v", err)
	}
}

func TestValidate_UnknownRangeType(t *testing.T) {
	m := validModel()
	m.Domain.PVariables[3].Range = "ghost"
	if err := m.Validate(); err == nil || !strings.Contains(err.Error(), "ghost") {
		t.Errorf("expected unknown range error, got %v", err)
	}
}

func TestFluentOrdering(t *testing.T) {
	d := validModel().Domain
	states := d.StateFluents()
	if len(states) != 2 || states[0].Name != "at" || states[1].Name != "alert" {
		t.Errorf("state fluents must keep declaration order, got %v", states)
	}
	if n := len(d.ActionFluents()); n != 1 {
		t.Errorf("expected 1 action fluent, got %d", n)
	}
	if n := len(d.NonFluents()); n != 1 {
		t.Errorf("expected 1 non-fluent, got %d", n)
	}
}

func TestValueFloat64(t *testing.T) {
	if v, ok := BoolVal(true).Float64(); !ok || v != 1 {
		t.Errorf("true should encode as 1, got %v %v", v, ok)
	}
	if v, ok := BoolVal(false).Float64(); !ok || v != 0 {
		t.Errorf("false should encode as 0, got %v %v", v, ok)
	}
	if v, ok := IntVal(-7).Float64(); !ok || v != -7 {
		t.Errorf("int encoding wrong: %v %v", v, ok)
	}
	if _, ok := IdentVal("x").Float64(); ok {
		t.Error("identifier values have no numeric encoding")
	}
}
