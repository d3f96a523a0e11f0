package schema

import (
	"errors"
	"testing"
)

func TestValidateValue(t *testing.T) {
	leaf := &Node{Name: "mtu", Kind: KindLeaf, Type: IntRange(68, 9000)}
	flag := &Node{Name: "enabled", Kind: KindLeaf, Type: Empty()}
	blob := &Node{Name: "blob", Kind: KindAnydata}
	box := &Node{Name: "box", Kind: KindContainer}

	tests := []struct {
		node    *Node
		value   string
		wantErr bool
	}{
		{leaf, "1500", false},
		{leaf, "10", true},
		{leaf, "big", true},
		{flag, "", false},
		{blob, "<anything/>", false},
		{box, "", true},
	}

	for _, tt := range tests {
		err := ValidateValue(tt.node, tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateValue(%s, %q) error = %v, wantErr %v", tt.node.Name, tt.value, err, tt.wantErr)
		}
	}
}

func TestValidateDefaults(t *testing.T) {
	root := &Node{
		Module: "m",
		Name:   "op",
		Kind:   KindOperation,
		Input: []*Node{
			{Name: "good", Kind: KindLeaf, Type: Int(), Default: "0", HasDefault: true},
			{Name: "bad", Kind: KindLeaf, Type: Bool(), Default: "maybe", HasDefault: true},
		},
		Output: []*Node{
			{Name: "worse", Kind: KindLeaf, Type: Int(), Default: "x", HasDefault: true},
		},
	}

	if err := NewContext().Add("m", root); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	err := ValidateDefaults(root)
	if err == nil {
		t.Fatal("ValidateDefaults() should return error")
	}

	aggr, ok := err.(*AggregateError)
	if !ok {
		t.Fatalf("error should be *AggregateError, got %T", err)
	}
	if len(aggr.Errors) != 2 {
		t.Errorf("ValidateDefaults() = %d errors, want 2", len(aggr.Errors))
	}

	var validErr *ValidationError
	if !errors.As(err, &validErr) {
		t.Fatalf("errors.As should find a *ValidationError in %v", err)
	}
	if validErr.Key != "m:bad" {
		t.Errorf("error Key = %q, want m:bad", validErr.Key)
	}
	if got := ValidationErrors(err); len(got) != 2 {
		t.Errorf("ValidationErrors() = %d, want 2", len(got))
	}
}

func TestNode_Child(t *testing.T) {
	op := &Node{
		Module: "m",
		Name:   "op",
		Kind:   KindOperation,
		Input:  []*Node{{Module: "m", Name: "in", Kind: KindLeaf, Type: String()}},
		Output: []*Node{{Module: "m", Name: "out", Kind: KindLeaf, Type: String()}},
	}

	if op.Child("in", false) == nil {
		t.Error("Child(in, input) = nil")
	}
	if op.Child("in", true) != nil {
		t.Error("Child(in, output) should be nil")
	}
	if op.Child("m:out", true) == nil {
		t.Error("Child(m:out, output) = nil")
	}
	if op.Child("other:out", true) != nil {
		t.Error("Child(other:out) should not match module m")
	}
}
