package mapper

import (
	"testing"

	"github.com/ppiankov/amr2daide/internal/model"
)

func TestFill(t *testing.T) {
	tests := []struct {
		template string
		values   map[string]string
		daide    bool
		want     string
	}{
		{"$unit HLD", map[string]string{"unit": "(AUS AMY VIE)"}, true, "(AUS AMY VIE) HLD"},
		{"SUB $s", map[string]string{"s": "(AUS AMY VIE) HLD"}, true, "SUB ((AUS AMY VIE) HLD)"},
		{"ALY ($a)", map[string]string{"a": "AUS GER"}, true, "ALY (AUS GER)"},
		{"ALY ($a)", map[string]string{"a": "AUS"}, true, "ALY (AUS)"},
		{"PRP ($p)", map[string]string{"p": "(x / xyz-01)"}, true, "PRP (x / xyz-01)"},
		{"$a MTO $b", map[string]string{"a": "X"}, true, "X MTO $b"},
		{"(w / want-01 :ARG0 $arg1)", map[string]string{"arg1": "(b / boy)"}, false, "(w / want-01 :ARG0 (b / boy))"},
		{"$x", map[string]string{"x": "((A))"}, false, "((A))"},
	}

	for _, tt := range tests {
		if got := fill(tt.template, tt.values, tt.daide); got != tt.want {
			t.Errorf("fill(%q, %v) = %q, want %q", tt.template, tt.values, got, tt.want)
		}
	}
}

func TestHasOuterParens(t *testing.T) {
	tests := map[string]bool{
		"(AUS AMY VIE)":       true,
		"((A) B)":             true,
		"(A) (B)":             false,
		"AUS":                 false,
		"(A":                  false,
		"()":                  true,
		"(AUS AMY VIE) HLD":   false,
		"((A) HLD) ((B) HLD)": false,
	}
	for in, want := range tests {
		if got := hasOuterParens(in); got != want {
			t.Errorf("hasOuterParens(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestCollapseParens(t *testing.T) {
	tests := map[string]string{
		"PRP ((AUS))":         "PRP (AUS)",
		"(((AUS GER)))":       "(AUS GER)",
		"((AUS AMY VIE) HLD)": "((AUS AMY VIE) HLD)",
		"NOT ((A) (B))":       "NOT ((A) (B))",
	}
	for in, want := range tests {
		if got := collapseParens(in); got != want {
			t.Errorf("collapseParens(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCompose_NestedHoles(t *testing.T) {
	segs := []model.Segment{
		{Kind: model.SegmentDAIDE, Text: "PRP ($p)", Holes: []model.Hole{{Name: "p", Len: 2}}},
		{Kind: model.SegmentLiteral, Text: "(x / xyz-01 :ARG0 $arg1)", Holes: []model.Hole{{Name: "arg1", Len: 1}}},
		model.DAIDESegment("AUS"),
		model.LiteralSegment("(d / dog)"),
	}
	got := Compose(segs)
	want := "PRP (x / xyz-01 :ARG0 AUS) (d / dog)"
	if got != want {
		t.Errorf("Compose = %q, want %q", got, want)
	}
}

func TestCompose_Empty(t *testing.T) {
	if got := Compose(nil); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestGroup(t *testing.T) {
	run := group([]model.Segment{model.DAIDESegment("(AUS AMY VIE) HLD")})
	if run[0].Text != "((AUS AMY VIE) HLD)" {
		t.Errorf("expected grouped text, got %q", run[0].Text)
	}

	run = group([]model.Segment{model.DAIDESegment("AUS")})
	if run[0].Text != "AUS" {
		t.Errorf("expected single token untouched, got %q", run[0].Text)
	}

	mixed := []model.Segment{model.DAIDESegment("A B"), model.LiteralSegment("(x / y)")}
	if got := group(mixed); len(got) != 2 || got[0].Text != "A B" {
		t.Errorf("expected mixed run untouched, got %+v", got)
	}
}
