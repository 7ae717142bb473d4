package daide

import (
	"strings"
	"testing"

	"github.com/ppiankov/amr2daide/internal/dictionary"
)

func newGlosser(t *testing.T) *Glosser {
	t.Helper()
	d, err := dictionary.Default()
	if err != nil {
		t.Fatalf("load dictionary: %v", err)
	}
	return NewGlosser(d.Resources())
}

func TestGlosser_English(t *testing.T) {
	g := newGlosser(t)

	tests := []struct {
		daide string
		want  string
	}{
		{"AUS", "Austria"},
		{"ECH", "English Channel"},
		{"(AUS AMY VIE) MTO ECH", "The Austrian army in Vienna moved to the English Channel."},
		{"ALY (GER AUS ITA) (FRA RUS)", "Germany, Austria and Italy are allies against France and Russia."},
		{"ALY (FRA ENG)", "France and England are allies."},
		{"PRP (ALY (GER AUS ITA) (FRA RUS))", "We propose an alliance between Germany, Austria and Italy against France and Russia."},
		{"ITA FLT VEN", "the Italian fleet in Venice"},
		{"(FRA FLT (SPA NCS)) MTO MAO", "The French fleet on the north coast of Spain moved to the Mid-Atlantic Ocean."},
		{"(AUS AMY VIE) HLD", "The Austrian army in Vienna remained in place."},
		{"(AUS AMY TYR) SUP (AUS AMY VIE)", "The Austrian army in Tyrolia supported the Austrian army in Vienna."},
		{"SUB ((ITA AMY ROM) HLD)", "We submit the following order: the Italian army in Rome shall remain in place."},
		{
			"SUB ((ENG AMY LVP) HLD) ((ENG FLT LON) MTO NTH) ((ENG FLT EDI) SUP (ENG FLT LON) MTO NTH)",
			"We submit the following orders: (1) the English army in Liverpool shall remain in place; " +
				"(2) the English fleet in London shall move to the North Sea; and " +
				"(3) the English fleet in Edinburgh shall support the English fleet in London moving to the North Sea.",
		},
		{"DMZ (FRA GER) (BUR)", "DMZ (France Germany) Burgundy"},
		{"XYZ", "XYZ"},
	}

	for _, tt := range tests {
		got, errs := g.English(tt.daide)
		if len(errs) != 0 {
			t.Errorf("English(%q) errors: %v", tt.daide, errs)
		}
		if got != tt.want {
			t.Errorf("English(%q)\n got %q\nwant %q", tt.daide, got, tt.want)
		}
	}
}

func TestGlosser_ReportsErrors(t *testing.T) {
	g := newGlosser(t)
	got, errs := g.English("PRP (ALY (FRA ENG)")
	if len(errs) != 1 {
		t.Errorf("expected one missing-parenthesis error, got %v", errs)
	}
	if got != "We propose an alliance between France and England." {
		t.Errorf("unexpected paraphrase %q", got)
	}
}

func TestGlosser_Mentions(t *testing.T) {
	g := newGlosser(t)
	got := g.Mentions("(AUS AMY VIE) SUP (AUS FLT TRI) MTO ECH")

	var ids []string
	for _, e := range got {
		ids = append(ids, e.ID)
	}
	want := []string{"AUS", "VIE", "TRI", "ECH"}
	if strings.Join(ids, " ") != strings.Join(want, " ") {
		t.Errorf("Mentions() = %v, want %v", ids, want)
	}
}

func TestJoinList(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{"a"}, "a"},
		{[]string{"a", "b"}, "a and b"},
		{[]string{"a", "b", "c"}, "a, b and c"},
	}
	for _, tt := range tests {
		if got := joinList(tt.in); got != tt.want {
			t.Errorf("joinList(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
