package amr

import (
	"errors"
	"testing"
)

func TestParse_NamedEntity(t *testing.T) {
	g, err := Parse(`(c / country :name (n / name :op1 "Austria"))`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if g.Root.Variable != "c" || g.Root.Concept != "country" {
		t.Errorf("unexpected root (%s / %s)", g.Root.Variable, g.Root.Concept)
	}
	name, ok := g.Root.Child("name")
	if !ok {
		t.Fatal("expected :name child")
	}
	if name.Concept != "name" {
		t.Errorf("expected concept name, got %s", name.Concept)
	}
	op1, ok := name.Value("op1")
	if !ok || op1 != "Austria" {
		t.Errorf("expected op1 Austria, got %q (ok=%v)", op1, ok)
	}
	if len(g.Variables) != 2 {
		t.Errorf("expected 2 variables, got %d", len(g.Variables))
	}
}

func TestParse_MultiLine(t *testing.T) {
	text := `(p / propose-01
      :ARG0 (i / i)
      :ARG1 (a / ally-01
            :ARG1 (a2 / and
                  :op1 i
                  :op2 (y / you)))
      :polarity -
      :mode imperative)`

	g, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	roles := []string{"ARG0", "ARG1", "polarity", "mode"}
	if len(g.Root.Edges) != len(roles) {
		t.Fatalf("expected %d edges, got %d", len(roles), len(g.Root.Edges))
	}
	for i, role := range roles {
		if g.Root.Edges[i].Role != role {
			t.Errorf("edge %d: expected role %s, got %s", i, role, g.Root.Edges[i].Role)
		}
	}

	polarity, _ := g.Root.Value("polarity")
	if polarity != "-" {
		t.Errorf("expected polarity -, got %q", polarity)
	}
	if g.Root.Edges[2].Const.Quoted {
		t.Error("expected bare constant for polarity")
	}
}

func TestParse_Coreference(t *testing.T) {
	g, err := Parse(`(a / ally-01 :ARG1 (a2 / and :op1 (i / i) :op2 (y / you)) :ARG2 i)`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	and, _ := g.Root.Child("ARG1")
	first, _ := and.Child("op1")
	ref := g.Root.Edge("ARG2")
	if ref == nil || !ref.Reentrant {
		t.Fatal("expected reentrant :ARG2 edge")
	}
	if ref.Node != first {
		t.Error("expected coreference to resolve to the declared node, not a copy")
	}
}

func TestParse_ForwardReference(t *testing.T) {
	g, err := Parse(`(w / want-01 :ARG0 b :ARG1 (g / go-01 :ARG0 (b / boy)))`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	ref := g.Root.Edge("ARG0")
	boy, _ := g.Lookup("b")
	if ref.Node != boy {
		t.Error("expected forward reference to resolve to (b / boy)")
	}
}

func TestParse_Cycle(t *testing.T) {
	g, err := Parse(`(p / person :ARG0-of (h / have-rel-role-91 :ARG1 p))`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	h, _ := g.Lookup("h")
	back := h.Edge("ARG1")
	if back.Node != g.Root {
		t.Error("expected back-reference to root")
	}
}

func TestParse_QuotedEscapes(t *testing.T) {
	g, err := Parse(`(s / say-01 :ARG1 "he said \"hi\"")`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	v, _ := g.Root.Value("ARG1")
	if v != `he said "hi"` {
		t.Errorf("unexpected constant %q", v)
	}
	if got := g.Root.Edges[0].Const.String(); got != `"he said \"hi\""` {
		t.Errorf("unexpected rendering %s", got)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", ErrEmpty},
		{"whitespace", "  \n\t ", ErrEmpty},
		{"missing close", `(c / country :name (n / name :op1 "Austria")`, ErrUnbalanced},
		{"surplus close", `(c / country))`, ErrUnbalanced},
		{"leading close", `)(c / country)`, ErrUnbalanced},
		{"missing role marker", `(c / country (n / name))`, ErrMissingRoleMarker},
		{"bare value without role", `(c / country "Austria")`, ErrMissingRoleMarker},
		{"undeclared variable", `(a / ally-01 :ARG1 x)`, ErrUndeclaredVariable},
		{"duplicate variable", `(a / and :op1 (b / boy) :op2 (b / girl))`, ErrDuplicateVariable},
		{"missing slash", `(c country)`, ErrSyntax},
		{"role without value", `(c / country :name)`, ErrSyntax},
		{"unterminated string", `(c / country :name "Aus)`, ErrSyntax},
		{"not a group", `country`, ErrSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			if err == nil {
				t.Fatalf("expected error for %q", tt.input)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Errorf("expected *ParseError, got %T", err)
			}
		})
	}
}

func TestParse_ErrorPosition(t *testing.T) {
	_, err := Parse("(a / ally-01\n  :ARG1 x)")
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if perr.Line != 2 || perr.Col != 9 {
		t.Errorf("expected position 2:9, got %d:%d", perr.Line, perr.Col)
	}
}

func TestParse_Deterministic(t *testing.T) {
	text := `(m / move-01 :ARG1 (a / army :mod (c / country :name (n / name :op1 "Italy"))) :ARG2 (p / province :name (n2 / name :op1 "Trieste")))`
	g1, err := Parse(text)
	if err != nil {
		t.Fatal(err)
	}
	g2, err := Parse(text)
	if err != nil {
		t.Fatal(err)
	}
	if g1.String() != g2.String() {
		t.Errorf("expected identical renderings:\n%s\n%s", g1, g2)
	}
}

func TestHasAncestor(t *testing.T) {
	g, err := Parse(`(p / propose-01 :ARG1 (h / have-03 :ARG0 (c / country) :ARG1 (p2 / province)))`)
	if err != nil {
		t.Fatal(err)
	}
	c, _ := g.Lookup("c")
	if !c.HasAncestor("propose-01") {
		t.Error("expected propose-01 ancestor")
	}
	if c.HasAncestor("agree-01") {
		t.Error("unexpected agree-01 ancestor")
	}
	if g.Root.HasAncestor("propose-01") {
		t.Error("root has no ancestors")
	}
}
