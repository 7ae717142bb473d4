package model

// SegmentKind tags a unit of translation output
type SegmentKind string

const (
	SegmentDAIDE   SegmentKind = "daide"   // DAIDE token text
	SegmentLiteral SegmentKind = "literal" // Untranslated AMR fragment
)

// Hole is a $Name placeholder inside a segment's text. The Len segments that
// follow the segment in its sequence (after any earlier holes' runs) fill it.
type Hole struct {
	Name string `json:"name"`
	Len  int    `json:"len"`
}

// Segment is one unit of a translation. Sequences are ordered; the order is
// significant because DAIDE is positional.
type Segment struct {
	Kind  SegmentKind `json:"kind"`
	Text  string      `json:"text"`
	Rule  string      `json:"rule,omitempty"`  // Producing rule id (developer mode only)
	Holes []Hole      `json:"holes,omitempty"` // Placeholders filled by following runs
}

// DAIDESegment creates a closed DAIDE segment
func DAIDESegment(text string) Segment {
	return Segment{Kind: SegmentDAIDE, Text: text}
}

// LiteralSegment creates a closed literal fragment
func LiteralSegment(text string) Segment {
	return Segment{Kind: SegmentLiteral, Text: text}
}

// IsDAIDE reports whether the segment carries DAIDE tokens
func (s Segment) IsDAIDE() bool {
	return s.Kind == SegmentDAIDE
}

// IsClosed reports whether the segment has no pending holes
func (s Segment) IsClosed() bool {
	return len(s.Holes) == 0
}

// Span returns the number of segments the hole runs of s occupy after it
func (s Segment) Span() int {
	n := 0
	for _, h := range s.Holes {
		n += h.Len
	}
	return n
}
