package model

// Status classifies how much of a sentence was translated
type Status string

const (
	StatusNone    Status = "No-DAIDE"      // No DAIDE segment at all
	StatusPartial Status = "Partial-DAIDE" // DAIDE mixed with literal fragments
	StatusFull    Status = "Full-DAIDE"    // DAIDE only
)

// HasDAIDE reports whether a result with this status carries DAIDE text
func (s Status) HasDAIDE() bool {
	return s == StatusPartial || s == StatusFull
}

// Result is the translation of one record
type Result struct {
	Index    int       `json:"-"`               // Position in the input stream
	Record   Record    `json:"record"`          // Source record
	Segments []Segment `json:"segments"`        // Ordered translation units
	Status   Status    `json:"status"`          // Completeness classification
	DAIDE    string    `json:"daide,omitempty"` // Composed text, empty for No-DAIDE
	Rules    []string  `json:"rules,omitempty"` // Fired rule ids (developer mode)
	Cached   bool      `json:"-"`               // Served from the translation cache
}

// Literals returns the text of every literal fragment in order
func (r *Result) Literals() []string {
	var out []string
	for _, s := range r.Segments {
		if !s.IsDAIDE() {
			out = append(out, s.Text)
		}
	}
	return out
}
