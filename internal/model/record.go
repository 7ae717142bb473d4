package model

import "regexp"

// SentenceIDPattern is the shape of a corpus sentence id, e.g. dip_0001.1
var SentenceIDPattern = regexp.MustCompile(`^dip[_a-zA-Z0-9]+[a-zA-Z0-9]_\d\d\d\d\.\d+$`)

// Record is one annotated sentence read from an AMR file
type Record struct {
	ID   string `json:"id"`             // Sentence id (# ::id)
	Snt  string `json:"snt"`            // Source sentence (# ::snt)
	AMR  string `json:"amr"`            // Raw AMR annotation text
	Line int    `json:"line,omitempty"` // 1-based line where the block starts
}

// ValidID reports whether the record id has the corpus sentence id shape
func (r Record) ValidID() bool {
	return SentenceIDPattern.MatchString(r.ID)
}
