// Package extract reads annotated sentence records from AMR corpus files.
package extract

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ppiankov/amr2daide/internal/model"
)

var (
	// ErrMissingID marks a block without a "# ::id" line
	ErrMissingID = errors.New("extract: block has no ::id")
	// ErrMissingAMR marks a block with metadata but no AMR text
	ErrMissingAMR = errors.New("extract: block has no AMR")
	// ErrTooLarge marks input beyond the configured byte limit
	ErrTooLarge = errors.New("extract: input too large")
)

// BlockError reports a block that could not become a record. Reading can
// continue after it.
type BlockError struct {
	Line int
	ID   string
	Err  error
}

func (e *BlockError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("line %d (%s): %v", e.Line, e.ID, e.Err)
	}
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *BlockError) Unwrap() error { return e.Err }

var slotCache = map[string]*regexp.Regexp{}

func slotPattern(slot string) *regexp.Regexp {
	if re, ok := slotCache[slot]; ok {
		return re
	}
	return regexp.MustCompile(`^(?:.*\s)?::` + regexp.QuoteMeta(slot) + `(|\s+\S.*?)(?:\s+::\S.*|\s*)$`)
}

func init() {
	for _, slot := range []string{"id", "snt", "type", "username", "date", "description"} {
		slotCache[slot] = slotPattern(slot)
	}
}

// SlotValue returns the value of a ::slot in a metadata line such as
// "# ::id dip_0001.1 ::date May 1, 2023". The value may be empty.
func SlotValue(line, slot string) (string, bool) {
	m := slotPattern(slot).FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// RecordReader splits an annotation stream into records. Blocks are
// separated by blank lines; "#" lines carry metadata and the remaining lines
// are the AMR.
type RecordReader struct {
	scanner  *bufio.Scanner
	line     int
	maxBytes int64
	read     int64
}

// NewRecordReader creates a reader. maxBytes <= 0 means no limit.
func NewRecordReader(r io.Reader, maxBytes int64) *RecordReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 16<<20)
	return &RecordReader{scanner: s, maxBytes: maxBytes}
}

// Next returns the next record. It returns io.EOF at the end of input and a
// *BlockError for a malformed block, after which Next may be called again.
func (r *RecordReader) Next() (model.Record, error) {
	var (
		rec     model.Record
		amr     []string
		started bool
	)

	for r.scanner.Scan() {
		r.line++
		text := r.scanner.Text()
		r.read += int64(len(text)) + 1
		if r.maxBytes > 0 && r.read > r.maxBytes {
			return model.Record{}, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, r.maxBytes)
		}

		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			if started {
				return r.finish(rec, amr)
			}
			continue
		}
		if !started {
			started = true
			rec.Line = r.line
		}

		if strings.HasPrefix(trimmed, "#") {
			if v, ok := SlotValue(trimmed, "snt"); ok && v != "" {
				rec.Snt = v
			}
			if v, ok := SlotValue(trimmed, "id"); ok && v != "" {
				rec.ID = v
			}
			continue
		}
		amr = append(amr, strings.TrimRight(text, " \t\r"))
	}

	if err := r.scanner.Err(); err != nil {
		return model.Record{}, fmt.Errorf("read annotations: %w", err)
	}
	if started {
		return r.finish(rec, amr)
	}
	return model.Record{}, io.EOF
}

func (r *RecordReader) finish(rec model.Record, amr []string) (model.Record, error) {
	rec.AMR = strings.TrimSpace(strings.Join(amr, "\n"))
	switch {
	case rec.AMR == "" && rec.ID == "":
		// Header comments only
		return r.Next()
	case rec.ID == "":
		return model.Record{}, &BlockError{Line: rec.Line, Err: ErrMissingID}
	case rec.AMR == "":
		return model.Record{}, &BlockError{Line: rec.Line, ID: rec.ID, Err: ErrMissingAMR}
	}
	return rec, nil
}

// ReadAll reads every record. Malformed blocks are collected in skipped;
// err is set only when reading itself fails.
func ReadAll(r io.Reader, maxBytes int64) (records []model.Record, skipped []*BlockError, err error) {
	rr := NewRecordReader(r, maxBytes)
	for {
		rec, err := rr.Next()
		if errors.Is(err, io.EOF) {
			return records, skipped, nil
		}
		var be *BlockError
		if errors.As(err, &be) {
			skipped = append(skipped, be)
			continue
		}
		if err != nil {
			return records, skipped, err
		}
		records = append(records, rec)
	}
}
