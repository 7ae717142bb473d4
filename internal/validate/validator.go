// Package validate checks annotator worksets (.txt) and their companion
// .info files.
package validate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/ppiankov/amr2daide/internal/extract"
)

// Severity of a finding
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is one problem found in a workset or info file
type Finding struct {
	File     string   `json:"file,omitempty"`
	Line     int      `json:"line,omitempty"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

func (f Finding) String() string {
	switch {
	case f.File != "" && f.Line > 0:
		return fmt.Sprintf("%s line %d %s", f.File, f.Line, f.Message)
	case f.File != "":
		return fmt.Sprintf("%s %s", f.File, f.Message)
	default:
		return f.Message
	}
}

// Report is the outcome of checking a set of files
type Report struct {
	Findings  []Finding `json:"findings"`
	Worksets  int       `json:"worksets_checked"`
	InfoFiles int       `json:"info_files_checked"`
	Ignored   []string  `json:"ignored,omitempty"`
}

// Errors counts error findings
func (r *Report) Errors() int { return r.count(SeverityError) }

// Warnings counts warning findings
func (r *Report) Warnings() int { return r.count(SeverityWarning) }

func (r *Report) count(s Severity) int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == s {
			n++
		}
	}
	return n
}

var (
	worksetIDPattern = regexp.MustCompile(`(?i)^dip[-_a-zA-Z0-9]+[a-zA-Z0-9]`)
	usernamePattern  = regexp.MustCompile(`^[a-z]{3,}$`)
	datePattern      = regexp.MustCompile(`^(?:(?:Mon|Tue|Wed|Thu|Fri|Sat|Sun) )?(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec) \d{1,2}, 20\d\d$`)
	sentencePattern  = regexp.MustCompile(`(?i)^(([a-z][-_a-z0-9]*[a-z0-9]_\d\d\d\d)\.(\d+))\s*(.*?)\s*$`)
	timePattern      = regexp.MustCompile(`(?i)\btime: (Spring|Summer|Fall|Winter) 19\d\d\b`)
)

// DefaultPowers are the seven great powers of the standard map
var DefaultPowers = []string{"Austria", "England", "France", "Germany", "Italy", "Russia", "Turkey"}

// Validator checks worksets concurrently
type Validator struct {
	maxWorkers int
	sender     *regexp.Regexp
	recipient  *regexp.Regexp
}

// NewValidator creates a validator. Powers are the names accepted as
// sender and recipient; empty means DefaultPowers.
func NewValidator(maxWorkers int, powers []string) *Validator {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	if len(powers) == 0 {
		powers = DefaultPowers
	}
	quoted := make([]string, len(powers))
	for i, p := range powers {
		quoted[i] = regexp.QuoteMeta(p)
	}
	alt := strings.Join(quoted, "|")
	return &Validator{
		maxWorkers: maxWorkers,
		sender:     regexp.MustCompile(`(?i)\bsender: (` + alt + `)\b`),
		recipient:  regexp.MustCompile(`(?i)\brecipient: (` + alt + `)\b`),
	}
}

// fileResult is what checking one file yields
type fileResult struct {
	id          string // file name without extension
	workset     bool
	headerID    string // ::id on the workset header line
	sentenceIDs map[string]bool
	findings    []Finding
}

// Validate checks every workset and info file named by paths. Directories
// contribute the .txt and .info files they contain; a workset pulls in its
// companion .info file when one exists.
func (v *Validator) Validate(ctx context.Context, paths []string) (*Report, error) {
	worksets, infos, ignored, err := collect(paths)
	if err != nil {
		return nil, err
	}

	files := append(append([]string{}, worksets...), infos...)
	results := make([]fileResult, len(files))
	errs := make([]error, len(files))
	var wg sync.WaitGroup

	semaphore := make(chan struct{}, v.maxWorkers)

	for i, path := range files {
		wg.Add(1)
		go func(idx int, p string) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				errs[idx] = ctx.Err()
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			data, err := os.ReadFile(p)
			if err != nil {
				errs[idx] = fmt.Errorf("read %s: %w", p, err)
				return
			}
			if idx < len(worksets) {
				results[idx] = v.checkWorkset(p, string(data))
			} else {
				results[idx] = v.checkInfo(p, string(data))
			}
		}(i, path)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	report := &Report{
		Worksets:  len(worksets),
		InfoFiles: len(infos),
		Ignored:   ignored,
	}
	for _, r := range results {
		report.Findings = append(report.Findings, r.findings...)
	}
	report.Findings = append(report.Findings, crossCheck(results)...)
	return report, nil
}

// collect expands paths into sorted, de-duplicated workset and info lists.
func collect(paths []string) (worksets, infos, ignored []string, err error) {
	seenW := map[string]bool{}
	seenI := map[string]bool{}
	addFile := func(p string) bool {
		switch filepath.Ext(p) {
		case ".txt":
			if !seenW[p] {
				seenW[p] = true
				worksets = append(worksets, p)
			}
			return true
		case ".info":
			if !seenI[p] {
				seenI[p] = true
				infos = append(infos, p)
			}
			return true
		}
		return false
	}

	for _, p := range paths {
		fi, statErr := os.Stat(p)
		if statErr != nil {
			ignored = append(ignored, p)
			continue
		}
		if fi.IsDir() {
			entries, err := os.ReadDir(p)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("read directory %s: %w", p, err)
			}
			for _, e := range entries {
				if !e.IsDir() {
					addFile(filepath.Join(p, e.Name()))
				}
			}
			continue
		}
		if !addFile(p) {
			ignored = append(ignored, p)
			continue
		}
		if filepath.Ext(p) == ".txt" {
			companion := strings.TrimSuffix(p, ".txt") + ".info"
			if _, err := os.Stat(companion); err == nil {
				addFile(companion)
			}
		}
	}

	sort.Strings(worksets)
	sort.Strings(infos)
	return worksets, infos, ignored, nil
}

func splitLines(name, content string) ([]string, []Finding) {
	var findings []Finding
	lines := strings.Split(content, "\n")
	if last := lines[len(lines)-1]; last == "" {
		lines = lines[:len(lines)-1]
	} else {
		findings = append(findings, Finding{
			File: name, Line: len(lines), Severity: SeverityError,
			Message: fmt.Sprintf("does not end with newline character ('%s')", last),
		})
	}
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}
	return lines, findings
}

// checkWorkset checks one workset file's content
func (v *Validator) checkWorkset(path, content string) fileResult {
	name := filepath.Base(path)
	res := fileResult{
		id:          strings.TrimSuffix(name, ".txt"),
		workset:     true,
		sentenceIDs: map[string]bool{},
	}
	lines, findings := splitLines(path, content)
	res.findings = findings

	errorf := func(line int, format string, args ...interface{}) {
		res.findings = append(res.findings, Finding{File: path, Line: line, Severity: SeverityError, Message: fmt.Sprintf(format, args...)})
	}
	warnf := func(line int, format string, args ...interface{}) {
		res.findings = append(res.findings, Finding{File: path, Line: line, Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)})
	}

	var core, subIndex string
	sentences := 0
	for i, line := range lines {
		n := i + 1
		switch n {
		case 1:
			if t, ok := extract.SlotValue(line, "type"); ok && t != "" {
				if t != "workset" {
					errorf(n, "has bad type '%s'", t)
				}
			} else {
				errorf(n, "lacks ::type")
			}
			if id, ok := extract.SlotValue(line, "id"); ok && id != "" {
				res.headerID = id
				if id != res.id {
					errorf(n, "::id %s does not match filename %s", id, name)
				}
				if !worksetIDPattern.MatchString(id) {
					errorf(n, "has invalid ::id %s", id)
				}
			} else {
				errorf(n, "lacks ::id")
			}
			if u, ok := extract.SlotValue(line, "username"); ok && u != "" {
				if !usernamePattern.MatchString(u) {
					errorf(n, "has invalid ::username '%s'", u)
				}
			} else {
				errorf(n, "lacks ::username")
			}
			if d, ok := extract.SlotValue(line, "date"); ok && d != "" {
				if !datePattern.MatchString(d) {
					errorf(n, "has invalid ::date '%s'", d)
				}
			} else {
				errorf(n, "lacks ::date")
			}
			if !strings.HasPrefix(line, "# ") {
				errorf(n, "should start with '# '")
			}
		case 2:
			if d, ok := extract.SlotValue(line, "description"); ok && d != "" {
				if len(d) < 20 {
					warnf(n, "has short ::description '%s'", d)
				}
			} else {
				errorf(n, "lacks ::description")
			}
			if !strings.HasPrefix(line, "# ") {
				errorf(n, "should start with '# '")
			}
		default:
			m := sentencePattern.FindStringSubmatch(line)
			if m == nil {
				if first := strings.Fields(line); len(first) > 0 && !strings.HasPrefix(line, " ") && !strings.HasPrefix(line, "\t") {
					errorf(n, "does not start with a valid sentence ID: %s", first[0])
				} else {
					errorf(n, "does not start with a valid sentence ID; rather, it starts with a space")
				}
				continue
			}
			sentences++
			id, idCore, idSub, text := m[1], m[2], m[3], m[4]
			if res.sentenceIDs[id] {
				errorf(n, "has duplicate sentence ID %s", id)
			}
			res.sentenceIDs[id] = true

			if idSub == "0" {
				errorf(n, "sentence ID sub-index is 0 (%s)", id)
			} else if strings.HasPrefix(idSub, "0") {
				errorf(n, "sentence ID sub-index starts with 0 (%s)", id)
			}
			if core != "" && core != idCore {
				warnf(n, "change of core sentence ID from %s to %s", core, idCore)
			} else if subIndex != "" {
				prev, _ := strconv.Atoi(subIndex)
				cur, _ := strconv.Atoi(idSub)
				if prev+1 != cur {
					warnf(n, "non-sequential sentence ID sub-index %s to %s", subIndex, idSub)
				}
			}
			core, subIndex = idCore, idSub
			if text == "" {
				errorf(n, "sentence ID %s has empty sentence", id)
			}
		}
	}

	if sentences == 0 {
		res.findings = append(res.findings, Finding{File: path, Severity: SeverityWarning, Message: "contains no sentences"})
	}
	return res
}

// checkInfo checks one .info file's content
func (v *Validator) checkInfo(path, content string) fileResult {
	name := filepath.Base(path)
	res := fileResult{
		id:          strings.TrimSuffix(name, ".info"),
		sentenceIDs: map[string]bool{},
	}
	lines, findings := splitLines(path, content)
	res.findings = findings

	errorf := func(line int, format string, args ...interface{}) {
		res.findings = append(res.findings, Finding{File: path, Line: line, Severity: SeverityError, Message: fmt.Sprintf(format, args...)})
	}

	for i, line := range lines {
		n := i + 1
		m := sentencePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		id, text := m[1], m[4]
		if res.sentenceIDs[id] {
			errorf(n, "has duplicate sentence ID %s", id)
		}
		res.sentenceIDs[id] = true

		if !v.sender.MatchString(text) {
			errorf(n, "lacks valid sender")
		}
		if !v.recipient.MatchString(text) {
			errorf(n, "lacks valid recipient")
		}
		if !timePattern.MatchString(text) {
			errorf(n, "lacks valid time")
		}
	}
	return res
}

// crossCheck compares workset and info files that share an id.
func crossCheck(results []fileResult) []Finding {
	worksets := map[string]fileResult{}
	infos := map[string]fileResult{}
	for _, r := range results {
		if r.workset {
			if r.headerID != "" {
				worksets[r.headerID] = r
			}
		} else {
			infos[r.id] = r
		}
	}

	var findings []Finding
	if missing := difference(keys(worksets), infos); len(missing) > 0 {
		findings = append(findings, Finding{Severity: SeverityWarning, Message: fmt.Sprintf("Missing info files for worksets: %s", strings.Join(missing, ", "))})
	}
	if missing := difference(keys(infos), worksets); len(missing) > 0 {
		findings = append(findings, Finding{Severity: SeverityWarning, Message: fmt.Sprintf("Missing worksets for: %s", strings.Join(missing, ", "))})
	}

	for _, id := range keys(worksets) {
		info, ok := infos[id]
		if !ok {
			continue
		}
		w := worksets[id]
		if missing := difference(keys(w.sentenceIDs), info.sentenceIDs); len(missing) > 0 {
			findings = append(findings, Finding{Severity: SeverityError,
				Message: fmt.Sprintf("%s.info does not cover snt IDs (compared to %s.txt): %s", id, id, strings.Join(missing, ", "))})
		}
		if spurious := difference(keys(info.sentenceIDs), w.sentenceIDs); len(spurious) > 0 {
			findings = append(findings, Finding{Severity: SeverityError,
				Message: fmt.Sprintf("%s.info contains spurious snt IDs (compared to %s.txt): %s", id, id, strings.Join(spurious, ", "))})
		}
	}
	return findings
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func difference[V any](sorted []string, other map[string]V) []string {
	var out []string
	for _, k := range sorted {
		if _, ok := other[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}
