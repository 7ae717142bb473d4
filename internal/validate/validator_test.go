package validate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	cleanHeader = "# ::type workset ::id dip_test_0001 ::username alice ::date Mon Jan 2, 2023\n" +
		"# ::description Orders exchanged in spring 1901 between two powers\n"
	cleanWorkset = cleanHeader +
		"dip_test_0001.1 I will move to Burgundy.\n" +
		"dip_test_0001.2 Support me in Munich.\n"
	cleanInfo = "dip_test_0001.1 sender: France recipient: Germany time: Spring 1901\n" +
		"dip_test_0001.2 sender: France recipient: Italy time: Spring 1901\n"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func hasFinding(findings []Finding, sev Severity, substr string) bool {
	for _, f := range findings {
		if f.Severity == sev && strings.Contains(f.Message, substr) {
			return true
		}
	}
	return false
}

func TestValidate_Clean(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "dip_test_0001.txt", cleanWorkset)
	writeFile(t, dir, "dip_test_0001.info", cleanInfo)
	writeFile(t, dir, "notes.md", "ignored inside directories\n")

	report, err := NewValidator(2, nil).Validate(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if len(report.Findings) != 0 {
		t.Errorf("expected no findings, got %v", report.Findings)
	}
	if report.Worksets != 1 || report.InfoFiles != 1 {
		t.Errorf("expected 1 workset and 1 info file, got %d and %d", report.Worksets, report.InfoFiles)
	}
}

func TestValidate_CompanionInfo(t *testing.T) {
	dir := t.TempDir()
	ws := writeFile(t, dir, "dip_test_0001.txt", cleanWorkset)
	writeFile(t, dir, "dip_test_0001.info", cleanInfo)

	report, err := NewValidator(1, nil).Validate(context.Background(), []string{ws})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if report.InfoFiles != 1 {
		t.Errorf("expected companion .info to be checked, got %d info files", report.InfoFiles)
	}
}

func TestValidate_Ignored(t *testing.T) {
	dir := t.TempDir()
	md := writeFile(t, dir, "notes.md", "x\n")
	missing := filepath.Join(dir, "absent.txt")

	report, err := NewValidator(1, nil).Validate(context.Background(), []string{md, missing})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if len(report.Ignored) != 2 {
		t.Errorf("expected 2 ignored paths, got %v", report.Ignored)
	}
}

func TestValidate_CrossCheck(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "dip_test_0001.txt", cleanWorkset)
	writeFile(t, dir, "dip_test_0001.info",
		"dip_test_0001.1 sender: France recipient: Germany time: Spring 1901\n"+
			"dip_test_0001.3 sender: France recipient: Germany time: Fall 1901\n")
	writeFile(t, dir, "dip_test_0002.txt", strings.ReplaceAll(cleanWorkset, "0001", "0002"))
	writeFile(t, dir, "dip_test_0003.info", "dip_test_0003.1 sender: Italy recipient: Turkey time: Winter 1902\n")

	report, err := NewValidator(4, nil).Validate(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	tests := []struct {
		sev    Severity
		substr string
	}{
		{SeverityError, "does not cover snt IDs (compared to dip_test_0001.txt): dip_test_0001.2"},
		{SeverityError, "contains spurious snt IDs (compared to dip_test_0001.txt): dip_test_0001.3"},
		{SeverityWarning, "Missing info files for worksets: dip_test_0002"},
		{SeverityWarning, "Missing worksets for: dip_test_0003"},
	}
	for _, tt := range tests {
		if !hasFinding(report.Findings, tt.sev, tt.substr) {
			t.Errorf("expected %s finding %q, got %v", tt.sev, tt.substr, report.Findings)
		}
	}
	if report.Errors() != 2 || report.Warnings() != 2 {
		t.Errorf("expected 2 errors and 2 warnings, got %d and %d", report.Errors(), report.Warnings())
	}
}

func TestCheckWorkset(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		sev     Severity
		substr  string
	}{
		{
			name:    "wrong type",
			file:    "dip_test_0001.txt",
			content: strings.Replace(cleanWorkset, "::type workset", "::type amr", 1),
			sev:     SeverityError,
			substr:  "has bad type 'amr'",
		},
		{
			name:    "id does not match file name",
			file:    "dip_other_0001.txt",
			content: cleanWorkset,
			sev:     SeverityError,
			substr:  "does not match filename dip_other_0001.txt",
		},
		{
			name:    "bad username",
			file:    "dip_test_0001.txt",
			content: strings.Replace(cleanWorkset, "alice", "Al", 1),
			sev:     SeverityError,
			substr:  "invalid ::username 'Al'",
		},
		{
			name:    "bad date",
			file:    "dip_test_0001.txt",
			content: strings.Replace(cleanWorkset, "Mon Jan 2, 2023", "2023-01-02", 1),
			sev:     SeverityError,
			substr:  "invalid ::date '2023-01-02'",
		},
		{
			name:    "short description",
			file:    "dip_test_0001.txt",
			content: strings.Replace(cleanWorkset, "Orders exchanged in spring 1901 between two powers", "Orders", 1),
			sev:     SeverityWarning,
			substr:  "short ::description 'Orders'",
		},
		{
			name:    "missing trailing newline",
			file:    "dip_test_0001.txt",
			content: strings.TrimSuffix(cleanWorkset, "\n"),
			sev:     SeverityError,
			substr:  "does not end with newline character",
		},
		{
			name:    "duplicate sentence id",
			file:    "dip_test_0001.txt",
			content: cleanWorkset + "dip_test_0001.2 Again.\n",
			sev:     SeverityError,
			substr:  "duplicate sentence ID dip_test_0001.2",
		},
		{
			name:    "zero sub-index",
			file:    "dip_test_0001.txt",
			content: cleanHeader + "dip_test_0001.0 Hello.\n",
			sev:     SeverityError,
			substr:  "sub-index is 0",
		},
		{
			name:    "leading zero sub-index",
			file:    "dip_test_0001.txt",
			content: cleanHeader + "dip_test_0001.01 Hello.\n",
			sev:     SeverityError,
			substr:  "sub-index starts with 0",
		},
		{
			name:    "non-sequential",
			file:    "dip_test_0001.txt",
			content: cleanHeader + "dip_test_0001.1 Hello.\ndip_test_0001.3 Again.\n",
			sev:     SeverityWarning,
			substr:  "non-sequential sentence ID sub-index 1 to 3",
		},
		{
			name:    "core change",
			file:    "dip_test_0001.txt",
			content: cleanHeader + "dip_test_0001.1 Hello.\ndip_test_0002.1 Again.\n",
			sev:     SeverityWarning,
			substr:  "change of core sentence ID from dip_test_0001 to dip_test_0002",
		},
		{
			name:    "empty sentence",
			file:    "dip_test_0001.txt",
			content: cleanHeader + "dip_test_0001.1\n",
			sev:     SeverityError,
			substr:  "has empty sentence",
		},
		{
			name:    "invalid first token",
			file:    "dip_test_0001.txt",
			content: cleanHeader + "hello there\n",
			sev:     SeverityError,
			substr:  "valid sentence ID: hello",
		},
		{
			name:    "no sentences",
			file:    "dip_test_0001.txt",
			content: cleanHeader,
			sev:     SeverityWarning,
			substr:  "contains no sentences",
		},
	}

	v := NewValidator(1, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.checkWorkset(tt.file, tt.content)
			if !hasFinding(res.findings, tt.sev, tt.substr) {
				t.Errorf("expected %s finding %q, got %v", tt.sev, tt.substr, res.findings)
			}
		})
	}
}

func TestCheckInfo(t *testing.T) {
	v := NewValidator(1, nil)

	res := v.checkInfo("dip_test_0001.info", cleanInfo)
	if len(res.findings) != 0 {
		t.Errorf("expected clean info file, got %v", res.findings)
	}
	if len(res.sentenceIDs) != 2 {
		t.Errorf("expected 2 sentence ids, got %v", res.sentenceIDs)
	}

	res = v.checkInfo("dip_test_0001.info", "dip_test_0001.1 sender: Prussia recipient: france time: autumn 1901\n")
	for _, want := range []string{"lacks valid sender", "lacks valid time"} {
		if !hasFinding(res.findings, SeverityError, want) {
			t.Errorf("expected %q, got %v", want, res.findings)
		}
	}
	if hasFinding(res.findings, SeverityError, "recipient") {
		t.Errorf("recipient is case-insensitive, got %v", res.findings)
	}
}

func TestCheckInfo_CustomPowers(t *testing.T) {
	v := NewValidator(1, []string{"Atlantis", "Lemuria"})
	res := v.checkInfo("x.info", "dip_x_0001.1 sender: Atlantis recipient: France time: Spring 1901\n")
	if !hasFinding(res.findings, SeverityError, "lacks valid recipient") {
		t.Errorf("expected recipient rejected, got %v", res.findings)
	}
	if hasFinding(res.findings, SeverityError, "sender") {
		t.Errorf("expected sender accepted, got %v", res.findings)
	}
}

func TestFinding_String(t *testing.T) {
	f := Finding{File: "a.txt", Line: 3, Severity: SeverityError, Message: "has empty sentence"}
	if got := f.String(); got != "a.txt line 3 has empty sentence" {
		t.Errorf("unexpected String() %q", got)
	}
	f = Finding{Message: "Missing worksets for: x"}
	if got := f.String(); got != "Missing worksets for: x" {
		t.Errorf("unexpected String() %q", got)
	}
}
