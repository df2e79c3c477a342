package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/csvask/internal/ai"
	"github.com/KaramelBytes/csvask/internal/analyzer"
	"github.com/KaramelBytes/csvask/internal/table"
)

func mustTable(t *testing.T, src string) *table.Table {
	t.Helper()
	tb, err := table.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return tb
}

func TestWriteAnswerText(t *testing.T) {
	out := &analyzer.Outcome{
		Table:    mustTable(t, "a,b\n1,2\n3,4\n"),
		Question: "sum of a?",
		Prompt:   "p",
		Answer:   "4",
	}
	var buf bytes.Buffer
	if err := writeAnswer(out, outputOptions{File: "data.csv", Writer: &buf}); err != nil {
		t.Fatalf("writeAnswer: %v", err)
	}
	got := buf.String()
	if !strings.Contains(got, "data.csv (2 rows × 2 columns)") {
		t.Fatalf("missing shape line: %q", got)
	}
	if !strings.Contains(got, "🧠 Answer") || !strings.HasSuffix(got, "4\n") {
		t.Fatalf("unexpected answer block: %q", got)
	}
}

func TestWriteAnswerQuietOnlyAnswer(t *testing.T) {
	out := &analyzer.Outcome{Table: mustTable(t, "a\n1\n"), Answer: "one row"}
	var buf bytes.Buffer
	if err := writeAnswer(out, outputOptions{Quiet: true, Writer: &buf}); err != nil {
		t.Fatalf("writeAnswer: %v", err)
	}
	if buf.String() != "one row\n" {
		t.Fatalf("quiet output = %q", buf.String())
	}
}

func TestWriteAnswerJSONToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "answer.json")
	out := &analyzer.Outcome{
		Table:    mustTable(t, "a,b\n1,2\n"),
		Question: "q",
		Prompt:   "prompt text",
		Answer:   "42",
		Usage:    ai.Usage{PromptTokens: 1000, CompletionTokens: 10, TotalTokens: 1010},
	}
	var buf bytes.Buffer
	err := writeAnswer(out, outputOptions{JSON: true, Quiet: true, File: "x.csv", Model: "gpt-4o-mini", OutputPath: path, Writer: &buf})
	if err != nil {
		t.Fatalf("writeAnswer: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, b)
	}
	if m["answer"] != "42" || m["file"] != "x.csv" {
		t.Fatalf("unexpected payload: %v", m)
	}
	if m["rows"].(float64) != 1 || m["columns"].(float64) != 2 {
		t.Fatalf("unexpected shape: %v", m)
	}
	if _, ok := m["cost_usd_est"]; !ok {
		t.Fatalf("expected cost estimate for a catalogued model")
	}
	if strings.TrimSpace(buf.String()) != strings.TrimSpace(string(b)) {
		t.Fatalf("stdout and file differ")
	}
}

func TestRenderPreview(t *testing.T) {
	tb := mustTable(t, "name,score\nann,1\nbob,NA\ncid,3\n")
	var buf bytes.Buffer
	renderPreview(&buf, tb, 2)
	got := buf.String()
	for _, want := range []string{"name (text)", "score (integer)", "ann", "bob", "3 rows × 2 columns (showing first 2)", "score: 1 missing"} {
		if !strings.Contains(got, want) {
			t.Errorf("preview missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "cid") {
		t.Errorf("row beyond limit rendered:\n%s", got)
	}
}

func TestRenderPreviewNoLimit(t *testing.T) {
	tb := mustTable(t, "a\n1\n2\n")
	var buf bytes.Buffer
	renderPreview(&buf, tb, 0)
	if strings.Contains(buf.String(), "showing first") {
		t.Fatalf("unexpected truncation note:\n%s", buf.String())
	}
}

func TestMaskAndSplitList(t *testing.T) {
	if got := mask(""); got != "" {
		t.Fatalf("mask empty = %q", got)
	}
	if got := mask("short"); got != "******" {
		t.Fatalf("mask short = %q", got)
	}
	if got := mask("abcdefghij"); got != "abc****hij" {
		t.Fatalf("mask long = %q", got)
	}
	got := splitList(" http://a.test, ,http://b.test ")
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Fatalf("splitList = %v", got)
	}
}

func TestDisplayAddr(t *testing.T) {
	if got := displayAddr(":8501"); got != "localhost:8501" {
		t.Fatalf("displayAddr = %q", got)
	}
	if got := displayAddr("0.0.0.0:80"); got != "0.0.0.0:80" {
		t.Fatalf("displayAddr = %q", got)
	}
}
