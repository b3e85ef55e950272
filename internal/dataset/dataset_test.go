package dataset

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const fixture = "testdata/questions.csv"

func countDataLines(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read fixture: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	return len(lines) - 1
}

func TestLoadFixture(t *testing.T) {
	records, err := Load(fixture)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if want := countDataLines(t, fixture); len(records) != want {
		t.Errorf("expected %d records, got %d", want, len(records))
	}

	for i, rec := range records {
		if rec.Category == "" {
			t.Errorf("record %d: empty category", i)
		}
		if rec.Question == "" {
			t.Errorf("record %d: empty question", i)
		}
	}
}

func TestLoadFirstRow(t *testing.T) {
	records, err := Load(fixture)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := QuestionRecord{
		Category: "Management Commentary",
		Question: "How has Apple management recently commented on services attach rates and other value-added offerings?",
	}
	if records[0] != want {
		t.Errorf("expected %+v, got %+v", want, records[0])
	}
}

func TestLoadQuotedComma(t *testing.T) {
	records, err := Load(fixture)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	q := records[2].Question
	if !strings.Contains(q, "prior year, and what drove") {
		t.Errorf("expected quoted comma to stay inside the question, got %q", q)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.csv"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestParseUnquotedThirdField(t *testing.T) {
	input := "category,question\nGuidance,What is the outlook, and why?\n"
	_, err := Parse(strings.NewReader(input))
	if err == nil {
		t.Fatal("expected error for three unquoted fields")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if pe.Line != 2 {
		t.Errorf("expected line 2, got %d", pe.Line)
	}
}

func TestParseQuotedThirdField(t *testing.T) {
	input := "category,question\nGuidance,\"What is the outlook, and why?\"\n"
	records, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Question != "What is the outlook, and why?" {
		t.Errorf("unexpected question %q", records[0].Question)
	}
}

func TestParseSingleField(t *testing.T) {
	input := "category,question\nGuidance\n"
	_, err := Parse(strings.NewReader(input))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
}

func TestParseHeaderMismatch(t *testing.T) {
	cases := []string{
		"label,question\nGuidance,Q?\n",
		"category,text\nGuidance,Q?\n",
		"category,question,extra\nGuidance,Q?,x\n",
		"category\nGuidance\n",
	}
	for _, input := range cases {
		_, err := Parse(strings.NewReader(input))
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("input %q: expected *ParseError, got %v", input, err)
			continue
		}
		if pe.Line != 1 {
			t.Errorf("input %q: expected line 1, got %d", input, pe.Line)
		}
	}
}

func TestParseEmptyInput(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if !strings.Contains(pe.Msg, "missing header") {
		t.Errorf("unexpected message %q", pe.Msg)
	}
}

func TestParseHeaderOnly(t *testing.T) {
	records, err := Parse(strings.NewReader("category,question\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected 0 records, got %d", len(records))
	}
}

func TestParseBOMHeader(t *testing.T) {
	input := "\ufeffcategory,question\nGuidance,Q?\n"
	records, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].Category != "Guidance" {
		t.Errorf("unexpected records %+v", records)
	}
}

func TestParseEmptyFields(t *testing.T) {
	for _, input := range []string{
		"category,question\n,Q?\n",
		"category,question\nGuidance,\n",
	} {
		_, err := Parse(strings.NewReader(input))
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("input %q: expected *ParseError, got %v", input, err)
		}
	}
}

func TestParseBareQuote(t *testing.T) {
	input := "category,question\nGuidance,What about \"this\" one?\n"
	_, err := Parse(strings.NewReader(input))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if pe.Err == nil {
		t.Error("expected wrapped csv error")
	}
}

func TestRoundTrip(t *testing.T) {
	records, err := Load(fixture)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var buf bytes.Buffer
	if err := Write(&buf, records); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	again, err := Parse(&buf)
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}
	if len(again) != len(records) {
		t.Fatalf("expected %d records, got %d", len(records), len(again))
	}
	for i := range records {
		if again[i] != records[i] {
			t.Errorf("record %d: expected %+v, got %+v", i, records[i], again[i])
		}
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	records := []QuestionRecord{
		{Category: CategoryGuidance, Question: "What is the outlook, and why?"},
		{Category: CategoryRisks, Question: "Is there a \"key\" risk?"},
	}
	if err := Save(path, records); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(loaded) != 2 || loaded[0] != records[0] || loaded[1] != records[1] {
		t.Errorf("expected %+v, got %+v", records, loaded)
	}
}
