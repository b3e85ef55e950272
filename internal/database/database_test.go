package database

import (
	"path/filepath"
	"testing"

	"github.com/TobiSchelling/questionbank/internal/dataset"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleRecords() []dataset.QuestionRecord {
	return []dataset.QuestionRecord{
		{Category: dataset.CategoryManagementCommentary, Question: "How has Apple management recently commented on services attach rates?"},
		{Category: dataset.CategoryGuidance, Question: "What revenue growth did Apple guide to?"},
		{Category: dataset.CategoryGuidance, Question: "How will Services margin trend?"},
		{Category: dataset.CategoryRisks, Question: "What are the tariff risks?"},
	}
}

func TestOpenPragmas(t *testing.T) {
	db := openTestDB(t)

	var mode string
	if err := db.conn.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("reading journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("expected journal_mode wal, got %q", mode)
	}

	var timeout int
	if err := db.conn.QueryRow("PRAGMA busy_timeout").Scan(&timeout); err != nil {
		t.Fatalf("reading busy_timeout: %v", err)
	}
	if timeout != 5000 {
		t.Errorf("expected busy_timeout 5000, got %d", timeout)
	}
}

func TestReplaceQuestions(t *testing.T) {
	db := openTestDB(t)
	n, err := db.ReplaceQuestions("questions.csv", sampleRecords())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 4 {
		t.Errorf("expected 4 inserted, got %d", n)
	}

	questions, err := db.GetQuestions("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(questions) != 4 {
		t.Fatalf("expected 4 questions, got %d", len(questions))
	}
	for i, q := range questions {
		if q.Position != i+1 {
			t.Errorf("expected position %d, got %d", i+1, q.Position)
		}
	}
	if questions[0].Category != dataset.CategoryManagementCommentary {
		t.Errorf("expected first row to keep its category, got %q", questions[0].Category)
	}
}

func TestReplaceQuestionsIdempotent(t *testing.T) {
	db := openTestDB(t)
	db.ReplaceQuestions("questions.csv", sampleRecords())
	db.ReplaceQuestions("questions.csv", sampleRecords()[:2])

	questions, _ := db.GetQuestions("")
	if len(questions) != 2 {
		t.Errorf("expected 2 questions after replace, got %d", len(questions))
	}
}

func TestReplaceQuestionsKeepsOtherSources(t *testing.T) {
	db := openTestDB(t)
	db.ReplaceQuestions("a.csv", sampleRecords())
	db.ReplaceQuestions("b.csv", sampleRecords()[:1])

	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalQuestions != 5 {
		t.Errorf("expected 5 questions, got %d", stats.TotalQuestions)
	}
	if stats.Sources != 2 {
		t.Errorf("expected 2 sources, got %d", stats.Sources)
	}
}

func TestReplaceQuestionsRejectsEmpty(t *testing.T) {
	db := openTestDB(t)
	records := append(sampleRecords(), dataset.QuestionRecord{Category: "", Question: "x"})
	if _, err := db.ReplaceQuestions("bad.csv", records); err == nil {
		t.Fatal("expected error for empty category")
	}

	questions, _ := db.GetQuestions("")
	if len(questions) != 0 {
		t.Errorf("expected rollback to leave no rows, got %d", len(questions))
	}
}

func TestGetQuestionsByCategory(t *testing.T) {
	db := openTestDB(t)
	db.ReplaceQuestions("questions.csv", sampleRecords())

	guidance, err := db.GetQuestions(dataset.CategoryGuidance)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(guidance) != 2 {
		t.Errorf("expected 2 guidance questions, got %d", len(guidance))
	}

	none, _ := db.GetQuestions("Weather")
	if len(none) != 0 {
		t.Errorf("expected 0 questions, got %d", len(none))
	}
}

func TestSearchQuestions(t *testing.T) {
	db := openTestDB(t)
	db.ReplaceQuestions("questions.csv", sampleRecords())

	found, err := db.SearchQuestions("services")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(found) != 2 {
		t.Errorf("expected 2 matches, got %d", len(found))
	}
}

func TestSearchQuestionsLiteralWildcards(t *testing.T) {
	db := openTestDB(t)
	db.ReplaceQuestions("questions.csv", []dataset.QuestionRecord{
		{Category: dataset.CategoryEarnings, Question: "Did gross margin reach 46% this quarter?"},
		{Category: dataset.CategoryEarnings, Question: `Was the C:\reports path shared?`},
		{Category: dataset.CategoryGuidance, Question: "What revenue growth did Apple guide to?"},
	})

	cases := []struct {
		term string
		want int
	}{
		{"%", 1},
		{"_", 0},
		{`\`, 1},
		{"46%", 1},
		{"4_%", 0},
	}
	for _, c := range cases {
		found, err := db.SearchQuestions(c.term)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", c.term, err)
		}
		if len(found) != c.want {
			t.Errorf("%q: expected %d matches, got %d", c.term, c.want, len(found))
		}
	}
}

func TestGetQuestion(t *testing.T) {
	db := openTestDB(t)
	db.ReplaceQuestions("questions.csv", sampleRecords())

	all, _ := db.GetQuestions("")
	q, err := db.GetQuestion(all[1].ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q == nil || q.Question != all[1].Question {
		t.Errorf("expected %q, got %+v", all[1].Question, q)
	}

	missing, err := db.GetQuestion(9999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing question")
	}
}

func TestGetCategoryCounts(t *testing.T) {
	db := openTestDB(t)
	db.ReplaceQuestions("questions.csv", sampleRecords())

	counts, err := db.GetCategoryCounts()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(counts) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(counts))
	}
	if counts[0].Category != dataset.CategoryGuidance || counts[0].Count != 2 {
		t.Errorf("expected Guidance with 2 first, got %+v", counts[0])
	}
}

func TestRecords(t *testing.T) {
	db := openTestDB(t)
	want := sampleRecords()
	db.ReplaceQuestions("questions.csv", want)

	got, err := db.Records("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestImportReports(t *testing.T) {
	db := openTestDB(t)

	last, err := db.GetLastImport()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if last != nil {
		t.Error("expected no import report on empty db")
	}

	db.InsertReport("a.csv", 10, 3, 1)
	db.InsertReport("b.csv", 20, 5, 0)

	last, err = db.GetLastImport()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if last == nil || last.Source != "b.csv" || last.RowCount != 20 {
		t.Errorf("expected latest report for b.csv, got %+v", last)
	}

	stats, _ := db.GetStats()
	if stats.Imports != 2 {
		t.Errorf("expected 2 imports, got %d", stats.Imports)
	}
}
