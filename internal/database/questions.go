package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/TobiSchelling/questionbank/internal/dataset"
)

const questionColumns = "id, source, position, category, question, imported_at"

// ReplaceQuestions replaces every stored question from source with records,
// keeping their order as positions starting at 1.
func (db *DB) ReplaceQuestions(source string, records []dataset.QuestionRecord) (int, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM questions WHERE source = ?", source); err != nil {
		return 0, fmt.Errorf("clearing %s: %w", source, err)
	}

	stmt, err := tx.Prepare(`INSERT INTO questions (source, position, category, question) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		if _, err := stmt.Exec(source, i+1, rec.Category, rec.Question); err != nil {
			return 0, fmt.Errorf("inserting row %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return len(records), nil
}

// GetQuestions returns stored questions in source and position order.
// An empty category returns every question.
func (db *DB) GetQuestions(category string) ([]Question, error) {
	if category == "" {
		return db.queryQuestions("SELECT " + questionColumns + " FROM questions ORDER BY source, position")
	}
	return db.queryQuestions(
		"SELECT "+questionColumns+" FROM questions WHERE category = ? ORDER BY source, position",
		category,
	)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchQuestions returns questions whose text contains term, ignoring ASCII
// case. % and _ in term match literally.
func (db *DB) SearchQuestions(term string) ([]Question, error) {
	return db.queryQuestions(
		"SELECT "+questionColumns+" FROM questions WHERE question LIKE ? ESCAPE '\\' ORDER BY source, position",
		"%"+likeEscaper.Replace(term)+"%",
	)
}

// GetQuestion returns a single question by ID, or nil if it does not exist.
func (db *DB) GetQuestion(id int64) (*Question, error) {
	row := db.conn.QueryRow("SELECT "+questionColumns+" FROM questions WHERE id = ?", id)

	var q Question
	if err := row.Scan(&q.ID, &q.Source, &q.Position, &q.Category, &q.Question, &q.ImportedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}

// GetCategoryCounts returns question counts per category, largest first.
func (db *DB) GetCategoryCounts() ([]CategoryCount, error) {
	rows, err := db.conn.Query(
		"SELECT category, COUNT(*) FROM questions GROUP BY category ORDER BY COUNT(*) DESC, category",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []CategoryCount
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// Records returns stored questions as dataset records, in order.
func (db *DB) Records(category string) ([]dataset.QuestionRecord, error) {
	questions, err := db.GetQuestions(category)
	if err != nil {
		return nil, err
	}
	records := make([]dataset.QuestionRecord, len(questions))
	for i, q := range questions {
		records[i] = dataset.QuestionRecord{Category: q.Category, Question: q.Question}
	}
	return records, nil
}

func (db *DB) queryQuestions(query string, args ...any) ([]Question, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []Question
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.Source, &q.Position, &q.Category, &q.Question, &q.ImportedAt); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
