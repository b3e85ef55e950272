package database

import "database/sql"

// InsertReport records an import run.
func (db *DB) InsertReport(source string, rowCount, categoryCount, repairedCount int) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO import_reports (source, row_count, category_count, repaired_count)
		VALUES (?, ?, ?, ?)`,
		source, rowCount, categoryCount, repairedCount,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetLastImport returns the most recent import report, or nil if none exist.
func (db *DB) GetLastImport() (*ImportReport, error) {
	row := db.conn.QueryRow(
		`SELECT id, source, row_count, category_count, repaired_count, imported_at
		FROM import_reports ORDER BY id DESC LIMIT 1`,
	)

	var r ImportReport
	if err := row.Scan(&r.ID, &r.Source, &r.RowCount, &r.CategoryCount, &r.RepairedCount, &r.ImportedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

// GetStats returns aggregate database statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}

	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM questions", &s.TotalQuestions},
		{"SELECT COUNT(DISTINCT category) FROM questions", &s.Categories},
		{"SELECT COUNT(DISTINCT source) FROM questions", &s.Sources},
		{"SELECT COUNT(*) FROM import_reports", &s.Imports},
	}

	for _, q := range queries {
		if err := db.conn.QueryRow(q.sql).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	return s, nil
}
