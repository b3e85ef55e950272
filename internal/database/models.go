package database

// Question is a stored question row.
type Question struct {
	ID         int64   `json:"id"`
	Source     string  `json:"source"`
	Position   int     `json:"position"`
	Category   string  `json:"category"`
	Question   string  `json:"question"`
	ImportedAt *string `json:"imported_at,omitempty"`
}

// CategoryCount is the number of stored questions in one category.
type CategoryCount struct {
	Category string
	Count    int
}

// ImportReport holds metadata about one import run.
type ImportReport struct {
	ID            int64
	Source        string
	RowCount      int
	CategoryCount int
	RepairedCount int
	ImportedAt    *string
}

// Stats contains aggregate database statistics.
type Stats struct {
	TotalQuestions int
	Categories     int
	Sources        int
	Imports        int
}
