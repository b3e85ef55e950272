package dataset

import (
	"fmt"
	"sort"
	"strings"
)

// Duplicate is a question that appears more than once within a category.
// Rows are 1-based data row numbers (the header is not counted).
type Duplicate struct {
	Category string
	Question string
	Rows     []int
}

// Report summarizes the shape of a loaded dataset.
type Report struct {
	Rows              int
	CategoryCounts    map[string]int
	UnknownCategories []string
	Duplicates        []Duplicate
	MojibakeRows      []int
	Strict            bool
}

// Validate inspects records for unknown categories, duplicate questions and
// encoding artifacts. In strict mode unknown categories and duplicates are
// errors; otherwise they are only reported.
func Validate(records []QuestionRecord, strict bool) *Report {
	r := &Report{
		Rows:           len(records),
		CategoryCounts: make(map[string]int),
		Strict:         strict,
	}

	type key struct{ category, question string }
	seen := make(map[key][]int)
	var order []key
	unknown := make(map[string]bool)

	for i, rec := range records {
		row := i + 1
		r.CategoryCounts[rec.Category]++

		if !IsKnownCategory(rec.Category) && !unknown[rec.Category] {
			unknown[rec.Category] = true
			r.UnknownCategories = append(r.UnknownCategories, rec.Category)
		}

		k := key{rec.Category, rec.Question}
		if _, ok := seen[k]; !ok {
			order = append(order, k)
		}
		seen[k] = append(seen[k], row)

		if HasMojibake(rec.Category) || HasMojibake(rec.Question) {
			r.MojibakeRows = append(r.MojibakeRows, row)
		}
	}

	for _, k := range order {
		if rows := seen[k]; len(rows) > 1 {
			r.Duplicates = append(r.Duplicates, Duplicate{Category: k.category, Question: k.question, Rows: rows})
		}
	}
	sort.Strings(r.UnknownCategories)

	return r
}

// Err returns a non-nil error when the dataset fails validation.
func (r *Report) Err() error {
	var problems []string
	if r.Strict && len(r.UnknownCategories) > 0 {
		problems = append(problems, fmt.Sprintf("unknown categories: %s", strings.Join(r.UnknownCategories, ", ")))
	}
	if r.Strict && len(r.Duplicates) > 0 {
		problems = append(problems, fmt.Sprintf("%d duplicate questions", len(r.Duplicates)))
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("validation failed: %s", strings.Join(problems, "; "))
}
