package summary

import (
	"fmt"
	"strings"

	"github.com/TobiSchelling/questionbank/internal/dataset"
)

// Title heads every generated summary.
const Title = "Analyst Question Bank"

// Build renders a Markdown overview of records: row totals, a per-category
// table in canonical order followed by unknown categories, and one sample
// question per category.
func Build(records []dataset.QuestionRecord) string {
	if len(records) == 0 {
		return fmt.Sprintf("# %s\n\nNo questions loaded.\n", Title)
	}

	groups := dataset.GroupByCategory(records)
	byCategory := make(map[string]dataset.CategoryGroup, len(groups))
	for _, g := range groups {
		byCategory[g.Category] = g
	}

	var ordered []dataset.CategoryGroup
	for _, c := range dataset.Categories() {
		if g, ok := byCategory[c]; ok {
			ordered = append(ordered, g)
		}
	}
	var unknown []string
	for _, g := range groups {
		if !dataset.IsKnownCategory(g.Category) {
			ordered = append(ordered, g)
			unknown = append(unknown, g.Category)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", Title)
	fmt.Fprintf(&b, "**%d questions** across **%d categories**.\n\n", len(records), len(groups))

	b.WriteString("| Category | Questions |\n|---|---:|\n")
	for _, g := range ordered {
		fmt.Fprintf(&b, "| %s | %d |\n", escapeCell(g.Category), len(g.Questions))
	}

	if len(unknown) > 0 {
		b.WriteString("\n**Unrecognized categories:** ")
		b.WriteString(strings.Join(unknown, ", "))
		b.WriteString("\n")
	}

	b.WriteString("\n## Samples\n")
	for _, g := range ordered {
		fmt.Fprintf(&b, "\n### %s\n\n> %s\n", g.Category, g.Questions[0])
	}

	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
