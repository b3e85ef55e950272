package dataset

// Category labels observed in the analyst question table.
const (
	CategoryManagementCommentary = "Management Commentary"
	CategoryEarnings             = "Earnings result/Financials"
	CategoryGuidance             = "Guidance"
	CategoryOperatingMetric      = "Operating metric"
	CategoryAnalystQA            = "Analyst Q&A"
	CategoryInvestorSentiment    = "Investor Sentiment"
	CategoryIndustryMarket       = "Industry & Market"
	CategoryRisks                = "Risks & Challenges"
	CategoryMacro                = "Macro & Economics"
	CategoryCompensation         = "Compensation"
)

var categories = []string{
	CategoryManagementCommentary,
	CategoryEarnings,
	CategoryGuidance,
	CategoryOperatingMetric,
	CategoryAnalystQA,
	CategoryInvestorSentiment,
	CategoryIndustryMarket,
	CategoryRisks,
	CategoryMacro,
	CategoryCompensation,
}

var knownCategories = func() map[string]bool {
	m := make(map[string]bool, len(categories))
	for _, c := range categories {
		m[c] = true
	}
	return m
}()

// Categories returns the known category labels in canonical order.
func Categories() []string {
	out := make([]string, len(categories))
	copy(out, categories)
	return out
}

// IsKnownCategory reports whether label is one of the known categories.
func IsKnownCategory(label string) bool {
	return knownCategories[label]
}

// CategoryGroup holds the questions sharing one category label.
type CategoryGroup struct {
	Category  string
	Questions []string
}

// GroupByCategory groups records by category. Groups appear in the order
// their category is first seen; questions keep their row order.
func GroupByCategory(records []QuestionRecord) []CategoryGroup {
	index := make(map[string]int)
	var groups []CategoryGroup
	for _, rec := range records {
		i, ok := index[rec.Category]
		if !ok {
			i = len(groups)
			index[rec.Category] = i
			groups = append(groups, CategoryGroup{Category: rec.Category})
		}
		groups[i].Questions = append(groups[i].Questions, rec.Question)
	}
	return groups
}
