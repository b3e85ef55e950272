package pipeline

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/TobiSchelling/questionbank/internal/config"
	"github.com/TobiSchelling/questionbank/internal/database"
	"github.com/TobiSchelling/questionbank/internal/dataset"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full import run.
type Result struct {
	Source   string
	Records  []dataset.QuestionRecord
	Report   *dataset.Report
	Repaired int
	Steps    []StepResult
}

// Err returns the first step error, if any.
func (r *Result) Err() error {
	for _, s := range r.Steps {
		if s.Err != nil {
			return fmt.Errorf("%s: %w", s.Name, s.Err)
		}
	}
	return nil
}

// Pipeline runs the import: load, repair, validate, store.
type Pipeline struct {
	cfg *config.Config
	db  *database.DB
}

// New creates a new pipeline. db may be nil for dry runs.
func New(cfg *config.Config, db *database.DB) *Pipeline {
	return &Pipeline{cfg: cfg, db: db}
}

// Run executes the import of the dataset at path.
func (p *Pipeline) Run(path string) *Result {
	r := &Result{Source: filepath.Clean(path)}

	step := p.runLoad(r)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	if p.cfg.Dataset.RepairEncoding {
		r.Steps = append(r.Steps, p.runRepair(r))
	}

	step = p.runValidate(r)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	r.Steps = append(r.Steps, p.runStore(r))
	return r
}

// DryRun loads, repairs and validates without writing to the database.
func (p *Pipeline) DryRun(path string) *Result {
	r := &Result{Source: filepath.Clean(path)}

	step := p.runLoad(r)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	if p.cfg.Dataset.RepairEncoding {
		r.Steps = append(r.Steps, p.runRepair(r))
	}

	step = p.runValidate(r)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	var existing int
	if p.db != nil {
		stats, err := p.db.GetStats()
		if err == nil {
			existing = stats.TotalQuestions
		}
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Store",
		Summary: fmt.Sprintf("[dry-run] Would store %d questions (%d currently in DB)", len(r.Records), existing),
	})
	return r
}

// Steps returns the number of steps a full run performs.
func (p *Pipeline) Steps() int {
	if p.cfg.Dataset.RepairEncoding {
		return 4
	}
	return 3
}

func (p *Pipeline) runLoad(r *Result) StepResult {
	log.Printf("Loading %s...", r.Source)
	records, err := dataset.Load(r.Source)
	if err != nil {
		return StepResult{Name: "Load", Err: err}
	}
	r.Records = records
	return StepResult{
		Name:    "Load",
		Summary: fmt.Sprintf("Loaded %d questions", len(records)),
	}
}

func (p *Pipeline) runRepair(r *Result) StepResult {
	log.Println("Repairing encoding artifacts...")
	r.Records, r.Repaired = dataset.Repair(r.Records)
	return StepResult{
		Name:    "Repair",
		Summary: fmt.Sprintf("Repaired %d questions", r.Repaired),
	}
}

func (p *Pipeline) runValidate(r *Result) StepResult {
	log.Println("Validating...")
	r.Report = dataset.Validate(r.Records, p.cfg.Dataset.StrictCategories)
	summary := fmt.Sprintf("%d rows in %d categories", r.Report.Rows, len(r.Report.CategoryCounts))
	if n := len(r.Report.UnknownCategories); n > 0 {
		summary += fmt.Sprintf(", %d unknown categories", n)
	}
	if n := len(r.Report.MojibakeRows); n > 0 {
		summary += fmt.Sprintf(", %d rows with encoding artifacts", n)
	}
	return StepResult{Name: "Validate", Summary: summary, Err: r.Report.Err()}
}

func (p *Pipeline) runStore(r *Result) StepResult {
	log.Println("Storing questions...")
	if p.db == nil {
		return StepResult{Name: "Store", Err: fmt.Errorf("no database configured")}
	}
	n, err := p.db.ReplaceQuestions(r.Source, r.Records)
	if err != nil {
		return StepResult{Name: "Store", Err: err}
	}
	if _, err := p.db.InsertReport(r.Source, n, len(r.Report.CategoryCounts), r.Repaired); err != nil {
		return StepResult{Name: "Store", Err: fmt.Errorf("recording import: %w", err)}
	}
	return StepResult{
		Name:    "Store",
		Summary: fmt.Sprintf("Stored %d questions from %s", n, r.Source),
	}
}
