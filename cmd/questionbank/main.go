package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/questionbank/internal/config"
	"github.com/TobiSchelling/questionbank/internal/database"
	"github.com/TobiSchelling/questionbank/internal/dataset"
	"github.com/TobiSchelling/questionbank/internal/pipeline"
	"github.com/TobiSchelling/questionbank/internal/server"
	"github.com/TobiSchelling/questionbank/internal/summary"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "questionbank",
	Short:   "Category-tagged analyst question table",
	Long:    "questionbank validates, repairs, imports and browses the table of analyst questions about Apple Inc.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if errors.Is(err, config.ErrNoConfig) {
			if verbose {
				log.Println("No config file found, using defaults")
			}
			cfg = config.Default()
			applyLogging(cfg.Logging)
			return nil
		}
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		applyLogging(cfg.Logging)
		return nil
	},
}

// applyLogging adjusts the standard logger for the configured level.
// --verbose always wins over a quiet level.
func applyLogging(l config.Logging) {
	switch {
	case verbose || l.Debug():
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	case l.Quiet():
		log.SetOutput(io.Discard)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(repairCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("questionbank", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/questionbank/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to point dataset.path at your question table.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Database: %s\n\n", db.Path())
		fmt.Println("Questions:")
		fmt.Printf("  Total: %d\n", stats.TotalQuestions)
		fmt.Printf("  Categories: %d\n", stats.Categories)
		fmt.Printf("  Sources: %d\n", stats.Sources)
		fmt.Printf("\nImports: %d\n", stats.Imports)

		last, err := db.GetLastImport()
		if err != nil {
			return fmt.Errorf("getting last import: %w", err)
		}
		if last != nil {
			at := ""
			if last.ImportedAt != nil {
				at = *last.ImportedAt
			}
			fmt.Printf("  Last: %s (%d rows, %d repaired) at %s\n", last.Source, last.RowCount, last.RepairedCount, at)
		}
		return nil
	},
}

// --- dataset commands ---

var strict bool

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Parse and validate a question table",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := datasetPath(args)
		records, err := dataset.Load(path)
		if err != nil {
			return err
		}

		report := dataset.Validate(records, strict || cfg.Dataset.StrictCategories)
		printReport(path, report)
		return report.Err()
	},
}

func init() {
	validateCmd.Flags().BoolVar(&strict, "strict", false, "Treat unknown categories and duplicate questions as errors")
}

func printReport(path string, report *dataset.Report) {
	fmt.Printf("%s: %d questions\n", path, report.Rows)

	fmt.Println("\nQuestions by category:")
	type kv struct {
		key string
		val int
	}
	var sorted []kv
	for k, v := range report.CategoryCounts {
		sorted = append(sorted, kv{k, v})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].val != sorted[j].val {
			return sorted[i].val > sorted[j].val
		}
		return sorted[i].key < sorted[j].key
	})
	for _, s := range sorted {
		fmt.Printf("  %s: %d\n", s.key, s.val)
	}

	if len(report.UnknownCategories) > 0 {
		fmt.Println("\nUnknown categories:")
		for _, c := range report.UnknownCategories {
			fmt.Printf("  %s\n", c)
		}
	}
	if len(report.Duplicates) > 0 {
		fmt.Println("\nDuplicate questions:")
		for _, d := range report.Duplicates {
			fmt.Printf("  rows %v [%s] %s\n", d.Rows, d.Category, d.Question)
		}
	}
	if len(report.MojibakeRows) > 0 {
		fmt.Printf("\n%d rows contain encoding artifacts (run 'questionbank repair')\n", len(report.MojibakeRows))
	}
}

var repairCmd = &cobra.Command{
	Use:   "repair <in> <out>",
	Short: "Repair encoding artifacts and write a clean table",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := dataset.Load(args[0])
		if err != nil {
			return err
		}
		fixed, changed := dataset.Repair(records)
		if err := dataset.Save(args[1], fixed); err != nil {
			return err
		}
		fmt.Printf("Repaired %d of %d questions, wrote %s\n", changed, len(fixed), args[1])
		return nil
	},
}

var convertCmd = &cobra.Command{
	Use:   "convert <text> <out.csv>",
	Short: "Convert a block-layout text file (category + 10 questions) to a table",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := dataset.ConvertFile(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %d questions to %s\n", n, args[1])
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary [file]",
	Short: "Print a Markdown summary of a question table",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := dataset.Load(datasetPath(args))
		if err != nil {
			return err
		}
		if cfg.Dataset.RepairEncoding {
			records, _ = dataset.Repair(records)
		}
		fmt.Print(summary.Build(records))
		return nil
	},
}

// --- import command ---

var dryRun bool

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Run the import: load -> repair -> validate -> store",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		path := datasetPath(args)
		pipe := pipeline.New(cfg, db)

		var result *pipeline.Result
		if dryRun {
			result = pipe.DryRun(path)
		} else {
			result = pipe.Run(path)
		}

		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/%d: %s\n", i+1, pipe.Steps(), step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}

		if err := result.Err(); err != nil {
			return err
		}
		if !dryRun {
			fmt.Println("\nImport complete! Run 'questionbank serve' to browse the questions.")
		}
		return nil
	},
}

func init() {
	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without writing")
}

// --- query commands ---

var listCategory string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List imported questions",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		questions, err := db.GetQuestions(listCategory)
		if err != nil {
			return err
		}
		if len(questions) == 0 {
			fmt.Println("No questions found. Import some with: questionbank import")
			return nil
		}
		printQuestions(questions)
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listCategory, "category", "", "Only list questions in this category")
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List categories with question counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		counts, err := db.GetCategoryCounts()
		if err != nil {
			return err
		}
		if len(counts) == 0 {
			fmt.Println("Known categories:")
			for _, c := range dataset.Categories() {
				fmt.Printf("  %s\n", c)
			}
			return nil
		}

		for _, c := range counts {
			marker := " "
			if !dataset.IsKnownCategory(c.Category) {
				marker = "?"
			}
			fmt.Printf("  %s %-28s %d\n", marker, c.Category, c.Count)
		}
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search imported questions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		questions, err := db.SearchQuestions(args[0])
		if err != nil {
			return err
		}
		if len(questions) == 0 {
			fmt.Printf("No questions match %q\n", args[0])
			return nil
		}
		printQuestions(questions)
		return nil
	},
}

func printQuestions(questions []database.Question) {
	for _, q := range questions {
		fmt.Printf("  [%d] %s: %s\n", q.ID, q.Category, q.Question)
	}
}

var exportCategory string

var exportCmd = &cobra.Command{
	Use:   "export <out.csv>",
	Short: "Export imported questions as a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		records, err := db.Records(exportCategory)
		if err != nil {
			return err
		}
		if err := dataset.Save(args[0], records); err != nil {
			return err
		}
		fmt.Printf("Exported %d questions to %s\n", len(records), args[0])
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportCategory, "category", "", "Only export questions in this category")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, port, time.Duration(cfg.Server.CacheTTL)*time.Second)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
}

func datasetPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.Dataset.Path
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return database.Open(cfg.DBPath())
}
