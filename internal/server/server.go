package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/TobiSchelling/questionbank/internal/database"
	"github.com/TobiSchelling/questionbank/internal/summary"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

const summaryKey = "summary"

// Server is the HTTP server for browsing imported questions.
type Server struct {
	db    *database.DB
	pages map[string]*template.Template
	mux   *http.ServeMux
	cache *gocache.Cache
}

// New creates a new Server. A positive cacheTTL caches the rendered
// summary page for that long.
func New(db *database.DB, cacheTTL time.Duration) (*Server, error) {
	funcMap := template.FuncMap{
		"categoryURL": categoryURL,
	}

	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// Each page gets its own clone of base so {{define "content"}} does not collide.
	pageNames := []string{"index.html", "category.html", "summary.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{db: db, pages: pages, mux: http.NewServeMux()}
	if cacheTTL > 0 {
		s.cache = gocache.New(cacheTTL, 2*cacheTTL)
	}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/category/", s.handleCategory)
	s.mux.HandleFunc("/summary", s.handleSummary)
	s.mux.HandleFunc("/api/questions", s.handleAPIQuestions)
	s.mux.HandleFunc("/api/questions/{id}", s.handleAPIQuestion)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	counts, err := s.db.GetCategoryCounts()
	if err != nil {
		log.Printf("Error loading category counts: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	stats, err := s.db.GetStats()
	if err != nil {
		log.Printf("Error loading stats: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "index.html", map[string]any{
		"Counts": counts,
		"Stats":  stats,
	})
}

func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimPrefix(r.URL.Path, "/category/")
	if category == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	questions, err := s.db.GetQuestions(category)
	if err != nil {
		log.Printf("Error loading category %q: %v", category, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if len(questions) == 0 {
		http.NotFound(w, r)
		return
	}

	s.render(w, "category.html", map[string]any{
		"Category":  category,
		"Questions": questions,
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	body, err := s.summaryHTML()
	if err != nil {
		log.Printf("Error building summary: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "summary.html", map[string]any{
		"Body": body,
	})
}

func (s *Server) summaryHTML() (template.HTML, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(summaryKey); ok {
			return cached.(template.HTML), nil
		}
	}

	records, err := s.db.Records("")
	if err != nil {
		return "", err
	}
	html := renderMarkdown(summary.Build(records))

	if s.cache != nil {
		s.cache.SetDefault(summaryKey, html)
	}
	return html, nil
}

func (s *Server) handleAPIQuestions(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	term := strings.TrimSpace(r.URL.Query().Get("q"))

	var (
		questions []database.Question
		err       error
	)
	if term != "" {
		questions, err = s.db.SearchQuestions(term)
		if err == nil && category != "" {
			questions = filterCategory(questions, category)
		}
	} else {
		questions, err = s.db.GetQuestions(category)
	}
	if err != nil {
		log.Printf("Error querying questions: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if questions == nil {
		questions = []database.Question{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(questions); err != nil {
		log.Printf("Error encoding questions: %v", err)
	}
}

func (s *Server) handleAPIQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid question id", http.StatusBadRequest)
		return
	}

	q, err := s.db.GetQuestion(id)
	if err != nil {
		log.Printf("Error loading question %d: %v", id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if q == nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(q); err != nil {
		log.Printf("Error encoding question: %v", err)
	}
}

func filterCategory(questions []database.Question, category string) []database.Question {
	var out []database.Question
	for _, q := range questions {
		if q.Category == category {
			out = append(out, q)
		}
	}
	return out
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
	}
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

func categoryURL(category string) string {
	return "/category/" + url.PathEscape(category)
}

// Serve starts the HTTP server on the given port.
func Serve(db *database.DB, port int, cacheTTL time.Duration) error {
	srv, err := New(db, cacheTTL)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
