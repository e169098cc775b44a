package ui

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"biodelta/app"
	"biodelta/domain/community"
	"biodelta/internal"
	"biodelta/ports"
)

//go:embed templates/*.html
var embeddedFiles embed.FS

// App serves one analysis session over HTTP. The session itself is
// single-threaded, so every handler holds mu while it touches it.
type App struct {
	router    *chi.Mux
	templates *template.Template
	reader    ports.TableReader
	config    Config
	logger    *internal.Logger

	mu      sync.Mutex
	session *app.AnalysisSession
	// flash is shown once on the page render that follows a successful post
	flash string
}

// Config holds UI application configuration
type Config struct {
	Port           string
	MaxUploadBytes int64
}

// NewApp creates the UI around an existing session
func NewApp(config Config, session *app.AnalysisSession, reader ports.TableReader) (*App, error) {
	funcMap := template.FuncMap{
		"f1":  func(v float64) string { return fmt.Sprintf("%.1f", v) },
		"f4":  func(v float64) string { return fmt.Sprintf("%.4f", v) },
		"sub": func(a, b float64) float64 { return a - b },
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = 32 << 20
	}

	a := &App{
		router:    chi.NewRouter(),
		templates: templates,
		reader:    reader,
		config:    config,
		logger:    session.Logger().With("UI"),
		session:   session,
	}

	a.setupMiddleware()
	a.setupRoutes()

	return a, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	a.router.Get("/healthz", a.handleHealth)
	a.router.Post("/samples/{side}", a.handleUpload)
	a.router.Post("/analyze", a.handleAnalyze)
	a.router.Get("/export", a.handleExport)
	a.router.Post("/reset", a.handleReset)
}

// Handler exposes the router, mainly for tests
func (a *App) Handler() http.Handler {
	return a.router
}

// Start starts the HTTP server
func (a *App) Start() error {
	addr := ":" + a.config.Port
	a.logger.Info("Starting entropy analyzer on %s (session %s)", addr, a.session.ID().Short())
	server := &http.Server{
		Addr:              addr,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server.ListenAndServe()
}

// renderTemplate renders to a buffer first so a template error never sends
// a half-written page.
func (a *App) renderTemplate(w http.ResponseWriter, status int, templateName string, data interface{}) {
	var buf bytes.Buffer
	if err := a.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		a.logger.Error("Template error for %s: %v", templateName, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		a.logger.Error("Error writing template response: %v", err)
	}
}

func parseSide(r *http.Request) (community.Side, error) {
	return community.ParseSide(chi.URLParam(r, "side"))
}
