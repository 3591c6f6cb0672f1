package ui

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"edadash/internal"
	"edadash/internal/errors"
	"edadash/internal/store"
	"edadash/models"
	"edadash/ports"
)

//go:embed templates/* static/*
var embeddedFiles embed.FS

var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edadash_uploads_total",
		Help: "Upload attempts by outcome.",
	}, []string{"outcome"})
	uploadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "edadash_upload_duration_seconds",
		Help:    "End-to-end upload and render duration.",
		Buckets: prometheus.DefBuckets,
	})
)

// Server is the dashboard web server. Every interactive control is mounted
// once as a route here; the handlers read the current result from the store,
// so repeated uploads never re-bind anything.
type Server struct {
	router         *chi.Mux
	dashboard      *Dashboard
	store          *store.ResultStore
	analyzer       ports.Analyzer
	ledger         ports.UploadLedger
	templates      *template.Template
	maxUploadBytes int64
	log            *internal.Logger
}

// ServerConfig wires the server's collaborators. Ledger may be nil.
type ServerConfig struct {
	Dashboard      *Dashboard
	Store          *store.ResultStore
	Analyzer       ports.Analyzer
	Ledger         ports.UploadLedger
	MaxUploadBytes int64
}

// NewServer creates the dashboard server.
func NewServer(cfg ServerConfig) (*Server, error) {
	templates, err := template.New("").ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 32 << 20
	}

	s := &Server{
		router:         chi.NewRouter(),
		dashboard:      cfg.Dashboard,
		store:          cfg.Store,
		analyzer:       cfg.Analyzer,
		ledger:         cfg.Ledger,
		templates:      templates,
		maxUploadBytes: cfg.MaxUploadBytes,
		log:            internal.DefaultLogger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	staticFS := http.FileServer(http.FS(embeddedFiles))
	s.router.Handle("/static/*", staticFS)
}

func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleIndex)
	s.router.Post("/upload", s.handleUpload)
	s.router.Post("/toggle/{state}", s.handleToggle)
	s.router.Post("/filter/column", s.handleFilterColumn)
	s.router.Post("/filter/apply", s.handleApplyFilter)
	s.router.Post("/chart", s.handleChartSelect)
	s.router.Get("/ledger", s.handleLedger)
	s.router.Handle("/metrics", promhttp.Handler())
}

// Handler exposes the router for the HTTP server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx) //nolint:errcheck
	}()
	s.log.Info("dashboard listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// pageData is what the dashboard page template consumes.
type pageData struct {
	HasResult bool
	Views     map[string]template.HTML
	Notices   []Notice
	Selectors SelectorState
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderTemplate(w, "dashboard.html", pageData{
		HasResult: s.store.Current() != nil,
		Views:     s.currentViews(),
		Notices:   s.dashboard.Notices(),
		Selectors: s.dashboard.Selectors(),
	})
}

// handleUpload runs one upload attempt end to end: claim a generation,
// analyze, install, render. A failed attempt leaves the prior dashboard
// state visible and unaltered.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		uploadsTotal.WithLabelValues("bad_request").Inc()
		writeNotice(w, http.StatusBadRequest, "upload", "could not read the uploaded file")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		// User input error: nothing selected, so no analysis request is
		// issued at all.
		uploadsTotal.WithLabelValues("no_file").Inc()
		writeNotice(w, http.StatusBadRequest, "upload", "please choose a file first")
		return
	}
	defer file.Close()

	gen := s.store.Begin()
	result, err := s.analyzer.Analyze(r.Context(), header.Filename, file)
	if err != nil {
		uploadsTotal.WithLabelValues("failed").Inc()
		s.log.Warn("[upload] analysis failed for %s: %v", header.Filename, err)
		status := http.StatusBadGateway
		if errors.GetCode(err) == errors.CodeUploadBusy {
			status = http.StatusConflict
		}
		writeNotice(w, status, "upload", err.Error())
		return
	}

	if !s.dashboard.Apply(result, gen) {
		uploadsTotal.WithLabelValues("superseded").Inc()
		writeNotice(w, http.StatusConflict, "upload", "a newer upload finished first; showing its result")
		return
	}

	uploadsTotal.WithLabelValues("ok").Inc()
	uploadDuration.Observe(time.Since(start).Seconds())
	s.recordUpload(r.Context(), header.Filename, result)

	// htmx swaps the whole dashboard body with the fresh render.
	s.renderTemplate(w, "panels.html", pageData{
		HasResult: true,
		Views:     s.currentViews(),
		Notices:   s.dashboard.Notices(),
		Selectors: s.dashboard.Selectors(),
	})
}

func (s *Server) currentViews() map[string]template.HTML {
	views := map[string]template.HTML{}
	for id := range DefaultViewCaps() {
		views[string(id)] = s.dashboard.View(id)
	}
	return views
}

func (s *Server) recordUpload(ctx context.Context, filename string, result *models.AnalysisResult) {
	if s.ledger == nil {
		return
	}
	rec := &ports.UploadRecord{
		Filename: filename,
		Rows:     result.Overview.Rows,
		Columns:  result.Overview.Columns,
		Result:   result,
	}
	if err := s.ledger.Record(ctx, rec); err != nil {
		s.log.Warn("[upload] ledger record failed: %v", err)
	}
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	state, err := ParseToggleState(chi.URLParam(r, "state"))
	if err != nil {
		writeNotice(w, http.StatusBadRequest, "missing panel", err.Error())
		return
	}
	frag, err := s.dashboard.SelectToggle(state)
	if err != nil {
		writeNotice(w, http.StatusUnprocessableEntity, "missing panel", err.Error())
		return
	}
	writeFragment(w, frag)
}

func (s *Server) handleFilterColumn(w http.ResponseWriter, r *http.Request) {
	column := r.FormValue("column")
	frag, err := s.dashboard.SelectFilterColumn(column)
	if err != nil {
		writeNotice(w, http.StatusUnprocessableEntity, "filter", err.Error())
		return
	}
	writeFragment(w, frag)
}

func (s *Server) handleApplyFilter(w http.ResponseWriter, r *http.Request) {
	column := r.FormValue("column")
	value := r.FormValue("value")
	frag, err := s.dashboard.ApplyFilter(column, value)
	if err != nil {
		writeNotice(w, http.StatusUnprocessableEntity, "filter", err.Error())
		return
	}
	writeFragment(w, frag)
}

func (s *Server) handleChartSelect(w http.ResponseWriter, r *http.Request) {
	spec, err := specFromForm(r)
	if err != nil {
		writeNotice(w, http.StatusBadRequest, "chart", err.Error())
		return
	}
	frag, err := s.dashboard.SelectChart(spec)
	if err != nil {
		// The slot keeps its prior chart; only the notice changes.
		writeNotice(w, http.StatusUnprocessableEntity, "chart", err.Error())
		return
	}
	writeFragment(w, frag)
}

// specFromForm maps the chart form to its tagged spec variant.
func specFromForm(r *http.Request) (ChartSpec, error) {
	column := r.FormValue("column")
	switch ChartKind(r.FormValue("kind")) {
	case KindHistogram:
		return HistogramSpec{Column: column}, nil
	case KindScatter:
		return ScatterSpec{X: column, Y: r.FormValue("y_column")}, nil
	case KindCategoricalBar:
		return CategoricalBarSpec{Column: column}, nil
	case KindLine:
		return LineSpec{Column: column}, nil
	case KindPie:
		return PieSpec{Column: column}, nil
	case KindRadar:
		return RadarSpec{Column: column}, nil
	}
	return nil, fmt.Errorf("unknown chart kind %q", r.FormValue("kind"))
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		writeNotice(w, http.StatusNotFound, "ledger", "upload history is not configured")
		return
	}
	records, err := s.ledger.ListRecent(r.Context(), 20)
	if err != nil {
		s.log.Error("[ledger] list failed: %v", err)
		writeNotice(w, http.StatusInternalServerError, "ledger", "could not load upload history")
		return
	}
	s.renderTemplate(w, "ledger.html", records)
}
