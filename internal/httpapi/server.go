package httpapi

import (
	"context"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MimeLyc/subview/internal/config"
	"github.com/MimeLyc/subview/internal/library"
	"github.com/MimeLyc/subview/internal/position"
	"github.com/MimeLyc/subview/internal/viewer"
)

const (
	jsonBodyLimit       = 1 << 20
	subtitleUploadLimit = 32 << 20
	defaultUploadLimit  = 2 << 30
)

type runtimeSettingsStore interface {
	GetRuntimeSettings() (config.RuntimeSettings, error)
	UpdateRuntimeSettings(next config.RuntimeSettings) (config.RuntimeSettings, error)
}

type runtimeSettingsApplier func(next config.RuntimeSettings) error

type statusSection func() any

// video is the file served as a session's media source.
type video struct {
	path  string
	owned bool // uploaded into uploadDir, removed with the session
}

type Server struct {
	registry *viewer.Registry
	store    position.Store
	scanner  *library.Scanner
	settings runtimeSettingsStore
	apply    runtimeSettingsApplier
	sections map[string]statusSection

	uiEnabled   bool
	uiStaticDir string
	uploadDir   string
	maxUpload   int64
	corsOrigins []string
	started     time.Time

	mu     sync.Mutex
	videos map[string]video

	metrics *metrics
	router  chi.Router
	server  *http.Server
}

type Option func(*Server)

func WithUI(staticDir string, enabled bool) Option {
	return func(s *Server) {
		s.uiStaticDir = staticDir
		s.uiEnabled = enabled
	}
}

func WithLibrary(scanner *library.Scanner) Option {
	return func(s *Server) {
		s.scanner = scanner
	}
}

// WithUploads sets where uploaded videos are written and the largest
// accepted upload body.
func WithUploads(dir string, maxBytes int64) Option {
	return func(s *Server) {
		s.uploadDir = dir
		if maxBytes > 0 {
			s.maxUpload = maxBytes
		}
	}
}

func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

func WithRuntimeSettingsStore(store runtimeSettingsStore) Option {
	return func(s *Server) {
		s.settings = store
	}
}

func WithRuntimeSettingsApplier(apply runtimeSettingsApplier) Option {
	return func(s *Server) {
		s.apply = apply
	}
}

// WithStatusSection adds a named section to /api/status.
func WithStatusSection(name string, fn func() any) Option {
	return func(s *Server) {
		s.sections[name] = fn
	}
}

func NewServer(registry *viewer.Registry, store position.Store, opts ...Option) *Server {
	s := &Server{
		registry:  registry,
		store:     store,
		sections:  make(map[string]statusSection),
		maxUpload: defaultUploadLimit,
		started:   time.Now(),
		videos:    make(map[string]video),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.uploadDir == "" {
		s.uploadDir = filepath.Join(os.TempDir(), "subview-uploads")
	}
	s.metrics = newMetrics(registry)
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

// Shutdown stops the listener, closes every session and removes uploads.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}
	for _, id := range s.registry.List() {
		s.dropSession(id)
	}
	return err
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(s.metrics.instrument)
	r.Use(cors.Handler(corsOptions(s.corsOrigins)))

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/library", s.handleLibrary)
		r.Post("/library/scan", s.handleScan)

		r.Get("/settings", s.handleGetSettings)
		r.With(maxBodySize(jsonBodyLimit)).Put("/settings", s.handleUpdateSettings)

		r.Get("/positions/{key}", s.handleGetPosition)
		r.With(maxBodySize(jsonBodyLimit)).Put("/positions/{key}", s.handlePutPosition)
		r.Delete("/positions/{key}", s.handleDeletePosition)

		r.Get("/sessions", s.handleListSessions)
		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Use(s.sessionContext)

			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)

			r.With(maxBodySize(subtitleUploadLimit)).Put("/subtitles", s.handleUploadSubtitles)
			r.Get("/subtitles.srt", s.handleExportSubtitles)
			r.Get("/export", s.handleExportSubtitles)
			r.Get("/captions.vtt", s.handleCaptions)

			r.Put("/video", s.handleUploadVideo)
			r.Get("/video", s.handleServeVideo)

			r.Group(func(r chi.Router) {
				r.Use(maxBodySize(jsonBodyLimit))
				r.Post("/open", s.handleOpen)
				r.Post("/time", s.handleTime)
				r.Post("/seek", s.handleSeek)
				r.Put("/position", s.handleSaveSessionPosition)
			})
			r.Delete("/position", s.handleForgetSessionPosition)

			r.Get("/events", s.handleEvents)
		})
	})

	r.Handle("/metrics", s.metrics.handler())
	r.Get("/*", s.handleStatic)
	s.router = r
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if !s.uiEnabled || s.uiStaticDir == "" {
		http.NotFound(w, r)
		return
	}

	rel := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	indexPath := filepath.Join(s.uiStaticDir, "index.html")

	if rel == "" || !strings.Contains(filepath.Base(rel), ".") {
		http.ServeFile(w, r, indexPath)
		return
	}

	filePath := filepath.Join(s.uiStaticDir, filepath.FromSlash(rel))
	if _, err := os.Stat(filePath); err != nil {
		// SPA fallback: non-existing static file path returns index
		http.ServeFile(w, r, indexPath)
		return
	}
	http.ServeFile(w, r, filePath)
}
