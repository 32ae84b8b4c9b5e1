package api

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/meur/tiermaker/internal/blob"
	"github.com/meur/tiermaker/internal/models"
)

// Options configures optional Server behavior
type Options struct {
	// BaseURL overrides the scheme://host used to build image URLs
	BaseURL string
	// CORSOrigins lists allowed origins; empty allows all
	CORSOrigins []string
	// Limiter throttles /api requests per client IP; nil disables it
	Limiter Limiter
	// StaticDir, when set, is served at / for a bundled frontend
	StaticDir string
	// TrustProxy honours X-Forwarded-For, X-Real-IP and X-Forwarded-Proto.
	// Enable it only behind a reverse proxy that overwrites them
	TrustProxy bool
	Logger     *zap.Logger
}

// Server holds the HTTP server dependencies
type Server struct {
	store      blob.Store
	router     chi.Router
	log        *zap.Logger
	baseURL    string
	origins    []string
	limiter    Limiter
	static     string
	trustProxy bool
}

// New creates a new API server
func New(store blob.Store, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s := &Server{
		store:      store,
		router:     chi.NewRouter(),
		log:        log,
		baseURL:    opts.BaseURL,
		origins:    origins,
		limiter:    opts.Limiter,
		static:     opts.StaticDir,
		trustProxy: opts.TrustProxy,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	if s.trustProxy {
		s.router.Use(middleware.RealIP)
	}
	s.router.Use(requestLogger(s.log))
	s.router.Use(middleware.Recoverer)
	s.router.Use(securityHeaders)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "Not found")
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Use(contentSecurityPolicy(apiCSP))
		if s.limiter != nil {
			r.Use(rateLimit(s.limiter, s.log))
		}

		// Uploads
		r.Post("/upload", s.handleUpload)
		r.Delete("/upload/{filename}", s.handleDeleteUpload)

		// Health check
		r.Get("/health", s.handleHealth)
	})

	// Stored images
	s.router.With(contentSecurityPolicy(apiCSP)).Get("/uploads/{filename}", s.handleServeUpload)

	if s.static != "" {
		s.router.Group(func(r chi.Router) {
			r.Use(contentSecurityPolicy(frontendCSP))
			FileServer(r, "/", http.Dir(s.static))
		})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.HealthResponse{Status: "ok"})
}

// --- Response helpers ---

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, models.ErrorResponse{Message: message})
}

// pathParam returns a decoded URL parameter. chi matches on the raw path
// when one is present, so encoded separators arrive still escaped
func pathParam(r *http.Request, key string) (string, error) {
	raw := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return raw, nil
	}
	return url.PathUnescape(raw)
}
