package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/baxromumarov/price-scraper/internal/core"
	"github.com/baxromumarov/price-scraper/internal/scraper"
	"github.com/baxromumarov/price-scraper/internal/store"
)

type ProductStore interface {
	ProductsByStore(ctx context.Context, storeName string) ([]store.Product, error)
	ListStores(ctx context.Context) ([]store.StoreSummary, error)
}

type Estimator interface {
	Estimate(ctx context.Context, items []string) []core.StoreEstimate
}

type ScrapeTrigger interface {
	Trigger() bool
	Running() bool
	LastReport() (scraper.RunReport, bool)
}

// Deps are the collaborators the HTTP layer reads from. Scheduler may be nil,
// in which case POST /scrape answers 503.
type Deps struct {
	Store          ProductStore
	Lookup         core.PriceFinder
	Estimator      Estimator
	Scheduler      ScrapeTrigger
	Stores         []scraper.Descriptor
	AllowedOrigins []string
	Logger         *slog.Logger
}

type Server struct {
	router *chi.Mux
	deps   Deps
	logger *slog.Logger
}

func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		router: chi.NewRouter(),
		deps:   deps,
		logger: logger,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	origins := s.deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/stats", s.handleStats)
	s.router.Get("/stores", s.handleListStores)
	s.router.Get("/stores/{store}/products", s.handleStoreProducts)
	s.router.Get("/prices", s.handleFindPrice)
	s.router.Post("/estimates", s.handleEstimate)
	s.router.Post("/scrape", s.handleTriggerScrape)
	s.router.Get("/scrape", s.handleScrapeStatus)
}

func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
