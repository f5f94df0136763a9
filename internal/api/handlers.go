package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/baxromumarov/price-scraper/internal/observability"
	"github.com/baxromumarov/price-scraper/internal/store"
)

const maxEstimateItems = 100

type storeView struct {
	Name         string `json:"name"`
	Mode         string `json:"mode"`
	CategoryURLs int    `json:"category_urls"`
	Products     int    `json:"products"`
	LastUpdated  any    `json:"last_updated"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, observability.Snapshot())
}

func (s *Server) handleListStores(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.deps.Store.ListStores(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list stores: "+err.Error())
		return
	}
	byName := make(map[string]store.StoreSummary, len(summaries))
	for _, sum := range summaries {
		byName[sum.Store] = sum
	}

	items := make([]storeView, 0, len(s.deps.Stores))
	for _, d := range s.deps.Stores {
		v := storeView{Name: d.Name, Mode: string(d.Mode), CategoryURLs: len(d.CategoryURLs)}
		if sum, ok := byName[d.Name]; ok {
			v.Products = sum.Products
			if !sum.LastUpdated.IsZero() {
				v.LastUpdated = sum.LastUpdated
			}
		}
		items = append(items, v)
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"total": len(items),
	})
}

func (s *Server) handleStoreProducts(w http.ResponseWriter, r *http.Request) {
	storeName := chi.URLParam(r, "store")

	products, err := s.deps.Store.ProductsByStore(r.Context(), storeName)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch products: "+err.Error())
		return
	}
	if products == nil {
		products = []store.Product{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"store": storeName,
		"items": products,
		"total": len(products),
	})
}

func (s *Server) handleFindPrice(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	product := strings.TrimSpace(q.Get("product"))
	storeName := q.Get("store")
	if product == "" || storeName == "" {
		respondError(w, http.StatusBadRequest, "product and store are required")
		return
	}

	price, found := s.deps.Lookup.FindPrice(r.Context(), product, storeName)
	if !found {
		respondError(w, http.StatusNotFound, "No scraped price found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"product": product,
		"store":   storeName,
		"price":   price,
	})
}

type EstimateRequest struct {
	Items []string `json:"items"`
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req EstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Items) > maxEstimateItems {
		respondError(w, http.StatusBadRequest, "Too many items")
		return
	}

	stores := s.deps.Estimator.Estimate(r.Context(), req.Items)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"stores": stores,
	})
}

func (s *Server) handleTriggerScrape(w http.ResponseWriter, r *http.Request) {
	if s.deps.Scheduler == nil {
		respondError(w, http.StatusServiceUnavailable, "Scraping is disabled")
		return
	}
	if !s.deps.Scheduler.Trigger() {
		respondError(w, http.StatusConflict, "A scrape pass is already running")
		return
	}
	s.logger.Info("scrape pass triggered via API")
	respondJSON(w, http.StatusAccepted, map[string]bool{"started": true})
}

func (s *Server) handleScrapeStatus(w http.ResponseWriter, r *http.Request) {
	if s.deps.Scheduler == nil {
		respondError(w, http.StatusServiceUnavailable, "Scraping is disabled")
		return
	}
	resp := map[string]interface{}{"running": s.deps.Scheduler.Running()}
	if report, ok := s.deps.Scheduler.LastReport(); ok {
		resp["last_report"] = report
	}
	respondJSON(w, http.StatusOK, resp)
}
