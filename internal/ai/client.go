package ai

import (
	"context"
	"hash/fnv"
	"log/slog"
	"math"
	"strings"
)

// Client estimates prices for items that have no scraped price. It is treated
// as an opaque collaborator: callers only rely on the request/response shape.
type Client interface {
	EstimatePrices(ctx context.Context, req EstimateRequest) ([]ItemPrice, error)
}

type EstimateRequest struct {
	Items  []string `json:"items"`
	Stores []string `json:"stores"`
}

type ItemPrice struct {
	Store string  `json:"store"`
	Item  string  `json:"item"`
	Price float64 `json:"price"`
}

type Options struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

// NewClient picks a provider. Supported providers: "gemini" (default when an
// API key is set) and "mock".
func NewClient(opts Options, logger *slog.Logger) Client {
	if logger == nil {
		logger = slog.Default()
	}
	provider := strings.ToLower(opts.Provider)
	if provider == "" {
		if opts.APIKey != "" {
			provider = "gemini"
		} else {
			provider = "mock"
		}
	}

	switch provider {
	case "gemini":
		if opts.APIKey == "" {
			logger.Warn("AI_PROVIDER=gemini but GEMINI_API_KEY not set, falling back to mock")
			return NewMockClient()
		}
		logger.Info("using Gemini price estimator", "model", opts.Model)
		g := NewGeminiClient(opts.APIKey)
		if opts.Model != "" {
			g.WithModel(opts.Model)
		}
		if opts.BaseURL != "" {
			g.WithBaseURL(opts.BaseURL)
		}
		return g
	default:
		logger.Info("using mock price estimator (set GEMINI_API_KEY for real estimates)")
		return NewMockClient()
	}
}

// storeFactors skews mock prices the way shoppers expect the chains to compare.
var storeFactors = map[string]float64{
	"woolworths": 1.25,
	"checkers":   0.97,
	"shoprite":   0.9,
	"spar":       1.05,
	"pick n pay": 1.0,
	"makro":      0.93,
	"game":       0.95,
}

// MockClient returns stable pseudo prices derived from the item name.
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) EstimatePrices(ctx context.Context, req EstimateRequest) ([]ItemPrice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]ItemPrice, 0, len(req.Items)*len(req.Stores))
	for _, store := range req.Stores {
		factor, ok := storeFactors[strings.ToLower(store)]
		if !ok {
			factor = 1
		}
		for _, item := range req.Items {
			out = append(out, ItemPrice{
				Store: store,
				Item:  item,
				Price: math.Round(basePrice(item)*factor*100) / 100,
			})
		}
	}
	return out, nil
}

func basePrice(item string) float64 {
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(item))))
	return 10 + float64(h.Sum32()%9000)/100
}
