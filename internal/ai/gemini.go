package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultModel  = "gemini-1.5-flash"
)

// GeminiClient implements Client against Google's generateContent REST API.
type GeminiClient struct {
	apiKey string
	model  string
	client *resty.Client
}

func NewGeminiClient(apiKey string) *GeminiClient {
	return &GeminiClient{
		apiKey: apiKey,
		model:  defaultModel,
		client: resty.New().
			SetBaseURL(geminiBaseURL).
			SetTimeout(30 * time.Second).
			SetHeader("Content-Type", "application/json"),
	}
}

func (g *GeminiClient) WithModel(model string) *GeminiClient {
	g.model = model
	return g
}

func (g *GeminiClient) WithBaseURL(baseURL string) *GeminiClient {
	g.client.SetBaseURL(baseURL)
	return g
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

type estimatePayload struct {
	Prices []ItemPrice `json:"prices"`
}

func (g *GeminiClient) EstimatePrices(ctx context.Context, req EstimateRequest) ([]ItemPrice, error) {
	if len(req.Items) == 0 || len(req.Stores) == 0 {
		return nil, nil
	}
	text, err := g.callAPI(ctx, buildEstimatePrompt(req))
	if err != nil {
		return nil, err
	}

	var payload estimatePayload
	if err := json.Unmarshal([]byte(cleanJSON(text)), &payload); err != nil {
		return nil, fmt.Errorf("failed to decode estimate: %w", err)
	}
	return payload.Prices, nil
}

func buildEstimatePrompt(req EstimateRequest) string {
	var sb strings.Builder
	sb.WriteString("Estimate current South African retail prices in ZAR.\n")
	sb.WriteString("Respond with JSON: {\"prices\":[{\"store\":string,\"item\":string,\"price\":number}]}.\n")
	sb.WriteString("Stores: " + strings.Join(req.Stores, ", ") + "\n")
	sb.WriteString("Items:\n")
	for _, item := range req.Items {
		sb.WriteString("- " + item + "\n")
	}
	return sb.String()
}

func (g *GeminiClient) callAPI(ctx context.Context, prompt string) (string, error) {
	body := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:      0.1,
			MaxOutputTokens:  2048,
			ResponseMIMEType: "application/json",
		},
	}

	var out geminiResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParam("key", g.apiKey).
		SetBody(body).
		SetResult(&out).
		SetError(&out).
		Post("/" + g.model + ":generateContent")
	if err != nil {
		return "", fmt.Errorf("API request failed: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("API error %d: %s", out.Error.Code, out.Error.Message)
	}
	if resp.IsError() {
		return "", fmt.Errorf("API error: status %d", resp.StatusCode())
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("empty response from API")
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

// cleanJSON strips a markdown code fence if the model wrapped its answer in one.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
