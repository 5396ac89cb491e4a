// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package guide

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/securecrop/securecrop/internal/breaker"
	"github.com/securecrop/securecrop/internal/config"
	"github.com/securecrop/securecrop/internal/logging"
	"github.com/securecrop/securecrop/internal/metrics"
	"github.com/securecrop/securecrop/internal/soil"
)

const breakerName = "guide-llm"

// Client calls the generative-text service to author farming guides.
type Client struct {
	cfg     config.GuideConfig
	httpC   *http.Client
	breaker *breaker.Breaker
}

// NewClient creates a guide client from configuration.
func NewClient(cfg config.GuideConfig) *Client {
	return &Client{
		cfg:     cfg,
		httpC:   &http.Client{Timeout: cfg.Timeout},
		breaker: breaker.New(breakerName),
	}
}

// Generate returns a farming guide for the crop. It never fails: any
// problem with the external call yields the static fallback guide.
func (c *Client) Generate(ctx context.Context, crop string, in *soil.Input) *Guide {
	if c.cfg.APIKey == "" {
		metrics.GuideFallbacks.Inc()
		return Fallback(crop, in)
	}

	start := time.Now()
	g, err := c.generate(ctx, crop, in)
	metrics.RecordExternalRequest("guide", time.Since(start), err)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("crop", crop).
			Msg("farming guide generation failed, using static fallback")
		metrics.GuideFallbacks.Inc()
		return Fallback(crop, in)
	}
	return g
}

// Wire format of the generate-content call.
type genPart struct {
	Text string `json:"text"`
}

type genContent struct {
	Parts []genPart `json:"parts"`
}

type genConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generationRequest struct {
	Contents         []genContent `json:"contents"`
	GenerationConfig genConfig    `json:"generationConfig"`
}

// generationResponse is the subset of the response we consume.
type generationResponse struct {
	Candidates []struct {
		Content genContent `json:"content"`
	} `json:"candidates"`
}

func (c *Client) generate(ctx context.Context, crop string, in *soil.Input) (*Guide, error) {
	req := generationRequest{
		Contents: []genContent{{Parts: []genPart{{Text: buildPrompt(crop, in)}}}},
		GenerationConfig: genConfig{
			Temperature:     c.cfg.Temperature,
			MaxOutputTokens: c.cfg.MaxTokens,
		},
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Model, c.cfg.APIKey)

	// One attempt only; a failure falls through to the static guide.
	body, err := c.breaker.Execute(func() ([]byte, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpC.Do(httpReq)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("guide service returned status %d", resp.StatusCode)
		}
		return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	})
	if err != nil {
		return nil, err
	}

	var genResp generationResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("response has no candidates")
	}

	text := stripCodeFences(genResp.Candidates[0].Content.Parts[0].Text)

	guide := &Guide{}
	if err := json.Unmarshal([]byte(text), guide); err != nil {
		return nil, fmt.Errorf("decode guide JSON: %w", err)
	}
	guide.Source = SourceLLM
	guide.CropName = crop
	return guide, nil
}

// stripCodeFences removes markdown code-block wrapping the model
// sometimes adds despite the prompt.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	}
	if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	if strings.HasSuffix(s, "```") {
		s = s[:len(s)-len("```")]
	}
	return strings.TrimSpace(s)
}

func buildPrompt(crop string, in *soil.Input) string {
	return fmt.Sprintf(`You are an expert agricultural advisor helping farmers in Malaysia and South Asia. A farmer's soil analysis shows:
- Nitrogen: %.1f mg/kg
- Phosphorus: %.1f mg/kg
- Potassium: %.1f mg/kg
- pH Level: %.1f
- Moisture: %.1f%%
- Temperature: %.1f°C

Our ML model recommends growing **%s**.

Please provide a comprehensive farming guide in the following JSON format ONLY (no markdown, no code blocks, just pure JSON):
{
    "why_recommended": "2-3 sentences explaining why this crop is ideal for their specific soil conditions",
    "cultivation_steps": [
        "Step 1: Land preparation details",
        "Step 2: Seed selection and sowing details",
        "Step 3: Watering schedule details",
        "Step 4: Fertilization schedule details",
        "Step 5: Pest management details",
        "Step 6: Harvesting timing and method"
    ],
    "watering_guide": "Specific watering frequency and amount for this crop",
    "fertilization_tips": "When and what fertilizers to apply",
    "harvesting_tips": "When to harvest and how to identify maturity",
    "common_problems": [
        {"problem": "Problem 1 name", "solution": "How to solve it"},
        {"problem": "Problem 2 name", "solution": "How to solve it"},
        {"problem": "Problem 3 name", "solution": "How to solve it"}
    ],
    "expected_yield": "Expected yield per hectare/acre",
    "growth_duration": "Days from planting to harvest"
}

Respond ONLY with the JSON object, no additional text.`,
		in.Nitrogen, in.Phosphorus, in.Potassium, in.PH, in.Moisture, in.Temperature, crop)
}
