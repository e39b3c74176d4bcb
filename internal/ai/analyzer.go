// Package ai provides the optional LLM profile analyzer. It talks to an
// Ollama-compatible generate endpoint and attaches the model's structured
// assessment to the profile under the ai_analysis key.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/edgar-profiler/internal/config"
	"github.com/sells-group/edgar-profiler/internal/model"
)

const (
	defaultEndpoint = "http://localhost:11434"
	defaultModel    = "llama3.1"
)

// Analyzer posts a profile digest to the configured model and parses the
// JSON assessment it returns.
type Analyzer struct {
	cfg  config.AIConfig
	http *http.Client
}

// New creates an analyzer from config. The returned analyzer is safe to use
// even when disabled; Analyze is simply never called on it.
func New(cfg config.AIConfig) *Analyzer {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	return &Analyzer{
		cfg:  cfg,
		http: &http.Client{},
	}
}

// Enabled reports whether AI analysis is switched on in config.
func (a *Analyzer) Enabled() bool {
	return a.cfg.Enabled
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Analyze sends a digest of the profile to the model and returns its parsed
// JSON assessment. Cancellation and deadline come from ctx.
func (a *Analyzer) Analyze(ctx context.Context, p *model.Profile) (map[string]any, error) {
	prompt, err := buildPrompt(p)
	if err != nil {
		return nil, eris.Wrap(err, "ai: build prompt")
	}

	payload, err := json.Marshal(generateRequest{
		Model:  a.cfg.Model,
		Prompt: prompt,
		Stream: false,
		Format: "json",
	})
	if err != nil {
		return nil, eris.Wrap(err, "ai: marshal request")
	}

	url := strings.TrimRight(a.cfg.Endpoint, "/") + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "ai: create request")
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := a.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "ai: call model endpoint")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, eris.Wrap(err, "ai: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.New(fmt.Sprintf("ai: model endpoint returned %d", resp.StatusCode))
	}

	var gen generateResponse
	if err := json.Unmarshal(body, &gen); err != nil {
		return nil, eris.Wrap(err, "ai: decode response envelope")
	}

	var analysis map[string]any
	if err := json.Unmarshal([]byte(gen.Response), &analysis); err != nil {
		return nil, eris.Wrap(err, "ai: model returned non-JSON analysis")
	}

	zap.L().Debug("ai: analysis complete",
		zap.String("cik", p.CIK),
		zap.String("model", a.cfg.Model),
		zap.Duration("elapsed", time.Since(start)),
	)
	return analysis, nil
}

// profileDigest is the compact view sent to the model: derived metrics and
// signals only, never raw filing text.
type profileDigest struct {
	Company       model.Company                `json:"company"`
	Ratios        model.Ratios                 `json:"financial_ratios"`
	Health        model.HealthIndicators       `json:"health_indicators"`
	GrowthRates   map[string]model.GrowthStats `json:"growth_rates,omitempty"`
	RiskFlags     []string                     `json:"risk_flags,omitempty"`
	InsiderSignal model.InsiderSignal          `json:"insider_signal,omitempty"`
	Concentration string                       `json:"customer_concentration,omitempty"`
}

func buildPrompt(p *model.Profile) (string, error) {
	digest := profileDigest{
		Company:     p.CompanyInfo,
		Ratios:      p.FinancialRatios,
		Health:      p.HealthIndicators,
		GrowthRates: p.GrowthRates,
		RiskFlags:   p.MaterialEvents.RiskFlags,
	}
	if p.InsiderTrading.Available {
		digest.InsiderSignal = p.InsiderTrading.OverallSignal
	}
	if fin := p.Relationships.Financial; fin != nil && fin.Concentration != nil {
		digest.Concentration = fin.Concentration.Classification
	}

	data, err := json.MarshalIndent(digest, "", "  ")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("You are a financial analyst. Given the following company profile data ")
	b.WriteString("derived from SEC filings, respond with a JSON object containing exactly ")
	b.WriteString(`these keys: "summary" (2-3 sentence assessment), "strengths" (array of `)
	b.WriteString(`strings), "concerns" (array of strings), and "outlook" (one of `)
	b.WriteString(`"positive", "neutral", "negative").` + "\n\n")
	b.Write(data)
	return b.String(), nil
}
