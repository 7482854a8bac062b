// Package report generates the AI narrative report for a completed audit
// by calling an OpenAI-compatible chat-completions endpoint.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/seoaudit/seoaudit/internal/audit"
)

// Config holds the LLM provider settings.
type Config struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string

	// Pricing per one million tokens, used for the stored cost estimate.
	InputCostPerMTok  float64
	OutputCostPerMTok float64

	Timeout time.Duration
}

// Storage is the subset of the persistence layer the generator needs.
type Storage interface {
	SaveAIReport(r *audit.AIReport) error
	ListIssues(tenantID, auditID string) ([]*audit.Issue, error)
}

// Generator produces one AI report per completed audit.
type Generator struct {
	cfg        Config
	storage    Storage
	httpClient *http.Client
	logger     *slog.Logger
}

// NewGenerator creates a report generator.
func NewGenerator(cfg Config, storage Storage, logger *slog.Logger) *Generator {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Generator{
		cfg:        cfg,
		storage:    storage,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// reportSections is the JSON shape the model is asked to return.
type reportSections struct {
	ExecutiveSummary        string `json:"executive_summary"`
	PrioritizedActions      string `json:"prioritized_actions"`
	QuickWins               string `json:"quick_wins"`
	RisksDependencies       string `json:"risks_dependencies"`
	LongTermRecommendations string `json:"long_term_recommendations"`
}

// Generate builds and persists the AI report for a completed audit. LLM
// failures are isolated: a failed report row is stored and returned with a
// nil error, so the caller's audit flow is never disturbed. The returned
// error covers persistence problems only, including the one-report-per-
// audit conflict (storage.ErrReportExists).
func (g *Generator) Generate(ctx context.Context, a *audit.Audit) (*audit.AIReport, error) {
	r := &audit.AIReport{
		TenantID: a.TenantID,
		AuditID:  a.ID,
		Provider: g.cfg.Provider,
		Model:    g.cfg.Model,
	}

	issues, err := g.storage.ListIssues(a.TenantID, a.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load issues for report: %w", err)
	}

	start := time.Now()
	sections, usage, err := g.complete(ctx, buildPrompt(a, issues))
	r.GenerationDurationMS = int(time.Since(start).Milliseconds())

	if err != nil {
		g.logger.Error("AI report generation failed",
			"audit_id", a.ID, "error", err)
		r.Status = audit.ReportFailed
		r.ErrorMessage = err.Error()
	} else {
		now := time.Now().UTC()
		r.Status = audit.ReportCompleted
		r.GeneratedAt = &now
		r.ExecutiveSummary = sections.ExecutiveSummary
		r.PrioritizedActions = sections.PrioritizedActions
		r.QuickWins = sections.QuickWins
		r.RisksDependencies = sections.RisksDependencies
		r.LongTermRecommendations = sections.LongTermRecommendations
		r.TokensInput = usage.PromptTokens
		r.TokensOutput = usage.CompletionTokens
		r.TokensTotal = usage.PromptTokens + usage.CompletionTokens
		r.CostUSD = g.estimateCost(usage)

		g.logger.Info("AI report generated",
			"audit_id", a.ID, "tokens", r.TokensTotal,
			"duration_ms", r.GenerationDurationMS)
	}

	if err := g.storage.SaveAIReport(r); err != nil {
		return nil, err
	}
	return r, nil
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage chatUsage `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// complete calls the chat-completions endpoint and decodes the JSON
// sections from the model's answer.
func (g *Generator) complete(ctx context.Context, prompt string) (*reportSections, chatUsage, error) {
	payload := map[string]any{
		"model": g.cfg.Model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": prompt},
		},
		"response_format": map[string]string{"type": "json_object"},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, chatUsage{}, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, chatUsage{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, chatUsage{}, fmt.Errorf("LLM request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, chatUsage{}, fmt.Errorf("failed to read LLM response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, chatUsage{}, fmt.Errorf("invalid LLM response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := resp.Status
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return nil, chatUsage{}, fmt.Errorf("LLM request failed: %s", msg)
	}
	if len(parsed.Choices) == 0 {
		return nil, chatUsage{}, fmt.Errorf("LLM response contains no choices")
	}

	var sections reportSections
	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.Content), &sections); err != nil {
		return nil, chatUsage{}, fmt.Errorf("LLM answer is not the expected JSON: %w", err)
	}

	return &sections, parsed.Usage, nil
}

func (g *Generator) estimateCost(usage chatUsage) float64 {
	return float64(usage.PromptTokens)/1e6*g.cfg.InputCostPerMTok +
		float64(usage.CompletionTokens)/1e6*g.cfg.OutputCostPerMTok
}
