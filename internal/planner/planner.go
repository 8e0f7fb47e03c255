// Package planner generates textual garden-layout plans through the Gemini
// API. One call, one plan; no conversation state is kept.
package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/gardenhub/internal/apperror"
)

// defaultModel balances plan quality against generation latency; layout
// prompts do not need a reasoning-tier model.
const defaultModel = "gemini-2.5-flash-preview-09-2025"

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// generateTimeout is generous: plan generation regularly takes 10-20s.
const generateTimeout = 30 * time.Second

// systemPrompt pins the model to space-efficient layouts and plain-list
// output. Changing this wording changes every plan the product emits;
// treat edits like an API change.
const systemPrompt = "You are a world-class, professional garden planner. Your task is to provide a concise, textual " +
	"plan for planting based on the user's input. The plan MUST be formatted clearly with numbered or " +
	"bulleted lists. You MUST prioritize efficient use of space, considering plant width, height, " +
	"and sunlight requirements provided by the user. Do not use markdown formatting outside of basic " +
	"list formatting."

// ErrEmptyPlan means the model answered but produced no plan text — a
// content-filter refusal or an empty candidate. Distinct from transport
// failure so handlers can word the two differently.
var ErrEmptyPlan = errors.New("planner: model returned no plan text")

type Config struct {
	APIKey  string
	Model   string // defaults to defaultModel
	BaseURL string // overridable for tests
}

type Planner struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) (*Planner, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("planner: Gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Planner{
		cfg:    cfg,
		http:   &http.Client{Timeout: generateTimeout},
		logger: logger,
	}, nil
}

type generateRequest struct {
	Contents          []content `json:"contents"`
	SystemInstruction content   `json:"systemInstruction"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Plan sends the user's garden description and returns the generated plan
// text verbatim.
func (p *Planner) Plan(ctx context.Context, userInput string) (string, error) {
	if strings.TrimSpace(userInput) == "" {
		return "", apperror.ValidationFailed("prompt", "Missing prompt for the garden plan.")
	}

	payload := generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: userInput}}},
		},
		SystemInstruction: content{Parts: []part{{Text: systemPrompt}}},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("planner: encoding request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.cfg.BaseURL, p.cfg.Model, p.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("planner: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return "", apperror.Upstream(err, "Network error communicating with AI service.")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		p.logger.Error("plan generation rejected",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)),
		)
		return "", apperror.Upstream(
			fmt.Errorf("planner: generateContent status %d", resp.StatusCode),
			"AI service rejected the request.",
		)
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", apperror.Upstream(
			fmt.Errorf("planner: decoding response: %w", err),
			"AI service returned a malformed response.",
		)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyPlan
	}
	text := result.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", ErrEmptyPlan
	}

	p.logger.Info("garden plan generated", slog.Int("length", len(text)))
	return text, nil
}
