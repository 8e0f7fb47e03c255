package planner

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/sakif/gardenhub/internal/apperror"
)

func newPlannerAgainst(t *testing.T, handler http.HandlerFunc) *Planner {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	p, err := New(Config{APIKey: "gem-key", BaseURL: srv.URL}, logger)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

func TestPlan_SendsPromptAndSystemInstruction(t *testing.T) {
	var gotPath, gotKey string
	var gotBody []byte

	p := newPlannerAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"1. Tomatoes along the south fence"}]}}]}`))
	})

	plan, err := p.Plan(context.Background(), "4x2m raised bed, full sun")
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if plan != "1. Tomatoes along the south fence" {
		t.Errorf("plan = %q", plan)
	}

	if gotPath != "/models/"+defaultModel+":generateContent" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "gem-key" {
		t.Errorf("key = %q", gotKey)
	}

	var req generateRequest
	if err := json.Unmarshal(gotBody, &req); err != nil {
		t.Fatalf("request body unreadable: %v", err)
	}
	if len(req.Contents) != 1 || req.Contents[0].Parts[0].Text != "4x2m raised bed, full sun" {
		t.Errorf("contents = %+v", req.Contents)
	}
	if !strings.Contains(req.SystemInstruction.Parts[0].Text, "efficient use of space") {
		t.Errorf("system instruction missing the spatial constraint: %q", req.SystemInstruction.Parts[0].Text)
	}
}

func TestPlan_EmptyCandidateIsErrEmptyPlan(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no candidates", `{"candidates":[]}`},
		{"no parts", `{"candidates":[{"content":{"parts":[]}}]}`},
		{"blank text", `{"candidates":[{"content":{"parts":[{"text":""}]}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPlannerAgainst(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			_, err := p.Plan(context.Background(), "herb spiral")
			if !errors.Is(err, ErrEmptyPlan) {
				t.Errorf("error = %v, want ErrEmptyPlan", err)
			}
		})
	}
}

func TestPlan_RejectionIsUpstream(t *testing.T) {
	p := newPlannerAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"API key not valid"}}`, http.StatusBadRequest)
	})

	_, err := p.Plan(context.Background(), "herb spiral")
	if !errors.Is(err, apperror.ErrUpstream) {
		t.Errorf("error = %v, want ErrUpstream, never ErrEmptyPlan", err)
	}
	if errors.Is(err, ErrEmptyPlan) {
		t.Error("rejection misclassified as an empty plan")
	}
}

func TestPlan_NetworkFaultIsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	p, err := New(Config{APIKey: "k", BaseURL: srv.URL}, logger)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = p.Plan(context.Background(), "herb spiral")
	if !errors.Is(err, apperror.ErrUpstream) {
		t.Errorf("error = %v, want ErrUpstream", err)
	}
}

func TestPlan_BlankPromptIsValidationError(t *testing.T) {
	p := newPlannerAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be sent for a blank prompt")
	})

	_, err := p.Plan(context.Background(), "   ")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestNew_RequiresAPIKey(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if _, err := New(Config{}, logger); err == nil {
		t.Error("New() accepted an empty API key")
	}
}
