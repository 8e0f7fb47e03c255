package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/gardenhub/internal/planner"
)

// PlannerHandler serves the AI garden-plan endpoint.
type PlannerHandler struct {
	planner *planner.Planner
	logger  *slog.Logger
}

func NewPlannerHandler(p *planner.Planner, logger *slog.Logger) *PlannerHandler {
	return &PlannerHandler{planner: p, logger: logger}
}

// HandlePlan generates a garden layout plan from a free-text description.
//
// HTTP: POST /api/v1/ai/plan (protected)
// REQUEST BODY: {"user_input": "4x2m raised bed, full sun, want herbs"}
// RESPONSE: {"status": "success", "plan": "1. ..."}
func (h *PlannerHandler) HandlePlan(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	var req struct {
		UserInput string `json:"user_input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserInput == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Missing user_input in request body.",
		})
		return
	}

	plan, err := h.planner.Plan(r.Context(), req.UserInput)
	if err != nil {
		// The model answering with nothing is worth its own message; it
		// usually means the prompt tripped a content filter.
		if errors.Is(err, planner.ErrEmptyPlan) {
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"status":  "error",
				"message": "AI returned a response but no plan text was generated.",
			})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "success",
		"plan":   plan,
	})
}
