package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/gardenhub/internal/apperror"
	"github.com/sakif/gardenhub/internal/plants"
)

// PlantHandler serves the public plant search.
type PlantHandler struct {
	service *plants.Service
	logger  *slog.Logger
}

func NewPlantHandler(svc *plants.Service, logger *slog.Logger) *PlantHandler {
	return &PlantHandler{service: svc, logger: logger}
}

// HandleSearch looks up care data for a plant by name.
//
// HTTP: GET /api/v1/plants?name=Fern&type=indoor (public, no auth)
//
// type selects the provider ("indoor" or "other") and defaults to indoor.
// An unknown plant is a 404 with a friendly message, not an error page.
func (h *PlantHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Missing 'name' query parameter.",
		})
		return
	}

	record, err := h.service.Search(r.Context(), name, r.URL.Query().Get("type"))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: fmt.Sprintf("Plant '%s' not found in any database.", name),
			})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}
