package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/sakif/gardenhub/internal/auth"
	"github.com/sakif/gardenhub/internal/service"
)

// CollectionHandler manages the plant-collection routes. Every route here
// runs behind auth.RequireAuth, so the user ID is always in the context.
type CollectionHandler struct {
	service *service.CollectionService
	logger  *slog.Logger
}

func NewCollectionHandler(svc *service.CollectionService, logger *slog.Logger) *CollectionHandler {
	return &CollectionHandler{service: svc, logger: logger}
}

// HandleSave saves a plant into a collection, creating the collection on
// first use.
//
// HTTP: POST /api/v1/collections
// REQUEST BODY: {"plant_data": {...}, "collection_name": "Herbs"}
//
// collection_name is optional and defaults to "Default". plant_data is
// stored verbatim — whatever the search page had, the collection shows.
func (h *CollectionHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		PlantData      json.RawMessage `json:"plant_data"`
		CollectionName string          `json:"collection_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Missing or invalid plant_data in request body.",
		})
		return
	}

	plant, err := h.service.Save(r.Context(), userID, req.PlantData, req.CollectionName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data":   plant,
	})
}

// HandleList returns every collection the user owns, each with its plants.
//
// HTTP: GET /api/v1/collections
// RESPONSE: {"Herbs": [...], "Succulents": []}
//
// A user with no collections gets {} with a 200 — never a 404.
func (h *CollectionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	listing, err := h.service.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// HandleCreate creates a new, empty collection.
//
// HTTP: POST /api/v1/collections/create
// REQUEST BODY: {"collection_name": "Succulents"}
func (h *CollectionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		CollectionName string `json:"collection_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CollectionName == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Missing collection_name in request body.",
		})
		return
	}

	collection, err := h.service.Create(r.Context(), userID, req.CollectionName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": fmt.Sprintf("Collection '%s' created.", collection.Name),
	})
}

// HandleRename renames a collection.
//
// HTTP: PUT /api/v1/collections/rename
// REQUEST BODY: {"old_name": "Herbs", "new_name": "Kitchen Herbs"}
func (h *CollectionHandler) HandleRename(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		OldName string `json:"old_name"`
		NewName string `json:"new_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OldName == "" || req.NewName == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Missing old_name or new_name in request body.",
		})
		return
	}

	if err := h.service.Rename(r.Context(), userID, req.OldName, req.NewName); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": fmt.Sprintf("Collection renamed to '%s'.", req.NewName),
	})
}

// HandleDeleteContainer deletes a whole collection; the platform cascades
// the delete to the plants inside it.
//
// HTTP: DELETE /api/v1/collections/container/{name}
func (h *CollectionHandler) HandleDeleteContainer(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	name := r.PathValue("name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Missing collection name in path.",
		})
		return
	}

	if err := h.service.DeleteCollection(r.Context(), userID, name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": fmt.Sprintf("Collection '%s' and associated plants deleted.", name),
	})
}

// HandleDeletePlant deletes one saved plant.
//
// HTTP: DELETE /api/v1/collections/{plantID}
//
// The ID is validated as a UUID before anything goes out to the platform,
// so a junk path segment is a 400 here instead of a zero-row delete there.
func (h *CollectionHandler) HandleDeletePlant(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	plantID := r.PathValue("plantID")
	if _, err := uuid.Parse(plantID); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid plant ID in path.",
		})
		return
	}

	if err := h.service.DeletePlant(r.Context(), userID, plantID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": fmt.Sprintf("Plant %s deleted successfully.", plantID),
	})
}

// requireUserID pulls the authenticated user from the context. A miss
// means the route was wired without RequireAuth — a programming error,
// reported as a 401 rather than a panic.
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Unauthorized access: Missing or invalid Authorization header.",
		})
		return "", false
	}
	return userID, true
}
