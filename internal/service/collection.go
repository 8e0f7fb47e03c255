// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Store   (Data layer)     → talks to the hosted platform's data API
//
// Services accept primitives and domain types, never *http.Request, and
// return domain errors (apperror), never status codes. Each service takes
// its store as an interface, so tests inject an in-memory fake instead of
// the PostgREST implementation.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/gardenhub/internal/apperror"
	"github.com/sakif/gardenhub/internal/model"
	"github.com/sakif/gardenhub/internal/repository"
)

// DefaultCollectionName receives saves that do not name a collection.
const DefaultCollectionName = "Default"

// CollectionService owns the aggregation and auto-provisioning logic for
// plant collections.
type CollectionService struct {
	store  repository.CollectionStore
	logger *slog.Logger
}

func NewCollectionService(store repository.CollectionStore, logger *slog.Logger) *CollectionService {
	return &CollectionService{store: store, logger: logger}
}

// Save stores a plant under the named collection, creating the collection
// the first time a save targets it.
//
// ALGORITHM:
//  1. Resolve (owner, name) to a collection ID.
//  2. No such collection → create it and use the new ID. If the creation
//     collides with a concurrent save (unique violation), somebody else just
//     created it: resolve again and use theirs instead of failing the save.
//  3. A lookup failure that is not "no rows" propagates as-is — no creation
//     is attempted on top of a platform fault.
//  4. Insert the child row with the resolved ID. The display name comes from
//     the payload's common_name, defaulted when absent; the payload itself
//     is stored verbatim.
//
// Steps 1–4 are not one transaction — the platform's data API does not
// expose multi-statement transactions here. Correctness of the one-per-name
// invariant rests on the platform's unique constraint plus the re-resolve
// in step 2.
func (s *CollectionService) Save(ctx context.Context, userID string, plantData json.RawMessage, collectionName string) (*model.Plant, error) {
	if len(plantData) == 0 {
		return nil, apperror.ValidationFailed("plant_data", "Missing or invalid plant_data in request body.")
	}
	collectionName = strings.TrimSpace(collectionName)
	if collectionName == "" {
		collectionName = DefaultCollectionName
	}

	collectionID, err := s.resolveOrProvision(ctx, userID, collectionName)
	if err != nil {
		return nil, err
	}

	plant := &model.Plant{
		CollectionID: collectionID,
		CommonName:   displayName(plantData),
		Details:      plantData,
	}

	saved, err := s.store.InsertPlant(ctx, plant)
	if err != nil {
		s.logger.Error("failed to save plant",
			slog.String("collection", collectionName),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("saving plant to %q: %w", collectionName, err)
	}

	s.logger.Info("plant saved",
		slog.String("plant_id", saved.ID),
		slog.String("collection", collectionName),
	)
	return saved, nil
}

// resolveOrProvision finds the collection ID for (owner, name), creating
// the parent row when it does not exist yet.
func (s *CollectionService) resolveOrProvision(ctx context.Context, userID, name string) (string, error) {
	existing, err := s.store.FindCollection(ctx, userID, name)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return "", fmt.Errorf("resolving collection %q: %w", name, err)
	}

	s.logger.Info("collection not found, creating",
		slog.String("collection", name),
	)

	created, err := s.store.CreateCollection(ctx, userID, name)
	if err == nil {
		return created.ID, nil
	}
	if !errors.Is(err, apperror.ErrConflict) {
		return "", fmt.Errorf("auto-provisioning collection %q: %w", name, err)
	}

	// Lost the race: a concurrent save created the collection between our
	// lookup and our insert. Its row is the one we want.
	winner, err := s.store.FindCollection(ctx, userID, name)
	if err != nil {
		return "", fmt.Errorf("re-resolving collection %q after conflict: %w", name, err)
	}
	return winner.ID, nil
}

// List returns every collection the user owns, mapped by name, each with
// its plants bucketed underneath.
//
// A user with no collections gets an empty map — an explicitly-empty
// result, not an error. A collection with no plants appears with an empty
// slice. A child row whose parent is somehow missing from the fetched set
// is dropped silently; the foreign key makes that impossible in practice.
func (s *CollectionService) List(ctx context.Context, userID string) (model.CollectionListing, error) {
	collections, err := s.store.ListCollections(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list collections", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	if len(collections) == 0 {
		return model.CollectionListing{}, nil
	}

	ids := make([]string, 0, len(collections))
	nameByID := make(map[string]string, len(collections))
	listing := make(model.CollectionListing, len(collections))
	for _, c := range collections {
		ids = append(ids, c.ID)
		nameByID[c.ID] = c.Name
		listing[c.Name] = []model.Plant{}
	}

	plants, err := s.store.ListPlants(ctx, ids)
	if err != nil {
		s.logger.Error("failed to list plants", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing plants: %w", err)
	}

	for _, p := range plants {
		name, ok := nameByID[p.CollectionID]
		if !ok {
			continue
		}
		listing[name] = append(listing[name], p)
	}

	return listing, nil
}

// Create makes a new, empty collection. A duplicate name for the same owner
// surfaces as a conflict.
func (s *CollectionService) Create(ctx context.Context, userID, name string) (*model.Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("collection_name", "Missing collection_name in request body.")
	}

	created, err := s.store.CreateCollection(ctx, userID, name)
	if err != nil {
		return nil, fmt.Errorf("creating collection %q: %w", name, err)
	}

	s.logger.Info("collection created",
		slog.String("collection_id", created.ID),
		slog.String("collection", name),
	)
	return created, nil
}

// DeletePlant removes one plant record by ID.
func (s *CollectionService) DeletePlant(ctx context.Context, userID, plantID string) error {
	plantID = strings.TrimSpace(plantID)
	if plantID == "" {
		return apperror.ValidationFailed("plant_id", "Missing plant ID in path.")
	}

	if err := s.store.DeletePlant(ctx, userID, plantID); err != nil {
		return err
	}

	s.logger.Info("plant deleted", slog.String("plant_id", plantID))
	return nil
}

// DeleteCollection removes the container; the platform cascades the delete
// to every plant inside it.
func (s *CollectionService) DeleteCollection(ctx context.Context, userID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperror.ValidationFailed("collection_name", "Missing collection name in path.")
	}

	if err := s.store.DeleteCollection(ctx, userID, name); err != nil {
		return err
	}

	s.logger.Info("collection deleted", slog.String("collection", name))
	return nil
}

// Rename changes a collection's name. The new name must not already exist
// for this owner — allowing the update through would either trip the
// platform's unique constraint or silently merge two collections.
func (s *CollectionService) Rename(ctx context.Context, userID, oldName, newName string) error {
	oldName = strings.TrimSpace(oldName)
	newName = strings.TrimSpace(newName)
	if oldName == "" || newName == "" {
		return apperror.ValidationFailed("collection_name", "Both old_name and new_name are required.")
	}

	_, err := s.store.FindCollection(ctx, userID, newName)
	if err == nil {
		return &apperror.AppError{
			Err:     apperror.ErrConflict,
			Message: fmt.Sprintf("A collection named '%s' already exists.", newName),
		}
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return fmt.Errorf("checking new name %q: %w", newName, err)
	}

	if err := s.store.RenameCollection(ctx, userID, oldName, newName); err != nil {
		return err
	}

	s.logger.Info("collection renamed",
		slog.String("from", oldName),
		slog.String("to", newName),
	)
	return nil
}

// displayName pulls the common name out of the raw payload, falling back to
// the fixed placeholder when it is absent or blank.
func displayName(plantData json.RawMessage) string {
	var probe struct {
		CommonName string `json:"common_name"`
	}
	if err := json.Unmarshal(plantData, &probe); err != nil {
		return model.DefaultPlantName
	}
	if strings.TrimSpace(probe.CommonName) == "" {
		return model.DefaultPlantName
	}
	return probe.CommonName
}
