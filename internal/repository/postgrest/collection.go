// Package postgrest implements the repository interfaces against the hosted
// platform's PostgREST data API.
//
// Two related tables back the collection feature:
//
//	collections        — parent containers (id, user_id, collection_name, status)
//	collection_plants  — child rows (id, collection_id, common_name, plant_details_json)
//
// The parent/child foreign key carries ON DELETE CASCADE on the platform
// side, and (user_id, collection_name) is unique there too. This package
// never re-implements either guarantee; it only translates the platform's
// answers (zero rows, code 23505) into domain errors.
package postgrest

import (
	"context"
	"fmt"
	"net/url"

	"github.com/sakif/gardenhub/internal/apperror"
	"github.com/sakif/gardenhub/internal/model"
	"github.com/sakif/gardenhub/internal/repository"
	"github.com/sakif/gardenhub/internal/supabase"
)

// COMPILE-TIME INTERFACE CHECK:
// `var _ X = (*Y)(nil)` fails the build immediately if *Y stops satisfying
// X, instead of at the first call site that passes one to the other.
var _ repository.CollectionStore = (*CollectionStore)(nil)

// CollectionStore performs collection and plant CRUD through the platform
// data API.
type CollectionStore struct {
	client *supabase.Client
}

// NewCollectionStore wraps an already-constructed platform client.
func NewCollectionStore(client *supabase.Client) *CollectionStore {
	return &CollectionStore{client: client}
}

// FindCollection resolves (owner, name) to at most one parent row.
// Zero rows is apperror.ErrNotFound; the caller must not confuse that with
// a platform fault, which surfaces as ErrUpstream.
func (s *CollectionStore) FindCollection(ctx context.Context, userID, name string) (*model.Collection, error) {
	query := url.Values{}
	query.Set("select", "id,collection_name")
	query.Set("user_id", supabase.Eq(userID))
	query.Set("collection_name", supabase.Eq(name))
	query.Set("limit", "1")

	var rows []model.Collection
	if err := s.client.Select(ctx, "collections", query, &rows); err != nil {
		return nil, fmt.Errorf("finding collection %q: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, apperror.NotFound("collection", name)
	}
	return &rows[0], nil
}

// CreateCollection inserts the parent container row. A duplicate
// (user_id, collection_name) pair comes back from the platform as a unique
// violation, which the client has already classified as ErrConflict.
func (s *CollectionStore) CreateCollection(ctx context.Context, userID, name string) (*model.Collection, error) {
	record := map[string]string{
		"user_id":         userID,
		"collection_name": name,
		"status":          "Active",
	}

	var rows []model.Collection
	if err := s.client.Insert(ctx, "collections", record, &rows); err != nil {
		return nil, fmt.Errorf("creating collection %q: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, apperror.Upstream(nil, "Database did not return the created collection.")
	}
	return &rows[0], nil
}

// ListCollections returns every parent row the user owns, ordered by name.
func (s *CollectionStore) ListCollections(ctx context.Context, userID string) ([]model.Collection, error) {
	query := url.Values{}
	query.Set("select", "id,collection_name")
	query.Set("user_id", supabase.Eq(userID))
	query.Set("order", "collection_name.asc")

	var rows []model.Collection
	if err := s.client.Select(ctx, "collections", query, &rows); err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	return rows, nil
}

// ListPlants returns every child row belonging to the given parents,
// ordered by collection ID. The order of plants within one collection
// follows this fetch order, not insertion time.
func (s *CollectionStore) ListPlants(ctx context.Context, collectionIDs []string) ([]model.Plant, error) {
	if len(collectionIDs) == 0 {
		return []model.Plant{}, nil
	}

	query := url.Values{}
	query.Set("select", "*")
	query.Set("collection_id", supabase.In(collectionIDs))
	query.Set("order", "collection_id.asc")

	var rows []model.Plant
	if err := s.client.Select(ctx, "collection_plants", query, &rows); err != nil {
		return nil, fmt.Errorf("listing plants: %w", err)
	}
	return rows, nil
}

// InsertPlant stores a child row. The Details payload goes to the platform
// exactly as received — json.RawMessage round-trips the client's bytes.
func (s *CollectionStore) InsertPlant(ctx context.Context, plant *model.Plant) (*model.Plant, error) {
	record := map[string]any{
		"collection_id":      plant.CollectionID,
		"common_name":        plant.CommonName,
		"plant_details_json": plant.Details,
	}

	var rows []model.Plant
	if err := s.client.Insert(ctx, "collection_plants", record, &rows); err != nil {
		return nil, fmt.Errorf("inserting plant: %w", err)
	}
	if len(rows) == 0 {
		return nil, apperror.Upstream(nil, "Database did not return the saved plant.")
	}
	return &rows[0], nil
}

// DeletePlant removes one child row by ID. Ownership enforcement is
// delegated to the platform's row-level policy; this call only filters by
// the row ID. Zero deleted rows means the plant does not exist for this
// owner — a 404, never a 500.
func (s *CollectionStore) DeletePlant(ctx context.Context, userID, plantID string) error {
	query := url.Values{}
	query.Set("id", supabase.Eq(plantID))

	var rows []model.Plant
	if err := s.client.Delete(ctx, "collection_plants", query, &rows); err != nil {
		return fmt.Errorf("deleting plant %s: %w", plantID, err)
	}
	if len(rows) == 0 {
		return apperror.NotFound("plant", plantID)
	}
	return nil
}

// DeleteCollection removes the parent container; the platform cascades the
// delete to every child plant row.
func (s *CollectionStore) DeleteCollection(ctx context.Context, userID, name string) error {
	query := url.Values{}
	query.Set("user_id", supabase.Eq(userID))
	query.Set("collection_name", supabase.Eq(name))

	var rows []model.Collection
	if err := s.client.Delete(ctx, "collections", query, &rows); err != nil {
		return fmt.Errorf("deleting collection %q: %w", name, err)
	}
	if len(rows) == 0 {
		return apperror.NotFound("collection", name)
	}
	return nil
}

// RenameCollection updates the container's name in place. The caller checks
// the new name for conflicts first; a zero-row update here means the old
// name was not found for this owner.
func (s *CollectionStore) RenameCollection(ctx context.Context, userID, oldName, newName string) error {
	query := url.Values{}
	query.Set("user_id", supabase.Eq(userID))
	query.Set("collection_name", supabase.Eq(oldName))

	patch := map[string]string{"collection_name": newName}

	var rows []model.Collection
	if err := s.client.Update(ctx, "collections", query, patch, &rows); err != nil {
		return fmt.Errorf("renaming collection %q: %w", oldName, err)
	}
	if len(rows) == 0 {
		return apperror.NotFound("collection", oldName)
	}
	return nil
}
