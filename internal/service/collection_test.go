package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"testing"

	"github.com/sakif/gardenhub/internal/apperror"
	"github.com/sakif/gardenhub/internal/model"
)

// mockCollectionStore is an in-memory stand-in for the PostgREST store.
// It enforces the same (owner, name) uniqueness the platform does, so the
// auto-provisioning paths behave like production.
type mockCollectionStore struct {
	collections map[string]*model.Collection // key: owner + "/" + name
	plants      map[string]*model.Plant
	nextID      int

	createCalls int

	findErr   error // forced failure for FindCollection (when not ErrNotFound territory)
	insertErr error

	// conflictOnCreate simulates losing the §concurrent-save race: the first
	// CreateCollection call inserts a rival's row and reports a conflict.
	conflictOnCreate bool
}

func newMockCollectionStore() *mockCollectionStore {
	return &mockCollectionStore{
		collections: make(map[string]*model.Collection),
		plants:      make(map[string]*model.Plant),
	}
}

func key(userID, name string) string { return userID + "/" + name }

func (m *mockCollectionStore) FindCollection(_ context.Context, userID, name string) (*model.Collection, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	c, ok := m.collections[key(userID, name)]
	if !ok {
		return nil, apperror.NotFound("collection", name)
	}
	copied := *c
	return &copied, nil
}

func (m *mockCollectionStore) CreateCollection(_ context.Context, userID, name string) (*model.Collection, error) {
	m.createCalls++
	if _, exists := m.collections[key(userID, name)]; exists {
		return nil, &apperror.AppError{Err: apperror.ErrConflict, Message: "A record with this name already exists."}
	}
	if m.conflictOnCreate {
		m.conflictOnCreate = false
		m.nextID++
		m.collections[key(userID, name)] = &model.Collection{
			ID:     fmt.Sprintf("rival-%d", m.nextID),
			UserID: userID,
			Name:   name,
		}
		return nil, &apperror.AppError{Err: apperror.ErrConflict, Message: "A record with this name already exists."}
	}
	m.nextID++
	c := &model.Collection{ID: fmt.Sprintf("coll-%d", m.nextID), UserID: userID, Name: name}
	m.collections[key(userID, name)] = c
	copied := *c
	return &copied, nil
}

func (m *mockCollectionStore) ListCollections(_ context.Context, userID string) ([]model.Collection, error) {
	var out []model.Collection
	for _, c := range m.collections {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockCollectionStore) ListPlants(_ context.Context, collectionIDs []string) ([]model.Plant, error) {
	wanted := make(map[string]bool, len(collectionIDs))
	for _, id := range collectionIDs {
		wanted[id] = true
	}
	var out []model.Plant
	for _, p := range m.plants {
		if wanted[p.CollectionID] {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CollectionID < out[j].CollectionID })
	return out, nil
}

func (m *mockCollectionStore) InsertPlant(_ context.Context, plant *model.Plant) (*model.Plant, error) {
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	m.nextID++
	stored := *plant
	stored.ID = fmt.Sprintf("plant-%d", m.nextID)
	m.plants[stored.ID] = &stored
	copied := stored
	return &copied, nil
}

func (m *mockCollectionStore) DeletePlant(_ context.Context, _, plantID string) error {
	if _, ok := m.plants[plantID]; !ok {
		return apperror.NotFound("plant", plantID)
	}
	delete(m.plants, plantID)
	return nil
}

func (m *mockCollectionStore) DeleteCollection(_ context.Context, userID, name string) error {
	c, ok := m.collections[key(userID, name)]
	if !ok {
		return apperror.NotFound("collection", name)
	}
	// Mirror the platform's ON DELETE CASCADE.
	for id, p := range m.plants {
		if p.CollectionID == c.ID {
			delete(m.plants, id)
		}
	}
	delete(m.collections, key(userID, name))
	return nil
}

func (m *mockCollectionStore) RenameCollection(_ context.Context, userID, oldName, newName string) error {
	c, ok := m.collections[key(userID, oldName)]
	if !ok {
		return apperror.NotFound("collection", oldName)
	}
	c.Name = newName
	delete(m.collections, key(userID, oldName))
	m.collections[key(userID, newName)] = c
	return nil
}

func newTestCollectionService(t *testing.T) (*CollectionService, *mockCollectionStore) {
	t.Helper()
	store := newMockCollectionStore()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewCollectionService(store, logger), store
}

func TestSave_AutoProvisionsCollection(t *testing.T) {
	svc, store := newTestCollectionService(t)

	payload := json.RawMessage(`{"common_name":"Basil","scientific_name":"Ocimum basilicum"}`)
	saved, err := svc.Save(context.Background(), "u1", payload, "Herbs")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if saved.CommonName != "Basil" {
		t.Errorf("CommonName = %q, want %q", saved.CommonName, "Basil")
	}
	if len(store.collections) != 1 {
		t.Errorf("collections = %d, want 1 auto-provisioned", len(store.collections))
	}

	listing, err := svc.List(context.Background(), "u1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	plants, ok := listing["Herbs"]
	if !ok || len(plants) != 1 {
		t.Fatalf("listing = %v, want Herbs with one plant", listing)
	}
	// The detail payload must survive byte-for-byte.
	if string(plants[0].Details) != string(payload) {
		t.Errorf("Details = %s, want verbatim payload", plants[0].Details)
	}
}

func TestSave_ReusesExistingCollection(t *testing.T) {
	svc, store := newTestCollectionService(t)

	if _, err := svc.Save(context.Background(), "u1", json.RawMessage(`{"common_name":"Basil"}`), "Herbs"); err != nil {
		t.Fatalf("first Save() error = %v", err)
	}
	if _, err := svc.Save(context.Background(), "u1", json.RawMessage(`{"common_name":"Mint"}`), "Herbs"); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	if len(store.collections) != 1 {
		t.Errorf("collections = %d, want 1", len(store.collections))
	}
	if store.createCalls != 1 {
		t.Errorf("createCalls = %d, want 1 (second save must resolve, not create)", store.createCalls)
	}
	if len(store.plants) != 2 {
		t.Errorf("plants = %d, want 2", len(store.plants))
	}
}

func TestSave_ConflictReResolvesInsteadOfFailing(t *testing.T) {
	svc, store := newTestCollectionService(t)
	store.conflictOnCreate = true

	saved, err := svc.Save(context.Background(), "u1", json.RawMessage(`{"common_name":"Basil"}`), "Herbs")
	if err != nil {
		t.Fatalf("Save() after losing the race error = %v, want success via re-resolve", err)
	}

	if len(store.collections) != 1 {
		t.Fatalf("collections = %d, want exactly 1 despite the race", len(store.collections))
	}
	rival := store.collections[key("u1", "Herbs")]
	if saved.CollectionID != rival.ID {
		t.Errorf("plant landed in %q, want the rival's collection %q", saved.CollectionID, rival.ID)
	}
}

func TestSave_LookupFaultDoesNotAttemptCreation(t *testing.T) {
	svc, store := newTestCollectionService(t)
	store.findErr = apperror.Upstream(errors.New("timeout"), "Database query failed.")

	_, err := svc.Save(context.Background(), "u1", json.RawMessage(`{"common_name":"Basil"}`), "Herbs")
	if !errors.Is(err, apperror.ErrUpstream) {
		t.Errorf("error = %v, want propagated ErrUpstream", err)
	}
	if store.createCalls != 0 {
		t.Errorf("createCalls = %d, want 0 — never create on top of a platform fault", store.createCalls)
	}
}

func TestSave_DefaultsCollectionAndPlantName(t *testing.T) {
	svc, store := newTestCollectionService(t)

	saved, err := svc.Save(context.Background(), "u1", json.RawMessage(`{"scientific_name":"Unknown"}`), "  ")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if saved.CommonName != model.DefaultPlantName {
		t.Errorf("CommonName = %q, want %q", saved.CommonName, model.DefaultPlantName)
	}
	if _, ok := store.collections[key("u1", DefaultCollectionName)]; !ok {
		t.Errorf("expected save to land in the %q collection", DefaultCollectionName)
	}
}

func TestSave_MissingPayloadIsValidationError(t *testing.T) {
	svc, _ := newTestCollectionService(t)

	_, err := svc.Save(context.Background(), "u1", nil, "Herbs")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestList_EmptyIsExplicitlyEmptyNotError(t *testing.T) {
	svc, _ := newTestCollectionService(t)

	listing, err := svc.List(context.Background(), "u1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if listing == nil {
		t.Fatal("List() = nil, want an empty (non-nil) map")
	}
	if len(listing) != 0 {
		t.Errorf("listing = %v, want empty", listing)
	}
}

func TestList_IncludesEmptyCollections(t *testing.T) {
	svc, _ := newTestCollectionService(t)

	if _, err := svc.Create(context.Background(), "u1", "Succulents"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.Save(context.Background(), "u1", json.RawMessage(`{"common_name":"Basil"}`), "Herbs"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	listing, err := svc.List(context.Background(), "u1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	succulents, ok := listing["Succulents"]
	if !ok {
		t.Fatal("empty collection missing from listing")
	}
	if succulents == nil || len(succulents) != 0 {
		t.Errorf("Succulents = %v, want empty (non-nil) slice", succulents)
	}
	if len(listing["Herbs"]) != 1 {
		t.Errorf("Herbs = %v, want one plant", listing["Herbs"])
	}
}

func TestList_DropsOrphanPlants(t *testing.T) {
	svc, store := newTestCollectionService(t)

	if _, err := svc.Save(context.Background(), "u1", json.RawMessage(`{"common_name":"Basil"}`), "Herbs"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	// A child row pointing at a parent that is not in the fetched set.
	store.plants["stray"] = &model.Plant{ID: "stray", CollectionID: "coll-999", CommonName: "Ghost"}

	listing, err := svc.List(context.Background(), "u1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	total := 0
	for _, plants := range listing {
		total += len(plants)
	}
	if total != 1 {
		t.Errorf("listing holds %d plants, want 1 (orphan silently dropped)", total)
	}
}

func TestCreate_DuplicateNameIsConflict(t *testing.T) {
	svc, _ := newTestCollectionService(t)

	if _, err := svc.Create(context.Background(), "u1", "Herbs"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	_, err := svc.Create(context.Background(), "u1", "Herbs")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
}

func TestDeleteCollection_CascadesToPlants(t *testing.T) {
	svc, store := newTestCollectionService(t)

	if _, err := svc.Save(context.Background(), "u1", json.RawMessage(`{"common_name":"Basil"}`), "Herbs"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := svc.DeleteCollection(context.Background(), "u1", "Herbs"); err != nil {
		t.Fatalf("DeleteCollection() error = %v", err)
	}

	if len(store.plants) != 0 {
		t.Errorf("plants = %d, want 0 after cascade", len(store.plants))
	}
	listing, err := svc.List(context.Background(), "u1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if _, ok := listing["Herbs"]; ok {
		t.Error("deleted collection still present in listing")
	}
}

func TestDeletePlant_ZeroRowsIsNotFound(t *testing.T) {
	svc, _ := newTestCollectionService(t)

	err := svc.DeletePlant(context.Background(), "u1", "nope")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound (not a server fault)", err)
	}
}

func TestRename_ConflictLeavesBothCollectionsUntouched(t *testing.T) {
	svc, store := newTestCollectionService(t)

	if _, err := svc.Create(context.Background(), "u1", "Herbs"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.Create(context.Background(), "u1", "Succulents"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	err := svc.Rename(context.Background(), "u1", "Herbs", "Succulents")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict", err)
	}

	if _, ok := store.collections[key("u1", "Herbs")]; !ok {
		t.Error("original collection renamed despite conflict")
	}
	if _, ok := store.collections[key("u1", "Succulents")]; !ok {
		t.Error("target collection disturbed by conflicting rename")
	}
}

func TestRename_Success(t *testing.T) {
	svc, store := newTestCollectionService(t)

	if _, err := svc.Create(context.Background(), "u1", "Herbs"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := svc.Rename(context.Background(), "u1", "Herbs", "Kitchen Herbs"); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if _, ok := store.collections[key("u1", "Kitchen Herbs")]; !ok {
		t.Error("renamed collection not found under new name")
	}
}

func TestRename_MissingSourceIsNotFound(t *testing.T) {
	svc, _ := newTestCollectionService(t)

	err := svc.Rename(context.Background(), "u1", "Nope", "Still Nope")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
