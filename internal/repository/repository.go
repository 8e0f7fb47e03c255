package repository

import (
	"context"

	"github.com/sakif/gardenhub/internal/model"
)

// CollectionStore is the persistence surface for collections and their
// plants. Implementations return apperror.ErrNotFound for zero-row lookups
// and deletes, apperror.ErrConflict for uniqueness violations, and
// apperror.ErrUpstream for platform faults — the service layer depends on
// that classification.
type CollectionStore interface {
	FindCollection(ctx context.Context, userID, name string) (*model.Collection, error)
	CreateCollection(ctx context.Context, userID, name string) (*model.Collection, error)
	ListCollections(ctx context.Context, userID string) ([]model.Collection, error)
	ListPlants(ctx context.Context, collectionIDs []string) ([]model.Plant, error)
	InsertPlant(ctx context.Context, plant *model.Plant) (*model.Plant, error)
	DeletePlant(ctx context.Context, userID, plantID string) error
	DeleteCollection(ctx context.Context, userID, name string) error
	RenameCollection(ctx context.Context, userID, oldName, newName string) error
}

// ForumStore is the persistence surface for forum posts and comments.
// List results carry the raw profiles join in RawAuthor; flattening it is
// the service layer's job.
type ForumStore interface {
	InsertPost(ctx context.Context, post *model.Post) error
	ListPosts(ctx context.Context) ([]model.Post, error)
	InsertComment(ctx context.Context, comment *model.Comment) (*model.Comment, error)
	ListComments(ctx context.Context, postID string) ([]model.Comment, error)
}

// PlantCache stores normalized plant-provider results locally. A miss or an
// expired entry is (nil, false, nil) — only real storage faults error.
type PlantCache interface {
	Get(ctx context.Context, kind, name string) (*model.PlantRecord, bool, error)
	Put(ctx context.Context, kind, name string, record *model.PlantRecord) error
}
