// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import (
	"encoding/json"
	"time"
)

// DefaultPlantName is stored when a saved plant payload carries no common name.
const DefaultPlantName = "Unnamed Plant"

// Collection is the parent container row in the platform's "collections"
// table. The platform assigns the ID; (UserID, Name) is unique per user and
// enforced by a database constraint, not by this service.
type Collection struct {
	ID     string `json:"id"`
	UserID string `json:"user_id,omitempty"`
	Name   string `json:"collection_name"`
	Status string `json:"status,omitempty"`
}

// Plant is a child row in "collection_plants". Details holds the full plant
// payload exactly as the client sent it — json.RawMessage keeps the bytes
// untouched through store and fetch.
type Plant struct {
	ID           string          `json:"id"`
	CollectionID string          `json:"collection_id"`
	CommonName   string          `json:"common_name"`
	Details      json.RawMessage `json:"plant_details_json,omitempty"`
	CreatedAt    time.Time       `json:"created_at,omitzero"`
}

// CollectionListing maps each collection name the user owns to its plants.
// A collection with no plants maps to an empty (never nil) slice.
type CollectionListing map[string][]Plant
