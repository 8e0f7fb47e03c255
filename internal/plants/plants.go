// Package plants looks up plant-care data from external providers and
// normalizes it into one record shape.
//
// Two providers are wired: the RapidAPI house-plants database for indoor
// plants and Perenual for everything else. They disagree on field names,
// nesting, and even scalar-vs-list for the same concept, so each provider
// owns its decoding quirks and emits only model.PlantRecord.
package plants

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/sakif/gardenhub/internal/model"
)

// Lookup is one external plant-data source. A name that the provider does
// not know returns apperror.ErrNotFound; only transport-level faults are
// upstream errors.
type Lookup interface {
	Search(ctx context.Context, name string) (*model.PlantRecord, error)
}

// Placeholder strings used when a provider has no value for a normalized
// field. Human-readable on purpose: these render directly in the frontend.
const (
	unknownValue     = "Unknown"
	notSpecified     = "Not specified in API response."
	noDescription    = "No detailed description available."
	defaultImagePath = "/default_image.jpg"
)

// flexString decodes a JSON value that may arrive as a string, a number,
// or a list (in which case the first element is taken). Both providers
// flip between these shapes for the same field.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexString(strconv.FormatFloat(n, 'f', -1, 64))
		return nil
	}

	var list []flexString
	if err := json.Unmarshal(data, &list); err == nil {
		if len(list) > 0 {
			*f = list[0]
		}
		return nil
	}

	// Unrecognized shape (object, bool): leave the zero value rather than
	// failing the whole payload over one cosmetic field.
	*f = ""
	return nil
}

func (f flexString) orDefault(fallback string) string {
	if f == "" {
		return fallback
	}
	return string(f)
}
