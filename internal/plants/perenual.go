package plants

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sakif/gardenhub/internal/apperror"
	"github.com/sakif/gardenhub/internal/model"
)

// PerenualConfig points at the Perenual species API.
type PerenualConfig struct {
	APIKey  string
	BaseURL string // e.g. https://perenual.com/api
}

// Perenual covers outdoor and garden species the house-plants database
// does not carry. Lookup is two calls: a species-list search for the ID,
// then the details endpoint for care data.
type Perenual struct {
	cfg    PerenualConfig
	http   *http.Client
	logger *slog.Logger
}

var _ Lookup = (*Perenual)(nil)

func NewPerenual(cfg PerenualConfig, logger *slog.Logger) (*Perenual, error) {
	if cfg.APIKey == "" || cfg.BaseURL == "" {
		return nil, errors.New("plants: Perenual key and base URL are required")
	}
	return &Perenual{
		cfg:    cfg,
		http:   &http.Client{Timeout: providerTimeout},
		logger: logger,
	}, nil
}

// perenualSpecies holds the fields shared by the list and details payloads.
// scientific_name and sunlight are lists; default_image carries several
// size variants and may be null entirely.
type perenualSpecies struct {
	ID             int64          `json:"id"`
	CommonName     string         `json:"common_name"`
	ScientificName flexString     `json:"scientific_name"`
	Sunlight       []string       `json:"sunlight"`
	Watering       string         `json:"watering"`
	Description    string         `json:"description"`
	DefaultImage   *perenualImage `json:"default_image"`
}

type perenualImage struct {
	OriginalURL string `json:"original_url"`
	RegularURL  string `json:"regular_url"`
}

func (p *Perenual) Search(ctx context.Context, name string) (*model.PlantRecord, error) {
	query := url.Values{"key": {p.cfg.APIKey}, "q": {name}}
	var listing struct {
		Data []perenualSpecies `json:"data"`
	}
	if err := p.get(ctx, p.cfg.BaseURL+"/species-list?"+query.Encode(), name, &listing); err != nil {
		return nil, err
	}
	if len(listing.Data) == 0 {
		return nil, apperror.NotFound("plant", name)
	}

	id := listing.Data[0].ID
	detailQuery := url.Values{"key": {p.cfg.APIKey}}
	var details perenualSpecies
	if err := p.get(ctx, fmt.Sprintf("%s/species/details/%d?%s", p.cfg.BaseURL, id, detailQuery.Encode()), name, &details); err != nil {
		return nil, err
	}
	if details.ID == 0 {
		return nil, apperror.NotFound("plant", name)
	}
	return normalizePerenual(&details), nil
}

// get fetches and decodes one endpoint, applying the shared fault policy:
// transport error is upstream, a rejected or unreadable response is a miss.
func (p *Perenual) get(ctx context.Context, endpoint, name string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("plants: building perenual request: %w", err)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return apperror.Upstream(err, "Plant data service is unreachable.")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		p.logger.Warn("perenual query rejected",
			slog.String("name", name),
			slog.Int("status", resp.StatusCode),
		)
		return apperror.NotFound("plant", name)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		p.logger.Warn("perenual payload unreadable",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		return apperror.NotFound("plant", name)
	}
	return nil
}

func normalizePerenual(s *perenualSpecies) *model.PlantRecord {
	light := unknownValue
	if len(s.Sunlight) > 0 {
		light = strings.Join(s.Sunlight, ", ")
	}

	image := defaultImagePath
	if s.DefaultImage != nil {
		switch {
		case s.DefaultImage.RegularURL != "":
			image = s.DefaultImage.RegularURL
		case s.DefaultImage.OriginalURL != "":
			image = s.DefaultImage.OriginalURL
		}
	}

	description := s.Description
	if description == "" {
		description = noDescription
	}

	return &model.PlantRecord{
		ID:             strconv.FormatInt(s.ID, 10),
		CommonName:     orUnknown(s.CommonName),
		ScientificName: orNA(string(s.ScientificName)),
		Description:    description,
		CareInstructions: model.CareInstructions{
			Light:         light,
			Watering:      orUnknown(s.Watering),
			Fertilization: notSpecified,
			IdealTemp:     notSpecified,
		},
		ImageURL: image,
	}
}
