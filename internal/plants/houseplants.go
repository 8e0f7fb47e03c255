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
	"time"
	"unicode"

	"github.com/sakif/gardenhub/internal/apperror"
	"github.com/sakif/gardenhub/internal/model"
)

// providerTimeout bounds every external plant-data call, both providers.
const providerTimeout = 10 * time.Second

// HouseplantsConfig points at a RapidAPI house-plants deployment. Host and
// BaseURL are separate because RapidAPI routes on the X-RapidAPI-Host
// header, not the URL host.
type HouseplantsConfig struct {
	APIKey  string // X-RapidAPI-Key
	Host    string // e.g. house-plants2.p.rapidapi.com
	BaseURL string // e.g. https://house-plants2.p.rapidapi.com/search
}

// Houseplants queries the RapidAPI house-plants database.
type Houseplants struct {
	cfg    HouseplantsConfig
	http   *http.Client
	logger *slog.Logger
}

var _ Lookup = (*Houseplants)(nil)

func NewHouseplants(cfg HouseplantsConfig, logger *slog.Logger) (*Houseplants, error) {
	if cfg.APIKey == "" || cfg.Host == "" || cfg.BaseURL == "" {
		return nil, errors.New("plants: RapidAPI key, host, and base URL are required")
	}
	return &Houseplants{
		cfg:    cfg,
		http:   &http.Client{Timeout: providerTimeout},
		logger: logger,
	}, nil
}

// houseplantItem mirrors the search payload's field names verbatim,
// including the embedded spaces. Common name is sometimes a list,
// sometimes a string; id is sometimes numeric.
type houseplantItem struct {
	ID          flexString     `json:"id"`
	CommonName  flexString     `json:"Common name"`
	LatinName   string         `json:"Latin name"`
	Description string         `json:"Description"`
	LightIdeal  string         `json:"Light ideal"`
	Watering    string         `json:"Watering"`
	TempMin     houseplantTemp `json:"Temperature min"`
	TempMax     houseplantTemp `json:"Temperature max"`
	URL         string         `json:"Url"`
	Img         string         `json:"Img"`
}

type houseplantTemp struct {
	C *float64 `json:"C"`
}

func (t houseplantTemp) celsius() string {
	if t.C == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*t.C, 'f', -1, 64)
}

// Search queries by name and normalizes the first hit. The search response
// is a list of wrappers, each with the real payload under "item".
func (h *Houseplants) Search(ctx context.Context, name string) (*model.PlantRecord, error) {
	endpoint := h.cfg.BaseURL + "?" + url.Values{"query": {name}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("plants: building houseplants request: %w", err)
	}
	req.Header.Set("X-RapidAPI-Key", h.cfg.APIKey)
	req.Header.Set("X-RapidAPI-Host", h.cfg.Host)

	resp, err := h.http.Do(req)
	if err != nil {
		return nil, apperror.Upstream(err, "Plant data service is unreachable.")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		// The upstream regularly answers quota and key problems with 4xx;
		// from the searcher's point of view the plant is simply not found.
		h.logger.Warn("houseplants query rejected",
			slog.String("name", name),
			slog.Int("status", resp.StatusCode),
		)
		return nil, apperror.NotFound("plant", name)
	}

	var results []struct {
		Item *houseplantItem `json:"item"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		// HTML error pages and truncated bodies land here. Treated as a
		// miss, not a fault: one bad payload must not 500 the search box.
		h.logger.Warn("houseplants payload unreadable",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		return nil, apperror.NotFound("plant", name)
	}

	if len(results) == 0 || results[0].Item == nil {
		return nil, apperror.NotFound("plant", name)
	}
	return normalizeHouseplant(results[0].Item, name), nil
}

func normalizeHouseplant(item *houseplantItem, query string) *model.PlantRecord {
	description := item.Description
	if description == "" {
		description = noDescription
	}

	return &model.PlantRecord{
		ID:             item.ID.orDefault("unknown"),
		CommonName:     item.CommonName.orDefault(capitalize(query)),
		ScientificName: orNA(item.LatinName),
		Description:    description,
		CareInstructions: model.CareInstructions{
			Light:         orUnknown(item.LightIdeal),
			Watering:      orUnknown(item.Watering),
			Fertilization: notSpecified,
			IdealTemp:     fmt.Sprintf("Min: %s°C, Max: %s°C", item.TempMin.celsius(), item.TempMax.celsius()),
		},
		ImageURL: pickImage(item.URL, item.Img),
	}
}

// pickImage prefers the Url field when it is a direct image link; the Img
// field is the fallback and is usually a CDN thumbnail.
func pickImage(primary, fallback string) string {
	for _, ext := range []string{".jpg", ".png", ".gif"} {
		if strings.HasSuffix(primary, ext) {
			return primary
		}
	}
	if fallback != "" {
		return fallback
	}
	return defaultImagePath
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func orUnknown(s string) string {
	if s == "" {
		return unknownValue
	}
	return s
}
