package plants

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakif/gardenhub/internal/apperror"
	"github.com/sakif/gardenhub/internal/model"
	"github.com/sakif/gardenhub/internal/repository"
)

// Provider kinds a search can target. Indoor is the default: the frontend
// search box predates the second provider and mostly asks for houseplants.
const (
	KindIndoor = "indoor"
	KindOther  = "other"
)

// Service routes a plant search to the right provider, with a local cache
// in front. The external APIs are slow and rate-limited; the data is
// botanical and changes on a timescale of never.
type Service struct {
	indoor Lookup
	other  Lookup
	cache  repository.PlantCache
	logger *slog.Logger
}

func NewService(indoor, other Lookup, cache repository.PlantCache, logger *slog.Logger) *Service {
	return &Service{indoor: indoor, other: other, cache: cache, logger: logger}
}

// Search finds care data for a plant by name. kind selects the provider;
// blank means indoor. Cache faults are logged and the search falls through
// to the provider — a broken cache degrades latency, not functionality.
func (s *Service) Search(ctx context.Context, name, kind string) (*model.PlantRecord, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperror.ValidationFailed("name", "Missing 'name' query parameter.")
	}

	var provider Lookup
	switch kind {
	case "", KindIndoor:
		kind = KindIndoor
		provider = s.indoor
	case KindOther:
		provider = s.other
	default:
		return nil, apperror.ValidationFailed("type", "Unknown plant type: "+kind)
	}

	cacheKey := strings.ToLower(strings.TrimSpace(name))
	if record, ok := s.cachedRecord(ctx, kind, cacheKey); ok {
		return record, nil
	}

	record, err := provider.Search(ctx, name)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Put(ctx, kind, cacheKey, record); err != nil {
		s.logger.Warn("plant cache write failed",
			slog.String("name", cacheKey),
			slog.String("error", err.Error()),
		)
	}
	return record, nil
}

func (s *Service) cachedRecord(ctx context.Context, kind, key string) (*model.PlantRecord, bool) {
	record, ok, err := s.cache.Get(ctx, kind, key)
	if err != nil {
		s.logger.Warn("plant cache read failed",
			slog.String("name", key),
			slog.String("error", err.Error()),
		)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	s.logger.Info("plant served from cache",
		slog.String("kind", kind),
		slog.String("name", key),
	)
	return record, true
}
