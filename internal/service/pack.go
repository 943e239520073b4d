package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/stabledocs/regula/internal/domain/pack"
	"github.com/stabledocs/regula/internal/port/cache"
	"github.com/stabledocs/regula/internal/port/database"
)

// packCacheTTL bounds staleness of cached pack downloads. Packs are
// immutable once written, but rule statuses inside them are not.
const packCacheTTL = 5 * time.Minute

// PackService serves allocation packs, including the serialized download
// used to export a pack for offline review.
type PackService struct {
	store database.Store
	cache cache.Cache
}

// NewPackService creates a new PackService.
func NewPackService(store database.Store, c cache.Cache) *PackService {
	return &PackService{store: store, cache: c}
}

// Get returns a pack with its rules and glossary.
func (s *PackService) Get(ctx context.Context, id string) (*pack.AllocationPack, error) {
	return s.store.GetPack(ctx, id)
}

// Latest returns the newest pack for a guideline.
func (s *PackService) Latest(ctx context.Context, guidelineID string) (*pack.AllocationPack, error) {
	return s.store.LatestPack(ctx, guidelineID)
}

// Glossary returns the glossary of a guideline's latest pack.
func (s *PackService) Glossary(ctx context.Context, guidelineID string) ([]pack.GlossaryEntry, error) {
	p, err := s.store.LatestPack(ctx, guidelineID)
	if err != nil {
		return nil, err
	}
	return p.Glossary, nil
}

// Download returns the pack serialized as indented JSON, cached per pack ID.
func (s *PackService) Download(ctx context.Context, id string) ([]byte, error) {
	key := "pack:" + id
	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			return data, nil
		}
	}

	p, err := s.store.GetPack(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal pack %s: %w", id, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, data, packCacheTTL); err != nil {
			slog.Warn("cache pack download", "pack_id", id, "error", err)
		}
	}
	return data, nil
}
