package pricingset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/spontis/backend-spontis/internal/common"
	db "github.com/spontis/backend-spontis/internal/db/gen"
	"github.com/spontis/backend-spontis/internal/obs"
	"github.com/spontis/backend-spontis/internal/quote"
)

// ErrNoActiveSet is returned when no pricing set is currently active.
var ErrNoActiveSet = common.NewAppError("NO_ACTIVE_PRICING_SET", "no active pricing set configured", http.StatusConflict, nil)

// Service manages pricing configurations. Activation runs inside a
// transaction so that at most one set is active at any time.
type Service struct {
	Q     db.Querier
	Pool  *pgxpool.Pool
	Cache *Cache
}

// Input carries the editable fields of a pricing set.
type Input struct {
	Name        string       `json:"name"`
	Variables   Variables    `json:"variables"`
	Supplements []Supplement `json:"supplements"`
}

func (in Input) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return common.NewAppError("VALIDATION", "name is required", http.StatusBadRequest, nil)
	}
	if !in.Variables.TarifKmBaseChf.IsPositive() {
		return common.NewAppError("VALIDATION", "tarif_km_base_chf must be positive", http.StatusBadRequest, nil)
	}
	for _, sup := range in.Supplements {
		if strings.TrimSpace(sup.Nom) == "" {
			return common.NewAppError("VALIDATION", "supplement name is required", http.StatusBadRequest, nil)
		}
		if sup.Type != quote.SupplementPct && sup.Type != quote.SupplementFix {
			return common.NewAppError("VALIDATION", fmt.Sprintf("unknown supplement type %q", sup.Type), http.StatusBadRequest, nil)
		}
	}
	return nil
}

func (in Input) documents() (variables, supplements []byte, err error) {
	variables, err = json.Marshal(in.Variables)
	if err != nil {
		return nil, nil, fmt.Errorf("pricingset: encode variables: %w", err)
	}
	sups := in.Supplements
	if sups == nil {
		sups = []Supplement{}
	}
	supplements, err = json.Marshal(sups)
	if err != nil {
		return nil, nil, fmt.Errorf("pricingset: encode supplements: %w", err)
	}
	return variables, supplements, nil
}

// Create stores a new inactive pricing set at version 1.
func (s *Service) Create(ctx context.Context, in Input) (Set, error) {
	if err := in.validate(); err != nil {
		return Set{}, err
	}
	variables, supplements, err := in.documents()
	if err != nil {
		return Set{}, err
	}
	row, err := s.Q.CreatePricingSet(ctx, db.CreatePricingSetParams{
		Name:        strings.TrimSpace(in.Name),
		Version:     1,
		Variables:   variables,
		Supplements: supplements,
	})
	if err != nil {
		return Set{}, fmt.Errorf("pricingset: create: %w", err)
	}
	return convertSet(row)
}

// Update replaces the editable fields and bumps the version. Updating the
// active set also refreshes the cache entry.
func (s *Service) Update(ctx context.Context, id string, in Input) (Set, error) {
	if err := in.validate(); err != nil {
		return Set{}, err
	}
	setID, err := parseUUID(id)
	if err != nil {
		return Set{}, common.NewAppError("VALIDATION", "invalid pricing set id", http.StatusBadRequest, err)
	}
	variables, supplements, err := in.documents()
	if err != nil {
		return Set{}, err
	}
	row, err := s.Q.UpdatePricingSet(ctx, db.UpdatePricingSetParams{
		ID:          setID,
		Name:        strings.TrimSpace(in.Name),
		Variables:   variables,
		Supplements: supplements,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Set{}, common.NewAppError("NOT_FOUND", "pricing set not found", http.StatusNotFound, err)
		}
		return Set{}, fmt.Errorf("pricingset: update: %w", err)
	}
	set, err := convertSet(row)
	if err != nil {
		return Set{}, err
	}
	if set.IsActive && s.Cache != nil {
		if err := s.Cache.SetActive(ctx, set); err != nil {
			log.Warn().Err(err).Msg("pricingset: refresh active cache")
		}
	}
	return set, nil
}

// Get returns a single pricing set by id.
func (s *Service) Get(ctx context.Context, id string) (Set, error) {
	setID, err := parseUUID(id)
	if err != nil {
		return Set{}, common.NewAppError("VALIDATION", "invalid pricing set id", http.StatusBadRequest, err)
	}
	row, err := s.Q.GetPricingSet(ctx, setID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Set{}, common.NewAppError("NOT_FOUND", "pricing set not found", http.StatusNotFound, err)
		}
		return Set{}, fmt.Errorf("pricingset: get: %w", err)
	}
	return convertSet(row)
}

// List returns all pricing sets, newest first.
func (s *Service) List(ctx context.Context) ([]Set, error) {
	rows, err := s.Q.ListPricingSets(ctx)
	if err != nil {
		return nil, fmt.Errorf("pricingset: list: %w", err)
	}
	out := make([]Set, 0, len(rows))
	for _, row := range rows {
		set, err := convertSet(row)
		if err != nil {
			return nil, err
		}
		out = append(out, set)
	}
	return out, nil
}

// Activate marks the given set active and deactivates every other one, in a
// single transaction. The cache is repopulated with the new active set.
func (s *Service) Activate(ctx context.Context, id string) (Set, error) {
	setID, err := parseUUID(id)
	if err != nil {
		return Set{}, common.NewAppError("VALIDATION", "invalid pricing set id", http.StatusBadRequest, err)
	}
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return Set{}, fmt.Errorf("pricingset: begin activate: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	qtx := db.New(tx)
	if err := qtx.DeactivateAllPricingSets(ctx); err != nil {
		return Set{}, fmt.Errorf("pricingset: deactivate all: %w", err)
	}
	row, err := qtx.ActivatePricingSet(ctx, setID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Set{}, common.NewAppError("NOT_FOUND", "pricing set not found", http.StatusNotFound, err)
		}
		return Set{}, fmt.Errorf("pricingset: activate: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Set{}, fmt.Errorf("pricingset: commit activate: %w", err)
	}

	set, err := convertSet(row)
	if err != nil {
		return Set{}, err
	}
	if s.Cache != nil {
		if err := s.Cache.SetActive(ctx, set); err != nil {
			log.Warn().Err(err).Msg("pricingset: cache active set")
		}
	}
	return set, nil
}

// Active returns the currently active set, consulting the cache first.
func (s *Service) Active(ctx context.Context) (Set, error) {
	if s.Cache != nil {
		if set, ok := s.Cache.GetActive(ctx); ok {
			countCacheLookup("hit")
			return set, nil
		}
		countCacheLookup("miss")
	}
	row, err := s.Q.GetActivePricingSet(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Set{}, ErrNoActiveSet
		}
		return Set{}, fmt.Errorf("pricingset: load active: %w", err)
	}
	set, err := convertSet(row)
	if err != nil {
		return Set{}, err
	}
	if s.Cache != nil {
		if err := s.Cache.SetActive(ctx, set); err != nil {
			log.Warn().Err(err).Msg("pricingset: cache active set")
		}
	}
	return set, nil
}

func countCacheLookup(result string) {
	if obs.ActiveSetCacheTotal != nil {
		obs.ActiveSetCacheTotal.WithLabelValues(result).Inc()
	}
}

func parseUUID(value string) (pgtype.UUID, error) {
	var id pgtype.UUID
	if err := id.Scan(strings.TrimSpace(value)); err != nil {
		return pgtype.UUID{}, err
	}
	return id, nil
}

func uuidString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	value, err := id.Value()
	if err != nil {
		return ""
	}
	s, _ := value.(string)
	return s
}
