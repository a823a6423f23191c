package pricingset

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	db "github.com/spontis/backend-spontis/internal/db/gen"
	"github.com/spontis/backend-spontis/internal/quote"
)

// Variables mirrors the persisted JSON document holding the rate parameters
// of a pricing set.
type Variables struct {
	TarifKmBaseChf      decimal.Decimal `json:"tarif_km_base_chf"`
	MajCarburantPct     decimal.Decimal `json:"maj_carburant_pct"`
	MajEmbouteillagePct decimal.Decimal `json:"maj_embouteillage_pct"`
	TVARatePct          decimal.Decimal `json:"tva_rate_pct"`
}

// Supplement mirrors one persisted supplement line item.
type Supplement struct {
	Nom     string          `json:"nom"`
	Type    string          `json:"type"`
	Montant decimal.Decimal `json:"montant"`
}

// Set is the API-facing representation of a pricing configuration.
type Set struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Version     int32        `json:"version"`
	IsActive    bool         `json:"is_active"`
	Variables   Variables    `json:"variables"`
	Supplements []Supplement `json:"supplements"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// EngineVariables converts the document into the quote engine's value type.
func (s Set) EngineVariables() quote.Variables {
	return quote.Variables{
		TarifKmBase:         s.Variables.TarifKmBaseChf,
		MajCarburantPct:     s.Variables.MajCarburantPct,
		MajEmbouteillagePct: s.Variables.MajEmbouteillagePct,
		TVARatePct:          s.Variables.TVARatePct,
	}
}

// EngineSupplements converts the supplement documents into engine inputs.
func (s Set) EngineSupplements() []quote.Supplement {
	if len(s.Supplements) == 0 {
		return nil
	}
	out := make([]quote.Supplement, 0, len(s.Supplements))
	for _, sup := range s.Supplements {
		out = append(out, quote.Supplement{Nom: sup.Nom, Type: sup.Type, Montant: sup.Montant})
	}
	return out
}

func convertSet(row db.PricingSet) (Set, error) {
	set := Set{
		ID:        uuidString(row.ID),
		Name:      row.Name,
		Version:   row.Version,
		IsActive:  row.IsActive,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
	if len(row.Variables) > 0 {
		if err := json.Unmarshal(row.Variables, &set.Variables); err != nil {
			return Set{}, fmt.Errorf("pricingset: decode variables: %w", err)
		}
	}
	if len(row.Supplements) > 0 {
		if err := json.Unmarshal(row.Supplements, &set.Supplements); err != nil {
			return Set{}, fmt.Errorf("pricingset: decode supplements: %w", err)
		}
	}
	return set, nil
}
