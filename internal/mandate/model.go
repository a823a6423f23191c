package mandate

import (
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	db "github.com/spontis/backend-spontis/internal/db/gen"
)

// Mandat is the API-facing representation of a transport mandate.
type Mandat struct {
	ID               string          `json:"id"`
	CompanyID        string          `json:"company_id"`
	CreatedBy        string          `json:"created_by"`
	CarrierCompanyID string          `json:"carrier_company_id,omitempty"`
	Status           string          `json:"status"`
	PickupAddress    string          `json:"pickup_address"`
	PickupPlaceID    string          `json:"pickup_place_id,omitempty"`
	DeliveryAddress  string          `json:"delivery_address"`
	DeliveryPlaceID  string          `json:"delivery_place_id,omitempty"`
	DistanceKm       decimal.Decimal `json:"distance_km"`
	SurfaceM2        decimal.Decimal `json:"surface_m2"`
	ExtrasChf        decimal.Decimal `json:"extras_chf"`
	MinChargeHt      decimal.Decimal `json:"min_charge_ht"`
	PrixBaseHt       decimal.Decimal `json:"prix_base_ht"`
	PrixEstimeHt     decimal.Decimal `json:"prix_estime_ht"`
	PrixEstimeTtc    decimal.Decimal `json:"prix_estime_ttc"`
	PricingSetID     string          `json:"pricing_set_id,omitempty"`
	PhotoKey         string          `json:"photo_key,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func convertMandat(row db.Mandat) Mandat {
	return Mandat{
		ID:               uuidString(row.ID),
		CompanyID:        uuidString(row.CompanyID),
		CreatedBy:        uuidString(row.CreatedBy),
		CarrierCompanyID: uuidString(row.CarrierCompanyID),
		Status:           StatusString(row.Status),
		PickupAddress:    row.PickupAddress,
		PickupPlaceID:    row.PickupPlaceID.String,
		DeliveryAddress:  row.DeliveryAddress,
		DeliveryPlaceID:  row.DeliveryPlaceID.String,
		DistanceKm:       decimalFromNumeric(row.DistanceKm),
		SurfaceM2:        decimalFromNumeric(row.SurfaceM2),
		ExtrasChf:        decimalFromNumeric(row.ExtrasChf),
		MinChargeHt:      decimalFromNumeric(row.MinChargeHt),
		PrixBaseHt:       decimalFromNumeric(row.PrixBaseHt),
		PrixEstimeHt:     decimalFromNumeric(row.PrixEstimeHt),
		PrixEstimeTtc:    decimalFromNumeric(row.PrixEstimeTtc),
		PricingSetID:     uuidString(row.PricingSetID),
		PhotoKey:         row.PhotoKey.String,
		CreatedAt:        row.CreatedAt.Time,
		UpdatedAt:        row.UpdatedAt.Time,
	}
}

func convertMandats(rows []db.Mandat) []Mandat {
	out := make([]Mandat, 0, len(rows))
	for _, row := range rows {
		out = append(out, convertMandat(row))
	}
	return out
}

func decimalFromNumeric(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Decimal{}
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func numericFromDecimal(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
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

func parseUUID(value string) (pgtype.UUID, error) {
	var id pgtype.UUID
	if err := id.Scan(strings.TrimSpace(value)); err != nil {
		return pgtype.UUID{}, err
	}
	return id, nil
}

func pgText(value string) pgtype.Text {
	if value == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: value, Valid: true}
}
