package mandate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/spontis/backend-spontis/internal/common"
	db "github.com/spontis/backend-spontis/internal/db/gen"
	"github.com/spontis/backend-spontis/internal/events"
	"github.com/spontis/backend-spontis/internal/obs"
	"github.com/spontis/backend-spontis/internal/pricingset"
	"github.com/spontis/backend-spontis/internal/quote"
)

// DistanceResolver yields the road distance between two place IDs.
type DistanceResolver interface {
	DistanceKm(ctx context.Context, originPlaceID, destinationPlaceID string) (decimal.Decimal, error)
}

// ActiveSetProvider yields the currently active pricing configuration.
type ActiveSetProvider interface {
	Active(ctx context.Context) (pricingset.Set, error)
}

// EventEmitter publishes domain events.
type EventEmitter interface {
	Emit(ctx context.Context, topic string, aggregateID pgtype.UUID, payload any) (db.DomainEvent, error)
}

// Service implements the mandate lifecycle: quoting, posting, accepting and
// the delivery status flow.
type Service struct {
	Q       db.Querier
	Geo     DistanceResolver
	Pricing ActiveSetProvider
	Events  EventEmitter
}

// QuoteInput is the shipper-provided part of a mandate.
type QuoteInput struct {
	PickupAddress   string          `json:"pickup_address"`
	PickupPlaceID   string          `json:"pickup_place_id"`
	DeliveryAddress string          `json:"delivery_address"`
	DeliveryPlaceID string          `json:"delivery_place_id"`
	SurfaceM2       decimal.Decimal `json:"surface_m2"`
	ExtrasChf       decimal.Decimal `json:"extras_chf"`
	MinChargeHt     decimal.Decimal `json:"min_charge_ht"`
}

func (in QuoteInput) validate() error {
	if strings.TrimSpace(in.PickupAddress) == "" || strings.TrimSpace(in.DeliveryAddress) == "" {
		return common.NewAppError("VALIDATION", "pickup and delivery addresses are required", http.StatusBadRequest, nil)
	}
	if strings.TrimSpace(in.PickupPlaceID) == "" || strings.TrimSpace(in.DeliveryPlaceID) == "" {
		return common.NewAppError("VALIDATION", "pickup and delivery place ids are required", http.StatusBadRequest, nil)
	}
	return nil
}

// QuoteResult is the outcome of the quote pipeline before persistence.
type QuoteResult struct {
	DistanceKm        decimal.Decimal `json:"distance_km"`
	PricingSetID      string          `json:"pricing_set_id"`
	PricingSetVersion int32           `json:"pricing_set_version"`
	Breakdown         quote.Breakdown `json:"breakdown"`
}

// Quote runs the full pricing pipeline without persisting anything.
func (s *Service) Quote(ctx context.Context, in QuoteInput) (QuoteResult, error) {
	if err := in.validate(); err != nil {
		return QuoteResult{}, err
	}
	return s.computeQuote(ctx, in)
}

func (s *Service) computeQuote(ctx context.Context, in QuoteInput) (QuoteResult, error) {
	distance, err := s.Geo.DistanceKm(ctx, in.PickupPlaceID, in.DeliveryPlaceID)
	if err != nil {
		return QuoteResult{}, err
	}
	set, err := s.Pricing.Active(ctx)
	if err != nil {
		return QuoteResult{}, err
	}
	breakdown, err := quote.CalculateStrict(quote.Inputs{
		DistanceKm: distance,
		SurfaceM2:  in.SurfaceM2,
		Extras:     in.ExtrasChf,
		MinCharge:  in.MinChargeHt,
	}, set.EngineVariables(), set.EngineSupplements())
	if err != nil {
		countQuote("rejected")
		return QuoteResult{}, common.NewAppError("VALIDATION", err.Error(), http.StatusBadRequest, err)
	}
	countQuote("ok")
	return QuoteResult{
		DistanceKm:        distance,
		PricingSetID:      set.ID,
		PricingSetVersion: set.Version,
		Breakdown:         breakdown,
	}, nil
}

// Create posts a new mandate for the shipper's company. The price breakdown
// is computed once at creation time and persisted with the record.
func (s *Service) Create(ctx context.Context, userID string, in QuoteInput) (Mandat, error) {
	if err := in.validate(); err != nil {
		return Mandat{}, err
	}
	member, company, err := s.actorCompany(ctx, userID)
	if err != nil {
		return Mandat{}, err
	}
	if company.Role != db.CompanyRoleEXPEDITEUR {
		return Mandat{}, common.NewAppError("FORBIDDEN", "only shipper companies can post mandates", http.StatusForbidden, nil)
	}
	result, err := s.computeQuote(ctx, in)
	if err != nil {
		return Mandat{}, err
	}
	setID, err := parseUUID(result.PricingSetID)
	if err != nil {
		return Mandat{}, fmt.Errorf("mandate: pricing set id: %w", err)
	}
	row, err := s.Q.CreateMandat(ctx, db.CreateMandatParams{
		CompanyID:       member.CompanyID,
		CreatedBy:       member.UserID,
		PickupAddress:   strings.TrimSpace(in.PickupAddress),
		PickupPlaceID:   pgText(in.PickupPlaceID),
		DeliveryAddress: strings.TrimSpace(in.DeliveryAddress),
		DeliveryPlaceID: pgText(in.DeliveryPlaceID),
		DistanceKm:      numericFromDecimal(result.DistanceKm),
		SurfaceM2:       numericFromDecimal(in.SurfaceM2),
		ExtrasChf:       numericFromDecimal(in.ExtrasChf),
		MinChargeHt:     numericFromDecimal(in.MinChargeHt),
		PrixBaseHt:      numericFromDecimal(result.Breakdown.BaseHT),
		PrixEstimeHt:    numericFromDecimal(result.Breakdown.EstimateHT),
		PrixEstimeTtc:   numericFromDecimal(result.Breakdown.EstimateTTC),
		PricingSetID:    setID,
	})
	if err != nil {
		return Mandat{}, fmt.Errorf("mandate: create: %w", err)
	}
	if obs.MandatsCreatedTotal != nil {
		obs.MandatsCreatedTotal.Inc()
	}
	s.emit(ctx, events.TopicMandatCreated, row)
	return convertMandat(row), nil
}

// Get returns a mandate visible to the actor's company.
func (s *Service) Get(ctx context.Context, userID, id string) (Mandat, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return Mandat{}, err
	}
	member, _, err := s.actorCompany(ctx, userID)
	if err != nil {
		return Mandat{}, err
	}
	if member.CompanyID != row.CompanyID && member.CompanyID != row.CarrierCompanyID {
		// Open mandates are visible to every carrier browsing the market.
		if row.Status != db.MandatStatusOPEN {
			return Mandat{}, common.NewAppError("FORBIDDEN", "mandate not visible to your company", http.StatusForbidden, nil)
		}
	}
	return convertMandat(row), nil
}

// ListOwn returns the mandates the actor's company posted or carries.
func (s *Service) ListOwn(ctx context.Context, userID string, page, perPage int) ([]Mandat, error) {
	member, _, err := s.actorCompany(ctx, userID)
	if err != nil {
		return nil, err
	}
	limit, offset := pageBounds(page, perPage)
	rows, err := s.Q.ListMandatsByCompany(ctx, db.ListMandatsByCompanyParams{
		CompanyID:   member.CompanyID,
		LimitValue:  limit,
		OffsetValue: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("mandate: list own: %w", err)
	}
	return convertMandats(rows), nil
}

// ListOpen returns the open market visible to carriers.
func (s *Service) ListOpen(ctx context.Context, page, perPage int) ([]Mandat, error) {
	limit, offset := pageBounds(page, perPage)
	rows, err := s.Q.ListOpenMandats(ctx, db.ListOpenMandatsParams{LimitValue: limit, OffsetValue: offset})
	if err != nil {
		return nil, fmt.Errorf("mandate: list open: %w", err)
	}
	return convertMandats(rows), nil
}

// ListAll returns every mandate for admin moderation.
func (s *Service) ListAll(ctx context.Context, page, perPage int) ([]Mandat, error) {
	limit, offset := pageBounds(page, perPage)
	rows, err := s.Q.ListAllMandats(ctx, db.ListAllMandatsParams{LimitValue: limit, OffsetValue: offset})
	if err != nil {
		return nil, fmt.Errorf("mandate: list all: %w", err)
	}
	return convertMandats(rows), nil
}

// EventRecord is one entry in a mandate's audit trail.
type EventRecord struct {
	Topic      string          `json:"topic"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// History returns the persisted domain events of a mandate, oldest first.
func (s *Service) History(ctx context.Context, id string) ([]EventRecord, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	rows, err := s.Q.ListDomainEventsByAggregate(ctx, row.ID)
	if err != nil {
		return nil, fmt.Errorf("mandate: list events: %w", err)
	}
	records := make([]EventRecord, 0, len(rows))
	for _, ev := range rows {
		records = append(records, EventRecord{
			Topic:      ev.Topic,
			Payload:    json.RawMessage(ev.Payload),
			OccurredAt: ev.OccurredAt.Time,
		})
	}
	return records, nil
}

// Accept lets a carrier company claim an open mandate. The update carries an
// optimistic status guard so two carriers cannot both win.
func (s *Service) Accept(ctx context.Context, userID, id string) (Mandat, error) {
	member, company, err := s.actorCompany(ctx, userID)
	if err != nil {
		return Mandat{}, err
	}
	if company.Role != db.CompanyRoleTRANSPORTEUR {
		return Mandat{}, common.NewAppError("FORBIDDEN", "only carrier companies can accept mandates", http.StatusForbidden, nil)
	}
	mandatID, err := parseUUID(id)
	if err != nil {
		return Mandat{}, common.NewAppError("VALIDATION", "invalid mandate id", http.StatusBadRequest, err)
	}
	row, err := s.Q.AcceptMandat(ctx, db.AcceptMandatParams{ID: mandatID, CarrierCompanyID: member.CompanyID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Mandat{}, common.NewAppError("MANDAT_NOT_OPEN", "mandate is no longer open", http.StatusConflict, err)
		}
		return Mandat{}, fmt.Errorf("mandate: accept: %w", err)
	}
	countStatus(db.MandatStatusACCEPTED)
	s.emit(ctx, events.TopicMandatAccepted, row)
	return convertMandat(row), nil
}

// Advance moves an accepted mandate along the carrier flow
// (accepted → in_transit → delivered).
func (s *Service) Advance(ctx context.Context, userID, id, statusValue string) (Mandat, error) {
	target, ok := ParseStatus(statusValue)
	if !ok {
		return Mandat{}, common.NewAppError("VALIDATION", fmt.Sprintf("unknown status %q", statusValue), http.StatusBadRequest, nil)
	}
	if target != db.MandatStatusINTRANSIT && target != db.MandatStatusDELIVERED {
		return Mandat{}, common.NewAppError("VALIDATION", "carriers can only move mandates to in_transit or delivered", http.StatusBadRequest, nil)
	}
	row, err := s.load(ctx, id)
	if err != nil {
		return Mandat{}, err
	}
	member, _, err := s.actorCompany(ctx, userID)
	if err != nil {
		return Mandat{}, err
	}
	if member.CompanyID != row.CarrierCompanyID {
		return Mandat{}, common.NewAppError("FORBIDDEN", "only the carrier of this mandate can update its status", http.StatusForbidden, nil)
	}
	return s.transition(ctx, row, target)
}

// Moderate applies an admin status change (suspend, cancel, reopen).
func (s *Service) Moderate(ctx context.Context, id, statusValue string) (Mandat, error) {
	target, ok := ParseStatus(statusValue)
	if !ok {
		return Mandat{}, common.NewAppError("VALIDATION", fmt.Sprintf("unknown status %q", statusValue), http.StatusBadRequest, nil)
	}
	row, err := s.load(ctx, id)
	if err != nil {
		return Mandat{}, err
	}
	if !CanTransition(row.Status, target) {
		return Mandat{}, common.NewAppError(
			"INVALID_TRANSITION",
			fmt.Sprintf("cannot move mandate from %s to %s", StatusString(row.Status), StatusString(target)),
			http.StatusConflict, nil,
		)
	}
	// Moderation wins any race with carrier updates, no optimistic guard.
	if _, err := s.Q.SetMandatStatus(ctx, db.SetMandatStatusParams{ID: row.ID, Status: target}); err != nil {
		return Mandat{}, fmt.Errorf("mandate: moderate status: %w", err)
	}
	countStatus(target)
	row.Status = target
	if topic := topicForStatus(target); topic != "" {
		s.emit(ctx, topic, row)
	}
	return convertMandat(row), nil
}

// SetPhoto attaches an uploaded photo key to a mandate of the actor's company.
func (s *Service) SetPhoto(ctx context.Context, userID, id, key string) error {
	row, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	member, _, err := s.actorCompany(ctx, userID)
	if err != nil {
		return err
	}
	if member.CompanyID != row.CompanyID && member.CompanyID != row.CarrierCompanyID {
		return common.NewAppError("FORBIDDEN", "mandate not visible to your company", http.StatusForbidden, nil)
	}
	if err := s.Q.SetMandatPhotoKey(ctx, db.SetMandatPhotoKeyParams{ID: row.ID, PhotoKey: pgText(key)}); err != nil {
		return fmt.Errorf("mandate: set photo: %w", err)
	}
	return nil
}

func (s *Service) transition(ctx context.Context, row db.Mandat, target db.MandatStatus) (Mandat, error) {
	if !CanTransition(row.Status, target) {
		return Mandat{}, common.NewAppError(
			"INVALID_TRANSITION",
			fmt.Sprintf("cannot move mandate from %s to %s", StatusString(row.Status), StatusString(target)),
			http.StatusConflict, nil,
		)
	}
	if _, err := s.Q.UpdateMandatStatusIfCurrent(ctx, db.UpdateMandatStatusIfCurrentParams{
		ID:            row.ID,
		Status:        target,
		CurrentStatus: row.Status,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Mandat{}, common.NewAppError("STATUS_CHANGED", "mandate status changed concurrently", http.StatusConflict, err)
		}
		return Mandat{}, fmt.Errorf("mandate: update status: %w", err)
	}
	countStatus(target)
	row.Status = target
	if topic := topicForStatus(target); topic != "" {
		s.emit(ctx, topic, row)
	}
	return convertMandat(row), nil
}

func (s *Service) load(ctx context.Context, id string) (db.Mandat, error) {
	mandatID, err := parseUUID(id)
	if err != nil {
		return db.Mandat{}, common.NewAppError("VALIDATION", "invalid mandate id", http.StatusBadRequest, err)
	}
	row, err := s.Q.GetMandatByID(ctx, mandatID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.Mandat{}, common.NewAppError("NOT_FOUND", "mandate not found", http.StatusNotFound, err)
		}
		return db.Mandat{}, fmt.Errorf("mandate: load: %w", err)
	}
	return row, nil
}

func (s *Service) actorCompany(ctx context.Context, userID string) (db.CompanyMember, db.Company, error) {
	uid, err := parseUUID(userID)
	if err != nil {
		return db.CompanyMember{}, db.Company{}, common.NewAppError("UNAUTHORIZED", "invalid user", http.StatusUnauthorized, err)
	}
	member, err := s.Q.GetMembershipByUser(ctx, uid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.CompanyMember{}, db.Company{}, common.NewAppError("NO_COMPANY", "user does not belong to a company", http.StatusForbidden, err)
		}
		return db.CompanyMember{}, db.Company{}, fmt.Errorf("mandate: membership: %w", err)
	}
	company, err := s.Q.GetCompanyByID(ctx, member.CompanyID)
	if err != nil {
		return db.CompanyMember{}, db.Company{}, fmt.Errorf("mandate: company: %w", err)
	}
	return member, company, nil
}

func (s *Service) emit(ctx context.Context, topic string, row db.Mandat) {
	if s.Events == nil {
		return
	}
	payload := map[string]any{
		"mandat_id": uuidString(row.ID),
		"status":    StatusString(row.Status),
		"company":   uuidString(row.CompanyID),
	}
	if row.CarrierCompanyID.Valid {
		payload["carrier_company"] = uuidString(row.CarrierCompanyID)
	}
	if row.PickupPlaceID.Valid {
		payload["pickup_place_id"] = row.PickupPlaceID.String
	}
	if row.DeliveryPlaceID.Valid {
		payload["delivery_place_id"] = row.DeliveryPlaceID.String
	}
	// The shipper who posted the mandate gets the status emails.
	if creator, err := s.Q.GetUserByID(ctx, row.CreatedBy); err == nil {
		payload["email"] = creator.Email
	}
	if _, err := s.Events.Emit(ctx, topic, row.ID, payload); err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("mandate: emit event")
	}
}

func topicForStatus(status db.MandatStatus) string {
	switch status {
	case db.MandatStatusACCEPTED:
		return events.TopicMandatAccepted
	case db.MandatStatusINTRANSIT:
		return events.TopicMandatInTransit
	case db.MandatStatusDELIVERED:
		return events.TopicMandatDelivered
	case db.MandatStatusSUSPENDED:
		return events.TopicMandatSuspended
	case db.MandatStatusCANCELLED:
		return events.TopicMandatCancelled
	}
	return ""
}

func pageBounds(page, perPage int) (limit, offset int32) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return int32(perPage), int32((page - 1) * perPage)
}

func countQuote(result string) {
	if obs.QuotesComputedTotal != nil {
		obs.QuotesComputedTotal.WithLabelValues(result).Inc()
	}
}

func countStatus(status db.MandatStatus) {
	if obs.MandatStatusTotal != nil {
		obs.MandatStatusTotal.WithLabelValues(StatusString(status)).Inc()
	}
}
