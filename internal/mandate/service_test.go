package mandate

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/spontis/backend-spontis/internal/common"
	db "github.com/spontis/backend-spontis/internal/db/gen"
	"github.com/spontis/backend-spontis/internal/events"
	"github.com/spontis/backend-spontis/internal/pricingset"
)

type fakeQuerier struct {
	db.Querier
	mandats     map[string]db.Mandat
	memberships map[string]db.CompanyMember
	companies   map[string]db.Company
	trail       map[string][]db.DomainEvent
}

func newFakeQuerier() *fakeQuerier {
	return &fakeQuerier{
		mandats:     map[string]db.Mandat{},
		memberships: map[string]db.CompanyMember{},
		companies:   map[string]db.Company{},
		trail:       map[string][]db.DomainEvent{},
	}
}

func (f *fakeQuerier) addCompany(role db.CompanyRole) (companyID, userID string) {
	company := db.Company{ID: newUUID(), Name: "Co " + string(role), Role: role}
	member := db.CompanyMember{ID: newUUID(), CompanyID: company.ID, UserID: newUUID(), Role: db.MemberRoleOWNER}
	f.companies[uuidString(company.ID)] = company
	f.memberships[uuidString(member.UserID)] = member
	return uuidString(company.ID), uuidString(member.UserID)
}

func (f *fakeQuerier) GetUserByID(_ context.Context, id pgtype.UUID) (db.User, error) {
	return db.User{ID: id, Email: "shipper@spontis.ch"}, nil
}

func (f *fakeQuerier) GetMembershipByUser(_ context.Context, userID pgtype.UUID) (db.CompanyMember, error) {
	member, ok := f.memberships[uuidString(userID)]
	if !ok {
		return db.CompanyMember{}, pgx.ErrNoRows
	}
	return member, nil
}

func (f *fakeQuerier) GetCompanyByID(_ context.Context, id pgtype.UUID) (db.Company, error) {
	company, ok := f.companies[uuidString(id)]
	if !ok {
		return db.Company{}, pgx.ErrNoRows
	}
	return company, nil
}

func (f *fakeQuerier) CreateMandat(_ context.Context, arg db.CreateMandatParams) (db.Mandat, error) {
	row := db.Mandat{
		ID:              newUUID(),
		CompanyID:       arg.CompanyID,
		CreatedBy:       arg.CreatedBy,
		Status:          db.MandatStatusOPEN,
		PickupAddress:   arg.PickupAddress,
		PickupPlaceID:   arg.PickupPlaceID,
		DeliveryAddress: arg.DeliveryAddress,
		DeliveryPlaceID: arg.DeliveryPlaceID,
		DistanceKm:      arg.DistanceKm,
		SurfaceM2:       arg.SurfaceM2,
		ExtrasChf:       arg.ExtrasChf,
		MinChargeHt:     arg.MinChargeHt,
		PrixBaseHt:      arg.PrixBaseHt,
		PrixEstimeHt:    arg.PrixEstimeHt,
		PrixEstimeTtc:   arg.PrixEstimeTtc,
		PricingSetID:    arg.PricingSetID,
		CreatedAt:       pgtype.Timestamptz{Time: time.Now(), Valid: true},
		UpdatedAt:       pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
	f.mandats[uuidString(row.ID)] = row
	return row, nil
}

func (f *fakeQuerier) GetMandatByID(_ context.Context, id pgtype.UUID) (db.Mandat, error) {
	row, ok := f.mandats[uuidString(id)]
	if !ok {
		return db.Mandat{}, pgx.ErrNoRows
	}
	return row, nil
}

func (f *fakeQuerier) AcceptMandat(_ context.Context, arg db.AcceptMandatParams) (db.Mandat, error) {
	row, ok := f.mandats[uuidString(arg.ID)]
	if !ok || row.Status != db.MandatStatusOPEN {
		return db.Mandat{}, pgx.ErrNoRows
	}
	row.Status = db.MandatStatusACCEPTED
	row.CarrierCompanyID = arg.CarrierCompanyID
	f.mandats[uuidString(arg.ID)] = row
	return row, nil
}

func (f *fakeQuerier) UpdateMandatStatusIfCurrent(_ context.Context, arg db.UpdateMandatStatusIfCurrentParams) (pgtype.UUID, error) {
	row, ok := f.mandats[uuidString(arg.ID)]
	if !ok || row.Status != arg.CurrentStatus {
		return pgtype.UUID{}, pgx.ErrNoRows
	}
	row.Status = arg.Status
	f.mandats[uuidString(arg.ID)] = row
	return row.ID, nil
}

func (f *fakeQuerier) SetMandatStatus(_ context.Context, arg db.SetMandatStatusParams) (pgtype.UUID, error) {
	row, ok := f.mandats[uuidString(arg.ID)]
	if !ok {
		return pgtype.UUID{}, pgx.ErrNoRows
	}
	row.Status = arg.Status
	f.mandats[uuidString(arg.ID)] = row
	return row.ID, nil
}

func (f *fakeQuerier) ListOpenMandats(_ context.Context, _ db.ListOpenMandatsParams) ([]db.Mandat, error) {
	var out []db.Mandat
	for _, row := range f.mandats {
		if row.Status == db.MandatStatusOPEN {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeQuerier) ListMandatsByCompany(_ context.Context, arg db.ListMandatsByCompanyParams) ([]db.Mandat, error) {
	var out []db.Mandat
	for _, row := range f.mandats {
		if row.CompanyID == arg.CompanyID || row.CarrierCompanyID == arg.CompanyID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeQuerier) SetMandatPhotoKey(_ context.Context, arg db.SetMandatPhotoKeyParams) error {
	row, ok := f.mandats[uuidString(arg.ID)]
	if !ok {
		return pgx.ErrNoRows
	}
	row.PhotoKey = arg.PhotoKey
	f.mandats[uuidString(arg.ID)] = row
	return nil
}

type stubGeo struct {
	km decimal.Decimal
}

func (s stubGeo) DistanceKm(context.Context, string, string) (decimal.Decimal, error) {
	return s.km, nil
}

type stubPricing struct {
	set pricingset.Set
}

func (s stubPricing) Active(context.Context) (pricingset.Set, error) {
	return s.set, nil
}

type stubEmitter struct {
	topics []string
	store  *fakeQuerier
}

func (s *stubEmitter) Emit(_ context.Context, topic string, id pgtype.UUID, _ any) (db.DomainEvent, error) {
	s.topics = append(s.topics, topic)
	event := db.DomainEvent{Topic: topic, AggregateID: id}
	if s.store != nil {
		key := uuidString(id)
		s.store.trail[key] = append(s.store.trail[key], event)
	}
	return event, nil
}

func (f *fakeQuerier) ListDomainEventsByAggregate(_ context.Context, aggregateID pgtype.UUID) ([]db.DomainEvent, error) {
	return f.trail[uuidString(aggregateID)], nil
}

func newUUID() pgtype.UUID {
	var id pgtype.UUID
	_ = id.Scan(uuid.NewString())
	return id
}

func testSet() pricingset.Set {
	return pricingset.Set{
		ID:      uuid.NewString(),
		Name:    "Tarifs test",
		Version: 1,
		Variables: pricingset.Variables{
			TarifKmBaseChf:      decimal.NewFromInt(1),
			MajCarburantPct:     decimal.NewFromInt(5),
			MajEmbouteillagePct: decimal.NewFromInt(2),
			TVARatePct:          decimal.NewFromFloat(8.1),
		},
	}
}

func testInput() QuoteInput {
	return QuoteInput{
		PickupAddress:   "Rue du Lac 3, Lausanne",
		PickupPlaceID:   "place-a",
		DeliveryAddress: "Bahnhofstrasse 1, Zürich",
		DeliveryPlaceID: "place-b",
		SurfaceM2:       decimal.NewFromInt(3),
	}
}

func newTestService(q *fakeQuerier, emitter *stubEmitter) *Service {
	svc := &Service{
		Q:       q,
		Geo:     stubGeo{km: decimal.NewFromInt(100)},
		Pricing: stubPricing{set: testSet()},
	}
	// Assigning a nil *stubEmitter directly would produce a non-nil
	// interface value and defeat the Events guard.
	if emitter != nil {
		svc.Events = emitter
	}
	return svc
}

func TestQuoteComputesBreakdown(t *testing.T) {
	svc := newTestService(newFakeQuerier(), nil)

	result, err := svc.Quote(context.Background(), testInput())
	require.NoError(t, err)
	// 100 km x 3 m2 x 1 CHF = 300, +7% = 321, +8.1% TVA = 347.00.
	require.True(t, result.Breakdown.BaseHT.Equal(decimal.NewFromInt(300)), "base %s", result.Breakdown.BaseHT)
	require.True(t, result.Breakdown.EstimateHT.Equal(decimal.NewFromInt(321)), "ht %s", result.Breakdown.EstimateHT)
	require.Equal(t, "347.00", result.Breakdown.EstimateTTC.StringFixed(2))
	require.True(t, result.DistanceKm.Equal(decimal.NewFromInt(100)))
}

func TestQuoteRejectsMissingAddresses(t *testing.T) {
	svc := newTestService(newFakeQuerier(), nil)
	in := testInput()
	in.DeliveryAddress = ""
	_, err := svc.Quote(context.Background(), in)
	require.Error(t, err)
	require.True(t, common.IsAppError(err))
}

func TestQuoteRejectsNonPositiveSurface(t *testing.T) {
	svc := newTestService(newFakeQuerier(), nil)
	in := testInput()
	in.SurfaceM2 = decimal.Zero
	_, err := svc.Quote(context.Background(), in)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "VALIDATION", appErr.Code)
}

func TestCreatePersistsBreakdownAndEmits(t *testing.T) {
	q := newFakeQuerier()
	_, shipperUser := q.addCompany(db.CompanyRoleEXPEDITEUR)
	emitter := &stubEmitter{}
	svc := newTestService(q, emitter)

	mandat, err := svc.Create(context.Background(), shipperUser, testInput())
	require.NoError(t, err)
	require.Equal(t, "open", mandat.Status)
	require.Equal(t, "347.00", mandat.PrixEstimeTtc.StringFixed(2))
	require.True(t, mandat.PrixBaseHt.Equal(decimal.NewFromInt(300)))
	require.Equal(t, []string{events.TopicMandatCreated}, emitter.topics)
}

func TestCreateWithoutEmitterSkipsEvents(t *testing.T) {
	q := newFakeQuerier()
	_, shipperUser := q.addCompany(db.CompanyRoleEXPEDITEUR)
	svc := newTestService(q, nil)

	mandat, err := svc.Create(context.Background(), shipperUser, testInput())
	require.NoError(t, err)
	require.Equal(t, "open", mandat.Status)
}

func TestCreateForbiddenForCarrierCompany(t *testing.T) {
	q := newFakeQuerier()
	_, carrierUser := q.addCompany(db.CompanyRoleTRANSPORTEUR)
	svc := newTestService(q, nil)

	_, err := svc.Create(context.Background(), carrierUser, testInput())
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "FORBIDDEN", appErr.Code)
}

func TestAcceptClaimsOpenMandateOnce(t *testing.T) {
	q := newFakeQuerier()
	_, shipperUser := q.addCompany(db.CompanyRoleEXPEDITEUR)
	carrierCompany, carrierUser := q.addCompany(db.CompanyRoleTRANSPORTEUR)
	emitter := &stubEmitter{}
	svc := newTestService(q, emitter)

	mandat, err := svc.Create(context.Background(), shipperUser, testInput())
	require.NoError(t, err)

	accepted, err := svc.Accept(context.Background(), carrierUser, mandat.ID)
	require.NoError(t, err)
	require.Equal(t, "accepted", accepted.Status)
	require.Equal(t, carrierCompany, accepted.CarrierCompanyID)

	// A second carrier loses the race.
	_, otherCarrierUser := q.addCompany(db.CompanyRoleTRANSPORTEUR)
	_, err = svc.Accept(context.Background(), otherCarrierUser, mandat.ID)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "MANDAT_NOT_OPEN", appErr.Code)
}

func TestAcceptForbiddenForShipperCompany(t *testing.T) {
	q := newFakeQuerier()
	_, shipperUser := q.addCompany(db.CompanyRoleEXPEDITEUR)
	svc := newTestService(q, nil)

	mandat, err := svc.Create(context.Background(), shipperUser, testInput())
	require.NoError(t, err)

	_, err = svc.Accept(context.Background(), shipperUser, mandat.ID)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "FORBIDDEN", appErr.Code)
}

func TestAdvanceFollowsCarrierFlow(t *testing.T) {
	q := newFakeQuerier()
	_, shipperUser := q.addCompany(db.CompanyRoleEXPEDITEUR)
	_, carrierUser := q.addCompany(db.CompanyRoleTRANSPORTEUR)
	emitter := &stubEmitter{}
	svc := newTestService(q, emitter)

	mandat, err := svc.Create(context.Background(), shipperUser, testInput())
	require.NoError(t, err)
	_, err = svc.Accept(context.Background(), carrierUser, mandat.ID)
	require.NoError(t, err)

	inTransit, err := svc.Advance(context.Background(), carrierUser, mandat.ID, "in_transit")
	require.NoError(t, err)
	require.Equal(t, "in_transit", inTransit.Status)

	delivered, err := svc.Advance(context.Background(), carrierUser, mandat.ID, "delivered")
	require.NoError(t, err)
	require.Equal(t, "delivered", delivered.Status)

	require.Equal(t, []string{
		events.TopicMandatCreated,
		events.TopicMandatAccepted,
		events.TopicMandatInTransit,
		events.TopicMandatDelivered,
	}, emitter.topics)
}

func TestAdvanceRejectsSkippedStep(t *testing.T) {
	q := newFakeQuerier()
	_, shipperUser := q.addCompany(db.CompanyRoleEXPEDITEUR)
	_, carrierUser := q.addCompany(db.CompanyRoleTRANSPORTEUR)
	svc := newTestService(q, nil)

	mandat, err := svc.Create(context.Background(), shipperUser, testInput())
	require.NoError(t, err)
	_, err = svc.Accept(context.Background(), carrierUser, mandat.ID)
	require.NoError(t, err)

	_, err = svc.Advance(context.Background(), carrierUser, mandat.ID, "delivered")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "INVALID_TRANSITION", appErr.Code)
}

func TestAdvanceForbiddenForOtherCarrier(t *testing.T) {
	q := newFakeQuerier()
	_, shipperUser := q.addCompany(db.CompanyRoleEXPEDITEUR)
	_, carrierUser := q.addCompany(db.CompanyRoleTRANSPORTEUR)
	_, otherCarrierUser := q.addCompany(db.CompanyRoleTRANSPORTEUR)
	svc := newTestService(q, nil)

	mandat, err := svc.Create(context.Background(), shipperUser, testInput())
	require.NoError(t, err)
	_, err = svc.Accept(context.Background(), carrierUser, mandat.ID)
	require.NoError(t, err)

	_, err = svc.Advance(context.Background(), otherCarrierUser, mandat.ID, "in_transit")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "FORBIDDEN", appErr.Code)
}

func TestModerateSuspendAndReopen(t *testing.T) {
	q := newFakeQuerier()
	_, shipperUser := q.addCompany(db.CompanyRoleEXPEDITEUR)
	emitter := &stubEmitter{}
	svc := newTestService(q, emitter)

	mandat, err := svc.Create(context.Background(), shipperUser, testInput())
	require.NoError(t, err)

	suspended, err := svc.Moderate(context.Background(), mandat.ID, "suspended")
	require.NoError(t, err)
	require.Equal(t, "suspended", suspended.Status)

	reopened, err := svc.Moderate(context.Background(), mandat.ID, "open")
	require.NoError(t, err)
	require.Equal(t, "open", reopened.Status)

	// Delivered is unreachable from open.
	_, err = svc.Moderate(context.Background(), mandat.ID, "delivered")
	require.Error(t, err)
}

func TestHistoryReturnsEventTrail(t *testing.T) {
	q := newFakeQuerier()
	_, shipperUser := q.addCompany(db.CompanyRoleEXPEDITEUR)
	svc := newTestService(q, &stubEmitter{store: q})

	mandat, err := svc.Create(context.Background(), shipperUser, testInput())
	require.NoError(t, err)

	records, err := svc.History(context.Background(), mandat.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, events.TopicMandatCreated, records[0].Topic)
}

func TestSetPhotoRequiresVisibility(t *testing.T) {
	q := newFakeQuerier()
	_, shipperUser := q.addCompany(db.CompanyRoleEXPEDITEUR)
	_, strangerUser := q.addCompany(db.CompanyRoleEXPEDITEUR)
	svc := newTestService(q, nil)

	mandat, err := svc.Create(context.Background(), shipperUser, testInput())
	require.NoError(t, err)

	require.NoError(t, svc.SetPhoto(context.Background(), shipperUser, mandat.ID, "mandats/photo.jpg"))

	err = svc.SetPhoto(context.Background(), strangerUser, mandat.ID, "mandats/photo.jpg")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "FORBIDDEN", appErr.Code)
}
