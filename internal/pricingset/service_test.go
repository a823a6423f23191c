package pricingset

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/spontis/backend-spontis/internal/common"
	db "github.com/spontis/backend-spontis/internal/db/gen"
)

type fakeQuerier struct {
	db.Querier
	sets        map[string]db.PricingSet
	activeCalls int
}

func newFakeQuerier() *fakeQuerier {
	return &fakeQuerier{sets: map[string]db.PricingSet{}}
}

func (f *fakeQuerier) CreatePricingSet(_ context.Context, arg db.CreatePricingSetParams) (db.PricingSet, error) {
	var id pgtype.UUID
	_ = id.Scan(uuid.NewString())
	row := db.PricingSet{
		ID:          id,
		Name:        arg.Name,
		Version:     arg.Version,
		Variables:   arg.Variables,
		Supplements: arg.Supplements,
		CreatedAt:   pgtype.Timestamptz{Time: time.Now(), Valid: true},
		UpdatedAt:   pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
	f.sets[uuidString(id)] = row
	return row, nil
}

func (f *fakeQuerier) UpdatePricingSet(_ context.Context, arg db.UpdatePricingSetParams) (db.PricingSet, error) {
	row, ok := f.sets[uuidString(arg.ID)]
	if !ok {
		return db.PricingSet{}, pgx.ErrNoRows
	}
	row.Name = arg.Name
	row.Variables = arg.Variables
	row.Supplements = arg.Supplements
	row.Version++
	f.sets[uuidString(arg.ID)] = row
	return row, nil
}

func (f *fakeQuerier) GetPricingSet(_ context.Context, id pgtype.UUID) (db.PricingSet, error) {
	row, ok := f.sets[uuidString(id)]
	if !ok {
		return db.PricingSet{}, pgx.ErrNoRows
	}
	return row, nil
}

func (f *fakeQuerier) GetActivePricingSet(context.Context) (db.PricingSet, error) {
	f.activeCalls++
	for _, row := range f.sets {
		if row.IsActive {
			return row, nil
		}
	}
	return db.PricingSet{}, pgx.ErrNoRows
}

func (f *fakeQuerier) ListPricingSets(context.Context) ([]db.PricingSet, error) {
	out := make([]db.PricingSet, 0, len(f.sets))
	for _, row := range f.sets {
		out = append(out, row)
	}
	return out, nil
}

func validInput() Input {
	return Input{
		Name: "Tarifs 2026",
		Variables: Variables{
			TarifKmBaseChf:      decimal.NewFromFloat(2.5),
			MajCarburantPct:     decimal.NewFromInt(5),
			MajEmbouteillagePct: decimal.NewFromInt(2),
			TVARatePct:          decimal.NewFromFloat(8.1),
		},
		Supplements: []Supplement{
			{Nom: "Péage", Type: "fix", Montant: decimal.NewFromInt(20)},
			{Nom: "Grue mobile", Type: "pct", Montant: decimal.NewFromInt(10)},
		},
	}
}

func TestCreateAndGetRoundtrip(t *testing.T) {
	q := newFakeQuerier()
	svc := &Service{Q: q}

	created, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)
	require.Equal(t, int32(1), created.Version)
	require.False(t, created.IsActive)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, created.Name, got.Name)
	require.True(t, got.Variables.TarifKmBaseChf.Equal(decimal.NewFromFloat(2.5)))
	require.Len(t, got.Supplements, 2)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	svc := &Service{Q: newFakeQuerier()}

	in := validInput()
	in.Name = "  "
	_, err := svc.Create(context.Background(), in)
	require.Error(t, err)
	require.True(t, common.IsAppError(err))

	in = validInput()
	in.Variables.TarifKmBaseChf = decimal.Zero
	_, err = svc.Create(context.Background(), in)
	require.Error(t, err)

	in = validInput()
	in.Supplements[0].Type = "flat"
	_, err = svc.Create(context.Background(), in)
	require.Error(t, err)

	in = validInput()
	in.Supplements[0].Nom = ""
	_, err = svc.Create(context.Background(), in)
	require.Error(t, err)
}

func TestUpdateBumpsVersion(t *testing.T) {
	q := newFakeQuerier()
	svc := &Service{Q: q}

	created, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	in := validInput()
	in.Name = "Tarifs 2026 rev"
	updated, err := svc.Update(context.Background(), created.ID, in)
	require.NoError(t, err)
	require.Equal(t, int32(2), updated.Version)
	require.Equal(t, "Tarifs 2026 rev", updated.Name)
}

func TestUpdateUnknownSetIsNotFound(t *testing.T) {
	svc := &Service{Q: newFakeQuerier()}
	_, err := svc.Update(context.Background(), uuid.NewString(), validInput())
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestActiveReturnsErrWhenNoneActive(t *testing.T) {
	svc := &Service{Q: newFakeQuerier()}
	_, err := svc.Active(context.Background())
	require.ErrorIs(t, err, ErrNoActiveSet)
}

func TestActiveUsesCacheOnSecondCall(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	q := newFakeQuerier()
	svc := &Service{Q: q, Cache: NewCache(client, time.Minute)}

	created, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)
	row := q.sets[created.ID]
	row.IsActive = true
	q.sets[created.ID] = row

	first, err := svc.Active(context.Background())
	require.NoError(t, err)
	require.Equal(t, created.ID, first.ID)
	require.Equal(t, 1, q.activeCalls)

	second, err := svc.Active(context.Background())
	require.NoError(t, err)
	require.Equal(t, created.ID, second.ID)
	// Served from Redis, the database is not consulted again.
	require.Equal(t, 1, q.activeCalls)
}

func TestEngineConversionKeepsDocumentValues(t *testing.T) {
	in := validInput()
	variables, supplements, err := in.documents()
	require.NoError(t, err)

	var set Set
	require.NoError(t, json.Unmarshal(variables, &set.Variables))
	require.NoError(t, json.Unmarshal(supplements, &set.Supplements))

	vars := set.EngineVariables()
	require.True(t, vars.TarifKmBase.Equal(decimal.NewFromFloat(2.5)))
	require.True(t, vars.TVARatePct.Equal(decimal.NewFromFloat(8.1)))

	sups := set.EngineSupplements()
	require.Len(t, sups, 2)
	require.Equal(t, "Péage", sups[0].Nom)
	require.True(t, sups[1].Montant.Equal(decimal.NewFromInt(10)))
}
