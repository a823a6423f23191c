package company

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/spontis/backend-spontis/internal/common"
	db "github.com/spontis/backend-spontis/internal/db/gen"
)

type fakeQuerier struct {
	db.Querier
	companies   map[string]db.Company
	memberships map[string]db.CompanyMember
	invitations map[string]db.CompanyInvitation
}

func newFakeQuerier() *fakeQuerier {
	return &fakeQuerier{
		companies:   map[string]db.Company{},
		memberships: map[string]db.CompanyMember{},
		invitations: map[string]db.CompanyInvitation{},
	}
}

func (f *fakeQuerier) CreateCompany(_ context.Context, arg db.CreateCompanyParams) (db.Company, error) {
	row := db.Company{
		ID:        newUUID(),
		Name:      arg.Name,
		Role:      arg.Role,
		Ide:       arg.Ide,
		CreatedAt: pgtype.Timestamptz{Time: time.Now(), Valid: true},
		UpdatedAt: pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
	f.companies[uuidString(row.ID)] = row
	return row, nil
}

func (f *fakeQuerier) GetCompanyByID(_ context.Context, id pgtype.UUID) (db.Company, error) {
	row, ok := f.companies[uuidString(id)]
	if !ok {
		return db.Company{}, pgx.ErrNoRows
	}
	return row, nil
}

func (f *fakeQuerier) UpdateCompany(_ context.Context, arg db.UpdateCompanyParams) (db.Company, error) {
	row, ok := f.companies[uuidString(arg.ID)]
	if !ok {
		return db.Company{}, pgx.ErrNoRows
	}
	row.Name = arg.Name
	row.Ide = arg.Ide
	f.companies[uuidString(arg.ID)] = row
	return row, nil
}

func (f *fakeQuerier) AddCompanyMember(_ context.Context, arg db.AddCompanyMemberParams) (db.CompanyMember, error) {
	row := db.CompanyMember{
		ID:        newUUID(),
		CompanyID: arg.CompanyID,
		UserID:    arg.UserID,
		Role:      arg.Role,
		CreatedAt: pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
	f.memberships[uuidString(arg.UserID)] = row
	return row, nil
}

func (f *fakeQuerier) GetMembershipByUser(_ context.Context, userID pgtype.UUID) (db.CompanyMember, error) {
	row, ok := f.memberships[uuidString(userID)]
	if !ok {
		return db.CompanyMember{}, pgx.ErrNoRows
	}
	return row, nil
}

func (f *fakeQuerier) CreateInvitation(_ context.Context, arg db.CreateInvitationParams) (db.CompanyInvitation, error) {
	row := db.CompanyInvitation{
		ID:        newUUID(),
		CompanyID: arg.CompanyID,
		Email:     arg.Email,
		Role:      arg.Role,
		TokenHash: arg.TokenHash,
		Status:    db.InvitationStatusPENDING,
		ExpiresAt: arg.ExpiresAt,
		CreatedAt: pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
	f.invitations[arg.TokenHash] = row
	return row, nil
}

func (f *fakeQuerier) GetInvitationByTokenHash(_ context.Context, hash string) (db.CompanyInvitation, error) {
	row, ok := f.invitations[hash]
	if !ok {
		return db.CompanyInvitation{}, pgx.ErrNoRows
	}
	return row, nil
}

func (f *fakeQuerier) SetInvitationStatus(_ context.Context, arg db.SetInvitationStatusParams) error {
	for hash, row := range f.invitations {
		if row.ID == arg.ID {
			row.Status = arg.Status
			f.invitations[hash] = row
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeQuerier) ListInvitationsByCompany(_ context.Context, companyID pgtype.UUID) ([]db.CompanyInvitation, error) {
	var out []db.CompanyInvitation
	for _, row := range f.invitations {
		if row.CompanyID == companyID {
			out = append(out, row)
		}
	}
	return out, nil
}

func newUUID() pgtype.UUID {
	var id pgtype.UUID
	_ = id.Scan(uuid.NewString())
	return id
}

func TestCreateMakesCreatorOwner(t *testing.T) {
	q := newFakeQuerier()
	svc := &Service{Q: q}
	userID := uuid.NewString()

	company, err := svc.Create(context.Background(), userID, Input{Name: "Transports Léman", Role: "expediteur", Ide: "CHE-123.456.789"})
	require.NoError(t, err)
	require.Equal(t, "expediteur", company.Role)

	member := q.memberships[userID]
	require.Equal(t, db.MemberRoleOWNER, member.Role)

	// A second company for the same user is rejected.
	_, err = svc.Create(context.Background(), userID, Input{Name: "Autre", Role: "transporteur"})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "ALREADY_MEMBER", appErr.Code)
}

func TestCreateRejectsUnknownRole(t *testing.T) {
	svc := &Service{Q: newFakeQuerier()}
	_, err := svc.Create(context.Background(), uuid.NewString(), Input{Name: "X", Role: "courtier"})
	require.Error(t, err)
}

func TestUpdateRequiresOwner(t *testing.T) {
	q := newFakeQuerier()
	svc := &Service{Q: q}
	ownerID := uuid.NewString()
	company, err := svc.Create(context.Background(), ownerID, Input{Name: "Transports Léman", Role: "expediteur"})
	require.NoError(t, err)

	// Plain member cannot edit.
	memberID := newUUID()
	companyUUID, err := parseUUID(company.ID)
	require.NoError(t, err)
	_, err = q.AddCompanyMember(context.Background(), db.AddCompanyMemberParams{
		CompanyID: companyUUID,
		UserID:    memberID,
		Role:      db.MemberRoleMEMBER,
	})
	require.NoError(t, err)
	_, err = svc.Update(context.Background(), uuidString(memberID), Input{Name: "Renamed"})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "FORBIDDEN", appErr.Code)

	updated, err := svc.Update(context.Background(), ownerID, Input{Name: "Renamed"})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name)
}

func TestInviteAndAcceptInvitation(t *testing.T) {
	q := newFakeQuerier()
	svc := &Service{Q: q, InvitationTTL: time.Hour}
	ownerID := uuid.NewString()
	company, err := svc.Create(context.Background(), ownerID, Input{Name: "Transports Léman", Role: "transporteur"})
	require.NoError(t, err)

	invitation, err := svc.Invite(context.Background(), ownerID, "driver@spontis.ch", "member")
	require.NoError(t, err)
	require.NotEmpty(t, invitation.Token)
	require.Equal(t, "pending", invitation.Status)

	// The stored row keeps only the hash.
	_, plainStored := q.invitations[invitation.Token]
	require.False(t, plainStored)

	joinerID := uuid.NewString()
	joined, err := svc.AcceptInvitation(context.Background(), joinerID, invitation.Token)
	require.NoError(t, err)
	require.Equal(t, company.ID, joined.ID)
	require.Equal(t, db.MemberRoleMEMBER, q.memberships[joinerID].Role)

	// Tokens are single use.
	_, err = svc.AcceptInvitation(context.Background(), uuid.NewString(), invitation.Token)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "INVITATION_INVALID", appErr.Code)
}

func TestAcceptInvitationRejectsExpired(t *testing.T) {
	q := newFakeQuerier()
	svc := &Service{Q: q, InvitationTTL: time.Hour}
	ownerID := uuid.NewString()
	_, err := svc.Create(context.Background(), ownerID, Input{Name: "Transports Léman", Role: "transporteur"})
	require.NoError(t, err)

	invitation, err := svc.Invite(context.Background(), ownerID, "late@spontis.ch", "member")
	require.NoError(t, err)

	svc.WithNow(func() time.Time { return time.Now().Add(2 * time.Hour) })
	_, err = svc.AcceptInvitation(context.Background(), uuid.NewString(), invitation.Token)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "INVITATION_EXPIRED", appErr.Code)
}

func TestRevokeInvitation(t *testing.T) {
	q := newFakeQuerier()
	svc := &Service{Q: q, InvitationTTL: time.Hour}
	ownerID := uuid.NewString()
	_, err := svc.Create(context.Background(), ownerID, Input{Name: "Transports Léman", Role: "transporteur"})
	require.NoError(t, err)

	invitation, err := svc.Invite(context.Background(), ownerID, "gone@spontis.ch", "member")
	require.NoError(t, err)

	require.NoError(t, svc.RevokeInvitation(context.Background(), ownerID, invitation.ID))

	_, err = svc.AcceptInvitation(context.Background(), uuid.NewString(), invitation.Token)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "INVITATION_INVALID", appErr.Code)
}

func TestInviteRejectsBadEmail(t *testing.T) {
	q := newFakeQuerier()
	svc := &Service{Q: q}
	ownerID := uuid.NewString()
	_, err := svc.Create(context.Background(), ownerID, Input{Name: "Transports Léman", Role: "transporteur"})
	require.NoError(t, err)

	_, err = svc.Invite(context.Background(), ownerID, "not-an-email", "member")
	require.Error(t, err)
}
