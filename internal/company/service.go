package company

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog/log"

	"github.com/spontis/backend-spontis/internal/common"
	db "github.com/spontis/backend-spontis/internal/db/gen"
	"github.com/spontis/backend-spontis/internal/events"
)

// EventEmitter publishes domain events.
type EventEmitter interface {
	Emit(ctx context.Context, topic string, aggregateID pgtype.UUID, payload any) (db.DomainEvent, error)
}

// Service manages companies, memberships and invitations.
type Service struct {
	Q             db.Querier
	Events        EventEmitter
	InvitationTTL time.Duration
	now           func() time.Time
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) { s.now = now }

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// Input carries the editable company fields.
type Input struct {
	Name string `json:"name"`
	Role string `json:"role"`
	Ide  string `json:"ide"`
}

// Create registers a company and makes the creator its owner. A user can
// belong to only one company.
func (s *Service) Create(ctx context.Context, userID string, in Input) (Company, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Company{}, common.NewAppError("VALIDATION", "company name is required", http.StatusBadRequest, nil)
	}
	role, ok := parseCompanyRole(in.Role)
	if !ok {
		return Company{}, common.NewAppError("VALIDATION", "role must be expediteur or transporteur", http.StatusBadRequest, nil)
	}
	uid, err := parseUUID(userID)
	if err != nil {
		return Company{}, common.NewAppError("UNAUTHORIZED", "invalid user", http.StatusUnauthorized, err)
	}
	if _, err := s.Q.GetMembershipByUser(ctx, uid); err == nil {
		return Company{}, common.NewAppError("ALREADY_MEMBER", "user already belongs to a company", http.StatusConflict, nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return Company{}, fmt.Errorf("company: membership lookup: %w", err)
	}
	row, err := s.Q.CreateCompany(ctx, db.CreateCompanyParams{
		Name: strings.TrimSpace(in.Name),
		Role: role,
		Ide:  pgText(strings.TrimSpace(in.Ide)),
	})
	if err != nil {
		return Company{}, fmt.Errorf("company: create: %w", err)
	}
	if _, err := s.Q.AddCompanyMember(ctx, db.AddCompanyMemberParams{
		CompanyID: row.ID,
		UserID:    uid,
		Role:      db.MemberRoleOWNER,
	}); err != nil {
		return Company{}, fmt.Errorf("company: add owner: %w", err)
	}
	return convertCompany(row), nil
}

// Mine returns the actor's company.
func (s *Service) Mine(ctx context.Context, userID string) (Company, error) {
	member, err := s.membership(ctx, userID)
	if err != nil {
		return Company{}, err
	}
	row, err := s.Q.GetCompanyByID(ctx, member.CompanyID)
	if err != nil {
		return Company{}, fmt.Errorf("company: get: %w", err)
	}
	return convertCompany(row), nil
}

// Update edits the actor's company. Owner only.
func (s *Service) Update(ctx context.Context, userID string, in Input) (Company, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Company{}, common.NewAppError("VALIDATION", "company name is required", http.StatusBadRequest, nil)
	}
	member, err := s.requireOwner(ctx, userID)
	if err != nil {
		return Company{}, err
	}
	row, err := s.Q.UpdateCompany(ctx, db.UpdateCompanyParams{
		ID:   member.CompanyID,
		Name: strings.TrimSpace(in.Name),
		Ide:  pgText(strings.TrimSpace(in.Ide)),
	})
	if err != nil {
		return Company{}, fmt.Errorf("company: update: %w", err)
	}
	return convertCompany(row), nil
}

// SetLogo stores the uploaded logo object key on the company. Owner only.
func (s *Service) SetLogo(ctx context.Context, userID, key string) error {
	member, err := s.requireOwner(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.Q.SetCompanyLogoKey(ctx, db.SetCompanyLogoKeyParams{ID: member.CompanyID, LogoKey: pgText(key)}); err != nil {
		return fmt.Errorf("company: set logo: %w", err)
	}
	return nil
}

// Members lists the actor's company members.
func (s *Service) Members(ctx context.Context, userID string) ([]Member, error) {
	member, err := s.membership(ctx, userID)
	if err != nil {
		return nil, err
	}
	rows, err := s.Q.ListCompanyMembers(ctx, member.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("company: list members: %w", err)
	}
	out := make([]Member, 0, len(rows))
	for _, row := range rows {
		out = append(out, convertMember(row))
	}
	return out, nil
}

// RemoveMember removes another member from the company. Owner only; owners
// cannot remove themselves.
func (s *Service) RemoveMember(ctx context.Context, userID, memberUserID string) error {
	member, err := s.requireOwner(ctx, userID)
	if err != nil {
		return err
	}
	target, err := parseUUID(memberUserID)
	if err != nil {
		return common.NewAppError("VALIDATION", "invalid user id", http.StatusBadRequest, err)
	}
	if target == member.UserID {
		return common.NewAppError("VALIDATION", "owners cannot remove themselves", http.StatusBadRequest, nil)
	}
	if _, err := s.Q.GetMembership(ctx, db.GetMembershipParams{CompanyID: member.CompanyID, UserID: target}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.NewAppError("NOT_FOUND", "user is not a member of your company", http.StatusNotFound, err)
		}
		return fmt.Errorf("company: lookup member: %w", err)
	}
	if err := s.Q.RemoveCompanyMember(ctx, db.RemoveCompanyMemberParams{CompanyID: member.CompanyID, UserID: target}); err != nil {
		return fmt.Errorf("company: remove member: %w", err)
	}
	return nil
}

// Invite issues an invitation token for an email address. Owner only. The
// plain token appears once in the returned Invitation.
func (s *Service) Invite(ctx context.Context, userID, email, roleValue string) (Invitation, error) {
	member, err := s.requireOwner(ctx, userID)
	if err != nil {
		return Invitation{}, err
	}
	normalized := strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(normalized); err != nil {
		return Invitation{}, common.NewAppError("VALIDATION", "invalid email address", http.StatusBadRequest, err)
	}
	role, ok := parseMemberRole(roleValue)
	if !ok {
		return Invitation{}, common.NewAppError("VALIDATION", "role must be owner or member", http.StatusBadRequest, nil)
	}
	token, hash, err := newInvitationToken()
	if err != nil {
		return Invitation{}, fmt.Errorf("company: invitation token: %w", err)
	}
	ttl := s.InvitationTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	row, err := s.Q.CreateInvitation(ctx, db.CreateInvitationParams{
		CompanyID: member.CompanyID,
		Email:     normalized,
		Role:      role,
		TokenHash: hash,
		ExpiresAt: pgtype.Timestamptz{Time: s.clock().Add(ttl), Valid: true},
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Invitation{}, common.NewAppError("INVITATION_EXISTS", "a pending invitation already exists for this email", http.StatusConflict, err)
		}
		return Invitation{}, fmt.Errorf("company: create invitation: %w", err)
	}
	s.emitInvitation(ctx, row)
	invitation := convertInvitation(row)
	invitation.Token = token
	return invitation, nil
}

// Invitations lists the invitations of the actor's company. Owner only.
func (s *Service) Invitations(ctx context.Context, userID string) ([]Invitation, error) {
	member, err := s.requireOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	rows, err := s.Q.ListInvitationsByCompany(ctx, member.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("company: list invitations: %w", err)
	}
	out := make([]Invitation, 0, len(rows))
	for _, row := range rows {
		out = append(out, convertInvitation(row))
	}
	return out, nil
}

// AcceptInvitation redeems a token and joins the actor to the inviting
// company.
func (s *Service) AcceptInvitation(ctx context.Context, userID, token string) (Company, error) {
	uid, err := parseUUID(userID)
	if err != nil {
		return Company{}, common.NewAppError("UNAUTHORIZED", "invalid user", http.StatusUnauthorized, err)
	}
	if strings.TrimSpace(token) == "" {
		return Company{}, common.NewAppError("VALIDATION", "invitation token is required", http.StatusBadRequest, nil)
	}
	row, err := s.Q.GetInvitationByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, common.NewAppError("INVITATION_INVALID", "invitation not found", http.StatusNotFound, err)
		}
		return Company{}, fmt.Errorf("company: invitation lookup: %w", err)
	}
	if row.Status != db.InvitationStatusPENDING {
		return Company{}, common.NewAppError("INVITATION_INVALID", "invitation is no longer pending", http.StatusConflict, nil)
	}
	if row.ExpiresAt.Valid && s.clock().After(row.ExpiresAt.Time) {
		return Company{}, common.NewAppError("INVITATION_EXPIRED", "invitation has expired", http.StatusGone, nil)
	}
	if _, err := s.Q.AddCompanyMember(ctx, db.AddCompanyMemberParams{
		CompanyID: row.CompanyID,
		UserID:    uid,
		Role:      row.Role,
	}); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Company{}, common.NewAppError("ALREADY_MEMBER", "user already belongs to a company", http.StatusConflict, err)
		}
		return Company{}, fmt.Errorf("company: join: %w", err)
	}
	if err := s.Q.SetInvitationStatus(ctx, db.SetInvitationStatusParams{ID: row.ID, Status: db.InvitationStatusACCEPTED}); err != nil {
		return Company{}, fmt.Errorf("company: mark invitation accepted: %w", err)
	}
	companyRow, err := s.Q.GetCompanyByID(ctx, row.CompanyID)
	if err != nil {
		return Company{}, fmt.Errorf("company: get: %w", err)
	}
	return convertCompany(companyRow), nil
}

// RevokeInvitation invalidates a pending invitation. Owner only.
func (s *Service) RevokeInvitation(ctx context.Context, userID, invitationID string) error {
	member, err := s.requireOwner(ctx, userID)
	if err != nil {
		return err
	}
	id, err := parseUUID(invitationID)
	if err != nil {
		return common.NewAppError("VALIDATION", "invalid invitation id", http.StatusBadRequest, err)
	}
	rows, err := s.Q.ListInvitationsByCompany(ctx, member.CompanyID)
	if err != nil {
		return fmt.Errorf("company: list invitations: %w", err)
	}
	for _, row := range rows {
		if row.ID == id {
			if row.Status != db.InvitationStatusPENDING {
				return common.NewAppError("INVITATION_INVALID", "invitation is no longer pending", http.StatusConflict, nil)
			}
			if err := s.Q.SetInvitationStatus(ctx, db.SetInvitationStatusParams{ID: row.ID, Status: db.InvitationStatusREVOKED}); err != nil {
				return fmt.Errorf("company: revoke invitation: %w", err)
			}
			return nil
		}
	}
	return common.NewAppError("NOT_FOUND", "invitation not found", http.StatusNotFound, nil)
}

func (s *Service) membership(ctx context.Context, userID string) (db.CompanyMember, error) {
	uid, err := parseUUID(userID)
	if err != nil {
		return db.CompanyMember{}, common.NewAppError("UNAUTHORIZED", "invalid user", http.StatusUnauthorized, err)
	}
	member, err := s.Q.GetMembershipByUser(ctx, uid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.CompanyMember{}, common.NewAppError("NO_COMPANY", "user does not belong to a company", http.StatusForbidden, err)
		}
		return db.CompanyMember{}, fmt.Errorf("company: membership: %w", err)
	}
	return member, nil
}

func (s *Service) requireOwner(ctx context.Context, userID string) (db.CompanyMember, error) {
	member, err := s.membership(ctx, userID)
	if err != nil {
		return db.CompanyMember{}, err
	}
	if member.Role != db.MemberRoleOWNER {
		return db.CompanyMember{}, common.NewAppError("FORBIDDEN", "owner role required", http.StatusForbidden, nil)
	}
	return member, nil
}

func (s *Service) emitInvitation(ctx context.Context, row db.CompanyInvitation) {
	if s.Events == nil {
		return
	}
	payload := map[string]any{
		"invitation_id": uuidString(row.ID),
		"company_id":    uuidString(row.CompanyID),
		"email":         row.Email,
	}
	if _, err := s.Events.Emit(ctx, events.TopicInvitationCreated, row.ID, payload); err != nil {
		log.Warn().Err(err).Msg("company: emit invitation event")
	}
}

func newInvitationToken() (token, hash string, err error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(raw)
	return token, hashToken(token), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
