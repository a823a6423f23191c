package company

import (
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	db "github.com/spontis/backend-spontis/internal/db/gen"
)

// Company is the API-facing representation of a company.
type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Ide       string    `json:"ide,omitempty"`
	LogoKey   string    `json:"logo_key,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Member is one company member with the joined user identity.
type Member struct {
	UserID   string    `json:"user_id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// Invitation is a pending, accepted or revoked company invitation. The plain
// token is only returned once, at creation.
type Invitation struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func convertCompany(row db.Company) Company {
	return Company{
		ID:        uuidString(row.ID),
		Name:      row.Name,
		Role:      strings.ToLower(string(row.Role)),
		Ide:       row.Ide.String,
		LogoKey:   row.LogoKey.String,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}

func convertMember(row db.ListCompanyMembersRow) Member {
	return Member{
		UserID:   uuidString(row.UserID),
		Name:     row.Name,
		Email:    row.Email,
		Role:     strings.ToLower(string(row.Role)),
		JoinedAt: row.CreatedAt.Time,
	}
}

func convertInvitation(row db.CompanyInvitation) Invitation {
	return Invitation{
		ID:        uuidString(row.ID),
		Email:     row.Email,
		Role:      strings.ToLower(string(row.Role)),
		Status:    strings.ToLower(string(row.Status)),
		ExpiresAt: row.ExpiresAt.Time,
		CreatedAt: row.CreatedAt.Time,
	}
}

func parseCompanyRole(value string) (db.CompanyRole, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "expediteur":
		return db.CompanyRoleEXPEDITEUR, true
	case "transporteur":
		return db.CompanyRoleTRANSPORTEUR, true
	}
	return "", false
}

func parseMemberRole(value string) (db.MemberRole, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "owner":
		return db.MemberRoleOWNER, true
	case "member", "":
		return db.MemberRoleMEMBER, true
	}
	return "", false
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
