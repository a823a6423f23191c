package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/spontis/backend-spontis/internal/common"
	db "github.com/spontis/backend-spontis/internal/db/gen"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 30 * 24 * time.Hour

	uniqueViolation = "23505"
)

// Service coordinates registration, login and token lifecycle.
type Service struct {
	queries    db.Querier
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	signer     jwa.SignatureAlgorithm
	issuer     string
	audience   string
}

// Config configures the auth service.
type Config struct {
	Queries         db.Querier
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Issuer          string
	Audience        string
}

// User is the safe subset of the user model returned to clients.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginResult bundles token material returned after a successful login.
type LoginResult struct {
	User          User      `json:"user"`
	AccessToken   string    `json:"access_token"`
	RefreshToken  string    `json:"refresh_token"`
	AccessExpiry  time.Time `json:"access_expires_at"`
	RefreshExpiry time.Time `json:"refresh_expires_at"`
}

// RefreshResult represents the outcome of a refresh rotation.
type RefreshResult struct {
	AccessToken   string    `json:"access_token"`
	RefreshToken  string    `json:"refresh_token"`
	AccessExpiry  time.Time `json:"access_expires_at"`
	RefreshExpiry time.Time `json:"refresh_expires_at"`
}

// NewService validates the configuration and constructs a Service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("auth: queries are required")
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}

	s := &Service{
		queries:    cfg.Queries,
		secret:     []byte(secret),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		now:        time.Now,
		signer:     jwa.HS256,
		issuer:     strings.TrimSpace(cfg.Issuer),
		audience:   strings.TrimSpace(cfg.Audience),
	}
	if s.accessTTL <= 0 {
		s.accessTTL = defaultAccessTTL
	}
	if s.refreshTTL <= 0 {
		s.refreshTTL = defaultRefreshTTL
	}
	if s.issuer == "" {
		s.issuer = "backend-spontis"
	}
	if s.audience == "" {
		s.audience = "spontis-frontend"
	}
	return s, nil
}

// WithNow allows tests to override the time provider.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func badCredentials() error {
	return common.NewAppError("INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized, nil)
}

func badRefreshToken() error {
	return common.NewAppError("UNAUTHORIZED", "invalid refresh token", http.StatusUnauthorized, nil)
}

// Register creates a new user with the supplied credentials.
func (s *Service) Register(ctx context.Context, name, email, password string) (User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))
	switch {
	case name == "":
		return User{}, common.NewAppError("VALIDATION_ERROR", "name is required", http.StatusBadRequest, nil)
	case email == "":
		return User{}, common.NewAppError("VALIDATION_ERROR", "email is required", http.StatusBadRequest, nil)
	case len(password) < 8:
		return User{}, common.NewAppError("VALIDATION_ERROR", "password must be at least 8 characters", http.StatusBadRequest, nil)
	}

	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.queries.CreateUser(ctx, db.CreateUserParams{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return User{}, common.NewAppError("EMAIL_ALREADY_USED", "email is already registered", http.StatusConflict, err)
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return convertUser(created), nil
}

// Login verifies credentials and issues a new token pair. Lookup and password
// failures return the same error so the endpoint does not leak which emails
// exist.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return LoginResult{}, badCredentials()
	}
	dbUser, err := s.queries.GetUserByEmail(ctx, email)
	if err != nil {
		return LoginResult{}, badCredentials()
	}
	if ok, err := argon2id.ComparePasswordAndHash(password, dbUser.PasswordHash); err != nil || !ok {
		return LoginResult{}, badCredentials()
	}

	subject := uuidString(dbUser.ID)
	if subject == "" {
		return LoginResult{}, errors.New("auth: invalid user identifier")
	}
	accessToken, accessExpiry, err := s.signAccessToken(subject)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign access token: %w", err)
	}
	refreshToken, refreshExpiry, err := s.issueRefreshToken(ctx, dbUser.ID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue refresh token: %w", err)
	}
	return LoginResult{
		User:          convertUser(dbUser),
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		AccessExpiry:  accessExpiry,
		RefreshExpiry: refreshExpiry,
	}, nil
}

// Refresh rotates a refresh token and issues a fresh access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (RefreshResult, error) {
	token := strings.TrimSpace(refreshToken)
	if token == "" {
		return RefreshResult{}, badRefreshToken()
	}
	hashed := hashRefreshToken(token)
	stored, err := s.queries.GetRefreshTokenByHash(ctx, hashed)
	if err != nil {
		return RefreshResult{}, badRefreshToken()
	}
	if stored.RevokedAt.Valid {
		// Reuse of a rotated token means the chain leaked; kill every session.
		_ = s.queries.RevokeRefreshTokensForUser(ctx, stored.UserID)
		return RefreshResult{}, badRefreshToken()
	}
	if !stored.ExpiresAt.Valid || s.now().After(stored.ExpiresAt.Time) {
		_ = s.queries.RevokeRefreshToken(ctx, hashed)
		return RefreshResult{}, badRefreshToken()
	}
	subject := uuidString(stored.UserID)
	if subject == "" {
		return RefreshResult{}, badRefreshToken()
	}

	accessToken, accessExpiry, err := s.signAccessToken(subject)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("sign access token: %w", err)
	}
	if err := s.queries.RevokeRefreshToken(ctx, hashed); err != nil {
		return RefreshResult{}, fmt.Errorf("revoke refresh token: %w", err)
	}
	newToken, refreshExpiry, err := s.issueRefreshToken(ctx, stored.UserID)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("issue refresh token: %w", err)
	}
	return RefreshResult{
		AccessToken:   accessToken,
		RefreshToken:  newToken,
		AccessExpiry:  accessExpiry,
		RefreshExpiry: refreshExpiry,
	}, nil
}

// Logout revokes the refresh token. A blank token is a no-op so logout stays
// idempotent.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	token := strings.TrimSpace(refreshToken)
	if token == "" {
		return nil
	}
	return s.queries.RevokeRefreshToken(ctx, hashRefreshToken(token))
}

// CurrentUser loads the user record for the given identifier.
func (s *Service) CurrentUser(ctx context.Context, userID string) (User, error) {
	id, err := parseUUID(userID)
	if err != nil {
		return User{}, common.NewAppError("UNAUTHORIZED", "invalid user", http.StatusUnauthorized, err)
	}
	dbUser, err := s.queries.GetUserByID(ctx, id)
	if err != nil {
		return User{}, common.NewAppError("UNAUTHORIZED", "unknown user", http.StatusUnauthorized, err)
	}
	return convertUser(dbUser), nil
}

// IsAdmin reports whether the given user has the admin flag.
func (s *Service) IsAdmin(ctx context.Context, userID string) bool {
	user, err := s.CurrentUser(ctx, userID)
	return err == nil && user.IsAdmin
}

// ParseAccessToken validates an access token and returns the subject (user ID).
// The algorithm is checked against the configured signer before verification
// so downgraded or none-alg tokens are rejected outright.
func (s *Service) ParseAccessToken(token string) (string, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return "", common.NewAppError("UNAUTHORIZED", "missing token", http.StatusUnauthorized, nil)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	if algorithm != s.signer {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed,
		jwt.WithKey(algorithm, s.secret),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithClock(jwt.ClockFunc(s.now)),
	)
	if err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	return parsed.Subject(), nil
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) == 0 {
		return "", errors.New("auth: token contains no signatures")
	}

	var algorithm jwa.SignatureAlgorithm
	for _, sig := range signatures {
		headers := sig.ProtectedHeaders()
		if headers == nil {
			return "", errors.New("auth: token missing protected headers")
		}
		alg := headers.Algorithm()
		switch {
		case alg == "":
			return "", errors.New("auth: token missing algorithm")
		case alg == jwa.NoSignature:
			return "", errors.New("auth: token uses none algorithm")
		case algorithm == "":
			algorithm = alg
		case algorithm != alg:
			return "", errors.New("auth: mixed token algorithms detected")
		}
	}
	return algorithm, nil
}

func (s *Service) signAccessToken(subject string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)
	token, err := jwt.NewBuilder().
		Subject(subject).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		Expiration(expiresAt).
		Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}

func (s *Service) issueRefreshToken(ctx context.Context, userID pgtype.UUID) (string, time.Time, error) {
	if !userID.Valid {
		return "", time.Time{}, errors.New("auth: invalid user identifier")
	}
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", time.Time{}, err
	}
	token := base64.RawURLEncoding.EncodeToString(raw)
	expiresAt := s.now().Add(s.refreshTTL)

	_, err := s.queries.InsertRefreshToken(ctx, db.InsertRefreshTokenParams{
		UserID:    userID,
		TokenHash: hashRefreshToken(token),
		ExpiresAt: pgTimestamp(expiresAt),
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Only the hash of a refresh token is ever persisted.
func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func convertUser(u db.User) User {
	return User{
		ID:        uuidString(u.ID),
		Name:      u.Name,
		Email:     u.Email,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt.Time,
	}
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

func pgTimestamp(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
