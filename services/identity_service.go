package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/princinho/moviecatalog/database"
	"github.com/princinho/moviecatalog/logging"
	"github.com/princinho/moviecatalog/models"
	"github.com/princinho/moviecatalog/utils"
)

type TokenIssuer interface {
	GenerateAccessToken(userID, username string) (string, error)
	GenerateRefreshToken(userID, username string) (string, time.Time, error)
	ValidateRefreshToken(token string) (*utils.Claims, error)
}

// IdentityService registers users and issues their tokens.
type IdentityService struct {
	users      UserStore
	tokens     RefreshTokenStore
	issuer     TokenIssuer
	bcryptCost int
	now        func() time.Time
	newID      func() string
}

func NewIdentityService(users UserStore, tokens RefreshTokenStore, issuer TokenIssuer, bcryptCost int) *IdentityService {
	return &IdentityService{
		users:      users,
		tokens:     tokens,
		issuer:     issuer,
		bcryptCost: bcryptCost,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
}

type RegisterInput struct {
	Name     string
	Username string
	Email    string
	Password string
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" || in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: name, username, email and password are required", ErrValidation)
	}

	exists, err := s.users.Exists(ctx, in.Username, in.Email)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	u := &models.User{
		ID:           s.newID(),
		Name:         in.Name,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Insert(ctx, u); err != nil {
		if database.IsDuplicateKey(err) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	logging.Ctx(ctx).Info().Str("user_id", u.ID).Msg("user registered")
	return u, nil
}

// Login accepts a username or an email in login.
func (s *IdentityService) Login(ctx context.Context, login, password string) (*TokenPair, error) {
	u, err := s.users.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := utils.CheckPassword(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	access, err := s.issuer.GenerateAccessToken(u.ID, u.Username)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, exp, err := s.issuer.GenerateRefreshToken(u.ID, u.Username)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	if err := s.tokens.Insert(ctx, &models.RefreshToken{
		ID:        s.newID(),
		UserID:    u.ID,
		TokenHash: utils.HashToken(refresh),
		ExpiresAt: exp.UTC(),
		CreatedAt: s.now(),
	}); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh issues a new access token for a stored, valid refresh token.
// The refresh token itself is not rotated.
func (s *IdentityService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.issuer.ValidateRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrInvalidToken
	}

	stored, err := s.tokens.FindByHash(ctx, utils.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return "", ErrUnknownRefresh
		}
		return "", fmt.Errorf("find refresh token: %w", err)
	}
	if stored.UserID != claims.UserID {
		return "", ErrUnknownRefresh
	}

	u, err := s.users.FindByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("find user: %w", err)
	}

	access, err := s.issuer.GenerateAccessToken(u.ID, u.Username)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return access, nil
}

// Logout forgets the given refresh token. Unknown tokens are not an error.
func (s *IdentityService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.tokens.DeleteByHash(ctx, utils.HashToken(refreshToken))
}

// LogoutAll revokes every refresh token of a user.
func (s *IdentityService) LogoutAll(ctx context.Context, userID string) error {
	return s.tokens.DeleteByUser(ctx, userID)
}

// LookupUser returns the user behind an authenticated request.
func (s *IdentityService) LookupUser(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}
