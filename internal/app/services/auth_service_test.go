package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarnote/backend/internal/app/models"
	"github.com/scholarnote/backend/internal/app/models/dto"
	"github.com/scholarnote/backend/internal/pkg/apperrors"
	"github.com/scholarnote/backend/internal/pkg/auth"
)

type fakeUserStore struct {
	users     map[int64]*models.User
	nextID    int64
	uploads   map[int64]int
	purchases map[int64]int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:     make(map[int64]*models.User),
		nextID:    1,
		uploads:   make(map[int64]int),
		purchases: make(map[int64]int),
	}
}

func (s *fakeUserStore) CreateUser(_ context.Context, user *models.User) (int64, error) {
	for _, u := range s.users {
		if u.Email == user.Email {
			return 0, apperrors.ErrEmailAlreadyExists
		}
	}
	user.ID = s.nextID
	user.IsActive = true
	s.nextID++
	s.users[user.ID] = user
	return user.ID, nil
}

func (s *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (s *fakeUserStore) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return u, nil
}

func (s *fakeUserStore) UpdateLastLogin(_ context.Context, userID int64) error {
	now := time.Now()
	if u, ok := s.users[userID]; ok {
		u.LastLoginAt = &now
	}
	return nil
}

func (s *fakeUserStore) CountUploads(_ context.Context, userID int64) (int, error) {
	return s.uploads[userID], nil
}

func (s *fakeUserStore) CountPurchases(_ context.Context, userID int64) (int, error) {
	return s.purchases[userID], nil
}

type fakeTokenStore struct {
	tokens  map[string]int64
	revoked map[string]bool
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: make(map[string]int64), revoked: make(map[string]bool)}
}

func (s *fakeTokenStore) CreateToken(_ context.Context, token string, userID int64, _ time.Time) error {
	s.tokens[token] = userID
	return nil
}

func (s *fakeTokenStore) GetTokenUser(_ context.Context, token string) (int64, error) {
	userID, ok := s.tokens[token]
	if !ok {
		return 0, apperrors.ErrTokenNotFound
	}
	if s.revoked[token] {
		return userID, apperrors.ErrTokenRevoked
	}
	return userID, nil
}

func (s *fakeTokenStore) RevokeToken(_ context.Context, token string) error {
	if _, ok := s.tokens[token]; !ok {
		return apperrors.ErrTokenNotFound
	}
	s.revoked[token] = true
	return nil
}

func (s *fakeTokenStore) RevokeAllUserTokens(_ context.Context, userID int64) error {
	for token, owner := range s.tokens {
		if owner == userID {
			s.revoked[token] = true
		}
	}
	return nil
}

func newTestAuthService() (AuthService, *fakeUserStore, *fakeTokenStore) {
	users := newFakeUserStore()
	tokens := newFakeTokenStore()
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "test",
	})
	return NewAuthService(users, tokens, jwtService), users, tokens
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	resp, err := svc.Register(ctx, &dto.RegisterRequest{
		Email:       "student@example.com",
		Password:    "secret123",
		DisplayName: "Priya Sharma",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)

	login, err := svc.Login(ctx, &dto.LoginRequest{Email: "student@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, login.AccessToken)
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, &dto.RegisterRequest{
		Email:       "not-an-email",
		Password:    "secret123",
		DisplayName: "Priya",
	})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.Register(ctx, &dto.RegisterRequest{
		Email:       "student@example.com",
		Password:    "short",
		DisplayName: "Priya",
	})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	req := &dto.RegisterRequest{Email: "student@example.com", Password: "secret123", DisplayName: "Priya"}
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	_, err = svc.Register(ctx, req)
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, &dto.RegisterRequest{
		Email: "student@example.com", Password: "secret123", DisplayName: "Priya",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "student@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	// Unknown email answers the same way as a wrong password
	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestRefreshTokenRotation(t *testing.T) {
	svc, _, tokens := newTestAuthService()
	ctx := context.Background()

	reg, err := svc.Register(ctx, &dto.RegisterRequest{
		Email: "student@example.com", Password: "secret123", DisplayName: "Priya",
	})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(ctx, &dto.RefreshTokenRequest{RefreshToken: reg.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, reg.RefreshToken, refreshed.RefreshToken)

	// The old token must be dead after rotation
	_, err = svc.RefreshToken(ctx, &dto.RefreshTokenRequest{RefreshToken: reg.RefreshToken})
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	assert.True(t, tokens.revoked[reg.RefreshToken])
}

func TestRefreshTokenReuseRevokesAllSessions(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	reg, err := svc.Register(ctx, &dto.RegisterRequest{
		Email: "student@example.com", Password: "secret123", DisplayName: "Priya",
	})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(ctx, &dto.RefreshTokenRequest{RefreshToken: reg.RefreshToken})
	require.NoError(t, err)

	// Replaying the rotated token reads as a stolen session; every token the
	// user holds must die, not just the replayed one
	_, err = svc.RefreshToken(ctx, &dto.RefreshTokenRequest{RefreshToken: reg.RefreshToken})
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	_, err = svc.RefreshToken(ctx, &dto.RefreshTokenRequest{RefreshToken: refreshed.RefreshToken})
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)
}

func TestGetProfile(t *testing.T) {
	svc, users, _ := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, &dto.RegisterRequest{
		Email: "student@example.com", Password: "secret123", DisplayName: "Priya Sharma",
	})
	require.NoError(t, err)

	users.uploads[1] = 4
	users.purchases[1] = 2

	profile, err := svc.GetProfile(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "student@example.com", profile.Email)
	assert.Equal(t, "Priya Sharma", profile.DisplayName)
	assert.Equal(t, 4, profile.UploadCount)
	assert.Equal(t, 2, profile.PurchaseCount)
}
