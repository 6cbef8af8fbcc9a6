package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/scholarnote/backend/internal/app/models"
	"github.com/scholarnote/backend/internal/app/models/dto"
	"github.com/scholarnote/backend/internal/pkg/apperrors"
	"github.com/scholarnote/backend/internal/pkg/auth"
	"github.com/scholarnote/backend/internal/pkg/logger"
	"github.com/scholarnote/backend/internal/pkg/validation"
)

// UserStore is the persistence surface the auth service needs.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) (int64, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateLastLogin(ctx context.Context, userID int64) error
	CountUploads(ctx context.Context, userID int64) (int, error)
	CountPurchases(ctx context.Context, userID int64) (int, error)
}

// TokenStore tracks opaque refresh tokens.
type TokenStore interface {
	CreateToken(ctx context.Context, token string, userID int64, expiryDate time.Time) error
	GetTokenUser(ctx context.Context, token string) (int64, error)
	RevokeToken(ctx context.Context, token string) error
	RevokeAllUserTokens(ctx context.Context, userID int64) error
}

// AuthService defines the authentication operations exposed to controllers.
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error)
	GetProfile(ctx context.Context, userID int64) (*dto.UserProfileResponse, error)
}

// authServiceImpl implements AuthService
type authServiceImpl struct {
	users      UserStore
	tokens     TokenStore
	jwtService *auth.JWTService
}

// NewAuthService creates a new AuthService
func NewAuthService(users UserStore, tokens TokenStore, jwtService *auth.JWTService) AuthService {
	return &authServiceImpl{
		users:      users,
		tokens:     tokens,
		jwtService: jwtService,
	}
}

// Register creates an account and signs the new user in.
func (s *authServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error) {
	if err := validateRegistration(req); err != nil {
		return nil, err
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Email:       req.Email,
		Password:    hashed,
		DisplayName: req.DisplayName,
	}

	id, err := s.users.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}
	user.ID = id

	logger.Info().Int64("userID", id).Str("email", user.Email).Msg("User registered")

	return s.issueTokens(ctx, user)
}

// Login verifies credentials and issues a token pair.
func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			// Same error as a wrong password; don't leak which emails exist
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		// Non-fatal; the login itself succeeded
		logger.Warn().Err(err).Int64("userID", user.ID).Msg("Failed to update last login")
	}

	return s.issueTokens(ctx, user)
}

// RefreshToken rotates a refresh token: the old one is revoked and a new pair
// is issued. Presenting an already-revoked token means a rotated token was
// reused, so the owner's whole session family is revoked.
func (s *authServiceImpl) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	userID, err := s.tokens.GetTokenUser(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrTokenRevoked) && userID != 0 {
			logger.Warn().Int64("userID", userID).Msg("Revoked refresh token reused, revoking all sessions")
			if revokeErr := s.tokens.RevokeAllUserTokens(ctx, userID); revokeErr != nil {
				logger.Error().Err(revokeErr).Int64("userID", userID).Msg("Failed to revoke user sessions after token reuse")
			}
		}
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	if err := s.tokens.RevokeToken(ctx, req.RefreshToken); err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

// GetProfile returns the authenticated user's profile with activity counts.
func (s *authServiceImpl) GetProfile(ctx context.Context, userID int64) (*dto.UserProfileResponse, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	uploads, err := s.users.CountUploads(ctx, userID)
	if err != nil {
		return nil, err
	}
	purchases, err := s.users.CountPurchases(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &dto.UserProfileResponse{
		ID:            user.ID,
		Email:         user.Email,
		DisplayName:   user.DisplayName,
		PhotoURL:      user.PhotoURL,
		UploadCount:   uploads,
		PurchaseCount: purchases,
	}, nil
}

// validateRegistration re-checks the request at the service boundary so the
// rules hold even for callers that bypass the HTTP binding layer.
func validateRegistration(req *dto.RegisterRequest) error {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !validation.NewStringValidation(email).
		WithPattern(validation.CompiledPatterns.Email).
		Validate() {
		return apperrors.NewValidationError("email address is not valid")
	}
	req.Email = email

	if !validation.NewStringValidation(req.Password).
		WithMinLength(validation.PasswordMinLength).
		Validate() {
		return apperrors.NewValidationError(fmt.Sprintf("password must be at least %d characters", validation.PasswordMinLength))
	}

	if !validation.NewStringValidation(strings.TrimSpace(req.DisplayName)).
		WithMinLength(validation.NameMinLength).
		WithMaxLength(validation.NameMaxLength).
		Validate() {
		return apperrors.NewValidationError("display name length is out of range")
	}

	return nil
}

func (s *authServiceImpl) issueTokens(ctx context.Context, user *models.User) (*dto.TokenResponse, error) {
	accessToken, refreshToken, expiresIn, refreshExpiresIn, err := s.jwtService.GenerateTokenPair(user)
	if err != nil {
		return nil, fmt.Errorf("error generating token pair: %w", err)
	}

	if err := s.tokens.CreateToken(ctx, refreshToken, user.ID, s.jwtService.GetRefreshTokenExpiry()); err != nil {
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		ExpiresIn:        expiresIn,
		RefreshExpiresIn: refreshExpiresIn,
		TokenType:        "Bearer",
	}, nil
}
