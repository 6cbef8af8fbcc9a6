package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scholarnote/backend/internal/pkg/apperrors"
	"github.com/scholarnote/backend/internal/pkg/dberrors"
	"github.com/scholarnote/backend/internal/pkg/logger"
)

// TokenRepository handles refresh token database operations
type TokenRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewTokenRepository creates a new TokenRepository
func NewTokenRepository(db *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateToken creates a new refresh token
func (r *TokenRepository) CreateToken(ctx context.Context, token string, userID int64, expiryDate time.Time) error {
	sql, args, err := r.sb.Insert("refresh_tokens").
		Columns("token", "user_id", "expiry_date", "is_revoked", "created_at").
		Values(token, userID, expiryDate, false, time.Now()).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create token SQL")
		return fmt.Errorf("failed to build create token query: %w", err)
	}

	_, err = r.db.Exec(ctx, sql, args...)
	if err != nil {
		// Tokens are random UUIDs, so a collision means something is off
		if dberrors.IsDuplicateConstraintError(err, "refresh_tokens_token_key") {
			logger.Warn().Int64("userID", userID).Msg("Attempted to create duplicate refresh token")
			return apperrors.ErrTokenInvalid
		}
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing create token query")
		return fmt.Errorf("error creating token: %w", err)
	}

	return nil
}

// GetTokenUser validates a refresh token and returns the owning user ID.
// Revoked and expired tokens are rejected with the matching sentinel error;
// for a revoked token the owner's ID is still returned so callers can treat
// the reuse as a compromised session.
func (r *TokenRepository) GetTokenUser(ctx context.Context, token string) (int64, error) {
	var userID int64
	var expiryDate time.Time
	var isRevoked bool

	sql, args, err := r.sb.Select("user_id", "expiry_date", "is_revoked").
		From("refresh_tokens").
		Where(squirrel.Eq{"token": token}).
		Limit(1).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get token SQL")
		return 0, fmt.Errorf("failed to build get token query: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&userID, &expiryDate, &isRevoked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrTokenNotFound
		}
		logger.Error().Err(err).Msg("Error scanning token row")
		return 0, fmt.Errorf("error retrieving token: %w", err)
	}

	if isRevoked {
		return userID, apperrors.ErrTokenRevoked
	}
	if expiryDate.Before(time.Now()) {
		return 0, apperrors.ErrTokenExpired
	}

	return userID, nil
}

// RevokeToken revokes a single refresh token.
func (r *TokenRepository) RevokeToken(ctx context.Context, token string) error {
	sql, args, err := r.sb.Update("refresh_tokens").
		Set("is_revoked", true).
		Where(squirrel.Eq{"token": token}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building revoke token SQL")
		return fmt.Errorf("failed to build revoke token query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing revoke token query")
		return fmt.Errorf("error revoking token: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrTokenNotFound
	}

	return nil
}

// RevokeAllUserTokens revokes all active tokens for a specific user
func (r *TokenRepository) RevokeAllUserTokens(ctx context.Context, userID int64) error {
	sql, args, err := r.sb.Update("refresh_tokens").
		Set("is_revoked", true).
		Where(squirrel.Eq{"user_id": userID, "is_revoked": false}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error building revoke all user tokens SQL")
		return fmt.Errorf("failed to build revoke all user tokens query: %w", err)
	}

	_, err = r.db.Exec(ctx, sql, args...)
	if err != nil {
		// It's fine if the user had no active tokens
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing revoke all user tokens query")
		return fmt.Errorf("error revoking user tokens: %w", err)
	}

	return nil
}

// CleanupExpiredTokens removes expired and long-revoked tokens.
func (r *TokenRepository) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	thirtyDaysAgo := time.Now().Add(-30 * 24 * time.Hour)
	now := time.Now()

	sql, args, err := r.sb.Delete("refresh_tokens").
		Where(squirrel.Or{
			squirrel.Lt{"expiry_date": now},
			squirrel.And{
				squirrel.Eq{"is_revoked": true},
				squirrel.Lt{"created_at": thirtyDaysAgo},
			},
		}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building cleanup tokens SQL")
		return 0, fmt.Errorf("failed to build cleanup tokens query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing cleanup tokens query")
		return 0, fmt.Errorf("error cleaning up tokens: %w", err)
	}

	deletedCount := cmdTag.RowsAffected()
	logger.Info().Int64("deletedCount", deletedCount).Msg("Cleaned up expired/old revoked tokens")

	return deletedCount, nil
}
