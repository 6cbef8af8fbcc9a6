package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scholarnote/backend/internal/app/models"
	"github.com/scholarnote/backend/internal/pkg/apperrors"
	"github.com/scholarnote/backend/internal/pkg/dberrors"
	"github.com/scholarnote/backend/internal/pkg/logger"
)

// UserRepository handles user database operations
type UserRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateUser inserts a new user and returns its ID.
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) (int64, error) {
	now := time.Now()
	sql, args, err := r.sb.Insert("users").
		Columns("email", "password", "display_name", "photo_url", "is_active", "created_at", "updated_at").
		Values(user.Email, user.Password, user.DisplayName, user.PhotoURL, true, now, now).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create user SQL")
		return 0, fmt.Errorf("failed to build create user query: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, sql, args...).Scan(&id)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "users_email_key") {
			return 0, apperrors.ErrEmailAlreadyExists
		}
		logger.Error().Err(err).Str("email", user.Email).Msg("Error executing create user query")
		return 0, fmt.Errorf("error creating user: %w", err)
	}

	return id, nil
}

func (r *UserRepository) selectUserQuery() squirrel.SelectBuilder {
	return r.sb.Select(
		"id", "email", "password", "display_name", "photo_url",
		"is_active", "created_at", "updated_at", "last_login_at",
	).From("users")
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Email, &user.Password, &user.DisplayName, &user.PhotoURL,
		&user.IsActive, &user.CreatedAt, &user.UpdatedAt, &user.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Msg("Error scanning user row")
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	sql, args, err := r.selectUserQuery().Where(squirrel.Eq{"email": email}).Limit(1).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get user by email SQL")
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}
	return scanUser(r.db.QueryRow(ctx, sql, args...))
}

// GetUserByID retrieves a user by ID.
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	sql, args, err := r.selectUserQuery().Where(squirrel.Eq{"id": id}).Limit(1).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get user by ID SQL")
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}
	return scanUser(r.db.QueryRow(ctx, sql, args...))
}

// UpdateLastLogin stamps the user's last login time.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID int64) error {
	sql, args, err := r.sb.Update("users").
		Set("last_login_at", time.Now()).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update last login SQL")
		return fmt.Errorf("failed to build update last login query: %w", err)
	}

	_, err = r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing update last login query")
		return fmt.Errorf("error updating last login: %w", err)
	}
	return nil
}

// CountUploads returns the number of notes a user has uploaded.
func (r *UserRepository) CountUploads(ctx context.Context, userID int64) (int, error) {
	sql, args, err := r.sb.Select("count(*)").From("notes").
		Where(squirrel.Eq{"uploader_id": userID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count uploads query: %w", err)
	}

	var count int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error counting uploads")
		return 0, fmt.Errorf("error counting uploads: %w", err)
	}
	return count, nil
}

// CountPurchases returns the number of purchases a user has made.
func (r *UserRepository) CountPurchases(ctx context.Context, userID int64) (int, error) {
	sql, args, err := r.sb.Select("count(*)").From("purchases").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count purchases query: %w", err)
	}

	var count int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error counting purchases")
		return 0, fmt.Errorf("error counting purchases: %w", err)
	}
	return count, nil
}
