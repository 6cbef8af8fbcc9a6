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
	"github.com/scholarnote/backend/internal/app/models/dto"
	"github.com/scholarnote/backend/internal/db"
	"github.com/scholarnote/backend/internal/pkg/apperrors"
	"github.com/scholarnote/backend/internal/pkg/dberrors"
	"github.com/scholarnote/backend/internal/pkg/helpers"
	"github.com/scholarnote/backend/internal/pkg/logger"
)

// NoteQueryParams holds filtering and pagination parameters for note listings.
// All filters are exact-match; empty values are ignored.
type NoteQueryParams struct {
	College       string
	Branch        string
	Subject       string
	UploaderEmail string
	Page          int
	Size          int
}

// NoteRepository handles database operations for notes and their satellite
// tables (files, ratings, comments, access grants, purchases).
type NoteRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewNoteRepository creates a new NoteRepository.
func NewNoteRepository(db *pgxpool.Pool) *NoteRepository {
	return &NoteRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *NoteRepository) selectNoteQuery() squirrel.SelectBuilder {
	return r.sb.Select(
		"id", "subject", "college", "branch", "class_name", "unit", "description",
		"is_paid", "amount", "uploader_id", "uploader_email",
		"rating", "rating_count", "created_at", "updated_at",
		// Aggregated here so listings carry the count without loading the set
		"(SELECT count(*) FROM note_access WHERE note_access.note_id = notes.id) AS download_count",
	).From("notes")
}

func scanNote(row pgx.Row) (*models.Note, error) {
	var note models.Note
	err := row.Scan(
		&note.ID, &note.Subject, &note.College, &note.Branch, &note.ClassName, &note.Unit, &note.Description,
		&note.IsPaid, &note.Amount, &note.UploaderID, &note.UploaderEmail,
		&note.Rating, &note.RatingCount, &note.CreatedAt, &note.UpdatedAt,
		&note.DownloadCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNoteNotFound
		}
		logger.Error().Err(err).Msg("Error scanning note row")
		return nil, fmt.Errorf("error retrieving note: %w", err)
	}
	return &note, nil
}

// CreateNote inserts a note and its files in one transaction and returns the
// new note ID.
func (r *NoteRepository) CreateNote(ctx context.Context, note *models.Note, files []*models.NoteFile) (int64, error) {
	var noteID int64
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		now := time.Now()
		sql, args, err := r.sb.Insert("notes").
			Columns("subject", "college", "branch", "class_name", "unit", "description",
				"is_paid", "amount", "uploader_id", "uploader_email", "created_at", "updated_at").
			Values(note.Subject, note.College, note.Branch, note.ClassName, note.Unit, note.Description,
				note.IsPaid, note.Amount, note.UploaderID, note.UploaderEmail, now, now).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			logger.Error().Err(err).Msg("Error building create note SQL")
			return fmt.Errorf("failed to build create note query: %w", err)
		}

		if err := tx.QueryRow(ctx, sql, args...).Scan(&noteID); err != nil {
			logger.Error().Err(err).Msg("Error executing create note query")
			return fmt.Errorf("error creating note: %w", err)
		}

		for i, f := range files {
			fileSQL, fileArgs, err := r.sb.Insert("note_files").
				Columns("note_id", "file_url", "file_name", "file_size", "mime_type", "position", "created_at").
				Values(noteID, f.FileURL, f.FileName, f.FileSize, f.MimeType, i, now).
				ToSql()
			if err != nil {
				logger.Error().Err(err).Msg("Error building create note file SQL")
				return fmt.Errorf("failed to build create note file query: %w", err)
			}
			if _, err := tx.Exec(ctx, fileSQL, fileArgs...); err != nil {
				logger.Error().Err(err).Int64("noteID", noteID).Msg("Error executing create note file query")
				return fmt.Errorf("error creating note file: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return noteID, nil
}

// GetNoteByID retrieves a note with its files, comments, per-user ratings and
// downloader grants loaded.
func (r *NoteRepository) GetNoteByID(ctx context.Context, id int64) (*models.Note, error) {
	sql, args, err := r.selectNoteQuery().Where(squirrel.Eq{"id": id}).Limit(1).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get note by ID SQL")
		return nil, fmt.Errorf("failed to build get note query: %w", err)
	}

	note, err := scanNote(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, err
	}

	if note.Files, err = r.GetNoteFiles(ctx, id); err != nil {
		return nil, err
	}
	if note.Comments, err = r.GetComments(ctx, id); err != nil {
		return nil, err
	}
	if note.UserRatings, err = r.getUserRatings(ctx, id); err != nil {
		return nil, err
	}
	if note.DownloaderEmails, err = r.getDownloaderEmails(ctx, id); err != nil {
		return nil, err
	}

	return note, nil
}

// GetAllNotes retrieves a paginated, filtered note listing ordered newest
// first.
func (r *NoteRepository) GetAllNotes(ctx context.Context, params NoteQueryParams) ([]*models.Note, dto.PaginationInfo, error) {
	sqlBuilder := r.selectNoteQuery()
	countBuilder := r.sb.Select("count(*)").From("notes")

	filters := squirrel.Eq{}
	if params.College != "" {
		filters["college"] = params.College
	}
	if params.Branch != "" {
		filters["branch"] = params.Branch
	}
	if params.Subject != "" {
		filters["subject"] = params.Subject
	}
	if params.UploaderEmail != "" {
		filters["uploader_email"] = params.UploaderEmail
	}
	if len(filters) > 0 {
		sqlBuilder = sqlBuilder.Where(filters)
		countBuilder = countBuilder.Where(filters)
	}

	countSQL, countArgs, err := countBuilder.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building note count SQL")
		return nil, dto.PaginationInfo{}, fmt.Errorf("failed to build note count query: %w", err)
	}

	var totalItems int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&totalItems); err != nil {
		logger.Error().Err(err).Msg("Error executing note count query")
		return nil, dto.PaginationInfo{}, fmt.Errorf("error counting notes: %w", err)
	}

	pagination := helpers.NewPaginationInfo(totalItems, params.Page, params.Size)
	if totalItems == 0 {
		return []*models.Note{}, pagination, nil
	}

	offset, limit := helpers.CalculateOffsetLimit(params.Page, params.Size)
	sqlBuilder = sqlBuilder.OrderBy("created_at DESC").Limit(uint64(limit)).Offset(offset)

	sqlStr, args, err := sqlBuilder.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get all notes SQL")
		return nil, dto.PaginationInfo{}, fmt.Errorf("failed to build get all notes query: %w", err)
	}

	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing get all notes query")
		return nil, dto.PaginationInfo{}, fmt.Errorf("error listing notes: %w", err)
	}
	defer rows.Close()

	notes := make([]*models.Note, 0)
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, pagination, err
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating note rows")
		return nil, pagination, fmt.Errorf("database iteration error: %w", err)
	}

	return notes, pagination, nil
}

// GetNoteFiles returns a note's files ordered by position.
func (r *NoteRepository) GetNoteFiles(ctx context.Context, noteID int64) ([]*models.NoteFile, error) {
	sql, args, err := r.sb.Select("id", "note_id", "file_url", "file_name", "file_size", "mime_type", "position", "created_at").
		From("note_files").
		Where(squirrel.Eq{"note_id": noteID}).
		OrderBy("position ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get note files query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("noteID", noteID).Msg("Error querying note files")
		return nil, fmt.Errorf("error retrieving note files: %w", err)
	}
	defer rows.Close()

	files := make([]*models.NoteFile, 0)
	for rows.Next() {
		var f models.NoteFile
		if err := rows.Scan(&f.ID, &f.NoteID, &f.FileURL, &f.FileName, &f.FileSize, &f.MimeType, &f.Position, &f.CreatedAt); err != nil {
			logger.Error().Err(err).Msg("Error scanning note file row")
			return nil, fmt.Errorf("error scanning note file: %w", err)
		}
		files = append(files, &f)
	}
	return files, rows.Err()
}

// SubmitRating writes one user's rating and recomputes the denormalized
// aggregates atomically. The note row is locked for the duration of the
// transaction, so concurrent writes serialize and last-writer-wins applies
// per user. The returned summary reflects the committed aggregates.
func (r *NoteRepository) SubmitRating(ctx context.Context, noteID, userID int64, rating int) (*models.RatingSummary, error) {
	var summary models.RatingSummary
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		// Lock the note row; also doubles as the existence check
		var id int64
		err := tx.QueryRow(ctx, `SELECT id FROM notes WHERE id = $1 FOR UPDATE`, noteID).Scan(&id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.ErrNoteNotFound
			}
			logger.Error().Err(err).Int64("noteID", noteID).Msg("Error locking note row for rating")
			return fmt.Errorf("error locking note: %w", err)
		}

		now := time.Now()
		sql, args, err := r.sb.Insert("note_ratings").
			Columns("note_id", "user_id", "rating", "created_at", "updated_at").
			Values(noteID, userID, rating, now, now).
			Suffix("ON CONFLICT (note_id, user_id) DO UPDATE SET rating = EXCLUDED.rating, updated_at = EXCLUDED.updated_at").
			ToSql()
		if err != nil {
			logger.Error().Err(err).Msg("Error building upsert rating SQL")
			return fmt.Errorf("failed to build upsert rating query: %w", err)
		}

		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			logger.Error().Err(err).Int64("noteID", noteID).Int64("userID", userID).Msg("Error executing upsert rating query")
			return fmt.Errorf("error submitting rating: %w", err)
		}

		// Recompute aggregates from the per-user rows; the full-precision
		// average is stored, rounding happens only at the display boundary
		err = tx.QueryRow(ctx, `
			UPDATE notes SET
				rating       = (SELECT coalesce(avg(rating), 0) FROM note_ratings WHERE note_id = $1),
				rating_count = (SELECT count(*) FROM note_ratings WHERE note_id = $1),
				updated_at   = $2
			WHERE id = $1
			RETURNING rating, rating_count`, noteID, now).Scan(&summary.Average, &summary.Count)
		if err != nil {
			logger.Error().Err(err).Int64("noteID", noteID).Msg("Error recomputing rating aggregates")
			return fmt.Errorf("error recomputing rating aggregates: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &summary, nil
}

// GetUserRating returns the rating a user gave a note, or 0 if none.
func (r *NoteRepository) GetUserRating(ctx context.Context, noteID, userID int64) (int, error) {
	sql, args, err := r.sb.Select("rating").From("note_ratings").
		Where(squirrel.Eq{"note_id": noteID, "user_id": userID}).
		Limit(1).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build get user rating query: %w", err)
	}

	var rating int
	err = r.db.QueryRow(ctx, sql, args...).Scan(&rating)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		logger.Error().Err(err).Int64("noteID", noteID).Int64("userID", userID).Msg("Error scanning user rating")
		return 0, fmt.Errorf("error retrieving user rating: %w", err)
	}
	return rating, nil
}

func (r *NoteRepository) getUserRatings(ctx context.Context, noteID int64) (map[int64]int, error) {
	sql, args, err := r.sb.Select("user_id", "rating").From("note_ratings").
		Where(squirrel.Eq{"note_id": noteID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get note ratings query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("noteID", noteID).Msg("Error querying note ratings")
		return nil, fmt.Errorf("error retrieving note ratings: %w", err)
	}
	defer rows.Close()

	ratings := make(map[int64]int)
	for rows.Next() {
		var userID int64
		var rating int
		if err := rows.Scan(&userID, &rating); err != nil {
			return nil, fmt.Errorf("error scanning note rating: %w", err)
		}
		ratings[userID] = rating
	}
	return ratings, rows.Err()
}

// AddComment appends a comment to a note and returns the stored row.
func (r *NoteRepository) AddComment(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	sql, args, err := r.sb.Insert("note_comments").
		Columns("note_id", "author_email", "body", "created_at").
		Values(comment.NoteID, comment.AuthorEmail, comment.Body, time.Now()).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building add comment SQL")
		return nil, fmt.Errorf("failed to build add comment query: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&comment.ID, &comment.CreatedAt)
	if err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return nil, apperrors.ErrNoteNotFound
		}
		logger.Error().Err(err).Int64("noteID", comment.NoteID).Msg("Error executing add comment query")
		return nil, fmt.Errorf("error adding comment: %w", err)
	}

	return comment, nil
}

// GetComments returns a note's comments oldest first, preserving submission
// order.
func (r *NoteRepository) GetComments(ctx context.Context, noteID int64) ([]*models.Comment, error) {
	sql, args, err := r.sb.Select("id", "note_id", "author_email", "body", "created_at").
		From("note_comments").
		Where(squirrel.Eq{"note_id": noteID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get comments query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("noteID", noteID).Msg("Error querying comments")
		return nil, fmt.Errorf("error retrieving comments: %w", err)
	}
	defer rows.Close()

	comments := make([]*models.Comment, 0)
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.NoteID, &c.AuthorEmail, &c.Body, &c.CreatedAt); err != nil {
			logger.Error().Err(err).Msg("Error scanning comment row")
			return nil, fmt.Errorf("error scanning comment: %w", err)
		}
		comments = append(comments, &c)
	}
	return comments, rows.Err()
}

// GrantAccess adds email to the note's downloader set. Granting twice is a
// no-op, not an error.
func (r *NoteRepository) GrantAccess(ctx context.Context, noteID int64, email string) error {
	sql, args, err := r.sb.Insert("note_access").
		Columns("note_id", "email", "granted_at").
		Values(noteID, email, time.Now()).
		Suffix("ON CONFLICT (note_id, email) DO NOTHING").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building grant access SQL")
		return fmt.Errorf("failed to build grant access query: %w", err)
	}

	_, err = r.db.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.ErrNoteNotFound
		}
		logger.Error().Err(err).Int64("noteID", noteID).Str("email", email).Msg("Error executing grant access query")
		return fmt.Errorf("error granting access: %w", err)
	}
	return nil
}

// HasAccess reports whether email holds a grant on the note.
func (r *NoteRepository) HasAccess(ctx context.Context, noteID int64, email string) (bool, error) {
	sql, args, err := r.sb.Select("1").From("note_access").
		Where(squirrel.Eq{"note_id": noteID, "email": email}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build has access query: %w", err)
	}

	var one int
	err = r.db.QueryRow(ctx, sql, args...).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		logger.Error().Err(err).Int64("noteID", noteID).Msg("Error checking access grant")
		return false, fmt.Errorf("error checking access: %w", err)
	}
	return true, nil
}

func (r *NoteRepository) getDownloaderEmails(ctx context.Context, noteID int64) ([]string, error) {
	sql, args, err := r.sb.Select("email").From("note_access").
		Where(squirrel.Eq{"note_id": noteID}).
		OrderBy("granted_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get downloader emails query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("noteID", noteID).Msg("Error querying downloader emails")
		return nil, fmt.Errorf("error retrieving downloader emails: %w", err)
	}
	defer rows.Close()

	emails := make([]string, 0)
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("error scanning downloader email: %w", err)
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

// RecordPurchase stores the purchase and the access grant it pays for in one
// transaction. The charge has already succeeded by the time this runs, so a
// failure here is logged loudly: money moved but the grant did not land.
func (r *NoteRepository) RecordPurchase(ctx context.Context, purchase *models.Purchase, email string) (int64, error) {
	var id int64
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := r.sb.Insert("purchases").
			Columns("note_id", "user_id", "amount", "charge_id", "created_at").
			Values(purchase.NoteID, purchase.UserID, purchase.Amount, purchase.ChargeID, time.Now()).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			logger.Error().Err(err).Msg("Error building record purchase SQL")
			return fmt.Errorf("failed to build record purchase query: %w", err)
		}

		if err := tx.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
			if dberrors.IsDuplicateConstraintError(err, "purchases_note_user_key") {
				return apperrors.ErrAlreadyPurchased
			}
			logger.Error().Err(err).
				Int64("noteID", purchase.NoteID).
				Int64("userID", purchase.UserID).
				Str("chargeID", purchase.ChargeID).
				Msg("Charge succeeded but purchase record failed")
			return fmt.Errorf("error recording purchase: %w", err)
		}

		grantSQL, grantArgs, err := r.sb.Insert("note_access").
			Columns("note_id", "email", "granted_at").
			Values(purchase.NoteID, email, time.Now()).
			Suffix("ON CONFLICT (note_id, email) DO NOTHING").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build purchase grant query: %w", err)
		}
		if _, err := tx.Exec(ctx, grantSQL, grantArgs...); err != nil {
			logger.Error().Err(err).
				Int64("noteID", purchase.NoteID).
				Str("chargeID", purchase.ChargeID).
				Msg("Charge succeeded but access grant failed")
			return fmt.Errorf("error granting purchased access: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return id, nil
}
