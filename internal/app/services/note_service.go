package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/scholarnote/backend/internal/app/models"
	"github.com/scholarnote/backend/internal/app/models/dto"
	"github.com/scholarnote/backend/internal/app/repositories"
	"github.com/scholarnote/backend/internal/pkg/apperrors"
	"github.com/scholarnote/backend/internal/pkg/filestorage"
	"github.com/scholarnote/backend/internal/pkg/helpers"
	"github.com/scholarnote/backend/internal/pkg/logger"
	"github.com/scholarnote/backend/internal/pkg/validation"
)

// NoteStore is the persistence surface the note service needs. It is
// implemented by repositories.NoteRepository; tests substitute an in-memory
// fake.
type NoteStore interface {
	CreateNote(ctx context.Context, note *models.Note, files []*models.NoteFile) (int64, error)
	GetNoteByID(ctx context.Context, id int64) (*models.Note, error)
	GetAllNotes(ctx context.Context, params repositories.NoteQueryParams) ([]*models.Note, dto.PaginationInfo, error)
	SubmitRating(ctx context.Context, noteID, userID int64, rating int) (*models.RatingSummary, error)
	GetUserRating(ctx context.Context, noteID, userID int64) (int, error)
	AddComment(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	GrantAccess(ctx context.Context, noteID int64, email string) error
	HasAccess(ctx context.Context, noteID int64, email string) (bool, error)
}

// NoteService defines the note operations exposed to controllers.
type NoteService interface {
	CreateNote(ctx context.Context, actor *models.Actor, req *dto.CreateNoteRequest, files []*multipart.FileHeader) (*dto.NoteDetailResponse, error)
	GetNotes(ctx context.Context, filter *dto.NoteFilterRequest) (*dto.NoteListResponse, error)
	GetNoteByID(ctx context.Context, actor *models.Actor, id int64) (*dto.NoteDetailResponse, error)
	SubmitRating(ctx context.Context, actor *models.Actor, noteID int64, rating int) (*dto.RatingResponse, error)
	AddComment(ctx context.Context, actor *models.Actor, noteID int64, comment string) (*dto.CommentResponse, error)
	ResolveAccess(ctx context.Context, actor *models.Actor, noteID int64) (*dto.PDFAccessResponse, error)
}

// noteServiceImpl implements NoteService
type noteServiceImpl struct {
	store   NoteStore
	storage filestorage.FileStorage
}

// NewNoteService creates a new NoteService
func NewNoteService(store NoteStore, storage filestorage.FileStorage) NoteService {
	return &noteServiceImpl{
		store:   store,
		storage: storage,
	}
}

// CreateNote stores the uploaded PDFs and inserts the note with its metadata.
func (s *noteServiceImpl) CreateNote(ctx context.Context, actor *models.Actor, req *dto.CreateNoteRequest, files []*multipart.FileHeader) (*dto.NoteDetailResponse, error) {
	if actor == nil {
		return nil, apperrors.ErrNotAuthenticated
	}
	if len(files) == 0 {
		return nil, apperrors.NewValidationError("at least one PDF file is required")
	}
	if req.IsPaid && req.Amount <= 0 {
		return nil, apperrors.NewValidationError("paid notes must carry a positive amount")
	}
	if !validation.NewStringValidation(strings.TrimSpace(req.Subject)).
		WithMinLength(validation.SubjectMinLength).
		WithMaxLength(validation.SubjectMaxLength).
		Validate() {
		return nil, apperrors.NewValidationError("subject length is out of range")
	}
	if !validation.NewStringValidation(strings.TrimSpace(req.Description)).
		WithMinLength(validation.DescriptionMinLength).
		Validate() {
		return nil, apperrors.NewValidationError("description is too short")
	}
	if !req.IsPaid {
		req.Amount = 0
	}

	noteFiles := make([]*models.NoteFile, 0, len(files))
	savedPaths := make([]string, 0, len(files))
	for _, fh := range files {
		if !filestorage.IsPDF(fh) {
			s.cleanupFiles(savedPaths)
			return nil, apperrors.NewValidationError(fmt.Sprintf("file %q is not a PDF", fh.Filename))
		}
		path, err := s.storage.SaveFileWithPath(fh, "pdfs")
		if err != nil {
			s.cleanupFiles(savedPaths)
			return nil, fmt.Errorf("error storing note file: %w", err)
		}
		savedPaths = append(savedPaths, path)
		noteFiles = append(noteFiles, &models.NoteFile{
			FileURL:  path,
			FileName: fh.Filename,
			FileSize: fh.Size,
			MimeType: filestorage.PDFMimeType,
		})
	}

	note := &models.Note{
		Subject:       req.Subject,
		College:       req.College,
		Branch:        req.Branch,
		ClassName:     req.ClassName,
		Unit:          req.Unit,
		Description:   req.Description,
		IsPaid:        req.IsPaid,
		Amount:        req.Amount,
		UploaderID:    actor.ID,
		UploaderEmail: actor.Email,
	}

	id, err := s.store.CreateNote(ctx, note, noteFiles)
	if err != nil {
		s.cleanupFiles(savedPaths)
		return nil, fmt.Errorf("error creating note: %w", err)
	}

	logger.Info().Int64("noteID", id).Str("uploader", actor.Email).Bool("isPaid", note.IsPaid).Msg("Note created")

	return s.GetNoteByID(ctx, actor, id)
}

func (s *noteServiceImpl) cleanupFiles(paths []string) {
	for _, p := range paths {
		if err := s.storage.DeleteFile(p); err != nil {
			logger.Warn().Err(err).Str("path", p).Msg("Failed to clean up stored file after aborted upload")
		}
	}
}

// GetNotes retrieves the filtered, paginated note listing.
func (s *noteServiceImpl) GetNotes(ctx context.Context, filter *dto.NoteFilterRequest) (*dto.NoteListResponse, error) {
	notes, pagination, err := s.store.GetAllNotes(ctx, repositories.NoteQueryParams{
		College:       filter.College,
		Branch:        filter.Branch,
		Subject:       filter.Subject,
		UploaderEmail: filter.UploaderEmail,
		Page:          filter.Page,
		Size:          filter.PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("error getting notes: %w", err)
	}

	noteResponses := make([]dto.NoteResponse, 0, len(notes))
	for _, note := range notes {
		noteResponses = append(noteResponses, dto.FromNote(note))
	}

	return &dto.NoteListResponse{
		Notes:      noteResponses,
		Pagination: pagination,
	}, nil
}

// GetNoteByID retrieves one note with files, comments and the caller's own
// rating and access verdict resolved.
func (s *noteServiceImpl) GetNoteByID(ctx context.Context, actor *models.Actor, id int64) (*dto.NoteDetailResponse, error) {
	note, err := s.store.GetNoteByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := &dto.NoteDetailResponse{
		NoteResponse: dto.FromNote(note),
		Files:        make([]dto.FileResponse, 0, len(note.Files)),
		Comments:     make([]dto.CommentResponse, 0, len(note.Comments)),
		CanView:      note.CanView(actor),
	}
	for _, f := range note.Files {
		resp.Files = append(resp.Files, dto.FileResponse{
			ID:       f.ID,
			FileURL:  f.FileURL,
			FileName: f.FileName,
			FileSize: f.FileSize,
			MimeType: f.MimeType,
		})
	}
	for _, c := range note.Comments {
		resp.Comments = append(resp.Comments, dto.CommentResponse{
			AuthorEmail: c.AuthorEmail,
			Comment:     c.Body,
			Timestamp:   helpers.FormatTimestamp(c.CreatedAt),
		})
	}
	if actor != nil {
		resp.UserRating = note.UserRatings[actor.ID]
	}

	return resp, nil
}

// SubmitRating records the caller's star rating and returns the acknowledged
// aggregates. Re-rating replaces the caller's previous value; the count does
// not grow.
func (s *noteServiceImpl) SubmitRating(ctx context.Context, actor *models.Actor, noteID int64, rating int) (*dto.RatingResponse, error) {
	if actor == nil {
		return nil, apperrors.ErrNotAuthenticated
	}
	if !models.ValidRating(rating) {
		return nil, apperrors.ErrRatingOutOfRange
	}

	summary, err := s.store.SubmitRating(ctx, noteID, actor.ID, rating)
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Int64("noteID", noteID).
		Int64("userID", actor.ID).
		Int("rating", rating).
		Float64("average", summary.Average).
		Int("count", summary.Count).
		Msg("Rating submitted")

	return &dto.RatingResponse{
		Rating:        summary.Average,
		RatingDisplay: dto.RoundRating(summary.Average),
		RatingCount:   summary.Count,
		UserRating:    rating,
	}, nil
}

// AddComment appends the caller's comment to the note.
func (s *noteServiceImpl) AddComment(ctx context.Context, actor *models.Actor, noteID int64, comment string) (*dto.CommentResponse, error) {
	if actor == nil {
		return nil, apperrors.ErrNotAuthenticated
	}

	body := strings.TrimSpace(comment)
	if body == "" {
		return nil, apperrors.ErrEmptyComment
	}

	stored, err := s.store.AddComment(ctx, &models.Comment{
		NoteID:      noteID,
		AuthorEmail: actor.Email,
		Body:        body,
	})
	if err != nil {
		return nil, err
	}

	return &dto.CommentResponse{
		AuthorEmail: stored.AuthorEmail,
		Comment:     stored.Body,
		Timestamp:   helpers.FormatTimestamp(stored.CreatedAt),
	}, nil
}

// ResolveAccess runs the PDF access gate: free notes and granted downloaders
// get the first file's URL, everyone else gets a payment-required error. A
// locked note never hands out a URL directly.
func (s *noteServiceImpl) ResolveAccess(ctx context.Context, actor *models.Actor, noteID int64) (*dto.PDFAccessResponse, error) {
	note, err := s.store.GetNoteByID(ctx, noteID)
	if err != nil {
		return nil, err
	}

	if !note.CanView(actor) {
		return nil, apperrors.ErrPaymentRequired
	}

	if len(note.Files) == 0 {
		return nil, apperrors.ErrNoteFileMissing
	}

	// Readers only ever open the first file
	return &dto.PDFAccessResponse{
		State:   string(models.AccessViewing),
		FileURL: note.Files[0].FileURL,
	}, nil
}
