package services

import (
	"context"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarnote/backend/internal/app/models"
	"github.com/scholarnote/backend/internal/app/models/dto"
	"github.com/scholarnote/backend/internal/app/repositories"
	"github.com/scholarnote/backend/internal/pkg/apperrors"
)

// fakeNoteStore is an in-memory NoteStore mirroring the repository's
// aggregate recomputation semantics.
type fakeNoteStore struct {
	notes  map[int64]*models.Note
	nextID int64
}

func newFakeNoteStore() *fakeNoteStore {
	return &fakeNoteStore{notes: make(map[int64]*models.Note), nextID: 1}
}

func (s *fakeNoteStore) add(note *models.Note) *models.Note {
	note.ID = s.nextID
	s.nextID++
	if note.UserRatings == nil {
		note.UserRatings = make(map[int64]int)
	}
	s.notes[note.ID] = note
	return note
}

func (s *fakeNoteStore) CreateNote(_ context.Context, note *models.Note, files []*models.NoteFile) (int64, error) {
	stored := s.add(note)
	for i, f := range files {
		f.NoteID = stored.ID
		f.Position = i
		stored.Files = append(stored.Files, f)
	}
	return stored.ID, nil
}

func (s *fakeNoteStore) GetNoteByID(_ context.Context, id int64) (*models.Note, error) {
	note, ok := s.notes[id]
	if !ok {
		return nil, apperrors.ErrNoteNotFound
	}
	return note, nil
}

func (s *fakeNoteStore) GetAllNotes(_ context.Context, params repositories.NoteQueryParams) ([]*models.Note, dto.PaginationInfo, error) {
	var out []*models.Note
	for _, n := range s.notes {
		if params.College != "" && n.College != params.College {
			continue
		}
		if params.Branch != "" && n.Branch != params.Branch {
			continue
		}
		if params.Subject != "" && n.Subject != params.Subject {
			continue
		}
		if params.UploaderEmail != "" && n.UploaderEmail != params.UploaderEmail {
			continue
		}
		out = append(out, n)
	}
	return out, dto.PaginationInfo{CurrentPage: 1, TotalPages: 1, PageSize: 10, TotalItems: int64(len(out))}, nil
}

func (s *fakeNoteStore) SubmitRating(_ context.Context, noteID, userID int64, rating int) (*models.RatingSummary, error) {
	note, ok := s.notes[noteID]
	if !ok {
		return nil, apperrors.ErrNoteNotFound
	}
	note.ApplyRating(userID, rating)
	return &models.RatingSummary{Average: note.Rating, Count: note.RatingCount}, nil
}

func (s *fakeNoteStore) GetUserRating(_ context.Context, noteID, userID int64) (int, error) {
	note, ok := s.notes[noteID]
	if !ok {
		return 0, apperrors.ErrNoteNotFound
	}
	return note.UserRatings[userID], nil
}

func (s *fakeNoteStore) AddComment(_ context.Context, comment *models.Comment) (*models.Comment, error) {
	note, ok := s.notes[comment.NoteID]
	if !ok {
		return nil, apperrors.ErrNoteNotFound
	}
	comment.ID = int64(len(note.Comments) + 1)
	note.AppendComment(comment)
	return comment, nil
}

func (s *fakeNoteStore) GrantAccess(_ context.Context, noteID int64, email string) error {
	note, ok := s.notes[noteID]
	if !ok {
		return apperrors.ErrNoteNotFound
	}
	note.GrantDownloader(email)
	return nil
}

func (s *fakeNoteStore) HasAccess(_ context.Context, noteID int64, email string) (bool, error) {
	note, ok := s.notes[noteID]
	if !ok {
		return false, apperrors.ErrNoteNotFound
	}
	return note.HasDownloader(email), nil
}

// fakeStorage records saved files without touching the filesystem.
type fakeStorage struct {
	saved   []string
	deleted []string
}

func (f *fakeStorage) SaveFile(fh *multipart.FileHeader) (string, error) {
	return f.SaveFileWithPath(fh, "")
}

func (f *fakeStorage) SaveFileWithPath(fh *multipart.FileHeader, path string) (string, error) {
	url := "http://localhost:8080/uploads/" + filepath.Join(path, fh.Filename)
	f.saved = append(f.saved, url)
	return url, nil
}

func (f *fakeStorage) DeleteFile(path string) error {
	f.deleted = append(f.deleted, path)
	return nil
}

func (f *fakeStorage) GetFullPath(fileURL string) string { return fileURL }

func pdfHeader(name string) *multipart.FileHeader {
	return &multipart.FileHeader{
		Filename: name,
		Size:     1024,
		Header:   textproto.MIMEHeader{"Content-Type": []string{"application/pdf"}},
	}
}

func newTestNoteService(store *fakeNoteStore) (NoteService, *fakeStorage) {
	storage := &fakeStorage{}
	return NewNoteService(store, storage), storage
}

func seedNote(store *fakeNoteStore, isPaid bool) *models.Note {
	note := store.add(&models.Note{
		Subject:       "Operating Systems",
		College:       "NIT Trichy",
		Branch:        "CSE",
		ClassName:     "3rd Year",
		Unit:          "Unit 4",
		Description:   "Scheduling and deadlock walkthrough",
		IsPaid:        isPaid,
		UploaderID:    99,
		UploaderEmail: "uploader@example.com",
	})
	if isPaid {
		note.Amount = 50
	}
	note.Files = append(note.Files, &models.NoteFile{
		ID: 1, NoteID: note.ID, FileURL: "http://localhost:8080/uploads/pdfs/a.pdf",
		FileName: "a.pdf", MimeType: "application/pdf",
	})
	return note
}

func TestSubmitRatingAggregates(t *testing.T) {
	store := newFakeNoteStore()
	note := seedNote(store, false)
	svc, _ := newTestNoteService(store)
	ctx := context.Background()

	_, err := svc.SubmitRating(ctx, &models.Actor{ID: 1, Email: "a@x.com"}, note.ID, 5)
	require.NoError(t, err)
	_, err = svc.SubmitRating(ctx, &models.Actor{ID: 2, Email: "b@x.com"}, note.ID, 3)
	require.NoError(t, err)

	resp, err := svc.SubmitRating(ctx, &models.Actor{ID: 3, Email: "c@x.com"}, note.ID, 4)
	require.NoError(t, err)

	assert.Equal(t, 3, resp.RatingCount)
	assert.InDelta(t, 4.0, resp.Rating, 1e-9)
	assert.InDelta(t, 4.0, resp.RatingDisplay, 1e-9)
	assert.Equal(t, 4, resp.UserRating)
}

func TestSubmitRatingResubmit(t *testing.T) {
	store := newFakeNoteStore()
	note := seedNote(store, false)
	svc, _ := newTestNoteService(store)
	ctx := context.Background()

	for userID, rating := range map[int64]int{1: 5, 2: 3, 3: 4} {
		_, err := svc.SubmitRating(ctx, &models.Actor{ID: userID}, note.ID, rating)
		require.NoError(t, err)
	}

	resp, err := svc.SubmitRating(ctx, &models.Actor{ID: 1}, note.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, 3, resp.RatingCount)
	assert.InDelta(t, (1.0+3.0+4.0)/3.0, resp.Rating, 1e-9)
	assert.InDelta(t, 2.7, resp.RatingDisplay, 1e-9)
}

func TestSubmitRatingValidation(t *testing.T) {
	store := newFakeNoteStore()
	note := seedNote(store, false)
	svc, _ := newTestNoteService(store)
	ctx := context.Background()

	_, err := svc.SubmitRating(ctx, nil, note.ID, 4)
	assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)

	_, err = svc.SubmitRating(ctx, &models.Actor{ID: 1}, note.ID, 0)
	assert.ErrorIs(t, err, apperrors.ErrRatingOutOfRange)

	_, err = svc.SubmitRating(ctx, &models.Actor{ID: 1}, note.ID, 6)
	assert.ErrorIs(t, err, apperrors.ErrRatingOutOfRange)

	_, err = svc.SubmitRating(ctx, &models.Actor{ID: 1}, 12345, 4)
	assert.ErrorIs(t, err, apperrors.ErrNoteNotFound)
}

func TestAddComment(t *testing.T) {
	store := newFakeNoteStore()
	note := seedNote(store, false)
	svc, _ := newTestNoteService(store)
	ctx := context.Background()
	actor := &models.Actor{ID: 1, Email: "reader@example.com"}

	resp, err := svc.AddComment(ctx, actor, note.ID, "  nice summary  ")
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", resp.AuthorEmail)
	assert.Equal(t, "nice summary", resp.Comment)

	_, err = svc.AddComment(ctx, actor, note.ID, "   ")
	assert.ErrorIs(t, err, apperrors.ErrEmptyComment)

	_, err = svc.AddComment(ctx, nil, note.ID, "hi")
	assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
}

func TestResolveAccessFreeNote(t *testing.T) {
	store := newFakeNoteStore()
	note := seedNote(store, false)
	svc, _ := newTestNoteService(store)

	resp, err := svc.ResolveAccess(context.Background(), nil, note.ID)
	require.NoError(t, err)
	assert.Equal(t, string(models.AccessViewing), resp.State)
	assert.Equal(t, note.Files[0].FileURL, resp.FileURL)
}

func TestResolveAccessPaidNote(t *testing.T) {
	store := newFakeNoteStore()
	note := seedNote(store, true)
	svc, _ := newTestNoteService(store)
	ctx := context.Background()
	buyer := &models.Actor{ID: 5, Email: "buyer@example.com"}

	_, err := svc.ResolveAccess(ctx, nil, note.ID)
	assert.ErrorIs(t, err, apperrors.ErrPaymentRequired)

	_, err = svc.ResolveAccess(ctx, buyer, note.ID)
	assert.ErrorIs(t, err, apperrors.ErrPaymentRequired)

	note.GrantDownloader(buyer.Email)

	resp, err := svc.ResolveAccess(ctx, buyer, note.ID)
	require.NoError(t, err)
	assert.Equal(t, string(models.AccessViewing), resp.State)
	assert.Equal(t, note.Files[0].FileURL, resp.FileURL)
}

func TestResolveAccessMissingFile(t *testing.T) {
	store := newFakeNoteStore()
	note := seedNote(store, false)
	note.Files = nil
	svc, _ := newTestNoteService(store)

	_, err := svc.ResolveAccess(context.Background(), nil, note.ID)
	assert.ErrorIs(t, err, apperrors.ErrNoteFileMissing)
}

func TestCreateNote(t *testing.T) {
	store := newFakeNoteStore()
	svc, storage := newTestNoteService(store)
	ctx := context.Background()
	actor := &models.Actor{ID: 7, Email: "uploader@example.com"}

	req := &dto.CreateNoteRequest{
		Subject:     "Operating Systems",
		College:     "NIT Trichy",
		Branch:      "CSE",
		ClassName:   "3rd Year",
		Unit:        "Unit 4",
		Description: "Scheduling and deadlock walkthrough",
		IsPaid:      true,
		Amount:      50,
	}

	resp, err := svc.CreateNote(ctx, actor, req, []*multipart.FileHeader{pdfHeader("os-unit4.pdf")})
	require.NoError(t, err)
	assert.Equal(t, "uploader@example.com", resp.UploaderEmail)
	assert.True(t, resp.IsPaid)
	assert.Len(t, resp.Files, 1)
	assert.Len(t, storage.saved, 1)
}

func TestCreateNoteValidation(t *testing.T) {
	store := newFakeNoteStore()
	svc, _ := newTestNoteService(store)
	ctx := context.Background()
	actor := &models.Actor{ID: 7, Email: "uploader@example.com"}

	valid := func() *dto.CreateNoteRequest {
		return &dto.CreateNoteRequest{
			Subject:     "Operating Systems",
			College:     "NIT Trichy",
			Branch:      "CSE",
			ClassName:   "3rd Year",
			Unit:        "Unit 4",
			Description: "Scheduling and deadlock walkthrough",
		}
	}

	_, err := svc.CreateNote(ctx, nil, valid(), []*multipart.FileHeader{pdfHeader("a.pdf")})
	assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)

	_, err = svc.CreateNote(ctx, actor, valid(), nil)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	paid := valid()
	paid.IsPaid = true
	_, err = svc.CreateNote(ctx, actor, paid, []*multipart.FileHeader{pdfHeader("a.pdf")})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	notPDF := &multipart.FileHeader{
		Filename: "notes.docx",
		Header:   textproto.MIMEHeader{"Content-Type": []string{"application/msword"}},
	}
	_, err = svc.CreateNote(ctx, actor, valid(), []*multipart.FileHeader{notPDF})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestGetNoteByIDResolvesCaller(t *testing.T) {
	store := newFakeNoteStore()
	note := seedNote(store, true)
	svc, _ := newTestNoteService(store)
	ctx := context.Background()
	actor := &models.Actor{ID: 3, Email: "reader@example.com"}

	_, err := svc.SubmitRating(ctx, actor, note.ID, 5)
	require.NoError(t, err)

	resp, err := svc.GetNoteByID(ctx, actor, note.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, resp.UserRating)
	assert.False(t, resp.CanView)

	note.GrantDownloader(actor.Email)
	resp, err = svc.GetNoteByID(ctx, actor, note.ID)
	require.NoError(t, err)
	assert.True(t, resp.CanView)

	anon, err := svc.GetNoteByID(ctx, nil, note.ID)
	require.NoError(t, err)
	assert.Zero(t, anon.UserRating)
	assert.False(t, anon.CanView)
}

func TestGetNotesCarriesDownloadCount(t *testing.T) {
	store := newFakeNoteStore()
	note := seedNote(store, true)
	note.GrantDownloader("buyer1@example.com")
	note.GrantDownloader("buyer2@example.com")
	svc, _ := newTestNoteService(store)

	list, err := svc.GetNotes(context.Background(), &dto.NoteFilterRequest{})
	require.NoError(t, err)
	require.Len(t, list.Notes, 1)

	// Listings report the same count the detail view does
	assert.Equal(t, 2, list.Notes[0].DownloadCount)

	detail, err := svc.GetNoteByID(context.Background(), nil, note.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, detail.DownloadCount)
}
