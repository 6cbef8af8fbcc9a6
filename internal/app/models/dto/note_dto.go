package dto

import (
	"math"

	"github.com/scholarnote/backend/internal/app/models"
)

// --- Request DTOs ---

// CreateNoteRequest represents the metadata part of a multipart note upload;
// the PDF itself arrives as the "file" form field.
type CreateNoteRequest struct {
	Subject     string  `form:"subject" binding:"required,min=2,max=200" example:"Operating Systems"`
	College     string  `form:"college" binding:"required,min=2,max=200" example:"NIT Trichy"`
	Branch      string  `form:"branch" binding:"required,min=2,max=200" example:"CSE"`
	ClassName   string  `form:"class" binding:"required,min=1,max=100" example:"3rd Year"`
	Unit        string  `form:"unit" binding:"required,min=1,max=100" example:"Unit 4"`
	Description string  `form:"description" binding:"required,min=10" example:"Scheduling, deadlock, memory management..."`
	IsPaid      bool    `form:"isPaid" example:"true"`
	Amount      float64 `form:"amount" binding:"gte=0" example:"50"`
}

// NoteFilterRequest holds the optional equality filters and pagination for
// the note listing.
type NoteFilterRequest struct {
	College       string `form:"college"`
	Branch        string `form:"branch"`
	Subject       string `form:"subject"`
	UploaderEmail string `form:"uploaderEmail"`
	Page          int    `form:"page,default=1"`
	PageSize      int    `form:"pageSize,default=10"`
}

// SubmitRatingRequest carries one star rating.
type SubmitRatingRequest struct {
	Rating int `json:"rating" binding:"required,min=1,max=5" example:"4"`
}

// AddCommentRequest carries one comment body.
type AddCommentRequest struct {
	Comment string `json:"comment" binding:"required" example:"Really clear unit 4 summary, thanks!"`
}

// --- Response DTOs ---

// NoteResponse represents the data returned for a single note.
type NoteResponse struct {
	ID            int64   `json:"id" example:"15"`
	Subject       string  `json:"subject" example:"Operating Systems"`
	College       string  `json:"college" example:"NIT Trichy"`
	Branch        string  `json:"branch" example:"CSE"`
	ClassName     string  `json:"class" example:"3rd Year"`
	Unit          string  `json:"unit" example:"Unit 4"`
	Description   string  `json:"description" example:"Scheduling, deadlock, memory management..."`
	IsPaid        bool    `json:"isPaid" example:"true"`
	Amount        float64 `json:"amount" example:"50"`
	UploaderEmail string  `json:"uploaderEmail" example:"uploader@example.com"`
	Rating        float64 `json:"rating" example:"4.333333333333333"`
	RatingDisplay float64 `json:"ratingDisplay" example:"4.3"`
	RatingCount   int     `json:"ratingCount" example:"3"`
	DownloadCount int     `json:"downloadCount" example:"12"`
	CreatedAt     string  `json:"createdAt" example:"2024-01-15T10:00:00Z"`
}

// NoteDetailResponse extends NoteResponse with everything the detail page
// shows: files, comments, the caller's own rating and the access verdict.
type NoteDetailResponse struct {
	NoteResponse
	Files      []FileResponse    `json:"files"`
	Comments   []CommentResponse `json:"comments"`
	UserRating int               `json:"userRating" example:"5"` // 0 when the caller has not rated
	CanView    bool              `json:"canView" example:"false"`
}

// FileResponse describes one stored PDF.
type FileResponse struct {
	ID       int64  `json:"id" example:"7"`
	FileURL  string `json:"fileUrl" example:"http://localhost:8080/uploads/pdfs/0b7e.pdf"`
	FileName string `json:"fileName" example:"os-unit4.pdf"`
	FileSize int64  `json:"fileSize" example:"1048576"`
	MimeType string `json:"mimeType" example:"application/pdf"`
}

// CommentResponse is one rendered comment.
type CommentResponse struct {
	AuthorEmail string `json:"authorEmail" example:"reader@example.com"`
	Comment     string `json:"comment" example:"Really clear unit 4 summary, thanks!"`
	Timestamp   string `json:"timestamp" example:"2024-02-01T09:30:00Z"`
}

// NoteListResponse represents the paginated note listing.
type NoteListResponse struct {
	Notes      []NoteResponse `json:"notes"`
	Pagination PaginationInfo `json:"pagination"`
}

// RatingResponse returns the acknowledged aggregates after a rating write.
type RatingResponse struct {
	Rating        float64 `json:"rating" example:"4.333333333333333"`
	RatingDisplay float64 `json:"ratingDisplay" example:"4.3"`
	RatingCount   int     `json:"ratingCount" example:"3"`
	UserRating    int     `json:"userRating" example:"4"`
}

// PDFAccessResponse is the access gate's answer for an unlocked note.
type PDFAccessResponse struct {
	State   string `json:"state" example:"VIEWING"`
	FileURL string `json:"fileUrl" example:"http://localhost:8080/uploads/pdfs/0b7e.pdf"`
}

// FromNote converts a model to its list representation. The display rating
// is rounded to one decimal here, never in storage.
func FromNote(n *models.Note) NoteResponse {
	return NoteResponse{
		ID:            n.ID,
		Subject:       n.Subject,
		College:       n.College,
		Branch:        n.Branch,
		ClassName:     n.ClassName,
		Unit:          n.Unit,
		Description:   n.Description,
		IsPaid:        n.IsPaid,
		Amount:        n.Amount,
		UploaderEmail: n.UploaderEmail,
		Rating:        n.Rating,
		RatingDisplay: n.DisplayRating(),
		RatingCount:   n.RatingCount,
		DownloadCount: n.DownloadCount,
		CreatedAt:     n.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// RoundRating rounds an average to one decimal for display.
func RoundRating(r float64) float64 {
	return math.Round(r*10) / 10
}
