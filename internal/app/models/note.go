package models

import (
	"math"
	"time"
)

// Note represents the structure for a note in the database. Rating and
// RatingCount are denormalized aggregates over the note_ratings table and are
// recomputed transactionally on every rating write.
type Note struct {
	ID            int64     `db:"id" json:"id"`
	Subject       string    `db:"subject" json:"subject"`
	College       string    `db:"college" json:"college"`
	Branch        string    `db:"branch" json:"branch"`
	ClassName     string    `db:"class_name" json:"className"`
	Unit          string    `db:"unit" json:"unit"`
	Description   string    `db:"description" json:"description"`
	IsPaid        bool      `db:"is_paid" json:"isPaid"`
	Amount        float64   `db:"amount" json:"amount"`
	UploaderID    int64     `db:"uploader_id" json:"uploaderId"`
	UploaderEmail string    `db:"uploader_email" json:"uploaderEmail"`
	Rating        float64   `db:"rating" json:"rating"`
	RatingCount   int       `db:"rating_count" json:"ratingCount"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`

	// DownloadCount is the size of the downloader set, aggregated at read
	// time so listings carry it without loading the set itself.
	DownloadCount int `db:"-" json:"downloadCount"`

	// Loaded from satellite tables on demand
	Files            []*NoteFile    `json:"files,omitempty"`
	Comments         []*Comment     `json:"comments,omitempty"`
	UserRatings      map[int64]int  `json:"-"`
	DownloaderEmails []string       `json:"-"`
}

// NoteFile is one stored PDF belonging to a note, ordered by Position.
// Readers only ever open the first file.
type NoteFile struct {
	ID        int64     `db:"id" json:"id"`
	NoteID    int64     `db:"note_id" json:"noteId"`
	FileURL   string    `db:"file_url" json:"fileUrl"`
	FileName  string    `db:"file_name" json:"fileName"`
	FileSize  int64     `db:"file_size" json:"fileSize"`
	MimeType  string    `db:"mime_type" json:"mimeType"`
	Position  int       `db:"position" json:"position"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Comment is one entry of a note's append-only comment list.
type Comment struct {
	ID          int64     `db:"id" json:"id"`
	NoteID      int64     `db:"note_id" json:"noteId"`
	AuthorEmail string    `db:"author_email" json:"authorEmail"`
	Body        string    `db:"body" json:"body"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// NoteRating is one user's current rating of a note. At most one row exists
// per (note, user); re-rating replaces the value in place.
type NoteRating struct {
	NoteID    int64     `db:"note_id" json:"noteId"`
	UserID    int64     `db:"user_id" json:"userId"`
	Rating    int       `db:"rating" json:"rating"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// RatingSummary carries the recomputed aggregates acknowledged by the store
// after a rating write.
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

const (
	MinRating = 1
	MaxRating = 5
)

// ValidRating reports whether v is an allowed rating value.
func ValidRating(v int) bool {
	return v >= MinRating && v <= MaxRating
}

// ApplyRating records value as userID's rating and recomputes the running
// average: the old value (if any) is subtracted from the running total, the
// new one added, and the total divided by the count of distinct raters. The
// caller must have validated value with ValidRating.
func (n *Note) ApplyRating(userID int64, value int) {
	if n.UserRatings == nil {
		n.UserRatings = make(map[int64]int)
	}

	total := n.Rating * float64(n.RatingCount)
	if old, ok := n.UserRatings[userID]; ok {
		total = total - float64(old) + float64(value)
	} else {
		total += float64(value)
		n.RatingCount++
	}
	n.UserRatings[userID] = value
	n.Rating = total / float64(n.RatingCount)
}

// AppendComment adds a comment to the end of the note's comment list.
func (n *Note) AppendComment(c *Comment) {
	n.Comments = append(n.Comments, c)
}

// GrantDownloader adds email to the downloader set. Adding an email that is
// already present is a no-op, so the call is idempotent.
func (n *Note) GrantDownloader(email string) {
	if n.HasDownloader(email) {
		return
	}
	n.DownloaderEmails = append(n.DownloaderEmails, email)
	n.DownloadCount = len(n.DownloaderEmails)
}

// HasDownloader reports whether email has been granted access to the note.
func (n *Note) HasDownloader(email string) bool {
	for _, e := range n.DownloaderEmails {
		if e == email {
			return true
		}
	}
	return false
}

// CanView reports whether actor may open the note's PDF: free notes are open
// to everyone (signed in or not), paid notes only to granted downloaders.
func (n *Note) CanView(actor *Actor) bool {
	if !n.IsPaid {
		return true
	}
	if actor == nil {
		return false
	}
	return n.HasDownloader(actor.Email)
}

// DisplayRating returns the average rounded to one decimal. Stored ratings
// are never rounded; rounding happens only at this display boundary.
func (n *Note) DisplayRating() float64 {
	return math.Round(n.Rating*10) / 10
}

// AccessState describes where a note sits in the PDF access gate for a
// particular viewer.
type AccessState string

const (
	// AccessLocked means the note is paid and the viewer holds no grant.
	AccessLocked AccessState = "LOCKED"
	// AccessUnlocked means the viewer may open the PDF.
	AccessUnlocked AccessState = "UNLOCKED"
	// AccessViewing means a viewer URL has been handed out.
	AccessViewing AccessState = "VIEWING"
)

// AccessStateFor resolves the gate state for actor. There is no direct
// Locked to Viewing transition; a locked note must first be unlocked through
// an access grant.
func (n *Note) AccessStateFor(actor *Actor) AccessState {
	if n.CanView(actor) {
		return AccessUnlocked
	}
	return AccessLocked
}
