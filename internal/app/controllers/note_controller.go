package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/scholarnote/backend/internal/app/models/dto"
	"github.com/scholarnote/backend/internal/app/services"
	"github.com/scholarnote/backend/internal/middleware"
	"github.com/scholarnote/backend/internal/pkg/apperrors"
)

// NoteController handles note upload, browsing, rating, commenting and the
// PDF access gate.
type NoteController struct {
	noteService services.NoteService
	logger      zerolog.Logger
}

// NewNoteController creates a new NoteController
func NewNoteController(noteService services.NoteService, logger zerolog.Logger) *NoteController {
	return &NoteController{
		noteService: noteService,
		logger:      logger,
	}
}

func parseNoteID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("noteId"), 10, 64)
	if err != nil || id <= 0 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeInvalidRequest, "Invalid note ID")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}

// CreateNote handles a multipart note upload
// @Summary Upload a note
// @Description Uploads one or more PDFs with the note's metadata. Paid notes must carry a positive amount.
// @Tags notes
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param subject formData string true "Subject"
// @Param college formData string true "College"
// @Param branch formData string true "Branch"
// @Param class formData string true "Class"
// @Param unit formData string true "Unit"
// @Param description formData string true "Description"
// @Param isPaid formData bool false "Whether the note requires purchase"
// @Param amount formData number false "Price, required when isPaid is true"
// @Param file formData file true "PDF file(s)"
// @Success 201 {object} dto.APIResponse{data=dto.NoteDetailResponse} "Note created"
// @Failure 400 {object} dto.ErrorResponse "Invalid metadata or non-PDF file"
// @Failure 401 {object} dto.ErrorResponse "Not authenticated"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /notes [post]
func (c *NoteController) CreateNote(ctx *gin.Context) {
	actor := middleware.GetActor(ctx)
	if actor == nil {
		middleware.HandleAPIError(ctx, apperrors.ErrNotAuthenticated)
		return
	}

	var req dto.CreateNoteRequest
	if err := ctx.ShouldBind(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid multipart form")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}
	files := form.File["file"]

	note, err := c.noteService.CreateNote(ctx.Request.Context(), actor, &req, files)
	if err != nil {
		c.logger.Error().Err(err).Str("uploader", actor.Email).Msg("Failed to create note")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{Data: note})
}

// GetNotes returns the note listing
// @Summary List notes
// @Description Returns a paginated note listing, optionally filtered by college, branch, subject or uploader email
// @Tags notes
// @Produce json
// @Param college query string false "College filter"
// @Param branch query string false "Branch filter"
// @Param subject query string false "Subject filter"
// @Param uploaderEmail query string false "Uploader email filter"
// @Param page query int false "Page number (1-based)"
// @Param pageSize query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.NoteListResponse} "Note listing"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /notes [get]
func (c *NoteController) GetNotes(ctx *gin.Context) {
	var filter dto.NoteFilterRequest
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	notes, err := c.noteService.GetNotes(ctx.Request.Context(), &filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: notes})
}

// GetMyNotes returns the caller's own uploads
// @Summary List own notes
// @Description Returns the authenticated user's uploaded notes
// @Tags notes
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (1-based)"
// @Param pageSize query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.NoteListResponse} "Note listing"
// @Failure 401 {object} dto.ErrorResponse "Not authenticated"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /notes/mine [get]
func (c *NoteController) GetMyNotes(ctx *gin.Context) {
	actor := middleware.GetActor(ctx)
	if actor == nil {
		middleware.HandleAPIError(ctx, apperrors.ErrNotAuthenticated)
		return
	}

	var filter dto.NoteFilterRequest
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}
	filter.UploaderEmail = actor.Email
	filter.College = ""
	filter.Branch = ""
	filter.Subject = ""

	notes, err := c.noteService.GetNotes(ctx.Request.Context(), &filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: notes})
}

// GetNoteByID returns one note's detail
// @Summary Get note detail
// @Description Returns a note with its files, comments, the caller's rating and access verdict
// @Tags notes
// @Produce json
// @Param noteId path int true "Note ID"
// @Success 200 {object} dto.APIResponse{data=dto.NoteDetailResponse} "Note detail"
// @Failure 404 {object} dto.ErrorResponse "Note not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /notes/{noteId} [get]
func (c *NoteController) GetNoteByID(ctx *gin.Context) {
	id, ok := parseNoteID(ctx)
	if !ok {
		return
	}

	note, err := c.noteService.GetNoteByID(ctx.Request.Context(), middleware.GetActor(ctx), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: note})
}

// SubmitRating records the caller's star rating
// @Summary Rate a note
// @Description Records a 1-5 star rating. Re-rating replaces the caller's previous value. Returns the acknowledged aggregates.
// @Tags notes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param noteId path int true "Note ID"
// @Param request body dto.SubmitRatingRequest true "Rating"
// @Success 200 {object} dto.APIResponse{data=dto.RatingResponse} "Acknowledged aggregates"
// @Failure 400 {object} dto.ErrorResponse "Rating out of range"
// @Failure 401 {object} dto.ErrorResponse "Not authenticated"
// @Failure 404 {object} dto.ErrorResponse "Note not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /notes/{noteId}/ratings [post]
func (c *NoteController) SubmitRating(ctx *gin.Context) {
	id, ok := parseNoteID(ctx)
	if !ok {
		return
	}

	var req dto.SubmitRatingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	rating, err := c.noteService.SubmitRating(ctx.Request.Context(), middleware.GetActor(ctx), id, req.Rating)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: rating})
}

// AddComment appends a comment to a note
// @Summary Comment on a note
// @Description Appends the caller's comment to the note's comment list
// @Tags notes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param noteId path int true "Note ID"
// @Param request body dto.AddCommentRequest true "Comment"
// @Success 201 {object} dto.APIResponse{data=dto.CommentResponse} "Stored comment"
// @Failure 400 {object} dto.ErrorResponse "Empty comment"
// @Failure 401 {object} dto.ErrorResponse "Not authenticated"
// @Failure 404 {object} dto.ErrorResponse "Note not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /notes/{noteId}/comments [post]
func (c *NoteController) AddComment(ctx *gin.Context) {
	id, ok := parseNoteID(ctx)
	if !ok {
		return
	}

	var req dto.AddCommentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	comment, err := c.noteService.AddComment(ctx.Request.Context(), middleware.GetActor(ctx), id, req.Comment)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{Data: comment})
}

// GetPDF resolves the PDF access gate
// @Summary Open a note's PDF
// @Description Returns the first PDF's URL when the caller may view the note. Paid notes answer 402 until access has been purchased.
// @Tags notes
// @Produce json
// @Param noteId path int true "Note ID"
// @Success 200 {object} dto.APIResponse{data=dto.PDFAccessResponse} "Viewer URL"
// @Failure 402 {object} dto.ErrorResponse "Purchase required"
// @Failure 404 {object} dto.ErrorResponse "Note not found or has no file"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /notes/{noteId}/pdf [get]
func (c *NoteController) GetPDF(ctx *gin.Context) {
	id, ok := parseNoteID(ctx)
	if !ok {
		return
	}

	access, err := c.noteService.ResolveAccess(ctx.Request.Context(), middleware.GetActor(ctx), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: access})
}
