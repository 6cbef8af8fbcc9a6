package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/scholarnote/backend/internal/app/controllers"
	"github.com/scholarnote/backend/internal/app/models/dto"
	"github.com/scholarnote/backend/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	noteController *controllers.NoteController,
	paymentController *controllers.PaymentController,
	authMiddleware *middleware.AuthMiddleware,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.POST("/refresh", authController.RefreshToken)
	}

	// --- Note routes ---
	notes := v1.Group("/notes")
	{
		// Browsing is public, but the response depends on who is asking:
		// the detail page shows the caller's own rating and the PDF gate
		// checks purchased access. OptionalJWTAuth resolves identity when
		// a token is present and stays anonymous otherwise.
		notesPublic := notes.Group("")
		notesPublic.Use(authMiddleware.OptionalJWTAuth())
		{
			notesPublic.GET("", noteController.GetNotes)
			notesPublic.GET("/:noteId", noteController.GetNoteByID)
			notesPublic.GET("/:noteId/pdf", noteController.GetPDF)
		}

		// Writing requires a signed-in user
		notesProtected := notes.Group("")
		notesProtected.Use(authMiddleware.JWTAuth())
		{
			notesProtected.POST("", noteController.CreateNote)
			notesProtected.GET("/mine", noteController.GetMyNotes)
			notesProtected.POST("/:noteId/ratings", noteController.SubmitRating)
			notesProtected.POST("/:noteId/comments", noteController.AddComment)
			notesProtected.POST("/:noteId/purchase", paymentController.PurchaseNote)
		}
	}

	// --- User routes ---
	users := v1.Group("/users")
	users.Use(authMiddleware.JWTAuth())
	{
		users.GET("/me", authController.GetProfile)
	}

	// Health check endpoint (public)
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(200, dto.APIResponse{
			Data: gin.H{"status": "ok"},
		})
	})
}
