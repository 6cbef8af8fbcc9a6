package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID          int64      `json:"id" db:"id" example:"1"`                                                   // Unique identifier for the user
	Email       string     `json:"email" db:"email" example:"student@example.com"`                           // User's email address
	Password    string     `json:"-" db:"password"`                                                          // User's hashed password (excluded from JSON)
	DisplayName string     `json:"displayName" db:"display_name" example:"Priya Sharma"`                     // Name shown next to uploads and comments
	PhotoURL    *string    `json:"photoUrl,omitempty" db:"photo_url" example:"uploads/avatar.png"`           // URL of the user's avatar (nullable)
	IsActive    bool       `json:"isActive" db:"is_active" example:"true"`                                   // Whether the user account is active
	CreatedAt   time.Time  `json:"createdAt" db:"created_at" example:"2024-01-01T10:00:00Z"`                 // Timestamp when the user was created
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at" example:"2024-01-02T15:30:00Z"`                 // Timestamp when the user was last updated
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at" example:"2024-04-20T18:00:00Z"` // Timestamp of the last login (nullable)
}

// Actor identifies the authenticated user performing an operation. A nil
// *Actor means the request carried no valid identity.
type Actor struct {
	ID    int64
	Email string
}
