package dto

// RegisterRequest represents the data needed to create a new account.
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email" example:"student@example.com"`
	Password    string `json:"password" binding:"required,min=8" example:"secret123"`
	DisplayName string `json:"displayName" binding:"required,min=2,max=100" example:"Priya Sharma"`
}

// LoginRequest represents the credentials for a login attempt.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"student@example.com"`
	Password string `json:"password" binding:"required" example:"secret123"`
}

// RefreshTokenRequest carries the opaque refresh token to rotate.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required" example:"2f8a73f1-0e5b-4b63-9c6d-1b1a3e6f2a11"`
}

// TokenResponse is returned on successful register, login and refresh.
type TokenResponse struct {
	AccessToken      string `json:"accessToken"`
	RefreshToken     string `json:"refreshToken"`
	ExpiresIn        int    `json:"expiresIn" example:"3600"`
	RefreshExpiresIn int    `json:"refreshExpiresIn" example:"2592000"`
	TokenType        string `json:"tokenType" example:"Bearer"`
}

// UserProfileResponse describes the authenticated user.
type UserProfileResponse struct {
	ID            int64   `json:"id" example:"1"`
	Email         string  `json:"email" example:"student@example.com"`
	DisplayName   string  `json:"displayName" example:"Priya Sharma"`
	PhotoURL      *string `json:"photoUrl,omitempty"`
	UploadCount   int     `json:"uploadCount" example:"4"`
	PurchaseCount int     `json:"purchaseCount" example:"2"`
}
