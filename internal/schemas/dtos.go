package schemas

import "time"

// ErrorDTO is a struct that represents an error response
// Error is the custom error, see CustomError
type ErrorDTO struct {
	Error CustomError `json:"error"`
}

// MetadataDTO is a struct that represents the API metadata response
type MetadataDTO struct {
	ApiVersion string `json:"apiVersion"`
	ApiName    string `json:"apiName"`
}

// MessageDTO is a struct that represents a plain informational response
type MessageDTO struct {
	Message string `json:"message"`
}

// UserDTO is a struct that represents a user response.
// The password hash is deliberately absent.
type UserDTO struct {
	ID         int64      `json:"id"`
	Email      string     `json:"email"`
	IsVerified bool       `json:"is_verified"`
	Role       UserRole   `json:"role"`
	AvatarURL  *string    `json:"avatar_url"`
	CreatedAt  *time.Time `json:"created_at"`
}

// TokenDTO is a struct that represents a login response carrying a bearer token
type TokenDTO struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// CachedUser is the denormalized user snapshot held in the user cache.
// It is JSON-encoded under the cache key and may be stale relative to the
// database for up to the cache TTL.
type CachedUser struct {
	ID         int64      `json:"id"`
	Email      string     `json:"email"`
	IsVerified bool       `json:"is_verified"`
	Role       UserRole   `json:"role"`
	AvatarURL  *string    `json:"avatar_url"`
	CreatedAt  *time.Time `json:"created_at"`
}

// UserDTO converts the snapshot into the public user shape.
func (cu *CachedUser) UserDTO() *UserDTO {
	return &UserDTO{
		ID:         cu.ID,
		Email:      cu.Email,
		IsVerified: cu.IsVerified,
		Role:       cu.Role,
		AvatarURL:  cu.AvatarURL,
		CreatedAt:  cu.CreatedAt,
	}
}

// ContactDTO is a struct that represents a contact response
type ContactDTO struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Email          string     `json:"email"`
	PhoneNumber    string     `json:"phone_number"`
	BirthDate      string     `json:"birth_date"`
	AdditionalInfo *string    `json:"additional_info"`
	CreatedAt      *time.Time `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"`
}
