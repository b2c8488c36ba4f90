package schemas

import "time"

// UserRole is the access level of a user account.
type UserRole string

const (
	// RoleUser is the default role with access to the user's own resources.
	RoleUser UserRole = "user"
	// RoleAdmin grants elevated permissions, e.g. repeated avatar changes.
	RoleAdmin UserRole = "admin"
)

// User represents the data model for a user in the system.
// Password holds the bcrypt digest, never the plaintext.
type User struct {
	ID         int64      `json:"id"`
	Email      string     `json:"email"`
	Password   string     `json:"-"`
	IsVerified bool       `json:"is_verified"`
	Role       UserRole   `json:"role"`
	AvatarURL  *string    `json:"avatar_url"`
	CreatedAt  *time.Time `json:"created_at"`
}

// Contact represents the data model for a contact owned by a user.
type Contact struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Email          string     `json:"email"`
	PhoneNumber    string     `json:"phone_number"`
	BirthDate      *time.Time `json:"birth_date"`
	AdditionalInfo *string    `json:"additional_info"`
	CreatedAt      *time.Time `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"`
}
