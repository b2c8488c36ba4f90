// Package schemas defines the request structures for various operations in the application.
package schemas

// RegistrationRequest is a struct that represents a registration request
// Email is required and must be a valid email
// Password is required and must be at least 8 characters
type RegistrationRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,password_validation"`
}

// LoginRequest is a struct that represents a login request
// Email is required and must be a valid email
// Password is required and must be at least 8 characters
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// PasswordResetRequest is a struct that represents a password reset request
// Email is required and must be a valid email
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest is a struct that represents a password reset redemption
// Token is the password reset token from the reset email
// NewPassword is required and must be at least 8 characters
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,password_validation"`
}

// ContactRequest is a struct that represents a create or update contact request
// BirthDate is expected in ISO date format (2006-01-02)
type ContactRequest struct {
	FirstName      string  `json:"first_name" validate:"required,min=1,max=100"`
	LastName       string  `json:"last_name" validate:"required,min=1,max=100"`
	Email          string  `json:"email" validate:"required,email"`
	PhoneNumber    string  `json:"phone_number" validate:"required,min=5,max=20"`
	BirthDate      string  `json:"birth_date" validate:"required,datetime=2006-01-02"`
	AdditionalInfo *string `json:"additional_info" validate:"omitempty,max=500"`
}
