// Package schemas defines the data structures exchanged over the API.
package schemas

// CustomError is a stable, machine-readable error returned to clients.
// Code stays constant across releases, Message is free to change.
type CustomError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var (
	// BadRequest is returned when the request body is malformed or fails validation.
	BadRequest = &CustomError{"ERR-001", "The request body is invalid. Please check the request body and try again."}

	// EmailTaken is returned when a registration collides with an existing account.
	EmailTaken = &CustomError{"ERR-002", "The email is already registered. Please log in or use another email."}

	// InvalidCredentials is returned on login with an unknown email or wrong password.
	InvalidCredentials = &CustomError{"ERR-003", "The credentials are invalid. Please check your email and password."}

	// UserNotVerified is returned on login before the email address was verified.
	UserNotVerified = &CustomError{"ERR-004", "The email address has not been verified yet. Please check your inbox."}

	// Unauthorized is returned when no valid bearer token accompanies the request.
	Unauthorized = &CustomError{"ERR-005", "The request is unauthorized. Please login to your account."}

	// InsufficientPermissions is returned when the authenticated user's role does not permit the operation.
	InsufficientPermissions = &CustomError{"ERR-006", "You do not have sufficient permissions to perform this action."}

	// InvalidVerificationToken is returned when an email verification token cannot be redeemed.
	InvalidVerificationToken = &CustomError{"ERR-007", "The verification token is invalid or expired."}

	// InvalidResetToken is returned when a password reset token cannot be redeemed.
	InvalidResetToken = &CustomError{"ERR-008", "The password reset token is invalid or expired."}

	// ContactNotFound is returned when a contact does not exist or belongs to another user.
	ContactNotFound = &CustomError{"ERR-009", "The contact was not found."}

	// EmailUnreachable is returned when the registration email address fails verification.
	EmailUnreachable = &CustomError{"ERR-010", "The email address appears to be unreachable. Please use another email."}

	// RateLimitExceeded is returned when a client exceeds the request budget of an endpoint.
	RateLimitExceeded = &CustomError{"ERR-011", "Too many requests. Please try again later."}

	// FileUploadError is returned when an uploaded file cannot be read or stored.
	FileUploadError = &CustomError{"ERR-012", "The file could not be processed. Please try again."}

	// EmailNotSent is returned when the mail provider rejects an outgoing mail.
	EmailNotSent = &CustomError{"ERR-097", "The email could not be sent. Please try again later."}

	// DatabaseError is returned when a database operation fails unexpectedly.
	DatabaseError = &CustomError{"ERR-098", "A database error occurred. Please try again later."}

	// InternalServerError is the catch-all for unexpected failures.
	InternalServerError = &CustomError{"ERR-099", "An internal server error occurred. Please try again later."}
)
