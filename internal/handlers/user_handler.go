// Package handlers implements the HTTP handlers of the API.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"contacts-server/internal/hasher"
	"contacts-server/internal/managers"
	"contacts-server/internal/schemas"
	"contacts-server/internal/utils"
	"contacts-server/internal/validators"
)

type UserHdl interface {
	RegisterUser(c *gin.Context)
	VerifyEmail(c *gin.Context)
	LoginUser(c *gin.Context)
	GetMe(c *gin.Context)
	ListUsers(c *gin.Context)
	UploadAvatar(c *gin.Context)
	RequestPasswordReset(c *gin.Context)
	ResetPassword(c *gin.Context)
}

type UserHandler struct {
	DatabaseManager managers.DatabaseMgr
	JWTManager      managers.JWTMgr
	MailManager     managers.MailMgr
	CacheManager    managers.CacheMgr
	StorageManager  managers.StorageMgr
	Validator       *validators.Validator
}

func NewUserHandler(databaseManager managers.DatabaseMgr, jwtManager managers.JWTMgr, mailManager managers.MailMgr,
	cacheManager managers.CacheMgr, storageManager managers.StorageMgr) UserHdl {
	return &UserHandler{
		DatabaseManager: databaseManager,
		JWTManager:      jwtManager,
		MailManager:     mailManager,
		CacheManager:    cacheManager,
		StorageManager:  storageManager,
		Validator:       validators.GetValidator(),
	}
}

// genericResetMessage is returned for every password reset request, whether
// the account exists or not, to prevent account enumeration.
const genericResetMessage = "If your email exists in our system, you will receive a password reset link"

const uniqueViolationCode = "23505"

var errAvatarLocked = errors.New("avatar already set and user is not an admin")

// RegisterUser registers a new user and sends a verification token to the
// user's email.
func (handler *UserHandler) RegisterUser(c *gin.Context) {
	registrationRequest, ok := utils.GetSanitizedPayload[*schemas.RegistrationRequest](c)
	if !ok {
		return
	}

	// The MX check needs a network round trip, so only production does it.
	if os.Getenv("ENVIRONMENT") == "production" && !handler.Validator.VerifyEmail(registrationRequest.Email) {
		utils.WriteAndLogError(c, schemas.EmailUnreachable, http.StatusBadRequest, errors.New("email domain unreachable"))
		return
	}

	tx := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(c, tx)

	// Check if the email is taken
	queryString := "SELECT user_id FROM users WHERE email = $1"
	var existingID int64
	err := tx.QueryRow(c, queryString, registrationRequest.Email).Scan(&existingID)
	if err == nil {
		utils.WriteAndLogError(c, schemas.EmailTaken, http.StatusConflict, errors.New("email already registered"))
		return
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	hashedPassword, err := hasher.Hash(registrationRequest.Password)
	if err != nil {
		utils.WriteAndLogError(c, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	// Insert the user into the database
	user := &schemas.User{
		Email:      registrationRequest.Email,
		Role:       schemas.RoleUser,
		IsVerified: false,
	}
	queryString = "INSERT INTO users (email, password, is_verified, role) VALUES ($1, $2, FALSE, $3) RETURNING user_id, created_at"
	err = tx.QueryRow(c, queryString, registrationRequest.Email, hashedPassword, user.Role).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		// Two concurrent registrations race at the unique constraint; the
		// loser must surface as a conflict, not a crash.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			utils.WriteAndLogError(c, schemas.EmailTaken, http.StatusConflict, err)
			return
		}
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	// Generate a verification token and send it to the user
	token, err := handler.JWTManager.GenerateJWT(user.Email, managers.PurposeAccess, managers.AccessTokenTTL)
	if err != nil {
		utils.WriteAndLogError(c, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	if err = handler.MailManager.SendVerificationMail(user.Email, token); err != nil {
		utils.WriteAndLogError(c, schemas.EmailNotSent, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(c, tx); err != nil {
		return
	}

	userDto := &schemas.UserDTO{
		ID:         user.ID,
		Email:      user.Email,
		IsVerified: user.IsVerified,
		Role:       user.Role,
		CreatedAt:  user.CreatedAt,
	}
	utils.WriteAndLogResponse(c, userDto, http.StatusCreated)
}

// VerifyEmail redeems the verification token from the query string and marks
// the user as verified.
func (handler *UserHandler) VerifyEmail(c *gin.Context) {
	tokenString := c.Query("token")

	email, err := handler.JWTManager.ValidateJWT(tokenString, managers.PurposeAccess)
	if err != nil {
		utils.WriteAndLogError(c, schemas.InvalidVerificationToken, http.StatusBadRequest, err)
		return
	}

	tx := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(c, tx)

	queryString := "UPDATE users SET is_verified = TRUE WHERE email = $1"
	commandTag, err := tx.Exec(c, queryString, email)
	if err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if commandTag.RowsAffected() == 0 {
		utils.WriteAndLogError(c, schemas.InvalidVerificationToken, http.StatusBadRequest,
			errors.New("verification token references no known user"))
		return
	}

	if err = utils.CommitTransaction(c, tx); err != nil {
		return
	}

	// The verification flag changed, so the cached snapshot is stale.
	if cacheErr := handler.CacheManager.InvalidateUser(c, email); cacheErr != nil {
		utils.LogMessageWithFieldsAndError(c, "warn", "Failed to invalidate user cache", cacheErr)
	}

	utils.WriteAndLogResponse(c, &schemas.MessageDTO{Message: "Email verified successfully!"}, http.StatusOK)
}

// LoginUser authenticates the user and returns a bearer access token.
func (handler *UserHandler) LoginUser(c *gin.Context) {
	loginRequest, ok := utils.GetSanitizedPayload[*schemas.LoginRequest](c)
	if !ok {
		return
	}

	ctx, cancel := context.WithDeadline(c.Request.Context(), time.Now().Add(10*time.Second))
	defer cancel()

	queryString := "SELECT user_id, password, is_verified FROM users WHERE email = $1"
	row := handler.DatabaseManager.GetPool().QueryRow(ctx, queryString, loginRequest.Email)

	var userID int64
	var passwordHash string
	var isVerified bool
	if err := row.Scan(&userID, &passwordHash, &isVerified); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(c, schemas.InvalidCredentials, http.StatusUnauthorized, err)
			return
		}
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if !hasher.Verify(loginRequest.Password, passwordHash) {
		utils.WriteAndLogError(c, schemas.InvalidCredentials, http.StatusUnauthorized, errors.New("wrong password"))
		return
	}

	if !isVerified {
		utils.WriteAndLogError(c, schemas.UserNotVerified, http.StatusForbidden, errors.New("email not verified"))
		return
	}

	token, err := handler.JWTManager.GenerateJWT(loginRequest.Email, managers.PurposeAccess, managers.AccessTokenTTL)
	if err != nil {
		utils.WriteAndLogError(c, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	tokenDto := &schemas.TokenDTO{
		AccessToken: token,
		TokenType:   "bearer",
	}
	utils.WriteAndLogResponse(c, tokenDto, http.StatusOK)
}

// GetMe returns the profile of the authenticated user.
func (handler *UserHandler) GetMe(c *gin.Context) {
	user, ok := utils.GetCurrentUser(c)
	if !ok {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, errors.New("no authenticated user"))
		return
	}

	utils.WriteAndLogResponse(c, user.UserDTO(), http.StatusOK)
}

// ListUsers returns all user accounts. The route is restricted to admins.
func (handler *UserHandler) ListUsers(c *gin.Context) {
	ctx, cancel := context.WithDeadline(c.Request.Context(), time.Now().Add(10*time.Second))
	defer cancel()

	queryString := "SELECT user_id, email, is_verified, role, avatar_url, created_at FROM users ORDER BY user_id"
	rows, err := handler.DatabaseManager.GetPool().Query(ctx, queryString)
	if err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	defer rows.Close()

	users := make([]schemas.UserDTO, 0)
	for rows.Next() {
		user := schemas.UserDTO{}
		if err := rows.Scan(&user.ID, &user.Email, &user.IsVerified, &user.Role, &user.AvatarURL, &user.CreatedAt); err != nil {
			utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}
		users = append(users, user)
	}

	utils.WriteAndLogResponse(c, users, http.StatusOK)
}

// UploadAvatar stores a new avatar image for the authenticated user. A user
// whose avatar is already set may only replace it with the admin role.
func (handler *UserHandler) UploadAvatar(c *gin.Context) {
	user, ok := utils.GetCurrentUser(c)
	if !ok {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, errors.New("no authenticated user"))
		return
	}

	if user.Role != schemas.RoleAdmin && user.AvatarURL != nil {
		utils.WriteAndLogError(c, schemas.InsufficientPermissions, http.StatusForbidden, errAvatarLocked)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.WriteAndLogError(c, schemas.FileUploadError, http.StatusBadRequest, err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.WriteAndLogError(c, schemas.FileUploadError, http.StatusBadRequest, err)
		return
	}
	defer file.Close()

	avatarURL, err := handler.StorageManager.UploadAvatar(c, user.ID, file, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		utils.WriteAndLogError(c, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	tx := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(c, tx)

	queryString := "UPDATE users SET avatar_url = $1 WHERE user_id = $2"
	if _, err = tx.Exec(c, queryString, avatarURL, user.ID); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(c, tx); err != nil {
		return
	}

	if cacheErr := handler.CacheManager.InvalidateUser(c, user.Email); cacheErr != nil {
		utils.LogMessageWithFieldsAndError(c, "warn", "Failed to invalidate user cache", cacheErr)
	}

	updated := user.UserDTO()
	updated.AvatarURL = &avatarURL
	utils.WriteAndLogResponse(c, updated, http.StatusOK)
}

// RequestPasswordReset issues a password reset token and mails it to the
// user. The response body is identical whether or not the account exists.
func (handler *UserHandler) RequestPasswordReset(c *gin.Context) {
	resetRequest, ok := utils.GetSanitizedPayload[*schemas.PasswordResetRequest](c)
	if !ok {
		return
	}

	ctx, cancel := context.WithDeadline(c.Request.Context(), time.Now().Add(10*time.Second))
	defer cancel()

	queryString := "SELECT user_id FROM users WHERE email = $1"
	row := handler.DatabaseManager.GetPool().QueryRow(ctx, queryString, resetRequest.Email)

	var userID int64
	err := row.Scan(&userID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err == nil {
		token, tokenErr := handler.JWTManager.GenerateJWT(resetRequest.Email, managers.PurposePasswordReset, managers.PasswordResetTokenTTL)
		if tokenErr != nil {
			utils.WriteAndLogError(c, schemas.InternalServerError, http.StatusInternalServerError, tokenErr)
			return
		}

		// A mail failure must not change the response shape.
		if mailErr := handler.MailManager.SendPasswordResetMail(resetRequest.Email, token); mailErr != nil {
			utils.LogMessageWithFieldsAndError(c, "warn", "Failed to send password reset mail", mailErr)
		}
	}

	utils.WriteAndLogResponse(c, &schemas.MessageDTO{Message: genericResetMessage}, http.StatusOK)
}

// ResetPassword redeems a password reset token and replaces the user's
// password hash.
func (handler *UserHandler) ResetPassword(c *gin.Context) {
	resetRequest, ok := utils.GetSanitizedPayload[*schemas.ResetPasswordRequest](c)
	if !ok {
		return
	}

	email, err := handler.JWTManager.ValidateJWT(resetRequest.Token, managers.PurposePasswordReset)
	if err != nil {
		utils.WriteAndLogError(c, schemas.InvalidResetToken, http.StatusBadRequest, err)
		return
	}

	hashedPassword, err := hasher.Hash(resetRequest.NewPassword)
	if err != nil {
		utils.WriteAndLogError(c, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	tx := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(c, tx)

	queryString := "UPDATE users SET password = $1 WHERE email = $2"
	commandTag, err := tx.Exec(c, queryString, hashedPassword, email)
	if err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if commandTag.RowsAffected() == 0 {
		utils.WriteAndLogError(c, schemas.InvalidResetToken, http.StatusBadRequest,
			errors.New("reset token references no known user"))
		return
	}

	if err = utils.CommitTransaction(c, tx); err != nil {
		return
	}

	if cacheErr := handler.CacheManager.InvalidateUser(c, email); cacheErr != nil {
		utils.LogMessageWithFieldsAndError(c, "warn", "Failed to invalidate user cache", cacheErr)
	}

	utils.WriteAndLogResponse(c, &schemas.MessageDTO{Message: "Password has been reset successfully"}, http.StatusOK)
}
