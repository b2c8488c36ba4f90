package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"contacts-server/internal/schemas"
)

// WriteAndLogResponse writes the response object as JSON with the given
// status code and logs the outcome.
func WriteAndLogResponse(ctx *gin.Context, response interface{}, statusCode int) {
	LogMessageWithFields(ctx, "info", "Returning response")
	ctx.JSON(statusCode, response)
}

// WriteAndLogError logs the provided error and sends an error response with
// the specified status code and error details.
func WriteAndLogError(ctx *gin.Context, customErr *schemas.CustomError, statusCode int, err error) {
	LogMessageWithFieldsAndError(ctx, "error", "Returning "+customErr.Code+" / "+customErr.Message, err)
	ctx.AbortWithStatusJSON(statusCode, &schemas.ErrorDTO{Error: *customErr})
}

// GetCurrentUser returns the authenticated user's snapshot placed into the
// context by the authentication middleware. When absent the request is
// unauthorized and the caller must stop processing.
func GetCurrentUser(ctx *gin.Context) (*schemas.CachedUser, bool) {
	value, exists := ctx.Get(UserKey.String())
	if !exists {
		return nil, false
	}

	user, ok := value.(*schemas.CachedUser)
	return user, ok
}

// GetSanitizedPayload returns the request body bound and validated by the
// validation middleware. A missing payload is a programming error and is
// surfaced as an internal server error.
func GetSanitizedPayload[T any](ctx *gin.Context) (T, bool) {
	var zero T

	value, exists := ctx.Get(SanitizedPayloadKey.String())
	if !exists {
		WriteAndLogError(ctx, schemas.InternalServerError, http.StatusInternalServerError, errMissingPayload)
		return zero, false
	}

	payload, ok := value.(T)
	if !ok {
		WriteAndLogError(ctx, schemas.InternalServerError, http.StatusInternalServerError, errMissingPayload)
		return zero, false
	}

	return payload, true
}
