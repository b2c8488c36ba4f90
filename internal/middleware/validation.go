package middleware

import (
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"

	"contacts-server/internal/schemas"
	"contacts-server/internal/utils"
	"contacts-server/internal/validators"
)

// ValidateAndSanitizeStruct binds the request body into a fresh instance of
// the prototype's type, sanitizes its string fields and validates it. The
// validated payload is stored in the request context under SanitizedPayloadKey.
func ValidateAndSanitizeStruct(prototype interface{}) gin.HandlerFunc {
	prototypeType := reflect.TypeOf(prototype).Elem()

	return func(c *gin.Context) {
		obj := reflect.New(prototypeType).Interface()

		if err := c.ShouldBindJSON(obj); err != nil {
			utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, err)
			return
		}

		validator := validators.GetValidator()
		validator.SanitizeData(obj)

		if err := validator.Validate.Struct(obj); err != nil {
			utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, err)
			return
		}

		c.Set(utils.SanitizedPayloadKey.String(), obj)
		c.Next()
	}
}
