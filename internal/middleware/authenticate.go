package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"contacts-server/internal/managers"
	"contacts-server/internal/schemas"
	"contacts-server/internal/utils"
)

var errNoToken = errors.New("no bearer token provided")
var errUnknownUser = errors.New("token subject references no known user")

// Authenticate resolves the bearer token of a request into the authenticated
// user. The token must carry the access purpose. The user snapshot is looked
// up in the cache first; only on a miss is the database consulted, and the
// result is written back to the cache with the default TTL. Any failure along
// the way yields 401.
func Authenticate(jwtMgr managers.JWTMgr, cacheMgr managers.CacheMgr, databaseMgr managers.DatabaseMgr) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := extractBearerToken(c)
		if err != nil {
			utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, err)
			return
		}

		email, err := jwtMgr.ValidateJWT(tokenString, managers.PurposeAccess)
		if err != nil {
			utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, err)
			return
		}

		user, err := cacheMgr.GetUser(c, email)
		if err == nil {
			c.Set(utils.UserKey.String(), user)
			c.Next()
			return
		}
		if !errors.Is(err, managers.ErrCacheMiss) {
			// An unreachable cache degrades to a miss; the database stays authoritative.
			utils.LogMessageWithFieldsAndError(c, "warn", "User cache unavailable", err)
		}

		user, err = fetchUserByEmail(c, databaseMgr, email)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, errUnknownUser)
			} else {
				utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
			}
			return
		}

		if cacheErr := cacheMgr.SetUser(c, email, user, managers.DefaultUserCacheTTL); cacheErr != nil {
			utils.LogMessageWithFieldsAndError(c, "warn", "Failed to populate user cache", cacheErr)
		}

		c.Set(utils.UserKey.String(), user)
		c.Next()
	}
}

// RequireRole passes the request through when the authenticated user's role
// is in the permitted set and fails with 403 otherwise. It must be composed
// after Authenticate.
func RequireRole(roles ...schemas.UserRole) gin.HandlerFunc {
	permitted := make(map[schemas.UserRole]struct{}, len(roles))
	for _, role := range roles {
		permitted[role] = struct{}{}
	}

	return func(c *gin.Context) {
		user, ok := utils.GetCurrentUser(c)
		if !ok {
			utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, errNoToken)
			return
		}

		if _, allowed := permitted[user.Role]; !allowed {
			utils.WriteAndLogError(c, schemas.InsufficientPermissions, http.StatusForbidden,
				errors.New("role not permitted for this operation"))
			return
		}

		c.Next()
	}
}

func extractBearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", errNoToken
	}

	tokenString := strings.TrimPrefix(header, "Bearer ")
	if tokenString == header || tokenString == "" {
		return "", errNoToken
	}

	return tokenString, nil
}

func fetchUserByEmail(c *gin.Context, databaseMgr managers.DatabaseMgr, email string) (*schemas.CachedUser, error) {
	queryString := "SELECT user_id, email, is_verified, role, avatar_url, created_at FROM users WHERE email = $1"
	row := databaseMgr.GetPool().QueryRow(c, queryString, email)

	user := &schemas.CachedUser{}
	if err := row.Scan(&user.ID, &user.Email, &user.IsVerified, &user.Role, &user.AvatarURL, &user.CreatedAt); err != nil {
		return nil, err
	}

	return user, nil
}
