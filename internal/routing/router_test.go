package routing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/gin-gonic/gin"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"contacts-server/internal/hasher"
	"contacts-server/internal/managers"
	"contacts-server/internal/managers/mocks"
	"contacts-server/internal/schemas"
)

type testEnv struct {
	databaseMgr *mocks.MockDatabaseManager
	poolMock    pgxmock.PgxPoolIface
	mailMgr     *mocks.MockMailManager
	jwtMgr      managers.JWTMgr
	cacheMgr    managers.CacheMgr
	server      *httptest.Server
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("ENVIRONMENT", "test")

	poolMock, err := pgxmock.NewPool()
	require.NoError(t, err)

	databaseMgrMock := &mocks.MockDatabaseManager{}
	databaseMgrMock.On("GetPool").Return(poolMock)

	mailMgrMock := &mocks.MockMailManager{}
	jwtMgr := managers.NewJWTManager([]byte("router-test-secret"))
	cacheMgr := managers.NewMemoryCacheManager()
	storageMgrMock := &mocks.MockStorageManager{}

	router := InitRouter(databaseMgrMock, mailMgrMock, jwtMgr, cacheMgr, storageMgrMock, nil)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testEnv{
		databaseMgr: databaseMgrMock,
		poolMock:    poolMock,
		mailMgr:     mailMgrMock,
		jwtMgr:      jwtMgr,
		cacheMgr:    cacheMgr,
		server:      server,
	}
}

func TestUserRegistration(t *testing.T) {
	testCases := []struct {
		name         string
		email        string
		password     string
		status       int
		expectedCode string
	}{
		{"ValidRegistration", "new@example.com", "test.Password123", http.StatusCreated, ""},
		{"InvalidEmail", "not-an-email", "test.Password123", http.StatusBadRequest, schemas.BadRequest.Code},
		{"WeakPassword", "weak@example.com", "password", http.StatusBadRequest, schemas.BadRequest.Code},
		{"DuplicateEmail", "taken@example.com", "test.Password123", http.StatusConflict, schemas.EmailTaken.Code},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := setupTestEnv(t)

			switch tc.name {
			case "ValidRegistration":
				createdAt := time.Now().UTC()
				env.poolMock.ExpectBegin()
				env.poolMock.ExpectQuery("SELECT user_id FROM users").WithArgs(tc.email).
					WillReturnRows(pgxmock.NewRows([]string{"user_id"}))
				env.poolMock.ExpectQuery("INSERT INTO users").WithArgs(tc.email, pgxmock.AnyArg(), schemas.RoleUser).
					WillReturnRows(pgxmock.NewRows([]string{"user_id", "created_at"}).AddRow(int64(1), &createdAt))
				env.poolMock.ExpectCommit()
				env.mailMgr.On("SendVerificationMail", tc.email, mock.AnythingOfType("string")).Return(nil)
			case "DuplicateEmail":
				env.poolMock.ExpectBegin()
				env.poolMock.ExpectQuery("SELECT user_id FROM users").WithArgs(tc.email).
					WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(int64(7)))
				env.poolMock.ExpectRollback()
			}

			expect := httpexpect.Default(t, env.server.URL)
			response := expect.POST("/api/users/register").
				WithJSON(map[string]string{"email": tc.email, "password": tc.password}).
				Expect().Status(tc.status)

			if tc.expectedCode != "" {
				response.JSON().Object().Value("error").Object().
					HasValue("code", tc.expectedCode)
			} else {
				response.JSON().Object().
					HasValue("email", tc.email).
					HasValue("is_verified", false)
			}

			require.NoError(t, env.poolMock.ExpectationsWereMet())
			env.mailMgr.AssertExpectations(t)
		})
	}
}

func TestEmailVerification(t *testing.T) {
	env := setupTestEnv(t)

	token, err := env.jwtMgr.GenerateJWT("new@example.com", managers.PurposeAccess, managers.AccessTokenTTL)
	require.NoError(t, err)

	env.poolMock.ExpectBegin()
	env.poolMock.ExpectExec("UPDATE users SET is_verified").WithArgs("new@example.com").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	env.poolMock.ExpectCommit()

	expect := httpexpect.Default(t, env.server.URL)
	expect.GET("/api/users/verify").WithQuery("token", token).
		Expect().Status(http.StatusOK).
		JSON().Object().HasValue("message", "Email verified successfully!")

	require.NoError(t, env.poolMock.ExpectationsWereMet())
}

func TestEmailVerificationRejectsGarbageToken(t *testing.T) {
	env := setupTestEnv(t)

	expect := httpexpect.Default(t, env.server.URL)
	expect.GET("/api/users/verify").WithQuery("token", "garbage").
		Expect().Status(http.StatusBadRequest).
		JSON().Object().Value("error").Object().
		HasValue("code", schemas.InvalidVerificationToken.Code)

	require.NoError(t, env.poolMock.ExpectationsWereMet())
}

func TestUserLogin(t *testing.T) {
	const password = "test.Password123"
	passwordHash, err := hasher.Hash(password)
	require.NoError(t, err)

	testCases := []struct {
		name         string
		password     string
		isVerified   bool
		knownUser    bool
		status       int
		expectedCode string
	}{
		{"ValidLogin", password, true, true, http.StatusOK, ""},
		{"WrongPassword", "wrong.Password123", true, true, http.StatusUnauthorized, schemas.InvalidCredentials.Code},
		{"UnknownEmail", password, true, false, http.StatusUnauthorized, schemas.InvalidCredentials.Code},
		{"UnverifiedUser", password, false, true, http.StatusForbidden, schemas.UserNotVerified.Code},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := setupTestEnv(t)

			rows := pgxmock.NewRows([]string{"user_id", "password", "is_verified"})
			if tc.knownUser {
				rows.AddRow(int64(1), passwordHash, tc.isVerified)
			}
			env.poolMock.ExpectQuery("SELECT user_id, password, is_verified FROM users").
				WithArgs("alice@example.com").WillReturnRows(rows)

			expect := httpexpect.Default(t, env.server.URL)
			response := expect.POST("/api/users/login").
				WithJSON(map[string]string{"email": "alice@example.com", "password": tc.password}).
				Expect().Status(tc.status)

			if tc.expectedCode != "" {
				response.JSON().Object().Value("error").Object().
					HasValue("code", tc.expectedCode)
			} else {
				body := response.JSON().Object()
				body.HasValue("token_type", "bearer")
				tokenString := body.Value("access_token").String().NotEmpty().Raw()

				subject, err := env.jwtMgr.ValidateJWT(tokenString, managers.PurposeAccess)
				require.NoError(t, err)
				require.Equal(t, "alice@example.com", subject)
			}

			require.NoError(t, env.poolMock.ExpectationsWereMet())
		})
	}
}

// The reset request must not reveal whether the email is registered, so the
// response body has to be byte-identical for both cases.
func TestPasswordResetRequestGenericBody(t *testing.T) {
	knownEnv := setupTestEnv(t)
	knownEnv.poolMock.ExpectQuery("SELECT user_id FROM users").WithArgs("known@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(int64(1)))
	knownEnv.mailMgr.On("SendPasswordResetMail", "known@example.com", mock.AnythingOfType("string")).Return(nil)

	unknownEnv := setupTestEnv(t)
	unknownEnv.poolMock.ExpectQuery("SELECT user_id FROM users").WithArgs("unknown@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}))

	knownBody := httpexpect.Default(t, knownEnv.server.URL).POST("/api/users/password-reset-request").
		WithJSON(map[string]string{"email": "known@example.com"}).
		Expect().Status(http.StatusOK).Body().Raw()
	unknownBody := httpexpect.Default(t, unknownEnv.server.URL).POST("/api/users/password-reset-request").
		WithJSON(map[string]string{"email": "unknown@example.com"}).
		Expect().Status(http.StatusOK).Body().Raw()

	require.Equal(t, knownBody, unknownBody)
	require.NoError(t, knownEnv.poolMock.ExpectationsWereMet())
	require.NoError(t, unknownEnv.poolMock.ExpectationsWereMet())
	knownEnv.mailMgr.AssertExpectations(t)
}

func TestResetPassword(t *testing.T) {
	env := setupTestEnv(t)

	token, err := env.jwtMgr.GenerateJWT("alice@example.com", managers.PurposePasswordReset, managers.PasswordResetTokenTTL)
	require.NoError(t, err)

	env.poolMock.ExpectBegin()
	env.poolMock.ExpectExec("UPDATE users SET password").WithArgs(pgxmock.AnyArg(), "alice@example.com").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	env.poolMock.ExpectCommit()

	expect := httpexpect.Default(t, env.server.URL)
	expect.POST("/api/users/reset-password").
		WithJSON(map[string]string{"token": token, "new_password": "new.Password456"}).
		Expect().Status(http.StatusOK)

	require.NoError(t, env.poolMock.ExpectationsWereMet())
}

func TestResetPasswordRejectsAccessToken(t *testing.T) {
	env := setupTestEnv(t)

	token, err := env.jwtMgr.GenerateJWT("alice@example.com", managers.PurposeAccess, managers.AccessTokenTTL)
	require.NoError(t, err)

	expect := httpexpect.Default(t, env.server.URL)
	expect.POST("/api/users/reset-password").
		WithJSON(map[string]string{"token": token, "new_password": "new.Password456"}).
		Expect().Status(http.StatusBadRequest).
		JSON().Object().Value("error").Object().
		HasValue("code", schemas.InvalidResetToken.Code)

	require.NoError(t, env.poolMock.ExpectationsWereMet())
}

// authenticate seeds the cache with a user snapshot and returns a matching
// bearer token, so protected routes can be exercised without extra pool reads.
func authenticate(t *testing.T, env *testEnv, user *schemas.CachedUser) string {
	t.Helper()

	require.NoError(t, env.cacheMgr.SetUser(context.Background(), user.Email, user, managers.DefaultUserCacheTTL))
	token, err := env.jwtMgr.GenerateJWT(user.Email, managers.PurposeAccess, managers.AccessTokenTTL)
	require.NoError(t, err)
	return token
}

func TestGetMe(t *testing.T) {
	env := setupTestEnv(t)
	token := authenticate(t, env, &schemas.CachedUser{ID: 1, Email: "alice@example.com", IsVerified: true, Role: schemas.RoleUser})

	expect := httpexpect.Default(t, env.server.URL)
	expect.GET("/api/users/me").WithHeader("Authorization", "Bearer "+token).
		Expect().Status(http.StatusOK).
		JSON().Object().
		HasValue("email", "alice@example.com").
		HasValue("is_verified", true)

	require.NoError(t, env.poolMock.ExpectationsWereMet())
}

func TestListUsersRequiresAdmin(t *testing.T) {
	env := setupTestEnv(t)
	token := authenticate(t, env, &schemas.CachedUser{ID: 1, Email: "alice@example.com", IsVerified: true, Role: schemas.RoleUser})

	expect := httpexpect.Default(t, env.server.URL)
	expect.GET("/api/users").WithHeader("Authorization", "Bearer "+token).
		Expect().Status(http.StatusForbidden).
		JSON().Object().Value("error").Object().
		HasValue("code", schemas.InsufficientPermissions.Code)
}

func TestContactLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	token := authenticate(t, env, &schemas.CachedUser{ID: 1, Email: "alice@example.com", IsVerified: true, Role: schemas.RoleUser})

	createdAt := time.Now().UTC()
	birthDate := time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC)

	env.poolMock.ExpectBegin()
	env.poolMock.ExpectQuery("INSERT INTO contacts").
		WithArgs(int64(1), "Bob", "Miller", "bob@example.com", "+4915112345678", pgxmock.AnyArg(), (*string)(nil)).
		WillReturnRows(pgxmock.NewRows([]string{"contact_id", "created_at", "updated_at"}).
			AddRow(int64(10), &createdAt, &createdAt))
	env.poolMock.ExpectCommit()

	env.poolMock.ExpectQuery("SELECT (.+) FROM contacts WHERE contact_id").
		WithArgs(int64(10), int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"contact_id", "user_id", "first_name", "last_name", "email",
			"phone_number", "birth_date", "additional_info", "created_at", "updated_at"}).
			AddRow(int64(10), int64(1), "Bob", "Miller", "bob@example.com", "+4915112345678",
				&birthDate, (*string)(nil), &createdAt, &createdAt))

	expect := httpexpect.Default(t, env.server.URL)

	expect.POST("/api/contacts").WithHeader("Authorization", "Bearer "+token).
		WithJSON(map[string]string{
			"first_name":   "Bob",
			"last_name":    "Miller",
			"email":        "bob@example.com",
			"phone_number": "+4915112345678",
			"birth_date":   "1990-04-12",
		}).
		Expect().Status(http.StatusCreated).
		JSON().Object().
		HasValue("id", 10).
		HasValue("first_name", "Bob")

	expect.GET("/api/contacts/10").WithHeader("Authorization", "Bearer "+token).
		Expect().Status(http.StatusOK).
		JSON().Object().
		HasValue("birth_date", "1990-04-12")

	require.NoError(t, env.poolMock.ExpectationsWereMet())
}

// A contact owned by another user must look exactly like a missing one.
func TestForeignContactIsNotFound(t *testing.T) {
	env := setupTestEnv(t)
	token := authenticate(t, env, &schemas.CachedUser{ID: 2, Email: "mallory@example.com", IsVerified: true, Role: schemas.RoleUser})

	env.poolMock.ExpectQuery("SELECT (.+) FROM contacts WHERE contact_id").
		WithArgs(int64(10), int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"contact_id", "user_id", "first_name", "last_name", "email",
			"phone_number", "birth_date", "additional_info", "created_at", "updated_at"}))

	expect := httpexpect.Default(t, env.server.URL)
	expect.GET("/api/contacts/10").WithHeader("Authorization", "Bearer "+token).
		Expect().Status(http.StatusNotFound).
		JSON().Object().Value("error").Object().
		HasValue("code", schemas.ContactNotFound.Code)

	require.NoError(t, env.poolMock.ExpectationsWereMet())
}

func TestContactsRequireAuthentication(t *testing.T) {
	env := setupTestEnv(t)

	expect := httpexpect.Default(t, env.server.URL)
	expect.GET("/api/contacts").
		Expect().Status(http.StatusUnauthorized).
		JSON().Object().Value("error").Object().
		HasValue("code", schemas.Unauthorized.Code)
}
