// Package routing sets up the gin engine, the shared middleware chain and the
// route tree of the API.
package routing

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"contacts-server/internal/handlers"
	"contacts-server/internal/managers"
	"contacts-server/internal/middleware"
	"contacts-server/internal/schemas"
)

const apiVersion = "1.0.0"

// InitRouter wires the managers into the handler layer and returns the
// configured engine. The limiter client may be nil, in which case the
// rate-limiting middleware is a no-op.
func InitRouter(databaseMgr managers.DatabaseMgr, mailMgr managers.MailMgr, jwtMgr managers.JWTMgr,
	cacheMgr managers.CacheMgr, storageMgr managers.StorageMgr, limiter *redis.Client) *gin.Engine {
	router := gin.New()
	setupCommonMiddleware(router)
	setupRoutes(router, databaseMgr, mailMgr, jwtMgr, cacheMgr, storageMgr, limiter)

	return router
}

func setupCommonMiddleware(router *gin.Engine) {
	router.Use(middleware.InjectTrace())
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Accept", "Authorization", "Content-Type", "Origin"},
		ExposeHeaders: []string{"Content-Length", "Content-Type", "X-Trace-Id"},
		MaxAge:        12 * time.Hour,
	}))
	router.Use(middleware.LogRequest())
}

func setupRoutes(router *gin.Engine, databaseMgr managers.DatabaseMgr, mailMgr managers.MailMgr,
	jwtMgr managers.JWTMgr, cacheMgr managers.CacheMgr, storageMgr managers.StorageMgr, limiter *redis.Client) {
	router.GET("/", func(c *gin.Context) {
		metadata := &schemas.MetadataDTO{
			ApiVersion: apiVersion,
			ApiName:    "Contacts Server",
		}
		c.JSON(http.StatusOK, metadata)
	})

	router.GET("/health", func(c *gin.Context) {
		if err := databaseMgr.GetPool().Ping(c); err != nil {
			c.String(http.StatusInternalServerError, "Database not responding")
			return
		}
		c.Status(http.StatusOK)
	})

	api := router.Group("/api")
	{
		users := api.Group("/users")
		userRoutes(users, databaseMgr, mailMgr, jwtMgr, cacheMgr, storageMgr, limiter)

		contacts := api.Group("/contacts")
		contacts.Use(middleware.Authenticate(jwtMgr, cacheMgr, databaseMgr))
		contactRoutes(contacts, databaseMgr)
	}
}

func userRoutes(users *gin.RouterGroup, databaseMgr managers.DatabaseMgr, mailMgr managers.MailMgr,
	jwtMgr managers.JWTMgr, cacheMgr managers.CacheMgr, storageMgr managers.StorageMgr, limiter *redis.Client) {
	userHdl := handlers.NewUserHandler(databaseMgr, jwtMgr, mailMgr, cacheMgr, storageMgr)

	users.POST("/register", middleware.ValidateAndSanitizeStruct(&schemas.RegistrationRequest{}), userHdl.RegisterUser)
	users.GET("/verify", userHdl.VerifyEmail)
	users.POST("/login", middleware.ValidateAndSanitizeStruct(&schemas.LoginRequest{}), userHdl.LoginUser)
	users.POST("/password-reset-request",
		middleware.RateLimit(limiter, 3, time.Hour, "password-reset"),
		middleware.ValidateAndSanitizeStruct(&schemas.PasswordResetRequest{}),
		userHdl.RequestPasswordReset)
	users.POST("/reset-password", middleware.ValidateAndSanitizeStruct(&schemas.ResetPasswordRequest{}), userHdl.ResetPassword)

	users.Use(middleware.Authenticate(jwtMgr, cacheMgr, databaseMgr))
	users.GET("/me", middleware.RateLimit(limiter, 5, time.Minute, "me"), userHdl.GetMe)
	users.POST("/avatar", userHdl.UploadAvatar)
	users.GET("", middleware.RequireRole(schemas.RoleAdmin), userHdl.ListUsers)
}

func contactRoutes(contacts *gin.RouterGroup, databaseMgr managers.DatabaseMgr) {
	contactHdl := handlers.NewContactHandler(databaseMgr)

	contacts.POST("", middleware.ValidateAndSanitizeStruct(&schemas.ContactRequest{}), contactHdl.CreateContact)
	contacts.GET("", contactHdl.GetContacts)
	contacts.GET("/search", contactHdl.SearchContacts)
	contacts.GET("/birthdays", contactHdl.UpcomingBirthdays)
	contacts.GET("/:contactId", contactHdl.GetContact)
	contacts.PUT("/:contactId", middleware.ValidateAndSanitizeStruct(&schemas.ContactRequest{}), contactHdl.UpdateContact)
	contacts.DELETE("/:contactId", contactHdl.DeleteContact)
}
