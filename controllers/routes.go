package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/princinho/moviecatalog/config"
	"github.com/princinho/moviecatalog/middleware"
	"github.com/princinho/moviecatalog/models"
	"github.com/redis/go-redis/v9"
)

// Deps carries everything the routes need.
type Deps struct {
	Config   *config.Config
	Identity Identity
	Tokens   middleware.AccessTokenValidator
	Catalog  Catalog
	Feedback Feedback
	Uploader FileUploader
	DB       Pinger
	Redis    *redis.Client
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	auth := middleware.AuthMiddleware(d.Tokens, d.Identity)
	optional := middleware.OptionalAuthMiddleware(d.Tokens, d.Identity)
	server := d.Config.Server

	r.GET("/ping", Ping())

	authGroup := r.Group("/auth")
	authGroup.Use(middleware.RateLimit(d.Config.RateLimit, d.Redis))
	{
		authGroup.POST("/register", Register(d.Identity))
		authGroup.POST("/login", Login(d.Identity, d.Config.Auth))
		authGroup.POST("/refresh", Refresh(d.Identity))
		authGroup.POST("/logout", Logout(d.Identity, d.Config.Auth))
		authGroup.POST("/logout-all", auth, LogoutAll(d.Identity, d.Config.Auth))
	}

	r.POST("/uploads", auth, UploadFile(d.Uploader))

	api := r.Group("/api")
	{
		api.GET("/health", Health(d.DB))
		api.GET("/me", auth, Me(d.Identity))

		api.GET("/movies", optional, ListMovies(d.Catalog, server))
		api.POST("/movies", auth, CreateMovie(d.Catalog))
		api.GET("/movies/:id", optional, GetMovie(d.Catalog))
		api.PATCH("/movies/:id", auth, UpdateMovie(d.Catalog))

		api.GET("/movies/:id/feedback", optional, ListFeedback(d.Feedback))
		api.POST("/movies/:id/feedback", auth, SubmitFeedback(d.Feedback))
		api.PATCH("/movies/:id/feedback", auth, UpdateFeedback(d.Feedback))

		api.GET("/actors", ListPeople(d.Catalog, models.RoleActor, server))
		api.GET("/actors/:id", GetPerson(d.Catalog, models.RoleActor))
		api.POST("/actors", auth, CreatePerson(d.Catalog, models.RoleActor))
		api.GET("/producers", ListPeople(d.Catalog, models.RoleProducer, server))
		api.GET("/producers/:id", GetPerson(d.Catalog, models.RoleProducer))
		api.POST("/producers", auth, CreatePerson(d.Catalog, models.RoleProducer))
	}
}
