package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princinho/moviecatalog/config"
	"github.com/princinho/moviecatalog/dto"
	"github.com/princinho/moviecatalog/middleware"
	"github.com/princinho/moviecatalog/models"
	"github.com/princinho/moviecatalog/services"
	"github.com/princinho/moviecatalog/utils"
)

// Catalog is the part of services.CatalogService the movie and people routes use.
type Catalog interface {
	CreateMovie(ctx context.Context, userID string, in services.MovieInput) (*models.Movie, error)
	UpdateMovie(ctx context.Context, userID, movieID string, patch services.MoviePatch) (*models.Movie, error)
	GetMovie(ctx context.Context, movieID, viewerID string) (*services.MovieDetail, error)
	ListMovies(ctx context.Context, viewerID string, skip, limit int64) (*services.MovieListing, error)
	SearchPeople(ctx context.Context, role models.Role, query string, skip, limit int64) ([]models.Person, error)
	GetPerson(ctx context.Context, role models.Role, id string) (*models.Person, error)
	CreatePerson(ctx context.Context, role models.Role, name, imageURL string) (*models.Person, error)
}

type movieDetailResponse struct {
	*models.Movie
	Cast        []services.CastMember `json:"cast"`
	IsUserMovie *bool                 `json:"is_user_movie,omitempty"`
}

func ListMovies(catalog Catalog, cfg config.ServerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := utils.ParsePage(c.Query("page"), c.Query("limit"), cfg.DefaultPageSize, cfg.MaxPageSize)

		listing, err := catalog.ListMovies(c.Request.Context(), middleware.UserID(c), page.Skip(), int64(page.Limit))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": listing, "page": page.Page, "limit": page.Limit})
	}
}

func GetMovie(catalog Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		detail, err := catalog.GetMovie(c.Request.Context(), c.Param("id"), middleware.UserID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": movieDetailResponse{
			Movie:       detail.Movie,
			Cast:        detail.Cast,
			IsUserMovie: detail.IsUserMovie,
		}})
	}
}

func CreateMovie(catalog Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.CreateMovieDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			bindError(c, err)
			return
		}

		movie, err := catalog.CreateMovie(c.Request.Context(), middleware.UserID(c), body.Input())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": movie})
	}
}

func UpdateMovie(catalog Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.UpdateMovieDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			bindError(c, err)
			return
		}

		movie, err := catalog.UpdateMovie(c.Request.Context(), middleware.UserID(c), c.Param("id"), body.Patch())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Movie updated successfully", "data": movie})
	}
}
