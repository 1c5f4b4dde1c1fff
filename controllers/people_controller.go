package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princinho/moviecatalog/config"
	"github.com/princinho/moviecatalog/dto"
	"github.com/princinho/moviecatalog/models"
	"github.com/princinho/moviecatalog/utils"
)

type personSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// ListPeople serves GET /api/actors and /api/producers with ?search, ?page and ?limit.
func ListPeople(catalog Catalog, role models.Role, cfg config.ServerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := utils.ParsePage(c.Query("page"), c.Query("limit"), cfg.DefaultPageSize, cfg.MaxPageSize)

		people, err := catalog.SearchPeople(c.Request.Context(), role, c.Query("search"), page.Skip(), int64(page.Limit))
		if err != nil {
			respondError(c, err)
			return
		}
		out := make([]personSummary, 0, len(people))
		for _, p := range people {
			out = append(out, personSummary{ID: p.ID, Name: p.Name, ImageURL: p.ImageURL})
		}
		c.JSON(http.StatusOK, gin.H{"data": out, "page": page.Page, "limit": page.Limit})
	}
}

func GetPerson(catalog Catalog, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := catalog.GetPerson(c.Request.Context(), role, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": p})
	}
}

// CreatePerson serves POST /api/actors and /api/producers.
func CreatePerson(catalog Catalog, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.CreatePersonDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			bindError(c, err)
			return
		}

		p, err := catalog.CreatePerson(c.Request.Context(), role, body.Name, body.ImageURL)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": p})
	}
}
