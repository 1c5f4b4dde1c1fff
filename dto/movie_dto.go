package dto

import "github.com/princinho/moviecatalog/services"

type CastMemberDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name" binding:"required_without=ID"`
	ImageURL string `json:"imageUrl" binding:"omitempty,url"`
	Role     string `json:"role" binding:"required,oneof=actor producer"`
}

// CreatePersonDTO creates an actor or producer outside of a movie.
type CreatePersonDTO struct {
	Name     string `json:"name" binding:"required"`
	ImageURL string `json:"imageUrl" binding:"omitempty,url"`
}

type CreateMovieDTO struct {
	Title       string          `json:"title" binding:"required"`
	Year        int             `json:"year" binding:"required,gte=1888"`
	Description string          `json:"description"`
	Images      []string        `json:"images" binding:"required,min=1,dive,url"`
	Cast        []CastMemberDTO `json:"cast" binding:"required,oneproducer,dive"`
}

// UpdateMovieDTO is a partial update; omitted fields stay unchanged.
// A cast, when present, replaces the whole cast.
type UpdateMovieDTO struct {
	Title       *string          `json:"title" binding:"omitempty,min=1"`
	Year        *int             `json:"year" binding:"omitempty,gte=1888"`
	Description *string          `json:"description"`
	Images      *[]string        `json:"images" binding:"omitempty,min=1,dive,url"`
	Cast        *[]CastMemberDTO `json:"cast" binding:"omitempty,oneproducer,dive"`
}

func castInputs(in []CastMemberDTO) []services.CastInput {
	out := make([]services.CastInput, 0, len(in))
	for _, c := range in {
		out = append(out, services.CastInput{ID: c.ID, Name: c.Name, ImageURL: c.ImageURL, Role: c.Role})
	}
	return out
}

func (d CreateMovieDTO) Input() services.MovieInput {
	return services.MovieInput{
		Title:       d.Title,
		Year:        d.Year,
		Description: d.Description,
		Images:      d.Images,
		Cast:        castInputs(d.Cast),
	}
}

func (d UpdateMovieDTO) Patch() services.MoviePatch {
	p := services.MoviePatch{
		Title:       d.Title,
		Year:        d.Year,
		Description: d.Description,
		Images:      d.Images,
	}
	if d.Cast != nil {
		cast := castInputs(*d.Cast)
		p.Cast = &cast
	}
	return p
}

type FeedbackDTO struct {
	UserRating *float64 `json:"userRating" binding:"required,gte=0,lte=5"`
	UserReview string   `json:"userReview" binding:"required"`
}
