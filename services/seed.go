package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/princinho/moviecatalog/logging"
	"github.com/princinho/moviecatalog/models"
)

// DemoSeeder fills an empty catalog with a couple of users, movies and
// reviews. It goes through the services, so back-references and ratings end
// up exactly as they would for API traffic.
type DemoSeeder struct {
	identity *IdentityService
	catalog  *CatalogService
	feedback *FeedbackService
	users    UserStore
	password string
}

func NewDemoSeeder(identity *IdentityService, catalog *CatalogService, feedback *FeedbackService, users UserStore, password string) *DemoSeeder {
	return &DemoSeeder{identity: identity, catalog: catalog, feedback: feedback, users: users, password: password}
}

var demoUsers = []RegisterInput{
	{Name: "Admin User", Username: "admin", Email: "admin@example.com"},
	{Name: "Jane Doe", Username: "jane", Email: "jane@example.com"},
}

// Seed is a no-op when the catalog already holds movies.
func (s *DemoSeeder) Seed(ctx context.Context) error {
	existing, err := s.catalog.movies.List(ctx, 0, 1)
	if err != nil {
		return fmt.Errorf("check catalog: %w", err)
	}
	if len(existing) > 0 {
		logging.Info().Msg("catalog already has movies, skipping demo seed")
		return nil
	}

	ids := make([]string, 0, len(demoUsers))
	for _, in := range demoUsers {
		in.Password = s.password
		u, err := s.identity.Register(ctx, in)
		if errors.Is(err, ErrUserExists) {
			u, err = s.users.FindByLogin(ctx, in.Username)
		}
		if err != nil {
			return fmt.Errorf("seed user %s: %w", in.Username, err)
		}
		ids = append(ids, u.ID)
	}
	admin, jane := ids[0], ids[1]

	inception, err := s.catalog.CreateMovie(ctx, admin, MovieInput{
		Title:       "Inception",
		Year:        2010,
		Description: "A thief who steals corporate secrets through dream-sharing technology.",
		Images:      []string{"https://cdn.mos.cms.futurecdn.net/N9nCdJHgqde57jcyAnd2KL-600-80.jpg"},
		Cast: []CastInput{
			{Name: "Leonardo DiCaprio", Role: string(models.RoleActor)},
			{Name: "Steven Spielberg", Role: string(models.RoleProducer)},
		},
	})
	if err != nil {
		return fmt.Errorf("seed movie: %w", err)
	}

	// Reuse the actor created above so the back-reference list holds two movies.
	leo := inception.Cast[0].PersonID
	wolf, err := s.catalog.CreateMovie(ctx, jane, MovieInput{
		Title:       "The Wolf of Wall Street",
		Year:        2013,
		Description: "Based on the true story of Jordan Belfort.",
		Images:      []string{"https://i.ytimg.com/vi/ODKm9oIDg_o/maxresdefault.jpg"},
		Cast: []CastInput{
			{ID: leo, Role: string(models.RoleActor)},
			{Name: "Margot Robbie", Role: string(models.RoleActor)},
			{Name: "Kathleen Kennedy", Role: string(models.RoleProducer)},
		},
	})
	if err != nil {
		return fmt.Errorf("seed movie: %w", err)
	}

	reviews := []struct {
		movie, user string
		rating      float64
		review      string
	}{
		{inception.ID, jane, 5, "Mind-bending and beautifully shot."},
		{inception.ID, admin, 4, "Still thinking about the ending."},
		{wolf.ID, admin, 4, "Wild ride from start to finish."},
	}
	for _, r := range reviews {
		if _, err := s.feedback.Submit(ctx, r.movie, r.user, r.rating, r.review); err != nil && !errors.Is(err, ErrFeedbackExists) {
			return fmt.Errorf("seed feedback: %w", err)
		}
	}

	logging.Info().Int("users", len(ids)).Int("movies", 2).Msg("demo catalog seeded")
	return nil
}
