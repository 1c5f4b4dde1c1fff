package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/princinho/moviecatalog/database"
	"github.com/princinho/moviecatalog/events"
	"github.com/princinho/moviecatalog/logging"
	"github.com/princinho/moviecatalog/metrics"
	"github.com/princinho/moviecatalog/models"
)

// CatalogService owns movies and the people they reference.
type CatalogService struct {
	movies     MovieStore
	people     PeopleStores
	reconciler *CastReconciler
	tx         Transactor
	events     EventPublisher
	now        func() time.Time
	newID      func() string
}

func NewCatalogService(movies MovieStore, people PeopleStores, tx Transactor, publisher EventPublisher) *CatalogService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &CatalogService{
		movies:     movies,
		people:     people,
		reconciler: NewCastReconciler(people),
		tx:         tx,
		events:     publisher,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
}

type MovieInput struct {
	Title       string
	Year        int
	Description string
	Images      []string
	Cast        []CastInput
}

// MoviePatch holds the fields of a partial update; nil means unchanged.
// A non-nil Cast replaces the whole cast and triggers reconciliation.
type MoviePatch struct {
	Title       *string
	Year        *int
	Description *string
	Images      *[]string
	Cast        *[]CastInput
}

// CastMember is a cast entry with its person resolved.
type CastMember struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Role     models.Role `json:"role"`
	ImageURL string      `json:"imageUrl"`
}

type MovieDetail struct {
	Movie *models.Movie
	Cast  []CastMember
	// IsUserMovie is nil for anonymous viewers.
	IsUserMovie *bool
}

type MovieSummary struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Year           int      `json:"year"`
	Images         []string `json:"images"`
	OverallRatings float64  `json:"overall_ratings"`
}

type MovieListing struct {
	UserMovies      []MovieSummary `json:"userMovies"`
	CommunityMovies []MovieSummary `json:"communityMovies"`
}

func validateMovieFields(title string, year int, images []string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if year < models.MinMovieYear {
		return fmt.Errorf("%w: year must be %d or later", ErrValidation, models.MinMovieYear)
	}
	if len(images) == 0 {
		return ErrNoImages
	}
	for _, img := range images {
		if strings.TrimSpace(img) == "" {
			return fmt.Errorf("%w: image urls cannot be empty", ErrValidation)
		}
	}
	return nil
}

// CreateMovie stores a new movie owned by userID and links its cast.
func (s *CatalogService) CreateMovie(ctx context.Context, userID string, in MovieInput) (*models.Movie, error) {
	if err := validateMovieFields(in.Title, in.Year, in.Images); err != nil {
		return nil, err
	}
	if _, err := ValidateCast(in.Cast); err != nil {
		return nil, err
	}

	now := s.now()
	movie := &models.Movie{
		ID:          s.newID(),
		Title:       strings.TrimSpace(in.Title),
		Year:        in.Year,
		Description: strings.TrimSpace(in.Description),
		Images:      in.Images,
		UserID:      userID,
		Cast:        []models.CastEntry{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var rec *Reconciliation
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		rec, err = s.reconciler.Reconcile(ctx, movie.ID, nil, in.Cast, func(ctx context.Context, cast []models.CastEntry) error {
			movie.Cast = cast
			return s.movies.Insert(ctx, movie)
		})
		return err
	})
	if err != nil {
		return nil, s.mapWriteError(err)
	}

	s.afterReconcile(ctx, events.MovieCreated, movie, rec)
	return movie, nil
}

// UpdateMovie applies patch to a movie owned by userID. Ownership and
// existence are checked before anything is written.
func (s *CatalogService) UpdateMovie(ctx context.Context, userID, movieID string, patch MoviePatch) (*models.Movie, error) {
	existing, err := s.movies.FindByID(ctx, movieID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrMovieNotFound
		}
		return nil, fmt.Errorf("load movie: %w", err)
	}
	if existing.UserID != userID {
		return nil, ErrNotMovieOwner
	}

	updated := *existing
	if patch.Title != nil {
		updated.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Year != nil {
		updated.Year = *patch.Year
	}
	if patch.Description != nil {
		updated.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Images != nil {
		updated.Images = *patch.Images
	}
	if err := validateMovieFields(updated.Title, updated.Year, updated.Images); err != nil {
		return nil, err
	}
	updated.UpdatedAt = s.now()

	if patch.Cast == nil {
		if err := s.movies.UpdateOwned(ctx, &updated); err != nil {
			return nil, s.mapWriteError(err)
		}
		s.publish(ctx, events.MovieUpdated, events.MovieEvent{MovieID: updated.ID, UserID: userID, Title: updated.Title})
		return &updated, nil
	}

	if _, err := ValidateCast(*patch.Cast); err != nil {
		return nil, err
	}

	var rec *Reconciliation
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		rec, err = s.reconciler.Reconcile(ctx, updated.ID, existing.Cast, *patch.Cast, func(ctx context.Context, cast []models.CastEntry) error {
			updated.Cast = cast
			return s.movies.UpdateOwned(ctx, &updated)
		})
		return err
	})
	if err != nil {
		return nil, s.mapWriteError(err)
	}

	s.afterReconcile(ctx, events.MovieUpdated, &updated, rec)
	return &updated, nil
}

func (s *CatalogService) mapWriteError(err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return ErrMovieNotFound
	}
	return err
}

func (s *CatalogService) afterReconcile(ctx context.Context, eventType string, m *models.Movie, rec *Reconciliation) {
	evt := events.MovieEvent{
		MovieID:       m.ID,
		UserID:        m.UserID,
		Title:         m.Title,
		CreatedPeople: map[string][]string{},
		Linked:        map[string][]string{},
		Unlinked:      map[string][]string{},
	}
	for _, role := range models.Roles {
		if n := len(rec.CreatedIDs[role]); n > 0 {
			metrics.PeopleCreated.WithLabelValues(string(role)).Add(float64(n))
			evt.CreatedPeople[string(role)] = rec.CreatedIDs[role]
		}
		if n := len(rec.Diff.Added[role]); n > 0 {
			metrics.BackReferenceUpdates.WithLabelValues(string(role), "add").Add(float64(n))
			evt.Linked[string(role)] = rec.Diff.Added[role]
		}
		if n := len(rec.Diff.Removed[role]); n > 0 {
			metrics.BackReferenceUpdates.WithLabelValues(string(role), "pull").Add(float64(n))
			evt.Unlinked[string(role)] = rec.Diff.Removed[role]
		}
	}
	logging.Ctx(ctx).Info().
		Str("movie_id", m.ID).
		Str("event", eventType).
		Int("cast", len(m.Cast)).
		Msg("cast reconciled")
	s.publish(ctx, eventType, evt)
}

func (s *CatalogService) publish(ctx context.Context, eventType string, payload any) {
	if err := s.events.Publish(ctx, eventType, payload); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("event", eventType).Msg("publish event failed")
	}
}

// GetMovie loads a movie with its cast resolved to names and images.
// viewerID may be empty.
func (s *CatalogService) GetMovie(ctx context.Context, movieID, viewerID string) (*MovieDetail, error) {
	movie, err := s.movies.FindByID(ctx, movieID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrMovieNotFound
		}
		return nil, fmt.Errorf("load movie: %w", err)
	}

	ids := make(map[models.Role][]string)
	for _, e := range movie.Cast {
		ids[e.Role] = append(ids[e.Role], e.PersonID)
	}
	people := make(map[castKey]models.Person)
	for _, role := range models.Roles {
		if len(ids[role]) == 0 {
			continue
		}
		store, err := s.people.For(role)
		if err != nil {
			return nil, err
		}
		found, err := store.FindByIDs(ctx, ids[role])
		if err != nil {
			return nil, fmt.Errorf("resolve %ss: %w", role, err)
		}
		for _, p := range found {
			people[castKey{role, p.ID}] = p
		}
	}

	cast := make([]CastMember, 0, len(movie.Cast))
	for _, e := range movie.Cast {
		member := CastMember{ID: e.PersonID, Name: "Unknown", Role: e.Role}
		if p, ok := people[castKey{e.Role, e.PersonID}]; ok {
			member.Name = p.Name
			member.ImageURL = p.ImageURL
		}
		cast = append(cast, member)
	}

	detail := &MovieDetail{Movie: movie, Cast: cast}
	if viewerID != "" {
		owned := movie.UserID == viewerID
		detail.IsUserMovie = &owned
	}
	return detail, nil
}

// ListMovies splits a page of movies into the viewer's own and everyone
// else's. Anonymous viewers only get community movies.
func (s *CatalogService) ListMovies(ctx context.Context, viewerID string, skip, limit int64) (*MovieListing, error) {
	movies, err := s.movies.List(ctx, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}

	out := &MovieListing{UserMovies: []MovieSummary{}, CommunityMovies: []MovieSummary{}}
	for _, m := range movies {
		sum := MovieSummary{
			ID:             m.ID,
			Title:          m.Title,
			Year:           m.Year,
			Images:         m.Images,
			OverallRatings: m.OverallRatings,
		}
		if viewerID != "" && m.UserID == viewerID {
			out.UserMovies = append(out.UserMovies, sum)
		} else {
			out.CommunityMovies = append(out.CommunityMovies, sum)
		}
	}
	return out, nil
}

func (s *CatalogService) SearchPeople(ctx context.Context, role models.Role, query string, skip, limit int64) ([]models.Person, error) {
	store, err := s.people.For(role)
	if err != nil {
		return nil, err
	}
	return store.Search(ctx, query, skip, limit)
}

// CreatePerson adds an actor or producer that no movie references yet.
func (s *CatalogService) CreatePerson(ctx context.Context, role models.Role, name, imageURL string) (*models.Person, error) {
	store, err := s.people.For(role)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	p := &models.Person{
		ID:       s.newID(),
		Name:     name,
		ImageURL: strings.TrimSpace(imageURL),
		Movies:   []string{},
	}
	if err := store.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("create %s: %w", role, err)
	}
	metrics.PeopleCreated.WithLabelValues(string(role)).Inc()
	logging.Ctx(ctx).Info().Str("person_id", p.ID).Str("role", string(role)).Msg("person created")
	return p, nil
}

func (s *CatalogService) GetPerson(ctx context.Context, role models.Role, id string) (*models.Person, error) {
	store, err := s.people.For(role)
	if err != nil {
		return nil, err
	}
	p, err := store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrPersonNotFound
		}
		return nil, err
	}
	return p, nil
}
