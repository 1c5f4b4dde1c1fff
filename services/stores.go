package services

import (
	"context"

	"github.com/princinho/moviecatalog/models"
)

// PersonStore is one role's people collection.
type PersonStore interface {
	Insert(ctx context.Context, p *models.Person) error
	FindByID(ctx context.Context, id string) (*models.Person, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Person, error)
	Search(ctx context.Context, query string, skip, limit int64) ([]models.Person, error)
	AddMovie(ctx context.Context, personIDs []string, movieID string) error
	PullMovie(ctx context.Context, personIDs []string, movieID string) error
}

type MovieStore interface {
	Insert(ctx context.Context, m *models.Movie) error
	FindByID(ctx context.Context, id string) (*models.Movie, error)
	List(ctx context.Context, skip, limit int64) ([]models.Movie, error)
	UpdateOwned(ctx context.Context, m *models.Movie) error
	SetRating(ctx context.Context, movieID string, summary models.RatingSummary) error
}

type FeedbackStore interface {
	Insert(ctx context.Context, f *models.Feedback) error
	Update(ctx context.Context, movieID, userID string, rating float64, review string) (*models.Feedback, error)
	FindOne(ctx context.Context, movieID, userID string) (*models.Feedback, error)
	ListByMovie(ctx context.Context, movieID string) ([]models.Feedback, error)
	Summarize(ctx context.Context, movieID string) (models.RatingSummary, error)
}

type UserStore interface {
	Insert(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.User, error)
	FindByLogin(ctx context.Context, login string) (*models.User, error)
	Exists(ctx context.Context, username, email string) (bool, error)
}

type RefreshTokenStore interface {
	Insert(ctx context.Context, t *models.RefreshToken) error
	FindByHash(ctx context.Context, hash string) (*models.RefreshToken, error)
	DeleteByHash(ctx context.Context, hash string) error
	DeleteByUser(ctx context.Context, userID string) error
}

// Transactor runs fn atomically when the backing store supports it.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher receives domain events after the write they describe has
// been committed. Publishing is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// PeopleStores resolves a role to its collection.
type PeopleStores map[models.Role]PersonStore

func (p PeopleStores) For(role models.Role) (PersonStore, error) {
	s, ok := p[role]
	if !ok {
		return nil, ErrInvalidRole
	}
	return s, nil
}
