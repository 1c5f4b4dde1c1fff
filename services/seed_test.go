package services

import (
	"context"
	"testing"
	"time"

	"github.com/princinho/moviecatalog/config"
	"github.com/princinho/moviecatalog/models"
	"github.com/princinho/moviecatalog/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type seedFixture struct {
	seeder    *DemoSeeder
	identity  *IdentityService
	users     *fakeUsers
	actors    *fakePeople
	producers *fakePeople
	movies    *fakeMovies
	feedback  *fakeFeedback
}

func newSeedFixture(password string) *seedFixture {
	f := &seedFixture{
		users:     newFakeUsers(),
		actors:    newFakePeople(),
		producers: newFakePeople(),
		movies:    newFakeMovies(),
		feedback:  &fakeFeedback{},
	}
	issuer := utils.NewTokenIssuer(config.AuthConfig{
		AccessSecret: "a", RefreshSecret: "r", AccessTTL: time.Minute, RefreshTTL: time.Hour,
	})
	f.identity = NewIdentityService(f.users, newFakeTokens(), issuer, bcrypt.MinCost)
	people := PeopleStores{models.RoleActor: f.actors, models.RoleProducer: f.producers}
	catalog := NewCatalogService(f.movies, people, &fakeTx{}, nil)
	feedback := NewFeedbackService(f.feedback, f.movies, f.users, nil)
	f.seeder = NewDemoSeeder(f.identity, catalog, feedback, f.users, password)
	return f
}

func (f *seedFixture) actorNamed(t *testing.T, name string) models.Person {
	t.Helper()
	found, err := f.actors.Search(context.Background(), name, 0, 0)
	require.NoError(t, err)
	require.Len(t, found, 1, name)
	return found[0]
}

func TestDemoSeeder_SeedsOnceThroughServices(t *testing.T) {
	f := newSeedFixture("password")
	ctx := context.Background()

	require.NoError(t, f.seeder.Seed(ctx))

	require.Len(t, f.movies.order, 2)
	inception, wolf := f.movies.get(f.movies.order[0]), f.movies.get(f.movies.order[1])
	assert.Equal(t, "Inception", inception.Title)
	assert.Equal(t, "The Wolf of Wall Street", wolf.Title)
	assert.Len(t, f.users.users, 2)

	// The second movie reuses the actor created for the first.
	leo := f.actorNamed(t, "Leonardo DiCaprio")
	assert.ElementsMatch(t, []string{inception.ID, wolf.ID}, leo.Movies)
	assert.Equal(t, []string{wolf.ID}, f.actorNamed(t, "Margot Robbie").Movies)
	assert.Len(t, f.actors.people, 2)
	assert.Len(t, f.producers.people, 2)

	assert.Equal(t, 4.5, inception.OverallRatings)
	assert.Equal(t, 2, inception.RatingCount)
	assert.Equal(t, 4.0, wolf.OverallRatings)
	assert.Len(t, f.feedback.records, 3)

	_, err := f.identity.Login(ctx, "jane", "password")
	assert.NoError(t, err)

	// A populated catalog is left alone.
	movieWrites := f.movies.writes
	require.NoError(t, f.seeder.Seed(ctx))
	assert.Len(t, f.movies.order, 2)
	assert.Equal(t, movieWrites, f.movies.writes)
	assert.Len(t, f.actors.people, 2)
	assert.Len(t, f.feedback.records, 3)
	assert.ElementsMatch(t, []string{inception.ID, wolf.ID}, f.actorNamed(t, "Leonardo DiCaprio").Movies)
}

func TestDemoSeeder_ReusesExistingUsers(t *testing.T) {
	f := newSeedFixture("password")
	ctx := context.Background()

	admin, err := f.identity.Register(ctx, RegisterInput{
		Name: "Existing Admin", Username: "admin", Email: "admin@example.com", Password: "other-pass",
	})
	require.NoError(t, err)

	require.NoError(t, f.seeder.Seed(ctx))
	assert.Len(t, f.users.users, 2)

	inception := f.movies.get(f.movies.order[0])
	assert.Equal(t, admin.ID, inception.UserID)
}

func TestDemoSeeder_EmptyPassword(t *testing.T) {
	f := newSeedFixture("")
	err := f.seeder.Seed(context.Background())
	require.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, f.movies.movies)
}
