package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/princinho/moviecatalog/database"
	"github.com/princinho/moviecatalog/models"
)

type fakePeople struct {
	mu     sync.Mutex
	people map[string]*models.Person
	// failInsertAt makes the Nth Insert (1 based) return errBoom.
	failInsertAt int
	inserts      int
	writes       int
	links        int
}

func newFakePeople() *fakePeople {
	return &fakePeople{people: map[string]*models.Person{}}
}

func (f *fakePeople) seed(id, name string) {
	f.people[id] = &models.Person{ID: id, Name: name, Movies: []string{}}
}

func (f *fakePeople) movies(id string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.people[id]
	if !ok {
		return nil
	}
	return append([]string(nil), p.Movies...)
}

func (f *fakePeople) Insert(_ context.Context, p *models.Person) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts++
	if f.failInsertAt > 0 && f.inserts == f.failInsertAt {
		return errBoom
	}
	cp := *p
	cp.Movies = append([]string{}, p.Movies...)
	f.people[p.ID] = &cp
	f.writes++
	return nil
}

func (f *fakePeople) FindByID(_ context.Context, id string) (*models.Person, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.people[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePeople) FindByIDs(_ context.Context, ids []string) ([]models.Person, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Person{}
	for _, id := range ids {
		if p, ok := f.people[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePeople) Search(_ context.Context, query string, skip, limit int64) ([]models.Person, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Person{}
	for _, p := range f.people {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(query)) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if skip >= int64(len(out)) {
		return []models.Person{}, nil
	}
	out = out[skip:]
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakePeople) AddMovie(_ context.Context, ids []string, movieID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.links++
	for _, id := range ids {
		p, ok := f.people[id]
		if !ok {
			continue
		}
		f.writes++
		found := false
		for _, m := range p.Movies {
			if m == movieID {
				found = true
			}
		}
		if !found {
			p.Movies = append(p.Movies, movieID)
		}
	}
	return nil
}

func (f *fakePeople) PullMovie(_ context.Context, ids []string, movieID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.links++
	for _, id := range ids {
		p, ok := f.people[id]
		if !ok {
			continue
		}
		f.writes++
		kept := p.Movies[:0]
		for _, m := range p.Movies {
			if m != movieID {
				kept = append(kept, m)
			}
		}
		p.Movies = kept
	}
	return nil
}

type fakeMovies struct {
	mu        sync.Mutex
	movies    map[string]models.Movie
	order     []string
	ratingErr error
	insertErr error
	updateErr error
	writes    int
}

func newFakeMovies() *fakeMovies {
	return &fakeMovies{movies: map[string]models.Movie{}}
}

func (f *fakeMovies) get(id string) models.Movie {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.movies[id]
}

func (f *fakeMovies) Insert(_ context.Context, m *models.Movie) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	if _, ok := f.movies[m.ID]; ok {
		return database.ErrDuplicate
	}
	f.movies[m.ID] = *m
	f.order = append(f.order, m.ID)
	f.writes++
	return nil
}

func (f *fakeMovies) FindByID(_ context.Context, id string) (*models.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.movies[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &m, nil
}

func (f *fakeMovies) List(_ context.Context, skip, limit int64) ([]models.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Movie{}
	for i := len(f.order) - 1; i >= 0; i-- {
		out = append(out, f.movies[f.order[i]])
	}
	if skip >= int64(len(out)) {
		return []models.Movie{}, nil
	}
	out = out[skip:]
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeMovies) UpdateOwned(_ context.Context, m *models.Movie) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	cur, ok := f.movies[m.ID]
	if !ok || cur.UserID != m.UserID {
		return database.ErrNotFound
	}
	f.movies[m.ID] = *m
	f.writes++
	return nil
}

func (f *fakeMovies) SetRating(_ context.Context, id string, s models.RatingSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ratingErr != nil {
		return f.ratingErr
	}
	m, ok := f.movies[id]
	if !ok {
		return database.ErrNotFound
	}
	m.OverallRatings = s.Average
	m.RatingCount = s.Count
	f.movies[id] = m
	return nil
}

type fakeFeedback struct {
	mu      sync.Mutex
	records []models.Feedback
}

func (f *fakeFeedback) Insert(_ context.Context, fb *models.Feedback) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.MovieID == fb.MovieID && r.UserID == fb.UserID {
			return database.ErrDuplicate
		}
	}
	f.records = append(f.records, *fb)
	return nil
}

func (f *fakeFeedback) Update(_ context.Context, movieID, userID string, rating float64, review string) (*models.Feedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.records {
		if r.MovieID == movieID && r.UserID == userID {
			f.records[i].Rating = rating
			f.records[i].Review = review
			cp := f.records[i]
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeFeedback) FindOne(_ context.Context, movieID, userID string) (*models.Feedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.MovieID == movieID && r.UserID == userID {
			cp := r
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeFeedback) ListByMovie(_ context.Context, movieID string) ([]models.Feedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Feedback{}
	for _, r := range f.records {
		if r.MovieID == movieID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeFeedback) Summarize(_ context.Context, movieID string) (models.RatingSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum float64
	n := 0
	for _, r := range f.records {
		if r.MovieID == movieID {
			sum += r.Rating
			n++
		}
	}
	if n == 0 {
		return models.RatingSummary{}, nil
	}
	return models.RatingSummary{Average: sum / float64(n), Count: n}, nil
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[string]models.User{}}
}

func (f *fakeUsers) Insert(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.users {
		if x.Username == u.Username || x.Email == u.Email {
			return database.ErrDuplicate
		}
	}
	f.users[u.ID] = *u
	return nil
}

func (f *fakeUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &u, nil
}

func (f *fakeUsers) FindByIDs(_ context.Context, ids []string) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.User{}
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUsers) FindByLogin(_ context.Context, login string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == login || u.Email == strings.ToLower(login) {
			return &u, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeUsers) Exists(_ context.Context, username, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

type fakeTokens struct {
	mu     sync.Mutex
	tokens map[string]models.RefreshToken
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{tokens: map[string]models.RefreshToken{}}
}

func (f *fakeTokens) Insert(_ context.Context, t *models.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[t.TokenHash] = *t
	return nil
}

func (f *fakeTokens) FindByHash(_ context.Context, hash string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[hash]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &t, nil
}

func (f *fakeTokens) DeleteByHash(_ context.Context, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, hash)
	return nil
}

func (f *fakeTokens) DeleteByUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for h, t := range f.tokens {
		if t.UserID == userID {
			delete(f.tokens, h)
		}
	}
	return nil
}

// fakeTx runs the unit of work directly and counts invocations.
type fakeTx struct {
	calls int
}

func (t *fakeTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

type publishedEvent struct {
	Type    string
	Payload any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, eventType string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{eventType, payload})
	return p.err
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

var errBoom = errors.New("boom")
