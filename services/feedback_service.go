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

type FeedbackService struct {
	feedback FeedbackStore
	movies   MovieStore
	users    UserStore
	events   EventPublisher
	now      func() time.Time
	newID    func() string
}

func NewFeedbackService(feedback FeedbackStore, movies MovieStore, users UserStore, publisher EventPublisher) *FeedbackService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &FeedbackService{
		feedback: feedback,
		movies:   movies,
		users:    users,
		events:   publisher,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// FeedbackResult carries the saved record and the movie aggregate computed
// right after it. Summary is the zero value when the recompute failed.
type FeedbackResult struct {
	Feedback *models.Feedback
	Summary  models.RatingSummary
}

// Reviewer is the public identity shown next to a review.
type Reviewer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type PublicReview struct {
	Rating float64   `json:"rating"`
	Review string    `json:"review"`
	User   *Reviewer `json:"user"`
}

type FeedbackListing struct {
	Own    *models.Feedback
	Public []PublicReview
}

func validateFeedback(rating float64, review string) error {
	if rating < models.MinRating || rating > models.MaxRating {
		return ErrInvalidRating
	}
	if strings.TrimSpace(review) == "" {
		return fmt.Errorf("%w: review is required", ErrValidation)
	}
	return nil
}

// Submit creates the caller's feedback for a movie. A second submission for
// the same (movie, user) pair fails with ErrFeedbackExists.
func (s *FeedbackService) Submit(ctx context.Context, movieID, userID string, rating float64, review string) (*FeedbackResult, error) {
	if err := validateFeedback(rating, review); err != nil {
		return nil, err
	}
	if _, err := s.movies.FindByID(ctx, movieID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrMovieNotFound
		}
		return nil, fmt.Errorf("load movie: %w", err)
	}

	now := s.now()
	f := &models.Feedback{
		ID:        s.newID(),
		Rating:    rating,
		Review:    strings.TrimSpace(review),
		UserID:    userID,
		MovieID:   movieID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.feedback.Insert(ctx, f); err != nil {
		if database.IsDuplicateKey(err) {
			return nil, ErrFeedbackExists
		}
		return nil, fmt.Errorf("insert feedback: %w", err)
	}

	return s.afterWrite(ctx, f, true), nil
}

// Update changes the caller's existing feedback in place.
func (s *FeedbackService) Update(ctx context.Context, movieID, userID string, rating float64, review string) (*FeedbackResult, error) {
	if err := validateFeedback(rating, review); err != nil {
		return nil, err
	}
	f, err := s.feedback.Update(ctx, movieID, userID, rating, strings.TrimSpace(review))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrFeedbackNotFound
		}
		return nil, fmt.Errorf("update feedback: %w", err)
	}
	return s.afterWrite(ctx, f, false), nil
}

// afterWrite recomputes the movie aggregate synchronously. A failure is
// logged and counted but never undoes the feedback write.
func (s *FeedbackService) afterWrite(ctx context.Context, f *models.Feedback, created bool) *FeedbackResult {
	kind := "updated"
	if created {
		kind = "created"
	}
	metrics.FeedbackWrites.WithLabelValues(kind).Inc()

	res := &FeedbackResult{Feedback: f}
	summary, err := s.RecomputeRating(ctx, f.MovieID)
	if err != nil {
		metrics.RatingRecomputeFailures.Inc()
		logging.Ctx(ctx).Error().Err(err).Str("movie_id", f.MovieID).Msg("rating recompute failed")
	} else {
		res.Summary = summary
	}

	evt := events.FeedbackEvent{
		MovieID:        f.MovieID,
		UserID:         f.UserID,
		Rating:         f.Rating,
		Created:        created,
		OverallRatings: res.Summary.Average,
		RatingCount:    res.Summary.Count,
	}
	if err := s.events.Publish(ctx, events.FeedbackSaved, evt); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("movie_id", f.MovieID).Msg("publish feedback event failed")
	}
	return res
}

// RecomputeRating aggregates every feedback record of a movie and stores the
// rounded mean and the count on the movie. No records resets both to zero.
func (s *FeedbackService) RecomputeRating(ctx context.Context, movieID string) (models.RatingSummary, error) {
	summary, err := s.feedback.Summarize(ctx, movieID)
	if err != nil {
		return models.RatingSummary{}, fmt.Errorf("aggregate feedback: %w", err)
	}
	if summary.Count == 0 {
		summary = models.RatingSummary{}
	}
	summary.Average = RoundRating(summary.Average)

	if err := s.movies.SetRating(ctx, movieID, summary); err != nil {
		return models.RatingSummary{}, fmt.Errorf("store rating: %w", err)
	}
	return summary, nil
}

// List returns the viewer's own feedback (nil when anonymous or absent) and
// every review of the movie with its author resolved.
func (s *FeedbackService) List(ctx context.Context, movieID, viewerID string) (*FeedbackListing, error) {
	if _, err := s.movies.FindByID(ctx, movieID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrMovieNotFound
		}
		return nil, fmt.Errorf("load movie: %w", err)
	}

	listing := &FeedbackListing{Public: []PublicReview{}}
	if viewerID != "" {
		own, err := s.feedback.FindOne(ctx, movieID, viewerID)
		switch {
		case err == nil:
			listing.Own = own
		case !errors.Is(err, database.ErrNotFound):
			return nil, fmt.Errorf("load own feedback: %w", err)
		}
	}

	all, err := s.feedback.ListByMovie(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}

	ids := make([]string, 0, len(all))
	seen := make(map[string]bool, len(all))
	for _, f := range all {
		if !seen[f.UserID] {
			seen[f.UserID] = true
			ids = append(ids, f.UserID)
		}
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve reviewers: %w", err)
	}
	byID := make(map[string]*Reviewer, len(users))
	for _, u := range users {
		byID[u.ID] = &Reviewer{ID: u.ID, Name: u.Name, Email: u.Email}
	}

	for _, f := range all {
		listing.Public = append(listing.Public, PublicReview{
			Rating: f.Rating,
			Review: f.Review,
			User:   byID[f.UserID],
		})
	}
	return listing, nil
}
