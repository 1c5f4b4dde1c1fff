package database

import (
	"context"
	"time"

	"github.com/princinho/moviecatalog/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type FeedbackRepository struct {
	col *mongo.Collection
}

func NewFeedbackRepository(s *Store) *FeedbackRepository {
	return &FeedbackRepository{col: s.Collection(FeedbackCollection)}
}

// Insert relies on the unique (movie_id, user_id) index; a second record for
// the same pair fails with ErrDuplicate.
func (r *FeedbackRepository) Insert(ctx context.Context, f *models.Feedback) error {
	_, err := r.col.InsertOne(ctx, f)
	return translate(err)
}

func (r *FeedbackRepository) Update(ctx context.Context, movieID, userID string, rating float64, review string) (*models.Feedback, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var f models.Feedback
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"movie_id": movieID, "user_id": userID},
		bson.M{"$set": bson.M{
			"rating":    rating,
			"review":    review,
			"updatedAt": time.Now().UTC(),
		}},
		opts,
	).Decode(&f)
	if err != nil {
		return nil, translate(err)
	}
	return &f, nil
}

func (r *FeedbackRepository) FindOne(ctx context.Context, movieID, userID string) (*models.Feedback, error) {
	var f models.Feedback
	if err := r.col.FindOne(ctx, bson.M{"movie_id": movieID, "user_id": userID}).Decode(&f); err != nil {
		return nil, translate(err)
	}
	return &f, nil
}

func (r *FeedbackRepository) ListByMovie(ctx context.Context, movieID string) ([]models.Feedback, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.col.Find(ctx, bson.M{"movie_id": movieID}, opts)
	if err != nil {
		return nil, err
	}
	items := make([]models.Feedback, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Summarize returns the unrounded mean rating and record count for a movie.
// A movie without feedback yields the zero summary.
func (r *FeedbackRepository) Summarize(ctx context.Context, movieID string) (models.RatingSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"movie_id": movieID}}},
		{{Key: "$group", Value: bson.M{
			"_id":     "$movie_id",
			"average": bson.M{"$avg": "$rating"},
			"count":   bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return models.RatingSummary{}, err
	}
	var rows []models.RatingSummary
	if err := cursor.All(ctx, &rows); err != nil {
		return models.RatingSummary{}, err
	}
	if len(rows) == 0 {
		return models.RatingSummary{}, nil
	}
	return rows[0], nil
}
