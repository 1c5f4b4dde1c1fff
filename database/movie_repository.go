package database

import (
	"context"
	"time"

	"github.com/princinho/moviecatalog/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type MovieRepository struct {
	col *mongo.Collection
}

func NewMovieRepository(s *Store) *MovieRepository {
	return &MovieRepository{col: s.Collection(MoviesCollection)}
}

func (r *MovieRepository) Insert(ctx context.Context, m *models.Movie) error {
	_, err := r.col.InsertOne(ctx, m)
	return translate(err)
}

func (r *MovieRepository) FindByID(ctx context.Context, id string) (*models.Movie, error) {
	var m models.Movie
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// List returns movies newest first.
func (r *MovieRepository) List(ctx context.Context, skip, limit int64) ([]models.Movie, error) {
	opts := options.Find().
		SetSkip(skip).
		SetLimit(limit).
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})

	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	items := make([]models.Movie, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateOwned replaces the editable fields of a movie. The filter requires
// both the movie id and the owner id; no match yields ErrNotFound.
func (r *MovieRepository) UpdateOwned(ctx context.Context, m *models.Movie) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": m.ID, "user_id": m.UserID},
		bson.M{"$set": bson.M{
			"title":       m.Title,
			"year":        m.Year,
			"description": m.Description,
			"images":      m.Images,
			"cast":        m.Cast,
			"updatedAt":   m.UpdatedAt,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetRating stores the aggregate rating fields.
func (r *MovieRepository) SetRating(ctx context.Context, movieID string, summary models.RatingSummary) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": movieID},
		bson.M{"$set": bson.M{
			"overall_ratings": summary.Average,
			"rating_count":    summary.Count,
			"updatedAt":       time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
