package database

import (
	"context"
	"time"

	"github.com/princinho/moviecatalog/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type RefreshTokenRepository struct {
	col *mongo.Collection
}

func NewRefreshTokenRepository(s *Store) *RefreshTokenRepository {
	return &RefreshTokenRepository{col: s.Collection(RefreshTokensCollection)}
}

func (r *RefreshTokenRepository) Insert(ctx context.Context, t *models.RefreshToken) error {
	_, err := r.col.InsertOne(ctx, t)
	return translate(err)
}

// FindByHash returns the unexpired token with the given hash.
func (r *RefreshTokenRepository) FindByHash(ctx context.Context, hash string) (*models.RefreshToken, error) {
	var t models.RefreshToken
	err := r.col.FindOne(ctx, bson.M{
		"tokenHash": hash,
		"expiresAt": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&t)
	if err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *RefreshTokenRepository) DeleteByHash(ctx context.Context, hash string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"tokenHash": hash})
	return err
}

// DeleteByUser revokes every refresh token issued to userID.
func (r *RefreshTokenRepository) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"userId": userID})
	return err
}
