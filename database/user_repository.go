package database

import (
	"context"
	"strings"

	"github.com/princinho/moviecatalog/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(s *Store) *UserRepository {
	return &UserRepository{col: s.Collection(UsersCollection)}
}

func (r *UserRepository) Insert(ctx context.Context, u *models.User) error {
	_, err := r.col.InsertOne(ctx, u)
	return translate(err)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// FindByLogin matches login against the username or the email.
func (r *UserRepository) FindByLogin(ctx context.Context, login string) (*models.User, error) {
	login = strings.TrimSpace(login)
	var u models.User
	err := r.col.FindOne(ctx, bson.M{"$or": bson.A{
		bson.M{"username": login},
		bson.M{"email": strings.ToLower(login)},
	}}).Decode(&u)
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserRepository) Exists(ctx context.Context, username, email string) (bool, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"$or": bson.A{
		bson.M{"username": username},
		bson.M{"email": email},
	}}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *UserRepository) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	out := make([]models.User, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cursor, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
