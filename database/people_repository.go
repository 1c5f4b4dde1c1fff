package database

import (
	"context"
	"regexp"
	"strings"

	"github.com/princinho/moviecatalog/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// PeopleRepository stores one role's people. Actors and producers each get
// their own instance over their own collection.
type PeopleRepository struct {
	col  *mongo.Collection
	role models.Role
}

func NewPeopleRepository(s *Store, role models.Role) *PeopleRepository {
	name := ActorsCollection
	if role == models.RoleProducer {
		name = ProducersCollection
	}
	return &PeopleRepository{col: s.Collection(name), role: role}
}

func (r *PeopleRepository) Role() models.Role { return r.role }

func (r *PeopleRepository) Insert(ctx context.Context, p *models.Person) error {
	if p.Movies == nil {
		p.Movies = []string{}
	}
	_, err := r.col.InsertOne(ctx, p)
	return translate(err)
}

func (r *PeopleRepository) FindByID(ctx context.Context, id string) (*models.Person, error) {
	var p models.Person
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *PeopleRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Person, error) {
	out := make([]models.Person, 0, len(ids))
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

// Search does a case-insensitive substring match on name, sorted by name.
func (r *PeopleRepository) Search(ctx context.Context, query string, skip, limit int64) ([]models.Person, error) {
	filter := bson.M{}
	if q := strings.TrimSpace(query); q != "" {
		filter["name"] = bson.M{"$regex": regexp.QuoteMeta(q), "$options": "i"}
	}

	opts := options.Find().
		SetSkip(skip).
		SetLimit(limit).
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetProjection(bson.M{"name": 1, "imageUrl": 1})

	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	items := make([]models.Person, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// AddMovie adds movieID to the back-reference list of every given person.
func (r *PeopleRepository) AddMovie(ctx context.Context, personIDs []string, movieID string) error {
	if len(personIDs) == 0 {
		return nil
	}
	_, err := r.col.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": personIDs}},
		bson.M{"$addToSet": bson.M{"movies": movieID}},
	)
	return err
}

// PullMovie removes movieID from the back-reference list of every given person.
func (r *PeopleRepository) PullMovie(ctx context.Context, personIDs []string, movieID string) error {
	if len(personIDs) == 0 {
		return nil
	}
	_, err := r.col.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": personIDs}},
		bson.M{"$pull": bson.M{"movies": movieID}},
	)
	return err
}
