package database

import (
	"context"
	"fmt"
	"time"

	"github.com/princinho/moviecatalog/config"
	"github.com/princinho/moviecatalog/logging"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const (
	UsersCollection         = "users"
	RefreshTokensCollection = "refresh_tokens"
	ActorsCollection        = "actors"
	ProducersCollection     = "producers"
	MoviesCollection        = "movies"
	FeedbackCollection      = "movie_feedback"
)

// Store owns the mongo client for the lifetime of the process.
type Store struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// Connect opens the client and pings the primary. Callers must Close the store.
func Connect(ctx context.Context, cfg config.MongoConfig) (*Store, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerAPIOptions(serverAPI).
		SetTimeout(cfg.Timeout)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	logging.Info().Str("database", cfg.Database).Msg("connected to MongoDB")

	return &Store{Client: client, DB: client.Database(cfg.Database)}, nil
}

func (s *Store) Collection(name string) *mongo.Collection {
	return s.DB.Collection(name)
}

// Ping reports whether the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}
