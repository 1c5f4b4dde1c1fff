package models

import "time"

const (
	MinRating = 0
	MaxRating = 5
)

// Feedback is one user's rating and review of one movie.
// (movie_id, user_id) is unique.
type Feedback struct {
	ID        string    `bson:"_id" json:"id"`
	Rating    float64   `bson:"rating" json:"rating"`
	Review    string    `bson:"review" json:"review"`
	UserID    string    `bson:"user_id" json:"user_id"`
	MovieID   string    `bson:"movie_id" json:"movie_id"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// RatingSummary is the aggregate stored on a movie.
type RatingSummary struct {
	Average float64 `bson:"average" json:"average"`
	Count   int     `bson:"count" json:"count"`
}
