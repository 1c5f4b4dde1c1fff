package models

import "time"

// MinMovieYear is the year of the earliest surviving motion picture.
const MinMovieYear = 1888

// CastEntry links a movie to a person in a role.
type CastEntry struct {
	ID       string `bson:"_id" json:"id"`
	PersonID string `bson:"person" json:"person"`
	Role     Role   `bson:"role" json:"role"`
}

type Movie struct {
	ID             string      `bson:"_id" json:"id"`
	Title          string      `bson:"title" json:"title"`
	Year           int         `bson:"year" json:"year"`
	Description    string      `bson:"description" json:"description"`
	Images         []string    `bson:"images" json:"images"`
	UserID         string      `bson:"user_id" json:"user_id"`
	Cast           []CastEntry `bson:"cast" json:"cast"`
	OverallRatings float64     `bson:"overall_ratings" json:"overall_ratings"`
	RatingCount    int         `bson:"rating_count" json:"rating_count"`
	CreatedAt      time.Time   `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time   `bson:"updatedAt" json:"updatedAt"`
}

// ProducerCount returns how many cast entries have the producer role.
func (m *Movie) ProducerCount() int {
	n := 0
	for _, e := range m.Cast {
		if e.Role == RoleProducer {
			n++
		}
	}
	return n
}
