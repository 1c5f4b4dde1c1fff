// Package events publishes domain events for downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	MovieCreated  = "movie.created"
	MovieUpdated  = "movie.updated"
	FeedbackSaved = "feedback.saved"
)

// Envelope is the JSON body of every published message.
type Envelope struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

func NewEnvelope(eventType string, payload any) Envelope {
	return Envelope{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// MovieEvent describes a created or updated movie and its cast changes,
// keyed by role.
type MovieEvent struct {
	MovieID       string              `json:"movie_id"`
	UserID        string              `json:"user_id"`
	Title         string              `json:"title"`
	CreatedPeople map[string][]string `json:"created_people,omitempty"`
	Linked        map[string][]string `json:"linked,omitempty"`
	Unlinked      map[string][]string `json:"unlinked,omitempty"`
}

type FeedbackEvent struct {
	MovieID        string  `json:"movie_id"`
	UserID         string  `json:"user_id"`
	Rating         float64 `json:"rating"`
	Created        bool    `json:"created"`
	OverallRatings float64 `json:"overall_ratings"`
	RatingCount    int     `json:"rating_count"`
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, any) error { return nil }

func (NoopPublisher) Close() error { return nil }
