package services

import "errors"

// Validation errors (400).
var (
	ErrValidation    = errors.New("validation failed")
	ErrInvalidRole   = errors.New("invalid cast role")
	ErrProducerCount = errors.New("a movie must have exactly one producer")
	ErrNoImages      = errors.New("a movie must have at least one image")
	ErrInvalidRating = errors.New("rating must be between 0 and 5")
)

// Authentication errors.
var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrUnknownRefresh     = errors.New("refresh token not recognised")
	ErrUserNotFound       = errors.New("user not found")
)

// Authorization, lookup and conflict errors.
var (
	ErrNotMovieOwner    = errors.New("movie belongs to another user")
	ErrMovieNotFound    = errors.New("movie not found")
	ErrPersonNotFound   = errors.New("cast member not found")
	ErrFeedbackNotFound = errors.New("no feedback found to update")
	ErrFeedbackExists   = errors.New("feedback already submitted for this movie")
)
