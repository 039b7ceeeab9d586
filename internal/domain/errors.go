package domain

import "errors"

var (
	// ErrUsernameRequired is returned when registering a user without a username.
	ErrUsernameRequired = errors.New("username is required")
	// ErrMissingFields is returned when a score or session is missing required identifiers.
	ErrMissingFields = errors.New("missing required fields")
	// ErrFeedbackRequired is returned when feedback lacks name, email or rating.
	ErrFeedbackRequired = errors.New("name, email, and rating are required")
	// ErrInvalidRating indicates a feedback rating outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	// ErrInvalidDifficulty indicates an unknown difficulty level.
	ErrInvalidDifficulty = errors.New("invalid difficulty")
	// ErrInvalidGameMode indicates an unknown game mode.
	ErrInvalidGameMode = errors.New("invalid game mode")
	// ErrUserNotFound indicates a lookup by id or username found nothing.
	ErrUserNotFound = errors.New("user not found")
	// ErrPlayerNotFound indicates the player has no recorded games.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrArenaNotFound indicates a live arena id is unknown.
	ErrArenaNotFound = errors.New("arena not found")
)
