package domain

import "errors"

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes; the console driver
// treats anything other than a malformed quote as fatal.
var (
	ErrMalformedQuote    = errors.New("malformed_quote")
	ErrInvalidDecision   = errors.New("invalid_decision")
	ErrUnknownStrategy   = errors.New("unknown_strategy")
	ErrInvalidConfig     = errors.New("invalid_config")
	ErrGameOver          = errors.New("game_over")
	ErrRoundsRemaining   = errors.New("rounds_remaining")
	ErrAlreadySettled    = errors.New("already_settled")
	ErrGameNotFound      = errors.New("game_not_found")
	ErrGameAlreadyExists = errors.New("game_already_exists")
)

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
