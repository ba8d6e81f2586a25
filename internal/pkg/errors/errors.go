package errors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalid      = errors.New("invalid")
	ErrConflict     = errors.New("conflict")
	ErrTooMany      = errors.New("too many requests")
	ErrInternal     = errors.New("internal")
	ErrTooLarge     = errors.New("payload too large")

	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrNothingToAnalyze    = errors.New("no drafts to analyze")
	ErrInsufficientSignal  = errors.New("insufficient style signal")
	ErrPersistence         = errors.New("persistence failure")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
