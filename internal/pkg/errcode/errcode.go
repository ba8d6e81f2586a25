package errcode

type Code uint32

const (
	ErrUnknown Code = 10000000 + iota
	ErrUnauthorized
	ErrNotFound
	ErrInvalid
	ErrConflict
	ErrTooMany
	ErrInternal
	ErrInvalidFile
	ErrTooLarge
	ErrAIUnavailable
	ErrNothingToAnalyze
	ErrInsufficientSignal
)
