package domain

import "errors"

var (
	ErrEmptyCatalog        = errors.New("card catalog is empty")
	ErrEmptyPool           = errors.New("oracle pool is empty")
	ErrInvalidN            = errors.New("n must be between 1 and 10")
	ErrDeckNotFound        = errors.New("deck not found")
	ErrSpreadNotFound      = errors.New("spread not found")
	ErrUnknownStyle        = errors.New("unknown deck style")
	ErrSessionNotFound     = errors.New("session not found")
	ErrQuestionTooLong     = errors.New("question must be at most 500 characters")
	ErrInterpreterDisabled = errors.New("interpretation is not configured")
	ErrUpstreamLLM         = errors.New("upstream LLM failure")
	ErrInvalidLLMJSON      = errors.New("LLM returned invalid JSON after retry")
)
