package adapter

import "errors"

var (
	ErrGeneratorDisabled   = errors.New("profile generator is not configured")
	ErrMissingAPIKey       = errors.New("generator api key is empty")
	ErrEmptyCompletion     = errors.New("generator returned no content")
	ErrBlockedPrompt       = errors.New("generator blocked the prompt")
	ErrBadRequest          = errors.New("generator rejected the request")
	ErrUnauthorized        = errors.New("generator credentials rejected")
	ErrRateLimited         = errors.New("generator rate limit exceeded")
	ErrUpstreamUnavailable = errors.New("generator unavailable")

	ErrPublisherClosed = errors.New("event publisher closed")
)
