package analysis

import "errors"

// ErrQuotaExceeded indicates the LLM provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("llm quota exceeded")

// ErrMissingAPIKey is returned on the first completion attempted without a credential.
var ErrMissingAPIKey = errors.New("llm api key is not configured")

// ErrEmptyCompletion indicates the provider answered without any choice.
var ErrEmptyCompletion = errors.New("llm returned no completion")
