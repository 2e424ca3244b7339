package embedding

import "errors"

var (
	// ErrProviderUnavailable is returned when the embedding provider cannot
	// be reached (spec §4.1 "EmbeddingError ... provider outage").
	ErrProviderUnavailable = errors.New("embedding provider unavailable")

	// ErrInputTooLong is returned when text exceeds the provider's input
	// length limit (spec §6 "input-too-long").
	ErrInputTooLong = errors.New("embedding input exceeds provider length limit")

	// ErrDimensionMismatch is returned when a provider response does not
	// carry the configured dimension.
	ErrDimensionMismatch = errors.New("embedding provider returned unexpected dimension")
)
