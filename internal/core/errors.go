package core

import "errors"

// Error taxonomy for the answering and ingestion pipelines. Callers match
// with errors.Is; lower layers wrap these with request detail.
var (
	// ErrUserNotFound aborts a query for an unknown user id.
	ErrUserNotFound = errors.New("user not found")

	// ErrIndexUnavailable means the vector store could not be reached.
	// Surfaced as-is; there is no silent fallback.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrGenerationUnavailable means the language model never initialized.
	// The answer generator absorbs it into the offline sentinel.
	ErrGenerationUnavailable = errors.New("language model unavailable")

	// ErrGenerationTimeout means a model call exceeded its time budget.
	// Absorbed the same way as ErrGenerationUnavailable.
	ErrGenerationTimeout = errors.New("language model call timed out")

	// ErrUnsupportedFormat rejects ingestion of a file type with no loader.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrStoreWriteFailure means persisting a record failed; an answer
	// without a persisted transcript is treated as an incomplete request.
	ErrStoreWriteFailure = errors.New("structured store write failed")
)
