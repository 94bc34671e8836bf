package ingestion

import "errors"

var (
	// ErrCatalogRepositoryRequired is returned when a catalog repository is not provided.
	ErrCatalogRepositoryRequired = errors.New("catalog repository required")

	// ErrEmbeddingClientRequired is returned when an embedding client is not provided.
	ErrEmbeddingClientRequired = errors.New("embedding client required")

	// ErrVectorStoreRequired is returned by Rebuild when no store is configured.
	ErrVectorStoreRequired = errors.New("vector store required")

	// ErrInvalidMaxAttempts is returned when a retry policy allows no attempts.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrInvalidOption is returned when an option value is out of range.
	ErrInvalidOption = errors.New("invalid pipeline option")

	// ErrRunInProgress is returned when Run is called while another run is active.
	ErrRunInProgress = errors.New("ingestion run already in progress")
)
