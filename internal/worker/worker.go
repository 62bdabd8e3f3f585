package worker

import (
	"context"
)

// Worker is a long running background job driven by the WorkerManager
type Worker interface {
	// Start blocks until the context is cancelled or Stop is called
	Start(ctx context.Context) error

	// Stop signals the worker to finish; it must be safe to call twice
	Stop() error

	Name() string
}
