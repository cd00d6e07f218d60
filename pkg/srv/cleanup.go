package srv

import "context"

// cleanupService only acts on shutdown.
type cleanupService struct {
	cleanup func() error
}

func (c *cleanupService) Start(ctx context.Context) error {
	return nil
}

func (c *cleanupService) Shutdown(ctx context.Context) error {
	if c.cleanup != nil {
		return c.cleanup()
	}
	return nil
}

// NewCleanup wraps a close function as a Service.
func NewCleanup(fn func() error) Service {
	return &cleanupService{cleanup: fn}
}

// NewCleanupFunc is NewCleanup for close functions without an error.
func NewCleanupFunc(fn func()) Service {
	return NewCleanup(func() error {
		fn()
		return nil
	})
}
