package sqlclient

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Opener builds a fresh Executor, for example from configuration.
type Opener func() (Executor, error)

// Handle is the one Executor the application hands to its layers. It can be
// reset to a freshly opened executor (credential rotation, test isolation)
// without rewiring its dependents.
type Handle struct {
	open Opener

	mu   sync.RWMutex
	exec Executor
}

// NewHandle opens the first executor right away so configuration errors
// surface at startup.
func NewHandle(open Opener) (*Handle, error) {
	exec, err := open()
	if err != nil {
		return nil, err
	}
	return &Handle{open: open, exec: exec}, nil
}

func (h *Handle) current() Executor {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.exec
}

// Executor returns the executor currently behind the handle.
func (h *Handle) Executor() Executor {
	return h.current()
}

func (h *Handle) Query(ctx context.Context, sql string, params ...any) ([]Row, error) {
	return h.current().Query(ctx, sql, params...)
}

func (h *Handle) Batch(ctx context.Context, stmts []Statement) ([][]Row, error) {
	return h.current().Batch(ctx, stmts)
}

// Reset opens a new executor and closes the previous one. On failure the
// previous executor stays in place.
func (h *Handle) Reset() error {
	next, err := h.open()
	if err != nil {
		return fmt.Errorf("reopen sql store: %w", err)
	}

	h.mu.Lock()
	prev := h.exec
	h.exec = next
	h.mu.Unlock()

	return closeExecutor(prev)
}

func (h *Handle) Close() error {
	h.mu.Lock()
	prev := h.exec
	h.exec = nil
	h.mu.Unlock()

	return closeExecutor(prev)
}

func closeExecutor(exec Executor) error {
	if c, ok := exec.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
