package core

// import_limiter.go bounds how many catalog and list imports are parsed at
// once. Imports read the whole upload into memory, so the bound caps peak
// memory under load. When every slot is taken a caller waits up to maxWait
// and then fails with ErrTooManyImports.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyImports is returned when no import slot frees up within the
// wait timeout.
var ErrTooManyImports = errors.New("too many concurrent imports, please try again later")

const (
	DefaultMaxConcurrentImports = 4
	DefaultImportWait           = 10 * time.Second
)

// ImportLimiter is a counting semaphore for import work.
type ImportLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.RWMutex
	active int
}

// NewImportLimiter allows at most maxConcurrent imports at a time.
func NewImportLimiter(maxConcurrent int, maxWait time.Duration) *ImportLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentImports
	}
	if maxWait <= 0 {
		maxWait = DefaultImportWait
	}
	return &ImportLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// Acquire takes a slot, waiting at most maxWait. The caller must Release a
// slot it acquired.
func (l *ImportLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyImports
	}
}

// Release frees a slot taken by Acquire.
func (l *ImportLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()
	<-l.semaphore
}

// Do runs fn while holding a slot.
func (l *ImportLimiter) Do(ctx context.Context, fn func() error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()
	return fn()
}

func (l *ImportLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

func (l *ImportLimiter) Available() int {
	return cap(l.semaphore) - len(l.semaphore)
}

// WaitForDrain blocks until no import is running or ctx ends. Used during
// shutdown.
func (l *ImportLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
