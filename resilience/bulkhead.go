package resilience

import (
	"context"
	"sync"
	"time"
)

// BulkheadConfig configures a Bulkhead.
type BulkheadConfig struct {
	// MaxConcurrent is the number of operations allowed in flight.
	// Default: 10.
	MaxConcurrent int

	// MaxWait is how long Acquire blocks for a free slot. Zero means
	// reject immediately.
	MaxWait time.Duration
}

// Bulkhead caps in-flight operations with a counted semaphore.
type Bulkhead struct {
	config BulkheadConfig
	sem    chan struct{}

	mu        sync.Mutex
	active    int
	maxActive int
	rejected  int64
}

// NewBulkhead builds a bulkhead, applying defaults for unset fields.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 10
	}

	return &Bulkhead{
		config: config,
		sem:    make(chan struct{}, config.MaxConcurrent),
	}
}

// Acquire claims a slot, blocking up to MaxWait. It returns
// ErrBulkheadFull when no slot frees up in time and the context error
// when ctx ends first.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	select {
	case b.sem <- struct{}{}:
		b.admitted()
		return nil
	default:
	}

	if b.config.MaxWait <= 0 {
		b.reject()
		return ErrBulkheadFull
	}

	timer := time.NewTimer(b.config.MaxWait)
	defer timer.Stop()

	select {
	case b.sem <- struct{}{}:
		b.admitted()
		return nil
	case <-timer.C:
		b.reject()
		return ErrBulkheadFull
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot. A Release without a matching Acquire is
// ignored.
func (b *Bulkhead) Release() {
	select {
	case <-b.sem:
		b.mu.Lock()
		b.active--
		b.mu.Unlock()
	default:
	}
}

// Execute claims a slot for the duration of op.
func (b *Bulkhead) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := b.Acquire(ctx); err != nil {
		return err
	}
	defer b.Release()

	return op(ctx)
}

func (b *Bulkhead) admitted() {
	b.mu.Lock()
	b.active++
	if b.active > b.maxActive {
		b.maxActive = b.active
	}
	b.mu.Unlock()
}

func (b *Bulkhead) reject() {
	b.mu.Lock()
	b.rejected++
	b.mu.Unlock()
}

// BulkheadMetrics is a point-in-time snapshot of a bulkhead.
type BulkheadMetrics struct {
	Active        int
	MaxActive     int
	Available     int
	MaxConcurrent int
	Rejected      int64
}

// Metrics returns a snapshot of slot usage and rejections.
func (b *Bulkhead) Metrics() BulkheadMetrics {
	b.mu.Lock()
	defer b.mu.Unlock()

	return BulkheadMetrics{
		Active:        b.active,
		MaxActive:     b.maxActive,
		Available:     b.config.MaxConcurrent - b.active,
		MaxConcurrent: b.config.MaxConcurrent,
		Rejected:      b.rejected,
	}
}
