package audit

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fleet-backend/internal/engine"
	"fleet-backend/internal/store"
)

// Buffer collects denials in memory and periodically flushes them to the
// _auth_audit table in a batch insert. It implements engine.DenialRecorder.
type Buffer struct {
	mu      sync.Mutex
	entries []engine.Denial
	store   *store.Store
	maxSize int
	ticker  *time.Ticker
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewBuffer creates a buffer that flushes on a timer or when full.
func NewBuffer(s *store.Store, maxSize int, flushIntervalMs int) *Buffer {
	if maxSize <= 0 {
		maxSize = 100
	}
	if flushIntervalMs <= 0 {
		flushIntervalMs = 1000
	}
	b := &Buffer{
		store:   s,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	b.ticker = time.NewTicker(time.Duration(flushIntervalMs) * time.Millisecond)
	b.wg.Add(1)
	go b.run()
	return b
}

func (b *Buffer) run() {
	defer b.wg.Done()
	for {
		select {
		case <-b.done:
			return
		case <-b.ticker.C:
			b.Flush()
		}
	}
}

// RecordDenial adds a denial to the buffer. If the buffer is full, a flush
// is triggered asynchronously; Stop waits for it.
func (b *Buffer) RecordDenial(d engine.Denial) {
	b.mu.Lock()
	b.entries = append(b.entries, d)
	shouldFlush := len(b.entries) >= b.maxSize
	b.mu.Unlock()
	if shouldFlush {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.Flush()
		}()
	}
}

// Len returns the number of buffered, unflushed denials.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Flush writes all buffered denials to the database in a single batch insert.
func (b *Buffer) Flush() {
	b.mu.Lock()
	if len(b.entries) == 0 {
		b.mu.Unlock()
		return
	}
	batch := b.entries
	b.entries = nil
	b.mu.Unlock()

	if err := b.insert(context.Background(), batch); err != nil {
		log.Printf("ERROR: audit buffer flush (%d entries dropped): %v", len(batch), err)
	}
}

func (b *Buffer) insert(ctx context.Context, batch []engine.Denial) error {
	dialect := b.store.Dialect
	pb := dialect.NewParamBuilder()

	cols := []string{"id", "user_id", "role", "node", "method", "path", "reason", "created_at"}
	placeholders := make([]string, 0, len(batch))
	for _, d := range batch {
		at := d.At
		if at.IsZero() {
			at = time.Now()
		}
		ph := []string{
			pb.Add(uuid.New().String()),
			pb.Add(d.UserID),
			pb.Add(d.Role),
			pb.Add(d.Node),
			pb.Add(d.Method),
			pb.Add(d.Path),
			pb.Add(d.Reason),
			pb.Add(dialect.TimeParam(at)),
		}
		placeholders = append(placeholders, "("+strings.Join(ph, ",")+")")
	}

	sqlStr := fmt.Sprintf("INSERT INTO _auth_audit (%s) VALUES %s", strings.Join(cols, ","), strings.Join(placeholders, ","))
	if _, err := store.Exec(ctx, b.store.DB, sqlStr, pb.Params()...); err != nil {
		return fmt.Errorf("insert audit batch: %w", err)
	}
	return nil
}

// Stop halts the background ticker and flushes remaining denials.
func (b *Buffer) Stop() {
	b.ticker.Stop()
	close(b.done)
	b.wg.Wait()
	b.Flush()
}
