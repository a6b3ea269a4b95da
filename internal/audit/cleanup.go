package audit

import (
	"context"
	"fmt"
	"log"
	"time"

	"fleet-backend/internal/store"
)

// CleanupOldEntries deletes audit rows older than retentionDays.
func CleanupOldEntries(ctx context.Context, s *store.Store, retentionDays int) (int64, error) {
	pb := s.Dialect.NewParamBuilder()
	whereExpr := s.Dialect.IntervalDeleteExpr("created_at", pb, fmt.Sprintf("%d", retentionDays))
	n, err := store.Exec(ctx, s.DB, fmt.Sprintf("DELETE FROM _auth_audit WHERE %s", whereExpr), pb.Params()...)
	if err != nil {
		return 0, fmt.Errorf("audit cleanup: %w", err)
	}
	return n, nil
}

// StartCleanup runs CleanupOldEntries once a day until ctx is cancelled.
func StartCleanup(ctx context.Context, s *store.Store, retentionDays int) {
	if retentionDays <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			n, err := CleanupOldEntries(ctx, s, retentionDays)
			if err != nil {
				log.Printf("ERROR: %v", err)
			} else if n > 0 {
				log.Printf("Audit cleanup: deleted %d old entries", n)
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}
