package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const positionRetention = 24 * time.Hour

// runCleanup deletes stale VehiclePositionLog rows and evicts engine
// state for vehicles that haven't produced a fix within the retention
// window. The deployment's fix stream is assumed to stamp TimeMicros as
// Unix microseconds (an operational choice, not an engine requirement —
// crossing.GPSPoint.TimeMicros is otherwise an arbitrary monotonic
// epoch), so the same cutoff can drive both the SQL delete and
// Engine.EvictBefore.
func runCleanup(ctx context.Context, pool *pgxpool.Pool, store *engineStore) error {
	start := time.Now()
	cutoff := time.Now().Add(-positionRetention)
	cutoffMicros := cutoff.UnixMicro()

	result, err := pool.Exec(ctx,
		`DELETE FROM "VehiclePositionLog" WHERE "recordedAt" < $1`, cutoff)
	if err != nil {
		return fmt.Errorf("delete old positions: %w", err)
	}

	evicted := store.Load().EvictBefore(cutoffMicros)

	log.Printf("[cleanup] Deleted %d positions and evicted %d vehicles older than %s in %s",
		result.RowsAffected(), evicted, cutoff.Format(time.RFC3339), time.Since(start))
	return nil
}
