package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const aggregateChunkSize = 5000

// percentile returns the p-th percentile of arr (0 <= p <= 100) via
// linear interpolation between closest ranks.
func percentile(arr []float64, p float64) float64 {
	if len(arr) == 0 {
		return 0
	}
	sorted := make([]float64, len(arr))
	copy(sorted, arr)
	sort.Float64s(sorted)
	idx := (p / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))
	if lower == upper {
		return sorted[lower]
	}
	return sorted[lower] + (sorted[upper]-sorted[lower])*(idx-float64(lower))
}

// runAggregateDaily rolls up the previous UTC day's SpeedSampleLog rows
// into per-tripline-pair percentile statistics, mirroring the teacher's
// per-segment daily rollup but keyed on (way_id, tl_index_a, tl_index_b)
// instead of a route's RouteSegment id.
func runAggregateDaily(ctx context.Context, pool *pgxpool.Pool) error {
	start := time.Now()

	now := time.Now().UTC()
	yesterday := time.Date(now.Year(), now.Month(), now.Day()-1, 0, 0, 0, 0, time.UTC)
	today := yesterday.AddDate(0, 0, 1)
	dateStr := yesterday.Format("2006-01-02")

	log.Printf("[aggregate] Starting for %s", dateStr)

	var total int64
	if err := pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM "SpeedSampleLog" WHERE "recordedAt" >= $1 AND "recordedAt" < $2`,
		yesterday, today,
	).Scan(&total); err != nil {
		return fmt.Errorf("count speed samples: %w", err)
	}
	if total == 0 {
		log.Printf("[aggregate] No speed samples for %s", dateStr)
		return nil
	}

	type pairKey struct {
		wayID    int64
		tlA, tlB int
	}
	speedsByPair := make(map[pairKey][]float64)

	var cursorID int64
	var processed int64
	for {
		rows, err := pool.Query(ctx, `
			SELECT id, "wayId", "tlIndexA", "tlIndexB", speed
			FROM "SpeedSampleLog"
			WHERE "recordedAt" >= $1 AND "recordedAt" < $2 AND id > $3
			ORDER BY id ASC
			LIMIT $4`,
			yesterday, today, cursorID, aggregateChunkSize)
		if err != nil {
			return fmt.Errorf("query speed samples: %w", err)
		}

		chunkCount := 0
		for rows.Next() {
			var id int64
			var wayID int64
			var tlA, tlB int
			var speed float64
			if err := rows.Scan(&id, &wayID, &tlA, &tlB, &speed); err != nil {
				rows.Close()
				return fmt.Errorf("scan speed sample: %w", err)
			}
			key := pairKey{wayID: wayID, tlA: tlA, tlB: tlB}
			speedsByPair[key] = append(speedsByPair[key], speed)
			cursorID = id
			chunkCount++
		}
		rows.Close()

		processed += int64(chunkCount)
		if chunkCount < aggregateChunkSize {
			break
		}
	}

	for key, speeds := range speedsByPair {
		p50 := percentile(speeds, 50)
		p85 := percentile(speeds, 85)
		_, err := pool.Exec(ctx, `
			INSERT INTO "TripLineSpeedStat" (date, "wayId", "tlIndexA", "tlIndexB", "sampleCount", "p50Speed", "p85Speed")
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (date, "wayId", "tlIndexA", "tlIndexB") DO UPDATE SET
				"sampleCount" = EXCLUDED."sampleCount",
				"p50Speed" = EXCLUDED."p50Speed",
				"p85Speed" = EXCLUDED."p85Speed"
		`, dateStr, key.wayID, key.tlA, key.tlB, len(speeds), p50, p85)
		if err != nil {
			return fmt.Errorf("upsert stat for way %d: %w", key.wayID, err)
		}
	}

	log.Printf("[aggregate] Processed %d samples into %d tripline-pair stats for %s in %s",
		processed, len(speedsByPair), dateStr, time.Since(start))
	return nil
}
