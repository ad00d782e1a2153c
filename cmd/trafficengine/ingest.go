package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/laurentg/traffic-engine/crossing"
)

// fixPayload is one GPS fix as served by the upstream fix stream. The
// stream's own transport is out of scope (spec.md non-goals); this
// just polls an HTTP endpoint that returns the latest batch as JSON,
// the same shape the teacher's FIWARE poll used for bus positions.
type fixPayload struct {
	VehicleID  string  `json:"vehicleId"`
	TimeMicros int64   `json:"timeMicros"`
	Lon        float64 `json:"lon"`
	Lat        float64 `json:"lat"`
}

func fetchFixes(ctx context.Context, fixStreamAddr string) ([]fixPayload, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", fixStreamAddr, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fix stream fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fix stream HTTP %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var fixes []fixPayload
	if err := json.Unmarshal(body, &fixes); err != nil {
		return nil, fmt.Errorf("parse fix stream JSON: %w", err)
	}
	return fixes, nil
}

// ingestFixes polls one batch of fixes, drives them through the engine,
// and persists the raw fixes and any resulting speed samples. A
// non-monotonic-crossing error for one vehicle is logged and skipped
// rather than aborting the whole batch — it's a per-vehicle condition,
// not a batch-level failure.
func ingestFixes(ctx context.Context, pool *pgxpool.Pool, store *engineStore, fixStreamAddr string) (int, error) {
	fixes, err := fetchFixes(ctx, fixStreamAddr)
	if err != nil {
		return 0, err
	}
	if len(fixes) == 0 {
		return 0, nil
	}

	engine := store.Load()

	positionRows := make([][]interface{}, 0, len(fixes))
	var sampleRows [][]interface{}
	now := time.Now()

	for _, f := range fixes {
		positionRows = append(positionRows, []interface{}{now, f.VehicleID, f.TimeMicros, f.Lon, f.Lat})

		point := crossing.GPSPoint{VehicleID: f.VehicleID, TimeMicros: f.TimeMicros, Lon: f.Lon, Lat: f.Lat}
		samples, err := engine.Update(point)
		if err != nil {
			if errors.Is(err, crossing.ErrNonMonotonicCrossing) {
				log.Printf("[ingest] vehicle %s: %v", f.VehicleID, err)
				continue
			}
			return 0, fmt.Errorf("engine update: %w", err)
		}

		for _, s := range samples {
			sampleRows = append(sampleRows, []interface{}{
				now, f.VehicleID,
				s.A.TripLine.WayID, s.A.TripLine.TlIndex, s.A.TimeMicros,
				s.B.TripLine.TlIndex, s.B.TimeMicros,
				s.Speed,
			})
		}
	}

	if _, err := pool.CopyFrom(ctx,
		pgx.Identifier{"VehiclePositionLog"},
		[]string{"recordedAt", "vehicleId", "timeMicros", "lon", "lat"},
		pgx.CopyFromRows(positionRows),
	); err != nil {
		return 0, fmt.Errorf("insert positions: %w", err)
	}

	if len(sampleRows) > 0 {
		if _, err := pool.CopyFrom(ctx,
			pgx.Identifier{"SpeedSampleLog"},
			[]string{"recordedAt", "vehicleId", "wayId", "tlIndexA", "timeMicrosA", "tlIndexB", "timeMicrosB", "speed"},
			pgx.CopyFromRows(sampleRows),
		); err != nil {
			return 0, fmt.Errorf("insert speed samples: %w", err)
		}
	}

	return len(fixes), nil
}

// persistDropOffs upserts the engine's cumulative drop-off counters.
// The counters only grow for the life of one engine instance, so a
// plain upsert (not an incremental insert) keeps the table consistent
// across repeated calls.
func persistDropOffs(ctx context.Context, pool *pgxpool.Pool, store *engineStore) error {
	engine := store.Load()
	for droppedTl, picks := range engine.GetDropOffs() {
		for pickedTl, count := range picks {
			_, err := pool.Exec(ctx, `
				INSERT INTO "DropOffLog" ("droppedTlIndex", "pickedUpTlIndex", count)
				VALUES ($1, $2, $3)
				ON CONFLICT ("droppedTlIndex", "pickedUpTlIndex") DO UPDATE SET count = EXCLUDED.count
			`, droppedTl, pickedTl, count)
			if err != nil {
				return fmt.Errorf("upsert drop-off %d->%d: %w", droppedTl, pickedTl, err)
			}
		}
	}
	return nil
}
