package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	polyline "github.com/twpayne/go-polyline"
)

// runPublishSegments derives the current street segmentation from the
// live engine's cluster map and the network it was built from
// (Engine.GetStreetSegments, spec.md §6), encodes each segment's
// geometry as a Google polyline string the way the teacher's
// cron_segments.go decodes route geometry off OTP, and upserts it for
// consumption by a map-rendering frontend.
func runPublishSegments(ctx context.Context, pool *pgxpool.Pool, store *engineStore) error {
	start := time.Now()

	net := store.LoadNetwork()
	if net == nil {
		return fmt.Errorf("no network loaded")
	}

	segments := store.Load().GetStreetSegments(net)

	published := 0
	for i, seg := range segments {
		coords := make([][]float64, len(seg.Coords))
		for j, pt := range seg.Coords {
			coords[j] = []float64{pt[1], pt[0]}
		}
		geometry := string(polyline.EncodeCoords(nil, coords))

		id := fmt.Sprintf("%d:%d", seg.WayID, i)
		highway := seg.Tags.Get("highway")

		_, err := pool.Exec(ctx, `
			INSERT INTO "StreetSegmentLog" (id, "wayId", "startNd", "endNd", highway, geometry)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				"startNd" = EXCLUDED."startNd", "endNd" = EXCLUDED."endNd",
				highway = EXCLUDED.highway, geometry = EXCLUDED.geometry
		`, id, int64(seg.WayID), seg.StartNd, seg.EndNd, highway, geometry)
		if err != nil {
			log.Printf("[segments] Failed to upsert segment %s: %v", id, err)
			continue
		}
		published++
	}

	log.Printf("[segments] Published %d/%d street segments in %s", published, len(segments), time.Since(start))
	return nil
}
