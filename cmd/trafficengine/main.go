// Command trafficengine is the operational shell around the tripline
// and crossing packages: it polls a GPS fix stream, drives the crossing
// engine, persists speed samples and drop-off counters to Postgres, and
// runs the scheduled rollup/archive/cleanup/refresh jobs a production
// deployment needs around the core engine (spec.md §5 leaves all of
// this outside the engine's own scope).
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/laurentg/traffic-engine/tripline"
)

const (
	ingestIntervalMs = 5_000
)

// scheduledJob is a daily (or weekly) job run once per matching UTC hour.
type scheduledJob struct {
	name      string
	hour      int
	dayOfWeek *time.Weekday // nil = daily
	fn        func(ctx context.Context) error
}

func main() {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("FATAL: DATABASE_URL environment variable is not set")
	}
	fixStreamAddr := os.Getenv("FIX_STREAM_ADDR")
	if fixStreamAddr == "" {
		log.Fatal("FATAL: FIX_STREAM_ADDR environment variable is not set")
	}
	networkSourceURL := os.Getenv("NETWORK_SOURCE")
	if networkSourceURL == "" {
		log.Fatal("FATAL: NETWORK_SOURCE environment variable is not set")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := newPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("FATAL: Database connection failed: %v", err)
	}
	defer pool.Close()

	var ok int
	if err := pool.QueryRow(ctx, "SELECT 1 as ok").Scan(&ok); err != nil {
		log.Fatalf("FATAL: Database connection failed: %v", err)
	}
	log.Println("Database connection: OK")

	var count int64
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM "VehiclePositionLog" LIMIT 1`).Scan(&count); err != nil {
		log.Fatalf("FATAL: VehiclePositionLog table check failed: %v", err)
	}
	log.Println("VehiclePositionLog table: OK")

	log.Println("[network] Building initial tripline set...")
	net, err := fetchNetwork(ctx, networkSourceURL)
	if err != nil {
		log.Fatalf("FATAL: initial network fetch failed: %v", err)
	}
	streets := tripline.Build(net)
	log.Printf("[network] Built %d triplines over %d ways", len(streets.TripLines()), len(net.Ways()))
	store := newEngineStore(net, streets)

	monday := time.Monday
	jobs := []scheduledJob{
		{name: "aggregate-daily", hour: 3, fn: func(ctx context.Context) error { return runAggregateDaily(ctx, pool) }},
		{name: "archive-speed-samples", hour: 3, fn: func(ctx context.Context) error { return runArchiveSpeedSamples(ctx, pool) }},
		{name: "cleanup", hour: 4, fn: func(ctx context.Context) error { return runCleanup(ctx, pool, store) }},
		{name: "publish-segments", hour: 4, fn: func(ctx context.Context) error { return runPublishSegments(ctx, pool, store) }},
		{name: "refresh-network", hour: 5, dayOfWeek: &monday, fn: func(ctx context.Context) error { return runRefreshNetwork(ctx, networkSourceURL, store) }},
	}

	// --- CLI mode: run a specific job and exit ---
	// Usage: trafficengine run <job-name>
	if len(os.Args) >= 3 && os.Args[1] == "run" {
		jobName := os.Args[2]
		var target *scheduledJob
		for i := range jobs {
			if jobs[i].name == jobName {
				target = &jobs[i]
				break
			}
		}
		if target == nil {
			log.Printf("Unknown job: %s", jobName)
			log.Printf("Available jobs:")
			for _, j := range jobs {
				log.Printf("  - %s", j.name)
			}
			os.Exit(1)
		}
		log.Printf("[run] Executing %s...", target.name)
		if err := target.fn(ctx); err != nil {
			log.Fatalf("[run] %s failed: %v", target.name, err)
		}
		log.Printf("[run] %s completed successfully", target.name)
		return
	}

	maskedURL := maskDatabaseURL(dbURL)
	log.Println("=== traffic-engine ===")
	log.Printf("Ingest interval: %dms", ingestIntervalMs)
	log.Printf("Database:   %s", maskedURL)
	log.Printf("Fix stream: %s", fixStreamAddr)
	log.Println("Scheduled jobs:")
	dayNames := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	for _, job := range jobs {
		dayStr := "daily"
		if job.dayOfWeek != nil {
			dayStr = dayNames[int(*job.dayOfWeek)]
		}
		log.Printf("  - %s: %02d:00 UTC (%s)", job.name, job.hour, dayStr)
	}
	log.Println("")
	log.Println("Starting main loop...")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	var totalIngested, totalCycles, totalErrors int64
	jobLastRun := make(map[string]string)

	ticker := time.NewTicker(time.Duration(ingestIntervalMs) * time.Millisecond)
	defer ticker.Stop()

	ingested, err := ingestFixes(ctx, pool, store, fixStreamAddr)
	if err != nil {
		totalErrors++
		log.Printf("[ingest] Failed: %v", err)
	} else {
		totalIngested += int64(ingested)
		totalCycles++
		log.Printf("[ingest] %d fixes", ingested)
	}
	checkScheduledJobs(ctx, jobs, jobLastRun)

	for {
		select {
		case <-sigCh:
			log.Printf("Shutting down. Total: %d fixes in %d cycles, %d errors.",
				totalIngested, totalCycles, totalErrors)
			cancel()
			return
		case <-ticker.C:
			ingested, err := ingestFixes(ctx, pool, store, fixStreamAddr)
			if err != nil {
				totalErrors++
				log.Printf("[ingest] Failed: %v", err)
			} else {
				totalIngested += int64(ingested)
				totalCycles++
				if totalCycles%60 == 0 {
					log.Printf("[ingest] cycle %d: %d fixes | total: %d, errors: %d",
						totalCycles, ingested, totalIngested, totalErrors)
					if err := persistDropOffs(ctx, pool, store); err != nil {
						log.Printf("[ingest] drop-off persist failed: %v", err)
					}
				} else {
					log.Printf("[ingest] %d fixes", ingested)
				}
			}
			checkScheduledJobs(ctx, jobs, jobLastRun)
		}
	}
}

func checkScheduledJobs(ctx context.Context, jobs []scheduledJob, lastRun map[string]string) {
	now := time.Now().UTC()
	utcHour := now.Hour()
	utcDay := now.Weekday()
	todayKey := now.Format("2006-01-02")

	for _, job := range jobs {
		if utcHour != job.hour {
			continue
		}
		if job.dayOfWeek != nil && utcDay != *job.dayOfWeek {
			continue
		}
		runKey := todayKey + ":" + job.name
		if lastRun[job.name] == runKey {
			continue
		}
		lastRun[job.name] = runKey

		log.Printf("[scheduler] Starting %s...", job.name)
		if err := job.fn(ctx); err != nil {
			log.Printf("[scheduler] %s failed: %v", job.name, err)
		} else {
			log.Printf("[scheduler] %s completed successfully", job.name)
		}
	}
}

func maskDatabaseURL(url string) string {
	atIdx := strings.Index(url, "@")
	if atIdx == -1 {
		return url
	}
	prefix := url[:strings.Index(url, "://")+3]
	rest := url[len(prefix):]
	colonIdx := strings.Index(rest, ":")
	if colonIdx == -1 || colonIdx > strings.Index(rest, "@") {
		return url
	}
	return fmt.Sprintf("%s%s:***@%s", prefix, rest[:colonIdx], rest[strings.Index(rest, "@")+1:])
}
