package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parquet-go/parquet-go"
)

// ParquetSpeedSample is the Parquet schema for one archived row.
type ParquetSpeedSample struct {
	RecordedAt  string  `parquet:"recorded_at"`
	VehicleID   string  `parquet:"vehicle_id"`
	WayID       int64   `parquet:"way_id"`
	TlIndexA    int32   `parquet:"tl_index_a"`
	TimeMicrosA int64   `parquet:"time_micros_a"`
	TlIndexB    int32   `parquet:"tl_index_b"`
	TimeMicrosB int64   `parquet:"time_micros_b"`
	Speed       float64 `parquet:"speed"`
}

func getR2Client() (*s3.Client, string) {
	endpoint := os.Getenv("R2_ENDPOINT")
	accessKeyID := os.Getenv("R2_ACCESS_KEY_ID")
	secretAccessKey := os.Getenv("R2_SECRET_ACCESS_KEY")

	if endpoint == "" || accessKeyID == "" || secretAccessKey == "" {
		return nil, ""
	}

	bucket := os.Getenv("R2_BUCKET")
	if bucket == "" {
		bucket = "traffic-engine"
	}

	client := s3.New(s3.Options{
		BaseEndpoint: &endpoint,
		Region:       "auto",
		Credentials:  credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
	})

	return client, bucket
}

// runArchiveSpeedSamples archives the previous UTC day's SpeedSampleLog
// rows to a Parquet file on R2/S3, skipping if one was already written
// for that day — the same idempotent daily-archive flow the teacher
// uses for bus positions, retargeted at speed samples.
func runArchiveSpeedSamples(ctx context.Context, pool *pgxpool.Pool) error {
	start := time.Now()

	r2, bucket := getR2Client()
	if r2 == nil {
		log.Println("[archive] R2 not configured — skipping archive")
		return nil
	}

	now := time.Now().UTC()
	yesterday := time.Date(now.Year(), now.Month(), now.Day()-1, 0, 0, 0, 0, time.UTC)
	today := yesterday.AddDate(0, 0, 1)

	key := fmt.Sprintf("speed-samples/%04d/%02d/%02d.parquet",
		yesterday.Year(), yesterday.Month(), yesterday.Day())

	if _, err := r2.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &bucket, Key: &key}); err == nil {
		log.Printf("[archive] %s already exists — skipping", key)
		return nil
	}

	const batchSize = 50000
	var offset int
	var rows []ParquetSpeedSample

	for {
		dbRows, err := pool.Query(ctx, `
			SELECT "recordedAt", "vehicleId", "wayId", "tlIndexA", "timeMicrosA", "tlIndexB", "timeMicrosB", speed
			FROM "SpeedSampleLog"
			WHERE "recordedAt" >= $1 AND "recordedAt" < $2
			ORDER BY "recordedAt" ASC
			OFFSET $3 LIMIT $4`,
			yesterday, today, offset, batchSize)
		if err != nil {
			return fmt.Errorf("query speed samples: %w", err)
		}

		batchCount := 0
		for dbRows.Next() {
			var recordedAt time.Time
			var vehicleID string
			var wayID int64
			var tlA, tlB int32
			var timeA, timeB int64
			var speed float64

			if err := dbRows.Scan(&recordedAt, &vehicleID, &wayID, &tlA, &timeA, &tlB, &timeB, &speed); err != nil {
				dbRows.Close()
				return fmt.Errorf("scan speed sample: %w", err)
			}

			rows = append(rows, ParquetSpeedSample{
				RecordedAt:  recordedAt.Format(time.RFC3339),
				VehicleID:   vehicleID,
				WayID:       wayID,
				TlIndexA:    tlA,
				TimeMicrosA: timeA,
				TlIndexB:    tlB,
				TimeMicrosB: timeB,
				Speed:       speed,
			})
			batchCount++
		}
		dbRows.Close()

		offset += batchCount
		if batchCount < batchSize {
			break
		}
	}

	if len(rows) == 0 {
		log.Printf("[archive] No speed samples for %s", yesterday.Format("2006-01-02"))
		return nil
	}

	log.Printf("[archive] Writing %d speed samples to %s", len(rows), key)

	var buf bytes.Buffer
	writer := parquet.NewGenericWriter[ParquetSpeedSample](&buf)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}

	body := buf.Bytes()
	contentType := "application/vnd.apache.parquet"
	if _, err := r2.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: &contentType,
		Metadata: map[string]string{
			"rows": fmt.Sprintf("%d", len(rows)),
			"date": yesterday.Format("2006-01-02"),
		},
	}); err != nil {
		return fmt.Errorf("upload to R2: %w", err)
	}

	sizeMB := float64(len(body)) / 1024 / 1024
	log.Printf("[archive] Archived %d speed samples (%.2f MB) to %s in %s", offset, sizeMB, key, time.Since(start))
	return nil
}
