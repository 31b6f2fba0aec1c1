package snapshot

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"AirSpectra/internal/config"
	"AirSpectra/internal/model"
)

const createTableStatement = `
CREATE TABLE IF NOT EXISTS airtime_metrics (
    Timestamp         DateTime,
    WindowStart       DateTime64(9),
    WindowEnd         DateTime64(9),
    StationID         String,
    ChannelID         String,
    FrameCount        UInt64,
    UnresolvableCount UInt64,
    RetryCount        UInt64,
    FCSBadCount       UInt64,
    TotalAirtimeNs    UInt64,
    TotalBytes        UInt64
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(Timestamp)
ORDER BY (ChannelID, StationID, Timestamp);
`

// ClickHouseWriter implements the model.Writer interface for ClickHouse.
type ClickHouseWriter struct {
	conn     driver.Conn
	interval time.Duration
}

// NewClickHouseWriter creates a new ClickHouse writer.
func NewClickHouseWriter(cfg config.ClickHouseConfig, interval time.Duration) (model.Writer, error) {
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	if err := conn.Exec(context.Background(), createTableStatement); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	log.Println("Successfully connected to ClickHouse and ensured table exists.")

	return &ClickHouseWriter{conn: conn, interval: interval}, nil
}

// GetInterval returns the configured snapshot interval for this writer.
func (w *ClickHouseWriter) GetInterval() time.Duration {
	return w.interval
}

func connect(cfg config.ClickHouseConfig) (driver.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: false,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})

	if err != nil {
		return nil, err
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	return conn, nil
}

// Write inserts one window's totals into the airtime_metrics table.
func (w *ClickHouseWriter) Write(snapshot model.WindowSnapshot, timestamp string) error {
	if len(snapshot.Totals) == 0 {
		return nil
	}

	batch, err := w.conn.PrepareBatch(context.Background(), "INSERT INTO airtime_metrics")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	snapshotTime, _ := time.Parse("2006-01-02_15-04-05", timestamp)
	rows := 0

	for key, totals := range snapshot.Totals {
		err = batch.Append(
			snapshotTime,
			snapshot.Start,
			snapshot.End,
			key.StationID,
			key.ChannelID,
			totals.FrameCount,
			totals.UnresolvableCount,
			totals.RetryCount,
			totals.FCSBadCount,
			totals.TotalAirtimeNs,
			totals.TotalBytes,
		)
		if err != nil {
			return fmt.Errorf("failed to append totals to batch: %w", err)
		}
		rows++
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch to clickhouse: %w", err)
	}

	log.Printf("Wrote %d airtime rows to ClickHouse for snapshot %s", rows, timestamp)
	return nil
}
