package query

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"AirSpectra/internal/config"
)

// UtilizationRow is one window's aggregate for a channel, as stored by the
// ClickHouse snapshot writer.
type UtilizationRow struct {
	WindowStart    time.Time `json:"window_start"`
	WindowEnd      time.Time `json:"window_end"`
	FrameCount     uint64    `json:"frame_count"`
	TotalAirtimeNs uint64    `json:"total_airtime_ns"`
	TotalBytes     uint64    `json:"total_bytes"`
	Utilization    float64   `json:"utilization"`
}

// Querier defines the interface for querying stored airtime metrics.
type Querier interface {
	ChannelUtilization(ctx context.Context, channelID string, from, to time.Time) ([]UtilizationRow, error)
}

// clickhouseQuerier implements the Querier interface for ClickHouse.
type clickhouseQuerier struct {
	conn clickhouse.Conn
}

// NewClickHouseQuerier creates a new querier for ClickHouse.
func NewClickHouseQuerier(cfg config.ClickHouseConfig) (Querier, error) {
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}
	return &clickhouseQuerier{conn: conn}, nil
}

func connect(cfg config.ClickHouseConfig) (clickhouse.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
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

const utilizationQuery = `
SELECT
    WindowStart,
    WindowEnd,
    sum(FrameCount)     AS frames,
    sum(TotalAirtimeNs) AS airtime_ns,
    sum(TotalBytes)     AS bytes
FROM airtime_metrics
WHERE ChannelID = ? AND Timestamp >= ? AND Timestamp <= ?
GROUP BY WindowStart, WindowEnd
ORDER BY WindowStart
`

// ChannelUtilization returns per-window totals for one channel, with the
// occupancy ratio derived from the stored window bounds.
func (q *clickhouseQuerier) ChannelUtilization(ctx context.Context, channelID string, from, to time.Time) ([]UtilizationRow, error) {
	rows, err := q.conn.Query(ctx, utilizationQuery, channelID, from, to)
	if err != nil {
		return nil, fmt.Errorf("utilization query failed: %w", err)
	}
	defer rows.Close()

	var result []UtilizationRow
	for rows.Next() {
		var row UtilizationRow
		if err := rows.Scan(&row.WindowStart, &row.WindowEnd, &row.FrameCount, &row.TotalAirtimeNs, &row.TotalBytes); err != nil {
			return nil, fmt.Errorf("failed to scan utilization row: %w", err)
		}
		if window := row.WindowEnd.Sub(row.WindowStart); window > 0 {
			row.Utilization = float64(row.TotalAirtimeNs) / float64(window.Nanoseconds())
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
