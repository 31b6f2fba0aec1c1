package snapshot

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"AirSpectra/internal/config"
	"AirSpectra/internal/model"
)

// SummaryData holds the metadata written next to a snapshot's data file.
type SummaryData struct {
	WindowStart     string `json:"window_start"`
	WindowEnd       string `json:"window_end"`
	Keys            int    `json:"keys"`
	TotalFrames     uint64 `json:"total_frames"`
	TotalAirtimeNs  uint64 `json:"total_airtime_ns"`
	Unresolvable    uint64 `json:"unresolvable"`
	DecodeFailures  uint64 `json:"decode_failures"`
	OutOfOrderCount uint64 `json:"out_of_order"`
	Timestamp       string `json:"timestamp"`
}

// GobWriter persists window snapshots to disk as gob data plus a JSON summary.
type GobWriter struct {
	rootPath string
	interval time.Duration
}

// NewGobWriter creates a new gob snapshot writer.
func NewGobWriter(rootPath string, interval time.Duration) model.Writer {
	return &GobWriter{rootPath: rootPath, interval: interval}
}

// GetInterval returns the configured snapshot interval for this writer.
func (w *GobWriter) GetInterval() time.Duration {
	return w.interval
}

// Write serializes one window snapshot into a timestamped directory.
func (w *GobWriter) Write(snapshot model.WindowSnapshot, timestamp string) error {
	snapshotDir := filepath.Join(w.rootPath, timestamp)
	if err := os.MkdirAll(snapshotDir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	if len(snapshot.Totals) > 0 {
		filePath := filepath.Join(snapshotDir, "totals.dat")
		file, err := os.Create(filePath)
		if err != nil {
			return fmt.Errorf("failed to create snapshot file '%s': %w", filePath, err)
		}
		defer file.Close()

		encoder := gob.NewEncoder(file)
		if err := encoder.Encode(snapshot.Totals); err != nil {
			return fmt.Errorf("failed to encode totals to gob for file '%s': %w", filePath, err)
		}
	}

	summary := SummaryData{
		Keys:            len(snapshot.Totals),
		DecodeFailures:  snapshot.DecodeFailures,
		OutOfOrderCount: snapshot.OutOfOrderCount,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
	}
	if !snapshot.Start.IsZero() {
		summary.WindowStart = snapshot.Start.UTC().Format(time.RFC3339Nano)
		summary.WindowEnd = snapshot.End.UTC().Format(time.RFC3339Nano)
	}
	for _, totals := range snapshot.Totals {
		summary.TotalFrames += totals.FrameCount
		summary.TotalAirtimeNs += totals.TotalAirtimeNs
		summary.Unresolvable += totals.UnresolvableCount
	}

	summaryFilePath := filepath.Join(snapshotDir, "summary.json")
	summaryFile, err := os.Create(summaryFilePath)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer summaryFile.Close()

	jsonEncoder := json.NewEncoder(summaryFile)
	jsonEncoder.SetIndent("", "  ")
	if err := jsonEncoder.Encode(summary); err != nil {
		return fmt.Errorf("failed to encode summary to json: %w", err)
	}

	return nil
}

// NewWriters builds the enabled writers from the config writer definitions.
func NewWriters(defs []config.WriterDef) []model.Writer {
	writers := make([]model.Writer, 0, len(defs))
	for _, def := range defs {
		if !def.Enabled {
			continue
		}

		interval, err := time.ParseDuration(def.SnapshotInterval)
		if err != nil {
			log.Printf("Warning: invalid snapshot_interval for writer type '%s': %v, skipping.", def.Type, err)
			continue
		}

		var writer model.Writer
		switch def.Type {
		case "gob":
			writer = NewGobWriter(def.Gob.RootPath, interval)
		case "text":
			writer = NewTextWriter(def.Text.RootPath, interval)
		case "clickhouse":
			writer, err = NewClickHouseWriter(def.ClickHouse, interval)
			if err != nil {
				log.Printf("Warning: failed to create writer type '%s': %v, skipping.", def.Type, err)
				continue
			}
		default:
			log.Printf("Warning: unknown writer type '%s' in config, skipping.", def.Type)
			continue
		}
		writers = append(writers, writer)
	}
	return writers
}
