package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"AirSpectra/internal/model"
)

// TextWriter writes a human-readable per-key report for each snapshot.
type TextWriter struct {
	rootPath string
	interval time.Duration
}

// NewTextWriter creates a new text report writer.
func NewTextWriter(rootPath string, interval time.Duration) model.Writer {
	return &TextWriter{rootPath: rootPath, interval: interval}
}

func (w *TextWriter) GetInterval() time.Duration {
	return w.interval
}

func (w *TextWriter) Write(snapshot model.WindowSnapshot, timestamp string) error {
	snapshotDir := filepath.Join(w.rootPath, timestamp)
	if err := os.MkdirAll(snapshotDir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	filePath := filepath.Join(snapshotDir, "airtime.txt")
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create report file '%s': %w", filePath, err)
	}
	defer file.Close()

	keys := make([]model.Key, 0, len(snapshot.Totals))
	for key := range snapshot.Totals {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ChannelID != keys[j].ChannelID {
			return keys[i].ChannelID < keys[j].ChannelID
		}
		return keys[i].StationID < keys[j].StationID
	})

	window := snapshot.End.Sub(snapshot.Start)
	fmt.Fprintf(file, "window %s .. %s (%s)\n",
		snapshot.Start.UTC().Format(time.RFC3339Nano),
		snapshot.End.UTC().Format(time.RFC3339Nano),
		window)
	fmt.Fprintf(file, "decode failures: %d, out-of-order timestamps: %d\n\n",
		snapshot.DecodeFailures, snapshot.OutOfOrderCount)

	for _, key := range keys {
		totals := snapshot.Totals[key]
		fmt.Fprintf(file, "channel %s station %s: %d frames (%d retry, %d bad-fcs, %d unresolvable), airtime %s, %s\n",
			key.ChannelID, key.StationID,
			totals.FrameCount, totals.RetryCount, totals.FCSBadCount, totals.UnresolvableCount,
			time.Duration(totals.TotalAirtimeNs),
			humanize.Bytes(totals.TotalBytes))
	}

	return nil
}
