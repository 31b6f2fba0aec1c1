package aggregate

import (
	"time"

	"AirSpectra/internal/model"
)

// SnapshotChannelUtilization computes the airtime fraction of one channel in
// a flushed window snapshot, mirroring Aggregator.ChannelUtilization for
// consumers that only hold a snapshot. The boolean is the overflow warning.
func SnapshotChannelUtilization(snapshot model.WindowSnapshot, channelID string, windowDuration time.Duration) (float64, bool) {
	if windowDuration <= 0 {
		return 0, false
	}
	var airtimeNs uint64
	for key, totals := range snapshot.Totals {
		if key.ChannelID == channelID {
			airtimeNs += totals.TotalAirtimeNs
		}
	}
	ratio := float64(airtimeNs) / float64(windowDuration.Nanoseconds())
	return ratio, ratio > 1
}

// SnapshotChannels lists the distinct channels present in a snapshot.
func SnapshotChannels(snapshot model.WindowSnapshot) []string {
	seen := make(map[string]bool)
	var channels []string
	for key := range snapshot.Totals {
		if !seen[key.ChannelID] {
			seen[key.ChannelID] = true
			channels = append(channels, key.ChannelID)
		}
	}
	return channels
}
