package aggregate

import (
	"time"

	"AirSpectra/internal/model"
)

// Aggregator folds per-frame airtime results into the current window's
// totals, keyed by (station, channel). It is a single-writer structure: one
// goroutine owns it and calls Ingest/Flush; cross-window concurrency is safe
// because Flush hands out an independent snapshot and starts a fresh window.
type Aggregator struct {
	totals          map[model.Key]*model.Totals
	start           time.Time
	end             time.Time
	last            time.Time
	decodeFailures  uint64
	outOfOrderCount uint64
}

// NewAggregator creates an aggregator with an empty current window.
func NewAggregator() *Aggregator {
	return &Aggregator{totals: make(map[model.Key]*model.Totals)}
}

// Ingest updates the current window with one frame and its airtime result.
// Unresolvable frames are counted but contribute no airtime, so reported
// medium occupancy never includes guessed durations.
func (a *Aggregator) Ingest(frame model.FrameDescriptor, result model.AirtimeResult) {
	key := model.Key{StationID: frame.StationID, ChannelID: frame.ChannelID}
	totals, ok := a.totals[key]
	if !ok {
		totals = &model.Totals{}
		a.totals[key] = totals
	}

	totals.FrameCount++
	totals.TotalBytes += uint64(frame.FrameLength)
	if frame.Retry {
		totals.RetryCount++
	}
	if frame.FCSBad {
		totals.FCSBadCount++
	}
	if result.Classification == model.ClassificationUnresolvable {
		totals.UnresolvableCount++
	} else {
		totals.TotalAirtimeNs += uint64(result.DurationNs)
	}

	a.observeTimestamp(frame.Timestamp)
}

// RecordDecodeFailure tallies a raw record the decoder rejected. Such
// records carry no usable key, so the count lives on the window itself.
func (a *Aggregator) RecordDecodeFailure() {
	a.decodeFailures++
}

func (a *Aggregator) observeTimestamp(ts time.Time) {
	if ts.IsZero() {
		return
	}
	if a.start.IsZero() || ts.Before(a.start) {
		a.start = ts
	}
	if ts.After(a.end) {
		a.end = ts
	}
	// Out-of-order capture timestamps are tolerated, never reordered, but
	// they are worth surfacing.
	if !a.last.IsZero() && ts.Before(a.last) {
		a.outOfOrderCount++
	}
	a.last = ts
}

// ChannelUtilization returns the fraction of windowDuration occupied by
// transmissions on the given channel, summed across all its stations. The
// second return value is true when the ratio exceeds 1, which indicates
// overlapping or misclassified durations upstream; the value is reported
// as-is, never clamped.
func (a *Aggregator) ChannelUtilization(channelID string, windowDuration time.Duration) (float64, bool) {
	if windowDuration <= 0 {
		return 0, false
	}
	var airtimeNs uint64
	for key, totals := range a.totals {
		if key.ChannelID == channelID {
			airtimeNs += totals.TotalAirtimeNs
		}
	}
	ratio := float64(airtimeNs) / float64(windowDuration.Nanoseconds())
	return ratio, ratio > 1
}

// Flush returns an immutable snapshot of the completed window and starts a
// fresh one. This is the only way window contents become visible outside
// the aggregator, so a snapshot is never observed half-updated.
func (a *Aggregator) Flush() model.WindowSnapshot {
	snapshot := model.WindowSnapshot{
		Start:           a.start,
		End:             a.end,
		Totals:          make(map[model.Key]model.Totals, len(a.totals)),
		DecodeFailures:  a.decodeFailures,
		OutOfOrderCount: a.outOfOrderCount,
	}
	for key, totals := range a.totals {
		snapshot.Totals[key] = *totals
	}

	a.totals = make(map[model.Key]*model.Totals)
	a.start = time.Time{}
	a.end = time.Time{}
	a.decodeFailures = 0
	a.outOfOrderCount = 0
	// a.last deliberately survives the window boundary so an out-of-order
	// timestamp straddling two windows is still counted.

	return snapshot
}
