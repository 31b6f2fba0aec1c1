package aggregate

import (
	"math/rand"
	"testing"
	"time"

	"AirSpectra/internal/model"
)

func frameAt(station, channel string, length int, ts time.Time) model.FrameDescriptor {
	return model.FrameDescriptor{
		PHYMode:        model.PHYModeLegacyOFDM,
		RateIndex:      11,
		BandwidthMHz:   20,
		SpatialStreams: 1,
		FrameLength:    length,
		StationID:      station,
		ChannelID:      channel,
		Timestamp:      ts,
	}
}

func okResult(durationNs int64) model.AirtimeResult {
	return model.AirtimeResult{
		DurationNs:     durationNs,
		PreambleNs:     20_000,
		PayloadNs:      durationNs - 20_000,
		Classification: model.ClassificationOK,
	}
}

func TestIngestSumsMatchSnapshot(t *testing.T) {
	base := time.Unix(1700000000, 0)
	durations := []int64{52_000, 120_000, 48_000, 304_000, 172_000}

	// The fold must be order-independent: shuffle and compare against the
	// straight sum.
	rng := rand.New(rand.NewSource(42))
	shuffled := append([]int64(nil), durations...)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	var want uint64
	agg := NewAggregator()
	for i, d := range shuffled {
		want += uint64(d)
		agg.Ingest(frameAt("sta1", "2437", 1000, base.Add(time.Duration(i)*time.Millisecond)), okResult(d))
	}

	snapshot := agg.Flush()
	totals, ok := snapshot.Totals[model.Key{StationID: "sta1", ChannelID: "2437"}]
	if !ok {
		t.Fatalf("expected totals for the ingested key")
	}
	if totals.TotalAirtimeNs != want {
		t.Errorf("total airtime: expected %d, got %d", want, totals.TotalAirtimeNs)
	}
	if totals.FrameCount != uint64(len(durations)) {
		t.Errorf("frame count: expected %d, got %d", len(durations), totals.FrameCount)
	}
	if totals.TotalBytes != uint64(1000*len(durations)) {
		t.Errorf("total bytes: expected %d, got %d", 1000*len(durations), totals.TotalBytes)
	}
}

func TestChannelUtilizationScenario(t *testing.T) {
	// Two frames of 100us and 250us in a 1ms window occupy 35% of it.
	base := time.Unix(1700000000, 0)
	agg := NewAggregator()
	agg.Ingest(frameAt("sta1", "2437", 500, base), okResult(100_000))
	agg.Ingest(frameAt("sta2", "2437", 500, base.Add(time.Millisecond)), okResult(250_000))
	agg.Ingest(frameAt("sta3", "5180", 500, base.Add(2*time.Millisecond)), okResult(400_000))

	utilization, overflow := agg.ChannelUtilization("2437", time.Millisecond)
	if overflow {
		t.Errorf("35%% utilization must not be flagged as overflow")
	}
	if utilization != 0.35 {
		t.Errorf("expected utilization 0.35, got %v", utilization)
	}
}

func TestChannelUtilizationOverflow(t *testing.T) {
	agg := NewAggregator()
	agg.Ingest(frameAt("sta1", "2437", 500, time.Unix(1700000000, 0)), okResult(1_500_000))

	utilization, overflow := agg.ChannelUtilization("2437", time.Millisecond)
	if !overflow {
		t.Fatalf("utilization above 1 must be flagged")
	}
	if utilization != 1.5 {
		t.Errorf("overflowing utilization must not be clamped: expected 1.5, got %v", utilization)
	}
}

func TestUnresolvableExcludedFromAirtime(t *testing.T) {
	agg := NewAggregator()
	frame := frameAt("sta1", "2437", 1000, time.Unix(1700000000, 0))
	agg.Ingest(frame, okResult(100_000))
	agg.Ingest(frame, model.AirtimeResult{Classification: model.ClassificationUnresolvable})

	snapshot := agg.Flush()
	totals := snapshot.Totals[model.Key{StationID: "sta1", ChannelID: "2437"}]
	if totals.FrameCount != 2 {
		t.Errorf("frame count: expected 2, got %d", totals.FrameCount)
	}
	if totals.UnresolvableCount != 1 {
		t.Errorf("unresolvable count: expected 1, got %d", totals.UnresolvableCount)
	}
	if totals.TotalAirtimeNs != 100_000 {
		t.Errorf("unresolvable frames must not add airtime: expected 100000, got %d", totals.TotalAirtimeNs)
	}
}

func TestOutOfOrderTimestampsCounted(t *testing.T) {
	base := time.Unix(1700000000, 0)
	agg := NewAggregator()
	agg.Ingest(frameAt("sta1", "2437", 100, base.Add(2*time.Second)), okResult(1000))
	agg.Ingest(frameAt("sta1", "2437", 100, base), okResult(1000)) // goes backwards
	agg.Ingest(frameAt("sta1", "2437", 100, base.Add(3*time.Second)), okResult(1000))

	snapshot := agg.Flush()
	if snapshot.OutOfOrderCount != 1 {
		t.Errorf("expected 1 out-of-order timestamp, got %d", snapshot.OutOfOrderCount)
	}
	if !snapshot.Start.Equal(base) || !snapshot.End.Equal(base.Add(3*time.Second)) {
		t.Errorf("window bounds wrong: %v .. %v", snapshot.Start, snapshot.End)
	}
}

func TestFlushStartsFreshWindow(t *testing.T) {
	agg := NewAggregator()
	agg.Ingest(frameAt("sta1", "2437", 100, time.Unix(1700000000, 0)), okResult(5000))
	agg.RecordDecodeFailure()

	first := agg.Flush()
	if first.DecodeFailures != 1 {
		t.Errorf("decode failures: expected 1, got %d", first.DecodeFailures)
	}

	// Mutating the aggregator afterwards must not leak into the snapshot.
	agg.Ingest(frameAt("sta1", "2437", 100, time.Unix(1700000001, 0)), okResult(7000))
	if first.Totals[model.Key{StationID: "sta1", ChannelID: "2437"}].TotalAirtimeNs != 5000 {
		t.Errorf("snapshot must be an independent copy")
	}

	second := agg.Flush()
	if second.DecodeFailures != 0 {
		t.Errorf("decode failure tally must reset on flush")
	}
	if second.Totals[model.Key{StationID: "sta1", ChannelID: "2437"}].TotalAirtimeNs != 7000 {
		t.Errorf("second window should only hold post-flush frames")
	}
}
