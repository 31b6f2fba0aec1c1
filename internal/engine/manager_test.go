package engine

import (
	"testing"

	"AirSpectra/internal/config"
	"AirSpectra/internal/decode"
	"AirSpectra/internal/model"
)

func TestManagerEndToEnd(t *testing.T) {
	cfg := &config.Config{
		Engine: config.EngineConfig{
			NumWorkers:          2,
			SizeOfRecordChannel: 16,
			WindowDuration:      "1h", // flushed only by Stop
		},
	}
	manager, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	manager.Start()

	good := decode.RawRecord{
		decode.FieldFrameLength: "1000",
		decode.FieldTimestamp:   "1700000000.000000000",
		decode.FieldStation:     "aa:bb:cc:dd:ee:ff",
		decode.FieldChannelFreq: "2437",
		decode.FieldDataRate:    "54",
	}
	bad := decode.RawRecord{
		decode.FieldFrameLength: "1000",
	}

	manager.Input() <- good
	manager.Input() <- good
	manager.Input() <- bad
	manager.Stop()

	snap := manager.Latest()
	totals, ok := snap.Totals[model.Key{StationID: "aa:bb:cc:dd:ee:ff", ChannelID: "2437"}]
	if !ok {
		t.Fatalf("expected totals for the ingested key, got %+v", snap.Totals)
	}
	if totals.FrameCount != 2 {
		t.Errorf("frame count: expected 2, got %d", totals.FrameCount)
	}
	// Each 54 Mb/s 1000-byte frame occupies 172us.
	if totals.TotalAirtimeNs != 344_000 {
		t.Errorf("total airtime: expected 344000ns, got %d", totals.TotalAirtimeNs)
	}
	if snap.DecodeFailures != 1 {
		t.Errorf("decode failures: expected 1, got %d", snap.DecodeFailures)
	}
}

func TestManagerRejectsBadWindowDuration(t *testing.T) {
	cfg := &config.Config{Engine: config.EngineConfig{WindowDuration: "soon"}}
	if _, err := NewManager(cfg); err == nil {
		t.Fatalf("expected an error for an unparseable window duration")
	}
}
