package phy

import (
	"errors"
	"testing"

	"AirSpectra/internal/model"
)

func TestLookupLegacyOFDM(t *testing.T) {
	entry, err := Lookup(model.PHYModeLegacyOFDM, 11, 20, 1, model.GuardIntervalLong)
	if err != nil {
		t.Fatalf("Lookup failed for 54 Mb/s: %v", err)
	}
	if entry.BitsPerSymbol != 216 {
		t.Errorf("54 Mb/s N_DBPS: expected 216, got %d", entry.BitsPerSymbol)
	}
	if entry.Modulation != "64-QAM" || entry.CodingRate != "3/4" {
		t.Errorf("54 Mb/s modulation: expected 64-QAM 3/4, got %s %s", entry.Modulation, entry.CodingRate)
	}
	if entry.SymbolDurationNs != 4000 {
		t.Errorf("legacy OFDM symbol duration: expected 4000ns, got %d", entry.SymbolDurationNs)
	}
}

func TestLookupLegacyCCK(t *testing.T) {
	entry, err := Lookup(model.PHYModeLegacyCCK, 2, 20, 1, model.GuardIntervalLong)
	if err != nil {
		t.Fatalf("Lookup failed for 5.5 Mb/s: %v", err)
	}
	if entry.DataRateKbps != 5500 {
		t.Errorf("expected 5500 kb/s, got %d", entry.DataRateKbps)
	}

	// The guard interval flag selects the CCK preamble, not the table row.
	short, err := Lookup(model.PHYModeLegacyCCK, 2, 20, 1, model.GuardIntervalShort)
	if err != nil {
		t.Fatalf("Lookup with short preamble flag failed: %v", err)
	}
	if short != entry {
		t.Errorf("CCK entries should not vary with the guard interval flag")
	}

	// OFDM rates are not reachable through the CCK mode and vice versa.
	if _, err := Lookup(model.PHYModeLegacyCCK, 4, 20, 1, model.GuardIntervalLong); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for 6 Mb/s under CCK mode, got %v", err)
	}
	if _, err := Lookup(model.PHYModeLegacyOFDM, 0, 20, 1, model.GuardIntervalLong); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for 1 Mb/s under OFDM mode, got %v", err)
	}
}

func TestLegacyRateIndex(t *testing.T) {
	cases := []struct {
		halfMbps int
		want     int
	}{
		{2, 0},    // 1 Mb/s
		{11, 2},   // 5.5 Mb/s
		{12, 4},   // 6 Mb/s
		{108, 11}, // 54 Mb/s
		{7, -1},   // 3.5 Mb/s is not a legacy rate
	}
	for _, c := range cases {
		if got := LegacyRateIndex(c.halfMbps); got != c.want {
			t.Errorf("LegacyRateIndex(%d): expected %d, got %d", c.halfMbps, c.want, got)
		}
	}
}

func TestLookupHT(t *testing.T) {
	// MCS 7 at 40 MHz carries 540 data bits per symbol; the original ath9k
	// tables agree.
	entry, err := Lookup(model.PHYModeHT, 7, 40, 1, model.GuardIntervalShort)
	if err != nil {
		t.Fatalf("Lookup failed for HT MCS 7/40MHz: %v", err)
	}
	if entry.BitsPerSymbol != 540 {
		t.Errorf("HT MCS7/40MHz N_DBPS: expected 540, got %d", entry.BitsPerSymbol)
	}
	if entry.SymbolDurationNs != 3600 {
		t.Errorf("short GI symbol duration: expected 3600ns, got %d", entry.SymbolDurationNs)
	}

	// MCS 15 is a two-stream rate; requesting it with one stream is
	// undefined.
	entry, err = Lookup(model.PHYModeHT, 15, 20, 2, model.GuardIntervalLong)
	if err != nil {
		t.Fatalf("Lookup failed for HT MCS 15: %v", err)
	}
	if entry.BitsPerSymbol != 520 {
		t.Errorf("HT MCS15/20MHz N_DBPS: expected 520, got %d", entry.BitsPerSymbol)
	}
	if _, err := Lookup(model.PHYModeHT, 15, 20, 1, model.GuardIntervalLong); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for HT MCS 15 with 1 stream, got %v", err)
	}
}

func TestLookupVHTExclusions(t *testing.T) {
	// VHT MCS 9 at 20 MHz does not exist with 1 stream but does with 3.
	if _, err := Lookup(model.PHYModeVHT, 9, 20, 1, model.GuardIntervalLong); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for VHT MCS9/20MHz/1SS, got %v", err)
	}
	entry, err := Lookup(model.PHYModeVHT, 9, 20, 3, model.GuardIntervalLong)
	if err != nil {
		t.Fatalf("Lookup failed for VHT MCS9/20MHz/3SS: %v", err)
	}
	if entry.BitsPerSymbol != 1040 {
		t.Errorf("VHT MCS9/20MHz/3SS N_DBPS: expected 1040, got %d", entry.BitsPerSymbol)
	}

	// Explicit standard exclusions.
	if _, err := Lookup(model.PHYModeVHT, 6, 80, 3, model.GuardIntervalLong); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for VHT MCS6/80MHz/3SS, got %v", err)
	}
	if _, err := Lookup(model.PHYModeVHT, 9, 160, 3, model.GuardIntervalLong); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for VHT MCS9/160MHz/3SS, got %v", err)
	}

	entry, err = Lookup(model.PHYModeVHT, 9, 160, 1, model.GuardIntervalShort)
	if err != nil {
		t.Fatalf("Lookup failed for VHT MCS9/160MHz/1SS: %v", err)
	}
	if entry.BitsPerSymbol != 3120 {
		t.Errorf("VHT MCS9/160MHz/1SS N_DBPS: expected 3120, got %d", entry.BitsPerSymbol)
	}
}
