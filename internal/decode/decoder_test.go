package decode

import (
	"errors"
	"testing"

	"AirSpectra/internal/model"
)

func baseRecord() RawRecord {
	return RawRecord{
		FieldFrameLength: "1500",
		FieldTimestamp:   "1700000000.250000000",
		FieldStation:     "aa:bb:cc:dd:ee:ff",
		FieldChannelFreq: "2437",
	}
}

func TestDecodeLegacyOFDM(t *testing.T) {
	rec := baseRecord()
	rec[FieldDataRate] = "54"

	frame, err := NewDecoder(false).Decode(rec)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if frame.PHYMode != model.PHYModeLegacyOFDM {
		t.Errorf("expected legacy-ofdm, got %s", frame.PHYMode)
	}
	if frame.RateIndex != 11 || frame.BandwidthMHz != 20 || frame.SpatialStreams != 1 {
		t.Errorf("unexpected legacy parameters: %+v", frame)
	}
	if frame.StationID != "aa:bb:cc:dd:ee:ff" || frame.ChannelID != "2437" {
		t.Errorf("identifiers not carried through: %+v", frame)
	}
	if frame.Timestamp.Unix() != 1700000000 {
		t.Errorf("timestamp not decoded: %v", frame.Timestamp)
	}
}

func TestDecodeLegacyCCKPreamble(t *testing.T) {
	rec := baseRecord()
	rec[FieldDataRate] = "5.5"
	rec[FieldPreamble] = "1"

	frame, err := NewDecoder(false).Decode(rec)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if frame.PHYMode != model.PHYModeLegacyCCK {
		t.Errorf("expected legacy-cck, got %s", frame.PHYMode)
	}
	if frame.GuardInterval != model.GuardIntervalShort {
		t.Errorf("preamble flag should select the short preamble")
	}

	// Without the flag the configured default applies.
	delete(rec, FieldPreamble)
	frame, err = NewDecoder(false).Decode(rec)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if frame.GuardInterval != model.GuardIntervalLong {
		t.Errorf("absent preamble flag should default to the long preamble")
	}
	frame, err = NewDecoder(true).Decode(rec)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if frame.GuardInterval != model.GuardIntervalShort {
		t.Errorf("short-preamble default was not applied")
	}
}

func TestDecodeSignalPower(t *testing.T) {
	rec := baseRecord()
	rec[FieldDataRate] = "54"
	rec[FieldSignalDBM] = "-63"

	frame, err := NewDecoder(false).Decode(rec)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !frame.HasSignal || frame.SignalDBM != -63 {
		t.Errorf("expected -63 dBm signal, got %+v", frame)
	}

	// The field is optional; its absence is not an error.
	delete(rec, FieldSignalDBM)
	frame, err = NewDecoder(false).Decode(rec)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if frame.HasSignal {
		t.Errorf("absent signal field must leave HasSignal unset")
	}

	rec[FieldSignalDBM] = "strong"
	var invalid *InvalidValueError
	_, err = NewDecoder(false).Decode(rec)
	if !errors.As(err, &invalid) || invalid.Field != FieldSignalDBM {
		t.Fatalf("expected InvalidValueError for malformed signal, got %v", err)
	}
}

func TestDecodeHT(t *testing.T) {
	rec := baseRecord()
	rec[FieldMCSIndex] = "12"
	rec[FieldMCSBandwidth] = "1"
	rec[FieldMCSGI] = "1"

	frame, err := NewDecoder(false).Decode(rec)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if frame.PHYMode != model.PHYModeHT {
		t.Errorf("expected ht, got %s", frame.PHYMode)
	}
	if frame.RateIndex != 12 || frame.BandwidthMHz != 40 || frame.SpatialStreams != 2 {
		t.Errorf("unexpected HT parameters: %+v", frame)
	}
	if frame.GuardInterval != model.GuardIntervalShort {
		t.Errorf("expected short GI")
	}

	// 20L/20U sideband codes are still 20 MHz.
	rec[FieldMCSBandwidth] = "3"
	frame, err = NewDecoder(false).Decode(rec)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if frame.BandwidthMHz != 20 {
		t.Errorf("sideband code should map to 20 MHz, got %d", frame.BandwidthMHz)
	}
}

func TestDecodeVHTWinsOverHT(t *testing.T) {
	rec := baseRecord()
	rec[FieldMCSIndex] = "4"
	rec[FieldMCSBandwidth] = "0"
	rec[FieldVHTMCS] = "9"
	rec[FieldVHTNSS] = "2"
	rec[FieldVHTBandwidth] = "4"
	rec[FieldVHTGI] = "1"
	rec[FieldRetry] = "1"

	frame, err := NewDecoder(false).Decode(rec)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if frame.PHYMode != model.PHYModeVHT {
		t.Errorf("VHT fields must take precedence, got %s", frame.PHYMode)
	}
	if frame.RateIndex != 9 || frame.SpatialStreams != 2 || frame.BandwidthMHz != 80 {
		t.Errorf("unexpected VHT parameters: %+v", frame)
	}
	if !frame.Retry {
		t.Errorf("retry flag not decoded")
	}
}

func TestDecodeMissingField(t *testing.T) {
	rec := baseRecord()
	// No rate, MCS or VHT fields at all.
	_, err := NewDecoder(false).Decode(rec)
	var missing *MissingFieldError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingFieldError, got %v", err)
	}
	if missing.Field != FieldDataRate {
		t.Errorf("expected the rate field to be reported, got %q", missing.Field)
	}

	rec = baseRecord()
	rec[FieldMCSIndex] = "7"
	_, err = NewDecoder(false).Decode(rec)
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingFieldError for absent HT bandwidth, got %v", err)
	}
	if missing.Field != FieldMCSBandwidth {
		t.Errorf("expected %q, got %q", FieldMCSBandwidth, missing.Field)
	}
}

func TestDecodeInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(RawRecord)
		field  string
	}{
		{"bad rate", func(r RawRecord) { r[FieldDataRate] = "7.3" }, FieldDataRate},
		{"mcs out of range", func(r RawRecord) {
			r[FieldMCSIndex] = "32"
			r[FieldMCSBandwidth] = "0"
		}, FieldMCSIndex},
		{"vht nss out of range", func(r RawRecord) {
			r[FieldVHTMCS] = "3"
			r[FieldVHTNSS] = "9"
			r[FieldVHTBandwidth] = "0"
		}, FieldVHTNSS},
		{"vht bandwidth code out of range", func(r RawRecord) {
			r[FieldVHTMCS] = "3"
			r[FieldVHTNSS] = "1"
			r[FieldVHTBandwidth] = "26"
		}, FieldVHTBandwidth},
		{"zero frame length", func(r RawRecord) {
			r[FieldFrameLength] = "0"
			r[FieldDataRate] = "6"
		}, FieldFrameLength},
	}

	for _, c := range cases {
		rec := baseRecord()
		c.mutate(rec)
		_, err := NewDecoder(false).Decode(rec)
		var invalid *InvalidValueError
		if !errors.As(err, &invalid) {
			t.Errorf("%s: expected InvalidValueError, got %v", c.name, err)
			continue
		}
		if invalid.Field != c.field {
			t.Errorf("%s: expected field %q, got %q", c.name, c.field, invalid.Field)
		}
	}
}
