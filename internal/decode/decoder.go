package decode

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"AirSpectra/internal/model"
	"AirSpectra/internal/phy"
)

// RawRecord is one frame's worth of dissector output: field name to value,
// the way tshark-style tools emit them. Absent fields are simply not present
// in the map; empty values count as absent too.
type RawRecord map[string]string

// Field names understood by the decoder.
const (
	FieldFrameLength  = "frame.len"
	FieldTimestamp    = "frame.time_epoch"
	FieldDataRate     = "radiotap.datarate"
	FieldPreamble     = "radiotap.flags.preamble"
	FieldBadFCS       = "radiotap.flags.badfcs"
	FieldMCSIndex     = "radiotap.mcs.index"
	FieldMCSBandwidth = "radiotap.mcs.bw"
	FieldMCSGI        = "radiotap.mcs.gi"
	FieldVHTMCS       = "radiotap.vht.mcs.0"
	FieldVHTNSS       = "radiotap.vht.nss.0"
	FieldVHTBandwidth = "radiotap.vht.bw"
	FieldVHTGI        = "radiotap.vht.gi"
	FieldRetry        = "wlan.fc.retry"
	FieldStation      = "wlan.ta"
	FieldChannelFreq  = "radiotap.channel.freq"
	FieldSignalDBM    = "radiotap.dbm_antsignal"
)

// MissingFieldError reports a field the detected PHY mode requires but the
// record does not carry.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("decode: missing field %q", e.Field)
}

// InvalidValueError reports a field whose value is outside the range the
// detected PHY mode allows.
type InvalidValueError struct {
	Field string
	Value string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("decode: invalid value %q for field %q", e.Value, e.Field)
}

// Decoder turns raw dissector records into frame descriptors. It is
// stateless apart from the configured CCK preamble default and safe for
// concurrent use.
type Decoder struct {
	cckShortPreamble bool
}

// NewDecoder creates a decoder. cckShortPreamble selects the short CCK
// preamble for records that carry no preamble flag; the long preamble is the
// default the standard always permits.
func NewDecoder(cckShortPreamble bool) *Decoder {
	return &Decoder{cckShortPreamble: cckShortPreamble}
}

func (r RawRecord) has(field string) bool {
	v, ok := r[field]
	return ok && v != ""
}

func (r RawRecord) intField(field string) (int, error) {
	v, ok := r[field]
	if !ok || v == "" {
		return 0, &MissingFieldError{Field: field}
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &InvalidValueError{Field: field, Value: v}
	}
	return n, nil
}

func (r RawRecord) boolField(field string) bool {
	return r[field] == "1" || r[field] == "true"
}

// Decode normalizes one raw record into a FrameDescriptor. The PHY mode is
// detected from the fields present: VHT fields win over HT fields, which win
// over the plain legacy rate field.
func (d *Decoder) Decode(rec RawRecord) (model.FrameDescriptor, error) {
	var frame model.FrameDescriptor

	length, err := rec.intField(FieldFrameLength)
	if err != nil {
		return frame, err
	}
	if length <= 0 {
		return frame, &InvalidValueError{Field: FieldFrameLength, Value: rec[FieldFrameLength]}
	}
	frame.FrameLength = length

	station, ok := rec[FieldStation]
	if !ok || station == "" {
		return frame, &MissingFieldError{Field: FieldStation}
	}
	frame.StationID = station

	channel, ok := rec[FieldChannelFreq]
	if !ok || channel == "" {
		return frame, &MissingFieldError{Field: FieldChannelFreq}
	}
	frame.ChannelID = channel

	ts, ok := rec[FieldTimestamp]
	if !ok || ts == "" {
		return frame, &MissingFieldError{Field: FieldTimestamp}
	}
	epoch, err := strconv.ParseFloat(ts, 64)
	if err != nil || epoch < 0 {
		return frame, &InvalidValueError{Field: FieldTimestamp, Value: ts}
	}
	sec, frac := math.Modf(epoch)
	frame.Timestamp = time.Unix(int64(sec), int64(frac*1e9))

	frame.Retry = rec.boolField(FieldRetry)
	frame.FCSBad = rec.boolField(FieldBadFCS)

	// Signal power is optional; frames relayed without a radio header
	// simply do not carry it.
	if rec.has(FieldSignalDBM) {
		dbm, err := rec.intField(FieldSignalDBM)
		if err != nil {
			return frame, err
		}
		frame.SignalDBM = dbm
		frame.HasSignal = true
	}

	switch {
	case rec.has(FieldVHTMCS):
		err = d.decodeVHT(rec, &frame)
	case rec.has(FieldMCSIndex):
		err = d.decodeHT(rec, &frame)
	case rec.has(FieldDataRate):
		err = d.decodeLegacy(rec, &frame)
	default:
		err = &MissingFieldError{Field: FieldDataRate}
	}
	if err != nil {
		return model.FrameDescriptor{}, err
	}
	return frame, nil
}

func (d *Decoder) decodeLegacy(rec RawRecord, frame *model.FrameDescriptor) error {
	v := rec[FieldDataRate]
	rate, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return &InvalidValueError{Field: FieldDataRate, Value: v}
	}
	halfMbps := rate * 2
	if halfMbps != math.Trunc(halfMbps) {
		return &InvalidValueError{Field: FieldDataRate, Value: v}
	}
	index := phy.LegacyRateIndex(int(halfMbps))
	if index < 0 {
		return &InvalidValueError{Field: FieldDataRate, Value: v}
	}

	if index < 4 {
		frame.PHYMode = model.PHYModeLegacyCCK
	} else {
		frame.PHYMode = model.PHYModeLegacyOFDM
	}
	frame.RateIndex = index
	frame.BandwidthMHz = 20
	frame.SpatialStreams = 1

	// The preamble flag picks the short CCK preamble; without it the
	// configured default applies.
	frame.GuardInterval = model.GuardIntervalLong
	if rec.has(FieldPreamble) {
		if rec.boolField(FieldPreamble) {
			frame.GuardInterval = model.GuardIntervalShort
		}
	} else if d.cckShortPreamble && frame.PHYMode == model.PHYModeLegacyCCK {
		frame.GuardInterval = model.GuardIntervalShort
	}
	return nil
}

func (d *Decoder) decodeHT(rec RawRecord, frame *model.FrameDescriptor) error {
	mcs, err := rec.intField(FieldMCSIndex)
	if err != nil {
		return err
	}
	if mcs < 0 || mcs > 31 {
		return &InvalidValueError{Field: FieldMCSIndex, Value: rec[FieldMCSIndex]}
	}

	bwCode, err := rec.intField(FieldMCSBandwidth)
	if err != nil {
		return err
	}
	// Radiotap encodes 0=20, 1=40, 2=20L, 3=20U; the sidebands are still
	// 20 MHz transmissions.
	var bw int
	switch bwCode {
	case 0, 2, 3:
		bw = 20
	case 1:
		bw = 40
	default:
		return &InvalidValueError{Field: FieldMCSBandwidth, Value: rec[FieldMCSBandwidth]}
	}

	frame.PHYMode = model.PHYModeHT
	frame.RateIndex = mcs
	frame.BandwidthMHz = bw
	frame.SpatialStreams = mcs/8 + 1
	frame.GuardInterval = model.GuardIntervalLong
	if rec.boolField(FieldMCSGI) {
		frame.GuardInterval = model.GuardIntervalShort
	}
	return nil
}

func (d *Decoder) decodeVHT(rec RawRecord, frame *model.FrameDescriptor) error {
	mcs, err := rec.intField(FieldVHTMCS)
	if err != nil {
		return err
	}
	if mcs < 0 || mcs > 9 {
		return &InvalidValueError{Field: FieldVHTMCS, Value: rec[FieldVHTMCS]}
	}

	nss, err := rec.intField(FieldVHTNSS)
	if err != nil {
		return err
	}
	if nss < 1 || nss > 8 {
		return &InvalidValueError{Field: FieldVHTNSS, Value: rec[FieldVHTNSS]}
	}

	bwCode, err := rec.intField(FieldVHTBandwidth)
	if err != nil {
		return err
	}
	bw, ok := vhtBandwidthMHz(bwCode)
	if !ok {
		return &InvalidValueError{Field: FieldVHTBandwidth, Value: rec[FieldVHTBandwidth]}
	}

	frame.PHYMode = model.PHYModeVHT
	frame.RateIndex = mcs
	frame.BandwidthMHz = bw
	frame.SpatialStreams = nss
	frame.GuardInterval = model.GuardIntervalLong
	if rec.boolField(FieldVHTGI) {
		frame.GuardInterval = model.GuardIntervalShort
	}
	return nil
}

// vhtBandwidthMHz maps the radiotap VHT bandwidth code (which also encodes
// sideband positions) to the transmission bandwidth.
func vhtBandwidthMHz(code int) (int, bool) {
	switch {
	case code == 0:
		return 20, true
	case code >= 1 && code <= 3:
		return 40, true
	case code >= 4 && code <= 10:
		return 80, true
	case code >= 11 && code <= 25:
		return 160, true
	default:
		return 0, false
	}
}
