package model

import (
	"time"
)

// PHYMode identifies the 802.11 PHY generation a frame was transmitted with.
type PHYMode uint8

const (
	PHYModeUnknown PHYMode = iota
	PHYModeLegacyCCK
	PHYModeLegacyOFDM
	PHYModeHT
	PHYModeVHT
)

func (m PHYMode) String() string {
	switch m {
	case PHYModeLegacyCCK:
		return "legacy-cck"
	case PHYModeLegacyOFDM:
		return "legacy-ofdm"
	case PHYModeHT:
		return "ht"
	case PHYModeVHT:
		return "vht"
	default:
		return "unknown"
	}
}

// GuardInterval selects between the long (800ns) and short (400ns) OFDM
// guard interval. For CCK frames it doubles as the preamble-type flag:
// short GI selects the short PLCP preamble.
type GuardInterval uint8

const (
	GuardIntervalLong GuardInterval = iota
	GuardIntervalShort
)

func (g GuardInterval) String() string {
	if g == GuardIntervalShort {
		return "short"
	}
	return "long"
}

// FrameDescriptor holds the PHY-relevant facts of a single captured frame.
type FrameDescriptor struct {
	PHYMode        PHYMode
	RateIndex      int // legacy: index into the fixed rate list; HT/VHT: MCS
	BandwidthMHz   int // 20, 40, 80 or 160; legacy modes are always 20
	SpatialStreams int // >= 1; legacy modes are always 1
	GuardInterval  GuardInterval
	FrameLength    int // MAC frame length in bytes, FCS included
	Retry          bool
	FCSBad         bool
	SignalDBM      int // antenna signal power; valid only when HasSignal
	HasSignal      bool
	StationID      string
	ChannelID      string
	Timestamp      time.Time
}

// Classification says whether a frame's airtime could be computed.
type Classification uint8

const (
	ClassificationOK Classification = iota
	ClassificationUnresolvable
)

func (c Classification) String() string {
	if c == ClassificationUnresolvable {
		return "unresolvable"
	}
	return "ok"
}

// AirtimeResult is the calculator's output for one frame. Durations are
// integer nanoseconds; an unresolvable frame carries a zero duration.
type AirtimeResult struct {
	DurationNs     int64
	PreambleNs     int64
	PayloadNs      int64
	Classification Classification
}

// Key identifies one aggregation bucket inside a window.
type Key struct {
	StationID string
	ChannelID string
}

// Totals are the running counters for one (station, channel) key.
// TotalAirtimeNs covers resolvable frames only; everything else counts all
// frames seen for the key.
type Totals struct {
	FrameCount        uint64
	UnresolvableCount uint64
	RetryCount        uint64
	FCSBadCount       uint64
	TotalAirtimeNs    uint64
	TotalBytes        uint64
}

// WindowSnapshot is the immutable copy of a completed aggregation window.
// It is the only view of a window the aggregator ever exposes.
type WindowSnapshot struct {
	Start           time.Time
	End             time.Time
	Totals          map[Key]Totals
	DecodeFailures  uint64
	OutOfOrderCount uint64
}
