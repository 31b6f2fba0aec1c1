package phy

import (
	"AirSpectra/internal/model"
)

// PLCP timing constants, all in nanoseconds. The CCK values cover the full
// preamble plus PLCP header (144 preamble bits + 48 header bits at 1 Mb/s for
// the long variant; the short variant sends 72 preamble bits at 1 Mb/s and
// the header at 2 Mb/s).
const (
	cckLongPreambleNs  = 192_000
	cckShortPreambleNs = 96_000

	ofdmPreambleNs = 16_000 // T_PREAMBLE: L-STF + L-LTF
	ofdmSignalNs   = 4_000  // T_SIGNAL

	serviceBits = 16
	tailBits    = 6

	// Mixed-format HT/VHT preamble fields.
	legacyPreambleNs = 16_000 // L-STF + L-LTF
	legacySIGNs      = 4_000
	htSIGNs          = 8_000
	htSTFNs          = 4_000
	htLTFNs          = 4_000 // per HT-DLTF
	vhtSIGANs        = 8_000
	vhtSTFNs         = 4_000
	vhtLTFNs         = 4_000 // per VHT-LTF
	vhtSIGBNs        = 4_000
)

// divCeil is integer division rounding up; partial symbols always cost a
// full symbol period.
func divCeil(n, d int64) int64 {
	return (n + d - 1) / d
}

// numLTF returns the number of long training fields transmitted for the
// given number of space-time streams (802.11 tables 19-12 / 21-13).
func numLTF(streams int) int64 {
	switch {
	case streams <= 2:
		return int64(streams)
	case streams <= 4:
		return 4
	case streams <= 6:
		return 6
	default:
		return 8
	}
}

// Compute calculates how long one frame occupied the medium. It is a pure
// function over the descriptor and the static rate table: all arithmetic is
// in integer nanoseconds, with the standard's ceiling semantics for whole
// symbols (and whole microseconds on the CCK path). A failed rate table
// lookup yields a zero-duration result classified unresolvable.
func Compute(frame model.FrameDescriptor) model.AirtimeResult {
	entry, err := Lookup(frame.PHYMode, frame.RateIndex, frame.BandwidthMHz, frame.SpatialStreams, frame.GuardInterval)
	if err != nil {
		return model.AirtimeResult{Classification: model.ClassificationUnresolvable}
	}

	frameBits := int64(frame.FrameLength) * 8
	var preambleNs, payloadNs int64

	switch frame.PHYMode {
	case model.PHYModeLegacyCCK:
		preambleNs = cckLongPreambleNs
		// Short preamble is not defined at 1 Mb/s.
		if frame.GuardInterval == model.GuardIntervalShort && entry.DataRateKbps != 1000 {
			preambleNs = cckShortPreambleNs
		}
		// TXTIME ceils the payload to whole microseconds. bits*1000/kbps is
		// microseconds, so the ceiling lands on the microsecond boundary.
		payloadNs = divCeil(frameBits*1_000, int64(entry.DataRateKbps)) * 1000

	case model.PHYModeLegacyOFDM:
		preambleNs = ofdmPreambleNs + ofdmSignalNs
		numSymbols := divCeil(serviceBits+frameBits+tailBits, int64(entry.BitsPerSymbol))
		payloadNs = numSymbols * entry.SymbolDurationNs

	case model.PHYModeHT:
		preambleNs = legacyPreambleNs + legacySIGNs + htSIGNs + htSTFNs +
			htLTFNs*numLTF(frame.SpatialStreams)
		numSymbols := divCeil(serviceBits+frameBits+tailBits, int64(entry.BitsPerSymbol))
		payloadNs = numSymbols * entry.SymbolDurationNs

	case model.PHYModeVHT:
		preambleNs = legacyPreambleNs + legacySIGNs + vhtSIGANs + vhtSTFNs +
			vhtLTFNs*numLTF(frame.SpatialStreams) + vhtSIGBNs
		numSymbols := divCeil(serviceBits+frameBits+tailBits, int64(entry.BitsPerSymbol))
		payloadNs = numSymbols * entry.SymbolDurationNs

	default:
		return model.AirtimeResult{Classification: model.ClassificationUnresolvable}
	}

	return model.AirtimeResult{
		DurationNs:     preambleNs + payloadNs,
		PreambleNs:     preambleNs,
		PayloadNs:      payloadNs,
		Classification: model.ClassificationOK,
	}
}
