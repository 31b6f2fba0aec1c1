package phy

import (
	"errors"
	"fmt"

	"AirSpectra/internal/model"
)

// ErrNotFound is returned by Lookup when the requested
// (mode, index, bandwidth, streams, GI) tuple has no standard-defined entry.
// Callers turn it into an unresolvable frame classification, never a fatal error.
var ErrNotFound = errors.New("phy: no rate table entry")

// Entry is one immutable row of the rate table.
type Entry struct {
	Modulation       string
	CodingRate       string
	DataRateKbps     int
	BitsPerSymbol    int   // N_DBPS across all spatial streams; 0 for DSSS/CCK
	SymbolDurationNs int64 // 0 for DSSS/CCK, which has no symbol structure here
}

type key struct {
	mode    model.PHYMode
	index   int
	bwMHz   int
	streams int
	shortGI bool
}

// legacyRates lists the fixed legacy rates in index order. Indices 0-3 are
// DSSS/CCK, 4-11 are ERP-OFDM.
var legacyRates = []struct {
	kbps       int
	modulation string
	coding     string
}{
	{1000, "DBPSK", "1/1"},
	{2000, "DQPSK", "1/1"},
	{5500, "CCK", "1/1"},
	{11000, "CCK", "1/1"},
	{6000, "BPSK", "1/2"},
	{9000, "BPSK", "3/4"},
	{12000, "QPSK", "1/2"},
	{18000, "QPSK", "3/4"},
	{24000, "16-QAM", "1/2"},
	{36000, "16-QAM", "3/4"},
	{48000, "64-QAM", "2/3"},
	{54000, "64-QAM", "3/4"},
}

// LegacyRateIndex maps a legacy rate in units of 500 kb/s (the radiotap
// encoding) to its index in the fixed rate list, or -1.
func LegacyRateIndex(halfMbps int) int {
	for i, r := range legacyRates {
		if r.kbps == halfMbps*500 {
			return i
		}
	}
	return -1
}

// mcsParams describes the modulation and coding of MCS index i mod 8 for HT
// (indices 0-7) and of VHT MCS i (indices 0-9). Coding rates are kept as
// numerator/denominator so N_DBPS integrality can be checked exactly.
var mcsParams = []struct {
	bitsPerCarrier int
	codeNum        int
	codeDen        int
	modulation     string
	coding         string
}{
	{1, 1, 2, "BPSK", "1/2"},
	{2, 1, 2, "QPSK", "1/2"},
	{2, 3, 4, "QPSK", "3/4"},
	{4, 1, 2, "16-QAM", "1/2"},
	{4, 3, 4, "16-QAM", "3/4"},
	{6, 2, 3, "64-QAM", "2/3"},
	{6, 3, 4, "64-QAM", "3/4"},
	{6, 5, 6, "64-QAM", "5/6"},
	{8, 3, 4, "256-QAM", "3/4"},
	{8, 5, 6, "256-QAM", "5/6"},
}

// dataSubcarriers gives N_SD per bandwidth for the HT/VHT OFDM numerology.
var dataSubcarriers = map[int]int{
	20:  52,
	40:  108,
	80:  234,
	160: 468,
}

// vhtExcluded lists the MCS/bandwidth/stream combinations the standard rules
// out even though their N_DBPS would be integral.
var vhtExcluded = map[[3]int]bool{
	{80, 6, 3}:  true,
	{80, 6, 7}:  true,
	{160, 9, 3}: true,
}

const (
	longGISymbolNs  = 4000
	shortGISymbolNs = 3600
)

// rateTable is built once at init and never mutated afterwards, so it is
// safe for unsynchronized concurrent reads.
var rateTable map[key]Entry

func init() {
	rateTable = make(map[key]Entry)
	buildLegacy()
	buildHT()
	buildVHT()
}

func buildLegacy() {
	for i, r := range legacyRates {
		mode := model.PHYModeLegacyCCK
		bps := 0
		var symNs int64
		if i >= 4 {
			mode = model.PHYModeLegacyOFDM
			// N_DBPS is the bits carried by one 4us symbol.
			bps = r.kbps * 4 / 1000
			symNs = longGISymbolNs
		}
		rateTable[key{mode, i, 20, 1, false}] = Entry{
			Modulation:       r.modulation,
			CodingRate:       r.coding,
			DataRateKbps:     r.kbps,
			BitsPerSymbol:    bps,
			SymbolDurationNs: symNs,
		}
	}
}

func buildHT() {
	for mcs := 0; mcs < 32; mcs++ {
		p := mcsParams[mcs%8]
		streams := mcs/8 + 1
		for _, bw := range []int{20, 40} {
			nsd := dataSubcarriers[bw]
			ndbps := nsd * p.bitsPerCarrier * p.codeNum * streams / p.codeDen
			for _, shortGI := range []bool{false, true} {
				symNs := int64(longGISymbolNs)
				if shortGI {
					symNs = shortGISymbolNs
				}
				rateTable[key{model.PHYModeHT, mcs, bw, streams, shortGI}] = Entry{
					Modulation:       p.modulation,
					CodingRate:       p.coding,
					DataRateKbps:     int(int64(ndbps) * 1_000_000 / symNs),
					BitsPerSymbol:    ndbps,
					SymbolDurationNs: symNs,
				}
			}
		}
	}
}

func buildVHT() {
	for mcs := 0; mcs < 10; mcs++ {
		p := mcsParams[mcs]
		for streams := 1; streams <= 8; streams++ {
			for _, bw := range []int{20, 40, 80, 160} {
				if vhtExcluded[[3]int{bw, mcs, streams}] {
					continue
				}
				nsd := dataSubcarriers[bw]
				raw := nsd * p.bitsPerCarrier * p.codeNum * streams
				if raw%p.codeDen != 0 {
					// Non-integral N_DBPS; the standard defines no such rate
					// (e.g. VHT MCS 9 at 20 MHz with one stream).
					continue
				}
				ndbps := raw / p.codeDen
				for _, shortGI := range []bool{false, true} {
					symNs := int64(longGISymbolNs)
					if shortGI {
						symNs = shortGISymbolNs
					}
					rateTable[key{model.PHYModeVHT, mcs, bw, streams, shortGI}] = Entry{
						Modulation:       p.modulation,
						CodingRate:       p.coding,
						DataRateKbps:     int(int64(ndbps) * 1_000_000 / symNs),
						BitsPerSymbol:    ndbps,
						SymbolDurationNs: symNs,
					}
				}
			}
		}
	}
}

// Lookup resolves a rate table entry for the given PHY parameters. It
// returns ErrNotFound when the tuple is not defined by the standard.
func Lookup(mode model.PHYMode, index, bwMHz, streams int, gi model.GuardInterval) (Entry, error) {
	k := key{mode: mode, index: index, bwMHz: bwMHz, streams: streams, shortGI: gi == model.GuardIntervalShort}
	if mode == model.PHYModeLegacyCCK || mode == model.PHYModeLegacyOFDM {
		// Legacy entries are stored once; the guard interval flag only
		// matters to the CCK preamble choice, not to the table row.
		k.shortGI = false
	}
	entry, ok := rateTable[k]
	if !ok {
		return Entry{}, fmt.Errorf("%w: mode=%s index=%d bw=%dMHz nss=%d gi=%s",
			ErrNotFound, mode, index, bwMHz, streams, gi)
	}
	return entry, nil
}
