package decode

import (
	"fmt"
	"strconv"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// RecordFromPacket flattens a radiotap-encapsulated capture packet into the
// raw field mapping the decoder consumes, mirroring the field names a
// tshark-based dissector would emit.
func RecordFromPacket(packet gopacket.Packet) (RawRecord, error) {
	rtLayer := packet.Layer(layers.LayerTypeRadioTap)
	if rtLayer == nil {
		return nil, fmt.Errorf("decode: packet has no radiotap header")
	}
	rt := rtLayer.(*layers.RadioTap)

	rec := RawRecord{
		FieldFrameLength: strconv.Itoa(len(rt.Payload)),
	}

	if meta := packet.Metadata(); meta != nil && !meta.Timestamp.IsZero() {
		ts := meta.Timestamp
		rec[FieldTimestamp] = strconv.FormatFloat(
			float64(ts.UnixNano())/1e9, 'f', 9, 64)
	}

	if rt.Present.Channel() {
		rec[FieldChannelFreq] = strconv.Itoa(int(rt.ChannelFrequency))
	}
	if rt.Present.DBMAntennaSignal() {
		rec[FieldSignalDBM] = strconv.Itoa(int(rt.DBMAntennaSignal))
	}
	if rt.Present.Flags() {
		if rt.Flags.ShortPreamble() {
			rec[FieldPreamble] = "1"
		}
		if rt.Flags.BadFCS() {
			rec[FieldBadFCS] = "1"
		}
	}

	switch {
	case rt.Present.VHT() && rt.VHT.MCSNSS[0].Present():
		// Only the first user of an MU transmission is carried here.
		rec[FieldVHTMCS] = strconv.Itoa(int(rt.VHT.MCSNSS[0] >> 4))
		rec[FieldVHTNSS] = strconv.Itoa(int(rt.VHT.MCSNSS[0] & 0x0f))
		rec[FieldVHTBandwidth] = strconv.Itoa(int(rt.VHT.Bandwidth & 0x1f))
		if rt.VHT.Known.GI() && rt.VHT.Flags.SGI() {
			rec[FieldVHTGI] = "1"
		}
	case rt.Present.MCS():
		rec[FieldMCSIndex] = strconv.Itoa(int(rt.MCS.MCS))
		rec[FieldMCSBandwidth] = strconv.Itoa(rt.MCS.Flags.Bandwidth())
		if rt.MCS.Flags.ShortGI() {
			rec[FieldMCSGI] = "1"
		}
	case rt.Present.Rate():
		rec[FieldDataRate] = strconv.FormatFloat(float64(rt.Rate)/2, 'f', -1, 64)
	}

	if dotLayer := packet.Layer(layers.LayerTypeDot11); dotLayer != nil {
		dot11 := dotLayer.(*layers.Dot11)
		if dot11.Flags.Retry() {
			rec[FieldRetry] = "1"
		}
		// The transmitter address identifies the station occupying the medium.
		if len(dot11.Address2) > 0 {
			rec[FieldStation] = dot11.Address2.String()
		}
	}

	return rec, nil
}
