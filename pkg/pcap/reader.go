package pcap

import (
	"log"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"

	"AirSpectra/internal/decode"
)

// Reader reads radiotap-encapsulated frames from a capture file.
type Reader struct {
	handle *pcap.Handle
}

// NewReader creates a new capture reader for the given file path.
func NewReader(filePath string) (*Reader, error) {
	handle, err := pcap.OpenOffline(filePath)
	if err != nil {
		return nil, err
	}
	return &Reader{handle: handle}, nil
}

// Close closes the capture handle.
func (r *Reader) Close() {
	r.handle.Close()
}

// ReadRecords reads all frames from the capture and sends flattened raw
// records to the provided channel. Frames without a radiotap header are
// logged and skipped; the channel is left open for the caller to close.
func (r *Reader) ReadRecords(out chan<- decode.RawRecord) {
	packetSource := gopacket.NewPacketSource(r.handle, r.handle.LinkType())
	for packet := range packetSource.Packets() {
		rec, err := decode.RecordFromPacket(packet)
		if err != nil {
			log.Printf("Error reading capture packet: %v", err)
			continue
		}
		out <- rec
	}
}
