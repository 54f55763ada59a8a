/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package codec

import (
	"github.com/google/gopacket"

	"github.com/wgo2tool/go-wgo2/pkg/layers"
	"github.com/wgo2tool/go-wgo2/pkg/log"
)

// WGo2Handler decodes the recorder telemetry streams. Peak streams are
// accepted and ignored; status streams yield the marker offsets.
//
// A status stream is a sequence of 16 byte records, one per second of
// recording. Packets do not follow record boundaries, so a partial record
// is kept until the next packet completes it.
type WGo2Handler struct {
	serial      uint32
	donePackets uint64
	subtype     layers.WGo2Subtype
	buf         []byte
	seconds     int
	markers     []int
}

var _ Handler = &WGo2Handler{}

func NewWGo2Handler(serial uint32) *WGo2Handler {
	return &WGo2Handler{
		serial: serial,
	}
}

func (h *WGo2Handler) Codec() Codec {
	return CodecWGo2
}

func (h *WGo2Handler) Subtype() layers.WGo2Subtype {
	return h.subtype
}

func (h *WGo2Handler) HandlePacket(packet []byte) error {
	defer func() { h.donePackets++ }()

	if h.donePackets == 0 {
		return h.handleHeader(packet)
	}
	if h.subtype == layers.WGo2StatusSubtype {
		h.handleStatus(packet)
	}
	return nil
}

func (h *WGo2Handler) handleHeader(packet []byte) error {
	header := &layers.WGo2Header{}
	if err := header.DecodeFromBytes(packet, gopacket.NilDecodeFeedback); err != nil {
		return err
	}
	switch header.Subtype {
	case layers.WGo2PeakSubtype:
	case layers.WGo2StatusSubtype:
		h.markers = []int{}
	default:
		return ErrUnknownSubtype{Subtype: header.Subtype}
	}
	h.subtype = header.Subtype
	log.Debug("Telemetry stream 0x%08x: subtype %s", h.serial, h.subtype)
	return nil
}

func (h *WGo2Handler) handleStatus(packet []byte) {
	h.buf = append(h.buf, packet...)
	// A record exactly at the end of the buffer waits for the next packet
	// or for Close
	for len(h.buf) > layers.StatusRecordLength {
		h.consumeRecord()
	}
}

func (h *WGo2Handler) consumeRecord() {
	// the caller guarantees a whole record is buffered
	record, _ := layers.DecodeStatusRecord(h.buf)
	h.buf = h.buf[layers.StatusRecordLength:]
	if record.Marker() {
		log.Debug("Telemetry stream 0x%08x: marker at %d s", h.serial, h.seconds)
		h.markers = append(h.markers, h.seconds)
	}
	h.seconds++
}

// Seconds returns the number of status records consumed so far
func (h *WGo2Handler) Seconds() int {
	return h.seconds
}

func (h *WGo2Handler) Close(out *Output) error {
	if h.subtype == layers.WGo2StatusSubtype {
		for len(h.buf) >= layers.StatusRecordLength {
			h.consumeRecord()
		}
		if len(h.buf) > 0 {
			log.Debug("Telemetry stream 0x%08x: dropping %d bytes of partial status record", h.serial, len(h.buf))
		}
		h.buf = nil

		markers := make([]int, len(h.markers))
		copy(markers, h.markers)
		out.Markers = markers
		out.HasMarkers = true
		log.Info("Telemetry stream 0x%08x: %d s of status, %d markers", h.serial, h.seconds, len(markers))
	}
	out.Streams = append(out.Streams, StreamSummary{
		Serial:  h.serial,
		Codec:   h.Codec().String(),
		Subtype: h.subtype.String(),
		Packets: h.donePackets,
	})
	return nil
}
