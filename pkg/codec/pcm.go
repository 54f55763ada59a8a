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

// PCMHandler writes the frames of a raw PCM stream to an AudioSink.
//
// Packet 0 is the header, the next ExtraHeaderPackets packets are reserved
// and skipped, everything after that is frame data.
type PCMHandler struct {
	serial             uint32
	sink               AudioSink
	donePackets        uint64
	extraHeaderPackets uint64
	format             *AudioFormat
	frameBytes         int64
}

var _ Handler = &PCMHandler{}

func NewPCMHandler(serial uint32, sink AudioSink) *PCMHandler {
	if sink == nil {
		sink = Discard
	}
	return &PCMHandler{
		serial: serial,
		sink:   sink,
	}
}

func (h *PCMHandler) Codec() Codec {
	return CodecPCM
}

func (h *PCMHandler) HandlePacket(packet []byte) error {
	defer func() { h.donePackets++ }()

	switch {
	case h.donePackets == 0:
		return h.handleHeader(packet)
	case h.donePackets <= h.extraHeaderPackets:
		log.Debug("PCM stream 0x%08x: skipping extra header packet %d", h.serial, h.donePackets)
		return nil
	default:
		h.frameBytes += int64(len(packet))
		return h.sink.WriteFrames(packet)
	}
}

func (h *PCMHandler) handleHeader(packet []byte) error {
	header := &layers.PCMHeader{}
	if err := header.DecodeFromBytes(packet, gopacket.NilDecodeFeedback); err != nil {
		return err
	}
	if err := header.Validate(); err != nil {
		return err
	}

	format := AudioFormat{
		Channels:    int(header.Channels),
		SampleWidth: layers.PCMSampleWidth,
		SampleRate:  int(header.SampleRate),
	}
	log.Info("PCM stream 0x%08x: %d channels, %d Hz, %d bit",
		h.serial, format.Channels, format.SampleRate, header.BitDepth)

	if err := h.sink.Configure(format); err != nil {
		return err
	}
	h.format = &format
	h.extraHeaderPackets = uint64(header.ExtraHeaderPackets)
	return nil
}

func (h *PCMHandler) Close(out *Output) error {
	if h.format != nil {
		format := *h.format
		out.Format = &format
	}
	out.FrameBytes += h.frameBytes
	out.Streams = append(out.Streams, StreamSummary{
		Serial:  h.serial,
		Codec:   h.Codec().String(),
		Packets: h.donePackets,
	})
	log.Debug("PCM stream 0x%08x closed: %d packets, %d frame bytes", h.serial, h.donePackets, h.frameBytes)
	return nil
}
