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

package layers

import (
	"encoding/binary"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/wgo2tool/go-wgo2/pkg/log"
)

const (
	// PCMHeaderLayerNum identifies the layer
	PCMHeaderLayerNum = 2001
)

const (
	// CodecTagLength is the size of the codec identifier at the start of
	// the first packet of every stream
	CodecTagLength = 8
	// PCMCodecTag identifies raw PCM audio streams
	PCMCodecTag = "PCM     "
	// PCMHeaderLength is the codec tag plus 20 bytes of header fields
	PCMHeaderLength = CodecTagLength + 20
	// PCMFormatS24 is signed 24 bit little endian samples
	PCMFormatS24 = 4
	// PCMSampleWidth is the sample width in bytes for PCMFormatS24
	PCMSampleWidth = 3
)

// PCMHeader is the first packet of a PCM stream
type PCMHeader struct {
	layers.BaseLayer
	Tag                string
	Major              uint16
	Minor              uint16
	Format             uint32
	SampleRate         uint32
	BitDepth           uint8
	Channels           uint8
	MaxFramesPerPacket uint16
	// ExtraHeaderPackets is the number of reserved packets that follow
	// the header and carry no audio
	ExtraHeaderPackets uint32
}

var PCMHeaderLayerType = gopacket.RegisterLayerType(PCMHeaderLayerNum,
	gopacket.LayerTypeMetadata{Name: "PCMHeaderLayerType", Decoder: gopacket.DecodeFunc(DecodePCMHeaderLayer)})

// LayerType returns the type of the PCM header layer in the layer catalog
func (h *PCMHeader) LayerType() gopacket.LayerType {
	return PCMHeaderLayerType
}

func (h *PCMHeader) CanDecode() gopacket.LayerClass {
	return PCMHeaderLayerType
}

func (h *PCMHeader) NextLayerType() gopacket.LayerType {
	return gopacket.LayerTypeZero
}

// DecodeFromBytes decodes the header packet, data starts at the codec tag
func (h *PCMHeader) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < PCMHeaderLength {
		df.SetTruncated()
		return ErrFormat{What: fmt.Sprintf("PCM header packet too short: %d bytes, need %d", len(data), PCMHeaderLength)}
	}

	h.BaseLayer = layers.BaseLayer{
		Contents: data[:PCMHeaderLength],
		Payload:  data[PCMHeaderLength:],
	}
	h.Tag = string(data[0:CodecTagLength])
	h.Major = binary.LittleEndian.Uint16(data[8:10])
	h.Minor = binary.LittleEndian.Uint16(data[10:12])
	h.Format = binary.LittleEndian.Uint32(data[12:16])
	h.SampleRate = binary.LittleEndian.Uint32(data[16:20])
	h.BitDepth = data[20]
	h.Channels = data[21]
	h.MaxFramesPerPacket = binary.LittleEndian.Uint16(data[22:24])
	h.ExtraHeaderPackets = binary.LittleEndian.Uint32(data[24:28])

	log.Debug("PCMHeader: Version: %d.%d", h.Major, h.Minor)
	log.Debug("PCMHeader: Format: %d", h.Format)
	log.Debug("PCMHeader: SampleRate: %d", h.SampleRate)
	log.Debug("PCMHeader: BitDepth: %d", h.BitDepth)
	log.Debug("PCMHeader: Channels: %d", h.Channels)
	log.Debug("PCMHeader: MaxFramesPerPacket: %d", h.MaxFramesPerPacket)
	log.Debug("PCMHeader: ExtraHeaderPackets: %d", h.ExtraHeaderPackets)
	return nil
}

// Validate checks the header describes a stream we can write out verbatim
func (h *PCMHeader) Validate() error {
	if h.Major != 0 || h.Minor != 0 {
		return ErrFormat{What: fmt.Sprintf("unknown PCM header version %d.%d", h.Major, h.Minor)}
	}
	if h.Format != PCMFormatS24 {
		return ErrFormat{What: fmt.Sprintf("unknown PCM sample format %d", h.Format)}
	}
	return nil
}

// SerializeTo serializes the header packet into bytes and writes the bytes to the SerializeBuffer
func (h *PCMHeader) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	buf, err := b.PrependBytes(PCMHeaderLength)
	if err != nil {
		return err
	}
	tag := h.Tag
	if tag == "" {
		tag = PCMCodecTag
	}
	copy(buf[0:CodecTagLength], fmt.Sprintf("%-8s", tag))
	binary.LittleEndian.PutUint16(buf[8:10], h.Major)
	binary.LittleEndian.PutUint16(buf[10:12], h.Minor)
	binary.LittleEndian.PutUint32(buf[12:16], h.Format)
	binary.LittleEndian.PutUint32(buf[16:20], h.SampleRate)
	buf[20] = h.BitDepth
	buf[21] = h.Channels
	binary.LittleEndian.PutUint16(buf[22:24], h.MaxFramesPerPacket)
	binary.LittleEndian.PutUint32(buf[24:28], h.ExtraHeaderPackets)
	return nil
}

func DecodePCMHeaderLayer(data []byte, p gopacket.PacketBuilder) error {
	h := &PCMHeader{}
	err := h.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(h)
	return nil
}
