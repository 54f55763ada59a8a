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
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/wgo2tool/go-wgo2/pkg/log"
)

const (
	// OggPageLayerNum identifies the layer
	OggPageLayerNum = 2000
)

const (
	// PageSync is the capture pattern in front of every page
	PageSync = "OggS"
	// PageHeaderLength is the fixed header that follows the capture pattern
	PageHeaderLength = 23
	// PageFrameLength is capture pattern plus fixed header.
	// Header fields below are addressed relative to the frame start.
	PageFrameLength = len(PageSync) + PageHeaderLength
	// PageRevision is the only stream structure revision we can read
	PageRevision = 0
)

// Page header flags
const (
	PageFlagContinued     uint8 = 0x01
	PageFlagBeginOfStream uint8 = 0x02
	PageFlagEndOfStream   uint8 = 0x04
)

// OggPageHeader ... // 27 bytes including capture pattern
type OggPageHeader struct {
	Version     uint8
	Flags       uint8
	GranulePos  uint64
	Serial      uint32
	Sequence    uint32
	Checksum    uint32
	NumSegments uint8
}

// OggPage is one container page. Every segment is a complete packet,
// pages carrying parts of a packet are rejected while decoding.
type OggPage struct {
	layers.BaseLayer
	OggPageHeader
	LacingTable []byte
	Segments    [][]byte
}

var OggPageLayerType = gopacket.RegisterLayerType(OggPageLayerNum,
	gopacket.LayerTypeMetadata{Name: "OggPageLayerType", Decoder: gopacket.DecodeFunc(DecodeOggPageLayer)})

// LayerType returns the type of the page layer in the layer catalog
func (p *OggPage) LayerType() gopacket.LayerType {
	return OggPageLayerType
}

func (p *OggPage) CanDecode() gopacket.LayerClass {
	return OggPageLayerType
}

// NextLayerType returns LayerTypeZero since packets are handed to codec
// handlers, not decoded as further layers
func (p *OggPage) NextLayerType() gopacket.LayerType {
	return gopacket.LayerTypeZero
}

func (p *OggPage) Continued() bool {
	return p.Flags&PageFlagContinued != 0
}

func (p *OggPage) BeginOfStream() bool {
	return p.Flags&PageFlagBeginOfStream != 0
}

func (p *OggPage) EndOfStream() bool {
	return p.Flags&PageFlagEndOfStream != 0
}

// SegmentLengths returns the length of every segment in order
func (p *OggPage) SegmentLengths() []int {
	lengths := make([]int, len(p.Segments))
	for i, s := range p.Segments {
		lengths[i] = len(s)
	}
	return lengths
}

func (p *OggPage) String() string {
	return fmt.Sprintf("serial: 0x%08x seq: %d flags: 0x%02x granule: %d segments: %v",
		p.Serial, p.Sequence, p.Flags, p.GranulePos, p.SegmentLengths())
}

// DecodePageHeader decodes the fixed 27 byte frame starting at the capture pattern
func DecodePageHeader(frame []byte) (*OggPageHeader, error) {
	if len(frame) < PageFrameLength {
		return nil, ErrTruncated{What: "page header", Offset: int64(len(frame))}
	}
	if !bytes.Equal(frame[0:4], []byte(PageSync)) {
		return nil, ErrFormat{What: "missing page capture pattern"}
	}
	if frame[4] != PageRevision {
		return nil, ErrFormat{What: fmt.Sprintf("unknown stream structure revision 0x%x", frame[4])}
	}

	log.Debug("DecodePageHeader: Flags: 0x%02x", frame[5])
	log.Debug("DecodePageHeader: Serial: 0x%08x", binary.LittleEndian.Uint32(frame[14:18]))
	log.Debug("DecodePageHeader: NumSegments: %d", frame[26])

	return &OggPageHeader{
		Version:     frame[4],
		Flags:       frame[5],
		GranulePos:  binary.LittleEndian.Uint64(frame[6:14]),
		Serial:      binary.LittleEndian.Uint32(frame[14:18]),
		Sequence:    binary.LittleEndian.Uint32(frame[18:22]),
		Checksum:    binary.LittleEndian.Uint32(frame[22:26]),
		NumSegments: frame[26],
	}, nil
}

// Serialize OggPageHeader
func (h *OggPageHeader) Serialize(buf []byte) error {
	copy(buf[0:4], PageSync)
	buf[4] = h.Version
	buf[5] = h.Flags
	binary.LittleEndian.PutUint64(buf[6:14], h.GranulePos)
	binary.LittleEndian.PutUint32(buf[14:18], h.Serial)
	binary.LittleEndian.PutUint32(buf[18:22], h.Sequence)
	binary.LittleEndian.PutUint32(buf[22:26], h.Checksum)
	buf[26] = h.NumSegments
	return nil
}

// DecodeFromBytes decodes one whole page, data must start at the capture pattern
func (p *OggPage) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	header, err := DecodePageHeader(data)
	if err != nil {
		if _, ok := err.(ErrTruncated); ok {
			df.SetTruncated()
		}
		return err
	}

	tableEnd := PageFrameLength + int(header.NumSegments)
	if len(data) < tableEnd {
		df.SetTruncated()
		return ErrTruncated{What: "lacing table", Offset: int64(len(data))}
	}
	table := data[PageFrameLength:tableEnd]

	lengths, terminated := DecodeLacing(table)
	if !terminated {
		return ErrUnsupportedFeature{What: fmt.Sprintf(
			"packet continues past the end of page %d of stream 0x%08x", header.Sequence, header.Serial)}
	}

	payloadLength := LacingPayloadLength(table)
	if len(data) < tableEnd+payloadLength {
		df.SetTruncated()
		return ErrTruncated{What: "page payload", Offset: int64(len(data))}
	}

	segments := make([][]byte, len(lengths))
	offset := tableEnd
	for i, length := range lengths {
		segments[i] = data[offset : offset+length]
		offset += length
	}

	if log.DebugEnabled() {
		log.Debug("DecodeFromBytes: page payload: \n%s", hex.Dump(data[tableEnd:offset]))
	}

	p.BaseLayer = layers.BaseLayer{
		Contents: data[:tableEnd],
		Payload:  data[tableEnd:offset],
	}
	p.OggPageHeader = *header
	p.LacingTable = table
	p.Segments = segments
	return nil
}

// SerializeTo serializes the page into bytes and writes the bytes to the SerializeBuffer.
// The lacing table is always rebuilt from Segments.
func (p *OggPage) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	table := EncodeLacing(p.SegmentLengths())
	if len(table) > MaxLacingTableLength {
		return ErrFormat{What: fmt.Sprintf("page needs %d lacing values, at most %d fit", len(table), MaxLacingTableLength)}
	}
	payloadLength := LacingPayloadLength(table)

	pageBytes, err := b.AppendBytes(PageFrameLength + len(table) + payloadLength)
	if err != nil {
		return err
	}

	p.NumSegments = uint8(len(table))
	p.LacingTable = table
	if opts.ComputeChecksums {
		p.Checksum = 0
	}
	p.OggPageHeader.Serialize(pageBytes)
	copy(pageBytes[PageFrameLength:], table)
	offset := PageFrameLength + len(table)
	for _, s := range p.Segments {
		copy(pageBytes[offset:], s)
		offset += len(s)
	}

	if opts.ComputeChecksums {
		p.Checksum = PageChecksum(pageBytes)
		binary.LittleEndian.PutUint32(pageBytes[22:26], p.Checksum)
	}
	return nil
}

func DecodeOggPageLayer(data []byte, p gopacket.PacketBuilder) error {
	page := &OggPage{}
	err := page.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(page)
	return nil
}
