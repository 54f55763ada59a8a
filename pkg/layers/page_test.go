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
	"testing"

	"github.com/google/gopacket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bitwise reference for the table driven checksum
func referenceChecksum(data []byte) uint32 {
	var crc uint32
	for _, b := range data {
		crc ^= uint32(b) << 24
		for i := 0; i < 8; i++ {
			if crc&0x80000000 != 0 {
				crc = crc<<1 ^ oggCRCPoly
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

func serializePage(t *testing.T, page *OggPage) []byte {
	buf := gopacket.NewSerializeBuffer()
	err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{ComputeChecksums: true}, page)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestPageChecksum(t *testing.T) {
	assert.Equal(t, uint32(0), PageChecksum(nil))
	data := []byte("OggS\x00\x02 some page bytes")
	assert.Equal(t, referenceChecksum(data), PageChecksum(data))
}

func TestPageRoundTrip(t *testing.T) {
	page := &OggPage{
		OggPageHeader: OggPageHeader{
			Flags:      PageFlagBeginOfStream,
			GranulePos: 48000,
			Serial:     0x1234abcd,
			Sequence:   7,
		},
		Segments: [][]byte{[]byte("first"), make([]byte, 300), {}},
	}
	data := serializePage(t, page)
	require.Len(t, data, PageFrameLength+4+5+300)

	// checksum is computed with the checksum field zeroed
	check := make([]byte, len(data))
	copy(check, data)
	binary.LittleEndian.PutUint32(check[22:26], 0)
	assert.Equal(t, PageChecksum(check), binary.LittleEndian.Uint32(data[22:26]))

	decoded := &OggPage{}
	require.NoError(t, decoded.DecodeFromBytes(data, gopacket.NilDecodeFeedback))
	assert.True(t, decoded.BeginOfStream())
	assert.False(t, decoded.Continued())
	assert.False(t, decoded.EndOfStream())
	assert.Equal(t, uint64(48000), decoded.GranulePos)
	assert.Equal(t, uint32(0x1234abcd), decoded.Serial)
	assert.Equal(t, uint32(7), decoded.Sequence)
	assert.Equal(t, uint8(4), decoded.NumSegments)
	assert.Equal(t, []int{5, 300, 0}, decoded.SegmentLengths())
	assert.Equal(t, []byte("first"), decoded.Segments[0])
}

func TestPageDecodeWithPacketSource(t *testing.T) {
	data := serializePage(t, &OggPage{
		OggPageHeader: OggPageHeader{Serial: 1},
		Segments:      [][]byte{[]byte("abc")},
	})
	packet := gopacket.NewPacket(data, OggPageLayerType, gopacket.Default)
	require.Nil(t, packet.ErrorLayer())
	page, ok := packet.Layer(OggPageLayerType).(*OggPage)
	require.True(t, ok)
	assert.Equal(t, [][]byte{[]byte("abc")}, page.Segments)
}

func TestPageBadRevision(t *testing.T) {
	data := serializePage(t, &OggPage{Segments: [][]byte{{1}}})
	data[4] = 1

	err := (&OggPage{}).DecodeFromBytes(data, gopacket.NilDecodeFeedback)
	assert.ErrorAs(t, err, &ErrFormat{})
}

func TestPageUnterminatedLacing(t *testing.T) {
	header := OggPageHeader{NumSegments: 1}
	data := make([]byte, PageFrameLength+1+255)
	require.NoError(t, header.Serialize(data))
	data[PageFrameLength] = 255

	err := (&OggPage{}).DecodeFromBytes(data, gopacket.NilDecodeFeedback)
	assert.ErrorAs(t, err, &ErrUnsupportedFeature{})
}

func TestPageTruncated(t *testing.T) {
	data := serializePage(t, &OggPage{Segments: [][]byte{make([]byte, 100)}})

	err := (&OggPage{}).DecodeFromBytes(data[:len(data)-1], gopacket.NilDecodeFeedback)
	assert.ErrorAs(t, err, &ErrTruncated{})
	err = (&OggPage{}).DecodeFromBytes(data[:10], gopacket.NilDecodeFeedback)
	assert.ErrorAs(t, err, &ErrTruncated{})
}

func TestPageTooManySegments(t *testing.T) {
	segments := make([][]byte, MaxLacingTableLength+1)
	for i := range segments {
		segments[i] = []byte{byte(i)}
	}
	buf := gopacket.NewSerializeBuffer()
	err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{}, &OggPage{Segments: segments})
	assert.ErrorAs(t, err, &ErrFormat{})
}
