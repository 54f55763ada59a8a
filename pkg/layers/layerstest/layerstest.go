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

// Package layerstest builds recorder containers for tests.
package layerstest

import (
	"bytes"

	"github.com/google/gopacket"

	"github.com/wgo2tool/go-wgo2/pkg/layers"
)

func serialize(l gopacket.SerializableLayer) []byte {
	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{ComputeChecksums: true}, l); err != nil {
		panic(err)
	}
	out := make([]byte, len(buf.Bytes()))
	copy(out, buf.Bytes())
	return out
}

// Page returns an encoded page with one segment per packet
func Page(serial, sequence uint32, flags uint8, packets ...[]byte) []byte {
	return serialize(&layers.OggPage{
		OggPageHeader: layers.OggPageHeader{
			Flags:    flags,
			Serial:   serial,
			Sequence: sequence,
		},
		Segments: packets,
	})
}

// Stream concatenates pages
func Stream(pages ...[]byte) []byte {
	return bytes.Join(pages, nil)
}

// PCMHeader returns a valid 24 bit PCM stream header packet
func PCMHeader(channels uint8, sampleRate uint32, extraHeaderPackets uint32) []byte {
	return serialize(&layers.PCMHeader{
		Format:             layers.PCMFormatS24,
		SampleRate:         sampleRate,
		BitDepth:           24,
		Channels:           channels,
		MaxFramesPerPacket: 256,
		ExtraHeaderPackets: extraHeaderPackets,
	})
}

// WGo2Header returns a telemetry stream header packet
func WGo2Header(subtype layers.WGo2Subtype) []byte {
	return serialize(&layers.WGo2Header{Subtype: subtype})
}

// StatusRecords returns count status records with the marker flag set on
// the records at the given seconds
func StatusRecords(count int, markers ...int) []byte {
	marked := make(map[int]bool)
	for _, m := range markers {
		marked[m] = true
	}
	buf := make([]byte, count*layers.StatusRecordLength)
	for i := 0; i < count; i++ {
		record := &layers.StatusRecord{}
		if marked[i] {
			record.Bytes[layers.StatusFlagsOffset] = layers.StatusFlagMarker
		}
		record.Serialize(buf[i*layers.StatusRecordLength:])
	}
	return buf
}
