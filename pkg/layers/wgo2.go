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
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/wgo2tool/go-wgo2/pkg/log"
)

const (
	// WGo2HeaderLayerNum identifies the layer
	WGo2HeaderLayerNum = 2002
)

const (
	// WGo2CodecTag identifies the recorder telemetry streams
	WGo2CodecTag = "RODEWgo2"
	// WGo2HeaderLength is the codec tag plus the subtype byte
	WGo2HeaderLength = CodecTagLength + 1
)

type WGo2Subtype uint8

const (
	// WGo2PeakSubtype carries level meter data
	WGo2PeakSubtype WGo2Subtype = 'P'
	// WGo2StatusSubtype carries one status record per second of recording
	WGo2StatusSubtype WGo2Subtype = 'S'
)

func (s WGo2Subtype) String() string {
	switch s {
	case WGo2PeakSubtype:
		return "peak"
	case WGo2StatusSubtype:
		return "status"
	default:
		return fmt.Sprintf("unknown(0x%02x)", uint8(s))
	}
}

const (
	// StatusRecordLength is the size of one status record
	StatusRecordLength = 16
	// StatusFlagsOffset is the position of the flag byte inside a record
	StatusFlagsOffset = 4
	// StatusFlagsNone marks a record without valid flags
	StatusFlagsNone = 0xff
	// StatusFlagMarker is set while the marker button is pressed
	StatusFlagMarker = 0x04
)

// WGo2Header is the first packet of a telemetry stream
type WGo2Header struct {
	layers.BaseLayer
	Tag     string
	Subtype WGo2Subtype
}

var WGo2HeaderLayerType = gopacket.RegisterLayerType(WGo2HeaderLayerNum,
	gopacket.LayerTypeMetadata{Name: "WGo2HeaderLayerType", Decoder: gopacket.DecodeFunc(DecodeWGo2HeaderLayer)})

// LayerType returns the type of the telemetry header layer in the layer catalog
func (h *WGo2Header) LayerType() gopacket.LayerType {
	return WGo2HeaderLayerType
}

func (h *WGo2Header) CanDecode() gopacket.LayerClass {
	return WGo2HeaderLayerType
}

func (h *WGo2Header) NextLayerType() gopacket.LayerType {
	return gopacket.LayerTypeZero
}

func (h *WGo2Header) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < WGo2HeaderLength {
		df.SetTruncated()
		return ErrFormat{What: fmt.Sprintf("telemetry header packet too short: %d bytes", len(data))}
	}
	h.BaseLayer = layers.BaseLayer{
		Contents: data[:WGo2HeaderLength],
		Payload:  data[WGo2HeaderLength:],
	}
	h.Tag = string(data[0:CodecTagLength])
	h.Subtype = WGo2Subtype(data[CodecTagLength])
	log.Debug("WGo2Header: Subtype: %s", h.Subtype)
	return nil
}

// SerializeTo serializes the header packet into bytes and writes the bytes to the SerializeBuffer
func (h *WGo2Header) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	buf, err := b.PrependBytes(WGo2HeaderLength)
	if err != nil {
		return err
	}
	tag := h.Tag
	if tag == "" {
		tag = WGo2CodecTag
	}
	copy(buf[0:CodecTagLength], fmt.Sprintf("%-8s", tag))
	buf[CodecTagLength] = uint8(h.Subtype)
	return nil
}

func DecodeWGo2HeaderLayer(data []byte, p gopacket.PacketBuilder) error {
	h := &WGo2Header{}
	err := h.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(h)
	return nil
}

// StatusRecord ... // 16 bytes, one per second of device runtime.
// Only the flag byte is understood, the rest is kept as is.
type StatusRecord struct {
	Bytes [StatusRecordLength]byte
}

// DecodeStatusRecord decodes the first StatusRecordLength bytes of buf
func DecodeStatusRecord(buf []byte) (*StatusRecord, error) {
	if len(buf) < StatusRecordLength {
		return nil, ErrTruncated{What: "status record", Offset: int64(len(buf))}
	}
	r := &StatusRecord{}
	copy(r.Bytes[:], buf[:StatusRecordLength])
	return r, nil
}

func (r *StatusRecord) Flags() uint8 {
	return r.Bytes[StatusFlagsOffset]
}

// Marker reports whether the marker button was pressed during this second
func (r *StatusRecord) Marker() bool {
	flags := r.Flags()
	return flags != StatusFlagsNone && flags&StatusFlagMarker != 0
}

// Serialize StatusRecord
func (r *StatusRecord) Serialize(buf []byte) error {
	copy(buf, r.Bytes[:])
	return nil
}
