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
	"fmt"
	"time"

	"github.com/wgo2tool/go-wgo2/pkg/layers"
)

// Codec is the closed set of stream types the recorder writes
type Codec int

const (
	CodecPCM Codec = iota
	CodecWGo2
)

var codecTags = map[string]Codec{
	layers.PCMCodecTag:  CodecPCM,
	layers.WGo2CodecTag: CodecWGo2,
}

func (c Codec) String() string {
	switch c {
	case CodecPCM:
		return "pcm"
	case CodecWGo2:
		return "wgo2"
	default:
		return fmt.Sprintf("codec(%d)", int(c))
	}
}

// Tag returns the identifier found at the start of the stream's first packet
func (c Codec) Tag() string {
	for tag, codec := range codecTags {
		if codec == c {
			return tag
		}
	}
	return ""
}

// CodecForTag maps the first packet of a stream to its codec.
// Only the first layers.CodecTagLength bytes are looked at.
func CodecForTag(packet []byte) (Codec, error) {
	tag := packet
	if len(tag) > layers.CodecTagLength {
		tag = tag[:layers.CodecTagLength]
	}
	codec, ok := codecTags[string(tag)]
	if !ok {
		unknown := make([]byte, len(tag))
		copy(unknown, tag)
		return 0, ErrUnknownCodec{Tag: unknown}
	}
	return codec, nil
}

// AudioFormat describes the interleaved frames written to an AudioSink
type AudioFormat struct {
	Channels    int `json:"channels"`
	SampleWidth int `json:"sampleWidth"`
	SampleRate  int `json:"sampleRate"`
}

// BlockAlign is the size of one frame in bytes
func (f AudioFormat) BlockAlign() int {
	return f.Channels * f.SampleWidth
}

func (f AudioFormat) ByteRate() int {
	return f.SampleRate * f.BlockAlign()
}

// Duration returns the play time of frameBytes bytes of audio
func (f AudioFormat) Duration(frameBytes int64) time.Duration {
	if f.ByteRate() == 0 {
		return 0
	}
	return time.Duration(frameBytes * int64(time.Second) / int64(f.ByteRate()))
}

// AudioSink receives decoded audio. Configure is called once before the
// first WriteFrames call.
type AudioSink interface {
	Configure(format AudioFormat) error
	WriteFrames(frames []byte) error
}

type discardSink struct{}

func (discardSink) Configure(AudioFormat) error { return nil }
func (discardSink) WriteFrames([]byte) error    { return nil }

// Discard is an AudioSink that drops all audio
var Discard AudioSink = discardSink{}

// Options are shared by all handlers of one decode run
type Options struct {
	// Sink receives PCM audio. Nil discards it.
	Sink AudioSink
}

// StreamSummary describes one stream after it ended
type StreamSummary struct {
	Serial  uint32 `json:"serial"`
	Codec   string `json:"codec"`
	Subtype string `json:"subtype,omitempty"`
	Packets uint64 `json:"packets"`
}

// Output collects what the handlers produced
type Output struct {
	Format     *AudioFormat    `json:"format,omitempty"`
	FrameBytes int64           `json:"frameBytes"`
	Markers    []int           `json:"markers"`
	HasMarkers bool            `json:"hasMarkers"`
	Streams    []StreamSummary `json:"streams"`
}

// Handler decodes the packets of a single stream
type Handler interface {
	Codec() Codec
	// HandlePacket is called for every packet in arrival order.
	// The first call carries the stream header.
	HandlePacket(packet []byte) error
	// Close is called once after the last packet and adds the stream's
	// results to out
	Close(out *Output) error
}

// New creates the handler for a stream whose first packet is header
func New(header []byte, serial uint32, opts Options) (Handler, error) {
	codec, err := CodecForTag(header)
	if err != nil {
		return nil, err
	}
	switch codec {
	case CodecPCM:
		return NewPCMHandler(serial, opts.Sink), nil
	case CodecWGo2:
		return NewWGo2Handler(serial), nil
	default:
		return nil, ErrUnknownCodec{Tag: []byte(codec.Tag())}
	}
}
