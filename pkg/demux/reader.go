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

package demux

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/gopacket"

	"github.com/wgo2tool/go-wgo2/pkg/layers"
	"github.com/wgo2tool/go-wgo2/pkg/log"
)

// ErrNoPageOffset returned when a packet carries no page offset metadata
var ErrNoPageOffset = errors.New("Packet has no page offset")

var pageSync = []byte(layers.PageSync)

// PageReader splits a byte source into container pages.
// It is a single pass reader and holds at most one page at a time.
type PageReader struct {
	src    ByteSource
	offset int64
	pages  int
}

var _ gopacket.PacketDataSource = &PageReader{}

func NewPageReader(src ByteSource) *PageReader {
	return &PageReader{
		src: src,
	}
}

func endOfInput(err error) bool {
	return err == io.EOF || err == io.ErrUnexpectedEOF
}

func (r *PageReader) take(n int) ([]byte, error) {
	buf, err := r.src.Take(n)
	r.offset += int64(len(buf))
	return buf, err
}

// truncated turns end of input inside a page into ErrTruncated
func (r *PageReader) truncated(err error, what string) error {
	if endOfInput(err) {
		return layers.ErrTruncated{What: what, Offset: r.offset}
	}
	return err
}

// synchronise moves the reader just past the next capture pattern.
// It returns false when the input ends first, which is not an error.
func (r *PageReader) synchronise() (bool, error) {
	window, err := r.take(len(pageSync))
	if err != nil {
		if endOfInput(err) {
			if len(window) > 0 {
				log.Debug("Discarded %d trailing bytes at offset %d", len(window), r.offset)
			}
			return false, nil
		}
		return false, err
	}

	skipped := 0
	for !bytes.Equal(window, pageSync) {
		next, err := r.take(1)
		if err != nil {
			if endOfInput(err) {
				log.Debug("Discarded %d trailing bytes at offset %d", skipped+len(window), r.offset)
				return false, nil
			}
			return false, err
		}
		copy(window, window[1:])
		window[len(window)-1] = next[0]
		skipped++
	}

	if skipped > 0 {
		log.Warning("Skipped %d bytes of garbage before page at offset %d", skipped, r.offset-int64(len(pageSync)))
	}
	return true, nil
}

// readPage returns the raw bytes of the next page and its stream offset.
// io.EOF means the input ended cleanly between pages.
func (r *PageReader) readPage() ([]byte, int64, error) {
	found, err := r.synchronise()
	if err != nil {
		return nil, 0, err
	}
	if !found {
		return nil, 0, io.EOF
	}
	start := r.offset - int64(len(pageSync))

	header, err := r.take(layers.PageHeaderLength)
	if err != nil {
		return nil, start, r.truncated(err, "page header")
	}
	// Fail on the revision before trusting any other header field
	if header[0] != layers.PageRevision {
		return nil, start, layers.ErrFormat{What: fmt.Sprintf("unknown stream structure revision 0x%x", header[0])}
	}

	// segment count is the last header byte
	numSegments := int(header[layers.PageHeaderLength-1])
	table, err := r.take(numSegments)
	if err != nil {
		return nil, start, r.truncated(err, "lacing table")
	}

	payload, err := r.take(layers.LacingPayloadLength(table))
	if err != nil {
		return nil, start, r.truncated(err, "page payload")
	}

	data := make([]byte, 0, layers.PageFrameLength+len(table)+len(payload))
	data = append(data, pageSync...)
	data = append(data, header...)
	data = append(data, table...)
	data = append(data, payload...)

	r.pages++
	log.Debug("Read page %d at offset %d: %d bytes", r.pages, start, len(data))
	return data, start, nil
}

// ReadPacketData returns the raw bytes of the next page.
// This method is from PacketDataSource interface.
func (r *PageReader) ReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	data, start, err := r.readPage()
	if err != nil {
		return nil, gopacket.CaptureInfo{}, err
	}
	ci := gopacket.CaptureInfo{
		Timestamp:     time.Now(),
		CaptureLength: len(data),
		Length:        len(data),
		AncillaryData: []interface{}{start},
	}
	return data, ci, nil
}

// Next returns the next decoded page or io.EOF after the last one
func (r *PageReader) Next() (*layers.OggPage, error) {
	data, _, err := r.readPage()
	if err != nil {
		return nil, err
	}
	page := &layers.OggPage{}
	if err := page.DecodeFromBytes(data, gopacket.NilDecodeFeedback); err != nil {
		return nil, err
	}
	return page, nil
}

// Pages returns the number of pages read so far
func (r *PageReader) Pages() int {
	return r.pages
}

// Offset returns the number of bytes consumed from the source
func (r *PageReader) Offset() int64 {
	return r.offset
}

// GetPageOffset returns the stream offset of the page a packet was decoded from
func GetPageOffset(packet gopacket.Packet) (int64, error) {
	meta := packet.Metadata()
	if len(meta.CaptureInfo.AncillaryData) >= 1 {
		offset, ok := meta.CaptureInfo.AncillaryData[0].(int64)
		if ok {
			return offset, nil
		}
	}
	return 0, ErrNoPageOffset
}
