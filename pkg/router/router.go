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

package router

import (
	"fmt"
	"io"
	"sort"

	"github.com/google/gopacket"

	"github.com/wgo2tool/go-wgo2/pkg/codec"
	"github.com/wgo2tool/go-wgo2/pkg/demux"
	"github.com/wgo2tool/go-wgo2/pkg/layers"
	"github.com/wgo2tool/go-wgo2/pkg/log"
)

// Router hands the packets of every page to the handler of the page's
// stream. Handlers are created on begin of stream pages and closed on end
// of stream pages.
type Router struct {
	opts     codec.Options
	handlers map[uint32]codec.Handler
	out      *codec.Output
	pages    int
}

func New(opts codec.Options) *Router {
	return &Router{
		opts:     opts,
		handlers: make(map[uint32]codec.Handler),
		out:      &codec.Output{},
	}
}

// HandlePage processes one page. Any error is fatal for the whole decode.
func (r *Router) HandlePage(page *layers.OggPage) error {
	r.pages++
	log.Debug("HandlePage: %s", page)

	if page.Continued() {
		return layers.ErrUnsupportedFeature{What: fmt.Sprintf(
			"page %d of stream 0x%08x continues a packet from the previous page", page.Sequence, page.Serial)}
	}

	if page.BeginOfStream() {
		if err := r.beginStream(page); err != nil {
			return err
		}
	}

	handler, ok := r.handlers[page.Serial]
	if !ok {
		return layers.ErrFormat{What: fmt.Sprintf("page for stream 0x%08x before its begin of stream page", page.Serial)}
	}

	for _, segment := range page.Segments {
		if err := handler.HandlePacket(segment); err != nil {
			return err
		}
	}

	if page.EndOfStream() {
		log.Debug("End of stream 0x%08x", page.Serial)
		delete(r.handlers, page.Serial)
		return handler.Close(r.out)
	}
	return nil
}

func (r *Router) beginStream(page *layers.OggPage) error {
	var first []byte
	if len(page.Segments) > 0 {
		first = page.Segments[0]
	}
	handler, err := codec.New(first, page.Serial, r.opts)
	if err != nil {
		return err
	}

	if prev, ok := r.handlers[page.Serial]; ok {
		log.Warning("Stream 0x%08x restarted before its end of stream page", page.Serial)
		if err := prev.Close(r.out); err != nil {
			return err
		}
	}
	log.Debug("Begin of stream 0x%08x: codec %s", page.Serial, handler.Codec())
	r.handlers[page.Serial] = handler
	return nil
}

// Finish closes the streams that had no end of stream page, in serial
// order, and returns the collected output
func (r *Router) Finish() (*codec.Output, error) {
	serials := make([]uint32, 0, len(r.handlers))
	for serial := range r.handlers {
		serials = append(serials, serial)
	}
	sort.Slice(serials, func(i, j int) bool { return serials[i] < serials[j] })

	for _, serial := range serials {
		log.Warning("Stream 0x%08x has no end of stream page", serial)
		handler := r.handlers[serial]
		delete(r.handlers, serial)
		if err := handler.Close(r.out); err != nil {
			return nil, err
		}
	}
	log.Debug("Router finished: %d pages, %d streams", r.pages, len(r.out.Streams))
	return r.out, nil
}

// Pages returns the number of pages handled so far
func (r *Router) Pages() int {
	return r.pages
}

// Decode reads all pages from src and runs them through a Router
func Decode(src demux.ByteSource, opts codec.Options) (*codec.Output, error) {
	reader := demux.NewPageReader(src)
	source := gopacket.NewPacketSource(reader, layers.OggPageLayerType)
	source.NoCopy = true

	r := New(opts)
	for {
		packet, err := source.NextPacket()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if errLayer := packet.ErrorLayer(); errLayer != nil {
			return nil, errLayer.Error()
		}

		page, ok := packet.Layer(layers.OggPageLayerType).(*layers.OggPage)
		if !ok {
			return nil, layers.ErrFormat{What: "packet without page layer"}
		}
		if err := r.HandlePage(page); err != nil {
			if offset, offsetErr := demux.GetPageOffset(packet); offsetErr == nil {
				log.Debug("Decode failed at page offset %d: %s", offset, err)
			}
			return nil, err
		}
	}
	log.Debug("Decoded %d pages, %d bytes", reader.Pages(), reader.Offset())
	return r.Finish()
}
