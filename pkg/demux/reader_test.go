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
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wgo2tool/go-wgo2/pkg/layers"
	"github.com/wgo2tool/go-wgo2/pkg/layers/layerstest"
)

func readAll(t *testing.T, reader *PageReader) ([]*layers.OggPage, error) {
	var pages []*layers.OggPage
	for {
		page, err := reader.Next()
		if err == io.EOF {
			return pages, nil
		}
		if err != nil {
			return pages, err
		}
		pages = append(pages, page)
	}
}

func TestPageReaderReadsPages(t *testing.T) {
	data := layerstest.Stream(
		layerstest.Page(1, 0, layers.PageFlagBeginOfStream, []byte("a")),
		layerstest.Page(2, 0, layers.PageFlagBeginOfStream, []byte("b"), []byte("c")),
		layerstest.Page(1, 1, layers.PageFlagEndOfStream),
	)
	reader := NewPageReader(NewReaderSource(bytes.NewReader(data)))

	pages, err := readAll(t, reader)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Equal(t, uint32(1), pages[0].Serial)
	assert.Equal(t, uint32(2), pages[1].Serial)
	assert.Equal(t, []int{1, 1}, pages[1].SegmentLengths())
	assert.True(t, pages[2].EndOfStream())
	assert.Empty(t, pages[2].Segments)
	assert.Equal(t, 3, reader.Pages())
	assert.Equal(t, int64(len(data)), reader.Offset())
}

func TestPageReaderEmptyInput(t *testing.T) {
	reader := NewPageReader(NewReaderSource(bytes.NewReader(nil)))
	_, err := reader.Next()
	assert.Equal(t, io.EOF, err)
}

func TestPageReaderSkipsGarbage(t *testing.T) {
	data := layerstest.Stream(
		[]byte("xxOgxOg"),
		layerstest.Page(1, 0, 0, []byte("first")),
		[]byte("OgOggOg"),
		layerstest.Page(1, 1, 0, []byte("second")),
		[]byte("Ogg"),
	)
	reader := NewPageReader(NewReaderSource(bytes.NewReader(data)))

	pages, err := readAll(t, reader)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, []byte("first"), pages[0].Segments[0])
	assert.Equal(t, []byte("second"), pages[1].Segments[0])
}

func TestPageReaderTruncated(t *testing.T) {
	page := layerstest.Page(1, 0, 0, make([]byte, 100))
	cases := map[string]int{
		"header":  10,
		"table":   layers.PageFrameLength,
		"payload": layers.PageFrameLength + 1 + 50,
	}
	for name, cut := range cases {
		t.Run(name, func(t *testing.T) {
			reader := NewPageReader(NewReaderSource(bytes.NewReader(page[:cut])))
			_, err := reader.Next()
			var truncated layers.ErrTruncated
			require.ErrorAs(t, err, &truncated)
			assert.Equal(t, int64(cut), truncated.Offset)
		})
	}
}

func TestPageReaderBadRevision(t *testing.T) {
	page := layerstest.Page(1, 0, 0, []byte("a"))
	page[4] = 2
	reader := NewPageReader(NewReaderSource(bytes.NewReader(page)))
	_, err := reader.Next()
	assert.ErrorAs(t, err, &layers.ErrFormat{})
}

func TestPageReaderPacketSource(t *testing.T) {
	first := layerstest.Page(1, 0, 0, []byte("a"))
	data := layerstest.Stream(first, []byte("junk"), layerstest.Page(1, 1, 0, []byte("b")))
	source := gopacket.NewPacketSource(NewPageReader(NewReaderSource(bytes.NewReader(data))), layers.OggPageLayerType)

	packet, err := source.NextPacket()
	require.NoError(t, err)
	offset, err := GetPageOffset(packet)
	require.NoError(t, err)
	assert.Equal(t, int64(0), offset)

	packet, err = source.NextPacket()
	require.NoError(t, err)
	offset, err = GetPageOffset(packet)
	require.NoError(t, err)
	assert.Equal(t, int64(len(first)+4), offset)
	page, ok := packet.Layer(layers.OggPageLayerType).(*layers.OggPage)
	require.True(t, ok)
	assert.Equal(t, uint32(1), page.Sequence)

	_, err = source.NextPacket()
	assert.Equal(t, io.EOF, err)
}

type nextResult struct {
	page *layers.OggPage
	err  error
}

func TestIncrementalSourceWaitsForBytes(t *testing.T) {
	page := layerstest.Page(7, 0, layers.PageFlagBeginOfStream, make([]byte, 40))
	src := NewIncrementalSource()
	reader := NewPageReader(src)

	results := make(chan nextResult, 1)
	go func() {
		p, err := reader.Next()
		results <- nextResult{p, err}
	}()

	_, err := src.Write(page[:30])
	require.NoError(t, err)
	select {
	case r := <-results:
		t.Fatalf("Next returned before the page was complete: %v", r.err)
	case <-time.After(50 * time.Millisecond):
	}

	_, err = src.Write(page[30:])
	require.NoError(t, err)
	select {
	case r := <-results:
		require.NoError(t, r.err)
		assert.Equal(t, uint32(7), r.page.Serial)
	case <-time.After(5 * time.Second):
		t.Fatal("Next did not return after the page was complete")
	}

	require.NoError(t, src.Close())
	_, err = reader.Next()
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, int64(len(page)), src.Consumed())
}

func TestIncrementalSourceTruncatedAfterClose(t *testing.T) {
	page := layerstest.Page(7, 0, 0, make([]byte, 40))
	src := NewIncrementalSource()
	_, err := src.Write(page[:len(page)-1])
	require.NoError(t, err)
	require.NoError(t, src.Close())

	_, err = NewPageReader(src).Next()
	assert.ErrorAs(t, err, &layers.ErrTruncated{})

	_, err = src.Write([]byte{0})
	assert.Equal(t, ErrSourceClosed, err)
}

func TestIncrementalSourceCloseWithError(t *testing.T) {
	src := NewIncrementalSource()
	require.NoError(t, src.CloseWithError(context.Canceled))

	_, err := NewPageReader(src).Next()
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReaderSourceTake(t *testing.T) {
	src := NewReaderSource(bytes.NewReader([]byte("abcde")))

	buf, err := src.Take(3)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), buf)

	buf, err = src.Take(3)
	assert.Equal(t, io.ErrUnexpectedEOF, err)
	assert.Equal(t, []byte("de"), buf)

	_, err = src.Take(1)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, int64(5), src.Consumed())
}
