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
	"bufio"
	"errors"
	"io"
	"sync"
)

const (
	ReaderSourceBufferSize = 65536
)

// ErrSourceClosed returned when writing to a closed IncrementalSource
var ErrSourceClosed = errors.New("Write to closed incremental source")

// ByteSource supplies the container bytes.
//
// Take returns exactly n bytes. It returns io.EOF if the input ended before
// the first of them and io.ErrUnexpectedEOF if it ended part way. A source
// that may still receive bytes must block instead of returning either error.
type ByteSource interface {
	Take(n int) ([]byte, error)
}

// ReaderSource reads a complete input such as a file.
// Any short read is final.
type ReaderSource struct {
	r        *bufio.Reader
	consumed int64
}

func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{
		r: bufio.NewReaderSize(r, ReaderSourceBufferSize),
	}
}

func (s *ReaderSource) Take(n int) ([]byte, error) {
	buf := make([]byte, n)
	read, err := io.ReadFull(s.r, buf)
	s.consumed += int64(read)
	if err != nil {
		return buf[:read], err
	}
	return buf, nil
}

// Consumed returns the number of bytes taken so far
func (s *ReaderSource) Consumed() int64 {
	return s.consumed
}

// IncrementalSource is fed by a producer while the input is still growing,
// e.g. a recording being copied from the device. Take waits until enough
// bytes arrive; end of input is only reported after Close.
type IncrementalSource struct {
	mu       sync.Mutex
	cond     *sync.Cond
	buf      []byte
	closed   bool
	err      error
	consumed int64
}

func NewIncrementalSource() *IncrementalSource {
	s := &IncrementalSource{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Write appends bytes for the consumer. It implements io.Writer so that a
// producer can io.Copy into the source.
func (s *IncrementalSource) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrSourceClosed
	}
	s.buf = append(s.buf, p...)
	s.cond.Broadcast()
	return len(p), nil
}

// Close marks the end of input. Bytes already written can still be taken.
func (s *IncrementalSource) Close() error {
	return s.CloseWithError(nil)
}

// CloseWithError marks the end of input. Once the buffered bytes are
// exhausted Take returns err instead of io.EOF or io.ErrUnexpectedEOF.
func (s *IncrementalSource) CloseWithError(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		s.err = err
		s.cond.Broadcast()
	}
	return nil
}

func (s *IncrementalSource) Take(n int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.buf) < n && !s.closed {
		s.cond.Wait()
	}

	if len(s.buf) < n {
		rest := s.buf
		s.buf = nil
		s.consumed += int64(len(rest))
		if s.err != nil {
			return rest, s.err
		}
		if len(rest) == 0 {
			return rest, io.EOF
		}
		return rest, io.ErrUnexpectedEOF
	}

	result := make([]byte, n)
	copy(result, s.buf[:n])
	s.buf = s.buf[n:]
	s.consumed += int64(n)
	return result, nil
}

// Consumed returns the number of bytes taken so far
func (s *IncrementalSource) Consumed() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consumed
}
