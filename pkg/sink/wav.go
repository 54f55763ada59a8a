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

package sink

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"

	"github.com/wgo2tool/go-wgo2/pkg/codec"
	"github.com/wgo2tool/go-wgo2/pkg/log"
)

const (
	WavHeaderLength = 44
	wavFormatPCM    = 1
	riffSizeOffset  = 4
	dataSizeOffset  = 40
)

var (
	ErrNotConfigured     = errors.New("WAV writer is not configured")
	ErrAlreadyConfigured = errors.New("WAV writer is already configured")
	ErrWavTooLarge       = errors.New("Audio data does not fit into a WAV file")
)

// WavWriter is an AudioSink that writes a RIFF/WAVE file.
// The header is written on Configure with zero sizes and fixed up on Close.
type WavWriter struct {
	ws        io.WriteSeeker
	file      *os.File
	format    *codec.AudioFormat
	dataBytes int64
}

var _ codec.AudioSink = &WavWriter{}

func NewWavWriter(ws io.WriteSeeker) *WavWriter {
	return &WavWriter{
		ws: ws,
	}
}

// NewWavFile creates filename and returns a writer for it
func NewWavFile(filename string) (*WavWriter, error) {
	file, err := os.Create(filename)
	if err != nil {
		log.Error("Error while creating file: %s", filename)
		return nil, err
	}
	return &WavWriter{
		ws:   file,
		file: file,
	}, nil
}

// Name returns the file name if the writer was created with NewWavFile
func (w *WavWriter) Name() string {
	if w.file == nil {
		return ""
	}
	return w.file.Name()
}

func (w *WavWriter) Format() *codec.AudioFormat {
	return w.format
}

// DataBytes returns the number of frame bytes written so far
func (w *WavWriter) DataBytes() int64 {
	return w.dataBytes
}

func (w *WavWriter) Configure(format codec.AudioFormat) error {
	if w.format != nil {
		return ErrAlreadyConfigured
	}
	header := make([]byte, WavHeaderLength)
	serializeWavHeader(header, format, 0)
	if _, err := w.ws.Write(header); err != nil {
		return err
	}
	w.format = &format
	return nil
}

func (w *WavWriter) WriteFrames(frames []byte) error {
	_, err := w.Write(frames)
	return err
}

func (w *WavWriter) Write(buf []byte) (int, error) {
	if w.format == nil {
		return 0, ErrNotConfigured
	}
	n, err := w.ws.Write(buf)
	w.dataBytes += int64(n)
	return n, err
}

// Close pads the data chunk, writes the final sizes and closes the file
func (w *WavWriter) Close() error {
	err := w.finish()
	if w.file != nil {
		w.file.Sync()
		if closeErr := w.file.Close(); err == nil {
			err = closeErr
		}
	}
	return err
}

func (w *WavWriter) finish() error {
	if w.format == nil {
		return nil
	}
	// RIFF chunks are word aligned
	if w.dataBytes%2 == 1 {
		if _, err := w.ws.Write([]byte{0}); err != nil {
			return err
		}
	}
	riffSize := 36 + w.dataBytes + w.dataBytes%2
	if riffSize > math.MaxUint32 {
		return ErrWavTooLarge
	}

	size := make([]byte, 4)
	binary.LittleEndian.PutUint32(size, uint32(riffSize))
	if err := w.writeAt(size, riffSizeOffset); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(size, uint32(w.dataBytes))
	if err := w.writeAt(size, dataSizeOffset); err != nil {
		return err
	}
	_, err := w.ws.Seek(0, io.SeekEnd)
	return err
}

func (w *WavWriter) writeAt(buf []byte, offset int64) error {
	if _, err := w.ws.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	_, err := w.ws.Write(buf)
	return err
}

func serializeWavHeader(buf []byte, format codec.AudioFormat, dataBytes uint32) {
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], 36+dataBytes)
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], wavFormatPCM)
	binary.LittleEndian.PutUint16(buf[22:24], uint16(format.Channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(format.SampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(format.ByteRate()))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(format.BlockAlign()))
	binary.LittleEndian.PutUint16(buf[34:36], uint16(format.SampleWidth*8))
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], dataBytes)
}
