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

package recording

import (
	"bytes"
	"context"
	"encoding/binary"
	"io/ioutil"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wgo2tool/go-wgo2/pkg/config"
	"github.com/wgo2tool/go-wgo2/pkg/layers"
	"github.com/wgo2tool/go-wgo2/pkg/layers/layerstest"
	"github.com/wgo2tool/go-wgo2/pkg/sink"
)

const (
	bos = layers.PageFlagBeginOfStream
	eos = layers.PageFlagEndOfStream
)

var frames = []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}

func audioContainer() []byte {
	return layerstest.Stream(
		layerstest.Page(1, 0, bos, layerstest.PCMHeader(2, 48000, 1)),
		layerstest.Page(1, 1, 0, []byte("reserved"), frames[:6]),
		layerstest.Page(1, 2, eos, frames[6:]),
	)
}

func telemetryContainer(seconds int, markers ...int) []byte {
	return layerstest.Stream(
		layerstest.Page(2, 0, bos, layerstest.WGo2Header(layers.WGo2PeakSubtype)),
		layerstest.Page(3, 0, bos, layerstest.WGo2Header(layers.WGo2StatusSubtype)),
		layerstest.Page(2, 1, eos, []byte{0x10, 0x20}),
		layerstest.Page(3, 1, eos, layerstest.StatusRecords(seconds, markers...)),
	)
}

// writeRecording creates REC00001.UGG and, if egg is not nil, PEA00001.EGG
func writeRecording(t *testing.T, dir string, egg []byte) string {
	ugg := filepath.Join(dir, "REC00001.UGG")
	require.NoError(t, ioutil.WriteFile(ugg, audioContainer(), 0644))
	if egg != nil {
		require.NoError(t, ioutil.WriteFile(EggPath(ugg), egg, 0644))
	}
	recordedAt := time.Date(2024, 1, 31, 14, 25, 1, 0, time.UTC)
	require.NoError(t, os.Chtimes(ugg, recordedAt, recordedAt))
	return ugg
}

func newTestConverter(t *testing.T) *Converter {
	cfg := config.NewConfig("").ConvertConfig
	cfg.WorkDir = t.TempDir()
	cfg.FollowPollInterval = "10ms"
	cfg.FollowIdleTimeout = "100ms"
	return NewConverter(cfg)
}

func TestConvertWav(t *testing.T) {
	dir := t.TempDir()
	ugg := writeRecording(t, dir, telemetryContainer(12, 4, 11))
	output := filepath.Join(dir, "out.wav")

	rec, err := newTestConverter(t).Convert(context.Background(), ugg, output, false)
	require.NoError(t, err)
	assert.Equal(t, "REC00001", rec.Name)
	assert.Equal(t, EggPath(ugg), rec.Telemetry)
	assert.Equal(t, []int{4, 11}, rec.Markers)
	assert.Equal(t, int64(len(frames)), rec.FrameBytes)
	assert.Equal(t, 2, rec.Format.Channels)
	assert.False(t, rec.ConvertedAt.IsZero())

	data, err := ioutil.ReadFile(output)
	require.NoError(t, err)
	require.Len(t, data, sink.WavHeaderLength+len(frames))
	assert.Equal(t, uint32(len(frames)), binary.LittleEndian.Uint32(data[40:44]))
	assert.Equal(t, frames, data[sink.WavHeaderLength:])

	info, err := os.Stat(output)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(rec.RecordedAt))
}

func TestConvertWithoutTelemetry(t *testing.T) {
	dir := t.TempDir()
	ugg := writeRecording(t, dir, nil)

	rec, err := newTestConverter(t).Convert(context.Background(), ugg, filepath.Join(dir, "out.wav"), false)
	require.NoError(t, err)
	assert.Empty(t, rec.Telemetry)
	assert.Equal(t, []int{}, rec.Markers)
}

func TestConvertFollow(t *testing.T) {
	dir := t.TempDir()
	ugg := writeRecording(t, dir, telemetryContainer(3, 1))

	rec, err := newTestConverter(t).Convert(context.Background(), ugg, filepath.Join(dir, "out.wav"), true)
	require.NoError(t, err)
	assert.Equal(t, int64(len(frames)), rec.FrameBytes)
	assert.Equal(t, []int{1}, rec.Markers)
}

func TestConvertFlac(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a shell script as encoder")
	}
	dir := t.TempDir()
	ugg := writeRecording(t, dir, telemetryContainer(5, 2))

	// stands in for the encoder: records its arguments in the output file
	script := filepath.Join(dir, "flac")
	require.NoError(t, ioutil.WriteFile(script, []byte("#!/bin/sh\necho \"$@\" > \"$3\"\n"), 0755))
	converter := newTestConverter(t)
	converter.Flac.FlacPath = script

	output := filepath.Join(dir, "out.flac")
	rec, err := converter.Convert(context.Background(), ugg, output, false)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, rec.Markers)

	args, err := ioutil.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(args), "-o "+output)
	assert.Contains(t, string(args), "--cuesheet")
	assert.Contains(t, string(args), "DATE=")

	// intermediate files are removed
	left, err := ioutil.ReadDir(converter.WorkDir)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestConvertUnsupportedOutput(t *testing.T) {
	_, err := newTestConverter(t).Convert(context.Background(), "REC00001.UGG", "out.mp3", false)
	assert.ErrorAs(t, err, &ErrUnsupportedOutput{})
}

func TestConvertNoAudio(t *testing.T) {
	dir := t.TempDir()
	ugg := filepath.Join(dir, "REC00001.UGG")
	require.NoError(t, ioutil.WriteFile(ugg, telemetryContainer(1), 0644))

	_, err := newTestConverter(t).Convert(context.Background(), ugg, filepath.Join(dir, "out.wav"), false)
	assert.ErrorAs(t, err, &ErrNoAudio{})
}

func TestDecodeMarkers(t *testing.T) {
	markers, found, err := DecodeMarkers(bytes.NewReader(telemetryContainer(10, 2, 5, 9)))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []int{2, 5, 9}, markers)

	_, found, err = DecodeMarkersFile(filepath.Join(t.TempDir(), "PEA00001.EGG"))
	require.NoError(t, err)
	assert.False(t, found)

	_, _, err = DecodeMarkers(strings.NewReader("OggS\x01"))
	assert.Error(t, err)
}
