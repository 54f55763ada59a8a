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
	"context"
	"errors"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/wgo2tool/go-wgo2/pkg/codec"
	"github.com/wgo2tool/go-wgo2/pkg/config"
	"github.com/wgo2tool/go-wgo2/pkg/cuesheet"
	"github.com/wgo2tool/go-wgo2/pkg/demux"
	"github.com/wgo2tool/go-wgo2/pkg/encode"
	"github.com/wgo2tool/go-wgo2/pkg/log"
	"github.com/wgo2tool/go-wgo2/pkg/router"
	"github.com/wgo2tool/go-wgo2/pkg/sink"
)

// Recording describes one converted recording
type Recording struct {
	Name        string             `json:"name"`
	Source      string             `json:"source"`
	Telemetry   string             `json:"telemetry,omitempty"`
	Output      string             `json:"output"`
	RecordedAt  time.Time          `json:"recordedAt"`
	ConvertedAt time.Time          `json:"convertedAt"`
	Format      *codec.AudioFormat `json:"format,omitempty"`
	FrameBytes  int64              `json:"frameBytes"`
	Duration    time.Duration      `json:"duration"`
	Markers     []int              `json:"markers"`
}

type Converter struct {
	Flac         *encode.Flac
	WorkDir      string
	KeepWav      bool
	PollInterval time.Duration
	IdleTimeout  time.Duration
}

func NewConverter(cfg *config.ConvertConfig) *Converter {
	return &Converter{
		Flac:         encode.NewFlac(cfg.FlacPath),
		WorkDir:      cfg.WorkDir,
		KeepWav:      cfg.KeepWav,
		PollInterval: cfg.PollInterval(),
		IdleTimeout:  cfg.IdleTimeout(),
	}
}

// Convert decodes the audio file source and its telemetry file and writes
// output, a .wav file or a .flac file with the markers as cue sheet.
// With follow set, source may still be growing while it is read.
func (c *Converter) Convert(ctx context.Context, source, output string, follow bool) (*Recording, error) {
	ext := strings.ToLower(filepath.Ext(output))
	flac := ext == ".flac"
	if !flac && ext != ".wav" {
		return nil, ErrUnsupportedOutput{Path: output}
	}

	info, err := os.Stat(source)
	if err != nil {
		return nil, err
	}
	rec := &Recording{
		Name:       strings.TrimSuffix(filepath.Base(source), filepath.Ext(source)),
		Source:     source,
		Output:     output,
		RecordedAt: info.ModTime(),
		Markers:    []int{},
	}

	wavPath := output
	if flac {
		tmp, err := ioutil.TempFile(c.WorkDir, "go-wgo2-*.wav")
		if err != nil {
			return nil, err
		}
		tmp.Close()
		wavPath = tmp.Name()
		if !c.KeepWav {
			defer os.Remove(wavPath)
		}
	}

	out, err := c.decodeAudio(ctx, source, wavPath, follow)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "decoding %s", source)
	}
	rec.Format = out.Format
	rec.FrameBytes = out.FrameBytes
	rec.Duration = out.Format.Duration(out.FrameBytes)

	eggPath := EggPath(source)
	markers, found, err := DecodeMarkersFile(eggPath)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "decoding %s", eggPath)
	}
	if found {
		rec.Telemetry = eggPath
		rec.Markers = markers
	} else {
		log.Warning("No telemetry status stream in %s, converting without markers", eggPath)
	}

	// the flac encoder copies the file times
	if err := os.Chtimes(wavPath, rec.RecordedAt, rec.RecordedAt); err != nil {
		return nil, err
	}

	if flac {
		if err := c.encodeFlac(ctx, rec, wavPath); err != nil {
			return nil, err
		}
		if c.KeepWav {
			log.Info("Intermediate WAV kept: %s", wavPath)
		}
	}

	rec.ConvertedAt = time.Now()
	log.Info("Converted %s to %s: %s, %d markers", source, output, rec.Duration, len(rec.Markers))
	return rec, nil
}

func (c *Converter) decodeAudio(ctx context.Context, source, wavPath string, follow bool) (*codec.Output, error) {
	file, err := os.Open(source)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	wav, err := sink.NewWavFile(wavPath)
	if err != nil {
		return nil, err
	}

	var src demux.ByteSource
	if follow {
		incremental := demux.NewIncrementalSource()
		followCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go Follow(followCtx, file, incremental, c.PollInterval, c.IdleTimeout)
		src = incremental
	} else {
		src = demux.NewReaderSource(file)
	}

	out, err := router.Decode(src, codec.Options{Sink: wav})
	if closeErr := wav.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, err
	}
	if out.Format == nil {
		return nil, ErrNoAudio{Source: source}
	}
	return out, nil
}

func (c *Converter) encodeFlac(ctx context.Context, rec *Recording, wavPath string) error {
	job := encode.FlacJob{
		WavPath:    wavPath,
		OutputPath: rec.Output,
		RecordedAt: rec.RecordedAt,
	}

	if len(rec.Markers) > 0 {
		cue, err := ioutil.TempFile(c.WorkDir, "go-wgo2-*.cue")
		if err != nil {
			return err
		}
		defer os.Remove(cue.Name())
		err = cuesheet.Write(cue, filepath.Base(rec.Output), rec.Markers)
		if closeErr := cue.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return err
		}
		job.CueSheetPath = cue.Name()
	}

	return c.Flac.Encode(ctx, job)
}

// DecodeMarkers decodes a telemetry container and returns the marker offsets
// in seconds. The second return value is false when no status stream was found.
func DecodeMarkers(r io.Reader) ([]int, bool, error) {
	out, err := router.Decode(demux.NewReaderSource(r), codec.Options{})
	if err != nil {
		return nil, false, err
	}
	return out.Markers, out.HasMarkers, nil
}

// DecodeMarkersFile is DecodeMarkers for a file. A missing file yields no
// markers and no error.
func DecodeMarkersFile(path string) ([]int, bool, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()
	return DecodeMarkers(file)
}
