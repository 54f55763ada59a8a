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

package encode

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/pkg/errors"

	"github.com/wgo2tool/go-wgo2/pkg/log"
)

// Flac runs the reference flac encoder
type Flac struct {
	FlacPath string
}

// FlacJob describes one encoder run
type FlacJob struct {
	WavPath    string
	OutputPath string
	// CueSheetPath is embedded when not empty
	CueSheetPath string
	RecordedAt   time.Time
}

func NewFlac(flacPath string) *Flac {
	if flacPath == "" {
		flacPath = "flac"
	}
	return &Flac{
		FlacPath: flacPath,
	}
}

// Args returns the encoder command line for the job
func (f *Flac) Args(job FlacJob) []string {
	args := []string{
		job.WavPath,
		"-o", job.OutputPath,
		"--silent",
		"-f",
	}
	if !job.RecordedAt.IsZero() {
		args = append(args, "-T", "DATE="+job.RecordedAt.Format(time.RFC3339))
	}
	if job.CueSheetPath != "" {
		args = append(args, "--cuesheet", job.CueSheetPath)
	}
	return args
}

// Encode runs the encoder and waits for it to finish
func (f *Flac) Encode(ctx context.Context, job FlacJob) error {
	args := f.Args(job)
	log.Debug("Running %s %v", f.FlacPath, args)

	cmd := exec.CommandContext(ctx, f.FlacPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "flac failed for %s: %s", job.WavPath, stderr.String())
	}
	log.Info("Encoded %s", job.OutputPath)
	return nil
}

// CheckInstalled verifies the encoder can be found
func (f *Flac) CheckInstalled() error {
	if _, err := exec.LookPath(f.FlacPath); err != nil {
		return errors.Wrapf(err, "flac encoder not found: %s", f.FlacPath)
	}
	return nil
}
