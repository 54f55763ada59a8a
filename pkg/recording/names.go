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
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	AudioPrefix      = "REC"
	AudioSuffix      = "UGG"
	TelemetryPrefix  = "PEA"
	TelemetrySuffix  = "EGG"
	outputTimeFormat = "20060102_150405"
)

// EggPath returns the telemetry file that belongs to an audio file:
// REC00012.UGG is accompanied by PEA00012.EGG in the same directory
func EggPath(uggPath string) string {
	base := filepath.Base(uggPath)
	base = strings.TrimPrefix(base, AudioPrefix)
	base = strings.TrimSuffix(base, AudioSuffix)
	return filepath.Join(filepath.Dir(uggPath), TelemetryPrefix+base+TelemetrySuffix)
}

// OutputName returns the file name for a converted recording,
// e.g. 20240131_142501_A1B2C3D4.flac
func OutputName(recordedAt time.Time, serial, ext string) string {
	name := recordedAt.Local().Format(outputTimeFormat)
	if serial != "" {
		name += "_" + serial
	}
	return name + "." + strings.TrimPrefix(ext, ".")
}

// FindRecordings returns all audio files below dir in lexical order
func FindRecordings(dir string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), "."+AudioSuffix) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(found)
	return found, nil
}
