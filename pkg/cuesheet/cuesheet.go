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

// Package cuesheet writes the track list for a recording: one track from
// the start plus one track per marker.
package cuesheet

import (
	"bufio"
	"fmt"
	"io"
)

// Timestamp formats an offset in whole seconds as a cue sheet MM:SS:FF index
func Timestamp(seconds int) string {
	return fmt.Sprintf("%02d:%02d:00", seconds/60, seconds%60)
}

// TrackStarts returns the start of every track: 0 followed by the markers
func TrackStarts(markers []int) []int {
	return append([]int{0}, markers...)
}

// Write writes the cue sheet for audioFile to w
func Write(w io.Writer, audioFile string, markers []int) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "FILE %s WAVE\n", audioFile)
	for i, start := range TrackStarts(markers) {
		fmt.Fprintf(bw, "  TRACK %02d AUDIO\n", i+1)
		fmt.Fprintf(bw, "    INDEX 01 %s\n", Timestamp(start))
	}
	return bw.Flush()
}
