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
	"fmt"
)

// ErrUnsupportedOutput returned when the output file extension is neither .wav nor .flac
type ErrUnsupportedOutput struct {
	Path string
}

func (e ErrUnsupportedOutput) Error() string {
	return fmt.Sprintf("Unrecognised output file extension, must be .wav or .flac: %s", e.Path)
}

// ErrNoAudio returned when a recording contains no PCM stream
type ErrNoAudio struct {
	Source string
}

func (e ErrNoAudio) Error() string {
	return fmt.Sprintf("No audio stream found in %s", e.Source)
}
