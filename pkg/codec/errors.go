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

package codec

import (
	"fmt"

	"github.com/wgo2tool/go-wgo2/pkg/layers"
)

// ErrUnknownCodec returned when a stream starts with a codec tag we have no handler for
type ErrUnknownCodec struct {
	Tag []byte
}

func (e ErrUnknownCodec) Error() string {
	return fmt.Sprintf("Unknown codec %q", e.Tag)
}

// ErrUnknownSubtype returned when a telemetry stream header names an unknown subtype.
// It is a format error: errors.Is(err, layers.ErrFormat{}) holds.
type ErrUnknownSubtype struct {
	Subtype layers.WGo2Subtype
}

func (e ErrUnknownSubtype) Error() string {
	return fmt.Sprintf("Unknown telemetry stream subtype 0x%02x", uint8(e.Subtype))
}

func (e ErrUnknownSubtype) Is(target error) bool {
	_, ok := target.(layers.ErrFormat)
	return ok
}
