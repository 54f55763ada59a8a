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

package layers

import (
	"fmt"
)

// ErrFormat returned when the container or a codec header carries a value
// this decoder does not support (revision, version, sample format)
type ErrFormat struct {
	What string
}

func (e ErrFormat) Error() string {
	return fmt.Sprintf("Unsupported stream format: %s", e.What)
}

// ErrTruncated returned when the input ends inside a page
type ErrTruncated struct {
	What   string
	Offset int64
}

func (e ErrTruncated) Error() string {
	return fmt.Sprintf("Stream truncated at offset %d: %s", e.Offset, e.What)
}

// ErrUnsupportedFeature returned for valid container features that are
// deliberately not handled, e.g. packets continued across pages
type ErrUnsupportedFeature struct {
	What string
}

func (e ErrUnsupportedFeature) Error() string {
	return fmt.Sprintf("Unsupported stream feature: %s", e.What)
}
