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

const (
	// MaxLacingValue continues a segment, any smaller value terminates it
	MaxLacingValue = 255
	// MaxLacingTableLength is the largest segment count a page header can carry
	MaxLacingTableLength = 255
)

// DecodeLacing turns a lacing table into segment lengths.
// 255 adds to the current segment, any other value v ends it with
// length acc+v. The second return value is false when the table ends
// with 255, i.e. the last packet continues on the next page.
func DecodeLacing(table []byte) ([]int, bool) {
	var lengths []int
	acc := 0
	for _, v := range table {
		acc += int(v)
		if v < MaxLacingValue {
			lengths = append(lengths, acc)
			acc = 0
		}
	}
	terminated := len(table) == 0 || table[len(table)-1] < MaxLacingValue
	return lengths, terminated
}

// EncodeLacing builds the minimal lacing table for the segment lengths.
// A length that is a multiple of 255 gets a trailing 0 terminator.
func EncodeLacing(lengths []int) []byte {
	var table []byte
	for _, length := range lengths {
		for length >= MaxLacingValue {
			table = append(table, MaxLacingValue)
			length -= MaxLacingValue
		}
		table = append(table, byte(length))
	}
	return table
}

// LacingPayloadLength is the number of payload bytes the table describes,
// including the bytes of an unterminated trailing segment
func LacingPayloadLength(table []byte) int {
	total := 0
	for _, v := range table {
		total += int(v)
	}
	return total
}
