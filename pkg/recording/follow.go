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
	"io"
	"time"

	"github.com/wgo2tool/go-wgo2/pkg/demux"
	"github.com/wgo2tool/go-wgo2/pkg/log"
)

// Follow copies r into dst as it grows, polling every poll interval.
// dst is closed once nothing new arrived for idle, or with the context
// error when ctx is done. It blocks, run it in its own goroutine.
func Follow(ctx context.Context, r io.Reader, dst *demux.IncrementalSource, poll, idle time.Duration) {
	lastGrowth := time.Now()
	var total int64
	for {
		n, err := io.Copy(dst, r)
		if err != nil {
			log.Error("Error while following input: %s", err)
			dst.CloseWithError(err)
			return
		}
		if n > 0 {
			total += n
			lastGrowth = time.Now()
			log.Debug("Follow: %d new bytes, %d total", n, total)
		}
		if time.Since(lastGrowth) >= idle {
			log.Info("Input idle for %s, %d bytes read", idle, total)
			dst.Close()
			return
		}

		select {
		case <-ctx.Done():
			dst.CloseWithError(ctx.Err())
			return
		case <-time.After(poll):
		}
	}
}
