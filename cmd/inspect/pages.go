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

package inspect

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wgo2tool/go-wgo2/pkg/demux"
	"github.com/wgo2tool/go-wgo2/pkg/layers"
)

func pageFlags(page *layers.OggPage) string {
	flags := []byte("---")
	if page.Continued() {
		flags[0] = 'c'
	}
	if page.BeginOfStream() {
		flags[1] = 'b'
	}
	if page.EndOfStream() {
		flags[2] = 'e'
	}
	return string(flags)
}

func NewPagesCommand() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "pages <file>",
		Short: "Dump the pages of a recording or telemetry file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			out := cmd.OutOrStdout()
			reader := demux.NewPageReader(demux.NewReaderSource(file))
			for {
				page, err := reader.Next()
				if err == io.EOF {
					break
				}
				if err != nil {
					return err
				}
				offset := reader.Offset() - int64(len(page.Contents)+len(page.Payload))
				fmt.Fprintf(out, "%10d  serial=0x%08x seq=%-6d granule=%-10d %s segments=%d\n",
					offset, page.Serial, page.Sequence, page.GranulePos, pageFlags(page), len(page.Segments))
				if verbose {
					fmt.Fprintf(out, "            lengths=%v\n", page.SegmentLengths())
				}
			}
			fmt.Fprintf(out, "%d pages\n", reader.Pages())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print segment lengths")
	return cmd
}
