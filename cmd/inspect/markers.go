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
	"os"

	"github.com/spf13/cobra"

	"github.com/wgo2tool/go-wgo2/pkg/log"
	"github.com/wgo2tool/go-wgo2/pkg/recording"
)

func NewMarkersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "markers <PEA.EGG>",
		Short: "Print the markers stored in a telemetry file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			markers, found, err := recording.DecodeMarkers(file)
			if err != nil {
				return err
			}
			if !found {
				log.Warning("No telemetry status stream in %s", args[0])
				return nil
			}
			for i, s := range markers {
				fmt.Fprintf(cmd.OutOrStdout(), "%3d  %02d:%02d\n", i+1, s/60, s%60)
			}
			return nil
		},
	}
	return cmd
}
