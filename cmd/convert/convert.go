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

package convert

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wgo2tool/go-wgo2/pkg/command"
	"github.com/wgo2tool/go-wgo2/pkg/config"
	"github.com/wgo2tool/go-wgo2/pkg/recording"
	"github.com/wgo2tool/go-wgo2/pkg/state"
)

const (
	FollowOptionName = "follow"
	RemoteOptionName = "remote"
	SerialOptionName = "serial"
	FormatOptionName = "format"
	ForceOptionName  = "force"
)

func printRecording(cmd *cobra.Command, rec *recording.Recording) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%s, %d markers)\n", rec.Source, rec.Output, rec.Duration, len(rec.Markers))
}

func NewConvertCommand(cfg *config.Config) *cobra.Command {
	var follow, remote bool
	cmd := &cobra.Command{
		Use:   "convert <REC.UGG> <output.flac|output.wav>",
		Short: "Convert a recording to WAV or FLAC with markers",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, output := args[0], args[1]
			if remote {
				rec, err := command.NewApiClient(cfg).Convert(source, output, follow)
				if err != nil {
					return err
				}
				printRecording(cmd, rec)
				return nil
			}

			store, err := state.Open(cfg.StateDBPath())
			if err != nil {
				return err
			}
			defer store.Close()

			rec, err := recording.NewConverter(cfg.ConvertConfig).Convert(cmd.Context(), source, output, follow)
			if err != nil {
				return err
			}
			printRecording(cmd, rec)
			return store.Put(rec)
		},
	}
	cmd.Flags().BoolVar(&follow, FollowOptionName, false, "Keep reading the recording while the device is still writing it")
	cmd.Flags().BoolVar(&remote, RemoteOptionName, false, "Ask the running API server to do the conversion")
	return cmd
}
