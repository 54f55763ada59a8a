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

package recordings

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/wgo2tool/go-wgo2/pkg/command"
	"github.com/wgo2tool/go-wgo2/pkg/config"
	"github.com/wgo2tool/go-wgo2/pkg/recording"
	"github.com/wgo2tool/go-wgo2/pkg/state"
)

const (
	RemoteOptionName = "remote"
)

func printRecordings(out io.Writer, recs []*recording.Recording) {
	for _, rec := range recs {
		fmt.Fprintf(out, "%-10s %s  %-12s %3d markers  %s\n",
			rec.Name, rec.RecordedAt.Local().Format("2006-01-02 15:04:05"), rec.Duration, len(rec.Markers), rec.Output)
	}
}

func listLocal(cfg *config.Config, name string) ([]*recording.Recording, error) {
	store, err := state.Open(cfg.StateDBPath())
	if err != nil {
		return nil, err
	}
	defer store.Close()
	if name != "" {
		rec, err := store.GetByName(name)
		if err != nil {
			return nil, err
		}
		return []*recording.Recording{rec}, nil
	}
	return store.List()
}

func listRemote(cfg *config.Config, name string) ([]*recording.Recording, error) {
	apiClient := command.NewApiClient(cfg)
	if name != "" {
		rec, err := apiClient.GetRecording(name)
		if err != nil {
			return nil, err
		}
		return []*recording.Recording{rec}, nil
	}
	return apiClient.ListRecordings()
}

func NewCommand(cfg *config.Config) *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "recordings [name]",
		Short: "List converted recordings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			var recs []*recording.Recording
			var err error
			if remote {
				recs, err = listRemote(cfg, name)
			} else {
				recs, err = listLocal(cfg, name)
			}
			if err != nil {
				return err
			}
			printRecordings(cmd.OutOrStdout(), recs)
			return nil
		},
	}
	cmd.Flags().BoolVar(&remote, RemoteOptionName, false, "Query the running API server")
	return cmd
}
