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
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wgo2tool/go-wgo2/pkg/config"
	"github.com/wgo2tool/go-wgo2/pkg/log"
	"github.com/wgo2tool/go-wgo2/pkg/recording"
	"github.com/wgo2tool/go-wgo2/pkg/state"
)

func NewConvertAllCommand(cfg *config.Config) *cobra.Command {
	var serial, format string
	var force bool
	cmd := &cobra.Command{
		Use:   "convert-all <dir> <dest-dir>",
		Short: "Convert every recording found below a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, dest := args[0], args[1]
			if format == "" {
				format = cfg.Format
			}
			if format != config.FormatFlac && format != config.FormatWav {
				return config.ErrInvalidConfig{Field: FormatOptionName, What: "must be flac or wav"}
			}

			sources, err := recording.FindRecordings(dir)
			if err != nil {
				return err
			}
			if len(sources) == 0 {
				log.Warning("No recordings found in %s", dir)
				return nil
			}
			if err := os.MkdirAll(dest, 0755); err != nil {
				return err
			}

			store, err := state.Open(cfg.StateDBPath())
			if err != nil {
				return err
			}
			defer store.Close()

			converter := recording.NewConverter(cfg.ConvertConfig)
			failed := 0
			for _, source := range sources {
				if !force {
					done, err := store.Has(source)
					if err != nil {
						return err
					}
					if done {
						log.Info("Skipping %s, already converted", source)
						continue
					}
				}
				info, err := os.Stat(source)
				if err != nil {
					return err
				}
				output := filepath.Join(dest, recording.OutputName(info.ModTime(), serial, format))
				rec, err := converter.Convert(cmd.Context(), source, output, false)
				if err != nil {
					log.Error("Error while converting %s: %s", source, err)
					failed++
					continue
				}
				printRecording(cmd, rec)
				if err := store.Put(rec); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d recordings failed to convert", failed, len(sources))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&serial, SerialOptionName, "", "Device serial number to put in output file names")
	cmd.Flags().StringVar(&format, FormatOptionName, "", fmt.Sprintf("Output format, flac or wav. Default from config: %s", config.DefaultFormat))
	cmd.Flags().BoolVar(&force, ForceOptionName, false, "Convert recordings already found in the history")
	return cmd
}
