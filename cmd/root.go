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

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/wgo2tool/go-wgo2/cmd/completion"
	"github.com/wgo2tool/go-wgo2/cmd/config"
	"github.com/wgo2tool/go-wgo2/cmd/convert"
	"github.com/wgo2tool/go-wgo2/cmd/inspect"
	"github.com/wgo2tool/go-wgo2/cmd/recordings"
	"github.com/wgo2tool/go-wgo2/cmd/serve"
	pkgconfig "github.com/wgo2tool/go-wgo2/pkg/config"
	"github.com/wgo2tool/go-wgo2/pkg/log"
)

const (
	LogLevelOptionName = "log-level"
)

func NewRootCommand(out io.Writer) *cobra.Command {
	var logLevel string
	cfg := pkgconfig.NewDefaultConfig()
	cmd := &cobra.Command{
		Use:          "go-wgo2",
		Short:        "Tool to convert Wireless GO II recordings",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log.Init(cmd.ErrOrStderr(), pkgconfig.DefaultLogLevel)
			if err := cfg.Load(); err != nil {
				return err
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			return log.SetLevel(cfg.LogLevel)
		},
	}
	cmd.SetOut(out)
	cmd.AddCommand(config.NewCommand(cfg))
	cmd.AddCommand(convert.NewConvertCommand(cfg))
	cmd.AddCommand(convert.NewConvertAllCommand(cfg))
	cmd.AddCommand(inspect.NewMarkersCommand())
	cmd.AddCommand(inspect.NewPagesCommand())
	cmd.AddCommand(recordings.NewCommand(cfg))
	cmd.AddCommand(serve.NewCommand(cfg))
	cmd.AddCommand(completion.NewCommand())
	cmd.PersistentFlags().StringVar(&logLevel, LogLevelOptionName, "", fmt.Sprintf("Log level. %s", log.HelpLevels))
	return cmd
}
