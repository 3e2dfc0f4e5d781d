package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/userdesk/userdesk/pkg/cli/internal/output"
	"github.com/userdesk/userdesk/pkg/cliconfig"
)

// ConfigValue is one resolved setting in `config --json` output.
type ConfigValue struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the resolved configuration and where each value came from",
		Long: `Show the resolved configuration and the source of each value.

Sources, lowest to highest precedence:
  default  built-in value
  global   ~/.config/userdesk/config.yaml
  local    .userdeskrc.yaml in the current directory
  dotenv   .env in the current directory
  env      USERDESK_* environment variables
  flag     command-line flag`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			values := make([]ConfigValue, 0, len(cliconfig.Keys()))
			for _, key := range cliconfig.Keys() {
				values = append(values, ConfigValue{
					Key:    key,
					Value:  a.cfg.Value(key),
					Source: a.cfg.Sources[key],
				})
			}

			if a.jsonOutput() {
				return output.JSON(cmd.OutOrStdout(), values)
			}

			tw := output.Table(cmd.OutOrStdout())
			fmt.Fprintln(tw, "KEY\tVALUE\tSOURCE")
			for _, v := range values {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", v.Key, v.Value, v.Source)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if len(a.cfg.Files) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "\nFiles:")
				for _, path := range a.cfg.Files {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", path)
				}
			}
			return nil
		},
	}
}
