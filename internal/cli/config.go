package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodeformat/pkg/config"
)

// configCommand creates the config command.
func (c *CLI) configCommand() *cobra.Command {
	format := config.FormatTOML

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the effective configuration: the defaults, overlaid with --config and
NODEFORMAT_* environment variables. The output is a valid config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			data, err := config.Marshal(cfg, format)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", format, "output format: toml, yaml")

	return cmd
}
