package cli

import (
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfig(cmd.OutOrStdout())
	},
}

const redacted = "<redacted>"

func runConfig(out io.Writer) error {
	cfg := *appCfg
	if cfg.Auth.JWTSecret != "" {
		cfg.Auth.JWTSecret = redacted
	}

	if IsJSONOutput() {
		return writeJSON(out, cfg)
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}
