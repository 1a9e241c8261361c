// Package cli implements the nbtemplates command line.
package cli

import (
	"fmt"
	"os"

	"github.com/opencode-ai/nbtemplates/internal/auth"
	"github.com/opencode-ai/nbtemplates/internal/config"
	"github.com/opencode-ai/nbtemplates/internal/logging"
	"github.com/opencode-ai/nbtemplates/internal/templates"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set at build time.
var Version = "dev"

var (
	cfgFile        string
	jsonOutput     bool
	nonInteractive bool

	v      = viper.New()
	appCfg *config.Config
	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:           "nbtemplates",
	Short:         "Serve notebook templates",
	Long:          "Discover notebook templates in configured directories and serve them to notebook front ends.",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/nbtemplates/config.yaml)")
	flags.BoolVar(&jsonOutput, "json", false, "output JSON")
	flags.BoolVar(&nonInteractive, "non-interactive", false, "plain output without styling")
	flags.StringSlice("template-dir", nil, "template directory to search (repeatable, in order)")
	flags.String("tutorial-path", "", "absolute path of the tutorial template")
	flags.Bool("no-default", false, "exclude the bundled default templates")
	flags.Bool("no-core-paths", false, "exclude notebook data path template directories")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (console, json)")

	mustBind("template_dirs", "template-dir")
	mustBind("tutorial_path", "tutorial-path")
	mustBind("logging.level", "log-level")
	mustBind("logging.format", "log-format")
}

func mustBind(key, flag string) {
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", flag, err))
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func initConfig(cmd *cobra.Command) error {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if noDefault, _ := flags.GetBool("no-default"); noDefault {
		cfg.IncludeDefault = false
	}
	if noCore, _ := flags.GetBool("no-core-paths"); noCore {
		cfg.IncludeCorePaths = false
	}

	log, err := logging.New(cfg.Logging, os.Stderr)
	if err != nil {
		return err
	}

	appCfg = cfg
	logger = log
	return nil
}

// IsJSONOutput reports whether --json was given.
func IsJSONOutput() bool {
	return jsonOutput
}

func searchRoots() []templates.Root {
	return templates.SearchRoots(templates.SearchOptions{
		TemplateDirs:     appCfg.TemplateDirs,
		IncludeDefault:   appCfg.IncludeDefault,
		IncludeCorePaths: appCfg.IncludeCorePaths,
	}, logger)
}

func newService() *templates.Service {
	return templates.NewService(templates.ServiceConfig{
		Roots:        searchRoots(),
		TutorialPath: appCfg.TutorialPath,
	}, logger)
}

func newAuthenticator() (auth.Authenticator, error) {
	if appCfg.Auth.JWTSecret == "" {
		return auth.Anonymous(), nil
	}
	return auth.NewJWTAuthenticator(appCfg.Auth.JWTSecret, appCfg.Auth.CookieName, logger)
}
