// Package cmd provides the sitepanel command-line interface.
//
// Configuration System:
//
//	Settings are resolved from several sources, highest priority first:
//	1. Command-line flags (--port, --log-level, ...)
//	2. SITEPANEL_<SECTION>_<OPTION> environment variables
//	3. The config file named by --config, else SITEPANEL_CONFIG_FILE, else
//	   .sitepanel.yml in the current directory
//
// Environment Variables:
//
//	SITEPANEL_CONFIG_FILE: Path to a custom configuration file
//	SITEPANEL_SERVER_PORT: Override the admin server port
//	SITEPANEL_BACKEND_BASE_URL: Root URL of the content back-end
//	SITEPANEL_DEVELOPMENT_LIVE_RELOAD: Enable/disable browser live reload
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ConfigFileEnv names the environment variable holding a config file path.
const ConfigFileEnv = "SITEPANEL_CONFIG_FILE"

// NewRootCommand builds the sitepanel command tree.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "sitepanel",
		Short: "Admin front-end for a sites and pages content back-end",
		Long: `sitepanel administers the sites and pages stored by a content back-end.

It serves a browser admin UI with live updates and offers the same
operations from the command line.

Quick Start:
  sitepanel serve                  Start the admin server
  sitepanel sites list             List sites
  sitepanel pages list SITE        List the pages of a site
  sitepanel export                 Dump every site and page as YAML`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd, cfgFile)
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is .sitepanel.yml, can also use "+ConfigFileEnv+" env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(
		newServeCommand(),
		newSitesCommand(),
		newPagesCommand(),
		newExportCommand(),
		newVersionCommand(),
	)

	return rootCmd
}

// Execute runs the command line and reports a failure on stderr.
func Execute() error {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// initConfig points viper at the config file and enables SITEPANEL_ env
// overrides. A missing default config file is not an error; an explicitly
// named one is.
func initConfig(cmd *cobra.Command, cfgFile string) error {
	explicit := true
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv(ConfigFileEnv); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		explicit = false
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".sitepanel")
	}

	viper.SetEnvPrefix("SITEPANEL")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if explicit {
			return fmt.Errorf("read config file: %w", err)
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config file: %w", err)
		}
		return nil
	}

	fmt.Fprintln(cmd.ErrOrStderr(), "Using config file:", viper.ConfigFileUsed())
	return nil
}
