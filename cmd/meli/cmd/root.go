// Package cmd implements the meli CLI commands.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	envFile string
)

// Root returns a freshly built root command, for documentation generation
// and tests.
func Root() *cobra.Command {
	return newRootCmd()
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "meli",
		Short: "CLI client for the Mercado Livre API",
		Long: "meli calls the Mercado Livre marketplace API with OAuth2 credentials\n" +
			"from a config file. Access tokens are refreshed on demand and the\n" +
			"rotated refresh token is persisted in the configured store.",
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			initConfig()
		},
	}

	rootCmd.PersistentFlags().
		StringVar(&cfgFile, "config", "meli.yaml", "config file path")
	rootCmd.PersistentFlags().
		StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config is expanded")
	rootCmd.PersistentFlags().
		String("output", "json", "output format (json, raw, table)")
	rootCmd.PersistentFlags().
		String("base-url", "", "override meli.base_url from the config")
	rootCmd.PersistentFlags().
		String("log-level", "", "override logging.level from the config")

	cobra.CheckErr(viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output")))
	cobra.CheckErr(viper.BindPFlag("base-url", rootCmd.PersistentFlags().Lookup("base-url")))
	cobra.CheckErr(viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level")))

	rootCmd.AddCommand(
		requestCmd("GET"),
		requestCmd("POST"),
		requestCmd("PUT"),
		requestCmd("DELETE"),
		tokenCmd(),
		authCmd(),
		migrateCmd(),
		versionCmd(),
	)

	return rootCmd
}

func initConfig() {
	viper.SetEnvPrefix("MELI")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func outputFormat() string {
	return viper.GetString("output")
}
