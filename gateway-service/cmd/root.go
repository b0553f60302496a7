package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/investoriq/investoriq-api/pkg/config"
)

var (
	cfgFile string
	envFile string
	v       *viper.Viper
)

var rootCmd = &cobra.Command{
	Use:   "gateway-service",
	Short: "InvestorIQ document gateway",
	Long: `Gateway Service exposes the InvestorIQ properties and advisor_requests
collections over a small JSON API backed by Firestore, S3, MongoDB or memory.

The API has no authentication; deploy it behind something that does.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	v = config.InitViper("gateway-service")
	config.BindFlags(rootCmd, v)
}

func initConfig() {
	if err := config.LoadDotEnv(envFile); err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	}
}
