// Package cmd provides CLI command implementations
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/glycanlab/glycandia/pkg/config"
)

var (
	cfgFile string
	dbPath  string
)

var rootCmd = &cobra.Command{
	Use:   "glycandia",
	Short: "glycandia - Glycan isomer finder for DIA LC-MS/MS data",
	Long: `glycandia locates glycan structural isomers in DIA LC-MS/MS runs by
matching theoretical precursor masses across MS1 spectra, detecting
chromatographic peaks, and corroborating each MS1 peak with diagnostic
fragment signals aligned from MS2 spectra.

Batches are driven by a config file plus a compound list CSV; results are
written as per-dataset and combined CSV forms, optionally also to a SQLite
database.`,
	Version: "1.0.0",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./glycandia.yaml)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(massesCmd)

	runCmd.Flags().StringVar(&dbPath, "db", "", "also write results to a SQLite database at this path")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("glycandia")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("GLYCANDIA")
	viper.AutomaticEnv()

	config.SetDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
