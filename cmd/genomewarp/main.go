// Package main provides the genomewarp command-line tool: chain-file
// driven variant liftover between two genome assemblies.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version information (set at build time).
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var cfgFile string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "genomewarp",
		Short: "Lift variants between genome assemblies via a chain file",
		Long: `genomewarp translates VCF variants called against one genome assembly
into the coordinate space of another, using a UCSC chain file to find
homologous regions and synthesizing variants where the two assemblies'
reference bases differ but the individual's genotype does not change.`,
		Version:      fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.genomewarp.yaml)")
	root.PersistentFlags().Bool("verbose", false, "enable verbose (development-style) logging")
	viper.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))

	root.AddCommand(newLiftoverCmd())
	root.AddCommand(newExtractGVCFCmd())
	root.AddCommand(newConfigCmd())

	return root
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".genomewarp")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}
