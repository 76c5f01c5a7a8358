package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "toned",
	Short: "Tone generation and detection engine",
	Long: `toned hosts the tone engine core: a cadence-driven PCM tone
generator and a DTMF/fax/continuity tone detector, plus an admin
diagnostics surface.`,
}

// Execute runs the root command, exiting the process on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/toned.yaml", "path to service configuration file")
}
