package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// RootCmd is the tzcore CLI's entry point. Exported so it can be
// extended with additional subcommands without touching the core
// packages it wraps.
var RootCmd = &cobra.Command{
	Use:   "tzcore",
	Short: "Inspect, diff, and query compiled time-zone data",
}

var rootVerboseFlag bool

func init() {
	RootCmd.PersistentFlags().BoolVarP(&rootVerboseFlag, "verbose", "v", false, "verbose output")
}

// ConfigureVerbosity sets the log level from the persistent --verbose
// flag. Every subcommand's Run calls this first.
func ConfigureVerbosity() {
	log.SetLevel(log.InfoLevel)
	if rootVerboseFlag {
		log.SetLevel(log.DebugLevel)
	}
}

// Execute runs the CLI, exiting non-zero on error.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
