// fitdedup finds duplicate fitness activities recorded by multiple
// devices or apps, compares their data quality and walks the user
// through cleaning them up.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/jrowe/fitdedup/internal/config"
)

var (
	configPath string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "fitdedup",
	Short: "Find duplicate fitness activities across Strava and Stryd",
	Long: `fitdedup fetches your activities from Strava and Stryd, detects
duplicates recorded by multiple devices (including recordings shifted by
an hour across DST changes), scores each copy's data quality and helps
you decide which one to keep.

Nothing is ever deleted automatically: the tool produces a list of
activities you marked, with links to the provider pages where the
deletion happens.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default: platform config dir)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log diagnostics to stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file named by --config, falling back to the
// platform default location.
func loadConfig() (*config.File, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return config.Load(path)
}

// diagLogger returns the diagnostics sink selected by --debug.
func diagLogger() *log.Logger {
	if debug {
		return log.New(os.Stderr, "fitdedup: ", log.LstdFlags)
	}
	return log.New(io.Discard, "", 0)
}
