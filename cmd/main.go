// Command renugrid polls a ThingSpeak channel of solar telemetry and presents
// the latest reading, the recent history and the feed connectivity.
//
// Usage:
//
//	renugrid [command] [flags]
//
// The commands are:
//
//	dashboard   terminal dashboard with a background poller
//	serve       headless poller with the HTTP and gRPC endpoints
//	config      print the effective configuration as YAML
//
// The global flags are:
//
//	--config string
//	      path to config file (default "config.yaml")
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "renugrid",
	Short: "Solar telemetry monitor for a ThingSpeak channel",
	Long: `renugrid polls a ThingSpeak channel carrying voltage, current and power
readings, classifies the system as generating or consuming power and keeps a
short history for charting.

Settings come from the config file, overridden by RENUGRID_* environment
variables (for example RENUGRID_FEED_CHANNEL_ID).`,
	Version:       fmt.Sprintf("%s (%s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "path to config file")

	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
