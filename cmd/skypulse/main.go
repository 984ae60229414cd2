package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/i474232898/skypulse/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "skypulse",
	Short: "SkyPulse - weather dashboard backend",
	Long: `SkyPulse composes current conditions, hourly and daily forecasts, air quality
and radar frames for one location into a single dashboard view.`,
	SilenceUsage: true,
}

func main() {
	err := rootCmd.Execute()
	logger.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
