package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/i474232898/skypulse/internal/weather"
)

var weatherUnits string

var weatherCmd = &cobra.Command{
	Use:   "weather <query>",
	Short: "Compose the dashboard for a city name or \"lat,lon\" and print it as JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runWeather,
}

var suggestCmd = &cobra.Command{
	Use:   "suggest <query>",
	Short: "Print city suggestions for a partial name",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSuggest,
}

func init() {
	weatherCmd.Flags().StringVarP(&weatherUnits, "units", "u", "metric", "metric or imperial")
	rootCmd.AddCommand(weatherCmd, suggestCmd)
}

func runWeather(cmd *cobra.Command, args []string) error {
	unit, err := weather.ParseUnit(weatherUnits)
	if err != nil {
		return err
	}

	rt, err := newRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	data, err := rt.composer.ComposeQuery(cmd.Context(), strings.Join(args, " "), unit)
	if err != nil {
		return err
	}
	return printJSON(struct {
		Weather *weather.Data   `json:"weather"`
		Derived weather.Derived `json:"derived"`
	}{data, rt.composer.Derive(data)})
}

func runSuggest(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	return printJSON(rt.resolver.Suggestions(cmd.Context(), strings.Join(args, " ")))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
