package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clearCacheCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Drop every cached geocode lookup (Redis-backed caches are shared)",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		n := rt.resolver.CacheSize(cmd.Context())
		rt.resolver.PurgeCache(cmd.Context())
		fmt.Printf("removed %d cached lookups\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clearCacheCmd)
}
