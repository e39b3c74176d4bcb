package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/edgar-profiler/internal/batch"
)

var cacheClearTicker string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the filing cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print cache size, entry count, and per-company usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := initCache()
		if err != nil {
			return err
		}
		if c == nil {
			return eris.New("cache is disabled in config")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(c.Stats())
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop cached bundles, for one ticker or all",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		c, err := initCache()
		if err != nil {
			return err
		}
		if c == nil {
			return eris.New("cache is disabled in config")
		}

		if cacheClearTicker == "" {
			if err := c.ClearAll(); err != nil {
				return eris.Wrap(err, "clear cache")
			}
			fmt.Println("cache cleared")
			return nil
		}

		client, err := initEDGAR()
		if err != nil {
			return err
		}
		resolver := batch.NewResolver(client, initDirectory())
		cik, _, err := resolver.Resolve(ctx, cacheClearTicker)
		if err != nil {
			return eris.Wrapf(err, "resolve ticker %s", cacheClearTicker)
		}
		if err := c.Clear(cik); err != nil {
			return eris.Wrap(err, "clear cache entry")
		}
		zap.L().Info("cache entries cleared",
			zap.String("ticker", cacheClearTicker),
			zap.String("cik", cik),
		)
		return nil
	},
}

func init() {
	cacheClearCmd.Flags().StringVar(&cacheClearTicker, "ticker", "", "clear only this ticker's bundles")
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
