package main

import (
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/edgar-profiler/internal/batch"
	"github.com/sells-group/edgar-profiler/internal/model"
)

var runCIK string

var runCmd = &cobra.Command{
	Use:   "run TICKER",
	Short: "Build the unified profile for a single ticker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		ticker := args[0]
		cik := runCIK
		if cik != "" && !model.ValidCIK(cik) {
			return exitWith(2, eris.Errorf("invalid cik %q", cik))
		}
		if cik == "" {
			cik, _, err = env.resolver.Resolve(ctx, ticker)
			if err != nil {
				if errors.Is(err, batch.ErrUnknownTicker) {
					return eris.Errorf("unknown ticker %q", ticker)
				}
				return eris.Wrap(err, "resolve ticker")
			}
		}

		profile, err := env.aggregator.ProfileTicker(ctx, ticker, cik, logProgress)
		if err != nil {
			if ctx.Err() != nil {
				return exitWith(5, err)
			}
			return err
		}

		zap.L().Info("profile complete",
			zap.String("ticker", ticker),
			zap.String("cik", profile.CIK),
			zap.String("grade", profile.Quality.Grade),
			zap.Float64("score", profile.Quality.Score),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(profile)
	},
}

func init() {
	runCmd.Flags().StringVar(&runCIK, "cik", "", "CIK override, skips ticker resolution")
	rootCmd.AddCommand(runCmd)
}
