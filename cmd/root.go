package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/edgar-profiler/internal/config"
)

var cfg *config.Config

// exitError carries a process exit code through cobra's error return:
// 2 configuration error, 3 store unreachable, 4 partial success, 5 cancelled.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func exitWith(code int, err error) error {
	return &exitError{code: code, err: err}
}

var rootCmd = &cobra.Command{
	Use:   "edgar-profiler",
	Short: "Unified company profiles from SEC EDGAR filings",
	Long:  "Fetches SEC filings, runs parallel extractors over them, derives financial metrics and relationship graphs, and persists scored company profiles.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return exitWith(2, fmt.Errorf("load config: %w", err))
		}
		if err := c.Validate(); err != nil {
			return exitWith(2, err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return exitWith(2, fmt.Errorf("init logger: %w", err))
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}
