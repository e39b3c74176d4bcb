package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/edgar-profiler/internal/batch"
)

var (
	retryFailed      bool
	retryProblematic bool
)

var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Re-run failed tickers or low-quality profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		if retryFailed == retryProblematic {
			return exitWith(2, eris.New("exactly one of --failed or --problematic is required"))
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		var res *batch.Result
		if retryFailed {
			res, err = env.controller.RetryFailed(ctx)
		} else {
			res, err = env.controller.RetryProblematic(ctx)
		}
		if res == nil {
			return exitWith(3, err)
		}
		printBatchSummary(res)
		return batchExit(res, err)
	},
}

func init() {
	retryCmd.Flags().BoolVar(&retryFailed, "failed", false, "retry every ticker with a failure record")
	retryCmd.Flags().BoolVar(&retryProblematic, "problematic", false, "retry every profile with quality grade D or F")
	rootCmd.AddCommand(retryCmd)
}
