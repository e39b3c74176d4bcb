package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/edgar-profiler/internal/batch"
)

var batchFile string

var batchCmd = &cobra.Command{
	Use:   "batch [TICKER...]",
	Short: "Profile a batch of tickers with bounded concurrency",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		tickers := args
		if batchFile != "" {
			fromFile, err := readTickerFile(batchFile)
			if err != nil {
				return exitWith(2, err)
			}
			tickers = append(tickers, fromFile...)
		}
		if len(tickers) == 0 {
			return exitWith(2, eris.New("no tickers given: pass arguments or --file"))
		}

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		env.controller.Add(tickers...)
		res, err := env.controller.Run(ctx)
		printBatchSummary(res)
		return batchExit(res, err)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "file with one ticker per line (# comments allowed)")
	rootCmd.AddCommand(batchCmd)
}

func readTickerFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "open ticker file")
	}
	defer f.Close()

	var tickers []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tickers = append(tickers, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "read ticker file")
	}
	return tickers, nil
}

func printBatchSummary(res *batch.Result) {
	fmt.Printf("batch %s: %d/%d succeeded in %s\n",
		res.BatchID, res.Succeeded, res.Total, res.Elapsed.Round(time.Millisecond))
	for ticker, reason := range res.Failures {
		fmt.Printf("  failed: %s (%s)\n", ticker, reason)
	}
}
