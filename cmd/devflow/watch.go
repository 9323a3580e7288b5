package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/albertodiazdurana/devflow-analyzer/pkg/analyzer"
	"github.com/albertodiazdurana/devflow-analyzer/pkg/loader"
	"github.com/albertodiazdurana/devflow-analyzer/pkg/tui"
	"github.com/albertodiazdurana/devflow-analyzer/pkg/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [event-log]",
	Short: "Re-run the analysis whenever an event log changes",
	Long: `Watch a local event log file and re-run the analysis on every change.

Examples:
  devflow watch events.csv
  devflow watch events.csv -o result.json --case-id ticket_id`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write result JSON here on every run")
	watchCmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Input format - auto-detected if not specified")
	watchCmd.Flags().StringVar(&caseIDColumn, "case-id", "", "Case ID column name")
	watchCmd.Flags().StringVar(&activityColumn, "activity", "", "Activity column name")
	watchCmd.Flags().StringVar(&timestampColumn, "timestamp", "", "Timestamp column name")
	watchCmd.Flags().StringVar(&resourceColumn, "resource", "", "Resource column name")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	path := args[0]
	lcfg := loaderConfig()
	acfg := analyzerConfig()

	analyzeOnce := func(p string) error {
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()

		format := loader.DetectFormat(p)
		if formatFlag != "" {
			format = loader.ParseFormat(formatFlag)
		}

		events, err := loader.Load(ctx, f, format, lcfg)
		if err != nil {
			return err
		}

		result, err := analyzer.New(acfg).Analyze(ctx, events)
		if err != nil {
			return err
		}

		if outputFile != "" {
			if err := os.WriteFile(outputFile, result.CanonicalJSON(), 0o644); err != nil {
				return err
			}
		}
		printReport(result)
		return nil
	}

	// Run once before watching so the first report is immediate.
	if err := analyzeOnce(path); err != nil {
		return err
	}

	w, err := watch.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	w.OnChange = analyzeOnce
	w.OnError = func(p string, err error) {
		tui.PrintError(fmt.Sprintf("%s: %v", p, err))
	}

	if err := w.Watch(path); err != nil {
		return err
	}

	tui.PrintInfo("Watching:", path)
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
