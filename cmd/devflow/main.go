// Devflow - Process analysis for timestamped event logs
// Computes flow graphs, variants, bottlenecks and case statistics.
package main

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/albertodiazdurana/devflow-analyzer/internal/model"
	"github.com/albertodiazdurana/devflow-analyzer/pkg/analyzer"
	"github.com/albertodiazdurana/devflow-analyzer/pkg/config"
	"github.com/albertodiazdurana/devflow-analyzer/pkg/loader"
	"github.com/albertodiazdurana/devflow-analyzer/pkg/loader/source"
	"github.com/albertodiazdurana/devflow-analyzer/pkg/report"
	"github.com/albertodiazdurana/devflow-analyzer/pkg/telemetry"
	"github.com/albertodiazdurana/devflow-analyzer/pkg/tui"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

// CLI flags
var (
	inputLocation string
	outputFile    string
	formatFlag    string
	workersFlag   int
	topFlag       int
	verbose       bool
	plainOutput   bool

	// Column mapping flags
	caseIDColumn    string
	activityColumn  string
	timestampColumn string
	resourceColumn  string
	timestampFormat string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "devflow",
	Short: "Devflow - Analyze timestamped event logs",
	Long: `Devflow analyzes process event logs (CSV, XES, JSONL, XLSX, Parquet)
and reports flow structure: variants, bottlenecks, rework and case durations.

Inputs can be local files, glob patterns, or s3:// locations.`,
	Version: fmt.Sprintf("%s (%s)", version, commit),
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze an event log and emit the result as JSON",
	Long: `Analyze a process event log and write the analysis result.

Supports reading from stdin using "-" as the input location.

Examples:
  devflow analyze -i events.csv
  devflow analyze -i "logs/*.csv" -o result.json
  devflow analyze -i s3://bucket/logs/run.parquet --case-id ticket_id
  cat events.csv | devflow analyze -i - --format csv`,
	RunE: runAnalyze,
}

var reportCmd = &cobra.Command{
	Use:   "report [result.json]",
	Short: "Render a saved analysis result as a report",
	Long: `Render a previously saved analysis result.

Examples:
  devflow report result.json
  devflow report result.json --plain > report.md`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Display information about an event log",
	Long:  `Load an event log and display basic counts without running the full analysis.`,
	RunE:  runInfo,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	for _, cmd := range []*cobra.Command{analyzeCmd, infoCmd} {
		cmd.Flags().StringVarP(&inputLocation, "input", "i", "", "Input location: file, glob, s3:// URI, or '-' for stdin")
		cmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Input format (csv, xes, jsonl, xlsx, parquet) - auto-detected if not specified")
		cmd.Flags().StringVar(&caseIDColumn, "case-id", "", "Case ID column name")
		cmd.Flags().StringVar(&activityColumn, "activity", "", "Activity column name")
		cmd.Flags().StringVar(&timestampColumn, "timestamp", "", "Timestamp column name")
		cmd.Flags().StringVar(&resourceColumn, "resource", "", "Resource column name")
		cmd.Flags().StringVar(&timestampFormat, "timestamp-format", "", "Timestamp format (Go time layout)")
		cmd.MarkFlagRequired("input")
	}

	analyzeCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output JSON file path (default: stdout)")
	analyzeCmd.Flags().IntVar(&workersFlag, "workers", 0, "Parallel workers (0 = auto)")
	analyzeCmd.Flags().IntVar(&topFlag, "top", 0, "Number of bottlenecks to report")
	analyzeCmd.Flags().BoolVar(&plainOutput, "plain", false, "Plain markdown report instead of styled output")

	reportCmd.Flags().BoolVar(&plainOutput, "plain", false, "Plain markdown report instead of styled output")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
}

// loaderConfig builds the loader configuration from config files and flags.
func loaderConfig() loader.Config {
	cfg := config.Global().Get()

	lcfg := loader.DefaultConfig()
	if cfg.Loader.CaseIDColumn != "" {
		lcfg.CaseIDColumn = cfg.Loader.CaseIDColumn
	}
	if cfg.Loader.ActivityColumn != "" {
		lcfg.ActivityColumn = cfg.Loader.ActivityColumn
	}
	if cfg.Loader.TimestampColumn != "" {
		lcfg.TimestampColumn = cfg.Loader.TimestampColumn
	}
	if cfg.Loader.ResourceColumn != "" {
		lcfg.ResourceColumn = cfg.Loader.ResourceColumn
	}
	if cfg.Loader.TimestampFormat != "" {
		lcfg.TimestampFormat = cfg.Loader.TimestampFormat
	}
	if cfg.Loader.BufferSize > 0 {
		lcfg.BufferSize = cfg.Loader.BufferSize
	}

	// Flags win over config files
	if caseIDColumn != "" {
		lcfg.CaseIDColumn = caseIDColumn
	}
	if activityColumn != "" {
		lcfg.ActivityColumn = activityColumn
	}
	if timestampColumn != "" {
		lcfg.TimestampColumn = timestampColumn
	}
	if resourceColumn != "" {
		lcfg.ResourceColumn = resourceColumn
	}
	if timestampFormat != "" {
		lcfg.TimestampFormat = timestampFormat
	}
	return lcfg
}

func analyzerConfig() analyzer.Config {
	cfg := config.Global().Get()

	acfg := analyzer.DefaultConfig()
	if cfg.Analyzer.Workers > 0 {
		acfg.Workers = cfg.Analyzer.Workers
	}
	if cfg.Analyzer.TopBottlenecks > 0 {
		acfg.TopBottlenecks = cfg.Analyzer.TopBottlenecks
	}
	if workersFlag > 0 {
		acfg.Workers = workersFlag
	}
	if topFlag > 0 {
		acfg.TopBottlenecks = topFlag
	}
	return acfg
}

func sourceConfig() source.Config {
	s3 := config.Global().Get().Source.S3
	scfg := source.DefaultS3Config()
	scfg.Region = s3.Region
	scfg.Endpoint = s3.Endpoint
	scfg.UsePathStyle = s3.UsePathStyle
	scfg.AccessKeyID = s3.AccessKeyID
	scfg.SecretAccessKey = s3.SecretAccessKey
	return source.Config{S3: scfg}
}

// initTelemetry sets up tracing when enabled; returns a shutdown func.
func initTelemetry(ctx context.Context) func() {
	tcfg := config.Global().Get().Telemetry
	if !tcfg.Enabled {
		return func() {}
	}

	ocfg := telemetry.DefaultOTLPConfig("devflow")
	ocfg.ServiceVersion = version
	if tcfg.Endpoint != "" {
		ocfg.Endpoint = tcfg.Endpoint
	}

	shutdown, err := telemetry.InitOTLP(ocfg)
	if err != nil {
		if verbose {
			tui.PrintError("telemetry init failed: " + err.Error())
		}
		return func() {}
	}
	return func() {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		shutdown(ctx)
	}
}

// loadEvents resolves the input location and loads every event.
func loadEvents(ctx context.Context, location string) ([]model.Event, int, error) {
	lcfg := loaderConfig()

	if location == "-" {
		if formatFlag == "" {
			return nil, 0, fmt.Errorf("format must be specified when reading from stdin (--format csv/xes/jsonl)")
		}
		events, err := loader.Load(ctx, os.Stdin, loader.ParseFormat(formatFlag), lcfg)
		return events, 1, err
	}

	inputs, err := source.Resolve(ctx, location, sourceConfig())
	if err != nil {
		return nil, 0, err
	}

	var events []model.Event
	for _, in := range inputs {
		format := loader.DetectFormat(in.Name)
		if formatFlag != "" {
			format = loader.ParseFormat(formatFlag)
		}

		r, err := in.Open(ctx)
		if err != nil {
			return nil, 0, err
		}

		reader := io.Reader(r)
		if verbose && in.Size > 0 {
			bar := tui.ShowProgress(in.Size, "  loading "+in.Name)
			reader = io.TeeReader(reader, bar)
		}
		if strings.HasSuffix(in.Name, ".gz") {
			gz, gzErr := gzip.NewReader(reader)
			if gzErr != nil {
				r.Close()
				return nil, 0, fmt.Errorf("opening %s: %w", in.Name, gzErr)
			}
			reader = gz
		}

		batch, err := loader.Load(ctx, reader, format, lcfg)
		r.Close()
		if err != nil {
			return nil, 0, fmt.Errorf("loading %s: %w", in.Name, err)
		}
		events = append(events, batch...)
	}
	return events, len(inputs), nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	shutdown := initTelemetry(ctx)
	defer shutdown()

	start := time.Now()
	loadCtx, loadSpan := telemetry.StartSpan(ctx, "load")
	events, inputs, err := loadEvents(loadCtx, inputLocation)
	if err != nil {
		telemetry.RecordError(loadCtx, err)
		loadSpan.End()
		return err
	}
	loadSpan.End()

	if verbose {
		tui.PrintLoadSummary(tui.LoadSummary{
			Inputs:   inputs,
			Events:   int64(len(events)),
			Duration: time.Since(start),
		})
	}

	runCtx, runSpan := telemetry.StartSpan(ctx, "analyze")
	result, err := analyzer.New(analyzerConfig()).Analyze(runCtx, events)
	if err != nil {
		telemetry.RecordError(runCtx, err)
		runSpan.End()
		return err
	}
	runSpan.End()

	if outputFile != "" {
		if err := os.WriteFile(outputFile, result.CanonicalJSON(), 0o644); err != nil {
			return fmt.Errorf("writing result: %w", err)
		}
		if verbose {
			tui.PrintSuccess("result written to " + outputFile)
		}
		printReport(result)
		return nil
	}

	os.Stdout.Write(result.CanonicalJSON())
	fmt.Println()
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading result: %w", err)
	}

	var result analyzer.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return fmt.Errorf("parsing result: %w", err)
	}

	if plainOutput {
		fmt.Print(report.Markdown(&result))
		return nil
	}
	fmt.Print(report.Terminal(&result))
	return nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	events, inputs, err := loadEvents(ctx, inputLocation)
	if err != nil {
		return err
	}

	cases := make(map[string]struct{})
	activities := make(map[string]struct{})
	var minTS, maxTS int64
	for i, e := range events {
		cases[e.CaseID] = struct{}{}
		activities[e.Activity] = struct{}{}
		if i == 0 || e.Timestamp < minTS {
			minTS = e.Timestamp
		}
		if i == 0 || e.Timestamp > maxTS {
			maxTS = e.Timestamp
		}
	}

	tui.PrintHeader(version)
	tui.PrintStep("EVENT LOG")
	tui.PrintInfo("Inputs:", fmt.Sprintf("%d", inputs))
	tui.PrintInfo("Events:", tui.FormatNumber(int64(len(events))))
	tui.PrintInfo("Cases:", tui.FormatNumber(int64(len(cases))))
	tui.PrintInfo("Activities:", fmt.Sprintf("%d", len(activities)))
	if len(events) > 0 {
		tui.PrintInfo("First event:", time.Unix(0, minTS).UTC().Format(time.RFC3339))
		tui.PrintInfo("Last event:", time.Unix(0, maxTS).UTC().Format(time.RFC3339))
	}
	tui.PrintInfo("Load time:", tui.FormatDuration(time.Since(start)))
	return nil
}

// printReport renders the result for an interactive run.
func printReport(result *analyzer.AnalysisResult) {
	if plainOutput {
		fmt.Print(report.Markdown(result))
		return
	}
	fmt.Print(report.Terminal(result))
}
