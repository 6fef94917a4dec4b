// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// bordereau-import maps a bordereau feed onto the record store using a
// column template: rows are validated first, clean rows are resolved into
// policy, party, address, risk and role records, and every failure lands in
// the error report.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"bordereau-import/internal/batch"
	"bordereau-import/internal/config"
	"bordereau-import/internal/report"
	"bordereau-import/internal/resolve"
	"bordereau-import/internal/store/sqlite"
	"bordereau-import/internal/template"
)

func main() {
	inputFile := flag.String("file", "", "Path to the bordereau CSV file")
	templateFile := flag.String("template", "", "Path to the column template (YAML)")
	configFile := flag.String("config", "", "Path to configuration file (YAML)")
	storePath := flag.String("store", "", "Path to the record store database (overrides config)")
	outputFormat := flag.String("format", "", "Output format: text, csv (default: text)")
	outputFile := flag.String("output", "", "Path to output file (if not specified, output to stdout)")
	firstRow := flag.Int("first-row", 0, "Feed row number of the first data row (overrides config)")
	validateOnly := flag.Bool("validate-only", false, "Validate rows without writing to the record store")
	noColor := flag.Bool("no-color", false, "Disable colored output")
	verbose := flag.Bool("verbose", false, "Enable per-row debug logging")
	flag.Parse()

	cfg := config.LoadConfigOrDefault(*configFile)
	if *storePath != "" {
		cfg.Store.Path = *storePath
	}
	if *templateFile != "" {
		cfg.Template = *templateFile
	}
	if *outputFormat != "" {
		cfg.Defaults.Format = *outputFormat
	}
	if *outputFile != "" {
		cfg.OutputFile = *outputFile
	}
	if *firstRow > 0 {
		cfg.Defaults.FirstRow = *firstRow
	}
	if *noColor {
		cfg.Defaults.NoColor = true
	}
	if *verbose {
		cfg.Defaults.Verbose = true
	}
	if !isTerminal(os.Stdout) {
		cfg.Defaults.NoColor = true
	}

	if *inputFile == "" || cfg.Template == "" {
		fmt.Fprintln(os.Stderr, "Error: -file and -template are required")
		flag.Usage()
		os.Exit(2)
	}

	if err := run(cfg, *inputFile, *validateOnly); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, inputFile string, validateOnly bool) error {
	log, err := buildLogger(cfg.Defaults.Verbose)
	if err != nil {
		return err
	}
	defer log.Sync()

	tpl, err := template.Load(cfg.Template)
	if err != nil {
		return err
	}

	rows, err := readFeed(inputFile, cfg.Defaults.FirstRow)
	if err != nil {
		return err
	}

	runner := &batch.Runner{
		Schema:       resolve.DefaultSchema(),
		Template:     tpl,
		Log:          log,
		ValidateOnly: validateOnly,
	}
	if !validateOnly {
		st, err := sqlite.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()
		runner.Store = st
	}

	summary, err := runner.Run(context.Background(), rows, cfg.Defaults.FirstRow)
	if err != nil {
		return err
	}

	if err := render(cfg, summary); err != nil {
		return err
	}

	if summary.RowsFailed > 0 {
		return fmt.Errorf("%d of %d rows failed", summary.RowsFailed, summary.RowsProcessed)
	}
	return nil
}

// render writes the batch outcome in the configured format. The CSV error
// report goes to -output when given, stdout otherwise; the text summary
// always prints to stdout.
func render(cfg *config.Config, summary *batch.Summary) error {
	switch cfg.Defaults.Format {
	case "csv":
		out := os.Stdout
		if cfg.OutputFile != "" {
			f, err := os.Create(cfg.OutputFile)
			if err != nil {
				return fmt.Errorf("create report %s: %w", cfg.OutputFile, err)
			}
			defer f.Close()
			out = f
		}
		return report.WriteCSV(out, report.Build(summary.Errors))
	default:
		formatter := report.NewTextFormatter(cfg.Defaults.NoColor)
		formatter.WriteSummary(os.Stdout, summary)
		return nil
	}
}

// readFeed reads the CSV feed, skipping the header lines before firstRow.
func readFeed(path string, firstRow int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feed %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	all, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read feed %s: %w", path, err)
	}
	skip := firstRow - 1
	if skip > len(all) {
		skip = len(all)
	}
	return all[skip:], nil
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	c := zap.NewProductionConfig()
	c.OutputPaths = []string{"stderr"}
	if verbose {
		c = zap.NewDevelopmentConfig()
		c.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return c.Build()
}

// isTerminal checks if the file descriptor is a terminal
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
