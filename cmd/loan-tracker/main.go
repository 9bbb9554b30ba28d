package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/iwvelando/loan-tracker/internal/advisor"
	"github.com/iwvelando/loan-tracker/internal/config"
	"github.com/iwvelando/loan-tracker/internal/logging"
	"github.com/iwvelando/loan-tracker/pkg/constants"
	"github.com/iwvelando/loan-tracker/pkg/format"
	"github.com/iwvelando/loan-tracker/pkg/loans"
	"github.com/iwvelando/loan-tracker/pkg/output"
	"github.com/iwvelando/loan-tracker/pkg/validation"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// API keys for the advisor may live in a local .env file.
	_ = godotenv.Load()

	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	asOfFlag := flag.String("as-of", "", "evaluation date override (YYYY-MM-DD), defaults to today")
	historyLimit := flag.Int("history-limit", 0, "number of history rows in pretty output")
	withAdvice := flag.Bool("advice", false, "append advisory commentary (requires advisor config)")
	flag.Parse()

	// Load the config file to get logging configuration
	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	// Initialize logging based on config and CLI override
	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}
	conf.Output.Format = outputFormat

	if *asOfFlag != "" {
		conf.AsOf = *asOfFlag
	}
	if *historyLimit > 0 {
		conf.Output.HistoryLimit = *historyLimit
	}

	// Validate configuration and display any warnings
	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	input, err := conf.LoanInput()
	if err != nil {
		logger.Fatal("failed to read loan",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	input, _ = validation.SanitizeLoanInput(input)

	asOf, err := conf.AsOfTime(time.Now())
	if err != nil {
		logger.Fatal("failed to parse evaluation date",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	formatter, err := format.NewFormatter(conf.Output.Locale, conf.Output.Currency)
	if err != nil {
		logger.Fatal("failed to configure number formatting",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	result := loans.NewEngine(logger).Compute(input, asOf)
	report := output.BuildReport(result)

	// Handle output.
	if err := output.Write(os.Stdout, outputFormat, report, formatter, conf.Output.HistoryLimit); err != nil {
		logger.Fatal("failed to write output",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	if *withAdvice && outputFormat == constants.OutputFormatPretty {
		service := advisor.NewFromConfig(context.Background(), conf.Advisor, formatter, logger)
		defer func() {
			_ = service.Close()
		}()
		advice := service.Advise(context.Background(), advisor.NewSummary(input, result))
		fmt.Printf("\n--- Advisor ---\n%s\n", advice.Text)
	}
}
