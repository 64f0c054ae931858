package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/iwvelando/calcsuite/internal/config"
	"github.com/iwvelando/calcsuite/internal/taxengine"
	"github.com/iwvelando/calcsuite/pkg/constants"
	"github.com/iwvelando/calcsuite/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries the state shared by every subcommand once the root command has
// loaded the configuration.
type app struct {
	configPath   string
	logLevel     string
	outputFormat string

	conf   *config.Configuration
	logger *zap.Logger
	table  *taxengine.BracketTable
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "calcsuite",
		Short:         "Tax, loan and everyday calculators with an HTTP API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", constants.DefaultConfigFile, "path to configuration file")
	flags.StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	flags.StringVar(&a.outputFormat, "output-format", "", "type of output override: pretty, csv, json")

	root.AddCommand(
		taxCmd(a),
		jurisdictionsCmd(a),
		loanCmd(a),
		mortgageCmd(a),
		leaseCmd(a),
		paypalCmd(a),
		interestCmd(a),
		bmrCmd(a),
		caseCmd(a),
		fastingCmd(a),
		serveCmd(a),
	)
	return root
}

// load reads the configuration, builds the logger and bracket table and
// settles the output format. A missing default config file yields defaults;
// an explicitly named one must exist.
func (a *app) load(cmd *cobra.Command) error {
	path := a.configPath
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}

	conf, err := config.LoadConfiguration(path)
	if err != nil {
		return fmt.Errorf("failed to load configuration at %s: %w", a.configPath, err)
	}
	a.conf = conf

	logger, err := initializeLogger(conf.Logging, a.logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger

	// CLI override takes precedence over config
	if a.outputFormat == "" {
		a.outputFormat = conf.Output.Format
	}
	if a.outputFormat == "" {
		a.outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(a.outputFormat); err != nil {
		return err
	}

	table, err := conf.Tax.LoadTable()
	if err != nil {
		return fmt.Errorf("failed to load bracket table: %w", err)
	}
	a.table = table

	for _, warning := range conf.ValidateConfiguration(table) {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}
	return nil
}
