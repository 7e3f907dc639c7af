package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/davidahmann/subscreen/internal/api"
	"github.com/davidahmann/subscreen/internal/config"
	"github.com/davidahmann/subscreen/internal/intake"
	"github.com/davidahmann/subscreen/internal/logging"
	"github.com/davidahmann/subscreen/pkg/types"
)

type batchFlags struct {
	input    string
	output   string
	ruleset  string
	dbDriver string
	dbDSN    string
	logLevel string
}

func (f *batchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "questionnaire JSON file (object or array)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "decision JSON file")
	cmd.Flags().StringVar(&f.ruleset, "ruleset", envOrDefault("SUBSCREEN_RULESET_PATH", ""), "ruleset YAML file (built-in defaults when empty)")
	cmd.Flags().StringVar(&f.dbDriver, "db-driver", envOrDefault("SUBSCREEN_DB_DRIVER", ""), "ledger driver: sqlite, postgres")
	cmd.Flags().StringVar(&f.dbDSN, "db-dsn", envOrDefault("SUBSCREEN_DB_DSN", ""), "ledger DSN")
	cmd.Flags().StringVar(&f.logLevel, "log-level", envOrDefault("SUBSCREEN_LOG_LEVEL", "warn"), "log level: debug, info, warn, error")
	_ = cmd.MarkFlagRequired("input")
}

func newReviewCmd() *cobra.Command {
	var flags batchFlags
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Run rule checks and the free-text scan",
		Long: `Review every questionnaire in the input file.

Records that pass the rule checks are scanned for ambiguous free text.
Decisions are printed to stdout unless --output is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			decisions, err := runBatch(cmd, flags, (*api.ReviewService).Review)
			if err != nil {
				return err
			}
			if flags.output == "" {
				if err := intake.Encode(cmd.OutOrStdout(), decisions); err != nil {
					return failure("write output: %w", err)
				}
				return nil
			}
			if err := intake.WriteFile(flags.output, decisions); err != nil {
				return failure("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", flags.output)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newValidateCmd() *cobra.Command {
	var flags batchFlags
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run rule checks only and write the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			decisions, err := runBatch(cmd, flags, (*api.ReviewService).Validate)
			if err != nil {
				return err
			}
			if err := intake.WriteFile(flags.output, decisions); err != nil {
				return failure("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Processed %s and wrote results to %s\n", flags.input, flags.output)
			return nil
		},
	}
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

type batchFn func(*api.ReviewService, []types.Record) (api.ReviewResponse, error)

func runBatch(cmd *cobra.Command, flags batchFlags, fn batchFn) ([]types.DecisionRecord, error) {
	dbCfg := config.DBConfig{Driver: flags.dbDriver, DSN: flags.dbDSN}
	if dbCfg.Driver != "" && dbCfg.DSN == "" {
		return nil, fmt.Errorf("--db-dsn is required when --db-driver is set")
	}

	records, err := intake.ReadFile(flags.input)
	if err != nil {
		return nil, failure("read input: %w", err)
	}

	store, closer, err := api.OpenLedger(dbCfg)
	if err != nil {
		return nil, failure("%w", err)
	}
	defer closer.Close()

	logger := logging.New(config.LogConfig{Level: flags.logLevel}, cmd.ErrOrStderr())
	service, err := api.NewReviewService(api.NewReviewServiceInput{
		RulesetPath: flags.ruleset,
		Ledger:      store,
		Logger:      logger,
	})
	if err != nil {
		return nil, failure("%w", err)
	}

	resp, err := fn(service, records)
	if err != nil {
		return nil, failure("%w", err)
	}
	logger.Info("batch reviewed", slog.String("run_id", resp.RunID), slog.Int("total", resp.Summary.Total))
	return resp.Decisions, nil
}
