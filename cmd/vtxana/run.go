package main

import (
	"fmt"

	"github.com/spf13/cobra"

	service "github.com/okian/vtxana/internal/app"
	"github.com/okian/vtxana/internal/config"
	"github.com/okian/vtxana/pkg/logger"
)

func newRunCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the vertex analysis over an event file",
		Long: "Run loads the analysis configuration (defaults, then the YAML file given by\n" +
			"--config or " + config.EnvConfigPath + ", then " + config.EnvPrefix + "* variables), reads every\n" +
			"event of the input and writes the histogram groups to the output file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			// Load configuration (defaults -> optional file -> env)
			cfg, err := config.Load(ctx, configPath)
			if err != nil {
				return err
			}

			// Apply configured log level (fallback to info on invalid input)
			log := logger.Get()
			if err := logger.SetLevelString(cfg.LogLevel); err != nil {
				log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
				_ = logger.SetLevelString("info")
			}
			logger.SetLevelFromDebug(cfg.Debug)

			svc := service.New(cfg, service.WithLogger(log.Named("vtxana")))
			summary, err := svc.Run(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d events, %d groups written to %s\n",
				summary.RunID, summary.EventsProcessed, len(summary.Groups), cfg.Output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the YAML run configuration")
	return cmd
}
