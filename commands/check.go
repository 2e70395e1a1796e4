package commands

import (
	"github.com/mh131105/TP1-BD/destination/postgres"
	"github.com/mh131105/TP1-BD/utils/logger"
	"github.com/spf13/cobra"
)

// checkCmd represents the connection test command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and ping the database",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		initRun()

		var err error
		config, err = loadConfig()
		return err
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := postgres.New(config.Database).Check(cmd.Context()); err != nil {
			return err
		}
		logger.Info("connection check passed")
		return nil
	},
}
