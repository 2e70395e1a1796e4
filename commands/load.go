package commands

import (
	"fmt"

	"github.com/mh131105/TP1-BD/constants"
	"github.com/mh131105/TP1-BD/destination/postgres"
	"github.com/mh131105/TP1-BD/ingest"
	"github.com/spf13/cobra"
)

var (
	inputPath string
	statsPath string
)

// loadCmd represents the ingestion command
var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Parse the product metadata dump and load it into Postgres",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		initRun()

		if inputPath == "" {
			return fmt.Errorf("--input not passed")
		}
		if batchSize <= 0 {
			return fmt.Errorf("--batch-size must be positive, got %d", batchSize)
		}

		var err error
		config, err = loadConfig()
		return err
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		runner := &ingest.Runner{
			Input:     inputPath,
			AWS:       config.AWS,
			Sink:      postgres.New(config.Database),
			BatchSize: batchSize,
			StatsFile: statsPath,
		}
		_, err := runner.Run(cmd.Context())
		return err
	},
}

func init() {
	loadCmd.Flags().StringVarP(&inputPath, "input", "", "", "(Required) Dump to load: a local path, s3://bucket/key, or - for stdin")
	loadCmd.Flags().StringVarP(&statsPath, "stats-file", "", "", "(Optional) Write run statistics as JSON to this file")
	loadCmd.Flags().IntVarP(&batchSize, "batch-size", "", constants.DefaultBatchSize, "(Optional) Rows buffered per table before a flush")
}
