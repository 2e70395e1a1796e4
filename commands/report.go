package commands

import (
	"fmt"

	"github.com/mh131105/TP1-BD/constants"
	"github.com/mh131105/TP1-BD/reports"
	"github.com/spf13/cobra"
)

var (
	productASIN  string
	outputDir    string
	reportFormat string
)

// reportCmd represents the analysis command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run the analysis queries against a loaded database and export the results",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		initRun()

		format := constants.ReportFormat(reportFormat)
		if format != constants.FormatCSV && format != constants.FormatParquet {
			return fmt.Errorf("--format must be csv or parquet, got %q", reportFormat)
		}

		var err error
		config, err = loadConfig()
		return err
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := reports.Connect(cmd.Context(), config.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		runner := &reports.Runner{
			DB:     db,
			ASIN:   productASIN,
			OutDir: outputDir,
			Format: constants.ReportFormat(reportFormat),
		}
		return runner.Run(cmd.Context())
	},
}

func init() {
	reportCmd.Flags().StringVarP(&productASIN, "product-asin", "", "", "(Optional) ASIN for the product scoped queries; they are skipped without it")
	reportCmd.Flags().StringVarP(&outputDir, "output", "", constants.DefaultReportDir, "(Optional) Directory for the result files")
	reportCmd.Flags().StringVarP(&reportFormat, "format", "", string(constants.FormatCSV), "(Optional) Output format: csv or parquet")
}
