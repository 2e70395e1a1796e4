package commands

import (
	"fmt"

	"github.com/mh131105/TP1-BD/constants"
	"github.com/mh131105/TP1-BD/destination/postgres"
	"github.com/mh131105/TP1-BD/pkg/source"
	"github.com/mh131105/TP1-BD/utils"
	"github.com/mh131105/TP1-BD/utils/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configPath string
	logLevel   string
	logDir     string
	batchSize  int

	dbHost     string
	dbPort     int
	dbName     string
	dbUser     string
	dbPassword string

	config *Config

	commands = []*cobra.Command{}
)

// Config is the JSON shape accepted by --config.
type Config struct {
	Database *postgres.Config  `json:"database"`
	AWS      *source.AWSConfig `json:"aws,omitempty"`
}

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "tp1",
	Short: "Loads the Amazon product metadata dump into Postgres and queries it",
	RunE: func(cmd *cobra.Command, args []string) error {
		initRun()

		if len(args) == 0 {
			return cmd.Help()
		}

		if ok := utils.IsValidSubcommand(commands, args[0]); !ok {
			return fmt.Errorf("'%s' is an invalid command. Use 'tp1 --help' to display usage guide", args[0])
		}

		return nil
	},
}

// initRun wires the logging flags into viper and brings the logger up.
// Every subcommand calls it from its own PersistentPreRunE because cobra
// only runs the hook nearest to the invoked command.
func initRun() {
	viper.SetEnvPrefix(constants.EnvPrefix)
	viper.AutomaticEnv()

	viper.SetDefault("log_level", "info")
	if logLevel != "" {
		viper.Set("log_level", logLevel)
	}
	if logDir != "" {
		viper.Set("log_dir", logDir)
	}

	logger.Init()
}

// loadConfig resolves the database and source settings from --config,
// with the individual connection flags taking precedence over the file.
func loadConfig() (*Config, error) {
	conf := &Config{}
	if configPath != "" {
		if err := utils.UnmarshalFile(configPath, conf); err != nil {
			return nil, err
		}
	}
	if conf.Database == nil {
		conf.Database = &postgres.Config{}
	}

	if dbHost != "" {
		conf.Database.Host = dbHost
	}
	if dbPort != 0 {
		conf.Database.Port = dbPort
	}
	if dbName != "" {
		conf.Database.Database = dbName
	}
	if dbUser != "" {
		conf.Database.Username = dbUser
	}
	if dbPassword != "" {
		conf.Database.Password = dbPassword
	}

	return conf, nil
}

func Execute() {
	// Disable Cobra CLI's built-in usage and error handling
	RootCmd.SilenceUsage = true
	RootCmd.SilenceErrors = true
	if err := RootCmd.Execute(); err != nil {
		logger.Fatal(err)
	}
}

func init() {
	commands = append(commands, loadCmd, checkCmd, reportCmd)
	RootCmd.AddCommand(commands...)
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "", "", "(Optional) JSON file with database and s3 settings")
	RootCmd.PersistentFlags().StringVarP(&dbHost, "host", "", "", "Postgres host, overrides the config file")
	RootCmd.PersistentFlags().IntVarP(&dbPort, "port", "", 0, "Postgres port, overrides the config file")
	RootCmd.PersistentFlags().StringVarP(&dbName, "database", "", "", "Postgres database name, overrides the config file")
	RootCmd.PersistentFlags().StringVarP(&dbUser, "username", "", "", "Postgres user, overrides the config file")
	RootCmd.PersistentFlags().StringVarP(&dbPassword, "password", "", "", "Postgres password, overrides the config file")
	RootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "", "", "(Optional) Log level: debug, info, warn or error. Defaults to info")
	RootCmd.PersistentFlags().StringVarP(&logDir, "log-dir", "", "", "(Optional) Directory for rotating JSON log files")
}
