package main

import (
	"fmt"
	"os"

	"neuroscreen/internal/config"
	logger "neuroscreen/internal/logging"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	// Global flags
	projectRoot string
	verbose     bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "neuroscreen",
	Short: "NeuroScreen - a five-round cognitive screening assessment",
	Long: `NeuroScreen runs a short self-report questionnaire followed by four timed
tasks (motor reaction, pattern recall, colour interference and number
sequencing) and folds the results into a 0-100 health index.

Use "serve" to expose the assessment over HTTP or "play" to take it in the
terminal. The result is a screening aid, not a diagnosis.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectRoot, "root", "r", ".", "Project root containing config/config.yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(playCmd)
}

// bootstrap loads the configuration and builds the logger from it. The
// returned viper instance is the one the configuration was read from.
func bootstrap(console bool) (*config.Config, *viper.Viper, *zap.Logger, error) {
	conf, v, err := config.Load(projectRoot)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	conf.Logging.Console = conf.Logging.Console && console
	if verbose {
		conf.Logging.Level = "debug"
	}

	log, err := logger.Init(projectRoot, conf.Logging)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return conf, v, log, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
