package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/YuminosukeSato/medlens/config"
	"github.com/YuminosukeSato/medlens/pkg/log"
)

var (
	// Global flags
	cfgFile      string
	logLevel     string
	outputFormat string
	dataPath     string
	quiet        bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "medlens",
	Short: "medlens - exploratory analysis and test-result prediction for healthcare records",
	Long: `medlens inspects, cleans and charts a tabular healthcare dataset and trains a
random forest that predicts each admission's test result.

Settings come from medlens.yaml, MEDLENS_* environment variables (a .env file
is loaded first) and the flags below, later sources winning.`,
	Version:       getVersion(),
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogging(cmd.ErrOrStderr())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./medlens.yaml or $HOME/.medlens/medlens.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "text", "output format (text, json, yaml)")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "dataset to read (.csv or .xlsx)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	// Bind flags to viper
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("cli.output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("data.path", rootCmd.PersistentFlags().Lookup("data"))
	_ = viper.BindPFlag("cli.quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	_ = godotenv.Load()

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home + "/.medlens")
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName("medlens")
	}

	// Environment variables
	config.BindEnv(viper.GetViper())

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		if !viper.GetBool("cli.quiet") {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	}
}

// initLogging configures the global logger
func initLogging(w io.Writer) {
	if viper.GetBool("cli.quiet") {
		log.SetupLogger("error", w)
		return
	}
	if format() == "text" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	log.SetupLogger(viper.GetString("log.level"), w)
}

// loadConfig decodes and validates the merged settings.
func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper())
}

func format() string {
	if f := viper.GetString("cli.output"); f != "" {
		return f
	}
	return "text"
}

// getVersion returns the version information
func getVersion() string {
	return fmt.Sprintf("%s (commit: %s, built: %s, go: %s)", Version, Commit, Date, GoVersion)
}
