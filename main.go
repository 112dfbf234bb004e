// Acoustic Collector - serial collection tool for the acoustic clap sensor
// This program reads the sensor's serial stream and stores either raw PCM
// captures or a log of its STATS, PATTERN and rolling RMS/ZCR telemetry.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"acoustic-collector/internal/collector"
	"acoustic-collector/internal/config"
	"acoustic-collector/internal/logging"
	"acoustic-collector/internal/metrics"
	"acoustic-collector/internal/version"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Command line flag variables
var (
	cfgFile     string // Configuration file path
	output      string // Output directory for the active mode
	verbose     bool   // Enable debug logging
	showVersion bool   // Print version and exit
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "acoustic-collector",
	Short: "Serial collection tool for the acoustic clap sensor",
	Long: `Acoustic Collector reads the sensor's serial stream in one of two modes:

  capture    binary PCM frames ("DUMP" marker), each saved as <n>.csv
  telemetry  STATS, PATTERN and rolling RMS/ZCR lines, logged to one CSV per session`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Println(version.Info("Acoustic Collector"))
			return nil
		}
		return runCollector(cmd)
	},
}

// configCmd prints the effective configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		raw, err := cfg.YAML()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(raw)
		return err
	},
}

// init initializes the CLI flags and configuration
func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringP("mode", "m", config.ModeTelemetry, "collection mode: capture or telemetry")
	rootCmd.PersistentFlags().StringP("port", "p", "/dev/ttyUSB0", "sensor serial port")
	rootCmd.PersistentFlags().IntP("baud", "b", 921600, "serial baud rate")
	rootCmd.PersistentFlags().String("replay", "", "read a recorded byte dump instead of the serial port")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "", "output directory for the active mode")
	rootCmd.PersistentFlags().Int("sample-rate", 16000, "capture sample rate (Hz)")
	rootCmd.PersistentFlags().Bool("wav", false, "also write <n>.wav for every capture")
	rootCmd.PersistentFlags().String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9110)")
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "show version information")

	// Bind command line flags to viper configuration keys
	flags := rootCmd.PersistentFlags()
	viper.BindPFlag("mode", flags.Lookup("mode"))
	viper.BindPFlag("serial.port", flags.Lookup("port"))
	viper.BindPFlag("serial.baud_rate", flags.Lookup("baud"))
	viper.BindPFlag("serial.replay_file", flags.Lookup("replay"))
	viper.BindPFlag("capture.sample_rate", flags.Lookup("sample-rate"))
	viper.BindPFlag("capture.write_wav", flags.Lookup("wav"))
	viper.BindPFlag("metrics.listen_addr", flags.Lookup("metrics-addr"))

	rootCmd.AddCommand(configCmd)
}

// initConfig reads in the .env file, config file and ENV variables if set
func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env: %v\n", err)
	}

	if err := config.Prepare(viper.GetViper()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	} else if cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Warning: failed to read config file: %v\n", err)
	}
}

// loadConfig merges defaults, config file, environment and flags
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if cmd.Flags().Changed("output") {
		viper.Set("capture.output_dir", output)
		viper.Set("telemetry.output_dir", output)
	}
	if verbose {
		viper.Set("logging.level", "debug")
	}
	return config.Load(viper.GetViper())
}

// runCollector is the main application logic
func runCollector(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, logCloser, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Display startup information
	fmt.Printf("Acoustic Collector starting...\n")
	fmt.Printf("Mode: %s\n", cfg.Mode)
	if cfg.Serial.ReplayFile != "" {
		fmt.Printf("Source: %s (replay)\n", cfg.Serial.ReplayFile)
	} else {
		fmt.Printf("Source: %s @ %d baud\n", cfg.Serial.Port, cfg.Serial.BaudRate)
	}
	if cfg.Mode == config.ModeCapture {
		fmt.Printf("Output: %s\n", cfg.Capture.OutputDir)
	} else if cfg.Telemetry.LogToFile {
		fmt.Printf("Output: %s\n", cfg.Telemetry.OutputDir)
	}

	m := metrics.New()
	if cfg.Metrics.ListenAddr != "" {
		go func() {
			if err := m.Serve(ctx, cfg.Metrics.ListenAddr, logger); err != nil {
				logger.WithError(err).Error("Metrics endpoint failed")
			}
		}()
	}

	c := collector.NewCollector(cfg, logger, collector.WithMetrics(m))
	defer c.Close()

	if err := c.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize collector: %w", err)
	}

	if err := c.Run(ctx); err != nil {
		return fmt.Errorf("collection failed: %w", err)
	}

	if ctx.Err() != nil {
		fmt.Printf("\n\nStopping.\n")
	}
	return c.Close()
}

// main is the entry point of the application
func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
