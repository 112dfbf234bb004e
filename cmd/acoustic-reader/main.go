// Acoustic Reader - Utility to inspect stored acoustic captures
// This program reads <n>.csv or <n>.wav captures and displays their samples,
// windowed RMS/ZCR features and an ASCII plot.
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"acoustic-collector/internal/config"
	"acoustic-collector/internal/features"
	"acoustic-collector/internal/filewriter"
	"acoustic-collector/internal/render"
	"acoustic-collector/internal/version"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// displayOptions selects what displayFile prints
type displayOptions struct {
	Stats       bool
	Features    bool
	Format      string
	Graph       bool
	GraphWidth  int
	GraphHeight int
	WAVOutput   string
}

var (
	cfgFile     string
	opts        displayOptions
	showVersion bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "acoustic-reader [capture.csv|capture.wav|n]...",
	Short: "Display stored acoustic captures",
	Long: `Acoustic Reader displays captures written by acoustic-collector and
re-derives the features the sensor reports live. A bare number n reads
<capture.output_dir>/n.csv.

Display modes:
  --stats      Summarize windowed RMS and ZCR like the sensor's STATS line
  --features   Print RMS and ZCR per window (table, csv or json)
  --graph      ASCII plot of the waveform, RMS and ZCR against time
  --wav        Export the capture as a 16-bit mono WAV file`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Println(version.Info("Acoustic Reader"))
			return nil
		}
		if len(args) == 0 {
			cmd.Usage()
			return fmt.Errorf("filename required")
		}
		if opts.WAVOutput != "" && len(args) > 1 {
			return fmt.Errorf("--wav takes a single capture")
		}

		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}

		for i, arg := range args {
			if i > 0 {
				fmt.Println()
			}
			filename := resolveCapture(arg, cfg.Capture.OutputDir)
			if err := displayFile(os.Stdout, filename, cfg, opts); err != nil {
				return fmt.Errorf("%s: %w", filename, err)
			}
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.Flags()
	flags.BoolVar(&showVersion, "version", false, "show version information")
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	flags.IntP("sample-rate", "r", 16000, "sample rate of CSV captures (Hz); WAV files carry their own")
	flags.Float64P("window-ms", "w", features.DefaultWindowMs, "feature window in milliseconds")
	flags.String("captures", "captures", "directory bare capture numbers are resolved against")
	flags.BoolVar(&opts.Stats, "stats", false, "show feature summary")
	flags.BoolVar(&opts.Features, "features", false, "print RMS and ZCR per window")
	flags.StringVarP(&opts.Format, "format", "f", render.FormatTable, "feature output format (table, csv, json)")
	flags.BoolVarP(&opts.Graph, "graph", "g", false, "generate ASCII plot of waveform and features")
	flags.IntVar(&opts.GraphWidth, "graph-width", render.DefaultWidth, "width of the ASCII graph in characters")
	flags.IntVar(&opts.GraphHeight, "graph-height", render.DefaultHeight, "height of the ASCII graph in lines")
	flags.StringVar(&opts.WAVOutput, "wav", "", "export the capture to this WAV file")

	viper.BindPFlag("capture.sample_rate", flags.Lookup("sample-rate"))
	viper.BindPFlag("features.window_ms", flags.Lookup("window-ms"))
	viper.BindPFlag("capture.output_dir", flags.Lookup("captures"))
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
	if err := viper.ReadInConfig(); err != nil && cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Warning: failed to read config file: %v\n", err)
	}
}

// resolveCapture maps a bare capture number to <dir>/<n>.csv. Anything else,
// or a number that names an existing file, is used as given.
func resolveCapture(arg, dir string) string {
	n, err := strconv.Atoi(arg)
	if err != nil || n <= 0 {
		return arg
	}
	if _, err := os.Stat(arg); err == nil {
		return arg
	}
	return filepath.Join(dir, arg+".csv")
}

// displayFile reads a capture and runs the requested displays
func displayFile(w io.Writer, filename string, cfg *config.Config, opts displayOptions) error {
	samples, rate, err := filewriter.ReadCapture(filename)
	if err != nil {
		return err
	}
	if rate == 0 {
		rate = cfg.Capture.SampleRate
	}
	if rate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", rate)
	}
	windowMs := cfg.Features.WindowMs

	// Machine-readable output is written alone
	quiet := opts.Features && opts.Format != render.FormatTable

	if !quiet {
		displayInfo(w, filename, samples, rate)
	}

	if opts.Stats || opts.Features {
		rms, zcr, err := features.Extract(samples, rate, windowMs)
		if err != nil {
			return err
		}
		if opts.Stats && !quiet {
			if err := render.WriteSummary(w, features.Summarize(rms, zcr), windowMs); err != nil {
				return err
			}
		}
		if opts.Features {
			if err := render.WriteFeatures(w, rms, zcr, opts.Format); err != nil {
				return err
			}
		}
	}

	if opts.Graph {
		ro := render.Options{
			Graph:    render.Graph{Width: opts.GraphWidth, Height: opts.GraphHeight},
			WindowMs: windowMs,
			Features: true,
		}
		if err := render.Capture(w, samples, rate, ro); err != nil {
			return err
		}
	}

	if opts.WAVOutput != "" {
		if err := filewriter.WriteWAV(opts.WAVOutput, rate, samples); err != nil {
			return err
		}
		if !quiet {
			fmt.Fprintf(w, "WAV written to: %s\n", opts.WAVOutput)
		}
	}

	return nil
}

// displayInfo shows basic information about the capture
func displayInfo(w io.Writer, filename string, samples []int16, rate int) {
	fmt.Fprintf(w, "Capture: %s\n", filename)
	fmt.Fprintf(w, "%s\n", strings.Repeat("=", 40))
	fmt.Fprintf(w, "Samples: %d\n", len(samples))
	fmt.Fprintf(w, "Sample Rate: %d Hz\n", rate)
	fmt.Fprintf(w, "Duration: %.3f seconds\n", float64(len(samples))/float64(rate))

	if len(samples) > 0 {
		lo, hi := samples[0], samples[0]
		for _, s := range samples[1:] {
			lo = min(lo, s)
			hi = max(hi, s)
		}
		fmt.Fprintf(w, "Range: %d to %d\n", lo, hi)
	}
	fmt.Fprintln(w)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
