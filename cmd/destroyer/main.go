// Dataset Destroyer - batch image degradation for training data
package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"dataset-destroyer/internal/algorithms"
	"dataset-destroyer/internal/codec"
	"dataset-destroyer/internal/config"
	"dataset-destroyer/internal/core"
	imageio "dataset-destroyer/internal/io"
)

const AppVersion = "1.0.0"

// CLI flags
var (
	configFlag  string
	debugFlag   bool
	workersFlag int
	seedFlag    int64
	inputFlag   string
	outputFlag  string
)

// rootCmd degrades every image under the input folder.
var rootCmd = &cobra.Command{
	Use:   "destroyer",
	Short: "Degrade clean images with blur, noise, compression and scaling",
	Long: `Dataset Destroyer walks an input folder of clean images and writes a degraded
copy of each one under the output folder, mirroring the directory layout.
Each image passes through the configured chain of blur, noise, compression
and scale steps with parameters sampled from the configured ranges.

Examples:
  destroyer --config config.yaml
  destroyer -c config.yaml --workers 8 --seed 42
  destroyer --input ./clean --output ./degraded --debug
  destroyer check -c config.yaml`,
	SilenceUsage: true,
	RunE:         runMain,
}

// checkCmd validates configuration and the codec toolchain without
// touching any image.
var checkCmd = &cobra.Command{
	Use:          "check",
	Short:        "Validate the configuration and probe ffmpeg",
	SilenceUsage: true,
	RunE:         runCheck,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "config.yaml", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging with per-step traces")
	rootCmd.Flags().IntVar(&workersFlag, "workers", 0, "Number of images processed concurrently (overrides main.workers)")
	rootCmd.Flags().Int64Var(&seedFlag, "seed", 0, "Base random seed (overrides main.seed; 0 keeps the file value)")
	rootCmd.Flags().StringVar(&inputFlag, "input", "", "Input folder (overrides main.input_folder)")
	rootCmd.Flags().StringVar(&outputFlag, "output", "", "Output folder (overrides main.output_folder)")
	rootCmd.AddCommand(checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runMain loads configuration, scans the input folder and runs the batch.
func runMain(cmd *cobra.Command, args []string) error {
	logger := initLogger(debugFlag)
	logger.WithField("version", AppVersion).Info("Starting Dataset Destroyer")

	cfg, err := loadConfig(cmd, logger)
	if err != nil {
		return err
	}

	bridge := codec.NewBridge(cfg.FFmpeg.Binary, cfg.FFmpeg.MaxMuxingQueueSize, logger)
	if cfg.HasVideoCompression() {
		if err := bridge.CheckAvailable(); err != nil {
			logger.WithError(err).Error("Video compression is configured but ffmpeg is unavailable")
			return err
		}
	}

	loader := imageio.NewImageLoader(logger)
	paths, err := loader.ScanImages(cfg.Main.InputFolder)
	if err != nil {
		logger.WithError(err).Error("Failed to scan input folder")
		return err
	}
	if len(paths) == 0 {
		logger.WithField("input_folder", cfg.Main.InputFolder).Warn("No images found")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := algorithms.NewRegistry(cfg, bridge)
	pipeline := core.NewPipeline(cfg, registry, loader, logger)
	summary, err := core.NewBatch(pipeline, cfg, logger).Run(ctx, paths)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"run_id":    summary.RunID,
		"seed":      summary.Seed,
		"images":    summary.Succeeded,
		"output":    cfg.Main.OutputFolder,
		"elapsed_s": summary.Duration.Seconds(),
	}).Info("All images degraded")
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger := initLogger(debugFlag)

	cfg, err := loadConfig(cmd, logger)
	if err != nil {
		return err
	}

	bridge := codec.NewBridge(cfg.FFmpeg.Binary, cfg.FFmpeg.MaxMuxingQueueSize, logger)
	if err := bridge.CheckAvailable(); err != nil {
		if cfg.HasVideoCompression() {
			logger.WithError(err).Error("ffmpeg is required by the configured compression algorithms")
			return err
		}
		logger.WithError(err).Warn("ffmpeg not found; video compression is unavailable")
	}

	registry := algorithms.NewRegistry(cfg, bridge)
	logger.WithFields(logrus.Fields{
		"config":       configFlag,
		"degradations": cfg.Main.Degradations,
		"workers":      cfg.Main.Workers,
		"parameters":   registry.Parameters(cfg.Main.Degradations),
	}).Info("Configuration is valid")
	return nil
}

// loadConfig reads .env, the YAML file and the command-line overrides, then
// validates the result.
func loadConfig(cmd *cobra.Command, logger *logrus.Logger) (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.WithError(err).Warn("Failed to read .env file")
	}
	applyLogLevel(logger)

	cfg, err := config.Load(configFlag)
	if err != nil {
		logger.WithError(err).WithField("config", configFlag).Error("Failed to load configuration")
		return nil, err
	}

	cfg.ApplyEnv()
	if cmd.Flags().Changed("workers") {
		cfg.Main.Workers = workersFlag
	}
	if cmd.Flags().Changed("seed") {
		cfg.Main.Seed = seedFlag
	}
	if cmd.Flags().Changed("input") {
		cfg.Main.InputFolder = inputFlag
	}
	if cmd.Flags().Changed("output") {
		cfg.Main.OutputFolder = outputFlag
	}
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Error("Invalid configuration")
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"config":       configFlag,
		"input":        cfg.Main.InputFolder,
		"output":       cfg.Main.OutputFolder,
		"degradations": cfg.Main.Degradations,
	}).Debug("Configuration loaded")
	return cfg, nil
}

// initLogger initializes the logger with appropriate level
func initLogger(debugMode bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}

// applyLogLevel honours DESTROYER_LOG_LEVEL unless --debug was given.
func applyLogLevel(logger *logrus.Logger) {
	raw := os.Getenv("DESTROYER_LOG_LEVEL")
	if raw == "" || debugFlag {
		return
	}
	level, err := logrus.ParseLevel(raw)
	if err != nil {
		logger.WithError(err).WithField("value", raw).Warn("Ignoring unknown log level")
		return
	}
	logger.SetLevel(level)
}
