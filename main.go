package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/barasher/go-exiftool"
	"github.com/joho/godotenv"
	"github.com/ldubois/optimg/internal/logger"
	"github.com/ldubois/optimg/internal/optimise"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "optimg",
	Short:   "A Go application for batch-optimising images for the web",
	Long:    `Optimg resizes images to a fixed longer side, tags print density, optionally compresses via TinyPNG, and converts to JPG/WEBP/AVIF.`,
	Version: version,
}

var optimiseCmd = &cobra.Command{
	Use:     "optimise INPUT_DIR",
	Aliases: []string{"optimize"},
	Short:   "Resize, convert and compress every image under a directory",
	Long:    `Processes each image under INPUT_DIR: resizes so the longer side is 3333px, tags 53 DPI, optionally compresses via TinyPNG, and writes JPG, WEBP and AVIF outputs.`,
	Args:    cobra.ExactArgs(1),
	Run:     runOptimise,
}

var backupCmd = &cobra.Command{
	Use:   "backup OUTPUT_DIR BUCKET",
	Short: "Backup optimised output sets to S3",
	Long:  `Creates tar.gz archives of each output set and uploads to S3 with deduplication (MD5 hash comparison).`,
	Args:  cobra.ExactArgs(2),
	Run:   runBackup,
}

var (
	outDir        string
	recursive     bool
	rename        bool
	tinyPNG       bool
	quality       int
	keepStructure bool
	maxConcurrent int
)

func init() {
	optimiseCmd.Flags().StringVarP(&outDir, "out", "o", "output", "Output directory")
	optimiseCmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Descend into subdirectories")
	optimiseCmd.Flags().BoolVar(&rename, "rename", false, "Apply SEO-safe renaming to outputs")
	optimiseCmd.Flags().BoolVar(&tinyPNG, "tinypng", false, "Compress via TinyPNG (requires TINIFY_KEY)")
	optimiseCmd.Flags().IntVarP(&quality, "quality", "q", optimise.DefaultQuality, "JPG/WEBP/AVIF encoding quality (1-100)")
	optimiseCmd.Flags().BoolVar(&keepStructure, "keep-structure", false, "Mirror the input's relative directory layout under the output directory")

	backupCmd.Flags().IntVarP(&maxConcurrent, "max-concurrent", "c", 5, "Maximum concurrent uploads")

	rootCmd.AddCommand(optimiseCmd, backupCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runOptimise(cmd *cobra.Command, args []string) {
	inputDir := args[0]

	// .env is optional; the environment wins when both are present.
	if err := godotenv.Load(); err == nil {
		logger.Debug("Loaded .env file")
	}

	opts := optimise.DefaultOptions()
	opts.OutputDir = outDir
	opts.Recursive = recursive
	opts.Rename = rename
	opts.TinyPNG = tinyPNG
	opts.Quality = quality
	opts.KeepStructure = keepStructure
	opts.TinyPNGKey = os.Getenv("TINIFY_KEY")

	if err := optimise.ValidateOptions(opts); err != nil {
		logger.Error("Configuration error", "error", err)
		os.Exit(1)
	}

	// exiftool powers density verification reads. Tagging itself shells
	// out per file and reports its own per-file warnings, so a missing
	// binary degrades instead of aborting the batch.
	et, err := exiftool.NewExiftool()
	if err != nil {
		logger.Warn("Failed to initialise exiftool, density reads unavailable", "error", err)
	} else {
		defer et.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	optimiser := optimise.NewOptimiser(optimise.NewDensityTagger(et), optimise.NewTinyPNGCompressor())
	summary, err := optimiser.Run(ctx, inputDir, opts)
	if err != nil {
		logger.Error("Run failed", "error", err)
		os.Exit(1)
	}

	if summary.HasFailures() {
		os.Exit(1)
	}
}

func runBackup(cmd *cobra.Command, args []string) {
	outputDir := args[0]
	bucket := args[1]

	if info, err := os.Stat(outputDir); err != nil {
		logger.Error("Output directory does not exist", "directory", outputDir, "error", err)
		os.Exit(1)
	} else if !info.IsDir() {
		logger.Error("Output path is not a directory", "path", outputDir)
		os.Exit(1)
	}

	ctx := context.Background()
	backup, err := optimise.NewBackup(ctx)
	if err != nil {
		logger.Error("Failed to initialise backup", "error", err)
		os.Exit(1)
	}

	logger.Info("Starting backup", "output", outputDir, "bucket", bucket, "max_concurrent", maxConcurrent)
	if err := backup.BackupOutputs(ctx, outputDir, bucket, maxConcurrent); err != nil {
		logger.Error("Backup failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Backup completed successfully")
}
