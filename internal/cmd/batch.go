package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/photofilter/internal/imageio"
	"github.com/MeKo-Tech/photofilter/internal/pipeline"
	"github.com/MeKo-Tech/photofilter/internal/worker"
)

var batchCmd = &cobra.Command{
	Use:   "batch INPUT...",
	Short: "Apply the same edits to many images in parallel",
	Long: `Apply one recipe to every input file. Directories are expanded to the
images they contain (non-recursively). Outputs keep the input base name.`,
	Example: `  photofilter batch ./photos -p sincity --output-dir ./edited -w 8`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().String("output-dir", "./edited", "Directory for edited images")
	batchCmd.Flags().String("format", "jpeg", "Output format: jpeg or png")
	batchCmd.Flags().IntP("workers", "w", 0, "Number of parallel workers (default: number of CPUs)")
	batchCmd.Flags().Bool("progress", true, "Show progress bar")
	batchCmd.Flags().Bool("allow-failures", false, "Exit successfully even if some images fail")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"batch.output_dir", "output-dir"},
		{"batch.format", "format"},
		{"batch.workers", "workers"},
		{"batch.progress", "progress"},
		{"batch.allow_failures", "allow-failures"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, batchCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}

	addRecipeFlags(batchCmd, "batch")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	outputDir := viper.GetString("batch.output_dir")
	showProgress := viper.GetBool("batch.progress")
	allowFailures := viper.GetBool("batch.allow_failures")
	workers := cfg.Batch.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	format, err := imageio.ParseFormat(viper.GetString("batch.format"))
	if err != nil {
		return err
	}

	recipe, err := recipeFromConfig("batch")
	if err != nil {
		return err
	}
	presets, err := cfg.Presets.PresetTable()
	if err != nil {
		return err
	}
	export, err := cfg.Export.Options()
	if err != nil {
		return err
	}

	proc, err := pipeline.NewProcessor(pipeline.Options{
		Recipe:  recipe,
		Presets: presets,
		Export:  export,
		Force:   viper.GetBool("batch.force"),
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	tasks, err := pipeline.Plan(args, outputDir, format)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		logger.Warn("No images found", "inputs", args)
		return nil
	}

	progress := worker.NewProgress(len(tasks), showProgress)
	pool := worker.New(worker.Config{
		Workers:    workers,
		Processor:  proc,
		OnProgress: progress.Callback(),
	})

	if recipe.IsZero() {
		logger.Warn("Recipe has no edits, images are only re-encoded")
	}
	logger.Info("Starting batch",
		"images", len(tasks),
		"workers", pool.Workers(),
		"output_dir", outputDir,
		"format", format,
		"recipe", recipe.String(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received interrupt signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	results := pool.Run(ctx, tasks)
	progress.Done()

	var failedCount int
	for _, r := range results {
		if r.Err != nil {
			failedCount++
			logger.Error("Image failed", "input", r.Task.Input, "error", r.Err)
		}
	}

	logger.Info(progress.Summary())

	if failedCount > 0 {
		if allowFailures {
			logger.Warn("Some images failed, but continuing due to --allow-failures flag", "failed_count", failedCount)
			return nil
		}
		return fmt.Errorf("%d images failed", failedCount)
	}
	return nil
}
