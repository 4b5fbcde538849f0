package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/photofilter/internal/imageio"
	"github.com/MeKo-Tech/photofilter/internal/pipeline"
)

var applyCmd = &cobra.Command{
	Use:   "apply INPUT",
	Short: "Apply a preset, filters and transforms to one image",
	Long: `Apply edits to a single image and export the result.

The output format follows the output extension (.jpg or .png). Without
--output the result is written next to the input as edited-image.jpg.`,
	Example: `  photofilter apply photo.png -p vintage -f blur=1 --rotate 1 -o out.jpg`,
	Args:    cobra.ExactArgs(1),
	RunE:    runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().StringP("output", "o", "", "Output file (default: edited-image.jpg next to the input)")
	if err := viper.BindPFlag("apply.output", applyCmd.Flags().Lookup("output")); err != nil {
		panic(fmt.Sprintf("failed to bind flag: %v", err))
	}

	addRecipeFlags(applyCmd, "apply")
}

func runApply(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	input := args[0]
	output := viper.GetString("apply.output")
	if output == "" {
		output = filepath.Join(filepath.Dir(input), imageio.DefaultExportName)
	}

	recipe, err := recipeFromConfig("apply")
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
		Force:   viper.GetBool("apply.force"),
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	if filepath.Clean(input) == filepath.Clean(output) {
		return fmt.Errorf("output %s would overwrite the input", output)
	}
	if recipe.IsZero() {
		logger.Warn("Recipe has no edits, the image is only re-encoded")
	}
	logger.Info("Applying edits", "input", input, "output", output, "recipe", recipe.String())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	written, err := proc.Process(ctx, input, output)
	if err != nil {
		return fmt.Errorf("failed to apply edits: %w", err)
	}

	logger.Info("Image written", "path", output, "size", humanize.Bytes(uint64(written)))
	return nil
}
