package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/photofilter/internal/pipeline"
)

// addRecipeFlags registers the edit flags shared by apply and batch and
// binds them under prefix (e.g. "apply.preset").
func addRecipeFlags(cmd *cobra.Command, prefix string) {
	cmd.Flags().String("recipe", "", "YAML recipe file; --preset and --filter override it, --rotate and the flip flags add to it")
	cmd.Flags().StringP("preset", "p", "", "Preset to apply before filter overrides")
	cmd.Flags().StringSliceP("filter", "f", nil, "Filter override as name=value (repeatable, e.g. -f blur=2 -f sepia=40)")
	cmd.Flags().Int("rotate", 0, "Clockwise quarter turns added to the recipe's (negative turns left)")
	cmd.Flags().Bool("flip-h", false, "Flip horizontally; toggles a recipe flip")
	cmd.Flags().Bool("flip-v", false, "Flip vertically; toggles a recipe flip")
	cmd.Flags().Bool("force", false, "Overwrite existing output files")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{prefix + ".recipe", "recipe"},
		{prefix + ".preset", "preset"},
		{prefix + ".filter", "filter"},
		{prefix + ".rotate", "rotate"},
		{prefix + ".flip_h", "flip-h"},
		{prefix + ".flip_v", "flip-v"},
		{prefix + ".force", "force"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, cmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

// recipeFromConfig builds the recipe from the optional recipe file and the
// flags bound under prefix. Preset and filter flags replace the file's
// values; rotation adds and flips toggle, so a flag repeats the edit.
func recipeFromConfig(prefix string) (pipeline.Recipe, error) {
	var r pipeline.Recipe
	if path := viper.GetString(prefix + ".recipe"); path != "" {
		loaded, err := pipeline.LoadRecipe(path)
		if err != nil {
			return pipeline.Recipe{}, err
		}
		r = loaded
	}

	if p := viper.GetString(prefix + ".preset"); p != "" {
		r.Preset = p
	}

	overrides, err := parseFilterFlags(viper.GetStringSlice(prefix + ".filter"))
	if err != nil {
		return pipeline.Recipe{}, err
	}
	if len(overrides) > 0 && r.Filters == nil {
		r.Filters = make(map[string]float64, len(overrides))
	}
	for k, v := range overrides {
		r.Filters[k] = v
	}

	r.Rotate += viper.GetInt(prefix + ".rotate")
	r.FlipH = r.FlipH != viper.GetBool(prefix+".flip_h")
	r.FlipV = r.FlipV != viper.GetBool(prefix+".flip_v")
	return r, nil
}

// parseFilterFlags parses "name=value" pairs.
func parseFilterFlags(pairs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid filter %q: expected name=value", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for filter %q: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}
