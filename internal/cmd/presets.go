package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/photofilter/internal/editor"
	"github.com/MeKo-Tech/photofilter/internal/preset"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the available presets",
	Long: `List the embedded presets together with any presets loaded from
--presets-file. Filters a preset does not name are left unchanged when it is
applied and shown as "-".`,
	Args: cobra.NoArgs,
	RunE: runPresets,
}

func init() {
	rootCmd.AddCommand(presetsCmd)
}

func runPresets(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	table, err := cfg.Presets.PresetTable()
	if err != nil {
		return err
	}
	return writePresetTable(cmd.OutOrStdout(), table)
}

func writePresetTable(w io.Writer, table preset.Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	header := []string{"NAME"}
	for _, f := range editor.Filters {
		header = append(header, strings.ToUpper(string(f)))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, name := range table.Names() {
		p, _ := table.Get(name)
		row := []string{name}
		for _, f := range editor.Filters {
			if v, ok := p.Values[f]; ok {
				row = append(row, fmt.Sprintf("%g%s", v, editor.Meta[f].Unit))
			} else {
				row = append(row, "-")
			}
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}
