package cli

import (
	"github.com/spf13/cobra"

	"bankrates/internal/app"
)

var (
	exportSource  string
	exportPath    string
	exportCSVPath string
	exportPNGPath string
	exportLimit   int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export one rate's retained history as CSV and/or PNG chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Export(cmd.Context(), app.ExportOptions{
			Source:   exportSource,
			LeafPath: exportPath,
			CSVPath:  exportCSVPath,
			PNGPath:  exportPNGPath,
			Limit:    exportLimit,
		})
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportSource, "source", "", "Bank identifier")
	exportCmd.Flags().StringVar(&exportPath, "path", "", "Dot-separated rate path, e.g. mortgages.indexed.fixed_up_to_75")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write PNG chart")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 0, "Snapshots to include (defaults to cache.keep_latest)")
}
