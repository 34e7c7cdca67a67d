package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"bankrates/internal/app"
)

var (
	showSource  string
	showRefresh bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print one bank's rate table",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showSource == "" {
			return errors.New("--source is required")
		}
		return getApp().Show(cmd.Context(), app.ShowOptions{
			Source:  showSource,
			Refresh: showRefresh,
		})
	},
}

func init() {
	showCmd.Flags().StringVar(&showSource, "source", "", "Bank identifier")
	showCmd.Flags().BoolVar(&showRefresh, "refresh", false, "Bypass the cache and scrape live")
}
