package cli

import (
	"github.com/spf13/cobra"

	"bankrates/internal/app"
)

var (
	ratesSource  string
	ratesRefresh bool
)

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Fetch interest rates as JSON, for one bank or all of them",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Rates(cmd.Context(), app.RatesOptions{
			Source:  ratesSource,
			Refresh: ratesRefresh,
		})
	},
}

func init() {
	ratesCmd.Flags().StringVar(&ratesSource, "source", "", "Bank identifier (defaults to all banks)")
	ratesCmd.Flags().BoolVar(&ratesRefresh, "refresh", false, "Bypass the cache and scrape live")
}
