package cli

import (
	"fmt"

	"github.com/soyeahso/sumai/internal/view"
	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the number of properties the backend knows about",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			total, live := a.stats.Lookup(cmd.Context())
			source := "backend"
			if !live {
				source = "fallback"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s properties (%s)\n", view.Count(total), source)
			return nil
		},
	}
}
