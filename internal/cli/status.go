package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/soyeahso/sumai/internal/config"
	"github.com/soyeahso/sumai/internal/transport"
	"github.com/soyeahso/sumai/internal/version"
	"github.com/soyeahso/sumai/internal/view"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show configuration summary and backend reachability",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "sumai %s (commit %s)\n\n", version.Version, version.Commit)

			fmt.Fprintf(w, "Config:  %s", paths.Config)
			if _, err := os.Stat(paths.Config); os.IsNotExist(err) {
				fmt.Fprint(w, " (not found, using defaults)")
			}
			fmt.Fprintln(w)
			fmt.Fprintf(w, "Logs:    %s\n", paths.Logs)
			fmt.Fprintln(w)

			auth := "none"
			if cfg.Backend.Token != "" {
				auth = "bearer"
			}
			fmt.Fprintf(w, "Backend: %s auth=%s timeout=%s upload=%s\n",
				cfg.Backend.BaseURL, auth, cfg.Backend.Timeout(), cfg.Backend.UploadTimeout())
			fmt.Fprintf(w, "Chat:    recommendations=%d statsFallback=%s\n",
				cfg.Chat.RecommendationCount, view.Count(cfg.Chat.StatsFallback))
			logDest := cfg.Logging.File
			if logDest == "" {
				logDest = "stderr (chat: " + paths.LogFile() + ")"
			}
			fmt.Fprintf(w, "Logging: level=%s -> %s\n", cfg.Logging.Level, logDest)

			if !offline {
				client := transport.New(transport.Options{
					BaseURL:   cfg.Backend.BaseURL,
					Token:     cfg.Backend.Token,
					Timeout:   cfg.Backend.Timeout(),
					UserAgent: version.UserAgent(),
				}, log)
				fmt.Fprintf(w, "Reach:   %s\n", reachability(cmd.Context(), client))
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Fprintf(w, "\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(w, "  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "skip the backend reachability check")
	return cmd
}

func reachability(ctx context.Context, client *transport.Client) string {
	total, err := client.FetchStats(ctx)
	if err != nil {
		return color.RedString("unreachable: %v", err)
	}
	return color.GreenString("ok (%s properties)", view.Count(total))
}
