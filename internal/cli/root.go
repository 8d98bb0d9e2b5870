package cli

import (
	"fmt"
	"strings"

	"github.com/soyeahso/sumai/internal/config"
	"github.com/soyeahso/sumai/internal/logging"
	"github.com/spf13/cobra"
)

// annotationLogFile marks commands that own the terminal; their logs go to
// the rotated log file instead of stderr.
const annotationLogFile = "logToFile"

var (
	cfgFile    string
	logLevel   string
	backendURL string

	// loaded at init time
	paths config.Paths
	cfg   config.Config
	log   *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sumai",
		Short: "sumai: conversational real-estate search",
		Long:  "sumai talks to a property search backend: describe what you are looking for, or upload a PDF of a listing, and get ranked recommendations.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}

			cfg, err = config.Load(paths.Config)
			if err != nil {
				return err
			}
			if backendURL != "" {
				cfg.Backend.BaseURL = strings.TrimRight(backendURL, "/")
			}
			if logLevel != "" {
				cfg.Logging.Level = strings.ToLower(logLevel)
			}

			log = logging.NewWithOptions(loggingOptions(cfg.Logging, cmd.Annotations[annotationLogFile] == "true"))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.sumai/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")
	cmd.PersistentFlags().StringVar(&backendURL, "backend", "", "backend base URL (overrides backend.baseUrl)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newAskCmd())
	cmd.AddCommand(newUploadCmd())
	cmd.AddCommand(newStatsCmd())

	return cmd
}

// loggingOptions maps config to logger options. Interactive commands log to
// the default file when none is configured.
func loggingOptions(lc config.LoggingConfig, interactive bool) logging.Options {
	opts := logging.Options{
		Level:        lc.Level,
		File:         lc.File,
		MaxSizeMB:    lc.MaxSizeMB,
		MaxBackups:   lc.MaxBackups,
		ConsoleStyle: lc.ConsoleStyle,
	}
	if opts.File == "" && interactive {
		if err := paths.EnsureDirs(); err == nil {
			opts.File = paths.LogFile()
		}
	}
	return opts
}

// validated returns the config issues as a single error.
func validated() error {
	issues := config.Validate(&cfg)
	if len(issues) == 0 {
		return nil
	}
	for _, issue := range issues {
		log.Error().Str("path", issue.Path).Msg(issue.Message)
	}
	return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
