package cli

import (
	"bufio"
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/soyeahso/sumai/internal/version"
	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "chat",
		Short:       "Start an interactive property search conversation",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationLogFile: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validated(); err != nil {
				return err
			}

			a, err := newApp(cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runChat(ctx, a, cmd)
		},
	}
	return cmd
}

func runChat(ctx context.Context, a *app, cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	r := newREPL(a, out)

	fmt.Fprintf(out, "%s  %s\n", color.New(color.Bold).Sprint(version.Info()), a.cfg.Backend.BaseURL)
	fmt.Fprintln(out, "/help でコマンド一覧を表示します。")
	a.log.Info().Str("backend", a.cfg.Backend.BaseURL).Msg("chat session started")

	// stats load independently of turns
	r.background(func() { a.ctrl.RefreshStats(ctx) })

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(cmd.InOrStdin())
		sc.Buffer(make([]byte, 64*1024), 1024*1024)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			r.wait()
			return nil
		case line, ok := <-lines:
			if !ok || !r.handle(ctx, line) {
				r.wait()
				a.log.Info().Msg("chat session ended")
				return nil
			}
		}
	}
}
