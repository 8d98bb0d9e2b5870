package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/soyeahso/sumai/internal/conversation"
	"github.com/soyeahso/sumai/internal/domain"
	"github.com/soyeahso/sumai/internal/render"
	"github.com/soyeahso/sumai/internal/view"
	"github.com/spf13/cobra"
)

func newAskCmd() *cobra.Command {
	var (
		count   int
		details bool
	)

	cmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Send one message and print the reply and recommendations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if count > 0 {
				cfg.Chat.RecommendationCount = count
			}
			if err := validated(); err != nil {
				return err
			}

			a, err := newApp(cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			return oneShot(cmd.Context(), a, cmd.OutOrStdout(), details, func(ctx context.Context) (conversation.Outcome, error) {
				return a.ctrl.Submit(ctx, strings.Join(args, " "))
			})
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 0, "number of recommendations to request")
	cmd.Flags().BoolVar(&details, "details", false, "show the score breakdown of the top recommendation")
	return cmd
}

func newUploadCmd() *cobra.Command {
	var (
		count   int
		details bool
	)

	cmd := &cobra.Command{
		Use:   "upload <file.pdf>",
		Short: "Upload a PDF listing and print similar properties",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if count > 0 {
				cfg.Chat.RecommendationCount = count
			}
			if err := validated(); err != nil {
				return err
			}

			a, err := newApp(cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			return oneShot(cmd.Context(), a, cmd.OutOrStdout(), details, func(ctx context.Context) (conversation.Outcome, error) {
				return a.gate.Pick(ctx, args[0])
			})
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 0, "number of recommendations to request")
	cmd.Flags().BoolVar(&details, "details", false, "show the score breakdown of the top recommendation")
	return cmd
}

// oneShot runs a single turn and prints the resulting log and
// recommendations. Any outcome other than applied is an error.
func oneShot(ctx context.Context, a *app, w io.Writer, details bool, run func(context.Context) (conversation.Outcome, error)) error {
	if ctx == nil {
		ctx = context.Background()
	}
	out, err := run(ctx)
	if out == conversation.OutcomeRejected {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return errors.New(verr.Notice)
		}
		return err
	}

	r := render.New(w)
	snap := a.ctrl.Snapshot()
	for _, msg := range snap.Messages {
		r.Message(msg)
	}
	if out != conversation.OutcomeApplied {
		if err == nil {
			return fmt.Errorf("turn %s", out)
		}
		return fmt.Errorf("turn %s: %w", out, err)
	}

	var exp view.Expander
	if details {
		exp.Toggle(0)
	}
	r.Recommendations(snap.Recommendations, &exp)
	r.Stats(snap.Stats)
	return nil
}
