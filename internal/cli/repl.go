package cli

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/soyeahso/sumai/internal/conversation"
	"github.com/soyeahso/sumai/internal/domain"
	"github.com/soyeahso/sumai/internal/hooks"
	"github.com/soyeahso/sumai/internal/ingest"
	"github.com/soyeahso/sumai/internal/render"
	"github.com/soyeahso/sumai/internal/view"
)

const (
	busyNotice    = "応答を待っています。しばらくお待ちください。"
	resetNotice   = "新しい会話を始めました。"
	dismissNotice = "おすすめ物件を閉じました。"
	noRecsNotice  = "表示中のおすすめ物件はありません。"
	unknownNotice = "不明なコマンドです。/help で一覧を表示します。"
)

// repl drives the interactive chat. Turns run on background goroutines so
// the prompt stays responsive; everything they print arrives through hooks.
type repl struct {
	app *app
	out *render.Renderer

	mu  sync.Mutex
	exp view.Expander

	wg sync.WaitGroup
}

func newREPL(a *app, w io.Writer) *repl {
	r := &repl{app: a, out: render.New(w)}
	r.wire()
	return r
}

func (r *repl) wire() {
	h := r.app.hooks

	h.On(hooks.EventTurnStarted, "repl", func(_ context.Context, p hooks.Payload) error {
		// typed messages are already on screen; synthetic upload messages are not
		if p.String("kind") == "upload" {
			if msg, ok := p.Data["message"].(domain.Message); ok {
				r.out.Message(msg)
			}
		}
		r.out.Waiting(p.String("kind"))
		return nil
	})

	h.On(hooks.EventTurnCompleted, "repl", func(_ context.Context, p hooks.Payload) error {
		if msg, ok := p.Data["message"].(domain.Message); ok {
			r.out.Message(msg)
		}
		if updated, _ := p.Data["updated"].(bool); updated {
			recs, _ := p.Data["recommendations"].([]domain.Recommendation)
			r.mu.Lock()
			r.exp.Collapse()
			r.out.Recommendations(recs, &r.exp)
			r.mu.Unlock()
		}
		if _, ok := p.Data["filteredCount"]; ok {
			r.out.Stats(r.app.ctrl.Snapshot().Stats)
		}
		return nil
	})

	h.On(hooks.EventTurnFailed, "repl", func(_ context.Context, p hooks.Payload) error {
		if msg, ok := p.Data["message"].(domain.Message); ok {
			r.out.Message(msg)
		}
		return nil
	})

	h.On(hooks.EventNotice, "repl", func(_ context.Context, p hooks.Payload) error {
		r.out.Notice(p.String("notice"))
		return nil
	})

	h.On(hooks.EventConversationReset, "repl", func(_ context.Context, p hooks.Payload) error {
		r.mu.Lock()
		r.exp.Collapse()
		r.mu.Unlock()
		r.out.Notice(resetNotice)
		return nil
	})

	h.On(hooks.EventStatsUpdated, "repl", func(_ context.Context, p hooks.Payload) error {
		r.out.Stats(r.app.ctrl.Snapshot().Stats)
		return nil
	})

	h.On(hooks.EventSessionAssigned, "repl", func(_ context.Context, p hooks.Payload) error {
		r.app.log.Info().Str("sessionId", p.String("sessionId")).Msg("session assigned")
		return nil
	})
}

// handle processes one input line. It returns false when the user quits.
func (r *repl) handle(ctx context.Context, line string) bool {
	trimmed := strings.TrimSpace(line)

	// A dropped absolute path also starts with "/", so check it first.
	switch {
	case ingest.LooksLikeDrop(trimmed):
		r.turn(func() (conversation.Outcome, error) { return r.app.gate.Drop(ctx, trimmed) })
	case strings.HasPrefix(trimmed, "/"):
		return r.command(ctx, trimmed)
	default:
		r.turn(func() (conversation.Outcome, error) { return r.app.ctrl.Submit(ctx, line) })
	}
	return true
}

func (r *repl) command(ctx context.Context, line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit":
		return false
	case "/help":
		r.out.Help()
	case "/new":
		r.app.ctrl.Reset(ctx)
		r.background(func() { r.app.ctrl.RefreshStats(ctx) })
	case "/upload":
		if arg == "" {
			r.out.Notice("使い方: /upload <path>")
			return true
		}
		path := arg
		if parsed := ingest.ParseDrop(arg); len(parsed) > 0 {
			path = parsed[0]
		}
		r.turn(func() (conversation.Outcome, error) { return r.app.gate.Pick(ctx, path) })
	case "/open":
		r.open(arg)
	case "/dismiss":
		r.app.ctrl.DismissRecommendations()
		r.mu.Lock()
		r.exp.Collapse()
		r.mu.Unlock()
		r.out.Notice(dismissNotice)
	case "/stats":
		r.app.stats.Invalidate()
		r.background(func() { r.app.ctrl.RefreshStats(ctx) })
	case "/turns":
		recs, err := r.app.journal.Recent(ctx, 20)
		if err != nil {
			r.app.log.Warn().Err(err).Msg("reading turn journal")
			return true
		}
		r.out.Turns(recs, time.Now())
	default:
		r.out.Notice(unknownNotice)
	}
	return true
}

func (r *repl) open(arg string) {
	recs := r.app.ctrl.Snapshot().Recommendations
	if len(recs) == 0 {
		r.out.Notice(noRecsNotice)
		return
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(recs) {
		r.out.Notice("1〜" + strconv.Itoa(len(recs)) + " の番号を指定してください。")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.exp.Toggle(n - 1)
	r.out.Recommendations(recs, &r.exp)
}

// turn starts a conversation turn in the background unless one is running.
func (r *repl) turn(run func() (conversation.Outcome, error)) {
	if r.app.ctrl.State() == conversation.StateBusy {
		r.out.Notice(busyNotice)
		return
	}
	r.background(func() {
		out, err := run()
		if err == nil || out == conversation.OutcomeFailed {
			// failures are rendered from the turn_failed hook
			return
		}
		var verr *domain.ValidationError
		switch {
		case errors.Is(err, conversation.ErrBusy):
			r.out.Notice(busyNotice)
		case errors.As(err, &verr):
			// notice already emitted
		default:
			r.out.Notice(err.Error())
		}
	})
}

func (r *repl) background(fn func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		fn()
	}()
}

// wait blocks until background work has finished.
func (r *repl) wait() {
	r.wg.Wait()
}
