// Package conversation runs turns against the backend and merges their
// results into the session store.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/soyeahso/sumai/internal/domain"
	"github.com/soyeahso/sumai/internal/hooks"
	"github.com/soyeahso/sumai/internal/logging"
	"github.com/soyeahso/sumai/internal/session"
	"github.com/soyeahso/sumai/internal/store"
)

// User-facing text appended to the log when a turn fails.
const (
	ChatErrorText   = "申し訳ございません。エラーが発生しました。もう一度お試しください。"
	UploadErrorText = "PDFの処理中にエラーが発生しました。もう一度お試しください。"
)

// ErrBusy is returned when a turn is submitted while another is in flight.
var ErrBusy = errors.New("a turn is already in flight")

// Transport is the backend surface the controller needs.
type Transport interface {
	SendTurn(ctx context.Context, text, sessionID string, count int) (*domain.TurnResult, error)
	UploadDocument(ctx context.Context, doc domain.Document, sessionID string, count int) (*domain.TurnResult, error)
}

// StatsSource supplies the total property count. It never fails; a source
// that cannot reach the backend returns its fallback.
type StatsSource interface {
	Total(ctx context.Context) int
}

// Journal records turn outcomes.
type Journal interface {
	Record(ctx context.Context, rec store.TurnRecord) error
}

// State is the controller's turn state.
type State int

const (
	StateIdle State = iota
	StateBusy
)

func (s State) String() string {
	if s == StateBusy {
		return "busy"
	}
	return "idle"
}

// Outcome says what happened to a turn.
type Outcome int

const (
	// OutcomeRejected means the turn never started: validation or busy guard.
	OutcomeRejected Outcome = iota
	// OutcomeApplied means the reply was merged into the store.
	OutcomeApplied
	// OutcomeFailed means the backend call failed and an error message was logged.
	OutcomeFailed
	// OutcomeDiscarded means the conversation was reset while the turn was
	// in flight and its reply was dropped.
	OutcomeDiscarded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeFailed:
		return "failed"
	case OutcomeDiscarded:
		return "discarded"
	default:
		return "rejected"
	}
}

type turnKind string

const (
	kindChat   turnKind = "chat"
	kindUpload turnKind = "upload"
)

// Options configures a Controller.
type Options struct {
	RecommendationCount int
	Hooks               *hooks.Manager
	Journal             Journal
	Stats               StatsSource
}

// Controller is the turn state machine. All store access goes through it.
type Controller struct {
	mu        sync.Mutex
	store     *session.Store
	transport Transport
	opts      Options
	log       *logging.Logger
}

// New creates a controller over a fresh store.
func New(t Transport, opts Options, log *logging.Logger) *Controller {
	if opts.RecommendationCount <= 0 {
		opts.RecommendationCount = 3
	}
	return &Controller{
		store:     session.NewStore(),
		transport: t,
		opts:      opts,
		log:       log.Sub("conversation"),
	}
}

// pending is a turn that passed its guards and is waiting on the backend.
type pending struct {
	kind       turnKind
	generation uint64
	sessionID  string
	started    time.Time
}

// Submit runs a chat turn. It blocks until the backend replies or fails.
func (c *Controller) Submit(ctx context.Context, text string) (Outcome, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		c.notice(ctx, domain.ErrEmptyInput)
		return OutcomeRejected, domain.ErrEmptyInput
	}

	p, err := c.begin(ctx, kindChat, domain.NewMessage(domain.RoleUser, text))
	if err != nil {
		return OutcomeRejected, err
	}

	res, err := c.transport.SendTurn(ctx, text, p.sessionID, c.opts.RecommendationCount)
	return c.finish(ctx, p, res, err)
}

// Upload runs an upload turn for an admitted document.
func (c *Controller) Upload(ctx context.Context, doc domain.Document) (Outcome, error) {
	if !domain.IsSupportedDocument(doc.MediaType) {
		c.notice(ctx, domain.ErrUnsupportedDocument)
		return OutcomeRejected, domain.ErrUnsupportedDocument
	}

	msg := domain.NewMessage(domain.RoleUser, fmt.Sprintf("📄 %s をアップロードしました", doc.Name))
	p, err := c.begin(ctx, kindUpload, msg)
	if err != nil {
		return OutcomeRejected, err
	}

	res, err := c.transport.UploadDocument(ctx, doc, p.sessionID, c.opts.RecommendationCount)
	return c.finish(ctx, p, res, err)
}

// begin applies the busy guard, appends the user message and marks the
// store in flight, all under one lock.
func (c *Controller) begin(ctx context.Context, kind turnKind, msg domain.Message) (pending, error) {
	c.mu.Lock()
	if c.store.InFlight() {
		c.mu.Unlock()
		c.log.Debug().Str("kind", string(kind)).Msg("turn rejected: busy")
		return pending{}, ErrBusy
	}
	c.store.AppendMessage(msg)
	c.store.SetInFlight(true)
	p := pending{
		kind:       kind,
		generation: c.store.Generation(),
		sessionID:  c.store.SessionID(),
		started:    time.Now(),
	}
	c.mu.Unlock()

	c.log.Info().
		Str("kind", string(kind)).
		Str("sessionId", p.sessionID).
		Uint64("generation", p.generation).
		Msg("turn started")

	c.opts.Hooks.Emit(ctx, hooks.Payload{
		Event:      hooks.EventTurnStarted,
		Generation: p.generation,
		Data:       map[string]any{"kind": string(kind), "message": msg},
	})
	return p, nil
}

// finish merges a resolved turn into the store. A reply for a superseded
// generation is dropped without touching the log.
func (c *Controller) finish(ctx context.Context, p pending, res *domain.TurnResult, callErr error) (Outcome, error) {
	var (
		outcome     Outcome
		reply       domain.Message
		assigned    bool
		sessionID   string
		recommended []domain.Recommendation
		filtered    *int
	)

	c.mu.Lock()
	c.store.SetInFlight(false)
	switch {
	case c.store.Generation() != p.generation:
		outcome = OutcomeDiscarded
	case callErr != nil:
		outcome = OutcomeFailed
		text := ChatErrorText
		if p.kind == kindUpload {
			text = UploadErrorText
		}
		reply = domain.NewMessage(domain.RoleAssistant, text)
		c.store.AppendMessage(reply)
	default:
		outcome = OutcomeApplied
		assigned = c.store.SetSession(res.SessionID)
		reply = domain.NewMessage(domain.RoleAssistant, res.ResponseText)
		c.store.AppendMessage(reply)
		if len(res.Recommendations) > 0 {
			c.store.SetRecommendations(res.Recommendations)
		}
		if res.FilteredCount != nil {
			c.store.SetFiltered(*res.FilteredCount)
		}
	}
	snap := c.store.Snapshot()
	c.mu.Unlock()

	sessionID = snap.SessionID
	recommended = snap.Recommendations
	filtered = snap.Stats.Filtered
	elapsed := time.Since(p.started)

	ev := c.log.Info()
	if outcome == OutcomeFailed {
		ev = c.log.Warn().Err(callErr)
	}
	ev.Str("kind", string(p.kind)).
		Str("outcome", outcome.String()).
		Str("sessionId", sessionID).
		Dur("duration", elapsed).
		Msg("turn finished")

	if assigned {
		c.opts.Hooks.Emit(ctx, hooks.Payload{
			Event:      hooks.EventSessionAssigned,
			Generation: p.generation,
			Data:       map[string]any{"sessionId": sessionID},
		})
	}

	data := map[string]any{"kind": string(p.kind)}
	event := hooks.EventTurnDiscarded
	switch outcome {
	case OutcomeApplied:
		event = hooks.EventTurnCompleted
		data["message"] = reply
		data["sessionId"] = sessionID
		data["recommendations"] = recommended
		data["updated"] = len(res.Recommendations) > 0
		data["final"] = res.IsFinal
		if filtered != nil {
			data["filteredCount"] = *filtered
		}
	case OutcomeFailed:
		event = hooks.EventTurnFailed
		data["message"] = reply
		data["error"] = callErr.Error()
	}
	c.opts.Hooks.Emit(ctx, hooks.Payload{Event: event, Generation: p.generation, Data: data})

	c.record(ctx, p, outcome, sessionID, res, callErr, elapsed)

	if outcome == OutcomeFailed {
		return outcome, callErr
	}
	return outcome, nil
}

func (c *Controller) record(ctx context.Context, p pending, outcome Outcome, sessionID string, res *domain.TurnResult, callErr error, elapsed time.Duration) {
	if c.opts.Journal == nil {
		return
	}
	rec := store.TurnRecord{
		Generation: p.generation,
		Kind:       string(p.kind),
		Outcome:    outcome.String(),
		SessionID:  sessionID,
		Duration:   elapsed,
		StartedAt:  p.started,
	}
	if res != nil {
		rec.Recommendations = len(res.Recommendations)
	}
	if callErr != nil {
		rec.Error = callErr.Error()
	}
	if err := c.opts.Journal.Record(context.WithoutCancel(ctx), rec); err != nil {
		c.log.Warn().Err(err).Msg("failed to journal turn")
	}
}

// Reset discards the conversation. A turn still in flight completes in the
// background and its reply is dropped on arrival.
func (c *Controller) Reset(ctx context.Context) {
	c.mu.Lock()
	busy := c.store.InFlight()
	c.store.ResetAll()
	gen := c.store.Generation()
	c.mu.Unlock()

	c.log.Info().Uint64("generation", gen).Bool("busy", busy).Msg("conversation reset")
	c.opts.Hooks.Emit(ctx, hooks.Payload{
		Event:      hooks.EventConversationReset,
		Generation: gen,
		Data:       map[string]any{"busy": busy},
	})
}

// DismissRecommendations clears the active recommendation set.
func (c *Controller) DismissRecommendations() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.ClearRecommendations()
}

// RefreshStats loads the total property count into the store. It takes no
// part in the busy guard and returns the total it applied.
func (c *Controller) RefreshStats(ctx context.Context) int {
	if c.opts.Stats == nil {
		return 0
	}
	total := c.opts.Stats.Total(ctx)

	c.mu.Lock()
	c.store.SetTotal(total)
	gen := c.store.Generation()
	c.mu.Unlock()

	c.opts.Hooks.Emit(ctx, hooks.Payload{
		Event:      hooks.EventStatsUpdated,
		Generation: gen,
		Data:       map[string]any{"total": total},
	})
	return total
}

// Snapshot returns a copy of the conversation state.
func (c *Controller) Snapshot() session.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Snapshot()
}

// State reports whether a turn is in flight.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store.InFlight() {
		return StateBusy
	}
	return StateIdle
}

func (c *Controller) notice(ctx context.Context, verr *domain.ValidationError) {
	c.mu.Lock()
	gen := c.store.Generation()
	c.mu.Unlock()

	c.opts.Hooks.Emit(ctx, hooks.Payload{
		Event:      hooks.EventNotice,
		Generation: gen,
		Data:       map[string]any{"notice": verr.Notice, "reason": verr.Reason},
	})
}
