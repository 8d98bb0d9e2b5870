package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/soyeahso/sumai/internal/domain"
	"github.com/soyeahso/sumai/internal/hooks"
	"github.com/soyeahso/sumai/internal/logging"
	"github.com/soyeahso/sumai/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	kind      string
	text      string
	doc       domain.Document
	sessionID string
	count     int
}

type reply struct {
	res *domain.TurnResult
	err error
}

// fakeTransport answers from a queue; when gate is set each call blocks
// until a reply is sent on it.
type fakeTransport struct {
	mu      sync.Mutex
	calls   []call
	replies []reply
	gate    chan reply
	entered chan struct{}
}

func (f *fakeTransport) next(c call) (*domain.TurnResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	gate := f.gate
	var r reply
	if gate == nil && len(f.replies) > 0 {
		r = f.replies[0]
		f.replies = f.replies[1:]
	}
	f.mu.Unlock()

	if gate != nil {
		if f.entered != nil {
			f.entered <- struct{}{}
		}
		r = <-gate
	}
	return r.res, r.err
}

func (f *fakeTransport) SendTurn(_ context.Context, text, sessionID string, count int) (*domain.TurnResult, error) {
	return f.next(call{kind: "chat", text: text, sessionID: sessionID, count: count})
}

func (f *fakeTransport) UploadDocument(_ context.Context, doc domain.Document, sessionID string, count int) (*domain.TurnResult, error) {
	return f.next(call{kind: "upload", doc: doc, sessionID: sessionID, count: count})
}

func (f *fakeTransport) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

type fixedStats int

func (s fixedStats) Total(context.Context) int { return int(s) }

type memJournal struct {
	mu   sync.Mutex
	recs []store.TurnRecord
}

func (j *memJournal) Record(_ context.Context, rec store.TurnRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.recs = append(j.recs, rec)
	return nil
}

func recs(ids ...string) []domain.Recommendation {
	out := make([]domain.Recommendation, len(ids))
	for i, id := range ids {
		out[i] = domain.Recommendation{ID: domain.Text(id), SimilarityScore: 0.7}
	}
	return out
}

func intPtr(n int) *int { return &n }

func newController(t *testing.T, tr Transport, opts Options) *Controller {
	t.Helper()
	return New(tr, opts, logging.New(nil, "silent"))
}

func TestSubmitFirstTurnAssignsSession(t *testing.T) {
	tr := &fakeTransport{replies: []reply{
		{res: &domain.TurnResult{ResponseText: "条件を教えてください", SessionID: "abc123"}},
		{res: &domain.TurnResult{ResponseText: "了解です", SessionID: "abc123"}},
	}}
	c := newController(t, tr, Options{})

	out, err := c.Submit(context.Background(), "新宿駅周辺で1K、予算10万円以下")
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, out)

	snap := c.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, domain.RoleUser, snap.Messages[0].Role)
	assert.Equal(t, "新宿駅周辺で1K、予算10万円以下", snap.Messages[0].Text)
	assert.Equal(t, domain.RoleAssistant, snap.Messages[1].Role)
	assert.Equal(t, "条件を教えてください", snap.Messages[1].Text)
	assert.Equal(t, "abc123", snap.SessionID)

	_, err = c.Submit(context.Background(), "駅近で")
	require.NoError(t, err)

	calls := tr.Calls()
	require.Len(t, calls, 2)
	assert.Empty(t, calls[0].sessionID)
	assert.Equal(t, "abc123", calls[1].sessionID)
	assert.Equal(t, 3, calls[0].count)
}

func TestSessionFirstAssignmentWins(t *testing.T) {
	tr := &fakeTransport{replies: []reply{
		{res: &domain.TurnResult{ResponseText: "a", SessionID: "abc123"}},
		{res: &domain.TurnResult{ResponseText: "b", SessionID: "other"}},
		{res: &domain.TurnResult{ResponseText: "c"}},
	}}
	c := newController(t, tr, Options{})

	for _, text := range []string{"one", "two", "three"} {
		_, err := c.Submit(context.Background(), text)
		require.NoError(t, err)
	}

	assert.Equal(t, "abc123", c.Snapshot().SessionID)
	calls := tr.Calls()
	assert.Equal(t, "abc123", calls[2].sessionID)
}

func TestSubmitEmptyInputRejected(t *testing.T) {
	tr := &fakeTransport{}
	h := hooks.NewManager(logging.New(nil, "silent"))

	var notice string
	h.On(hooks.EventNotice, "test", func(_ context.Context, p hooks.Payload) error {
		notice = p.String("notice")
		return nil
	})
	c := newController(t, tr, Options{Hooks: h})

	for _, text := range []string{"", "   ", "\n\t"} {
		out, err := c.Submit(context.Background(), text)
		assert.Equal(t, OutcomeRejected, out)
		assert.ErrorIs(t, err, domain.ErrEmptyInput)
	}

	assert.Empty(t, c.Snapshot().Messages)
	assert.Empty(t, tr.Calls())
	assert.Equal(t, "メッセージを入力してください。", notice)
}

func TestSubmitTrimsText(t *testing.T) {
	tr := &fakeTransport{replies: []reply{{res: &domain.TurnResult{ResponseText: "ok"}}}}
	c := newController(t, tr, Options{RecommendationCount: 5})

	_, err := c.Submit(context.Background(), "  渋谷  ")
	require.NoError(t, err)
	assert.Equal(t, "渋谷", tr.Calls()[0].text)
	assert.Equal(t, 5, tr.Calls()[0].count)
}

func TestBusyGuard(t *testing.T) {
	tr := &fakeTransport{gate: make(chan reply), entered: make(chan struct{}, 1)}
	c := newController(t, tr, Options{})

	done := make(chan Outcome, 1)
	go func() {
		out, _ := c.Submit(context.Background(), "first")
		done <- out
	}()
	<-tr.entered

	assert.Equal(t, StateBusy, c.State())
	before := len(c.Snapshot().Messages)

	out, err := c.Submit(context.Background(), "second")
	assert.Equal(t, OutcomeRejected, out)
	assert.ErrorIs(t, err, ErrBusy)

	doc := domain.Document{Name: "a.pdf", MediaType: "application/pdf", Content: strings.NewReader("%PDF")}
	out, err = c.Upload(context.Background(), doc)
	assert.Equal(t, OutcomeRejected, out)
	assert.ErrorIs(t, err, ErrBusy)

	assert.Len(t, c.Snapshot().Messages, before)

	tr.gate <- reply{res: &domain.TurnResult{ResponseText: "ok"}}
	assert.Equal(t, OutcomeApplied, <-done)
	assert.Equal(t, StateIdle, c.State())
	assert.Len(t, tr.Calls(), 1)
}

func TestUserMessageAppendedBeforeCall(t *testing.T) {
	tr := &fakeTransport{gate: make(chan reply), entered: make(chan struct{}, 1)}
	c := newController(t, tr, Options{})

	go func() { _, _ = c.Submit(context.Background(), "hello") }()
	<-tr.entered

	snap := c.Snapshot()
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, "hello", snap.Messages[0].Text)
	assert.True(t, snap.InFlight)

	tr.gate <- reply{res: &domain.TurnResult{ResponseText: "hi"}}
	require.Eventually(t, func() bool { return c.State() == StateIdle }, time.Second, 5*time.Millisecond)
	assert.Len(t, c.Snapshot().Messages, 2)
}

func TestFailureLeavesStateUntouched(t *testing.T) {
	tr := &fakeTransport{replies: []reply{
		{res: &domain.TurnResult{ResponseText: "ok", SessionID: "abc123", Recommendations: recs("a", "b"), FilteredCount: intPtr(12)}},
		{err: errors.New("connection refused")},
	}}
	c := newController(t, tr, Options{Stats: fixedStats(640736)})
	c.RefreshStats(context.Background())

	_, err := c.Submit(context.Background(), "first")
	require.NoError(t, err)
	before := c.Snapshot()

	out, err := c.Submit(context.Background(), "second")
	assert.Equal(t, OutcomeFailed, out)
	require.Error(t, err)

	after := c.Snapshot()
	assert.Equal(t, before.SessionID, after.SessionID)
	assert.Equal(t, before.Recommendations, after.Recommendations)
	assert.Equal(t, before.Stats, after.Stats)
	assert.Equal(t, StateIdle, c.State())

	require.Len(t, after.Messages, 4)
	last := after.Messages[3]
	assert.Equal(t, domain.RoleAssistant, last.Role)
	assert.Equal(t, ChatErrorText, last.Text)
}

func TestUploadFailureUsesUploadWording(t *testing.T) {
	tr := &fakeTransport{replies: []reply{{err: errors.New("timeout")}}}
	c := newController(t, tr, Options{})

	doc := domain.Document{Name: "物件資料.pdf", MediaType: "application/pdf", Content: strings.NewReader("%PDF")}
	out, err := c.Upload(context.Background(), doc)
	assert.Equal(t, OutcomeFailed, out)
	require.Error(t, err)

	msgs := c.Snapshot().Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, "📄 物件資料.pdf をアップロードしました", msgs[0].Text)
	assert.Equal(t, UploadErrorText, msgs[1].Text)
}

func TestUploadApplied(t *testing.T) {
	tr := &fakeTransport{replies: []reply{
		{res: &domain.TurnResult{ResponseText: "PDFを解析しました", SessionID: "s1", Recommendations: recs("x")}},
	}}
	c := newController(t, tr, Options{})

	doc := domain.Document{Name: "a.pdf", MediaType: "application/pdf", Content: strings.NewReader("%PDF")}
	out, err := c.Upload(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, out)

	snap := c.Snapshot()
	assert.Equal(t, "s1", snap.SessionID)
	assert.Len(t, snap.Recommendations, 1)
	assert.Equal(t, "a.pdf", tr.Calls()[0].doc.Name)
}

func TestUploadRejectsNonPDF(t *testing.T) {
	tr := &fakeTransport{}
	c := newController(t, tr, Options{})

	doc := domain.Document{Name: "floor.png", MediaType: "image/png", Content: strings.NewReader("png")}
	out, err := c.Upload(context.Background(), doc)
	assert.Equal(t, OutcomeRejected, out)
	assert.ErrorIs(t, err, domain.ErrUnsupportedDocument)
	assert.Empty(t, c.Snapshot().Messages)
	assert.Empty(t, tr.Calls())
}

func TestRecommendationsReplaceWholesale(t *testing.T) {
	tr := &fakeTransport{replies: []reply{
		{res: &domain.TurnResult{ResponseText: "2件", Recommendations: recs("a", "b")}},
		{res: &domain.TurnResult{ResponseText: "3件", Recommendations: recs("c", "d", "e")}},
		{res: &domain.TurnResult{ResponseText: "質問です"}},
	}}
	c := newController(t, tr, Options{})

	_, _ = c.Submit(context.Background(), "one")
	require.Len(t, c.Snapshot().Recommendations, 2)

	_, _ = c.Submit(context.Background(), "two")
	got := c.Snapshot().Recommendations
	require.Len(t, got, 3)
	assert.Equal(t, "c", got[0].ID.String())

	// an empty list keeps the current set
	_, _ = c.Submit(context.Background(), "three")
	assert.Len(t, c.Snapshot().Recommendations, 3)

	c.DismissRecommendations()
	assert.Empty(t, c.Snapshot().Recommendations)
}

func TestFilteredCountTakesPrecedence(t *testing.T) {
	tr := &fakeTransport{replies: []reply{
		{res: &domain.TurnResult{ResponseText: "ok", FilteredCount: intPtr(57)}},
	}}
	c := newController(t, tr, Options{Stats: fixedStats(640736)})

	assert.Equal(t, 640736, c.RefreshStats(context.Background()))
	n, _ := c.Snapshot().Stats.Displayed()
	assert.Equal(t, 640736, n)

	_, _ = c.Submit(context.Background(), "渋谷")
	n, _ = c.Snapshot().Stats.Displayed()
	assert.Equal(t, 57, n)
}

func TestResetDuringBusyDiscardsResult(t *testing.T) {
	tr := &fakeTransport{gate: make(chan reply), entered: make(chan struct{}, 1)}
	h := hooks.NewManager(logging.New(nil, "silent"))
	var events []string
	var evMu sync.Mutex
	h.OnAll("recorder", func(_ context.Context, p hooks.Payload) error {
		evMu.Lock()
		events = append(events, p.Event)
		evMu.Unlock()
		return nil
	})
	j := &memJournal{}
	c := newController(t, tr, Options{Hooks: h, Journal: j})

	done := make(chan Outcome, 1)
	go func() {
		out, _ := c.Submit(context.Background(), "old question")
		done <- out
	}()
	<-tr.entered

	c.Reset(context.Background())

	snap := c.Snapshot()
	assert.Empty(t, snap.Messages)
	assert.Empty(t, snap.SessionID)
	assert.Equal(t, StateBusy, c.State(), "the old request is still outstanding")

	tr.gate <- reply{res: &domain.TurnResult{
		ResponseText:    "stale answer",
		SessionID:       "stale-session",
		Recommendations: recs("a"),
		FilteredCount:   intPtr(3),
	}}
	assert.Equal(t, OutcomeDiscarded, <-done)

	snap = c.Snapshot()
	assert.Empty(t, snap.Messages)
	assert.Empty(t, snap.SessionID)
	assert.Empty(t, snap.Recommendations)
	assert.Nil(t, snap.Stats.Filtered)
	assert.Equal(t, StateIdle, c.State())

	evMu.Lock()
	assert.Contains(t, events, hooks.EventTurnDiscarded)
	assert.NotContains(t, events, hooks.EventSessionAssigned)
	evMu.Unlock()

	require.Len(t, j.recs, 1)
	assert.Equal(t, "discarded", j.recs[0].Outcome)
}

func TestResetDuringBusyThenFailureDiscarded(t *testing.T) {
	tr := &fakeTransport{gate: make(chan reply), entered: make(chan struct{}, 1)}
	c := newController(t, tr, Options{})

	done := make(chan Outcome, 1)
	go func() {
		out, _ := c.Submit(context.Background(), "q")
		done <- out
	}()
	<-tr.entered
	c.Reset(context.Background())

	tr.gate <- reply{err: errors.New("boom")}
	assert.Equal(t, OutcomeDiscarded, <-done)
	assert.Empty(t, c.Snapshot().Messages)
}

func TestResetClearsEverything(t *testing.T) {
	tr := &fakeTransport{replies: []reply{
		{res: &domain.TurnResult{ResponseText: "ok", SessionID: "abc123", Recommendations: recs("a"), FilteredCount: intPtr(5)}},
		{res: &domain.TurnResult{ResponseText: "new", SessionID: "def456"}},
	}}
	c := newController(t, tr, Options{Stats: fixedStats(100)})
	c.RefreshStats(context.Background())
	_, _ = c.Submit(context.Background(), "q")

	c.Reset(context.Background())
	snap := c.Snapshot()
	assert.Empty(t, snap.Messages)
	assert.Empty(t, snap.SessionID)
	assert.Empty(t, snap.Recommendations)
	assert.Nil(t, snap.Stats.Filtered)
	assert.Equal(t, uint64(1), snap.Generation)

	_, _ = c.Submit(context.Background(), "again")
	assert.Empty(t, tr.Calls()[1].sessionID)
	assert.Equal(t, "def456", c.Snapshot().SessionID)
}

func TestJournalRecordsOutcomes(t *testing.T) {
	tr := &fakeTransport{replies: []reply{
		{res: &domain.TurnResult{ResponseText: "ok", SessionID: "s", Recommendations: recs("a", "b")}},
		{err: errors.New("502")},
	}}
	j := &memJournal{}
	c := newController(t, tr, Options{Journal: j})

	_, _ = c.Submit(context.Background(), "one")
	_, _ = c.Submit(context.Background(), "two")

	require.Len(t, j.recs, 2)
	assert.Equal(t, "chat", j.recs[0].Kind)
	assert.Equal(t, "applied", j.recs[0].Outcome)
	assert.Equal(t, 2, j.recs[0].Recommendations)
	assert.Equal(t, "s", j.recs[0].SessionID)
	assert.Equal(t, "failed", j.recs[1].Outcome)
	assert.Equal(t, "502", j.recs[1].Error)
}

func TestTurnCompletedPayload(t *testing.T) {
	tr := &fakeTransport{replies: []reply{
		{res: &domain.TurnResult{ResponseText: "3件です", SessionID: "abc123", Recommendations: recs("a", "b", "c"), IsFinal: true}},
	}}
	h := hooks.NewManager(logging.New(nil, "silent"))

	var got hooks.Payload
	var assigned string
	h.On(hooks.EventTurnCompleted, "test", func(_ context.Context, p hooks.Payload) error {
		got = p
		return nil
	})
	h.On(hooks.EventSessionAssigned, "test", func(_ context.Context, p hooks.Payload) error {
		assigned = p.String("sessionId")
		return nil
	})
	c := newController(t, tr, Options{Hooks: h})

	_, err := c.Submit(context.Background(), "q")
	require.NoError(t, err)

	assert.Equal(t, "abc123", assigned)
	msg, ok := got.Data["message"].(domain.Message)
	require.True(t, ok)
	assert.Equal(t, "3件です", msg.Text)
	assert.Len(t, got.Data["recommendations"], 3)
	assert.Equal(t, true, got.Data["final"])
	assert.Equal(t, "chat", got.String("kind"))
}

func TestStateAndOutcomeStrings(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "busy", StateBusy.String())
	assert.Equal(t, "applied", OutcomeApplied.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
	assert.Equal(t, "discarded", OutcomeDiscarded.String())
	assert.Equal(t, "rejected", OutcomeRejected.String())
}

func TestRefreshStatsWithoutSource(t *testing.T) {
	c := newController(t, &fakeTransport{}, Options{})
	assert.Zero(t, c.RefreshStats(context.Background()))
	assert.Nil(t, c.Snapshot().Stats.Total)
}
