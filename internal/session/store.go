// Package session holds the process-wide conversation state.
package session

import (
	"github.com/soyeahso/sumai/internal/domain"
)

// Store is the single owner of conversation state. It is not safe for
// concurrent use; the conversation controller serializes every call.
type Store struct {
	sessionID       string
	messages        []domain.Message
	inFlight        bool
	recommendations []domain.Recommendation
	stats           domain.Stats
	generation      uint64
}

// Snapshot is a deep copy of the store for readers.
type Snapshot struct {
	SessionID       string
	Messages        []domain.Message
	InFlight        bool
	Recommendations []domain.Recommendation
	Stats           domain.Stats
	Generation      uint64
}

// NewStore returns an empty store at generation zero.
func NewStore() *Store {
	return &Store{}
}

// AppendMessage extends the log.
func (s *Store) AppendMessage(msg domain.Message) {
	s.messages = append(s.messages, msg)
}

// SetSession commits the session ID if none is set yet. It reports whether
// the ID was applied.
func (s *Store) SetSession(id string) bool {
	if s.sessionID != "" || id == "" {
		return false
	}
	s.sessionID = id
	return true
}

// SessionID returns the current session ID, empty if none was assigned.
func (s *Store) SessionID() string { return s.sessionID }

// SetRecommendations replaces the active set.
func (s *Store) SetRecommendations(recs []domain.Recommendation) {
	s.recommendations = cloneRecommendations(recs)
}

// ClearRecommendations drops the active set.
func (s *Store) ClearRecommendations() {
	s.recommendations = nil
}

// SetInFlight marks whether a turn is outstanding.
func (s *Store) SetInFlight(v bool) { s.inFlight = v }

// InFlight reports whether a turn is outstanding.
func (s *Store) InFlight() bool { return s.inFlight }

// SetTotal records the total property count.
func (s *Store) SetTotal(n int) { s.stats.Total = &n }

// SetFiltered records the filtered property count reported by a turn.
func (s *Store) SetFiltered(n int) { s.stats.Filtered = &n }

// Generation identifies the conversation the store currently holds. It
// changes on every reset.
func (s *Store) Generation() uint64 { return s.generation }

// ResetAll clears the log, session, recommendations and stats and starts a
// new generation. The in-flight flag is left alone; it belongs to the
// outstanding request, not to the conversation.
func (s *Store) ResetAll() {
	s.sessionID = ""
	s.messages = nil
	s.recommendations = nil
	s.stats = domain.Stats{}
	s.generation++
}

// Len returns the number of messages in the log.
func (s *Store) Len() int { return len(s.messages) }

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		SessionID:       s.sessionID,
		InFlight:        s.inFlight,
		Recommendations: cloneRecommendations(s.recommendations),
		Generation:      s.generation,
	}
	if s.messages != nil {
		snap.Messages = append([]domain.Message(nil), s.messages...)
	}
	if s.stats.Total != nil {
		n := *s.stats.Total
		snap.Stats.Total = &n
	}
	if s.stats.Filtered != nil {
		n := *s.stats.Filtered
		snap.Stats.Filtered = &n
	}
	return snap
}

func cloneRecommendations(recs []domain.Recommendation) []domain.Recommendation {
	if recs == nil {
		return nil
	}
	out := make([]domain.Recommendation, len(recs))
	for i, r := range recs {
		out[i] = r.Clone()
	}
	return out
}
