package view

import (
	"strings"

	"github.com/soyeahso/sumai/internal/domain"
)

// DefaultReason is shown when the backend gives no recommendation reason.
const DefaultReason = "総合的におすすめ"

// Card is the display model of one recommendation.
type Card struct {
	Rank     int
	Title    string
	Location string
	Station  string
	Price    string
	Area     string
	Layout   string
	Age      string
	WalkTime string
	URL      string
	Score    float64 // clamped
	Percent  int
	Band     Band
	Tags     []string
	Reason   string
	Bars     []Bar
}

// NewCard builds the display model for the recommendation at a 1-based rank.
func NewCard(rank int, r domain.Recommendation) Card {
	location := strings.TrimSpace(r.Prefecture + r.City)

	title := strings.TrimSpace(r.Address)
	if title == "" {
		title = location
	}
	if title == "" {
		title = "物件 " + r.ID.String()
	}

	layout := strings.TrimSpace(r.Layout)
	if layout == "" {
		layout = Missing
	}

	reason := strings.TrimSpace(r.RecommendationReason)
	if reason == "" {
		reason = DefaultReason
	}

	return Card{
		Rank:     rank,
		Title:    title,
		Location: location,
		Station:  r.StationName,
		Price:    Price(r.Price),
		Area:     Area(r.Area),
		Layout:   layout,
		Age:      Age(r.Age),
		WalkTime: WalkTime(r.WalkTime),
		URL:      r.URL,
		Score:    Clamp(r.SimilarityScore),
		Percent:  Percent(r.SimilarityScore),
		Band:     ScoreBand(r.SimilarityScore),
		Tags:     append([]string(nil), r.SimilarityTags...),
		Reason:   reason,
		Bars:     DimensionBars(r.DetailedScores),
	}
}

// Cards builds cards for a ranked list.
func Cards(recs []domain.Recommendation) []Card {
	cards := make([]Card, len(recs))
	for i, r := range recs {
		cards[i] = NewCard(i+1, r)
	}
	return cards
}

// Expander tracks which single card is expanded, by index.
type Expander struct {
	index int
	open  bool
}

// Toggle expands card i, or collapses it if it is already expanded. It
// reports whether i is expanded afterwards.
func (e *Expander) Toggle(i int) bool {
	if e.open && e.index == i {
		e.open = false
		return false
	}
	e.index = i
	e.open = true
	return true
}

// Expanded returns the expanded index, if any.
func (e *Expander) Expanded() (int, bool) {
	return e.index, e.open
}

// IsExpanded reports whether card i is expanded.
func (e *Expander) IsExpanded(i int) bool {
	return e.open && e.index == i
}

// Collapse closes any expanded card.
func (e *Expander) Collapse() {
	e.open = false
}
