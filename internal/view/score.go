package view

import (
	"math"

	"github.com/soyeahso/sumai/internal/domain"
)

// Band is a score tier with its display color and label.
type Band struct {
	Name  string
	Color string // hex
	Label string
}

var (
	BandExcellent = Band{Name: "excellent", Color: "#16a34a", Label: "非常におすすめ"}
	BandGood      = Band{Name: "good", Color: "#2563eb", Label: "おすすめ"}
	BandFair      = Band{Name: "fair", Color: "#d97706", Label: "やや一致"}
	BandLow       = Band{Name: "low", Color: "#6b7280", Label: "参考"}
)

// Clamp bounds a score to [0,1]. NaN becomes 0.
func Clamp(score float64) float64 {
	switch {
	case math.IsNaN(score) || score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}

// Percent is the clamped score as a whole percentage.
func Percent(score float64) int {
	return int(math.Round(Clamp(score) * 100))
}

// ScoreBand maps a score to its tier. Lower bounds are inclusive.
func ScoreBand(score float64) Band {
	s := Clamp(score)
	switch {
	case s >= 0.8:
		return BandExcellent
	case s >= 0.6:
		return BandGood
	case s >= 0.4:
		return BandFair
	default:
		return BandLow
	}
}

var dimensionLabels = map[domain.Dimension]string{
	domain.DimensionLocation:    "立地",
	domain.DimensionPrice:       "価格",
	domain.DimensionLayout:      "間取り",
	domain.DimensionArea:        "面積",
	domain.DimensionAge:         "築年数",
	domain.DimensionWalkTime:    "駅徒歩",
	domain.DimensionCommuteTime: "通勤時間",
}

// DimensionLabel returns the display label of a dimension; unknown keys are
// shown as-is.
func DimensionLabel(d domain.Dimension) string {
	if l, ok := dimensionLabels[d]; ok {
		return l
	}
	return string(d)
}

// Bar is one row of the per-dimension breakdown.
type Bar struct {
	Dimension domain.Dimension
	Label     string
	Score     float64 // clamped
	Percent   int
}

// DimensionBars lists the breakdown in fixed dimension order. Dimensions the
// backend did not score are skipped.
func DimensionBars(scores map[domain.Dimension]float64) []Bar {
	var bars []Bar
	for _, d := range domain.Dimensions {
		s, ok := scores[d]
		if !ok {
			continue
		}
		bars = append(bars, Bar{
			Dimension: d,
			Label:     DimensionLabel(d),
			Score:     Clamp(s),
			Percent:   Percent(s),
		})
	}
	return bars
}
