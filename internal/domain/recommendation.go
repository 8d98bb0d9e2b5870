package domain

// Dimension names one axis of the per-property similarity breakdown.
type Dimension string

const (
	DimensionLocation    Dimension = "location"
	DimensionPrice       Dimension = "price"
	DimensionLayout      Dimension = "layout"
	DimensionArea        Dimension = "area"
	DimensionAge         Dimension = "age"
	DimensionWalkTime    Dimension = "walk_time"
	DimensionCommuteTime Dimension = "commute_time"
)

// Dimensions lists every known dimension in display order.
var Dimensions = []Dimension{
	DimensionLocation,
	DimensionPrice,
	DimensionLayout,
	DimensionArea,
	DimensionAge,
	DimensionWalkTime,
	DimensionCommuteTime,
}

// Recommendation is a ranked property returned by the backend.
type Recommendation struct {
	ID                   Value                 `json:"id"`
	Address              string                `json:"address,omitempty"`
	Prefecture           string                `json:"prefecture,omitempty"`
	City                 string                `json:"city,omitempty"`
	StationName          string                `json:"station_name,omitempty"`
	Price                Value                 `json:"price"`
	Area                 Value                 `json:"area"`
	Layout               string                `json:"layout,omitempty"`
	WalkTime             Value                 `json:"walk_time"`
	Age                  Value                 `json:"age"`
	URL                  string                `json:"url,omitempty"`
	SimilarityScore      float64               `json:"similarity_score"`
	SimilarityTags       []string              `json:"similarity_tags,omitempty"`
	RecommendationReason string                `json:"recommendation_reason,omitempty"`
	DetailedScores       map[Dimension]float64 `json:"detailed_scores,omitempty"`
}

// Clone returns a deep copy so store snapshots never share slices or maps.
func (r Recommendation) Clone() Recommendation {
	out := r
	if r.SimilarityTags != nil {
		out.SimilarityTags = append([]string(nil), r.SimilarityTags...)
	}
	if r.DetailedScores != nil {
		out.DetailedScores = make(map[Dimension]float64, len(r.DetailedScores))
		for k, v := range r.DetailedScores {
			out.DetailedScores[k] = v
		}
	}
	return out
}
