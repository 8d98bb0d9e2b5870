package domain

import (
	"io"
	"mime"
	"strings"
)

// TurnResult is the normalized reply of a chat or upload turn.
type TurnResult struct {
	ResponseText    string
	SessionID       string
	Recommendations []Recommendation
	FilteredCount   *int
	IsFinal         bool
}

// Stats holds the property counts shown next to the conversation.
type Stats struct {
	Total    *int `json:"total,omitempty"`
	Filtered *int `json:"filtered,omitempty"`
}

// Displayed returns the count to show: the filtered count once a turn has
// reported one, otherwise the total.
func (s Stats) Displayed() (int, bool) {
	if s.Filtered != nil {
		return *s.Filtered, true
	}
	if s.Total != nil {
		return *s.Total, true
	}
	return 0, false
}

// DocumentMediaType is the only upload format the backend accepts.
const DocumentMediaType = "application/pdf"

// IsSupportedDocument reports whether a declared media type is a PDF.
func IsSupportedDocument(mediaType string) bool {
	mt, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		mt = strings.TrimSpace(mediaType)
	}
	return strings.EqualFold(mt, DocumentMediaType)
}

// Document is an upload candidate that passed admission.
type Document struct {
	Name      string
	MediaType string
	Size      int64
	Content   io.Reader
}
