// Package transport is the typed HTTP client for the search backend.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/soyeahso/sumai/internal/domain"
	"github.com/soyeahso/sumai/internal/logging"
)

const (
	endpointChat   = "/chat"
	endpointUpload = "/upload"
	endpointStats  = "/stats"
)

// Options configures a Client.
type Options struct {
	BaseURL       string
	Token         string
	Timeout       time.Duration // chat and stats ceiling
	UploadTimeout time.Duration
	UserAgent     string
}

// Client talks to the recommendation backend over HTTP.
type Client struct {
	rc            *resty.Client
	timeout       time.Duration
	uploadTimeout time.Duration
	log           *logging.Logger
}

// New creates a backend client.
func New(opts Options, log *logging.Logger) *Client {
	log = log.Sub("transport")

	rc := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetLogger(restyLogger{log: log})
	if opts.UserAgent != "" {
		rc.SetHeader("User-Agent", opts.UserAgent)
	}
	if opts.Token != "" {
		rc.SetAuthToken(opts.Token)
	}

	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UploadTimeout <= 0 {
		opts.UploadTimeout = 60 * time.Second
	}

	return &Client{
		rc:            rc,
		timeout:       opts.Timeout,
		uploadTimeout: opts.UploadTimeout,
		log:           log,
	}
}

type chatRequest struct {
	Message             string  `json:"message"`
	SessionID           *string `json:"session_id"`
	RecommendationCount int     `json:"recommendation_count"`
}

// turnReply covers both /chat and /upload replies; they differ only in the
// name of the primary text field.
type turnReply struct {
	Response        *string                 `json:"response"`
	Message         *string                 `json:"message"`
	SessionID       string                  `json:"session_id"`
	Recommendations []domain.Recommendation `json:"recommendations"`
	FilteredCount   *int                    `json:"filtered_count"`
	IsFinal         bool                    `json:"is_final"`
}

func (r turnReply) result(text string) *domain.TurnResult {
	return &domain.TurnResult{
		ResponseText:    text,
		SessionID:       r.SessionID,
		Recommendations: r.Recommendations,
		FilteredCount:   r.FilteredCount,
		IsFinal:         r.IsFinal,
	}
}

type statsReply struct {
	TotalProperties *int `json:"total_properties"`
}

// SendTurn posts a chat message. An empty sessionID is sent as null.
func (c *Client) SendTurn(ctx context.Context, text, sessionID string, count int) (*domain.TurnResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body := chatRequest{Message: text, RecommendationCount: count}
	if sessionID != "" {
		body.SessionID = &sessionID
	}

	resp, err := c.rc.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(endpointChat)
	if err != nil {
		return nil, failure(endpointChat, err)
	}

	var reply turnReply
	if err := c.decode(endpointChat, resp, &reply); err != nil {
		return nil, err
	}
	if reply.Response == nil {
		return nil, malformed(endpointChat, resp.StatusCode(), `missing "response"`)
	}

	c.log.Debug().
		Str("sessionId", reply.SessionID).
		Int("recommendations", len(reply.Recommendations)).
		Dur("duration", resp.Time()).
		Msg("chat turn completed")

	return reply.result(*reply.Response), nil
}

// UploadDocument sends a document as multipart form data.
func (c *Client) UploadDocument(ctx context.Context, doc domain.Document, sessionID string, count int) (*domain.TurnResult, error) {
	if doc.Content == nil {
		return nil, failure(endpointUpload, fmt.Errorf("document %q has no content", doc.Name))
	}

	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	fields := map[string]string{
		"recommendation_count": strconv.Itoa(count),
	}
	if sessionID != "" {
		fields["session_id"] = sessionID
	}

	mediaType := doc.MediaType
	if mediaType == "" {
		mediaType = domain.DocumentMediaType
	}

	resp, err := c.rc.R().
		SetContext(ctx).
		SetMultipartField("file", doc.Name, mediaType, doc.Content).
		SetMultipartFormData(fields).
		Post(endpointUpload)
	if err != nil {
		return nil, failure(endpointUpload, err)
	}

	var reply turnReply
	if err := c.decode(endpointUpload, resp, &reply); err != nil {
		return nil, err
	}
	if reply.Message == nil {
		return nil, malformed(endpointUpload, resp.StatusCode(), `missing "message"`)
	}

	c.log.Debug().
		Str("file", doc.Name).
		Int64("size", doc.Size).
		Str("sessionId", reply.SessionID).
		Int("recommendations", len(reply.Recommendations)).
		Dur("duration", resp.Time()).
		Msg("upload turn completed")

	return reply.result(*reply.Message), nil
}

// FetchStats returns the total number of properties known to the backend.
// Callers are expected to substitute a fallback on error.
func (c *Client) FetchStats(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.rc.R().SetContext(ctx).Get(endpointStats)
	if err != nil {
		return 0, failure(endpointStats, err)
	}

	var reply statsReply
	if err := c.decode(endpointStats, resp, &reply); err != nil {
		return 0, err
	}
	if reply.TotalProperties == nil {
		return 0, malformed(endpointStats, resp.StatusCode(), `missing "total_properties"`)
	}
	return *reply.TotalProperties, nil
}

// decode checks the status and unmarshals a 2xx body into out.
func (c *Client) decode(endpoint string, resp *resty.Response, out any) error {
	if !resp.IsSuccess() {
		terr := &TransportError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode(),
			Message:    extractMessage(resp.Body(), resp.Status()),
		}
		c.log.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode()).
			Str("message", terr.Message).
			Msg("backend returned error")
		return terr
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &TransportError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode(),
			Message:    "malformed response: " + err.Error(),
			Err:        err,
		}
	}
	return nil
}

// restyLogger routes resty's internal messages into the subsystem logger.
type restyLogger struct {
	log *logging.Logger
}

func (l restyLogger) Errorf(format string, v ...any) { l.log.Error().Msgf(format, v...) }
func (l restyLogger) Warnf(format string, v ...any)  { l.log.Warn().Msgf(format, v...) }
func (l restyLogger) Debugf(format string, v ...any) { l.log.Debug().Msgf(format, v...) }
