// Package ingest admits candidate files for upload turns.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/soyeahso/sumai/internal/conversation"
	"github.com/soyeahso/sumai/internal/domain"
	"github.com/soyeahso/sumai/internal/hooks"
	"github.com/soyeahso/sumai/internal/logging"
)

// ErrNoFile is returned when a drop carries no usable path.
var ErrNoFile = errors.New("no file in drop")

// Uploader receives admitted documents.
type Uploader interface {
	Upload(ctx context.Context, doc domain.Document) (conversation.Outcome, error)
}

// Candidate is a file offered for upload, before admission.
type Candidate struct {
	Path      string
	Name      string
	MediaType string // declared type
	Size      int64
}

// Gate is the single admission point for both the picker and drop entry
// points.
type Gate struct {
	up    Uploader
	hooks *hooks.Manager
	log   *logging.Logger
}

// New creates a gate forwarding to up.
func New(up Uploader, h *hooks.Manager, log *logging.Logger) *Gate {
	return &Gate{up: up, hooks: h, log: log.Sub("ingest")}
}

// Pick handles an explicitly chosen file path.
func (g *Gate) Pick(ctx context.Context, path string) (conversation.Outcome, error) {
	return g.ingest(ctx, "pick", path)
}

// Drop handles text pasted by a terminal drag-and-drop. Only the first
// dropped file is used.
func (g *Gate) Drop(ctx context.Context, raw string) (conversation.Outcome, error) {
	paths := ParseDrop(raw)
	if len(paths) == 0 {
		return conversation.OutcomeRejected, ErrNoFile
	}
	if len(paths) > 1 {
		g.log.Debug().Int("files", len(paths)).Msg("multiple files dropped, using the first")
	}
	return g.ingest(ctx, "drop", paths[0])
}

func (g *Gate) ingest(ctx context.Context, source, path string) (conversation.Outcome, error) {
	cand, err := Inspect(path)
	if err != nil {
		return conversation.OutcomeRejected, err
	}

	if !Admit(cand) {
		g.log.Info().
			Str("source", source).
			Str("file", cand.Name).
			Str("mediaType", cand.MediaType).
			Msg("upload rejected")
		g.hooks.Emit(ctx, hooks.Payload{
			Event: hooks.EventNotice,
			Data: map[string]any{
				"notice": domain.ErrUnsupportedDocument.Notice,
				"reason": domain.ErrUnsupportedDocument.Reason,
			},
		})
		return conversation.OutcomeRejected, domain.ErrUnsupportedDocument
	}

	f, err := os.Open(cand.Path)
	if err != nil {
		return conversation.OutcomeRejected, fmt.Errorf("opening %s: %w", cand.Name, err)
	}
	defer f.Close()

	g.log.Debug().Str("source", source).Str("file", cand.Name).Int64("size", cand.Size).Msg("upload admitted")

	return g.up.Upload(ctx, domain.Document{
		Name:      cand.Name,
		MediaType: cand.MediaType,
		Size:      cand.Size,
		Content:   f,
	})
}

// Admit is the admission rule: the declared type must be a PDF.
func Admit(c Candidate) bool {
	return domain.IsSupportedDocument(c.MediaType)
}

// Inspect stats a path and determines its declared media type: from the
// extension when it is registered, otherwise sniffed from the content.
func Inspect(path string) (Candidate, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Candidate{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return Candidate{}, fmt.Errorf("%s is not a regular file", path)
	}

	mediaType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mediaType == "" {
		mt, err := mimetype.DetectFile(path)
		if err != nil {
			return Candidate{}, fmt.Errorf("detecting type of %s: %w", path, err)
		}
		mediaType = mt.String()
	}

	return Candidate{
		Path:      path,
		Name:      filepath.Base(path),
		MediaType: mediaType,
		Size:      info.Size(),
	}, nil
}

// LooksLikeDrop reports whether a line of input is a dropped file rather
// than a chat message: it must parse to existing absolute paths only.
func LooksLikeDrop(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	paths := ParseDrop(line)
	if len(paths) == 0 {
		return false
	}
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			return false
		}
		if info, err := os.Stat(p); err != nil || !info.Mode().IsRegular() {
			return false
		}
	}
	return true
}
