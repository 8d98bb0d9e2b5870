package cli

import (
	"fmt"

	"github.com/soyeahso/sumai/internal/config"
	"github.com/soyeahso/sumai/internal/conversation"
	"github.com/soyeahso/sumai/internal/hooks"
	"github.com/soyeahso/sumai/internal/ingest"
	"github.com/soyeahso/sumai/internal/logging"
	"github.com/soyeahso/sumai/internal/stats"
	"github.com/soyeahso/sumai/internal/store"
	"github.com/soyeahso/sumai/internal/transport"
	"github.com/soyeahso/sumai/internal/version"
)

// app is the wired client: one backend, one conversation.
type app struct {
	cfg     config.Config
	client  *transport.Client
	hooks   *hooks.Manager
	db      *store.DB
	journal *store.Journal
	stats   *stats.Loader
	ctrl    *conversation.Controller
	gate    *ingest.Gate
	log     *logging.Logger
}

func newApp(cfg config.Config, log *logging.Logger) (*app, error) {
	client := transport.New(transport.Options{
		BaseURL:       cfg.Backend.BaseURL,
		Token:         cfg.Backend.Token,
		Timeout:       cfg.Backend.Timeout(),
		UploadTimeout: cfg.Backend.UploadTimeout(),
		UserAgent:     version.UserAgent(),
	}, log)

	db, err := store.Open(log)
	if err != nil {
		return nil, fmt.Errorf("opening turn journal: %w", err)
	}
	journal := store.NewJournal(db)

	hookMgr := hooks.NewManager(log)
	loader := stats.NewLoader(client, cfg.Chat.StatsFallback, cfg.Chat.StatsCacheTTL(), log)

	ctrl := conversation.New(client, conversation.Options{
		RecommendationCount: cfg.Chat.RecommendationCount,
		Hooks:               hookMgr,
		Journal:             journal,
		Stats:               loader,
	}, log)

	return &app{
		cfg:     cfg,
		client:  client,
		hooks:   hookMgr,
		db:      db,
		journal: journal,
		stats:   loader,
		ctrl:    ctrl,
		gate:    ingest.New(ctrl, hookMgr, log),
		log:     log,
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}
