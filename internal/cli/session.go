package cli

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/meur/tiermaker/internal/board"
	"github.com/meur/tiermaker/internal/client"
	"github.com/meur/tiermaker/internal/config"
	"github.com/meur/tiermaker/internal/logging"
	"github.com/meur/tiermaker/internal/storage"
	"github.com/meur/tiermaker/internal/tierlist"
)

// env is everything a command needs to act on the tier list.
type env struct {
	cfg     config.Client
	log     *zap.Logger
	store   storage.DocumentStore
	client  *client.Client
	monitor *client.Monitor
	session *tierlist.Session
}

func (e *env) Close() {
	if e.store != nil {
		_ = e.store.Close()
	}
	_ = e.log.Sync()
}

// open loads the client settings and wires the session.
func (a *app) open() (*env, error) {
	cfg, err := config.LoadClient(a.v)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(cfg.StateBackend, cfg.StatePath, log)
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("open state: %w", err)
	}

	c := client.New(cfg.APIURL, client.WithLogger(log))
	mon := client.NewMonitor(c, client.DefaultPollInterval, log)
	engine := board.New(board.WithStrict(cfg.Strict), board.WithLogger(log))

	return &env{
		cfg:     cfg,
		log:     log,
		store:   store,
		client:  c,
		monitor: mon,
		session: tierlist.NewSession(store, tierlist.Options{
			Engine:   engine,
			Uploader: c,
			Monitor:  mon,
			APIURL:   cfg.APIURL,
			Logger:   log,
		}),
	}, nil
}
