// Package app wires the match server: storage, rules engine, token
// minting, propagation, and the HTTP and WebSocket surfaces.
package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	httpapi "github.com/midgame-live/midgame/internal/api/http"
	wsapi "github.com/midgame-live/midgame/internal/api/ws"
	"github.com/midgame-live/midgame/internal/match/broadcast"
	"github.com/midgame-live/midgame/internal/match/service"
	"github.com/midgame-live/midgame/internal/match/storage"
	"github.com/midgame-live/midgame/internal/match/storage/memory"
	"github.com/midgame-live/midgame/internal/match/storage/retrystore"
	"github.com/midgame-live/midgame/internal/match/storage/sqlite"
	"github.com/midgame-live/midgame/internal/rules"
	"github.com/midgame-live/midgame/internal/token"
)

// Config is the server configuration, loaded from MIDGAME_* environment
// variables.
type Config struct {
	// Addr is the listen address of the HTTP server.
	Addr string `env:"MIDGAME_ADDR" envDefault:":8080"`
	// DBPath selects the SQLite database file. Empty runs on the
	// in-memory store, which does not survive restarts.
	DBPath string `env:"MIDGAME_DB_PATH"`
	// TokenSecret signs occupant tokens. When unset a random secret is
	// generated at startup, which invalidates outstanding tokens on
	// every restart.
	TokenSecret string `env:"MIDGAME_TOKEN_SECRET"`
	// RulesScript points at a Lua rules script. Empty selects the
	// built-in evaluation.
	RulesScript string `env:"MIDGAME_RULES_SCRIPT"`
	// Propagation selects how WebSocket subscribers receive state:
	// "push" fans out in process, "poll" re-reads the store on an
	// interval. Poll suits deployments where another process writes the
	// same database.
	Propagation string `env:"MIDGAME_PROPAGATION" envDefault:"push"`
	// PollInterval is the poll propagation interval.
	PollInterval time.Duration `env:"MIDGAME_POLL_INTERVAL" envDefault:"1s"`
	// ShutdownGrace bounds the drain time on shutdown.
	ShutdownGrace time.Duration `env:"MIDGAME_SHUTDOWN_GRACE" envDefault:"10s"`
}

// Run assembles the server from cfg and serves until ctx is canceled.
func Run(ctx context.Context, cfg Config, logger *log.Logger) error {
	if logger == nil {
		logger = log.Default()
	}

	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	engine, err := loadEngine(cfg)
	if err != nil {
		return err
	}

	secret := cfg.TokenSecret
	if secret == "" {
		secret = randomSecret()
		logger.Printf("MIDGAME_TOKEN_SECRET is not set; using an ephemeral secret")
	}
	minter, err := token.NewMinter([]byte(secret), nil)
	if err != nil {
		return fmt.Errorf("token minter: %w", err)
	}

	broker := broadcast.NewBroker()
	svc, err := service.New(service.Config{
		Store:     store,
		Engine:    engine,
		Publisher: broker,
		Tokens:    minter,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("match service: %w", err)
	}

	subscriber, err := chooseSubscriber(cfg, broker, svc)
	if err != nil {
		return err
	}

	router := httpapi.NewRouter(svc, logger)
	wsapi.NewHandler(subscriber, svc.GetSnapshot, logger).Register(router)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Printf("listening on %s (propagation=%s)", cfg.Addr, cfg.Propagation)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

// openStore selects the durable or in-memory store and wraps it with
// the retry policy.
func openStore(cfg Config, logger *log.Logger) (storage.SessionStore, func(), error) {
	if cfg.DBPath == "" {
		logger.Printf("MIDGAME_DB_PATH is not set; sessions are held in memory only")
		return retrystore.New(memory.New()), func() {}, nil
	}
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite store: %w", err)
	}
	return retrystore.New(store), func() { _ = store.Close() }, nil
}

func loadEngine(cfg Config) (rules.Engine, error) {
	if cfg.RulesScript == "" {
		return rules.Default(), nil
	}
	script, err := os.ReadFile(cfg.RulesScript)
	if err != nil {
		return nil, fmt.Errorf("read rules script: %w", err)
	}
	engine, err := rules.NewLuaEngine(string(script))
	if err != nil {
		return nil, fmt.Errorf("load rules script: %w", err)
	}
	return engine, nil
}

func chooseSubscriber(cfg Config, broker *broadcast.Broker, svc *service.Service) (broadcast.Subscriber, error) {
	switch cfg.Propagation {
	case "push":
		return broker, nil
	case "poll":
		return broadcast.NewWatcher(svc.GetSnapshot, cfg.PollInterval), nil
	default:
		return nil, fmt.Errorf("unknown propagation mode %q", cfg.Propagation)
	}
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("read random secret: %v", err))
	}
	return hex.EncodeToString(buf)
}
