// Command knowledgebot runs the Telegram knowledge-base assistant: it warms
// the per-group vector indexes from the document store, then serves add and
// query traffic until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	answeropenai "github.com/creastat/knowledgebot/answer/openai"
	"github.com/creastat/knowledgebot/bot"
	"github.com/creastat/knowledgebot/config"
	supabasestore "github.com/creastat/knowledgebot/docstore/supabase"
	embeddingopenai "github.com/creastat/knowledgebot/embedding/openai"
	"github.com/creastat/knowledgebot/knowledge"
	"github.com/creastat/knowledgebot/session"
	"github.com/creastat/knowledgebot/vectorstore"
	"github.com/creastat/knowledgebot/vectorstore/flat"
	qdrantstore "github.com/creastat/knowledgebot/vectorstore/qdrant"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "knowledgebot: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := supabasestore.New(supabasestore.Config{
		URL:    cfg.Supabase.URL,
		APIKey: cfg.Supabase.APIKey,
	})
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	encoder, err := embeddingopenai.New(embeddingopenai.Config{
		APIKey:    cfg.OpenAI.APIKey,
		Model:     cfg.OpenAI.EmbeddingModel,
		Dimension: cfg.OpenAI.EmbeddingDimensions,
	})
	if err != nil {
		return err
	}

	opener, closeBackend, err := newOpener(cfg, logger)
	if err != nil {
		return err
	}
	defer closeBackend()

	manager := knowledge.NewManager(opener, store, encoder, logger)
	defer func() { _ = manager.Close() }()

	logger.Info("warming group indexes")
	if err := manager.WarmAll(ctx); err != nil {
		return fmt.Errorf("warm-start failed: %w", err)
	}

	sessions, err := newSessionStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = sessions.Close() }()

	synth, err := answeropenai.New(answeropenai.Config{
		APIKey:      cfg.OpenAI.APIKey,
		Model:       cfg.OpenAI.ChatModel,
		Temperature: cfg.OpenAI.Temperature,
		MaxTokens:   cfg.OpenAI.MaxTokens,
	})
	if err != nil {
		return err
	}

	kb, err := bot.New(cfg.Telegram.Token, manager, encoder, synth, store, sessions, bot.Config{
		SearchLimit:     cfg.Search.Limit,
		HistoryMessages: cfg.Session.HistoryMessages,
		HistoryTokens:   cfg.Session.HistoryTokens,
	}, logger)
	if err != nil {
		return err
	}

	return kb.Run(ctx)
}

// newLogger builds the process logger.
func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newOpener builds the configured vector backend and returns its opener
// together with a shutdown func.
func newOpener(cfg *config.Config, logger *zap.Logger) (vectorstore.Opener, func(), error) {
	switch cfg.Vector.Backend {
	case config.BackendFlat:
		return flat.Opener(cfg.OpenAI.EmbeddingDimensions), func() {}, nil
	case config.BackendQdrant:
		client, err := qdrantstore.New(qdrantstore.Config{
			URL:              cfg.Vector.Qdrant.URL,
			APIKey:           cfg.Vector.Qdrant.APIKey,
			CollectionPrefix: cfg.Vector.Qdrant.CollectionPrefix,
			Dimension:        cfg.OpenAI.EmbeddingDimensions,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return client.Opener(), func() { _ = client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown vector backend %q", cfg.Vector.Backend)
	}
}

// newSessionStore builds the configured conversation history store.
func newSessionStore(cfg *config.Config) (session.Store, error) {
	switch cfg.Session.Store {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Session.RedisAddr,
			Password: cfg.Session.RedisPassword,
		})
		return session.NewStore(session.StoreTypeRedis,
			session.WithRedisClient(client),
			session.WithRedisTTL(cfg.Session.TTL()),
		)
	default:
		return session.NewStore(session.StoreTypeMemory)
	}
}
