package main

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/kakao/partnersso/adapters/events"
	"github.com/kakao/partnersso/adapters/prefs"
	"github.com/kakao/partnersso/adapters/recordcodec"
	"github.com/kakao/partnersso/adapters/securestore"
	"github.com/kakao/partnersso/internal/config"
	"github.com/kakao/partnersso/ports"
	"github.com/kakao/partnersso/service"
)

// agent holds the components shared by all commands
type agent struct {
	cfg      *config.Config
	redis    *redis.Client
	store    *securestore.RedisStore
	codec    ports.RecordCodec
	provider *service.SSOProvider
	closers  []func() error
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func buildAgent(ctx context.Context, cfg *config.Config) (*agent, error) {
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)

	a := &agent{
		cfg:     cfg,
		redis:   client,
		store:   securestore.NewRedisStore(client),
		codec:   recordcodec.NewJSONCodec(),
		closers: []func() error{client.Close},
	}

	preferences, err := a.preferences()
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	var eventPub ports.EventPublisher
	if cfg.Events.Enabled {
		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{
				Client: client,
			},
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("creating event publisher: %w", err)
		}
		a.closers = append([]func() error{publisher.Close}, a.closers...)
		eventPub = events.NewWatermillPublisher(publisher)
	}

	a.provider = service.NewSSOProvider(
		a.store,
		a.codec,
		preferences,
		eventPub,
		cfg.DeploymentPhase(),
		log.Logger.With().Str("component", "sso").Logger(),
	)
	if err := a.provider.Prepare(ctx, cfg.AccessGroup); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("preparing sso provider: %w", err)
	}

	log.Debug().
		Str("phase", string(cfg.DeploymentPhase())).
		Str("access_group", cfg.AccessGroup).
		Str("prefs", cfg.Prefs.Backend).
		Bool("events", cfg.Events.Enabled).
		Msg("sso provider ready")
	return a, nil
}

func (a *agent) preferences() (ports.Preferences, error) {
	if a.cfg.Prefs.Backend == "redis" {
		return prefs.NewRedisPreferences(a.redis, a.cfg.Prefs.Installation), nil
	}

	path := a.cfg.Prefs.Path
	if path == "" {
		var err error
		if path, err = prefs.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return prefs.NewFilePreferences(path), nil
}

func (a *agent) Close() error {
	var firstErr error
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
