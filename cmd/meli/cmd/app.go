package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/donaldgifford/meli-client/internal/config"
	"github.com/donaldgifford/meli-client/internal/meli"
	"github.com/donaldgifford/meli-client/internal/store"
	"github.com/donaldgifford/meli-client/internal/telemetry"
	"github.com/donaldgifford/meli-client/pkg/logger"
)

// app wires the config, store, telemetry and client for one command run.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	store    store.Store
	client   *meli.Client
	shutdown telemetry.ShutdownFunc
}

func loadConfig() (*config.Config, error) {
	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, err
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if u := viper.GetString("base-url"); u != "" {
		cfg.Meli.BaseURL = u
	}
	if lvl := viper.GetString("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	return cfg, nil
}

// newApp builds the client. Credentials saved by an earlier run take
// precedence over the ones in the config file.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	tp, shutdown, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("setting up telemetry: %w", err)
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("opening credential store: %w", err)
	}

	a := &app{cfg: cfg, log: log, store: st, shutdown: shutdown}

	// The local SQLite file is created on first use; PostgreSQL schemas
	// are managed with `meli migrate`.
	if cfg.Store.Driver == config.DriverSQLite {
		if err := st.Migrate(ctx); err != nil {
			_ = a.Close(ctx)
			return nil, fmt.Errorf("migrating credential store: %w", err)
		}
	}

	clientCfg := cfg.Meli.ClientConfig()
	saved, err := st.LoadCredentials(ctx, cfg.Meli.ClientID)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		_ = a.Close(ctx)
		return nil, fmt.Errorf("loading saved credentials: %w", err)
	default:
		merged := store.Merge(meli.Credentials{
			AccessToken:  clientCfg.AccessToken,
			RefreshToken: clientCfg.RefreshToken,
			ExpiresAt:    clientCfg.ExpiresAt,
		}, saved)
		clientCfg.AccessToken = merged.AccessToken
		clientCfg.RefreshToken = merged.RefreshToken
		clientCfg.ExpiresAt = merged.ExpiresAt
		log.Debug("using saved credentials", "user_id", merged.UserID)
	}

	opts := []meli.Option{
		meli.WithLogger(log),
		meli.WithTracerProvider(tp),
		meli.WithCredentialSaver(st),
		meli.WithTimeout(cfg.Meli.Timeout),
	}
	if rl := cfg.Meli.RateLimit; rl.PerSecond > 0 {
		opts = append(opts, meli.WithRateLimiter(meli.NewRateLimiter(rl.PerSecond, rl.Burst, rl.DailyLimit)))
	}

	a.client, err = meli.New(clientCfg, opts...)
	if err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("creating client: %w", err)
	}

	return a, nil
}

// Close flushes spans and releases the store.
func (a *app) Close(ctx context.Context) error {
	return errors.Join(a.shutdown(ctx), a.store.Close())
}
