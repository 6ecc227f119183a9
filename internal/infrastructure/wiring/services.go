package wiring

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/prdreview/internal/domain/submission"
	"github.com/felixgeelhaar/prdreview/internal/infrastructure/config"
	"github.com/felixgeelhaar/prdreview/pkg/client"
	"github.com/felixgeelhaar/prdreview/pkg/domain/presentation"
	"go.uber.org/zap"
)

// AppServices exposes the client, session and presentation settings built
// from one configuration.
type AppServices struct {
	Config  *config.Config
	Logger  *zap.Logger
	Client  *client.Client
	Session *submission.Session
	Tags    presentation.Tags
}

// BuildAppServices constructs the API client and a fresh submission session.
func BuildAppServices(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*AppServices, error) {
	return BuildAppServicesWithReviewer(ctx, cfg, logger, nil)
}

// BuildAppServicesWithReviewer lets callers put a custom reviewer behind the
// session. A nil reviewer uses the API client.
func BuildAppServicesWithReviewer(ctx context.Context, cfg *config.Config, logger *zap.Logger, reviewer submission.Reviewer) (*AppServices, error) {
	if cfg == nil {
		defaults := config.Defaults()
		cfg = &defaults
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := client.New(cfg.API.BaseURL,
		client.WithTimeout(cfg.API.Timeout),
		client.WithHealthTimeout(cfg.API.HealthTimeout),
		client.WithLogger(logger.Named("client")),
	)
	if reviewer == nil {
		reviewer = c
	}

	session, err := submission.NewSession(reviewer,
		submission.WithLogger(logger.Named("session")),
		submission.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build submission session: %w", err)
	}

	logger.Debug("services ready",
		zap.String("api_base", c.BaseURL()),
		zap.String("env", cfg.Env),
		zap.String("config", cfg.Source))

	return &AppServices{
		Config:  cfg,
		Logger:  logger,
		Client:  c,
		Session: session,
		Tags:    presentation.Tags{Strict: cfg.Strict()},
	}, nil
}

// Close waits for in-flight reviews and flushes the logger.
func (s *AppServices) Close() {
	if s == nil {
		return
	}
	if s.Session != nil {
		s.Session.Close()
	}
	_ = s.Logger.Sync()
}
