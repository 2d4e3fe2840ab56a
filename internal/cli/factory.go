package cli

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/charsheet"
	"github.com/aretw0/charsheet/internal/config"
	"github.com/aretw0/charsheet/pkg/domain"
	"github.com/aretw0/charsheet/pkg/observability"
	"github.com/aretw0/charsheet/pkg/session"
)

// newHost builds a Host from the configuration. Debug logging hooks always run
// first, followed by the extra hooks in order.
func newHost(cfg *config.Config, logger *slog.Logger, hooks ...domain.LifecycleHooks) (*charsheet.Host, error) {
	store, err := cfg.BuildStore()
	if err != nil {
		return nil, fmt.Errorf("error initializing store: %w", err)
	}
	page, err := cfg.LoadPage()
	if err != nil {
		return nil, err
	}

	all := append([]domain.LifecycleHooks{observability.DebugHooks(logger)}, hooks...)
	return charsheet.New(
		charsheet.WithStore(store),
		charsheet.WithPage(page),
		charsheet.WithLogger(logger),
		charsheet.WithLifecycleHooks(observability.Compose(all...)),
	), nil
}

// newSessions is newHost followed by Host.Sessions.
func newSessions(cfg *config.Config, logger *slog.Logger, hooks ...domain.LifecycleHooks) (*session.Manager, error) {
	host, err := newHost(cfg, logger, hooks...)
	if err != nil {
		return nil, err
	}
	return host.Sessions(), nil
}
