package cli

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"github.com/esantoro/gaphor"
	"github.com/esantoro/gaphor/internal/config"
	"github.com/esantoro/gaphor/pkg/adapters/file"
	"github.com/esantoro/gaphor/pkg/adapters/memory"
	redisadapter "github.com/esantoro/gaphor/pkg/adapters/redis"
	"github.com/esantoro/gaphor/pkg/domain"
	"github.com/esantoro/gaphor/pkg/observability"
	"github.com/esantoro/gaphor/pkg/persistence/middleware"
	"github.com/esantoro/gaphor/pkg/ports"
	"github.com/esantoro/gaphor/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
)

// Stack holds the infrastructure shared by every document of a process:
// the backup store, the optional distributed locker and the metrics registry.
type Stack struct {
	Config   *config.Config
	Store    ports.SnapshotStore
	Locker   ports.DistributedLocker
	Registry *prometheus.Registry
	Metrics  *observability.Metrics
	Logger   *slog.Logger

	closers []func() error
}

// NewStack builds the stack described by cfg.
func NewStack(cfg *config.Config, logger *slog.Logger) (*Stack, error) {
	s := &Stack{
		Config:   cfg,
		Registry: prometheus.NewRegistry(),
		Logger:   logger,
	}

	metrics, err := observability.NewMetrics(s.Registry)
	if err != nil {
		return nil, fmt.Errorf("error registering metrics: %w", err)
	}
	s.Metrics = metrics

	switch cfg.Store.Kind {
	case config.StoreNone:
	case config.StoreMemory:
		s.Store = memory.NewStore()
	case config.StoreFile:
		s.Store = file.New(cfg.Store.Dir)
	case config.StoreRedis:
		rc := cfg.Store.Redis
		store := redisadapter.New(rc.Addr, rc.Password, rc.DB,
			redisadapter.WithPrefix(rc.Prefix+"backup:"),
			redisadapter.WithTTL(rc.TTL),
		)
		s.Store = store
		s.Locker = redisadapter.NewLocker(store.Client(), rc.Prefix)
		s.closers = append(s.closers, store.Close)
	default:
		return nil, fmt.Errorf("%w: unknown store kind %q", config.ErrInvalidConfig, cfg.Store.Kind)
	}

	if s.Store != nil && cfg.Store.EncryptionKey != "" {
		mw, err := encryption(cfg.Store)
		if err != nil {
			return nil, errors.Join(err, s.Close())
		}
		s.Store = middleware.Chain(s.Store, mw)
	}

	logger.Debug("stack ready", "store", cfg.Store.Kind)
	return s, nil
}

func encryption(sc config.StoreConfig) (middleware.Middleware, error) {
	decode := func(k string) ([]byte, error) {
		key, err := base64.StdEncoding.DecodeString(k)
		if err != nil {
			return nil, fmt.Errorf("%w: encryption key is not base64: %v", config.ErrInvalidConfig, err)
		}
		return key, nil
	}

	var ec middleware.EncryptionConfig
	var err error
	if ec.ActiveKey, err = decode(sc.EncryptionKey); err != nil {
		return nil, err
	}
	for _, k := range sc.FallbackKeys {
		key, err := decode(k)
		if err != nil {
			return nil, err
		}
		ec.FallbackKeys = append(ec.FallbackKeys, key)
	}
	return middleware.NewEncryptionMiddleware(ec)
}

// Hooks returns the lifecycle hooks every document of this stack carries.
func (s *Stack) Hooks(documentID string) domain.LifecycleHooks {
	return s.Metrics.Hooks(documentID).Merge(createDebugHooks(s.Logger.With("document", documentID)))
}

// NewApplication builds (without initializing) the Application for a document.
func (s *Stack) NewApplication(documentID string, extra ...domain.LifecycleHooks) *gaphor.Application {
	hooks := s.Hooks(documentID)
	for _, h := range extra {
		hooks = hooks.Merge(h)
	}

	opts := []gaphor.Option{
		gaphor.WithID(documentID),
		gaphor.WithLogger(s.Logger),
		gaphor.WithStackLimit(s.Config.StackLimit),
		gaphor.WithLifecycleHooks(hooks),
	}
	if s.Store != nil {
		opts = append(opts, gaphor.WithStore(s.Store, s.Config.Backup.RestoreOnOpen, s.Config.Backup.OnClose))
	}
	return gaphor.New(opts...)
}

// Documents builds the document registry for long running hosts (serve, mcp).
// extra, when set, adds per-document hooks such as SSE broadcasting.
func (s *Stack) Documents(extra func(documentID string) domain.LifecycleHooks) *session.Manager {
	opener := func(ctx context.Context, id string) (*gaphor.Application, error) {
		if extra != nil {
			return s.NewApplication(id, extra(id)), nil
		}
		return s.NewApplication(id), nil
	}

	opts := []session.Option{
		session.WithLogger(s.Logger),
		session.WithCloseHook(s.Metrics.Forget),
	}
	if s.Locker != nil {
		opts = append(opts,
			session.WithLocker(s.Locker),
			session.WithLockTTL(s.Config.Store.Redis.LockTTL),
		)
	}
	return session.NewManager(opener, opts...)
}

// Close releases store connections.
func (s *Stack) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
