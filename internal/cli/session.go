package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"sync"

	"github.com/rileyhilliard/lookout/internal/config"
	"github.com/rileyhilliard/lookout/internal/engine"
	"github.com/rileyhilliard/lookout/internal/errors"
	"github.com/rileyhilliard/lookout/internal/logger"
	"github.com/rileyhilliard/lookout/internal/server"
)

// session is one loaded config, its logger and the engine built from it.
type session struct {
	mu       sync.Mutex // guards cfg and path across reloads
	cfg      *config.Config
	path     string
	log      logger.Logger
	closeLog func() error
	engine   *engine.Engine
}

// sessionOptions controls how openSession behaves.
type sessionOptions struct {
	// Console receives log output when the config names no log directory.
	// Nil discards it.
	Console io.Writer
	// AllowEmpty keeps going without targets instead of failing.
	AllowEmpty bool
}

// openSession loads and validates the config, sets up logging and builds
// a loaded engine.
func openSession(opts sessionOptions) (*session, error) {
	cfg, path, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, err
	}

	log, closeLog, err := newSessionLogger(cfg.Log, opts.Console)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Can't set up logging",
			"Check log.dir and log.level in your config")
	}
	logger.SetDefault(log)

	s := &session{cfg: cfg, path: path, log: log, closeLog: closeLog}

	if cfg.IsValid() {
		if err := config.Validate(cfg); err != nil {
			_ = s.Close()
			return nil, err
		}
	} else if !opts.AllowEmpty {
		_ = s.Close()
		return nil, errors.New(errors.ErrConfig,
			"No targets to watch",
			fmt.Sprintf("Create %s with a 'servers' or 'groups' section, or pass --config", config.ConfigFileName))
	}

	s.engine = engine.New(engine.Options{Logger: logger.Named(log, "engine")})
	if err := s.engine.Load(cfg, path); err != nil && !opts.AllowEmpty {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func newSessionLogger(cfg config.LogConfig, console io.Writer) (logger.Logger, func() error, error) {
	if cfg.Dir == "" && console == nil {
		return logger.Noop(), func() error { return nil }, nil
	}
	return logger.New(logger.Options{
		Dir:     cfg.Dir,
		Level:   cfg.Level,
		Debug:   debug,
		Console: console,
	})
}

// reload re-reads the config from disk and swaps it into the engine. A
// broken file is reported and the running tree is kept.
func (s *session) reload() error {
	cfg, path, err := config.LoadOrDefault(cfgFile)
	if err == nil && cfg.IsValid() {
		err = config.Validate(cfg)
	}
	if err != nil {
		s.log.Warn("reload failed: %v", err)
		return err
	}
	s.mu.Lock()
	s.cfg, s.path = cfg, path
	s.mu.Unlock()
	return s.engine.Reconfigure(cfg, path)
}

// watchConfig reconfigures the engine whenever the config file changes.
// It returns at once when no file was loaded.
func (s *session) watchConfig(ctx context.Context) error {
	s.mu.Lock()
	path := s.path
	s.mu.Unlock()
	if path == "" {
		return nil
	}
	return config.Watch(ctx, path, config.DefaultReloadDebounce, logger.Named(s.log, "config"), func(cfg *config.Config) {
		s.mu.Lock()
		s.cfg = cfg
		s.mu.Unlock()
		if err := s.engine.Reconfigure(cfg, path); err != nil {
			s.log.Warn("reconfigure failed: %v", err)
		}
	})
}

// newServer builds the status API. A non-empty addr overrides the config.
func (s *session) newServer(addr string) *server.Server {
	s.mu.Lock()
	sc := s.cfg.Server
	s.mu.Unlock()
	if addr == "" {
		addr = sc.Addr
	}
	return server.New(s.engine, server.Options{
		Addr:           addr,
		AllowedOrigins: sc.AllowedOrigins,
		PushInterval:   sc.PushInterval,
		Logger:         logger.Named(s.log, "server"),
	})
}

// Close shuts the engine down and flushes the logger.
func (s *session) Close() error {
	var errs []error
	if s.engine != nil {
		errs = append(errs, s.engine.Close())
	}
	if s.closeLog != nil {
		errs = append(errs, s.closeLog())
	}
	return stderrors.Join(errs...)
}
