package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/duongtruongbinh/life-os/internal/cache"
	"github.com/duongtruongbinh/life-os/internal/config"
	"github.com/duongtruongbinh/life-os/internal/logger"
	"github.com/duongtruongbinh/life-os/internal/reconcile"
	"github.com/duongtruongbinh/life-os/internal/store"
)

// session is one CLI invocation: config, cache, gateway and store.
type session struct {
	cfg    *config.ClientConfig
	logger *zap.Logger
	remote Remote
	store  *store.Store
	date   string
	loc    *time.Location
	save   bool

	// pushed is set once a save ran, so close does not repeat it.
	pushed bool
}

type openMode int

const (
	// withData hydrates from the cache and loads from the server when the
	// cache has never been initialized.
	withData openMode = iota
	// offline hydrates from the cache only.
	offline
)

func (e *env) open(cmd *cobra.Command, mode openMode) (*session, error) {
	cfg, err := config.LoadClient(e.viper, e.opts.configFile)
	if err != nil {
		return nil, err
	}

	zapLogger := zap.NewNop()
	if e.opts.debug {
		if zapLogger, err = logger.NewDevelopmentLogger(true); err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	c, err := cache.New(cfg.CacheDir)
	if err != nil {
		return nil, err
	}
	remote, err := e.connect(cfg, zapLogger)
	if err != nil {
		return nil, err
	}

	policy := store.NeverPolicy()
	if cfg.Autosave {
		policy = store.DebouncePolicy(cfg.AutosaveDelay)
	}
	st := store.New(remote,
		store.WithLogger(zapLogger),
		store.WithPersister(c),
		store.WithClock(e.now, e.loc),
		store.WithSavePolicy(policy),
	)
	if err := st.Hydrate(); err != nil {
		zapLogger.Warn("cache_hydrate_failed", zap.Error(err))
	}

	date := e.opts.date
	if date == "" {
		date = reconcile.DateKeyIn(e.now(), e.loc)
	} else if _, err := reconcile.ParseDateKey(date); err != nil {
		st.Close()
		return nil, err
	}

	s := &session{
		cfg:    cfg,
		logger: zapLogger,
		remote: remote,
		store:  st,
		date:   date,
		loc:    e.loc,
		save:   e.opts.save,
	}

	ctx := cmd.Context()
	state := st.State()
	if state.SelectedDate != date || state.DailyLog.Date != date {
		if mode == offline {
			st.SelectDateOffline(date)
		} else {
			st.SetSelectedDate(ctx, date)
		}
	}
	if mode == withData && !state.IsInitialized {
		s.load(ctx)
	}
	return s, nil
}

// load refreshes from the server and reports any error as a warning.
func (s *session) load(ctx context.Context) {
	s.store.LoadInitialData(ctx)
	s.warnOnError()
}

// push saves pending changes and reports whether the save succeeded.
func (s *session) push(ctx context.Context) bool {
	s.store.Scheduler().Cancel()
	s.pushed = true
	ok := s.store.SaveData(ctx)
	s.warnOnError()
	return ok
}

// close flushes pending changes when --save or autosave asks for it.
func (s *session) close(ctx context.Context) error {
	defer s.store.Close()
	defer func() {
		_ = logger.Sync(s.logger)
	}()

	pending := s.store.Scheduler().Pending()
	s.store.Scheduler().Cancel()
	if s.pushed || !s.store.State().UnsavedChanges {
		return nil
	}
	if s.save || pending || s.cfg.Autosave {
		if !s.push(ctx) {
			return errors.New("changes were kept locally; run 'lifeos push' to retry")
		}
	}
	return nil
}

func (s *session) warnOnError() {
	if msg := s.store.State().Error; msg != "" {
		_, _ = color.New(color.FgYellow).Fprintf(color.Error, "warning: %s\n", msg)
	}
}

// run opens a session, calls fn and closes the session even when fn fails.
func (e *env) run(cmd *cobra.Command, mode openMode, fn func(ctx context.Context, s *session) error) error {
	s, err := e.open(cmd, mode)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	runErr := fn(ctx, s)
	closeErr := s.close(ctx)
	if runErr != nil {
		return runErr
	}
	return closeErr
}
