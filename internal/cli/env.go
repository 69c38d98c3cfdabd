package cli

import (
	"context"

	"github.com/existflow/taskrelay/internal/config"
	"github.com/existflow/taskrelay/internal/engine"
	"github.com/existflow/taskrelay/internal/logger"
	"github.com/existflow/taskrelay/internal/netmon"
	"github.com/existflow/taskrelay/internal/remote"
	"github.com/existflow/taskrelay/internal/store"
	"github.com/existflow/taskrelay/internal/tasks"
)

// Env bundles the wired-up application for a command invocation.
type Env struct {
	Store   *store.Store
	Service *tasks.Service
	Session *remote.Session

	monitor *netmon.Monitor
	cancel  context.CancelFunc
}

// openLocal wires the store, and the reconciliation engine when a session
// exists, without starting any background loops. One-shot commands use this;
// network activity happens only when the command asks for it.
func openLocal() (*Env, error) {
	st, err := store.OpenDefault()
	if err != nil {
		return nil, err
	}

	session, err := remote.NewSession()
	if err != nil {
		st.Close()
		return nil, err
	}

	env := &Env{Store: st, Session: session}

	if session.IsLoggedIn() {
		cfg, err := config.Load()
		if err != nil {
			cfg = config.DefaultConfig()
		}
		gw := remote.NewHTTPGateway(session, cfg.ChangePollInterval())
		eng := engine.New(st, gw, nil, session.UserID())
		env.Service = tasks.New(st, eng, nil)
	} else {
		env.Service = tasks.New(st, nil, nil)
	}

	return env, nil
}

// openEnv wires everything openLocal does plus the connectivity monitor and
// the engine's background trigger loop. The TUI runs on this.
func openEnv(ctx context.Context) (*Env, error) {
	st, err := store.OpenDefault()
	if err != nil {
		return nil, err
	}

	session, err := remote.NewSession()
	if err != nil {
		st.Close()
		return nil, err
	}

	env := &Env{Store: st, Session: session}

	if !session.IsLoggedIn() {
		logger.Debug("No session, running local-only")
		env.Service = tasks.New(st, nil, nil)
		return env, nil
	}

	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	env.cancel = cancel

	monitor := netmon.New(
		netmon.HTTPProber(session.ServerURL()+"/health"),
		cfg.ProbeInterval(),
	)
	monitor.Start(ctx)
	env.monitor = monitor

	gw := remote.NewHTTPGateway(session, cfg.ChangePollInterval())
	eng := engine.New(st, gw, monitor, session.UserID())
	env.Service = tasks.New(st, eng, monitor)

	go func() {
		if err := eng.Run(ctx); err != nil {
			logger.Error("Engine stopped", logger.F("error", err))
		}
	}()

	return env, nil
}

// Close tears down background loops and the store.
func (e *Env) Close() {
	if e.cancel != nil {
		e.cancel()
	}
	if e.monitor != nil {
		e.monitor.Stop()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}
