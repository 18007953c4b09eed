package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonwraymond/codescout/config"
	"github.com/jonwraymond/codescout/observe"
	"github.com/jonwraymond/codescout/research"
	"github.com/jonwraymond/codescout/secret"
)

type globalOptions struct {
	configPath string
	logLevel   string
	anonymous  bool
}

// loadConfig returns the file config, or the defaults when no path is set.
func (g *globalOptions) loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if g.configPath != "" {
		var err error
		if cfg, err = config.Load(g.configPath); err != nil {
			return nil, err
		}
	}
	if g.logLevel != "" {
		cfg.Observe.Logging.Level = strings.ToLower(g.logLevel)
		if err := cfg.Observe.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// app is everything one command invocation needs.
type app struct {
	cfg      *config.Config
	observer observe.Observer
	orch     *research.Orchestrator
	token    secret.Token
}

func (g *globalOptions) open(ctx context.Context) (*app, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Observe.Version == "" {
		cfg.Observe.Version = version
	}

	observer, err := observe.NewObserver(ctx, cfg.Observe)
	if err != nil {
		return nil, err
	}
	mw, err := observe.MiddlewareFromObserver(observer)
	if err != nil {
		_ = observer.Shutdown(ctx)
		return nil, err
	}

	a := &app{cfg: cfg, observer: observer}
	if !g.anonymous {
		tok, err := cfg.TokenChain().Token(ctx)
		switch {
		case err == nil:
			a.token = tok
			mw.Logger().Debug(ctx, "github token found", observe.Field{Key: "source", Value: tok.Source})
		case errors.Is(err, secret.ErrNoToken):
			mw.Logger().Warn(ctx, "no GitHub token found, calling anonymously")
		default:
			_ = observer.Shutdown(ctx)
			return nil, err
		}
	}

	policy := cfg.Cache.Policy
	contentConfig := cfg.Content
	a.orch, err = research.New(research.Config{
		GitHub:  cfg.GitHub,
		Cache:   &policy,
		Keys:    cfg.Cache.Keys,
		Content: &contentConfig,
		Health: research.HealthConfig{
			MinHitRate:   cfg.Health.MinHitRate,
			LowRemaining: cfg.Health.LowRemaining,
			MaxHeapBytes: cfg.Health.MaxHeapBytes,
		},
		Observer: mw,
	})
	if err != nil {
		_ = observer.Shutdown(ctx)
		return nil, err
	}
	return a, nil
}

func (a *app) close() {
	_ = a.orch.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = a.observer.Shutdown(ctx)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// splitRepo parses "owner/repo".
func splitRepo(s string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(s, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("repository %q: want owner/repo", s)
	}
	return owner, repo, nil
}
