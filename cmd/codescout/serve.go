package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/codescout/auth"
	"github.com/jonwraymond/codescout/githubapi"
	"github.com/jonwraymond/codescout/health"
	"github.com/jonwraymond/codescout/observe"
	"github.com/jonwraymond/codescout/research"
)

const maxRequestBody = 1 << 20

func newServeCmd(g *globalOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"serve-health"},
		Short:   "Serve health checks and the research API over HTTP",
		Long: `Serve keeps one orchestrator and its cache alive and exposes it over HTTP.

  GET  /healthz /readyz /health /health/{name}   health checks
  GET  /metrics                                   Prometheus metrics (metrics.exporter: prometheus)
  GET  /v1/stats                                  cache, key and client counters
  GET  /v1/report                                 issues and recommendations
  DELETE /v1/cache /v1/cache/{prefix}             drop cached responses
  POST /v1/search/{kind}                          {"filter": {...}, "options": {...}}
  POST /v1/fetch                                  a fetch request
  POST /v1/tree                                   a structure request

A request's X-GitHub-Token header replaces the discovered GitHub token.
The /v1 routes require the scope named by their path (admin for stats,
report and cache) when the auth section configures API keys or a JWT secret.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			a, err := g.open(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if listen == "" {
				listen = a.cfg.Health.Listen
			}
			logger := a.observer.Logger()
			mux, err := newServeMux(a, logger)
			if err != nil {
				return err
			}
			srv := &http.Server{
				Addr:              listen,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			}

			eg, ctx := errgroup.WithContext(ctx)
			eg.Go(func() error {
				logger.Info(ctx, "listening", observe.Field{Key: "addr", Value: listen})
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			eg.Go(func() error {
				<-ctx.Done()
				shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
				defer done()
				logger.Info(shutdownCtx, "shutting down")
				return srv.Shutdown(shutdownCtx)
			})
			return eg.Wait()
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default: health.listen)")
	return cmd
}

func newServeMux(a *app, logger observe.Logger) (*http.ServeMux, error) {
	guard, err := auth.NewGuard(a.cfg.Auth, logger)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	health.RegisterHandlers(mux, a.orch.HealthAggregator())
	if a.cfg.Observe.Metrics.Enabled && a.cfg.Observe.Metrics.Exporter == "prometheus" {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	s := &server{app: a}
	route := func(pattern, scope string, h http.HandlerFunc) {
		mux.Handle(pattern, guard.Require(scope, h))
	}
	route("GET /v1/stats", auth.ScopeAdmin, func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, a.orch.Stats())
	})
	route("GET /v1/report", auth.ScopeAdmin, func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, a.orch.Health(r.Context()))
	})
	route("DELETE /v1/cache", auth.ScopeAdmin, func(w http.ResponseWriter, r *http.Request) {
		a.orch.FlushAll()
		w.WriteHeader(http.StatusNoContent)
	})
	route("DELETE /v1/cache/{prefix}", auth.ScopeAdmin, func(w http.ResponseWriter, r *http.Request) {
		n, err := a.orch.FlushPrefix(r.PathValue("prefix"))
		if err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusOK, map[string]int{"removed": n})
	})
	route("POST /v1/search/{kind}", auth.ScopeSearch, s.search)
	route("POST /v1/fetch", auth.ScopeFetch, s.fetch)
	route("POST /v1/tree", auth.ScopeTree, s.tree)
	return mux, nil
}

type server struct {
	app *app
}

type searchBody struct {
	Filter    json.RawMessage         `json:"filter"`
	Options   githubapi.SearchOptions `json:"options"`
	RequestID string                  `json:"request_id"`
}

func (s *server) search(w http.ResponseWriter, r *http.Request) {
	kind, err := research.ParseKind(r.PathValue("kind"))
	if err != nil {
		respond(w, http.StatusNotFound, errorBody{Error: err.Error(), Kind: githubapi.KindInvalidQuery.String()})
		return
	}
	var body searchBody
	if !decodeBody(w, r, &body) {
		return
	}
	filter, err := research.NewFilter(kind)
	if err != nil {
		respondError(w, err)
		return
	}
	if len(body.Filter) > 0 {
		if err := decodeStrict(body.Filter, filter); err != nil {
			respond(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf("%s filter: %v", kind, err), Kind: githubapi.KindInvalidQuery.String()})
			return
		}
	}

	resp, err := s.app.orch.Search(r.Context(), kind, filter, research.CallOptions{
		SearchOptions: body.Options,
		Token:         s.token(r),
		RequestID:     requestID(r, body.RequestID),
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, resp)
}

func (s *server) fetch(w http.ResponseWriter, r *http.Request) {
	var req research.FetchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Token = s.token(r)
	req.RequestID = requestID(r, "")
	res, err := s.app.orch.FetchContent(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, res)
}

func (s *server) tree(w http.ResponseWriter, r *http.Request) {
	var req research.StructureRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Token = s.token(r)
	req.RequestID = requestID(r, "")
	listing, err := s.app.orch.ViewStructure(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, listing)
}

func (s *server) token(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get("X-GitHub-Token")); v != "" {
		return v
	}
	return s.app.token.Value
}

func requestID(r *http.Request, fallback string) string {
	if id := r.Header.Get("X-Request-Id"); id != "" {
		return id
	}
	return fallback
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	data, err := readAll(w, r)
	if err == nil && len(bytes.TrimSpace(data)) > 0 {
		err = decodeStrict(data, v)
	}
	if err != nil {
		respond(w, http.StatusBadRequest, errorBody{Error: "decode request: " + err.Error(), Kind: githubapi.KindInvalidQuery.String()})
		return false
	}
	return true
}

func readAll(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(http.MaxBytesReader(w, r.Body, maxRequestBody)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

type errorBody struct {
	Error      string `json:"error"`
	Kind       string `json:"kind"`
	RetryAfter string `json:"retry_after,omitempty"`
	ScopeHint  string `json:"scope_hint,omitempty"`
}

func respondError(w http.ResponseWriter, err error) {
	e := githubapi.Classify(err)
	body := errorBody{Error: e.Error(), Kind: e.Kind.String(), ScopeHint: e.ScopeHint}
	if e.RetryAfter > 0 {
		body.RetryAfter = e.RetryAfter.String()
		w.Header().Set("Retry-After", fmt.Sprint(int(e.RetryAfter.Seconds()+0.5)))
	}
	respond(w, httpStatus(e.Kind), body)
}

func httpStatus(k githubapi.Kind) int {
	switch k {
	case githubapi.KindInvalidQuery:
		return http.StatusBadRequest
	case githubapi.KindUnauthenticated:
		return http.StatusUnauthorized
	case githubapi.KindForbidden:
		return http.StatusForbidden
	case githubapi.KindNotFound:
		return http.StatusNotFound
	case githubapi.KindRateLimited, githubapi.KindSecondaryRateLimited:
		return http.StatusTooManyRequests
	case githubapi.KindServerUnavailable, githubapi.KindNetwork:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func respond(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
