package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	backend "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/NishanthN27/Final-Year/graph"
	"github.com/NishanthN27/Final-Year/graph/emit"
	"github.com/NishanthN27/Final-Year/graph/model"
	"github.com/NishanthN27/Final-Year/graph/model/anthropic"
	"github.com/NishanthN27/Final-Year/graph/model/google"
	"github.com/NishanthN27/Final-Year/graph/model/openai"
	"github.com/NishanthN27/Final-Year/graph/store"
	"github.com/NishanthN27/Final-Year/internal/config"
	"github.com/NishanthN27/Final-Year/interview"
	"github.com/NishanthN27/Final-Year/interview/agents"
	"github.com/NishanthN27/Final-Year/interview/profile"
	"github.com/NishanthN27/Final-Year/interview/questionbank"
)

// sessionLockTTL bounds how long a crashed process can hold a session on the
// shared lockers.
const sessionLockTTL = 5 * time.Minute

// ModelFactory builds the fast and pro chat models. A nil pro model means
// the fast model serves every role.
type ModelFactory func(ctx context.Context, cfg config.LLMConfig) (fast, pro model.ChatModel, closers []func() error, err error)

// app holds everything a command needs for one invocation.
type app struct {
	cfg         *config.Config
	logger      *zap.Logger
	interviewer *interview.Interviewer
	sessions    store.Store[interview.SessionState]
	costs       *model.CostTracker
	events      *emit.BufferedEmitter

	closers []func(context.Context) error
}

// newApp wires storage, telemetry, models and the interviewer from cfg.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, models ModelFactory) (*app, error) {
	a := &app{cfg: cfg, logger: logger, costs: model.NewCostTracker()}
	if err := a.wire(ctx, models); err != nil {
		a.Close(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context, models ModelFactory) error {
	cfg, logger := a.cfg, a.logger

	sessions, profiles, locker, err := a.openStores(ctx)
	if err != nil {
		return err
	}
	a.sessions = sessions

	emitter, err := a.emitter(ctx)
	if err != nil {
		return err
	}

	engineOpts := []graph.Option{}
	if cfg.Engine.MaxSteps > 0 {
		engineOpts = append(engineOpts, graph.WithMaxSteps(cfg.Engine.MaxSteps))
	}
	if locker != nil {
		engineOpts = append(engineOpts, graph.WithLocker(locker))
	}
	if cfg.Metrics.Addr != "" {
		engineOpts = append(engineOpts, graph.WithMetrics(a.serveMetrics(cfg.Metrics.Addr)))
	}

	fast, pro, modelClosers, err := models(ctx, cfg.LLM)
	if err != nil {
		return err
	}
	for _, c := range modelClosers {
		c := c
		a.closers = append(a.closers, func(context.Context) error { return c() })
	}
	fast = model.Tracked(fast, modelName(cfg.LLM, cfg.LLM.Model), a.costs)
	if pro != nil {
		pro = model.Tracked(pro, modelName(cfg.LLM, cfg.LLM.ProModel), a.costs)
	}

	agentOpts := []agents.Option{}
	if cfg.Interview.PlanLength > 0 {
		agentOpts = append(agentOpts, agents.WithPlanLength(cfg.Interview.PlanLength))
	}
	if cfg.Interview.QuestionBank != "" {
		bank, err := questionbank.Load(cfg.Interview.QuestionBank)
		if err != nil {
			return err
		}
		logger.Debug("question bank loaded", zap.Int("questions", bank.Len()), zap.Strings("domains", bank.Domains()))
		agentOpts = append(agentOpts, agents.WithQuestionBank(bank))
	}
	ag, err := agents.New(fast, pro, agentOpts...)
	if err != nil {
		return err
	}

	retry := &graph.RetryPolicy{
		MaxAttempts: cfg.LLM.Retries + 1,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Retryable:   interview.Retryable,
	}
	a.interviewer, err = interview.New(ag.Collaborators(), sessions, emitter,
		interview.WithMaxFollowUps(cfg.Interview.MaxFollowUps),
		interview.WithNodeTimeout(cfg.LLM.Timeout),
		interview.WithRetry(retry),
		interview.WithProfileStore(profiles),
		interview.WithEngineOptions(engineOpts...),
	)
	return err
}

// openStores opens the checkpoint store selected by store.driver together
// with a profile store and a session locker on the same backend. The memory
// driver leaves the locker to the engine's in-process default.
func (a *app) openStores(ctx context.Context) (store.Store[interview.SessionState], interview.ProfileStore, store.Locker, error) {
	cfg := a.cfg.Store
	switch cfg.Driver {
	case "memory":
		return store.NewMemStore[interview.SessionState](), profile.NewMemoryStore(), nil, nil

	case "sqlite":
		st, err := store.NewSQLiteStore[interview.SessionState](cfg.DSN)
		if err != nil {
			return nil, nil, nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return st.Close() })
		profiles, err := profile.NewSQLStore(ctx, st.DB())
		if err != nil {
			return nil, nil, nil, err
		}
		locker, err := store.NewSQLiteLocker(st.DB(), sessionLockTTL)
		if err != nil {
			return nil, nil, nil, err
		}
		return st, profiles, locker, nil

	case "mysql":
		st, err := store.NewMySQLStore[interview.SessionState](cfg.DSN)
		if err != nil {
			return nil, nil, nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return st.Close() })
		profiles, err := profile.NewSQLStore(ctx, st.DB())
		if err != nil {
			return nil, nil, nil, err
		}
		return st, profiles, store.NewMySQLLocker(st.DB(), config.App+":"), nil

	case "redis":
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		st := store.NewRedisStore[interview.SessionState](client,
			store.WithPrefix(cfg.Redis.Prefix+"session:"),
			store.WithTTL(cfg.Redis.TTL),
		)
		profiles := profile.NewRedisStore(client, cfg.Redis.Prefix+"profile:", 0)
		return st, profiles, store.NewRedisLocker(client, cfg.Redis.Prefix, sessionLockTTL), nil
	}
	return nil, nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

// emitter logs engine events, keeps them for the interactive trace and,
// when tracing.endpoint is set, exports them as spans over OTLP/HTTP.
func (a *app) emitter(ctx context.Context) (emit.Emitter, error) {
	a.events = emit.NewBufferedEmitter()
	local := emit.Multi(emit.NewLogEmitter(a.logger), a.events)
	if a.cfg.Tracing.Endpoint == "" {
		return local, nil
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(a.cfg.Tracing.Endpoint)}
	if a.cfg.Tracing.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	a.closers = append(a.closers, tp.Shutdown)
	return emit.Multi(local, emit.NewOTelEmitter(tp.Tracer(config.App))), nil
}

// serveMetrics exposes engine metrics on addr until the app is closed.
func (a *app) serveMetrics(addr string) *graph.PrometheusMetrics {
	registry := prometheus.NewRegistry()
	metrics := graph.NewPrometheusMetrics(registry)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Warn("metrics server stopped", zap.String("addr", addr), zap.Error(err))
		}
	}()
	a.closers = append(a.closers, srv.Shutdown)
	a.logger.Info("serving metrics", zap.String("addr", addr))
	return metrics
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
	if a.costs != nil && len(a.costs.Calls()) > 0 {
		in, out := a.costs.Tokens()
		a.logger.Info("model usage",
			zap.Int("calls", len(a.costs.Calls())),
			zap.Int64("input_tokens", in),
			zap.Int64("output_tokens", out),
			zap.Float64("cost_usd", a.costs.Total()),
		)
	}
}

// ProviderModels is the default ModelFactory. The API key falls back to the
// provider's usual environment variable.
func ProviderModels(ctx context.Context, cfg config.LLMConfig) (model.ChatModel, model.ChatModel, []func() error, error) {
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv(providerKeyEnv[cfg.Provider])
	}

	build := func(name string) (model.ChatModel, func() error, error) {
		opts := model.Options{Model: name, JSON: true}
		switch cfg.Provider {
		case "google":
			m, err := google.NewChatModel(ctx, key, opts)
			if err != nil {
				return nil, nil, err
			}
			return m, m.Close, nil
		case "openai":
			m, err := openai.NewChatModel(key, opts)
			return m, nil, err
		case "anthropic":
			m, err := anthropic.NewChatModel(key, opts)
			return m, nil, err
		}
		return nil, nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}

	var closers []func() error
	fast, closeFast, err := build(cfg.Model)
	if err != nil {
		return nil, nil, nil, err
	}
	if closeFast != nil {
		closers = append(closers, closeFast)
	}
	if cfg.ProModel == "" {
		return fast, nil, closers, nil
	}
	pro, closePro, err := build(cfg.ProModel)
	if err != nil {
		for _, c := range closers {
			_ = c()
		}
		return nil, nil, nil, err
	}
	if closePro != nil {
		closers = append(closers, closePro)
	}
	return fast, pro, closers, nil
}

var providerKeyEnv = map[string]string{
	"google":    "GOOGLE_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
}

// modelName is the name costs are recorded under.
func modelName(cfg config.LLMConfig, name string) string {
	if name != "" {
		return name
	}
	switch cfg.Provider {
	case "google":
		return google.DefaultModel
	case "openai":
		return openai.DefaultModel
	case "anthropic":
		return anthropic.DefaultModel
	}
	return cfg.Provider
}
