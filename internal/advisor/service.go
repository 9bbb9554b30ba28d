package advisor

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/iwvelando/loan-tracker/internal/config"
	"github.com/iwvelando/loan-tracker/pkg/format"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Advice sources.
const (
	SourceProvider = "provider"
	SourceCache    = "cache"
	SourceFallback = "fallback"
)

const (
	// DefaultTimeout bounds a single provider call.
	DefaultTimeout = 20 * time.Second
	// DefaultCacheTTL is how long generated commentary is reused.
	DefaultCacheTTL = 24 * time.Hour
	// DefaultMemoryCacheSize is the entry limit of the in-process cache.
	DefaultMemoryCacheSize = 128
)

// Advice is the commentary returned to callers.
type Advice struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// Options tunes a Service.
type Options struct {
	Timeout   time.Duration
	CacheTTL  time.Duration
	Formatter *format.Formatter
}

// Service turns loan summaries into commentary. Identical concurrent requests
// share one provider call and results are cached by prompt.
type Service struct {
	provider  Provider
	cache     Cache
	timeout   time.Duration
	cacheTTL  time.Duration
	formatter *format.Formatter
	logger    *zap.Logger
	group     singleflight.Group
}

// NewService creates a service. A nil provider makes every call return the
// fallback; a nil cache disables caching.
func NewService(provider Provider, cache Cache, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.Formatter == nil {
		opts.Formatter = format.Default()
	}
	return &Service{
		provider:  provider,
		cache:     cache,
		timeout:   opts.Timeout,
		cacheTTL:  opts.CacheTTL,
		formatter: opts.Formatter,
		logger:    logger,
	}
}

// NewFromConfig builds the service described by cfg. Misconfiguration is
// logged and yields a service that only returns the fallback.
func NewFromConfig(ctx context.Context, cfg config.AdvisorConfig, f *format.Formatter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := Options{Timeout: cfg.Timeout, CacheTTL: cfg.CacheTTL, Formatter: f}
	if !cfg.Enabled {
		return NewService(nil, nil, opts, logger)
	}

	provider, err := newProvider(ctx, cfg)
	if err != nil {
		logger.Warn("advisor disabled",
			zap.String("op", "advisor.NewFromConfig"),
			zap.String("provider", cfg.Provider),
			zap.Error(err),
		)
		return NewService(nil, nil, opts, logger)
	}

	var cache Cache
	if cfg.RedisAddr != "" {
		cache = NewRedisCache(cfg.RedisAddr, logger)
	} else {
		cache = NewMemoryCache(DefaultMemoryCacheSize)
	}

	logger.Info("advisor enabled",
		zap.String("op", "advisor.NewFromConfig"),
		zap.String("provider", provider.Name()),
		zap.Bool("redis", cfg.RedisAddr != ""),
	)
	return NewService(provider, cache, opts, logger)
}

func newProvider(ctx context.Context, cfg config.AdvisorConfig) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "gemini", "":
		return NewGeminiProvider(ctx, apiKey(cfg.APIKeyEnv, "GEMINI_API_KEY"), cfg.Model)
	case "openai":
		return NewOpenAIProvider(apiKey(cfg.APIKeyEnv, "OPENAI_API_KEY"), cfg.BaseURL, cfg.Model)
	default:
		return nil, &UnknownProviderError{Provider: cfg.Provider}
	}
}

func apiKey(env, fallbackEnv string) string {
	if env == "" {
		env = fallbackEnv
	}
	return strings.TrimSpace(os.Getenv(env))
}

// UnknownProviderError reports an unsupported provider name.
type UnknownProviderError struct {
	Provider string
}

func (e *UnknownProviderError) Error() string {
	return "unknown advisor provider: " + e.Provider
}

// Enabled reports whether a provider is configured.
func (s *Service) Enabled() bool {
	return s.provider != nil
}

// Advise returns commentary for the summary. It never fails: provider
// errors, timeouts and empty answers all produce FallbackMessage.
func (s *Service) Advise(ctx context.Context, summary Summary) Advice {
	fallback := Advice{Text: FallbackMessage, Source: SourceFallback}
	if s.provider == nil {
		return fallback
	}

	prompt := BuildPrompt(summary, s.formatter)
	key := CacheKey(s.provider.Name(), prompt)

	if text, ok := s.cacheGet(ctx, key); ok {
		return Advice{Text: text, Source: SourceCache}
	}

	// The flight is shared, so it must outlive the caller that started it.
	flightCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		if text, ok := s.cacheGet(flightCtx, key); ok {
			return Advice{Text: text, Source: SourceCache}, nil
		}

		callCtx, cancel := context.WithTimeout(flightCtx, s.timeout)
		defer cancel()

		start := time.Now()
		text, err := s.provider.Generate(callCtx, prompt)
		if err != nil {
			return nil, err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, ErrEmptyResponse
		}
		s.logger.Debug("advice generated",
			zap.String("op", "advisor.Advise"),
			zap.String("provider", s.provider.Name()),
			zap.Duration("duration", time.Since(start)),
		)

		if s.cache != nil {
			if err := s.cache.Set(flightCtx, key, text, s.cacheTTL); err != nil {
				s.logger.Warn("failed to cache advice",
					zap.String("op", "advisor.Advise"),
					zap.Error(err),
				)
			}
		}
		return Advice{Text: text, Source: SourceProvider}, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		s.logger.Debug("caller gave up waiting for advice",
			zap.String("op", "advisor.Advise"),
			zap.Error(ctx.Err()),
		)
		return fallback
	}
	if res.Err != nil {
		s.logger.Warn("advice generation failed, using fallback",
			zap.String("op", "advisor.Advise"),
			zap.String("provider", s.provider.Name()),
			zap.Bool("shared", res.Shared),
			zap.Error(res.Err),
		)
		return fallback
	}

	return res.Val.(Advice)
}

func (s *Service) cacheGet(ctx context.Context, key string) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	return s.cache.Get(ctx, key)
}

// Close releases the cache connection if it holds one.
func (s *Service) Close() error {
	if closer, ok := s.cache.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
