package advisor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/iwvelando/loan-tracker/internal/config"
	"go.uber.org/zap"
)

type fakeProvider struct {
	text    string
	err     error
	calls   atomic.Int32
	release chan struct{}
	started chan struct{}
	once    sync.Once
}

func (f *fakeProvider) Name() string { return "fake/model" }

func (f *fakeProvider) Generate(ctx context.Context, _ string) (string, error) {
	f.calls.Add(1)
	if f.started != nil {
		f.once.Do(func() { close(f.started) })
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.text, f.err
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) (string, bool) { return "", false }

func (failingCache) Set(context.Context, string, string, time.Duration) error {
	return errors.New("cache unavailable")
}

func TestAdviseWithoutProvider(t *testing.T) {
	service := NewService(nil, nil, Options{}, nil)

	if service.Enabled() {
		t.Error("service without provider should report disabled")
	}
	advice := service.Advise(context.Background(), referenceSummary())
	if advice.Text != FallbackMessage || advice.Source != SourceFallback {
		t.Errorf("Advise() = %+v, expected fallback", advice)
	}
}

func TestAdviseCachesResult(t *testing.T) {
	provider := &fakeProvider{text: "Consider extra payments early.\n"}
	service := NewService(provider, NewMemoryCache(4), Options{}, zap.NewNop())

	first := service.Advise(context.Background(), referenceSummary())
	if first.Text != "Consider extra payments early." || first.Source != SourceProvider {
		t.Errorf("first Advise() = %+v", first)
	}

	second := service.Advise(context.Background(), referenceSummary())
	if second.Text != first.Text || second.Source != SourceCache {
		t.Errorf("second Advise() = %+v, expected cached text", second)
	}
	if calls := provider.calls.Load(); calls != 1 {
		t.Errorf("provider called %d times, expected 1", calls)
	}
}

func TestAdviseFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		provider *fakeProvider
	}{
		{name: "Provider error", provider: &fakeProvider{err: errors.New("quota exceeded")}},
		{name: "Empty response", provider: &fakeProvider{text: "  \n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := NewMemoryCache(4)
			service := NewService(tt.provider, cache, Options{}, nil)

			advice := service.Advise(context.Background(), referenceSummary())
			if advice.Text != FallbackMessage || advice.Source != SourceFallback {
				t.Errorf("Advise() = %+v, expected fallback", advice)
			}
			if cache.Len() != 0 {
				t.Error("failures must not be cached")
			}
		})
	}
}

func TestAdviseTimeout(t *testing.T) {
	provider := &fakeProvider{text: "late", release: make(chan struct{})}
	defer close(provider.release)
	service := NewService(provider, nil, Options{Timeout: 20 * time.Millisecond}, nil)

	start := time.Now()
	advice := service.Advise(context.Background(), referenceSummary())
	if advice.Source != SourceFallback {
		t.Errorf("Advise() = %+v, expected fallback after timeout", advice)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Advise() took %v, timeout not applied", elapsed)
	}
}

func TestAdviseCollapsesConcurrentRequests(t *testing.T) {
	provider := &fakeProvider{
		text:    "Shared advice.",
		release: make(chan struct{}),
		started: make(chan struct{}),
	}
	service := NewService(provider, NewMemoryCache(4), Options{Timeout: 5 * time.Second}, nil)

	const callers = 8
	results := make([]Advice, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = service.Advise(context.Background(), referenceSummary())
		}(i)
	}

	<-provider.started
	time.Sleep(20 * time.Millisecond)
	close(provider.release)
	wg.Wait()

	if calls := provider.calls.Load(); calls != 1 {
		t.Errorf("provider called %d times, expected 1", calls)
	}
	for i, advice := range results {
		if advice.Text != "Shared advice." {
			t.Errorf("caller %d got %+v", i, advice)
		}
	}
}

func TestAdviseSurvivesFirstCallerCancel(t *testing.T) {
	provider := &fakeProvider{
		text:    "Shared advice.",
		release: make(chan struct{}),
		started: make(chan struct{}),
	}
	service := NewService(provider, NewMemoryCache(4), Options{Timeout: 5 * time.Second}, nil)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	first := make(chan Advice, 1)
	go func() {
		first <- service.Advise(firstCtx, referenceSummary())
	}()
	<-provider.started

	second := make(chan Advice, 1)
	go func() {
		second <- service.Advise(context.Background(), referenceSummary())
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	if advice := <-first; advice.Source != SourceFallback {
		t.Errorf("cancelled caller got %+v, expected fallback", advice)
	}

	close(provider.release)
	advice := <-second
	if advice.Text != "Shared advice." || advice.Source != SourceProvider {
		t.Errorf("remaining caller got %+v, expected the provider answer", advice)
	}
	if calls := provider.calls.Load(); calls != 1 {
		t.Errorf("provider called %d times, expected 1", calls)
	}
	if cached, ok := service.cache.Get(context.Background(), CacheKey(provider.Name(), BuildPrompt(referenceSummary(), nil))); !ok || cached != "Shared advice." {
		t.Errorf("expected the answer to be cached, got %q", cached)
	}
}

func TestAdviseCacheWriteFailure(t *testing.T) {
	provider := &fakeProvider{text: "Still useful."}
	service := NewService(provider, failingCache{}, Options{}, nil)

	advice := service.Advise(context.Background(), referenceSummary())
	if advice.Text != "Still useful." || advice.Source != SourceProvider {
		t.Errorf("Advise() = %+v, cache failures should not affect the answer", advice)
	}
}

func TestNewFromConfig(t *testing.T) {
	t.Setenv("LOAN_TRACKER_TEST_KEY", "")

	tests := []struct {
		name    string
		cfg     config.AdvisorConfig
		enabled bool
	}{
		{name: "Disabled", cfg: config.AdvisorConfig{}, enabled: false},
		{name: "Unknown provider", cfg: config.AdvisorConfig{Enabled: true, Provider: "oracle"}, enabled: false},
		{name: "Missing key", cfg: config.AdvisorConfig{Enabled: true, Provider: "openai", APIKeyEnv: "LOAN_TRACKER_TEST_KEY"}, enabled: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewFromConfig(context.Background(), tt.cfg, nil, nil)
			if service.Enabled() != tt.enabled {
				t.Errorf("Enabled() = %v, expected %v", service.Enabled(), tt.enabled)
			}
			if err := service.Close(); err != nil {
				t.Errorf("Close() error = %v", err)
			}
		})
	}

	t.Run("OpenAI with key", func(t *testing.T) {
		t.Setenv("LOAN_TRACKER_TEST_KEY", "secret")
		service := NewFromConfig(context.Background(), config.AdvisorConfig{
			Enabled: true, Provider: "openai", APIKeyEnv: "LOAN_TRACKER_TEST_KEY", BaseURL: "http://127.0.0.1:1",
		}, nil, zap.NewNop())
		if !service.Enabled() {
			t.Fatal("expected advisor to be enabled")
		}
		advice := service.Advise(context.Background(), referenceSummary())
		if advice.Source != SourceFallback {
			t.Errorf("unreachable endpoint should fall back, got %+v", advice)
		}
	})
}
