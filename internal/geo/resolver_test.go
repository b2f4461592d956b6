package geo_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/siqiongbil/blog-analytics/internal/geo"
	"github.com/siqiongbil/blog-analytics/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider провайдер-заглушка с подсчётом вызовов
type stubProvider struct {
	name     string
	location *models.GeoLocation
	err      error
	calls    atomic.Int64
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Resolve(_ context.Context, _ string) (*models.GeoLocation, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	loc := *s.location
	loc.Source = s.name
	return &loc, nil
}

func newTestResolver(t *testing.T, providers ...geo.Provider) (*geo.Resolver, *geo.MemoryCache) {
	t.Helper()
	cache := geo.NewMemoryCache(geo.DefaultCacheTTL)
	t.Cleanup(cache.Close)
	return geo.NewResolver(cache, providers, geo.DefaultCacheTTL, nil), cache
}

// TestResolver_LocalRules проверяет, что локальные и приватные адреса
// резолвятся без обращения к сети и кэшу
func TestResolver_LocalRules(t *testing.T) {
	provider := &stubProvider{name: "stub", err: errors.New("не должен вызываться")}
	resolver, cache := newTestResolver(t, provider)

	tests := []struct {
		ip     string
		source string
	}{
		{"127.0.0.1", models.GeoSourceLocal},
		{"::1", models.GeoSourceLocal},
		{"localhost", models.GeoSourceLocal},
		{"192.168.1.15", models.GeoSourceInternal},
		{"10.0.0.7", models.GeoSourceInternal},
		{"172.16.0.1", models.GeoSourceInternal},
		{"172.31.255.254", models.GeoSourceInternal},
		{"8.8.8.8", models.GeoSourceStatic},
		{"1.1.1.1", models.GeoSourceStatic},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			loc := resolver.Resolve(ctx, tt.ip)
			assert.Equal(t, tt.source, loc.Source)
		})
	}

	// Ни одного сетевого вызова и ни одной записи в кэше
	assert.Equal(t, int64(0), provider.calls.Load())
	assert.Equal(t, 0, cache.Len())
}

// TestResolver_CacheHit проверяет, что повторный резолв в пределах TTL
// делает не более одного внешнего вызова
func TestResolver_CacheHit(t *testing.T) {
	provider := &stubProvider{
		name:     "stub",
		location: &models.GeoLocation{Country: "Germany", CountryCode: "DE", City: "Berlin"},
	}
	resolver, _ := newTestResolver(t, provider)

	ctx := context.Background()
	first := resolver.Resolve(ctx, "93.184.216.34")
	second := resolver.Resolve(ctx, "93.184.216.34")

	assert.Equal(t, int64(1), provider.calls.Load())
	assert.Equal(t, first, second)
	assert.Equal(t, "Germany", second.Country)
}

// TestResolver_FallbackChain проверяет порядок перебора провайдеров:
// выигрывает первый успешный
func TestResolver_FallbackChain(t *testing.T) {
	broken := &stubProvider{name: "broken", err: errors.New("network error")}
	working := &stubProvider{
		name:     "working",
		location: &models.GeoLocation{Country: "France", City: "Paris"},
	}

	resolver, _ := newTestResolver(t, broken, working)

	loc := resolver.Resolve(context.Background(), "93.184.216.34")

	assert.Equal(t, int64(1), broken.calls.Load())
	assert.Equal(t, int64(1), working.calls.Load())
	assert.Equal(t, "France", loc.Country)
	assert.Equal(t, "working", loc.Source)
}

// TestResolver_AllProvidersFail проверяет деградированный результат
// и то, что он НЕ кэшируется
func TestResolver_AllProvidersFail(t *testing.T) {
	broken := &stubProvider{name: "broken", err: errors.New("network error")}
	resolver, cache := newTestResolver(t, broken)

	ctx := context.Background()
	loc := resolver.Resolve(ctx, "93.184.216.34")

	assert.Equal(t, "unknown", loc.Country)
	assert.Equal(t, "unknown", loc.City)
	assert.Equal(t, models.GeoSourceFallback, loc.Source)
	assert.Equal(t, 0, cache.Len())

	// Следующий запрос снова идёт к провайдеру, а не застревает на "unknown"
	resolver.Resolve(ctx, "93.184.216.34")
	assert.Equal(t, int64(2), broken.calls.Load())
}

// TestResolver_SuccessIsCached проверяет, что успешный резолв попадает в кэш
func TestResolver_SuccessIsCached(t *testing.T) {
	provider := &stubProvider{
		name:     "stub",
		location: &models.GeoLocation{Country: "Japan", City: "Tokyo"},
	}
	resolver, cache := newTestResolver(t, provider)

	ctx := context.Background()
	resolver.Resolve(ctx, "203.0.113.10")

	entry, err := cache.Get(ctx, "203.0.113.10")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "Japan", entry.Location.Country)
	assert.WithinDuration(t, time.Now(), entry.ResolvedAt, 5*time.Second)
}

// TestResolver_ResolveBatch проверяет, что сбой по одному IP
// не прерывает обработку остальных
func TestResolver_ResolveBatch(t *testing.T) {
	provider := &stubProvider{name: "stub", err: errors.New("network error")}
	resolver, _ := newTestResolver(t, provider)

	result := resolver.ResolveBatch(context.Background(), []string{"127.0.0.1", "93.184.216.34", "192.168.0.1"})

	require.Len(t, result, 3)
	assert.Equal(t, models.GeoSourceLocal, result["127.0.0.1"].Source)
	assert.Equal(t, models.GeoSourceFallback, result["93.184.216.34"].Source)
	assert.Equal(t, models.GeoSourceInternal, result["192.168.0.1"].Source)
}

// TestResolver_ClearCache проверяет явную очистку кэша
func TestResolver_ClearCache(t *testing.T) {
	provider := &stubProvider{
		name:     "stub",
		location: &models.GeoLocation{Country: "Japan", City: "Tokyo"},
	}
	resolver, cache := newTestResolver(t, provider)

	ctx := context.Background()
	resolver.Resolve(ctx, "203.0.113.10")
	require.Equal(t, 1, cache.Len())

	require.NoError(t, resolver.ClearCache(ctx))
	assert.Equal(t, 0, cache.Len())

	// После очистки резолв снова идёт к провайдеру
	resolver.Resolve(ctx, "203.0.113.10")
	assert.Equal(t, int64(2), provider.calls.Load())
}
