package geo_test

import (
	"context"
	"testing"
	"time"

	"github.com/siqiongbil/blog-analytics/internal/geo"
	"github.com/siqiongbil/blog-analytics/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEntry(country string, resolvedAt time.Time) *models.CachedGeoLocation {
	return &models.CachedGeoLocation{
		Location:   models.GeoLocation{Country: country, Source: "ip-api"},
		ResolvedAt: resolvedAt,
	}
}

// TestMemoryCache_SetGet проверяет базовый get/set
func TestMemoryCache_SetGet(t *testing.T) {
	cache := geo.NewMemoryCache(time.Hour)
	defer cache.Close()

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "1.2.3.4", newEntry("Germany", time.Now())))

	entry, err := cache.Get(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "Germany", entry.Location.Country)

	// Промах по неизвестному ключу — (nil, nil), не ошибка
	entry, err = cache.Get(ctx, "5.6.7.8")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

// TestMemoryCache_LazyExpiry проверяет ленивое вытеснение протухших записей
func TestMemoryCache_LazyExpiry(t *testing.T) {
	cache := geo.NewMemoryCache(time.Hour)
	defer cache.Close()

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "1.2.3.4", newEntry("Germany", time.Now().Add(-2*time.Hour))))
	require.Equal(t, 1, cache.Len())

	entry, err := cache.Get(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.Nil(t, entry)

	// Чтение удалило протухшую запись
	assert.Equal(t, 0, cache.Len())
}

// TestMemoryCache_Clear проверяет полную очистку
func TestMemoryCache_Clear(t *testing.T) {
	cache := geo.NewMemoryCache(time.Hour)
	defer cache.Close()

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "1.2.3.4", newEntry("Germany", time.Now())))
	require.NoError(t, cache.Set(ctx, "5.6.7.8", newEntry("France", time.Now())))
	require.Equal(t, 2, cache.Len())

	require.NoError(t, cache.Clear(ctx))
	assert.Equal(t, 0, cache.Len())
}

// TestMemoryCache_RefreshSurvivesEviction проверяет, что запись,
// обновлённая конкурентно с ленивым вытеснением протухшей версии,
// не теряется
func TestMemoryCache_RefreshSurvivesEviction(t *testing.T) {
	cache := geo.NewMemoryCache(time.Hour)
	defer cache.Close()

	ctx := context.Background()
	done := make(chan struct{})

	// Читатель постоянно натыкается на протухшие версии и вытесняет их
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			_, _ = cache.Get(ctx, "1.2.3.4")
		}
	}()

	for i := 0; i < 500; i++ {
		_ = cache.Set(ctx, "1.2.3.4", newEntry("Germany", time.Now().Add(-2*time.Hour)))
		_ = cache.Set(ctx, "1.2.3.4", newEntry("Germany", time.Now()))
	}
	<-done

	// Последняя запись свежая и обязана пережить все вытеснения
	entry, err := cache.Get(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "Germany", entry.Location.Country)
}

// TestMemoryCache_ConcurrentAccess проверяет конкурентные get/set
func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	cache := geo.NewMemoryCache(time.Hour)
	defer cache.Close()

	ctx := context.Background()
	done := make(chan struct{})

	for i := 0; i < 8; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				ip := string(rune('a'+n)) + ".example"
				_ = cache.Set(ctx, ip, newEntry("X", time.Now()))
				_, _ = cache.Get(ctx, ip)
			}
		}(i)
	}

	for i := 0; i < 8; i++ {
		<-done
	}

	assert.Equal(t, 8, cache.Len())
}
