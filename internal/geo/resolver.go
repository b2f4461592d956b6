package geo

import (
	"context"
	"net"
	"time"

	"github.com/siqiongbil/blog-analytics/internal/models"
	"go.uber.org/zap"
)

// DefaultCacheTTL время жизни записи кэша геолокации
const DefaultCacheTTL = 24 * time.Hour

// Статическая таблица известных публичных IP (DNS-резолверы).
// Резолвится без кэша и без сети.
var wellKnownIPs = map[string]models.GeoLocation{
	"8.8.8.8":        {Country: "United States", CountryCode: "US", City: "Mountain View", Org: "Google Public DNS", Source: models.GeoSourceStatic},
	"8.8.4.4":        {Country: "United States", CountryCode: "US", City: "Mountain View", Org: "Google Public DNS", Source: models.GeoSourceStatic},
	"1.1.1.1":        {Country: "Australia", CountryCode: "AU", City: "Sydney", Org: "Cloudflare DNS", Source: models.GeoSourceStatic},
	"1.0.0.1":        {Country: "Australia", CountryCode: "AU", City: "Sydney", Org: "Cloudflare DNS", Source: models.GeoSourceStatic},
	"208.67.222.222": {Country: "United States", CountryCode: "US", City: "San Francisco", Org: "OpenDNS", Source: models.GeoSourceStatic},
	"208.67.220.220": {Country: "United States", CountryCode: "US", City: "San Francisco", Org: "OpenDNS", Source: models.GeoSourceStatic},
}

// Resolver резолвит IP в GeoLocation: локальные правила, кэш,
// упорядоченная цепочка внешних провайдеров с fallback.
// Resolve никогда не возвращает ошибку — в худшем случае деградированный
// результат с country/city = "unknown".
type Resolver struct {
	cache     Cache
	providers []Provider
	ttl       time.Duration
	logger    *zap.Logger
}

// NewResolver создаёт резолвер. Провайдеры опрашиваются в переданном
// порядке, выигрывает первый успешный ответ.
func NewResolver(cache Cache, providers []Provider, ttl time.Duration, logger *zap.Logger) *Resolver {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		cache:     cache,
		providers: providers,
		ttl:       ttl,
		logger:    logger,
	}
}

// Resolve возвращает геолокацию для IP. Порядок:
// локальные правила -> кэш -> провайдеры по порядку -> деградированный результат.
// Деградированные результаты не кэшируются, чтобы следующий запрос мог повторить резолв.
func (r *Resolver) Resolve(ctx context.Context, ip string) models.GeoLocation {
	if loc, ok := resolveLocal(ip); ok {
		return loc
	}

	if entry, err := r.cache.Get(ctx, ip); err != nil {
		r.logger.Warn("Ошибка чтения кэша геолокации", zap.String("ip", ip), zap.Error(err))
	} else if entry != nil && time.Since(entry.ResolvedAt) <= r.ttl {
		return entry.Location
	}

	loc, ok := r.resolveRemote(ctx, ip)
	if !ok {
		return loc
	}

	if err := r.cache.Set(ctx, ip, &models.CachedGeoLocation{
		Location:   loc,
		ResolvedAt: time.Now(),
	}); err != nil {
		r.logger.Warn("Ошибка записи кэша геолокации", zap.String("ip", ip), zap.Error(err))
	}

	return loc
}

// ResolveBatch последовательно резолвит список IP.
// Сбой по одному IP не прерывает обработку остальных.
func (r *Resolver) ResolveBatch(ctx context.Context, ips []string) map[string]models.GeoLocation {
	result := make(map[string]models.GeoLocation, len(ips))
	for _, ip := range ips {
		result[ip] = r.Resolve(ctx, ip)
	}
	return result
}

// ClearCache полностью очищает кэш геолокации
func (r *Resolver) ClearCache(ctx context.Context) error {
	return r.cache.Clear(ctx)
}

// resolveRemote перебирает провайдеров по порядку; второй результат false
// означает деградированный ответ (все провайдеры недоступны).
// Провайдеры опрашиваются последовательно, не параллельно, чтобы не
// упираться в их rate limit.
func (r *Resolver) resolveRemote(ctx context.Context, ip string) (loc models.GeoLocation, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Паника при резолве геолокации", zap.String("ip", ip), zap.Any("panic", rec))
			loc = degraded(models.GeoSourceError)
			ok = false
		}
	}()

	for _, provider := range r.providers {
		resolved, err := provider.Resolve(ctx, ip)
		if err != nil {
			r.logger.Warn("Провайдер геолокации недоступен, переходим к следующему",
				zap.String("provider", provider.Name()),
				zap.String("ip", ip),
				zap.Error(err),
			)
			continue
		}
		return *resolved, true
	}

	return degraded(models.GeoSourceFallback), false
}

// degraded возвращает результат "unknown" с указанным источником
func degraded(source string) models.GeoLocation {
	return models.GeoLocation{
		Country: "unknown",
		City:    "unknown",
		Source:  source,
	}
}

// resolveLocal проверяет локальные правила: loopback, приватные диапазоны,
// статическая таблица известных IP. Эти правила не трогают ни кэш, ни сеть.
func resolveLocal(ip string) (models.GeoLocation, bool) {
	if ip == "localhost" {
		return localLocation(), true
	}

	if loc, ok := wellKnownIPs[ip]; ok {
		return loc, true
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return models.GeoLocation{}, false
	}

	if parsed.IsLoopback() {
		return localLocation(), true
	}

	if parsed.IsPrivate() || parsed.IsLinkLocalUnicast() {
		return models.GeoLocation{
			Country: "Internal Network",
			City:    "LAN",
			Source:  models.GeoSourceInternal,
		}, true
	}

	return models.GeoLocation{}, false
}

func localLocation() models.GeoLocation {
	return models.GeoLocation{
		Country: "Local",
		City:    "Localhost",
		Source:  models.GeoSourceLocal,
	}
}
