package service

import (
	"context"
	"math"
	"net/url"
	"sort"
	"strings"

	"github.com/siqiongbil/blog-analytics/internal/models"
	"github.com/siqiongbil/blog-analytics/internal/repository"
	"go.uber.org/zap"
)

// Известные поисковики: подстрока домена -> метка источника
var searchEngines = []struct {
	token string
	label string
}{
	{"google.", "Google"},
	{"bing.", "Bing"},
	{"yandex.", "Yandex"},
	{"baidu.", "Baidu"},
	{"duckduckgo.", "DuckDuckGo"},
	{"yahoo.", "Yahoo"},
	{"sogou.", "Sogou"},
	{"ecosia.", "Ecosia"},
}

// StatsService read-only отчёты по посещениям.
// Все операции параметризуются окном в днях; невалидные параметры
// отклоняются, а не подменяются дефолтом.
type StatsService interface {
	GetTrends(ctx context.Context, days int) ([]models.TrendPoint, error)
	GetHotArticles(ctx context.Context, limit, days int) ([]models.HotArticle, error)
	GetRefererStats(ctx context.Context, days int) ([]models.RefererStat, error)
	GetDeviceStats(ctx context.Context, days int) ([]models.DeviceStat, error)
	GetHourlyStats(ctx context.Context, days int) ([]models.HourlyStat, error)
	GetLocationStats(ctx context.Context, days int) ([]models.LocationStat, error)
	GetCountryStats(ctx context.Context, days int) ([]models.CountryStat, error)
}

type statsService struct {
	statsRepo repository.StatsRepository
	logger    *zap.Logger
}

// NewStatsService создаёт сервис отчётов
func NewStatsService(statsRepo repository.StatsRepository, logger *zap.Logger) StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &statsService{statsRepo: statsRepo, logger: logger}
}

// validateDays проверяет окно отчёта
func validateDays(days int) error {
	if days < 1 || days > maxDays {
		return ErrInvalidDays
	}
	return nil
}

// GetTrends возвращает посещения по дням за окно, новые дни первыми
func (s *statsService) GetTrends(ctx context.Context, days int) ([]models.TrendPoint, error) {
	if err := validateDays(days); err != nil {
		return nil, err
	}
	return s.statsRepo.GetTrends(ctx, days)
}

// GetHotArticles возвращает топ статей за окно. На полностью пустом
// хранилище сразу возвращает пустой список без агрегирующих запросов.
func (s *statsService) GetHotArticles(ctx context.Context, limit, days int) ([]models.HotArticle, error) {
	if limit < 1 || limit > maxLimit {
		return nil, ErrInvalidLimit
	}
	if err := validateDays(days); err != nil {
		return nil, err
	}

	total, err := s.statsRepo.TotalVisits(ctx)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return []models.HotArticle{}, nil
	}

	return s.statsRepo.GetHotArticles(ctx, limit, days)
}

// GetRefererStats распределяет источники перехода по категориям:
// direct (пустой referer), известные поисковики, прочие домены
func (s *statsService) GetRefererStats(ctx context.Context, days int) ([]models.RefererStat, error) {
	if err := validateDays(days); err != nil {
		return nil, err
	}

	counts, err := s.statsRepo.GetRefererCounts(ctx, days)
	if err != nil {
		return nil, err
	}

	type bucketKey struct {
		category string
		source   string
	}
	buckets := make(map[bucketKey]int64)

	for referer, count := range counts {
		category, source := classifyReferer(referer)
		buckets[bucketKey{category, source}] += count
	}

	stats := make([]models.RefererStat, 0, len(buckets))
	for key, count := range buckets {
		stats = append(stats, models.RefererStat{
			Category: key.category,
			Source:   key.source,
			Count:    count,
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Source < stats[j].Source
	})

	return stats, nil
}

// classifyReferer относит referer к категории и источнику
func classifyReferer(referer string) (category, source string) {
	if strings.TrimSpace(referer) == "" {
		return models.RefererDirect, "direct"
	}

	host := refererHost(referer)
	if host == "" {
		return models.RefererOther, "unknown"
	}

	for _, engine := range searchEngines {
		if strings.Contains(host, engine.token) {
			return models.RefererSearch, engine.label
		}
	}

	return models.RefererOther, host
}

// refererHost извлекает домен из URL источника; "www." отбрасывается
func refererHost(referer string) string {
	parsed, err := url.Parse(referer)
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		// referer без схемы, например "example.com/page"
		if parsed, err = url.Parse("http://" + referer); err != nil {
			return ""
		}
		host = strings.ToLower(parsed.Hostname())
	}
	return strings.TrimPrefix(host, "www.")
}

// GetDeviceStats возвращает распределение по типам устройств с долями.
// Знаменатель процента — число строк окна, не глобальный итог.
// На пустом окне возвращает пустой список, а не деление на ноль.
func (s *statsService) GetDeviceStats(ctx context.Context, days int) ([]models.DeviceStat, error) {
	if err := validateDays(days); err != nil {
		return nil, err
	}

	counts, err := s.statsRepo.GetDeviceCounts(ctx, days)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, count := range counts {
		total += count
	}
	if total == 0 {
		return []models.DeviceStat{}, nil
	}

	stats := make([]models.DeviceStat, 0, len(counts))
	for deviceType, count := range counts {
		stats = append(stats, models.DeviceStat{
			DeviceType: deviceType,
			Count:      count,
			Percent:    percent(count, total),
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].DeviceType < stats[j].DeviceType
	})

	return stats, nil
}

// GetHourlyStats возвращает распределение посещений по часу суток за окно
func (s *statsService) GetHourlyStats(ctx context.Context, days int) ([]models.HourlyStat, error) {
	if err := validateDays(days); err != nil {
		return nil, err
	}
	return s.statsRepo.GetHourlyStats(ctx, days)
}

// GetLocationStats возвращает детальное распределение по локациям с долями
func (s *statsService) GetLocationStats(ctx context.Context, days int) ([]models.LocationStat, error) {
	if err := validateDays(days); err != nil {
		return nil, err
	}

	stats, err := s.statsRepo.GetLocationCounts(ctx, days)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, stat := range stats {
		total += stat.Count
	}
	if total == 0 {
		return []models.LocationStat{}, nil
	}

	for i := range stats {
		stats[i].Percent = percent(stats[i].Count, total)
	}

	return stats, nil
}

// GetCountryStats возвращает распределение по странам с долями
func (s *statsService) GetCountryStats(ctx context.Context, days int) ([]models.CountryStat, error) {
	if err := validateDays(days); err != nil {
		return nil, err
	}

	stats, err := s.statsRepo.GetCountryCounts(ctx, days)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, stat := range stats {
		total += stat.Count
	}
	if total == 0 {
		return []models.CountryStat{}, nil
	}

	for i := range stats {
		stats[i].Percent = percent(stats[i].Count, total)
	}

	return stats, nil
}

// percent доля count от total в процентах с округлением до двух знаков
func percent(count, total int64) float64 {
	return math.Round(float64(count)/float64(total)*10000) / 100
}
