package repository

import (
	"context"
	"fmt"

	"github.com/siqiongbil/blog-analytics/internal/models"
)

// StatsRepository read-only агрегирующие запросы по таблице visits.
// Возвращает сырые счётчики; проценты и бакеты считает сервисный слой.
type StatsRepository interface {
	TotalVisits(ctx context.Context) (int64, error)
	GetTrends(ctx context.Context, days int) ([]models.TrendPoint, error)
	GetHotArticles(ctx context.Context, limit, days int) ([]models.HotArticle, error)
	GetRefererCounts(ctx context.Context, days int) (map[string]int64, error)
	GetDeviceCounts(ctx context.Context, days int) (map[models.DeviceType]int64, error)
	GetHourlyStats(ctx context.Context, days int) ([]models.HourlyStat, error)
	GetLocationCounts(ctx context.Context, days int) ([]models.LocationStat, error)
	GetCountryCounts(ctx context.Context, days int) ([]models.CountryStat, error)
}

type statsRepository struct {
	db *PostgresDB
}

func NewStatsRepository(db *PostgresDB) StatsRepository {
	return &statsRepository{db: db}
}

// TotalVisits возвращает общее число записей в хранилище
func (r *statsRepository) TotalVisits(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM visits`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count visits: %w", err)
	}
	return total, nil
}

// GetTrends возвращает посещения и уникальные IP по дням за окно,
// новые дни первыми
func (r *statsRepository) GetTrends(ctx context.Context, days int) ([]models.TrendPoint, error) {
	query := `
		SELECT
			TO_CHAR(DATE(visited_at), 'YYYY-MM-DD') AS date,
			COUNT(*) AS total_visits,
			COUNT(DISTINCT visitor_ip) AS unique_visitors
		FROM visits
		WHERE visited_at >= NOW() - INTERVAL '1 day' * $1
		GROUP BY DATE(visited_at)
		ORDER BY DATE(visited_at) DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, days)
	if err != nil {
		return nil, fmt.Errorf("failed to get trends: %w", err)
	}
	defer rows.Close()

	trends := []models.TrendPoint{}
	for rows.Next() {
		var point models.TrendPoint
		if err := rows.Scan(&point.Date, &point.TotalVisits, &point.UniqueVisitors); err != nil {
			return nil, fmt.Errorf("failed to scan trend point: %w", err)
		}
		trends = append(trends, point)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trends: %w", err)
	}

	return trends, nil
}

// GetHotArticles возвращает топ статей по посещениям за окно.
// Уникальные посетители считаются вторым проходом — отдельным запросом
// на каждую строку результата; основной запрос уже ограничен limit.
func (r *statsRepository) GetHotArticles(ctx context.Context, limit, days int) ([]models.HotArticle, error) {
	query := `
		SELECT article_id, MAX(article_title) AS article_title, COUNT(*) AS total_visits
		FROM visits
		WHERE visited_at >= NOW() - INTERVAL '1 day' * $1
		GROUP BY article_id
		ORDER BY total_visits DESC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, days, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get hot articles: %w", err)
	}
	defer rows.Close()

	articles := []models.HotArticle{}
	for rows.Next() {
		var article models.HotArticle
		if err := rows.Scan(&article.ArticleID, &article.ArticleTitle, &article.TotalVisits); err != nil {
			return nil, fmt.Errorf("failed to scan hot article: %w", err)
		}
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hot articles: %w", err)
	}

	uniqueQuery := `
		SELECT COUNT(DISTINCT visitor_ip)
		FROM visits
		WHERE article_id = $1 AND visited_at >= NOW() - INTERVAL '1 day' * $2
	`

	for i := range articles {
		if err := r.db.Pool.QueryRow(ctx, uniqueQuery, articles[i].ArticleID, days).Scan(&articles[i].UniqueVisitors); err != nil {
			return nil, fmt.Errorf("failed to count unique visitors for article %d: %w", articles[i].ArticleID, err)
		}
	}

	return articles, nil
}

// GetRefererCounts возвращает количество посещений по каждому referer
// (включая пустой) за окно
func (r *statsRepository) GetRefererCounts(ctx context.Context, days int) (map[string]int64, error) {
	query := `
		SELECT COALESCE(referer, ''), COUNT(*)
		FROM visits
		WHERE visited_at >= NOW() - INTERVAL '1 day' * $1
		GROUP BY COALESCE(referer, '')
	`

	rows, err := r.db.Pool.Query(ctx, query, days)
	if err != nil {
		return nil, fmt.Errorf("failed to get referer counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var referer string
		var count int64
		if err := rows.Scan(&referer, &count); err != nil {
			return nil, fmt.Errorf("failed to scan referer count: %w", err)
		}
		counts[referer] += count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating referer counts: %w", err)
	}

	return counts, nil
}

// GetDeviceCounts возвращает количество посещений по типам устройств за окно
func (r *statsRepository) GetDeviceCounts(ctx context.Context, days int) (map[models.DeviceType]int64, error) {
	query := `
		SELECT device_type, COUNT(*)
		FROM visits
		WHERE visited_at >= NOW() - INTERVAL '1 day' * $1
		GROUP BY device_type
	`

	rows, err := r.db.Pool.Query(ctx, query, days)
	if err != nil {
		return nil, fmt.Errorf("failed to get device counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.DeviceType]int64)
	for rows.Next() {
		var deviceType int
		var count int64
		if err := rows.Scan(&deviceType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan device count: %w", err)
		}
		counts[models.DeviceType(deviceType)] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating device counts: %w", err)
	}

	return counts, nil
}

// GetHourlyStats возвращает количество посещений по часу суток (0-23) за окно
func (r *statsRepository) GetHourlyStats(ctx context.Context, days int) ([]models.HourlyStat, error) {
	query := `
		SELECT EXTRACT(HOUR FROM visited_at)::int AS hour, COUNT(*) AS count
		FROM visits
		WHERE visited_at >= NOW() - INTERVAL '1 day' * $1
		GROUP BY hour
		ORDER BY hour
	`

	rows, err := r.db.Pool.Query(ctx, query, days)
	if err != nil {
		return nil, fmt.Errorf("failed to get hourly stats: %w", err)
	}
	defer rows.Close()

	stats := []models.HourlyStat{}
	for rows.Next() {
		var stat models.HourlyStat
		if err := rows.Scan(&stat.Hour, &stat.Count); err != nil {
			return nil, fmt.Errorf("failed to scan hourly stat: %w", err)
		}
		stats = append(stats, stat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hourly stats: %w", err)
	}

	return stats, nil
}

// GetLocationCounts возвращает детальное распределение по локациям за окно
// (страна + регион + город + индекс), проценты заполняет сервис
func (r *statsRepository) GetLocationCounts(ctx context.Context, days int) ([]models.LocationStat, error) {
	query := `
		SELECT country, region, city, zip_code, COUNT(*) AS count
		FROM visits
		WHERE visited_at >= NOW() - INTERVAL '1 day' * $1
		GROUP BY country, region, city, zip_code
		ORDER BY count DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, days)
	if err != nil {
		return nil, fmt.Errorf("failed to get location counts: %w", err)
	}
	defer rows.Close()

	stats := []models.LocationStat{}
	for rows.Next() {
		var stat models.LocationStat
		if err := rows.Scan(&stat.Country, &stat.Region, &stat.City, &stat.Zip, &stat.Count); err != nil {
			return nil, fmt.Errorf("failed to scan location count: %w", err)
		}
		stats = append(stats, stat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating location counts: %w", err)
	}

	return stats, nil
}

// GetCountryCounts возвращает распределение по странам с числом
// различных городов и регионов, проценты заполняет сервис
func (r *statsRepository) GetCountryCounts(ctx context.Context, days int) ([]models.CountryStat, error) {
	query := `
		SELECT country, MAX(country_code) AS country_code, COUNT(*) AS count,
			COUNT(DISTINCT city) AS cities, COUNT(DISTINCT region) AS regions
		FROM visits
		WHERE visited_at >= NOW() - INTERVAL '1 day' * $1
		GROUP BY country
		ORDER BY count DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, days)
	if err != nil {
		return nil, fmt.Errorf("failed to get country counts: %w", err)
	}
	defer rows.Close()

	stats := []models.CountryStat{}
	for rows.Next() {
		var stat models.CountryStat
		if err := rows.Scan(&stat.Country, &stat.CountryCode, &stat.Count, &stat.Cities, &stat.Regions); err != nil {
			return nil, fmt.Errorf("failed to scan country count: %w", err)
		}
		stats = append(stats, stat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating country counts: %w", err)
	}

	return stats, nil
}
