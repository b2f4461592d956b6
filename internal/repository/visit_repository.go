package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/siqiongbil/blog-analytics/internal/models"
	"github.com/jackc/pgx/v5"
)

// VisitRepository хранилище записей посещений (append-only таблица visits)
type VisitRepository interface {
	Insert(ctx context.Context, visit *models.Visit) error
	HasRecentVisit(ctx context.Context, articleID int64, visitorIP string, since time.Time) (bool, error)
	GetArticleStats(ctx context.Context, articleID int64) (*models.ArticleVisitStats, error)
	GetVisitDetails(ctx context.Context, articleID int64, page, pageSize int) (*models.VisitDetailsPage, error)
}

type visitRepository struct {
	db *PostgresDB
}

func NewVisitRepository(db *PostgresDB) VisitRepository {
	return &visitRepository{db: db}
}

// Insert сохраняет запись посещения. Флаг is_unique_visitor фиксируется
// в момент вставки и больше не пересчитывается.
func (r *visitRepository) Insert(ctx context.Context, visit *models.Visit) error {
	query := `
		INSERT INTO visits (
			article_id, article_title, visitor_ip, user_agent, referer, session_id,
			device_type, browser, os, is_unique_visitor,
			country, country_code, region, region_code, city, zip_code,
			latitude, longitude, timezone, isp, org, as_info,
			is_mobile, is_proxy, is_hosting, location_source, visited_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		visit.ArticleID,
		visit.ArticleTitle,
		visit.VisitorIP,
		visit.UserAgent,
		visit.Referer,
		visit.SessionID,
		int(visit.DeviceType),
		visit.Browser,
		visit.OS,
		visit.IsUniqueVisitor,
		visit.Location.Country,
		visit.Location.CountryCode,
		visit.Location.Region,
		visit.Location.RegionCode,
		visit.Location.City,
		visit.Location.Zip,
		visit.Location.Latitude,
		visit.Location.Longitude,
		visit.Location.Timezone,
		visit.Location.ISP,
		visit.Location.Org,
		visit.Location.ASNumber,
		visit.Location.IsMobile,
		visit.Location.IsProxy,
		visit.Location.IsHosting,
		visit.Location.Source,
		visit.VisitedAt,
	).Scan(&visit.ID)

	if err != nil {
		return fmt.Errorf("failed to insert visit: %w", err)
	}

	return nil
}

// HasRecentVisit проверяет, было ли посещение пары (article, ip)
// начиная с момента since (скользящее окно, не календарный день)
func (r *visitRepository) HasRecentVisit(ctx context.Context, articleID int64, visitorIP string, since time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM visits
			WHERE article_id = $1 AND visitor_ip = $2 AND visited_at >= $3
		)
	`

	var exists bool
	err := r.db.Pool.QueryRow(ctx, query, articleID, visitorIP, since).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check recent visit: %w", err)
	}

	return exists, nil
}

// GetArticleStats возвращает агрегированную статистику посещений одной статьи
func (r *visitRepository) GetArticleStats(ctx context.Context, articleID int64) (*models.ArticleVisitStats, error) {
	query := `
		SELECT
			COUNT(*) AS total_visits,
			COUNT(DISTINCT visitor_ip) AS unique_visitors,
			COUNT(*) FILTER (WHERE visited_at >= date_trunc('day', NOW())) AS today_visits,
			COUNT(*) FILTER (WHERE visited_at >= NOW() - INTERVAL '7 days') AS week_visits,
			COUNT(*) FILTER (WHERE visited_at >= NOW() - INTERVAL '30 days') AS month_visits,
			MAX(visited_at) AS last_visit_time
		FROM visits
		WHERE article_id = $1
	`

	stats := &models.ArticleVisitStats{ArticleID: articleID}

	err := r.db.Pool.QueryRow(ctx, query, articleID).Scan(
		&stats.TotalVisits,
		&stats.UniqueVisitors,
		&stats.TodayVisits,
		&stats.WeekVisits,
		&stats.MonthVisits,
		&stats.LastVisitTime,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get article stats: %w", err)
	}

	return stats, nil
}

// GetVisitDetails возвращает страницу сырых записей посещений статьи,
// новые записи первыми
func (r *visitRepository) GetVisitDetails(ctx context.Context, articleID int64, page, pageSize int) (*models.VisitDetailsPage, error) {
	countQuery := `SELECT COUNT(*) FROM visits WHERE article_id = $1`

	result := &models.VisitDetailsPage{
		ArticleID: articleID,
		Page:      page,
		PageSize:  pageSize,
		Visits:    []models.VisitDetail{},
	}

	if err := r.db.Pool.QueryRow(ctx, countQuery, articleID).Scan(&result.Total); err != nil {
		return nil, fmt.Errorf("failed to count visits: %w", err)
	}

	query := `
		SELECT visitor_ip, user_agent, referer, device_type, browser, os,
			country, city, is_unique_visitor, visited_at
		FROM visits
		WHERE article_id = $1
		ORDER BY visited_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Pool.Query(ctx, query, articleID, pageSize, (page-1)*pageSize)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return result, nil
		}
		return nil, fmt.Errorf("failed to get visit details: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var detail models.VisitDetail
		var deviceType int
		if err := rows.Scan(
			&detail.VisitorIP,
			&detail.UserAgent,
			&detail.Referer,
			&deviceType,
			&detail.Browser,
			&detail.OS,
			&detail.Country,
			&detail.City,
			&detail.IsUniqueVisitor,
			&detail.VisitedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan visit detail: %w", err)
		}
		detail.DeviceType = models.DeviceType(deviceType)
		result.Visits = append(result.Visits, detail)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating visit details: %w", err)
	}

	return result, nil
}
