package repository

import (
	"context"
	"fmt"
	"time"
)

// RangeStats статистика диапазона записей: количество и границы по visited_at
type RangeStats struct {
	Count    int64
	Earliest *time.Time
	Latest   *time.Time
}

// MonthCount количество записей за календарный месяц
type MonthCount struct {
	MonthStart time.Time
	Count      int64
}

// CleanupRepository запросы менеджера ретенции
type CleanupRepository interface {
	StatsOlderThan(ctx context.Context, cutoff time.Time) (*RangeStats, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	GlobalStats(ctx context.Context) (*RangeStats, error)
	MonthlyCounts(ctx context.Context, months int) ([]MonthCount, error)
}

type cleanupRepository struct {
	db *PostgresDB
}

func NewCleanupRepository(db *PostgresDB) CleanupRepository {
	return &cleanupRepository{db: db}
}

// StatsOlderThan возвращает количество и диапазон дат записей строго старше cutoff
func (r *cleanupRepository) StatsOlderThan(ctx context.Context, cutoff time.Time) (*RangeStats, error) {
	query := `
		SELECT COUNT(*), MIN(visited_at), MAX(visited_at)
		FROM visits
		WHERE visited_at < $1
	`

	stats := &RangeStats{}
	if err := r.db.Pool.QueryRow(ctx, query, cutoff).Scan(&stats.Count, &stats.Earliest, &stats.Latest); err != nil {
		return nil, fmt.Errorf("failed to get cleanup stats: %w", err)
	}

	return stats, nil
}

// DeleteOlderThan удаляет записи строго старше cutoff и возвращает
// число реально удалённых строк
func (r *cleanupRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM visits WHERE visited_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old visits: %w", err)
	}

	return result.RowsAffected(), nil
}

// GlobalStats возвращает общее количество записей и глобальный диапазон дат
func (r *cleanupRepository) GlobalStats(ctx context.Context) (*RangeStats, error) {
	query := `SELECT COUNT(*), MIN(visited_at), MAX(visited_at) FROM visits`

	stats := &RangeStats{}
	if err := r.db.Pool.QueryRow(ctx, query).Scan(&stats.Count, &stats.Earliest, &stats.Latest); err != nil {
		return nil, fmt.Errorf("failed to get global stats: %w", err)
	}

	return stats, nil
}

// MonthlyCounts возвращает количество записей по календарным месяцам
// за последние months месяцев
func (r *cleanupRepository) MonthlyCounts(ctx context.Context, months int) ([]MonthCount, error) {
	query := `
		SELECT date_trunc('month', visited_at) AS month_start, COUNT(*) AS count
		FROM visits
		WHERE visited_at >= date_trunc('month', NOW()) - INTERVAL '1 month' * ($1 - 1)
		GROUP BY month_start
		ORDER BY month_start DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, months)
	if err != nil {
		return nil, fmt.Errorf("failed to get monthly counts: %w", err)
	}
	defer rows.Close()

	counts := []MonthCount{}
	for rows.Next() {
		var mc MonthCount
		if err := rows.Scan(&mc.MonthStart, &mc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan monthly count: %w", err)
		}
		counts = append(counts, mc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monthly counts: %w", err)
	}

	return counts, nil
}
