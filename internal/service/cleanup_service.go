package service

import (
	"context"
	"time"

	"github.com/siqiongbil/blog-analytics/internal/models"
	"github.com/siqiongbil/blog-analytics/internal/repository"
	"go.uber.org/zap"
)

// Ограничения менеджера ретенции
const (
	maxRetentionMonths = 120
	// Удаление выполняется одним DELETE без чанков, поэтому хотя бы
	// ограничиваем его по времени
	deleteTimeout = 60 * time.Second
	// Число месячных бакетов в сводке getCleanupStats
	histogramMonths = 12
)

// CleanupService менеджер ретенции: превью (dry-run) и выполнение
// удаления записей старше окна ретенции
type CleanupService interface {
	Cleanup(ctx context.Context, monthsToKeep int, dryRun bool) (*models.CleanupReport, error)
	GetCleanupStats(ctx context.Context) (*models.CleanupStats, error)
}

type cleanupService struct {
	cleanupRepo repository.CleanupRepository
	logger      *zap.Logger
	now         func() time.Time // подменяется в тестах
}

// NewCleanupService создаёт менеджер ретенции
func NewCleanupService(cleanupRepo repository.CleanupRepository, logger *zap.Logger) CleanupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cleanupService{
		cleanupRepo: cleanupRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// Cleanup вычисляет cutoff = now - monthsToKeep месяцев и либо возвращает
// превью (dry-run), либо удаляет записи старше cutoff. Статистика диапазона
// всегда снимается ДО удаления: отчёт описывает удалённое, а не оставшееся.
// Dry-run — дешёвый режим по умолчанию; реальное удаление требует явного флага.
func (s *cleanupService) Cleanup(ctx context.Context, monthsToKeep int, dryRun bool) (*models.CleanupReport, error) {
	if monthsToKeep < 1 || monthsToKeep > maxRetentionMonths {
		return nil, ErrInvalidMonths
	}

	cutoff := s.now().AddDate(0, -monthsToKeep, 0)

	stats, err := s.cleanupRepo.StatsOlderThan(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	report := &models.CleanupReport{
		DryRun:       dryRun,
		CutoffDate:   cutoff,
		RecordCount:  stats.Count,
		EarliestDate: stats.Earliest,
		LatestDate:   stats.Latest,
	}

	if dryRun {
		toDelete := stats.Count
		report.RecordsToDelete = &toDelete
		s.logger.Info("Dry-run очистки",
			zap.Int("months_to_keep", monthsToKeep),
			zap.Time("cutoff", cutoff),
			zap.Int64("records_to_delete", toDelete),
		)
		return report, nil
	}

	deleteCtx, cancel := context.WithTimeout(ctx, deleteTimeout)
	defer cancel()

	deleted, err := s.cleanupRepo.DeleteOlderThan(deleteCtx, cutoff)
	if err != nil {
		return nil, err
	}

	report.RecordsDeleted = &deleted
	s.logger.Info("Очистка выполнена",
		zap.Int("months_to_keep", monthsToKeep),
		zap.Time("cutoff", cutoff),
		zap.Int64("records_deleted", deleted),
	)

	return report, nil
}

// GetCleanupStats возвращает сводку хранилища: общее число записей,
// глобальный диапазон дат и помесячную гистограмму за последние 12 месяцев
// с флагом "можно чистить" (возраст бакета не меньше месяца).
// Используется оператором для выбора monthsToKeep перед dry-run.
func (s *cleanupService) GetCleanupStats(ctx context.Context) (*models.CleanupStats, error) {
	global, err := s.cleanupRepo.GlobalStats(ctx)
	if err != nil {
		return nil, err
	}

	monthly, err := s.cleanupRepo.MonthlyCounts(ctx, histogramMonths)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(monthly))
	for _, mc := range monthly {
		counts[mc.MonthStart.Format("2006-01")] = mc.Count
	}

	now := s.now()
	eligibleCutoff := now.AddDate(0, -1, 0)
	currentMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	buckets := make([]models.MonthBucket, 0, histogramMonths)
	for i := 0; i < histogramMonths; i++ {
		monthStart := currentMonth.AddDate(0, -i, 0)
		key := monthStart.Format("2006-01")
		buckets = append(buckets, models.MonthBucket{
			Month: key,
			Count: counts[key],
			// Бакет можно чистить, если весь его месяц старше месяца от "сейчас"
			EligibleForCleanup: monthStart.AddDate(0, 1, 0).Before(eligibleCutoff) || monthStart.AddDate(0, 1, 0).Equal(eligibleCutoff),
		})
	}

	return &models.CleanupStats{
		TotalRecords: global.Count,
		EarliestDate: global.Earliest,
		LatestDate:   global.Latest,
		Months:       buckets,
	}, nil
}
