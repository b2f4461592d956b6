package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/siqiongbil/blog-analytics/internal/service"
	"github.com/siqiongbil/blog-analytics/internal/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedCleanupRepo наполняет мок записями известного возраста
func seedCleanupRepo() *mocks.MockCleanupRepository {
	now := time.Now()
	return mocks.NewMockCleanupRepository(
		now.AddDate(0, 0, -1),   // вчера
		now.AddDate(0, -2, 0),   // 2 месяца назад
		now.AddDate(0, -7, 0),   // 7 месяцев назад
		now.AddDate(0, -8, 0),   // 8 месяцев назад
		now.AddDate(0, -14, 0),  // 14 месяцев назад
	)
}

// TestCleanupService_Cleanup_Validation проверяет отклонение невалидного
// окна ретенции
func TestCleanupService_Cleanup_Validation(t *testing.T) {
	cleanupService := service.NewCleanupService(mocks.NewMockCleanupRepository(), nil)
	ctx := context.Background()

	for _, months := range []int{0, -3, 121} {
		_, err := cleanupService.Cleanup(ctx, months, true)
		assert.ErrorIs(t, err, service.ErrInvalidMonths)
		assert.True(t, service.IsValidationError(err))
	}
}

// TestCleanupService_Cleanup_DryRunDoesNotDelete проверяет, что dry-run
// возвращает превью и не трогает данные
func TestCleanupService_Cleanup_DryRunDoesNotDelete(t *testing.T) {
	cleanupRepo := seedCleanupRepo()
	cleanupService := service.NewCleanupService(cleanupRepo, nil)

	report, err := cleanupService.Cleanup(context.Background(), 6, true)
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.Equal(t, int64(3), report.RecordCount)
	require.NotNil(t, report.RecordsToDelete)
	assert.Equal(t, int64(3), *report.RecordsToDelete)
	assert.Nil(t, report.RecordsDeleted)

	// Данные не изменились
	assert.Equal(t, 5, cleanupRepo.Count())

	// Повторный dry-run даёт тот же результат
	again, err := cleanupService.Cleanup(context.Background(), 6, true)
	require.NoError(t, err)
	assert.Equal(t, report.RecordCount, again.RecordCount)
}

// TestCleanupService_Cleanup_ExecuteMatchesDryRun проверяет, что реальное
// удаление убирает ровно то, что обещал dry-run
func TestCleanupService_Cleanup_ExecuteMatchesDryRun(t *testing.T) {
	cleanupRepo := seedCleanupRepo()
	cleanupService := service.NewCleanupService(cleanupRepo, nil)

	ctx := context.Background()
	preview, err := cleanupService.Cleanup(ctx, 6, true)
	require.NoError(t, err)
	require.NotNil(t, preview.RecordsToDelete)

	report, err := cleanupService.Cleanup(ctx, 6, false)
	require.NoError(t, err)

	assert.False(t, report.DryRun)
	require.NotNil(t, report.RecordsDeleted)
	assert.Equal(t, *preview.RecordsToDelete, *report.RecordsDeleted)
	assert.Nil(t, report.RecordsToDelete)

	// Статистика диапазона снята до удаления
	assert.Equal(t, int64(3), report.RecordCount)
	assert.NotNil(t, report.EarliestDate)
	assert.NotNil(t, report.LatestDate)

	// Осталось всё, что новее cutoff
	assert.Equal(t, 2, cleanupRepo.Count())

	// Повторное удаление с тем же окном уже ничего не находит
	second, err := cleanupService.Cleanup(ctx, 6, false)
	require.NoError(t, err)
	require.NotNil(t, second.RecordsDeleted)
	assert.Zero(t, *second.RecordsDeleted)
}

// TestCleanupService_Cleanup_EmptyRange проверяет отчёт на окне без
// устаревших записей
func TestCleanupService_Cleanup_EmptyRange(t *testing.T) {
	cleanupRepo := mocks.NewMockCleanupRepository(time.Now().AddDate(0, 0, -1))
	cleanupService := service.NewCleanupService(cleanupRepo, nil)

	report, err := cleanupService.Cleanup(context.Background(), 12, true)
	require.NoError(t, err)

	assert.Zero(t, report.RecordCount)
	assert.Nil(t, report.EarliestDate)
	assert.Nil(t, report.LatestDate)
	require.NotNil(t, report.RecordsToDelete)
	assert.Zero(t, *report.RecordsToDelete)
}

// TestCleanupService_Cleanup_CutoffCalendarMonths проверяет, что cutoff
// считается календарными месяцами, а не 30-дневными приближениями
func TestCleanupService_Cleanup_CutoffCalendarMonths(t *testing.T) {
	cleanupService := service.NewCleanupService(mocks.NewMockCleanupRepository(), nil)

	report, err := cleanupService.Cleanup(context.Background(), 3, true)
	require.NoError(t, err)

	expected := time.Now().AddDate(0, -3, 0)
	assert.WithinDuration(t, expected, report.CutoffDate, 5*time.Second)
}

// TestCleanupService_GetCleanupStats проверяет сводку: общий итог,
// глобальный диапазон дат и 12 месячных бакетов новые-первыми
func TestCleanupService_GetCleanupStats(t *testing.T) {
	cleanupRepo := seedCleanupRepo()
	cleanupService := service.NewCleanupService(cleanupRepo, nil)

	stats, err := cleanupService.GetCleanupStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(5), stats.TotalRecords)
	require.NotNil(t, stats.EarliestDate)
	require.NotNil(t, stats.LatestDate)
	assert.True(t, stats.EarliestDate.Before(*stats.LatestDate))

	require.Len(t, stats.Months, 12)

	// Бакеты отсортированы от текущего месяца назад
	now := time.Now()
	currentMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for i, bucket := range stats.Months {
		assert.Equal(t, currentMonth.AddDate(0, -i, 0).Format("2006-01"), bucket.Month)
	}

	// Текущий месяц чистить нельзя, хвост гистограммы — можно
	assert.False(t, stats.Months[0].EligibleForCleanup)
	assert.True(t, stats.Months[11].EligibleForCleanup)

	// Запись 14-месячной давности за горизонтом гистограммы
	var total int64
	for _, bucket := range stats.Months {
		total += bucket.Count
	}
	assert.Equal(t, int64(4), total)
}

// TestCleanupService_GetCleanupStats_Empty проверяет сводку пустого хранилища
func TestCleanupService_GetCleanupStats_Empty(t *testing.T) {
	cleanupService := service.NewCleanupService(mocks.NewMockCleanupRepository(), nil)

	stats, err := cleanupService.GetCleanupStats(context.Background())
	require.NoError(t, err)

	assert.Zero(t, stats.TotalRecords)
	assert.Nil(t, stats.EarliestDate)
	assert.Nil(t, stats.LatestDate)
	require.Len(t, stats.Months, 12)
	for _, bucket := range stats.Months {
		assert.Zero(t, bucket.Count)
	}
}
