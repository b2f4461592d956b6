package mocks

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/siqiongbil/blog-analytics/internal/models"
	"github.com/siqiongbil/blog-analytics/internal/repository"
)

// MockVisitRepository implements repository.VisitRepository for testing
type MockVisitRepository struct {
	mu       sync.RWMutex
	visits   []*models.Visit
	nextID   int64
	FailNext error // если задано, следующий Insert вернёт эту ошибку
}

func NewMockVisitRepository() *MockVisitRepository {
	return &MockVisitRepository{nextID: 1}
}

func (m *MockVisitRepository) Insert(_ context.Context, visit *models.Visit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailNext != nil {
		err := m.FailNext
		m.FailNext = nil
		return err
	}

	visit.ID = m.nextID
	m.nextID++
	stored := *visit
	m.visits = append(m.visits, &stored)
	return nil
}

func (m *MockVisitRepository) HasRecentVisit(_ context.Context, articleID int64, visitorIP string, since time.Time) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, visit := range m.visits {
		if visit.ArticleID == articleID && visit.VisitorIP == visitorIP && !visit.VisitedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockVisitRepository) GetArticleStats(_ context.Context, articleID int64) (*models.ArticleVisitStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &models.ArticleVisitStats{ArticleID: articleID}
	ips := make(map[string]struct{})
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	for _, visit := range m.visits {
		if visit.ArticleID != articleID {
			continue
		}
		stats.TotalVisits++
		ips[visit.VisitorIP] = struct{}{}
		if !visit.VisitedAt.Before(dayStart) {
			stats.TodayVisits++
		}
		if visit.VisitedAt.After(now.AddDate(0, 0, -7)) {
			stats.WeekVisits++
		}
		if visit.VisitedAt.After(now.AddDate(0, 0, -30)) {
			stats.MonthVisits++
		}
		if stats.LastVisitTime == nil || visit.VisitedAt.After(*stats.LastVisitTime) {
			t := visit.VisitedAt
			stats.LastVisitTime = &t
		}
	}
	stats.UniqueVisitors = int64(len(ips))

	return stats, nil
}

func (m *MockVisitRepository) GetVisitDetails(_ context.Context, articleID int64, page, pageSize int) (*models.VisitDetailsPage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var details []models.VisitDetail
	for _, visit := range m.visits {
		if visit.ArticleID != articleID {
			continue
		}
		details = append(details, models.VisitDetail{
			VisitorIP:       visit.VisitorIP,
			UserAgent:       visit.UserAgent,
			Referer:         visit.Referer,
			DeviceType:      visit.DeviceType,
			Browser:         visit.Browser,
			OS:              visit.OS,
			Country:         visit.Location.Country,
			City:            visit.Location.City,
			IsUniqueVisitor: visit.IsUniqueVisitor,
			VisitedAt:       visit.VisitedAt,
		})
	}

	sort.Slice(details, func(i, j int) bool {
		return details[i].VisitedAt.After(details[j].VisitedAt)
	})

	result := &models.VisitDetailsPage{
		ArticleID: articleID,
		Page:      page,
		PageSize:  pageSize,
		Total:     int64(len(details)),
		Visits:    []models.VisitDetail{},
	}

	start := (page - 1) * pageSize
	if start < len(details) {
		end := start + pageSize
		if end > len(details) {
			end = len(details)
		}
		result.Visits = details[start:end]
	}

	return result, nil
}

// Count возвращает текущее число записей в моке
func (m *MockVisitRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.visits)
}

// Visits возвращает копию сохранённых записей
func (m *MockVisitRepository) Visits() []models.Visit {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Visit, 0, len(m.visits))
	for _, v := range m.visits {
		out = append(out, *v)
	}
	return out
}

func (m *MockVisitRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visits = nil
	m.nextID = 1
}

// MockStatsRepository implements repository.StatsRepository for testing.
// Агрегация в проде выполняется SQL-запросами, поэтому мок отдаёт
// заранее заданные данные вместо пересчёта
type MockStatsRepository struct {
	mu sync.RWMutex

	Total         int64
	Trends        []models.TrendPoint
	HotArticles   []models.HotArticle
	RefererCounts map[string]int64
	DeviceCounts  map[models.DeviceType]int64
	Hourly        []models.HourlyStat
	Locations     []models.LocationStat
	Countries     []models.CountryStat
	Err           error
}

func NewMockStatsRepository() *MockStatsRepository {
	return &MockStatsRepository{
		RefererCounts: make(map[string]int64),
		DeviceCounts:  make(map[models.DeviceType]int64),
	}
}

func (m *MockStatsRepository) TotalVisits(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Total, m.Err
}

func (m *MockStatsRepository) GetTrends(_ context.Context, _ int) ([]models.TrendPoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Trends, m.Err
}

func (m *MockStatsRepository) GetHotArticles(_ context.Context, limit, _ int) ([]models.HotArticle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if limit > len(m.HotArticles) {
		limit = len(m.HotArticles)
	}
	return m.HotArticles[:limit], nil
}

func (m *MockStatsRepository) GetRefererCounts(_ context.Context, _ int) (map[string]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RefererCounts, m.Err
}

func (m *MockStatsRepository) GetDeviceCounts(_ context.Context, _ int) (map[models.DeviceType]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.DeviceCounts, m.Err
}

func (m *MockStatsRepository) GetHourlyStats(_ context.Context, _ int) ([]models.HourlyStat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Hourly, m.Err
}

func (m *MockStatsRepository) GetLocationCounts(_ context.Context, _ int) ([]models.LocationStat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Locations, m.Err
}

func (m *MockStatsRepository) GetCountryCounts(_ context.Context, _ int) ([]models.CountryStat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Countries, m.Err
}

// MockCleanupRepository implements repository.CleanupRepository for testing.
// Хранит только отметки времени посещений
type MockCleanupRepository struct {
	mu     sync.RWMutex
	visits []time.Time
}

func NewMockCleanupRepository(visits ...time.Time) *MockCleanupRepository {
	return &MockCleanupRepository{visits: visits}
}

func (m *MockCleanupRepository) Add(visitedAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visits = append(m.visits, visitedAt)
}

func (m *MockCleanupRepository) StatsOlderThan(_ context.Context, cutoff time.Time) (*repository.RangeStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return rangeStats(m.visits, func(t time.Time) bool { return t.Before(cutoff) }), nil
}

func (m *MockCleanupRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var kept []time.Time
	var deleted int64
	for _, t := range m.visits {
		if t.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, t)
	}
	m.visits = kept
	return deleted, nil
}

func (m *MockCleanupRepository) GlobalStats(_ context.Context) (*repository.RangeStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return rangeStats(m.visits, func(time.Time) bool { return true }), nil
}

func (m *MockCleanupRepository) MonthlyCounts(_ context.Context, months int) ([]repository.MonthCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now()
	oldest := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -(months - 1), 0)

	counts := make(map[time.Time]int64)
	for _, t := range m.visits {
		monthStart := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
		if monthStart.Before(oldest) {
			continue
		}
		counts[monthStart]++
	}

	result := make([]repository.MonthCount, 0, len(counts))
	for monthStart, count := range counts {
		result = append(result, repository.MonthCount{MonthStart: monthStart, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].MonthStart.After(result[j].MonthStart)
	})

	return result, nil
}

// Count возвращает текущее число записей в моке
func (m *MockCleanupRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.visits)
}

func rangeStats(visits []time.Time, match func(time.Time) bool) *repository.RangeStats {
	stats := &repository.RangeStats{}
	for _, t := range visits {
		if !match(t) {
			continue
		}
		stats.Count++
		if stats.Earliest == nil || t.Before(*stats.Earliest) {
			earliest := t
			stats.Earliest = &earliest
		}
		if stats.Latest == nil || t.After(*stats.Latest) {
			latest := t
			stats.Latest = &latest
		}
	}
	return stats
}

// ErrMockFailure общая ошибка для сценариев сбоя в тестах
var ErrMockFailure = errors.New("mock failure")
