package service

import (
	"context"
	"fmt"
	"time"

	"github.com/siqiongbil/blog-analytics/internal/geo"
	"github.com/siqiongbil/blog-analytics/internal/models"
	"github.com/siqiongbil/blog-analytics/internal/repository"
	"github.com/siqiongbil/blog-analytics/internal/useragent"
	"go.uber.org/zap"
)

// Окно дедупликации: скользящие 24 часа назад от момента записи,
// не календарный день
const dedupWindow = 24 * time.Hour

// VisitService записывает посещения и решает вопрос уникальности посетителя
type VisitService interface {
	Record(ctx context.Context, event *models.VisitEvent) (*models.RecordResult, error)
	GetArticleStats(ctx context.Context, articleID int64) (*models.ArticleVisitStats, error)
	GetVisitDetails(ctx context.Context, articleID int64, page, pageSize int) (*models.VisitDetailsPage, error)
}

// visitService реализация рекордера посещений
type visitService struct {
	visitRepo repository.VisitRepository
	resolver  *geo.Resolver
	logger    *zap.Logger
	now       func() time.Time // подменяется в тестах
}

// NewVisitService создаёт сервис записи посещений
func NewVisitService(visitRepo repository.VisitRepository, resolver *geo.Resolver, logger *zap.Logger) VisitService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &visitService{
		visitRepo: visitRepo,
		resolver:  resolver,
		logger:    logger,
		now:       time.Now,
	}
}

// Record обогащает событие геолокацией и классификацией UA, решает
// уникальность по скользящему окну и сохраняет запись. Флаг уникальности
// фиксируется в момент вставки. Инкремент счётчика просмотров — зона
// ответственности вызывающего, и только при is_unique_visitor = true.
//
// Проверка окна и вставка намеренно не обёрнуты в транзакцию: две почти
// одновременные записи одной пары (article, ip) могут обе получить флаг
// уникальности. Это задокументированная допустимая неточность.
func (s *visitService) Record(ctx context.Context, event *models.VisitEvent) (*models.RecordResult, error) {
	now := s.now()

	// Резолв геолокации никогда не падает — в худшем случае "unknown"
	location := s.resolver.Resolve(ctx, event.VisitorIP)

	deviceType, browser, osName := useragent.Classify(event.UserAgent)

	// Уникальность: отсутствие записи той же пары (article, ip) в окне
	seen, err := s.visitRepo.HasRecentVisit(ctx, event.ArticleID, event.VisitorIP, now.Add(-dedupWindow))
	if err != nil {
		return nil, fmt.Errorf("dedup check failed: %w", err)
	}

	visit := &models.Visit{
		ArticleID:       event.ArticleID,
		ArticleTitle:    event.ArticleTitle,
		VisitorIP:       event.VisitorIP,
		UserAgent:       event.UserAgent,
		Referer:         event.Referer,
		SessionID:       event.SessionID,
		DeviceType:      deviceType,
		Browser:         browser,
		OS:              osName,
		IsUniqueVisitor: !seen,
		Location:        location,
		VisitedAt:       now,
	}

	if err := s.visitRepo.Insert(ctx, visit); err != nil {
		// Ошибка записи не должна ронять обслуживание просмотра статьи:
		// вызывающий применяет свой fallback (инкремент без проверки уникальности)
		s.logger.Error("Не удалось записать посещение",
			zap.Int64("article_id", event.ArticleID),
			zap.String("visitor_ip", event.VisitorIP),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Debug("Посещение записано",
		zap.Int64("visit_id", visit.ID),
		zap.Int64("article_id", event.ArticleID),
		zap.Bool("is_unique", visit.IsUniqueVisitor),
		zap.String("location_source", location.Source),
	)

	return &models.RecordResult{
		VisitID:         visit.ID,
		IsUniqueVisitor: visit.IsUniqueVisitor,
	}, nil
}

// GetArticleStats возвращает сводную статистику посещений статьи
func (s *visitService) GetArticleStats(ctx context.Context, articleID int64) (*models.ArticleVisitStats, error) {
	if articleID <= 0 {
		return nil, ErrInvalidArticleID
	}
	return s.visitRepo.GetArticleStats(ctx, articleID)
}

// GetVisitDetails возвращает страницу сырых записей посещений статьи
func (s *visitService) GetVisitDetails(ctx context.Context, articleID int64, page, pageSize int) (*models.VisitDetailsPage, error) {
	if articleID <= 0 {
		return nil, ErrInvalidArticleID
	}
	if page < 1 {
		return nil, ErrInvalidPage
	}
	if pageSize < 1 || pageSize > maxPageSize {
		return nil, ErrInvalidPageSize
	}
	return s.visitRepo.GetVisitDetails(ctx, articleID, page, pageSize)
}
