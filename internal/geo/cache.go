package geo

import (
	"context"
	"sync"
	"time"

	"github.com/siqiongbil/blog-analytics/internal/models"
)

// Cache интерфейс кэша геолокации по ключу IP.
// Get возвращает (nil, nil) при промахе или протухшей записи.
type Cache interface {
	Get(ctx context.Context, ip string) (*models.CachedGeoLocation, error)
	Set(ctx context.Context, ip string, entry *models.CachedGeoLocation) error
	Delete(ctx context.Context, ip string) error
	Clear(ctx context.Context) error
}

// MemoryCache потокобезопасный in-memory кэш с TTL и ленивым вытеснением.
// Используется в тестах и в деплое без Redis.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*models.CachedGeoLocation
	ttl     time.Duration

	stopOnce sync.Once
	stop     chan struct{}
}

// NewMemoryCache создаёт кэш с заданным TTL и фоновой очисткой протухших записей
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]*models.CachedGeoLocation),
		ttl:     ttl,
		stop:    make(chan struct{}),
	}

	go c.cleanupLoop()

	return c
}

// Get возвращает запись, если она есть и не старше TTL.
// Протухшая запись удаляется лениво при чтении.
func (c *MemoryCache) Get(_ context.Context, ip string) (*models.CachedGeoLocation, error) {
	c.mu.RLock()
	entry, exists := c.entries[ip]
	c.mu.RUnlock()

	if !exists {
		return nil, nil
	}

	if time.Since(entry.ResolvedAt) > c.ttl {
		// Между RUnlock и Lock запись могла быть обновлена конкурентным
		// Set: перепроверяем свежесть перед удалением
		c.mu.Lock()
		current, ok := c.entries[ip]
		if ok && time.Since(current.ResolvedAt) > c.ttl {
			delete(c.entries, ip)
			current = nil
		}
		c.mu.Unlock()

		if current != nil {
			return current, nil
		}
		return nil, nil
	}

	return entry, nil
}

// Set сохраняет запись по ключу IP
func (c *MemoryCache) Set(_ context.Context, ip string, entry *models.CachedGeoLocation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[ip] = entry
	return nil
}

// Delete удаляет запись по ключу IP
func (c *MemoryCache) Delete(_ context.Context, ip string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, ip)
	return nil
}

// Clear полностью очищает кэш
func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*models.CachedGeoLocation)
	return nil
}

// Len возвращает текущее число записей (включая ещё не вытесненные протухшие)
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close останавливает фоновую очистку
func (c *MemoryCache) Close() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

// cleanupLoop периодически удаляет протухшие записи
func (c *MemoryCache) cleanupLoop() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for ip, entry := range c.entries {
				if now.Sub(entry.ResolvedAt) > c.ttl {
					delete(c.entries, ip)
				}
			}
			c.mu.Unlock()
		}
	}
}
