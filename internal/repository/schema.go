package repository

import (
	"context"
	"fmt"
)

// visitsSchema схема append-only таблицы посещений.
// Записи неизменяемы после вставки; единственная допустимая операция
// после создания — массовое удаление менеджером ретенции.
// Уникального ограничения на (article_id, visitor_ip, окно) нет намеренно:
// гонка check-then-insert при дедупликации — задокументированная неточность.
const visitsSchema = `
CREATE TABLE IF NOT EXISTS visits (
	id BIGSERIAL PRIMARY KEY,
	article_id BIGINT NOT NULL,
	article_title TEXT NOT NULL DEFAULT '',
	visitor_ip TEXT NOT NULL,
	user_agent TEXT NOT NULL DEFAULT '',
	referer TEXT NOT NULL DEFAULT '',
	session_id TEXT NOT NULL DEFAULT '',
	device_type SMALLINT NOT NULL DEFAULT 0,
	browser TEXT NOT NULL DEFAULT '',
	os TEXT NOT NULL DEFAULT '',
	is_unique_visitor BOOLEAN NOT NULL DEFAULT FALSE,
	country TEXT NOT NULL DEFAULT '',
	country_code TEXT NOT NULL DEFAULT '',
	region TEXT NOT NULL DEFAULT '',
	region_code TEXT NOT NULL DEFAULT '',
	city TEXT NOT NULL DEFAULT '',
	zip_code TEXT NOT NULL DEFAULT '',
	latitude DOUBLE PRECISION NOT NULL DEFAULT 0,
	longitude DOUBLE PRECISION NOT NULL DEFAULT 0,
	timezone TEXT NOT NULL DEFAULT '',
	isp TEXT NOT NULL DEFAULT '',
	org TEXT NOT NULL DEFAULT '',
	as_info TEXT NOT NULL DEFAULT '',
	is_mobile BOOLEAN NOT NULL DEFAULT FALSE,
	is_proxy BOOLEAN NOT NULL DEFAULT FALSE,
	is_hosting BOOLEAN NOT NULL DEFAULT FALSE,
	location_source TEXT NOT NULL DEFAULT '',
	visited_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_visits_article_ip_time ON visits (article_id, visitor_ip, visited_at);
CREATE INDEX IF NOT EXISTS idx_visits_visited_at ON visits (visited_at);
CREATE INDEX IF NOT EXISTS idx_visits_article_id ON visits (article_id);
`

// EnsureSchema создаёт таблицу visits и индексы, если их ещё нет
func EnsureSchema(ctx context.Context, db *PostgresDB) error {
	if _, err := db.Pool.Exec(ctx, visitsSchema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
