package models

import (
	"time"
)

// DeviceType тип устройства посетителя
type DeviceType int

const (
	DeviceUnknown DeviceType = iota
	DeviceDesktop
	DeviceTablet
	DevicePhone
)

// String возвращает строковое представление типа устройства
func (d DeviceType) String() string {
	switch d {
	case DeviceDesktop:
		return "desktop"
	case DeviceTablet:
		return "tablet"
	case DevicePhone:
		return "phone"
	default:
		return "unknown"
	}
}

// VisitEvent входное событие посещения (формируется один раз на запрос)
type VisitEvent struct {
	ArticleID    int64  `json:"article_id"`
	ArticleTitle string `json:"article_title"`
	VisitorIP    string `json:"visitor_ip"`
	UserAgent    string `json:"user_agent"`
	Referer      string `json:"referer"`
	SessionID    string `json:"session_id"`
}

// Visit сохранённая запись посещения (append-only, без update)
type Visit struct {
	ID              int64       `json:"id"`
	ArticleID       int64       `json:"article_id"`
	ArticleTitle    string      `json:"article_title"`
	VisitorIP       string      `json:"visitor_ip"`
	UserAgent       string      `json:"user_agent"`
	Referer         string      `json:"referer"`
	SessionID       string      `json:"session_id"`
	DeviceType      DeviceType  `json:"device_type"`
	Browser         string      `json:"browser"`
	OS              string      `json:"os"`
	IsUniqueVisitor bool        `json:"is_unique_visitor"`
	Location        GeoLocation `json:"location"`
	VisitedAt       time.Time   `json:"visited_at"`
}

// RecordResult результат записи посещения
type RecordResult struct {
	VisitID         int64 `json:"visit_id"`
	IsUniqueVisitor bool  `json:"is_unique_visitor"`
}

// ArticleVisitStats статистика посещений одной статьи
type ArticleVisitStats struct {
	ArticleID      int64      `json:"article_id"`
	TotalVisits    int64      `json:"total_visits"`
	UniqueVisitors int64      `json:"unique_visitors"`
	TodayVisits    int64      `json:"today_visits"`
	WeekVisits     int64      `json:"week_visits"`
	MonthVisits    int64      `json:"month_visits"`
	LastVisitTime  *time.Time `json:"last_visit_time,omitempty"`
}

// VisitDetail одна строка детализации посещений
type VisitDetail struct {
	VisitorIP       string     `json:"visitor_ip"`
	UserAgent       string     `json:"user_agent"`
	Referer         string     `json:"referer"`
	DeviceType      DeviceType `json:"device_type"`
	Browser         string     `json:"browser"`
	OS              string     `json:"os"`
	Country         string     `json:"country"`
	City            string     `json:"city"`
	IsUniqueVisitor bool       `json:"is_unique_visitor"`
	VisitedAt       time.Time  `json:"visited_at"`
}

// VisitDetailsPage страница детализации посещений
type VisitDetailsPage struct {
	ArticleID int64         `json:"article_id"`
	Page      int           `json:"page"`
	PageSize  int           `json:"page_size"`
	Total     int64         `json:"total"`
	Visits    []VisitDetail `json:"visits"`
}
