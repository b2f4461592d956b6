package models

import (
	"time"
)

// Источники геолокации
const (
	GeoSourceLocal    = "local"    // loopback / localhost
	GeoSourceInternal = "internal" // приватные диапазоны RFC1918
	GeoSourceStatic   = "static"   // статическая таблица известных IP
	GeoSourceFallback = "fallback" // все провайдеры недоступны
	GeoSourceError    = "error"    // неожиданная ошибка при резолве
)

// GeoLocation результат резолва IP-адреса в географические атрибуты.
// Встраивается по значению в Visit и кэшируется по ключу IP.
type GeoLocation struct {
	Country     string  `json:"country"`
	CountryCode string  `json:"country_code"`
	Region      string  `json:"region"`
	RegionCode  string  `json:"region_code"`
	City        string  `json:"city"`
	Zip         string  `json:"zip"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Timezone    string  `json:"timezone"`
	ISP         string  `json:"isp"`
	Org         string  `json:"org"`
	ASNumber    string  `json:"as_number"`
	IsMobile    bool    `json:"is_mobile"`
	IsProxy     bool    `json:"is_proxy"`
	IsHosting   bool    `json:"is_hosting"`
	Source      string  `json:"source"`
}

// CachedGeoLocation запись кэша геолокации с моментом резолва
type CachedGeoLocation struct {
	Location   GeoLocation `json:"location"`
	ResolvedAt time.Time   `json:"resolved_at"`
}
