package models

// TrendPoint количество посещений и уникальных IP за один день
type TrendPoint struct {
	Date           string `json:"date"` // YYYY-MM-DD
	TotalVisits    int64  `json:"total_visits"`
	UniqueVisitors int64  `json:"unique_visitors"`
}

// HotArticle статья с количеством посещений за окно
type HotArticle struct {
	ArticleID      int64  `json:"article_id"`
	ArticleTitle   string `json:"article_title"`
	TotalVisits    int64  `json:"total_visits"`
	UniqueVisitors int64  `json:"unique_visitors"`
}

// Категории источников перехода
const (
	RefererDirect = "direct"
	RefererSearch = "search"
	RefererOther  = "other"
)

// RefererStat количество посещений по категории/источнику перехода
type RefererStat struct {
	Category string `json:"category"` // direct / search / other
	Source   string `json:"source"`   // поисковик или домен
	Count    int64  `json:"count"`
}

// DeviceStat распределение по типам устройств
type DeviceStat struct {
	DeviceType DeviceType `json:"device_type"`
	Count      int64      `json:"count"`
	Percent    float64    `json:"percent"`
}

// HourlyStat количество посещений по часу суток
type HourlyStat struct {
	Hour  int   `json:"hour"` // 0..23
	Count int64 `json:"count"`
}

// LocationStat детальное распределение по локациям
type LocationStat struct {
	Country string  `json:"country"`
	Region  string  `json:"region"`
	City    string  `json:"city"`
	Zip     string  `json:"zip"`
	Count   int64   `json:"count"`
	Percent float64 `json:"percent"`
}

// CountryStat распределение по странам с числом городов/регионов
type CountryStat struct {
	Country     string  `json:"country"`
	CountryCode string  `json:"country_code"`
	Count       int64   `json:"count"`
	Cities      int64   `json:"cities"`
	Regions     int64   `json:"regions"`
	Percent     float64 `json:"percent"`
}
