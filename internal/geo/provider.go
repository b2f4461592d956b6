package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/siqiongbil/blog-analytics/internal/models"
)

// Ошибки провайдеров
var (
	ErrProviderStatus   = errors.New("провайдер вернул не-2xx статус")
	ErrProviderResponse = errors.New("невалидный ответ провайдера")
)

// Таймаут одного запроса к внешнему провайдеру
const defaultProviderTimeout = 10 * time.Second

// Provider стратегия резолва IP через один внешний сервис.
// Resolve возвращает ошибку при сетевом сбое, не-2xx статусе или
// структурно невалидном теле; цепочка провайдеров перебирается по порядку.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, ip string) (*models.GeoLocation, error)
}

// newProviderClient создаёт HTTP-клиент с ограниченным таймаутом
func newProviderClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}
	return &http.Client{Timeout: timeout}
}

// fetchJSON выполняет GET и декодирует JSON-ответ в out
func fetchJSON(ctx context.Context, client *http.Client, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %d", ErrProviderStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrProviderResponse, err)
	}

	return nil
}

// IPAPIProvider провайдер ip-api.com (основной).
// Бесплатный endpoint, поля ответа покрывают всю модель GeoLocation.
type IPAPIProvider struct {
	baseURL string
	client  *http.Client
}

// NewIPAPIProvider создаёт провайдер ip-api.com
func NewIPAPIProvider(timeout time.Duration) *IPAPIProvider {
	return &IPAPIProvider{
		baseURL: "http://ip-api.com/json",
		client:  newProviderClient(timeout),
	}
}

// NewIPAPIProviderWithURL создаёт провайдер с кастомным базовым URL (для тестов)
func NewIPAPIProviderWithURL(baseURL string, timeout time.Duration) *IPAPIProvider {
	return &IPAPIProvider{
		baseURL: baseURL,
		client:  newProviderClient(timeout),
	}
}

func (p *IPAPIProvider) Name() string { return "ip-api" }

// ipAPIResponse форма ответа ip-api.com
type ipAPIResponse struct {
	Status      string  `json:"status"` // "success" / "fail"
	Message     string  `json:"message"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	RegionName  string  `json:"regionName"`
	Region      string  `json:"region"`
	City        string  `json:"city"`
	Zip         string  `json:"zip"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Timezone    string  `json:"timezone"`
	ISP         string  `json:"isp"`
	Org         string  `json:"org"`
	AS          string  `json:"as"`
	Mobile      bool    `json:"mobile"`
	Proxy       bool    `json:"proxy"`
	Hosting     bool    `json:"hosting"`
}

// Resolve запрашивает ip-api.com и нормализует ответ в GeoLocation
func (p *IPAPIProvider) Resolve(ctx context.Context, ip string) (*models.GeoLocation, error) {
	reqURL := fmt.Sprintf("%s/%s?fields=status,message,country,countryCode,regionName,region,city,zip,lat,lon,timezone,isp,org,as,mobile,proxy,hosting",
		p.baseURL, url.PathEscape(ip))

	var body ipAPIResponse
	if err := fetchJSON(ctx, p.client, reqURL, &body); err != nil {
		return nil, err
	}

	if body.Status != "success" {
		return nil, fmt.Errorf("%w: status=%q message=%q", ErrProviderResponse, body.Status, body.Message)
	}

	return &models.GeoLocation{
		Country:     body.Country,
		CountryCode: body.CountryCode,
		Region:      body.RegionName,
		RegionCode:  body.Region,
		City:        body.City,
		Zip:         body.Zip,
		Latitude:    body.Lat,
		Longitude:   body.Lon,
		Timezone:    body.Timezone,
		ISP:         body.ISP,
		Org:         body.Org,
		ASNumber:    body.AS,
		IsMobile:    body.Mobile,
		IsProxy:     body.Proxy,
		IsHosting:   body.Hosting,
		Source:      p.Name(),
	}, nil
}

// IPAPICoProvider провайдер ipapi.co (резервный).
// Отдаёт меньше сетевых атрибутов, чем ip-api.com, но достаточен как запасной.
type IPAPICoProvider struct {
	baseURL string
	client  *http.Client
}

// NewIPAPICoProvider создаёт провайдер ipapi.co
func NewIPAPICoProvider(timeout time.Duration) *IPAPICoProvider {
	return &IPAPICoProvider{
		baseURL: "https://ipapi.co",
		client:  newProviderClient(timeout),
	}
}

// NewIPAPICoProviderWithURL создаёт провайдер с кастомным базовым URL (для тестов)
func NewIPAPICoProviderWithURL(baseURL string, timeout time.Duration) *IPAPICoProvider {
	return &IPAPICoProvider{
		baseURL: baseURL,
		client:  newProviderClient(timeout),
	}
}

func (p *IPAPICoProvider) Name() string { return "ipapi.co" }

// ipAPICoResponse форма ответа ipapi.co
type ipAPICoResponse struct {
	Error       bool    `json:"error"`
	Reason      string  `json:"reason"`
	CountryName string  `json:"country_name"`
	CountryCode string  `json:"country_code"`
	Region      string  `json:"region"`
	RegionCode  string  `json:"region_code"`
	City        string  `json:"city"`
	Postal      string  `json:"postal"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Timezone    string  `json:"timezone"`
	Org         string  `json:"org"`
	ASN         string  `json:"asn"`
}

// Resolve запрашивает ipapi.co и нормализует ответ в GeoLocation
func (p *IPAPICoProvider) Resolve(ctx context.Context, ip string) (*models.GeoLocation, error) {
	reqURL := fmt.Sprintf("%s/%s/json/", p.baseURL, url.PathEscape(ip))

	var body ipAPICoResponse
	if err := fetchJSON(ctx, p.client, reqURL, &body); err != nil {
		return nil, err
	}

	if body.Error {
		return nil, fmt.Errorf("%w: reason=%q", ErrProviderResponse, body.Reason)
	}
	if body.CountryName == "" {
		return nil, fmt.Errorf("%w: пустой country_name", ErrProviderResponse)
	}

	return &models.GeoLocation{
		Country:     body.CountryName,
		CountryCode: body.CountryCode,
		Region:      body.Region,
		RegionCode:  body.RegionCode,
		City:        body.City,
		Zip:         body.Postal,
		Latitude:    body.Latitude,
		Longitude:   body.Longitude,
		Timezone:    body.Timezone,
		ISP:         body.Org,
		Org:         body.Org,
		ASNumber:    body.ASN,
		Source:      p.Name(),
	}, nil
}
