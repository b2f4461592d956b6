package service_test

import (
	"testing"

	"github.com/siqiongbil/blog-analytics/internal/config"
	"github.com/siqiongbil/blog-analytics/internal/service"
	"github.com/stretchr/testify/assert"
)

func newTestFilter() *service.SkipFilter {
	return service.NewSkipFilter(config.TrackingConfig{
		SkipHosts:      []string{"admin.example.com", "staging."},
		SkipUserAgents: []string{"bot", "spider", "crawler", "curl"},
		SkipIPs:        []string{"203.0.113.7", "10.0.0.0/8"},
	}, nil)
}

// TestSkipFilter_ShouldSkip проверяет все ветки фильтра и порядок проверок
func TestSkipFilter_ShouldSkip(t *testing.T) {
	filter := newTestFilter()

	tests := []struct {
		name       string
		req        service.TrackingRequest
		skip       bool
		reason     string
	}{
		{
			name:   "обычный запрос не пропускается",
			req:    service.TrackingRequest{Host: "blog.example.com", UserAgent: "Mozilla/5.0 Chrome/120.0", ClientIP: "93.184.216.34"},
			skip:   false,
			reason: "",
		},
		{
			name:   "внутренний хост",
			req:    service.TrackingRequest{Host: "admin.example.com", UserAgent: "Mozilla/5.0", ClientIP: "93.184.216.34"},
			skip:   true,
			reason: service.SkipReasonHost,
		},
		{
			name:   "хост без учёта регистра",
			req:    service.TrackingRequest{Host: "STAGING.example.com", UserAgent: "Mozilla/5.0", ClientIP: "93.184.216.34"},
			skip:   true,
			reason: service.SkipReasonHost,
		},
		{
			name:   "переход с внутреннего домена",
			req:    service.TrackingRequest{Host: "blog.example.com", Referer: "https://admin.example.com/panel", UserAgent: "Mozilla/5.0", ClientIP: "93.184.216.34"},
			skip:   true,
			reason: service.SkipReasonReferer,
		},
		{
			name:   "бот по user-agent",
			req:    service.TrackingRequest{Host: "blog.example.com", UserAgent: "Googlebot/2.1 (+http://www.google.com/bot.html)", ClientIP: "93.184.216.34"},
			skip:   true,
			reason: service.SkipReasonUserAgent,
		},
		{
			name:   "curl по user-agent",
			req:    service.TrackingRequest{Host: "blog.example.com", UserAgent: "curl/8.4.0", ClientIP: "93.184.216.34"},
			skip:   true,
			reason: service.SkipReasonUserAgent,
		},
		{
			name:   "точный IP из списка",
			req:    service.TrackingRequest{Host: "blog.example.com", UserAgent: "Mozilla/5.0", ClientIP: "203.0.113.7"},
			skip:   true,
			reason: service.SkipReasonIP,
		},
		{
			name:   "IP внутри CIDR",
			req:    service.TrackingRequest{Host: "blog.example.com", UserAgent: "Mozilla/5.0", ClientIP: "10.20.30.40"},
			skip:   true,
			reason: service.SkipReasonIP,
		},
		{
			name:   "IP вне CIDR",
			req:    service.TrackingRequest{Host: "blog.example.com", UserAgent: "Mozilla/5.0", ClientIP: "11.0.0.1"},
			skip:   false,
			reason: "",
		},
		{
			name:   "первое совпадение побеждает: хост важнее user-agent",
			req:    service.TrackingRequest{Host: "admin.example.com", UserAgent: "Googlebot/2.1", ClientIP: "203.0.113.7"},
			skip:   true,
			reason: service.SkipReasonHost,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			skip, reason := filter.ShouldSkip(tt.req)
			assert.Equal(t, tt.skip, skip)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

// TestSkipFilter_Counts проверяет учёт пропущенных запросов по причинам:
// пропуски считаются, хотя записи о них не создаются
func TestSkipFilter_Counts(t *testing.T) {
	filter := newTestFilter()

	counts := filter.SkipCounts()
	assert.Equal(t, int64(0), counts[service.SkipReasonHost])
	assert.Equal(t, int64(0), counts[service.SkipReasonUserAgent])

	// Два пропуска по хосту, один по user-agent, один по IP;
	// непропущенный запрос счётчики не трогает
	filter.ShouldSkip(service.TrackingRequest{Host: "admin.example.com"})
	filter.ShouldSkip(service.TrackingRequest{Host: "staging.example.com"})
	filter.ShouldSkip(service.TrackingRequest{Host: "blog.example.com", UserAgent: "Googlebot/2.1"})
	filter.ShouldSkip(service.TrackingRequest{Host: "blog.example.com", UserAgent: "Mozilla/5.0", ClientIP: "203.0.113.7"})
	filter.ShouldSkip(service.TrackingRequest{Host: "blog.example.com", UserAgent: "Mozilla/5.0", ClientIP: "93.184.216.34"})

	counts = filter.SkipCounts()
	assert.Equal(t, int64(2), counts[service.SkipReasonHost])
	assert.Equal(t, int64(0), counts[service.SkipReasonReferer])
	assert.Equal(t, int64(1), counts[service.SkipReasonUserAgent])
	assert.Equal(t, int64(1), counts[service.SkipReasonIP])
}

// TestSkipFilter_InvalidCIDRIgnored проверяет, что невалидный CIDR
// не ломает фильтр, а просто пропускается
func TestSkipFilter_InvalidCIDRIgnored(t *testing.T) {
	filter := service.NewSkipFilter(config.TrackingConfig{
		SkipIPs: []string{"not-a-cidr/99", "192.168.0.0/16"},
	}, nil)

	skip, reason := filter.ShouldSkip(service.TrackingRequest{ClientIP: "192.168.1.5"})
	assert.True(t, skip)
	assert.Equal(t, service.SkipReasonIP, reason)

	skip, _ = filter.ShouldSkip(service.TrackingRequest{ClientIP: "93.184.216.34"})
	assert.False(t, skip)
}

// TestSkipFilter_EmptyConfig проверяет, что пустая конфигурация
// ничего не пропускает
func TestSkipFilter_EmptyConfig(t *testing.T) {
	filter := service.NewSkipFilter(config.TrackingConfig{}, nil)

	skip, reason := filter.ShouldSkip(service.TrackingRequest{
		Host:      "blog.example.com",
		UserAgent: "Googlebot/2.1",
		ClientIP:  "10.0.0.1",
	})
	assert.False(t, skip)
	assert.Empty(t, reason)
}
