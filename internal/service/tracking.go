package service

import (
	"net"
	"strings"
	"sync/atomic"

	"github.com/siqiongbil/blog-analytics/internal/config"
	"go.uber.org/zap"
)

// Причины пропуска трекинга
const (
	SkipReasonHost      = "host"
	SkipReasonReferer   = "referer"
	SkipReasonUserAgent = "user_agent"
	SkipReasonIP        = "ip"
)

// TrackingRequest атрибуты запроса, по которым принимается решение о пропуске
type TrackingRequest struct {
	Host      string
	Referer   string
	UserAgent string
	ClientIP  string
}

// SkipFilter решает, исключён ли запрос из трекинга: внутренние домены,
// боты по User-Agent, служебные IP. Проверка выполняется один раз на запрос
// и завершается на первом совпадении; от геолокации и дедупа не зависит.
// Пропущенные запросы считаются по причинам, но не записываются.
type SkipFilter struct {
	hosts      []string
	userAgents []string
	ips        map[string]struct{}
	cidrs      []*net.IPNet

	skippedHost      atomic.Int64
	skippedReferer   atomic.Int64
	skippedUserAgent atomic.Int64
	skippedIP        atomic.Int64
}

// NewSkipFilter создаёт фильтр из конфигурации. Записи списка IP могут быть
// точными адресами или CIDR-префиксами; невалидные префиксы пропускаются
// с предупреждением в лог.
func NewSkipFilter(cfg config.TrackingConfig, logger *zap.Logger) *SkipFilter {
	if logger == nil {
		logger = zap.NewNop()
	}

	f := &SkipFilter{
		ips: make(map[string]struct{}),
	}

	for _, host := range cfg.SkipHosts {
		f.hosts = append(f.hosts, strings.ToLower(host))
	}
	for _, ua := range cfg.SkipUserAgents {
		f.userAgents = append(f.userAgents, strings.ToLower(ua))
	}

	for _, entry := range cfg.SkipIPs {
		if strings.Contains(entry, "/") {
			_, cidr, err := net.ParseCIDR(entry)
			if err != nil {
				logger.Warn("Невалидный CIDR в списке пропуска трекинга, запись пропущена",
					zap.String("entry", entry), zap.Error(err))
				continue
			}
			f.cidrs = append(f.cidrs, cidr)
			continue
		}
		f.ips[entry] = struct{}{}
	}

	return f
}

// ShouldSkip возвращает true и причину, если запрос исключён из трекинга.
// Порядок проверок: host, referer, user-agent, ip; первое совпадение побеждает.
func (f *SkipFilter) ShouldSkip(req TrackingRequest) (bool, string) {
	host := strings.ToLower(req.Host)
	for _, skip := range f.hosts {
		if strings.Contains(host, skip) {
			f.skippedHost.Add(1)
			return true, SkipReasonHost
		}
	}

	referer := strings.ToLower(req.Referer)
	if referer != "" {
		for _, skip := range f.hosts {
			if strings.Contains(referer, skip) {
				f.skippedReferer.Add(1)
				return true, SkipReasonReferer
			}
		}
	}

	ua := strings.ToLower(req.UserAgent)
	for _, skip := range f.userAgents {
		if strings.Contains(ua, skip) {
			f.skippedUserAgent.Add(1)
			return true, SkipReasonUserAgent
		}
	}

	if _, ok := f.ips[req.ClientIP]; ok {
		f.skippedIP.Add(1)
		return true, SkipReasonIP
	}
	if parsed := net.ParseIP(req.ClientIP); parsed != nil {
		for _, cidr := range f.cidrs {
			if cidr.Contains(parsed) {
				f.skippedIP.Add(1)
				return true, SkipReasonIP
			}
		}
	}

	return false, ""
}

// SkipCounts возвращает количество пропущенных запросов по причинам
// за время жизни фильтра
func (f *SkipFilter) SkipCounts() map[string]int64 {
	return map[string]int64{
		SkipReasonHost:      f.skippedHost.Load(),
		SkipReasonReferer:   f.skippedReferer.Load(),
		SkipReasonUserAgent: f.skippedUserAgent.Load(),
		SkipReasonIP:        f.skippedIP.Load(),
	}
}
