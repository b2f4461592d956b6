// Package useragent классифицирует строку User-Agent по типу устройства,
// браузеру и операционной системе. Чистые функции без внешних зависимостей.
package useragent

import (
	"strings"

	"github.com/siqiongbil/blog-analytics/internal/models"
)

// Неизвестные значения для пустого или нераспознанного User-Agent
const (
	UnknownBrowser = "Unknown"
	UnknownOS      = "Unknown"
)

// substringRule правило "первое совпадение выигрывает"
type substringRule struct {
	tokens []string
	label  string
}

// Планшеты проверяются раньше телефонов: UA планшета часто содержит
// и "mobile"-подобные подстроки, при совпадении обоих побеждает планшет.
var tabletTokens = []string{"ipad", "tablet", "kindle", "silk", "playbook", "sm-t"}

var phoneTokens = []string{"iphone", "ipod", "mobile", "phone", "android"}

// Порядок важен: UA Edge и Opera содержат токены "chrome" и "safari",
// поэтому они проверяются до Chrome, а Chrome — до Safari.
var browserRules = []substringRule{
	{[]string{"edg/", "edge/", "edga", "edgios"}, "Edge"},
	{[]string{"opr/", "opera"}, "Opera"},
	{[]string{"firefox", "fxios"}, "Firefox"},
	{[]string{"chrome", "crios"}, "Chrome"},
	{[]string{"safari"}, "Safari"},
	{[]string{"msie", "trident"}, "Internet Explorer"},
}

// Android раньше Linux (Android UA содержит "linux"),
// iOS раньше macOS (iPad UA может содержать "like mac os x").
var osRules = []substringRule{
	{[]string{"windows"}, "Windows"},
	{[]string{"android"}, "Android"},
	{[]string{"iphone", "ipad", "ipod", "ios"}, "iOS"},
	{[]string{"mac os", "macintosh"}, "macOS"},
	{[]string{"linux"}, "Linux"},
}

// Classify разбирает User-Agent на тип устройства, браузер и ОС.
// Функция тотальна: для пустого или нераспознанного входа возвращает
// DeviceUnknown и метки Unknown, ошибок не бывает.
func Classify(userAgent string) (models.DeviceType, string, string) {
	if strings.TrimSpace(userAgent) == "" {
		return models.DeviceUnknown, UnknownBrowser, UnknownOS
	}

	ua := strings.ToLower(userAgent)

	return classifyDevice(ua), matchRules(ua, browserRules, UnknownBrowser), matchRules(ua, osRules, UnknownOS)
}

// classifyDevice определяет тип устройства: планшет раньше телефона,
// всё остальное считается десктопом
func classifyDevice(ua string) models.DeviceType {
	for _, token := range tabletTokens {
		if strings.Contains(ua, token) {
			return models.DeviceTablet
		}
	}
	for _, token := range phoneTokens {
		if strings.Contains(ua, token) {
			return models.DevicePhone
		}
	}
	return models.DeviceDesktop
}

// matchRules возвращает метку первого сработавшего правила
func matchRules(ua string, rules []substringRule, fallback string) string {
	for _, rule := range rules {
		for _, token := range rule.tokens {
			if strings.Contains(ua, token) {
				return rule.label
			}
		}
	}
	return fallback
}
