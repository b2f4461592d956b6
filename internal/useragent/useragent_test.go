package useragent_test

import (
	"testing"

	"github.com/siqiongbil/blog-analytics/internal/models"
	"github.com/siqiongbil/blog-analytics/internal/useragent"
	"github.com/stretchr/testify/assert"
)

const (
	uaChromeWindows = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	uaEdgeWindows   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.2210.91"
	uaOperaLinux    = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 OPR/106.0.0.0"
	uaSafariMac     = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15"
	uaFirefoxLinux  = "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"
	uaIPhone        = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1"
	uaIPad          = "Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1"
	uaAndroidPhone  = "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36"
	uaAndroidTablet = "Mozilla/5.0 (Linux; Android 13; SM-T870) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// TestClassify_Device проверяет классификацию типа устройства
func TestClassify_Device(t *testing.T) {
	tests := []struct {
		name     string
		ua       string
		expected models.DeviceType
	}{
		{"десктоп Windows", uaChromeWindows, models.DeviceDesktop},
		{"десктоп macOS", uaSafariMac, models.DeviceDesktop},
		{"iPhone", uaIPhone, models.DevicePhone},
		{"Android телефон", uaAndroidPhone, models.DevicePhone},
		{"iPad", uaIPad, models.DeviceTablet},
		{"Android планшет Samsung", uaAndroidTablet, models.DeviceTablet},
		{"пустой UA", "", models.DeviceUnknown},
		{"нераспознанный UA считается десктопом", "curl/8.4.0", models.DeviceDesktop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device, _, _ := useragent.Classify(tt.ua)
			assert.Equal(t, tt.expected, device)
		})
	}
}

// TestClassify_TabletBeatsPhone проверяет приоритет планшета над телефоном:
// UA с токенами "ipad" и "mobile" одновременно — это планшет
func TestClassify_TabletBeatsPhone(t *testing.T) {
	device, _, _ := useragent.Classify(uaIPad)
	assert.Equal(t, models.DeviceTablet, device)

	// Явно содержит и tablet-, и mobile-подобные токены
	device, _, _ = useragent.Classify("Mozilla/5.0 (Linux; Android 13; Tablet) Mobile Safari/537.36")
	assert.Equal(t, models.DeviceTablet, device)
}

// TestClassify_Browser проверяет порядок правил браузеров:
// Edge и Opera раньше Chrome, Chrome раньше Safari
func TestClassify_Browser(t *testing.T) {
	tests := []struct {
		name     string
		ua       string
		expected string
	}{
		{"Edge содержит chrome и safari, но это Edge", uaEdgeWindows, "Edge"},
		{"Opera содержит chrome и safari, но это Opera", uaOperaLinux, "Opera"},
		{"Chrome содержит safari, но это Chrome", uaChromeWindows, "Chrome"},
		{"Safari", uaSafariMac, "Safari"},
		{"Firefox", uaFirefoxLinux, "Firefox"},
		{"старый IE по trident", "Mozilla/5.0 (Windows NT 6.1; Trident/7.0; rv:11.0) like Gecko", "Internet Explorer"},
		{"неизвестный браузер", "curl/8.4.0", useragent.UnknownBrowser},
		{"пустой UA", "", useragent.UnknownBrowser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, browser, _ := useragent.Classify(tt.ua)
			assert.Equal(t, tt.expected, browser)
		})
	}
}

// TestClassify_OS проверяет порядок правил ОС:
// Android раньше Linux, iOS раньше macOS
func TestClassify_OS(t *testing.T) {
	tests := []struct {
		name     string
		ua       string
		expected string
	}{
		{"Windows", uaChromeWindows, "Windows"},
		{"Android UA содержит linux, но это Android", uaAndroidPhone, "Android"},
		{"iPad UA содержит mac os, но это iOS", uaIPad, "iOS"},
		{"iPhone", uaIPhone, "iOS"},
		{"macOS", uaSafariMac, "macOS"},
		{"Linux", uaFirefoxLinux, "Linux"},
		{"неизвестная ОС", "curl/8.4.0", useragent.UnknownOS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, os := useragent.Classify(tt.ua)
			assert.Equal(t, tt.expected, os)
		})
	}
}

// TestClassify_Deterministic проверяет детерминированность: один и тот же
// вход всегда даёт одну и ту же тройку
func TestClassify_Deterministic(t *testing.T) {
	inputs := []string{uaChromeWindows, uaEdgeWindows, uaIPad, uaAndroidPhone, "", "curl/8.4.0"}

	for _, ua := range inputs {
		d1, b1, o1 := useragent.Classify(ua)
		for i := 0; i < 10; i++ {
			d2, b2, o2 := useragent.Classify(ua)
			assert.Equal(t, d1, d2)
			assert.Equal(t, b1, b2)
			assert.Equal(t, o1, o2)
		}
	}
}
