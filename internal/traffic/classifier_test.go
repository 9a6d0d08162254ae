package traffic

import "testing"

const consumerUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

func TestClassifySkipsAdminTraffic(t *testing.T) {
	res := Classify(Signals{PageURL: "https://studioreel.cn/admin/videos"})
	if !res.Skip {
		t.Fatalf("expected admin page url to be skipped")
	}

	res = Classify(Signals{Referrer: "https://studioreel.cn/ADMIN/login"})
	if !res.Skip {
		t.Fatalf("expected admin referrer to be skipped")
	}
}

func TestClassifyHardSignals(t *testing.T) {
	cases := []struct {
		name string
		sig  Signals
		bot  bool
		test bool
	}{
		{"loopback ip", Signals{IP: "127.0.0.1", UserAgent: consumerUA}, false, true},
		{"private ip", Signals{IP: "192.168.1.20", UserAgent: consumerUA}, false, true},
		{"localhost literal", Signals{IP: "localhost"}, false, true},
		{"test session prefix", Signals{IP: "203.0.113.9", SessionID: "test_abc123"}, false, true},
		{"e2e session prefix", Signals{IP: "203.0.113.9", SessionID: "e2e-run-7"}, false, true},
		{"headless browser", Signals{IP: "203.0.113.9", UserAgent: "Mozilla/5.0 HeadlessChrome/126.0"}, true, true},
		{"selenium driver", Signals{IP: "203.0.113.9", UserAgent: "selenium/4.1 (python)"}, true, true},
		{"crawler", Signals{IP: "203.0.113.9", UserAgent: "Googlebot/2.1 (+http://www.google.com/bot.html)"}, true, false},
		{"curl", Signals{IP: "203.0.113.9", UserAgent: "curl/8.4.0"}, true, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Classify(tc.sig)
			if res.Skip {
				t.Fatalf("hard signal must flag, not skip")
			}
			if res.IsBot != tc.bot || res.IsTestData != tc.test {
				t.Fatalf("got bot=%v test=%v, want bot=%v test=%v", res.IsBot, res.IsTestData, tc.bot, tc.test)
			}
		})
	}
}

func TestClassifyWeakSignalFlagged(t *testing.T) {
	// 弱信号且缺乏生产环境证据：标记为测试数据
	res := Classify(Signals{
		IP:        "203.0.113.9",
		Referrer:  "http://localhost:3000/",
		UserAgent: "SomeApp/1.0",
	})
	if !res.IsTestData {
		t.Fatalf("expected weak dev referrer to flag test data")
	}
	if res.IsBot {
		t.Fatalf("weak signal must not flag bot")
	}
}

func TestClassifyProductionOverride(t *testing.T) {
	// 弱信号 + 两项生产环境证据：正常流量不被误标
	res := Classify(Signals{
		IP:               "203.0.113.9",
		Referrer:         "https://dev.example.com/article",
		UserAgent:        consumerUA,
		PageURL:          "https://studioreel.cn/videos",
		ScreenResolution: "1920x1080",
	})
	if res.IsTestData {
		t.Fatalf("production evidence must override weak dev referrer")
	}
}

func TestClassifyConfiguredSiteHost(t *testing.T) {
	// 配置的站点域名（含子域）视为生产证据，即使带 dev. 前缀
	sig := Signals{
		IP:               "203.0.113.9",
		Referrer:         "http://localhost:3000/",
		UserAgent:        consumerUA,
		PageURL:          "https://dev.studioreel.cn/preview",
		ScreenResolution: "800x600",
		SiteHost:         "studioreel.cn",
	}
	if res := Classify(sig); res.IsTestData {
		t.Fatalf("configured site host must count as production evidence: %+v", res)
	}

	// 非本站域名不因配置而获得豁免
	sig.PageURL = "https://dev.example.com/preview"
	if res := Classify(sig); !res.IsTestData {
		t.Fatalf("foreign dev host must stay flagged: %+v", res)
	}
}

func TestUAWeakTestToken(t *testing.T) {
	cases := map[string]bool{
		"MyApp test build/1.0":    true,
		"test/1.0":                true,
		"internal-test-client":    true,
		consumerUA:                false,
		"LatestBrowser/2.0":       false,
		"GreatestApp/1.0 (en-US)": false,
	}
	for ua, want := range cases {
		if got := uaHasWeakTestToken(ua); got != want {
			t.Fatalf("uaHasWeakTestToken(%q) = %v, want %v", ua, got, want)
		}
	}
}

func TestClassifyDefaultAutomationViewport(t *testing.T) {
	// 800x600 是自动化默认视口，不构成生产证据
	res := Classify(Signals{
		IP:               "203.0.113.9",
		Referrer:         "http://localhost:3000/",
		UserAgent:        "tester/1.0",
		PageURL:          "http://staging.example.com/",
		ScreenResolution: "800x600",
	})
	if !res.IsTestData {
		t.Fatalf("expected automation viewport to stay flagged")
	}
}

func TestClassifyCleanTraffic(t *testing.T) {
	res := Classify(Signals{
		IP:               "203.0.113.9",
		UserAgent:        consumerUA,
		Referrer:         "https://www.google.com/",
		PageURL:          "https://studioreel.cn/",
		ScreenResolution: "1440x900",
	})
	if res.IsBot || res.IsTestData || res.Skip {
		t.Fatalf("clean traffic misclassified: %+v", res)
	}
}

func TestResolutionLooksReal(t *testing.T) {
	cases := map[string]bool{
		"1920x1080": true,
		"390x844":   true,
		"800x600":   false,
		"1024x768":  false,
		"banana":    false,
		"":          false,
	}
	for res, want := range cases {
		if got := resolutionLooksReal(res); got != want {
			t.Fatalf("resolutionLooksReal(%q) = %v, want %v", res, got, want)
		}
	}
}
