package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr        string
	Port              string
	RemoteDSN         string
	RemoteDriver      string
	RemoteTimeout     time.Duration
	CacheDir          string
	MediaCacheDir     string
	BucketBaseURL     string
	BucketToken       string
	MediaBucket       string
	SessionSecret     string
	GinMode           string
	SuperRootUserName string
	SuperRootPassword string
	SiteBaseURL       string
	LogLevel          string
	LogFile           string
	GeoPrimaryBaseURL string
	GeoFallbackBase   string
	FreshWindowDays   int
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
// 若工作目录存在 .env 文件则先行加载，便于本地开发。
func Load() AppConfig {
	_ = godotenv.Load()

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	remoteDSN := strings.TrimSpace(os.Getenv("REMOTE_DSN"))

	remoteDriver := strings.TrimSpace(os.Getenv("REMOTE_DRIVER"))
	if remoteDriver == "" {
		remoteDriver = "postgres"
	}

	remoteTimeout := durationEnv("REMOTE_TIMEOUT", 8*time.Second)

	cacheDir := strings.TrimSpace(os.Getenv("CACHE_DIR"))
	if cacheDir == "" {
		cacheDir = "data/cache"
	}

	mediaCacheDir := strings.TrimSpace(os.Getenv("MEDIA_CACHE_DIR"))
	if mediaCacheDir == "" {
		mediaCacheDir = "data/media"
	}

	bucketBaseURL := strings.TrimRight(strings.TrimSpace(os.Getenv("BUCKET_BASE_URL")), "/")
	bucketToken := strings.TrimSpace(os.Getenv("BUCKET_TOKEN"))

	mediaBucket := strings.TrimSpace(os.Getenv("MEDIA_BUCKET"))
	if mediaBucket == "" {
		mediaBucket = "media"
	}

	sessionSecret := strings.TrimSpace(os.Getenv("SESSION_SECRET"))
	if sessionSecret == "" {
		sessionSecret = "studioreel-dev-secret"
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))
	if ginMode == "" {
		ginMode = "release"
	}

	siteBaseURL := strings.TrimSpace(os.Getenv("SITE_BASE_URL"))
	if siteBaseURL == "" {
		siteBaseURL = "https://studioreel.cn"
	}

	logLevel := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevel == "" {
		logLevel = "info"
	}

	geoPrimary := strings.TrimRight(strings.TrimSpace(os.Getenv("GEO_PRIMARY_BASE_URL")), "/")
	if geoPrimary == "" {
		geoPrimary = "http://ip-api.com/json"
	}

	geoFallback := strings.TrimRight(strings.TrimSpace(os.Getenv("GEO_FALLBACK_BASE_URL")), "/")
	if geoFallback == "" {
		geoFallback = "https://ipapi.co"
	}

	freshWindowDays := intEnv("ANALYTICS_FRESH_WINDOW_DAYS", 7)

	superRootUserName := strings.TrimSpace(os.Getenv("SUPER_ROOT_USER_NAME"))
	superRootPassword := strings.TrimSpace(os.Getenv("SUPER_ROOT_PASSWORD"))

	return AppConfig{
		ListenAddr:        listenAddr,
		Port:              port,
		RemoteDSN:         remoteDSN,
		RemoteDriver:      remoteDriver,
		RemoteTimeout:     remoteTimeout,
		CacheDir:          cacheDir,
		MediaCacheDir:     mediaCacheDir,
		BucketBaseURL:     bucketBaseURL,
		BucketToken:       bucketToken,
		MediaBucket:       mediaBucket,
		SessionSecret:     sessionSecret,
		GinMode:           ginMode,
		SuperRootUserName: superRootUserName,
		SuperRootPassword: superRootPassword,
		SiteBaseURL:       siteBaseURL,
		LogLevel:          logLevel,
		LogFile:           strings.TrimSpace(os.Getenv("LOG_FILE")),
		GeoPrimaryBaseURL: geoPrimary,
		GeoFallbackBase:   geoFallback,
		FreshWindowDays:   freshWindowDays,
	}
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func intEnv(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
