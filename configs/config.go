package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2/linkedin"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	Endpoint   string
}

// OAuthApp holds the client registration and endpoints for one provider.
// The URL fields default to the production hosts and are overridden in tests.
type OAuthApp struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	AuthURL      string
	TokenURL     string
	APIBaseURL   string
}

type Config struct {
	Port              string
	PostgresURI       string
	RedisURI          string
	FrontendURL       string
	AdminSettingsPath string
	SecretKey         string
	CookieName        string
	CookieSecure      bool

	TokenEncryptionKey string

	LinkedIn           OAuthApp
	LinkedInAPIVersion string
	Meta               OAuthApp
	MetaPageID         string
	Threads            OAuthApp

	R2              R2
	PhotoBaseURL    string
	PhotoURLExpiry  time.Duration
	SiteURL         string
	JPEGQuality     int
	InstagramVerify bool

	PublishTimeout     time.Duration
	PublishConcurrency int

	TokenRefreshSchedule string
	TokenRefreshWindow   time.Duration
}

func LoadConfig() *Config {
	graphVersion := getEnv("META_GRAPH_VERSION", "v21.0")

	return &Config{
		Port:              getEnv("PORT", "3000"),
		PostgresURI:       getEnv("POSTGRES_URI", ""),
		RedisURI:          getEnv("REDIS_URI", "localhost:6379"),
		FrontendURL:       getEnv("FRONTEND_URL", "http://localhost:5173"),
		AdminSettingsPath: getEnv("ADMIN_SETTINGS_PATH", "/admin/settings"),
		SecretKey:         getEnv("SECRET_KEY", ""),
		CookieName:        getEnv("COOKIE_NAME", "session"),
		CookieSecure:      getEnvBool("COOKIE_SECURE", true),

		TokenEncryptionKey: getEnv("TOKEN_ENCRYPTION_KEY", ""),

		LinkedIn: OAuthApp{
			ClientID:     getEnv("LINKEDIN_CLIENT_ID", ""),
			ClientSecret: getEnv("LINKEDIN_CLIENT_SECRET", ""),
			RedirectURI:  getEnv("LINKEDIN_REDIRECT_URI", ""),
			Scopes:       getEnvList("LINKEDIN_SCOPES", []string{"r_organization_social", "w_organization_social", "rw_organization_admin"}),
			AuthURL:      getEnv("LINKEDIN_AUTH_URL", linkedin.Endpoint.AuthURL),
			TokenURL:     getEnv("LINKEDIN_TOKEN_URL", linkedin.Endpoint.TokenURL),
			APIBaseURL:   getEnv("LINKEDIN_API_BASE_URL", "https://api.linkedin.com"),
		},
		LinkedInAPIVersion: getEnv("LINKEDIN_API_VERSION", "202401"),
		Meta: OAuthApp{
			ClientID:     getEnv("META_APP_ID", ""),
			ClientSecret: getEnv("META_APP_SECRET", ""),
			RedirectURI:  getEnv("META_REDIRECT_URI", ""),
			Scopes: getEnvList("META_SCOPES", []string{
				"pages_show_list", "pages_read_engagement", "pages_manage_posts",
				"instagram_basic", "instagram_content_publish", "business_management",
			}),
			AuthURL:    getEnv("META_AUTH_URL", "https://www.facebook.com/"+graphVersion+"/dialog/oauth"),
			TokenURL:   getEnv("META_TOKEN_URL", "https://graph.facebook.com/"+graphVersion+"/oauth/access_token"),
			APIBaseURL: getEnv("META_GRAPH_BASE_URL", "https://graph.facebook.com/"+graphVersion),
		},
		MetaPageID: getEnv("META_PAGE_ID", ""),
		Threads: OAuthApp{
			ClientID:     getEnv("THREADS_APP_ID", ""),
			ClientSecret: getEnv("THREADS_APP_SECRET", ""),
			RedirectURI:  getEnv("THREADS_REDIRECT_URI", ""),
			Scopes:       getEnvList("THREADS_SCOPES", []string{"threads_basic", "threads_content_publish"}),
			AuthURL:      getEnv("THREADS_AUTH_URL", "https://threads.net/oauth/authorize"),
			TokenURL:     getEnv("THREADS_TOKEN_URL", "https://graph.threads.net/oauth/access_token"),
			APIBaseURL:   getEnv("THREADS_API_BASE_URL", "https://graph.threads.net"),
		},

		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			Endpoint:   getEnv("R2_ENDPOINT", ""),
		},
		PhotoBaseURL:    getEnv("PHOTO_BASE_URL", "http://localhost:3000"),
		PhotoURLExpiry:  getEnvDuration("PHOTO_URL_EXPIRY", time.Hour),
		SiteURL:         getEnv("SITE_URL", "http://localhost:5173"),
		JPEGQuality:     getEnvInt("JPEG_QUALITY", 90),
		InstagramVerify: getEnvBool("INSTAGRAM_VERIFY_JPEG", false),

		PublishTimeout:     getEnvDuration("PUBLISH_TIMEOUT", 2*time.Minute),
		PublishConcurrency: getEnvInt("PUBLISH_CONCURRENCY", 4),

		TokenRefreshSchedule: getEnv("TOKEN_REFRESH_SCHEDULE", "@every 6h"),
		TokenRefreshWindow:   getEnvDuration("TOKEN_REFRESH_WINDOW", 7*24*time.Hour),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
