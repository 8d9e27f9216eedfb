package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PUBLISH_TIMEOUT", "")
	t.Setenv("META_GRAPH_VERSION", "")

	cfg := LoadConfig()

	assert.Equal(t, 2*time.Minute, cfg.PublishTimeout)
	assert.Equal(t, 4, cfg.PublishConcurrency)
	assert.Equal(t, "https://graph.facebook.com/v21.0", cfg.Meta.APIBaseURL)
	assert.Equal(t, "/admin/settings", cfg.AdminSettingsPath)
	assert.Contains(t, cfg.Threads.Scopes, "threads_content_publish")
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PUBLISH_TIMEOUT", "45s")
	t.Setenv("PUBLISH_CONCURRENCY", "2")
	t.Setenv("LINKEDIN_SCOPES", "a, b ,,c")
	t.Setenv("INSTAGRAM_VERIFY_JPEG", "true")

	cfg := LoadConfig()

	assert.Equal(t, 45*time.Second, cfg.PublishTimeout)
	assert.Equal(t, 2, cfg.PublishConcurrency)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.LinkedIn.Scopes)
	assert.True(t, cfg.InstagramVerify)
}
