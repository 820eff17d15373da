package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	require.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 100, cfg.Workflow.MinAbstractLength)
	assert.Equal(t, 2000, cfg.Workflow.MaxReviewNoteLength)
	assert.True(t, cfg.Workflow.AuditOverrides)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Len(t, cfg.Documents.AllowedMIMEs, 3)
	assert.Equal(t, int64(10*1024*1024), cfg.Documents.MaxFileSizeBytes)
	assert.Equal(t, 2, cfg.Notifications.Workers)
}

func TestOverridesAndFallbacks(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("CACHE_TTL", "not-a-duration")
	v.Set("WORKFLOW_MIN_ABSTRACT_LENGTH", 0)
	v.Set("ALLOWED_ORIGINS", " http://a.test , ,http://b.test")
	v.Set("JWT_EXPIRATION", "2h")

	cfg := fromViper(v)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 100, cfg.Workflow.MinAbstractLength)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 2*time.Hour, cfg.JWT.Expiration)
}
