package config

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 120*time.Minute, cfg.SessionTTL)
	assert.Equal(t, time.Duration(0), cfg.CatalogCacheTTL)
	assert.Equal(t, RiskBands{MediumMin: 10, HighMin: 20}, cfg.AssistBands)
	assert.Equal(t, RiskBands{MediumMin: 1, HighMin: 2}, cfg.CrafftBands)
	assert.Nil(t, cfg.AllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SESSION_TTL_MINUTES", "30")
	t.Setenv("ASSIST_MEDIUM_MIN", "4")
	t.Setenv("ASSIST_HIGH_MIN", "27")
	t.Setenv("CRAFFT_HIGH_MIN", "not-a-number")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg := Load()

	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, RiskBands{MediumMin: 4, HighMin: 27}, cfg.AssistBands)
	assert.Equal(t, 2, cfg.CrafftBands.HighMin)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestCacheKeys(t *testing.T) {
	id := uuid.MustParse("7f1c2b9e-3a54-4d6b-9a8e-0c2d4e6f8a10")
	assert.Equal(t, "user:7:assessment:7f1c2b9e-3a54-4d6b-9a8e-0c2d4e6f8a10", CacheKey.AssessmentSessionKey(7, id))
	assert.Equal(t, "catalog:template:CRAFFT", CacheKey.CatalogTemplateKey("CRAFFT"))
}
