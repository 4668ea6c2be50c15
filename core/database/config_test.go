package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetention(t *testing.T) {
	day := 24 * time.Hour
	assert.Equal(t, 30*day, Config{}.Retention())
	assert.Equal(t, 7*day, Config{RetentionDays: 7}.Retention())
	assert.Zero(t, Config{RetentionDays: -1}.Retention())
}

func TestEnabledAndDefaults(t *testing.T) {
	assert.False(t, Config{Host: "  "}.Enabled())
	assert.True(t, Config{Host: "db"}.Enabled())
	assert.Equal(t, "disable", Config{}.sslMode())
	assert.Equal(t, 4, Config{}.poolSize())
}
