package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("FLEET_TEST_SET", "value")
	t.Setenv("FLEET_TEST_EMPTY", "")

	assert.Equal(t, "value", GetEnv("FLEET_TEST_SET", "default"))
	assert.Equal(t, "", GetEnv("FLEET_TEST_EMPTY", "default"), "an explicitly empty variable wins")
	assert.Equal(t, "default", GetEnv("FLEET_TEST_UNSET_7d1c", "default"))
}

func TestLoadServer(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("APP_TIMEZONE", "Not/AZone")
	t.Setenv("SESSION_CACHE_SIZE", "-3")

	srv := LoadServer()
	assert.Equal(t, ":9090", srv.Addr)
	assert.Equal(t, time.UTC, srv.TimeZone)
	assert.Equal(t, 256, srv.SessionCache)
}
