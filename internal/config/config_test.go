package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "a-very-long-test-secret")
	t.Setenv("CORS_ORIGINS", "https://legalinmo.co,https://www.legalinmo.co")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", c.APIPort)
	assert.Equal(t, "mongo", c.Store)
	assert.Equal(t, 24*time.Hour, c.JWTTTL)
	assert.Equal(t, []string{"https://legalinmo.co", "https://www.legalinmo.co"}, c.CORSOrigins)
	assert.Equal(t, "America/Bogota", c.Location().String())
	assert.Equal(t, "http://localhost:5173/login", c.PublicURL("/login"))
}

func TestLoadRejectsShortSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsUnknownStore(t *testing.T) {
	t.Setenv("JWT_SECRET", "a-very-long-test-secret")
	t.Setenv("STORE", "postgres")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.Error(t, err)
}
