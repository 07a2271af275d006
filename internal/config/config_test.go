package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-account-dashboard/internal/config"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	c, err := config.New()
	require.NoError(t, err)

	require.Equal(t, ":3000", c.GetPort())
	require.Equal(t, "DEV", c.GetEnv())
	require.Equal(t, "access_token", c.GetSessionCookieName())
	require.Equal(t, "refresh_token", c.GetRefreshCookieName())
	require.Equal(t, []string{"/dashboard"}, c.GetProtectedPrefixes())
	require.Equal(t, []string{"/login", "/register"}, c.GetAuthRoutes())
	require.Equal(t, "/login", c.GetLoginRoute())
	require.Equal(t, 5*time.Minute, c.GetOAuthTimeout())
	require.Empty(t, c.GetAllowedOrigins())
}

func TestNew_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", ":9090")
	t.Setenv("API_URL", "https://api.example.com/")
	t.Setenv("BASE_URL", "https://app.example.com/")
	t.Setenv("PROTECTED_PREFIXES", "/dashboard,/settings")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("OAUTH_TIMEOUT", "30s")

	c, err := config.New()
	require.NoError(t, err)

	require.Equal(t, ":9090", c.GetPort())
	require.Equal(t, "https://api.example.com", c.GetAPIURL())
	require.Equal(t, "https://app.example.com", c.GetBaseURL())
	require.Equal(t, []string{"/dashboard", "/settings"}, c.GetProtectedPrefixes())
	require.Equal(t, 30*time.Second, c.GetOAuthTimeout())

	origins := c.GetAllowedOrigins()
	require.True(t, origins.IsAllowedOrigin("https://a.example.com"))
	require.True(t, origins.IsAllowedOrigin("https://b.example.com"))
	require.False(t, origins.IsAllowedOrigin("https://c.example.com"))
}

func TestNew_InvalidDuration(t *testing.T) {
	t.Setenv("OAUTH_TIMEOUT", "soon")

	_, err := config.New()
	require.Error(t, err)
}
