package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresJWTSecret(t *testing.T) {
	chdirTemp(t)
	t.Setenv("LISTINGHUB_SECURITY_JWTSECRET", "")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.ErrorIs(t, err, ErrMissingJWTSecret)
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Security.JWTSecret)
	assert.Equal(t, 7*24*time.Hour, cfg.Security.JWTTTL)
	assert.Equal(t, 9, cfg.Listings.DefaultLimit)
	assert.False(t, cfg.Listings.HideExpired)
	assert.Equal(t, StorageDriverLocal, cfg.Storage.Driver)
	assert.EqualValues(t, 5*1024*1024, cfg.Storage.MaxUploadBytes)
	assert.True(t, cfg.Security.AllowAdminRegistration)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("LISTINGHUB_SECURITY_JWTSECRET", "primary")
	t.Setenv("PORT", "8088")
	t.Setenv("LISTINGHUB_LISTINGS_HIDEEXPIRED", "true")
	t.Setenv("LISTINGHUB_ALLOWCORSORIGINS", "http://a.test,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "primary", cfg.Security.JWTSecret)
	assert.Equal(t, 8088, cfg.HTTP.Port)
	assert.True(t, cfg.Listings.HideExpired)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowCORSOrigins)
}

func TestValidateRejectsUnknownStorageDriver(t *testing.T) {
	cfg := AppConfig{
		Security: SecurityConfig{JWTSecret: "x", JWTTTL: time.Hour},
		Storage:  StorageConfig{Driver: "ftp"},
		Listings: ListingsConfig{DefaultLimit: 9, MaxLimit: 100},
	}
	assert.Error(t, cfg.Validate())

	cfg.Storage.Driver = StorageDriverS3
	assert.NoError(t, cfg.Validate())
}

func TestValidateExpirySweepSchedule(t *testing.T) {
	cfg := AppConfig{
		Security: SecurityConfig{JWTSecret: "x", JWTTTL: time.Hour},
		Storage:  StorageConfig{Driver: StorageDriverLocal},
		Listings: ListingsConfig{DefaultLimit: 9, MaxLimit: 100},
	}

	for _, ok := range []string{"", "0 0 * * * *", "@hourly", "*/30 * * * * *"} {
		cfg.Jobs.ExpirySweep = ok
		assert.NoError(t, cfg.Validate(), ok)
	}
	for _, bad := range []string{"every hour", "0 0 * * *", "61 * * * * *"} {
		cfg.Jobs.ExpirySweep = bad
		assert.Error(t, cfg.Validate(), bad)
	}
}

func TestLoadRejectsBadExpirySweep(t *testing.T) {
	chdirTemp(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("LISTINGHUB_JOBS_EXPIRYSWEEP", "not a schedule")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jobs.expirysweep")
}

func TestLoadWorkerDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := LoadWorker()
	require.NoError(t, err)

	assert.Equal(t, "listinghub:tasks", cfg.Redis.Stream)
	assert.Equal(t, 30*time.Second, cfg.Queues.ClaimInterval)
	assert.EqualValues(t, 5, cfg.Queues.MaxDeliveries)
	assert.False(t, cfg.Listings.PurgeExpired)
}

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
