package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"CRM_APP_NAME":          os.Getenv("CRM_APP_NAME"),
		"CRM_APP_ENV":           os.Getenv("CRM_APP_ENV"),
		"CRM_APP_PORT":          os.Getenv("CRM_APP_PORT"),
		"CRM_DATABASE_HOST":     os.Getenv("CRM_DATABASE_HOST"),
		"CRM_DATABASE_PORT":     os.Getenv("CRM_DATABASE_PORT"),
		"CRM_DATABASE_PASSWORD": os.Getenv("CRM_DATABASE_PASSWORD"),
		"CRM_DATABASE_SSLMODE":  os.Getenv("CRM_DATABASE_SSLMODE"),
		"CRM_JWT_SECRET":        os.Getenv("CRM_JWT_SECRET"),
		"CRM_IMPORT_MAX_ROWS":   os.Getenv("CRM_IMPORT_MAX_ROWS"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "crm-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "crm", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 200, cfg.Import.MaxRows)
		assert.Equal(t, int64(5<<20), cfg.Import.MaxFileSize)
	})

	t.Run("environment variables override defaults", func(t *testing.T) {
		clearEnv()
		os.Setenv("CRM_APP_PORT", "9090")
		os.Setenv("CRM_DATABASE_HOST", "db.internal")
		os.Setenv("CRM_IMPORT_MAX_ROWS", "50")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9090", cfg.App.Port)
		assert.Equal(t, "db.internal", cfg.Database.Host)
		assert.Equal(t, 50, cfg.Import.MaxRows)
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setenv := func(t *testing.T, key, value string) {
		t.Helper()
		original := os.Getenv(key)
		os.Setenv(key, value)
		t.Cleanup(func() {
			if original == "" {
				os.Unsetenv(key)
			} else {
				os.Setenv(key, original)
			}
		})
	}

	productionBase := func(t *testing.T) {
		setenv(t, "CRM_APP_ENV", "production")
		setenv(t, "CRM_JWT_SECRET", "this-is-a-very-long-production-secret-key")
		setenv(t, "CRM_DATABASE_PASSWORD", "secret")
		setenv(t, "CRM_DATABASE_SSLMODE", "require")
	}

	t.Run("accepts a fully configured production environment", func(t *testing.T) {
		productionBase(t)
		_, err := Load()
		assert.NoError(t, err)
	})

	t.Run("rejects missing jwt secret", func(t *testing.T) {
		productionBase(t)
		setenv(t, "CRM_JWT_SECRET", "")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("rejects short jwt secret", func(t *testing.T) {
		productionBase(t)
		setenv(t, "CRM_JWT_SECRET", "short")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("rejects sslmode disable", func(t *testing.T) {
		productionBase(t)
		setenv(t, "CRM_DATABASE_SSLMODE", "disable")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "p@ss/word",
		DBName:   "crm",
		SSLMode:  "disable",
	}

	dsn := cfg.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "localhost:5432")
	assert.Contains(t, dsn, "sslmode=disable")
	// Special characters in the password must be escaped
	assert.NotContains(t, dsn, "p@ss/word")
}
