package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("STORAGE_TYPE", "")
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("LETTER_PDF_URL_EXPIRY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, 15*time.Minute, cfg.Letter.PDFURLExpiry)
	assert.NotNil(t, cfg.Letter.Location())
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DRIVER")
}

func TestValidateRequiresSecretInProduction(t *testing.T) {
	cfg := &Config{
		Server:   ServerConfig{Environment: "production"},
		Database: DatabaseConfig{Driver: "postgres"},
		Storage:  StorageConfig{Type: "local"},
	}
	require.Error(t, cfg.Validate())

	cfg.Auth.JWTSecret = "rahasia"
	require.NoError(t, cfg.Validate())
}

func TestDSN(t *testing.T) {
	pg := DatabaseConfig{Driver: "postgres", Host: "db", Port: "5432", User: "u", Password: "p", DBName: "desa"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=desa sslmode=disable", pg.DSN())

	my := DatabaseConfig{Driver: "mysql", Host: "db", Port: "3306", User: "u", Password: "p", DBName: "desa"}
	assert.Equal(t, "u:p@tcp(db:3306)/desa?charset=utf8mb4&parseTime=True&loc=Local", my.DSN())
}

func TestLetterLocationFallback(t *testing.T) {
	l := LetterConfig{Timezone: "Not/AZone"}
	_, offset := time.Date(2025, 1, 1, 0, 0, 0, 0, l.Location()).Zone()
	assert.Equal(t, 7*60*60, offset)
}
