package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("KEYCLOAK_URL", "https://auth.example.com/")
	t.Setenv("KEYCLOAK_REALM", "planmeet")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:5001", cfg.App.DirectoryAddr())
	assert.Equal(t, "0.0.0.0:5002", cfg.App.ChecklistAddr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, StoreDynamoDB, cfg.Store.Backend)
	assert.Equal(t, "https://auth.example.com/realms/planmeet", cfg.Keycloak.IssuerURL())
	assert.Equal(t, "https://auth.example.com/realms/planmeet/protocol/openid-connect/token", cfg.Keycloak.TokenURL())
	assert.Equal(t, "https://auth.example.com/realms/planmeet/protocol/openid-connect/certs", cfg.Keycloak.CertsURL())
	assert.Zero(t, cfg.Keycloak.HTTPTimeout())
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "zero")

	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Keycloak: KeycloakConfig{URL: "https://auth", Realm: "r", ClientID: "c", ClientSecret: "s"},
			Store:    StoreConfig{Backend: StoreDynamoDB},
			DynamoDB: DynamoDBConfig{TableName: "checklists"},
		}
	}

	t.Run("directory ok", func(t *testing.T) {
		require.NoError(t, base().Validate(ServiceDirectory))
	})

	t.Run("directory missing secret", func(t *testing.T) {
		cfg := base()
		cfg.Keycloak.ClientSecret = ""
		assert.ErrorContains(t, cfg.Validate(ServiceDirectory), "KEYCLOAK_CLIENT_SECRET")
	})

	t.Run("token cache needs redis", func(t *testing.T) {
		cfg := base()
		cfg.Keycloak.CacheAdminToken = true
		assert.ErrorContains(t, cfg.Validate(ServiceDirectory), "REDIS_ADDR")
	})

	t.Run("checklist dynamodb needs table", func(t *testing.T) {
		cfg := base()
		cfg.DynamoDB.TableName = ""
		assert.ErrorContains(t, cfg.Validate(ServiceChecklist), "DYNAMODB_TABLE_NAME")
	})

	t.Run("checklist postgres needs dsn", func(t *testing.T) {
		cfg := base()
		cfg.Store.Backend = StorePostgres
		assert.ErrorContains(t, cfg.Validate(ServiceChecklist), "POSTGRES_DSN")
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := base()
		cfg.Store.Backend = "sqlite"
		assert.ErrorContains(t, cfg.Validate(ServiceChecklist), "sqlite")
	})
}
