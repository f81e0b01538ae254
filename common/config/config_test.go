package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, User: "afya", Password: "p@ss word", Database: "afyalink"}
	assert.Equal(t, `host=db port=5432 user=afya password='p@ss word' dbname=afyalink sslmode=disable`, c.GetDSN())

	c.Password = `it's`
	c.SSLMode = "require"
	assert.Equal(t, `host=db port=5432 user=afya password='it\'s' dbname=afyalink sslmode=require`, c.GetDSN())
}

func TestDatabaseConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("MIGRATE_DB_HOST", "replica")
	t.Setenv("MIGRATE_DB_PORT", "6432")
	t.Setenv("MIGRATE_DB_NAME", "afyalink_staging")

	c := DatabaseConfig{Host: "localhost", Port: 5432, User: "postgres", Database: "afyalink"}
	require.NoError(t, c.LoadFromEnv("MIGRATE_DB"))
	assert.Equal(t, "replica", c.Host)
	assert.Equal(t, 6432, c.Port)
	assert.Equal(t, "postgres", c.User)
	assert.Equal(t, "afyalink_staging", c.Database)

	t.Setenv("MIGRATE_DB_PORT", "x")
	err := c.LoadFromEnv("MIGRATE_DB")
	assert.ErrorContains(t, err, "MIGRATE_DB_PORT")
	assert.Equal(t, 6432, c.Port)
}
