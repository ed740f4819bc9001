package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appconfig "github.com/GTDGit/catalog_api/internal/config"
)

func TestDSN_EscapesCredentials(t *testing.T) {
	dsn := DSN(&appconfig.DatabaseConfig{
		Host:     "db",
		Port:     "5432",
		User:     "cat alog",
		Password: "p@ss/word",
		Name:     "catalog",
		SSLMode:  "disable",
	})
	assert.Equal(t, "postgres://cat+alog:p%40ss%2Fword@db:5432/catalog?sslmode=disable", dsn)
}

func TestSleepWithBackoff_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := sleepWithBackoff(ctx, 5, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestConnect_NilConfig(t *testing.T) {
	_, err := Connect(context.Background(), nil)
	assert.Error(t, err)
}
