// Package tester holds helpers shared by package tests.
package tester

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/emrgen/notebook/internal/model"
	redis "github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RedisEnv names the redis address used by cache tests.
const RedisEnv = "NOTEBOOK_TEST_REDIS"

// NewDB opens a migrated sqlite database private to the test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	_ = os.Setenv("ENV", "test")

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "notebook.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	if err := model.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

// Redis returns a client for the redis named by NOTEBOOK_TEST_REDIS and
// skips the test when it is not set.
func Redis(t testing.TB) *redis.Client {
	t.Helper()

	addr := os.Getenv(RedisEnv)
	if addr == "" {
		t.Skipf("%s not set", RedisEnv)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Protocol: 2,
	})
	t.Cleanup(func() { _ = client.Close() })

	return client
}
