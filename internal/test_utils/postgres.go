package test_utils

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jeongsan/jeongsan/internal/config"
	"github.com/jeongsan/jeongsan/internal/database"
	log "github.com/sirupsen/logrus"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const snapshotName = "jeongsan-test-snapshot"

var (
	containerOnce sync.Once
	container     *postgres.PostgresContainer
	containerCfg  config.Database
	containerErr  error
)

// SetupTestDB hands out a connection to a migrated Postgres test container.
// The container is started once per test binary; every call restores the
// post-migration snapshot so tests never see each other's data.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	containerOnce.Do(startPostgres)
	if containerErr != nil {
		t.Fatalf("Failed to start postgres container: %v", containerErr)
	}

	if err := container.Restore(context.Background(), postgres.WithSnapshotName(snapshotName)); err != nil {
		t.Fatalf("Failed to restore postgres snapshot: %v", err)
	}

	db, err := database.Open(containerCfg)
	if err != nil {
		t.Fatalf("Failed to open database connection: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func startPostgres() {
	ctx := context.Background()

	projectRoot, err := findProjectRoot()
	if err != nil {
		containerErr = fmt.Errorf("failed to find project root: %w", err)
		return
	}

	container, containerErr = postgres.Run(
		ctx, "postgres:18.1-alpine",
		postgres.WithInitScripts(filepath.Join(projectRoot, "dev", "init.sql")),
		postgres.WithDatabase("jeongsan"),
		postgres.WithUsername("test_jeongsan"),
		postgres.WithPassword("test_jeongsan"),
		postgres.BasicWaitStrategies(),
	)
	if containerErr != nil {
		return
	}

	host, err := container.Host(ctx)
	if err != nil {
		containerErr = err
		return
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		containerErr = err
		return
	}
	log.Infof("Postgres container started at %s:%d", host, port.Int())

	containerCfg = config.Database{
		Host:   host,
		Port:   port.Int(),
		User:   "test_jeongsan",
		Pass:   "test_jeongsan",
		Name:   "jeongsan",
		Schema: "jeongsan",
	}

	if containerErr = database.Migrate(containerCfg); containerErr != nil {
		containerErr = fmt.Errorf("failed to apply migrations: %w", containerErr)
		return
	}
	containerErr = container.Snapshot(ctx, postgres.WithSnapshotName(snapshotName))
}

// findProjectRoot attempts to locate the project root directory
// It looks for .git directory or go.mod file
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if fileExists(filepath.Join(dir, ".git")) || fileExists(filepath.Join(dir, "go.mod")) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find project root")
		}
		dir = parent
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
