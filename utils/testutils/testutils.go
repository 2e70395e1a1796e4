package testutils

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/mh131105/TP1-BD/destination/postgres"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const integrationEnv = "TP1_INTEGRATION_TEST"

const (
	testImage    = "postgres:16-alpine"
	testDatabase = "amazon_test"
	testUser     = "loader"
	testPassword = "loader"
)

// SkipUnlessIntegration skips tests that need a docker daemon unless
// TP1_INTEGRATION_TEST is set.
func SkipUnlessIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv(integrationEnv) == "" {
		t.Skipf("set %s=1 to run integration tests", integrationEnv)
	}
}

// PostgresContainer starts a throwaway postgres and returns a config
// pointing at it. The container is terminated when the test finishes.
func PostgresContainer(ctx context.Context, t *testing.T) *postgres.Config {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        testImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     testUser,
			"POSTGRES_PASSWORD": testPassword,
			"POSTGRES_DB":       testDatabase,
		},
		// postgres restarts once during init, the second ready line is the real one
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "container startup failed")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("warning: failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return &postgres.Config{
		Host:     host,
		Port:     port.Int(),
		Database: testDatabase,
		Username: testUser,
		Password: testPassword,
	}
}
