package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/aclgate/aclgate"
	"github.com/aclgate/aclgate/testsuite"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

var (
	databaseURL = ""
	store       aclgate.Store
)

func TestMain(m *testing.M) {
	var (
		pool     *dockertest.Pool
		resource *dockertest.Resource
		err      error
	)

	databaseURL = os.Getenv("TEST_POSTGRES_DATABASE_URL")

	if databaseURL == "" {
		pool, err = dockertest.NewPool("")
		if err != nil {
			log.Fatalf("Could not connect to docker: %s", err)
		}

		resource, err = pool.RunWithOptions(&dockertest.RunOptions{
			Repository: "postgres",
			Tag:        "15.4",
			Env: []string{
				"POSTGRES_PASSWORD=aclgate",
				"POSTGRES_USER=aclgate",
				"POSTGRES_DB=aclgate",
				"listen_addresses = '*'",
			},
		}, func(config *docker.HostConfig) {
			config.AutoRemove = true // Stopped container should be removed
			config.RestartPolicy = docker.RestartPolicy{Name: "no"}
		})
		if err != nil {
			log.Fatalf("Could not start resource: %s", err)
		}
		_ = resource.Expire(300) // In any case container should be killed in 5min

		hostAndPort := resource.GetHostPort("5432/tcp")
		databaseURL = fmt.Sprintf("postgres://aclgate:aclgate@%s/aclgate?sslmode=disable", hostAndPort)

		// We connect with exponential backoff (maximum wait 2min)
		pool.MaxWait = 120 * time.Second
		if err = pool.Retry(func() error {
			db, err := sql.Open("pgx", databaseURL)
			if err != nil {
				return err
			}
			return db.Ping()
		}); err != nil {
			log.Fatalf("Could not connect to postgres: %s", err)
		}
	}

	if err := RunMigrations(databaseURL); err != nil {
		log.Fatalf("Could not migrate db: %s", err)
	}

	store, err = NewPostgresStore(databaseURL)
	if err != nil {
		log.Fatalf("PostgresStore creation failed: %v", err)
	}

	// Let's load the testsuite-data
	err = testsuite.Load(context.Background(), store)
	if err != nil {
		log.Fatalf("Failed loading policies into store: %v", err)
	}

	code := m.Run()

	// os.Exit doesn't care for defer, so let's explicitly purge and close...
	store.Close()
	if pool != nil {
		if err := pool.Purge(resource); err != nil {
			log.Fatalf("Could not purge resource: %s", err)
		}
	}

	os.Exit(code)
}

func TestPostgresWithTestSuite(t *testing.T) {
	testsuite.RunTestAll(t, map[string]testsuite.TestConfig{
		"postgres": {
			Store: store,
		},
	})
}

func BenchmarkPostgres(b *testing.B) {
	testsuite.RunBenchmarkAll(b, map[string]aclgate.Store{
		"postgres": store,
	})
}
