package sqlite3

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/aclgate/aclgate"
	"github.com/aclgate/aclgate/testsuite"
)

var (
	filepath = ""
	store    aclgate.Store
)

func TestMain(m *testing.M) {

	filepath = os.Getenv("TEST_SQLITE3_FILE")

	if filepath == "" {
		_ = os.Remove("./sqlite3.db")
		filepath = "./sqlite3.db"
	}

	if err := RunMigrations(filepath); err != nil {
		log.Fatalf("Could not migrate db: %s", err)
	}

	var err error
	store, err = NewSQLite3Store(filepath)
	if err != nil {
		log.Fatalf("SQLite3Store creation failed: %v", err)
	}

	// Let's load the testsuite-data
	err = testsuite.Load(context.Background(), store)
	if err != nil {
		log.Fatalf("Failed loading policies into store: %v", err)
	}

	code := m.Run()

	// os.Exit doesn't care for defer, so let's explicitly close...
	store.Close()

	os.Exit(code)
}

func TestSQLite3WithTestSuite(t *testing.T) {
	testsuite.RunTestAll(t, map[string]testsuite.TestConfig{
		"sqlite3": {
			Store: store,
		},
	})
}

func BenchmarkSQLite3(b *testing.B) {
	testsuite.RunBenchmarkAll(b, map[string]aclgate.Store{
		"sqlite3": store,
	})
}
