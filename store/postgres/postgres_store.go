package postgres

import (
	"context"
	"embed"
	"errors"

	"github.com/aclgate/aclgate"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	pgxuuid "github.com/jackc/pgx-gofrs-uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var fs embed.FS

func RunMigrations(databaseURL string) error {
	driver, err := iofs.New(fs, "migrations")
	if err != nil {
		return err
	}
	migrations, err := migrate.NewWithSourceInstance("iofs", driver, databaseURL)
	if err != nil {
		return err
	}
	err = migrations.Up()
	if err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxuuid.Register(conn.TypeMap())
		return nil
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Put(ctx context.Context, name string, policy *aclgate.Policy) (uuid.UUID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.UUID{}, err
	}
	doc, err := aclgate.MarshalPolicy(policy)
	if err != nil {
		return uuid.UUID{}, err
	}
	_, err = s.pool.Exec(ctx, "INSERT INTO policies (name, uuid, doc) VALUES($1, $2, $3) ON CONFLICT (name) DO UPDATE SET uuid=EXCLUDED.uuid, doc=EXCLUDED.doc", name, id, doc)
	return id, err
}

func (s *PostgresStore) Get(ctx context.Context, name string) (*aclgate.Policy, uuid.UUID, error) {
	var (
		id  uuid.UUID
		doc []byte
	)
	err := s.pool.QueryRow(ctx, "SELECT uuid, doc FROM policies WHERE name=$1", name).
		Scan(&id, &doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, id, aclgate.ErrNotFound
	} else if err != nil {
		return nil, id, err
	}
	policy, err := aclgate.UnmarshalPolicy(doc)
	return policy, id, err
}

func (s *PostgresStore) Delete(ctx context.Context, name string) error {
	_, err := s.pool.Exec(ctx, "DELETE FROM policies WHERE name=$1", name)
	return err
}

func (s *PostgresStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, "SELECT name FROM policies ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
