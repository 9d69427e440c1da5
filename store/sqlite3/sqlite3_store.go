package sqlite3

import (
	"context"
	"database/sql"
	"embed"
	"errors"

	"github.com/aclgate/aclgate"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var fs embed.FS

func RunMigrations(filepath string) error {
	driver, err := iofs.New(fs, "migrations")
	if err != nil {
		return err
	}
	migrations, err := migrate.NewWithSourceInstance("iofs", driver, "sqlite3://"+filepath)
	if err != nil {
		return err
	}
	err = migrations.Up()
	if err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

type SQLite3Store struct {
	db *sql.DB
}

func NewSQLite3Store(filepath string) (*SQLite3Store, error) {
	db, err := sql.Open("sqlite3", filepath)
	return &SQLite3Store{db}, err
}

func (s *SQLite3Store) Close() error {
	return s.db.Close()
}

func (s *SQLite3Store) Put(ctx context.Context, name string, policy *aclgate.Policy) (uuid.UUID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.UUID{}, err
	}
	doc, err := aclgate.MarshalPolicy(policy)
	if err != nil {
		return uuid.UUID{}, err
	}
	_, err = s.db.ExecContext(ctx, "INSERT INTO policies (name, uuid, doc) VALUES(?, ?, ?) ON CONFLICT(name) DO UPDATE SET uuid=excluded.uuid, doc=excluded.doc", name, id.String(), doc)
	return id, err
}

func (s *SQLite3Store) Get(ctx context.Context, name string) (*aclgate.Policy, uuid.UUID, error) {
	var (
		idStr string
		doc   []byte
	)
	err := s.db.QueryRowContext(ctx, "SELECT uuid, doc FROM policies WHERE name=?", name).
		Scan(&idStr, &doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, uuid.UUID{}, aclgate.ErrNotFound
	} else if err != nil {
		return nil, uuid.UUID{}, err
	}
	id, err := uuid.FromString(idStr)
	if err != nil {
		return nil, id, err
	}
	policy, err := aclgate.UnmarshalPolicy(doc)
	return policy, id, err
}

func (s *SQLite3Store) Delete(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM policies WHERE name=?", name)
	return err
}

func (s *SQLite3Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM policies ORDER BY name")
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
