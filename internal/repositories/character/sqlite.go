package character

import (
	"context"
	"database/sql"
	stderrors "errors"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/KirkDiggler/rpg-advancement/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-advancement/internal/errors"
	"github.com/KirkDiggler/rpg-advancement/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-advancement/internal/pkg/sqlitemigrate"
	"github.com/KirkDiggler/rpg-advancement/internal/repositories/character/migrations"
)

// Write transactions take the lock up front so concurrent level-ups queue on
// busy_timeout instead of failing on lock upgrade.
const dsnOptions = "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)" +
	"&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_txlock=immediate"

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Config configures the SQLite character store.
type Config struct {
	// Path is the database file. Required.
	Path  string
	Clock clock.Clock
}

// Validate validates the config
func (c *Config) Validate() error {
	if c == nil {
		return errors.InvalidArgument("config cannot be nil")
	}
	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("Path", c.Path, vb)
	return vb.Build()
}

// Store is the SQLite implementation of Repository and Tx.
type Store struct {
	db    *sql.DB
	q     querier
	tx    *sql.Tx
	clock clock.Clock
}

var (
	_ Repository = (*Store)(nil)
	_ Tx         = (*Store)(nil)
)

// NewSQLite opens the database at cfg.Path and applies migrations.
func NewSQLite(ctx context.Context, cfg *Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", filepath.Clean(cfg.Path)+dsnOptions)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sqlite db")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to ping sqlite db")
	}
	if err := sqlitemigrate.Apply(ctx, db, migrations.FS, ""); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to run migrations")
	}

	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}

	return &Store{db: db, q: db, clock: c}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil || s.tx != nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) withTx(tx *sql.Tx) *Store {
	cloned := *s
	cloned.q = tx
	cloned.tx = tx
	return &cloned
}

// InTx runs fn in a transaction, joining the current one if s is already bound to one.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if s.tx != nil {
		return fn(ctx, s)
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = sqlTx.Rollback() }()

	if err := fn(ctx, s.withTx(sqlTx)); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}

// Create inserts the identity row.
func (s *Store) Create(ctx context.Context, input CreateInput) (*CreateOutput, error) {
	c := input.Character
	if c == nil {
		return nil, errors.InvalidArgument("character cannot be nil")
	}

	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("ID", c.ID, vb)
	errors.ValidateRequired("Name", c.Name, vb)
	errors.ValidateRequired("RaceID", c.RaceID, vb)
	errors.ValidateRequired("BackgroundID", c.BackgroundID, vb)
	if err := vb.Build(); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	created := *c
	created.CreatedAt = now
	created.UpdatedAt = now

	_, err := s.q.ExecContext(ctx, `INSERT INTO characters (
		id, name, age, gender, alignment, race_id, subrace_id, background_id,
		level, spellcasting_rules, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		created.ID, strings.TrimSpace(created.Name), created.Age, created.Gender, created.Alignment,
		created.RaceID, created.SubraceID, created.BackgroundID,
		created.Level, created.SpellcastingRules, toMillis(now), toMillis(now),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errors.AlreadyExistsf("character %s already exists", created.ID)
		}
		return nil, errors.Wrap(err, "failed to create character")
	}

	return &CreateOutput{Character: &created}, nil
}

// Get loads the full sheet.
func (s *Store) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	sheet, err := s.Sheet(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &GetOutput{Sheet: sheet}, nil
}

// List returns identity rows ordered by name.
func (s *Store) List(ctx context.Context, input ListInput) (*ListOutput, error) {
	query := `SELECT ` + characterColumns + ` FROM characters`
	var args []any
	if input.RaceID != "" {
		query += ` WHERE race_id = ?`
		args = append(args, input.RaceID)
	}
	query += ` ORDER BY name, level`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list characters")
	}
	defer func() { _ = rows.Close() }()

	var out []*dnd5e.Character
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan character")
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate characters")
	}

	return &ListOutput{Characters: out}, nil
}

// Delete removes a character; derived rows cascade.
func (s *Store) Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument("character ID cannot be empty")
	}
	res, err := s.q.ExecContext(ctx, `DELETE FROM characters WHERE id = ?`, input.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to delete character")
	}
	if err := expectAffected(res, characterNotFound(input.ID)); err != nil {
		return nil, err
	}
	return &DeleteOutput{}, nil
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func characterNotFound(id string) error {
	return errors.NotFoundf("character %s not found", id).WithMeta("character_id", id)
}

// expectAffected returns notFound when the statement touched no rows.
func expectAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if stderrors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
