package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"TokenBoard/internal/model"
)

// SQLiteStore persists the board in a SQLite table, one row per token.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) the database and runs migrations.
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", withBusyTimeout(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger.With("component", "sqlite-store")}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	s.logger.Info("sqlite store opened", "path", dbPath)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tokens (
			address     TEXT PRIMARY KEY,
			position    INTEGER NOT NULL,
			name        TEXT,
			symbol      TEXT,
			image       TEXT,
			description TEXT,
			price       REAL,
			market_cap  REAL,
			volume_24h  REAL,
			change_24h  REAL,
			votes       INTEGER NOT NULL DEFAULT 0,
			pinned      INTEGER NOT NULL DEFAULT 0,
			favorite    INTEGER NOT NULL DEFAULT 0,
			verified    INTEGER NOT NULL DEFAULT 0,
			reactions   TEXT,
			added_at    INTEGER NOT NULL,
			updated_at  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tokens_position ON tokens(position)`,
	}
	for _, st := range stmts {
		if _, err := s.db.Exec(st); err != nil {
			return fmt.Errorf("exec %q: %w", st[:40], err)
		}
	}
	return nil
}

const tokenColumns = `address, position, name, symbol, image, description,
	price, market_cap, volume_24h, change_24h, votes, pinned, favorite, verified,
	reactions, added_at, updated_at`

func (s *SQLiteStore) List(ctx context.Context) ([]model.Token, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+tokenColumns+` FROM tokens ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query tokens: %w", err)
	}
	defer rows.Close()

	var out []model.Token
	for rows.Next() {
		var (
			t                          model.Token
			position                   int
			pinned, favorite, verified int
			reactions                  sql.NullString
			addedAt, updatedAt         int64
		)
		if err := rows.Scan(&t.Address, &position, &t.Name, &t.Symbol, &t.Image, &t.Description,
			&t.Price, &t.MarketCap, &t.Volume24h, &t.Change24h, &t.Votes,
			&pinned, &favorite, &verified, &reactions, &addedAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		t.Pinned, t.Favorite, t.Verified = pinned != 0, favorite != 0, verified != 0
		if reactions.Valid && reactions.String != "" {
			if err := json.Unmarshal([]byte(reactions.String), &t.Reactions); err != nil {
				s.logger.Warn("bad reactions column", "address", t.Address, "error", err)
			}
		}
		t.AddedAt = time.UnixMilli(addedAt)
		t.UpdatedAt = time.UnixMilli(updatedAt)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Append(ctx context.Context, tok model.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next int
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), -1) + 1 FROM tokens`).Scan(&next); err != nil {
		return fmt.Errorf("next position: %w", err)
	}
	if err := insertToken(ctx, s.db, tok, next); err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// Save replaces the table contents in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, tokens []model.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tokens`); err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}
	for i, t := range tokens {
		if err := insertToken(ctx, tx, t, i); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertToken(ctx context.Context, db execer, t model.Token, position int) error {
	reactions, err := json.Marshal(t.Reactions)
	if err != nil {
		return fmt.Errorf("marshal reactions: %w", err)
	}
	_, err = db.ExecContext(ctx, `INSERT INTO tokens (`+tokenColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.Address, position, t.Name, t.Symbol, t.Image, t.Description,
		t.Price, t.MarketCap, t.Volume24h, t.Change24h, t.Votes,
		boolInt(t.Pinned), boolInt(t.Favorite), boolInt(t.Verified),
		string(reactions), t.AddedAt.UnixMilli(), t.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert token %s: %w", t.Address, err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *SQLiteStore) Close() error {
	s.logger.Info("closing sqlite store")
	return s.db.Close()
}

// busyTimeoutMillis bounds how long a connection waits on a lock held by
// another writer of the same file before returning SQLITE_BUSY.
const busyTimeoutMillis = 5000

// withBusyTimeout applies busy_timeout to every pooled connection via the DSN;
// a one-off PRAGMA Exec would only reach a single connection.
func withBusyTimeout(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_pragma=busy_timeout(%d)", dbPath, sep, busyTimeoutMillis)
}
