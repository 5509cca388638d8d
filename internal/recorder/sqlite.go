package recorder

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"TokenBoard/internal/model"
)

const defaultHistoryLimit = 100

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *slog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *slog.Logger) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", withBusyTimeout(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the API read history while the scheduler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger.With("component", "recorder")}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.logger.Info("sqlite recorder opened", "path", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS price_history (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			address     TEXT NOT NULL,
			price       REAL,
			market_cap  REAL,
			volume_24h  REAL,
			change_24h  REAL,
			source      TEXT,
			placeholder INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_price_addr_ts ON price_history(address, timestamp)`,

		`CREATE TABLE IF NOT EXISTS engagement_events (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			address    TEXT NOT NULL,
			event_type TEXT,
			detail     TEXT,
			value      INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_engagement_addr_ts ON engagement_events(address, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordSnapshot(snap model.PriceSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	at := snap.FetchedAt
	if at.IsZero() {
		at = time.Now()
	}
	placeholder := 0
	if snap.Placeholder {
		placeholder = 1
	}
	_, err := r.db.Exec(`INSERT INTO price_history
		(timestamp, address, price, market_cap, volume_24h, change_24h, source, placeholder)
		VALUES (?,?,?,?,?,?,?,?)`,
		at.UnixMilli(), snap.Address, snap.Price, snap.MarketCap,
		snap.Volume24h, snap.Change24hPercent, snap.Source, placeholder,
	)
	return err
}

func (r *SQLiteRecorder) RecordEngagement(evt *EngagementEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	at := evt.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO engagement_events
		(timestamp, address, event_type, detail, value)
		VALUES (?,?,?,?,?)`,
		at.UnixMilli(), evt.Address, evt.EventType, evt.Detail, evt.Value,
	)
	return err
}

func (r *SQLiteRecorder) History(address string, limit int) ([]model.PriceSnapshot, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	rows, err := r.db.Query(`SELECT timestamp, price, market_cap, volume_24h, change_24h, source, placeholder
		FROM price_history WHERE address = ? ORDER BY timestamp DESC, id DESC LIMIT ?`, address, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := []model.PriceSnapshot{}
	for rows.Next() {
		var (
			ts          int64
			placeholder int
			source      sql.NullString
			s           = model.PriceSnapshot{Address: address}
		)
		if err := rows.Scan(&ts, &s.Price, &s.MarketCap, &s.Volume24h, &s.Change24hPercent, &source, &placeholder); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		s.FetchedAt = time.UnixMilli(ts)
		s.Source = source.String
		s.Placeholder = placeholder != 0
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Engagements(address string, limit int) ([]EngagementEvent, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	rows, err := r.db.Query(`SELECT timestamp, event_type, detail, value
		FROM engagement_events WHERE address = ? ORDER BY timestamp DESC, id DESC LIMIT ?`, address, limit)
	if err != nil {
		return nil, fmt.Errorf("query engagements: %w", err)
	}
	defer rows.Close()

	out := []EngagementEvent{}
	for rows.Next() {
		var (
			ts     int64
			detail sql.NullString
			e      = EngagementEvent{Address: address}
		)
		if err := rows.Scan(&ts, &e.EventType, &detail, &e.Value); err != nil {
			return nil, fmt.Errorf("scan engagement: %w", err)
		}
		e.At = time.UnixMilli(ts)
		e.Detail = detail.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
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
