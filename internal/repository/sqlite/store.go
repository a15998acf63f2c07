package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"apeBeacon/domain"

	"github.com/oklog/ulid/v2"
	"gorm.io/datatypes"
	_ "modernc.org/sqlite"
)

// Store keeps customers, visitors and content in a single SQLite file.
type Store struct {
	db *sql.DB

	mu      sync.Mutex
	entropy *rand.Rand
}

// NewStore opens or creates a SQLite database at the given path.
func NewStore(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)

	s := &Store{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS customers (
		customer_id  TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		created_at   TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS customer_sites (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_id TEXT NOT NULL REFERENCES customers(customer_id),
		domain      TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		UNIQUE (customer_id, domain)
	);

	CREATE TABLE IF NOT EXISTS visitors (
		customer_id   TEXT NOT NULL,
		visitor_id    TEXT NOT NULL,
		event_count   INTEGER NOT NULL DEFAULT 0,
		data          TEXT NOT NULL DEFAULT '{}',
		first_seen_at TEXT NOT NULL,
		last_seen_at  TEXT NOT NULL,
		PRIMARY KEY (customer_id, visitor_id)
	);

	CREATE TABLE IF NOT EXISTS visitor_events (
		event_id    TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL,
		visitor_id  TEXT NOT NULL,
		event_name  TEXT NOT NULL,
		page_url    TEXT NOT NULL,
		occurred_at TEXT NOT NULL,
		payload     TEXT NOT NULL,
		created_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_visitor_events_key ON visitor_events(customer_id, visitor_id);

	CREATE TABLE IF NOT EXISTS content (
		content_id  TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL REFERENCES customers(customer_id),
		slot        TEXT NOT NULL DEFAULT '',
		body        TEXT NOT NULL,
		styles      TEXT NOT NULL DEFAULT '',
		score       REAL NOT NULL DEFAULT 1,
		created_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_content_customer_slot ON content(customer_id, slot);
	`
	_, err := s.db.Exec(schema)
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func (s *Store) CreateCustomer(ctx context.Context, customer *domain.Customer) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO customers (customer_id, display_name, created_at) VALUES (?, ?, ?)`,
		customer.ID, customer.DisplayName, formatTime(now))
	if err != nil {
		if isConstraint(err) {
			return domain.ErrCustomerExists
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	customer.CreatedAt = now

	for i := range customer.Sites {
		site := &customer.Sites[i]
		res, err := tx.ExecContext(ctx,
			`INSERT INTO customer_sites (customer_id, domain, created_at) VALUES (?, ?, ?)`,
			customer.ID, site.Domain, formatTime(now))
		if err != nil {
			return fmt.Errorf("insert site: %w", err)
		}
		id, _ := res.LastInsertId()
		site.ID = uint(id)
		site.CustomerID = customer.ID
		site.CreatedAt = now
	}

	return tx.Commit()
}

func (s *Store) FindCustomer(ctx context.Context, id string) (domain.Customer, error) {
	if err := ctx.Err(); err != nil {
		return domain.Customer{}, fmt.Errorf("context error: %w", err)
	}

	var c domain.Customer
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT customer_id, display_name, created_at FROM customers WHERE customer_id = ?`, id,
	).Scan(&c.ID, &c.DisplayName, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}
	if err != nil {
		return domain.Customer{}, fmt.Errorf("query customer: %w", err)
	}
	c.CreatedAt = parseTime(createdAt)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, domain, created_at FROM customer_sites WHERE customer_id = ? ORDER BY id`, id)
	if err != nil {
		return domain.Customer{}, fmt.Errorf("query sites: %w", err)
	}
	defer rows.Close()

	c.Sites = []domain.CustomerSite{}
	for rows.Next() {
		site := domain.CustomerSite{CustomerID: id}
		var siteCreated string
		if err := rows.Scan(&site.ID, &site.Domain, &siteCreated); err != nil {
			return domain.Customer{}, fmt.Errorf("scan site: %w", err)
		}
		site.CreatedAt = parseTime(siteCreated)
		c.Sites = append(c.Sites, site)
	}

	return c, rows.Err()
}

// AddSite is idempotent per (customer, domain).
func (s *Store) AddSite(ctx context.Context, customerID, siteDomain string) (domain.CustomerSite, error) {
	if err := ctx.Err(); err != nil {
		return domain.CustomerSite{}, fmt.Errorf("context error: %w", err)
	}

	if err := s.customerExists(ctx, customerID); err != nil {
		return domain.CustomerSite{}, err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO customer_sites (customer_id, domain, created_at) VALUES (?, ?, ?)`,
		customerID, siteDomain, formatTime(time.Now()))
	if err != nil {
		return domain.CustomerSite{}, fmt.Errorf("insert site: %w", err)
	}

	site := domain.CustomerSite{CustomerID: customerID, Domain: siteDomain}
	var createdAt string
	err = s.db.QueryRowContext(ctx,
		`SELECT id, created_at FROM customer_sites WHERE customer_id = ? AND domain = ?`,
		customerID, siteDomain,
	).Scan(&site.ID, &createdAt)
	if err != nil {
		return domain.CustomerSite{}, fmt.Errorf("query site: %w", err)
	}
	site.CreatedAt = parseTime(createdAt)

	return site, nil
}

func (s *Store) customerExists(ctx context.Context, customerID string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM customers WHERE customer_id = ?`, customerID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrCustomerNotFound
	}
	if err != nil {
		return fmt.Errorf("query customer: %w", err)
	}
	return nil
}

func (s *Store) FindOrCreateVisitor(ctx context.Context, customerID, visitorID string) (domain.Visitor, error) {
	if err := ctx.Err(); err != nil {
		return domain.Visitor{}, fmt.Errorf("context error: %w", err)
	}

	now := formatTime(time.Now())
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO visitors (customer_id, visitor_id, event_count, data, first_seen_at, last_seen_at)
		 VALUES (?, ?, 0, '{}', ?, ?)`,
		customerID, visitorID, now, now)
	if err != nil {
		return domain.Visitor{}, fmt.Errorf("insert visitor: %w", err)
	}

	return s.FindVisitor(ctx, customerID, visitorID)
}

func (s *Store) FindVisitor(ctx context.Context, customerID, visitorID string) (domain.Visitor, error) {
	if err := ctx.Err(); err != nil {
		return domain.Visitor{}, fmt.Errorf("context error: %w", err)
	}

	v := domain.Visitor{ID: visitorID, CustomerID: customerID}
	var data, first, last string
	err := s.db.QueryRowContext(ctx,
		`SELECT event_count, data, first_seen_at, last_seen_at FROM visitors WHERE customer_id = ? AND visitor_id = ?`,
		customerID, visitorID,
	).Scan(&v.EventCount, &data, &first, &last)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Visitor{}, domain.ErrVisitorNotFound
	}
	if err != nil {
		return domain.Visitor{}, fmt.Errorf("query visitor: %w", err)
	}

	v.Data = datatypes.JSONMap{}
	if err := json.Unmarshal([]byte(data), &v.Data); err != nil {
		return domain.Visitor{}, fmt.Errorf("decode visitor data: %w", err)
	}
	v.FirstSeenAt = parseTime(first)
	v.LastSeenAt = parseTime(last)

	return v, nil
}

// RecordVisitorEvent appends the event and folds it into the visitor row in
// one transaction.
func (s *Store) RecordVisitorEvent(ctx context.Context, visitor domain.Visitor, req domain.BeaconRequest) (domain.VisitorEvent, error) {
	if err := ctx.Err(); err != nil {
		return domain.VisitorEvent{}, fmt.Errorf("context error: %w", err)
	}

	now := time.Now().UTC()
	ev := domain.NewVisitorEvent(visitor, req)
	ev.ID = s.newID()
	ev.CreatedAt = now

	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return domain.VisitorEvent{}, fmt.Errorf("encode payload: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.VisitorEvent{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE visitors SET event_count = event_count + 1, last_seen_at = ?, data = ?
		 WHERE customer_id = ? AND visitor_id = ?`,
		formatTime(now), string(payload), visitor.CustomerID, visitor.ID)
	if err != nil {
		return domain.VisitorEvent{}, fmt.Errorf("update visitor: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.VisitorEvent{}, domain.ErrVisitorNotFound
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO visitor_events (event_id, customer_id, visitor_id, event_name, page_url, occurred_at, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.CustomerID, ev.VisitorID, ev.EventName, ev.PageURL,
		formatTime(ev.OccurredAt), string(payload), formatTime(now))
	if err != nil {
		return domain.VisitorEvent{}, fmt.Errorf("insert event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.VisitorEvent{}, fmt.Errorf("commit: %w", err)
	}

	return ev, nil
}

// SaveContent inserts or replaces a candidate by id.
func (s *Store) SaveContent(ctx context.Context, c *domain.Content) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := s.customerExists(ctx, c.CustomerID); err != nil {
		return err
	}

	if c.ID == "" {
		c.ID = s.newID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO content (content_id, customer_id, slot, body, styles, score, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(content_id) DO UPDATE SET slot = excluded.slot, body = excluded.body,
		   styles = excluded.styles, score = excluded.score`,
		c.ID, c.CustomerID, c.Slot, c.Body, c.Styles, c.Score, formatTime(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("save content: %w", err)
	}

	return nil
}

// FindContent returns the customer's candidates for any of the slots,
// including slot-agnostic ones, ordered by id.
func (s *Store) FindContent(ctx context.Context, customerID string, slots []string) ([]domain.Content, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	query := `SELECT content_id, customer_id, slot, body, styles, score, created_at FROM content
		WHERE customer_id = ? AND (slot = ''`
	args := []any{customerID}
	if len(slots) > 0 {
		query += ` OR slot IN (?` + strings.Repeat(",?", len(slots)-1) + `)`
		for _, slot := range slots {
			args = append(args, slot)
		}
	}
	query += `) ORDER BY content_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query content: %w", err)
	}
	defer rows.Close()

	out := []domain.Content{}
	for rows.Next() {
		var c domain.Content
		var createdAt string
		if err := rows.Scan(&c.ID, &c.CustomerID, &c.Slot, &c.Body, &c.Styles, &c.Score, &createdAt); err != nil {
			return nil, fmt.Errorf("scan content: %w", err)
		}
		c.CreatedAt = parseTime(createdAt)
		out = append(out, c)
	}

	return out, rows.Err()
}

// VisitorEvents returns the recorded events for one visitor, oldest first.
func (s *Store) VisitorEvents(ctx context.Context, customerID, visitorID string) ([]domain.VisitorEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT event_id, event_name, page_url, occurred_at, payload, created_at FROM visitor_events
		 WHERE customer_id = ? AND visitor_id = ? ORDER BY rowid`,
		customerID, visitorID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []domain.VisitorEvent
	for rows.Next() {
		ev := domain.VisitorEvent{CustomerID: customerID, VisitorID: visitorID}
		var occurred, payload, created string
		if err := rows.Scan(&ev.ID, &ev.EventName, &ev.PageURL, &occurred, &payload, &created); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.OccurredAt = parseTime(occurred)
		ev.CreatedAt = parseTime(created)
		ev.Payload = datatypes.JSONMap{}
		if err := json.Unmarshal([]byte(payload), &ev.Payload); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		out = append(out, ev)
	}

	return out, rows.Err()
}

func isConstraint(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
