// Package sqlite persists production plans, products and process orders in a
// SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/ppmsim/core/logger"
	"github.com/kilianp07/ppmsim/core/model"
	"github.com/kilianp07/ppmsim/core/planner"
)

// Store implements planner.PlanStore and serves active plans to the
// simulation.
type Store struct {
	cfg Config
	loc *time.Location
	log logger.Logger

	mu sync.RWMutex
	db *sql.DB
}

var _ planner.PlanStore = (*Store)(nil)

// Open opens or creates the database and ensures the schema.
func Open(ctx context.Context, cfg Config, log logger.Logger) (*Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loc, _ := time.LoadLocation(cfg.Timezone)
	if log == nil {
		log = logger.NopLogger{}
	}
	db, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{cfg: cfg, loc: loc, log: log, db: db}, nil
}

func openDB(ctx context.Context, cfg Config) (*sql.DB, error) {
	db, err := sql.Open("sqlite", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Path, err)
	}
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeSeconds) * time.Second)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return db, nil
}

func (s *Store) conn() *sql.DB {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db
}

// Reconnect opens a new connection pool and swaps it in. If the new pool
// cannot be opened the current one is kept.
func (s *Store) Reconnect(ctx context.Context) error {
	db, err := openDB(ctx, s.cfg)
	if err != nil {
		return err
	}
	s.mu.Lock()
	old := s.db
	s.db = db
	s.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	s.log.Infof("store reconnected to %s", s.cfg.Path)
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

var errClosed = errors.New("store is closed")

func (s *Store) format(t time.Time) string { return t.In(s.loc).Format(timeLayout) }

func (s *Store) parse(v string) (time.Time, error) {
	return time.ParseInLocation(timeLayout, v, s.loc)
}

// AddProduct inserts a product row.
func (s *Store) AddProduct(ctx context.Context, name, projectID string) (model.Product, error) {
	db := s.conn()
	if db == nil {
		return model.Product{}, errClosed
	}
	res, err := db.ExecContext(ctx, `INSERT INTO product (name, project_id) VALUES (?, ?)`, name, projectID)
	if err != nil {
		return model.Product{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Product{}, err
	}
	return model.Product{ID: id, Name: name, ProjectID: projectID}, nil
}

// AddProcessOrder inserts a process order row if it is missing.
func (s *Store) AddProcessOrder(ctx context.Context, id int64) error {
	db := s.conn()
	if db == nil {
		return errClosed
	}
	_, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO processorder (id) VALUES (?)`, id)
	return err
}

// Products returns the product table keyed by trimmed name.
func (s *Store) Products(ctx context.Context) (map[string]model.Product, error) {
	db := s.conn()
	if db == nil {
		return nil, errClosed
	}
	rows, err := db.QueryContext(ctx, `SELECT id, name, project_id FROM product ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := map[string]model.Product{}
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.ProjectID); err != nil {
			return nil, err
		}
		out[strings.TrimSpace(p.Name)] = p
	}
	return out, rows.Err()
}

// FirstProcessOrder returns the lowest process order id.
func (s *Store) FirstProcessOrder(ctx context.Context) (int64, error) {
	db := s.conn()
	if db == nil {
		return 0, errClosed
	}
	var id int64
	err := db.QueryRowContext(ctx, `SELECT id FROM processorder ORDER BY id LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, planner.ErrNoProcessOrder
	}
	return id, err
}

// Begin starts an immediate transaction.
func (s *Store) Begin(ctx context.Context) (planner.PlanTx, error) {
	db := s.conn()
	if db == nil {
		return nil, errClosed
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	return &planTx{tx: tx, store: s}, nil
}

const planColumns = `pp.id, pp.hierarchy, pp.product, pp.project_id, pp.start_time, pp.end_time,
    pp.planned_quantity, pp.process_order, p.name`

// ActivePlans returns the plans whose window contains now, joined to their
// product, ordered by id.
func (s *Store) ActivePlans(ctx context.Context, now time.Time) ([]model.ActivePlan, error) {
	ts := s.format(now)
	return s.queryPlans(ctx, `SELECT `+planColumns+`
        FROM productionplan pp JOIN product p ON p.id = pp.product
        WHERE pp.start_time <= ? AND pp.end_time >= ?
        ORDER BY pp.id`, ts, ts)
}

// Plans returns every plan starting at or after since, ordered by start time.
func (s *Store) Plans(ctx context.Context, since time.Time) ([]model.ActivePlan, error) {
	return s.queryPlans(ctx, `SELECT `+planColumns+`
        FROM productionplan pp JOIN product p ON p.id = pp.product
        WHERE pp.start_time >= ?
        ORDER BY pp.start_time, pp.id`, s.format(since))
}

func (s *Store) queryPlans(ctx context.Context, query string, args ...any) ([]model.ActivePlan, error) {
	db := s.conn()
	if db == nil {
		return nil, errClosed
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.ActivePlan
	for rows.Next() {
		var (
			p          model.ActivePlan
			start, end string
		)
		if err := rows.Scan(&p.ID, &p.EntityID, &p.ProductID, &p.ProjectID, &start, &end,
			&p.PlannedQuantity, &p.ProcessOrderID, &p.ProductName); err != nil {
			return nil, err
		}
		if p.Window.Start, err = s.parse(start); err != nil {
			return nil, fmt.Errorf("plan %d start: %w", p.ID, err)
		}
		if p.Window.End, err = s.parse(end); err != nil {
			return nil, fmt.Errorf("plan %d end: %w", p.ID, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type planTx struct {
	tx    *sql.Tx
	store *Store
}

func (t *planTx) Overlaps(ctx context.Context, productID int64, entityID string, w model.Window) (bool, error) {
	var n int
	err := t.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM productionplan
        WHERE product = ? AND hierarchy = ? AND end_time >= ? AND start_time <= ?`,
		productID, entityID, t.store.format(w.Start), t.store.format(w.End)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("overlap query: %w", err)
	}
	return n > 0, nil
}

func (t *planTx) Insert(ctx context.Context, p model.PlanWindow) (int64, error) {
	res, err := t.tx.ExecContext(ctx, `INSERT INTO productionplan (
        project_id, meta, hierarchy, product, process_order, start_time, end_time,
        planned_quantity, oee_target, performance_target, availability_target, quality_target)
        VALUES (?, NULL, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ProjectID, p.EntityID, p.ProductID, p.ProcessOrderID,
		t.store.format(p.Window.Start), t.store.format(p.Window.End), p.PlannedQuantity,
		planner.DefaultTarget, planner.DefaultTarget, planner.DefaultTarget, planner.DefaultTarget)
	if err != nil {
		if strings.Contains(err.Error(), overlapMessage) {
			return 0, planner.ErrOverlap
		}
		return 0, fmt.Errorf("insert plan: %w", err)
	}
	return res.LastInsertId()
}

func (t *planTx) Commit() error   { return t.tx.Commit() }
func (t *planTx) Rollback() error { return t.tx.Rollback() }
