package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/okian/cadettracker/pkg/logger"
	"github.com/okian/cadettracker/pkg/metrics"
)

// Settings describe how to reach the database and size the pool.
type Settings struct {
	Addr            string
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
}

// MySQLStore implements Store over a database/sql pool.
type MySQLStore struct {
	db                *sql.DB
	logger            logger.Logger
	now               func() time.Time
	poolStatsInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

var _ Store = (*MySQLStore)(nil)

// Open builds a pooled MySQL handle. It does not connect; call Ping.
func Open(ctx context.Context, cfg Settings, opts ...Option) (*MySQLStore, error) {
	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = cfg.Addr
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.DBName = cfg.Name
	mc.ParseTime = true
	mc.Loc = time.UTC
	// Report matched rather than changed rows so an update that rewrites
	// identical values still counts the row.
	mc.ClientFoundRows = true
	mc.Timeout = cfg.ConnectTimeout

	connector, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return New(ctx, db, opts...), nil
}

// New wraps an existing pool. The store owns db and closes it on Close.
func New(ctx context.Context, db *sql.DB, opts ...Option) *MySQLStore {
	s := &MySQLStore{
		db:       db,
		logger:   logger.Nop(),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.poolStatsInterval > 0 {
		s.startPoolStatsUpdater(ctx)
	}
	return s
}

// startPoolStatsUpdater publishes pool statistics until ctx ends or Close.
func (s *MySQLStore) startPoolStatsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.poolStatsInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdatePoolStats(s.db.Stats())
			}
		}
	}()
}

// Close stops background work and closes the pool.
func (s *MySQLStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

const (
	sqlPing     = `SELECT 1`
	sqlDatabase = `SELECT DATABASE()`
)

// Ping implements Store.Ping.
func (s *MySQLStore) Ping(ctx context.Context) (err error) {
	defer s.track("ping", time.Now(), &err)

	var one int
	return s.db.QueryRowContext(ctx, sqlPing).Scan(&one)
}

// Database implements Store.Database.
func (s *MySQLStore) Database(ctx context.Context) (name string, err error) {
	defer s.track("database", time.Now(), &err)

	var n sql.NullString
	if err := s.db.QueryRowContext(ctx, sqlDatabase).Scan(&n); err != nil {
		return "", err
	}
	return n.String, nil
}

// Stats implements Store.Stats.
func (s *MySQLStore) Stats() sql.DBStats {
	return s.db.Stats()
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type scanner interface {
	Scan(dest ...any) error
}

// queryAll runs q and scans every row. The result is never nil.
func queryAll[T any](ctx context.Context, q querier, query string, scan func(scanner) (T, error), args ...any) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]T, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// queryOne scans a single row, mapping sql.ErrNoRows to ErrNotFound.
func queryOne[T any](ctx context.Context, q querier, query string, scan func(scanner) (T, error), args ...any) (T, error) {
	v, err := scan(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		var zero T
		return zero, ErrNotFound
	}
	return v, err
}

func insertID(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func affected(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// withTx runs fn in a transaction, rolling back on any error.
func (s *MySQLStore) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		metrics.RecordRollback(op)
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Error(ctx, "rollback failed", logger.String("op", op), logger.Error(rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		metrics.RecordRollback(op)
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// track translates the error in *errp and records the operation outcome.
func (s *MySQLStore) track(op string, start time.Time, errp *error) {
	if *errp != nil {
		*errp = translate(op, *errp)
	}
	metrics.RecordDBQuery(op, resultOf(*errp), time.Since(start))
}

func translate(op string, err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case erDupEntry, erDupEntryWithKeyName,
			erRowIsReferenced, erRowIsReferenced2,
			erNoReferencedRow, erNoReferencedRow2:
			return fmt.Errorf("%s: %w: %s", op, ErrConflict, me.Message)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrNoFields):
		return "invalid"
	default:
		return "error"
	}
}

func nullString(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	v := n.String
	return &v
}

func stringArg(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
