/*
Package sqlite provides the SQLite-backed leave.Store implementation.

PURPOSE:
  Persists balances, requests, employees, holidays and leave-type configs.
  The same patterns apply to PostgreSQL in production - only minor SQL
  dialect differences.

CONCURRENCY SEMANTICS:
  balances:  optimistic locking. UpdateBalance executes
               UPDATE ... WHERE ... AND version = ?
             and reports ErrConcurrentModification when no row matched, so
             two racing reservations against the same row cannot both win.
  requests:  conditional status transition. TransitionRequest executes
               UPDATE ... WHERE code = ? AND status = ?
             so of two concurrent decisions exactly one sees a matched row.

KEY TABLES:
  balances:    one row per (user, leave type, year); version column for CAS
  requests:    immutable after insert except the decision fields
  leave_types: factory JSON stored verbatim (see factory package)

STORAGE FORMATS:
  Day amounts are stored as decimal strings (never floats - half days must
  round-trip exactly). Dates are "2006-01-02" text, which sorts correctly
  lexicographically. Timestamps are RFC3339.

WAL MODE:
  SQLite is opened with WAL so readers don't block behind the writer.

SEE ALSO:
  - leave/store.go:        Interface contracts
  - leave/store/memory.go: In-memory implementation with the same semantics
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/leave-engine/leave"
)

// Store implements leave.Store on SQLite.
type Store struct {
	db *sql.DB
}

// New opens (and migrates) a SQLite store. Use ":memory:" for tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single writer connection sidesteps SQLITE_BUSY under concurrent use.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS leave_types (
		code        TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		config_json TEXT NOT NULL,
		created_at  TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS employees (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL,
		team_id    TEXT NOT NULL DEFAULT '',
		manager_id TEXT NOT NULL DEFAULT '',
		hire_date  TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_employees_team ON employees(team_id);

	CREATE TABLE IF NOT EXISTS balances (
		user_id      TEXT NOT NULL,
		type_code    TEXT NOT NULL,
		year         INTEGER NOT NULL,
		total_days   TEXT NOT NULL,
		used_days    TEXT NOT NULL,
		pending_days TEXT NOT NULL,
		version      INTEGER NOT NULL,
		PRIMARY KEY (user_id, type_code, year)
	);

	CREATE TABLE IF NOT EXISTS requests (
		code              TEXT PRIMARY KEY,
		user_id           TEXT NOT NULL,
		type_code         TEXT NOT NULL,
		start_date        TEXT NOT NULL,
		end_date          TEXT NOT NULL,
		is_half_day       INTEGER NOT NULL DEFAULT 0,
		half_day_type     TEXT,
		total_days        TEXT NOT NULL,
		status            TEXT NOT NULL,
		reason            TEXT NOT NULL,
		document_url      TEXT NOT NULL DEFAULT '',
		reviewer_id       TEXT NOT NULL DEFAULT '',
		reviewer_comments TEXT NOT NULL DEFAULT '',
		created_at        TEXT NOT NULL,
		decided_at        TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_requests_user_start ON requests(user_id, start_date);
	CREATE INDEX IF NOT EXISTS idx_requests_status ON requests(status);

	CREATE TABLE IF NOT EXISTS holidays (
		id          TEXT PRIMARY KEY,
		date        TEXT NOT NULL,
		name        TEXT NOT NULL,
		is_optional INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_holidays_date ON holidays(date);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Reset clears all data. Development and scenario loading only.
func (s *Store) Reset(ctx context.Context) error {
	for _, table := range []string{"requests", "balances", "holidays", "employees", "leave_types"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// BALANCES
// =============================================================================

func (s *Store) GetBalance(ctx context.Context, key leave.BalanceKey) (*leave.Balance, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT total_days, used_days, pending_days, version
		FROM balances WHERE user_id = ? AND type_code = ? AND year = ?`,
		string(key.UserID), string(key.TypeCode), key.Year)

	var total, used, pending string
	var version int64
	if err := row.Scan(&total, &used, &pending, &version); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	b := leave.Balance{UserID: key.UserID, TypeCode: key.TypeCode, Year: key.Year, Version: version}
	var err error
	if b.TotalDays, err = leave.ParseDays(total); err != nil {
		return nil, fmt.Errorf("balance %s: bad total_days %q: %w", key, total, err)
	}
	if b.UsedDays, err = leave.ParseDays(used); err != nil {
		return nil, fmt.Errorf("balance %s: bad used_days %q: %w", key, used, err)
	}
	if b.PendingDays, err = leave.ParseDays(pending); err != nil {
		return nil, fmt.Errorf("balance %s: bad pending_days %q: %w", key, pending, err)
	}
	return &b, nil
}

func (s *Store) CreateBalance(ctx context.Context, b leave.Balance) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO balances (user_id, type_code, year, total_days, used_days, pending_days, version)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(b.UserID), string(b.TypeCode), b.Year,
		b.TotalDays.String(), b.UsedDays.String(), b.PendingDays.String(), b.Version)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return leave.ErrConcurrentModification
		}
		return err
	}
	return nil
}

func (s *Store) UpdateBalance(ctx context.Context, b leave.Balance, expectedVersion int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE balances
		SET total_days = ?, used_days = ?, pending_days = ?, version = ?
		WHERE user_id = ? AND type_code = ? AND year = ? AND version = ?`,
		b.TotalDays.String(), b.UsedDays.String(), b.PendingDays.String(), b.Version,
		string(b.UserID), string(b.TypeCode), b.Year, expectedVersion)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return leave.ErrConcurrentModification
	}
	return nil
}

func (s *Store) ListBalances(ctx context.Context, userID leave.UserID, year int) ([]leave.Balance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT type_code, total_days, used_days, pending_days, version
		FROM balances WHERE user_id = ? AND year = ? ORDER BY type_code`,
		string(userID), year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []leave.Balance
	for rows.Next() {
		var typeCode, total, used, pending string
		var version int64
		if err := rows.Scan(&typeCode, &total, &used, &pending, &version); err != nil {
			return nil, err
		}
		b := leave.Balance{UserID: userID, TypeCode: leave.TypeCode(typeCode), Year: year, Version: version}
		if b.TotalDays, err = leave.ParseDays(total); err != nil {
			return nil, err
		}
		if b.UsedDays, err = leave.ParseDays(used); err != nil {
			return nil, err
		}
		if b.PendingDays, err = leave.ParseDays(pending); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// =============================================================================
// REQUESTS
// =============================================================================

func (s *Store) SaveRequest(ctx context.Context, r leave.LeaveRequest) error {
	var halfDay any
	if r.HalfDaySlot != nil {
		halfDay = string(*r.HalfDaySlot)
	}
	var decidedAt any
	if r.DecidedAt != nil {
		decidedAt = r.DecidedAt.UTC().Format(time.RFC3339Nano)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO requests (code, user_id, type_code, start_date, end_date,
			is_half_day, half_day_type, total_days, status, reason,
			document_url, reviewer_id, reviewer_comments, created_at, decided_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(r.Code), string(r.UserID), string(r.TypeCode),
		r.StartDate.String(), r.EndDate.String(),
		boolToInt(r.IsHalfDay), halfDay, r.TotalDays.String(),
		string(r.Status), r.Reason,
		r.DocumentURL, string(r.ReviewerID), r.ReviewerComments,
		r.CreatedAt.UTC().Format(time.RFC3339Nano), decidedAt)
	return err
}

func (s *Store) GetRequest(ctx context.Context, code leave.RequestCode) (*leave.LeaveRequest, error) {
	reqs, err := s.queryRequests(ctx, `SELECT `+requestColumns+` FROM requests WHERE code = ?`, string(code))
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return nil, nil
	}
	return &reqs[0], nil
}

func (s *Store) TransitionRequest(ctx context.Context, code leave.RequestCode, from, to leave.RequestStatus, d leave.Decision) error {
	var decidedAt any
	if !d.DecidedAt.IsZero() {
		decidedAt = d.DecidedAt.UTC().Format(time.RFC3339Nano)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE requests
		SET status = ?, reviewer_id = ?, reviewer_comments = ?, decided_at = ?
		WHERE code = ? AND status = ?`,
		string(to), string(d.ReviewerID), d.Comments, decidedAt,
		string(code), string(from))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	// Distinguish "wrong status" from "no such request".
	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM requests WHERE code = ?`, string(code)).Scan(&exists)
	if err == sql.ErrNoRows {
		return leave.ErrNotFound
	}
	if err != nil {
		return err
	}
	return leave.ErrInvalidStateTransition
}

func (s *Store) ListRequestsByUser(ctx context.Context, userID leave.UserID, status *leave.RequestStatus) ([]leave.LeaveRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE user_id = ?`
	args := []any{string(userID)}
	if status != nil {
		query += ` AND status = ?`
		args = append(args, string(*status))
	}
	query += ` ORDER BY created_at DESC, code`
	return s.queryRequests(ctx, query, args...)
}

func (s *Store) ListRequestsOverlapping(ctx context.Context, userIDs []leave.UserID, from, to leave.Date) ([]leave.LeaveRequest, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(userIDs)), ",")
	args := make([]any, 0, len(userIDs)+2)
	for _, id := range userIDs {
		args = append(args, string(id))
	}
	// ISO dates compare correctly as text.
	args = append(args, to.String(), from.String())

	query := `SELECT ` + requestColumns + ` FROM requests
		WHERE user_id IN (` + placeholders + `) AND start_date <= ? AND end_date >= ?
		ORDER BY created_at DESC, code`
	return s.queryRequests(ctx, query, args...)
}

const requestColumns = `code, user_id, type_code, start_date, end_date,
	is_half_day, half_day_type, total_days, status, reason,
	document_url, reviewer_id, reviewer_comments, created_at, decided_at`

func (s *Store) queryRequests(ctx context.Context, query string, args ...any) ([]leave.LeaveRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []leave.LeaveRequest
	for rows.Next() {
		var (
			r                      leave.LeaveRequest
			code, userID, typeCode string
			startDate, endDate     string
			isHalfDay              int
			halfDay, decidedAt     sql.NullString
			totalDays, status      string
			reviewerID             string
			createdAt              string
		)
		err := rows.Scan(&code, &userID, &typeCode, &startDate, &endDate,
			&isHalfDay, &halfDay, &totalDays, &status, &r.Reason,
			&r.DocumentURL, &reviewerID, &r.ReviewerComments, &createdAt, &decidedAt)
		if err != nil {
			return nil, err
		}

		r.Code = leave.RequestCode(code)
		r.UserID = leave.UserID(userID)
		r.TypeCode = leave.TypeCode(typeCode)
		r.Status = leave.RequestStatus(status)
		r.ReviewerID = leave.UserID(reviewerID)
		r.IsHalfDay = isHalfDay != 0
		if halfDay.Valid && halfDay.String != "" {
			slot := leave.HalfDaySlot(halfDay.String)
			r.HalfDaySlot = &slot
		}
		if r.StartDate, err = leave.ParseDate(startDate); err != nil {
			return nil, fmt.Errorf("request %s: bad start_date %q: %w", code, startDate, err)
		}
		if r.EndDate, err = leave.ParseDate(endDate); err != nil {
			return nil, fmt.Errorf("request %s: bad end_date %q: %w", code, endDate, err)
		}
		if r.TotalDays, err = leave.ParseDays(totalDays); err != nil {
			return nil, fmt.Errorf("request %s: bad total_days %q: %w", code, totalDays, err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("request %s: bad created_at %q: %w", code, createdAt, err)
		}
		if decidedAt.Valid && decidedAt.String != "" {
			t, err := time.Parse(time.RFC3339Nano, decidedAt.String)
			if err != nil {
				return nil, fmt.Errorf("request %s: bad decided_at %q: %w", code, decidedAt.String, err)
			}
			r.DecidedAt = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) SaveEmployee(ctx context.Context, e leave.Employee) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, email, team_id, manager_id, hire_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, email = excluded.email,
			team_id = excluded.team_id, manager_id = excluded.manager_id,
			hire_date = excluded.hire_date`,
		string(e.ID), e.Name, e.Email, string(e.TeamID), string(e.ManagerID),
		e.HireDate.String(), e.CreatedAt.UTC().Format(time.RFC3339Nano))
	return err
}

func (s *Store) GetEmployee(ctx context.Context, id leave.UserID) (*leave.Employee, error) {
	emps, err := s.queryEmployees(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = ?`, string(id))
	if err != nil {
		return nil, err
	}
	if len(emps) == 0 {
		return nil, nil
	}
	return &emps[0], nil
}

func (s *Store) ListEmployees(ctx context.Context) ([]leave.Employee, error) {
	return s.queryEmployees(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY id`)
}

func (s *Store) ListTeamMembers(ctx context.Context, teamID leave.TeamID) ([]leave.Employee, error) {
	return s.queryEmployees(ctx, `SELECT `+employeeColumns+` FROM employees WHERE team_id = ? ORDER BY id`, string(teamID))
}

const employeeColumns = `id, name, email, team_id, manager_id, hire_date, created_at`

func (s *Store) queryEmployees(ctx context.Context, query string, args ...any) ([]leave.Employee, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []leave.Employee
	for rows.Next() {
		var (
			e                        leave.Employee
			id, teamID, managerID    string
			hireDate, createdAt      string
		)
		if err := rows.Scan(&id, &e.Name, &e.Email, &teamID, &managerID, &hireDate, &createdAt); err != nil {
			return nil, err
		}
		e.ID = leave.UserID(id)
		e.TeamID = leave.TeamID(teamID)
		e.ManagerID = leave.UserID(managerID)
		if hireDate != "" {
			if e.HireDate, err = leave.ParseDate(hireDate); err != nil {
				return nil, fmt.Errorf("employee %s: bad hire_date %q: %w", id, hireDate, err)
			}
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("employee %s: bad created_at %q: %w", id, createdAt, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (s *Store) SaveHoliday(ctx context.Context, h leave.Holiday) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO holidays (id, date, name, is_optional)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date, name = excluded.name, is_optional = excluded.is_optional`,
		h.ID, h.Date.String(), h.Name, boolToInt(h.IsOptional))
	return err
}

func (s *Store) ListHolidays(ctx context.Context, year int) ([]leave.Holiday, error) {
	from := leave.NewDate(year, time.January, 1)
	to := leave.NewDate(year, time.December, 31)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, name, is_optional FROM holidays
		WHERE date >= ? AND date <= ? ORDER BY date, name`,
		from.String(), to.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []leave.Holiday
	for rows.Next() {
		var h leave.Holiday
		var date string
		var optional int
		if err := rows.Scan(&h.ID, &date, &h.Name, &optional); err != nil {
			return nil, err
		}
		if h.Date, err = leave.ParseDate(date); err != nil {
			return nil, fmt.Errorf("holiday %s: bad date %q: %w", h.ID, date, err)
		}
		h.IsOptional = optional != 0
		out = append(out, h)
	}
	return out, rows.Err()
}

// =============================================================================
// LEAVE TYPES
// =============================================================================

func (s *Store) SaveLeaveType(ctx context.Context, rec leave.LeaveTypeRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leave_types (code, name, config_json, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			name = excluded.name, config_json = excluded.config_json`,
		rec.Code, rec.Name, rec.ConfigJSON, rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	return err
}

func (s *Store) ListLeaveTypes(ctx context.Context) ([]leave.LeaveTypeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, name, config_json, created_at FROM leave_types ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []leave.LeaveTypeRecord
	for rows.Next() {
		var rec leave.LeaveTypeRecord
		var createdAt string
		if err := rows.Scan(&rec.Code, &rec.Name, &rec.ConfigJSON, &createdAt); err != nil {
			return nil, err
		}
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("leave type %s: bad created_at %q: %w", rec.Code, createdAt, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Compile-time check.
var _ leave.Store = (*Store)(nil)
