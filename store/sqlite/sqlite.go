/*
Package sqlite provides the SQLite-backed store for the finance dashboard.

PURPOSE:
  Persists business units, employees, fixed and variable costs, revenue
  sources, KPIs and holidays, and implements allocation.Store for the
  allocation sets owned by fixed costs and employees.

SUB-COLLECTIONS:
  An allocation set has no table of its own. It is a JSON column on its
  owner row (fixed_costs.allocation_json, employees.allocation_json), so
  deleting the owner deletes the set. The JSON shape is the one produced
  by factory.MarshalSet.

MONEY:
  Decimal amounts are stored as TEXT (decimal.Decimal.String()) so values
  round-trip exactly. Filters and ordering on amount columns cast to REAL.

KEY TABLES:
  business_units:  Allocation recipients
  employees:       Salary + allocation set
  fixed_costs:     Shared cost + allocation set
  variable_costs:  Cost attributed to one unit
  revenue_sources: Revenue per unit and period
  kpis:            Target / actual per unit and period
  holidays:        Non-working days for the working-day calendar

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. Last writer wins per row.

USAGE:
  store, err := sqlite.New("./data/finance.db")
  if err != nil {
      log.Fatal().Err(err).Msg("open store")
  }
  defer store.Close()

SEE ALSO:
  - query.go: List filter builder
  - allocation.go: allocation.Store implementation
  - allocation/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/unit-finance/allocation"
	"github.com/warp/unit-finance/costs"
	"github.com/warp/unit-finance/factory"
	"github.com/warp/unit-finance/kpi"
	"github.com/warp/unit-finance/payroll"
	"github.com/warp/unit-finance/report"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: an in-memory database exists per connection, and a
	// single writer avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS business_units (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		code TEXT NOT NULL DEFAULT '',
		manager TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		position TEXT NOT NULL DEFAULT '',
		business_unit_id TEXT NOT NULL DEFAULT '',
		base_salary TEXT NOT NULL,
		period_month INTEGER NOT NULL,
		period_year INTEGER NOT NULL,
		allocation_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_employees_period
		ON employees(period_year, period_month);

	CREATE TABLE IF NOT EXISTS fixed_costs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		amount TEXT NOT NULL,
		period_month INTEGER NOT NULL,
		period_year INTEGER NOT NULL,
		allocation_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_fixed_costs_period
		ON fixed_costs(period_year, period_month);

	CREATE TABLE IF NOT EXISTS variable_costs (
		id TEXT PRIMARY KEY,
		business_unit_id TEXT NOT NULL,
		name TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		amount TEXT NOT NULL,
		period_month INTEGER NOT NULL,
		period_year INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_variable_costs_unit_period
		ON variable_costs(business_unit_id, period_year, period_month);

	CREATE TABLE IF NOT EXISTS revenue_sources (
		id TEXT PRIMARY KEY,
		business_unit_id TEXT NOT NULL,
		name TEXT NOT NULL,
		amount TEXT NOT NULL,
		period_month INTEGER NOT NULL,
		period_year INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_revenue_unit_period
		ON revenue_sources(business_unit_id, period_year, period_month);

	CREATE TABLE IF NOT EXISTS kpis (
		id TEXT PRIMARY KEY,
		business_unit_id TEXT NOT NULL,
		name TEXT NOT NULL,
		unit TEXT NOT NULL DEFAULT '',
		target_value TEXT NOT NULL,
		actual_value TEXT NOT NULL,
		period_month INTEGER NOT NULL,
		period_year INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_kpis_unit_period
		ON kpis(business_unit_id, period_year, period_month);

	-- Holidays (excluded from working days)
	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		recurring BOOLEAN DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_holidays_unique
		ON holidays(date, name);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// BUSINESS UNITS
// =============================================================================

// SaveBusinessUnit inserts or updates a business unit.
func (s *Store) SaveBusinessUnit(ctx context.Context, u report.BusinessUnit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := timestamp()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO business_units (id, name, code, manager, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			code = excluded.code,
			manager = excluded.manager,
			active = excluded.active,
			updated_at = excluded.updated_at
	`, u.ID, u.Name, u.Code, u.Manager, u.Active, now, now)
	if err != nil {
		return fmt.Errorf("failed to save business unit: %w", err)
	}
	return nil
}

// GetBusinessUnit returns allocation.ErrNotFound for unknown ids.
func (s *Store) GetBusinessUnit(ctx context.Context, id string) (report.BusinessUnit, error) {
	units, err := s.ListBusinessUnits(ctx, Query{Where: []Cond{Eq("id", id)}})
	if err != nil {
		return report.BusinessUnit{}, err
	}
	if len(units) == 0 {
		return report.BusinessUnit{}, fmt.Errorf("business unit %s: %w", id, allocation.ErrNotFound)
	}
	return units[0], nil
}

// ListBusinessUnits returns business units matching q.
func (s *Store) ListBusinessUnits(ctx context.Context, q Query) ([]report.BusinessUnit, error) {
	rows, release, err := s.query(ctx, businessUnitsTable, q,
		"SELECT id, name, code, manager, active FROM business_units")
	if err != nil {
		return nil, err
	}
	defer release()

	units := []report.BusinessUnit{}
	for rows.Next() {
		var u report.BusinessUnit
		if err := rows.Scan(&u.ID, &u.Name, &u.Code, &u.Manager, &u.Active); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

func (s *Store) DeleteBusinessUnit(ctx context.Context, id string) error {
	return s.delete(ctx, "business_units", id)
}

// Directory returns the active business units as an allocation directory.
func (s *Store) Directory(ctx context.Context) (*allocation.StaticDirectory, error) {
	units, err := s.ListBusinessUnits(ctx, Query{Where: []Cond{Eq("active", true)}})
	if err != nil {
		return nil, err
	}
	return report.Directory(units), nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// SaveEmployee inserts or updates an employee with its allocation set.
// The set's pool is forced to the base salary.
func (s *Store) SaveEmployee(ctx context.Context, e payroll.Employee) error {
	e.Allocation = e.Allocation.WithPool(e.BaseSalary)
	raw, err := factory.MarshalSet(e.Allocation)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := timestamp()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO employees
		(id, name, position, business_unit_id, base_salary, period_month, period_year,
		 allocation_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			position = excluded.position,
			business_unit_id = excluded.business_unit_id,
			base_salary = excluded.base_salary,
			period_month = excluded.period_month,
			period_year = excluded.period_year,
			allocation_json = excluded.allocation_json,
			updated_at = excluded.updated_at
	`, e.ID, e.Name, e.Position, e.BusinessUnitID, e.BaseSalary.String(),
		e.Allocation.PeriodMonth, e.Allocation.PeriodYear, string(raw), now, now)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

func (s *Store) GetEmployee(ctx context.Context, id string) (payroll.Employee, error) {
	list, err := s.ListEmployees(ctx, Query{Where: []Cond{Eq("id", id)}})
	if err != nil {
		return payroll.Employee{}, err
	}
	if len(list) == 0 {
		return payroll.Employee{}, fmt.Errorf("employee %s: %w", id, allocation.ErrNotFound)
	}
	return list[0], nil
}

func (s *Store) ListEmployees(ctx context.Context, q Query) ([]payroll.Employee, error) {
	rows, release, err := s.query(ctx, employeesTable, q, `
		SELECT id, name, position, business_unit_id, base_salary, period_month, period_year, allocation_json
		FROM employees`)
	if err != nil {
		return nil, err
	}
	defer release()

	list := []payroll.Employee{}
	for rows.Next() {
		var e payroll.Employee
		var salary, raw string
		var month, year int
		if err := rows.Scan(&e.ID, &e.Name, &e.Position, &e.BusinessUnitID, &salary, &month, &year, &raw); err != nil {
			return nil, err
		}
		if e.BaseSalary, err = parseDecimal(salary); err != nil {
			return nil, err
		}
		if e.Allocation, err = ownedSet(raw, e.BaseSalary, month, year); err != nil {
			return nil, fmt.Errorf("employee %s: %w", e.ID, err)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	return s.delete(ctx, "employees", id)
}

// =============================================================================
// FIXED COSTS
// =============================================================================

// SaveFixedCost inserts or updates a fixed cost. The allocation pool and
// period are forced to the cost's amount and period.
func (s *Store) SaveFixedCost(ctx context.Context, c costs.FixedCost) error {
	c = c.Normalize()
	raw, err := factory.MarshalSet(c.Allocation)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := timestamp()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO fixed_costs
		(id, name, category, amount, period_month, period_year, allocation_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			amount = excluded.amount,
			period_month = excluded.period_month,
			period_year = excluded.period_year,
			allocation_json = excluded.allocation_json,
			updated_at = excluded.updated_at
	`, c.ID, c.Name, string(c.Category), c.Amount.String(), c.PeriodMonth, c.PeriodYear, string(raw), now, now)
	if err != nil {
		return fmt.Errorf("failed to save fixed cost: %w", err)
	}
	return nil
}

func (s *Store) GetFixedCost(ctx context.Context, id string) (costs.FixedCost, error) {
	list, err := s.ListFixedCosts(ctx, Query{Where: []Cond{Eq("id", id)}})
	if err != nil {
		return costs.FixedCost{}, err
	}
	if len(list) == 0 {
		return costs.FixedCost{}, fmt.Errorf("fixed cost %s: %w", id, allocation.ErrNotFound)
	}
	return list[0], nil
}

func (s *Store) ListFixedCosts(ctx context.Context, q Query) ([]costs.FixedCost, error) {
	rows, release, err := s.query(ctx, fixedCostsTable, q, `
		SELECT id, name, category, amount, period_month, period_year, allocation_json
		FROM fixed_costs`)
	if err != nil {
		return nil, err
	}
	defer release()

	list := []costs.FixedCost{}
	for rows.Next() {
		var c costs.FixedCost
		var category, amount, raw string
		if err := rows.Scan(&c.ID, &c.Name, &category, &amount, &c.PeriodMonth, &c.PeriodYear, &raw); err != nil {
			return nil, err
		}
		c.Category = costs.Category(category)
		if c.Amount, err = parseDecimal(amount); err != nil {
			return nil, err
		}
		if c.Allocation, err = ownedSet(raw, c.Amount, c.PeriodMonth, c.PeriodYear); err != nil {
			return nil, fmt.Errorf("fixed cost %s: %w", c.ID, err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (s *Store) DeleteFixedCost(ctx context.Context, id string) error {
	return s.delete(ctx, "fixed_costs", id)
}

// =============================================================================
// VARIABLE COSTS
// =============================================================================

func (s *Store) SaveVariableCost(ctx context.Context, c costs.VariableCost) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := timestamp()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO variable_costs
		(id, business_unit_id, name, category, amount, period_month, period_year, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			business_unit_id = excluded.business_unit_id,
			name = excluded.name,
			category = excluded.category,
			amount = excluded.amount,
			period_month = excluded.period_month,
			period_year = excluded.period_year,
			updated_at = excluded.updated_at
	`, c.ID, c.BusinessUnitID, c.Name, string(c.Category), c.Amount.String(), c.PeriodMonth, c.PeriodYear, now, now)
	if err != nil {
		return fmt.Errorf("failed to save variable cost: %w", err)
	}
	return nil
}

func (s *Store) GetVariableCost(ctx context.Context, id string) (costs.VariableCost, error) {
	list, err := s.ListVariableCosts(ctx, Query{Where: []Cond{Eq("id", id)}})
	if err != nil {
		return costs.VariableCost{}, err
	}
	if len(list) == 0 {
		return costs.VariableCost{}, fmt.Errorf("variable cost %s: %w", id, allocation.ErrNotFound)
	}
	return list[0], nil
}

func (s *Store) ListVariableCosts(ctx context.Context, q Query) ([]costs.VariableCost, error) {
	rows, release, err := s.query(ctx, variableCostsTable, q, `
		SELECT id, business_unit_id, name, category, amount, period_month, period_year
		FROM variable_costs`)
	if err != nil {
		return nil, err
	}
	defer release()

	list := []costs.VariableCost{}
	for rows.Next() {
		var c costs.VariableCost
		var category, amount string
		if err := rows.Scan(&c.ID, &c.BusinessUnitID, &c.Name, &category, &amount, &c.PeriodMonth, &c.PeriodYear); err != nil {
			return nil, err
		}
		c.Category = costs.Category(category)
		if c.Amount, err = parseDecimal(amount); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (s *Store) DeleteVariableCost(ctx context.Context, id string) error {
	return s.delete(ctx, "variable_costs", id)
}

// =============================================================================
// REVENUE SOURCES
// =============================================================================

func (s *Store) SaveRevenueSource(ctx context.Context, r report.RevenueSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := timestamp()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revenue_sources
		(id, business_unit_id, name, amount, period_month, period_year, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			business_unit_id = excluded.business_unit_id,
			name = excluded.name,
			amount = excluded.amount,
			period_month = excluded.period_month,
			period_year = excluded.period_year,
			updated_at = excluded.updated_at
	`, r.ID, r.BusinessUnitID, r.Name, r.Amount.String(), r.PeriodMonth, r.PeriodYear, now, now)
	if err != nil {
		return fmt.Errorf("failed to save revenue source: %w", err)
	}
	return nil
}

func (s *Store) GetRevenueSource(ctx context.Context, id string) (report.RevenueSource, error) {
	list, err := s.ListRevenueSources(ctx, Query{Where: []Cond{Eq("id", id)}})
	if err != nil {
		return report.RevenueSource{}, err
	}
	if len(list) == 0 {
		return report.RevenueSource{}, fmt.Errorf("revenue source %s: %w", id, allocation.ErrNotFound)
	}
	return list[0], nil
}

func (s *Store) ListRevenueSources(ctx context.Context, q Query) ([]report.RevenueSource, error) {
	rows, release, err := s.query(ctx, revenueSourcesTable, q, `
		SELECT id, business_unit_id, name, amount, period_month, period_year
		FROM revenue_sources`)
	if err != nil {
		return nil, err
	}
	defer release()

	list := []report.RevenueSource{}
	for rows.Next() {
		var r report.RevenueSource
		var amount string
		if err := rows.Scan(&r.ID, &r.BusinessUnitID, &r.Name, &amount, &r.PeriodMonth, &r.PeriodYear); err != nil {
			return nil, err
		}
		if r.Amount, err = parseDecimal(amount); err != nil {
			return nil, err
		}
		list = append(list, r)
	}
	return list, rows.Err()
}

func (s *Store) DeleteRevenueSource(ctx context.Context, id string) error {
	return s.delete(ctx, "revenue_sources", id)
}

// =============================================================================
// KPIS
// =============================================================================

func (s *Store) SaveKPI(ctx context.Context, k kpi.KPI) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := timestamp()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kpis
		(id, business_unit_id, name, unit, target_value, actual_value, period_month, period_year,
		 status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			business_unit_id = excluded.business_unit_id,
			name = excluded.name,
			unit = excluded.unit,
			target_value = excluded.target_value,
			actual_value = excluded.actual_value,
			period_month = excluded.period_month,
			period_year = excluded.period_year,
			status = excluded.status,
			updated_at = excluded.updated_at
	`, k.ID, k.BusinessUnitID, k.Name, k.Unit, k.TargetValue.String(), k.ActualValue.String(),
		k.PeriodMonth, k.PeriodYear, string(k.Status), now, now)
	if err != nil {
		return fmt.Errorf("failed to save kpi: %w", err)
	}
	return nil
}

func (s *Store) GetKPI(ctx context.Context, id string) (kpi.KPI, error) {
	list, err := s.ListKPIs(ctx, Query{Where: []Cond{Eq("id", id)}})
	if err != nil {
		return kpi.KPI{}, err
	}
	if len(list) == 0 {
		return kpi.KPI{}, fmt.Errorf("kpi %s: %w", id, allocation.ErrNotFound)
	}
	return list[0], nil
}

func (s *Store) ListKPIs(ctx context.Context, q Query) ([]kpi.KPI, error) {
	rows, release, err := s.query(ctx, kpisTable, q, `
		SELECT id, business_unit_id, name, unit, target_value, actual_value, period_month, period_year, status
		FROM kpis`)
	if err != nil {
		return nil, err
	}
	defer release()

	list := []kpi.KPI{}
	for rows.Next() {
		var k kpi.KPI
		var target, actual, status string
		if err := rows.Scan(&k.ID, &k.BusinessUnitID, &k.Name, &k.Unit, &target, &actual,
			&k.PeriodMonth, &k.PeriodYear, &status); err != nil {
			return nil, err
		}
		if k.TargetValue, err = parseDecimal(target); err != nil {
			return nil, err
		}
		if k.ActualValue, err = parseDecimal(actual); err != nil {
			return nil, err
		}
		k.Status = kpi.Status(status)
		list = append(list, k)
	}
	return list, rows.Err()
}

func (s *Store) DeleteKPI(ctx context.Context, id string) error {
	return s.delete(ctx, "kpis", id)
}

// =============================================================================
// HOLIDAY CALENDAR
// =============================================================================

// SaveHoliday saves a holiday. Saving the same date and name again updates it.
func (s *Store) SaveHoliday(ctx context.Context, h allocation.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO holidays (id, date, name, recurring, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(date, name) DO UPDATE SET
			recurring = excluded.recurring
	`, h.ID, h.Date.Format(dateLayout), h.Name, h.Recurring, timestamp())
	return err
}

func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	return s.delete(ctx, "holidays", id)
}

// ListHolidays returns every holiday ordered by date.
func (s *Store) ListHolidays(ctx context.Context) ([]allocation.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, date, name, recurring FROM holidays ORDER BY date ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	holidays := []allocation.Holiday{}
	for rows.Next() {
		var h allocation.Holiday
		var date string
		if err := rows.Scan(&h.ID, &date, &h.Name, &h.Recurring); err != nil {
			return nil, err
		}
		if h.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("holiday %s: %w", h.ID, err)
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// Calendar returns the stored holidays as an allocation.Calendar.
func (s *Store) Calendar(ctx context.Context) (allocation.HolidayCalendar, error) {
	holidays, err := s.ListHolidays(ctx)
	if err != nil {
		return allocation.HolidayCalendar{}, err
	}
	return allocation.HolidayCalendar{Holidays: holidays}, nil
}

// =============================================================================
// REPORTING
// =============================================================================

// ReportInputs loads everything the dashboard needs for one period.
func (s *Store) ReportInputs(ctx context.Context, period allocation.Period) (report.Inputs, error) {
	var in report.Inputs
	var err error
	inPeriod := Query{Where: InPeriod(period)}

	if in.Units, err = s.ListBusinessUnits(ctx, Query{}); err != nil {
		return in, err
	}
	if in.Revenue, err = s.ListRevenueSources(ctx, inPeriod); err != nil {
		return in, err
	}
	if in.VariableCosts, err = s.ListVariableCosts(ctx, inPeriod); err != nil {
		return in, err
	}
	if in.FixedCosts, err = s.ListFixedCosts(ctx, inPeriod); err != nil {
		return in, err
	}
	if in.Employees, err = s.ListEmployees(ctx, inPeriod); err != nil {
		return in, err
	}
	if in.KPIs, err = s.ListKPIs(ctx, inPeriod); err != nil {
		return in, err
	}
	return in, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"kpis", "revenue_sources", "variable_costs", "fixed_costs", "employees", "business_units", "holidays"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

const dateLayout = "2006-01-02"

func timestamp() string { return time.Now().UTC().Format(time.RFC3339) }

// query runs a filtered SELECT under the read lock. release closes the rows
// and drops the lock.
func (s *Store) query(ctx context.Context, t table, q Query, selectSQL string) (*sql.Rows, func(), error) {
	clause, args, err := t.build(q)
	if err != nil {
		return nil, nil, err
	}

	s.mu.RLock()
	rows, err := s.db.QueryContext(ctx, strings.TrimSpace(selectSQL)+clause, args...)
	if err != nil {
		s.mu.RUnlock()
		return nil, nil, fmt.Errorf("failed to query %s: %w", t.name, err)
	}
	return rows, func() {
		rows.Close()
		s.mu.RUnlock()
	}, nil
}

func (s *Store) delete(ctx context.Context, tableName, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM "+tableName+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", tableName, err)
	}
	return requireRow(res, tableName, id)
}

func requireRow(res sql.Result, tableName, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", tableName, id, allocation.ErrNotFound)
	}
	return nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid stored amount %q: %w", s, err)
	}
	return d, nil
}

// ownedSet parses an allocation column. The owner row is the source of truth
// for pool and period.
func ownedSet(raw string, pool decimal.Decimal, month, year int) (allocation.Set, error) {
	set, err := factory.ParseSet([]byte(raw))
	if err != nil {
		return allocation.Set{}, err
	}
	set.PoolAmount = pool
	set.PeriodMonth = month
	set.PeriodYear = year
	return set, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
