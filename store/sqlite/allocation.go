package sqlite

import (
	"context"
	"fmt"
	"sort"

	"github.com/warp/unit-finance/allocation"
	"github.com/warp/unit-finance/factory"
)

// =============================================================================
// ALLOCATION STORE (allocation.Store interface)
// =============================================================================

var (
	_ allocation.Store  = (*Store)(nil)
	_ allocation.Lister = (*Store)(nil)
)

// ownerTable maps an owner kind to the table holding its allocation column
// and the column used as its pool.
func ownerTable(kind allocation.OwnerKind) (tableName, poolColumn string, err error) {
	switch kind {
	case allocation.OwnerFixedCost:
		return "fixed_costs", "amount", nil
	case allocation.OwnerEmployee:
		return "employees", "base_salary", nil
	}
	return "", "", fmt.Errorf("unknown allocation owner kind %q", kind)
}

// LoadSet returns the owner's allocation set, with pool and period taken
// from the owner row.
func (s *Store) LoadSet(ctx context.Context, owner allocation.Owner) (allocation.Set, error) {
	tableName, poolColumn, err := ownerTable(owner.Kind)
	if err != nil {
		return allocation.Set{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw, pool string
	var month, year int
	err = s.db.QueryRowContext(ctx,
		"SELECT allocation_json, "+poolColumn+", period_month, period_year FROM "+tableName+" WHERE id = ?",
		owner.ID,
	).Scan(&raw, &pool, &month, &year)
	if err != nil {
		if isNoRows(err) {
			return allocation.Set{}, fmt.Errorf("%s: %w", owner, allocation.ErrNotFound)
		}
		return allocation.Set{}, fmt.Errorf("failed to load allocation for %s: %w", owner, err)
	}

	amount, err := parseDecimal(pool)
	if err != nil {
		return allocation.Set{}, err
	}
	return ownedSet(raw, amount, month, year)
}

// SaveSet replaces the owner's allocation set. Pool and period stay those
// of the owner row.
func (s *Store) SaveSet(ctx context.Context, owner allocation.Owner, set allocation.Set) error {
	tableName, _, err := ownerTable(owner.Kind)
	if err != nil {
		return err
	}
	if err := set.Validate(); err != nil {
		return err
	}
	raw, err := factory.MarshalSet(set)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE "+tableName+" SET allocation_json = ?, updated_at = ? WHERE id = ?",
		string(raw), timestamp(), owner.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to save allocation for %s: %w", owner, err)
	}
	return requireRow(res, string(owner.Kind), owner.ID)
}

// ListSets returns every fixed cost and employee allocation for the period,
// ordered by owner.
func (s *Store) ListSets(ctx context.Context, period allocation.Period) ([]allocation.OwnedSet, error) {
	q := Query{Where: InPeriod(period)}

	fixed, err := s.ListFixedCosts(ctx, q)
	if err != nil {
		return nil, err
	}
	employees, err := s.ListEmployees(ctx, q)
	if err != nil {
		return nil, err
	}

	out := make([]allocation.OwnedSet, 0, len(fixed)+len(employees))
	for _, c := range fixed {
		out = append(out, allocation.OwnedSet{Owner: c.Owner(), Name: c.Name, Set: c.Allocation})
	}
	for _, e := range employees {
		out = append(out, allocation.OwnedSet{Owner: e.Owner(), Name: e.Name, Set: e.Allocation})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Owner.String() < out[j].Owner.String()
	})
	return out, nil
}
