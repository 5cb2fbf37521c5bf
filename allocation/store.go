/*
store.go - Persistence interface for allocation sets

PURPOSE:
  An allocation set has no identity of its own: it is always a
  sub-collection of its owner (a fixed cost or an employee). The Store
  loads and saves the set through the owner's reference and drops it when
  the owner is deleted.

CONCURRENCY:
  Last writer wins per owner. The engine assumes one writer per edit.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite, set stored as a JSON column on the owner row
  - allocation/store/memory.go: In-memory for testing

SEE ALSO:
  - factory/allocation.go: JSON shape of a persisted set
*/
package allocation

import "context"

// OwnerKind identifies which entity type owns a set.
type OwnerKind string

const (
	OwnerFixedCost OwnerKind = "fixed_cost"
	OwnerEmployee  OwnerKind = "employee"
)

// Owner references the entity owning a set.
type Owner struct {
	Kind OwnerKind
	ID   string
}

func (o Owner) String() string { return string(o.Kind) + "/" + o.ID }

// Store persists allocation sets by owner.
type Store interface {
	// LoadSet returns the owner's set. ErrNotFound if the owner does not exist.
	LoadSet(ctx context.Context, owner Owner) (Set, error)

	// SaveSet replaces the owner's set. ErrNotFound if the owner does not exist.
	SaveSet(ctx context.Context, owner Owner, set Set) error
}

// OwnedSet pairs a set with its owner, used for listing.
type OwnedSet struct {
	Owner Owner
	Name  string
	Set   Set
}

// Lister lists every set for a period.
type Lister interface {
	ListSets(ctx context.Context, period Period) ([]OwnedSet, error)
}
