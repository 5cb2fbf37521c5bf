/*
directory.go - Recipient name resolution

PURPOSE:
  Allocation records reference recipients by ID. Display names live in a
  directory owned by the caller (business units loaded from the database,
  a fixture in tests). The calculator never looks names up; the editor uses
  a directory only to fill Record.RecipientName and to pick a default
  recipient for new records.

USAGE:
  dir := allocation.NewStaticDirectory(
      allocation.Recipient{ID: "bu-001", Name: "Retail"},
      allocation.Recipient{ID: "bu-002", Name: "Wholesale"},
  )
  set = allocation.Resolve(set, dir)

SEE ALSO:
  - editor.go: Editor.Add / Editor.Update
  - store/sqlite/sqlite.go: Directory built from business units
*/
package allocation

import "sync"

// Recipient is one entry of a directory.
type Recipient struct {
	ID   RecipientID
	Name string
}

// Directory resolves recipient IDs to display names.
type Directory interface {
	// Name returns the display name for id.
	Name(id RecipientID) (string, bool)

	// Recipients returns every known recipient, in display order.
	Recipients() []Recipient
}

// =============================================================================
// STATIC DIRECTORY
// =============================================================================

// StaticDirectory is an ordered, concurrency-safe in-memory Directory.
type StaticDirectory struct {
	mu    sync.RWMutex
	order []RecipientID
	names map[RecipientID]string
}

func NewStaticDirectory(recipients ...Recipient) *StaticDirectory {
	d := &StaticDirectory{names: make(map[RecipientID]string)}
	for _, r := range recipients {
		d.Register(r)
	}
	return d
}

// Register adds a recipient, or renames it if the ID is already known.
func (d *StaticDirectory) Register(r Recipient) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.names[r.ID]; !ok {
		d.order = append(d.order, r.ID)
	}
	d.names[r.ID] = r.Name
}

func (d *StaticDirectory) Name(id RecipientID) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	name, ok := d.names[id]
	return name, ok
}

func (d *StaticDirectory) Recipients() []Recipient {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Recipient, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, Recipient{ID: id, Name: d.names[id]})
	}
	return out
}

// =============================================================================
// HELPERS
// =============================================================================

// First returns the first recipient of the directory, if any.
func First(dir Directory) (Recipient, bool) {
	if dir == nil {
		return Recipient{}, false
	}
	all := dir.Recipients()
	if len(all) == 0 {
		return Recipient{}, false
	}
	return all[0], true
}

// Resolve returns a copy of the set with every RecipientName filled from dir.
// Unknown recipients keep their ID as the name.
func Resolve(s Set, dir Directory) Set {
	out := s.Clone()
	for i, r := range out.Records {
		out.Records[i].RecipientName = displayName(dir, r.RecipientID)
	}
	return out
}

func displayName(dir Directory, id RecipientID) string {
	if dir != nil {
		if name, ok := dir.Name(id); ok {
			return name
		}
	}
	return string(id)
}
