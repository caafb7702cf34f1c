// Package equipmenttest provides in-memory doubles for the equipment store
// and catalog, used by service tests across packages.
package equipmenttest

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/frahmantamala/equipment-inventory/internal"
	"github.com/frahmantamala/equipment-inventory/internal/catalog"
	"github.com/frahmantamala/equipment-inventory/internal/equipment"
)

// MemoryStore is an equipment.Store backed by maps. Transaction snapshots
// the state and restores it when fn fails. Fail, when set, is consulted
// before every write and its error is returned as-is.
type MemoryStore struct {
	mu        sync.Mutex
	items     map[string]*equipment.Equipment
	movements []*equipment.Movement
	nextID    int64

	Fail func(op, tag string) error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]*equipment.Equipment)}
}

// Put stores e directly, bypassing the movement log.
func (s *MemoryStore) Put(e *equipment.Equipment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[e.Tag] = e.Clone()
}

// AllMovements returns every movement recorded so far, in insertion order.
func (s *MemoryStore) AllMovements() []*equipment.Movement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*equipment.Movement, len(s.movements))
	copy(out, s.movements)
	return out
}

func (s *MemoryStore) Get(_ context.Context, tag string) (*equipment.Equipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[tag]
	if !ok {
		return nil, internal.ErrEquipmentNotFound
	}
	return e.Clone(), nil
}

func (s *MemoryStore) SerialExists(_ context.Context, serial, exceptTag string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for tag, e := range s.items {
		if tag != exceptTag && strings.EqualFold(e.Serial, serial) {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) Create(_ context.Context, e *equipment.Equipment) error {
	if err := s.fail("Create", e.Tag); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[e.Tag]; ok {
		return internal.NewIntegrityError("duplicate tag", internal.ErrCodeDuplicateTag)
	}
	s.items[e.Tag] = e.Clone()
	return nil
}

func (s *MemoryStore) Update(_ context.Context, e *equipment.Equipment) error {
	if err := s.fail("Update", e.Tag); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[e.Tag] = e.Clone()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, tag string) error {
	if err := s.fail("Delete", tag); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[tag]; !ok {
		return internal.ErrEquipmentNotFound
	}
	delete(s.items, tag)
	return nil
}

func (s *MemoryStore) List(_ context.Context, filter equipment.ListFilter) ([]*equipment.Equipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*equipment.Equipment
	for _, e := range s.items {
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, e.Status) {
			continue
		}
		if filter.Type != "" && !strings.EqualFold(filter.Type, e.Type) {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			hay := strings.ToLower(e.Tag + " " + e.Serial + " " + e.Model + " " + e.AssignedName)
			if !strings.Contains(hay, needle) {
				continue
			}
		}
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *MemoryStore) CountByStatus(_ context.Context) (map[equipment.Status]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[equipment.Status]int64)
	for _, e := range s.items {
		counts[e.Status]++
	}
	return counts, nil
}

func (s *MemoryStore) CountAwaitingRenewalApproval(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, e := range s.items {
		if e.AwaitingRenewalApproval() {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) AppendMovement(_ context.Context, m *equipment.Movement) error {
	if err := s.fail("AppendMovement", m.EquipmentTag); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	m.ID = s.nextID
	c := *m
	s.movements = append(s.movements, &c)
	return nil
}

func (s *MemoryStore) CountMovements(_ context.Context, tag string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.movements {
		if m.EquipmentTag == tag {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Movements(_ context.Context, tag string) ([]*equipment.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*equipment.Movement
	for _, m := range s.movements {
		if m.EquipmentTag == tag {
			c := *m
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *MemoryStore) RecentMovements(_ context.Context, limit int) ([]*equipment.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*equipment.Movement
	for i := len(s.movements) - 1; i >= 0 && len(out) < limit; i-- {
		c := *s.movements[i]
		out = append(out, &c)
	}
	return out, nil
}

func (s *MemoryStore) IsCatalogValueInUse(_ context.Context, kind, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.items {
		if e.Status == equipment.StatusReturnedToVendor {
			continue
		}
		var field string
		switch kind {
		case catalog.KindEquipmentType:
			field = e.Type
		case catalog.KindBrand:
			field = e.Brand
		case catalog.KindVendor:
			field = e.Vendor
		case catalog.KindEmailDomain:
			if at := strings.LastIndex(e.AssignedEmail, "@"); at >= 0 {
				field = e.AssignedEmail[at+1:]
			}
		}
		if field != "" && strings.EqualFold(field, value) {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) Transaction(_ context.Context, fn func(tx equipment.Store) error) error {
	s.mu.Lock()
	items := make(map[string]*equipment.Equipment, len(s.items))
	for k, v := range s.items {
		items[k] = v.Clone()
	}
	movements := len(s.movements)
	nextID := s.nextID
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.items = items
		s.movements = s.movements[:movements]
		s.nextID = nextID
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *MemoryStore) fail(op, tag string) error {
	if s.Fail == nil {
		return nil
	}
	return s.Fail(op, tag)
}

func containsStatus(statuses []equipment.Status, st equipment.Status) bool {
	for _, s := range statuses {
		if s == st {
			return true
		}
	}
	return false
}

// StaticCatalog answers ActiveValues from a fixed map.
type StaticCatalog map[string][]string

func (c StaticCatalog) ActiveValues(_ context.Context, kind string) ([]string, error) {
	return c[kind], nil
}

// DefaultCatalog returns the reference values used by most tests.
func DefaultCatalog() StaticCatalog {
	return StaticCatalog{
		catalog.KindEquipmentType: {"Laptop", "Monitor", "Phone"},
		catalog.KindBrand:         {"Dell", "Lenovo", "Apple"},
		catalog.KindVendor:        {"TechSupply"},
		catalog.KindEmailDomain:   {"company.com"},
	}
}
