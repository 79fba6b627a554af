package catalog

import (
	"fmt"

	"github.com/osse101/realmkeeper/internal/domain"
)

// Catalog is the process-wide table of item types. It is never mutated
// after construction, so reads need no locking.
type Catalog struct {
	types map[string]domain.ItemType
	order []string
}

// New builds a catalog from fully-resolved item types.
func New(types ...domain.ItemType) (*Catalog, error) {
	c := &Catalog{
		types: make(map[string]domain.ItemType, len(types)),
		order: make([]string, 0, len(types)),
	}
	for _, t := range types {
		if _, dup := c.types[t.ID]; dup {
			return nil, fmt.Errorf("%w: '%s'", ErrDuplicateID, t.ID)
		}
		if t.MaxStack < 1 {
			return nil, fmt.Errorf(ErrFmtBadMaxStack, ErrInvalidConfig, t.ID, t.MaxStack)
		}
		c.types[t.ID] = t
		c.order = append(c.order, t.ID)
	}
	return c, nil
}

// Get returns the item type with the given id.
func (c *Catalog) Get(id string) (domain.ItemType, bool) {
	t, ok := c.types[id]
	return t, ok
}

// Lookup is Get returning ErrItemTypeUnknown for unknown ids.
func (c *Catalog) Lookup(id string) (domain.ItemType, error) {
	t, ok := c.types[id]
	if !ok {
		return domain.ItemType{}, fmt.Errorf("%w: %s", domain.ErrItemTypeUnknown, id)
	}
	return t, nil
}

// MustGet is Get for ids known to exist, such as the configured starter item.
func (c *Catalog) MustGet(id string) domain.ItemType {
	t, ok := c.types[id]
	if !ok {
		panic(fmt.Sprintf("catalog: unknown item type %q", id))
	}
	return t
}

// All returns every item type in configuration order.
func (c *Catalog) All() []domain.ItemType {
	out := make([]domain.ItemType, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.types[id])
	}
	return out
}

// Len returns the number of item types.
func (c *Catalog) Len() int {
	return len(c.order)
}
