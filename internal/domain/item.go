package domain

// Category is the closed set of item kinds. Behaviour that varies by kind
// hangs off Category methods instead of per-item logic.
type Category string

const (
	CategoryResource   Category = "resource"
	CategoryTool       Category = "tool"
	CategoryWeapon     Category = "weapon"
	CategoryConsumable Category = "consumable"
	CategoryCurrency   Category = "currency"
)

// Categories lists every valid category.
var Categories = []Category{
	CategoryResource,
	CategoryTool,
	CategoryWeapon,
	CategoryConsumable,
	CategoryCurrency,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// DefaultStackable is used when a catalog entry leaves stackable unset.
func (c Category) DefaultStackable() bool {
	switch c {
	case CategoryResource, CategoryConsumable, CategoryCurrency:
		return true
	default:
		return false
	}
}

// DefaultMaxStack is used when a stackable catalog entry leaves maxStack unset.
func (c Category) DefaultMaxStack() int {
	switch c {
	case CategoryCurrency:
		return 10000
	case CategoryResource:
		return 100
	case CategoryConsumable:
		return 20
	default:
		return 1
	}
}

// ItemType is an immutable catalog definition.
type ItemType struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Stackable   bool     `json:"stackable"`
	MaxStack    int      `json:"maxStack"`
	Tradeable   bool     `json:"tradeable"`
	Icon        string   `json:"icon,omitempty"`
	Model       string   `json:"model,omitempty"`
}

// NewStack builds a stack of this type with denormalized display fields.
func (t ItemType) NewStack(quantity int) *Stack {
	return &Stack{
		ItemType:    t.ID,
		Name:        t.Name,
		Description: t.Description,
		Quantity:    quantity,
	}
}
