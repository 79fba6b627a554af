package domain

import "time"

// Vec3 is a world-space position or rotation.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// WorldItem is one pickup-able item lying in the shared world.
type WorldItem struct {
	InstanceID  string    `json:"instanceId"`
	ItemType    string    `json:"itemType"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Position    Vec3      `json:"position"`
	Quantity    int       `json:"quantity"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Stack returns the inventory stack a pickup of this instance produces.
func (w WorldItem) Stack() *Stack {
	return &Stack{
		ItemType:    w.ItemType,
		Name:        w.Name,
		Description: w.Description,
		Quantity:    w.Quantity,
	}
}
