package cart

import (
	"strings"

	"github.com/thryvyng/club-api/internal/pricing"
)

// ItemType distinguishes the kinds of line items a cart can hold.
type ItemType string

const (
	TypeCourse   ItemType = "course"
	TypeProduct  ItemType = "product"
	TypeDonation ItemType = "donation"
)

// Stacks reports whether a duplicate add should increment quantity. Only
// products stack; adding a course or donation twice is a no-op.
func (t ItemType) Stacks() bool { return t == TypeProduct }

// Valid reports whether the type is one of the known kinds.
func (t ItemType) Valid() bool {
	switch t {
	case TypeCourse, TypeProduct, TypeDonation:
		return true
	}
	return false
}

// ParseItemType normalises a raw type string.
func ParseItemType(raw string) (ItemType, bool) {
	t := ItemType(strings.ToLower(strings.TrimSpace(raw)))
	return t, t.Valid()
}

// Item is a single cart line. Items are unique per (ID, Type).
type Item struct {
	Type         ItemType      `json:"type"`
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Price        pricing.Money `json:"price"`
	Quantity     int           `json:"quantity"`
	CVPercentage float64       `json:"cvPercentage,omitempty"`
	ImageURL     string        `json:"imageUrl,omitempty"`
	Variant      string        `json:"variant,omitempty"`
}

// Cart holds the line items for a single owner.
type Cart struct {
	Items []Item `json:"items"`
}

func (c *Cart) indexOf(id string, t ItemType) int {
	for i, it := range c.Items {
		if it.ID == id && it.Type == t {
			return i
		}
	}
	return -1
}

// Add inserts the item or, for stacking types, increments the existing
// entry's quantity by the requested amount. A duplicate add for a
// non-stacking type leaves the existing entry untouched. It reports whether
// the cart changed.
func (c *Cart) Add(item Item) bool {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	if i := c.indexOf(item.ID, item.Type); i >= 0 {
		if !item.Type.Stacks() {
			return false
		}
		c.Items[i].Quantity += item.Quantity
		return true
	}
	c.Items = append(c.Items, item)
	return true
}

// UpdateQuantity sets the quantity for the (id, type) entry. A quantity
// below 1 removes the item. It reports whether the entry existed.
func (c *Cart) UpdateQuantity(id string, t ItemType, quantity int) bool {
	i := c.indexOf(id, t)
	if i < 0 {
		return false
	}
	if quantity < 1 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		return true
	}
	c.Items[i].Quantity = quantity
	return true
}

// Remove deletes the (id, type) entry, reporting whether it existed.
func (c *Cart) Remove(id string, t ItemType) bool {
	i := c.indexOf(id, t)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

// Clear empties the cart.
func (c *Cart) Clear() { c.Items = nil }

// ItemCount is the sum of quantities across all lines.
func (c Cart) ItemCount() int {
	var n int
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// Subtotal is the sum of price * quantity across all lines.
func (c Cart) Subtotal() pricing.Money {
	var total pricing.Money
	for _, it := range c.Items {
		total += it.Price * pricing.Money(it.Quantity)
	}
	return total
}
