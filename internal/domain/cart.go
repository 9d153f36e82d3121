package domain

import "github.com/google/uuid"

// CartItem is one product entry in a cart. Quantity is always at least 1.
type CartItem struct {
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
}

// Cart holds a user's items, unique by product.
type Cart struct {
	UserID uuid.UUID  `json:"user_id"`
	Items  []CartItem `json:"items"`
}

// Find returns the index of the item for productID, or -1.
func (c *Cart) Find(productID uuid.UUID) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// Add increments the quantity of an existing item or appends a new one with quantity 1.
func (c *Cart) Add(productID uuid.UUID) {
	if i := c.Find(productID); i >= 0 {
		c.Items[i].Quantity++
		return
	}
	c.Items = append(c.Items, CartItem{ProductID: productID, Quantity: 1})
}

// Remove drops the whole item for productID. Missing products are ignored.
func (c *Cart) Remove(productID uuid.UUID) {
	i := c.Find(productID)
	if i < 0 {
		return
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
}

// Clear empties the cart. The cart itself lives as long as its user.
func (c *Cart) Clear() {
	c.Items = []CartItem{}
}

// CartLine is a cart item joined with its product at read time. It is never persisted.
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Subtotal is unit price times quantity.
func (l CartLine) Subtotal() Money {
	return l.Product.Price.Times(l.Quantity)
}

// CartTotal sums price × quantity over all lines.
func CartTotal(lines []CartLine) Money {
	var total Money
	for _, line := range lines {
		total += line.Subtotal()
	}
	return total
}
