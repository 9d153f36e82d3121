package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProductSnapshot is a value copy of a product taken when the order was placed.
// Later catalog edits never reach it.
type ProductSnapshot struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       Money     `json:"price"`
	ImagePath   string    `json:"image_path"`
}

// OrderProduct is one order line.
type OrderProduct struct {
	Product  ProductSnapshot `json:"product"`
	Quantity int             `json:"quantity"`
}

// OrderUser identifies the buyer; Email is copied at checkout time.
type OrderUser struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}

// Order is immutable once persisted.
type Order struct {
	ID        uuid.UUID      `json:"id"`
	User      OrderUser      `json:"user"`
	Products  []OrderProduct `json:"products"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewOrder snapshots the given cart lines into an order for user.
func NewOrder(user *User, lines []CartLine, now time.Time) *Order {
	products := make([]OrderProduct, 0, len(lines))
	for _, line := range lines {
		products = append(products, OrderProduct{
			Product:  line.Product.Snapshot(),
			Quantity: line.Quantity,
		})
	}

	return &Order{
		ID: uuid.New(),
		User: OrderUser{
			UserID: user.ID,
			Email:  user.Email,
		},
		Products:  products,
		CreatedAt: now,
	}
}

// OwnedBy reports whether userID placed the order.
func (o *Order) OwnedBy(userID uuid.UUID) bool {
	return o.User.UserID == userID
}

// InvoiceTotal sums the unit price of each line, ignoring quantity.
// Checkout charges price × quantity; see CartTotal.
func (o *Order) InvoiceTotal() Money {
	var total Money
	for _, p := range o.Products {
		total += p.Product.Price
	}
	return total
}

// OrderPlacedEvent is published after an order has been persisted.
type OrderPlacedEvent struct {
	OrderID   uuid.UUID      `json:"order_id"`
	UserID    uuid.UUID      `json:"user_id"`
	Email     string         `json:"email"`
	Products  []OrderProduct `json:"products"`
	Total     Money          `json:"total"`
	Timestamp time.Time      `json:"timestamp"`
}
