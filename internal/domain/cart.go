package domain

// CartLine is a menu item snapshot plus a quantity. The cart holds at most
// one line per product id; quantity 0 means the line is gone.
type CartLine struct {
	Item         MenuItem `json:"item"`
	Quantity     int      `json:"quantity"`
	Instructions string   `json:"instructions,omitempty"`
}

// Subtotal is price times quantity for this line.
func (l CartLine) Subtotal() float64 {
	return l.Item.Price * float64(l.Quantity)
}
