package cart

// PointsPerUnitSpent is the spend, in currency units, that earns one loyalty point.
const PointsPerUnitSpent = 100

// Entry is one product line in the cart. Quantity is always at least 1.
type Entry struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// LineTotal is the effective unit price times quantity.
func (e Entry) LineTotal() int {
	return e.Product.EffectivePrice() * e.Quantity
}

// Totals are the aggregates derived from the cart entries.
type Totals struct {
	CartTotal    int `json:"cart_total"`
	ItemsCount   int `json:"items_count"`
	PointsToEarn int `json:"points_to_earn"`
}

// Store owns the ordered cart entries for a single shopper. It is not safe for
// concurrent use; callers serialize access.
//
// Mutations never fail. Each reports whether it changed the cart so callers
// can tell a silent no-op from an applied change.
type Store struct {
	entries []Entry
}

// NewStore returns an empty cart.
func NewStore() *Store {
	return &Store{}
}

// AddToCart increments the entry for product.ID or appends a new entry with
// quantity 1. An existing entry keeps its position and its product snapshot.
func (s *Store) AddToCart(product Product) bool {
	if idx := s.indexOf(product.ID); idx >= 0 {
		s.entries[idx].Quantity++
		return true
	}
	s.entries = append(s.entries, Entry{Product: product.clone(), Quantity: 1})
	return true
}

// RemoveFromCart deletes the entry for productID if present.
func (s *Store) RemoveFromCart(productID string) bool {
	idx := s.indexOf(productID)
	if idx < 0 {
		return false
	}
	s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
	return true
}

// IncrementQuantity adds one to the entry for productID if present.
func (s *Store) IncrementQuantity(productID string) bool {
	idx := s.indexOf(productID)
	if idx < 0 {
		return false
	}
	s.entries[idx].Quantity++
	return true
}

// DecrementQuantity removes one from the entry for productID only while its
// quantity is above 1. It never removes the entry.
func (s *Store) DecrementQuantity(productID string) bool {
	idx := s.indexOf(productID)
	if idx < 0 || s.entries[idx].Quantity <= 1 {
		return false
	}
	s.entries[idx].Quantity--
	return true
}

// ClearCart empties the cart.
func (s *Store) ClearCart() bool {
	if len(s.entries) == 0 {
		return false
	}
	s.entries = nil
	return true
}

// Entries returns a copy of the entries in insertion order.
func (s *Store) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	for i, entry := range s.entries {
		out[i] = Entry{Product: entry.Product.clone(), Quantity: entry.Quantity}
	}
	return out
}

// Quantity returns the quantity held for productID.
func (s *Store) Quantity(productID string) (int, bool) {
	idx := s.indexOf(productID)
	if idx < 0 {
		return 0, false
	}
	return s.entries[idx].Quantity, true
}

// Len returns the number of distinct products in the cart.
func (s *Store) Len() int {
	return len(s.entries)
}

// Totals recomputes every aggregate from the current entries.
func (s *Store) Totals() Totals {
	total, count := 0, 0
	for _, entry := range s.entries {
		total += entry.LineTotal()
		count += entry.Quantity
	}
	return Totals{
		CartTotal:    total,
		ItemsCount:   count,
		PointsToEarn: PointsFor(total),
	}
}

func (s *Store) CartTotal() int {
	return s.Totals().CartTotal
}

func (s *Store) ItemsCount() int {
	return s.Totals().ItemsCount
}

func (s *Store) PointsToEarn() int {
	return s.Totals().PointsToEarn
}

// PointsFor returns the loyalty points earned on a spend, rounded down.
func PointsFor(total int) int {
	if total <= 0 {
		return 0
	}
	return total / PointsPerUnitSpent
}

func (s *Store) indexOf(productID string) int {
	for i, entry := range s.entries {
		if entry.Product.ID == productID {
			return i
		}
	}
	return -1
}
